package deployer

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ruteri/eir-deployer/interfaces"
)

// ReconcileOwnership transfers ownership of handle to target unless target is
// the zero address or already owns it. The transfer is confirmed before
// returning.
func (o *Orchestrator) ReconcileOwnership(ctx context.Context, handle interfaces.ResourceHandle, target common.Address) error {
	log := o.log.With("resource", handle.Name(), "target", target.Hex())

	if target == (common.Address{}) {
		log.Debug("No ownership target, skipping reconciliation")
		return nil
	}

	owner, err := currentOwner(ctx, handle)
	if err != nil {
		return provisioningError("read owner", handle.Name(), err)
	}

	if owner == target {
		log.Debug("Ownership already reconciled")
		return nil
	}

	receipt, err := o.provisioner.SubmitAndWait(ctx, interfaces.NewCall(handle, TransferOwnerMethod, target))
	if err != nil {
		return provisioningError("transfer ownership", handle.Name(), err)
	}

	log.Info("Ownership transferred",
		"previousOwner", owner.Hex(),
		"txHash", receipt.TxHash.Hex())
	return nil
}

func currentOwner(ctx context.Context, handle interfaces.ResourceHandle) (common.Address, error) {
	out, err := handle.Call(ctx, OwnerMethod)
	if err != nil {
		return common.Address{}, err
	}
	if len(out) != 1 {
		return common.Address{}, fmt.Errorf("unexpected %s() output length %d", OwnerMethod, len(out))
	}

	return *abi.ConvertType(out[0], new(common.Address)).(*common.Address), nil
}
