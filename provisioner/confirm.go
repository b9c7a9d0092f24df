package provisioner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/core/types"
)

// ErrTransactionFailed is returned when a mined transaction has a failed status.
var ErrTransactionFailed = errors.New("transaction reverted")

// confirm waits until tx is mined and buried under the configured number of
// confirmations. A reverted transaction is returned together with its receipt.
func (p *EthProvisioner) confirm(ctx context.Context, tx *types.Transaction) (*types.Receipt, error) {
	receipt, err := p.waitMined(ctx, tx)
	if err != nil {
		return nil, err
	}

	if receipt.Status != types.ReceiptStatusSuccessful {
		p.log.Error("Transaction reverted",
			"txHash", tx.Hash().Hex(),
			"block", receipt.BlockNumber.Uint64(),
			"gasUsed", receipt.GasUsed)
		return receipt, fmt.Errorf("%w: %s", ErrTransactionFailed, tx.Hash().Hex())
	}

	if p.cfg.Confirmations > 1 {
		target := receipt.BlockNumber.Uint64() + p.cfg.Confirmations - 1
		if err := p.waitBlock(ctx, target); err != nil {
			return receipt, err
		}
	}

	return receipt, nil
}

func (p *EthProvisioner) waitMined(ctx context.Context, tx *types.Transaction) (*types.Receipt, error) {
	ticker := time.NewTicker(p.cfg.PollInterval)
	defer ticker.Stop()

	for {
		receipt, err := p.backend.TransactionReceipt(ctx, tx.Hash())
		if err == nil {
			return receipt, nil
		}
		if !errors.Is(err, ethereum.NotFound) {
			p.log.Debug("Receipt retrieval failed", "txHash", tx.Hash().Hex(), "err", err)
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("waiting for %s: %w", tx.Hash().Hex(), ctx.Err())
		case <-ticker.C:
		}
	}
}

func (p *EthProvisioner) waitBlock(ctx context.Context, target uint64) error {
	ticker := time.NewTicker(p.cfg.PollInterval)
	defer ticker.Stop()

	for {
		head, err := p.backend.BlockNumber(ctx)
		if err == nil && head >= target {
			return nil
		}
		if err != nil {
			p.log.Debug("Block number retrieval failed", "err", err)
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("waiting for block %d: %w", target, ctx.Err())
		case <-ticker.C:
		}
	}
}
