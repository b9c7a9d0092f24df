package deployer

import (
	"context"
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ruteri/eir-deployer/interfaces"
	"github.com/ruteri/eir-deployer/provisioner"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ownerOf(t *testing.T, handle interfaces.ResourceHandle) common.Address {
	owner, err := currentOwner(context.Background(), handle)
	require.NoError(t, err)
	return owner
}

func TestRun_ReconcileAlreadyOwned(t *testing.T) {
	p := provisioner.NewMemoryProvisioner(deployerAddr)
	o := NewOrchestrator(p, testLogger(), true)

	net := testNetwork(twoModules()...)
	net.Admin = deployerAddr

	_, err := o.Run(context.Background(), net)
	require.NoError(t, err)

	// Registrations only, no transfers.
	assert.Equal(t, int64(2), p.Submissions())
	for _, entry := range p.Journal() {
		assert.NotEqual(t, TransferOwnerMethod, entry.Method)
	}
}

func TestRun_ReconcileTransfersOwnership(t *testing.T) {
	p := provisioner.NewMemoryProvisioner(deployerAddr)
	o := NewOrchestrator(p, testLogger(), true)

	deployment, err := o.Run(context.Background(), testNetwork(twoModules()...))
	require.NoError(t, err)

	require.Len(t, deployment.Modules, 2)

	// Two registrations and four transfers.
	assert.Equal(t, int64(6), p.Submissions())
	for _, handle := range []interfaces.ResourceHandle{
		deployment.Vault,
		deployment.Manager,
		deployment.Modules[0].Handle,
		deployment.Modules[1].Handle,
	} {
		assert.Equal(t, adminAddr, ownerOf(t, handle), handle.Name())
	}

	// Each module is handed over right after its registration.
	var steps []string
	for _, entry := range p.Journal() {
		if entry.Step == provisioner.StepSubmit {
			steps = append(steps, entry.Resource+"."+entry.Method)
		}
	}
	assert.Equal(t, []string{
		ManagerName + "." + RegisterMethod,
		"M1." + TransferOwnerMethod,
		ManagerName + "." + RegisterMethod,
		"M2." + TransferOwnerMethod,
		VaultName + "." + TransferOwnerMethod,
		ManagerName + "." + TransferOwnerMethod,
	}, steps)
}

func TestRun_ReconcileDisabled(t *testing.T) {
	p := provisioner.NewMemoryProvisioner(deployerAddr)
	o := NewOrchestrator(p, testLogger(), false)

	deployment, err := o.Run(context.Background(), testNetwork(twoModules()...))
	require.NoError(t, err)

	assert.Equal(t, int64(2), p.Submissions())
	assert.Equal(t, deployerAddr, ownerOf(t, deployment.Vault))
}

func TestReconcileOwnership(t *testing.T) {
	ctx := context.Background()

	t.Run("zero target", func(t *testing.T) {
		p := provisioner.NewMemoryProvisioner(deployerAddr)
		o := NewOrchestrator(p, testLogger(), true)
		vault, err := p.ProvisionUpgradeable(ctx, VaultTemplate, VaultName, "")
		require.NoError(t, err)

		require.NoError(t, o.ReconcileOwnership(ctx, vault, common.Address{}))
		assert.Equal(t, int64(0), p.Submissions())
	})

	t.Run("owned by someone else", func(t *testing.T) {
		p := provisioner.NewMemoryProvisioner(deployerAddr)
		o := NewOrchestrator(p, testLogger(), true)
		vault, err := p.ProvisionUpgradeable(ctx, VaultTemplate, VaultName, "")
		require.NoError(t, err)
		p.SetOwner(vault.Address(), common.HexToAddress("0x3333333333333333333333333333333333333333"))

		err = o.ReconcileOwnership(ctx, vault, adminAddr)
		assert.ErrorIs(t, err, ErrProvisioning)

		var deployErr *Error
		require.ErrorAs(t, err, &deployErr)
		assert.Equal(t, "transfer ownership", deployErr.Step)
		assert.Equal(t, VaultName, deployErr.Resource)
	})

	t.Run("transfer fails", func(t *testing.T) {
		revert := errors.New("execution reverted")
		p := provisioner.NewMemoryProvisioner(deployerAddr)
		p.FailSubmit(VaultName+"."+TransferOwnerMethod, revert)
		o := NewOrchestrator(p, testLogger(), true)
		vault, err := p.ProvisionUpgradeable(ctx, VaultTemplate, VaultName, "")
		require.NoError(t, err)

		err = o.ReconcileOwnership(ctx, vault, adminAddr)
		assert.ErrorIs(t, err, revert)
	})
}
