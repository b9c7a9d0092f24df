package deployer

import (
	"context"
	"errors"
	"log/slog"
	"math/big"

	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ruteri/eir-deployer/config"
	"github.com/ruteri/eir-deployer/interfaces"
)

// Templates and deployment names of the base resources.
const (
	VaultTemplate   = "SafetyVault"
	ManagerTemplate = "VestaInterestManager"
	ModuleTemplate  = "VestaEIR"

	VaultName   = "SafetyVault"
	ManagerName = "VestaInterestManager"

	InitializerMethod   = "setUp"
	RegisterMethod      = "setModuleFor"
	OwnerMethod         = "owner"
	TransferOwnerMethod = "transferOwnership"
)

// BaseResources holds the resources every module depends on. It is produced
// by Run and passed explicitly to DeployModules.
type BaseResources struct {
	Vault   interfaces.ResourceHandle
	Manager interfaces.ResourceHandle
}

// ModuleDeployment is the outcome of provisioning and registering one module.
type ModuleDeployment struct {
	Spec         config.ModuleSpec
	Handle       interfaces.ResourceHandle
	Registration *types.Receipt
}

// Deployment is the outcome of a complete run.
type Deployment struct {
	BaseResources
	Modules []ModuleDeployment
}

// Orchestrator sequences the provisioning of the vault, the manager and the
// modules. An Orchestrator is meant for a single run per process.
type Orchestrator struct {
	provisioner        interfaces.ResourceProvisioner
	log                *slog.Logger
	reconcileOwnership bool
}

// NewOrchestrator creates an orchestrator driving provisioner. When
// reconcileOwnership is set, ownership of every resource is transferred to the
// network admin after it is provisioned.
func NewOrchestrator(provisioner interfaces.ResourceProvisioner, log *slog.Logger, reconcileOwnership bool) *Orchestrator {
	return &Orchestrator{
		provisioner:        provisioner,
		log:                log,
		reconcileOwnership: reconcileOwnership,
	}
}

// Run provisions the vault, then the manager with the vault's address, then
// every module, and finally reconciles ownership of the vault and manager if
// enabled. It stops at the first error; already provisioned resources are
// left in place.
func (o *Orchestrator) Run(ctx context.Context, net *config.NetworkConfig) (*Deployment, error) {
	if net == nil {
		return nil, configurationError("run", errors.New("network config not found"))
	}
	if net.Modules == nil {
		return nil, configurationError("run", errors.New("no modules found"))
	}

	o.log.Info("Provisioning base resources", "modules", len(net.Modules))

	vault, err := o.provisioner.ProvisionUpgradeable(ctx, VaultTemplate, VaultName, "")
	if err != nil {
		return nil, provisioningError("provision", VaultName, err)
	}
	o.log.Info("Vault provisioned", "address", vault.Address().Hex())

	manager, err := o.provisioner.ProvisionUpgradeable(ctx, ManagerTemplate, ManagerName, InitializerMethod,
		net.VST,
		net.TroveManager,
		net.PriceFeed,
		net.BorrowerOperations,
		vault.Address(),
	)
	if err != nil {
		return nil, provisioningError("provision", ManagerName, err)
	}
	o.log.Info("Manager provisioned", "address", manager.Address().Hex())

	deployment := &Deployment{BaseResources: BaseResources{Vault: vault, Manager: manager}}

	deployment.Modules, err = o.DeployModules(ctx, net, &deployment.BaseResources)
	if err != nil {
		return deployment, err
	}

	if o.reconcileOwnership {
		for _, handle := range []interfaces.ResourceHandle{vault, manager} {
			if err := o.ReconcileOwnership(ctx, handle, net.Admin); err != nil {
				return deployment, err
			}
		}
	}

	o.log.Info("Deployment complete",
		"vault", vault.Address().Hex(),
		"manager", manager.Address().Hex(),
		"modules", len(deployment.Modules))

	return deployment, nil
}

// DeployModules provisions and registers every module of net in list order.
// Module i is provisioned, registered and confirmed (and its ownership
// reconciled, if enabled) before module i+1 is started.
func (o *Orchestrator) DeployModules(ctx context.Context, net *config.NetworkConfig, base *BaseResources) ([]ModuleDeployment, error) {
	if net == nil || net.Modules == nil {
		return nil, configurationError("deploy modules", errors.New("no modules found"))
	}
	if base == nil || base.Vault == nil {
		return nil, dependencyError("deploy modules", VaultName)
	}
	if base.Manager == nil {
		return nil, dependencyError("deploy modules", ManagerName)
	}

	deployed := make([]ModuleDeployment, 0, len(net.Modules))
	for i, spec := range net.Modules {
		log := o.log.With("module", spec.Name, "index", i)

		module, err := o.provisioner.ProvisionUpgradeable(ctx, ModuleTemplate, spec.Name, InitializerMethod,
			net.VST,
			net.BorrowerOperations,
			base.Vault.Address(),
			base.Manager.Address(),
			spec.Name,
			spec.Symbol,
			new(big.Int).SetUint64(spec.Risk),
		)
		if err != nil {
			return deployed, provisioningError("provision", spec.Name, err)
		}
		log.Info("Module provisioned", "address", module.Address().Hex())

		receipt, err := o.provisioner.SubmitAndWait(ctx,
			interfaces.NewCall(base.Manager, RegisterMethod, spec.LinkedToken, module.Address()))
		if err != nil {
			return deployed, provisioningError("register", spec.Name, err)
		}
		log.Info("Module registered",
			"linkedToken", spec.LinkedToken.Hex(),
			"txHash", receipt.TxHash.Hex())

		deployed = append(deployed, ModuleDeployment{Spec: spec, Handle: module, Registration: receipt})

		if o.reconcileOwnership {
			if err := o.ReconcileOwnership(ctx, module, net.Admin); err != nil {
				return deployed, err
			}
		}
	}

	return deployed, nil
}
