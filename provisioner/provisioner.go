package provisioner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ruteri/eir-deployer/interfaces"
)

// DefaultProxyTemplate is the artifact used to front every implementation.
// Its constructor must be (address implementation, bytes initData).
const DefaultProxyTemplate = "ERC1967Proxy"

// ErrInitializerMismatch is returned when a recorded resource was initialized
// with arguments other than the requested ones.
var ErrInitializerMismatch = errors.New("recorded deployment has different initializer arguments")

// Backend is the chain access the provisioner needs. Both *ethclient.Client
// and the simulated backend's client satisfy it.
type Backend interface {
	bind.ContractBackend
	bind.DeployBackend
	ethereum.BlockNumberReader
}

// Config holds the provisioner settings.
type Config struct {
	// Network names the records namespace.
	Network string

	// ProxyTemplate defaults to DefaultProxyTemplate.
	ProxyTemplate string

	// Confirmations is the number of blocks (including the inclusion block)
	// a transaction must be buried under. Values below 1 mean 1.
	Confirmations uint64

	// PollInterval defaults to one second.
	PollInterval time.Duration
}

// EthProvisioner implements interfaces.ResourceProvisioner on an Ethereum
// compatible chain. Resources are deployed as an implementation contract plus
// a proxy initialized in its constructor, and recorded in a RecordStore so
// that later runs reuse them.
type EthProvisioner struct {
	backend   Backend
	auth      *bind.TransactOpts
	artifacts *ArtifactStore
	records   interfaces.RecordStore
	cfg       Config
	log       *slog.Logger
}

// NewEthProvisioner creates a provisioner sending transactions with auth.
func NewEthProvisioner(backend Backend, auth *bind.TransactOpts, artifacts *ArtifactStore, records interfaces.RecordStore, cfg Config, log *slog.Logger) *EthProvisioner {
	if cfg.ProxyTemplate == "" {
		cfg.ProxyTemplate = DefaultProxyTemplate
	}
	if cfg.Confirmations == 0 {
		cfg.Confirmations = 1
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = time.Second
	}

	return &EthProvisioner{
		backend:   backend,
		auth:      auth,
		artifacts: artifacts,
		records:   records,
		cfg:       cfg,
		log:       log.With("network", cfg.Network),
	}
}

// Deployer returns the address transactions are sent from.
func (p *EthProvisioner) Deployer() common.Address {
	if p.auth == nil {
		return common.Address{}
	}
	return p.auth.From
}

// ProvisionUpgradeable returns the recorded deployment of deployedName if its
// proxy still has code, and otherwise deploys templateName behind a proxy
// whose constructor calls initializer(args...).
func (p *EthProvisioner) ProvisionUpgradeable(ctx context.Context, templateName, deployedName, initializer string, args ...any) (interfaces.ResourceHandle, error) {
	log := p.log.With("template", templateName, "name", deployedName)

	artifact, err := p.artifacts.Load(templateName)
	if err != nil {
		return nil, err
	}

	initData := []byte{}
	if initializer != "" {
		initData, err = artifact.ABI.Pack(initializer, args...)
		if err != nil {
			return nil, fmt.Errorf("could not encode %s.%s: %w", templateName, initializer, err)
		}
	} else if len(args) > 0 {
		return nil, fmt.Errorf("%d initializer arguments given for %s without an initializer", len(args), templateName)
	}

	existing, err := p.existingDeployment(ctx, deployedName)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		if existing.Template != templateName {
			return nil, fmt.Errorf("%s is recorded as a %s deployment, not %s", deployedName, existing.Template, templateName)
		}
		// Records written before init data was kept carry none.
		if len(existing.InitData) > 0 && !bytes.Equal(existing.InitData, initData) {
			log.Error("Recorded deployment was initialized with different arguments",
				"address", existing.Address.Hex(),
				"recorded", hexutil.Encode(existing.InitData),
				"requested", hexutil.Encode(initData))
			return nil, fmt.Errorf("%w: %s at %s", ErrInitializerMismatch, deployedName, existing.Address.Hex())
		}
		log.Info("Reusing existing deployment", "address", existing.Address.Hex())
		return NewContractHandle(deployedName, existing.Address, artifact.ABI, p.backend), nil
	}

	proxyArtifact, err := p.artifacts.Load(p.cfg.ProxyTemplate)
	if err != nil {
		return nil, err
	}

	implementation, _, err := p.deploy(ctx, artifact)
	if err != nil {
		return nil, fmt.Errorf("failed to deploy %s implementation: %w", templateName, err)
	}
	log.Debug("Implementation deployed", "implementation", implementation.Hex())

	proxy, receipt, err := p.deploy(ctx, proxyArtifact, implementation, initData)
	if err != nil {
		return nil, fmt.Errorf("failed to deploy %s proxy: %w", deployedName, err)
	}

	record := &interfaces.DeploymentRecord{
		Network:        p.cfg.Network,
		Name:           deployedName,
		Template:       templateName,
		Address:        proxy,
		Implementation: implementation,
		InitData:       initData,
		TxHash:         receipt.TxHash,
		BlockNumber:    receipt.BlockNumber.Uint64(),
		DeployedAt:     time.Now().UTC(),
	}
	if err := p.records.Save(ctx, record); err != nil {
		// The resource exists on chain; without the record a re-run deploys it again.
		log.Error("Failed to save deployment record", "address", proxy.Hex(), "err", err)
		return nil, fmt.Errorf("failed to save deployment record for %s: %w", deployedName, err)
	}

	log.Info("Deployed upgradeable contract",
		"address", proxy.Hex(),
		"implementation", implementation.Hex(),
		"txHash", receipt.TxHash.Hex(),
		"block", record.BlockNumber)

	return NewContractHandle(deployedName, proxy, artifact.ABI, p.backend), nil
}

// SubmitAndWait sends call and waits for it to be confirmed.
func (p *EthProvisioner) SubmitAndWait(ctx context.Context, call interfaces.Call) (*types.Receipt, error) {
	if call.Target == nil {
		return nil, fmt.Errorf("no target for %s", call)
	}

	opts, err := p.transactOpts(ctx)
	if err != nil {
		return nil, err
	}

	tx, err := call.Target.Transact(opts, call.Method, call.Args...)
	if err != nil {
		return nil, fmt.Errorf("could not submit %s: %w", call, err)
	}

	p.log.Debug("Transaction submitted", "call", call.String(), "txHash", tx.Hash().Hex())

	receipt, err := p.confirm(ctx, tx)
	if err != nil {
		return receipt, fmt.Errorf("%s: %w", call, err)
	}
	return receipt, nil
}

func (p *EthProvisioner) existingDeployment(ctx context.Context, name string) (*interfaces.DeploymentRecord, error) {
	record, err := p.records.Load(ctx, p.cfg.Network, name)
	if errors.Is(err, interfaces.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load deployment record for %s: %w", name, err)
	}

	code, err := p.backend.CodeAt(ctx, record.Address, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to check code at %s: %w", record.Address.Hex(), err)
	}
	if len(code) == 0 {
		p.log.Warn("Recorded deployment has no code, deploying again",
			"name", name,
			"address", record.Address.Hex())
		return nil, nil
	}

	return record, nil
}

func (p *EthProvisioner) deploy(ctx context.Context, artifact *Artifact, params ...any) (common.Address, *types.Receipt, error) {
	opts, err := p.transactOpts(ctx)
	if err != nil {
		return common.Address{}, nil, err
	}

	address, tx, _, err := bind.DeployContract(opts, artifact.ABI, artifact.Bytecode, p.backend, params...)
	if err != nil {
		return common.Address{}, nil, err
	}

	receipt, err := p.confirm(ctx, tx)
	if err != nil {
		return common.Address{}, receipt, err
	}
	return address, receipt, nil
}

func (p *EthProvisioner) transactOpts(ctx context.Context) (*bind.TransactOpts, error) {
	if p.auth == nil {
		return nil, ErrNoTransactOpts
	}

	opts := *p.auth
	opts.Context = ctx
	return &opts, nil
}
