package provisioner

import (
	"context"
	"fmt"
	"math/big"
	"reflect"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ruteri/eir-deployer/interfaces"
	"go.uber.org/atomic"
)

// Journal entry kinds.
const (
	StepProvision = "provision"
	StepSubmit    = "submit"
)

// JournalEntry records one operation performed by a MemoryProvisioner.
type JournalEntry struct {
	Step        string         `json:"step"`
	Resource    string         `json:"resource"`
	Template    string         `json:"template,omitempty"`
	Method      string         `json:"method,omitempty"`
	Args        []any          `json:"args,omitempty"`
	Address     common.Address `json:"address"`
	Reused      bool           `json:"reused,omitempty"`
	BlockNumber uint64         `json:"block_number"`
}

// MemoryProvisioner provides an in-memory implementation of the
// ResourceProvisioner interface. Addresses are derived from the deployer
// address and a nonce, as on chain, so a dry run predicts the addresses of a
// fresh deployment by the same account.
type MemoryProvisioner struct {
	mutex     sync.Mutex
	deployer  common.Address
	nonce     uint64
	block     uint64
	resources map[string]*memoryHandle
	owners    map[common.Address]common.Address
	modules   map[common.Address]map[common.Address]common.Address
	journal   []JournalEntry

	failProvision map[string]error
	failSubmit    map[string]error

	provisions  atomic.Int64
	submissions atomic.Int64
}

// NewMemoryProvisioner creates an empty provisioner deploying from deployer.
func NewMemoryProvisioner(deployer common.Address) *MemoryProvisioner {
	return &MemoryProvisioner{
		deployer:      deployer,
		resources:     make(map[string]*memoryHandle),
		owners:        make(map[common.Address]common.Address),
		modules:       make(map[common.Address]map[common.Address]common.Address),
		failProvision: make(map[string]error),
		failSubmit:    make(map[string]error),
	}
}

// FailProvision makes provisioning of deployedName fail with err.
func (m *MemoryProvisioner) FailProvision(deployedName string, err error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.failProvision[deployedName] = err
}

// FailSubmit makes submissions of call (as formatted by interfaces.Call.String)
// fail with err.
func (m *MemoryProvisioner) FailSubmit(call string, err error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.failSubmit[call] = err
}

// SetOwner overrides the recorded owner of a resource.
func (m *MemoryProvisioner) SetOwner(resource, owner common.Address) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.owners[resource] = owner
}

// ProvisionUpgradeable records a deployment of templateName, or returns the
// existing one for deployedName.
func (m *MemoryProvisioner) ProvisionUpgradeable(ctx context.Context, templateName, deployedName, initializer string, args ...any) (interfaces.ResourceHandle, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.provisions.Inc()

	if err := m.failProvision[deployedName]; err != nil {
		return nil, err
	}

	if existing, ok := m.resources[deployedName]; ok {
		if existing.template != templateName {
			return nil, fmt.Errorf("%s is recorded as a %s deployment, not %s", deployedName, existing.template, templateName)
		}
		if existing.initializer != initializer || !reflect.DeepEqual(existing.args, args) {
			return nil, fmt.Errorf("%w: %s at %s", ErrInitializerMismatch, deployedName, existing.address.Hex())
		}
		m.journal = append(m.journal, JournalEntry{
			Step:        StepProvision,
			Resource:    deployedName,
			Template:    templateName,
			Method:      initializer,
			Args:        args,
			Address:     existing.address,
			Reused:      true,
			BlockNumber: m.block,
		})
		return existing, nil
	}

	// The implementation takes the current nonce, the proxy the next one.
	address := crypto.CreateAddress(m.deployer, m.nonce+1)
	m.nonce += 2
	m.block++

	handle := &memoryHandle{
		provisioner: m,
		name:        deployedName,
		template:    templateName,
		address:     address,
		initializer: initializer,
		args:        args,
	}
	m.resources[deployedName] = handle
	m.owners[address] = m.deployer
	m.journal = append(m.journal, JournalEntry{
		Step:        StepProvision,
		Resource:    deployedName,
		Template:    templateName,
		Method:      initializer,
		Args:        args,
		Address:     address,
		BlockNumber: m.block,
	})

	return handle, nil
}

// SubmitAndWait applies call immediately and returns a successful receipt.
func (m *MemoryProvisioner) SubmitAndWait(ctx context.Context, call interfaces.Call) (*types.Receipt, error) {
	if call.Target == nil {
		return nil, fmt.Errorf("no target for %s", call)
	}

	m.submissions.Inc()

	m.mutex.Lock()
	err := m.failSubmit[call.String()]
	m.mutex.Unlock()
	if err != nil {
		return nil, err
	}

	tx, err := call.Target.Transact(&bind.TransactOpts{From: m.deployer, Context: ctx}, call.Method, call.Args...)
	if err != nil {
		return nil, fmt.Errorf("could not submit %s: %w", call, err)
	}

	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.block++
	m.journal = append(m.journal, JournalEntry{
		Step:        StepSubmit,
		Resource:    call.Target.Name(),
		Method:      call.Method,
		Args:        call.Args,
		Address:     call.Target.Address(),
		BlockNumber: m.block,
	})

	return &types.Receipt{
		Status:      types.ReceiptStatusSuccessful,
		TxHash:      tx.Hash(),
		BlockNumber: new(big.Int).SetUint64(m.block),
	}, nil
}

// Journal returns a copy of all operations performed so far.
func (m *MemoryProvisioner) Journal() []JournalEntry {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	journal := make([]JournalEntry, len(m.journal))
	copy(journal, m.journal)
	return journal
}

// ModuleFor returns the module registered for token on manager.
func (m *MemoryProvisioner) ModuleFor(manager, token common.Address) (common.Address, bool) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	module, ok := m.modules[manager][token]
	return module, ok
}

// Provisions returns the number of ProvisionUpgradeable calls, including failed ones.
func (m *MemoryProvisioner) Provisions() int64 {
	return m.provisions.Load()
}

// Submissions returns the number of SubmitAndWait calls, including failed ones.
func (m *MemoryProvisioner) Submissions() int64 {
	return m.submissions.Load()
}

// memoryHandle supports the owner(), transferOwnership(address) and
// setModuleFor(address,address) methods.
type memoryHandle struct {
	provisioner *MemoryProvisioner
	name        string
	template    string
	address     common.Address
	initializer string
	args        []any
}

func (h *memoryHandle) Name() string {
	return h.name
}

func (h *memoryHandle) Address() common.Address {
	return h.address
}

func (h *memoryHandle) Call(ctx context.Context, method string, args ...any) ([]any, error) {
	m := h.provisioner
	m.mutex.Lock()
	defer m.mutex.Unlock()

	switch method {
	case "owner":
		return []any{m.owners[h.address]}, nil
	default:
		return nil, fmt.Errorf("method %s not supported by %s", method, h.template)
	}
}

func (h *memoryHandle) Transact(opts *bind.TransactOpts, method string, args ...any) (*types.Transaction, error) {
	if opts == nil {
		return nil, ErrNoTransactOpts
	}

	m := h.provisioner
	m.mutex.Lock()
	defer m.mutex.Unlock()

	switch method {
	case "transferOwnership":
		newOwner, err := addressArgs(method, args, 1)
		if err != nil {
			return nil, err
		}
		if m.owners[h.address] != opts.From {
			return nil, fmt.Errorf("%s: caller %s is not the owner", method, opts.From.Hex())
		}
		m.owners[h.address] = newOwner[0]
	case "setModuleFor":
		pair, err := addressArgs(method, args, 2)
		if err != nil {
			return nil, err
		}
		if m.modules[h.address] == nil {
			m.modules[h.address] = make(map[common.Address]common.Address)
		}
		m.modules[h.address][pair[0]] = pair[1]
	default:
		return nil, fmt.Errorf("method %s not supported by %s", method, h.template)
	}

	tx := types.NewTx(&types.LegacyTx{
		Nonce: m.nonce,
		To:    &h.address,
		Data:  []byte(method),
	})
	m.nonce++
	return tx, nil
}

func addressArgs(method string, args []any, n int) ([]common.Address, error) {
	if len(args) != n {
		return nil, fmt.Errorf("%s: expected %d arguments, got %d", method, n, len(args))
	}

	addrs := make([]common.Address, n)
	for i, arg := range args {
		addr, ok := arg.(common.Address)
		if !ok {
			return nil, fmt.Errorf("%s: argument %d is %T, not an address", method, i, arg)
		}
		addrs[i] = addr
	}
	return addrs, nil
}
