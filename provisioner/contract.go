package provisioner

import (
	"context"
	"errors"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// ErrNoTransactOpts is returned when a transaction is attempted without first setting transaction options.
var ErrNoTransactOpts = errors.New("no authorized transactor available")

// ContractHandle implements interfaces.ResourceHandle for a contract deployed
// on a blockchain, bound to the ABI of its template.
type ContractHandle struct {
	name     string
	address  common.Address
	contract *bind.BoundContract
}

// NewContractHandle binds contractABI at address. The backend is used both
// for reading and for sending transactions.
func NewContractHandle(name string, address common.Address, contractABI abi.ABI, backend bind.ContractBackend) *ContractHandle {
	return &ContractHandle{
		name:     name,
		address:  address,
		contract: bind.NewBoundContract(address, contractABI, backend, backend, backend),
	}
}

// Name returns the deployment name of the contract.
func (h *ContractHandle) Name() string {
	return h.name
}

// Address returns the contract address.
func (h *ContractHandle) Address() common.Address {
	return h.address
}

// Call invokes a constant method and returns its unpacked outputs.
func (h *ContractHandle) Call(ctx context.Context, method string, args ...any) ([]any, error) {
	var out []any
	err := h.contract.Call(&bind.CallOpts{Context: ctx}, &out, method, args...)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Transact sends a transaction invoking method.
// Returns the transaction and an error if the transaction could not be sent.
func (h *ContractHandle) Transact(opts *bind.TransactOpts, method string, args ...any) (*types.Transaction, error) {
	if opts == nil {
		return nil, ErrNoTransactOpts
	}

	return h.contract.Transact(opts, method, args...)
}
