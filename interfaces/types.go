package interfaces

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// ResourceHandle is a reference to a provisioned on-chain resource.
type ResourceHandle interface {
	// Name returns the logical deployment name of the resource.
	Name() string

	// Address returns the address callers should interact with (the proxy for
	// upgradeable resources).
	Address() common.Address

	// Call performs a read-only contract call and returns the decoded outputs.
	Call(ctx context.Context, method string, args ...any) ([]any, error)

	// Transact submits a state-changing contract call without waiting for it.
	Transact(opts *bind.TransactOpts, method string, args ...any) (*types.Transaction, error)
}

// Call describes a state-changing invocation of a method on a resource.
type Call struct {
	Target ResourceHandle
	Method string
	Args   []any
}

// NewCall creates a call of method on target with the given arguments.
func NewCall(target ResourceHandle, method string, args ...any) Call {
	return Call{Target: target, Method: method, Args: args}
}

// String returns "<resource>.<method>", suitable for logs and errors.
func (c Call) String() string {
	if c.Target == nil {
		return "<nil>." + c.Method
	}
	return fmt.Sprintf("%s.%s", c.Target.Name(), c.Method)
}

// ResourceProvisioner deploys (or locates) resources and submits confirmed
// transactions against them.
type ResourceProvisioner interface {
	// ProvisionUpgradeable deploys templateName behind an upgradeable proxy
	// under deployedName, calling initializer with args if it is not empty.
	// Implementations reuse an existing deployment with the same name.
	ProvisionUpgradeable(ctx context.Context, templateName, deployedName, initializer string, args ...any) (ResourceHandle, error)

	// SubmitAndWait submits call and blocks until it is confirmed. It fails
	// if the submission fails or the transaction reverts.
	SubmitAndWait(ctx context.Context, call Call) (*types.Receipt, error)
}
