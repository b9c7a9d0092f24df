package deployer

import (
	"errors"
	"fmt"
)

// ErrorKind classifies why a deployment run stopped.
type ErrorKind int

const (
	// ConfigurationError means required configuration is absent. It is
	// always raised before any side effect.
	ConfigurationError ErrorKind = iota + 1

	// DependencyError means a step started without the resource it depends
	// on. It indicates a programming error, not a transient condition.
	DependencyError

	// ProvisioningError means the provisioner failed to deploy a resource or
	// a submitted transaction failed.
	ProvisioningError
)

// String returns kind name.
func (k ErrorKind) String() string {
	switch k {
	case ConfigurationError:
		return "configuration error"
	case DependencyError:
		return "dependency error"
	case ProvisioningError:
		return "provisioning error"
	default:
		return "unknown error"
	}
}

var (
	// ErrConfiguration matches any *Error of kind ConfigurationError via errors.Is.
	ErrConfiguration = &Error{Kind: ConfigurationError}
	// ErrDependency matches any *Error of kind DependencyError via errors.Is.
	ErrDependency = &Error{Kind: DependencyError}
	// ErrProvisioning matches any *Error of kind ProvisioningError via errors.Is.
	ErrProvisioning = &Error{Kind: ProvisioningError}
)

// Error is returned by every Orchestrator operation.
type Error struct {
	Kind ErrorKind

	// Resource is the deployment name of the resource concerned, if any.
	Resource string

	// Step is the pipeline step that failed, e.g. "provision" or "register".
	Step string

	// Err is the underlying cause, if any.
	Err error
}

func (e *Error) Error() string {
	msg := e.Kind.String()
	if e.Step != "" {
		msg += " during " + e.Step
	}
	if e.Resource != "" {
		msg += fmt.Sprintf(" of %s", e.Resource)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is a kind sentinel matching e.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Resource == "" && t.Step == "" && t.Err == nil && t.Kind == e.Kind
}

func configurationError(step string, err error) error {
	return &Error{Kind: ConfigurationError, Step: step, Err: err}
}

func dependencyError(step, resource string) error {
	return &Error{
		Kind:     DependencyError,
		Resource: resource,
		Step:     step,
		Err:      fmt.Errorf("%s has not been provisioned", resource),
	}
}

func provisioningError(step, resource string, err error) error {
	return &Error{Kind: ProvisioningError, Resource: resource, Step: step, Err: err}
}

// KindOf returns the kind of the first *Error in err's chain, or 0.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}
