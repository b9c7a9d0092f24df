// Package deployer sequences the provisioning of an interest rate deployment:
// a SafetyVault, a VestaInterestManager initialized with the vault's address,
// and one VestaEIR module per configured collateral token, each registered on
// the manager.
//
// The pipeline is strictly sequential:
//
//	vault -> manager -> (module_0 -> setModuleFor_0) -> ... -> (module_n -> setModuleFor_n)
//
// Every step waits for the previous one to be confirmed. Ownership
// reconciliation, when enabled, transfers each resource to the network admin
// once it is provisioned.
//
// All errors returned by the Orchestrator are *Error values carrying an
// ErrorKind. Use errors.Is with ErrConfiguration, ErrDependency or
// ErrProvisioning to classify them; the provisioner's cause stays reachable
// through errors.Is and errors.As.
package deployer
