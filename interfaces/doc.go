// Package interfaces defines the core interfaces and types shared by the
// deployer packages, separating interface definitions from implementations.
//
// # Provisioning
//
// ResourceProvisioner: deploys templates behind upgradeable proxies and
// submits state-changing calls, waiting for each to be confirmed.
//
// ResourceHandle: a provisioned resource, exposing its address together with
// read and transact access to its ABI.
//
// Call: a state-changing method invocation on a ResourceHandle.
//
// # Records
//
// RecordStore: persists a DeploymentRecord per (network, name) so that
// re-running a deployment locates existing resources instead of deploying
// them again. Implementations live in the records package (file://, s3://).
package interfaces
