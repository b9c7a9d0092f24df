// Package provisioner implements interfaces.ResourceProvisioner.
//
// EthProvisioner deploys contract templates on an Ethereum-compatible chain.
// Each resource is an implementation contract plus a proxy whose constructor
// receives the implementation address and the encoded initializer call:
//
//	proxy = ERC1967Proxy(implementation, abi.encodeCall(initializer, args))
//
// Templates are resolved through an ArtifactStore, which reads Hardhat and
// Foundry compiler artifacts from a directory tree. Every deployment is written
// to an interfaces.RecordStore under its deployed name. When a record exists
// and the recorded proxy still has code, ProvisionUpgradeable returns a handle
// to it instead of deploying again.
//
// Transactions are confirmed by polling for the receipt and, when
// Config.Confirmations is greater than one, for the block height. A mined but
// reverted transaction yields ErrTransactionFailed together with its receipt.
//
// MemoryProvisioner is an in-memory ResourceProvisioner used for dry runs and
// tests. It derives addresses the same way the chain does and keeps a journal
// of every operation.
//
// Usage:
//
//	artifacts := provisioner.NewArtifactStore("./artifacts")
//	store, _ := records.StoreFor("file://./deployments", log)
//	p := provisioner.NewEthProvisioner(client, auth, artifacts, store,
//	    provisioner.Config{Network: "arbitrum"}, log)
//	vault, err := p.ProvisionUpgradeable(ctx, "SafetyVault", "SafetyVault", "")
package provisioner
