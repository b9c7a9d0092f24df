// Package signer loads the deployer's secp256k1 key and builds the
// transaction options used by the provisioner.
//
// The key comes from exactly one of:
//
//   - a hex string (flag or DEPLOYER_PRIVATE_KEY)
//   - a file holding a hex string
//   - a HashiCorp Vault KV v2 secret, field "private_key"
package signer
