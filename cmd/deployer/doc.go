// Package main (cmd/deployer) provisions the SafetyVault, the
// VestaInterestManager and the VestaEIR modules of one network.
//
// Commands:
//
//	deploy    - Provision the vault, the manager and every configured module
//	validate  - Check the configuration file without touching the chain
//	records   - Print the deployment records of a network
//
// The deployment document is YAML, one entry per network:
//
//	reconcile_ownership: false
//	networks:
//	  arbitrum:
//	    vst: 0x...
//	    trove_manager: 0x...
//	    price_feed: 0x...
//	    borrower_operations: 0x...
//	    admin: 0x...
//	    modules:
//	      - name: EIR-ETH
//	        symbol: vETH
//	        risk: 1
//	        linked_token: 0x...
//
// The deployer key is read from --private-key (DEPLOYER_PRIVATE_KEY),
// --private-key-file, or a Vault KV v2 secret (--vault-addr, --vault-path).
// Every deployed resource is recorded in --records, so re-running deploy
// after a failure resumes where the previous run stopped.
//
// Example workflow:
//
//  1. Check the configuration:
//     eir-deployer validate --config deployment.yaml
//
//  2. Plan the deployment:
//     eir-deployer deploy --config deployment.yaml --network arbitrum --dry-run
//
//  3. Deploy:
//     eir-deployer deploy --config deployment.yaml --network arbitrum \
//     --rpc-addr https://arb1.arbitrum.io/rpc --private-key-file deployer.key \
//     --records s3://deployments/vesta?region=us-east-1 --confirmations 2
//
//  4. Inspect the records:
//     eir-deployer records --network arbitrum --records s3://deployments/vesta?region=us-east-1
package main
