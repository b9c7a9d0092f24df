package main

import (
	"log"
	"os"
	"time"

	"github.com/ruteri/eir-deployer/cmd/flags"
	"github.com/ruteri/eir-deployer/provisioner"
	"github.com/urfave/cli/v2"
)

var DeployerServiceLogFlag = flags.LogServiceFlagFn("eir-deployer")

var ConfirmationsFlag = &cli.Uint64Flag{
	Name:  "confirmations",
	Value: 1,
	Usage: "number of blocks a transaction must be buried under, including its own",
}
var PollIntervalFlag = &cli.DurationFlag{
	Name:  "poll-interval",
	Value: time.Second,
	Usage: "interval between receipt and block number polls",
}
var ArtifactsDirFlag = &cli.StringFlag{
	Name:  "artifacts-dir",
	Value: "./artifacts",
	Usage: "directory holding Hardhat or Foundry compiler artifacts",
}
var ProxyTemplateFlag = &cli.StringFlag{
	Name:  "proxy-template",
	Value: provisioner.DefaultProxyTemplate,
	Usage: "artifact deployed in front of every implementation; constructor (address, bytes)",
}
var PrivateKeyFlag = &cli.StringFlag{
	Name:    "private-key",
	Usage:   "hex encoded deployer key",
	EnvVars: []string{"DEPLOYER_PRIVATE_KEY"},
}
var PrivateKeyFileFlag = &cli.StringFlag{
	Name:  "private-key-file",
	Usage: "file holding the hex encoded deployer key",
}
var VaultAddrFlag = &cli.StringFlag{
	Name:    "vault-addr",
	Usage:   "HashiCorp Vault address to read the deployer key from",
	EnvVars: []string{"DEPLOYER_VAULT_ADDR"},
}
var VaultTokenFlag = &cli.StringFlag{
	Name:    "vault-token",
	Usage:   "Vault token",
	EnvVars: []string{"VAULT_TOKEN"},
}
var VaultMountFlag = &cli.StringFlag{
	Name:  "vault-mount",
	Value: "secret",
	Usage: "Vault KV v2 mount path",
}
var VaultPathFlag = &cli.StringFlag{
	Name:  "vault-path",
	Usage: "path of the secret holding the deployer key (field \"private_key\")",
}
var ReconcileOwnershipFlag = &cli.BoolFlag{
	Name:  "reconcile-ownership",
	Usage: "transfer ownership of every resource to the network admin; also enabled by reconcile_ownership in the config file",
}
var DryRunFlag = &cli.BoolFlag{
	Name:  "dry-run",
	Usage: "run against an in-memory provisioner and print the planned operations",
}

var keyFlags = []cli.Flag{
	PrivateKeyFlag,
	PrivateKeyFileFlag,
	VaultAddrFlag,
	VaultTokenFlag,
	VaultMountFlag,
	VaultPathFlag,
}

func main() {
	app := &cli.App{
		Name:  "eir-deployer",
		Usage: "Deploy the safety vault, interest manager and interest rate modules",
		Flags: append([]cli.Flag{DeployerServiceLogFlag}, flags.CommonFlags...),
		Commands: []*cli.Command{
			{
				Name:  "deploy",
				Usage: "provision the vault, the manager and every configured module",
				Flags: append([]cli.Flag{
					flags.ConfigFlag,
					flags.NetworkFlag,
					flags.RpcAddrFlag,
					flags.RecordsFlag,
					ConfirmationsFlag,
					PollIntervalFlag,
					ArtifactsDirFlag,
					ProxyTemplateFlag,
					ReconcileOwnershipFlag,
					DryRunFlag,
				}, keyFlags...),
				Action: runDeploy,
			},
			{
				Name:  "validate",
				Usage: "check the configuration of one or all networks",
				Flags: []cli.Flag{
					flags.ConfigFlag,
					flags.NetworkFlag,
				},
				Action: runValidate,
			},
			{
				Name:  "records",
				Usage: "list the deployment records of a network",
				Flags: []cli.Flag{
					flags.NetworkFlag,
					flags.RecordsFlag,
				},
				Action: runRecords,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
