package main

import (
	"context"
	"crypto/ecdsa"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ruteri/eir-deployer/cmd/flags"
	"github.com/ruteri/eir-deployer/config"
	"github.com/ruteri/eir-deployer/deployer"
	"github.com/ruteri/eir-deployer/interfaces"
	"github.com/ruteri/eir-deployer/provisioner"
	"github.com/ruteri/eir-deployer/records"
	"github.com/ruteri/eir-deployer/signer"
	"github.com/urfave/cli/v2"
)

var errNoNetwork = errors.New("--network is required")

func runDeploy(cCtx *cli.Context) error {
	logger := flags.SetupLogger(cCtx)

	network := cCtx.String(flags.NetworkFlag.Name)
	if network == "" {
		return errNoNetwork
	}
	logger = logger.With("network", network)

	cfg, err := config.Load(cCtx.String(flags.ConfigFlag.Name), network)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	reconcile := cfg.ReconcileOwnership || cCtx.Bool(ReconcileOwnershipFlag.Name)

	ctx, cancel := signal.NotifyContext(cCtx.Context, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if cCtx.Bool(DryRunFlag.Name) {
		return dryRun(ctx, cCtx.App.Writer, logger, cfg, reconcile, signerOptions(cCtx))
	}

	key, err := signer.LoadKey(ctx, signerOptions(cCtx), logger)
	if err != nil {
		return err
	}

	rpcAddress := cCtx.String(flags.RpcAddrFlag.Name)
	logger.Info("Connecting to Ethereum RPC", "address", rpcAddress)
	ethClient, err := ethclient.Dial(rpcAddress)
	if err != nil {
		logger.Error("Failed to dial RPC", "err", err)
		return err
	}
	defer ethClient.Close()

	chainID, err := ethClient.ChainID(ctx)
	if err != nil {
		return fmt.Errorf("could not get chain id: %w", err)
	}

	auth, err := signer.NewTransactor(key, chainID)
	if err != nil {
		return err
	}

	store, err := records.StoreFor(cCtx.String(flags.RecordsFlag.Name), logger)
	if err != nil {
		return err
	}

	p := provisioner.NewEthProvisioner(
		ethClient,
		auth,
		provisioner.NewArtifactStore(cCtx.String(ArtifactsDirFlag.Name)),
		store,
		provisioner.Config{
			Network:       network,
			ProxyTemplate: cCtx.String(ProxyTemplateFlag.Name),
			Confirmations: cCtx.Uint64(ConfirmationsFlag.Name),
			PollInterval:  cCtx.Duration(PollIntervalFlag.Name),
		},
		logger,
	)

	logger.Info("Starting deployment",
		"chainId", chainID.String(),
		"deployer", auth.From.Hex(),
		"records", store.LocationURI(),
		"reconcileOwnership", reconcile)

	deployment, err := deployer.NewOrchestrator(p, logger, reconcile).Run(ctx, cfg.Configs)
	if err != nil {
		logger.Error("Deployment failed", "kind", deployer.KindOf(err).String(), "err", err)
		return err
	}

	return printJSON(cCtx.App.Writer, deployment.Summary(network))
}

// dryRun plans the deployment without touching the chain and writes the
// summary and journal to out. The deployer address is taken from the
// configured key if there is one.
func dryRun(ctx context.Context, out io.Writer, logger *slog.Logger, cfg *config.DeploymentConfig, reconcile bool, keyOpts signer.Options) error {
	var from common.Address
	key, err := signer.LoadKey(ctx, keyOpts, logger)
	switch {
	case err == nil:
		from = deployerAddress(key)
	case errors.Is(err, signer.ErrNoKeySource):
		logger.Warn("No deployer key configured, planning from the zero address")
	default:
		return err
	}

	p := provisioner.NewMemoryProvisioner(from)
	deployment, err := deployer.NewOrchestrator(p, logger, reconcile).Run(ctx, cfg.Configs)
	if err != nil {
		return err
	}

	return printJSON(out, dryRunResult{
		Summary: deployment.Summary(cfg.Network),
		Journal: p.Journal(),
	})
}

type dryRunResult struct {
	Summary deployer.Summary           `json:"summary"`
	Journal []provisioner.JournalEntry `json:"journal"`
}

func runValidate(cCtx *cli.Context) error {
	return validateConfig(cCtx.App.Writer, cCtx.String(flags.ConfigFlag.Name), cCtx.String(flags.NetworkFlag.Name))
}

// validateConfig checks network, or every network when it is empty, and
// reports each valid one to out. Errors of all invalid networks are joined.
func validateConfig(out io.Writer, path, network string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("could not read config file: %w", err)
	}

	doc, err := config.Parse(data)
	if err != nil {
		return err
	}

	networks := doc.NetworkNames()
	if network != "" {
		networks = []string{network}
	}
	if len(networks) == 0 {
		return fmt.Errorf("%w: no networks defined", config.ErrInvalidConfig)
	}

	var errs []error
	for _, network := range networks {
		if err := doc.Select(network).Validate(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", network, err))
			continue
		}
		fmt.Fprintf(out, "%s: ok\n", network)
	}
	return errors.Join(errs...)
}

func runRecords(cCtx *cli.Context) error {
	logger := flags.SetupLogger(cCtx)

	network := cCtx.String(flags.NetworkFlag.Name)
	if network == "" {
		return errNoNetwork
	}

	store, err := records.StoreFor(cCtx.String(flags.RecordsFlag.Name), logger)
	if err != nil {
		return err
	}
	return listRecords(cCtx.Context, cCtx.App.Writer, store, network)
}

// listRecords writes the records of network as a JSON array.
func listRecords(ctx context.Context, out io.Writer, store interfaces.RecordStore, network string) error {
	recs, err := store.List(ctx, network)
	if err != nil {
		return err
	}
	if recs == nil {
		recs = []interfaces.DeploymentRecord{}
	}
	return printJSON(out, recs)
}

func signerOptions(cCtx *cli.Context) signer.Options {
	return signer.Options{
		PrivateKey: cCtx.String(PrivateKeyFlag.Name),
		KeyFile:    cCtx.String(PrivateKeyFileFlag.Name),
		VaultAddr:  cCtx.String(VaultAddrFlag.Name),
		VaultToken: cCtx.String(VaultTokenFlag.Name),
		VaultMount: cCtx.String(VaultMountFlag.Name),
		VaultPath:  cCtx.String(VaultPathFlag.Name),
	}
}

func deployerAddress(key *ecdsa.PrivateKey) common.Address {
	return crypto.PubkeyToAddress(key.PublicKey)
}

func printJSON(out io.Writer, v any) error {
	encoded, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(out, string(encoded))
	return err
}
