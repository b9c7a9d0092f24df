package flags

import (
	"log/slog"

	"github.com/google/uuid"
	"github.com/ruteri/eir-deployer/common"
	"github.com/urfave/cli/v2"
)

func SetupLogger(cCtx *cli.Context) (log *slog.Logger) {
	logJSON := cCtx.Bool(LogJsonFlag.Name)
	logDebug := cCtx.Bool(LogDebugFlag.Name)
	logUID := cCtx.Bool(LogUidFlag.Name)
	logService := cCtx.String("log-service")

	logger := common.SetupLogger(&common.LoggingOpts{
		Debug:   logDebug,
		JSON:    logJSON,
		Service: logService,
		Version: common.Version,
		Output:  cCtx.App.ErrWriter,
	})

	if logUID {
		id := uuid.Must(uuid.NewRandom())
		logger = logger.With("uid", id.String())
	}
	return logger
}

var RpcAddrFlag = &cli.StringFlag{
	Name:    "rpc-addr",
	Value:   "http://127.0.0.1:8545",
	Usage:   "address to connect to RPC",
	EnvVars: []string{"DEPLOYER_RPC_ADDR"},
}

var ConfigFlag = &cli.StringFlag{
	Name:    "config",
	Value:   "deployment.yaml",
	Usage:   "deployment configuration file",
	EnvVars: []string{"DEPLOYER_CONFIG"},
}

var NetworkFlag = &cli.StringFlag{
	Name:    "network",
	Usage:   "network to deploy to, as named in the configuration file",
	EnvVars: []string{"DEPLOYER_NETWORK"},
}

var RecordsFlag = &cli.StringFlag{
	Name:    "records",
	Value:   "file://./deployments",
	Usage:   "deployment records location (file://<dir> or s3://<bucket>/<prefix>)",
	EnvVars: []string{"DEPLOYER_RECORDS"},
}

var LogJsonFlag = &cli.BoolFlag{
	Name:  "log-json",
	Value: false,
	Usage: "log in JSON format",
}
var LogDebugFlag = &cli.BoolFlag{
	Name:  "log-debug",
	Value: false,
	Usage: "log debug messages",
}
var LogUidFlag = &cli.BoolFlag{
	Name:  "log-uid",
	Value: false,
	Usage: "generate a uuid and add to all log messages",
}

var LogServiceFlagFn = func(service string) *cli.StringFlag {
	return &cli.StringFlag{
		Name:  "log-service",
		Value: service,
		Usage: "add 'service' tag to logs",
	}
}

var CommonFlags = []cli.Flag{
	LogJsonFlag,
	LogDebugFlag,
	LogUidFlag,
}
