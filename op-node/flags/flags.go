package flags

import (
	"fmt"
	"time"

	"github.com/urfave/cli/v2"

	altda "github.com/mantlenetworkio/mantle-altda/op-alt-da"
	"github.com/mantlenetworkio/mantle-altda/op-service/eigenda"
	oplog "github.com/mantlenetworkio/mantle-altda/op-service/log"
)

// Flags

const EnvVarPrefix = "ALTDA_DERIVE"

const (
	L1Category      = "1. L1"
	RollupCategory  = "2. ROLLUP"
	AltDACategory   = "3. ALT-DA"
	EigenDACategory = "4. EIGENDA"
	MetricsCategory = "5. METRICS"
	LogCategory     = "6. LOGGING"
)

func prefixEnvVars(names ...string) []string {
	envs := make([]string, 0, len(names))
	for _, name := range names {
		envs = append(envs, eigenda.PrefixEnvVar(EnvVarPrefix, name)...)
	}
	return envs
}

var (
	/* Required Flags */
	L1NodeAddr = &cli.StringFlag{
		Name:     "l1",
		Usage:    "Address of L1 User JSON-RPC endpoint to use (eth namespace required)",
		EnvVars:  prefixEnvVars("L1_ETH_RPC"),
		Category: L1Category,
	}
	RollupConfig = &cli.PathFlag{
		Name:     "rollup.config",
		Usage:    "Rollup chain parameters, as a JSON or TOML file",
		EnvVars:  prefixEnvVars("ROLLUP_CONFIG"),
		Category: RollupCategory,
	}
	L1StartBlock = &cli.StringFlag{
		Name:     "l1.block",
		Usage:    "Hash of the first L1 block to read batch data from",
		EnvVars:  prefixEnvVars("L1_BLOCK"),
		Category: L1Category,
	}

	/* Optional Flags */
	L1BlockCount = &cli.Uint64Flag{
		Name:     "l1.block-count",
		Usage:    "Number of consecutive L1 blocks to read, starting at l1.block",
		Value:    1,
		EnvVars:  prefixEnvVars("L1_BLOCK_COUNT"),
		Category: L1Category,
	}
	L1TrustRPC = &cli.BoolFlag{
		Name:     "l1.trustrpc",
		Usage:    "Trust the L1 RPC and skip verifying the transactions of fetched blocks",
		EnvVars:  prefixEnvVars("L1_TRUST_RPC"),
		Category: L1Category,
	}
	L1DialTimeout = &cli.DurationFlag{
		Name:     "l1.dial-timeout",
		Usage:    "Timeout for the initial connection to the L1 RPC",
		Value:    time.Minute,
		EnvVars:  prefixEnvVars("L1_DIAL_TIMEOUT"),
		Category: L1Category,
	}
	BatcherAddr = &cli.StringFlag{
		Name:     "rollup.batcher",
		Usage:    "Batcher address to accept batch data from. Defaults to the genesis system config batcher",
		EnvVars:  prefixEnvVars("ROLLUP_BATCHER"),
		Category: RollupCategory,
	}
	EigenDABlobsFlag = &cli.BoolFlag{
		Name:     "altda.eigenda-blobs",
		Usage:    "Resolve every batcher item as an EigenDA certificate and decode the blob behind it",
		EnvVars:  prefixEnvVars("ALTDA_EIGENDA_BLOBS"),
		Category: AltDACategory,
	}
	MetricsEnabledFlag = &cli.BoolFlag{
		Name:     "metrics.enabled",
		Usage:    "Enable the metrics server",
		EnvVars:  prefixEnvVars("METRICS_ENABLED"),
		Category: MetricsCategory,
	}
	MetricsAddrFlag = &cli.StringFlag{
		Name:     "metrics.addr",
		Usage:    "Metrics listening address",
		Value:    "0.0.0.0",
		EnvVars:  prefixEnvVars("METRICS_ADDR"),
		Category: MetricsCategory,
	}
	MetricsPortFlag = &cli.IntFlag{
		Name:     "metrics.port",
		Usage:    "Metrics listening port",
		Value:    7300,
		EnvVars:  prefixEnvVars("METRICS_PORT"),
		Category: MetricsCategory,
	}
)

var requiredFlags = []cli.Flag{
	L1NodeAddr,
	RollupConfig,
	L1StartBlock,
}

var optionalFlags = []cli.Flag{
	L1BlockCount,
	L1TrustRPC,
	L1DialTimeout,
	BatcherAddr,
	EigenDABlobsFlag,
	MetricsEnabledFlag,
	MetricsAddrFlag,
	MetricsPortFlag,
}

// Flags contains the list of configuration options available to the binary.
var Flags []cli.Flag

func init() {
	optionalFlags = append(optionalFlags, oplog.CLIFlagsWithCategory(EnvVarPrefix, LogCategory)...)
	optionalFlags = append(optionalFlags, altda.CLIFlags(EnvVarPrefix, AltDACategory)...)
	optionalFlags = append(optionalFlags, eigenda.CLIFlags(EnvVarPrefix, EigenDACategory)...)
	Flags = append(requiredFlags, optionalFlags...)
}

func CheckRequired(ctx *cli.Context) error {
	for _, f := range requiredFlags {
		if !ctx.IsSet(f.Names()[0]) {
			return fmt.Errorf("flag %s is required", f.Names()[0])
		}
	}
	return nil
}
