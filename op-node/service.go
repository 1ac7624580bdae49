package opnode

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/log"

	altda "github.com/mantlenetworkio/mantle-altda/op-alt-da"
	"github.com/mantlenetworkio/mantle-altda/op-node/flags"
	"github.com/mantlenetworkio/mantle-altda/op-node/rollup"
	"github.com/mantlenetworkio/mantle-altda/op-service/eigenda"
	oplog "github.com/mantlenetworkio/mantle-altda/op-service/log"
)

// L1EndpointConfig describes the L1 RPC and the block range to read batch data from.
type L1EndpointConfig struct {
	NodeAddr    string
	TrustRPC    bool
	DialTimeout time.Duration
	StartBlock  common.Hash
	BlockCount  uint64
}

func (cfg *L1EndpointConfig) Check() error {
	if cfg.NodeAddr == "" {
		return errors.New("empty L1 RPC address")
	}
	if cfg.StartBlock == (common.Hash{}) {
		return errors.New("missing L1 start block")
	}
	if cfg.BlockCount == 0 {
		return errors.New("L1 block count must be at least 1")
	}
	return nil
}

type MetricsConfig struct {
	Enabled    bool
	ListenAddr string
	ListenPort int
}

func (cfg MetricsConfig) Check() error {
	if !cfg.Enabled {
		return nil
	}
	if cfg.ListenPort < 0 || cfg.ListenPort > 65535 {
		return fmt.Errorf("invalid metrics port %d", cfg.ListenPort)
	}
	return nil
}

// Addr returns the host:port the metrics server binds to.
func (cfg MetricsConfig) Addr() string {
	return net.JoinHostPort(cfg.ListenAddr, strconv.Itoa(cfg.ListenPort))
}

// Config is the full configuration of the alt-da derivation tool.
type Config struct {
	L1      *L1EndpointConfig
	Rollup  rollup.Config
	Batcher common.Address
	// EigenDABlobs resolves every batcher item as an EigenDA certificate.
	EigenDABlobs bool

	AltDA   altda.CLIConfig
	EigenDA eigenda.CLIConfig
	Metrics MetricsConfig
	Log     oplog.CLIConfig
}

func (cfg *Config) Check() error {
	if err := cfg.L1.Check(); err != nil {
		return fmt.Errorf("l1 endpoint config error: %w", err)
	}
	if err := cfg.Rollup.Check(); err != nil {
		return fmt.Errorf("rollup config error: %w", err)
	}
	if err := cfg.AltDA.Check(); err != nil {
		return fmt.Errorf("alt-da config error: %w", err)
	}
	if cfg.EigenDABlobs && cfg.EigenDA.ProxyUrl == "" {
		return errors.New("eigenda blobs enabled but no eigenda proxy configured")
	}
	if cfg.EigenDA.ProxyUrl != "" || cfg.EigenDA.DisperserUrl != "" {
		if err := cfg.EigenDA.Check(); err != nil {
			return fmt.Errorf("eigenda config error: %w", err)
		}
	}
	if err := cfg.Metrics.Check(); err != nil {
		return fmt.Errorf("metrics config error: %w", err)
	}
	return cfg.Log.Check()
}

// NewConfig creates a Config from the provided flags or environment variables.
func NewConfig(ctx *cli.Context, log log.Logger) (*Config, error) {
	if err := flags.CheckRequired(ctx); err != nil {
		return nil, err
	}

	rollupConfig, err := rollup.LoadConfig(ctx.Path(flags.RollupConfig.Name))
	if err != nil {
		return nil, err
	}

	l1Endpoint, err := NewL1EndpointConfig(ctx)
	if err != nil {
		return nil, err
	}

	batcher := rollupConfig.Genesis.SystemConfig.BatcherAddr
	if ctx.IsSet(flags.BatcherAddr.Name) {
		addr := ctx.String(flags.BatcherAddr.Name)
		if !common.IsHexAddress(addr) {
			return nil, fmt.Errorf("invalid batcher address %q", addr)
		}
		batcher = common.HexToAddress(addr)
		log.Info("Overriding genesis batcher address", "batcher", batcher)
	}

	logCfg, err := oplog.ReadCLIConfig(ctx)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		L1:           l1Endpoint,
		Rollup:       *rollupConfig,
		Batcher:      batcher,
		EigenDABlobs: ctx.Bool(flags.EigenDABlobsFlag.Name),
		AltDA:        altda.ReadCLIConfig(ctx),
		EigenDA:      eigenda.ReadCLIConfig(ctx),
		Metrics: MetricsConfig{
			Enabled:    ctx.Bool(flags.MetricsEnabledFlag.Name),
			ListenAddr: ctx.String(flags.MetricsAddrFlag.Name),
			ListenPort: ctx.Int(flags.MetricsPortFlag.Name),
		},
		Log: logCfg,
	}
	if err := cfg.Check(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func NewL1EndpointConfig(ctx *cli.Context) (*L1EndpointConfig, error) {
	start := ctx.String(flags.L1StartBlock.Name)
	var hash common.Hash
	if err := hash.UnmarshalText([]byte(start)); err != nil {
		return nil, fmt.Errorf("invalid L1 start block %q: %w", start, err)
	}
	return &L1EndpointConfig{
		NodeAddr:    ctx.String(flags.L1NodeAddr.Name),
		TrustRPC:    ctx.Bool(flags.L1TrustRPC.Name),
		DialTimeout: ctx.Duration(flags.L1DialTimeout.Name),
		StartBlock:  hash,
		BlockCount:  ctx.Uint64(flags.L1BlockCount.Name),
	}, nil
}
