package rollup

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/big"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/log"
	"github.com/ethereum/go-ethereum/params"

	"github.com/mantlenetworkio/mantle-altda/op-service/eth"
)

var (
	ErrBlockTimeZero            = errors.New("block time cannot be 0")
	ErrMissingGenesisL1Hash     = errors.New("genesis L1 hash cannot be empty")
	ErrMissingGenesisL2Hash     = errors.New("genesis L2 hash cannot be empty")
	ErrGenesisHashesSame        = errors.New("achievement get! rollup inception: L1 and L2 genesis cannot be the same")
	ErrMissingGenesisL2Time     = errors.New("missing L2 genesis time")
	ErrMissingBatcherAddr       = errors.New("missing genesis system config batcher address")
	ErrMissingBatchInboxAddress = errors.New("missing batch inbox address")
	ErrMissingL1ChainID         = errors.New("L1 chain ID must not be nil")
	ErrMissingL2ChainID         = errors.New("L2 chain ID must not be nil")
	ErrChainIDsSame             = errors.New("L1 and L2 chain IDs must be different")
	ErrL1ChainIDNotPositive     = errors.New("L1 chain ID must be non-zero and positive")
	ErrL2ChainIDNotPositive     = errors.New("L2 chain ID must be non-zero and positive")
)

type ForkName string

const (
	Regolith ForkName = "regolith"
	Canyon   ForkName = "canyon"
	Delta    ForkName = "delta"
	Ecotone  ForkName = "ecotone"
	Fjord    ForkName = "fjord"
	Granite  ForkName = "granite"
	Holocene ForkName = "holocene"
	Isthmus  ForkName = "isthmus"
)

// forkOrder lists the forks in activation order.
var forkOrder = []ForkName{Regolith, Canyon, Delta, Ecotone, Fjord, Granite, Holocene, Isthmus}

// SystemConfig holds the genesis values of the L1 system config that derivation depends on.
type SystemConfig struct {
	// BatcherAddr identifies the batch-sender address used in batch-inbox data-transaction filtering.
	BatcherAddr common.Address `json:"batcherAddr" toml:"batcher_addr"`
}

type Genesis struct {
	// The L1 block that the rollup starts *after* (no derived transactions)
	L1 eth.BlockID `json:"l1" toml:"l1"`
	// The L2 block the rollup starts from (no transactions, pre-configured state)
	L2 eth.BlockID `json:"l2" toml:"l2"`
	// Timestamp of L2 block
	L2Time uint64 `json:"l2_time" toml:"l2_time"`
	// Initial system configuration values.
	SystemConfig SystemConfig `json:"system_config" toml:"system_config"`
}

type Config struct {
	// Genesis anchor point of the rollup
	Genesis Genesis `json:"genesis" toml:"genesis"`
	// Seconds per L2 block
	BlockTime uint64 `json:"block_time" toml:"block_time"`
	// Required to verify L1 signatures
	L1ChainID *big.Int `json:"l1_chain_id" toml:"l1_chain_id"`
	// Required to identify the L2 network
	L2ChainID *big.Int `json:"l2_chain_id" toml:"l2_chain_id"`

	// Fork activation times.
	// A fork is active if its time != nil && L2 block timestamp >= *time, inactive otherwise.
	RegolithTime *uint64 `json:"regolith_time,omitempty" toml:"regolith_time"`
	CanyonTime   *uint64 `json:"canyon_time,omitempty" toml:"canyon_time"`
	DeltaTime    *uint64 `json:"delta_time,omitempty" toml:"delta_time"`
	EcotoneTime  *uint64 `json:"ecotone_time,omitempty" toml:"ecotone_time"`
	FjordTime    *uint64 `json:"fjord_time,omitempty" toml:"fjord_time"`
	GraniteTime  *uint64 `json:"granite_time,omitempty" toml:"granite_time"`
	// HoloceneTime gates the deposit-only retry of blocks that fail to execute.
	HoloceneTime *uint64 `json:"holocene_time,omitempty" toml:"holocene_time"`
	IsthmusTime  *uint64 `json:"isthmus_time,omitempty" toml:"isthmus_time"`

	// L1 address that batches are sent to.
	BatchInboxAddress common.Address `json:"batch_inbox_address" toml:"batch_inbox_address"`
}

// Check verifies the fields derivation depends on, and that the configured forks activate in order.
func (cfg *Config) Check() error {
	required := []struct {
		missing bool
		err     error
	}{
		{cfg.BlockTime == 0, ErrBlockTimeZero},
		{cfg.Genesis.L1.Hash == (common.Hash{}), ErrMissingGenesisL1Hash},
		{cfg.Genesis.L2.Hash == (common.Hash{}), ErrMissingGenesisL2Hash},
		{cfg.Genesis.L2.Hash == cfg.Genesis.L1.Hash, ErrGenesisHashesSame},
		{cfg.Genesis.L2Time == 0, ErrMissingGenesisL2Time},
		{cfg.Genesis.SystemConfig.BatcherAddr == (common.Address{}), ErrMissingBatcherAddr},
		{cfg.BatchInboxAddress == (common.Address{}), ErrMissingBatchInboxAddress},
		{cfg.L1ChainID == nil, ErrMissingL1ChainID},
		{cfg.L2ChainID == nil, ErrMissingL2ChainID},
	}
	for _, r := range required {
		if r.missing {
			return r.err
		}
	}
	if cfg.L1ChainID.Cmp(cfg.L2ChainID) == 0 {
		return ErrChainIDsSame
	}
	if cfg.L1ChainID.Sign() < 1 {
		return ErrL1ChainIDNotPositive
	}
	if cfg.L2ChainID.Sign() < 1 {
		return ErrL2ChainIDNotPositive
	}
	return cfg.checkForkOrder()
}

// checkForkOrder requires every configured fork to have its predecessor configured at
// the same or an earlier time.
func (cfg *Config) checkForkOrder() error {
	for i := 1; i < len(forkOrder); i++ {
		prev, next := forkOrder[i-1], forkOrder[i]
		a, b := cfg.ActivationTimeFor(prev), cfg.ActivationTimeFor(next)
		switch {
		case b == nil:
			continue
		case a == nil:
			return fmt.Errorf("fork %s set (to %d), but prior fork %s missing", next, *b, prev)
		case *a > *b:
			return fmt.Errorf("fork %s set to %d, but prior fork %s has higher offset %d", next, *b, prev, *a)
		}
	}
	return nil
}

func (c *Config) L1Signer() types.Signer {
	return types.LatestSignerForChainID(c.L1ChainID)
}

func (c *Config) ActivationTimeFor(fork ForkName) *uint64 {
	times := map[ForkName]*uint64{
		Regolith: c.RegolithTime,
		Canyon:   c.CanyonTime,
		Delta:    c.DeltaTime,
		Ecotone:  c.EcotoneTime,
		Fjord:    c.FjordTime,
		Granite:  c.GraniteTime,
		Holocene: c.HoloceneTime,
		Isthmus:  c.IsthmusTime,
	}
	t, ok := times[fork]
	if !ok {
		panic(fmt.Sprintf("unknown fork: %v", fork))
	}
	return t
}

func (c *Config) IsForkActive(fork ForkName, timestamp uint64) bool {
	activationTime := c.ActivationTimeFor(fork)
	return activationTime != nil && timestamp >= *activationTime
}

// IsEcotone returns true if the Ecotone hardfork is active at or past the given timestamp.
func (c *Config) IsEcotone(timestamp uint64) bool {
	return c.IsForkActive(Ecotone, timestamp)
}

// IsHolocene returns true if the Holocene hardfork is active at or past the given timestamp.
func (c *Config) IsHolocene(timestamp uint64) bool {
	return c.IsForkActive(Holocene, timestamp)
}

// IsIsthmus returns true if the Isthmus hardfork is active at or past the given timestamp.
func (c *Config) IsIsthmus(timestamp uint64) bool {
	return c.IsForkActive(Isthmus, timestamp)
}

// LogDescription outputs a banner describing the important parts of rollup configuration in a log format.
func (c *Config) LogDescription(log log.Logger) {
	networkL1 := params.NetworkNames[c.L1ChainID.String()]
	if networkL1 == "" {
		networkL1 = "unknown L1"
	}
	ctx := []any{
		"l2_chain_id", c.L2ChainID,
		"l1_chain_id", c.L1ChainID,
		"l1_network", networkL1,
		"l2_start_time", c.Genesis.L2Time,
		"l2_block_hash", c.Genesis.L2.Hash.String(),
		"l2_block_number", c.Genesis.L2.Number,
		"l1_block_hash", c.Genesis.L1.Hash.String(),
		"l1_block_number", c.Genesis.L1.Number,
		"batch_inbox", c.BatchInboxAddress,
		"batcher", c.Genesis.SystemConfig.BatcherAddr,
	}
	for _, fork := range forkOrder {
		ctx = append(ctx, string(fork)+"_time", fmtForkTimeOrUnset(c.ActivationTimeFor(fork)))
	}
	log.Info("Rollup Config", ctx...)
}

func (c *Config) ParseRollupConfig(in io.Reader) error {
	dec := json.NewDecoder(in)
	dec.DisallowUnknownFields()
	if err := dec.Decode(c); err != nil {
		return fmt.Errorf("failed to decode rollup config: %w", err)
	}
	return nil
}

// LoadConfig reads a rollup config from a JSON file, or a TOML file when the path ends in .toml,
// and checks it.
func LoadConfig(path string) (*Config, error) {
	var cfg Config
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return nil, fmt.Errorf("failed to decode rollup config: %w", err)
		}
	} else {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open rollup config: %w", err)
		}
		defer f.Close()
		if err := cfg.ParseRollupConfig(f); err != nil {
			return nil, err
		}
	}
	if err := cfg.Check(); err != nil {
		return nil, fmt.Errorf("invalid rollup config: %w", err)
	}
	return &cfg, nil
}

func fmtForkTimeOrUnset(v *uint64) string {
	if v == nil {
		return "(not configured)"
	}
	if *v == 0 { // don't output the unix epoch time if it's really just activated at genesis.
		return "@ genesis"
	}
	return fmt.Sprintf("@ %-10v ~ %s", *v, fmtTime(*v))
}

func fmtTime(v uint64) string {
	return time.Unix(int64(v), 0).Format(time.UnixDate)
}
