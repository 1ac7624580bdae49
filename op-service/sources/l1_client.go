// Package sources provides the L1 data source used by derivation.
package sources

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/log"
	"github.com/ethereum/go-ethereum/trie"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/mantlenetworkio/mantle-altda/op-service/eth"
)

// BlockSource is the subset of an ethclient.Client used to read L1 blocks.
type BlockSource interface {
	BlockByHash(ctx context.Context, hash common.Hash) (*types.Block, error)
	BlockByNumber(ctx context.Context, number *big.Int) (*types.Block, error)
}

type L1ClientConfig struct {
	// Number of blocks worth of transactions to cache
	CacheSize int
	// If the RPC is untrusted, the transactions of every block are checked against its header.
	TrustRPC bool
}

func L1ClientDefaultConfig() *L1ClientConfig {
	return &L1ClientConfig{CacheSize: 100, TrustRPC: false}
}

// L1Client reads L1 blocks and their transactions, caching them by hash.
type L1Client struct {
	client BlockSource
	log    log.Logger
	cfg    L1ClientConfig
	blocks *lru.Cache[common.Hash, *types.Block]
}

func NewL1Client(client BlockSource, log log.Logger, cfg *L1ClientConfig) (*L1Client, error) {
	blocks, err := lru.New[common.Hash, *types.Block](cfg.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("invalid block cache size: %w", err)
	}
	return &L1Client{
		client: client,
		log:    log,
		cfg:    *cfg,
		blocks: blocks,
	}, nil
}

func (s *L1Client) InfoAndTxsByHash(ctx context.Context, hash common.Hash) (eth.BlockInfo, types.Transactions, error) {
	block, err := s.blockByHash(ctx, hash)
	if err != nil {
		return nil, nil, err
	}
	return eth.HeaderBlockInfoTrusted(hash, block.Header()), block.Transactions(), nil
}

// L1BlockRefByHash returns the [eth.L1BlockRef] for the given block hash.
func (s *L1Client) L1BlockRefByHash(ctx context.Context, hash common.Hash) (eth.L1BlockRef, error) {
	block, err := s.blockByHash(ctx, hash)
	if err != nil {
		return eth.L1BlockRef{}, err
	}
	return eth.InfoToL1BlockRef(eth.HeaderBlockInfoTrusted(hash, block.Header())), nil
}

// L1BlockRefByNumber returns the [eth.L1BlockRef] for the given block number.
// Lookups by number bypass the cache, a reorg may change the block at a height.
func (s *L1Client) L1BlockRefByNumber(ctx context.Context, num uint64) (eth.L1BlockRef, error) {
	block, err := s.client.BlockByNumber(ctx, new(big.Int).SetUint64(num))
	if err != nil {
		return eth.L1BlockRef{}, fmt.Errorf("failed to fetch L1 block %d: %w", num, eth.MaybeAsNotFoundErr(err))
	}
	hash := block.Hash()
	if err := s.verify(block, hash); err != nil {
		return eth.L1BlockRef{}, err
	}
	s.blocks.Add(hash, block)
	return eth.InfoToL1BlockRef(eth.HeaderBlockInfoTrusted(hash, block.Header())), nil
}

func (s *L1Client) blockByHash(ctx context.Context, hash common.Hash) (*types.Block, error) {
	if block, ok := s.blocks.Get(hash); ok {
		return block, nil
	}
	block, err := s.client.BlockByHash(ctx, hash)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch L1 block %s: %w", hash, eth.MaybeAsNotFoundErr(err))
	}
	if err := s.verify(block, hash); err != nil {
		return nil, err
	}
	s.blocks.Add(hash, block)
	return block, nil
}

func (s *L1Client) verify(block *types.Block, hash common.Hash) error {
	if got := block.Hash(); got != hash {
		return fmt.Errorf("received L1 block %s, but requested %s", got, hash)
	}
	if s.cfg.TrustRPC {
		return nil
	}
	if txRoot := types.DeriveSha(block.Transactions(), trie.NewStackTrie(nil)); txRoot != block.TxHash() {
		s.log.Warn("L1 block transactions do not match header", "hash", hash, "tx_root", block.TxHash(), "computed", txRoot)
		return fmt.Errorf("transactions of L1 block %s do not match its tx root: expected %s, got %s", hash, block.TxHash(), txRoot)
	}
	return nil
}
