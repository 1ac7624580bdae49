package derive

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/log"

	altda "github.com/mantlenetworkio/mantle-altda/op-alt-da"
	"github.com/mantlenetworkio/mantle-altda/op-node/rollup"
	"github.com/mantlenetworkio/mantle-altda/op-service/eth"
)

type DataIter interface {
	Next(ctx context.Context) (eth.Data, error)
}

type L1TransactionFetcher interface {
	InfoAndTxsByHash(ctx context.Context, hash common.Hash) (eth.BlockInfo, types.Transactions, error)
}

// AltDAFetcher resolves an Alt-DA commitment into the batch data it references.
type AltDAFetcher interface {
	GetInput(ctx context.Context, comm altda.AltDACommitment) ([]byte, error)
}

// BlobFetcher returns the encoded blob behind a DA certificate.
type BlobFetcher interface {
	GetBlob(ctx context.Context, cert []byte) ([]byte, error)
}

// DataAvailabilitySource yields the batch data of one L1 block at a time.
// Implementations cache per block; Clear drops that cache.
type DataAvailabilitySource interface {
	Next(ctx context.Context, ref eth.L1BlockRef) (eth.Data, error)
	Clear()
}

// DataSourceConfig regroups the mandatory rollup.Config fields needed for DataFromEVMTransactions.
type DataSourceConfig struct {
	l1Signer          types.Signer
	batchInboxAddress common.Address
	batcherAddr       common.Address
}

func NewDataSourceConfig(cfg *rollup.Config) DataSourceConfig {
	return DataSourceConfig{
		l1Signer:          cfg.L1Signer(),
		batchInboxAddress: cfg.BatchInboxAddress,
		batcherAddr:       cfg.Genesis.SystemConfig.BatcherAddr,
	}
}

// WithBatcher returns a copy of the config that authorizes a different batch sender.
func (c DataSourceConfig) WithBatcher(batcherAddr common.Address) DataSourceConfig {
	c.batcherAddr = batcherAddr
	return c
}

// isValidBatchTx returns true if:
//  1. the transaction type is any of Legacy, ACL, DynamicFee
//  2. the transaction has a To() address that matches the batch inbox address, and
//  3. the transaction has a valid signature from the batcher address
func isValidBatchTx(tx *types.Transaction, l1Signer types.Signer, batchInboxAddr, batcherAddr common.Address, logger log.Logger) bool {
	switch tx.Type() {
	case types.LegacyTxType, types.AccessListTxType, types.DynamicFeeTxType:
	default:
		return false
	}
	to := tx.To()
	if to == nil || *to != batchInboxAddr {
		return false
	}
	seqDataSubmitter, err := l1Signer.Sender(tx) // optimization: only derive sender if To is correct
	if err != nil {
		logger.Warn("tx in inbox with invalid signature", "hash", tx.Hash(), "err", err)
		return false
	}
	// some random L1 user might have sent a transaction to our batch inbox, ignore them
	if seqDataSubmitter != batcherAddr {
		logger.Warn("tx in inbox with unauthorized submitter", "addr", seqDataSubmitter, "hash", tx.Hash())
		return false
	}
	return true
}
