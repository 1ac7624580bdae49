package derive

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/log"

	altda "github.com/mantlenetworkio/mantle-altda/op-alt-da"
	"github.com/mantlenetworkio/mantle-altda/op-service/eth"
)

// CalldataSource reads the batcher transactions of an L1 block and yields their data.
// Frame submissions are yielded as-is, commitments are resolved through the AltDAFetcher.
//
// The source buffers the data of one block. It is opened lazily by Next and must be
// cleared before moving on to another block.
type CalldataSource struct {
	open bool
	data []eth.Data

	dsCfg        DataSourceConfig
	fetcher      L1TransactionFetcher
	altDAFetcher AltDAFetcher
	log          log.Logger
}

var _ DataAvailabilitySource = (*CalldataSource)(nil)

// NewCalldataSource creates a new calldata source. altDAFetcher may be nil,
// in which case commitment submissions are dropped.
func NewCalldataSource(log log.Logger, dsCfg DataSourceConfig, fetcher L1TransactionFetcher, altDAFetcher AltDAFetcher) *CalldataSource {
	return &CalldataSource{
		dsCfg:        dsCfg,
		fetcher:      fetcher,
		altDAFetcher: altDAFetcher,
		log:          log,
	}
}

// Next returns the next piece of data of the block. If the block could not be fetched yet,
// it attempts to fetch it again. If it cannot find the block it returns a ResetError,
// otherwise it returns a temporary error if fetching the block returns an error.
// Once all data is consumed it returns a temporary io.EOF error.
func (ds *CalldataSource) Next(ctx context.Context, ref eth.L1BlockRef) (eth.Data, error) {
	if !ds.open {
		if err := ds.load(ctx, ref); err != nil {
			return nil, err
		}
	}
	if len(ds.data) == 0 {
		return nil, NewTemporaryError(io.EOF)
	}
	data := ds.data[0]
	ds.data = ds.data[1:]
	return data, nil
}

// Clear drops the buffered data, the next call to Next loads the given block again.
func (ds *CalldataSource) Clear() {
	ds.data = nil
	ds.open = false
}

func (ds *CalldataSource) load(ctx context.Context, ref eth.L1BlockRef) error {
	if ds.open {
		return nil
	}
	_, txs, err := ds.fetcher.InfoAndTxsByHash(ctx, ref.Hash)
	if errors.Is(err, ethereum.NotFound) {
		return NewResetError(fmt.Errorf("failed to open calldata source: %w", err))
	} else if err != nil {
		return NewTemporaryError(fmt.Errorf("failed to open calldata source: %w", err))
	}
	ds.data = ds.dataFromEVMTransactions(ctx, txs, ds.log.New("origin", ref))
	ds.open = true
	return nil
}

// dataFromEVMTransactions filters all of the transactions and returns the batch data from
// transactions that are sent to the batch inbox address from the batch sender address.
// This will return an empty array if no valid transactions are found.
func (ds *CalldataSource) dataFromEVMTransactions(ctx context.Context, txs types.Transactions, logger log.Logger) []eth.Data {
	var out []eth.Data
	for i, tx := range txs {
		if !isValidBatchTx(tx, ds.dsCfg.l1Signer, ds.dsCfg.batchInboxAddress, ds.dsCfg.batcherAddr, logger) {
			continue
		}
		data := tx.Data()
		submission, ok := altda.ParseBatcherSubmission(data)
		if !ok {
			logger.Debug("ignoring unrecognized batcher data", "index", i, "hash", tx.Hash())
			continue
		}
		if !submission.IsCommitment() {
			out = append(out, data)
			continue
		}
		comm := *submission.Commitment
		if ds.altDAFetcher == nil {
			logger.Warn("dropping alt-da commitment, no alt-da fetcher configured", "index", i, "commitment", comm)
			continue
		}
		input, err := ds.altDAFetcher.GetInput(ctx, comm)
		if err != nil {
			logger.Warn("failed to fetch alt-da input, dropping commitment", "index", i, "commitment", comm, "err", err)
			continue
		}
		out = append(out, input)
	}
	return out
}
