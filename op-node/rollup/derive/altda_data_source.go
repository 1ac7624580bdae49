package derive

import (
	"context"
	"errors"
	"io"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/log"

	"github.com/mantlenetworkio/mantle-altda/op-node/rollup"
	"github.com/mantlenetworkio/mantle-altda/op-service/eth"
)

// AltDADataSource chains an inline data source with a blob source: every item read from the
// L1 block is treated as a DA certificate and resolved into the batch data of its blob.
type AltDADataSource struct {
	inline DataAvailabilitySource
	blobs  *AltDABlobSource
	log    log.Logger
}

var _ DataAvailabilitySource = (*AltDADataSource)(nil)

func NewAltDADataSource(log log.Logger, inline DataAvailabilitySource, blobs *AltDABlobSource) *AltDADataSource {
	return &AltDADataSource{
		inline: inline,
		blobs:  blobs,
		log:    log,
	}
}

// Next returns the batch data of the next certificate of the block.
// Errors of the inline source are returned unchanged. Certificates whose blob could not be
// fetched or decoded are skipped. Every inline item re-arms the blob source, so a certificate
// repeated within the block is resolved again from the blob cache.
func (ds *AltDADataSource) Next(ctx context.Context, ref eth.L1BlockRef) (eth.Data, error) {
	for {
		cert, err := ds.inline.Next(ctx, ref)
		if err != nil {
			return nil, err
		}
		ds.blobs.Clear()
		data, err := ds.blobs.Next(ctx, cert)
		switch {
		case errors.Is(err, ErrUndecodableBlob):
			ds.log.Warn("skipping undecodable alt-da blob", "origin", ref, "err", err)
			continue
		case errors.Is(err, io.EOF):
			ds.log.Warn("skipping alt-da certificate without blob data", "origin", ref, "commitment", shortHex(cert))
			continue
		}
		return data, err
	}
}

// Clear clears both the inline and the blob source.
func (ds *AltDADataSource) Clear() {
	ds.blobs.Clear()
	ds.inline.Clear()
}

// DataSourceFactory reads raw transactions from a given block & then filters for
// batch submitter transactions.
// This is not a stage in the pipeline, but a wrapper for another stage in the pipeline
type DataSourceFactory struct {
	log          log.Logger
	dsCfg        DataSourceConfig
	fetcher      L1TransactionFetcher
	altDAFetcher AltDAFetcher
	blobFetcher  BlobFetcher
}

// NewDataSourceFactory creates a factory of per-block data iterators. altDAFetcher and
// blobFetcher are optional. With a blob fetcher every batcher item is resolved as a DA certificate.
func NewDataSourceFactory(log log.Logger, cfg *rollup.Config, fetcher L1TransactionFetcher, altDAFetcher AltDAFetcher, blobFetcher BlobFetcher) *DataSourceFactory {
	return &DataSourceFactory{
		log:          log,
		dsCfg:        NewDataSourceConfig(cfg),
		fetcher:      fetcher,
		altDAFetcher: altDAFetcher,
		blobFetcher:  blobFetcher,
	}
}

// OpenData returns a DataIter over the batch data of one L1 block. This struct implements the `Next` function.
func (ds *DataSourceFactory) OpenData(ctx context.Context, ref eth.L1BlockRef, batcherAddr common.Address) DataIter {
	logger := ds.log.New("origin", ref)
	var src DataAvailabilitySource = NewCalldataSource(logger, ds.dsCfg.WithBatcher(batcherAddr), ds.fetcher, ds.altDAFetcher)
	if ds.blobFetcher != nil {
		src = NewAltDADataSource(logger, src, NewAltDABlobSource(logger, ds.blobFetcher))
	}
	return &blockDataIter{src: src, ref: ref}
}

// blockDataIter binds a DataAvailabilitySource to a single block.
type blockDataIter struct {
	src DataAvailabilitySource
	ref eth.L1BlockRef
}

// Next returns the next piece of data, or io.EOF once the block has no more data.
func (it *blockDataIter) Next(ctx context.Context) (eth.Data, error) {
	data, err := it.src.Next(ctx, it.ref)
	if errors.Is(err, io.EOF) {
		return nil, io.EOF
	}
	return data, err
}
