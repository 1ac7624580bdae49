package altda

import (
	"github.com/ethereum/go-ethereum/log"

	"github.com/mantlenetworkio/mantle-altda/op-node/rollup"
	"github.com/mantlenetworkio/mantle-altda/op-node/rollup/derive"
	preimage "github.com/mantlenetworkio/mantle-altda/op-preimage"
)

// NewOracleDataSourceFactory builds the data sources of the program on top of the host.
// With altDAEnabled, Alt-DA commitments in batcher calldata are resolved through the oracle.
// With eigenDABlobs, every batcher item is an EigenDA certificate whose blob is read from the oracle.
func NewOracleDataSourceFactory(logger log.Logger, cfg *rollup.Config, l1 derive.L1TransactionFetcher,
	raw preimage.Oracle, hint preimage.Hinter, altDAEnabled bool, eigenDABlobs bool) *derive.DataSourceFactory {
	eigenDA := NewOracleEigenDAProvider(NewCachingOracle(NewPreimageOracle(raw, hint)))

	var altDAFetcher derive.AltDAFetcher
	if altDAEnabled {
		altDAFetcher = NewOracleAltDAProvider(eigenDA)
	}
	var blobFetcher derive.BlobFetcher
	if eigenDABlobs {
		blobFetcher = eigenDA
	}
	return derive.NewDataSourceFactory(logger, cfg, l1, altDAFetcher, blobFetcher)
}
