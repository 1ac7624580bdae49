package node

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync/atomic"

	"github.com/hashicorp/go-multierror"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/log"

	altda "github.com/mantlenetworkio/mantle-altda/op-alt-da"
	opnode "github.com/mantlenetworkio/mantle-altda/op-node"
	"github.com/mantlenetworkio/mantle-altda/op-node/metrics"
	"github.com/mantlenetworkio/mantle-altda/op-node/metrics/metered"
	"github.com/mantlenetworkio/mantle-altda/op-node/rollup/derive"
	"github.com/mantlenetworkio/mantle-altda/op-service/dial"
	"github.com/mantlenetworkio/mantle-altda/op-service/eigenda"
	"github.com/mantlenetworkio/mantle-altda/op-service/eth"
	opmetrics "github.com/mantlenetworkio/mantle-altda/op-service/metrics"
	"github.com/mantlenetworkio/mantle-altda/op-service/sources"
)

var ErrAlreadyClosed = errors.New("node is already closed")

// L1Chain is the L1 access the node needs: block lookups to walk the chain and
// transactions to read batch data from.
type L1Chain interface {
	L1BlockRefByNumber(ctx context.Context, num uint64) (eth.L1BlockRef, error)
	L1BlockRefByHash(ctx context.Context, hash common.Hash) (eth.L1BlockRef, error)
	InfoAndTxsByHash(ctx context.Context, hash common.Hash) (eth.BlockInfo, types.Transactions, error)
}

// AltDANode reads the batch data of a range of L1 blocks, resolving Alt-DA commitments
// and EigenDA certificates along the way.
type AltDANode struct {
	log     log.Logger
	cfg     *opnode.Config
	metrics *metrics.Metrics

	l1      L1Chain
	factory *derive.DataSourceFactory

	metricsSrv *opmetrics.Server
	closers    []func()

	closed atomic.Bool
}

// New dials the configured L1 and DA endpoints and starts the metrics server if enabled.
func New(ctx context.Context, cfg *opnode.Config, log log.Logger, m *metrics.Metrics) (*AltDANode, error) {
	if err := cfg.Check(); err != nil {
		return nil, err
	}
	n := &AltDANode{
		log:     log,
		cfg:     cfg,
		metrics: m,
	}
	if err := n.init(ctx); err != nil {
		log.Error("Error initializing the alt-da node", "err", err)
		if closeErr := n.Stop(ctx); closeErr != nil {
			return nil, multierror.Append(err, closeErr)
		}
		return nil, err
	}
	return n, nil
}

func (n *AltDANode) init(ctx context.Context) error {
	l1, err := n.initL1(ctx)
	if err != nil {
		return fmt.Errorf("failed to init L1: %w", err)
	}
	altDA, blobs, err := n.initAltDA(ctx)
	if err != nil {
		return fmt.Errorf("failed to init alt-da: %w", err)
	}
	n.setSources(l1, altDA, blobs)
	if err := n.initMetricsServer(); err != nil {
		return fmt.Errorf("failed to init the metrics server: %w", err)
	}
	return nil
}

// retryingL1 serves block lookups from the caching client and retries transaction reads.
type retryingL1 struct {
	*sources.L1Client
	retrying *sources.RetryingL1Source
}

func (r retryingL1) InfoAndTxsByHash(ctx context.Context, hash common.Hash) (eth.BlockInfo, types.Transactions, error) {
	return r.retrying.InfoAndTxsByHash(ctx, hash)
}

func (n *AltDANode) initL1(ctx context.Context) (L1Chain, error) {
	client, err := dial.DialEthClientForChain(ctx, n.cfg.L1.DialTimeout, n.log, n.cfg.L1.NodeAddr, n.cfg.Rollup.L1ChainID)
	if err != nil {
		return nil, fmt.Errorf("failed to dial L1 address (%s): %w", n.cfg.L1.NodeAddr, err)
	}
	n.closers = append(n.closers, client.Close)

	l1Cfg := sources.L1ClientDefaultConfig()
	l1Cfg.TrustRPC = n.cfg.L1.TrustRPC
	l1Client, err := sources.NewL1Client(client, n.log, l1Cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create L1 source: %w", err)
	}
	return retryingL1{
		L1Client: l1Client,
		retrying: sources.NewRetryingL1Source(n.log, l1Client),
	}, nil
}

// initAltDA builds the commitment and blob fetchers. Either may be nil when the
// matching mode is disabled.
func (n *AltDANode) initAltDA(ctx context.Context) (derive.AltDAFetcher, derive.BlobFetcher, error) {
	if !n.cfg.AltDA.Enabled && !n.cfg.EigenDABlobs {
		return nil, nil, nil
	}
	var generic altda.InputFetcher
	if client := n.cfg.AltDA.NewDAClient(n.metrics.AltDA); client != nil {
		generic = client
	}
	var eigenDA eigenda.IEigenDA
	if n.cfg.EigenDA.ProxyUrl != "" || n.cfg.EigenDA.DisperserUrl != "" {
		eigenDA = eigenda.NewEigenDAClient(n.cfg.EigenDA.Config(), n.log.New("da", "eigenda"), n.metrics.AltDA)
	}
	var celestia altda.InputFetcher
	if n.cfg.AltDA.CelestiaRPC != "" {
		ns, err := n.cfg.AltDA.Namespace()
		if err != nil {
			return nil, nil, err
		}
		client, err := altda.NewCelestiaClient(ctx, n.cfg.AltDA.CelestiaRPC, n.cfg.AltDA.CelestiaAuthToken, ns, n.metrics.AltDA)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to dial celestia node: %w", err)
		}
		n.closers = append(n.closers, client.Close)
		celestia = client
	}
	source := altda.NewRetryingFetcher(n.log, altda.NewFetcher(n.log, generic, eigenDA, celestia), n.cfg.AltDA.MaxRetries)

	var altDAFetcher derive.AltDAFetcher
	if n.cfg.AltDA.Enabled {
		altDAFetcher = source
	}
	var blobFetcher derive.BlobFetcher
	if n.cfg.EigenDABlobs {
		blobFetcher = source
	}
	return altDAFetcher, blobFetcher, nil
}

func (n *AltDANode) setSources(l1 L1Chain, altDA derive.AltDAFetcher, blobs derive.BlobFetcher) {
	n.l1 = metered.NewMeteredL1Fetcher(l1, n.metrics)
	n.factory = derive.NewDataSourceFactory(n.log, &n.cfg.Rollup, n.l1, altDA, blobs)
}

func (n *AltDANode) initMetricsServer() error {
	if !n.cfg.Metrics.Enabled {
		n.log.Info("Metrics disabled")
		return nil
	}
	srv, err := opmetrics.StartServer(n.metrics.Registry(), n.cfg.Metrics.Addr())
	if err != nil {
		return err
	}
	n.log.Info("Started metrics server", "addr", srv.Addr())
	n.metricsSrv = srv
	return nil
}

// Run reads the batch data of the configured L1 block range and writes one line per
// item to out: the L1 block number, the index of the item within the block and the hex data.
func (n *AltDANode) Run(ctx context.Context, out io.Writer) error {
	ref, err := n.l1.L1BlockRefByHash(ctx, n.cfg.L1.StartBlock)
	if err != nil {
		return fmt.Errorf("failed to fetch L1 start block %s: %w", n.cfg.L1.StartBlock, err)
	}
	for i := uint64(0); i < n.cfg.L1.BlockCount; i++ {
		if i > 0 {
			next, err := n.l1.L1BlockRefByNumber(ctx, ref.Number+1)
			if err != nil {
				return fmt.Errorf("failed to fetch L1 block %d: %w", ref.Number+1, err)
			}
			if next.ParentHash != ref.Hash {
				return fmt.Errorf("L1 block %s does not build on %s: %w", next, ref, derive.ErrReset)
			}
			ref = next
		}
		n.metrics.RecordL1Ref("l1_source", ref)
		if err := n.deriveBlock(ctx, ref, out); err != nil {
			return err
		}
	}
	return nil
}

func (n *AltDANode) deriveBlock(ctx context.Context, ref eth.L1BlockRef, out io.Writer) error {
	iter := n.factory.OpenData(ctx, ref, n.cfg.Batcher)
	for idx := 0; ; idx++ {
		data, err := iter.Next(ctx)
		if errors.Is(err, io.EOF) {
			n.log.Info("Read batch data of L1 block", "origin", ref, "items", idx)
			return nil
		} else if err != nil {
			return fmt.Errorf("failed to read batch data of L1 block %s: %w", ref, err)
		}
		n.metrics.RecordDerivedData("l1", len(data))
		if _, err := fmt.Fprintf(out, "%d %d %s\n", ref.Number, idx, hexutil.Encode(data)); err != nil {
			return err
		}
	}
}

// Stop closes the metrics server and all client connections.
func (n *AltDANode) Stop(ctx context.Context) error {
	if n.closed.Swap(true) {
		return ErrAlreadyClosed
	}
	var result *multierror.Error
	if n.metricsSrv != nil {
		if err := n.metricsSrv.Stop(ctx); err != nil {
			result = multierror.Append(result, fmt.Errorf("failed to close metrics server: %w", err))
		}
	}
	for i := len(n.closers) - 1; i >= 0; i-- {
		n.closers[i]()
	}
	return result.ErrorOrNil()
}

// Stopped reports whether Stop has been called.
func (n *AltDANode) Stopped() bool {
	return n.closed.Load()
}
