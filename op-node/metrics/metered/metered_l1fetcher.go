// Package metered wraps data sources with request metrics.
package metered

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/mantlenetworkio/mantle-altda/op-service/eth"
)

type L1FetcherMetrics interface {
	RecordL1Request(method string, duration time.Duration, err error)
}

type L1Fetcher interface {
	L1BlockRefByNumber(context.Context, uint64) (eth.L1BlockRef, error)
	L1BlockRefByHash(context.Context, common.Hash) (eth.L1BlockRef, error)
	InfoAndTxsByHash(ctx context.Context, hash common.Hash) (eth.BlockInfo, types.Transactions, error)
}

// MeteredL1Fetcher times every request to the wrapped fetcher and records its outcome.
type MeteredL1Fetcher struct {
	inner   L1Fetcher
	metrics L1FetcherMetrics
	now     func() time.Time
}

var _ L1Fetcher = (*MeteredL1Fetcher)(nil)

func NewMeteredL1Fetcher(inner L1Fetcher, metrics L1FetcherMetrics) *MeteredL1Fetcher {
	return &MeteredL1Fetcher{
		inner:   inner,
		metrics: metrics,
		now:     time.Now,
	}
}

func (m *MeteredL1Fetcher) L1BlockRefByNumber(ctx context.Context, num uint64) (ref eth.L1BlockRef, err error) {
	defer m.measure("L1BlockRefByNumber", &err)()
	return m.inner.L1BlockRefByNumber(ctx, num)
}

func (m *MeteredL1Fetcher) L1BlockRefByHash(ctx context.Context, hash common.Hash) (ref eth.L1BlockRef, err error) {
	defer m.measure("L1BlockRefByHash", &err)()
	return m.inner.L1BlockRefByHash(ctx, hash)
}

func (m *MeteredL1Fetcher) InfoAndTxsByHash(ctx context.Context, hash common.Hash) (info eth.BlockInfo, txs types.Transactions, err error) {
	defer m.measure("InfoAndTxsByHash", &err)()
	return m.inner.InfoAndTxsByHash(ctx, hash)
}

// measure starts timing a request. The returned func reads the request error through errp,
// so it must be deferred in a function with a named error result.
func (m *MeteredL1Fetcher) measure(method string, errp *error) func() {
	start := m.now()
	return func() {
		m.metrics.RecordL1Request(method, m.now().Sub(start), *errp)
	}
}
