package metered

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ethereum/go-ethereum/common"

	"github.com/mantlenetworkio/mantle-altda/op-service/eth"
	"github.com/mantlenetworkio/mantle-altda/op-service/testutils"
)

type recordingMetrics struct {
	method   string
	duration time.Duration
	err      error
}

func (m *recordingMetrics) RecordL1Request(method string, duration time.Duration, err error) {
	m.method = method
	m.duration = duration
	m.err = err
}

func TestMeteredL1Fetcher(t *testing.T) {
	inner := new(testutils.MockL1Source)
	m := new(recordingMetrics)
	fetcher := NewMeteredL1Fetcher(inner, m)
	clock := time.Unix(1000, 0)
	fetcher.now = func() time.Time {
		clock = clock.Add(250 * time.Millisecond)
		return clock
	}

	ref := eth.L1BlockRef{Hash: common.Hash{0x01}, Number: 7}
	inner.ExpectL1BlockRefByHash(ref.Hash, ref, nil)
	got, err := fetcher.L1BlockRefByHash(context.Background(), ref.Hash)
	require.NoError(t, err)
	require.Equal(t, ref, got)
	require.Equal(t, "L1BlockRefByHash", m.method)
	require.Equal(t, 250*time.Millisecond, m.duration)
	require.NoError(t, m.err)

	failure := errors.New("boom")
	inner.ExpectL1BlockRefByNumber(8, eth.L1BlockRef{}, failure)
	_, err = fetcher.L1BlockRefByNumber(context.Background(), 8)
	require.ErrorIs(t, err, failure)
	require.Equal(t, "L1BlockRefByNumber", m.method)
	require.ErrorIs(t, m.err, failure)

	inner.ExpectInfoAndTxsByHash(ref.Hash, nil, nil, failure)
	_, _, err = fetcher.InfoAndTxsByHash(context.Background(), ref.Hash)
	require.ErrorIs(t, err, failure)
	require.Equal(t, "InfoAndTxsByHash", m.method)
	require.ErrorIs(t, m.err, failure)
	inner.AssertExpectations(t)
}
