package derive

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/log"

	altda "github.com/mantlenetworkio/mantle-altda/op-alt-da"
	"github.com/mantlenetworkio/mantle-altda/op-service/eigenda"
	"github.com/mantlenetworkio/mantle-altda/op-service/eth"
	"github.com/mantlenetworkio/mantle-altda/op-service/testlog"
	"github.com/mantlenetworkio/mantle-altda/op-service/testutils"
)

// fakeInlineSource yields a fixed list of items, then the final error.
type fakeInlineSource struct {
	items   []eth.Data
	final   error
	cleared int
}

func (s *fakeInlineSource) Next(ctx context.Context, ref eth.L1BlockRef) (eth.Data, error) {
	if len(s.items) == 0 {
		return nil, s.final
	}
	item := s.items[0]
	s.items = s.items[1:]
	return item, nil
}

func (s *fakeInlineSource) Clear() {
	s.cleared++
}

func TestAltDADataSource_Next(t *testing.T) {
	ctx := context.Background()
	ref := eth.L1BlockRef{Number: 10}
	inline := &fakeInlineSource{
		items: []eth.Data{eth.Data("cert-1"), eth.Data("cert-2")},
		final: NewTemporaryError(io.EOF),
	}
	fetcher := &testutils.MockBlobFetcher{}
	fetcher.ExpectGetBlob([]byte("cert-1"), eigenda.EncodeBlob([]byte("frames-1")), nil)
	fetcher.ExpectGetBlob([]byte("cert-2"), eigenda.EncodeBlob([]byte("frames-2")), nil)
	logger := testlog.Logger(t, log.LevelDebug)
	src := NewAltDADataSource(logger, inline, NewAltDABlobSource(logger, fetcher))

	out, err := src.Next(ctx, ref)
	require.NoError(t, err)
	require.Equal(t, eth.Data("frames-1"), out)
	out, err = src.Next(ctx, ref)
	require.NoError(t, err)
	require.Equal(t, eth.Data("frames-2"), out)
	_, err = src.Next(ctx, ref)
	requireTempEOF(t, err)
	fetcher.AssertExpectations(t)
}

func TestAltDADataSource_SkipsUndecodableBlobs(t *testing.T) {
	ctx := context.Background()
	inline := &fakeInlineSource{
		items: []eth.Data{eth.Data("bad"), eth.Data("good")},
		final: NewTemporaryError(io.EOF),
	}
	fetcher := &testutils.MockBlobFetcher{}
	fetcher.ExpectGetBlob([]byte("bad"), []byte("not a blob"), nil)
	fetcher.ExpectGetBlob([]byte("good"), eigenda.EncodeBlob([]byte("frames")), nil)
	logger := testlog.Logger(t, log.LevelDebug)
	src := NewAltDADataSource(logger, inline, NewAltDABlobSource(logger, fetcher))

	out, err := src.Next(ctx, eth.L1BlockRef{})
	require.NoError(t, err)
	require.Equal(t, eth.Data("frames"), out)
	fetcher.AssertExpectations(t)
}

func TestAltDADataSource_SkipsFailedFetches(t *testing.T) {
	ctx := context.Background()
	inline := &fakeInlineSource{
		items: []eth.Data{eth.Data("cert-1"), eth.Data("cert-2")},
		final: NewTemporaryError(io.EOF),
	}
	fetcher := &testutils.MockBlobFetcher{}
	fetcher.ExpectGetBlob([]byte("cert-1"), nil, errors.New("proxy unavailable"))
	fetcher.ExpectGetBlob([]byte("cert-2"), eigenda.EncodeBlob([]byte("frames-2")), nil)
	logger := testlog.Logger(t, log.LevelDebug)
	src := NewAltDADataSource(logger, inline, NewAltDABlobSource(logger, fetcher))

	out, err := src.Next(ctx, eth.L1BlockRef{})
	require.NoError(t, err)
	require.Equal(t, eth.Data("frames-2"), out)
	_, err = src.Next(ctx, eth.L1BlockRef{})
	requireTempEOF(t, err)
	fetcher.AssertExpectations(t)
}

func TestAltDADataSource_RepeatedCertificate(t *testing.T) {
	ctx := context.Background()
	inline := &fakeInlineSource{
		items: []eth.Data{eth.Data("cert-1"), eth.Data("cert-1"), eth.Data("cert-2")},
		final: NewTemporaryError(io.EOF),
	}
	fetcher := &testutils.MockBlobFetcher{}
	// each certificate is fetched once, the repeat is served from the cache
	fetcher.ExpectGetBlob([]byte("cert-1"), eigenda.EncodeBlob([]byte("frames-1")), nil)
	fetcher.ExpectGetBlob([]byte("cert-2"), eigenda.EncodeBlob([]byte("frames-2")), nil)
	logger := testlog.Logger(t, log.LevelDebug)
	src := NewAltDADataSource(logger, inline, NewAltDABlobSource(logger, fetcher))

	for _, expected := range []string{"frames-1", "frames-1", "frames-2"} {
		out, err := src.Next(ctx, eth.L1BlockRef{})
		require.NoError(t, err)
		require.Equal(t, eth.Data(expected), out)
	}
	_, err := src.Next(ctx, eth.L1BlockRef{})
	requireTempEOF(t, err)
	fetcher.AssertExpectations(t)
}

func TestAltDADataSource_InlineErrorsPropagate(t *testing.T) {
	resetErr := NewResetError(errors.New("block gone"))
	inline := &fakeInlineSource{final: resetErr}
	fetcher := &testutils.MockBlobFetcher{}
	logger := testlog.Logger(t, log.LevelDebug)
	src := NewAltDADataSource(logger, inline, NewAltDABlobSource(logger, fetcher))

	_, err := src.Next(context.Background(), eth.L1BlockRef{})
	require.Equal(t, resetErr, err)
	fetcher.AssertNotCalled(t, "GetBlob")

	src.Clear()
	require.Equal(t, 1, inline.cleared)
}

func TestDataSourceFactory_OpenData(t *testing.T) {
	ctx := context.Background()
	env, batcherTx := newCalldataTestEnv(t, 99)
	cert := altda.AltDACommitment{Kind: altda.EigenDAV2, Payload: []byte("blob-info")}

	t.Run("calldata only", func(t *testing.T) {
		fetcher := &testutils.MockL1Source{}
		frames := []byte{altda.DerivationVersion0, 1, 2}
		fetcher.ExpectInfoAndTxsByHash(env.ref.Hash, testutils.RandomBlockInfo(env.rng), types.Transactions{batcherTx(frames)}, nil)
		factory := NewDataSourceFactory(testlog.Logger(t, log.LevelDebug), env.cfg, fetcher, nil, nil)

		it := factory.OpenData(ctx, env.ref, env.cfg.Genesis.SystemConfig.BatcherAddr)
		out, err := it.Next(ctx)
		require.NoError(t, err)
		require.Equal(t, eth.Data(frames), out)
		_, err = it.Next(ctx)
		require.Equal(t, io.EOF, err)
	})

	t.Run("alt-da blobs", func(t *testing.T) {
		fetcher := &testutils.MockL1Source{}
		altDA := &testutils.MockAltDAFetcher{}
		blobs := &testutils.MockBlobFetcher{}
		fetcher.ExpectInfoAndTxsByHash(env.ref.Hash, testutils.RandomBlockInfo(env.rng), types.Transactions{batcherTx(cert.Encode())}, nil)
		altDA.ExpectGetInput(cert, []byte("resolved-cert"), nil)
		blobs.ExpectGetBlob([]byte("resolved-cert"), eigenda.EncodeBlob([]byte("frames")), nil)
		factory := NewDataSourceFactory(testlog.Logger(t, log.LevelDebug), env.cfg, fetcher, altDA, blobs)

		it := factory.OpenData(ctx, env.ref, env.cfg.Genesis.SystemConfig.BatcherAddr)
		out, err := it.Next(ctx)
		require.NoError(t, err)
		require.Equal(t, eth.Data("frames"), out)
		_, err = it.Next(ctx)
		require.Equal(t, io.EOF, err)
		fetcher.AssertExpectations(t)
		altDA.AssertExpectations(t)
		blobs.AssertExpectations(t)
	})

	t.Run("failed blob fetch keeps the rest of the block", func(t *testing.T) {
		fetcher := &testutils.MockL1Source{}
		altDA := &testutils.MockAltDAFetcher{}
		blobs := &testutils.MockBlobFetcher{}
		first := altda.AltDACommitment{Kind: altda.EigenDAV2, Payload: []byte("blob-info-1")}
		second := altda.AltDACommitment{Kind: altda.EigenDAV2, Payload: []byte("blob-info-2")}
		txs := types.Transactions{batcherTx(first.Encode()), batcherTx(second.Encode())}
		fetcher.ExpectInfoAndTxsByHash(env.ref.Hash, testutils.RandomBlockInfo(env.rng), txs, nil)
		altDA.ExpectGetInput(first, []byte("cert-1"), nil)
		altDA.ExpectGetInput(second, []byte("cert-2"), nil)
		blobs.ExpectGetBlob([]byte("cert-1"), nil, errors.New("proxy unavailable"))
		blobs.ExpectGetBlob([]byte("cert-2"), eigenda.EncodeBlob([]byte("frames-2")), nil)
		factory := NewDataSourceFactory(testlog.Logger(t, log.LevelDebug), env.cfg, fetcher, altDA, blobs)

		it := factory.OpenData(ctx, env.ref, env.cfg.Genesis.SystemConfig.BatcherAddr)
		out, err := it.Next(ctx)
		require.NoError(t, err)
		require.Equal(t, eth.Data("frames-2"), out)
		_, err = it.Next(ctx)
		require.Equal(t, io.EOF, err)
		fetcher.AssertExpectations(t)
		altDA.AssertExpectations(t)
		blobs.AssertExpectations(t)
	})

	t.Run("unauthorized batcher", func(t *testing.T) {
		fetcher := &testutils.MockL1Source{}
		frames := []byte{altda.DerivationVersion0, 1, 2}
		fetcher.ExpectInfoAndTxsByHash(env.ref.Hash, testutils.RandomBlockInfo(env.rng), types.Transactions{batcherTx(frames)}, nil)
		factory := NewDataSourceFactory(testlog.Logger(t, log.LevelDebug), env.cfg, fetcher, nil, nil)

		it := factory.OpenData(ctx, env.ref, testutils.RandomAddress(env.rng))
		_, err := it.Next(ctx)
		require.Equal(t, io.EOF, err)
	})
}
