package altda

import (
	"context"
	"io"
	"math/big"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/log"

	altda "github.com/mantlenetworkio/mantle-altda/op-alt-da"
	"github.com/mantlenetworkio/mantle-altda/op-node/rollup"
	"github.com/mantlenetworkio/mantle-altda/op-service/eigenda"
	"github.com/mantlenetworkio/mantle-altda/op-service/eth"
	"github.com/mantlenetworkio/mantle-altda/op-service/testlog"
	"github.com/mantlenetworkio/mantle-altda/op-service/testutils"
)

func TestOracleDataSourceFactory(t *testing.T) {
	ctx := context.Background()
	rng := rand.New(rand.NewSource(7))
	batcherKey := testutils.InsecureRandomKey(rng)
	cfg := &rollup.Config{
		L1ChainID:         big.NewInt(100),
		BatchInboxAddress: testutils.RandomAddress(rng),
		Genesis: rollup.Genesis{
			SystemConfig: rollup.SystemConfig{BatcherAddr: crypto.PubkeyToAddress(batcherKey.PublicKey)},
		},
	}
	ref := testutils.RandomBlockRef(rng)
	batcherTx := func(data []byte) *types.Transaction {
		return testutils.RandomDynamicFeeTx(rng, cfg.L1Signer(), batcherKey, &cfg.BatchInboxAddress, data)
	}
	logger := testlog.Logger(t, log.LevelDebug)

	t.Run("eigenda blobs", func(t *testing.T) {
		cert := []byte{altda.DerivationVersion0, 0xc0, 0xff, 0xee}
		host := newRecordingHost()
		host.add(cert, eigenda.EncodeBlob([]byte("frames")))
		l1 := &testutils.MockL1Source{}
		l1.ExpectInfoAndTxsByHash(ref.Hash, testutils.RandomBlockInfo(rng), types.Transactions{batcherTx(cert)}, nil)

		oracle := host.oracle()
		factory := NewOracleDataSourceFactory(logger, cfg, l1, oracle.oracle, oracle.hint, false, true)
		it := factory.OpenData(ctx, ref, cfg.Genesis.SystemConfig.BatcherAddr)
		out, err := it.Next(ctx)
		require.NoError(t, err)
		require.Equal(t, eth.Data("frames"), out)
		_, err = it.Next(ctx)
		require.Equal(t, io.EOF, err)
		require.Contains(t, host.events, AltDACommitmentHint(cert).Hint())
		l1.AssertExpectations(t)
	})

	t.Run("alt-da commitments", func(t *testing.T) {
		comm := altda.AltDACommitment{Kind: altda.EigenDAV1, Payload: []byte("blob-info")}
		host := newRecordingHost()
		host.add(comm.Payload, eigenda.EncodeBlob([]byte("input")))
		l1 := &testutils.MockL1Source{}
		l1.ExpectInfoAndTxsByHash(ref.Hash, testutils.RandomBlockInfo(rng), types.Transactions{batcherTx(comm.Encode())}, nil)

		oracle := host.oracle()
		factory := NewOracleDataSourceFactory(logger, cfg, l1, oracle.oracle, oracle.hint, true, false)
		it := factory.OpenData(ctx, ref, cfg.Genesis.SystemConfig.BatcherAddr)
		out, err := it.Next(ctx)
		require.NoError(t, err)
		require.Equal(t, eth.Data("input"), out)
		_, err = it.Next(ctx)
		require.Equal(t, io.EOF, err)
		l1.AssertExpectations(t)
	})
}
