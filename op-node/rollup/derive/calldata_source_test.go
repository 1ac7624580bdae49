package derive

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"io"
	"math/big"
	"math/rand"
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/log"

	altda "github.com/mantlenetworkio/mantle-altda/op-alt-da"
	"github.com/mantlenetworkio/mantle-altda/op-node/rollup"
	"github.com/mantlenetworkio/mantle-altda/op-service/eth"
	"github.com/mantlenetworkio/mantle-altda/op-service/testlog"
	"github.com/mantlenetworkio/mantle-altda/op-service/testutils"
)

type calldataTestEnv struct {
	rng     *rand.Rand
	cfg     *rollup.Config
	signer  types.Signer
	ref     eth.L1BlockRef
	fetcher *testutils.MockL1Source
	altDA   *testutils.MockAltDAFetcher

	batcherKey *ecdsa.PrivateKey
}

func newCalldataTestEnv(t *testing.T, seed int64) (*calldataTestEnv, func(data []byte) *types.Transaction) {
	rng := rand.New(rand.NewSource(seed))
	batcherPriv := testutils.InsecureRandomKey(rng)
	cfg := &rollup.Config{
		L1ChainID:         big.NewInt(100),
		BatchInboxAddress: testutils.RandomAddress(rng),
		Genesis: rollup.Genesis{
			SystemConfig: rollup.SystemConfig{BatcherAddr: crypto.PubkeyToAddress(batcherPriv.PublicKey)},
		},
	}
	env := &calldataTestEnv{
		rng:     rng,
		cfg:     cfg,
		signer:  cfg.L1Signer(),
		ref:     testutils.RandomBlockRef(rng),
		fetcher: &testutils.MockL1Source{},
		altDA:   &testutils.MockAltDAFetcher{},

		batcherKey: batcherPriv,
	}
	batcherTx := func(data []byte) *types.Transaction {
		return testutils.RandomDynamicFeeTx(rng, env.signer, batcherPriv, &cfg.BatchInboxAddress, data)
	}
	return env, batcherTx
}

func (env *calldataTestEnv) source(t *testing.T, withAltDA bool) *CalldataSource {
	var fetcher AltDAFetcher
	if withAltDA {
		fetcher = env.altDA
	}
	return NewCalldataSource(testlog.Logger(t, log.LevelDebug), NewDataSourceConfig(env.cfg), env.fetcher, fetcher)
}

func requireTempEOF(t *testing.T, err error) {
	t.Helper()
	require.ErrorIs(t, err, io.EOF)
	require.ErrorIs(t, err, ErrTemporary)
}

func TestCalldataSource_Frames(t *testing.T) {
	env, batcherTx := newCalldataTestEnv(t, 1234)
	data := []byte{altda.DerivationVersion0, 1, 2, 3}
	env.fetcher.ExpectInfoAndTxsByHash(env.ref.Hash, testutils.RandomBlockInfo(env.rng), types.Transactions{batcherTx(data)}, nil)

	src := env.source(t, true)
	out, err := src.Next(context.Background(), env.ref)
	require.NoError(t, err)
	require.Equal(t, eth.Data(data), out, "frames are buffered with their version byte")

	submission, ok := altda.ParseBatcherSubmission(out)
	require.True(t, ok)
	require.Equal(t, []byte{1, 2, 3}, submission.Frames)

	_, err = src.Next(context.Background(), env.ref)
	requireTempEOF(t, err)
	// the block is not fetched again while the source is open
	_, err = src.Next(context.Background(), env.ref)
	requireTempEOF(t, err)
	env.fetcher.AssertExpectations(t)
	env.altDA.AssertExpectations(t)
}

func TestCalldataSource_Filtering(t *testing.T) {
	env, batcherTx := newCalldataTestEnv(t, 42)
	otherInbox := testutils.RandomAddress(env.rng)
	frames := []byte{altda.DerivationVersion0, 0xaa}

	blobTx, err := types.SignNewTx(env.batcherKey, env.signer, &types.BlobTx{
		ChainID:    uint256.MustFromBig(env.cfg.L1ChainID),
		Nonce:      1,
		GasTipCap:  uint256.NewInt(1),
		GasFeeCap:  uint256.NewInt(1),
		Gas:        100_000,
		To:         env.cfg.BatchInboxAddress,
		Value:      uint256.NewInt(0),
		Data:       frames,
		BlobFeeCap: uint256.NewInt(1),
		BlobHashes: []common.Hash{{0x01}},
	})
	require.NoError(t, err)

	good := batcherTx(frames)
	txs := types.Transactions{
		testutils.RandomDynamicFeeTx(env.rng, env.signer, testutils.InsecureRandomKey(env.rng), &env.cfg.BatchInboxAddress, frames), // wrong signer
		testutils.RandomDynamicFeeTx(env.rng, env.signer, env.batcherKey, &otherInbox, frames),                                      // wrong inbox
		testutils.RandomDynamicFeeTx(env.rng, env.signer, env.batcherKey, nil, frames),                                              // contract creation
		blobTx, // blob txs never carry calldata batches
		good,
	}
	env.fetcher.ExpectInfoAndTxsByHash(env.ref.Hash, testutils.RandomBlockInfo(env.rng), txs, nil)

	src := env.source(t, true)
	out, err := src.Next(context.Background(), env.ref)
	require.NoError(t, err)
	require.Equal(t, eth.Data(frames), out)
	_, err = src.Next(context.Background(), env.ref)
	requireTempEOF(t, err)
	env.fetcher.AssertExpectations(t)
}

func TestCalldataSource_Commitments(t *testing.T) {
	t.Run("keccak commitment resolved", func(t *testing.T) {
		env, batcherTx := newCalldataTestEnv(t, 1)
		calldata := append([]byte{altda.DerivationVersion1, altda.Keccak256CommitmentType}, make([]byte, 32)...)
		comm := altda.AltDACommitment{Kind: altda.Keccak, Payload: make([]byte, 32)}
		input := []byte{altda.DerivationVersion0, 9, 9, 9}
		env.fetcher.ExpectInfoAndTxsByHash(env.ref.Hash, testutils.RandomBlockInfo(env.rng), types.Transactions{batcherTx(calldata)}, nil)
		env.altDA.ExpectGetInput(comm, input, nil)

		src := env.source(t, true)
		out, err := src.Next(context.Background(), env.ref)
		require.NoError(t, err)
		require.Equal(t, eth.Data(input), out)
		_, err = src.Next(context.Background(), env.ref)
		requireTempEOF(t, err)
		env.altDA.AssertExpectations(t)
	})

	t.Run("avail commitment resolved", func(t *testing.T) {
		env, batcherTx := newCalldataTestEnv(t, 2)
		calldata := []byte{altda.DerivationVersion1, altda.GenericCommitmentType, altda.AvailLayerByte, 'c', 'e', 'r', 't'}
		comm := altda.AltDACommitment{Kind: altda.Avail, Payload: []byte("cert")}
		env.fetcher.ExpectInfoAndTxsByHash(env.ref.Hash, testutils.RandomBlockInfo(env.rng), types.Transactions{batcherTx(calldata)}, nil)
		env.altDA.ExpectGetInput(comm, []byte("avail data"), nil)

		src := env.source(t, true)
		out, err := src.Next(context.Background(), env.ref)
		require.NoError(t, err)
		require.Equal(t, eth.Data("avail data"), out)
		env.altDA.AssertExpectations(t)
	})

	t.Run("no alt-da fetcher drops commitment", func(t *testing.T) {
		env, batcherTx := newCalldataTestEnv(t, 3)
		calldata := append([]byte{altda.DerivationVersion1, altda.Keccak256CommitmentType}, make([]byte, 32)...)
		env.fetcher.ExpectInfoAndTxsByHash(env.ref.Hash, testutils.RandomBlockInfo(env.rng), types.Transactions{batcherTx(calldata)}, nil)

		src := env.source(t, false)
		_, err := src.Next(context.Background(), env.ref)
		requireTempEOF(t, err)
		env.altDA.AssertNotCalled(t, "GetInput")
	})

	t.Run("fetch failure drops only that commitment", func(t *testing.T) {
		env, batcherTx := newCalldataTestEnv(t, 4)
		failing := altda.AltDACommitment{Kind: altda.EigenDAV2, Payload: []byte{1, 2, 3}}
		working := altda.AltDACommitment{Kind: altda.Celestia, Payload: []byte{4, 5, 6}}
		frames := []byte{altda.DerivationVersion0, 7}
		txs := types.Transactions{
			batcherTx(failing.Encode()),
			batcherTx(frames),
			batcherTx(working.Encode()),
		}
		env.fetcher.ExpectInfoAndTxsByHash(env.ref.Hash, testutils.RandomBlockInfo(env.rng), txs, nil)
		env.altDA.ExpectGetInput(failing, nil, errors.New("da server down"))
		env.altDA.ExpectGetInput(working, []byte("celestia data"), nil)

		src := env.source(t, true)
		out, err := src.Next(context.Background(), env.ref)
		require.NoError(t, err)
		require.Equal(t, eth.Data(frames), out)
		out, err = src.Next(context.Background(), env.ref)
		require.NoError(t, err)
		require.Equal(t, eth.Data("celestia data"), out)
		_, err = src.Next(context.Background(), env.ref)
		requireTempEOF(t, err)
		env.altDA.AssertExpectations(t)
	})

	t.Run("unrecognized data dropped", func(t *testing.T) {
		env, batcherTx := newCalldataTestEnv(t, 5)
		txs := types.Transactions{
			batcherTx(nil),
			batcherTx([]byte{0x02, 1, 2}),
			batcherTx(append([]byte{altda.DerivationVersion1, altda.Keccak256CommitmentType}, make([]byte, 33)...)),
			batcherTx([]byte{altda.DerivationVersion1, altda.GenericCommitmentType, 0x0b}),
		}
		env.fetcher.ExpectInfoAndTxsByHash(env.ref.Hash, testutils.RandomBlockInfo(env.rng), txs, nil)

		src := env.source(t, true)
		_, err := src.Next(context.Background(), env.ref)
		requireTempEOF(t, err)
		env.altDA.AssertNotCalled(t, "GetInput")
	})
}

func TestCalldataSource_FetchErrors(t *testing.T) {
	t.Run("not found resets", func(t *testing.T) {
		env, _ := newCalldataTestEnv(t, 10)
		env.fetcher.ExpectInfoAndTxsByHash(env.ref.Hash, nil, nil, ethereum.NotFound)
		_, err := env.source(t, true).Next(context.Background(), env.ref)
		require.ErrorIs(t, err, ErrReset)
		require.ErrorIs(t, err, ethereum.NotFound)
	})

	t.Run("temporary failure retried", func(t *testing.T) {
		env, batcherTx := newCalldataTestEnv(t, 11)
		frames := []byte{altda.DerivationVersion0, 1}
		env.fetcher.ExpectInfoAndTxsByHash(env.ref.Hash, nil, nil, errors.New("connection refused"))
		env.fetcher.ExpectInfoAndTxsByHash(env.ref.Hash, testutils.RandomBlockInfo(env.rng), types.Transactions{batcherTx(frames)}, nil)

		src := env.source(t, true)
		_, err := src.Next(context.Background(), env.ref)
		require.ErrorIs(t, err, ErrTemporary)
		require.False(t, errors.Is(err, io.EOF))

		out, err := src.Next(context.Background(), env.ref)
		require.NoError(t, err)
		require.Equal(t, eth.Data(frames), out)
		env.fetcher.AssertExpectations(t)
	})
}

func TestCalldataSource_Clear(t *testing.T) {
	env, batcherTx := newCalldataTestEnv(t, 20)
	first := []byte{altda.DerivationVersion0, 1}
	second := []byte{altda.DerivationVersion0, 2}
	env.fetcher.ExpectInfoAndTxsByHash(env.ref.Hash, testutils.RandomBlockInfo(env.rng), types.Transactions{batcherTx(first), batcherTx(second)}, nil)
	nextRef := testutils.NextRandomRef(env.rng, env.ref)
	env.fetcher.ExpectInfoAndTxsByHash(nextRef.Hash, testutils.RandomBlockInfo(env.rng), types.Transactions{}, nil)

	src := env.source(t, true)
	// clearing an unopened source is a no-op
	src.Clear()
	require.False(t, src.open)

	out, err := src.Next(context.Background(), env.ref)
	require.NoError(t, err)
	require.Equal(t, eth.Data(first), out)
	require.True(t, src.open)
	require.Len(t, src.data, 1)

	src.Clear()
	require.False(t, src.open)
	require.Empty(t, src.data)

	_, err = src.Next(context.Background(), nextRef)
	requireTempEOF(t, err)
	env.fetcher.AssertExpectations(t)
}
