package derive

import (
	"math/big"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ethereum/go-ethereum/core/types"

	"github.com/mantlenetworkio/mantle-altda/op-node/rollup"
	"github.com/mantlenetworkio/mantle-altda/op-service/eth"
	"github.com/mantlenetworkio/mantle-altda/op-service/testutils"
)

func TestL2BlockToBlockRef(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	zero := uint64(0)
	cfg := &rollup.Config{
		Genesis: rollup.Genesis{
			L1: testutils.RandomBlockID(rng),
			L2: eth.BlockID{Number: 0},
		},
		EcotoneTime: &zero,
	}

	t.Run("genesis", func(t *testing.T) {
		header := testutils.RandomHeader(rng)
		header.Number = big.NewInt(0)
		block := types.NewBlockWithHeader(header)
		cfg := *cfg
		cfg.Genesis.L2.Hash = block.Hash()

		ref, err := L2BlockToBlockRef(&cfg, block)
		require.NoError(t, err)
		require.Equal(t, cfg.Genesis.L1, ref.L1Origin)
		require.Equal(t, uint64(0), ref.SequenceNumber)
		require.Equal(t, block.Hash(), ref.Hash)
	})

	t.Run("genesis hash mismatch", func(t *testing.T) {
		header := testutils.RandomHeader(rng)
		header.Number = big.NewInt(0)
		_, err := L2BlockToBlockRef(cfg, types.NewBlockWithHeader(header))
		require.ErrorContains(t, err, "expected L2 genesis hash")
	})

	t.Run("l1 info deposit", func(t *testing.T) {
		header := testutils.RandomHeader(rng)
		info := randomL1Info(rng)
		dep, err := L1InfoDeposit(cfg, info, header.Time)
		require.NoError(t, err)
		block := types.NewBlockWithHeader(header).WithBody(types.Body{Transactions: types.Transactions{types.NewTx(dep)}})

		ref, err := L2BlockToBlockRef(cfg, block)
		require.NoError(t, err)
		require.Equal(t, eth.BlockID{Hash: info.BlockHash, Number: info.Number}, ref.L1Origin)
		require.Equal(t, info.SequenceNumber, ref.SequenceNumber)
		require.Equal(t, header.Number.Uint64(), ref.Number)
		require.Equal(t, header.ParentHash, ref.ParentHash)
		require.Equal(t, header.Time, ref.Time)
	})

	t.Run("missing deposit", func(t *testing.T) {
		_, err := L2BlockToBlockRef(cfg, types.NewBlockWithHeader(testutils.RandomHeader(rng)))
		require.ErrorContains(t, err, "missing L1 info deposit")
	})

	t.Run("first tx not a deposit", func(t *testing.T) {
		key := testutils.InsecureRandomKey(rng)
		signer := types.LatestSignerForChainID(big.NewInt(1))
		tx := testutils.RandomDynamicFeeTx(rng, signer, key, &L1BlockAddress, nil)
		block := types.NewBlockWithHeader(testutils.RandomHeader(rng)).WithBody(types.Body{Transactions: types.Transactions{tx}})
		_, err := L2BlockToBlockRef(cfg, block)
		require.ErrorContains(t, err, "unexpected tx type")
	})
}
