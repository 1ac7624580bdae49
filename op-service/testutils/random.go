package testutils

import (
	"crypto/ecdsa"
	"math/big"
	"math/rand"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/mantlenetworkio/mantle-altda/op-service/eth"
)

func RandomBool(rng *rand.Rand) bool {
	return rng.Intn(2) == 1
}

func RandomHash(rng *rand.Rand) (out common.Hash) {
	rng.Read(out[:])
	return
}

func RandomAddress(rng *rand.Rand) (out common.Address) {
	rng.Read(out[:])
	return
}

// RandomKey returns a random private key from a crypto-secure source.
func RandomKey() *ecdsa.PrivateKey {
	key, err := crypto.GenerateKey()
	if err != nil {
		panic("couldn't generate key: " + err.Error())
	}
	return key
}

// InsecureRandomKey returns a deterministic private key derived from rng.
func InsecureRandomKey(rng *rand.Rand) *ecdsa.PrivateKey {
	for {
		var b [32]byte
		rng.Read(b[:])
		key, err := crypto.ToECDSA(b[:])
		if err == nil {
			return key
		}
	}
}

func RandomData(rng *rand.Rand, size int) []byte {
	out := make([]byte, size)
	rng.Read(out)
	return out
}

func RandomBlockID(rng *rand.Rand) eth.BlockID {
	return eth.BlockID{
		Hash:   RandomHash(rng),
		Number: rng.Uint64() & ((1 << 50) - 1), // be json friendly
	}
}

func RandomBlockRef(rng *rand.Rand) eth.L1BlockRef {
	return eth.L1BlockRef{
		Hash:       RandomHash(rng),
		Number:     rng.Uint64(),
		ParentHash: RandomHash(rng),
		Time:       rng.Uint64(),
	}
}

func NextRandomRef(rng *rand.Rand, parent eth.L1BlockRef) eth.L1BlockRef {
	return eth.L1BlockRef{
		Hash:       RandomHash(rng),
		Number:     parent.Number + 1,
		ParentHash: parent.Hash,
		Time:       parent.Time + uint64(rng.Intn(100)),
	}
}

func RandomL2BlockRef(rng *rand.Rand) eth.L2BlockRef {
	return eth.L2BlockRef{
		Hash:           RandomHash(rng),
		Number:         rng.Uint64() & ((1 << 50) - 1),
		ParentHash:     RandomHash(rng),
		Time:           rng.Uint64() & ((1 << 50) - 1),
		L1Origin:       RandomBlockID(rng),
		SequenceNumber: rng.Uint64() & 0xff,
	}
}

// RandomDynamicFeeTx returns a signed transaction to the given address with random calldata.
func RandomDynamicFeeTx(rng *rand.Rand, signer types.Signer, key *ecdsa.PrivateKey, to *common.Address, data []byte) *types.Transaction {
	tx, err := types.SignNewTx(key, signer, &types.DynamicFeeTx{
		ChainID:   signer.ChainID(),
		Nonce:     rng.Uint64(),
		GasTipCap: big.NewInt(rng.Int63n(10_000_000_000)),
		GasFeeCap: big.NewInt(rng.Int63n(10_000_000_000) + 10_000_000_000),
		Gas:       21_000 + uint64(len(data))*16,
		To:        to,
		Value:     big.NewInt(0),
		Data:      data,
	})
	if err != nil {
		panic(err)
	}
	return tx
}

// RandomLegacyTx returns a signed legacy transaction to the given address.
func RandomLegacyTx(rng *rand.Rand, signer types.Signer, key *ecdsa.PrivateKey, to *common.Address, data []byte) *types.Transaction {
	tx, err := types.SignNewTx(key, signer, &types.LegacyTx{
		Nonce:    rng.Uint64(),
		GasPrice: big.NewInt(rng.Int63n(10_000_000_000)),
		Gas:      21_000 + uint64(len(data))*16,
		To:       to,
		Value:    big.NewInt(0),
		Data:     data,
	})
	if err != nil {
		panic(err)
	}
	return tx
}

func RandomHeader(rng *rand.Rand) *types.Header {
	return &types.Header{
		ParentHash:  RandomHash(rng),
		UncleHash:   types.EmptyUncleHash,
		Coinbase:    RandomAddress(rng),
		Root:        RandomHash(rng),
		TxHash:      types.EmptyTxsHash,
		ReceiptHash: types.EmptyReceiptsHash,
		Difficulty:  big.NewInt(0),
		Number:      big.NewInt(1 + rng.Int63n(100_000_000)),
		GasLimit:    30_000_000,
		GasUsed:     0,
		Time:        uint64(rng.Int63n(2_000_000_000)),
		Extra:       RandomData(rng, rng.Intn(33)),
		BaseFee:     big.NewInt(rng.Int63n(300_000_000_000)),
	}
}
