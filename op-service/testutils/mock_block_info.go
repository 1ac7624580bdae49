package testutils

import (
	"math/rand"

	"github.com/ethereum/go-ethereum/common"

	"github.com/mantlenetworkio/mantle-altda/op-service/eth"
)

type MockBlockInfo struct {
	// Prefixed all fields with "Info" to avoid collisions with the interface method names.

	InfoHash       common.Hash
	InfoParentHash common.Hash
	InfoNum        uint64
	InfoTime       uint64
}

var _ eth.BlockInfo = (*MockBlockInfo)(nil)

func (l *MockBlockInfo) Hash() common.Hash {
	return l.InfoHash
}

func (l *MockBlockInfo) ParentHash() common.Hash {
	return l.InfoParentHash
}

func (l *MockBlockInfo) NumberU64() uint64 {
	return l.InfoNum
}

func (l *MockBlockInfo) Time() uint64 {
	return l.InfoTime
}

func (l *MockBlockInfo) ID() eth.BlockID {
	return eth.BlockID{Hash: l.InfoHash, Number: l.InfoNum}
}

func RandomBlockInfo(rng *rand.Rand) *MockBlockInfo {
	return &MockBlockInfo{
		InfoParentHash: RandomHash(rng),
		InfoNum:        rng.Uint64(),
		InfoTime:       rng.Uint64(),
		InfoHash:       RandomHash(rng),
	}
}

func MakeBlockInfo(fn func(l *MockBlockInfo)) func(rng *rand.Rand) *MockBlockInfo {
	return func(rng *rand.Rand) *MockBlockInfo {
		l := RandomBlockInfo(rng)
		if fn != nil {
			fn(l)
		}
		return l
	}
}
