package altda

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/hashicorp/golang-lru/v2/simplelru"
)

// blobCacheSize bounds the number of blobs held, a blob being up to 16MiB.
const blobCacheSize = 64
const elementCacheSize = 10_000

var _ Oracle = (*CachingOracle)(nil)

// CachingOracle keeps recently requested blobs and elements, so the host is only asked once.
type CachingOracle struct {
	oracle   Oracle
	blobs    *simplelru.LRU[common.Hash, []byte]
	elements *simplelru.LRU[common.Hash, []byte]
}

func NewCachingOracle(oracle Oracle) *CachingOracle {
	blobs, _ := simplelru.NewLRU[common.Hash, []byte](blobCacheSize, nil)
	elements, _ := simplelru.NewLRU[common.Hash, []byte](elementCacheSize, nil)
	return &CachingOracle{
		oracle:   oracle,
		blobs:    blobs,
		elements: elements,
	}
}

func (o *CachingOracle) GetBlob(cert []byte) []byte {
	key := crypto.Keccak256Hash(cert)
	blob, ok := o.blobs.Get(key)
	if ok {
		return blob
	}
	blob = o.oracle.GetBlob(cert)
	o.blobs.Add(key, blob)
	return blob
}

func (o *CachingOracle) GetElement(cert []byte, element []byte) []byte {
	key := crypto.Keccak256Hash(cert, element)
	data, ok := o.elements.Get(key)
	if ok {
		return data
	}
	data = o.oracle.GetElement(cert, element)
	o.elements.Add(key, data)
	return data
}
