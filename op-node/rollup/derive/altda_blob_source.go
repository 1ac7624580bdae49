package derive

import (
	"bytes"
	"context"
	"fmt"
	"io"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/log"

	"github.com/mantlenetworkio/mantle-altda/op-service/eigenda"
	"github.com/mantlenetworkio/mantle-altda/op-service/eth"
)

// blobCacheSize bounds the number of fetched blobs kept around across commitments.
const blobCacheSize = 64

// AltDABlobSource resolves a DA certificate into the batch data held in its blob.
//
// The source is armed for one commitment at a time: the first call to Next fetches the blob,
// later calls with the same commitment drain what was fetched. A call with a different
// commitment re-arms the source.
type AltDABlobSource struct {
	open       bool
	data       [][]byte
	commitment []byte

	fetcher BlobFetcher
	cache   *lru.Cache[common.Hash, []byte]
	log     log.Logger
}

// NewAltDABlobSource creates a new blob source on top of the given fetcher.
func NewAltDABlobSource(log log.Logger, fetcher BlobFetcher) *AltDABlobSource {
	cache, _ := lru.New[common.Hash, []byte](blobCacheSize)
	return &AltDABlobSource{
		fetcher: fetcher,
		cache:   cache,
		log:     log,
	}
}

// Next returns the batch data behind the commitment. Once the blob is consumed, or when it
// could not be fetched, it returns a temporary io.EOF error. A blob that does not decode
// results in a temporary ErrUndecodableBlob error.
func (bs *AltDABlobSource) Next(ctx context.Context, commitment []byte) (eth.Data, error) {
	if !bytes.Equal(commitment, bs.commitment) {
		bs.Clear()
		bs.commitment = bytes.Clone(commitment)
	}
	bs.load(ctx, commitment)

	if len(bs.data) == 0 {
		return nil, NewTemporaryError(io.EOF)
	}
	blob := bs.data[0]
	bs.data = bs.data[1:]

	payload, err := eigenda.DecodeBlob(blob)
	if err != nil {
		bs.log.Warn("failed to decode alt-da blob", "commitment", shortHex(commitment), "err", err)
		return nil, NewTemporaryError(fmt.Errorf("%w: %w", ErrUndecodableBlob, err))
	}
	return payload, nil
}

// Clear drops the buffered blob and forgets the armed commitment.
func (bs *AltDABlobSource) Clear() {
	bs.data = nil
	bs.open = false
	bs.commitment = nil
}

// load fetches the blob of the commitment if the source is not open yet.
// A failed fetch still opens the source, the commitment then yields no data.
func (bs *AltDABlobSource) load(ctx context.Context, commitment []byte) {
	if bs.open {
		return
	}
	bs.open = true

	key := crypto.Keccak256Hash(commitment)
	if blob, ok := bs.cache.Get(key); ok {
		bs.data = append(bs.data, blob)
		return
	}
	blob, err := bs.fetcher.GetBlob(ctx, commitment)
	if err != nil {
		bs.log.Warn("failed to fetch alt-da blob, skipping commitment", "commitment", shortHex(commitment), "err", err)
		return
	}
	bs.cache.Add(key, blob)
	bs.data = append(bs.data, blob)
}

// shortHex renders long commitments compactly in logs.
type shortHex []byte

func (b shortHex) TerminalString() string {
	if len(b) <= 16 {
		return fmt.Sprintf("0x%x", []byte(b))
	}
	return fmt.Sprintf("0x%x..%x", []byte(b[:8]), []byte(b[len(b)-4:]))
}

func (b shortHex) String() string {
	return fmt.Sprintf("0x%x", []byte(b))
}
