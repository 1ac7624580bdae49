package altda

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"net/http"

	"github.com/filecoin-project/go-jsonrpc"
)

// A Celestia commitment payload is the inclusion height (little endian) followed by the blob commitment.
const (
	celestiaHeightLen     = 8
	celestiaCommitmentLen = 32
	celestiaPayloadLen    = celestiaHeightLen + celestiaCommitmentLen
)

var ErrInvalidCelestiaPayload = errors.New("invalid celestia commitment payload")

type celestiaBlob struct {
	Namespace    []byte `json:"namespace"`
	Data         []byte `json:"data"`
	ShareVersion uint32 `json:"share_version"`
	Commitment   []byte `json:"commitment"`
	Index        int    `json:"index"`
}

// celestiaBlobAPI mirrors the read side of the celestia-node "blob" module.
// jsonrpc.NewClient fills in the function fields.
type celestiaBlobAPI struct {
	Get func(ctx context.Context, height uint64, namespace []byte, commitment []byte) (*celestiaBlob, error) `perm:"read"`
}

// CelestiaClient reads Alt-DA inputs from a celestia-node over JSON-RPC.
type CelestiaClient struct {
	namespace []byte
	api       celestiaBlobAPI
	closer    jsonrpc.ClientCloser
	metrics   Metricer
}

// NewCelestiaClient dials the celestia-node RPC endpoint at addr. The auth token is optional.
func NewCelestiaClient(ctx context.Context, addr string, authToken string, namespace []byte, m Metricer) (*CelestiaClient, error) {
	if m == nil {
		m = NoopMetrics
	}
	var header http.Header
	if authToken != "" {
		header = http.Header{"Authorization": []string{"Bearer " + authToken}}
	}
	c := &CelestiaClient{namespace: namespace, metrics: m}
	closer, err := jsonrpc.NewClient(ctx, addr, "blob", &c.api, header)
	if err != nil {
		return nil, fmt.Errorf("failed to dial celestia node: %w", err)
	}
	c.closer = closer
	return c, nil
}

func (c *CelestiaClient) GetInput(ctx context.Context, comm AltDACommitment) ([]byte, error) {
	if comm.Kind != Celestia {
		return nil, fmt.Errorf("%w: %s commitment sent to celestia", ErrUnsupportedCommitment, comm.Kind)
	}
	height, commitment, err := SplitCelestiaPayload(comm.Payload)
	if err != nil {
		return nil, err
	}
	done := c.metrics.RecordInterval("CelestiaBlobGet")
	blob, err := c.api.Get(ctx, height, c.namespace, commitment)
	done(err)
	if err != nil {
		return nil, fmt.Errorf("failed to get celestia blob at height %d: %w", height, err)
	}
	if blob == nil {
		return nil, ErrNotFound
	}
	c.metrics.RecordFetchedBytes(comm.Kind, len(blob.Data))
	return blob.Data, nil
}

func (c *CelestiaClient) Close() {
	if c.closer != nil {
		c.closer()
	}
}

// SplitCelestiaPayload splits a Celestia commitment payload into the inclusion height and the blob commitment.
func SplitCelestiaPayload(payload []byte) (uint64, []byte, error) {
	if len(payload) != celestiaPayloadLen {
		return 0, nil, fmt.Errorf("%w: expected %d bytes, got %d", ErrInvalidCelestiaPayload, celestiaPayloadLen, len(payload))
	}
	return binary.LittleEndian.Uint64(payload[:celestiaHeightLen]), payload[celestiaHeightLen:], nil
}

// NewCelestiaCommitment builds the commitment of a blob included at height.
func NewCelestiaCommitment(height uint64, commitment []byte) AltDACommitment {
	payload := make([]byte, celestiaHeightLen, celestiaPayloadLen)
	binary.LittleEndian.PutUint64(payload, height)
	return AltDACommitment{Kind: Celestia, Payload: append(payload, commitment...)}
}
