package altda

import (
	"context"
	"sync"
)

// MemFetcher is an in-memory Source, keyed by commitment.
type MemFetcher struct {
	mu     sync.RWMutex
	inputs map[string][]byte
	blobs  map[string][]byte
}

var _ Source = (*MemFetcher)(nil)

func NewMemFetcher() *MemFetcher {
	return &MemFetcher{
		inputs: make(map[string][]byte),
		blobs:  make(map[string][]byte),
	}
}

func (m *MemFetcher) SetInput(comm AltDACommitment, input []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.inputs[string(comm.Encode())] = input
}

func (m *MemFetcher) SetBlob(cert []byte, blob []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.blobs[string(cert)] = blob
}

func (m *MemFetcher) GetInput(ctx context.Context, comm AltDACommitment) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	input, ok := m.inputs[string(comm.Encode())]
	if !ok {
		return nil, ErrNotFound
	}
	return input, nil
}

func (m *MemFetcher) GetBlob(ctx context.Context, cert []byte) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	blob, ok := m.blobs[string(cert)]
	if !ok {
		return nil, ErrNotFound
	}
	return blob, nil
}
