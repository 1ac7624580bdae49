package testutils

import (
	"context"

	"github.com/stretchr/testify/mock"

	altda "github.com/mantlenetworkio/mantle-altda/op-alt-da"
)

// MockAltDAFetcher resolves commitments through testify expectations.
type MockAltDAFetcher struct {
	mock.Mock
}

func (m *MockAltDAFetcher) GetInput(ctx context.Context, comm altda.AltDACommitment) ([]byte, error) {
	out := m.Mock.Called(comm)
	data, _ := out.Get(0).([]byte)
	return data, out.Error(1)
}

func (m *MockAltDAFetcher) ExpectGetInput(comm altda.AltDACommitment, data []byte, err error) {
	m.Mock.On("GetInput", comm).Once().Return(data, err)
}

// MockBlobFetcher returns blobs for certificates through testify expectations.
type MockBlobFetcher struct {
	mock.Mock
}

func (m *MockBlobFetcher) GetBlob(ctx context.Context, cert []byte) ([]byte, error) {
	out := m.Mock.Called(cert)
	blob, _ := out.Get(0).([]byte)
	return blob, out.Error(1)
}

func (m *MockBlobFetcher) ExpectGetBlob(cert []byte, blob []byte, err error) {
	m.Mock.On("GetBlob", cert).Once().Return(blob, err)
}
