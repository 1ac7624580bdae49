package eigenda

import (
	"context"
)

// IEigenDA is the read side of EigenDA used by derivation.
type IEigenDA interface {
	RetrieveBlob(ctx context.Context, BatchHeaderHash []byte, BlobIndex uint32) ([]byte, error)
	RetrieveBlobWithCommitment(ctx context.Context, commitment []byte) ([]byte, error)
	GetBlob(ctx context.Context, cert []byte) ([]byte, error)
}

type Metrics interface {
	RecordInterval(method string) func(error)
}

var _ IEigenDA = (*EigenDAClient)(nil)
