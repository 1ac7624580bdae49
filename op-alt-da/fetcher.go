package altda

import (
	"context"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/log"

	"github.com/mantlenetworkio/mantle-altda/op-service/eigenda"
)

// ErrUnsupportedCommitment is returned for commitments of a layer that no client is configured for.
var ErrUnsupportedCommitment = errors.New("unsupported commitment")

type InputFetcher interface {
	GetInput(ctx context.Context, comm AltDACommitment) ([]byte, error)
}

type BlobGetter interface {
	GetBlob(ctx context.Context, cert []byte) ([]byte, error)
}

// Source is the full read side of the Alt-DA layers used by derivation.
type Source interface {
	InputFetcher
	BlobGetter
}

// Fetcher routes commitments to the client of the layer they point into.
// Keccak and Avail commitments go to a generic DA server, EigenDA certificates to the
// EigenDA proxy and Celestia commitments to a celestia-node. Any client may be nil.
type Fetcher struct {
	log      log.Logger
	generic  InputFetcher
	eigenDA  eigenda.IEigenDA
	celestia InputFetcher
}

var _ Source = (*Fetcher)(nil)

func NewFetcher(log log.Logger, generic InputFetcher, eigenDA eigenda.IEigenDA, celestia InputFetcher) *Fetcher {
	return &Fetcher{
		log:      log,
		generic:  generic,
		eigenDA:  eigenDA,
		celestia: celestia,
	}
}

func (f *Fetcher) GetInput(ctx context.Context, comm AltDACommitment) ([]byte, error) {
	switch comm.Kind {
	case Keccak, Avail:
		if f.generic == nil {
			break
		}
		return f.generic.GetInput(ctx, comm)
	case EigenDAV1, EigenDAV2:
		if f.eigenDA == nil {
			break
		}
		data, err := f.eigenDA.RetrieveBlobWithCommitment(ctx, comm.CommitmentData())
		if errors.Is(err, eigenda.ErrNotFound) {
			return nil, fmt.Errorf("%w: %w", ErrNotFound, err)
		}
		return data, err
	case Celestia:
		if f.celestia == nil {
			break
		}
		return f.celestia.GetInput(ctx, comm)
	}
	f.log.Debug("No Alt-DA client for commitment", "kind", comm.Kind)
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedCommitment, comm.Kind)
}

// GetBlob returns the encoded EigenDA blob behind a certificate.
func (f *Fetcher) GetBlob(ctx context.Context, cert []byte) ([]byte, error) {
	if f.eigenDA == nil {
		return nil, fmt.Errorf("%w: no EigenDA client for blob", ErrUnsupportedCommitment)
	}
	blob, err := f.eigenDA.GetBlob(ctx, cert)
	if errors.Is(err, eigenda.ErrNotFound) {
		return nil, fmt.Errorf("%w: %w", ErrNotFound, err)
	}
	return blob, err
}
