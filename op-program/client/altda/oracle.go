package altda

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/crypto"

	altda "github.com/mantlenetworkio/mantle-altda/op-alt-da"
	preimage "github.com/mantlenetworkio/mantle-altda/op-preimage"
	"github.com/mantlenetworkio/mantle-altda/op-service/eigenda"
)

// Oracle retrieves EigenDA data from the host.
type Oracle interface {
	// GetBlob returns the encoded blob behind a certificate.
	GetBlob(cert []byte) []byte
	// GetElement returns a single element of the blob behind a certificate.
	GetElement(cert []byte, element []byte) []byte
}

// PreimageOracle implements Oracle by hinting the request and reading back the
// pre-image stored under its global generic key.
type PreimageOracle struct {
	oracle preimage.Oracle
	hint   preimage.Hinter
}

var _ Oracle = (*PreimageOracle)(nil)

func NewPreimageOracle(raw preimage.Oracle, hint preimage.Hinter) *PreimageOracle {
	return &PreimageOracle{
		oracle: raw,
		hint:   hint,
	}
}

func (p *PreimageOracle) GetBlob(cert []byte) []byte {
	p.hint.Hint(AltDACommitmentHint(cert))
	return p.oracle.Get(preimage.GlobalGenericKey(crypto.Keccak256Hash(cert)))
}

func (p *PreimageOracle) GetElement(cert []byte, element []byte) []byte {
	p.hint.Hint(AltDACommitmentHint(cert))
	request := make([]byte, 0, len(cert)+len(element))
	request = append(append(request, cert...), element...)
	p.hint.Hint(AltDACommitmentHint(request))
	return p.oracle.Get(preimage.GlobalGenericKey(crypto.Keccak256Hash(request)))
}

// OracleEigenDAProvider serves EigenDA blobs to derivation from the host.
type OracleEigenDAProvider struct {
	oracle Oracle
}

func NewOracleEigenDAProvider(oracle Oracle) *OracleEigenDAProvider {
	return &OracleEigenDAProvider{oracle: oracle}
}

func (p *OracleEigenDAProvider) GetBlob(ctx context.Context, cert []byte) ([]byte, error) {
	return p.oracle.GetBlob(cert), nil
}

func (p *OracleEigenDAProvider) GetElement(ctx context.Context, cert []byte, element []byte) ([]byte, error) {
	return p.oracle.GetElement(cert, element), nil
}

// OracleAltDAProvider resolves Alt-DA commitments from the host. Only EigenDA
// certificates are served; the blob is decoded into the input the batcher submitted.
type OracleAltDAProvider struct {
	eigenDA *OracleEigenDAProvider
}

func NewOracleAltDAProvider(eigenDA *OracleEigenDAProvider) *OracleAltDAProvider {
	return &OracleAltDAProvider{eigenDA: eigenDA}
}

func (p *OracleAltDAProvider) GetInput(ctx context.Context, comm altda.AltDACommitment) ([]byte, error) {
	switch comm.Kind {
	case altda.EigenDAV1, altda.EigenDAV2:
		blob, err := p.eigenDA.GetBlob(ctx, comm.Payload)
		if err != nil {
			return nil, err
		}
		input, err := eigenda.DecodeBlob(blob)
		if err != nil {
			return nil, fmt.Errorf("failed to decode blob of %s: %w", comm, err)
		}
		return input, nil
	default:
		return nil, fmt.Errorf("%w: %s", altda.ErrUnsupportedCommitment, comm.Kind)
	}
}
