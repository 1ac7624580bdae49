package altda

import (
	"github.com/ethereum/go-ethereum/common/hexutil"

	preimage "github.com/mantlenetworkio/mantle-altda/op-preimage"
)

const HintAltDACommitment = "altda-commitment"

// AltDACommitmentHint asks the host to prepare the pre-image of keccak256(request),
// where the request is a certificate, or a certificate followed by a blob element index.
type AltDACommitmentHint []byte

var _ preimage.Hint = AltDACommitmentHint(nil)

func (h AltDACommitmentHint) Hint() string {
	return HintAltDACommitment + " " + hexutil.Encode(h)
}
