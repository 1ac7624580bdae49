package altda

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/crypto"
)

// Derivation versions are the first byte of every batcher transaction's calldata.
// See https://specs.optimism.io/experimental/alt-da.html#input-commitment-submission
const (
	DerivationVersion0 byte = 0
	DerivationVersion1 byte = 1
)

// Commitment type bytes, following the derivation version byte.
const (
	Keccak256CommitmentType byte = 0
	GenericCommitmentType   byte = 1
)

// DA layer bytes of generic commitments.
// See https://github.com/ethereum-optimism/specs/discussions/135
const (
	EigenDALayerByte  byte = 0x00
	AvailLayerByte    byte = 0x0a
	CelestiaLayerByte byte = 0x0c
)

// EigenDA certificate versions, following the EigenDA layer byte.
const (
	EigenDACertV1 byte = 0
	EigenDACertV2 byte = 1
)

const keccak256CommitmentLen = 2 + 32

var (
	ErrCommitmentMismatch = errors.New("commitment mismatch")
	ErrUnknownKind        = errors.New("unknown commitment kind")
)

// CommitmentKind identifies the Alt-DA layer a commitment points into.
type CommitmentKind uint8

const (
	Keccak CommitmentKind = iota
	EigenDAV1
	EigenDAV2
	Avail
	Celestia
)

func (k CommitmentKind) String() string {
	switch k {
	case Keccak:
		return "keccak"
	case EigenDAV1:
		return "eigenda-v1"
	case EigenDAV2:
		return "eigenda-v2"
	case Avail:
		return "avail"
	case Celestia:
		return "celestia"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(k))
	}
}

// Valid reports whether k is one of the known commitment kinds.
func (k CommitmentKind) Valid() bool {
	return k <= Celestia
}

// prefix returns the tag bytes that precede the payload of a commitment of this kind.
func (k CommitmentKind) prefix() []byte {
	switch k {
	case Keccak:
		return []byte{DerivationVersion1, Keccak256CommitmentType}
	case EigenDAV1:
		return []byte{DerivationVersion1, GenericCommitmentType, EigenDALayerByte, EigenDACertV1}
	case EigenDAV2:
		return []byte{DerivationVersion1, GenericCommitmentType, EigenDALayerByte, EigenDACertV2}
	case Avail:
		return []byte{DerivationVersion1, GenericCommitmentType, AvailLayerByte}
	case Celestia:
		return []byte{DerivationVersion1, GenericCommitmentType, CelestiaLayerByte}
	default:
		panic(fmt.Errorf("unknown commitment kind %d", uint8(k)))
	}
}

// AltDACommitment references data that lives on an Alt-DA layer.
// Payload is the layer specific reference (a hash, a certificate, ...) without any tag bytes.
type AltDACommitment struct {
	Kind    CommitmentKind
	Payload []byte
}

// NewAltDACommitment returns a commitment of the given kind, rejecting unknown kinds.
func NewAltDACommitment(kind CommitmentKind, payload []byte) (AltDACommitment, error) {
	if !kind.Valid() {
		return AltDACommitment{}, fmt.Errorf("%w: %d", ErrUnknownKind, uint8(kind))
	}
	return AltDACommitment{Kind: kind, Payload: payload}, nil
}

func NewKeccak256Commitment(input []byte) AltDACommitment {
	return AltDACommitment{Kind: Keccak, Payload: crypto.Keccak256(input)}
}

// Encode returns the calldata form of the commitment: the derivation version byte,
// the tag bytes of the commitment kind, then the payload verbatim.
// It panics if the kind is not Valid; use NewAltDACommitment for kinds that are not constants.
func (c AltDACommitment) Encode() []byte {
	prefix := c.Kind.prefix()
	out := make([]byte, 0, len(prefix)+len(c.Payload))
	out = append(out, prefix...)
	return append(out, c.Payload...)
}

// TxData is an alias of Encode, named after what the batcher puts in its transactions.
func (c AltDACommitment) TxData() []byte {
	return c.Encode()
}

// CommitmentData is the encoding without the derivation version byte.
// DA servers key their data by this form.
func (c AltDACommitment) CommitmentData() []byte {
	return c.Encode()[1:]
}

// Verify checks that the input matches the commitment. Only keccak commitments are
// content addressed; other layers are trusted to return the data they were asked for.
func (c AltDACommitment) Verify(input []byte) error {
	if c.Kind != Keccak {
		return nil
	}
	if !bytes.Equal(c.Payload, crypto.Keccak256(input)) {
		return ErrCommitmentMismatch
	}
	return nil
}

func (c AltDACommitment) String() string {
	return fmt.Sprintf("%s:%x", c.Kind, c.Payload)
}

// BatcherSubmission is the calldata of a single batcher transaction.
// Exactly one of Frames or Commitment is meaningful, Commitment being nil marks frames.
type BatcherSubmission struct {
	Frames     []byte
	Commitment *AltDACommitment
}

func (s BatcherSubmission) IsCommitment() bool {
	return s.Commitment != nil
}

// ParseBatcherSubmission decodes batcher calldata. It returns false for any input it does
// not recognise: empty data, unknown tags, or truncated commitments. Callers skip those.
//
// Frames are returned without the derivation version byte.
func ParseBatcherSubmission(data []byte) (BatcherSubmission, bool) {
	if len(data) == 0 {
		return BatcherSubmission{}, false
	}
	switch data[0] {
	case DerivationVersion0:
		return BatcherSubmission{Frames: data[1:]}, true
	case DerivationVersion1:
		comm, ok := parseCommitment(data)
		if !ok {
			return BatcherSubmission{}, false
		}
		return BatcherSubmission{Commitment: &comm}, true
	default:
		return BatcherSubmission{}, false
	}
}

// parseCommitment decodes data that starts with DerivationVersion1.
func parseCommitment(data []byte) (AltDACommitment, bool) {
	if len(data) < 2 {
		return AltDACommitment{}, false
	}
	switch data[1] {
	case Keccak256CommitmentType:
		if len(data) != keccak256CommitmentLen {
			return AltDACommitment{}, false
		}
		return AltDACommitment{Kind: Keccak, Payload: data[2:]}, true
	case GenericCommitmentType:
		if len(data) < 3 {
			return AltDACommitment{}, false
		}
		switch data[2] {
		case EigenDALayerByte:
			if len(data) < 4 {
				return AltDACommitment{}, false
			}
			switch data[3] {
			case EigenDACertV1:
				return AltDACommitment{Kind: EigenDAV1, Payload: data[4:]}, true
			case EigenDACertV2:
				return AltDACommitment{Kind: EigenDAV2, Payload: data[4:]}, true
			default:
				return AltDACommitment{}, false
			}
		case AvailLayerByte:
			return AltDACommitment{Kind: Avail, Payload: data[3:]}, true
		case CelestiaLayerByte:
			return AltDACommitment{Kind: Celestia, Payload: data[3:]}, true
		default:
			return AltDACommitment{}, false
		}
	default:
		return AltDACommitment{}, false
	}
}
