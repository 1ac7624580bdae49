package altda

import (
	"bytes"
	"math/rand"
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/require"
)

func TestEncodeCommitment(t *testing.T) {
	tests := []struct {
		name     string
		comm     AltDACommitment
		expected []byte
	}{
		{
			name:     "keccak",
			comm:     AltDACommitment{Kind: Keccak, Payload: []byte("keccak_commitment")},
			expected: append([]byte{1, 0}, []byte("keccak_commitment")...),
		},
		{
			name:     "eigenda v1",
			comm:     AltDACommitment{Kind: EigenDAV1, Payload: []byte("eigenda_commitment")},
			expected: append([]byte{1, 1, 0, 0}, []byte("eigenda_commitment")...),
		},
		{
			name:     "eigenda v2",
			comm:     AltDACommitment{Kind: EigenDAV2, Payload: []byte("eigenda_commitment")},
			expected: append([]byte{1, 1, 0, 1}, []byte("eigenda_commitment")...),
		},
		{
			name:     "avail",
			comm:     AltDACommitment{Kind: Avail, Payload: []byte("avail_commitment")},
			expected: append([]byte{1, 1, 0x0a}, []byte("avail_commitment")...),
		},
		{
			name:     "celestia",
			comm:     AltDACommitment{Kind: Celestia, Payload: []byte("celestia_commitment")},
			expected: append([]byte{1, 1, 0x0c}, []byte("celestia_commitment")...),
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.expected, tc.comm.Encode())
			require.Equal(t, tc.expected, tc.comm.TxData())
			require.Equal(t, tc.expected[1:], tc.comm.CommitmentData())
		})
	}
}

func TestParseBatcherSubmission(t *testing.T) {
	keccak := []byte("\x01\x0012345678901234567890123456789012")
	eigenV1 := []byte("\x01\x01\x00\x00eigenda_commitment")
	eigenV2 := []byte("\x01\x01\x00\x01eigenda_commitment")
	avail := []byte("\x01\x01\x0aavail_commitment")
	celestia := []byte("\x01\x01\x0ccelestia_commitment")

	tests := []struct {
		name     string
		input    []byte
		ok       bool
		expected BatcherSubmission
	}{
		{name: "empty", input: nil},
		{name: "frames", input: []byte("\x00frames"), ok: true, expected: BatcherSubmission{Frames: []byte("frames")}},
		{name: "version byte only frames", input: []byte{0}, ok: true, expected: BatcherSubmission{Frames: []byte{}}},
		{name: "unknown version", input: []byte{2, 0, 0}},
		{name: "version 1 only", input: []byte{1}},
		{name: "keccak", input: keccak, ok: true, expected: BatcherSubmission{Commitment: &AltDACommitment{Kind: Keccak, Payload: keccak[2:]}}},
		{name: "fake keccak", input: []byte("\x01\x00not_a_keccak_commitment")},
		{name: "keccak too long", input: append([]byte{1, 0}, make([]byte, 33)...)},
		{name: "keccak too short", input: append([]byte{1, 0}, make([]byte, 31)...)},
		{name: "generic without layer", input: []byte{1, 1}},
		{name: "eigenda without version", input: []byte{1, 1, 0}},
		{name: "eigenda v1", input: eigenV1, ok: true, expected: BatcherSubmission{Commitment: &AltDACommitment{Kind: EigenDAV1, Payload: eigenV1[4:]}}},
		{name: "eigenda v2", input: eigenV2, ok: true, expected: BatcherSubmission{Commitment: &AltDACommitment{Kind: EigenDAV2, Payload: eigenV2[4:]}}},
		{name: "eigenda unknown version", input: []byte("\x01\x01\x00\x02eigenda_commitment")},
		{name: "avail", input: avail, ok: true, expected: BatcherSubmission{Commitment: &AltDACommitment{Kind: Avail, Payload: []byte("avail_commitment")}}},
		{name: "celestia", input: celestia, ok: true, expected: BatcherSubmission{Commitment: &AltDACommitment{Kind: Celestia, Payload: []byte("celestia_commitment")}}},
		{name: "unknown layer", input: []byte("\x01\x01\x0bunknown")},
		{name: "unknown commitment type", input: []byte("\x01\x02\x00payload")},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			sub, ok := ParseBatcherSubmission(tc.input)
			require.Equal(t, tc.ok, ok)
			if !tc.ok {
				return
			}
			require.Equal(t, tc.expected, sub)
			require.Equal(t, tc.expected.Commitment != nil, sub.IsCommitment())
		})
	}
}

func TestParseKeccakCommitment(t *testing.T) {
	input := append([]byte{1, 0}, make([]byte, 32)...)
	sub, ok := ParseBatcherSubmission(input)
	require.True(t, ok)
	require.Equal(t, Keccak, sub.Commitment.Kind)
	require.Equal(t, make([]byte, 32), sub.Commitment.Payload)
}

func TestCommitmentRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(1234))
	for _, kind := range []CommitmentKind{Keccak, EigenDAV1, EigenDAV2, Avail, Celestia} {
		t.Run(kind.String(), func(t *testing.T) {
			for i := 0; i < 20; i++ {
				size := 32
				if kind != Keccak {
					size = rng.Intn(200)
				}
				payload := make([]byte, size)
				rng.Read(payload)
				comm, err := NewAltDACommitment(kind, payload)
				require.NoError(t, err)

				sub, ok := ParseBatcherSubmission(comm.Encode())
				require.True(t, ok)
				require.True(t, sub.IsCommitment())
				require.Equal(t, kind, sub.Commitment.Kind)
				require.True(t, bytes.Equal(payload, sub.Commitment.Payload))
			}
		})
	}
}

func TestUnknownCommitmentKind(t *testing.T) {
	kind := Celestia + 1
	require.False(t, kind.Valid())
	require.Equal(t, "unknown(5)", kind.String())

	_, err := NewAltDACommitment(kind, []byte("payload"))
	require.ErrorIs(t, err, ErrUnknownKind)
	require.Panics(t, func() {
		AltDACommitment{Kind: kind, Payload: []byte("payload")}.Encode()
	})
}

func TestKeccak256CommitmentVerify(t *testing.T) {
	input := []byte("hello alt-da")
	comm := NewKeccak256Commitment(input)
	require.Equal(t, crypto.Keccak256(input), comm.Payload)
	require.NoError(t, comm.Verify(input))
	require.ErrorIs(t, comm.Verify([]byte("something else")), ErrCommitmentMismatch)

	generic := AltDACommitment{Kind: Avail, Payload: []byte("cert")}
	require.NoError(t, generic.Verify([]byte("anything")))
}
