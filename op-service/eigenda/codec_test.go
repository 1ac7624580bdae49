package eigenda

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPaddingRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for _, size := range []int{0, 1, 30, 31, 32, 62, 63, 1000} {
		data := make([]byte, size)
		rng.Read(data)
		padded := ConvertByPaddingEmptyByte(data)
		for i := 0; i < len(padded); i += BytesPerFieldElement {
			require.Zero(t, padded[i], "every field element starts with an empty byte")
		}
		require.Equal(t, data, RemoveEmptyByteFromPaddedBytes(padded), "size %d", size)
	}
}

func TestBlobCodec(t *testing.T) {
	payload := []byte("some rollup payload that spans more than a single field element")
	blob := EncodeBlob(payload)
	decoded, err := DecodeBlob(blob)
	require.NoError(t, err)
	require.Equal(t, payload, decoded)

	t.Run("too short", func(t *testing.T) {
		_, err := DecodeBlob(blob[:10])
		require.ErrorIs(t, err, ErrBlobTooShort)
	})
	t.Run("invalid header", func(t *testing.T) {
		bad := append([]byte{}, blob...)
		bad[0] = 1
		_, err := DecodeBlob(bad)
		require.ErrorIs(t, err, ErrBlobInvalidHeader)
	})
	t.Run("unknown version", func(t *testing.T) {
		bad := append([]byte{}, blob...)
		bad[1] = 7
		_, err := DecodeBlob(bad)
		require.ErrorIs(t, err, ErrBlobUnknownVersion)
	})
	t.Run("truncated body", func(t *testing.T) {
		_, err := DecodeBlob(blob[:blobHeaderLen+BytesPerFieldElement])
		require.ErrorIs(t, err, ErrBlobLengthMismatch)
	})
}
