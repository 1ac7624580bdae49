package eigenda

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

const (
	// BytesPerSymbol is the number of payload bytes carried by one bn254 field element.
	BytesPerSymbol = 31
	// BytesPerFieldElement is the size of an encoded bn254 field element.
	BytesPerFieldElement = 32

	// BlobEncodingVersion0 is the only blob codec version the proxy produces for rollup payloads.
	BlobEncodingVersion0 byte = 0

	blobHeaderLen = BytesPerFieldElement
)

var (
	ErrBlobTooShort       = errors.New("blob too short")
	ErrBlobInvalidHeader  = errors.New("invalid blob header")
	ErrBlobUnknownVersion = errors.New("unknown blob encoding version")
	ErrBlobLengthMismatch = errors.New("blob length mismatch")
)

// ConvertByPaddingEmptyByte takes bytes and inserts an empty byte at the front of every 31 bytes,
// so that every 32 byte chunk is a valid bn254 field element.
func ConvertByPaddingEmptyByte(data []byte) []byte {
	dataLen := len(data)
	parseSize := BytesPerSymbol
	putSize := BytesPerFieldElement

	dataSize := int(math.Ceil(float64(dataLen) / float64(parseSize)))
	validData := make([]byte, dataSize*putSize)
	validEnd := len(validData)

	for i := 0; i < dataSize; i++ {
		start := i * parseSize
		end := (i + 1) * parseSize
		if end > dataLen {
			end = dataLen
			validEnd = end - start + 1 + i*putSize
		}
		validData[i*putSize] = 0x00
		copy(validData[i*putSize+1:(i+1)*putSize], data[start:end])
	}
	return validData[:validEnd]
}

// RemoveEmptyByteFromPaddedBytes is the inverse of ConvertByPaddingEmptyByte: it drops the
// leading byte of every 32 byte chunk.
func RemoveEmptyByteFromPaddedBytes(data []byte) []byte {
	dataLen := len(data)
	parseSize := BytesPerFieldElement
	dataSize := int(math.Ceil(float64(dataLen) / float64(parseSize)))

	putSize := BytesPerSymbol
	validData := make([]byte, dataSize*putSize)
	validLen := len(validData)

	for i := 0; i < dataSize; i++ {
		// add 1 to leave the first empty byte untouched
		start := i*parseSize + 1
		end := (i + 1) * parseSize

		if end > dataLen {
			end = dataLen
			validLen = end - start + i*putSize
		}

		copy(validData[i*putSize:(i+1)*putSize], data[start:end])
	}
	return validData[:validLen]
}

// EncodeBlob wraps a rollup payload in the version 0 blob codec: a one field element header
// holding the version and the payload length, followed by the padded payload.
func EncodeBlob(payload []byte) []byte {
	header := make([]byte, blobHeaderLen)
	header[1] = BlobEncodingVersion0
	binary.BigEndian.PutUint32(header[2:6], uint32(len(payload)))
	return append(header, ConvertByPaddingEmptyByte(payload)...)
}

// DecodeBlob strips the version 0 blob codec and returns the rollup payload.
func DecodeBlob(blob []byte) ([]byte, error) {
	if len(blob) < blobHeaderLen {
		return nil, fmt.Errorf("%w: %d bytes", ErrBlobTooShort, len(blob))
	}
	if blob[0] != 0 {
		return nil, fmt.Errorf("%w: first byte %d", ErrBlobInvalidHeader, blob[0])
	}
	if blob[1] != BlobEncodingVersion0 {
		return nil, fmt.Errorf("%w: %d", ErrBlobUnknownVersion, blob[1])
	}
	length := binary.BigEndian.Uint32(blob[2:6])
	body := RemoveEmptyByteFromPaddedBytes(blob[blobHeaderLen:])
	if uint64(len(body)) < uint64(length) {
		return nil, fmt.Errorf("%w: header claims %d bytes, body has %d", ErrBlobLengthMismatch, length, len(body))
	}
	return body[:length], nil
}
