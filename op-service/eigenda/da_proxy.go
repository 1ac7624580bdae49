package eigenda

import (
	"context"
	"crypto/tls"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/Layr-Labs/eigenda/api/grpc/disperser"
	"github.com/ethereum/go-ethereum/log"
	"github.com/ethereum/go-ethereum/rlp"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
)

// ErrNotFound is returned when the server could not find the input.
var ErrNotFound = errors.New("not found")

// ErrNetwork is returned when there is a eigenda network error.
var ErrNetwork = errors.New("eigenda network error")

// EigenDAClient is an HTTP client to communicate with EigenDA Proxy.
// It retrieves input data by commitment, and falls back to the disperser for V1 certificates.
type EigenDAClient struct {
	proxyUrl            string
	disperserUrl        string
	log                 log.Logger
	metricer            Metrics
	retrieveClient      *http.Client
	retrieveBlobTimeout time.Duration
}

const (
	CertV0                byte = 0
	CertV1                byte = 1
	EigenDACommitmentType byte = 0
	GenericCommitmentType byte = 1
)

// NewEigenDAClient returns a new EigenDA Proxy client.
func NewEigenDAClient(cfg Config, log log.Logger, m Metrics) *EigenDAClient {
	return &EigenDAClient{
		proxyUrl:            cfg.ProxyUrl,
		disperserUrl:        cfg.DisperserUrl,
		retrieveClient:      &http.Client{Timeout: cfg.RetrieveBlobTimeout},
		retrieveBlobTimeout: cfg.RetrieveBlobTimeout,
		log:                 log,
		metricer:            m,
	}
}

// RetrieveBlob returns the input data for the given batch header and blob index, straight from the disperser.
func (c *EigenDAClient) RetrieveBlob(ctx context.Context, BatchHeaderHash []byte, BlobIndex uint32) ([]byte, error) {
	if c.disperserUrl == "" {
		return nil, fmt.Errorf("no disperser configured: %w", ErrNotFound)
	}
	c.log.Info("Attempting to retrieve blob from EigenDA", "BatchHeaderHash", hex.EncodeToString(BatchHeaderHash), "blobIndex", BlobIndex)
	config := &tls.Config{}
	credential := credentials.NewTLS(config)
	dialOptions := []grpc.DialOption{grpc.WithTransportCredentials(credential), grpc.WithDefaultCallOptions(grpc.MaxCallRecvMsgSize(100 * 1024 * 1024))} // 100MiB receive buffer
	conn, err := grpc.NewClient(c.disperserUrl, dialOptions...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = conn.Close() }()
	daClient := disperser.NewDisperserClient(conn)

	ctxTimeout, cancel := context.WithTimeout(ctx, c.retrieveBlobTimeout)
	defer cancel()
	done := c.recordInterval("RetrieveBlob")
	reply, err := daClient.RetrieveBlob(ctxTimeout, &disperser.RetrieveBlobRequest{
		BatchHeaderHash: BatchHeaderHash,
		BlobIndex:       BlobIndex,
	})
	done(err)
	if err != nil {
		return nil, err
	}

	// decode modulo bn254
	return RemoveEmptyByteFromPaddedBytes(reply.Data), nil
}

// RetrieveBlobWithCommitment returns the input data for the given encoded commitment bytes.
// V1 certificates that the proxy does not know about are retried against the disperser.
func (c *EigenDAClient) RetrieveBlobWithCommitment(ctx context.Context, commitment []byte) ([]byte, error) {
	c.log.Info("Attempting to retrieve blob from EigenDA with commitment", "commitment", hex.EncodeToString(commitment))
	input, err := c.get(ctx, "RetrieveBlobWithCommitment", fmt.Sprintf("%s/get/0x%x", c.proxyUrl, commitment))
	if errors.Is(err, ErrNotFound) && c.disperserUrl != "" {
		blobInfo, decErr := DecodeCommitment(commitment)
		if decErr != nil {
			return nil, err
		}
		proof := blobInfo.BlobVerificationProof
		c.log.Warn("Blob not found on proxy, falling back to disperser", "BatchHeaderHash", hex.EncodeToString(proof.BatchMetadata.BatchHeaderHash), "blobIndex", proof.BlobIndex)
		return c.RetrieveBlob(ctx, proof.BatchMetadata.BatchHeaderHash, proof.BlobIndex)
	}
	return input, err
}

// GetBlob returns the encoded blob behind a certificate, without stripping the blob codec.
// The result is decoded with DecodeBlob.
func (c *EigenDAClient) GetBlob(ctx context.Context, cert []byte) ([]byte, error) {
	return c.get(ctx, "GetBlob", fmt.Sprintf("%s/get/0x%x?return_encoded_payload=true", c.proxyUrl, cert))
}

func (c *EigenDAClient) get(ctx context.Context, method string, url string) ([]byte, error) {
	if c.proxyUrl == "" {
		return nil, fmt.Errorf("no proxy configured: %w", ErrNotFound)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP request: %w", err)
	}
	done := c.recordInterval(method)
	resp, err := c.retrieveClient.Do(req)
	err = func() error {
		if err != nil {
			return fmt.Errorf("%w: %w", ErrNetwork, err)
		}
		if resp.StatusCode == http.StatusNotFound {
			return ErrNotFound
		}
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("failed to get preimage: %v", resp.StatusCode)
		}
		return nil
	}()
	done(err)
	if resp != nil {
		defer resp.Body.Close()
	}
	if err != nil {
		return nil, err
	}
	return io.ReadAll(resp.Body)
}

func (c *EigenDAClient) recordInterval(method string) func(error) {
	if c.metricer == nil {
		return func(err error) {}
	}

	return c.metricer.RecordInterval(method)
}

// DecodeCommitment decodes a V1 proxy commitment: the generic commitment type byte,
// the EigenDA layer byte, the certificate version byte, then the RLP encoded BlobInfo.
func DecodeCommitment(commitment []byte) (*disperser.BlobInfo, error) {
	if len(commitment) < 3 {
		return nil, fmt.Errorf("commitment is too short")
	}

	opType, daProvider, certVersion := commitment[0], commitment[1], commitment[2]
	if opType != GenericCommitmentType || daProvider != EigenDACommitmentType || certVersion != CertV0 {
		return nil, fmt.Errorf("invalid commitment type")
	}

	data := commitment[3:]
	blobInfo := &disperser.BlobInfo{}
	err := rlp.DecodeBytes(data, blobInfo)
	if err != nil {
		return nil, fmt.Errorf("unable to decode commitment")
	}

	return blobInfo, nil
}

func EncodeCommitment(val *disperser.BlobInfo) ([]byte, error) {
	bytes, err := rlp.EncodeToBytes(val)
	if err != nil {
		return nil, fmt.Errorf("failed to encode DA cert to RLP format: %w", err)
	}

	return append([]byte{GenericCommitmentType, EigenDACommitmentType, CertV0}, bytes...), nil
}
