package altda

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// ErrNotFound is returned when the server could not find the input.
var ErrNotFound = errors.New("not found")

// DAClient is an HTTP client for a generic Alt-DA server. Inputs are read with
// GET <url>/get/0x<commitment data>.
type DAClient struct {
	url string
	// verify the input matches the commitment after reading it
	verify    bool
	getClient *http.Client
	metrics   Metricer
}

func NewDAClient(url string, verify bool, getTimeout time.Duration, m Metricer) *DAClient {
	if m == nil {
		m = NoopMetrics
	}
	return &DAClient{
		url:       url,
		verify:    verify,
		getClient: &http.Client{Timeout: getTimeout},
		metrics:   m,
	}
}

// GetInput returns the input data for the given commitment bytes.
func (c *DAClient) GetInput(ctx context.Context, comm AltDACommitment) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s/get/0x%x", c.url, comm.CommitmentData()), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP request: %w", err)
	}
	done := c.metrics.RecordInterval("GetInput")
	input, err := c.do(req)
	done(err)
	if err != nil {
		return nil, err
	}
	if c.verify {
		if err := comm.Verify(input); err != nil {
			return nil, err
		}
	}
	c.metrics.RecordFetchedBytes(comm.Kind, len(input))
	return input, nil
}

func (c *DAClient) do(req *http.Request) ([]byte, error) {
	resp, err := c.getClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to get preimage: %v", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}
