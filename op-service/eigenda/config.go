package eigenda

import (
	"errors"
	"time"
)

type Config struct {
	// ProxyUrl is the HTTP endpoint of the EigenDA proxy, e.g. http://127.0.0.1:3100
	ProxyUrl string
	// DisperserUrl is the gRPC endpoint of the EigenDA disperser, used to retrieve V1 blobs
	// directly when the proxy does not have them.
	DisperserUrl string
	// RetrieveBlobTimeout bounds a single retrieval request.
	RetrieveBlobTimeout time.Duration
}

func (c Config) Check() error {
	if c.ProxyUrl == "" && c.DisperserUrl == "" {
		return errors.New("must provide an EigenDA proxy or disperser url")
	}
	if c.RetrieveBlobTimeout == 0 {
		return errors.New("EigenDA retrieve blob timeout must be greater than 0")
	}
	return nil
}
