package altda

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/ethereum/go-ethereum/log"
)

// RetryingFetcher retries failed reads of an inner Source with exponential backoff.
// Missing data, mismatching data and unsupported commitments are not retried.
type RetryingFetcher struct {
	log         log.Logger
	inner       Source
	maxRetries  uint64
	newStrategy func() backoff.BackOff
}

var _ Source = (*RetryingFetcher)(nil)

func NewRetryingFetcher(log log.Logger, inner Source, maxRetries uint64) *RetryingFetcher {
	return &RetryingFetcher{
		log:        log,
		inner:      inner,
		maxRetries: maxRetries,
		newStrategy: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = 250 * time.Millisecond
			b.MaxInterval = 10 * time.Second
			return b
		},
	}
}

// WithBackOff replaces the backoff strategy used between attempts.
func (f *RetryingFetcher) WithBackOff(newStrategy func() backoff.BackOff) *RetryingFetcher {
	f.newStrategy = newStrategy
	return f
}

func (f *RetryingFetcher) GetInput(ctx context.Context, comm AltDACommitment) ([]byte, error) {
	return retry(ctx, f, "GetInput", func() ([]byte, error) {
		return f.inner.GetInput(ctx, comm)
	})
}

func (f *RetryingFetcher) GetBlob(ctx context.Context, cert []byte) ([]byte, error) {
	return retry(ctx, f, "GetBlob", func() ([]byte, error) {
		return f.inner.GetBlob(ctx, cert)
	})
}

func retry(ctx context.Context, f *RetryingFetcher, method string, op func() ([]byte, error)) ([]byte, error) {
	strategy := backoff.WithContext(backoff.WithMaxRetries(f.newStrategy(), f.maxRetries), ctx)
	return backoff.RetryNotifyWithData(func() ([]byte, error) {
		data, err := op()
		if isPermanent(err) {
			return nil, backoff.Permanent(err)
		}
		return data, err
	}, strategy, func(err error, next time.Duration) {
		f.log.Warn("Alt-DA request failed, retrying", "method", method, "next", next, "err", err)
	})
}

func isPermanent(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrCommitmentMismatch) ||
		errors.Is(err, ErrUnsupportedCommitment) ||
		errors.Is(err, ErrInvalidCelestiaPayload)
}
