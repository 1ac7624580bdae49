package sources

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/log"

	"github.com/mantlenetworkio/mantle-altda/op-service/eth"
)

const maxRetries = 10

type L1Source interface {
	InfoAndTxsByHash(ctx context.Context, hash common.Hash) (eth.BlockInfo, types.Transactions, error)
}

type blockInfoAndTxs struct {
	info eth.BlockInfo
	txs  types.Transactions
}

// RetryingL1Source retries failed L1 reads with exponential backoff.
// A block that does not exist is reported straight away.
type RetryingL1Source struct {
	logger      log.Logger
	source      L1Source
	newStrategy func() backoff.BackOff
}

func NewRetryingL1Source(logger log.Logger, source L1Source) *RetryingL1Source {
	return &RetryingL1Source{
		logger: logger,
		source: source,
		newStrategy: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = 500 * time.Millisecond
			b.MaxInterval = 10 * time.Second
			return backoff.WithMaxRetries(b, maxRetries)
		},
	}
}

// WithBackOff replaces the backoff strategy used between attempts.
func (s *RetryingL1Source) WithBackOff(newStrategy func() backoff.BackOff) *RetryingL1Source {
	s.newStrategy = newStrategy
	return s
}

func (s *RetryingL1Source) InfoAndTxsByHash(ctx context.Context, hash common.Hash) (eth.BlockInfo, types.Transactions, error) {
	res, err := backoff.RetryNotifyWithData(func() (blockInfoAndTxs, error) {
		info, txs, err := s.source.InfoAndTxsByHash(ctx, hash)
		if errors.Is(err, ethereum.NotFound) {
			return blockInfoAndTxs{}, backoff.Permanent(err)
		}
		return blockInfoAndTxs{info: info, txs: txs}, err
	}, backoff.WithContext(s.newStrategy(), ctx), func(err error, next time.Duration) {
		s.logger.Warn("Failed to retrieve L1 info and txs", "hash", hash, "next", next, "err", err)
	})
	if err != nil {
		return nil, nil, err
	}
	return res.info, res.txs, nil
}
