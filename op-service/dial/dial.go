package dial

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/log"
	"github.com/ethereum/go-ethereum/rpc"
)

// DefaultDialTimeout is a default timeout for dialing a client.
const DefaultDialTimeout = 1 * time.Minute

// dialBackOff paces the attempts to reach an endpoint that is not up yet.
var dialBackOff = func() backoff.BackOff {
	return backoff.WithMaxRetries(backoff.NewConstantBackOff(2*time.Second), 30)
}

// DialEthClientWithTimeout dials the JSON-RPC endpoint at url, retrying until a connection
// is established or the timeout expires.
func DialEthClientWithTimeout(ctx context.Context, timeout time.Duration, log log.Logger, url string) (*ethclient.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	bOff := backoff.WithContext(dialBackOff(), ctx)
	c, err := backoff.RetryNotifyWithData(func() (*rpc.Client, error) {
		return rpc.DialContext(ctx, url)
	}, bOff, func(err error, next time.Duration) {
		log.Warn("Failed to dial RPC, retrying", "addr", url, "next", next, "err", err)
	})
	if err != nil {
		return nil, err
	}
	return ethclient.NewClient(c), nil
}

// DialEthClientForChain dials like DialEthClientWithTimeout, then checks that the endpoint
// serves the chain with the expected id.
func DialEthClientForChain(ctx context.Context, timeout time.Duration, log log.Logger, url string, chainID *big.Int) (*ethclient.Client, error) {
	client, err := DialEthClientWithTimeout(ctx, timeout, log, url)
	if err != nil {
		return nil, err
	}
	got, err := client.ChainID(ctx)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to fetch chain id: %w", err)
	}
	if got.Cmp(chainID) != 0 {
		client.Close()
		return nil, fmt.Errorf("endpoint serves chain %v, expected %v", got, chainID)
	}
	return client, nil
}
