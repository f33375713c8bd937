package chain

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
	"go.uber.org/zap"
)

// Client wraps go-ethereum RPC and serves the latest block time as the
// pool clock.
type Client struct {
	rpcClient *rpc.Client
	ethClient *ethclient.Client

	retry retrier
}

// NewClient creates a new chain client from the RPC URL. Failed header
// reads are retried up to maxRetries times and logged through logger.
func NewClient(ctx context.Context, rpcURL string, maxRetries int, retryDelay time.Duration, logger *zap.Logger) (*Client, error) {
	rpcClient, err := rpc.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, err
	}

	return &Client{
		rpcClient: rpcClient,
		ethClient: ethclient.NewClient(rpcClient),
		retry:     newRetrier(maxRetries, retryDelay, logger),
	}, nil
}

// Close closes the underlying RPC client.
func (c *Client) Close() {
	if c.rpcClient != nil {
		c.rpcClient.Close()
	}
}

// GetChainID returns the chain ID.
func (c *Client) GetChainID(ctx context.Context) (*big.Int, error) {
	return c.ethClient.ChainID(ctx)
}

// LatestHeader returns the header of the latest block.
func (c *Client) LatestHeader(ctx context.Context) (*types.Header, error) {
	var header *types.Header
	err := c.retry.do(ctx, "eth_getBlockByNumber", func(ctx context.Context) error {
		h, err := c.ethClient.HeaderByNumber(ctx, nil)
		if err != nil {
			return err
		}
		header = h
		return nil
	})
	return header, err
}

// Now returns the latest block timestamp in unix seconds.
func (c *Client) Now(ctx context.Context) (int64, error) {
	header, err := c.LatestHeader(ctx)
	if err != nil {
		return 0, fmt.Errorf("latest header: %w", err)
	}
	return blockTime(header)
}

func blockTime(header *types.Header) (int64, error) {
	if header == nil {
		return 0, fmt.Errorf("nil header")
	}
	if header.Time > uint64(1<<63-1) {
		return 0, fmt.Errorf("block time %d out of range", header.Time)
	}
	return int64(header.Time), nil
}
