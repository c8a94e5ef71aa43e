package bitcoin

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/rpcclient"
	"github.com/btcsuite/btcd/wire"

	"github.com/goodnatureofminers/bridge-sentinel/internal/bridge/endpoint"
	"github.com/goodnatureofminers/bridge-sentinel/pkg/safe"
)

// RPCNode wraps a btcd rpc client with metrics instrumentation.
type RPCNode struct {
	client     RPCBackend
	rpcMetrics RPCMetrics
}

// NewRPCNode constructs an instrumented node client.
func NewRPCNode(client RPCBackend, rpcMetrics RPCMetrics) *RPCNode {
	return &RPCNode{
		client:     client,
		rpcMetrics: rpcMetrics,
	}
}

// Credentials authenticate against bitcoind.
type Credentials struct {
	User     string
	Password string
}

// Dialer returns an endpoint dialer opening HTTP POST mode connections.
func Dialer(creds Credentials, rpcMetrics RPCMetrics) endpoint.Dialer[Client] {
	return func(_ context.Context, host string) (Client, error) {
		client, err := rpcclient.New(&rpcclient.ConnConfig{
			Host:         host,
			User:         creds.User,
			Pass:         creds.Password,
			HTTPPostMode: true,
			DisableTLS:   true,
		}, nil)
		if err != nil {
			return nil, fmt.Errorf("connect %s: %w", host, err)
		}
		return NewRPCNode(client, rpcMetrics), nil
	}
}

// LatestHeight returns the height of the best block.
func (n *RPCNode) LatestHeight(_ context.Context) (uint64, error) {
	count, err := n.getBlockCount()
	if err != nil {
		return 0, classify(err)
	}
	height, err := safe.Uint64(count)
	if err != nil {
		return 0, fmt.Errorf("block count overflow: %w", err)
	}
	return height, nil
}

// BlockByHeight fetches the full block at height.
func (n *RPCNode) BlockByHeight(ctx context.Context, height uint64) (*wire.MsgBlock, error) {
	h, err := safe.Int64(height)
	if err != nil {
		return nil, fmt.Errorf("block height %d exceeds rpc limit", height)
	}
	hash, err := n.getBlockHash(h)
	if err != nil {
		return nil, fmt.Errorf("get block hash at height %d: %w", height, classify(err))
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	block, err := n.getBlock(hash)
	if err != nil {
		return nil, fmt.Errorf("get block %s: %w", hash, classify(err))
	}
	return block, nil
}

// Dropped returns nil: HTTP POST mode has no long lived connection to watch.
func (n *RPCNode) Dropped() <-chan struct{} {
	return nil
}

func (n *RPCNode) Close() {
	n.client.Shutdown()
}

func (n *RPCNode) getBlockCount() (count int64, err error) {
	started := time.Now()
	defer func() {
		n.rpcMetrics.Observe("get_block_count", err, started)
	}()
	return n.client.GetBlockCount()
}

func (n *RPCNode) getBlockHash(blockHeight int64) (hash *chainhash.Hash, err error) {
	started := time.Now()
	defer func() {
		n.rpcMetrics.Observe("get_block_hash", err, started)
	}()
	return n.client.GetBlockHash(blockHeight)
}

func (n *RPCNode) getBlock(blockHash *chainhash.Hash) (block *wire.MsgBlock, err error) {
	started := time.Now()
	defer func() {
		n.rpcMetrics.Observe("get_block", err, started)
	}()
	return n.client.GetBlock(blockHash)
}

func classify(err error) error {
	if errors.Is(err, rpcclient.ErrClientShutdown) || errors.Is(err, rpcclient.ErrClientDisconnect) {
		return fmt.Errorf("%w: %v", endpoint.ErrDisconnected, err)
	}
	return err
}
