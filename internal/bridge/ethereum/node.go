package ethereum

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	geth "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"

	"github.com/goodnatureofminers/bridge-sentinel/internal/bridge/endpoint"
	"github.com/goodnatureofminers/bridge-sentinel/pkg/workerpool"
)

// DefaultReceiptWorkers bounds concurrent receipt requests per block.
const DefaultReceiptWorkers = 8

// RPCNode wraps an EVM node with metrics instrumentation. Over websocket
// transports a new head subscription doubles as the drop notification.
type RPCNode struct {
	backend    RPCBackend
	rpcMetrics RPCMetrics
	workers    int

	sub       geth.Subscription
	dropped   chan struct{}
	closeOnce sync.Once
}

// NewRPCNode constructs an instrumented node client.
func NewRPCNode(ctx context.Context, backend RPCBackend, rpcMetrics RPCMetrics, workers int) *RPCNode {
	if workers < 1 {
		workers = DefaultReceiptWorkers
	}
	n := &RPCNode{
		backend:    backend,
		rpcMetrics: rpcMetrics,
		workers:    workers,
	}

	heads := make(chan *types.Header, 1)
	sub, err := backend.SubscribeNewHead(ctx, heads)
	if err != nil {
		// http transports do not support subscriptions
		return n
	}
	n.sub = sub
	n.dropped = make(chan struct{})
	go n.watch(heads)
	return n
}

// Dialer returns an endpoint dialer for http and websocket node urls.
func Dialer(rpcMetrics RPCMetrics, receiptWorkers int) endpoint.Dialer[Client] {
	return func(ctx context.Context, url string) (Client, error) {
		client, err := ethclient.DialContext(ctx, url)
		if err != nil {
			return nil, fmt.Errorf("dial %s: %w", url, err)
		}
		return NewRPCNode(ctx, rpcBackend{client}, rpcMetrics, receiptWorkers), nil
	}
}

func (n *RPCNode) watch(heads <-chan *types.Header) {
	defer close(n.dropped)
	for {
		select {
		case <-heads:
		case <-n.sub.Err():
			return
		}
	}
}

func (n *RPCNode) LatestHeight(ctx context.Context) (height uint64, err error) {
	started := time.Now()
	defer func() {
		n.rpcMetrics.Observe("block_number", err, started)
	}()
	height, err = n.backend.BlockNumber(ctx)
	return height, classify(err)
}

// BlockByHeight returns the header and transaction hashes of the block at height.
func (n *RPCNode) BlockByHeight(ctx context.Context, height uint64) (header *types.Header, txs []common.Hash, err error) {
	started := time.Now()
	defer func() {
		n.rpcMetrics.Observe("get_block_by_number", err, started)
	}()
	header, txs, err = n.backend.BlockSummary(ctx, height)
	if err != nil {
		return nil, nil, fmt.Errorf("get block %d: %w", height, classify(err))
	}
	return header, txs, nil
}

// Receipts fetches receipts for hashes concurrently, preserving order.
func (n *RPCNode) Receipts(ctx context.Context, hashes []common.Hash) ([]*types.Receipt, error) {
	return workerpool.Map(ctx, n.workers, hashes, n.transactionReceipt)
}

func (n *RPCNode) transactionReceipt(ctx context.Context, hash common.Hash) (receipt *types.Receipt, err error) {
	started := time.Now()
	defer func() {
		n.rpcMetrics.Observe("get_transaction_receipt", err, started)
	}()
	receipt, err = n.backend.TransactionReceipt(ctx, hash)
	if err != nil {
		return nil, fmt.Errorf("get receipt %s: %w", hash, classify(err))
	}
	return receipt, nil
}

// Dropped is nil unless the node was reached over a subscription capable transport.
func (n *RPCNode) Dropped() <-chan struct{} {
	return n.dropped
}

func (n *RPCNode) Close() {
	n.closeOnce.Do(func() {
		if n.sub != nil {
			n.sub.Unsubscribe()
		}
		n.backend.Close()
	})
}

func classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, rpc.ErrClientQuit) {
		return fmt.Errorf("%w: %v", endpoint.ErrDisconnected, err)
	}
	return err
}

type rpcBackend struct {
	*ethclient.Client
}

// BlockSummary reads a block without transaction bodies.
func (b rpcBackend) BlockSummary(ctx context.Context, number uint64) (*types.Header, []common.Hash, error) {
	var raw json.RawMessage
	if err := b.Client.Client().CallContext(ctx, &raw, "eth_getBlockByNumber", hexutil.EncodeUint64(number), false); err != nil {
		return nil, nil, err
	}
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil, geth.NotFound
	}

	var header types.Header
	if err := json.Unmarshal(raw, &header); err != nil {
		return nil, nil, fmt.Errorf("decode header: %w", err)
	}
	var body struct {
		Transactions []common.Hash `json:"transactions"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return nil, nil, fmt.Errorf("decode transactions: %w", err)
	}
	return &header, body.Transactions, nil
}
