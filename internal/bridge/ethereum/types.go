//go:generate mockgen -source=$GOFILE -destination=mocks_test.go -package=$GOPACKAGE
package ethereum

import (
	"context"
	"time"

	geth "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

type (
	// RPCBackend is the node surface used by RPCNode. It is satisfied by
	// ethclient plus the block summary call.
	RPCBackend interface {
		BlockNumber(ctx context.Context) (uint64, error)
		BlockSummary(ctx context.Context, number uint64) (*types.Header, []common.Hash, error)
		TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
		SubscribeNewHead(ctx context.Context, ch chan<- *types.Header) (geth.Subscription, error)
		Close()
	}

	// RPCMetrics records metrics for RPC calls.
	RPCMetrics interface {
		Observe(operation string, err error, started time.Time)
	}

	// Client is a connection to one EVM node.
	Client interface {
		LatestHeight(ctx context.Context) (uint64, error)
		BlockByHeight(ctx context.Context, height uint64) (*types.Header, []common.Hash, error)
		Receipts(ctx context.Context, hashes []common.Hash) ([]*types.Receipt, error)
		Dropped() <-chan struct{}
		Close()
	}
)
