//go:generate mockgen -source=$GOFILE -destination=mocks_test.go -package=$GOPACKAGE
package bitcoin

import (
	"context"
	"time"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
)

type (
	// RPCBackend is the subset of the btcd rpc client used by RPCNode.
	RPCBackend interface {
		GetBlockCount() (int64, error)
		GetBlockHash(blockHeight int64) (*chainhash.Hash, error)
		GetBlock(blockHash *chainhash.Hash) (*wire.MsgBlock, error)
		Shutdown()
	}

	// RPCMetrics records metrics for RPC calls.
	RPCMetrics interface {
		Observe(operation string, err error, started time.Time)
	}

	// DepositMetrics counts deposit payments that could not be turned into logs.
	DepositMetrics interface {
		ObserveSkipped(reason string)
	}

	// Client is a connection to one bitcoin node.
	Client interface {
		LatestHeight(ctx context.Context) (uint64, error)
		BlockByHeight(ctx context.Context, height uint64) (*wire.MsgBlock, error)
		Dropped() <-chan struct{}
		Close()
	}
)
