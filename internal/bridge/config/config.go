// Package config maps command line options onto the per-network settings of the relay.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/goodnatureofminers/bridge-sentinel/internal/bridge/endpoint"
	"github.com/goodnatureofminers/bridge-sentinel/internal/bridge/model"
	"github.com/goodnatureofminers/bridge-sentinel/internal/bridge/service/syncer"
	"github.com/goodnatureofminers/bridge-sentinel/internal/bridge/validator"
)

// NetworkOptions is the go-flags group of one side of the bridge.
type NetworkOptions struct {
	Name           string        `long:"name" env:"NAME" description:"network name used in logs and metrics"`
	ID             string        `long:"id" env:"ID" description:"4 byte bridge network id, hex encoded"`
	Family         string        `long:"family" env:"FAMILY" choice:"utxo" choice:"evm" description:"chain family"`
	Chain          string        `long:"chain" env:"CHAIN" default:"mainnet" description:"bitcoin chain parameters (utxo only)"`
	Endpoints      []string      `long:"endpoint" env:"ENDPOINTS" env-delim:"," description:"node endpoint, repeat for failover"`
	RPCUser        string        `long:"rpc-user" env:"RPC_USER" description:"node RPC username (utxo only)"`
	RPCPassword    string        `long:"rpc-password" env:"RPC_PASSWORD" description:"node RPC password (utxo only)"`
	BridgeAddress  string        `long:"bridge-address" env:"BRIDGE_ADDRESS" description:"hub contract (evm) or deposit address (utxo)"`
	StartHeight    uint64        `long:"start-height" env:"START_HEIGHT" description:"height of the block the ledger is initialized with"`
	Confirmations  uint64        `long:"confirmations" env:"CONFIRMATIONS" default:"6" description:"blocks between canon and latest"`
	TailLength     uint64        `long:"tail-length" env:"TAIL_LENGTH" default:"100" description:"blocks retained behind canon"`
	BatchSize      uint64        `long:"batch-size" env:"BATCH_SIZE" default:"10" description:"blocks per submitted batch"`
	FetchWorkers   int           `long:"fetch-workers" env:"FETCH_WORKERS" default:"4" description:"concurrent block fetches"`
	ReceiptWorkers int           `long:"receipt-workers" env:"RECEIPT_WORKERS" default:"8" description:"concurrent receipt fetches per block (evm only)"`
	PollInterval   time.Duration `long:"poll-interval" env:"POLL_INTERVAL" default:"5s" description:"wait when caught up with the chain head"`
	RetryInterval  time.Duration `long:"retry-interval" env:"RETRY_INTERVAL" default:"5s" description:"wait after a failed fetch cycle"`
	MaxAttempts    int           `long:"max-attempts" env:"MAX_ATTEMPTS" default:"3" description:"attempts per endpoint before rotating"`
	RetryDelay     time.Duration `long:"retry-delay" env:"RETRY_DELAY" default:"1s" description:"delay between attempts"`
	CallTimeout    time.Duration `long:"call-timeout" env:"CALL_TIMEOUT" default:"20s" description:"timeout of a single RPC call"`
	SkipChecks     []string      `long:"skip-check" env:"SKIP_CHECKS" env-delim:"," choice:"identity" choice:"linkage" choice:"proof" choice:"inclusion" description:"disable a validation rule"`
}

// Credentials authenticate against a node.
type Credentials struct {
	User     string
	Password string
}

// Network is the validated configuration of one network.
type Network struct {
	Name          string
	ID            model.NetworkID
	Family        model.Family
	Chain         string
	Endpoints     []string
	Credentials   Credentials
	BridgeAddress string

	StartHeight   uint64
	Confirmations uint64
	TailLength    uint64

	BatchSize      uint64
	FetchWorkers   int
	ReceiptWorkers int
	PollInterval   time.Duration
	RetryInterval  time.Duration

	Endpoint endpoint.Options
	Checks   validator.Checks
}

// Network validates the options and builds the network configuration.
func (o NetworkOptions) Network() (*Network, error) {
	name := strings.TrimSpace(o.Name)
	if name == "" {
		return nil, errors.New("network name is required")
	}
	id, err := model.ParseNetworkID(o.ID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	if id.IsZero() {
		return nil, fmt.Errorf("%s: network id must not be zero", name)
	}

	family := model.Family(strings.ToLower(o.Family))
	if family != model.UTXO && family != model.EVM {
		return nil, fmt.Errorf("%s: unknown chain family %q", name, o.Family)
	}

	endpoints := make([]string, 0, len(o.Endpoints))
	for _, e := range o.Endpoints {
		if e = strings.TrimSpace(e); e != "" {
			endpoints = append(endpoints, e)
		}
	}
	if len(endpoints) == 0 {
		return nil, fmt.Errorf("%s: at least one endpoint is required", name)
	}
	if strings.TrimSpace(o.BridgeAddress) == "" {
		return nil, fmt.Errorf("%s: bridge address is required", name)
	}
	if o.TailLength == 0 {
		return nil, fmt.Errorf("%s: tail length must be positive", name)
	}

	checks, err := checksOf(o.SkipChecks)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}

	return &Network{
		Name:           name,
		ID:             id,
		Family:         family,
		Chain:          o.Chain,
		Endpoints:      endpoints,
		Credentials:    Credentials{User: o.RPCUser, Password: o.RPCPassword},
		BridgeAddress:  strings.TrimSpace(o.BridgeAddress),
		StartHeight:    o.StartHeight,
		Confirmations:  o.Confirmations,
		TailLength:     o.TailLength,
		BatchSize:      o.BatchSize,
		FetchWorkers:   o.FetchWorkers,
		ReceiptWorkers: o.ReceiptWorkers,
		PollInterval:   o.PollInterval,
		RetryInterval:  o.RetryInterval,
		Endpoint: endpoint.Options{
			MaxAttempts: o.MaxAttempts,
			RetryDelay:  o.RetryDelay,
			CallTimeout: o.CallTimeout,
		},
		Checks: checks,
	}, nil
}

// Syncer returns the syncer settings of the network.
func (n *Network) Syncer() syncer.Config {
	return syncer.Config{
		Network:       n.ID,
		Name:          n.Name,
		StartHeight:   n.StartHeight,
		BatchSize:     n.BatchSize,
		FetchWorkers:  n.FetchWorkers,
		PollInterval:  n.PollInterval,
		RetryInterval: n.RetryInterval,
	}
}

// Pair validates both sides of the bridge and checks they do not collide.
func Pair(native, host NetworkOptions) ([]*Network, error) {
	n, err := native.Network()
	if err != nil {
		return nil, fmt.Errorf("native: %w", err)
	}
	h, err := host.Network()
	if err != nil {
		return nil, fmt.Errorf("host: %w", err)
	}
	if n.ID == h.ID {
		return nil, fmt.Errorf("native and host share network id %s", n.ID)
	}
	if n.Name == h.Name {
		return nil, fmt.Errorf("native and host share name %q", n.Name)
	}
	return []*Network{n, h}, nil
}

func checksOf(skip []string) (validator.Checks, error) {
	checks := validator.AllChecks()
	for _, s := range skip {
		switch strings.ToLower(strings.TrimSpace(s)) {
		case "identity":
			checks.Identity = false
		case "linkage":
			checks.Linkage = false
		case "proof":
			checks.Proof = false
		case "inclusion":
			checks.Inclusion = false
		default:
			return checks, fmt.Errorf("unknown validation check %q", s)
		}
	}
	return checks, nil
}
