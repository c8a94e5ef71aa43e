package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	dbm "github.com/tendermint/tm-db"
	"go.uber.org/zap"

	"github.com/goodnatureofminers/bridge-sentinel/internal/bridge/bitcoin"
	"github.com/goodnatureofminers/bridge-sentinel/internal/bridge/chain"
	"github.com/goodnatureofminers/bridge-sentinel/internal/bridge/config"
	"github.com/goodnatureofminers/bridge-sentinel/internal/bridge/endpoint"
	"github.com/goodnatureofminers/bridge-sentinel/internal/bridge/ethereum"
	"github.com/goodnatureofminers/bridge-sentinel/internal/bridge/extractor"
	"github.com/goodnatureofminers/bridge-sentinel/internal/bridge/handoff"
	"github.com/goodnatureofminers/bridge-sentinel/internal/bridge/handoff/kafka"
	"github.com/goodnatureofminers/bridge-sentinel/internal/bridge/ledger"
	"github.com/goodnatureofminers/bridge-sentinel/internal/bridge/model"
	"github.com/goodnatureofminers/bridge-sentinel/internal/bridge/registry"
	"github.com/goodnatureofminers/bridge-sentinel/internal/bridge/repository/clickhouse"
	"github.com/goodnatureofminers/bridge-sentinel/internal/bridge/service/canceller"
	"github.com/goodnatureofminers/bridge-sentinel/internal/bridge/service/pipeline"
	"github.com/goodnatureofminers/bridge-sentinel/internal/bridge/service/processor"
	"github.com/goodnatureofminers/bridge-sentinel/internal/bridge/service/syncer"
	"github.com/goodnatureofminers/bridge-sentinel/internal/bridge/status"
	"github.com/goodnatureofminers/bridge-sentinel/internal/bridge/validator"
	"github.com/goodnatureofminers/bridge-sentinel/internal/metrics"
	"github.com/goodnatureofminers/bridge-sentinel/pkg/batcher"
)

type lane struct {
	network *config.Network
	lane    processor.Lane
	source  chain.Source
	ledger  *ledger.Ledger
}

// relay collects the components of the pipeline. Closers run in reverse order.
type relay struct {
	logger      *zap.Logger
	lanes       []lane
	broadcaster handoff.Broadcaster
	archive     processor.Archive
	processor   *processor.Processor
	tasks       []namedRunner
	closers     []func() error
}

type namedRunner struct {
	name   string
	runner pipeline.Runner
}

func newRelay(logger *zap.Logger) *relay {
	return &relay{
		logger:      logger,
		broadcaster: handoff.NewLogBroadcaster(logger),
	}
}

func (r *relay) close() {
	for i := len(r.closers) - 1; i >= 0; i-- {
		if err := r.closers[i](); err != nil {
			r.logger.Warn("failed to close component", zap.Error(err))
		}
	}
}

func (r *relay) addNetwork(_ context.Context, n *config.Network, db dbm.DB) error {
	logger := r.logger.With(zap.String("network", n.Name))

	var (
		family  validator.Family
		logs    extractor.LogReader
		schema  extractor.Schema
		address string
		source  chain.Source
	)
	switch n.Family {
	case model.UTXO:
		params, err := bitcoin.ChainParams(n.Chain)
		if err != nil {
			return fmt.Errorf("%s: %w", n.Name, err)
		}
		f, err := bitcoin.NewFamily(params, n.BridgeAddress, metrics.NewDeposit(n.Name), logger)
		if err != nil {
			return fmt.Errorf("%s: %w", n.Name, err)
		}
		creds := bitcoin.Credentials{User: n.Credentials.User, Password: n.Credentials.Password}
		endpoints, err := endpoint.NewManager(n.Endpoints, bitcoin.Dialer(creds, metrics.NewRPCClient(n.Name)), n.Endpoint, logger, metrics.NewEndpoint(n.Name))
		if err != nil {
			return fmt.Errorf("%s: %w", n.Name, err)
		}
		r.closers = append(r.closers, func() error { endpoints.Close(); return nil })
		family, logs, schema, address = f, f, bitcoin.DepositSchema{}, f.DepositAddress()
		source = bitcoin.NewSource(n.ID, endpoints)

	case model.EVM:
		f := ethereum.NewFamily()
		abiSchema, err := extractor.NewABISchema()
		if err != nil {
			return err
		}
		endpoints, err := endpoint.NewManager(n.Endpoints, ethereum.Dialer(metrics.NewRPCClient(n.Name), n.ReceiptWorkers), n.Endpoint, logger, metrics.NewEndpoint(n.Name))
		if err != nil {
			return fmt.Errorf("%s: %w", n.Name, err)
		}
		r.closers = append(r.closers, func() error { endpoints.Close(); return nil })
		family, logs, schema, address = f, f, abiSchema, n.BridgeAddress
		source = ethereum.NewSource(n.ID, endpoints)

	default:
		return fmt.Errorf("%s: unsupported chain family %q", n.Name, n.Family)
	}

	l, err := ledger.New(
		dbm.NewPrefixDB(db, []byte("ledger/"+n.ID.String()+"/")),
		ledger.Config{Network: n.ID, Confirmations: n.Confirmations, TailLength: n.TailLength},
		validator.New(family, n.Checks),
	)
	if err != nil {
		return fmt.Errorf("%s: open ledger: %w", n.Name, err)
	}
	if snap := l.Snapshot(); snap.Initialized {
		logger.Info("ledger loaded",
			zap.Uint64("canon", snap.Canon.Height),
			zap.Uint64("latest", snap.Latest.Height),
		)
	}

	r.lanes = append(r.lanes, lane{
		network: n,
		source:  source,
		ledger:  l,
		lane: processor.Lane{
			Network:   n.ID,
			Name:      n.Name,
			Ledger:    l,
			Extractor: extractor.New(logs, schema, address, nil),
		},
	})
	return nil
}

func (r *relay) withHandoff(brokers []string, topicPrefix string) error {
	if len(brokers) == 0 {
		r.logger.Warn("no kafka brokers configured, operations are only logged")
		return nil
	}
	publisher, err := kafka.NewPublisher(kafka.Config{Brokers: brokers, TopicPrefix: topicPrefix}, metrics.NewHandoffPublisher())
	if err != nil {
		return fmt.Errorf("init kafka publisher: %w", err)
	}
	r.closers = append(r.closers, publisher.Close)
	r.broadcaster = handoff.Fanout{r.broadcaster, publisher}
	return nil
}

func (r *relay) withArchive(dsn string, flushSize int, flushInterval time.Duration, rps int) error {
	if dsn == "" {
		return nil
	}
	repo, err := clickhouse.NewRepository(dsn, metrics.NewClickhouseRepository())
	if err != nil {
		return fmt.Errorf("init repository: %w", err)
	}
	r.closers = append(r.closers, repo.Close)

	archive := batcher.New(r.logger.Named("archive"), repo.InsertOperationEvents, flushSize, flushInterval, rps)
	r.archive = archive
	r.tasks = append(r.tasks, namedRunner{name: "archive", runner: archive})
	return nil
}

func (r *relay) build(reg *registry.Registry, maxDelta, cancelInterval time.Duration) (*pipeline.Pipeline, error) {
	lanes := make([]processor.Lane, 0, len(r.lanes))
	for _, l := range r.lanes {
		lanes = append(lanes, l.lane)
	}
	proc, err := processor.New(lanes, reg, r.broadcaster, r.archive, metrics.NewProcessor(), r.logger)
	if err != nil {
		return nil, fmt.Errorf("init processor: %w", err)
	}
	r.processor = proc

	p := pipeline.New(r.logger)
	p.Add("processor", proc)
	for _, l := range r.lanes {
		s, err := syncer.New(l.network.Syncer(), l.source, l.ledger, proc, metrics.NewSyncer(l.network.Name), r.logger, nil)
		if err != nil {
			return nil, fmt.Errorf("init %s syncer: %w", l.network.Name, err)
		}
		p.Add("syncer/"+l.network.Name, s)
	}

	c, err := canceller.New(
		canceller.Config{MaxDelta: maxDelta, Interval: cancelInterval},
		reg,
		proc,
		r.broadcaster,
		metrics.NewCanceller(),
		r.logger,
		proc.CanonAdvanced(),
	)
	if err != nil {
		return nil, fmt.Errorf("init canceller: %w", err)
	}
	p.Add("canceller", c)

	for _, t := range r.tasks {
		p.Add(t.name, t.runner)
	}
	return p, nil
}

// withStatus must run after build: the processor supplies the ledger snapshots.
func (r *relay) withStatus(ctx context.Context, p *pipeline.Pipeline, ops status.Operations, addr, redisAddr, key string, interval time.Duration) error {
	collector := status.NewCollector(r.processor, ops)

	if addr != "" {
		startStatusServer(ctx, addr, status.NewServer(collector, r.logger).Handler(), r.logger)
	}

	if redisAddr == "" {
		return nil
	}
	client := redis.NewClient(&redis.Options{Addr: redisAddr})
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return fmt.Errorf("connect redis %s: %w", redisAddr, err)
	}
	r.closers = append(r.closers, client.Close)

	publisher, err := status.NewPublisher(status.PublisherConfig{Key: key, Interval: interval}, collector, client, metrics.NewStatusPublisher(), r.logger)
	if err != nil {
		return err
	}
	p.Add("status", publisher)
	return nil
}

func startStatusServer(ctx context.Context, addr string, handler http.Handler, logger *zap.Logger) {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    http.DefaultMaxHeaderBytes,
	}
	serve(ctx, srv, "status", logger)
}

func serve(ctx context.Context, srv *http.Server, name string, logger *zap.Logger) {
	logger = logger.With(zap.String("server", name), zap.String("addr", srv.Addr))
	go func() {
		logger.Info("starting http server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server failed", zap.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("failed to shutdown http server", zap.Error(err))
		}
	}()
}
