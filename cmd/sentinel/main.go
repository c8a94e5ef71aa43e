package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jessevdk/go-flags"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	dbm "github.com/tendermint/tm-db"
	"go.uber.org/zap"

	"github.com/goodnatureofminers/bridge-sentinel/internal/bridge/config"
	"github.com/goodnatureofminers/bridge-sentinel/internal/bridge/registry"
)

type options struct {
	Native config.NetworkOptions `group:"Native network" namespace:"native" env-namespace:"SENTINEL_NATIVE"`
	Host   config.NetworkOptions `group:"Host network" namespace:"host" env-namespace:"SENTINEL_HOST"`

	LogProduction bool   `long:"log-production" env:"SENTINEL_LOG_PRODUCTION" description:"use the production zap configuration"`
	DBBackend     string `long:"db-backend" env:"SENTINEL_DB_BACKEND" default:"goleveldb" choice:"goleveldb" choice:"memdb" description:"key/value store backend"`
	DBDir         string `long:"db-dir" env:"SENTINEL_DB_DIR" default:"data" description:"key/value store directory"`

	RecentLimit    int           `long:"recent-limit" env:"SENTINEL_RECENT_LIMIT" default:"20" description:"most recent operations scanned for cancellation"`
	MaxDelta       time.Duration `long:"max-delta" env:"SENTINEL_MAX_DELTA" default:"1h" description:"time the origin chain must advance past an enqueue before it is cancellable"`
	CancelInterval time.Duration `long:"cancel-interval" env:"SENTINEL_CANCEL_INTERVAL" default:"10s" description:"interval between cancellation scans"`

	MetricsAddr string `long:"metrics-addr" env:"SENTINEL_METRICS_ADDR" default:":2112" description:"address for metrics server"`
	StatusAddr  string `long:"status-addr" env:"SENTINEL_STATUS_ADDR" default:":8001" description:"address for the status endpoint, empty disables it"`

	KafkaBrokers     []string `long:"kafka-broker" env:"SENTINEL_KAFKA_BROKERS" env-delim:"," description:"kafka broker, handoff is logged only when unset"`
	KafkaTopicPrefix string   `long:"kafka-topic-prefix" env:"SENTINEL_KAFKA_TOPIC_PREFIX" default:"bridge-sentinel" description:"prefix of the executable and cancellable topics"`

	RedisAddr      string        `long:"redis-addr" env:"SENTINEL_REDIS_ADDR" description:"redis address for the status heartbeat"`
	StatusKey      string        `long:"status-key" env:"SENTINEL_STATUS_KEY" default:"bridge-sentinel:status" description:"redis key of the status heartbeat"`
	StatusInterval time.Duration `long:"status-interval" env:"SENTINEL_STATUS_INTERVAL" default:"10s" description:"interval between status heartbeats"`

	ClickhouseDSN        string        `long:"clickhouse-dsn" env:"SENTINEL_CLICKHOUSE_DSN" description:"ClickHouse DSN of the operation event archive"`
	ArchiveFlushSize     int           `long:"archive-flush-size" env:"SENTINEL_ARCHIVE_FLUSH_SIZE" default:"500" description:"events per archive insert"`
	ArchiveFlushInterval time.Duration `long:"archive-flush-interval" env:"SENTINEL_ARCHIVE_FLUSH_INTERVAL" default:"5s" description:"maximum delay of an archive insert"`
	ArchiveRPS           int           `long:"archive-rps" env:"SENTINEL_ARCHIVE_RPS" default:"10" description:"archive inserts per second"`
}

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "failed to load .env: %v\n", err)
		os.Exit(1)
	}

	opts := options{}
	if _, err := flags.ParseArgs(&opts, os.Args); err != nil {
		var ferr *flags.Error
		if errors.As(err, &ferr) && ferr.Type == flags.ErrHelp {
			return
		}
		fmt.Fprintf(os.Stderr, "failed to parse flags: %v\n", err)
		os.Exit(2)
	}

	logger, err := newLogger(opts.LogProduction)
	if err != nil {
		panic("can't initialize zap logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync()
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, opts, logger); err != nil {
		logger.Fatal("bridge sentinel failed", zap.Error(err))
	}
	logger.Info("bridge sentinel stopped")
}

func newLogger(production bool) (*zap.Logger, error) {
	if production {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

func run(ctx context.Context, opts options, logger *zap.Logger) error {
	networks, err := config.Pair(opts.Native, opts.Host)
	if err != nil {
		return fmt.Errorf("invalid network configuration: %w", err)
	}

	db, err := dbm.NewDB("sentinel", dbm.BackendType(opts.DBBackend), opts.DBDir)
	if err != nil {
		return fmt.Errorf("open %s store in %s: %w", opts.DBBackend, opts.DBDir, err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Error("failed to close store", zap.Error(err))
		}
	}()

	reg, err := registry.New(dbm.NewPrefixDB(db, []byte("registry/")), opts.RecentLimit)
	if err != nil {
		return fmt.Errorf("open registry: %w", err)
	}

	startMetricsServer(ctx, opts.MetricsAddr, logger)

	r := newRelay(logger)
	defer r.close()

	for _, n := range networks {
		if err := r.addNetwork(ctx, n, db); err != nil {
			return err
		}
	}
	if err := r.withHandoff(opts.KafkaBrokers, opts.KafkaTopicPrefix); err != nil {
		return err
	}
	if err := r.withArchive(opts.ClickhouseDSN, opts.ArchiveFlushSize, opts.ArchiveFlushInterval, opts.ArchiveRPS); err != nil {
		return err
	}

	p, err := r.build(reg, opts.MaxDelta, opts.CancelInterval)
	if err != nil {
		return err
	}
	if err := r.withStatus(ctx, p, reg, opts.StatusAddr, opts.RedisAddr, opts.StatusKey, opts.StatusInterval); err != nil {
		return err
	}

	logger.Info("bridge sentinel started",
		zap.String("native", networks[0].Name),
		zap.String("host", networks[1].Name),
		zap.Uint64("operations", reg.Count()),
	)
	return p.Run(ctx)
}

func startMetricsServer(ctx context.Context, addr string, logger *zap.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	serve(ctx, srv, "metrics", logger)
}
