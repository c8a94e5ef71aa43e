package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	_ "github.com/ClickHouse/clickhouse-go/v2"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/clickhouse"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jessevdk/go-flags"
	"go.uber.org/zap"

	chrepo "github.com/goodnatureofminers/bridge-sentinel/internal/bridge/repository/clickhouse"
)

type options struct {
	ClickhouseDSN string `long:"clickhouse-dsn" env:"SENTINEL_CLICKHOUSE_DSN" default:"clickhouse://localhost:9000/default" description:"ClickHouse DSN of the operation event archive"`
	MigrationsDir string `long:"migrations-dir" env:"SENTINEL_MIGRATIONS_DIR" default:"migrations/clickhouse" description:"directory of the archive migrations"`
	Down          bool   `long:"down" description:"roll back instead of applying"`
	Steps         int    `long:"steps" description:"number of migrations to apply or roll back, 0 means all"`
}

func main() {
	opts := options{}
	if _, err := flags.Parse(&opts); err != nil {
		var ferr *flags.Error
		if errors.As(err, &ferr) && ferr.Type == flags.ErrHelp {
			return
		}
		fmt.Fprintf(os.Stderr, "failed to parse flags: %v\n", err)
		os.Exit(2)
	}

	logger, err := zap.NewDevelopment()
	if err != nil {
		panic("can't initialize zap logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync()
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := migrateArchive(ctx, opts, logger); err != nil {
		logger.Fatal("archive migration failed", zap.Error(err))
	}
}

func migrateArchive(ctx context.Context, opts options, logger *zap.Logger) error {
	if opts.Steps < 0 {
		return fmt.Errorf("steps must not be negative, got %d", opts.Steps)
	}

	dir, err := filepath.Abs(opts.MigrationsDir)
	if err != nil {
		return fmt.Errorf("resolve migrations dir: %w", err)
	}
	if info, err := os.Stat(dir); err != nil {
		return fmt.Errorf("stat migrations dir %s: %w", dir, err)
	} else if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", dir)
	}

	m, err := migrate.New("file://"+filepath.ToSlash(dir), chrepo.WithMultiStatement(opts.ClickhouseDSN))
	if err != nil {
		return fmt.Errorf("init migrate: %w", err)
	}
	defer func() {
		srcErr, dbErr := m.Close()
		if srcErr != nil {
			logger.Warn("failed to close migration source", zap.Error(srcErr))
		}
		if dbErr != nil {
			logger.Warn("failed to close migration database", zap.Error(dbErr))
		}
	}()

	// migrate has no context support; GracefulStop interrupts between migrations.
	go func() {
		<-ctx.Done()
		select {
		case m.GracefulStop <- true:
		default:
		}
	}()

	if err := apply(m, opts); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			logger.Info("archive schema is up to date")
			return nil
		}
		return err
	}

	version, dirty, err := m.Version()
	switch {
	case errors.Is(err, migrate.ErrNilVersion):
		logger.Info("archive schema rolled back completely")
	case err != nil:
		return fmt.Errorf("read schema version: %w", err)
	default:
		logger.Info("archive schema migrated", zap.Uint("version", version), zap.Bool("dirty", dirty))
	}
	return nil
}

func apply(m *migrate.Migrate, opts options) error {
	switch {
	case opts.Steps > 0 && opts.Down:
		return m.Steps(-opts.Steps)
	case opts.Steps > 0:
		return m.Steps(opts.Steps)
	case opts.Down:
		return m.Down()
	default:
		return m.Up()
	}
}
