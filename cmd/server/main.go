package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/dpmglangsa/gampong/internal/config"
	"github.com/dpmglangsa/gampong/internal/core"
	"github.com/dpmglangsa/gampong/internal/export"
	"github.com/dpmglangsa/gampong/internal/grid"
	"github.com/dpmglangsa/gampong/internal/ledger"
	"github.com/dpmglangsa/gampong/internal/logging"
	"github.com/dpmglangsa/gampong/internal/store"
	"github.com/dpmglangsa/gampong/internal/web"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
)

// seedable backends accept a whole sheet at once.
type seedable interface {
	store.Backend
	ImportGrid(ctx context.Context, sheet string, g grid.Grid) error
}

func main() {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := logging.Setup(cfg.Logging.Level, cfg.Logging.Format)
	logger.Info("configuration loaded",
		"port", cfg.Server.Port,
		"backend", cfg.Backend.Kind,
		"cache_ttl", cfg.Cache.TTL,
		"export_max_concurrent", cfg.Export.MaxConcurrent,
		"require_api_key", cfg.Security.RequireAPIKey,
	)
	logger.Debug("effective configuration", "config", cfg.String())

	layouts, err := ledger.LoadLayouts(cfg.Ledger.LayoutFile)
	if err != nil {
		logger.Error("failed to load ledger layouts", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()
	backend, closeBackend, err := openBackend(ctx, cfg, layouts)
	if err != nil {
		logger.Error("failed to open ledger backend", "backend", cfg.Backend.Kind, "error", err)
		os.Exit(1)
	}
	defer closeBackend()

	st := store.New(backend, layouts, store.WithTTL(cfg.Cache.TTL), store.WithLogger(logger))
	exp := export.New(layouts, cfg.Export.TemplateDir, logger)
	service := core.NewService(st, exp,
		core.WithLogger(logger),
		core.WithExportLimiter(core.NewExportLimiter(cfg.Export.MaxConcurrent, cfg.Export.MaxWaitTime)),
	)

	server := web.NewServer(service, cfg)

	sigCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		<-sigCtx.Done()
		logger.Info("shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if status := service.ExportStatus(); status.Active > 0 {
			logger.Info("waiting for exports to complete", "active", status.Active)
			if err := service.WaitForExports(shutdownCtx); err != nil {
				logger.Warn("exports did not complete in time", "error", err)
			}
		}
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown error", "error", err)
		}
	}()

	if err := server.Start(cfg.Server.Addr()); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
	logger.Info("server stopped")
}

// openBackend builds the configured grid backend. The returned func
// releases its resources.
func openBackend(ctx context.Context, cfg *config.Config, layouts ledger.Layouts) (store.Backend, func(), error) {
	noop := func() {}

	switch cfg.Backend.Kind {
	case config.BackendMemory:
		sheets := map[string]grid.Grid{}
		if cfg.Backend.SeedWorkbook != "" {
			var err error
			if sheets, err = store.ReadWorkbook(cfg.Backend.SeedWorkbook, sheetNames(layouts)); err != nil {
				return nil, noop, fmt.Errorf("read seed workbook: %w", err)
			}
		}
		return store.NewMemoryBackend(sheets), noop, nil

	case config.BackendWorkbook:
		b, err := store.NewWorkbookBackend(cfg.Backend.WorkbookPath)
		if err != nil {
			return nil, noop, err
		}
		slog.Info("using ledger workbook", "path", b.Path())
		return b, noop, nil

	case config.BackendPostgres:
		poolConfig, err := pgxpool.ParseConfig(cfg.Backend.DatabaseURL)
		if err != nil {
			return nil, noop, fmt.Errorf("parse database URL: %w", err)
		}
		poolConfig.MaxConns = int32(cfg.Backend.MaxConns)
		poolConfig.MinConns = int32(cfg.Backend.MinConns)
		poolConfig.MaxConnLifetime = cfg.Backend.MaxConnLifetime
		poolConfig.MaxConnIdleTime = cfg.Backend.MaxConnIdleTime

		pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
		if err != nil {
			return nil, noop, fmt.Errorf("connect to database: %w", err)
		}
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			return nil, noop, fmt.Errorf("ping database: %w", err)
		}
		if u, err := url.Parse(cfg.Backend.DatabaseURL); err == nil {
			slog.Info("connected to database", "name", strings.TrimPrefix(u.Path, "/"))
		}

		b := store.NewPostgresBackend(pool)
		if err := b.EnsureSchema(ctx); err != nil {
			pool.Close()
			return nil, noop, err
		}
		if err := seed(ctx, b, cfg.Backend.SeedWorkbook, layouts); err != nil {
			pool.Close()
			return nil, noop, err
		}
		return b, pool.Close, nil

	case config.BackendSQLite:
		b, err := store.NewSQLiteBackend(cfg.Backend.SQLitePath)
		if err != nil {
			return nil, noop, err
		}
		closeDB := func() {
			if err := b.Close(); err != nil {
				slog.Warn("close sqlite database", "error", err)
			}
		}
		if err := seed(ctx, b, cfg.Backend.SeedWorkbook, layouts); err != nil {
			closeDB()
			return nil, noop, err
		}
		slog.Info("using sqlite database", "path", cfg.Backend.SQLitePath)
		return b, closeDB, nil
	}
	return nil, noop, fmt.Errorf("unknown backend %q", cfg.Backend.Kind)
}

// seed imports every ledger sheet missing from b from the workbook at
// path. Sheets that already exist are left alone.
func seed(ctx context.Context, b seedable, path string, layouts ledger.Layouts) error {
	if path == "" {
		return nil
	}
	var missing []string
	for _, name := range sheetNames(layouts) {
		_, err := b.ReadGrid(ctx, name)
		switch {
		case errors.Is(err, store.ErrSheetNotFound):
			missing = append(missing, name)
		case err != nil:
			return fmt.Errorf("check sheet %q: %w", name, err)
		}
	}
	if len(missing) == 0 {
		return nil
	}

	sheets, err := store.ReadWorkbook(path, missing)
	if err != nil {
		return fmt.Errorf("read seed workbook: %w", err)
	}
	for _, name := range missing {
		g, ok := sheets[name]
		if !ok {
			continue
		}
		if err := b.ImportGrid(ctx, name, g); err != nil {
			return fmt.Errorf("import sheet %q: %w", name, err)
		}
		slog.Info("seeded ledger sheet", "sheet", name, "rows", g.Rows())
	}
	return nil
}

func sheetNames(layouts ledger.Layouts) []string {
	names := make([]string, 0, len(ledger.Kinds))
	for _, k := range ledger.Kinds {
		names = append(names, layouts.Get(k).Sheet)
	}
	return names
}
