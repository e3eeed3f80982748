package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/facturacao/facturacao/internal/app"
	"github.com/facturacao/facturacao/internal/invoices"
	"github.com/facturacao/facturacao/internal/observability"
	"github.com/facturacao/facturacao/internal/platform/cache"
	"github.com/facturacao/facturacao/internal/platform/db"
	"github.com/facturacao/facturacao/report"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	var invoiceCache *invoices.AggregateCache
	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Warn("redis unavailable, serving without cache", slog.Any("error", err))
	} else {
		defer func() {
			if err := redisClient.Close(); err != nil {
				logger.Warn("redis close", slog.Any("error", err))
			}
		}()
		invoiceCache = invoices.NewAggregateCache(redisClient, cfg.InvoiceCacheTTL)
	}

	var pdfRenderer invoices.PDFRenderer
	if cfg.GotenbergURL != "" {
		gotenberg := report.NewClient(cfg.GotenbergURL)
		if err := gotenberg.Ping(ctx); err != nil {
			logger.Warn("gotenberg unreachable, pdf rendering may fail", slog.Any("error", err))
		}
		pdfRenderer = report.NewInvoiceRenderer(gotenberg)
	}

	metrics := observability.NewMetrics()
	invoiceRepo := invoices.NewRepository(pool)
	invoiceService := invoices.NewService(invoiceRepo, invoiceCache)
	invoiceHandler := invoices.NewHandler(logger, invoiceService, pdfRenderer)

	router := app.NewRouter(app.RouterParams{
		Logger:          logger,
		Config:          cfg,
		Metrics:         metrics,
		InvoicesHandler: invoiceHandler,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", slog.String("addr", cfg.AppAddr))
		errCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("server shutdown", slog.Any("error", err))
		}
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server", slog.Any("error", err))
			os.Exit(1)
		}
	}
}
