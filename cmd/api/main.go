package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"shipquote/internal/batch"
	"shipquote/internal/catalog"
	"shipquote/internal/config"
	"shipquote/internal/rate"
	"shipquote/internal/server"
	"shipquote/internal/store"
)

func main() {
	dotenv, err := config.LoadDotEnv(".env")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load .env: %v\n", err)
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	logger, err := cfg.NewLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()
	if dotenv {
		logger.Info("environment loaded from .env")
	}

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server error", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	loader, closeStore, err := store.Open(ctx, cfg.Data)
	if err != nil {
		return err
	}
	defer closeStore()

	data, err := loader.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load dataset: %w", err)
	}
	logger.Info("dataset loaded",
		zap.String("source", cfg.Data.Source),
		zap.Int("articles", len(data.Articles)),
		zap.Int("regions", len(data.Pallet.RegionNames())),
		zap.Int("groupage_keys", data.Groupage.Provinces.Len()),
		zap.Bool("geo", data.Geo != nil),
	)

	cat := catalog.New(data.Articles)
	engine := rate.NewEngine(data.Pallet, data.Groupage, logger)
	h := server.New(server.Deps{
		Data:    data,
		Engine:  engine,
		Catalog: cat,
		Batch:   batch.NewRunner(engine, cat, logger),
		ClientPrice: server.ClientPricing{
			Mode:       rate.ParseClientMode(cfg.ClientPrice.Mode),
			Percentage: cfg.ClientPrice.Percentage,
		},
		PickCheapest: cfg.Batch.PickCheapest,
		BatchWorkers: cfg.Batch.Workers,
		Logger:       logger,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           h,
		ReadTimeout:       10 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      20 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("api listening", zap.String("addr", srv.Addr), zap.String("env", cfg.Environment))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return err
	case s := <-sig:
		logger.Info("shutting down", zap.String("signal", s.String()))
	}

	shutdownCtx, stop := context.WithTimeout(context.Background(), 15*time.Second)
	defer stop()
	return srv.Shutdown(shutdownCtx)
}
