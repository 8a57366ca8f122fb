package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"shipquote/internal/batch"
	"shipquote/internal/catalog"
	"shipquote/internal/config"
	"shipquote/internal/rate"
	"shipquote/internal/store"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: quote-batch <input.csv> [output.csv]")
		fmt.Println("Example: quote-batch listino.csv preventivi.csv")
		os.Exit(1)
	}

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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	out := ""
	if len(os.Args) > 2 {
		out = os.Args[2]
	}
	if err := run(ctx, cfg, logger, os.Args[1], out); err != nil {
		logger.Error("batch failed", zap.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger, inPath, outPath string) error {
	loader, closeStore, err := store.Open(ctx, cfg.Data)
	if err != nil {
		return err
	}
	defer closeStore()
	data, err := loader.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load dataset: %w", err)
	}

	in, err := os.Open(inPath)
	if err != nil {
		return err
	}
	defer in.Close()
	tbl, err := batch.ReadCSV(in)
	if err != nil {
		return fmt.Errorf("%s: %w", inPath, err)
	}

	cat := catalog.New(data.Articles)
	runner := batch.NewRunner(rate.NewEngine(data.Pallet, data.Groupage, logger), cat, logger)
	outputs, err := runner.Run(ctx, tbl.Rows, batch.Options{
		PickCheapest: cfg.Batch.PickCheapest,
		ClientMode:   rate.ParseClientMode(cfg.ClientPrice.Mode),
		ClientPct:    cfg.ClientPrice.Percentage,
		Workers:      cfg.Batch.Workers,
	})
	if err != nil {
		return err
	}

	var w io.Writer = os.Stdout
	if outPath != "" {
		f, err := os.Create(outPath)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}
	if err := batch.WriteCSV(w, tbl, outputs); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	if outPath != "" {
		logger.Info("batch written", zap.String("output", outPath), zap.Int("rows", len(outputs)))
	}
	return nil
}
