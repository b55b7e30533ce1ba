// Package main seeds the vehicle catalog in Neo4j from a YAML records file.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/fitmentworks/fitment-engine/engine/catalog"
)

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func main() {
	_ = godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	file := flag.String("file", "catalog.yaml", "path to the vehicle records YAML file")
	flag.Parse()

	if err := run(*file, logger); err != nil {
		logger.Error("seed failed", "err", err)
		os.Exit(1)
	}
}

func run(file string, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	records, err := catalog.LoadRecords(file)
	if err != nil {
		return err
	}
	logger.Info("catalog records loaded", "file", file, "count", len(records))

	driver, err := neo4j.NewDriverWithContext(
		envOr("NEO4J_URL", "neo4j://localhost:7687"),
		neo4j.BasicAuth(envOr("NEO4J_USER", "neo4j"), envOr("NEO4J_PASS", "password"), ""),
	)
	if err != nil {
		return fmt.Errorf("neo4j driver: %w", err)
	}
	defer driver.Close(ctx)

	store := catalog.NewStore(driver)
	for i, rec := range records {
		if err := store.SaveVehicle(ctx, rec); err != nil {
			return fmt.Errorf("save record %d (%s %s %s): %w", i, rec.Brand, rec.Model, rec.EngineCode, err)
		}
	}
	logger.Info("catalog seeded", "count", len(records))
	return nil
}
