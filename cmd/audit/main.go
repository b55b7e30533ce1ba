// Package main tails tagged-product events from NATS for reconciliation.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/nats-io/nats.go"

	"github.com/fitmentworks/fitment-engine/engine/domain"
	"github.com/fitmentworks/fitment-engine/engine/pipeline"
	"github.com/fitmentworks/fitment-engine/pkg/natsutil"
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

	if err := run(logger); err != nil {
		logger.Error("audit exited with error", "err", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	nc, err := nats.Connect(envOr("NATS_URL", nats.DefaultURL), nats.Name("fitment-audit"))
	if err != nil {
		return err
	}
	defer nc.Drain()

	sub, err := natsutil.Subscribe(nc, pipeline.SubjectProductTagged, func(_ context.Context, ev domain.TaggedEvent) {
		logger.Info("product tagged",
			"product_id", ev.ProductID,
			"tags", ev.Tags,
			"matched", ev.Matched,
			"tagged_at", ev.TaggedAt,
		)
	})
	if err != nil {
		return err
	}
	defer sub.Unsubscribe()

	logger.Info("audit tail started", "subject", pipeline.SubjectProductTagged)
	<-ctx.Done()
	return nil
}
