// Package main implements the fitment engine webhook server.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/nats-io/nats.go"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/fitmentworks/fitment-engine/engine/catalog"
	"github.com/fitmentworks/fitment-engine/engine/extract"
	"github.com/fitmentworks/fitment-engine/engine/pipeline"
	"github.com/fitmentworks/fitment-engine/engine/shopify"
	"github.com/fitmentworks/fitment-engine/engine/webhook"
	"github.com/fitmentworks/fitment-engine/pkg/metrics"
	"github.com/fitmentworks/fitment-engine/pkg/mid"
)

// Config holds all environment-based configuration.
type Config struct {
	Port          string
	WebhookSecret string
	PatternsPath  string
	Neo4jURL      string
	Neo4jUser     string
	Neo4jPass     string
	ShopifyDomain string
	ShopifyToken  string
	ShopifyRPS    float64
	NATSURL       string
}

func loadConfig() Config {
	return Config{
		Port:          envOr("PORT", "5002"),
		WebhookSecret: os.Getenv("WEBHOOK_SECRET"),
		PatternsPath:  os.Getenv("PATTERNS_PATH"),
		Neo4jURL:      envOr("NEO4J_URL", "neo4j://localhost:7687"),
		Neo4jUser:     envOr("NEO4J_USER", "neo4j"),
		Neo4jPass:     envOr("NEO4J_PASS", "password"),
		ShopifyDomain: os.Getenv("SHOPIFY_DOMAIN"),
		ShopifyToken:  os.Getenv("SHOPIFY_ACCESS_TOKEN"),
		ShopifyRPS:    envFloat("SHOPIFY_RPS", 2),
		NATSURL:       os.Getenv("NATS_URL"),
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func main() {
	_ = godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg := loadConfig()

	if err := run(cfg, logger); err != nil {
		logger.Error("server exited with error", "err", err)
		os.Exit(1)
	}
}

func run(cfg Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.WebhookSecret == "" {
		return fmt.Errorf("WEBHOOK_SECRET is required; refusing to accept unauthenticated webhooks")
	}

	// --- Pattern extractor, hot-reloaded when a config file is given ---
	var provider extract.Provider
	if cfg.PatternsPath != "" {
		reloader, err := extract.NewReloader(cfg.PatternsPath, logger)
		if err != nil {
			return fmt.Errorf("pattern config: %w", err)
		}
		defer reloader.Close()
		provider = reloader
		logger.Info("pattern config loaded", "path", cfg.PatternsPath)
	} else {
		ex, err := extract.New(extract.DefaultConfig(), logger)
		if err != nil {
			return fmt.Errorf("default patterns: %w", err)
		}
		provider = extract.Static{E: ex}
	}

	// --- Connect to Neo4j ---
	driver, err := neo4j.NewDriverWithContext(cfg.Neo4jURL, neo4j.BasicAuth(cfg.Neo4jUser, cfg.Neo4jPass, ""))
	if err != nil {
		return fmt.Errorf("neo4j driver: %w", err)
	}
	defer driver.Close(ctx)

	store := catalog.NewStore(driver)
	// Read the required set through the provider so a hot-reloaded
	// pattern config keeps extraction and matching in sync.
	matcher := catalog.NewMatcherFunc(store, func() []string {
		return provider.Current().Required()
	})

	// --- Shopify dispatcher; absent credentials mean dry-run ---
	var dispatcher pipeline.Dispatcher
	if cfg.ShopifyDomain != "" && cfg.ShopifyToken != "" {
		client, err := shopify.New(shopify.Config{
			Domain: cfg.ShopifyDomain,
			Token:  cfg.ShopifyToken,
			RPS:    cfg.ShopifyRPS,
			Log:    logger,
		})
		if err != nil {
			return fmt.Errorf("shopify client: %w", err)
		}
		dispatcher = client
	} else {
		logger.Warn("shopify credentials missing, running in dry-run mode")
	}

	// --- NATS, optional ---
	var nc *nats.Conn
	if cfg.NATSURL != "" {
		nc, err = nats.Connect(cfg.NATSURL, nats.Name("fitment-api"))
		if err != nil {
			return fmt.Errorf("nats connect: %w", err)
		}
		defer nc.Drain()
	}

	reg := metrics.New()

	pipe, err := pipeline.New(pipeline.Config{
		Secret:    cfg.WebhookSecret,
		Extractor: provider,
		Matcher:   matcher,
		Dispatch:  dispatcher,
		NATS:      nc,
		Registry:  reg,
		Log:       logger,
	})
	if err != nil {
		return fmt.Errorf("pipeline: %w", err)
	}

	// --- Build HTTP server ---
	mux := http.NewServeMux()
	mux.Handle("POST /webhook/products/create", webhook.NewHandler(pipe, logger))
	mux.HandleFunc("GET /healthz", handleHealth)
	mux.Handle("GET /metrics", reg.Handler())

	handler := mid.Chain(mux,
		mid.Recover(logger),
		mid.OTel("fitment-api"),
		mid.RequestID(),
		mid.Logger(logger),
	)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// --- Graceful shutdown ---
	errCh := make(chan error, 1)
	go func() {
		logger.Info("webhook server starting", "port", cfg.Port)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return err
		}
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	shutCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutCtx)
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
