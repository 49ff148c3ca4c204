package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"tradebot/internal/bot"
	"tradebot/internal/broker"
	"tradebot/internal/config"
	"tradebot/internal/httpapi"
	"tradebot/internal/notify"
	"tradebot/internal/store"
	"tradebot/internal/stream"
	"tradebot/internal/util"
)

func main() {
	// Local development keeps credentials in .env; absence is not an error.
	_ = godotenv.Load()

	cfgPath := "config/tradebot.yaml"
	if p := os.Getenv("TRADEBOT_CONFIG"); p != "" {
		cfgPath = p
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	logger := util.NewLogger(cfg.Logging.Level, cfg.Logging.Format)
	util.SetDefault(logger)

	audit, err := newAuditStore(cfg)
	if err != nil {
		log.Fatalf("failed to open audit store: %v", err)
	}
	defer audit.Close()

	gateway, source := newGateway(cfg)
	logger.Info("broker gateway ready", "broker", gateway.Name())

	notifier := notify.NewSlackNotifier(cfg.Slack.BotToken)
	relay := stream.NewRelay(notifier, cfg.Slack.Channel, audit)
	registry := stream.NewRegistry(source, relay, broker.Channels())
	defer registry.Shutdown()

	dispatcher := bot.NewDispatcher(gateway, registry, audit, cfg.Trading.AllowFractional)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := httpapi.NewServer(addr, dispatcher, notifier, cfg.Slack.Channel, cfg.Slack.SigningSecret)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := server.ListenAndServe(ctx); err != nil {
		log.Fatalf("server error: %v", err)
	}
	logger.Info("shut down cleanly")
}

// newAuditStore opens the SQLite audit store, or a no-op store when no path
// is configured.
func newAuditStore(cfg *config.Config) (store.AuditStore, error) {
	if cfg.Storage.SQLitePath == "" {
		return store.NopStore{}, nil
	}
	return store.NewSQLiteStore(cfg.Storage.SQLitePath)
}

// newGateway selects the broker: Alpaca when credentials are present, the
// in-memory simulator in paper mode without credentials.
func newGateway(cfg *config.Config) (broker.Broker, broker.StreamSource) {
	if cfg.Trading.PaperMode && cfg.Alpaca.APIKey == "" {
		slog.Info("no alpaca credentials, using simulator")
		sim := broker.NewSimulatorBroker()
		return sim, broker.NewSimulatorStreamSource()
	}

	gw := broker.NewAlpacaBroker(cfg.Alpaca.APIKey, cfg.Alpaca.APISecret, cfg.Alpaca.BaseURL, cfg.Alpaca.DataURL)
	src := broker.NewAlpacaStreamSource(cfg.Alpaca.APIKey, cfg.Alpaca.APISecret, cfg.Alpaca.BaseURL, cfg.Alpaca.StreamURL)
	return gw, src
}
