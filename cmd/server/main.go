package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tallyhq/tally/internal/api"
	"github.com/tallyhq/tally/internal/config"
	"github.com/tallyhq/tally/internal/tracker"
	"github.com/tallyhq/tally/pkg/logging"
)

func main() {
	cfg := config.MustLoad()
	logging.Setup(cfg.Env)

	slog.Info("starting tally",
		"env", cfg.Env,
		"host", cfg.Host,
		"port", cfg.Port,
	)

	tr := tracker.New()
	if cfg.Seed {
		if err := seedSampleData(tr); err != nil {
			slog.Error("failed to seed sample data", "error", err)
			os.Exit(1)
		}
		slog.Info("sample data seeded")
	}

	server := api.New(cfg, tr)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go server.MustStart()

	<-sigChan
	slog.Info("shutdown signal received")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Stop(ctx); err != nil {
		slog.Error("error stopping server", "error", err)
	}
}
