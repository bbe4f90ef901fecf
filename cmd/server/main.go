package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/finanbot/finanbot/internal/attachments"
	"github.com/finanbot/finanbot/internal/backend"
	"github.com/finanbot/finanbot/internal/config"
	"github.com/finanbot/finanbot/internal/events"
	"github.com/finanbot/finanbot/internal/http/handlers"
	"github.com/finanbot/finanbot/internal/server"
)

func main() {
	loadLocalEnv()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()
	store, err := backend.Open(ctx, cfg)
	if err != nil {
		slog.Error("init database", "error", err, "backend", cfg.DataBackend)
		os.Exit(1)
	}
	defer store.Close()

	files, err := attachments.NewFileStore(cfg.AttachmentsDir)
	if err != nil {
		slog.Error("init attachments dir", "error", err, "dir", cfg.AttachmentsDir)
		os.Exit(1)
	}

	var publisher handlers.EventPublisher
	if cfg.EventsEnabled() {
		client, err := events.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			slog.Error("init AMQP client", "error", err)
			os.Exit(1)
		}
		defer client.Close()
		publisher = client
	} else {
		slog.Info("transaction events disabled, no AMQP_URL provided")
	}

	srv, err := server.New(cfg, store, files, publisher)
	if err != nil {
		slog.Error("init server", "error", err)
		os.Exit(1)
	}

	go func() {
		slog.Info("finanbot backend listening", "addr", cfg.HTTPAddress(), "backend", cfg.DataBackend)
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			slog.Error("http server error", "error", err)
			os.Exit(1)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctxShutdown); err != nil {
		slog.Error("graceful shutdown error", "error", err)
	}
}

func loadLocalEnv() {
	if err := godotenv.Load(); err != nil {
		slog.Info("no .env file found; relying on existing environment")
	}
}
