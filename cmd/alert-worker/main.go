package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/finanbot/finanbot/internal/backend"
	"github.com/finanbot/finanbot/internal/config"
	"github.com/finanbot/finanbot/internal/events"
	"github.com/finanbot/finanbot/internal/notify"
	"github.com/finanbot/finanbot/internal/worker"
)

func main() {
	_ = godotenv.Load()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}
	if !cfg.EventsEnabled() {
		slog.Error("AMQP_URL is required for the alert worker")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := backend.Open(ctx, cfg)
	if err != nil {
		slog.Error("init database", "error", err, "backend", cfg.DataBackend)
		os.Exit(1)
	}
	defer store.Close()

	client, err := events.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		slog.Error("init AMQP client", "error", err)
		os.Exit(1)
	}
	defer client.Close()

	var mailer worker.Notifier
	if cfg.MailEnabled() {
		mailer = notify.NewMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword, cfg.NotifyEmail)
		slog.Info("email notifications enabled", "recipient", cfg.NotifyEmail)
	} else {
		slog.Info("email notifications disabled, alerts will be logged only")
	}

	alertWorker := worker.NewAlertWorker(store, mailer, cfg.AlertRiskThreshold)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return client.ConsumeTransactionEvents(ctx, func(event *events.TransactionEvent) error {
			return alertWorker.HandleEvent(ctx, event)
		})
	})

	slog.Info("alert worker started",
		"queue", cfg.AMQPQueue, "risk_threshold", cfg.AlertRiskThreshold)

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("alert worker stopped", "error", err)
		os.Exit(1)
	}
	slog.Info("alert worker shut down")
}
