// Package worker recomputes financial alerts in response to transaction
// events and notifies users whose risk score crosses the configured
// threshold.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/finanbot/finanbot/internal/events"
	"github.com/finanbot/finanbot/internal/models"
	"github.com/finanbot/finanbot/internal/storage"
	"github.com/finanbot/finanbot/internal/summary"
)

const fetchPageSize = 200

// Notifier delivers a subject/body message. Satisfied by notify.Mailer.
type Notifier interface {
	Send(subject, body string) error
}

// Store is the slice of the storage surface the worker needs. Satisfied by
// storage.Store.
type Store interface {
	ListTransactions(ctx context.Context, userID uuid.UUID, filter storage.TransactionFilter) ([]models.Transaction, int, error)
	UserByID(ctx context.Context, id uuid.UUID) (models.User, error)
}

// AlertWorker evaluates the trailing-30-day alert rules for a user after
// each of their transaction events.
type AlertWorker struct {
	store     Store
	notifier  Notifier // nil disables email
	threshold float64
	now       func() time.Time
}

// NewAlertWorker constructs a worker. A nil notifier logs alerts without
// sending email.
func NewAlertWorker(store Store, notifier Notifier, threshold float64) *AlertWorker {
	return &AlertWorker{
		store:     store,
		notifier:  notifier,
		threshold: threshold,
		now:       time.Now,
	}
}

// HandleEvent recomputes alerts for the event's user.
func (w *AlertWorker) HandleEvent(ctx context.Context, event *events.TransactionEvent) error {
	asOf := w.now()
	txs, err := w.trailingTransactions(ctx, event.UserID, asOf)
	if err != nil {
		return fmt.Errorf("list transactions for user %s: %w", event.UserID, err)
	}

	result := summary.Alerts(txs, asOf)
	slog.InfoContext(ctx, "alerts recomputed",
		"user_id", event.UserID,
		"tx_id", event.TxID,
		"action", event.Action,
		"risk_score", result.RiskScore)

	if result.RiskScore < w.threshold {
		return nil
	}
	return w.notifyUser(ctx, event.UserID, result)
}

// trailingTransactions pages through everything in [asOf-30d, asOf].
func (w *AlertWorker) trailingTransactions(ctx context.Context, userID uuid.UUID, asOf time.Time) ([]models.Transaction, error) {
	start := asOf.AddDate(0, 0, -30)
	filter := storage.TransactionFilter{
		Start: &start,
		End:   &asOf,
		Limit: fetchPageSize,
	}

	var all []models.Transaction
	for {
		page, total, err := w.store.ListTransactions(ctx, userID, filter)
		if err != nil {
			return nil, err
		}
		all = append(all, page...)
		if len(page) == 0 || len(all) >= total {
			return all, nil
		}
		filter.Offset = len(all)
	}
}

func (w *AlertWorker) notifyUser(ctx context.Context, userID uuid.UUID, result summary.AlertResult) error {
	if w.notifier == nil {
		slog.WarnContext(ctx, "risk threshold exceeded, email disabled",
			"user_id", userID, "risk_score", result.RiskScore)
		return nil
	}

	user, err := w.store.UserByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("lookup user %s: %w", userID, err)
	}

	subject := fmt.Sprintf("Finanbot alert: risk score %.2f", result.RiskScore)
	body := fmt.Sprintf("Hi %s,\n\nYour recent activity triggered the following alerts:\n\n- %s\n",
		user.FullName, strings.Join(result.Messages, "\n- "))
	if err := w.notifier.Send(subject, body); err != nil {
		return fmt.Errorf("notify user %s: %w", userID, err)
	}

	slog.InfoContext(ctx, "alert notification sent",
		"user_id", userID, "risk_score", result.RiskScore)
	return nil
}
