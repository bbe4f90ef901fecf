package worker

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finanbot/finanbot/internal/events"
	"github.com/finanbot/finanbot/internal/models"
	"github.com/finanbot/finanbot/internal/storage"
)

type fakeStore struct {
	user models.User
	txs  []models.Transaction
}

func (f *fakeStore) ListTransactions(_ context.Context, userID uuid.UUID, filter storage.TransactionFilter) ([]models.Transaction, int, error) {
	var matched []models.Transaction
	for _, tx := range f.txs {
		if tx.UserID != userID {
			continue
		}
		if filter.Start != nil && tx.OccurredAt.Before(*filter.Start) {
			continue
		}
		if filter.End != nil && tx.OccurredAt.After(*filter.End) {
			continue
		}
		matched = append(matched, tx)
	}
	total := len(matched)
	if filter.Offset >= total {
		return nil, total, nil
	}
	end := filter.Offset + filter.Limit
	if filter.Limit <= 0 || end > total {
		end = total
	}
	return matched[filter.Offset:end], total, nil
}

func (f *fakeStore) UserByID(_ context.Context, id uuid.UUID) (models.User, error) {
	if f.user.ID != id {
		return models.User{}, storage.ErrNotFound
	}
	return f.user, nil
}

type fakeNotifier struct {
	subjects []string
	bodies   []string
}

func (f *fakeNotifier) Send(subject, body string) error {
	f.subjects = append(f.subjects, subject)
	f.bodies = append(f.bodies, body)
	return nil
}

func expenseTx(userID uuid.UUID, amount float64, daysAgo int, now time.Time) models.Transaction {
	return models.Transaction{
		ID:         uuid.New(),
		UserID:     userID,
		OccurredAt: now.AddDate(0, 0, -daysAgo),
		Amount:     amount,
	}
}

func TestHandleEvent_NotifiesAboveThreshold(t *testing.T) {
	now := time.Date(2026, 8, 15, 10, 0, 0, 0, time.UTC)
	user := models.User{ID: uuid.New(), Email: "ana@example.com", FullName: "Ana", IsActive: true}

	store := &fakeStore{
		user: user,
		txs: []models.Transaction{
			// no income, overspending, negative net: risk 1.0
			expenseTx(user.ID, -200, 1, now),
			expenseTx(user.ID, -300, 5, now),
		},
	}
	notifier := &fakeNotifier{}
	w := NewAlertWorker(store, notifier, 0.7)
	w.now = func() time.Time { return now }

	event := events.NewTransactionEvent(uuid.New(), user.ID, events.ActionCreated)
	require.NoError(t, w.HandleEvent(context.Background(), event))

	require.Len(t, notifier.subjects, 1)
	assert.Contains(t, notifier.subjects[0], "1.00")
	assert.Contains(t, notifier.bodies[0], "Ana")
	assert.Contains(t, notifier.bodies[0], "No income recorded in the last 30 days.")
}

func TestHandleEvent_QuietBelowThreshold(t *testing.T) {
	now := time.Date(2026, 8, 15, 10, 0, 0, 0, time.UTC)
	user := models.User{ID: uuid.New(), IsActive: true}

	store := &fakeStore{
		user: user,
		txs: []models.Transaction{
			expenseTx(user.ID, 3000, 2, now),
			expenseTx(user.ID, -500, 1, now),
		},
	}
	notifier := &fakeNotifier{}
	w := NewAlertWorker(store, notifier, 0.7)
	w.now = func() time.Time { return now }

	event := events.NewTransactionEvent(uuid.New(), user.ID, events.ActionUpdated)
	require.NoError(t, w.HandleEvent(context.Background(), event))
	assert.Empty(t, notifier.subjects)
}

func TestHandleEvent_NilNotifierLogsOnly(t *testing.T) {
	now := time.Date(2026, 8, 15, 10, 0, 0, 0, time.UTC)
	user := models.User{ID: uuid.New(), IsActive: true}

	store := &fakeStore{user: user, txs: []models.Transaction{expenseTx(user.ID, -50, 1, now)}}
	w := NewAlertWorker(store, nil, 0.5)
	w.now = func() time.Time { return now }

	event := events.NewTransactionEvent(uuid.New(), user.ID, events.ActionDeleted)
	assert.NoError(t, w.HandleEvent(context.Background(), event))
}

func TestHandleEvent_PagesThroughLargeWindows(t *testing.T) {
	now := time.Date(2026, 8, 15, 10, 0, 0, 0, time.UTC)
	user := models.User{ID: uuid.New(), IsActive: true}

	store := &fakeStore{user: user}
	for i := 0; i < fetchPageSize+50; i++ {
		store.txs = append(store.txs, expenseTx(user.ID, -1, 1, now))
	}
	notifier := &fakeNotifier{}
	w := NewAlertWorker(store, notifier, 0.7)
	w.now = func() time.Time { return now }

	event := events.NewTransactionEvent(uuid.New(), user.ID, events.ActionCreated)
	require.NoError(t, w.HandleEvent(context.Background(), event))

	// all pages were fetched, so the volume rule fires on the full count
	require.Len(t, notifier.bodies, 1)
	assert.Contains(t, notifier.bodies[0], "High transaction volume")
}
