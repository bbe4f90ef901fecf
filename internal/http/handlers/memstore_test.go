package handlers

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/finanbot/finanbot/internal/models"
	"github.com/finanbot/finanbot/internal/storage"
)

// memStore is an in-memory storage.Store for handler tests.
type memStore struct {
	mu    sync.Mutex
	users map[uuid.UUID]models.User
	txs   map[uuid.UUID]models.Transaction
	atts  map[uuid.UUID]models.Attachment
}

var _ storage.Store = (*memStore)(nil)

func newMemStore() *memStore {
	return &memStore{
		users: make(map[uuid.UUID]models.User),
		txs:   make(map[uuid.UUID]models.Transaction),
		atts:  make(map[uuid.UUID]models.Attachment),
	}
}

func (m *memStore) Ping(context.Context) error { return nil }
func (m *memStore) Close()                     {}

func (m *memStore) CreateUser(_ context.Context, user models.User) (models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.users {
		if strings.EqualFold(existing.Email, user.Email) {
			return models.User{}, storage.ErrAlreadyExists
		}
	}
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	user.Email = strings.ToLower(user.Email)
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	m.users[user.ID] = user
	return user, nil
}

func (m *memStore) UserByID(_ context.Context, id uuid.UUID) (models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.users[id]
	if !ok {
		return models.User{}, storage.ErrNotFound
	}
	return user, nil
}

func (m *memStore) UserByEmail(_ context.Context, email string) (models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, user := range m.users {
		if strings.EqualFold(user.Email, email) {
			return user, nil
		}
	}
	return models.User{}, storage.ErrNotFound
}

func (m *memStore) UpdateUser(_ context.Context, user models.User) (models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[user.ID]; !ok {
		return models.User{}, storage.ErrNotFound
	}
	user.UpdatedAt = time.Now()
	m.users[user.ID] = user
	return user, nil
}

func (m *memStore) ListUsers(context.Context) ([]models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	users := make([]models.User, 0, len(m.users))
	for _, user := range m.users {
		users = append(users, user)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].CreatedAt.After(users[j].CreatedAt) })
	return users, nil
}

func (m *memStore) CreateTransaction(_ context.Context, tx models.Transaction) (models.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if tx.ID == uuid.Nil {
		tx.ID = uuid.New()
	}
	tx.CreatedAt = time.Now()
	tx.UpdatedAt = tx.CreatedAt
	m.txs[tx.ID] = tx
	return tx, nil
}

func (m *memStore) TransactionByID(_ context.Context, id uuid.UUID) (models.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	tx, ok := m.txs[id]
	if !ok {
		return models.Transaction{}, storage.ErrNotFound
	}
	return tx, nil
}

func (m *memStore) UpdateTransaction(_ context.Context, tx models.Transaction) (models.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.txs[tx.ID]; !ok {
		return models.Transaction{}, storage.ErrNotFound
	}
	tx.UpdatedAt = time.Now()
	m.txs[tx.ID] = tx
	return tx, nil
}

func (m *memStore) DeleteTransaction(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.txs[id]; !ok {
		return storage.ErrNotFound
	}
	delete(m.txs, id)
	return nil
}

func (m *memStore) ListTransactions(_ context.Context, userID uuid.UUID, filter storage.TransactionFilter) ([]models.Transaction, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var matched []models.Transaction
	for _, tx := range m.txs {
		if tx.UserID != userID {
			continue
		}
		if filter.Start != nil && tx.OccurredAt.Before(*filter.Start) {
			continue
		}
		if filter.End != nil && tx.OccurredAt.After(*filter.End) {
			continue
		}
		if filter.CategoryID != nil && (tx.CategoryID == nil || *tx.CategoryID != *filter.CategoryID) {
			continue
		}
		if filter.MinAmount != nil && tx.Amount < *filter.MinAmount {
			continue
		}
		if filter.MaxAmount != nil && tx.Amount > *filter.MaxAmount {
			continue
		}
		matched = append(matched, tx)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].OccurredAt.After(matched[j].OccurredAt) })

	total := len(matched)
	if filter.Offset >= total {
		return nil, total, nil
	}
	end := total
	if filter.Limit > 0 && filter.Offset+filter.Limit < total {
		end = filter.Offset + filter.Limit
	}
	return matched[filter.Offset:end], total, nil
}

func (m *memStore) CreateAttachment(_ context.Context, att models.Attachment) (models.Attachment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.atts[att.TxID]; ok {
		return models.Attachment{}, storage.ErrAlreadyExists
	}
	if att.ID == uuid.Nil {
		att.ID = uuid.New()
	}
	att.UploadedAt = time.Now()
	m.atts[att.TxID] = att
	return att, nil
}

func (m *memStore) AttachmentByTransaction(_ context.Context, txID uuid.UUID) (models.Attachment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	att, ok := m.atts[txID]
	if !ok {
		return models.Attachment{}, storage.ErrNotFound
	}
	return att, nil
}

func (m *memStore) DeleteAttachment(_ context.Context, txID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.atts[txID]; !ok {
		return storage.ErrNotFound
	}
	delete(m.atts, txID)
	return nil
}
