package storage

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/finanbot/finanbot/internal/models"
)

// ErrNotFound indicates a record does not exist.
var ErrNotFound = errors.New("record not found")

// ErrAlreadyExists indicates a uniqueness conflict.
var ErrAlreadyExists = errors.New("record already exists")

// TransactionFilter narrows ListTransactions results. Nil fields are
// ignored. Limit <= 0 falls back to the implementation default.
type TransactionFilter struct {
	Start      *time.Time
	End        *time.Time
	CategoryID *uuid.UUID
	MinAmount  *float64
	MaxAmount  *float64
	Limit      int
	Offset     int
}

// UserStore captures user persistence operations needed by handlers.
type UserStore interface {
	CreateUser(ctx context.Context, user models.User) (models.User, error)
	UserByID(ctx context.Context, id uuid.UUID) (models.User, error)
	UserByEmail(ctx context.Context, email string) (models.User, error)
	UpdateUser(ctx context.Context, user models.User) (models.User, error)
	ListUsers(ctx context.Context) ([]models.User, error)
}

// TransactionStore captures transaction persistence operations.
type TransactionStore interface {
	CreateTransaction(ctx context.Context, tx models.Transaction) (models.Transaction, error)
	TransactionByID(ctx context.Context, id uuid.UUID) (models.Transaction, error)
	UpdateTransaction(ctx context.Context, tx models.Transaction) (models.Transaction, error)
	DeleteTransaction(ctx context.Context, id uuid.UUID) error
	// ListTransactions returns the filtered page plus the unpaginated total.
	ListTransactions(ctx context.Context, userID uuid.UUID, filter TransactionFilter) ([]models.Transaction, int, error)
}

// AttachmentStore captures attachment metadata operations.
type AttachmentStore interface {
	CreateAttachment(ctx context.Context, att models.Attachment) (models.Attachment, error)
	AttachmentByTransaction(ctx context.Context, txID uuid.UUID) (models.Attachment, error)
	DeleteAttachment(ctx context.Context, txID uuid.UUID) error
}

// Store is the full persistence surface used by the server and worker.
type Store interface {
	UserStore
	TransactionStore
	AttachmentStore
	Ping(ctx context.Context) error
	Close()
}
