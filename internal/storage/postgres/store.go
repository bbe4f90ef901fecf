package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/finanbot/finanbot/internal/models"
	"github.com/finanbot/finanbot/internal/storage"
)

// Ensure Store satisfies the storage.Store interface at compile time.
var _ storage.Store = (*Store)(nil)

const defaultListLimit = 50

// Store provides Postgres-backed persistence for users, transactions, and
// attachment metadata.
type Store struct {
	pool *pgxpool.Pool
}

// New connects a pool and applies startup migrations.
func New(ctx context.Context, databaseURL string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	s := &Store{pool: pool}
	if err := s.migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return s, nil
}

// Close releases database resources.
func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// Ping verifies database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *Store) migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id UUID PRIMARY KEY,
			email TEXT NOT NULL,
			full_name TEXT NOT NULL DEFAULT '',
			password_hash TEXT NOT NULL,
			is_active BOOLEAN NOT NULL DEFAULT TRUE,
			is_superuser BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);`,
		`CREATE UNIQUE INDEX IF NOT EXISTS users_email_lower_idx ON users (LOWER(email));`,
		`CREATE TABLE IF NOT EXISTS transactions (
			id UUID PRIMARY KEY,
			user_id UUID NOT NULL REFERENCES users(id),
			category_id UUID,
			occurred_at TIMESTAMPTZ NOT NULL,
			amount DOUBLE PRECISION NOT NULL,
			currency TEXT NOT NULL DEFAULT 'BRL',
			type TEXT NOT NULL,
			notes TEXT NOT NULL DEFAULT '',
			attachment_path TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);`,
		`CREATE INDEX IF NOT EXISTS transactions_user_occurred_idx ON transactions (user_id, occurred_at DESC);`,
		`CREATE TABLE IF NOT EXISTS attachments (
			id UUID PRIMARY KEY,
			tx_id UUID NOT NULL REFERENCES transactions(id) ON DELETE CASCADE,
			filename TEXT NOT NULL,
			content_type TEXT NOT NULL,
			uploaded_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);`,
		`CREATE UNIQUE INDEX IF NOT EXISTS attachments_tx_idx ON attachments (tx_id);`,
	}
	for _, stmt := range stmts {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("apply migrations: %w", err)
		}
	}
	return nil
}

const userColumns = `id, email, full_name, password_hash, is_active, is_superuser, created_at, updated_at`

// CreateUser inserts a new user row. Emails are stored lowercase so the
// uniqueness check is case-insensitive.
func (s *Store) CreateUser(ctx context.Context, user models.User) (models.User, error) {
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	query := `
		INSERT INTO users (id, email, full_name, password_hash, is_active, is_superuser)
		VALUES ($1, LOWER($2), $3, $4, $5, $6)
		RETURNING ` + userColumns
	row := s.pool.QueryRow(ctx, query,
		user.ID, user.Email, user.FullName, user.PasswordHash, user.IsActive, user.IsSuperuser)
	created, err := scanUser(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return models.User{}, storage.ErrAlreadyExists
		}
		return models.User{}, err
	}
	return created, nil
}

// UserByID fetches a user by identifier.
func (s *Store) UserByID(ctx context.Context, id uuid.UUID) (models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(s.pool.QueryRow(ctx, query, id))
}

// UserByEmail fetches a user by email, case-insensitively.
func (s *Store) UserByEmail(ctx context.Context, email string) (models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE LOWER(email) = LOWER($1)`
	return scanUser(s.pool.QueryRow(ctx, query, email))
}

// UpdateUser persists mutable profile fields.
func (s *Store) UpdateUser(ctx context.Context, user models.User) (models.User, error) {
	query := `
		UPDATE users
		SET full_name = $2, password_hash = $3, is_active = $4, is_superuser = $5, updated_at = NOW()
		WHERE id = $1
		RETURNING ` + userColumns
	row := s.pool.QueryRow(ctx, query,
		user.ID, user.FullName, user.PasswordHash, user.IsActive, user.IsSuperuser)
	return scanUser(row)
}

// ListUsers returns all users, newest first.
func (s *Store) ListUsers(ctx context.Context) ([]models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users ORDER BY created_at DESC`
	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

const txColumns = `id, user_id, category_id, occurred_at, amount, currency, type, notes, attachment_path, created_at, updated_at`

// CreateTransaction inserts a new transaction row.
func (s *Store) CreateTransaction(ctx context.Context, tx models.Transaction) (models.Transaction, error) {
	if tx.ID == uuid.Nil {
		tx.ID = uuid.New()
	}
	query := `
		INSERT INTO transactions (id, user_id, category_id, occurred_at, amount, currency, type, notes, attachment_path)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING ` + txColumns
	row := s.pool.QueryRow(ctx, query,
		tx.ID, tx.UserID, tx.CategoryID, tx.OccurredAt, tx.Amount, tx.Currency, tx.Type, tx.Notes, tx.AttachmentPath)
	return scanTransaction(row)
}

// TransactionByID fetches a transaction by identifier.
func (s *Store) TransactionByID(ctx context.Context, id uuid.UUID) (models.Transaction, error) {
	query := `SELECT ` + txColumns + ` FROM transactions WHERE id = $1`
	return scanTransaction(s.pool.QueryRow(ctx, query, id))
}

// UpdateTransaction persists mutable transaction fields.
func (s *Store) UpdateTransaction(ctx context.Context, tx models.Transaction) (models.Transaction, error) {
	query := `
		UPDATE transactions
		SET category_id = $2, occurred_at = $3, amount = $4, currency = $5, type = $6, notes = $7, attachment_path = $8, updated_at = NOW()
		WHERE id = $1
		RETURNING ` + txColumns
	row := s.pool.QueryRow(ctx, query,
		tx.ID, tx.CategoryID, tx.OccurredAt, tx.Amount, tx.Currency, tx.Type, tx.Notes, tx.AttachmentPath)
	return scanTransaction(row)
}

// DeleteTransaction removes a transaction row.
func (s *Store) DeleteTransaction(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM transactions WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// ListTransactions returns a filtered page of a user's transactions,
// newest first, plus the unpaginated match count.
func (s *Store) ListTransactions(ctx context.Context, userID uuid.UUID, filter storage.TransactionFilter) ([]models.Transaction, int, error) {
	where := []string{"user_id = $1"}
	args := []any{userID}

	appendCond := func(cond string, value any) {
		args = append(args, value)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}
	if filter.Start != nil {
		appendCond("occurred_at >= $%d", *filter.Start)
	}
	if filter.End != nil {
		appendCond("occurred_at <= $%d", *filter.End)
	}
	if filter.CategoryID != nil {
		appendCond("category_id = $%d", *filter.CategoryID)
	}
	if filter.MinAmount != nil {
		appendCond("amount >= $%d", *filter.MinAmount)
	}
	if filter.MaxAmount != nil {
		appendCond("amount <= $%d", *filter.MaxAmount)
	}
	clause := strings.Join(where, " AND ")

	var total int
	countQuery := `SELECT COUNT(*) FROM transactions WHERE ` + clause
	if err := s.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	args = append(args, limit, filter.Offset)
	listQuery := fmt.Sprintf(
		`SELECT %s FROM transactions WHERE %s ORDER BY occurred_at DESC LIMIT $%d OFFSET $%d`,
		txColumns, clause, len(args)-1, len(args))

	rows, err := s.pool.Query(ctx, listQuery, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var txs []models.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, 0, err
		}
		txs = append(txs, tx)
	}
	return txs, total, rows.Err()
}

// CreateAttachment records attachment metadata for a transaction.
func (s *Store) CreateAttachment(ctx context.Context, att models.Attachment) (models.Attachment, error) {
	if att.ID == uuid.Nil {
		att.ID = uuid.New()
	}
	query := `
		INSERT INTO attachments (id, tx_id, filename, content_type)
		VALUES ($1, $2, $3, $4)
		RETURNING id, tx_id, filename, content_type, uploaded_at`
	row := s.pool.QueryRow(ctx, query, att.ID, att.TxID, att.Filename, att.ContentType)
	var created models.Attachment
	if err := row.Scan(&created.ID, &created.TxID, &created.Filename, &created.ContentType, &created.UploadedAt); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return models.Attachment{}, storage.ErrAlreadyExists
		}
		return models.Attachment{}, err
	}
	return created, nil
}

// AttachmentByTransaction fetches attachment metadata for a transaction.
func (s *Store) AttachmentByTransaction(ctx context.Context, txID uuid.UUID) (models.Attachment, error) {
	query := `SELECT id, tx_id, filename, content_type, uploaded_at FROM attachments WHERE tx_id = $1`
	var att models.Attachment
	err := s.pool.QueryRow(ctx, query, txID).Scan(&att.ID, &att.TxID, &att.Filename, &att.ContentType, &att.UploadedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Attachment{}, storage.ErrNotFound
		}
		return models.Attachment{}, err
	}
	return att, nil
}

// DeleteAttachment removes attachment metadata for a transaction.
func (s *Store) DeleteAttachment(ctx context.Context, txID uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM attachments WHERE tx_id = $1`, txID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func scanUser(row pgx.Row) (models.User, error) {
	var user models.User
	err := row.Scan(&user.ID, &user.Email, &user.FullName, &user.PasswordHash,
		&user.IsActive, &user.IsSuperuser, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.User{}, storage.ErrNotFound
		}
		return models.User{}, err
	}
	return user, nil
}

func scanTransaction(row pgx.Row) (models.Transaction, error) {
	var tx models.Transaction
	err := row.Scan(&tx.ID, &tx.UserID, &tx.CategoryID, &tx.OccurredAt, &tx.Amount,
		&tx.Currency, &tx.Type, &tx.Notes, &tx.AttachmentPath, &tx.CreatedAt, &tx.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Transaction{}, storage.ErrNotFound
		}
		return models.Transaction{}, err
	}
	return tx, nil
}
