// Package sqlite provides a single-file storage backend with the same
// semantics as the postgres store. It suits local and single-user
// deployments where running a database server is overkill.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/finanbot/finanbot/internal/models"
	"github.com/finanbot/finanbot/internal/storage"
)

var _ storage.Store = (*Store)(nil)

const defaultListLimit = 50

// Store provides SQLite-backed persistence.
type Store struct {
	db *sql.DB
}

// New opens (creating if needed) the database file and applies startup
// migrations.
func New(ctx context.Context, dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close releases database resources.
func (s *Store) Close() {
	if s.db != nil {
		s.db.Close()
	}
}

// Ping verifies database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) migrate(ctx context.Context) error {
	stmts := []string{
		`PRAGMA foreign_keys = ON;`,
		`CREATE TABLE IF NOT EXISTS users (
			id TEXT PRIMARY KEY,
			email TEXT NOT NULL,
			full_name TEXT NOT NULL DEFAULT '',
			password_hash TEXT NOT NULL,
			is_active INTEGER NOT NULL DEFAULT 1,
			is_superuser INTEGER NOT NULL DEFAULT 0,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		);`,
		`CREATE UNIQUE INDEX IF NOT EXISTS users_email_lower_idx ON users (LOWER(email));`,
		`CREATE TABLE IF NOT EXISTS transactions (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL REFERENCES users(id),
			category_id TEXT,
			occurred_at TIMESTAMP NOT NULL,
			amount REAL NOT NULL,
			currency TEXT NOT NULL DEFAULT 'BRL',
			type TEXT NOT NULL,
			notes TEXT NOT NULL DEFAULT '',
			attachment_path TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS transactions_user_occurred_idx ON transactions (user_id, occurred_at DESC);`,
		`CREATE TABLE IF NOT EXISTS attachments (
			id TEXT PRIMARY KEY,
			tx_id TEXT NOT NULL REFERENCES transactions(id) ON DELETE CASCADE,
			filename TEXT NOT NULL,
			content_type TEXT NOT NULL,
			uploaded_at TIMESTAMP NOT NULL
		);`,
		`CREATE UNIQUE INDEX IF NOT EXISTS attachments_tx_idx ON attachments (tx_id);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply migrations: %w", err)
		}
	}
	return nil
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

const userColumns = `id, email, full_name, password_hash, is_active, is_superuser, created_at, updated_at`

// CreateUser inserts a new user row with a lowercase email.
func (s *Store) CreateUser(ctx context.Context, user models.User) (models.User, error) {
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	now := time.Now().UTC()
	user.Email = strings.ToLower(user.Email)
	user.CreatedAt = now
	user.UpdatedAt = now

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, email, full_name, password_hash, is_active, is_superuser, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		user.ID.String(), user.Email, user.FullName, user.PasswordHash,
		user.IsActive, user.IsSuperuser, user.CreatedAt, user.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return models.User{}, storage.ErrAlreadyExists
		}
		return models.User{}, err
	}
	return user, nil
}

// UserByID fetches a user by identifier.
func (s *Store) UserByID(ctx context.Context, id uuid.UUID) (models.User, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id.String())
	return scanUser(row)
}

// UserByEmail fetches a user by email, case-insensitively.
func (s *Store) UserByEmail(ctx context.Context, email string) (models.User, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE LOWER(email) = LOWER(?)`, email)
	return scanUser(row)
}

// UpdateUser persists mutable profile fields.
func (s *Store) UpdateUser(ctx context.Context, user models.User) (models.User, error) {
	user.UpdatedAt = time.Now().UTC()
	res, err := s.db.ExecContext(ctx, `
		UPDATE users
		SET full_name = ?, password_hash = ?, is_active = ?, is_superuser = ?, updated_at = ?
		WHERE id = ?`,
		user.FullName, user.PasswordHash, user.IsActive, user.IsSuperuser, user.UpdatedAt, user.ID.String())
	if err != nil {
		return models.User{}, err
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return models.User{}, storage.ErrNotFound
	}
	return s.UserByID(ctx, user.ID)
}

// ListUsers returns all users, newest first.
func (s *Store) ListUsers(ctx context.Context) ([]models.User, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users ORDER BY created_at DESC`)
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
	now := time.Now().UTC()
	tx.CreatedAt = now
	tx.UpdatedAt = now

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO transactions (id, user_id, category_id, occurred_at, amount, currency, type, notes, attachment_path, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		tx.ID.String(), tx.UserID.String(), categoryArg(tx.CategoryID), tx.OccurredAt,
		tx.Amount, tx.Currency, tx.Type, tx.Notes, tx.AttachmentPath, tx.CreatedAt, tx.UpdatedAt)
	if err != nil {
		return models.Transaction{}, err
	}
	return tx, nil
}

// TransactionByID fetches a transaction by identifier.
func (s *Store) TransactionByID(ctx context.Context, id uuid.UUID) (models.Transaction, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+txColumns+` FROM transactions WHERE id = ?`, id.String())
	return scanTransaction(row)
}

// UpdateTransaction persists mutable transaction fields.
func (s *Store) UpdateTransaction(ctx context.Context, tx models.Transaction) (models.Transaction, error) {
	tx.UpdatedAt = time.Now().UTC()
	res, err := s.db.ExecContext(ctx, `
		UPDATE transactions
		SET category_id = ?, occurred_at = ?, amount = ?, currency = ?, type = ?, notes = ?, attachment_path = ?, updated_at = ?
		WHERE id = ?`,
		categoryArg(tx.CategoryID), tx.OccurredAt, tx.Amount, tx.Currency, tx.Type,
		tx.Notes, tx.AttachmentPath, tx.UpdatedAt, tx.ID.String())
	if err != nil {
		return models.Transaction{}, err
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return models.Transaction{}, storage.ErrNotFound
	}
	return s.TransactionByID(ctx, tx.ID)
}

// DeleteTransaction removes a transaction row.
func (s *Store) DeleteTransaction(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = ?`, id.String())
	if err != nil {
		return err
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// ListTransactions returns a filtered page of a user's transactions,
// newest first, plus the unpaginated match count.
func (s *Store) ListTransactions(ctx context.Context, userID uuid.UUID, filter storage.TransactionFilter) ([]models.Transaction, int, error) {
	where := []string{"user_id = ?"}
	args := []any{userID.String()}

	if filter.Start != nil {
		where = append(where, "occurred_at >= ?")
		args = append(args, *filter.Start)
	}
	if filter.End != nil {
		where = append(where, "occurred_at <= ?")
		args = append(args, *filter.End)
	}
	if filter.CategoryID != nil {
		where = append(where, "category_id = ?")
		args = append(args, filter.CategoryID.String())
	}
	if filter.MinAmount != nil {
		where = append(where, "amount >= ?")
		args = append(args, *filter.MinAmount)
	}
	if filter.MaxAmount != nil {
		where = append(where, "amount <= ?")
		args = append(args, *filter.MaxAmount)
	}
	clause := strings.Join(where, " AND ")

	var total int
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM transactions WHERE `+clause, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	args = append(args, limit, filter.Offset)
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+txColumns+` FROM transactions WHERE `+clause+` ORDER BY occurred_at DESC LIMIT ? OFFSET ?`,
		args...)
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
	att.UploadedAt = time.Now().UTC()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO attachments (id, tx_id, filename, content_type, uploaded_at)
		VALUES (?, ?, ?, ?, ?)`,
		att.ID.String(), att.TxID.String(), att.Filename, att.ContentType, att.UploadedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return models.Attachment{}, storage.ErrAlreadyExists
		}
		return models.Attachment{}, err
	}
	return att, nil
}

// AttachmentByTransaction fetches attachment metadata for a transaction.
func (s *Store) AttachmentByTransaction(ctx context.Context, txID uuid.UUID) (models.Attachment, error) {
	var att models.Attachment
	var id, tx string
	err := s.db.QueryRowContext(ctx,
		`SELECT id, tx_id, filename, content_type, uploaded_at FROM attachments WHERE tx_id = ?`,
		txID.String()).Scan(&id, &tx, &att.Filename, &att.ContentType, &att.UploadedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Attachment{}, storage.ErrNotFound
		}
		return models.Attachment{}, err
	}
	if att.ID, err = uuid.Parse(id); err != nil {
		return models.Attachment{}, err
	}
	if att.TxID, err = uuid.Parse(tx); err != nil {
		return models.Attachment{}, err
	}
	return att, nil
}

// DeleteAttachment removes attachment metadata for a transaction.
func (s *Store) DeleteAttachment(ctx context.Context, txID uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM attachments WHERE tx_id = ?`, txID.String())
	if err != nil {
		return err
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func categoryArg(id *uuid.UUID) any {
	if id == nil {
		return nil
	}
	return id.String()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (models.User, error) {
	var user models.User
	var id string
	err := row.Scan(&id, &user.Email, &user.FullName, &user.PasswordHash,
		&user.IsActive, &user.IsSuperuser, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.User{}, storage.ErrNotFound
		}
		return models.User{}, err
	}
	if user.ID, err = uuid.Parse(id); err != nil {
		return models.User{}, err
	}
	return user, nil
}

func scanTransaction(row rowScanner) (models.Transaction, error) {
	var tx models.Transaction
	var id, userID string
	var categoryID sql.NullString
	err := row.Scan(&id, &userID, &categoryID, &tx.OccurredAt, &tx.Amount,
		&tx.Currency, &tx.Type, &tx.Notes, &tx.AttachmentPath, &tx.CreatedAt, &tx.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Transaction{}, storage.ErrNotFound
		}
		return models.Transaction{}, err
	}
	if tx.ID, err = uuid.Parse(id); err != nil {
		return models.Transaction{}, err
	}
	if tx.UserID, err = uuid.Parse(userID); err != nil {
		return models.Transaction{}, err
	}
	if categoryID.Valid {
		parsed, err := uuid.Parse(categoryID.String)
		if err != nil {
			return models.Transaction{}, err
		}
		tx.CategoryID = &parsed
	}
	return tx, nil
}
