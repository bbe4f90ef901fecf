package models

import (
	"time"

	"github.com/google/uuid"
)

// Transaction types as stored in the type column.
const (
	TransactionIncome  = "income"
	TransactionExpense = "expense"
)

// DefaultCurrency is applied when a create request omits the currency.
const DefaultCurrency = "BRL"

// Transaction is a single financial movement. Amount is signed: positive
// values are income, negative values are expenses.
type Transaction struct {
	ID             uuid.UUID  `json:"id"`
	UserID         uuid.UUID  `json:"user_id"`
	CategoryID     *uuid.UUID `json:"category_id"`
	OccurredAt     time.Time  `json:"occurred_at"`
	Amount         float64    `json:"amount"`
	Currency       string     `json:"currency"`
	Type           string     `json:"type"`
	Notes          string     `json:"notes,omitempty"`
	AttachmentPath string     `json:"attachment_path,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}
