package dto

import (
	"time"

	"github.com/google/uuid"

	"github.com/finanbot/finanbot/internal/models"
)

type TransactionCreateRequest struct {
	CategoryID *uuid.UUID `json:"category_id"`
	OccurredAt time.Time  `json:"occurred_at"`
	Amount     float64    `json:"amount"`
	Currency   string     `json:"currency"`
	Type       string     `json:"type"`
	Notes      string     `json:"notes"`
}

type TransactionUpdateRequest struct {
	CategoryID *uuid.UUID `json:"category_id"`
	OccurredAt *time.Time `json:"occurred_at"`
	Amount     *float64   `json:"amount"`
	Currency   *string    `json:"currency"`
	Type       *string    `json:"type"`
	Notes      *string    `json:"notes"`
}

type PaginatedTransactions struct {
	Total  int                  `json:"total"`
	Limit  int                  `json:"limit"`
	Offset int                  `json:"offset"`
	Items  []models.Transaction `json:"items"`
}
