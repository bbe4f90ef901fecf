package models

import (
	"time"

	"github.com/google/uuid"
)

// Attachment records metadata for a file stored against a transaction.
type Attachment struct {
	ID          uuid.UUID `json:"id"`
	TxID        uuid.UUID `json:"tx_id"`
	Filename    string    `json:"filename"`
	ContentType string    `json:"content_type"`
	UploadedAt  time.Time `json:"uploaded_at"`
}
