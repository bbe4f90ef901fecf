package events

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Actions carried by TransactionEvent.
const (
	ActionCreated = "created"
	ActionUpdated = "updated"
	ActionDeleted = "deleted"
)

// TransactionEvent is published whenever a transaction changes. It carries
// identifiers only; consumers fetch current state from storage.
type TransactionEvent struct {
	TxID      uuid.UUID `json:"tx_id"`
	UserID    uuid.UUID `json:"user_id"`
	Action    string    `json:"action"`
	Timestamp time.Time `json:"timestamp"`
}

// NewTransactionEvent builds an event stamped with the current time.
func NewTransactionEvent(txID, userID uuid.UUID, action string) *TransactionEvent {
	return &TransactionEvent{
		TxID:      txID,
		UserID:    userID,
		Action:    action,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the event to JSON bytes.
func (e *TransactionEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// TransactionEventFromJSON parses an event from JSON bytes.
func TransactionEventFromJSON(data []byte) (*TransactionEvent, error) {
	var event TransactionEvent
	if err := json.Unmarshal(data, &event); err != nil {
		return nil, err
	}
	return &event, nil
}
