package events

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransactionEvent_JSONRoundTrip(t *testing.T) {
	event := NewTransactionEvent(uuid.New(), uuid.New(), ActionCreated)

	body, err := event.ToJSON()
	require.NoError(t, err)

	decoded, err := TransactionEventFromJSON(body)
	require.NoError(t, err)
	assert.Equal(t, event.TxID, decoded.TxID)
	assert.Equal(t, event.UserID, decoded.UserID)
	assert.Equal(t, ActionCreated, decoded.Action)
}

func TestTransactionEventFromJSON_Invalid(t *testing.T) {
	_, err := TransactionEventFromJSON([]byte("{not json"))
	assert.Error(t, err)
}
