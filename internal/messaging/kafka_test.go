package messaging

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserInteractionEvent_Serialization(t *testing.T) {
	event := UserInteractionEvent{
		UserID:    uuid.New(),
		MediaID:   uuid.New(),
		Type:      "rating",
		Timestamp: time.Now(),
	}

	raw, err := json.Marshal(event)
	require.NoError(t, err)
	assert.NotEmpty(t, raw)

	var decoded UserInteractionEvent
	require.NoError(t, json.Unmarshal(raw, &decoded))

	assert.Equal(t, event.UserID, decoded.UserID)
	assert.Equal(t, event.MediaID, decoded.MediaID)
	assert.Equal(t, event.Type, decoded.Type)
}

func TestRetryBackoffSchedule(t *testing.T) {
	tests := []struct {
		attempt       int
		expectedDelay time.Duration
	}{
		{attempt: 1, expectedDelay: 1 * time.Second},
		{attempt: 2, expectedDelay: 2 * time.Second},
		{attempt: 3, expectedDelay: 4 * time.Second},
	}

	baseDelay := time.Second
	for _, tt := range tests {
		delay := baseDelay * time.Duration(1<<uint(tt.attempt-1))
		assert.Equal(t, tt.expectedDelay, delay)
	}
}

func TestDLQPayloadShape(t *testing.T) {
	event := UserInteractionEvent{UserID: uuid.New(), MediaID: uuid.New(), Type: "rating", Timestamp: time.Now()}
	originalErr := "handler exploded"

	payload := map[string]interface{}{
		"event":         event,
		"error":         originalErr,
		"dlq_timestamp": time.Now(),
	}

	raw, err := json.Marshal(payload)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &decoded))

	assert.Contains(t, decoded, "event")
	assert.Equal(t, originalErr, decoded["error"])
}
