package push

import (
	"encoding/json"
	"time"
)

const (
	OpTaskAssigned = "task:assigned"
	OpTaskUpdated  = "task:updated"
	OpTaskDeleted  = "task:deleted"

	eventType = "event"
)

// Event is the envelope of every message on the push channel.
type Event struct {
	ID        string          `json:"id"`
	Type      string          `json:"type"`
	Op        string          `json:"op"`
	Payload   json.RawMessage `json:"payload"`
	Timestamp time.Time       `json:"timestamp"`
}

func mustRaw(value any) json.RawMessage {
	encoded, _ := json.Marshal(value)
	return encoded
}
