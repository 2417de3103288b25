package events

import (
	"encoding/json"
	"fmt"
	"time"
)

const (
	// TypeInteraction is emitted when a stage logs a successful step.
	TypeInteraction = "agent.interaction"
	// TypeStageError is emitted for every failed stage outcome.
	TypeStageError = "agent.stage_error"
)

// Event defines the contract for all system events.
type Event interface {
	// EventType returns the unique code for this event (e.g., "agent.interaction").
	EventType() string

	// Payload returns the data associated with the event.
	Payload() map[string]interface{}

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

type BaseEvent struct {
	Type       string                 `json:"type"`
	Data       map[string]interface{} `json:"data"`
	OccurredAt time.Time              `json:"occurred_at"`
}

func (e BaseEvent) EventType() string {
	return e.Type
}

func (e BaseEvent) Payload() map[string]interface{} {
	return e.Data
}

func (e BaseEvent) Timestamp() time.Time {
	return e.OccurredAt
}

func NewInteraction(stage string, data map[string]interface{}) BaseEvent {
	payload := make(map[string]interface{}, len(data)+1)
	for k, v := range data {
		payload[k] = v
	}
	payload["stage"] = stage

	return BaseEvent{Type: TypeInteraction, Data: payload, OccurredAt: time.Now().UTC()}
}

func NewStageError(stage, category, message string) BaseEvent {
	return BaseEvent{
		Type: TypeStageError,
		Data: map[string]interface{}{
			"stage":    stage,
			"category": category,
			"error":    message,
		},
		OccurredAt: time.Now().UTC(),
	}
}

// Marshal encodes any Event as a BaseEvent envelope.
func Marshal(e Event) ([]byte, error) {
	return json.Marshal(BaseEvent{
		Type:       e.EventType(),
		Data:       e.Payload(),
		OccurredAt: e.Timestamp(),
	})
}

func Unmarshal(data []byte) (BaseEvent, error) {
	var e BaseEvent
	if err := json.Unmarshal(data, &e); err != nil {
		return BaseEvent{}, fmt.Errorf("decode event: %w", err)
	}
	if e.Type == "" {
		return BaseEvent{}, fmt.Errorf("decode event: missing type")
	}
	return e, nil
}
