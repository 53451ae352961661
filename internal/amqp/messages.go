package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"

	"cassa/internal/core"
)

// IntentMessage carries one intent of a plan to the worker that applies it.
// The payload travels as the JSON form of the entity named by Entity.
type IntentMessage struct {
	MessageID string          `json:"message_id"`
	PlanID    string          `json:"plan_id,omitempty"`
	Op        core.Op         `json:"op"`
	Entity    core.EntityKind `json:"entity"`
	ID        string          `json:"id"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

// NewIntentMessage wraps in for publishing.
func NewIntentMessage(planID string, in core.Intent) (*IntentMessage, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	msg := &IntentMessage{
		MessageID: ulid.Make().String(),
		PlanID:    planID,
		Op:        in.Op,
		Entity:    in.Entity,
		ID:        in.ID,
		Timestamp: time.Now(),
	}
	if in.Payload != nil {
		body, err := json.Marshal(in.Payload)
		if err != nil {
			return nil, fmt.Errorf("marshal payload: %w", err)
		}
		msg.Payload = body
	}
	return msg, nil
}

// ToJSON converts the message to JSON bytes
func (m *IntentMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// IntentMessageFromJSON parses a message body.
func IntentMessageFromJSON(data []byte) (*IntentMessage, error) {
	var msg IntentMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// Intent rebuilds the typed intent, decoding the payload into the entity's type.
func (m *IntentMessage) Intent() (core.Intent, error) {
	in := core.Intent{Op: m.Op, Entity: m.Entity, ID: m.ID}
	if m.Op != core.OpDelete {
		payload, err := decodePayload(m.Entity, m.Payload)
		if err != nil {
			return core.Intent{}, err
		}
		in.Payload = payload
	}
	if err := in.Validate(); err != nil {
		return core.Intent{}, err
	}
	return in, nil
}

func decodePayload(entity core.EntityKind, raw json.RawMessage) (any, error) {
	if len(raw) == 0 {
		return nil, core.ErrPayloadMissing
	}
	switch entity {
	case core.EntityPool:
		return unmarshal[core.CashPool](raw)
	case core.EntityCategory:
		return unmarshal[core.Category](raw)
	case core.EntityMovement:
		return unmarshal[core.Movement](raw)
	case core.EntityMember:
		return unmarshal[core.TeamMember](raw)
	case core.EntityMarket:
		return unmarshal[core.Market](raw)
	case core.EntityExhibitor:
		return unmarshal[core.Exhibitor](raw)
	case core.EntityParticipation:
		return unmarshal[core.Participation](raw)
	default:
		return nil, core.ErrUnknownEntity
	}
}

func unmarshal[T any](raw json.RawMessage) (any, error) {
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, fmt.Errorf("unmarshal payload: %w", err)
	}
	return v, nil
}
