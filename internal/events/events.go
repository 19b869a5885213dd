// Package events announces user changes on MQTT so other services can drop
// cached identities.
//
// Events are fire-and-forget: a failed publish is logged and never fails
// the request that caused it.
package events

import (
	"encoding/json"
	"time"

	"github.com/nerrad567/gatekeeper/internal/auth"
	"github.com/nerrad567/gatekeeper/internal/infrastructure/logging"
	"github.com/nerrad567/gatekeeper/internal/infrastructure/mqtt"
)

// Type identifies what happened to a user.
type Type string

const (
	UserCreated Type = "user.created"
	UserUpdated Type = "user.updated"
	UserDeleted Type = "user.deleted"
)

// Event is the JSON payload published for a user change.
type Event struct {
	Type        Type      `json:"type"`
	UserID      int64     `json:"user_id"`
	Email       string    `json:"email,omitempty"`
	Permissions []string  `json:"permissions"`
	Timestamp   time.Time `json:"timestamp"`
}

// NewUserEvent builds an event describing u.
func NewUserEvent(t Type, u *auth.User) Event {
	perms := u.Permissions
	if perms == nil {
		perms = []string{}
	}
	return Event{
		Type:        t,
		UserID:      u.ID,
		Email:       u.Email,
		Permissions: perms,
		Timestamp:   time.Now().UTC(),
	}
}

// Publisher emits user events.
type Publisher interface {
	Publish(e Event)
}

// Nop discards events. It is used when MQTT is disabled.
type Nop struct{}

// Publish does nothing.
func (Nop) Publish(Event) {}

// Transport is the part of the MQTT client the publisher needs.
type Transport interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
	Topics() mqtt.Topics
	QoS() byte
}

// MQTTPublisher sends events to <prefix>/events/users/<id>.
type MQTTPublisher struct {
	transport Transport
	logger    *logging.Logger
}

// NewMQTTPublisher creates a publisher over transport.
func NewMQTTPublisher(transport Transport, logger *logging.Logger) *MQTTPublisher {
	return &MQTTPublisher{transport: transport, logger: logger.With("component", "events")}
}

// Publish sends e, logging any failure.
func (p *MQTTPublisher) Publish(e Event) {
	payload, err := json.Marshal(e)
	if err != nil {
		p.logger.Error("encoding user event", "type", e.Type, "user_id", e.UserID, "error", err)
		return
	}

	topic := p.transport.Topics().UserEvents(e.UserID)
	if err := p.transport.Publish(topic, payload, p.transport.QoS(), false); err != nil {
		p.logger.Warn("publishing user event failed",
			"type", e.Type,
			"user_id", e.UserID,
			"topic", topic,
			"error", err,
		)
		return
	}
	p.logger.Debug("user event published", "type", e.Type, "user_id", e.UserID)
}
