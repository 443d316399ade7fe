package notifications

import "time"

// EventType identifies a registry event streamed to dashboard clients.
type EventType string

const (
	EventMintRequestCreated  EventType = "mint_request.created"
	EventMintRequestApproved EventType = "mint_request.approved"
	EventMintRequestExecuted EventType = "mint_request.executed"
	EventMintRequestRejected EventType = "mint_request.rejected"
	EventBuyRequestCreated   EventType = "buy_request.created"
	EventBuyRequestApproved  EventType = "buy_request.approved"
	EventCreditsRetired      EventType = "credits.retired"
	EventCompanyStatusSet    EventType = "company.status_changed"
)

// Event is a single registry notification.
type Event struct {
	Type      EventType              `json:"type"`
	Data      map[string]interface{} `json:"data,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

// Publisher delivers registry events to connected clients. Implementations
// must not block the calling workflow.
type Publisher interface {
	Publish(event Event)
}

// NopPublisher discards events. Used in tests and when the hub is disabled.
type NopPublisher struct{}

func (NopPublisher) Publish(Event) {}

// NewEvent builds an event stamped with the current time.
func NewEvent(eventType EventType, data map[string]interface{}) Event {
	return Event{Type: eventType, Data: data, Timestamp: time.Now().UTC()}
}
