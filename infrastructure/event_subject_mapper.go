package infrastructure

import (
	"fmt"

	"wagerbot/events"
)

// EconomyStream is the JetStream stream every economy subject belongs to
const EconomyStream = "economy_events"

// EventSubjectMapper handles mapping between domain events and NATS subjects
type EventSubjectMapper struct{}

func NewEventSubjectMapper() *EventSubjectMapper {
	return &EventSubjectMapper{}
}

// MapEventToSubject converts a domain event to its corresponding NATS subject
func (m *EventSubjectMapper) MapEventToSubject(event events.Event) string {
	switch event.Type() {
	case events.EventTypeBalanceChange:
		return "economy.users.balance_changed"
	case events.EventTypeUserCreated:
		return "economy.users.created"
	case events.EventTypeSessionSettled:
		return "economy.sessions.settled"
	case events.EventTypeLoanPenalty:
		return "economy.loans.penalized"
	default:
		return fmt.Sprintf("economy.unknown.%s", event.Type())
	}
}

// GetAllSubjects returns every subject this service publishes to
func (m *EventSubjectMapper) GetAllSubjects() []string {
	return []string{"economy.>"}
}
