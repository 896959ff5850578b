// Package queue defines the audit events exchanged over the message broker,
// the publisher used by the services and the consumer that writes them to
// the audit log.
package queue

import "time"

// AuditQueue is the durable queue every event is routed to.
const AuditQueue = "devocional.audit"

// Event types.
const (
	EventMonthUpdated    = "month.updated"
	EventDevotionalSaved = "devotional.saved"
	EventActivitySaved   = "activity.saved"
	EventUserCreated     = "user.created"
	EventUserDeleted     = "user.deleted"
	// EventOperatorReview marks a state that needs manual cleanup, such as
	// an identity left behind by a failed account creation.
	EventOperatorReview = "operator.review"
)

// Event is one audit record.  Only the fields relevant to Type are set.
type Event struct {
	Type       string    `json:"type"`
	OccurredAt time.Time `json:"occurred_at"`
	ActorID    string    `json:"actor_id,omitempty"`
	MonthID    int       `json:"month_id,omitempty"`
	Day        int       `json:"day,omitempty"`
	UserID     string    `json:"user_id,omitempty"`
	Email      string    `json:"email,omitempty"`
	Step       string    `json:"step,omitempty"`
	Detail     string    `json:"detail,omitempty"`
}
