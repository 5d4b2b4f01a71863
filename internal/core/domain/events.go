package domain

import "time"

// RegistrationSubmittedEvent signals that a new registration awaits a decision.
type RegistrationSubmittedEvent struct {
	EventID     string
	PendingID   string
	Name        string
	Email       string
	Phone       string
	SubmittedAt time.Time
}

// RegistrationResolvedEvent records an operator decision on a pending registration.
// UserID is empty when the decision was a rejection.
type RegistrationResolvedEvent struct {
	EventID    string
	PendingID  string
	UserID     string
	Decision   Decision
	ResolvedAt time.Time
}
