package domain

import "time"

// Decision enumerates operator verdicts on a pending registration.
type Decision string

const (
	DecisionApprove Decision = "approve"
	DecisionReject  Decision = "reject"
)

// PendingRegistration is a submission awaiting an operator decision.
// Its identifier travels only to the operator channel, never back to the submitter.
type PendingRegistration struct {
	ID        string
	Name      string
	Email     string
	Phone     string
	CreatedAt time.Time
}

// User mirrors the persisted representation in the users table.
type User struct {
	ID        string
	Name      string
	Email     string
	Phone     string
	Invited   bool
	CreatedAt time.Time
}
