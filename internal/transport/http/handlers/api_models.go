package handlers

import "time"

// ErrorResponse represents a generic error payload.
type ErrorResponse struct {
	Error string `json:"error"`
}

// MessageResponse represents a simple message payload.
type MessageResponse struct {
	Message string `json:"message"`
}

// OpenUserRequest defines the payload for the registration submission endpoint.
type OpenUserRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// ApproveRequest defines the payload for the direct approval endpoint.
type ApproveRequest struct {
	PendingUserID string `json:"pendingUserId"`
}

// ApprovedUser describes the confirmed user returned on direct approval.
type ApprovedUser struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	PhoneNo string `json:"phoneNo"`
}

// ApproveResponse describes the response returned for a successful direct approval.
type ApproveResponse struct {
	Message string       `json:"message"`
	User    ApprovedUser `json:"user"`
}

// WebhookResponse acknowledges a notification-channel callback. The webhook
// endpoint returns this with HTTP 200 unconditionally.
type WebhookResponse struct {
	OK bool `json:"ok"`
}

// HealthResponse describes the service health payload.
type HealthResponse struct {
	Status    string    `json:"status"`
	StartedAt time.Time `json:"started_at"`
	Timestamp time.Time `json:"timestamp"`
}

// ReadyResponse describes readiness probe results with dependency checks.
type ReadyResponse struct {
	Status    string            `json:"status"`
	Checks    map[string]string `json:"checks,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
}
