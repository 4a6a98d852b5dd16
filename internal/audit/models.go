// Package audit records portal actions for later review: logins, complaint
// submissions, bulk queries, registry changes.
package audit

import (
	"time"

	"github.com/google/uuid"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	ID         uuid.UUID
	Action     Action
	SessionID  uuid.UUID
	Detail     map[string]any
	OccurredAt time.Time
}

type Action string

const (
	ActionLoginSucceeded     Action = "login_succeeded"
	ActionLoginFailed        Action = "login_failed"
	ActionLogout             Action = "logout"
	ActionComplaintSubmitted Action = "complaint_submitted"
	ActionBulkQuerySubmitted Action = "bulk_query_submitted"
	ActionClientCreated      Action = "client_created"
	ActionClientUpdated      Action = "client_updated"
	ActionClientDeleted      Action = "client_deleted"
)
