package model

import "time"

// AuditEntry is one immutable line of the audit log.
type AuditEntry struct {
	ID         int64     `json:"id"`
	UUID       string    `json:"uuid"`
	ActorID    *int64    `json:"actor_id,omitempty"`
	TargetType string    `json:"target_type"`
	TargetID   int64     `json:"target_id"`
	Action     string    `json:"action"`
	CreatedAt  time.Time `json:"created_at"`
}

// Audit target types.
const (
	TargetItem = "item"
	TargetUser = "user"
)

// TransitionAction returns the audit label for a status change.
func TransitionAction(from, to Status) string {
	return "status_" + string(from) + "_to_" + string(to)
}
