// Package audit records who did what to which resource. It is append-only;
// the engine treats it as a fire-and-forget collaborator and never blocks a
// financial operation on it.
package audit

import (
	"time"

	id "kindra/pkg/domain"
)

// Action classifies what happened to the resource.
type Action string

const (
	ActionCreate  Action = "CREATE"
	ActionUpdate  Action = "UPDATE"
	ActionDelete  Action = "DELETE"
	ActionApprove Action = "APPROVE"
	ActionReject  Action = "REJECT"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	Timestamp    time.Time
	Actor        id.UserID
	Action       Action
	ResourceType string
	ResourceID   string
	Description  string
	IP           string
	RequestID    string
}
