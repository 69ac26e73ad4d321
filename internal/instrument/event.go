package instrument

import (
	"context"
	"time"
)

// Audit actions recorded for committed edits.
const (
	ActionWorkflowCreated         = "workflow.created"
	ActionWorkflowActivated       = "workflow.activated"
	ActionTriggerNameChanged      = "trigger.name_changed"
	ActionTriggerMethodChanged    = "trigger.http_method_changed"
	ActionTriggerBodyChanged      = "trigger.expected_body_changed"
	ActionIdentityProviderCreated = "sso.identity_provider_created"
	ActionIdentityProviderDeleted = "sso.identity_provider_deleted"
)

// Event is a row of the _events table.
type Event struct {
	Action      string         `json:"action"`
	Entity      string         `json:"entity"`
	RecordID    string         `json:"record_id"`
	UserID      string         `json:"user_id"`
	WorkspaceID string         `json:"workspace_id"`
	Metadata    map[string]any `json:"metadata,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
}

// Recorder accepts audit events. Implementations must not block the caller
// on I/O.
type Recorder interface {
	Record(ctx context.Context, e Event)
}
