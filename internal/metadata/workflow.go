package metadata

import "time"

// WorkflowStatus is the lifecycle state of a workflow version.
type WorkflowStatus string

const (
	WorkflowStatusDraft       WorkflowStatus = "draft"
	WorkflowStatusActive      WorkflowStatus = "active"
	WorkflowStatusDeactivated WorkflowStatus = "deactivated"
)

// Workflow represents a row of the _workflows table.
type Workflow struct {
	ID          string         `json:"id"`
	WorkspaceID string         `json:"workspace_id"`
	Name        string         `json:"name"`
	Status      WorkflowStatus `json:"status"`
	Trigger     WebhookTrigger `json:"trigger"`
	CreatedAt   *time.Time     `json:"created_at,omitempty"`
	UpdatedAt   *time.Time     `json:"updated_at,omitempty"`
}

// Editable reports whether the trigger may still be changed. Only drafts are
// editable; anything else is shown read-only.
func (w *Workflow) Editable() bool {
	return w.Status == WorkflowStatusDraft
}

// NewDraftWorkflow returns a draft with a GET webhook trigger.
func NewDraftWorkflow(workspaceID, name string) *Workflow {
	return &Workflow{
		WorkspaceID: workspaceID,
		Name:        name,
		Status:      WorkflowStatusDraft,
		Trigger:     WebhookTrigger{Settings: DefaultSettings(HTTPMethodGet)},
	}
}
