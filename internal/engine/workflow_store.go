package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/pkg/errors"

	"trigger-settings/internal/metadata"
	"trigger-settings/internal/store"
	"trigger-settings/internal/varjson"
)

// WorkflowStore abstracts persistence of workflows and their webhook trigger.
// Lookups are scoped to a workspace; a workflow of another workspace is
// reported as store.ErrNotFound.
type WorkflowStore interface {
	CreateWorkflow(ctx context.Context, wf *metadata.Workflow) error
	LoadWorkflow(ctx context.Context, workspaceID, id string) (*metadata.Workflow, error)
	SaveTrigger(ctx context.Context, wf *metadata.Workflow) error
	UpdateStatus(ctx context.Context, workspaceID, id string, status metadata.WorkflowStatus) error
}

// SQLWorkflowStore implements WorkflowStore against _workflows.
type SQLWorkflowStore struct {
	store *store.Store
}

func NewSQLWorkflowStore(s *store.Store) *SQLWorkflowStore {
	return &SQLWorkflowStore{store: s}
}

const workflowColumns = `id, workspace_id, name, status, trigger_name, http_method, authentication,
 expected_body, output_schema, created_at, updated_at`

func (s *SQLWorkflowStore) CreateWorkflow(ctx context.Context, wf *metadata.Workflow) error {
	cols, err := triggerColumns(wf.Trigger)
	if err != nil {
		return err
	}

	d := s.store.Dialect
	pb := d.NewParamBuilder()
	if wf.ID == "" {
		wf.ID = store.GenerateUUID()
	}
	_, err = store.Exec(ctx, s.store.DB,
		fmt.Sprintf(`INSERT INTO _workflows (id, workspace_id, name, status, trigger_name, http_method, authentication, expected_body, output_schema)
		 VALUES (%s, %s, %s, %s, %s, %s, %s, %s, %s)`,
			pb.Add(wf.ID), pb.Add(wf.WorkspaceID), pb.Add(wf.Name), pb.Add(string(wf.Status)),
			pb.Add(cols.name), pb.Add(cols.method), pb.Add(cols.auth), pb.Add(cols.body), pb.Add(cols.schema)),
		pb.Params()...)
	if err != nil {
		return store.MapError(d, err)
	}

	now := time.Now().UTC()
	wf.CreatedAt, wf.UpdatedAt = &now, &now
	return nil
}

func (s *SQLWorkflowStore) LoadWorkflow(ctx context.Context, workspaceID, id string) (*metadata.Workflow, error) {
	pb := s.store.Dialect.NewParamBuilder()
	row, err := store.QueryRow(ctx, s.store.DB,
		fmt.Sprintf(`SELECT %s FROM _workflows WHERE id = %s AND workspace_id = %s`,
			workflowColumns, pb.Add(id), pb.Add(workspaceID)),
		pb.Params()...)
	if err != nil {
		return nil, err
	}
	return ParseWorkflowRow(row)
}

func (s *SQLWorkflowStore) SaveTrigger(ctx context.Context, wf *metadata.Workflow) error {
	cols, err := triggerColumns(wf.Trigger)
	if err != nil {
		return err
	}

	d := s.store.Dialect
	pb := d.NewParamBuilder()
	n, err := store.Exec(ctx, s.store.DB,
		fmt.Sprintf(`UPDATE _workflows
		 SET trigger_name = %s, http_method = %s, authentication = %s, expected_body = %s, output_schema = %s, updated_at = %s
		 WHERE id = %s AND workspace_id = %s`,
			pb.Add(cols.name), pb.Add(cols.method), pb.Add(cols.auth), pb.Add(cols.body), pb.Add(cols.schema),
			d.NowExpr(), pb.Add(wf.ID), pb.Add(wf.WorkspaceID)),
		pb.Params()...)
	if err != nil {
		return store.MapError(d, err)
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *SQLWorkflowStore) UpdateStatus(ctx context.Context, workspaceID, id string, status metadata.WorkflowStatus) error {
	d := s.store.Dialect
	pb := d.NewParamBuilder()
	n, err := store.Exec(ctx, s.store.DB,
		fmt.Sprintf(`UPDATE _workflows SET status = %s, updated_at = %s WHERE id = %s AND workspace_id = %s`,
			pb.Add(string(status)), d.NowExpr(), pb.Add(id), pb.Add(workspaceID)),
		pb.Params()...)
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

type triggerRow struct {
	name   any
	method string
	auth   string
	body   any
	schema any
}

// triggerColumns flattens a trigger into its columns. The expected body is
// stored as its canonical text so variables survive the round trip.
func triggerColumns(t metadata.WebhookTrigger) (triggerRow, error) {
	settings := t.Settings
	if settings == nil {
		settings = metadata.DefaultSettings(metadata.HTTPMethodGet)
	}
	row := triggerRow{
		method: string(settings.HTTPMethod()),
		auth:   string(settings.AuthenticationMode()),
	}
	if row.auth == "" {
		row.auth = string(metadata.AuthenticationNone)
	}
	if t.Name != "" {
		row.name = t.Name
	}
	if post, ok := settings.(metadata.PostSettings); ok {
		row.body = post.ExpectedBodyText()
		b, err := json.Marshal(post.OutputSchema)
		if err != nil {
			return row, errors.Wrap(err, "marshal output schema")
		}
		row.schema = string(b)
	}
	return row, nil
}

// ParseWorkflowRow converts a _workflows row to a Workflow. The output
// schema is inferred again from the stored body rather than read back.
func ParseWorkflowRow(row map[string]any) (*metadata.Workflow, error) {
	id := store.AsString(row["id"])

	method, err := metadata.ParseHTTPMethod(store.AsString(row["http_method"]))
	if err != nil {
		return nil, errors.Wrapf(err, "workflow %s", id)
	}
	auth, err := metadata.ParseAuthentication(store.AsString(row["authentication"]))
	if err != nil {
		return nil, errors.Wrapf(err, "workflow %s", id)
	}

	settings := metadata.DefaultSettings(method).WithAuthentication(auth)
	if method == metadata.HTTPMethodPost && row["expected_body"] != nil {
		body, err := varjson.Parse(store.AsString(row["expected_body"]))
		if err != nil {
			return nil, errors.Wrapf(err, "workflow %s: stored expected body", id)
		}
		settings = metadata.NewPostSettings(auth, body)
	}

	return &metadata.Workflow{
		ID:          id,
		WorkspaceID: store.AsString(row["workspace_id"]),
		Name:        store.AsString(row["name"]),
		Status:      metadata.WorkflowStatus(store.AsString(row["status"])),
		Trigger: metadata.WebhookTrigger{
			Name:     store.AsString(row["trigger_name"]),
			Settings: settings,
		},
		CreatedAt: store.AsTime(row["created_at"]),
		UpdatedAt: store.AsTime(row["updated_at"]),
	}, nil
}
