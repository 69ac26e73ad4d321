package engine

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"trigger-settings/internal/instrument"
	"trigger-settings/internal/metadata"
	"trigger-settings/internal/store"
	"trigger-settings/internal/varjson"
)

// TriggerView is what the trigger settings panel renders.
type TriggerView struct {
	WorkflowID            string                    `json:"workflow_id"`
	Trigger               metadata.WebhookTrigger   `json:"trigger"`
	Label                 string                    `json:"label"`
	LiveURL               CopyableURL               `json:"live_url"`
	ExpectedBodyText      string                    `json:"expected_body_text,omitempty"`
	OutputPaths           []string                  `json:"output_paths,omitempty"`
	HTTPMethods           []metadata.HTTPMethod     `json:"http_methods"`
	Authentications       []metadata.Authentication `json:"authentications"`
	AuthenticationEnabled bool                      `json:"authentication_enabled"`
	Readonly              bool                      `json:"readonly"`
	Committed             bool                      `json:"committed"`
	Options               UpdateOptions             `json:"options"`
}

// TriggerService loads a workflow, applies one editor operation to its
// trigger and persists the result.
type TriggerService struct {
	workflows WorkflowStore
	parser    *BodyParser
	resolver  *VariableResolver
	recorder  instrument.Recorder
	baseURL   string
}

func NewTriggerService(workflows WorkflowStore, parser *BodyParser, recorder instrument.Recorder, baseURL string) *TriggerService {
	if recorder == nil {
		recorder = instrument.NoopRecorder{}
	}
	return &TriggerService{
		workflows: workflows,
		parser:    parser,
		resolver:  NewVariableResolver(),
		recorder:  recorder,
		baseURL:   baseURL,
	}
}

// CreateWorkflow stores a new draft with a GET webhook trigger.
func (s *TriggerService) CreateWorkflow(ctx context.Context, user *metadata.UserContext, name string) (*metadata.Workflow, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ValidationFailedError([]ErrorDetail{{Field: "name", Message: "Name is required"}})
	}
	wf := metadata.NewDraftWorkflow(user.WorkspaceID, name)
	if err := s.workflows.CreateWorkflow(ctx, wf); err != nil {
		return nil, errors.Wrap(err, "create workflow")
	}
	s.record(ctx, user, instrument.ActionWorkflowCreated, wf.ID, map[string]any{"name": name})
	return wf, nil
}

// GetTrigger returns the current trigger of a workflow.
func (s *TriggerService) GetTrigger(ctx context.Context, user *metadata.UserContext, workflowID string) (*TriggerView, error) {
	wf, err := s.load(ctx, user, workflowID)
	if err != nil {
		return nil, err
	}
	return s.view(wf, wf.Trigger, noSchemaRecompute, true), nil
}

// RenameTrigger changes the header title of the trigger.
func (s *TriggerService) RenameTrigger(ctx context.Context, user *metadata.UserContext, workflowID, name string) (*TriggerView, error) {
	return s.edit(ctx, user, workflowID, instrument.ActionTriggerNameChanged,
		func(t metadata.WebhookTrigger) (metadata.WebhookTrigger, UpdateOptions, error) {
			return ChangeName(t, name), DefaultUpdateOptions, nil
		})
}

// ChangeHTTPMethod switches the method and resets the settings to its default.
func (s *TriggerService) ChangeHTTPMethod(ctx context.Context, user *metadata.UserContext, workflowID, method string) (*TriggerView, error) {
	m, err := metadata.ParseHTTPMethod(method)
	if err != nil {
		return nil, ValidationFailedError([]ErrorDetail{{Field: "http_method", Message: err.Error()}})
	}
	return s.edit(ctx, user, workflowID, instrument.ActionTriggerMethodChanged,
		func(t metadata.WebhookTrigger) (metadata.WebhookTrigger, UpdateOptions, error) {
			next, opts := ChangeHTTPMethod(t, m)
			return next, opts, nil
		})
}

// ChangeExpectedBody parses raw as the new expected body.
func (s *TriggerService) ChangeExpectedBody(ctx context.Context, user *metadata.UserContext, workflowID, raw string) (*TriggerView, error) {
	return s.edit(ctx, user, workflowID, instrument.ActionTriggerBodyChanged, func(t metadata.WebhookTrigger) (metadata.WebhookTrigger, UpdateOptions, error) {
		if s.parser != nil {
			return s.parser.ChangeExpectedBody(t, raw)
		}
		return ChangeExpectedBody(t, raw)
	})
}

// ChangeAuthentication computes the trigger with a new authentication mode.
// While AuthenticationEditable is off the result is returned uncommitted.
func (s *TriggerService) ChangeAuthentication(ctx context.Context, user *metadata.UserContext, workflowID, authentication string) (*TriggerView, error) {
	a, err := metadata.ParseAuthentication(authentication)
	if err != nil {
		return nil, ValidationFailedError([]ErrorDetail{{Field: "authentication", Message: err.Error()}})
	}
	wf, err := s.loadEditable(ctx, user, workflowID)
	if err != nil {
		return nil, err
	}

	next := ChangeAuthentication(wf.Trigger, a)
	if !AuthenticationEditable {
		return s.view(wf, next, DefaultUpdateOptions, false), nil
	}

	wf.Trigger = next
	if err := s.workflows.SaveTrigger(ctx, wf); err != nil {
		return nil, errors.Wrap(err, "save trigger")
	}
	return s.view(wf, next, DefaultUpdateOptions, true), nil
}

// Preview resolves the variables of the expected body against env.
func (s *TriggerService) Preview(ctx context.Context, user *metadata.UserContext, workflowID string, env map[string]any) (varjson.Value, error) {
	wf, err := s.load(ctx, user, workflowID)
	if err != nil {
		return nil, err
	}
	post, ok := wf.Trigger.Settings.(metadata.PostSettings)
	if !ok {
		return nil, ErrNotPostTrigger
	}
	resolved, err := s.resolver.Resolve(post.ExpectedBody, env)
	if err != nil {
		return nil, NewAppError("PREVIEW_FAILED", 422, err.Error())
	}
	return resolved, nil
}

// Activate publishes a draft. Its trigger is read-only afterwards.
func (s *TriggerService) Activate(ctx context.Context, user *metadata.UserContext, workflowID string) (*metadata.Workflow, error) {
	wf, err := s.loadEditable(ctx, user, workflowID)
	if err != nil {
		return nil, err
	}
	if err := s.workflows.UpdateStatus(ctx, user.WorkspaceID, wf.ID, metadata.WorkflowStatusActive); err != nil {
		return nil, errors.Wrap(err, "activate workflow")
	}
	wf.Status = metadata.WorkflowStatusActive
	s.record(ctx, user, instrument.ActionWorkflowActivated, wf.ID, nil)
	return wf, nil
}

type triggerEdit func(metadata.WebhookTrigger) (metadata.WebhookTrigger, UpdateOptions, error)

func (s *TriggerService) edit(ctx context.Context, user *metadata.UserContext, workflowID, action string, fn triggerEdit) (*TriggerView, error) {
	wf, err := s.loadEditable(ctx, user, workflowID)
	if err != nil {
		return nil, err
	}

	next, opts, err := fn(wf.Trigger)
	if err != nil {
		return nil, err
	}

	wf.Trigger = next
	if err := s.workflows.SaveTrigger(ctx, wf); err != nil {
		return nil, errors.Wrap(err, "save trigger")
	}
	s.record(ctx, user, action, wf.ID, map[string]any{"http_method": string(next.Settings.HTTPMethod())})
	return s.view(wf, next, opts, true), nil
}

func (s *TriggerService) load(ctx context.Context, user *metadata.UserContext, workflowID string) (*metadata.Workflow, error) {
	if _, err := uuid.Parse(workflowID); err != nil {
		return nil, NotFoundError("Workflow", workflowID)
	}
	wf, err := s.workflows.LoadWorkflow(ctx, user.WorkspaceID, workflowID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, NotFoundError("Workflow", workflowID)
	}
	if err != nil {
		return nil, errors.Wrap(err, "load workflow")
	}
	return wf, nil
}

func (s *TriggerService) loadEditable(ctx context.Context, user *metadata.UserContext, workflowID string) (*metadata.Workflow, error) {
	wf, err := s.load(ctx, user, workflowID)
	if err != nil {
		return nil, err
	}
	if !wf.Editable() {
		return nil, ReadOnlyError(wf.ID)
	}
	return wf, nil
}

func (s *TriggerService) view(wf *metadata.Workflow, t metadata.WebhookTrigger, opts UpdateOptions, committed bool) *TriggerView {
	v := &TriggerView{
		WorkflowID:            wf.ID,
		Trigger:               t,
		Label:                 DefaultLabel(t),
		LiveURL:               LiveURL(s.baseURL, wf.WorkspaceID, wf.ID),
		HTTPMethods:           metadata.HTTPMethods,
		Authentications:       metadata.Authentications,
		AuthenticationEnabled: AuthenticationEditable && wf.Editable(),
		Readonly:              !wf.Editable(),
		Committed:             committed,
		Options:               opts,
	}
	if post, ok := t.Settings.(metadata.PostSettings); ok {
		v.ExpectedBodyText = post.ExpectedBodyText()
		v.OutputPaths = post.OutputSchema.Paths()
	}
	return v
}

func (s *TriggerService) record(ctx context.Context, user *metadata.UserContext, action, workflowID string, meta map[string]any) {
	s.recorder.Record(ctx, instrument.Event{
		Action:      action,
		Entity:      "workflow",
		RecordID:    workflowID,
		UserID:      user.ID,
		WorkspaceID: user.WorkspaceID,
		Metadata:    meta,
	})
	log.WithFields(log.Fields{
		"action":      action,
		"workflow_id": workflowID,
		"user_id":     user.ID,
	}).Debug("trigger settings updated")
}
