package engine_test

import (
	"context"
	"testing"

	"github.com/pkg/errors"

	"trigger-settings/internal/config"
	"trigger-settings/internal/engine"
	"trigger-settings/internal/metadata"
	"trigger-settings/internal/store"
	"trigger-settings/internal/varjson"
)

func testStore(t *testing.T) *store.Store {
	t.Helper()
	ctx := context.Background()
	s, err := store.New(ctx, config.DatabaseConfig{Driver: "sqlite", Name: ":memory:"})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(s.Close)
	if err := s.Bootstrap(ctx); err != nil {
		t.Fatalf("bootstrap: %v", err)
	}
	return s
}

func TestSQLWorkflowStore_TriggerRoundTrip(t *testing.T) {
	ctx := context.Background()
	workflows := engine.NewSQLWorkflowStore(testStore(t))

	wf := metadata.NewDraftWorkflow(store.DefaultWorkspaceID, "Orders")
	if err := workflows.CreateWorkflow(ctx, wf); err != nil {
		t.Fatalf("create: %v", err)
	}

	body, err := varjson.Parse(`{"order": {{trigger.body.id}}, "items": [1, "two"]}`)
	if err != nil {
		t.Fatal(err)
	}
	wf.Trigger = metadata.WebhookTrigger{
		Name:     "Order placed",
		Settings: metadata.NewPostSettings(metadata.AuthenticationNone, body),
	}
	if err := workflows.SaveTrigger(ctx, wf); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := workflows.LoadWorkflow(ctx, store.DefaultWorkspaceID, wf.ID)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.Trigger.Name != "Order placed" || got.Status != metadata.WorkflowStatusDraft {
		t.Fatalf("unexpected workflow %+v", got)
	}
	post, ok := got.Trigger.Settings.(metadata.PostSettings)
	if !ok {
		t.Fatalf("expected POST settings, got %T", got.Trigger.Settings)
	}
	if !varjson.Equal(post.ExpectedBody, body) {
		t.Fatalf("body = %s", post.ExpectedBodyText())
	}
	if len(post.OutputSchema) != 2 {
		t.Fatalf("schema = %+v", post.OutputSchema)
	}
	if got.CreatedAt == nil {
		t.Fatal("created_at not parsed")
	}
}

func TestSQLWorkflowStore_WorkspaceScoped(t *testing.T) {
	ctx := context.Background()
	workflows := engine.NewSQLWorkflowStore(testStore(t))

	wf := metadata.NewDraftWorkflow(store.DefaultWorkspaceID, "Scoped")
	if err := workflows.CreateWorkflow(ctx, wf); err != nil {
		t.Fatal(err)
	}

	other := "22222222-2222-2222-2222-222222222222"
	if _, err := workflows.LoadWorkflow(ctx, other, wf.ID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := workflows.UpdateStatus(ctx, other, wf.ID, metadata.WorkflowStatusActive); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	if err := workflows.UpdateStatus(ctx, store.DefaultWorkspaceID, wf.ID, metadata.WorkflowStatusActive); err != nil {
		t.Fatal(err)
	}
	got, _ := workflows.LoadWorkflow(ctx, store.DefaultWorkspaceID, wf.ID)
	if got.Editable() {
		t.Fatal("active workflow reported editable")
	}
}

func TestSQLIdentityProviderStore(t *testing.T) {
	ctx := context.Background()
	providers := engine.NewSQLIdentityProviderStore(testStore(t))

	creds := metadata.OIDCCredentials{Name: "Okta", ClientID: "id", ClientSecret: "secret", Issuer: "https://example.okta.com"}
	p := creds.IdentityProvider(store.DefaultWorkspaceID)
	if err := providers.CreateIdentityProvider(ctx, p); err != nil {
		t.Fatalf("create: %v", err)
	}

	dup := creds.IdentityProvider(store.DefaultWorkspaceID)
	if err := providers.CreateIdentityProvider(ctx, dup); !errors.Is(err, store.ErrUniqueViolation) {
		t.Fatalf("expected unique violation, got %v", err)
	}

	list, err := providers.ListIdentityProviders(ctx, store.DefaultWorkspaceID)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 || list[0].ClientSecret != "secret" || list[0].Status != metadata.IdentityProviderActive {
		t.Fatalf("unexpected providers %+v", list)
	}

	if err := providers.DeleteIdentityProvider(ctx, store.DefaultWorkspaceID, p.ID); err != nil {
		t.Fatal(err)
	}
	if err := providers.DeleteIdentityProvider(ctx, store.DefaultWorkspaceID, p.ID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
