package metadata

import (
	"encoding/json"
	"strings"
	"testing"

	"trigger-settings/internal/varjson"
)

func TestParseHTTPMethod(t *testing.T) {
	m, err := ParseHTTPMethod(" post ")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if m != HTTPMethodPost {
		t.Errorf("expected POST, got %s", m)
	}
	if _, err := ParseHTTPMethod("DELETE"); err == nil {
		t.Error("expected error for DELETE")
	}
}

func TestParseAuthentication(t *testing.T) {
	for _, in := range []string{"", "none", "null", "NONE"} {
		a, err := ParseAuthentication(in)
		if err != nil || a != AuthenticationNone {
			t.Errorf("%q: expected none, got %s (%v)", in, a, err)
		}
	}
	if a, err := ParseAuthentication("api_key"); err != nil || a != AuthenticationAPIKey {
		t.Errorf("expected api_key, got %s (%v)", a, err)
	}
	if _, err := ParseAuthentication("oauth"); err == nil {
		t.Error("expected error for oauth")
	}
}

func TestDefaultSettings(t *testing.T) {
	get, ok := DefaultSettings(HTTPMethodGet).(GetSettings)
	if !ok {
		t.Fatalf("expected GetSettings, got %T", DefaultSettings(HTTPMethodGet))
	}
	if get.Authentication != AuthenticationNone {
		t.Errorf("expected no authentication, got %s", get.Authentication)
	}

	post, ok := DefaultSettings(HTTPMethodPost).(PostSettings)
	if !ok {
		t.Fatalf("expected PostSettings, got %T", DefaultSettings(HTTPMethodPost))
	}
	if post.ExpectedBodyText() != "{\n  \"message\": \"Workflow was started\"\n}" {
		t.Errorf("unexpected default body: %s", post.ExpectedBodyText())
	}
	if len(post.OutputSchema) != 1 || post.OutputSchema[0].Key != "message" {
		t.Errorf("unexpected default schema: %+v", post.OutputSchema)
	}
}

func TestDefaultSettingsAreFreshValues(t *testing.T) {
	a := DefaultSettings(HTTPMethodPost).(PostSettings)
	a.ExpectedBody.(*varjson.Object).Set("extra", varjson.Bool(true))

	b := DefaultSettings(HTTPMethodPost).(PostSettings)
	if b.ExpectedBody.(*varjson.Object).Len() != 1 {
		t.Error("mutating one default must not affect the next")
	}
}

func TestWithAuthenticationKeepsVariant(t *testing.T) {
	post := DefaultSettings(HTTPMethodPost)
	changed := post.WithAuthentication(AuthenticationAPIKey)
	ps, ok := changed.(PostSettings)
	if !ok {
		t.Fatalf("expected PostSettings, got %T", changed)
	}
	if ps.Authentication != AuthenticationAPIKey {
		t.Errorf("expected api_key, got %s", ps.Authentication)
	}
	if post.AuthenticationMode() != AuthenticationNone {
		t.Error("original settings must be untouched")
	}
}

func TestWebhookTriggerMarshalPost(t *testing.T) {
	body, err := varjson.Parse(`{"user": {{step.user}}, "n": 2}`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	trigger := WebhookTrigger{Name: "Inbound", Settings: NewPostSettings(AuthenticationNone, body)}

	data, err := json.Marshal(trigger)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	s := string(data)
	for _, want := range []string{
		`"type":"WEBHOOK"`,
		`"name":"Inbound"`,
		`"httpMethod":"POST"`,
		`"authentication":null`,
		`"expectedBody":{"user":"{{step.user}}","n":2}`,
		`"outputSchema":[{"key":"user"`,
	} {
		if !strings.Contains(s, want) {
			t.Errorf("expected %s in %s", want, s)
		}
	}
}

func TestWebhookTriggerMarshalGetHasNoBody(t *testing.T) {
	data, err := json.Marshal(WebhookTrigger{Settings: GetSettings{Authentication: AuthenticationAPIKey}})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	s := string(data)
	if strings.Contains(s, "expectedBody") || strings.Contains(s, "outputSchema") {
		t.Errorf("GET settings must not carry a body or schema: %s", s)
	}
	if !strings.Contains(s, `"authentication":"api_key"`) {
		t.Errorf("expected api_key authentication: %s", s)
	}
	if strings.Contains(s, `"name"`) {
		t.Errorf("empty name should be omitted: %s", s)
	}
}

func TestNewDraftWorkflow(t *testing.T) {
	wf := NewDraftWorkflow("ws1", "Inbound leads")
	if !wf.Editable() {
		t.Error("draft should be editable")
	}
	if wf.Trigger.Settings.HTTPMethod() != HTTPMethodGet {
		t.Errorf("expected GET trigger, got %s", wf.Trigger.Settings.HTTPMethod())
	}
	wf.Status = WorkflowStatusActive
	if wf.Editable() {
		t.Error("active workflow should be read-only")
	}
}

func TestOIDCCredentialsValidate(t *testing.T) {
	creds := OIDCCredentials{
		Name:         " Google ",
		ClientID:     "900960562328-36306ohbk8e3.apps.googleusercontent.com",
		ClientSecret: "secret",
		Issuer:       "https://accounts.google.com/",
	}.Normalize()
	if errs := creds.Validate(); len(errs) != 0 {
		t.Fatalf("expected valid credentials, got %+v", errs)
	}
	if creds.Issuer != "https://accounts.google.com" || creds.Name != "Google" {
		t.Errorf("unexpected normalization: %+v", creds)
	}

	errs := OIDCCredentials{Issuer: "accounts.google.com"}.Validate()
	fields := map[string]bool{}
	for _, e := range errs {
		fields[e.Field] = true
	}
	for _, f := range []string{"name", "client_id", "client_secret", "issuer"} {
		if !fields[f] {
			t.Errorf("expected error on %s, got %+v", f, errs)
		}
	}

	idp := creds.IdentityProvider("ws1")
	data, _ := json.Marshal(idp)
	if strings.Contains(string(data), "secret") {
		t.Errorf("client secret must not be serialized: %s", data)
	}
}
