package metadata

import (
	"encoding/json"
	"fmt"
	"strings"

	"trigger-settings/internal/schema"
	"trigger-settings/internal/varjson"
)

// HTTPMethod is the request method a webhook trigger listens for.
type HTTPMethod string

const (
	HTTPMethodGet  HTTPMethod = "GET"
	HTTPMethodPost HTTPMethod = "POST"
)

// HTTPMethods lists the selectable methods in display order.
var HTTPMethods = []HTTPMethod{HTTPMethodGet, HTTPMethodPost}

// ParseHTTPMethod accepts a method name case-insensitively.
func ParseHTTPMethod(s string) (HTTPMethod, error) {
	m := HTTPMethod(strings.ToUpper(strings.TrimSpace(s)))
	for _, known := range HTTPMethods {
		if m == known {
			return m, nil
		}
	}
	return "", fmt.Errorf("unsupported http method: %q", s)
}

// Authentication selects how inbound webhook calls are authenticated.
type Authentication string

const (
	AuthenticationNone   Authentication = "none"
	AuthenticationAPIKey Authentication = "api_key"
)

// Authentications lists the selectable modes in display order.
var Authentications = []Authentication{AuthenticationNone, AuthenticationAPIKey}

// ParseAuthentication maps "", "none" and "null" to AuthenticationNone.
func ParseAuthentication(s string) (Authentication, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	if v == "" || v == "null" {
		return AuthenticationNone, nil
	}
	for _, known := range Authentications {
		if Authentication(v) == known {
			return known, nil
		}
	}
	return "", fmt.Errorf("unsupported authentication: %q", s)
}

// MarshalJSON renders AuthenticationNone as null.
func (a Authentication) MarshalJSON() ([]byte, error) {
	if a == "" || a == AuthenticationNone {
		return []byte("null"), nil
	}
	return json.Marshal(string(a))
}

// TriggerSettings is one of GetSettings or PostSettings. Only the POST
// variant carries an expected body and its output schema.
type TriggerSettings interface {
	HTTPMethod() HTTPMethod
	AuthenticationMode() Authentication
	// WithAuthentication returns a copy with only the authentication replaced.
	WithAuthentication(a Authentication) TriggerSettings
	isTriggerSettings()
}

// GetSettings is the GET variant.
type GetSettings struct {
	Authentication Authentication
}

func (GetSettings) HTTPMethod() HTTPMethod               { return HTTPMethodGet }
func (s GetSettings) AuthenticationMode() Authentication { return s.Authentication }
func (GetSettings) isTriggerSettings()                   {}

func (s GetSettings) WithAuthentication(a Authentication) TriggerSettings {
	s.Authentication = a
	return s
}

func (s GetSettings) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		HTTPMethod     HTTPMethod     `json:"httpMethod"`
		Authentication Authentication `json:"authentication"`
	}{HTTPMethodGet, s.Authentication})
}

// PostSettings is the POST variant. ExpectedBody and OutputSchema are always
// set together; OutputSchema is inferred from ExpectedBody.
type PostSettings struct {
	Authentication Authentication
	ExpectedBody   varjson.Value
	OutputSchema   schema.OutputSchema
}

// NewPostSettings builds the POST variant, inferring the schema from body.
func NewPostSettings(auth Authentication, body varjson.Value) PostSettings {
	return PostSettings{
		Authentication: auth,
		ExpectedBody:   body,
		OutputSchema:   schema.Infer(body),
	}
}

func (PostSettings) HTTPMethod() HTTPMethod               { return HTTPMethodPost }
func (s PostSettings) AuthenticationMode() Authentication { return s.Authentication }
func (PostSettings) isTriggerSettings()                   {}

func (s PostSettings) WithAuthentication(a Authentication) TriggerSettings {
	s.Authentication = a
	return s
}

// ExpectedBodyText renders the body the way the editor shows it.
func (s PostSettings) ExpectedBodyText() string {
	if s.ExpectedBody == nil {
		return "{}"
	}
	return varjson.Indent(s.ExpectedBody)
}

func (s PostSettings) MarshalJSON() ([]byte, error) {
	body := s.ExpectedBody
	if body == nil {
		body = varjson.NewObject()
	}
	out := s.OutputSchema
	if out == nil {
		out = schema.OutputSchema{}
	}
	return json.Marshal(struct {
		HTTPMethod     HTTPMethod          `json:"httpMethod"`
		Authentication Authentication      `json:"authentication"`
		ExpectedBody   varjson.Value       `json:"expectedBody"`
		OutputSchema   schema.OutputSchema `json:"outputSchema"`
	}{HTTPMethodPost, s.Authentication, body, out})
}

// DefaultStartedMessage is the example body of a freshly selected POST trigger.
const DefaultStartedMessage = "Workflow was started"

// DefaultSettings returns the canonical settings of a method. Nothing from a
// previous method is carried over.
func DefaultSettings(m HTTPMethod) TriggerSettings {
	if m == HTTPMethodPost {
		body := varjson.NewObject()
		body.Set("message", varjson.String(DefaultStartedMessage))
		return NewPostSettings(AuthenticationNone, body)
	}
	return GetSettings{Authentication: AuthenticationNone}
}

// WebhookTrigger is the inbound HTTP trigger of a workflow.
type WebhookTrigger struct {
	Name     string
	Settings TriggerSettings
}

// TriggerTypeWebhook is the trigger type tag used in workflow documents.
const TriggerTypeWebhook = "WEBHOOK"

func (t WebhookTrigger) MarshalJSON() ([]byte, error) {
	settings := t.Settings
	if settings == nil {
		settings = DefaultSettings(HTTPMethodGet)
	}
	return json.Marshal(struct {
		Type     string          `json:"type"`
		Name     string          `json:"name,omitempty"`
		Settings TriggerSettings `json:"settings"`
	}{TriggerTypeWebhook, t.Name, settings})
}
