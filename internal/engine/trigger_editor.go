package engine

import (
	"strings"

	"trigger-settings/internal/metadata"
	"trigger-settings/internal/varjson"
)

// ExpectedBodyField names the form field a body ValidationError refers to.
const ExpectedBodyField = "expectedBody"

// DefaultWebhookLabel is shown when a trigger has no name.
const DefaultWebhookLabel = "Webhook"

// AuthenticationEditable gates committing authentication changes. The
// selector is disabled in the editor: changes are computed and previewed but
// never persisted while this is false.
const AuthenticationEditable = false

// UpdateOptions is forwarded with every trigger update. The editor always
// computes the output schema itself, so downstream consumers must not.
type UpdateOptions struct {
	ComputeOutputSchema bool `json:"compute_output_schema"`
}

var noSchemaRecompute = UpdateOptions{ComputeOutputSchema: false}

// DefaultUpdateOptions go with edits that leave the settings shape alone
// (rename, authentication). Downstream consumers recompute as usual.
var DefaultUpdateOptions = UpdateOptions{ComputeOutputSchema: true}

// ChangeHTTPMethod resets the settings to the default shape of m.
func ChangeHTTPMethod(current metadata.WebhookTrigger, m metadata.HTTPMethod) (metadata.WebhookTrigger, UpdateOptions) {
	next := current
	next.Settings = metadata.DefaultSettings(m)
	return next, noSchemaRecompute
}

// ChangeExpectedBody parses rawText as the expected body of a POST trigger.
// Blank text stands for {}. On failure current is returned untouched along
// with a *ValidationError.
func ChangeExpectedBody(current metadata.WebhookTrigger, rawText string) (metadata.WebhookTrigger, UpdateOptions, error) {
	return changeExpectedBody(current, rawText, parseBody)
}

type bodyParseFunc func(text string) (varjson.Value, error)

func parseBody(text string) (varjson.Value, error) {
	return varjson.Parse(text)
}

func changeExpectedBody(current metadata.WebhookTrigger, rawText string, parse bodyParseFunc) (metadata.WebhookTrigger, UpdateOptions, error) {
	post, ok := current.Settings.(metadata.PostSettings)
	if !ok {
		return current, noSchemaRecompute, ErrNotPostTrigger
	}

	text := rawText
	if strings.TrimSpace(text) == "" {
		text = "{}"
	}

	body, err := parse(text)
	if err != nil {
		return current, noSchemaRecompute, &ValidationError{Field: ExpectedBodyField, Message: err.Error()}
	}

	next := current
	next.Settings = metadata.NewPostSettings(post.Authentication, body)
	return next, noSchemaRecompute, nil
}

// ChangeAuthentication replaces only the authentication mode.
func ChangeAuthentication(current metadata.WebhookTrigger, a metadata.Authentication) metadata.WebhookTrigger {
	next := current
	if next.Settings == nil {
		next.Settings = metadata.DefaultSettings(metadata.HTTPMethodGet)
	}
	next.Settings = next.Settings.WithAuthentication(a)
	return next
}

// ChangeName sets the header title of the trigger.
func ChangeName(current metadata.WebhookTrigger, name string) metadata.WebhookTrigger {
	next := current
	next.Name = name
	return next
}

// DefaultLabel returns the trigger name, or the generic label when the name
// is empty. A blank but non-empty name is kept as is.
func DefaultLabel(t metadata.WebhookTrigger) string {
	if t.Name != "" {
		return t.Name
	}
	return DefaultWebhookLabel
}
