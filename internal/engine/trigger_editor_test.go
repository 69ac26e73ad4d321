package engine

import (
	"errors"
	"strings"
	"testing"

	"trigger-settings/internal/metadata"
	"trigger-settings/internal/schema"
	"trigger-settings/internal/varjson"
)

func postTrigger(t *testing.T, body string) metadata.WebhookTrigger {
	t.Helper()
	v, err := varjson.Parse(body)
	if err != nil {
		t.Fatalf("parse %q: %v", body, err)
	}
	return metadata.WebhookTrigger{
		Name:     "Incoming order",
		Settings: metadata.NewPostSettings(metadata.AuthenticationNone, v),
	}
}

func mustPost(t *testing.T, tr metadata.WebhookTrigger) metadata.PostSettings {
	t.Helper()
	post, ok := tr.Settings.(metadata.PostSettings)
	if !ok {
		t.Fatalf("expected POST settings, got %T", tr.Settings)
	}
	return post
}

func settingsEqual(a, b metadata.TriggerSettings) bool {
	if a.HTTPMethod() != b.HTTPMethod() || a.AuthenticationMode() != b.AuthenticationMode() {
		return false
	}
	pa, okA := a.(metadata.PostSettings)
	pb, okB := b.(metadata.PostSettings)
	if okA != okB {
		return false
	}
	if !okA {
		return true
	}
	return varjson.Equal(pa.ExpectedBody, pb.ExpectedBody) && schema.Equal(pa.OutputSchema, pb.OutputSchema)
}

func TestChangeHTTPMethod_ResetsToDefault(t *testing.T) {
	starts := []metadata.WebhookTrigger{
		{Settings: metadata.GetSettings{Authentication: metadata.AuthenticationAPIKey}},
		postTrigger(t, `{"order": {"id": "{{trigger.id}}"}, "total": 12.5}`),
		{},
	}

	for _, m := range metadata.HTTPMethods {
		for i, start := range starts {
			once, opts := ChangeHTTPMethod(start, m)
			if opts.ComputeOutputSchema {
				t.Errorf("%s/%d: expected ComputeOutputSchema=false", m, i)
			}
			if !settingsEqual(once.Settings, metadata.DefaultSettings(m)) {
				t.Errorf("%s/%d: settings are not the default of %s", m, i, m)
			}
			if once.Settings.AuthenticationMode() != metadata.AuthenticationNone {
				t.Errorf("%s/%d: authentication carried over: %s", m, i, once.Settings.AuthenticationMode())
			}
			if once.Name != start.Name {
				t.Errorf("%s/%d: name changed to %q", m, i, once.Name)
			}

			twice, _ := ChangeHTTPMethod(once, m)
			if !settingsEqual(once.Settings, twice.Settings) {
				t.Errorf("%s/%d: reset is not idempotent", m, i)
			}
		}
	}
}

func TestChangeHTTPMethod_PostDefaultBody(t *testing.T) {
	next, _ := ChangeHTTPMethod(metadata.WebhookTrigger{}, metadata.HTTPMethodPost)
	post := mustPost(t, next)

	want := "{\n  \"message\": \"Workflow was started\"\n}"
	if got := post.ExpectedBodyText(); got != want {
		t.Fatalf("expected body text:\n%s\nwant:\n%s", got, want)
	}
	if len(post.OutputSchema) != 1 || post.OutputSchema[0].Key != "message" || post.OutputSchema[0].Kind != schema.KindString {
		t.Fatalf("unexpected output schema: %+v", post.OutputSchema)
	}
}

func TestChangeExpectedBody_DeterministicAndPure(t *testing.T) {
	current := postTrigger(t, `{"a": 1}`)
	before := mustPost(t, current).ExpectedBodyText()

	raw := `{"customer": {"name": "{{trigger.body.name}}"}, "items": [1, 2]}`
	first, _, err := ChangeExpectedBody(current, raw)
	if err != nil {
		t.Fatalf("first call: %v", err)
	}
	second, _, err := ChangeExpectedBody(current, raw)
	if err != nil {
		t.Fatalf("second call: %v", err)
	}

	if !settingsEqual(first.Settings, second.Settings) {
		t.Fatal("identical inputs produced different settings")
	}
	if got := mustPost(t, current).ExpectedBodyText(); got != before {
		t.Fatalf("current was mutated: %s", got)
	}
	if first.Name != current.Name {
		t.Fatalf("name changed: %q", first.Name)
	}
}

func TestChangeExpectedBody_RoundTrip(t *testing.T) {
	inputs := []string{
		`{"name": "Alice", "amount": 42}`,
		`{"nested": {"deep": {"x": [1, {"y": null}]}}, "flag": true, "ratio": -0.5e3}`,
		`{"unicode": "café", "quote": "say \"hi\""}`,
		`{"z": 1, "a": 2, "m": 3}`,
	}
	for _, in := range inputs {
		first, _, err := ChangeExpectedBody(postTrigger(t, `{}`), in)
		if err != nil {
			t.Fatalf("%s: %v", in, err)
		}
		p1 := mustPost(t, first)

		second, _, err := ChangeExpectedBody(first, p1.ExpectedBodyText())
		if err != nil {
			t.Fatalf("%s: re-parse of serialized body: %v", in, err)
		}
		p2 := mustPost(t, second)

		if !varjson.Equal(p1.ExpectedBody, p2.ExpectedBody) {
			t.Errorf("%s: body changed on round trip", in)
		}
		if !schema.Equal(p1.OutputSchema, p2.OutputSchema) {
			t.Errorf("%s: schema changed on round trip", in)
		}
	}
}

func TestChangeExpectedBody_VariablesRoundTrip(t *testing.T) {
	in := `{"id": {{trigger.body.id}}, "label": "{{not.a.variable}}"}`
	first, _, err := ChangeExpectedBody(postTrigger(t, `{}`), in)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	p1 := mustPost(t, first)

	f, ok := p1.OutputSchema.Lookup("id")
	if !ok || f.Kind != schema.KindVariable {
		t.Fatalf("expected id to be a variable field, got %+v", f)
	}
	f, ok = p1.OutputSchema.Lookup("label")
	if !ok || f.Kind != schema.KindString {
		t.Fatalf("expected quoted placeholder to stay a string, got %+v", f)
	}

	second, _, err := ChangeExpectedBody(first, p1.ExpectedBodyText())
	if err != nil {
		t.Fatalf("re-parse: %v", err)
	}
	if !varjson.Equal(p1.ExpectedBody, mustPost(t, second).ExpectedBody) {
		t.Fatal("variables did not survive the round trip")
	}
}

func TestChangeExpectedBody_EmptyEquivalence(t *testing.T) {
	current := postTrigger(t, `{"a": 1}`)
	for _, raw := range []string{"", "   ", "\n\t", "{}"} {
		next, _, err := ChangeExpectedBody(current, raw)
		if err != nil {
			t.Fatalf("%q: %v", raw, err)
		}
		post := mustPost(t, next)
		obj, ok := post.ExpectedBody.(*varjson.Object)
		if !ok || obj.Len() != 0 {
			t.Errorf("%q: expected empty object, got %s", raw, varjson.Compact(post.ExpectedBody))
		}
		if post.OutputSchema == nil || len(post.OutputSchema) != 0 {
			t.Errorf("%q: expected empty non-nil schema, got %+v", raw, post.OutputSchema)
		}
	}
}

func TestChangeExpectedBody_Malformed(t *testing.T) {
	current := postTrigger(t, `{"keep": "me"}`)
	for _, raw := range []string{"{not json", `{"a": }`, `{"a": {{}}}`, `{"a": 1,}`, `[1, 2`} {
		next, opts, err := ChangeExpectedBody(current, raw)
		if err == nil {
			t.Fatalf("%q: expected error", raw)
		}
		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("%q: expected *ValidationError, got %T", raw, err)
		}
		if vErr.Field != ExpectedBodyField || vErr.Message == "" {
			t.Errorf("%q: unexpected validation error %+v", raw, vErr)
		}
		if opts.ComputeOutputSchema {
			t.Errorf("%q: expected ComputeOutputSchema=false", raw)
		}
		if !settingsEqual(next.Settings, current.Settings) || next.Name != current.Name {
			t.Errorf("%q: trigger changed on error", raw)
		}
	}
}

func TestChangeExpectedBody_TooDeep(t *testing.T) {
	current := postTrigger(t, `{"keep": "me"}`)
	next, _, err := ChangeExpectedBody(current, strings.Repeat("[", 1<<20))
	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected *ValidationError, got %T: %v", err, err)
	}
	if vErr.Field != ExpectedBodyField || !strings.Contains(vErr.Message, "nesting depth") {
		t.Errorf("unexpected validation error %+v", vErr)
	}
	if !settingsEqual(next.Settings, current.Settings) {
		t.Error("trigger changed on error")
	}
}

func TestChangeExpectedBody_MessageHasPosition(t *testing.T) {
	_, _, err := ChangeExpectedBody(postTrigger(t, `{}`), "{\n  \"a\": tru\n}")
	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected *ValidationError, got %v", err)
	}
	if !strings.Contains(vErr.Message, "line 2") {
		t.Fatalf("expected line number in message, got %q", vErr.Message)
	}
}

func TestChangeExpectedBody_NotPost(t *testing.T) {
	current := metadata.WebhookTrigger{Settings: metadata.GetSettings{}}
	next, _, err := ChangeExpectedBody(current, `{"a": 1}`)
	if !errors.Is(err, ErrNotPostTrigger) {
		t.Fatalf("expected ErrNotPostTrigger, got %v", err)
	}
	if _, ok := next.Settings.(metadata.GetSettings); !ok {
		t.Fatalf("settings changed to %T", next.Settings)
	}
}

func TestChangeExpectedBody_KeepsAuthentication(t *testing.T) {
	current := postTrigger(t, `{}`)
	current.Settings = current.Settings.WithAuthentication(metadata.AuthenticationAPIKey)

	next, _, err := ChangeExpectedBody(current, `{"a": 1}`)
	if err != nil {
		t.Fatal(err)
	}
	if next.Settings.AuthenticationMode() != metadata.AuthenticationAPIKey {
		t.Fatalf("authentication lost: %s", next.Settings.AuthenticationMode())
	}
}

func TestOutputSchemaOfFlatBody(t *testing.T) {
	next, _, err := ChangeExpectedBody(postTrigger(t, `{}`), `{"name": "Alice", "amount": 42}`)
	if err != nil {
		t.Fatal(err)
	}
	out := mustPost(t, next).OutputSchema
	if len(out) != 2 {
		t.Fatalf("expected 2 fields, got %d", len(out))
	}
	if out[0].Key != "name" || out[0].Kind != schema.KindString {
		t.Errorf("field 0: %+v", out[0])
	}
	if out[1].Key != "amount" || out[1].Kind != schema.KindNumber {
		t.Errorf("field 1: %+v", out[1])
	}
}

func TestChangeAuthentication(t *testing.T) {
	current := postTrigger(t, `{"a": 1}`)
	next := ChangeAuthentication(current, metadata.AuthenticationAPIKey)

	if next.Settings.AuthenticationMode() != metadata.AuthenticationAPIKey {
		t.Fatalf("authentication not set")
	}
	if !varjson.Equal(mustPost(t, next).ExpectedBody, mustPost(t, current).ExpectedBody) {
		t.Fatal("expected body changed")
	}
	if current.Settings.AuthenticationMode() != metadata.AuthenticationNone {
		t.Fatal("current was mutated")
	}
	if AuthenticationEditable {
		t.Fatal("authentication must stay locked until the selector is enabled")
	}
}

func TestDefaultLabel(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"", "Webhook"},
		{"   ", "   "},
		{"Order created", "Order created"},
	}
	for _, tt := range tests {
		got := DefaultLabel(ChangeName(metadata.WebhookTrigger{}, tt.name))
		if got != tt.want {
			t.Errorf("DefaultLabel(%q) = %q, want %q", tt.name, got, tt.want)
		}
	}
}
