package varjson

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestParseObjectKeepsKeyOrder(t *testing.T) {
	v, err := Parse(`{"zeta": 1, "alpha": "a", "mid": {"b": true, "a": null}}`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	obj, ok := v.(*Object)
	if !ok {
		t.Fatalf("expected *Object, got %T", v)
	}
	keys := obj.Keys()
	if strings.Join(keys, ",") != "zeta,alpha,mid" {
		t.Errorf("unexpected key order: %v", keys)
	}
	mid, _ := obj.Get("mid")
	if got := strings.Join(mid.(*Object).Keys(), ","); got != "b,a" {
		t.Errorf("unexpected nested key order: %s", got)
	}
}

func TestParseDuplicateKeyKeepsFirstPosition(t *testing.T) {
	v, err := Parse(`{"a": 1, "b": 2, "a": 3}`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	obj := v.(*Object)
	if got := strings.Join(obj.Keys(), ","); got != "a,b" {
		t.Errorf("expected a,b got %s", got)
	}
	a, _ := obj.Get("a")
	if a != Number("3") {
		t.Errorf("expected last value to win, got %v", a)
	}
}

func TestParseScalars(t *testing.T) {
	cases := []struct {
		in   string
		want Value
	}{
		{`"hi"`, String("hi")},
		{`-12.5e3`, Number("-12.5e3")},
		{`0`, Number("0")},
		{`true`, Bool(true)},
		{`false`, Bool(false)},
		{`null`, Null{}},
		{`"caf\u00e9\n"`, String("café\n")},
		{`"\ud83d\ude00"`, String("😀")},
	}
	for _, tc := range cases {
		got, err := Parse(tc.in)
		if err != nil {
			t.Errorf("parse %s: %v", tc.in, err)
			continue
		}
		if !Equal(got, tc.want) {
			t.Errorf("parse %s: expected %#v, got %#v", tc.in, tc.want, got)
		}
	}
}

func TestParseVariables(t *testing.T) {
	v, err := Parse(`{"user": {{trigger.body.name}}, "list": [{{ a.b }}, 1], "quoted": "{{not.a.var}}"}`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	obj := v.(*Object)

	user, _ := obj.Get("user")
	if user != (Variable{Path: "trigger.body.name"}) {
		t.Errorf("expected variable, got %#v", user)
	}

	list, _ := obj.Get("list")
	if arr := list.(Array); arr[0] != (Variable{Path: "a.b"}) {
		t.Errorf("expected spaces to be trimmed, got %#v", arr[0])
	}

	quoted, _ := obj.Get("quoted")
	if quoted != String("{{not.a.var}}") {
		t.Errorf("expected placeholder inside string to stay a string, got %#v", quoted)
	}

	vars := Variables(v)
	if len(vars) != 2 {
		t.Fatalf("expected 2 variables, got %d", len(vars))
	}
	if got := vars[0].Segments(); len(got) != 3 || got[2] != "name" {
		t.Errorf("unexpected segments: %v", got)
	}
}

func TestParseVariableWithUUIDStepID(t *testing.T) {
	v, err := Parse(`{{5bc5f4b2-1f2e-4c3d-9a8b-7c6d5e4f3a2b.output.id}}`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if v != (Variable{Path: "5bc5f4b2-1f2e-4c3d-9a8b-7c6d5e4f3a2b.output.id"}) {
		t.Errorf("unexpected value %#v", v)
	}
}

func TestParseRejectsMalformed(t *testing.T) {
	inputs := []string{
		`{not json`,
		`{"a": 1,}`,
		`[1 2]`,
		`{"a" 1}`,
		`"unterminated`,
		`01`,
		`1.`,
		`tru`,
		`{{}}`,
		`{{a..b}}`,
		`{{a b}}`,
		`{{a.b}`,
		`{"a": 1} extra`,
		`"bad \x escape"`,
		``,
	}
	for _, in := range inputs {
		if _, err := Parse(in); err == nil {
			t.Errorf("expected error for %q", in)
		}
	}
}

func TestParseNestingLimit(t *testing.T) {
	deep := strings.Repeat("[", MaxDepth) + strings.Repeat("]", MaxDepth)
	v, err := Parse(deep)
	if err != nil {
		t.Fatalf("nesting at the limit rejected: %v", err)
	}
	if Compact(v) != deep {
		t.Fatal("deep array did not render back")
	}

	for _, in := range []string{
		strings.Repeat("[", MaxDepth+1) + strings.Repeat("]", MaxDepth+1),
		strings.Repeat(`{"a":`, MaxDepth+1),
		strings.Repeat("[", 4<<20),
	} {
		_, err := Parse(in)
		var se *SyntaxError
		if !errors.As(err, &se) {
			t.Fatalf("expected *SyntaxError, got %T: %v", err, err)
		}
		if !strings.Contains(se.Msg, "maximum nesting depth") {
			t.Errorf("unexpected message %q", se.Msg)
		}
	}
}

func TestSyntaxErrorPosition(t *testing.T) {
	_, err := Parse("{\n  \"a\": 1,\n  oops\n}")
	var se *SyntaxError
	if !errors.As(err, &se) {
		t.Fatalf("expected *SyntaxError, got %T: %v", err, err)
	}
	if se.Line != 3 || se.Column != 3 {
		t.Errorf("expected line 3 column 3, got line %d column %d", se.Line, se.Column)
	}
	if !strings.Contains(se.Error(), "line 3, column 3") {
		t.Errorf("message should carry the position: %s", se.Error())
	}
}

func TestIndentRoundTrip(t *testing.T) {
	src := `{"name":"Alice","tags":["x",{{step.tag}}],"nested":{"ok":true,"n":null},"empty":{},"none":[]}`
	v, err := Parse(src)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	text := Indent(v)
	want := `{
  "name": "Alice",
  "tags": [
    "x",
    {{step.tag}}
  ],
  "nested": {
    "ok": true,
    "n": null
  },
  "empty": {},
  "none": []
}`
	if text != want {
		t.Errorf("unexpected indent output:\n%s", text)
	}
	again, err := Parse(text)
	if err != nil {
		t.Fatalf("reparse: %v", err)
	}
	if !Equal(v, again) {
		t.Error("expected round trip to preserve the value")
	}
	if Compact(again) != src {
		t.Errorf("compact mismatch: %s", Compact(again))
	}
}

func TestMarshalJSONRendersVariablesAsStrings(t *testing.T) {
	v, err := Parse(`{"b": {{x.y}}, "a": [1, "tag"]}`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(data) != `{"b":"{{x.y}}","a":[1,"tag"]}` {
		t.Errorf("unexpected JSON: %s", data)
	}
}
