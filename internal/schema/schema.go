// Package schema infers the output schema a webhook trigger exposes to the
// steps that follow it.
package schema

import (
	"reflect"

	"trigger-settings/internal/varjson"
)

// Kind is the inferred type of a field.
type Kind string

const (
	KindString   Kind = "string"
	KindNumber   Kind = "number"
	KindBoolean  Kind = "boolean"
	KindNull     Kind = "null"
	KindObject   Kind = "object"
	KindArray    Kind = "array"
	KindVariable Kind = "variable"
)

// Field describes one key of the expected body. Object fields carry their
// children in Fields; every other kind is a leaf with an example Value.
type Field struct {
	Key    string       `json:"key"`
	Label  string       `json:"label"`
	Kind   Kind         `json:"type"`
	IsLeaf bool         `json:"isLeaf"`
	Value  any          `json:"value,omitempty"`
	Fields OutputSchema `json:"fields,omitempty"`
}

// OutputSchema lists fields in the order their keys first appear.
type OutputSchema []Field

// Infer walks v and records a field for every object key. A top-level value
// that is not an object exposes no fields.
func Infer(v varjson.Value) OutputSchema {
	obj, ok := v.(*varjson.Object)
	if !ok {
		return OutputSchema{}
	}
	return inferObject(obj)
}

func inferObject(obj *varjson.Object) OutputSchema {
	out := make(OutputSchema, 0, obj.Len())
	obj.Range(func(key string, child varjson.Value) bool {
		out = append(out, inferField(key, child))
		return true
	})
	return out
}

func inferField(key string, v varjson.Value) Field {
	f := Field{Key: key, Label: key, IsLeaf: true}
	switch t := v.(type) {
	case *varjson.Object:
		f.Kind = KindObject
		f.IsLeaf = false
		f.Fields = inferObject(t)
	case varjson.Array:
		f.Kind = KindArray
		f.Value = varjson.Compact(t)
	case varjson.String:
		f.Kind = KindString
		f.Value = string(t)
	case varjson.Number:
		f.Kind = KindNumber
		if n, err := t.Float(); err == nil {
			f.Value = n
		} else {
			f.Value = string(t)
		}
	case varjson.Bool:
		f.Kind = KindBoolean
		f.Value = bool(t)
	case varjson.Variable:
		f.Kind = KindVariable
		f.Value = t.Token()
	default:
		f.Kind = KindNull
	}
	return f
}

// Lookup returns the top-level field with the given key.
func (s OutputSchema) Lookup(key string) (Field, bool) {
	for _, f := range s {
		if f.Key == key {
			return f, true
		}
	}
	return Field{}, false
}

// Paths flattens the schema into dotted paths usable as {{trigger.<path>}}
// variables by downstream steps.
func (s OutputSchema) Paths() []string {
	var out []string
	var visit func(prefix string, fields OutputSchema)
	visit = func(prefix string, fields OutputSchema) {
		for _, f := range fields {
			p := f.Key
			if prefix != "" {
				p = prefix + "." + f.Key
			}
			out = append(out, p)
			if !f.IsLeaf {
				visit(p, f.Fields)
			}
		}
	}
	visit("", s)
	return out
}

// Equal compares two schemas field by field.
func Equal(a, b OutputSchema) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		x, y := a[i], b[i]
		if x.Key != y.Key || x.Label != y.Label || x.Kind != y.Kind || x.IsLeaf != y.IsLeaf {
			return false
		}
		if !reflect.DeepEqual(x.Value, y.Value) {
			return false
		}
		if !Equal(x.Fields, y.Fields) {
			return false
		}
	}
	return true
}
