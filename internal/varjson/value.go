// Package varjson parses and renders JSON documents that may embed workflow
// variable placeholders such as {{trigger.body.name}} wherever a JSON value
// is allowed. Placeholders are a distinct token kind; a string that merely
// contains "{{...}}" remains a string.
package varjson

import (
	"strconv"
	"strings"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Value is one node of a parsed document. The concrete types are *Object,
// Array, String, Number, Bool, Null and Variable.
type Value interface {
	isValue()
}

// Object keeps its keys in first-seen order.
type Object struct {
	m *orderedmap.OrderedMap[string, Value]
}

// NewObject returns an empty object.
func NewObject() *Object {
	return &Object{m: orderedmap.New[string, Value]()}
}

// Set stores v under key. An existing key keeps its position.
func (o *Object) Set(key string, v Value) {
	o.m.Set(key, v)
}

// Get returns the value stored under key.
func (o *Object) Get(key string) (Value, bool) {
	return o.m.Get(key)
}

// Len returns the number of keys.
func (o *Object) Len() int {
	if o == nil || o.m == nil {
		return 0
	}
	return o.m.Len()
}

// Keys returns the keys in order.
func (o *Object) Keys() []string {
	keys := make([]string, 0, o.Len())
	o.Range(func(k string, _ Value) bool {
		keys = append(keys, k)
		return true
	})
	return keys
}

// Range calls fn for each entry in order until fn returns false.
func (o *Object) Range(fn func(key string, v Value) bool) {
	if o == nil || o.m == nil {
		return
	}
	for pair := o.m.Oldest(); pair != nil; pair = pair.Next() {
		if !fn(pair.Key, pair.Value) {
			return
		}
	}
}

// Array is an ordered list of values.
type Array []Value

// String is a JSON string literal, already unescaped.
type String string

// Number keeps the literal text so that rendering is lossless.
type Number string

// Float returns the number as a float64.
func (n Number) Float() (float64, error) {
	return strconv.ParseFloat(string(n), 64)
}

// Bool is a JSON boolean.
type Bool bool

// Null is the JSON null literal.
type Null struct{}

// Variable is a {{path}} placeholder referencing an upstream workflow value.
type Variable struct {
	Path string
}

// Segments splits the path on dots.
func (v Variable) Segments() []string {
	return strings.Split(v.Path, ".")
}

// Token renders the placeholder as written in a document.
func (v Variable) Token() string {
	return "{{" + v.Path + "}}"
}

func (*Object) isValue()  {}
func (Array) isValue()    {}
func (String) isValue()   {}
func (Number) isValue()   {}
func (Bool) isValue()     {}
func (Null) isValue()     {}
func (Variable) isValue() {}

// Equal reports whether a and b are structurally identical, including the
// order of object keys.
func Equal(a, b Value) bool {
	switch av := a.(type) {
	case *Object:
		bv, ok := b.(*Object)
		if !ok || av.Len() != bv.Len() {
			return false
		}
		ak, bk := av.Keys(), bv.Keys()
		for i := range ak {
			if ak[i] != bk[i] {
				return false
			}
			x, _ := av.Get(ak[i])
			y, _ := bv.Get(bk[i])
			if !Equal(x, y) {
				return false
			}
		}
		return true
	case Array:
		bv, ok := b.(Array)
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !Equal(av[i], bv[i]) {
				return false
			}
		}
		return true
	case Number:
		bv, ok := b.(Number)
		if !ok {
			return false
		}
		if av == bv {
			return true
		}
		x, errA := av.Float()
		y, errB := bv.Float()
		return errA == nil && errB == nil && x == y
	case nil:
		return b == nil
	default:
		return a == b
	}
}

// Variables returns every placeholder in document order.
func Variables(v Value) []Variable {
	var out []Variable
	walk(v, func(n Value) {
		if vv, ok := n.(Variable); ok {
			out = append(out, vv)
		}
	})
	return out
}

func walk(v Value, fn func(Value)) {
	fn(v)
	switch t := v.(type) {
	case *Object:
		t.Range(func(_ string, child Value) bool {
			walk(child, fn)
			return true
		})
	case Array:
		for _, child := range t {
			walk(child, fn)
		}
	}
}
