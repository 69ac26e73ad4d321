package engine

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"trigger-settings/internal/varjson"
)

// VariableResolver substitutes {{path}} placeholders with values looked up
// in a context, e.g. to preview an expected body against sample data.
// Numeric path segments index into arrays.
type VariableResolver struct {
	mu    sync.Mutex
	cache map[string]*vm.Program
}

func NewVariableResolver() *VariableResolver {
	return &VariableResolver{
		cache: make(map[string]*vm.Program),
	}
}

// Resolve returns a copy of v with every variable replaced. Paths that do
// not exist in env resolve to null.
func (r *VariableResolver) Resolve(v varjson.Value, env map[string]any) (varjson.Value, error) {
	switch t := v.(type) {
	case *varjson.Object:
		out := varjson.NewObject()
		var err error
		t.Range(func(k string, child varjson.Value) bool {
			var resolved varjson.Value
			resolved, err = r.Resolve(child, env)
			if err != nil {
				return false
			}
			out.Set(k, resolved)
			return true
		})
		if err != nil {
			return nil, err
		}
		return out, nil
	case varjson.Array:
		out := make(varjson.Array, len(t))
		for i, child := range t {
			resolved, err := r.Resolve(child, env)
			if err != nil {
				return nil, err
			}
			out[i] = resolved
		}
		return out, nil
	case varjson.Variable:
		val, err := r.Lookup(t.Path, env)
		if err != nil {
			return nil, err
		}
		return FromGo(val), nil
	default:
		return v, nil
	}
}

// Lookup evaluates a single variable path against env.
func (r *VariableResolver) Lookup(path string, env map[string]any) (any, error) {
	prog, err := r.program(path)
	if err != nil {
		return nil, err
	}
	if env == nil {
		env = map[string]any{}
	}
	out, err := expr.Run(prog, env)
	if err != nil {
		return nil, fmt.Errorf("evaluate variable %s: %w", path, err)
	}
	return out, nil
}

func (r *VariableResolver) program(path string) (*vm.Program, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if prog, ok := r.cache[path]; ok {
		return prog, nil
	}
	prog, err := expr.Compile(pathExpression(path))
	if err != nil {
		return nil, fmt.Errorf("compile variable %s: %w", path, err)
	}
	r.cache[path] = prog
	return prog, nil
}

// pathExpression turns a.b.0 into get(get(get($env, "a"), "b"), 0). get
// yields nil instead of failing on missing keys.
func pathExpression(path string) string {
	code := "$env"
	for _, seg := range strings.Split(path, ".") {
		key := strconv.Quote(seg)
		if n, err := strconv.Atoi(seg); err == nil && n >= 0 {
			key = strconv.Itoa(n)
		}
		code = "get(" + code + ", " + key + ")"
	}
	return code
}

// FromGo converts a decoded JSON-like Go value into a varjson value. Map
// keys are sorted since Go maps carry no order.
func FromGo(v any) varjson.Value {
	switch t := v.(type) {
	case nil:
		return varjson.Null{}
	case varjson.Value:
		return t
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		obj := varjson.NewObject()
		for _, k := range keys {
			obj.Set(k, FromGo(t[k]))
		}
		return obj
	case []any:
		arr := make(varjson.Array, len(t))
		for i, item := range t {
			arr[i] = FromGo(item)
		}
		return arr
	case string:
		return varjson.String(t)
	case bool:
		return varjson.Bool(t)
	case float64:
		return varjson.Number(strconv.FormatFloat(t, 'f', -1, 64))
	case float32:
		return varjson.Number(strconv.FormatFloat(float64(t), 'f', -1, 32))
	case int:
		return varjson.Number(strconv.Itoa(t))
	case int64:
		return varjson.Number(strconv.FormatInt(t, 10))
	default:
		return varjson.String(fmt.Sprintf("%v", t))
	}
}
