package engine

import (
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/hejijunhao/calltrace/internal/engine/template"
)

// ErrParams is returned when declared parameter names do not fit the
// function's signature.
var ErrParams = errors.New("parameter names do not match function")

// Config is the per-method configuration record.
type Config struct {
	Template *string // nil: the method's lines carry no message
}

// MethodConfig describes one instrumented method. It is built once at
// registration time and never modified afterwards.
type MethodConfig struct {
	Owner  string
	Name   string
	Fn     reflect.Value // the original, unwrapped function
	Config Config
	Params map[string]int // parameter name -> argument position
}

// NewMethodConfig validates fn and builds the parameter table. names are
// the declared parameter names in order; when empty, parameters are named
// arg0, arg1, ... Blank and "_" names are skipped.
func NewMethodConfig(owner, name string, fn reflect.Value, cfg Config, names []string) (*MethodConfig, error) {
	if fn.Kind() != reflect.Func || fn.IsNil() {
		return nil, errors.Errorf("%s#%s: not a function", owner, name)
	}
	params, err := paramTable(fn.Type(), names)
	if err != nil {
		return nil, errors.Wrapf(err, "%s#%s", owner, name)
	}
	if fn.CanAddr() {
		// An addressable value reads its variable on every call.
		fn = reflect.ValueOf(fn.Interface())
	}
	return &MethodConfig{
		Owner:  owner,
		Name:   name,
		Fn:     fn,
		Config: cfg,
		Params: params,
	}, nil
}

// ParseParams splits a comma-separated parameter list such as "a, b".
func ParseParams(list string) []string {
	if strings.TrimSpace(list) == "" {
		return nil
	}
	names := strings.Split(list, ",")
	for i := range names {
		names[i] = strings.TrimSpace(names[i])
	}
	return names
}

func paramTable(ft reflect.Type, names []string) (map[string]int, error) {
	n := ft.NumIn()
	if len(names) > n {
		return nil, errors.Wrapf(ErrParams, "%d names for %d parameters", len(names), n)
	}
	params := make(map[string]int, n)
	if len(names) == 0 {
		for i := 0; i < n; i++ {
			params["arg"+strconv.Itoa(i)] = i
		}
		return params, nil
	}
	for i, name := range names {
		if name == "" || name == "_" {
			continue
		}
		if _, dup := params[name]; dup {
			return nil, errors.Wrapf(ErrParams, "duplicate name %q", name)
		}
		params[name] = i
	}
	return params, nil
}

func (m *MethodConfig) message(args []any, ret template.Return) *string {
	msg, ok := template.Render(m.Config.Template, args, m.Params, ret)
	if !ok {
		return nil
	}
	return &msg
}

// Call is the state of one invocation. It lives until the invocation
// returns or panics.
type Call struct {
	Method *MethodConfig
	Args   []reflect.Value
	Begin  time.Time
	ID     string
	Return template.Return
}

func (c *Call) argValues() []any {
	vals := make([]any, len(c.Args))
	for i, a := range c.Args {
		if a.IsValid() {
			vals[i] = a.Interface()
		}
	}
	return vals
}

// invoke runs the original function. A variadic tail arrives from
// reflect.MakeFunc already packed into a slice.
func (c *Call) invoke() []reflect.Value {
	if c.Method.Fn.Type().IsVariadic() {
		return c.Method.Fn.CallSlice(c.Args)
	}
	return c.Method.Fn.Call(c.Args)
}
