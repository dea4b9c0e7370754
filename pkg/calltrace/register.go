package calltrace

import (
	"reflect"

	"github.com/pkg/errors"

	"github.com/hejijunhao/calltrace/internal/engine"
)

// TagName is the struct tag declaring a function field's parameter names.
const TagName = "calltrace"

var (
	// ErrNotStruct is returned when the method table is not a non-nil
	// pointer to a struct.
	ErrNotStruct = errors.New("method table must be a non-nil pointer to a struct")
	// ErrNoField is returned when a named method is not an exported field.
	ErrNoField = errors.New("no such method")
	// ErrNotFunc is returned when a named field is not a non-nil function.
	ErrNotFunc = errors.New("method is not a function")
	// ErrParams is returned when declared parameter names do not fit the
	// function's signature.
	ErrParams = engine.ErrParams
)

// Method names a function field in a Register spec list.
type Method string

// Config is the configuration record accepted after a Method.
type Config struct {
	// Template is the message template; empty means no message.
	Template string
}

// methodSpec is a parsed (name, extra) pair.
type methodSpec struct {
	name  Method
	extra any
}

// parseSpecs scans specs left to right. A Method followed by another
// Method, or by nothing, has no extra; a Method followed by any other
// value takes that value as its extra. Values that do not follow a Method
// are skipped. A name listed twice keeps its first position and its last
// extra.
func parseSpecs(specs []any) []methodSpec {
	var parsed []methodSpec
	index := map[Method]int{}
	for i, s := range specs {
		name, ok := s.(Method)
		if !ok {
			continue
		}
		var extra any
		if i+1 < len(specs) {
			if _, next := specs[i+1].(Method); !next {
				extra = specs[i+1]
			}
		}
		if j, dup := index[name]; dup {
			parsed[j].extra = extra
			continue
		}
		index[name] = len(parsed)
		parsed = append(parsed, methodSpec{name: name, extra: extra})
	}
	return parsed
}

// configFrom turns an extra into the engine's configuration record.
// Unrecognised extras leave the method without a template.
func configFrom(extra any) engine.Config {
	var tmpl string
	switch v := extra.(type) {
	case string:
		tmpl = v
	case Config:
		tmpl = v.Template
	case *Config:
		if v != nil {
			tmpl = v.Template
		}
	}
	if tmpl == "" {
		return engine.Config{}
	}
	return engine.Config{Template: &tmpl}
}

// Register instruments the function fields of table named in specs.
//
// table must be a pointer to a struct; the struct's type name is the owner
// written in call lines. Each entry of specs is a Method, optionally
// followed by a template string or a Config:
//
//	t.Register(svc,
//	    calltrace.Method("Place"), "order for {customer}",
//	    calltrace.Method("Cancel"),
//	    calltrace.Method("Lookup"), calltrace.Config{Template: "{id}"},
//	)
//
// Parameter names come from the field's `calltrace:"a,b"` tag, or default
// to arg0, arg1, ... The original function is captured before the field is
// replaced. Registering the same field again wraps the instrumented
// version, producing two sets of lines per call.
//
// Every entry is validated before any field is replaced: on error the table
// is left untouched. Register is meant for single-threaded setup, before
// the table's functions are called concurrently.
func (t *Tracer) Register(table any, specs ...any) error {
	rv := reflect.ValueOf(table)
	if rv.Kind() != reflect.Pointer || rv.IsNil() || rv.Elem().Kind() != reflect.Struct {
		return errors.Wrapf(ErrNotStruct, "register %T", table)
	}
	st := rv.Elem()
	owner := st.Type().Name()

	type binding struct {
		field  reflect.Value
		method *engine.MethodConfig
	}
	parsed := parseSpecs(specs)
	bindings := make([]binding, 0, len(parsed))

	for _, spec := range parsed {
		sf, ok := st.Type().FieldByName(string(spec.name))
		if !ok || !sf.IsExported() || len(sf.Index) != 1 {
			return errors.Wrapf(ErrNoField, "%s#%s", owner, spec.name)
		}
		field := st.Field(sf.Index[0])
		if sf.Type.Kind() != reflect.Func || field.IsNil() {
			return errors.Wrapf(ErrNotFunc, "%s#%s", owner, spec.name)
		}

		// The field is replaced below; keep the current function, not a
		// view of the field.
		original := reflect.ValueOf(field.Interface())
		m, err := engine.NewMethodConfig(owner, sf.Name, original,
			configFrom(spec.extra), engine.ParseParams(sf.Tag.Get(TagName)))
		if err != nil {
			return err
		}
		bindings = append(bindings, binding{field: field, method: m})
	}

	for _, b := range bindings {
		b.field.Set(t.engine.Wrap(b.method))
	}
	return nil
}
