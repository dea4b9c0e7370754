// Package template renders call messages from templates that reference the
// call's arguments and return value.
//
// Fragments:
//
//	{return}        the return value
//	{return#M}      the result of the zero-argument method M on the return value
//	{name}          the argument bound to parameter name
//	{name#M}        the result of the zero-argument method M on that argument
//
// Return fragments are resolved first; the remaining literal text is then
// scanned for parameter fragments. Unknown parameter names are left as they
// are. A failing accessor is replaced by "{<error>}" and never aborts the
// render.
package template

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/text/unicode/norm"
)

var (
	returnFragment = regexp.MustCompile(`\{return(?:#([^{}]*))?\}`)
	paramFragment  = regexp.MustCompile(`\{[^{}]+\}`)

	errorType = reflect.TypeOf((*error)(nil)).Elem()
)

// Return is the value {return} fragments resolve against.
type Return struct {
	Value any
	OK    bool
}

// NoReturn is used before the call completes; {return...} renders empty.
var NoReturn = Return{}

// Returned wraps a completed call's return value.
func Returned(v any) Return {
	return Return{Value: v, OK: true}
}

// segment is a piece of the template after the return pass. Resolved
// segments hold substituted text and are not scanned again.
type segment struct {
	text     string
	resolved bool
}

// Render renders tmpl against the call arguments. params maps parameter
// names to positions in args. It returns false when tmpl is nil, meaning
// the event carries no message.
func Render(tmpl *string, args []any, params map[string]int, ret Return) (string, bool) {
	if tmpl == nil {
		return "", false
	}

	segments := renderReturn(*tmpl, ret)

	var b strings.Builder
	for _, seg := range segments {
		if seg.resolved {
			b.WriteString(seg.text)
			continue
		}
		b.WriteString(renderParams(seg.text, args, params))
	}
	return norm.NFC.String(b.String()), true
}

func renderReturn(tmpl string, ret Return) []segment {
	var segments []segment
	last := 0
	for _, loc := range returnFragment.FindAllStringSubmatchIndex(tmpl, -1) {
		segments = append(segments, segment{text: tmpl[last:loc[0]]})

		var accessor string
		if loc[2] >= 0 {
			accessor = tmpl[loc[2]:loc[3]]
		}
		text := ""
		if ret.OK {
			text = resolve(ret.Value, accessor)
		}
		segments = append(segments, segment{text: text, resolved: true})
		last = loc[1]
	}
	return append(segments, segment{text: tmpl[last:]})
}

func renderParams(text string, args []any, params map[string]int) string {
	return paramFragment.ReplaceAllStringFunc(text, func(frag string) string {
		name, accessor, _ := strings.Cut(frag[1:len(frag)-1], "#")
		accessor, _, _ = strings.Cut(accessor, "#")

		idx, ok := params[name]
		if !ok || idx < 0 || idx >= len(args) {
			return frag
		}
		return resolve(args[idx], accessor)
	})
}

// resolve stringifies v, or the result of calling accessor on v.
func resolve(v any, accessor string) string {
	if accessor == "" {
		return Stringify(v)
	}
	out, err := Call(v, accessor)
	if err != nil {
		return "{" + err.Error() + "}"
	}
	return Stringify(out)
}

// Stringify converts v with fmt.Sprint; a nil value renders empty.
func Stringify(v any) string {
	if v == nil {
		return ""
	}
	return fmt.Sprint(v)
}

// Call invokes the zero-argument method name on v and returns its first
// result. A non-nil trailing error result, a missing method, a method that
// needs arguments and a panic inside the method are all reported as errors.
func Call(v any, name string) (out any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Errorf("panic in %s: %v", name, r)
		}
	}()

	rv := reflect.ValueOf(v)
	if !rv.IsValid() {
		return nil, errors.Errorf("undefined method %s for nil", name)
	}
	m := rv.MethodByName(name)
	if !m.IsValid() && rv.Kind() != reflect.Pointer {
		// Pointer-receiver methods need an addressable copy.
		p := reflect.New(rv.Type())
		p.Elem().Set(rv)
		m = p.MethodByName(name)
	}
	if !m.IsValid() {
		return nil, errors.Errorf("undefined method %s for %T", name, v)
	}

	mt := m.Type()
	if mt.NumIn() != 0 && !(mt.IsVariadic() && mt.NumIn() == 1) {
		return nil, errors.Errorf("method %s for %T takes %d arguments", name, v, mt.NumIn())
	}

	results := m.Call(nil)
	if n := len(results); n > 0 && mt.Out(n-1) == errorType {
		if e, _ := results[n-1].Interface().(error); e != nil {
			return nil, e
		}
		results = results[:n-1]
	}
	if len(results) == 0 {
		return nil, nil
	}
	return results[0].Interface(), nil
}
