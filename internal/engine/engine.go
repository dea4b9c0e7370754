package engine

import (
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/hejijunhao/calltrace/internal/engine/identity"
	"github.com/hejijunhao/calltrace/internal/engine/template"
	"github.com/hejijunhao/calltrace/internal/model"
)

var errorType = reflect.TypeOf((*error)(nil)).Elem()

// Submitter accepts call events without waiting for them to be written.
// sink.Sink implements it.
type Submitter interface {
	Begin(model.Event)
	End(model.Event)
	Exception(model.Event)
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock replaces time.Now as the source of call timestamps.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// Engine runs instrumented calls: it times them, derives the call id,
// renders messages and submits the BEG, END and EXC events.
type Engine struct {
	sink Submitter
	now  func() time.Time
}

// New creates an Engine submitting to s.
func New(s Submitter, opts ...Option) *Engine {
	e := &Engine{sink: s, now: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Wrap returns a function value of m.Fn's type that runs every call
// through Execute.
func (e *Engine) Wrap(m *MethodConfig) reflect.Value {
	return reflect.MakeFunc(m.Fn.Type(), func(args []reflect.Value) []reflect.Value {
		return e.Execute(&Call{Method: m, Args: args})
	})
}

// Execute invokes the original function and returns its results unchanged.
//
// BEG is submitted before the function runs. When it returns with a nil
// trailing error, END is submitted with the return value available to the
// template. A non-nil trailing error is submitted as EXC and returned as
// is. A panic is submitted as EXC and re-raised with the same value.
func (e *Engine) Execute(call *Call) (results []reflect.Value) {
	m := call.Method
	call.Begin = e.now()
	call.ID = identity.CallID(m.Owner, m.Name, call.Begin)
	args := call.argValues()

	e.sink.Begin(e.event(call, args, template.NoReturn))

	defer func() {
		if r := recover(); r != nil {
			e.sink.Exception(e.failure(call, args, panicFailure(r)))
			panic(r)
		}
	}()

	results = call.invoke()

	if err := trailingError(m.Fn.Type(), results); err != nil {
		e.sink.Exception(e.failure(call, args, errorFailure(err)))
		return results
	}

	end := e.now()
	call.Return = template.Returned(returnValue(m.Fn.Type(), results))
	ev := e.event(call, args, call.Return)
	ev.End = end
	e.sink.End(ev)
	return results
}

func (e *Engine) event(call *Call, args []any, ret template.Return) model.Event {
	return model.Event{
		Owner:   call.Method.Owner,
		Method:  call.Method.Name,
		CallID:  call.ID,
		Begin:   call.Begin,
		Message: call.Method.message(args, ret),
	}
}

func (e *Engine) failure(call *Call, args []any, f failure) model.Event {
	ev := e.event(call, args, template.NoReturn)
	ev.ExceptionType = f.typ
	ev.ExceptionMessage = f.msg
	ev.Stack = f.stack
	return ev
}

type failure struct {
	typ   string
	msg   string
	stack []string
}

func errorFailure(err error) failure {
	return failure{
		typ:   fmt.Sprintf("%T", errors.Cause(err)),
		msg:   err.Error(),
		stack: Stack(err),
	}
}

func panicFailure(r any) failure {
	if err, ok := r.(error); ok {
		return errorFailure(err)
	}
	return failure{
		typ:   fmt.Sprintf("%T", r),
		msg:   fmt.Sprint(r),
		stack: Stack(errors.Errorf("%v", r)),
	}
}

type stackTracer interface {
	StackTrace() errors.StackTrace
}

// Stack returns the stack trace recorded in err's chain, or the current
// goroutine's stack when the chain carries none. Inside a deferred recover
// the current stack still includes the panicking frames. A stack taken here
// starts at the failure site: the executor's own frames and the runtime and
// reflect frames above it are dropped. Each frame renders as
// "function file:line".
func Stack(err error) []string {
	var st stackTracer
	recorded := errors.As(err, &st)
	if !recorded {
		st = errors.WithStack(err).(stackTracer)
	}
	frames := st.StackTrace()
	lines := make([]string, 0, len(frames))
	for _, f := range frames {
		text, _ := f.MarshalText()
		lines = append(lines, string(text))
	}
	if !recorded {
		lines = trimOwnFrames(lines)
	}
	return lines
}

var ownFramePrefixes = func() []string {
	pkg := reflect.TypeOf(Engine{}).PkgPath()
	return []string{
		pkg + ".Stack ",
		pkg + ".errorFailure ",
		pkg + ".panicFailure ",
		pkg + ".(*Engine).",
		pkg + ".(*Call).",
		"runtime.",
		"reflect.",
	}
}()

// trimOwnFrames drops leading frames that belong to the executor, so the
// first frame is the panicking function or the caller of the instrumented
// function.
func trimOwnFrames(lines []string) []string {
	for i, line := range lines {
		if !isOwnFrame(line) {
			return lines[i:]
		}
	}
	return lines
}

func isOwnFrame(line string) bool {
	for _, prefix := range ownFramePrefixes {
		if strings.HasPrefix(line, prefix) {
			return true
		}
	}
	return false
}

func trailingError(ft reflect.Type, results []reflect.Value) error {
	n := len(results)
	if n == 0 || ft.Out(n-1) != errorType {
		return nil
	}
	err, _ := results[n-1].Interface().(error)
	return err
}

// returnValue is what {return} renders: nothing, the single result, or a
// slice of all results when there are several. A trailing error result is
// never part of it.
func returnValue(ft reflect.Type, results []reflect.Value) any {
	n := len(results)
	if n > 0 && ft.Out(n-1) == errorType {
		n--
	}
	switch n {
	case 0:
		return nil
	case 1:
		return results[0].Interface()
	}
	vals := make([]any, n)
	for i := 0; i < n; i++ {
		vals[i] = results[i].Interface()
	}
	return vals
}
