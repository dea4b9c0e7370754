package calltrace

import (
	"github.com/hejijunhao/calltrace/internal/engine"
	"github.com/hejijunhao/calltrace/internal/output"
	"github.com/hejijunhao/calltrace/internal/output/async"
	"github.com/hejijunhao/calltrace/internal/output/metrics"
	"github.com/hejijunhao/calltrace/internal/output/multi"
	"github.com/hejijunhao/calltrace/internal/output/stdout"
	"github.com/hejijunhao/calltrace/internal/sink"
)

// Tracer instruments functions and owns the writer for their call lines.
// Create one at startup, register method tables during setup, and Close it
// at shutdown. Instrumented functions are safe for concurrent use.
type Tracer struct {
	engine *engine.Engine
	sink   *sink.Sink
}

// New creates a Tracer and starts its writer goroutine.
func New(opts ...Option) *Tracer {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	var stdoutOpts []stdout.Option
	if o.writer != nil {
		stdoutOpts = append(stdoutOpts, stdout.WithWriter(o.writer))
	}
	var out output.Output = stdout.New(stdoutOpts...)
	if o.registerer != nil {
		out = multi.New(out, metrics.New(o.registerer, o.namespace))
	}

	asyncOpts := []async.Option{async.WithDrainTimeout(o.drainTimeout)}
	if o.onError != nil {
		asyncOpts = append(asyncOpts, async.WithOnError(o.onError))
	}
	s := sink.New(out, asyncOpts...)

	var engineOpts []engine.Option
	if o.now != nil {
		engineOpts = append(engineOpts, engine.WithClock(o.now))
	}

	return &Tracer{
		engine: engine.New(s, engineOpts...),
		sink:   s,
	}
}

// Close writes every pending line and releases the output.
// Calls made after Close still run but their lines are dropped.
func (t *Tracer) Close() error {
	return t.sink.Close()
}
