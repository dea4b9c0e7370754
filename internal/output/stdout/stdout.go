package stdout

import (
	"bufio"
	"context"
	"io"
	"os"

	"github.com/pkg/errors"

	"github.com/hejijunhao/calltrace/internal/model"
	"github.com/hejijunhao/calltrace/internal/output"
)

// Option configures a stdout Output.
type Option func(*Output)

// WithWriter replaces os.Stdout as the destination. Used by tests and by
// callers that redirect call lines.
func WithWriter(w io.Writer) Option {
	return func(o *Output) { o.w = bufio.NewWriter(w) }
}

// Output writes formatted call lines to stdout. Every line is written and
// flushed as a single buffer, so a line reaches the stream whole.
// Not safe for concurrent use; wrap it in async.Async.
type Output struct {
	w *bufio.Writer
}

// New creates a stdout Output.
func New(opts ...Option) *Output {
	o := &Output{w: bufio.NewWriter(os.Stdout)}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

func (o *Output) Write(_ context.Context, event model.Event) error {
	o.w.WriteString(output.FormatLine(event))
	o.w.WriteByte('\n')
	if err := o.w.Flush(); err != nil {
		return errors.Wrap(err, "stdout output")
	}
	return nil
}

func (o *Output) Close() error {
	return o.w.Flush()
}
