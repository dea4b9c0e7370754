// Package sink is the single serialized writer for call lines.
//
// A Sink owns one async mailbox and the outputs behind it. Producers call
// Begin, End and Exception from any goroutine; each call enqueues one event
// and returns without waiting for the line to be written. The mailbox
// worker is the only goroutine that touches the outputs, so lines are
// written whole and in the order they were accepted.
package sink

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/hejijunhao/calltrace/internal/model"
	"github.com/hejijunhao/calltrace/internal/output"
	"github.com/hejijunhao/calltrace/internal/output/async"
)

// Sink accepts call events and hands them to a serial writer.
type Sink struct {
	out *async.Async
}

// New starts the writer goroutine in front of out. The Sink takes
// ownership of out and closes it on Close.
func New(out output.Output, opts ...async.Option) *Sink {
	return &Sink{out: async.New(out, opts...)}
}

// Begin submits the BEG line of a call.
func (s *Sink) Begin(ev model.Event) {
	ev.Kind = model.Begin
	s.submit(ev)
}

// End submits the END line of a call.
func (s *Sink) End(ev model.Event) {
	ev.Kind = model.End
	s.submit(ev)
}

// Exception submits the EXC line of a call.
func (s *Sink) Exception(ev model.Event) {
	ev.Kind = model.Exception
	s.submit(ev)
}

// Close writes everything already submitted and closes the outputs.
// Events submitted afterwards are dropped.
func (s *Sink) Close() error {
	return s.out.Close()
}

func (s *Sink) submit(ev model.Event) {
	if err := s.out.Write(context.Background(), ev); err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{
			"call": ev.Signature(),
			"kind": ev.Kind.String(),
			"id":   ev.CallID,
		}).Warn("call line dropped")
	}
}
