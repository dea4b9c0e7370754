// Package metrics observes call lines into Prometheus collectors.
// It sits next to the stdout output behind multi.Multi, so it sees exactly
// the events that are written, in the order the sink writes them.
package metrics

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/hejijunhao/calltrace/internal/model"
)

const (
	outcomeOK    = "ok"
	outcomeError = "error"
)

// Output updates call metrics from BEG, END and EXC events.
//
// Metrics:
//   - calls_total{owner,method,outcome}: completed calls, outcome ok|error
//   - call_duration_seconds{owner,method}: duration of successful calls
//   - calls_in_flight{owner,method}: calls with a BEG but no END/EXC yet
//   - lines_total{kind}: call lines observed, kind BEG|END|EXC
type Output struct {
	calls    *prometheus.CounterVec
	duration *prometheus.HistogramVec
	inFlight *prometheus.GaugeVec
	lines    *prometheus.CounterVec
}

// New creates the collectors and registers them with reg.
// namespace prefixes every metric name.
func New(reg prometheus.Registerer, namespace string) *Output {
	f := promauto.With(reg)
	return &Output{
		calls: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "calls_total",
				Help:      "Total number of completed instrumented calls",
			},
			[]string{"owner", "method", "outcome"},
		),
		duration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "call_duration_seconds",
				Help:      "Duration of successful instrumented calls in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"owner", "method"},
		),
		inFlight: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "calls_in_flight",
				Help:      "Instrumented calls that have begun but not finished",
			},
			[]string{"owner", "method"},
		),
		lines: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "lines_total",
				Help:      "Total number of call lines observed",
			},
			[]string{"kind"},
		),
	}
}

func (o *Output) Write(_ context.Context, event model.Event) error {
	o.lines.WithLabelValues(event.Kind.String()).Inc()

	switch event.Kind {
	case model.Begin:
		o.inFlight.WithLabelValues(event.Owner, event.Method).Inc()
	case model.End:
		o.inFlight.WithLabelValues(event.Owner, event.Method).Dec()
		o.calls.WithLabelValues(event.Owner, event.Method, outcomeOK).Inc()
		o.duration.WithLabelValues(event.Owner, event.Method).Observe(event.Duration().Seconds())
	case model.Exception:
		o.inFlight.WithLabelValues(event.Owner, event.Method).Dec()
		o.calls.WithLabelValues(event.Owner, event.Method, outcomeError).Inc()
	}
	return nil
}

func (o *Output) Close() error {
	return nil
}
