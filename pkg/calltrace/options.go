package calltrace

import (
	"io"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type options struct {
	writer       io.Writer
	registerer   prometheus.Registerer
	namespace    string
	onError      func(error)
	drainTimeout time.Duration
	now          func() time.Time
}

// Option configures a Tracer.
type Option func(*options)

// WithWriter sends call lines to w instead of stdout.
func WithWriter(w io.Writer) Option {
	return func(o *options) {
		o.writer = w
	}
}

// WithMetrics registers call metrics with reg. namespace prefixes every
// metric name. Default: no metrics.
func WithMetrics(reg prometheus.Registerer, namespace string) Option {
	return func(o *options) {
		o.registerer = reg
		o.namespace = namespace
	}
}

// WithOnError sets the callback invoked when writing a line fails.
// Default: logs a warning via logrus.
func WithOnError(f func(error)) Option {
	return func(o *options) {
		o.onError = f
	}
}

// WithDrainTimeout bounds how long Close waits for pending lines.
// Default: 5s.
func WithDrainTimeout(d time.Duration) Option {
	return func(o *options) {
		o.drainTimeout = d
	}
}

// WithClock replaces time.Now as the source of call timestamps.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

func defaultOptions() options {
	return options{
		namespace: "calltrace",
	}
}
