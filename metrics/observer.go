// Package metrics exports sjson encode and decode calls as Prometheus
// metrics.
package metrics

import (
	"errors"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/Neumenon/sjson/sjson"
)

// Observer implements sjson.Observer with a call counter and a latency
// histogram, both labelled by operation and type name.
type Observer struct {
	calls    *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

var _ sjson.Observer = (*Observer)(nil)

// Options configure the metric names.
type Options struct {
	Namespace string // Defaults to "sjson"
	Subsystem string
	Buckets   []float64 // Defaults to DefaultBuckets
}

// DefaultBuckets covers calls from one microsecond to one second.
var DefaultBuckets = []float64{1e-6, 5e-6, 1e-5, 5e-5, 1e-4, 5e-4, 1e-3, 5e-3, 1e-2, 0.1, 1}

// NewObserver creates an observer and registers its collectors with reg.
func NewObserver(reg prometheus.Registerer, opts Options) (*Observer, error) {
	if opts.Namespace == "" {
		opts.Namespace = "sjson"
	}
	if opts.Buckets == nil {
		opts.Buckets = DefaultBuckets
	}
	o := &Observer{
		calls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: opts.Namespace,
				Subsystem: opts.Subsystem,
				Name:      "calls_total",
				Help:      "Total number of encode and decode calls",
			},
			[]string{"op", "type", "result"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: opts.Namespace,
				Subsystem: opts.Subsystem,
				Name:      "call_duration_seconds",
				Help:      "Encode and decode call duration in seconds",
				Buckets:   opts.Buckets,
			},
			[]string{"op", "type"},
		),
	}
	for _, c := range []prometheus.Collector{o.calls, o.duration} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return o, nil
}

// MustNewObserver is like NewObserver but panics if registration fails.
func MustNewObserver(reg prometheus.Registerer, opts Options) *Observer {
	o, err := NewObserver(reg, opts)
	if err != nil {
		panic(err)
	}
	return o
}

// Observe records one call.
func (o *Observer) Observe(op sjson.Op, typeName string, elapsed time.Duration, err error) {
	o.calls.WithLabelValues(string(op), typeName, Result(err)).Inc()
	o.duration.WithLabelValues(string(op), typeName).Observe(elapsed.Seconds())
}

var sentinels = []error{
	sjson.ErrUnexpectedToken,
	sjson.ErrUnexpectedEnd,
	sjson.ErrTypeMismatch,
	sjson.ErrUnknownKey,
	sjson.ErrInvalidEscape,
	sjson.ErrMalformedNumber,
	sjson.ErrMissingField,
	sjson.ErrTrailingData,
	sjson.ErrInvalidKeyKind,
	sjson.ErrInvalidFloatingPoint,
}

// Result maps a call error to a bounded label value: "ok", the snake_case
// sentinel message (e.g. "missing_field"), or "other".
func Result(err error) string {
	if err == nil {
		return "ok"
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return strings.ReplaceAll(s.Error(), " ", "_")
		}
	}
	return "other"
}
