// Package promobs exports graph, LLM and tool metrics to Prometheus.
//
// The Observer records counters and histograms in a prometheus.Registry and
// delegates tracing and logging to a wrapped observability.Provider, so it
// composes with slogobs:
//
//	observer := promobs.New(slogobs.New())
//	http.Handle("/metrics", observer.Handler())
package promobs

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/AndersonCRodrigues/langgraph-langsmith/providers/observability"
)

// Observer implements observability.Provider with Prometheus metrics.
//
// A metric's label names are fixed by the attributes of its first
// observation. Later observations fill missing labels with "" and drop
// attributes that are not labels of the metric.
type Observer struct {
	observability.Tracer
	observability.Logger

	registry *prometheus.Registry
	buckets  []float64

	mu         sync.Mutex
	counters   map[string]*counter
	histograms map[string]*histogram
}

var _ observability.Provider = (*Observer)(nil)

// Option configures an Observer.
type Option func(*Observer)

// WithRegistry records metrics in the given registry instead of a fresh one.
func WithRegistry(registry *prometheus.Registry) Option {
	return func(o *Observer) {
		o.registry = registry
	}
}

// WithBuckets sets the histogram buckets, in seconds.
func WithBuckets(buckets []float64) Option {
	return func(o *Observer) {
		o.buckets = buckets
	}
}

// New wraps delegate, which handles spans and log records. A nil delegate
// discards them.
func New(delegate observability.Provider, opts ...Option) *Observer {
	var tracer observability.Tracer = noopTracer{}
	var logger observability.Logger = noopLogger{}
	if delegate != nil {
		tracer, logger = delegate, delegate
	}

	o := &Observer{
		Tracer:     tracer,
		Logger:     logger,
		buckets:    prometheus.DefBuckets,
		counters:   make(map[string]*counter),
		histograms: make(map[string]*histogram),
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.registry == nil {
		o.registry = prometheus.NewRegistry()
	}
	return o
}

// Registry returns the registry metrics are recorded in.
func (o *Observer) Registry() *prometheus.Registry {
	return o.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (o *Observer) Handler() http.Handler {
	return promhttp.HandlerFor(o.registry, promhttp.HandlerOpts{Registry: o.registry})
}

// Counter returns the named counter. The Prometheus name is the sanitized
// name with a _total suffix.
func (o *Observer) Counter(name string) observability.Counter {
	o.mu.Lock()
	defer o.mu.Unlock()
	if c, exists := o.counters[name]; exists {
		return c
	}
	c := &counter{observer: o, name: metricName(name) + "_total", help: name}
	o.counters[name] = c
	return c
}

// Histogram returns the named histogram.
func (o *Observer) Histogram(name string) observability.Histogram {
	o.mu.Lock()
	defer o.mu.Unlock()
	if h, exists := o.histograms[name]; exists {
		return h
	}
	h := &histogram{observer: o, name: metricName(name), help: name}
	o.histograms[name] = h
	return h
}

type counter struct {
	observer *Observer
	name     string
	help     string

	once   sync.Once
	vec    *prometheus.CounterVec
	labels []string
}

func (c *counter) Add(ctx context.Context, value int64, attrs ...observability.Attribute) {
	if value < 0 {
		c.observer.Warn(ctx, "ignoring negative counter increment",
			observability.String("metric", c.name), observability.Int64("value", value))
		return
	}

	c.once.Do(func() {
		c.labels = labelNames(attrs)
		vec := prometheus.NewCounterVec(prometheus.CounterOpts{Name: c.name, Help: c.help}, c.labels)
		c.vec = register(c.observer.registry, vec)
	})
	c.vec.WithLabelValues(labelValues(c.labels, attrs)...).Add(float64(value))
}

type histogram struct {
	observer *Observer
	name     string
	help     string

	once   sync.Once
	vec    *prometheus.HistogramVec
	labels []string
}

func (h *histogram) Record(_ context.Context, value float64, attrs ...observability.Attribute) {
	h.once.Do(func() {
		h.labels = labelNames(attrs)
		vec := prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    h.name,
			Help:    h.help,
			Buckets: h.observer.buckets,
		}, h.labels)
		h.vec = register(h.observer.registry, vec)
	})
	h.vec.WithLabelValues(labelValues(h.labels, attrs)...).Observe(value)
}

// register adds collector to the registry, reusing an equivalent collector
// that is already registered.
func register[C prometheus.Collector](registry *prometheus.Registry, collector C) C {
	if err := registry.Register(collector); err != nil {
		var already prometheus.AlreadyRegisteredError
		if errors.As(err, &already) {
			if existing, ok := already.ExistingCollector.(C); ok {
				return existing
			}
		}
		panic(fmt.Sprintf("promobs: register metric: %v", err))
	}
	return collector
}

func labelNames(attrs []observability.Attribute) []string {
	seen := make(map[string]bool, len(attrs))
	names := make([]string, 0, len(attrs))
	for _, attr := range attrs {
		name := metricName(attr.Key)
		if !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

func labelValues(labels []string, attrs []observability.Attribute) []string {
	byName := make(map[string]string, len(attrs))
	for _, attr := range attrs {
		byName[metricName(attr.Key)] = fmt.Sprint(attr.Value)
	}
	values := make([]string, len(labels))
	for i, label := range labels {
		values[i] = byName[label]
	}
	return values
}

// metricName maps a dotted name to a valid Prometheus metric or label name.
func metricName(name string) string {
	var sb strings.Builder
	for i, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r == '_':
			sb.WriteRune(r)
		case r >= '0' && r <= '9' && i > 0:
			sb.WriteRune(r)
		default:
			sb.WriteByte('_')
		}
	}
	return sb.String()
}

type noopTracer struct{}

func (noopTracer) StartSpan(ctx context.Context, _ string, _ ...observability.Attribute) (context.Context, observability.Span) {
	return ctx, noopSpan{}
}

type noopSpan struct{}

func (noopSpan) End()                                        {}
func (noopSpan) SetAttributes(...observability.Attribute)    {}
func (noopSpan) SetStatus(observability.StatusCode, string)  {}
func (noopSpan) RecordError(error)                           {}
func (noopSpan) AddEvent(string, ...observability.Attribute) {}

type noopLogger struct{}

func (noopLogger) Trace(context.Context, string, ...observability.Attribute) {}
func (noopLogger) Debug(context.Context, string, ...observability.Attribute) {}
func (noopLogger) Info(context.Context, string, ...observability.Attribute)  {}
func (noopLogger) Warn(context.Context, string, ...observability.Attribute)  {}
func (noopLogger) Error(context.Context, string, ...observability.Attribute) {}
