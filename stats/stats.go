// Package stats collects named performance counters registered by the timing
// models and exports them.
package stats

import (
	"sort"
	"sync"

	"github.com/sarchlab/dramperf/timing/simtime"
)

// Metric is a counter whose current value can be read at export time.
type Metric interface {
	Value() float64
}

// MetricFunc adapts a function to the Metric interface.
type MetricFunc func() float64

// Value returns the result of calling f.
func (f MetricFunc) Value() float64 {
	return f()
}

// Uint64 exposes an integer counter.
func Uint64(p *uint64) Metric {
	return MetricFunc(func() float64 { return float64(*p) })
}

// Time exposes a simulated-time counter in femtoseconds.
func Time(p *simtime.Time) Metric {
	return MetricFunc(func() float64 { return float64(*p) })
}

// Sink accepts metric registrations. Object and index identify the
// registering component, e.g. ("dram", 3).
type Sink interface {
	RegisterMetric(object string, index int, name string, m Metric)
}

type discard struct{}

func (discard) RegisterMetric(string, int, string, Metric) {}

// Discard is a Sink that drops every registration.
var Discard Sink = discard{}

// Sample is the value of one metric at snapshot time.
type Sample struct {
	Object string
	Index  int
	Name   string
	Value  float64
}

type key struct {
	object string
	index  int
	name   string
}

// Registry is an in-memory Sink.
type Registry struct {
	mu      sync.Mutex
	metrics map[key]Metric
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		metrics: make(map[key]Metric),
	}
}

// RegisterMetric records m under (object, index, name). A later registration
// with the same identity replaces the earlier one.
func (r *Registry) RegisterMetric(object string, index int, name string, m Metric) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.metrics[key{object, index, name}] = m
}

// Len returns the number of registered metrics.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.metrics)
}

// Lookup reads a single metric.
func (r *Registry) Lookup(object string, index int, name string) (float64, bool) {
	r.mu.Lock()
	m, ok := r.metrics[key{object, index, name}]
	r.mu.Unlock()

	if !ok {
		return 0, false
	}

	return m.Value(), true
}

// Snapshot reads every metric, sorted by object, index and name.
func (r *Registry) Snapshot() []Sample {
	r.mu.Lock()
	defer r.mu.Unlock()

	samples := make([]Sample, 0, len(r.metrics))
	for k, m := range r.metrics {
		samples = append(samples, Sample{
			Object: k.object,
			Index:  k.index,
			Name:   k.name,
			Value:  m.Value(),
		})
	}

	sort.Slice(samples, func(i, j int) bool {
		a, b := samples[i], samples[j]
		if a.Object != b.Object {
			return a.Object < b.Object
		}
		if a.Index != b.Index {
			return a.Index < b.Index
		}
		return a.Name < b.Name
	})

	return samples
}
