package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

var _ Sink = &Prometheus{}

// Option for the Prometheus sink
type Option func(*Prometheus)

// WithNamespace sets the namespace prefixed to all metric names. The default is "termstore".
func WithNamespace(ns string) Option {
	return func(p *Prometheus) {
		if ns != "" {
			p.namespace = ns
		}
	}
}

// WithRegisterer sets the prometheus registry to register collectors into.
//
// The default is a new, private registry.
func WithRegisterer(r *prometheus.Registry) Option {
	return func(p *Prometheus) {
		if r != nil {
			p.registry = r
		}
	}
}

// WithBuckets sets the histogram buckets used for timings, in millisecs
func WithBuckets(buckets []float64) Option {
	return func(p *Prometheus) {
		if len(buckets) > 0 {
			p.buckets = buckets
		}
	}
}

// WithLogger sets a logger to report registration issues
func WithLogger(l *zap.Logger) Option {
	return func(p *Prometheus) {
		if l != nil {
			p.l = l
		}
	}
}

// Prometheus is a Sink exporting counters and histograms to a prometheus registry.
//
// Collectors are registered lazily, on the first measurement of a given name.
// The tag keys used on the first measurement become the labels of the collector.
type Prometheus struct {
	namespace string
	registry  *prometheus.Registry
	buckets   []float64
	l         *zap.Logger

	mx         sync.Mutex
	counters   map[string]*prometheus.CounterVec
	histograms map[string]*prometheus.HistogramVec
}

// NewPrometheus builds a Sink backed by prometheus collectors
func NewPrometheus(opts ...Option) *Prometheus {
	p := &Prometheus{
		namespace:  "termstore",
		registry:   prometheus.NewRegistry(),
		buckets:    prometheus.ExponentialBuckets(0.5, 2, 14),
		l:          zap.NewNop(),
		counters:   make(map[string]*prometheus.CounterVec),
		histograms: make(map[string]*prometheus.HistogramVec),
	}
	for _, apply := range opts {
		apply(p)
	}
	return p
}

// Gatherer exposes the registry of collectors
func (p *Prometheus) Gatherer() prometheus.Gatherer {
	return p.registry
}

// Inc increments a counter
func (p *Prometheus) Inc(name string, tags map[string]string) {
	p.Add(name, 1, tags)
}

// Add adds some value to a counter
func (p *Prometheus) Add(name string, value int64, tags map[string]string) {
	vec := p.counter(name, tags)
	if vec == nil {
		return
	}
	c, err := vec.GetMetricWith(prometheus.Labels(tags))
	if err != nil {
		p.l.Debug("metric dropped", zap.String("metric", name), zap.Error(err))
		return
	}
	c.Add(float64(value))
}

// Since feeds a millisecs timing distribution
func (p *Prometheus) Since(name string, start time.Time, tags map[string]string) {
	vec := p.histogram(name, tags)
	if vec == nil {
		return
	}
	h, err := vec.GetMetricWith(prometheus.Labels(tags))
	if err != nil {
		p.l.Debug("metric dropped", zap.String("metric", name), zap.Error(err))
		return
	}
	h.Observe(millis(start))
}

func (p *Prometheus) counter(name string, tags map[string]string) *prometheus.CounterVec {
	p.mx.Lock()
	defer p.mx.Unlock()

	if vec, ok := p.counters[name]; ok {
		return vec
	}
	vec := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: p.namespace,
		Name:      name,
		Help:      "counter " + name,
	}, sortedKeys(tags))
	if err := p.registry.Register(vec); err != nil {
		p.l.Warn("cannot register counter", zap.String("metric", name), zap.Error(err))
		return nil
	}
	p.counters[name] = vec
	return vec
}

func (p *Prometheus) histogram(name string, tags map[string]string) *prometheus.HistogramVec {
	p.mx.Lock()
	defer p.mx.Unlock()

	if vec, ok := p.histograms[name]; ok {
		return vec
	}
	vec := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: p.namespace,
		Name:      name,
		Help:      "timing distribution " + name,
		Buckets:   p.buckets,
	}, sortedKeys(tags))
	if err := p.registry.Register(vec); err != nil {
		p.l.Warn("cannot register histogram", zap.String("metric", name), zap.Error(err))
		return nil
	}
	p.histograms[name] = vec
	return vec
}
