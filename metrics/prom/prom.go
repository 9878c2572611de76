// Package prom adapts cache.Metrics to Prometheus.
package prom

import (
	"github.com/ivanbrykalov/polycache/cache"
	"github.com/prometheus/client_golang/prometheus"
)

// Adapter implements cache.Metrics and exports Prometheus counters and
// gauges. Safe for concurrent use; all Prometheus metric types are
// goroutine-safe.
type Adapter struct {
	hits   prometheus.Counter
	misses prometheus.Counter
	evicts *prometheus.CounterVec
	size   prometheus.Gauge
}

// New constructs a Prometheus metrics adapter.
//   - reg: registry to register metrics with (nil => prometheus.DefaultRegisterer)
//   - ns, sub: Prometheus namespace and subsystem
//   - policyName: the active eviction policy's name (e.g. "lru",
//     "s3fifo", "tinylfu"), applied as a constant "policy" label so
//     metrics from differently-configured caches don't collide in one
//     registry.
//   - constLabels: additional static labels applied to all metrics (may
//     be nil); a "policy" key here is overridden by policyName.
func New(reg prometheus.Registerer, ns, sub, policyName string, constLabels prometheus.Labels) *Adapter {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	labels := prometheus.Labels{}
	for k, v := range constLabels {
		labels[k] = v
	}
	labels["policy"] = policyName

	a := &Adapter{
		hits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   ns,
			Subsystem:   sub,
			Name:        "hits_total",
			Help:        "Cache hits",
			ConstLabels: labels,
		}),
		misses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   ns,
			Subsystem:   sub,
			Name:        "misses_total",
			Help:        "Cache misses",
			ConstLabels: labels,
		}),
		evicts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace:   ns,
				Subsystem:   sub,
				Name:        "evictions_total",
				Help:        "Cache evictions by reason",
				ConstLabels: labels,
			},
			[]string{"reason"},
		),
		size: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   ns,
			Subsystem:   sub,
			Name:        "size_entries",
			Help:        "Number of resident entries",
			ConstLabels: labels,
		}),
	}
	reg.MustRegister(a.hits, a.misses, a.evicts, a.size)
	return a
}

// Hit increments the hit counter.
func (a *Adapter) Hit() { a.hits.Inc() }

// Miss increments the miss counter.
func (a *Adapter) Miss() { a.misses.Inc() }

// Evict increments the eviction counter with a reason label.
func (a *Adapter) Evict(r cache.EvictReason) {
	a.evicts.WithLabelValues(reason(r)).Inc()
}

// Size updates the resident-entry gauge.
func (a *Adapter) Size(entries int) {
	a.size.Set(float64(entries))
}

// reason maps EvictReason to a stable label value.
func reason(r cache.EvictReason) string {
	switch r {
	case cache.EvictTTL:
		return "ttl"
	case cache.EvictCapacity:
		return "capacity"
	default:
		return "policy"
	}
}

// SegmentGauges exposes per-segment occupancy for policies with
// internal subdivisions (S3-FIFO's Small/Main/Ghost, W-TinyLFU's
// Window/Probationary/Protected). These policies don't call
// cache.Metrics per segment, only Size for the resident total, so
// callers poll (*cache.Cache[K,V]).SegmentSizes and feed the result in
// here periodically (typically from cmd/bench's reporting loop).
type SegmentGauges struct {
	gauges *prometheus.GaugeVec
}

// NewSegmentGauges registers a "segment"-labeled gauge vector under the
// same namespace/subsystem convention as New.
func NewSegmentGauges(reg prometheus.Registerer, ns, sub, policyName string) *SegmentGauges {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	g := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace:   ns,
		Subsystem:   sub,
		Name:        "segment_entries",
		Help:        "Resident entries per policy segment",
		ConstLabels: prometheus.Labels{"policy": policyName},
	}, []string{"segment"})
	reg.MustRegister(g)
	return &SegmentGauges{gauges: g}
}

// Set reports the resident count for a named segment (e.g. "small",
// "main", "ghost", "window", "probationary", "protected").
func (s *SegmentGauges) Set(segment string, entries int) {
	s.gauges.WithLabelValues(segment).Set(float64(entries))
}

// Compile-time check: ensure Adapter implements cache.Metrics.
var _ cache.Metrics = (*Adapter)(nil)
