package prom

import (
	"strings"
	"testing"

	"github.com/ivanbrykalov/polycache/cache"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestAdapter_HitMissEvictCounters(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	a := New(reg, "polycache", "test", "lru", nil)

	a.Hit()
	a.Hit()
	a.Miss()
	a.Evict(cache.EvictCapacity)
	a.Evict(cache.EvictTTL)
	a.Evict(cache.EvictCapacity)
	a.Size(7)

	if got := testutil.ToFloat64(a.hits); got != 2 {
		t.Fatalf("hits = %v, want 2", got)
	}
	if got := testutil.ToFloat64(a.misses); got != 1 {
		t.Fatalf("misses = %v, want 1", got)
	}
	if got := testutil.ToFloat64(a.size); got != 7 {
		t.Fatalf("size = %v, want 7", got)
	}
	if got := testutil.ToFloat64(a.evicts.WithLabelValues("capacity")); got != 2 {
		t.Fatalf("evicts[capacity] = %v, want 2", got)
	}
	if got := testutil.ToFloat64(a.evicts.WithLabelValues("ttl")); got != 1 {
		t.Fatalf("evicts[ttl] = %v, want 1", got)
	}
}

func TestAdapter_PolicyLabelAppliedAndNotOverridable(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	// A caller-supplied "policy" label must be overridden by policyName.
	a := New(reg, "polycache", "test", "s3fifo", prometheus.Labels{"policy": "bogus", "region": "eu"})
	a.Hit()

	mf, err := reg.Gather()
	if err != nil {
		t.Fatal(err)
	}

	var found bool
	for _, fam := range mf {
		if fam.GetName() != "polycache_test_hits_total" {
			continue
		}
		for _, m := range fam.GetMetric() {
			var sawPolicy, sawRegion bool
			for _, lp := range m.GetLabel() {
				switch lp.GetName() {
				case "policy":
					sawPolicy = true
					if lp.GetValue() != "s3fifo" {
						t.Fatalf("policy label = %q, want s3fifo", lp.GetValue())
					}
				case "region":
					sawRegion = true
					if lp.GetValue() != "eu" {
						t.Fatalf("region label = %q, want eu", lp.GetValue())
					}
				}
			}
			if !sawPolicy || !sawRegion {
				t.Fatal("expected both policy and region const labels")
			}
			found = true
		}
	}
	if !found {
		t.Fatal("polycache_test_hits_total not found")
	}
}

func TestAdapter_ImplementsCacheMetrics(t *testing.T) {
	t.Parallel()
	var _ cache.Metrics = (*Adapter)(nil)
}

func TestSegmentGauges_SetPerSegment(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	g := NewSegmentGauges(reg, "polycache", "test", "tinylfu")

	g.Set("window", 3)
	g.Set("probationary", 5)
	g.Set("protected", 2)

	if got := testutil.ToFloat64(g.gauges.WithLabelValues("window")); got != 3 {
		t.Fatalf("window = %v, want 3", got)
	}
	if got := testutil.ToFloat64(g.gauges.WithLabelValues("probationary")); got != 5 {
		t.Fatalf("probationary = %v, want 5", got)
	}
	if got := testutil.ToFloat64(g.gauges.WithLabelValues("protected")); got != 2 {
		t.Fatalf("protected = %v, want 2", got)
	}
}

func TestReason_UnknownFallsBackToPolicy(t *testing.T) {
	t.Parallel()

	if got := reason(cache.EvictReason(99)); got != "policy" {
		t.Fatalf("reason(99) = %q, want %q", got, "policy")
	}
}

func TestNew_NilRegistryUsesDefault(t *testing.T) {
	// Gathering DefaultRegisterer's output is the only way to confirm
	// registration succeeded without panicking; name with a unique
	// subsystem to avoid colliding with other tests sharing the process
	// default registry.
	a := New(nil, "polycache_default_reg_test", "x", "lru", nil)
	a.Hit()

	mf, err := prometheus.DefaultGatherer.Gather()
	if err != nil {
		t.Fatal(err)
	}
	for _, fam := range mf {
		if strings.HasPrefix(fam.GetName(), "polycache_default_reg_test_") {
			return
		}
	}
	t.Fatal("metric not registered against DefaultRegisterer")
}
