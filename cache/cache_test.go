package cache

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"golang.org/x/sync/errgroup"
)

type fakeClock struct{ ms int64 }

func (f *fakeClock) NowUnixMilli() int64 { return f.ms }
func (f *fakeClock) add(d time.Duration) { f.ms += d.Milliseconds() }

// Uses a fake clock to avoid timing flakiness.
func TestCache_TTL_FakeClock(t *testing.T) {
	t.Parallel()

	clk := &fakeClock{}
	c, err := New[string, string](Options[string, string]{CacheSize: 4, TTLEnabled: true, Clock: clk})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = c.Close() })

	if err := c.PutWithTTL("x", "v", 100*time.Millisecond); err != nil {
		t.Fatal(err)
	}
	if _, ok := c.Get("x"); !ok {
		t.Fatal("fresh miss")
	}
	clk.add(200 * time.Millisecond)
	if _, ok := c.Get("x"); ok {
		t.Fatal("expired hit")
	}
}

func TestCache_PutWithTTL_DisabledByDefault(t *testing.T) {
	t.Parallel()

	c, err := New[string, string](Options[string, string]{CacheSize: 4})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = c.Close() })

	if err := c.PutWithTTL("x", "v", time.Second); err != ErrTTLDisabled {
		t.Fatalf("PutWithTTL err = %v, want ErrTTLDisabled", err)
	}
}

// Basic Put/Get/Remove semantics.
func TestCache_BasicPutGetRemove(t *testing.T) {
	t.Parallel()

	c, err := New[string, int](Options[string, int]{CacheSize: 8})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = c.Close() })

	c.Put("a", 1)
	if v, ok := c.Get("a"); !ok || v != 1 {
		t.Fatalf("Get a want 1, got %v ok=%v", v, ok)
	}

	c.Put("a", 11)
	if v, ok := c.Get("a"); !ok || v != 11 {
		t.Fatalf("Get a want 11, got %v ok=%v", v, ok)
	}

	if !c.Remove("a") {
		t.Fatal("Remove a must be true")
	}
	if _, ok := c.Get("a"); ok {
		t.Fatal("a must be absent after Remove")
	}
	if c.Remove("a") {
		t.Fatal("Remove on absent key must be false")
	}
}

// Deterministic LRU eviction: single shard, small capacity.
func TestCache_EvictionLRU_SingleShard(t *testing.T) {
	t.Parallel()

	c, err := New[string, int](Options[string, int]{
		CacheSize:  2,
		ShardCount: 1, // force a single shard so LRU is global
		Policy:     NewLRU[string, int](),
	})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = c.Close() })

	c.Put("a", 1) // LRU = a
	c.Put("b", 2) // MRU = b

	if _, ok := c.Get("a"); !ok { // promote a -> MRU
		t.Fatal("expect hit for a")
	}
	c.Put("c", 3) // overflow -> evict LRU (b)

	if _, ok := c.Get("b"); ok {
		t.Fatal("b must be evicted")
	}
	if _, ok := c.Get("a"); !ok {
		t.Fatal("a must survive (promoted)")
	}
	if v, ok := c.Get("c"); !ok || v != 3 {
		t.Fatal("c must be present")
	}
}

func TestCache_DefaultPolicyIsLRU(t *testing.T) {
	t.Parallel()

	c, err := New[string, int](Options[string, int]{CacheSize: 2, ShardCount: 1})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = c.Close() })

	c.Put("a", 1)
	c.Put("b", 2)
	c.Put("c", 3) // no prior Get, so "a" (insertion-oldest) is evicted

	if _, ok := c.Get("a"); ok {
		t.Fatal("a must be evicted under default LRU")
	}
}

func TestCache_ConstructionValidation(t *testing.T) {
	t.Parallel()

	if _, err := New[string, int](Options[string, int]{CacheSize: 0}); err != ErrZeroCapacity {
		t.Fatalf("err = %v, want ErrZeroCapacity", err)
	}
	if _, err := New[string, int](Options[string, int]{CacheSize: 1, ShardCount: -1}); err != ErrZeroShardCount {
		t.Fatalf("err = %v, want ErrZeroShardCount", err)
	}
	if _, err := New[string, int](Options[string, int]{CacheSize: 1, MaxLoadPercentage: 101}); err != ErrInvalidLoadFactor {
		t.Fatalf("err = %v, want ErrInvalidLoadFactor", err)
	}
}

func TestCache_Count_SumsAcrossShards(t *testing.T) {
	t.Parallel()

	c, err := New[int, int](Options[int, int]{CacheSize: 100, ShardCount: 8})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = c.Close() })

	for i := 0; i < 50; i++ {
		c.Put(i, i)
	}
	if got := c.Count(); got != 50 {
		t.Fatalf("Count() = %d, want 50", got)
	}
}

func TestCache_SegmentSizes_NilForSegmentlessPolicies(t *testing.T) {
	t.Parallel()

	c, err := New[int, int](Options[int, int]{CacheSize: 8, Policy: NewLRU[int, int]()})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = c.Close() })

	if got := c.SegmentSizes(); got != nil {
		t.Fatalf("SegmentSizes() = %v, want nil for LRU", got)
	}
}

func TestCache_SegmentSizes_S3FIFO(t *testing.T) {
	t.Parallel()

	c, err := New[int, int](Options[int, int]{
		CacheSize:  20,
		ShardCount: 1,
		Policy:     NewS3FIFO[int, int](10),
	})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = c.Close() })

	for i := 0; i < 10; i++ {
		c.Put(i, i)
	}
	sizes := c.SegmentSizes()
	if sizes == nil {
		t.Fatal("SegmentSizes() must be non-nil for S3-FIFO")
	}
	if sizes["small"]+sizes["main"] != c.Count() {
		t.Fatalf("small+main = %d, want Count() = %d", sizes["small"]+sizes["main"], c.Count())
	}
}

func TestCache_Close_MakesOperationsNoOp(t *testing.T) {
	t.Parallel()

	c, err := New[string, int](Options[string, int]{CacheSize: 4})
	if err != nil {
		t.Fatal(err)
	}
	c.Put("a", 1)
	if err := c.Close(); err != nil {
		t.Fatal(err)
	}

	if _, ok := c.Get("a"); ok {
		t.Fatal("Get must report absent after Close")
	}
	c.Put("b", 2) // must not panic
	if c.Contains("a") {
		t.Fatal("Contains must report false after Close")
	}
	if c.Remove("a") {
		t.Fatal("Remove must report false after Close")
	}
}

// Singleflight test: concurrent GetOrLoad calls for the same key should
// trigger the Loader at most once.
func TestCache_GetOrLoad_Singleflight(t *testing.T) {
	var calls int64

	c, err := New[string, string](Options[string, string]{
		CacheSize: 64,
		Loader: func(_ context.Context, k string) (string, error) {
			atomic.AddInt64(&calls, 1)
			time.Sleep(5 * time.Millisecond) // simulate I/O
			return "v:" + k, nil
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = c.Close() })

	const n = 64
	var g errgroup.Group
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	for i := 0; i < n; i++ {
		g.Go(func() error {
			v, err := c.GetOrLoad(ctx, "k")
			if err != nil {
				return err
			}
			if v != "v:k" {
				return fmt.Errorf("got %q", v)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatal(err)
	}

	if got := atomic.LoadInt64(&calls); got != 1 {
		t.Fatalf("loader must run exactly once, got %d", got)
	}

	if v, err := c.GetOrLoad(context.Background(), "k"); err != nil || v != "v:k" {
		t.Fatalf("second GetOrLoad failed: v=%q err=%v", v, err)
	}
}

func TestCache_GetOrLoad_NoLoaderConfigured(t *testing.T) {
	t.Parallel()

	c, err := New[string, string](Options[string, string]{CacheSize: 4})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = c.Close() })

	if _, err := c.GetOrLoad(context.Background(), "x"); err != ErrNoLoader {
		t.Fatalf("err = %v, want ErrNoLoader", err)
	}
}

func TestCache_GetOrLoad_PropagatesLoaderError(t *testing.T) {
	t.Parallel()

	wantErr := fmt.Errorf("boom")
	c, err := New[string, string](Options[string, string]{
		CacheSize: 4,
		Loader: func(context.Context, string) (string, error) {
			return "", wantErr
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = c.Close() })

	if _, err := c.GetOrLoad(context.Background(), "x"); err != wantErr {
		t.Fatalf("err = %v, want %v", err, wantErr)
	}
}

func TestCounterMetrics_TracksHitsMissesEvictions(t *testing.T) {
	t.Parallel()

	m := &CounterMetrics{}
	c, err := New[int, int](Options[int, int]{
		CacheSize:  2,
		ShardCount: 1,
		Metrics:    m,
	})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = c.Close() })

	c.Put(1, 1)
	c.Put(2, 2)
	c.Get(1) // hit
	c.Get(3) // miss
	c.Put(3, 3) // overflow -> one eviction

	if m.Hits() != 1 {
		t.Fatalf("Hits() = %d, want 1", m.Hits())
	}
	if m.Misses() != 1 {
		t.Fatalf("Misses() = %d, want 1", m.Misses())
	}
	if m.Evictions() != 1 {
		t.Fatalf("Evictions() = %d, want 1", m.Evictions())
	}
}

func TestCache_OnEvictCallback(t *testing.T) {
	t.Parallel()

	var evicted []string
	c, err := New[string, int](Options[string, int]{
		CacheSize:  2,
		ShardCount: 1,
		OnEvict: func(k string, v int, reason EvictReason) {
			evicted = append(evicted, k)
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = c.Close() })

	c.Put("a", 1)
	c.Put("b", 2)
	c.Put("c", 3) // evicts "a"

	if len(evicted) != 1 || evicted[0] != "a" {
		t.Fatalf("evicted = %v, want [a]", evicted)
	}
}
