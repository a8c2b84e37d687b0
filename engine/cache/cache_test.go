package cache

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"
)

func TestGetPut(t *testing.T) {
	c := New(Config[string, int]{CapacityBytes: 100})

	if err := c.Put("a", 1, 10); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	v, ok := c.Get("a")
	if !ok || v != 1 {
		t.Errorf("expected (1, true), got (%d, %v)", v, ok)
	}

	_, ok = c.Get("missing")
	if ok {
		t.Error("expected miss for absent key")
	}
}

func TestCapacityInvariant(t *testing.T) {
	c := New(Config[string, []byte]{CapacityBytes: 1000})

	// Random-ish workload: size never exceeds capacity after any Put.
	for i := range 50 {
		key := fmt.Sprintf("k%d", i)
		size := int64(100 + i*13%400)
		if err := c.Put(key, make([]byte, size), size); err != nil {
			t.Fatalf("Put %s failed: %v", key, err)
		}
		if c.SizeBytes() > 1000 {
			t.Fatalf("capacity exceeded after Put %s: %d bytes", key, c.SizeBytes())
		}
	}
}

func TestLRUEvictionOrder(t *testing.T) {
	// Worked example: capacity 1000, inserts of 400/400/400 evict A,
	// leaving {B, C} totaling 800.
	c := New(Config[string, string]{CapacityBytes: 1000})

	for _, k := range []string{"A", "B", "C"} {
		if err := c.Put(k, k, 400); err != nil {
			t.Fatalf("Put %s failed: %v", k, err)
		}
	}

	if _, ok := c.Get("A"); ok {
		t.Error("expected A to be evicted")
	}
	if _, ok := c.Get("B"); !ok {
		t.Error("expected B to survive")
	}
	if _, ok := c.Get("C"); !ok {
		t.Error("expected C to survive")
	}
	if c.SizeBytes() != 800 {
		t.Errorf("expected 800 bytes, got %d", c.SizeBytes())
	}
}

func TestGetPromotesRecency(t *testing.T) {
	c := New(Config[string, int]{CapacityBytes: 1000})

	c.Put("A", 1, 400)
	c.Put("B", 2, 400)

	// Touch A so B becomes the eviction candidate.
	c.Get("A")

	c.Put("C", 3, 400)

	if _, ok := c.Get("B"); ok {
		t.Error("expected B to be evicted after A was touched")
	}
	if _, ok := c.Get("A"); !ok {
		t.Error("expected A to survive")
	}
}

func TestEntryTooLarge(t *testing.T) {
	c := New(Config[string, int]{CapacityBytes: 100})

	c.Put("small", 1, 50)

	err := c.Put("huge", 2, 200)
	if !errors.Is(err, ErrEntryTooLarge) {
		t.Fatalf("expected ErrEntryTooLarge, got %v", err)
	}

	// The oversized reject must not have evicted anything.
	if _, ok := c.Get("small"); !ok {
		t.Error("expected existing entry to survive an oversized Put")
	}
}

func TestTTLLazyExpiry(t *testing.T) {
	c := New(Config[string, int]{CapacityBytes: 100})

	base := time.Now()
	c.now = func() time.Time { return base }

	c.PutTTL("a", 1, 10, 50*time.Millisecond)

	if _, ok := c.Get("a"); !ok {
		t.Fatal("expected hit before expiry")
	}

	// Advance past the TTL: lookup becomes a miss and evicts.
	c.now = func() time.Time { return base.Add(100 * time.Millisecond) }

	if _, ok := c.Get("a"); ok {
		t.Error("expected expired entry to miss")
	}
	if c.Len() != 0 {
		t.Errorf("expected expired entry to be removed, len=%d", c.Len())
	}
}

func TestSweepExpired(t *testing.T) {
	c := New(Config[string, int]{CapacityBytes: 100})

	base := time.Now()
	c.now = func() time.Time { return base }

	c.PutTTL("a", 1, 10, 10*time.Millisecond)
	c.PutTTL("b", 2, 10, 10*time.Millisecond)
	c.Put("forever", 3, 10)

	c.now = func() time.Time { return base.Add(time.Second) }

	if n := c.SweepExpired(); n != 2 {
		t.Errorf("expected 2 swept, got %d", n)
	}
	if _, ok := c.Get("forever"); !ok {
		t.Error("expected non-TTL entry to survive sweep")
	}
}

func TestDisposalHook(t *testing.T) {
	var disposed []string
	c := New(Config[string, int]{
		CapacityBytes: 100,
		OnEvict:       func(k string, _ int) { disposed = append(disposed, k) },
	})

	c.Put("a", 1, 60)
	c.Put("b", 2, 60) // evicts a

	if len(disposed) != 1 || disposed[0] != "a" {
		t.Fatalf("expected [a] disposed, got %v", disposed)
	}

	c.Invalidate("b")
	if len(disposed) != 2 || disposed[1] != "b" {
		t.Fatalf("expected b disposed on invalidation, got %v", disposed)
	}

	c.Put("c", 3, 10)
	c.Clear()
	if len(disposed) != 3 {
		t.Fatalf("expected c disposed on clear, got %v", disposed)
	}
}

func TestReplaceRefreshesSizeAndDisposes(t *testing.T) {
	var disposals int
	c := New(Config[string, int]{
		CapacityBytes: 100,
		OnEvict:       func(string, int) { disposals++ },
	})

	c.Put("a", 1, 40)
	c.Put("a", 2, 70)

	if disposals != 1 {
		t.Errorf("expected old value disposed on replace, got %d", disposals)
	}
	if c.SizeBytes() != 70 {
		t.Errorf("expected 70 bytes after replace, got %d", c.SizeBytes())
	}
	if v, _ := c.Get("a"); v != 2 {
		t.Errorf("expected replaced value 2, got %d", v)
	}
}

func TestTrim(t *testing.T) {
	c := New(Config[string, int]{CapacityBytes: 1000})

	c.Put("a", 1, 300)
	c.Put("b", 2, 300)
	c.Put("c", 3, 300)

	freed := c.Trim(400)
	if freed != 600 {
		t.Errorf("expected 600 freed, got %d", freed)
	}
	if c.SizeBytes() > 400 {
		t.Errorf("expected size <= 400, got %d", c.SizeBytes())
	}
	// The survivor must be the most recently used.
	if _, ok := c.Get("c"); !ok {
		t.Error("expected most recent entry to survive trim")
	}
}

func TestMaxEntries(t *testing.T) {
	c := New(Config[string, int]{MaxEntries: 2})

	c.Put("a", 1, 0)
	c.Put("b", 2, 0)
	c.Put("c", 3, 0)

	if c.Len() != 2 {
		t.Errorf("expected 2 entries, got %d", c.Len())
	}
	if _, ok := c.Get("a"); ok {
		t.Error("expected oldest entry evicted at max entries")
	}
}

func TestStats(t *testing.T) {
	c := New(Config[string, int]{CapacityBytes: 100})

	c.Put("a", 1, 10)
	c.Get("a")
	c.Get("a")
	c.Get("missing")

	s := c.Stats()
	if s.Hits != 2 || s.Misses != 1 {
		t.Errorf("expected 2 hits / 1 miss, got %d / %d", s.Hits, s.Misses)
	}
	if want := 2.0 / 3.0; s.HitRate < want-0.001 || s.HitRate > want+0.001 {
		t.Errorf("expected hit rate ~%v, got %v", want, s.HitRate)
	}
	if s.Len != 1 || s.SizeBytes != 10 {
		t.Errorf("unexpected len/size: %d / %d", s.Len, s.SizeBytes)
	}
}

func TestConcurrentAccess(t *testing.T) {
	c := New(Config[int, int]{MaxEntries: 128})

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := range 1000 {
			c.Put(i%200, i, 1)
		}
	}()
	for i := range 1000 {
		c.Get(i % 200)
	}
	<-done
}

func TestInvalidateFunc(t *testing.T) {
	c := New(Config[string, int]{MaxEntries: 16})

	disposed := 0
	c.onEvict = func(string, int) { disposed++ }

	c.Put("hero/1", 1, 1)
	c.Put("hero/2", 2, 1)
	c.Put("villain/1", 3, 1)

	n := c.InvalidateFunc(func(k string) bool { return strings.HasPrefix(k, "hero/") })
	if n != 2 {
		t.Fatalf("expected 2 invalidated, got %d", n)
	}
	if disposed != 2 {
		t.Errorf("expected disposal hook for each invalidated entry, got %d", disposed)
	}
	if _, ok := c.Get("villain/1"); !ok {
		t.Error("expected unmatched entry to survive")
	}
	if c.Len() != 1 {
		t.Errorf("unexpected len %d", c.Len())
	}
}
