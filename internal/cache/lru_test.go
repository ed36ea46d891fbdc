package cache

import (
	"sync"
	"testing"
	"time"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	f.now = f.now.Add(d)
	f.mu.Unlock()
}

func TestLRUCache_GetSet(t *testing.T) {
	c := NewLRUCache[string](2, time.Minute)
	c.Set("a", "1")
	if v, ok := c.Get("a"); !ok || v != "1" {
		t.Fatalf("Get(a) = %q, %v", v, ok)
	}
	if _, ok := c.Get("missing"); ok {
		t.Fatal("unexpected hit for missing key")
	}
}

func TestLRUCache_EvictsLeastRecentlyUsed(t *testing.T) {
	var evicted []string
	c := NewLRUCache[int](2, time.Minute, WithEvict[int](func(k string, _ int) {
		evicted = append(evicted, k)
	}))
	c.Set("a", 1)
	c.Set("b", 2)
	c.Get("a")
	c.Set("c", 3)

	if _, ok := c.Get("b"); ok {
		t.Fatal("expected b to be evicted")
	}
	if len(evicted) != 1 || evicted[0] != "b" {
		t.Fatalf("evicted = %v, want [b]", evicted)
	}
	if c.Size() != 2 {
		t.Fatalf("size = %d, want 2", c.Size())
	}
}

func TestLRUCache_TTL(t *testing.T) {
	clock := &fakeClock{now: time.Unix(0, 0)}
	var evicted []string
	c := NewLRUCache[int](10, time.Minute,
		withClock[int](clock.Now),
		WithEvict[int](func(k string, _ int) { evicted = append(evicted, k) }))

	c.Set("a", 1)
	c.Set("b", 2)
	clock.Advance(2 * time.Minute)

	if _, ok := c.Get("a"); ok {
		t.Fatal("expected a to be expired")
	}
	if n := c.CleanExpired(); n != 1 {
		t.Fatalf("CleanExpired = %d, want 1", n)
	}
	if len(evicted) != 2 {
		t.Fatalf("evicted = %v, want both keys", evicted)
	}
}

func TestLRUCache_SlidingTTL(t *testing.T) {
	clock := &fakeClock{now: time.Unix(0, 0)}
	c := NewLRUCache[int](10, time.Minute, withClock[int](clock.Now), WithSlidingTTL[int]())

	c.Set("a", 1)
	for i := 0; i < 5; i++ {
		clock.Advance(40 * time.Second)
		if _, ok := c.Get("a"); !ok {
			t.Fatalf("entry expired despite activity at step %d", i)
		}
	}
	clock.Advance(61 * time.Second)
	if _, ok := c.Get("a"); ok {
		t.Fatal("expected entry to expire after inactivity")
	}
}

func TestLRUCache_DeleteCallsEvict(t *testing.T) {
	called := false
	c := NewLRUCache[int](10, time.Minute, WithEvict[int](func(string, int) { called = true }))
	c.Set("a", 1)
	c.Delete("a")
	c.Delete("a")
	if !called {
		t.Fatal("expected evict callback on delete")
	}
}

func TestManager_CleanNow(t *testing.T) {
	clock := &fakeClock{now: time.Unix(0, 0)}
	c := NewLRUCache[int](10, time.Second, withClock[int](clock.Now))
	c.Set("a", 1)
	clock.Advance(2 * time.Second)

	m := NewManager(nil)
	m.Register("sessions", c)
	if n := m.CleanNow(); n != 1 {
		t.Fatalf("CleanNow = %d, want 1", n)
	}

	m.StartCleanup(time.Hour)
	m.Stop()
}
