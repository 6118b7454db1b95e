package cache

import (
	"errors"
	"sync"
	"testing"
	"time"
)

func freezeNow(t *testing.T) *time.Time {
	t.Helper()
	base := time.Now()
	now = func() time.Time { return base }
	t.Cleanup(func() { now = time.Now })
	return &base
}

func TestTTLCache_SetGet_NoTTL(t *testing.T) {
	c := NewTTLCache[string, int](Options{})
	c.Set("a", 1, 0)
	if v, ok := c.Get("a"); !ok || v != 1 {
		t.Fatalf("expected hit with value 1, got ok=%v v=%v", ok, v)
	}
	if c.Len() != 1 {
		t.Fatalf("expected Len=1, got %d", c.Len())
	}
}

func TestTTLCache_ExpiryAndPurge(t *testing.T) {
	c := NewTTLCache[string, string](Options{ConcurrencySafe: true})
	base := freezeNow(t)

	c.Set("k", "v", time.Second)
	c.Set("forever", "v", 0)
	if _, ok := c.Get("k"); !ok {
		t.Fatalf("expected hit before expiry")
	}

	*base = base.Add(2 * time.Second)
	if _, ok := c.Get("k"); ok {
		t.Fatalf("expected miss after expiry")
	}
	if n := c.PurgeExpired(); n != 1 {
		t.Fatalf("expected 1 purged entry, got %d", n)
	}
	if c.Len() != 1 {
		t.Fatalf("expected Len=1 after purge, got %d", c.Len())
	}
}

func TestTTLCache_GetOrLoad(t *testing.T) {
	c := NewTTLCache[string, int](Options{ConcurrencySafe: true})
	calls := 0
	load := func() (int, error) {
		calls++
		return 42, nil
	}

	for i := 0; i < 3; i++ {
		v, err := c.GetOrLoad("answer", time.Minute, load)
		if err != nil || v != 42 {
			t.Fatalf("unexpected result v=%d err=%v", v, err)
		}
	}
	if calls != 1 {
		t.Fatalf("expected loader to run once, ran %d times", calls)
	}
}

func TestTTLCache_GetOrLoad_ErrorNotCached(t *testing.T) {
	c := NewTTLCache[string, int](Options{})
	boom := errors.New("boom")

	if _, err := c.GetOrLoad("k", 0, func() (int, error) { return 0, boom }); !errors.Is(err, boom) {
		t.Fatalf("expected loader error, got %v", err)
	}
	if c.Len() != 0 {
		t.Fatalf("failed load must not be cached")
	}
}

func TestTTLCache_GetOrLoad_InvalidatedDuringLoadIsNotCached(t *testing.T) {
	c := NewTTLCache[string, string](Options{ConcurrencySafe: true})

	v, err := c.GetOrLoad("p1", time.Minute, func() (string, error) {
		// an invalidation lands while the load is in flight
		c.Delete("p1")
		return "stale", nil
	})
	if err != nil || v != "stale" {
		t.Fatalf("expected the loaded value to be returned, got v=%q err=%v", v, err)
	}
	if _, ok := c.Get("p1"); ok {
		t.Fatalf("load overlapping a Delete must not be cached")
	}

	if _, err := c.GetOrLoad("p1", time.Minute, func() (string, error) {
		c.Clear()
		return "stale", nil
	}); err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	if _, ok := c.Get("p1"); ok {
		t.Fatalf("load overlapping a Clear must not be cached")
	}

	if _, err := c.GetOrLoad("p1", time.Minute, func() (string, error) {
		c.Set("p1", "fresh", time.Minute)
		return "stale", nil
	}); err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	if v, ok := c.Get("p1"); !ok || v != "fresh" {
		t.Fatalf("expected the concurrent Set to win, got ok=%v v=%q", ok, v)
	}
}

func TestTTLCache_DeleteClear(t *testing.T) {
	c := NewTTLCache[int, int](Options{ConcurrencySafe: true})
	c.Set(1, 10, 0)
	c.Set(2, 20, 0)
	c.Delete(1)
	if _, ok := c.Get(1); ok {
		t.Fatalf("expected key 1 to be deleted")
	}
	c.Clear()
	if c.Len() != 0 {
		t.Fatalf("expected Len=0 after Clear, got %d", c.Len())
	}
}

func TestTTLCache_ConcurrentAccess(t *testing.T) {
	c := NewTTLCache[int, int](Options{ConcurrencySafe: true})
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			for r := 0; r < 100; r++ {
				c.Set(i, r, 0)
				_, _ = c.Get(i)
			}
		}()
	}
	wg.Wait()
	if c.Len() != 50 {
		t.Fatalf("expected 50 keys, got %d", c.Len())
	}
}
