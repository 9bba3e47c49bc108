package machines

import (
	"errors"
	"testing"
	"time"
)

type manualClock struct {
	now time.Time
}

func (c *manualClock) Now() time.Time {
	return c.now
}

func (c *manualClock) Advance(d time.Duration) {
	c.now = c.now.Add(d)
}

func TestListCacheServesWithinTTL(t *testing.T) {
	clock := &manualClock{now: time.Date(2024, time.March, 1, 8, 0, 0, 0, time.UTC)}
	cache := NewListCache(time.Minute, clock.Now)

	loads := 0
	loader := func() ([]Machine, error) {
		loads++
		return []Machine{{MachineNumber: 7}}, nil
	}

	for i := 0; i < 3; i++ {
		items, err := cache.Get(loader)
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		if len(items) != 1 {
			t.Fatalf("expected cached listing, got %d items", len(items))
		}
	}
	if loads != 1 {
		t.Fatalf("expected a single load within the TTL, got %d", loads)
	}

	clock.Advance(61 * time.Second)
	if _, err := cache.Get(loader); err != nil {
		t.Fatalf("get after expiry: %v", err)
	}
	if loads != 2 {
		t.Fatalf("expected reload after TTL expiry, got %d loads", loads)
	}
}

func TestListCacheInvalidateForcesReload(t *testing.T) {
	clock := &manualClock{now: time.Date(2024, time.March, 1, 8, 0, 0, 0, time.UTC)}
	cache := NewListCache(time.Minute, clock.Now)

	loads := 0
	loader := func() ([]Machine, error) {
		loads++
		return nil, nil
	}

	if _, err := cache.Get(loader); err != nil {
		t.Fatalf("get: %v", err)
	}
	cache.Invalidate()
	if _, err := cache.Get(loader); err != nil {
		t.Fatalf("get after invalidate: %v", err)
	}
	if loads != 2 {
		t.Fatalf("expected reload after invalidation, got %d loads", loads)
	}
}

func TestListCacheLoaderErrorLeavesCacheCold(t *testing.T) {
	clock := &manualClock{now: time.Date(2024, time.March, 1, 8, 0, 0, 0, time.UTC)}
	cache := NewListCache(time.Minute, clock.Now)

	boom := errors.New("listing failed")
	if _, err := cache.Get(func() ([]Machine, error) { return nil, boom }); !errors.Is(err, boom) {
		t.Fatalf("expected loader error, got %v", err)
	}

	loads := 0
	if _, err := cache.Get(func() ([]Machine, error) {
		loads++
		return []Machine{{MachineNumber: 7}}, nil
	}); err != nil {
		t.Fatalf("get after failure: %v", err)
	}
	if loads != 1 {
		t.Fatalf("a failed load must not populate the cache")
	}
}
