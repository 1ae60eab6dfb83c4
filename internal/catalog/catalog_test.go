package catalog

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type fakeSource struct {
	mu    sync.Mutex
	calls int
	names map[string]string
	err   error
}

func (f *fakeSource) ListSkillNames(ctx context.Context) (map[string]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.names, nil
}

func (f *fakeSource) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func TestCacheServesFreshCopyWithoutRefetch(t *testing.T) {
	src := &fakeSource{names: map[string]string{"go": "Go"}}
	c := NewCache(src, time.Minute, nil)

	for i := 0; i < 3; i++ {
		names, err := c.Names(context.Background())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if names["go"] != "Go" {
			t.Errorf("expected Go, got %q", names["go"])
		}
	}
	if got := src.callCount(); got != 1 {
		t.Errorf("expected 1 source call, got %d", got)
	}
}

func TestCacheRefetchesAfterTTL(t *testing.T) {
	src := &fakeSource{names: map[string]string{"go": "Go"}}
	c := NewCache(src, 10*time.Millisecond, nil)

	if _, err := c.Names(context.Background()); err != nil {
		t.Fatal(err)
	}
	time.Sleep(20 * time.Millisecond)
	if _, err := c.Names(context.Background()); err != nil {
		t.Fatal(err)
	}
	if got := src.callCount(); got != 2 {
		t.Errorf("expected 2 source calls after TTL expiry, got %d", got)
	}
}

func TestCacheInvalidate(t *testing.T) {
	src := &fakeSource{names: map[string]string{"go": "Go"}}
	c := NewCache(src, time.Minute, nil)

	if _, err := c.Names(context.Background()); err != nil {
		t.Fatal(err)
	}
	c.Invalidate()
	if _, err := c.Names(context.Background()); err != nil {
		t.Fatal(err)
	}
	if got := src.callCount(); got != 2 {
		t.Errorf("expected refetch after invalidation, got %d calls", got)
	}
}

func TestCacheRefreshForcesRefetch(t *testing.T) {
	src := &fakeSource{names: map[string]string{"go": "Go"}}
	c := NewCache(src, time.Minute, nil)

	if err := c.Refresh(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err := c.Refresh(context.Background()); err != nil {
		t.Fatal(err)
	}
	if got := src.callCount(); got != 2 {
		t.Errorf("expected 2 source calls, got %d", got)
	}
}

func TestCacheServesStaleOnSourceFailure(t *testing.T) {
	src := &fakeSource{names: map[string]string{"go": "Go"}}
	c := NewCache(src, 10*time.Millisecond, nil)

	if _, err := c.Names(context.Background()); err != nil {
		t.Fatal(err)
	}

	src.mu.Lock()
	src.err = errors.New("store down")
	src.mu.Unlock()

	time.Sleep(20 * time.Millisecond)
	names, err := c.Names(context.Background())
	if err != nil {
		t.Fatalf("expected stale copy, got error: %v", err)
	}
	if names["go"] != "Go" {
		t.Errorf("expected stale Go entry, got %q", names["go"])
	}
}

func TestCacheErrorsWithNothingCached(t *testing.T) {
	src := &fakeSource{err: errors.New("store down")}
	c := NewCache(src, time.Minute, nil)

	if _, err := c.Names(context.Background()); err == nil {
		t.Error("expected error with an empty cache and failing source")
	}
}
