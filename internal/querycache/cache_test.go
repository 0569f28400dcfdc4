package querycache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

type hotelRow struct {
	ID   string `json:"_id"`
	Name string `json:"name"`
}

func newTestCache() (*Cache, *MemoryStore) {
	store := NewMemoryStore(0)
	return New(store, time.Minute, nil, nil), store
}

func TestFetch_CachesByKey(t *testing.T) {
	c, _ := newTestCache()
	ctx := context.Background()
	q := Query{Family: "hotels", Key: "hotels:all", Tags: []string{"hotels"}}

	calls := 0
	load := func(context.Context) ([]hotelRow, error) {
		calls++
		return []hotelRow{{ID: "h1", Name: "Seaside"}}, nil
	}

	for i := 0; i < 3; i++ {
		got, err := Fetch(ctx, c, q, load)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(got) != 1 || got[0].Name != "Seaside" {
			t.Fatalf("unexpected result %+v", got)
		}
	}
	if calls != 1 {
		t.Errorf("expected one load, got %d", calls)
	}
}

func TestFetch_ErrorsAreNotCached(t *testing.T) {
	c, store := newTestCache()
	ctx := context.Background()
	q := Query{Family: "hotels", Key: "hotels:all", Tags: []string{"hotels"}}

	_, err := Fetch(ctx, c, q, func(context.Context) (int, error) {
		return 0, errors.New("backend down")
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if store.Len() != 0 {
		t.Errorf("expected nothing cached, store has %d", store.Len())
	}
}

func TestInvalidate_DropsTaggedEntriesOnly(t *testing.T) {
	c, store := newTestCache()
	ctx := context.Background()

	mustFetch := func(key string, tags ...string) {
		t.Helper()
		if _, err := Fetch(ctx, c, Query{Family: Family(key), Key: key, Tags: tags}, func(context.Context) (string, error) {
			return key, nil
		}); err != nil {
			t.Fatalf("fetch %s: %v", key, err)
		}
	}

	mustFetch("bookings:user-a", "bookings:user-a")
	mustFetch("bookings:user-b", "bookings:user-b")
	mustFetch("availability:h1:2026-10-14:2026-10-15", "availability:h1")

	c.Invalidate(ctx, "bookings:user-a", "availability:h1")

	if store.Len() != 1 {
		t.Fatalf("expected 1 surviving entry, got %d", store.Len())
	}
	if _, ok, _ := store.Get(ctx, "bookings:user-b"); !ok {
		t.Error("expected other user's bookings to survive")
	}
}

func TestInvalidate_DuringLoadSkipsWrite(t *testing.T) {
	c, store := newTestCache()
	ctx := context.Background()
	q := Query{Family: "bookings", Key: "bookings:user-a", Tags: []string{"bookings:user-a"}}

	started := make(chan struct{})
	release := make(chan struct{})
	done := make(chan struct{})

	go func() {
		defer close(done)
		got, err := Fetch(ctx, c, q, func(context.Context) (string, error) {
			close(started)
			<-release
			return "stale", nil
		})
		if err != nil || got != "stale" {
			t.Errorf("in-flight caller should still get its data, got %q %v", got, err)
		}
	}()

	<-started
	c.Invalidate(ctx, "bookings:user-a")
	close(release)
	<-done

	if store.Len() != 0 {
		t.Fatal("a load that overlapped an invalidation must not be stored")
	}

	got, err := Fetch(ctx, c, q, func(context.Context) (string, error) { return "fresh", nil })
	if err != nil || got != "fresh" {
		t.Fatalf("expected fresh reload, got %q %v", got, err)
	}
}

// racingStore runs beforeSet ahead of every write, standing in for an
// invalidation that lands after the generation check.
type racingStore struct {
	*MemoryStore
	beforeSet func()
}

func (s *racingStore) Set(ctx context.Context, key string, entry *Entry, ttl time.Duration) error {
	if s.beforeSet != nil {
		s.beforeSet()
	}
	return s.MemoryStore.Set(ctx, key, entry, ttl)
}

func TestInvalidate_DuringSetRemovesWrite(t *testing.T) {
	ctx := context.Background()
	store := &racingStore{MemoryStore: NewMemoryStore(0)}
	c := New(store, time.Minute, nil, nil)
	q := Query{Family: "favorites", Key: "favorites:user-a", Tags: []string{"favorites:user-a"}}

	store.beforeSet = func() {
		store.beforeSet = nil
		c.Invalidate(ctx, "favorites:user-a")
	}

	got, err := Fetch(ctx, c, q, func(context.Context) (string, error) { return "stale", nil })
	if err != nil || got != "stale" {
		t.Fatalf("caller should still get its data, got %q %v", got, err)
	}
	if store.Len() != 0 {
		t.Fatal("a write overtaken by an invalidation must not stay cached")
	}

	got, err = Fetch(ctx, c, q, func(context.Context) (string, error) { return "fresh", nil })
	if err != nil || got != "fresh" {
		t.Fatalf("expected fresh reload, got %q %v", got, err)
	}
}

func TestFetch_ConcurrentCallersShareOneLoad(t *testing.T) {
	c, _ := newTestCache()
	ctx := context.Background()
	q := Query{Family: "availability", Key: "availability:h1:a:b", Tags: []string{"availability:h1"}}

	var calls int32
	gate := make(chan struct{})
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = Fetch(ctx, c, q, func(context.Context) (int, error) {
				atomic.AddInt32(&calls, 1)
				<-gate
				return 1, nil
			})
		}()
	}
	time.Sleep(20 * time.Millisecond)
	close(gate)
	wg.Wait()

	if n := atomic.LoadInt32(&calls); n != 1 {
		t.Errorf("expected a single shared load, got %d", n)
	}
}

func TestMemoryStore_Expiry(t *testing.T) {
	store := NewMemoryStore(0)
	defer store.Close()
	ctx := context.Background()

	_ = store.Set(ctx, "k", &Entry{Data: []byte(`1`), Tags: []string{"t"}}, time.Millisecond)
	time.Sleep(5 * time.Millisecond)

	if _, ok, _ := store.Get(ctx, "k"); ok {
		t.Error("expected expired entry to miss")
	}
	if n, _ := store.InvalidateTags(ctx, "t"); n != 0 {
		t.Errorf("expired entry should already be unlinked from its tag, removed %d", n)
	}
}

func TestFamily(t *testing.T) {
	tests := map[string]string{
		"bookings:abc":      "bookings",
		"availability:h1:x": "availability",
		"hotels":            "hotels",
	}
	for in, want := range tests {
		if got := Family(in); got != want {
			t.Errorf("Family(%q) = %q, want %q", in, got, want)
		}
	}
}
