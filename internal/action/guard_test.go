package action

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestGuard_Transitions(t *testing.T) {
	g := NewGuard()
	if g.State() != StateIdle {
		t.Fatalf("expected idle, got %s", g.State())
	}

	if err := g.Begin(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !g.Pending() {
		t.Fatal("expected pending after Begin")
	}
	if err := g.Begin(); !errors.Is(err, ErrPending) {
		t.Fatalf("expected ErrPending on re-entry, got %v", err)
	}

	g.Fail(errors.New("network down"))
	snap := g.Snapshot()
	if snap.State != StateFailure || snap.Error != "network down" {
		t.Fatalf("unexpected snapshot %+v", snap)
	}

	if err := g.Begin(); err != nil {
		t.Fatalf("expected retry after failure to be allowed, got %v", err)
	}
	g.Succeed()
	if g.State() != StateSuccess {
		t.Fatalf("expected success, got %s", g.State())
	}
	if g.Snapshot().Error != "" {
		t.Error("expected error to clear on a new attempt")
	}
}

func TestGuard_FinishIgnoredWhenNotPending(t *testing.T) {
	g := NewGuard()
	g.Succeed()
	if g.State() != StateIdle {
		t.Errorf("finishing an idle guard must not change state, got %s", g.State())
	}
}

func TestGuard_ConcurrentBeginAdmitsOne(t *testing.T) {
	g := NewGuard()
	var admitted int32
	var wg sync.WaitGroup

	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if g.Begin() == nil {
				atomic.AddInt32(&admitted, 1)
			}
		}()
	}
	wg.Wait()

	if admitted != 1 {
		t.Errorf("expected exactly one admitted attempt, got %d", admitted)
	}
}

func TestRegistry_SweepKeepsPending(t *testing.T) {
	r := NewRegistry()
	done := r.Get("done")
	_ = done.Begin()
	done.Succeed()

	busy := r.Get("busy")
	_ = busy.Begin()

	if r.Get("done") != done {
		t.Fatal("expected the same guard for the same key")
	}

	time.Sleep(5 * time.Millisecond)
	if removed := r.Sweep(time.Millisecond); removed != 1 {
		t.Errorf("expected 1 guard swept, got %d", removed)
	}
	if r.Len() != 1 {
		t.Errorf("expected the pending guard to survive, registry has %d", r.Len())
	}
}
