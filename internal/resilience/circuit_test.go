package resilience

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func newTestBreaker(threshold int, reset time.Duration) (*CircuitBreaker, *time.Time) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	cb := NewCircuitBreaker(CircuitBreakerConfig{FailureThreshold: threshold, ResetTimeout: reset})
	cb.nowFunc = func() time.Time { return now }
	return cb, &now
}

func TestCircuitBreaker_ClosedPassesThrough(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{})

	var calls int
	err := cb.Execute(context.Background(), func(_ context.Context) error {
		calls++
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
	if cb.State() != CircuitClosed {
		t.Errorf("expected closed, got %s", cb.State())
	}
}

func TestCircuitBreaker_OpensAfterThreshold(t *testing.T) {
	cb, _ := newTestBreaker(3, time.Minute)

	for i := 0; i < 3; i++ {
		_ = cb.Execute(context.Background(), func(_ context.Context) error {
			return errors.New("fail")
		})
	}
	if cb.State() != CircuitOpen {
		t.Fatalf("expected open after 3 failures, got %s", cb.State())
	}

	err := cb.Execute(context.Background(), func(_ context.Context) error {
		t.Error("should not be called when circuit is open")
		return nil
	})
	if !errors.Is(err, ErrCircuitOpen) {
		t.Errorf("expected ErrCircuitOpen, got %v", err)
	}
}

func TestCircuitBreaker_SuccessResetsFailures(t *testing.T) {
	cb, _ := newTestBreaker(3, time.Minute)

	cb.Record(errors.New("a"))
	cb.Record(errors.New("b"))
	if cb.Failures() != 2 {
		t.Fatalf("expected 2 failures, got %d", cb.Failures())
	}
	cb.Record(nil)
	if cb.Failures() != 0 {
		t.Errorf("expected failures reset, got %d", cb.Failures())
	}
	if cb.State() != CircuitClosed {
		t.Errorf("expected closed, got %s", cb.State())
	}
}

func TestCircuitBreaker_HalfOpenRecovery(t *testing.T) {
	cb, now := newTestBreaker(1, 30*time.Second)

	cb.Record(errors.New("down"))
	if cb.Allow() {
		t.Fatal("expected open circuit to reject")
	}

	*now = now.Add(31 * time.Second)
	if cb.State() != CircuitHalfOpen {
		t.Fatalf("expected half-open, got %s", cb.State())
	}
	if !cb.Allow() {
		t.Fatal("expected half-open probe to be allowed")
	}
	cb.Record(nil)
	if cb.State() != CircuitClosed {
		t.Errorf("expected closed after successful probe, got %s", cb.State())
	}
}

func TestCircuitBreaker_HalfOpenFailureReopens(t *testing.T) {
	cb, now := newTestBreaker(1, 30*time.Second)

	cb.Record(errors.New("down"))
	*now = now.Add(31 * time.Second)
	cb.Allow()
	cb.Record(errors.New("still down"))

	if cb.State() != CircuitOpen {
		t.Errorf("expected reopened circuit, got %s", cb.State())
	}
}

func TestCircuitBreaker_CallerCancelDoesNotTrip(t *testing.T) {
	cb, _ := newTestBreaker(1, time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_ = cb.Execute(ctx, func(ctx context.Context) error { return ctx.Err() })

	if cb.State() != CircuitClosed {
		t.Errorf("expected closed, got %s", cb.State())
	}
}

func TestCircuitBreaker_StateChangeCallback(t *testing.T) {
	var transitions []string
	cb := NewCircuitBreaker(CircuitBreakerConfig{
		FailureThreshold: 1,
		ResetTimeout:     time.Minute,
		OnStateChange: func(from, to CircuitState) {
			transitions = append(transitions, from.String()+"->"+to.String())
		},
	})
	cb.Record(errors.New("x"))

	if len(transitions) != 1 || transitions[0] != "closed->open" {
		t.Errorf("unexpected transitions: %v", transitions)
	}
}

func TestBreakers_GetIsStable(t *testing.T) {
	var mu sync.Mutex
	changes := map[string]int{}
	b := NewBreakers(CircuitBreakerConfig{FailureThreshold: 1}, func(name string, _, _ CircuitState) {
		mu.Lock()
		changes[name]++
		mu.Unlock()
	})

	var wg sync.WaitGroup
	got := make([]*CircuitBreaker, 10)
	for i := range got {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			got[i] = b.Get("https://searx.be")
		}(i)
	}
	wg.Wait()

	for _, cb := range got[1:] {
		if cb != got[0] {
			t.Fatal("expected the same breaker for the same name")
		}
	}

	b.Get("https://searx.be").Record(errors.New("boom"))
	if changes["https://searx.be"] != 1 {
		t.Errorf("expected one named transition, got %d", changes["https://searx.be"])
	}
	if b.States()["https://searx.be"] != CircuitOpen {
		t.Errorf("expected open in snapshot")
	}
}

func TestCircuitStateString(t *testing.T) {
	cases := map[CircuitState]string{
		CircuitClosed:    "closed",
		CircuitOpen:      "open",
		CircuitHalfOpen:  "half-open",
		CircuitState(42): "unknown",
	}
	for s, want := range cases {
		if s.String() != want {
			t.Errorf("%d: got %q want %q", s, s.String(), want)
		}
	}
}
