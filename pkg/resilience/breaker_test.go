package resilience

import (
	"context"
	"errors"
	"testing"
	"time"
)

var errFail = errors.New("fail")

func failing(context.Context) error { return errFail }
func succeeding(context.Context) error { return nil }

func newTestBreaker(threshold int, cooldown time.Duration) (*Breaker, *time.Time) {
	b := NewBreaker(BreakerOpts{FailThreshold: threshold, Cooldown: cooldown, HalfOpenMax: 1})
	now := time.Now()
	b.now = func() time.Time { return now }
	return b, &now
}

func TestBreaker_TripsAfterThreshold(t *testing.T) {
	b, _ := newTestBreaker(3, time.Minute)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := b.Call(ctx, failing); !errors.Is(err, errFail) {
			t.Fatalf("call %d: %v", i, err)
		}
	}
	if b.State() != StateOpen {
		t.Fatalf("state = %v, want open", b.State())
	}
	if err := b.Call(ctx, succeeding); !errors.Is(err, ErrOpen) {
		t.Fatalf("err = %v, want ErrOpen", err)
	}
}

func TestBreaker_SuccessResetsCount(t *testing.T) {
	b, _ := newTestBreaker(3, time.Minute)
	ctx := context.Background()

	b.Call(ctx, failing)
	b.Call(ctx, failing)
	b.Call(ctx, succeeding)
	b.Call(ctx, failing)
	b.Call(ctx, failing)
	if b.State() != StateClosed {
		t.Fatalf("state = %v, want closed (failures not consecutive)", b.State())
	}
}

func TestBreaker_HalfOpenProbe(t *testing.T) {
	b, now := newTestBreaker(1, time.Minute)
	ctx := context.Background()

	b.Call(ctx, failing)
	if b.State() != StateOpen {
		t.Fatal("breaker should be open")
	}

	*now = now.Add(2 * time.Minute)
	if b.State() != StateHalfOpen {
		t.Fatalf("state = %v, want half-open after cooldown", b.State())
	}
	if err := b.Call(ctx, succeeding); err != nil {
		t.Fatalf("probe: %v", err)
	}
	if b.State() != StateClosed {
		t.Fatalf("state = %v, want closed after successful probe", b.State())
	}
}

func TestBreaker_FailedProbeReopens(t *testing.T) {
	b, now := newTestBreaker(1, time.Minute)
	ctx := context.Background()

	b.Call(ctx, failing)
	*now = now.Add(2 * time.Minute)
	b.Call(ctx, failing)
	if b.State() != StateOpen {
		t.Fatalf("state = %v, want open after failed probe", b.State())
	}
}

func TestStateString(t *testing.T) {
	for s, want := range map[State]string{
		StateClosed: "closed", StateOpen: "open", StateHalfOpen: "half-open", State(9): "unknown",
	} {
		if s.String() != want {
			t.Errorf("%d = %q, want %q", s, s.String(), want)
		}
	}
}
