package systems

import (
	"testing"
	"time"

	"github.com/ChristopherWirtOfficial/goofworld-economy/internal/domain"
)

func TestExpireReveals(t *testing.T) {
	const d = 30 * time.Minute

	tests := []struct {
		name         string
		sweepAt      time.Duration
		wantRevealed bool
	}{
		{"before expiry", d - time.Second, true},
		{"exactly at expiry", d, true},
		{"after expiry", d + time.Second, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state := newRevealState(t, 2, 0)
			o := state.GetOrder("order-0")
			o.Reveal(t0.Add(d), domain.LayerWarehouse)

			expired := ExpireReveals(state, t0.Add(tt.sweepAt))

			if o.Revealed != tt.wantRevealed {
				t.Fatalf("Revealed = %v, want %v", o.Revealed, tt.wantRevealed)
			}
			if !tt.wantRevealed {
				if len(expired) != 1 || expired[0] != "order-0" {
					t.Errorf("expected [order-0] expired, got %v", expired)
				}
				if o.RevealedUntil != nil || o.RevealSource != nil {
					t.Error("expired order must clear until and source")
				}
			}
			if err := state.CheckInvariants(); err != nil {
				t.Errorf("invariants: %v", err)
			}
		})
	}
}

func TestExpireReveals_Idempotent(t *testing.T) {
	state := newRevealState(t, 3, 0)
	state.GetOrder("order-0").Reveal(t0, domain.LayerWarehouse)
	state.GetOrder("order-1").Reveal(t0.Add(time.Hour), domain.LayerWarehouse)

	now := t0.Add(time.Minute)
	if got := ExpireReveals(state, now); len(got) != 1 {
		t.Fatalf("first sweep: expected 1 expired, got %v", got)
	}
	if got := ExpireReveals(state, now); len(got) != 0 {
		t.Errorf("second sweep must be a no-op, got %v", got)
	}
	if !state.GetOrder("order-1").Revealed {
		t.Error("order-1 is still within its window")
	}
}
