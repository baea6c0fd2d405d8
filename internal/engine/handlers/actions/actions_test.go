package actions

import (
	"encoding/json"
	"errors"
	"math/rand"
	"os"
	"slices"
	"testing"
	"time"

	"github.com/ChristopherWirtOfficial/goofworld-economy/internal/domain"
	"github.com/ChristopherWirtOfficial/goofworld-economy/internal/engine/handlers"
	"github.com/ChristopherWirtOfficial/goofworld-economy/pkg/logger"
)

func TestMain(m *testing.M) {
	logger.Init()
	os.Exit(m.Run())
}

func newState(t *testing.T) *domain.GameState {
	t.Helper()
	s := domain.NewGameState()
	for _, e := range []*domain.Entity{
		{ID: "warehouse-0", Type: domain.EntityTypeWarehouse},
		{ID: "store-2", Type: domain.EntityTypeStore, NeighborhoodID: "neighborhood-0"},
		{ID: "household-7", Type: domain.EntityTypeHousehold, NeighborhoodID: "neighborhood-0"},
	} {
		s.AddEntity(e)
	}
	s.Neighborhoods["neighborhood-0"] = &domain.Neighborhood{
		ID: "neighborhood-0", StoreIDs: []string{"store-2"}, HouseholdIDs: []string{"household-7"},
	}
	for _, o := range []*domain.Order{
		{ID: "order-0", Item: "milk", Quantity: 1000, FromEntityID: "warehouse-0", ToEntityID: "store-2"},
		{ID: "order-1", Item: "eggs", Quantity: 12, FromEntityID: "store-2", ToEntityID: "household-7"},
	} {
		if err := s.AttachOrder(o); err != nil {
			t.Fatalf("AttachOrder: %v", err)
		}
	}
	return s
}

func ctxFor(s *domain.GameState) handlers.Context {
	return handlers.Context{
		State:    s,
		Rng:      rand.New(rand.NewSource(1)),
		Now:      time.Date(2026, time.June, 1, 0, 0, 0, 0, time.UTC),
		PlayerID: "tester",
	}
}

func TestHandleMoveOrder_TwiceIsIdempotent(t *testing.T) {
	s := newState(t)
	handler := handlers.WithPayload(HandleMoveOrder)
	raw := json.RawMessage(`{"type":"move_order","playerId":"tester","orderId":"order-0","targetEntityId":"household-7"}`)

	for i := 0; i < 2; i++ {
		if _, err := handler(ctxFor(s), raw); err != nil {
			t.Fatalf("move %d: %v", i+1, err)
		}
	}

	o := s.GetOrder("order-0")
	if o.ToEntityID != "household-7" {
		t.Errorf("destination = %s, want household-7", o.ToEntityID)
	}
	if slices.Contains(s.GetEntity("store-2").IncomingOrderIDs, "order-0") {
		t.Error("store-2 still lists order-0 as incoming")
	}
	incoming := s.GetEntity("household-7").IncomingOrderIDs
	n := 0
	for _, id := range incoming {
		if id == "order-0" {
			n++
		}
	}
	if n != 1 {
		t.Errorf("household-7 lists order-0 %d times, want 1", n)
	}
	if !slices.Contains(s.GetEntity("warehouse-0").OutgoingOrderIDs, "order-0") {
		t.Error("source outgoing list must be unchanged")
	}
	if err := s.CheckInvariants(); err != nil {
		t.Errorf("invariants: %v", err)
	}
}

func TestHandleRevealOrders_Errors(t *testing.T) {
	handler := handlers.WithPayload(HandleRevealOrders)

	tests := []struct {
		name string
		raw  string
		want error
	}{
		{"invalid layer", `{"layer":"galaxy"}`, domain.ErrInvalidLayer},
		{"missing scope", `{"layer":"household"}`, domain.ErrMissingScope},
		{"unknown neighborhood", `{"layer":"store","neighborhoodId":"neighborhood-5"}`, domain.ErrNotFound},
		{"broken json", `{"layer":`, domain.ErrInvalidPayload},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newState(t)
			before := s.Clone()
			_, err := handler(ctxFor(s), json.RawMessage(tt.raw))
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
			if s.RevealedCount(time.Time{}) != before.RevealedCount(time.Time{}) {
				t.Error("rejected reveal mutated state")
			}
		})
	}
}

func TestHandleRevealOrders_Store(t *testing.T) {
	s := newState(t)
	res, err := handlers.WithPayload(HandleRevealOrders)(ctxFor(s), json.RawMessage(`{"layer":"store","neighborhoodId":"neighborhood-0"}`))
	if err != nil {
		t.Fatalf("reveal: %v", err)
	}
	// store-2: order-0 входящий + order-1 исходящий -> floor(2 * 0.5) = 1
	if len(res.Touched) != 1 || res.Layer != domain.LayerStore {
		t.Errorf("unexpected result %+v", res)
	}
}
