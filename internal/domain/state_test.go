package domain

import (
	"testing"
	"time"
)

// Helper: мини-граф
// depot-0 -> warehouse-0 -> store-0 -> household-0
func newTestState(t *testing.T) *GameState {
	t.Helper()
	s := NewGameState()
	s.AddEntity(&Entity{ID: "depot-0", Type: EntityTypeDepot})
	s.AddEntity(&Entity{ID: "warehouse-0", Type: EntityTypeWarehouse})
	s.AddEntity(&Entity{ID: "store-0", Type: EntityTypeStore, NeighborhoodID: "neighborhood-0"})
	s.AddEntity(&Entity{ID: "household-0", Type: EntityTypeHousehold, NeighborhoodID: "neighborhood-0"})
	s.Neighborhoods["neighborhood-0"] = &Neighborhood{
		ID: "neighborhood-0", Name: "Downtown",
		StoreIDs: []string{"store-0"}, HouseholdIDs: []string{"household-0"},
	}

	orders := []*Order{
		{ID: "order-0", Item: "bread", Quantity: 12000, FromEntityID: "depot-0", ToEntityID: "warehouse-0"},
		{ID: "order-1", Item: "bread", Quantity: 1200, FromEntityID: "warehouse-0", ToEntityID: "store-0"},
		{ID: "order-2", Item: "bread", Quantity: 12, FromEntityID: "store-0", ToEntityID: "household-0"},
	}
	for _, o := range orders {
		if err := s.AttachOrder(o); err != nil {
			t.Fatalf("AttachOrder(%s): %v", o.ID, err)
		}
	}
	return s
}

func TestGameState_AttachAndInvariants(t *testing.T) {
	s := newTestState(t)
	if err := s.CheckInvariants(); err != nil {
		t.Fatalf("fresh state violates invariants: %v", err)
	}

	if err := s.AttachOrder(&Order{ID: "order-x", FromEntityID: "depot-0", ToEntityID: "nowhere"}); err == nil {
		t.Error("expected error attaching order to unknown entity")
	}
	if _, ok := s.Orders["order-x"]; ok {
		t.Error("failed attach must not register the order")
	}
}

func TestGameState_MoveOrderDestination(t *testing.T) {
	s := newTestState(t)
	o := s.GetOrder("order-1")

	// Дважды на одну и ту же цель: ID должен появиться ровно один раз
	for i := 0; i < 2; i++ {
		if err := s.MoveOrderDestination(o, "household-0"); err != nil {
			t.Fatalf("MoveOrderDestination: %v", err)
		}
	}

	if o.ToEntityID != "household-0" {
		t.Errorf("ToEntityID = %s, want household-0", o.ToEntityID)
	}
	if got := count(s.GetEntity("household-0").IncomingOrderIDs, "order-1"); got != 1 {
		t.Errorf("household-0 incoming contains order-1 %d times, want 1", got)
	}
	if got := count(s.GetEntity("store-0").IncomingOrderIDs, "order-1"); got != 0 {
		t.Errorf("store-0 incoming still contains order-1")
	}
	// Источник не меняется
	if got := count(s.GetEntity("warehouse-0").OutgoingOrderIDs, "order-1"); got != 1 {
		t.Errorf("warehouse-0 outgoing contains order-1 %d times, want 1", got)
	}
	if err := s.CheckInvariants(); err != nil {
		t.Fatalf("invariants broken after move: %v", err)
	}
}

func TestGameState_DeleteAndReroute(t *testing.T) {
	s := newTestState(t)

	s.DeleteOrder("order-0")
	if s.GetOrder("order-0") != nil {
		t.Fatal("order-0 should be deleted")
	}
	if len(s.GetEntity("depot-0").OutgoingOrderIDs) != 0 {
		t.Error("depot-0 still references deleted order")
	}

	// Петля: источник и получатель совпадают
	if err := s.RerouteOrder(s.GetOrder("order-2"), "store-0", "store-0"); err != nil {
		t.Fatalf("RerouteOrder: %v", err)
	}
	if len(s.GetEntity("household-0").IncomingOrderIDs) != 0 {
		t.Error("household-0 still references rerouted order")
	}
	if err := s.CheckInvariants(); err != nil {
		t.Fatalf("invariants broken after reroute: %v", err)
	}
}

func TestGameState_CheckInvariantsDetectsCorruption(t *testing.T) {
	tests := []struct {
		name    string
		corrupt func(s *GameState)
	}{
		{"dangling reference", func(s *GameState) {
			s.GetEntity("store-0").IncomingOrderIDs = append(s.GetEntity("store-0").IncomingOrderIDs, "order-404")
		}},
		{"duplicate membership", func(s *GameState) {
			s.GetEntity("store-0").IncomingOrderIDs = append(s.GetEntity("store-0").IncomingOrderIDs, "order-1")
		}},
		{"wrong endpoint list", func(s *GameState) {
			s.GetEntity("depot-0").IncomingOrderIDs = append(s.GetEntity("depot-0").IncomingOrderIDs, "order-1")
		}},
		{"warehouse in neighborhood", func(s *GameState) {
			s.GetEntity("warehouse-0").NeighborhoodID = "neighborhood-0"
		}},
		{"household listed as store", func(s *GameState) {
			s.Neighborhoods["neighborhood-0"].StoreIDs = append(s.Neighborhoods["neighborhood-0"].StoreIDs, "household-0")
		}},
		{"half revealed", func(s *GameState) {
			s.GetOrder("order-1").Revealed = true
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestState(t)
			tt.corrupt(s)
			if err := s.CheckInvariants(); err == nil {
				t.Error("expected invariant violation")
			}
		})
	}
}

func TestGameState_CloneIsIndependent(t *testing.T) {
	s := newTestState(t)
	s.GetOrder("order-1").Reveal(time.Unix(1000, 0), LayerWarehouse)

	c := s.Clone()
	c.GetOrder("order-1").Hide()
	c.GetEntity("store-0").IncomingOrderIDs[0] = "mutated"
	*s.GetOrder("order-1").RevealedUntil = time.Unix(2000, 0)

	if !s.GetOrder("order-1").Revealed {
		t.Error("hiding the clone changed the original")
	}
	if s.GetEntity("store-0").IncomingOrderIDs[0] != "order-1" {
		t.Error("clone shares entity slices with original")
	}
	if err := s.CheckInvariants(); err != nil {
		t.Errorf("original broken by clone mutation: %v", err)
	}
}

func TestOrder_RevealHide(t *testing.T) {
	o := &Order{ID: "order-1"}
	until := time.Unix(5000, 0)
	o.Reveal(until, LayerStore)
	if !o.Revealed || o.RevealedUntil == nil || *o.RevealSource != LayerStore {
		t.Fatalf("Reveal did not set all fields: %+v", o)
	}
	o.Hide()
	if o.Revealed || o.RevealedUntil != nil || o.RevealSource != nil {
		t.Fatalf("Hide did not clear all fields: %+v", o)
	}
}

func count(ids []string, id string) int {
	n := 0
	for _, v := range ids {
		if v == id {
			n++
		}
	}
	return n
}
