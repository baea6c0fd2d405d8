package supply

import (
	"math/rand"
	"testing"
	"time"

	"github.com/ChristopherWirtOfficial/goofworld-economy/internal/domain"
)

var testNow = time.Date(2026, time.January, 10, 12, 0, 0, 0, time.UTC)

func TestGenerate_DefaultScenario(t *testing.T) {
	state, stats, err := Generate(DefaultParams(), rand.New(rand.NewSource(1)), testNow)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	// 1 депо + 4 склада + 20 магазинов + 200 домов
	if len(state.Entities) != 225 {
		t.Errorf("Expected 225 entities, got %d", len(state.Entities))
	}
	// 4*8 + 20*8 + 200*8
	if stats.CleanOrders != 1792 {
		t.Errorf("Expected 1792 clean orders, got %d", stats.CleanOrders)
	}
	if stats.DeletedOrders != 896 || len(state.Orders) != 896 {
		t.Errorf("Expected 896 deleted and 896 surviving orders, got %d deleted, %d left", stats.DeletedOrders, len(state.Orders))
	}

	if err := state.CheckInvariants(); err != nil {
		t.Fatalf("generated state violates invariants: %v", err)
	}

	if !state.StartTime.Equal(testNow) {
		t.Errorf("StartTime = %v, want %v", state.StartTime, testNow)
	}
	if state.EndTime.Sub(state.StartTime) != DefaultGameDuration {
		t.Errorf("game duration = %v, want %v", state.EndTime.Sub(state.StartTime), DefaultGameDuration)
	}
	if state.TickInterval != DefaultTickInterval {
		t.Errorf("TickInterval = %v, want %v", state.TickInterval, DefaultTickInterval)
	}
}

func TestGenerate_ScrambleBreaksLayers(t *testing.T) {
	state, stats, err := Generate(DefaultParams(), rand.New(rand.NewSource(99)), testNow)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	// ~70% из 896, допускаем широкий коридор
	if stats.ScrambledOrders < 500 || stats.ScrambledOrders > 750 {
		t.Errorf("scrambled %d orders, expected roughly 627", stats.ScrambledOrders)
	}

	broken := 0
	for _, o := range state.Orders {
		from, to := state.GetEntity(o.FromEntityID), state.GetEntity(o.ToEntityID)
		if !isCleanEdge(from.Type, to.Type) {
			broken++
		}
	}
	if broken == 0 {
		t.Error("no order deviates from the clean layered structure")
	}
}

func TestGenerate_ScrambleNeverUsesDepot(t *testing.T) {
	state, _, err := NewTopology(rand.New(rand.NewSource(5))).WithChaos(0, 100).Build(testNow)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	depot := state.GetEntity("depot-0")
	if len(depot.OutgoingOrderIDs) != 0 || len(depot.IncomingOrderIDs) != 0 {
		t.Errorf("depot kept %d outgoing / %d incoming orders after full scramble",
			len(depot.OutgoingOrderIDs), len(depot.IncomingOrderIDs))
	}
	if err := state.CheckInvariants(); err != nil {
		t.Fatalf("invariants: %v", err)
	}
}

func TestGenerate_CleanGraphWithoutChaos(t *testing.T) {
	state, stats, err := NewTopology(rand.New(rand.NewSource(3))).
		WithLayout(2, 2, 3).
		WithNeighborhoods(2).
		WithItems("bread", "milk").
		WithChaos(0, 0).
		Build(testNow)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	// 2*2 + 4*2 + 12*2
	if stats.CleanOrders != 36 || len(state.Orders) != 36 {
		t.Fatalf("expected 36 orders, got %d", len(state.Orders))
	}

	// Round-robin: store-2 принадлежит warehouse-1, household-5 - store-1
	for _, o := range state.Orders {
		if o.ToEntityID == "store-2" && o.FromEntityID != "warehouse-1" {
			t.Errorf("store-2 supplied by %s, want warehouse-1", o.FromEntityID)
		}
		if o.ToEntityID == "household-5" && o.FromEntityID != "store-1" {
			t.Errorf("household-5 supplied by %s, want store-1", o.FromEntityID)
		}
		from, to := state.GetEntity(o.FromEntityID), state.GetEntity(o.ToEntityID)
		if !isCleanEdge(from.Type, to.Type) {
			t.Errorf("order %s breaks layering: %s -> %s", o.ID, from.Type, to.Type)
		}
	}
}

func TestGenerate_Neighborhoods(t *testing.T) {
	state, _, err := Generate(DefaultParams(), rand.New(rand.NewSource(11)), testNow)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	if len(state.Neighborhoods) != 4 {
		t.Fatalf("expected 4 neighborhoods, got %d", len(state.Neighborhoods))
	}
	downtown := state.Neighborhoods["neighborhood-0"]
	if downtown.Name != "Downtown" {
		t.Errorf("neighborhood-0 name = %q, want Downtown", downtown.Name)
	}
	if len(downtown.StoreIDs) != 5 || len(downtown.HouseholdIDs) != 50 {
		t.Errorf("neighborhood-0 has %d stores / %d households, want 5 / 50", len(downtown.StoreIDs), len(downtown.HouseholdIDs))
	}
	// Смежные диапазоны
	if downtown.StoreIDs[0] != "store-0" || downtown.StoreIDs[4] != "store-4" {
		t.Errorf("unexpected store range %v", downtown.StoreIDs)
	}
	if state.GetEntity("household-199").NeighborhoodID != "neighborhood-3" {
		t.Errorf("household-199 in %q, want neighborhood-3", state.GetEntity("household-199").NeighborhoodID)
	}
	for _, wh := range state.EntitiesOfType(domain.EntityTypeWarehouse) {
		if wh.NeighborhoodID != "" {
			t.Errorf("%s must be global", wh.ID)
		}
	}
}

func TestGenerate_Reproducible(t *testing.T) {
	a, _, errA := Generate(DefaultParams(), rand.New(rand.NewSource(2024)), testNow)
	b, _, errB := Generate(DefaultParams(), rand.New(rand.NewSource(2024)), testNow)
	if errA != nil || errB != nil {
		t.Fatalf("Generate: %v / %v", errA, errB)
	}
	if len(a.Orders) != len(b.Orders) {
		t.Fatalf("order counts differ: %d vs %d", len(a.Orders), len(b.Orders))
	}
	for id, oa := range a.Orders {
		ob := b.GetOrder(id)
		if ob == nil || *oa != *ob {
			t.Fatalf("order %s differs between runs with the same seed", id)
		}
	}
}

func TestParams_Validate(t *testing.T) {
	p := DefaultParams()
	p.Warehouses = 0
	p.Items = nil
	if _, _, err := Generate(p, rand.New(rand.NewSource(1)), testNow); err == nil {
		t.Error("expected error for invalid params")
	}
	if _, _, err := NewTopology(nil).Build(testNow); err == nil {
		t.Error("expected error without random source")
	}
}

func isCleanEdge(from, to domain.EntityType) bool {
	switch {
	case from == domain.EntityTypeDepot && to == domain.EntityTypeWarehouse:
		return true
	case from == domain.EntityTypeWarehouse && to == domain.EntityTypeStore:
		return true
	case from == domain.EntityTypeStore && to == domain.EntityTypeHousehold:
		return true
	}
	return false
}
