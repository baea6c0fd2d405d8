package agent

import (
	"context"
	"math/rand"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/ChristopherWirtOfficial/goofworld-economy/internal/domain"
	"github.com/ChristopherWirtOfficial/goofworld-economy/internal/engine"
	"github.com/ChristopherWirtOfficial/goofworld-economy/internal/infrastructure/storage/memory"
	"github.com/ChristopherWirtOfficial/goofworld-economy/pkg/api"
	"github.com/ChristopherWirtOfficial/goofworld-economy/pkg/logger"
	"github.com/ChristopherWirtOfficial/goofworld-economy/pkg/supply"
)

func TestMain(m *testing.M) {
	logger.Init()
	os.Exit(m.Run())
}

func sampleView() *api.GameStateView {
	return &api.GameStateView{
		Entities: map[string]api.EntityView{
			"store-0":     {ID: "store-0", Type: "store"},
			"household-0": {ID: "household-0", Type: "household"},
			"household-1": {ID: "household-1", Type: "household"},
		},
		Orders: map[string]api.OrderView{
			"order-0": {ID: "order-0", FromEntityID: "store-0", ToEntityID: "household-0", IsRevealed: true},
			"order-1": {ID: "order-1", FromEntityID: "store-0", ToEntityID: "household-1"},
		},
		Neighborhoods: map[string]api.NeighborhoodView{
			"neighborhood-0": {ID: "neighborhood-0"},
		},
	}
}

func TestPlanMove(t *testing.T) {
	rng := rand.New(rand.NewSource(1))

	move, ok := planMove(sampleView(), rng)
	if !ok {
		t.Fatal("expected a move for a revealed order")
	}
	// Единственный раскрытый заказ и единственный другой дом
	if move.OrderID != "order-0" || move.TargetEntityID != "household-1" || move.Type != "move_order" {
		t.Errorf("unexpected move %+v", move)
	}

	hidden := sampleView()
	hidden.Orders["order-0"] = api.OrderView{ID: "order-0", ToEntityID: "household-0"}
	if _, ok := planMove(hidden, rng); ok {
		t.Error("no revealed orders must yield no move")
	}
}

func TestPlanReveal(t *testing.T) {
	rng := rand.New(rand.NewSource(1))

	for i := 0; i < 20; i++ {
		a := planReveal(nil, rng)
		if a.Layer != "warehouse" || a.NeighborhoodID != "" {
			t.Fatalf("without a snapshot only warehouse reveals are possible, got %+v", a)
		}
	}

	for i := 0; i < 50; i++ {
		a := planReveal(sampleView(), rng)
		if a.Type != "reveal_orders" {
			t.Fatalf("type = %s", a.Type)
		}
		if a.Layer != "warehouse" && a.NeighborhoodID != "neighborhood-0" {
			t.Fatalf("scoped reveal without neighborhood: %+v", a)
		}
	}
}

func TestBot_SubmitsActions(t *testing.T) {
	p := supply.DefaultParams()
	p.Warehouses, p.StoresPerWarehouse, p.HouseholdsPerStore, p.Neighborhoods = 2, 2, 2, 2
	p.Items = []string{"bread"}
	p.TickInterval = time.Hour

	cfg := engine.NewConfig()
	cfg.Seed = 5
	cfg.Topology = p

	store := memory.New()
	svc := engine.NewService(cfg, store, nil)
	if err := svc.Bootstrap(context.Background()); err != nil {
		t.Fatalf("Bootstrap: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = svc.Run(ctx) }()

	bot := NewBot(svc, 10*time.Millisecond, 3)
	if !strings.HasPrefix(bot.PlayerID, "bot-") {
		t.Errorf("player id = %s", bot.PlayerID)
	}
	botDone := make(chan error, 1)
	go func() { botDone <- bot.Run(ctx) }()

	deadline := time.After(2 * time.Second)
	for {
		records, err := store.ListActions(context.Background(), bot.PlayerID, 10)
		if err != nil {
			t.Fatalf("ListActions: %v", err)
		}
		if len(records) >= 3 {
			break
		}
		select {
		case <-deadline:
			t.Fatalf("bot logged %d actions, want at least 3", len(records))
		case <-time.After(20 * time.Millisecond):
		}
	}

	cancel()
	select {
	case err := <-botDone:
		if err != nil {
			t.Errorf("bot Run: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("bot did not stop")
	}

	// Ходы бота не ломают граф
	state, err := store.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := state.CheckInvariants(); err != nil {
		t.Errorf("invariants: %v", err)
	}
	if state.GetEntity("depot-0") == nil || state.GetEntity("depot-0").Type != domain.EntityTypeDepot {
		t.Error("depot missing after bot run")
	}
}
