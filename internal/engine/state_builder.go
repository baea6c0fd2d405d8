package engine

import (
	"maps"
	"slices"

	"github.com/ChristopherWirtOfficial/goofworld-economy/internal/domain"
	"github.com/ChristopherWirtOfficial/goofworld-economy/pkg/api"
)

// BuildSnapshot создает полный слепок состояния для клиентов.
// Результат не разделяет память с state, его можно рассылать из любой горутины.
func BuildSnapshot(state *domain.GameState) *api.GameStateView {
	view := &api.GameStateView{
		Entities:      make(map[string]api.EntityView, len(state.Entities)),
		Orders:        make(map[string]api.OrderView, len(state.Orders)),
		Neighborhoods: make(map[string]api.NeighborhoodView, len(state.Neighborhoods)),
		StartTime:     state.StartTime.UnixMilli(),
		EndTime:       state.EndTime.UnixMilli(),
		TickInterval:  state.TickInterval.Milliseconds(),
	}

	for id, e := range state.Entities {
		view.Entities[id] = api.EntityView{
			ID:               e.ID,
			Name:             e.Name,
			Type:             string(e.Type),
			Capacity:         e.Capacity,
			Inventory:        maps.Clone(e.Inventory),
			IncomingOrderIDs: slices.Clone(e.IncomingOrderIDs),
			OutgoingOrderIDs: slices.Clone(e.OutgoingOrderIDs),
			NeighborhoodID:   e.NeighborhoodID,
		}
	}

	for id, o := range state.Orders {
		ov := api.OrderView{
			ID:           o.ID,
			Item:         o.Item,
			Quantity:     o.Quantity,
			FromEntityID: o.FromEntityID,
			ToEntityID:   o.ToEntityID,
			IsRevealed:   o.Revealed,
		}
		if o.Revealed && o.RevealedUntil != nil && o.RevealSource != nil {
			until := o.RevealedUntil.UnixMilli()
			source := string(*o.RevealSource)
			ov.RevealedUntil = &until
			ov.RevealSource = &source
		}
		view.Orders[id] = ov
	}

	for id, n := range state.Neighborhoods {
		view.Neighborhoods[id] = api.NeighborhoodView{
			ID:           n.ID,
			Name:         n.Name,
			StoreIDs:     slices.Clone(n.StoreIDs),
			HouseholdIDs: slices.Clone(n.HouseholdIDs),
		}
	}

	return view
}

// BuildActionLog конвертирует записи журнала в DTO (время в Unix ms).
func BuildActionLog(records []domain.ActionRecord) []api.ActionLogEntry {
	out := make([]api.ActionLogEntry, 0, len(records))
	for _, r := range records {
		out = append(out, api.ActionLogEntry{
			ID:         r.ID,
			PlayerID:   r.PlayerID,
			ActionType: r.ActionType,
			ActionData: r.Payload,
			Timestamp:  r.Timestamp.UnixMilli(),
			CreatedAt:  r.CreatedAt.UnixMilli(),
		})
	}
	return out
}
