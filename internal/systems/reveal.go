package systems

import (
	"math/rand"
	"sort"
	"time"

	"github.com/ChristopherWirtOfficial/goofworld-economy/internal/domain"
	"github.com/ChristopherWirtOfficial/goofworld-economy/pkg/logger"
	"github.com/ChristopherWirtOfficial/goofworld-economy/pkg/utils"

	"github.com/sirupsen/logrus"
)

// RevealPolicy - правило раскрытия для слоя
type RevealPolicy struct {
	Layer    domain.Layer
	Percent  int           // доля кандидатов, округление вниз
	Duration time.Duration // сколько заказ остается видимым
	Scoped   bool          // требует neighborhoodId
}

var revealPolicies = map[domain.Layer]RevealPolicy{
	domain.LayerWarehouse: {Layer: domain.LayerWarehouse, Percent: 70, Duration: 30 * time.Minute},
	domain.LayerStore:     {Layer: domain.LayerStore, Percent: 50, Duration: 45 * time.Minute, Scoped: true},
	domain.LayerHousehold: {Layer: domain.LayerHousehold, Percent: 30, Duration: 60 * time.Minute, Scoped: true},
}

// PolicyFor возвращает правило для слоя.
func PolicyFor(layer domain.Layer) (RevealPolicy, bool) {
	p, ok := revealPolicies[layer]
	return p, ok
}

// RevealCandidates собирает заказы (входящие и исходящие) сущностей слоя.
// Для складов район игнорируется, для остальных слоев он обязателен.
func RevealCandidates(state *domain.GameState, policy RevealPolicy, neighborhoodID string) ([]string, error) {
	var members []*domain.Entity

	if !policy.Scoped {
		members = state.EntitiesOfType(policy.Layer.EntityType())
	} else {
		if neighborhoodID == "" {
			return nil, domain.MissingScope("neighborhoodId is required for %s reveal_orders", policy.Layer)
		}
		hood, ok := state.Neighborhoods[neighborhoodID]
		if !ok {
			return nil, domain.NotFound("neighborhood %s not found", neighborhoodID)
		}
		for _, id := range hood.MembersOf(policy.Layer) {
			if e := state.GetEntity(id); e != nil {
				members = append(members, e)
			}
		}
	}

	seen := make(map[string]struct{})
	for _, e := range members {
		for _, id := range e.IncomingOrderIDs {
			seen[id] = struct{}{}
		}
		for _, id := range e.OutgoingOrderIDs {
			seen[id] = struct{}{}
		}
	}

	// Стабильный порядок: при одном сиде выборка воспроизводима
	candidates := make([]string, 0, len(seen))
	for id := range seen {
		candidates = append(candidates, id)
	}
	sort.Strings(candidates)
	return candidates, nil
}

// RevealOrders раскрывает floor(n * Percent / 100) случайных кандидатов без повторов.
// Возвращает ID раскрытых заказов. k == 0 - не ошибка.
func RevealOrders(state *domain.GameState, policy RevealPolicy, candidates []string, rng *rand.Rand, now time.Time) []string {
	k := utils.Percent(len(candidates), policy.Percent)
	selected := utils.Sample(rng, candidates, k)

	until := now.Add(policy.Duration)
	revealed := make([]string, 0, len(selected))
	for _, id := range selected {
		o := state.GetOrder(id)
		if o == nil {
			continue
		}
		o.Reveal(until, policy.Layer)
		revealed = append(revealed, id)
	}

	logger.Log.WithFields(logrus.Fields{
		"component":  "reveal_system",
		"layer":      policy.Layer,
		"candidates": len(candidates),
		"revealed":   len(revealed),
	}).Debug("Orders revealed")

	return revealed
}
