package actions

import (
	"fmt"

	"github.com/ChristopherWirtOfficial/goofworld-economy/internal/domain"
	"github.com/ChristopherWirtOfficial/goofworld-economy/internal/engine/handlers"
	"github.com/ChristopherWirtOfficial/goofworld-economy/internal/systems"
)

// HandleRevealOrders раскрывает долю заказов слоя (для магазинов и домов - в пределах района).
func HandleRevealOrders(ctx handlers.Context, p domain.RevealOrdersPayload) (handlers.Result, error) {
	layer, ok := domain.ParseLayer(p.Layer)
	if !ok {
		return handlers.EmptyResult(), domain.InvalidLayer("invalid layer %q for reveal_orders", p.Layer)
	}
	policy, ok := systems.PolicyFor(layer)
	if !ok {
		return handlers.EmptyResult(), domain.InvalidLayer("no reveal policy for layer %s", layer)
	}

	// 1. Кандидаты (здесь же проверка района, до любых мутаций)
	candidates, err := systems.RevealCandidates(ctx.State, policy, p.NeighborhoodID)
	if err != nil {
		return handlers.EmptyResult(), err
	}

	// 2. Выборка и раскрытие
	revealed := systems.RevealOrders(ctx.State, policy, candidates, ctx.Rng, ctx.Now)

	scope := "global"
	if policy.Scoped {
		scope = p.NeighborhoodID
	}
	return handlers.Result{
		Msg:     fmt.Sprintf("%s revealed %d of %d %s orders (%s)", ctx.PlayerID, len(revealed), len(candidates), layer, scope),
		Layer:   layer,
		Touched: revealed,
	}, nil
}
