package actions

import (
	"fmt"

	"github.com/ChristopherWirtOfficial/goofworld-economy/internal/domain"
	"github.com/ChristopherWirtOfficial/goofworld-economy/internal/engine/handlers"
)

// HandleMoveOrder перенаправляет заказ на нового получателя.
// Источник и его исходящий список не меняются.
func HandleMoveOrder(ctx handlers.Context, p domain.MoveOrderPayload) (handlers.Result, error) {
	order := ctx.State.GetOrder(p.OrderID)
	if order == nil {
		return handlers.EmptyResult(), domain.NotFound("order %s not found", p.OrderID)
	}
	if ctx.State.GetEntity(p.TargetEntityID) == nil {
		return handlers.EmptyResult(), domain.NotFound("entity %s not found", p.TargetEntityID)
	}

	from := order.ToEntityID
	if err := ctx.State.MoveOrderDestination(order, p.TargetEntityID); err != nil {
		return handlers.EmptyResult(), err
	}

	return handlers.Result{
		Msg:     fmt.Sprintf("%s moved %s from %s to %s", ctx.PlayerID, order.ID, from, p.TargetEntityID),
		Touched: []string{order.ID},
	}, nil
}
