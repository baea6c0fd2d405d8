package agent

import (
	"context"
	"encoding/json"
	"math/rand"
	"sort"
	"time"

	"github.com/ChristopherWirtOfficial/goofworld-economy/internal/domain"
	"github.com/ChristopherWirtOfficial/goofworld-economy/internal/engine"
	"github.com/ChristopherWirtOfficial/goofworld-economy/pkg/api"
	"github.com/ChristopherWirtOfficial/goofworld-economy/pkg/logger"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Bot - встроенный игрок. Подписывается на движок как обычная сессия,
// держит последний снимок и раз в Interval отправляет действие:
// раскрытие случайного слоя или перенос одного из раскрытых заказов.
//
// Жизненный цикл:
//  1. NewBot -> игроку выдается UUID.
//  2. Run -> подписка, затем цикл до отмены ctx или остановки движка.
type Bot struct {
	PlayerID string
	Interval time.Duration

	service *engine.GameService
	rng     *rand.Rand
	log     *logrus.Entry

	latest *api.GameStateView
}

func NewBot(service *engine.GameService, interval time.Duration, seed int64) *Bot {
	id := "bot-" + uuid.NewString()
	return &Bot{
		PlayerID: id,
		Interval: interval,
		service:  service,
		rng:      rand.New(rand.NewSource(seed)),
		log:      logger.Component("bot").WithField("player_id", id),
	}
}

// Run запускает бота. Должен быть запущен в горутине.
func (b *Bot) Run(ctx context.Context) error {
	inbox, err := b.service.Subscribe(ctx, b.PlayerID)
	if err != nil {
		return err
	}
	defer b.service.Unsubscribe(b.PlayerID)

	ticker := time.NewTicker(b.Interval)
	defer ticker.Stop()

	b.log.Info("Bot started")
	for {
		select {
		case <-ctx.Done():
			b.log.Info("Bot stopped")
			return nil
		case msg, ok := <-inbox:
			if !ok {
				// Хаб закрыл канал: движок остановлен или сессия вытеснена
				return nil
			}
			if view, ok := msg.Data.(*api.GameStateView); ok {
				b.latest = view
			}
		case <-ticker.C:
			b.act(ctx)
		}
	}
}

func (b *Bot) act(ctx context.Context) {
	action := b.Plan()
	action.PlayerID = b.PlayerID
	action.Timestamp = time.Now().UnixMilli()

	raw, err := json.Marshal(action)
	if err != nil {
		b.log.WithError(err).Error("Failed to encode bot action")
		return
	}

	outcome, err := b.service.Submit(ctx, raw)
	entry := b.log.WithField("action", action.Type)
	switch {
	case err == nil:
		entry.WithField("touched", len(outcome.Touched)).Debug(outcome.Msg)
	case domain.IsValidation(err):
		entry.WithError(err).Debug("Bot action rejected")
	default:
		entry.WithError(err).Warn("Bot action failed")
	}
}

// Plan выбирает следующее действие по последнему снимку.
// Без снимка или без раскрытых заказов бот раскрывает.
func (b *Bot) Plan() api.PlayerAction {
	if b.latest != nil && b.rng.Intn(2) == 0 {
		if move, ok := planMove(b.latest, b.rng); ok {
			return move
		}
	}
	return planReveal(b.latest, b.rng)
}

// planReveal выбирает слой. Для районных слоев нужен район из снимка.
func planReveal(view *api.GameStateView, rng *rand.Rand) api.PlayerAction {
	layers := []domain.Layer{domain.LayerWarehouse, domain.LayerStore, domain.LayerHousehold}
	layer := layers[rng.Intn(len(layers))]

	hoods := sortedKeys(viewNeighborhoods(view))
	if layer == domain.LayerWarehouse || len(hoods) == 0 {
		return api.PlayerAction{Type: domain.ActionRevealOrders.String(), Layer: string(domain.LayerWarehouse)}
	}
	return api.PlayerAction{
		Type:           domain.ActionRevealOrders.String(),
		Layer:          string(layer),
		NeighborhoodID: hoods[rng.Intn(len(hoods))],
	}
}

// planMove переносит случайный раскрытый заказ к другой сущности того же типа,
// что и текущий получатель.
func planMove(view *api.GameStateView, rng *rand.Rand) (api.PlayerAction, bool) {
	var revealed []string
	for id, o := range view.Orders {
		if o.IsRevealed {
			revealed = append(revealed, id)
		}
	}
	if len(revealed) == 0 {
		return api.PlayerAction{}, false
	}
	sort.Strings(revealed)
	order := view.Orders[revealed[rng.Intn(len(revealed))]]

	dest, ok := view.Entities[order.ToEntityID]
	if !ok {
		return api.PlayerAction{}, false
	}
	var targets []string
	for id, e := range view.Entities {
		if e.Type == dest.Type && id != dest.ID {
			targets = append(targets, id)
		}
	}
	if len(targets) == 0 {
		return api.PlayerAction{}, false
	}
	sort.Strings(targets)

	return api.PlayerAction{
		Type:           domain.ActionMoveOrder.String(),
		OrderID:        order.ID,
		TargetEntityID: targets[rng.Intn(len(targets))],
	}, true
}

func viewNeighborhoods(view *api.GameStateView) map[string]api.NeighborhoodView {
	if view == nil {
		return nil
	}
	return view.Neighborhoods
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
