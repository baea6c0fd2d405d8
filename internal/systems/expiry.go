package systems

import (
	"time"

	"github.com/ChristopherWirtOfficial/goofworld-economy/internal/domain"
)

// ExpireReveals скрывает заказы, у которых revealedUntil < now.
// Идемпотентна. Возвращает ID скрытых заказов в стабильном порядке.
func ExpireReveals(state *domain.GameState, now time.Time) []string {
	var expired []string
	for _, id := range state.OrderIDs() {
		o := state.Orders[id]
		if !o.Revealed || o.RevealedUntil == nil {
			continue
		}
		if o.RevealedUntil.Before(now) {
			o.Hide()
			expired = append(expired, id)
		}
	}
	return expired
}
