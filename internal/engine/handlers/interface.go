package handlers

import (
	"encoding/json"
	"math/rand"
	"time"

	"github.com/ChristopherWirtOfficial/goofworld-economy/internal/domain"
)

// Context передает хендлеру состояние игры.
// State - авторитетный экземпляр, хендлер мутирует его на месте.
// До первой мутации хендлер обязан закончить все проверки.
type Context struct {
	State    *domain.GameState
	Rng      *rand.Rand
	Now      time.Time
	PlayerID string
}

// Result - возвращает результат выполнения команды.
// Хендлер НЕ сохраняет и НЕ рассылает состояние, это делает движок.
type Result struct {
	Msg     string       // Текст лога
	Layer   domain.Layer // Слой раскрытия (для метрик), пусто для move_order
	Touched []string     // ID измененных заказов
}

// HandlerFunc - это контракт для любой команды (move_order, reveal_orders).
type HandlerFunc func(ctx Context, payload json.RawMessage) (Result, error)

// EmptyResult - вспомогательная функция для пустого успешного ответа
func EmptyResult() Result {
	return Result{}
}
