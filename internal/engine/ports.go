package engine

import (
	"context"

	"github.com/ChristopherWirtOfficial/goofworld-economy/internal/domain"
)

// Store - порт хранилища. Реализации: sqlite, bolt, memory.
// Вызывается только из цикла движка, но ListActions может идти параллельно.
type Store interface {
	// Load возвращает сохраненное состояние. Вызывать только если Exists == true.
	Load(ctx context.Context) (*domain.GameState, error)
	// Save полностью перезаписывает сохраненное состояние.
	Save(ctx context.Context, state *domain.GameState) error
	// LogAction добавляет запись в журнал действий.
	LogAction(ctx context.Context, rec domain.ActionRecord) error
	// ListActions возвращает последние записи, новые первыми. playerID == "" - все игроки.
	ListActions(ctx context.Context, playerID string, limit int) ([]domain.ActionRecord, error)
	// Exists сообщает, есть ли сохраненное состояние.
	Exists(ctx context.Context) (bool, error)
}

// OrderPatcher реализуют хранилища, умеющие сохранять только измененные заказы.
type OrderPatcher interface {
	PatchOrders(ctx context.Context, orders []*domain.Order) error
}
