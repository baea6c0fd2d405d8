package handlers

import (
	"encoding/json"

	"github.com/ChristopherWirtOfficial/goofworld-economy/internal/domain"
)

// TypedHandlerFunc - это "чистый" хендлер, который работает с готовой структурой T
type TypedHandlerFunc[T any] func(ctx Context, payload T) (Result, error)

// WithPayload берет "чистый" хендлер и превращает его в стандартный HandlerFunc.
// Она берет на себя Unmarshal и Validate.
func WithPayload[T any](handler TypedHandlerFunc[T]) HandlerFunc {
	return func(ctx Context, raw json.RawMessage) (Result, error) {
		var payload T

		// 1. Распаковка JSON
		if err := json.Unmarshal(raw, &payload); err != nil {
			return Result{}, domain.InvalidPayload("invalid payload format: %v", err)
		}

		// 2. Автоматическая валидация
		// Ошибки валидации уже типизированы (NotFound, MissingScope...), отдаем как есть
		if v, ok := any(payload).(domain.Validator); ok {
			if err := v.Validate(); err != nil {
				return Result{}, err
			}
		}

		// 3. Вызов чистой логики
		return handler(ctx, payload)
	}
}
