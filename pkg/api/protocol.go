package api

import (
	"encoding/json"
)

// Имена событий сокета
const (
	EventPlayerAction    = "playerAction"
	EventRequestState    = "requestState"
	EventGameStateUpdate = "gameStateUpdate"
	EventActionSuccess   = "actionSuccess"
	EventActionError     = "actionError"
)

// --- КЛИЕНТ -> СЕРВЕР ---

// ClientMessage это корневой объект для всех сообщений от клиента к серверу.
type ClientMessage struct {
	// Event имя события: playerAction или requestState.
	Event string `json:"event"`

	// Data JSON-объект действия. Для requestState отсутствует.
	Data json.RawMessage `json:"data,omitempty"`
}

// PlayerAction - плоское действие игрока. Набор полей зависит от Type.
type PlayerAction struct {
	Type      string `json:"type"` // move_order | reveal_orders
	PlayerID  string `json:"playerId"`
	Timestamp int64  `json:"timestamp,omitempty"` // Unix milliseconds

	// move_order
	OrderID        string `json:"orderId,omitempty"`
	TargetEntityID string `json:"targetEntityId,omitempty"`

	// reveal_orders
	Layer          string `json:"layer,omitempty"`
	NeighborhoodID string `json:"neighborhoodId,omitempty"`
}

// --- СЕРВЕР -> КЛИЕНТ ---

// ServerMessage это корневой объект, который сервер отправляет клиенту.
type ServerMessage struct {
	Event string `json:"event"`
	Data  any    `json:"data,omitempty"`
}

// ActionSuccess подтверждает действие. Отправляется только автору.
type ActionSuccess struct {
	// NextActionTime момент, когда игрок может действовать снова (Unix ms).
	// Кулдауна нет, поэтому это всегда "сейчас".
	NextActionTime int64 `json:"nextActionTime"`

	// Persisted false, если мутация применена, но не сохранена в хранилище.
	Persisted bool `json:"persisted"`
}

// ActionError отклоняет действие. Отправляется только автору.
type ActionError struct {
	Message string `json:"message"`
	Kind    string `json:"kind,omitempty"` // NotFound, MissingScope, InvalidLayer, InvalidActionType, InvalidPayload
}

// GameStateView это полный снимок состояния. Время в Unix milliseconds.
type GameStateView struct {
	Entities      map[string]EntityView       `json:"entities"`
	Orders        map[string]OrderView        `json:"orders"`
	Neighborhoods map[string]NeighborhoodView `json:"neighborhoods"`

	StartTime    int64 `json:"startTime"`
	EndTime      int64 `json:"endTime"`
	TickInterval int64 `json:"tickInterval"` // ms
}

// EntityView это DTO узла графа.
type EntityView struct {
	ID               string         `json:"id"`
	Name             string         `json:"name"`
	Type             string         `json:"type"` // depot, warehouse, store, household
	Capacity         int            `json:"capacity"`
	Inventory        map[string]int `json:"inventory"`
	IncomingOrderIDs []string       `json:"incomingOrderIds"`
	OutgoingOrderIDs []string       `json:"outgoingOrderIds"`
	NeighborhoodID   string         `json:"neighborhoodId,omitempty"`
}

// OrderView это DTO поставки.
// RevealedUntil и RevealSource присутствуют только у раскрытых заказов.
type OrderView struct {
	ID            string  `json:"id"`
	Item          string  `json:"item"`
	Quantity      int     `json:"quantity"`
	FromEntityID  string  `json:"fromEntityId"`
	ToEntityID    string  `json:"toEntityId"`
	IsRevealed    bool    `json:"isRevealed"`
	RevealedUntil *int64  `json:"revealedUntil,omitempty"`
	RevealSource  *string `json:"revealSource,omitempty"`
}

// NeighborhoodView это DTO района.
type NeighborhoodView struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	StoreIDs     []string `json:"storeIds"`
	HouseholdIDs []string `json:"householdIds"`
}

// --- HTTP ---

// HealthResponse ответ /api/health
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp int64  `json:"timestamp"`
}

// ResetResponse ответ /api/reset
type ResetResponse struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	Persisted bool   `json:"persisted"`
}

// ActionLogEntry запись журнала для /api/actions
type ActionLogEntry struct {
	ID         int64           `json:"id"`
	PlayerID   string          `json:"playerId"`
	ActionType string          `json:"actionType"`
	ActionData json.RawMessage `json:"actionData"`
	Timestamp  int64           `json:"timestamp"`
	CreatedAt  int64           `json:"createdAt"`
}

// ErrorResponse тело ответа при ошибке HTTP-запроса
type ErrorResponse struct {
	Error string `json:"error"`
}
