package domain

import (
	"encoding/json"
	"strings"
	"time"
)

// ActionType - внутренний числовой идентификатор действия игрока
type ActionType uint8

const (
	ActionUnknown ActionType = iota
	ActionMoveOrder
	ActionRevealOrders
)

// Маппинг для конвертации JSON -> Domain
var actionStringToCmd = map[string]ActionType{
	"move_order":    ActionMoveOrder,
	"reveal_orders": ActionRevealOrders,
}

// Маппинг для логов Domain -> String
var actionCmdToString = map[ActionType]string{
	ActionMoveOrder:    "move_order",
	ActionRevealOrders: "reveal_orders",
}

// ParseAction конвертирует строку из JSON в ActionType
func ParseAction(s string) ActionType {
	if val, ok := actionStringToCmd[strings.ToLower(s)]; ok {
		return val
	}
	return ActionUnknown
}

// String реализует интерфейс Stringer (для fmt.Printf)
func (a ActionType) String() string {
	if val, ok := actionCmdToString[a]; ok {
		return val
	}
	return "unknown"
}

// Command - действие игрока в том виде, в каком его обрабатывает движок.
// Payload - исходный JSON целиком, хендлер сам достает нужные поля.
type Command struct {
	Action    ActionType
	PlayerID  string
	Timestamp time.Time
	Payload   json.RawMessage
}

// ActionRecord - запись журнала действий
type ActionRecord struct {
	ID         int64           `json:"id"`
	PlayerID   string          `json:"playerId"`
	ActionType string          `json:"actionType"`
	Payload    json.RawMessage `json:"actionData"`
	Timestamp  time.Time       `json:"timestamp"`
	CreatedAt  time.Time       `json:"createdAt"`
}

// --- Payloads ---

// Validator - интерфейс, который могут реализовать payload-структуры
type Validator interface {
	Validate() error
}

// MoveOrderPayload перенаправляет заказ на нового получателя.
type MoveOrderPayload struct {
	OrderID        string `json:"orderId"`
	TargetEntityID string `json:"targetEntityId"`
}

func (p MoveOrderPayload) Validate() error {
	if strings.TrimSpace(p.OrderID) == "" {
		return NotFound("orderId is required for move_order")
	}
	if strings.TrimSpace(p.TargetEntityID) == "" {
		return NotFound("targetEntityId is required for move_order")
	}
	return nil
}

// RevealOrdersPayload раскрывает часть заказов слоя.
type RevealOrdersPayload struct {
	Layer          string `json:"layer"`
	NeighborhoodID string `json:"neighborhoodId,omitempty"`
}

func (p RevealOrdersPayload) Validate() error {
	layer, ok := ParseLayer(p.Layer)
	if !ok {
		return InvalidLayer("invalid layer %q for reveal_orders", p.Layer)
	}
	if layer != LayerWarehouse && strings.TrimSpace(p.NeighborhoodID) == "" {
		return MissingScope("neighborhoodId is required for %s reveal_orders", layer)
	}
	return nil
}
