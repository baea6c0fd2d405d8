package domain

import "time"

// Entity - узел графа поставок (депо, склад, магазин, домохозяйство)
type Entity struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Type      EntityType     `json:"type"`
	Capacity  int            `json:"capacity"`
	Inventory map[string]int `json:"inventory"` // item -> фунты, логикой пока не используется

	// Порядок важен: списки отражают порядок прикрепления заказов
	IncomingOrderIDs []string `json:"incomingOrderIds"`
	OutgoingOrderIDs []string `json:"outgoingOrderIds"`

	// Только для магазинов и домохозяйств
	NeighborhoodID string `json:"neighborhoodId,omitempty"`
}

// Order - направленное ребро графа (поставка)
type Order struct {
	ID           string `json:"id"`
	Item         string `json:"item"`
	Quantity     int    `json:"quantity"` // фунты
	FromEntityID string `json:"fromEntityId"`
	ToEntityID   string `json:"toEntityId"`

	// Revealed == true <=> RevealedUntil и RevealSource заданы
	Revealed      bool       `json:"isRevealed"`
	RevealedUntil *time.Time `json:"revealedUntil,omitempty"`
	RevealSource  *Layer     `json:"revealSource,omitempty"`
}

// Reveal делает заказ видимым до until. Повторное раскрытие обновляет срок и источник.
func (o *Order) Reveal(until time.Time, source Layer) {
	o.Revealed = true
	o.RevealedUntil = &until
	o.RevealSource = &source
}

// Hide снимает раскрытие.
func (o *Order) Hide() {
	o.Revealed = false
	o.RevealedUntil = nil
	o.RevealSource = nil
}

// Neighborhood - группа магазинов и домохозяйств для локальных раскрытий
type Neighborhood struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	StoreIDs     []string `json:"storeIds"`
	HouseholdIDs []string `json:"householdIds"`
}

// MembersOf возвращает сущности района, относящиеся к слою.
func (n *Neighborhood) MembersOf(layer Layer) []string {
	switch layer {
	case LayerStore:
		return n.StoreIDs
	case LayerHousehold:
		return n.HouseholdIDs
	}
	return nil
}
