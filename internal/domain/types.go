package domain

import "strings"

// EntityType - уровень сущности в цепочке поставок
type EntityType string

const (
	EntityTypeDepot     EntityType = "depot"
	EntityTypeWarehouse EntityType = "warehouse"
	EntityTypeStore     EntityType = "store"
	EntityTypeHousehold EntityType = "household"
)

// Layer - слой графа, к которому применяется раскрытие
type Layer string

const (
	LayerWarehouse Layer = "warehouse"
	LayerStore     Layer = "store"
	LayerHousehold Layer = "household"
)

var knownLayers = map[string]Layer{
	"warehouse": LayerWarehouse,
	"store":     LayerStore,
	"household": LayerHousehold,
}

// ParseLayer конвертирует строку из JSON в Layer.
func ParseLayer(s string) (Layer, bool) {
	l, ok := knownLayers[strings.ToLower(strings.TrimSpace(s))]
	return l, ok
}

// EntityType возвращает тип сущностей, из которых состоит слой.
func (l Layer) EntityType() EntityType {
	return EntityType(l)
}

// HasNeighborhood сообщает, может ли сущность этого типа принадлежать району.
// Депо и склады глобальны.
func (t EntityType) HasNeighborhood() bool {
	return t == EntityTypeStore || t == EntityTypeHousehold
}
