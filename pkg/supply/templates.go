package supply

import (
	"time"

	"github.com/ChristopherWirtOfficial/goofworld-economy/internal/domain"
)

// Каталог товаров по умолчанию
var DefaultItems = []string{"potatoes", "weed", "bread", "rice", "eggs", "milk", "apples", "chicken"}

// Имена районов. Если районов больше, остальные получают имя "Neighborhood N".
var NeighborhoodNames = []string{"Downtown", "Westside", "Northbrook", "Riverside"}

// EntityTemplate описывает фиксированные параметры уровня
type EntityTemplate struct {
	Type     domain.EntityType
	Prefix   string // префикс ID: "warehouse" -> "warehouse-0"
	Name     string // отображаемое имя: "Warehouse" -> "Warehouse 1"
	Capacity int
}

var (
	DepotTemplate     = EntityTemplate{Type: domain.EntityTypeDepot, Prefix: "depot", Name: "Import Depot", Capacity: 1_000_000}
	WarehouseTemplate = EntityTemplate{Type: domain.EntityTypeWarehouse, Prefix: "warehouse", Name: "Warehouse", Capacity: 100_000}
	StoreTemplate     = EntityTemplate{Type: domain.EntityTypeStore, Prefix: "store", Name: "Store", Capacity: 10_000}
	HouseholdTemplate = EntityTemplate{Type: domain.EntityTypeHousehold, Prefix: "household", Name: "Household", Capacity: 1_000}
)

// QuantityRange - диапазон веса поставки в фунтах [Min, Min+Spread)
type QuantityRange struct {
	Min    int
	Spread int
}

var (
	DepotToWarehouseQty = QuantityRange{Min: 10_000, Spread: 5_000}
	WarehouseToStoreQty = QuantityRange{Min: 1_000, Spread: 500}
	StoreToHouseholdQty = QuantityRange{Min: 10, Spread: 10}
)

// Параметры по умолчанию
const (
	DefaultWarehouses         = 4
	DefaultStoresPerWarehouse = 5
	DefaultHouseholdsPerStore = 10
	DefaultNeighborhoods      = 4

	DefaultDeletePercent   = 50
	DefaultScramblePercent = 70

	DefaultGameDuration = 60 * 24 * time.Hour
	DefaultTickInterval = 5 * time.Minute
)
