package supply

import (
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/ChristopherWirtOfficial/goofworld-economy/internal/domain"
	"github.com/ChristopherWirtOfficial/goofworld-economy/pkg/utils"
)

// Params - параметры генерации топологии
type Params struct {
	Warehouses         int
	StoresPerWarehouse int
	HouseholdsPerStore int
	Neighborhoods      int
	Items              []string

	DeletePercent   int // доля удаляемых заказов (хаос 1)
	ScramblePercent int // вероятность перемешать выживший заказ (хаос 2)

	GameDuration time.Duration
	TickInterval time.Duration
}

// DefaultParams возвращает параметры стандартной партии: 4 склада x 5 магазинов x 10 домов.
func DefaultParams() Params {
	return Params{
		Warehouses:         DefaultWarehouses,
		StoresPerWarehouse: DefaultStoresPerWarehouse,
		HouseholdsPerStore: DefaultHouseholdsPerStore,
		Neighborhoods:      DefaultNeighborhoods,
		Items:              append([]string(nil), DefaultItems...),
		DeletePercent:      DefaultDeletePercent,
		ScramblePercent:    DefaultScramblePercent,
		GameDuration:       DefaultGameDuration,
		TickInterval:       DefaultTickInterval,
	}
}

// Validate проверяет, что из параметров можно построить граф.
func (p Params) Validate() error {
	var errs []error
	if p.Warehouses < 1 {
		errs = append(errs, errors.New("warehouses must be at least 1"))
	}
	if p.StoresPerWarehouse < 1 {
		errs = append(errs, errors.New("stores per warehouse must be at least 1"))
	}
	if p.HouseholdsPerStore < 1 {
		errs = append(errs, errors.New("households per store must be at least 1"))
	}
	if p.Neighborhoods < 1 {
		errs = append(errs, errors.New("neighborhoods must be at least 1"))
	}
	if len(p.Items) == 0 {
		errs = append(errs, errors.New("item catalog is empty"))
	}
	if p.DeletePercent < 0 || p.DeletePercent > 100 {
		errs = append(errs, fmt.Errorf("delete percent %d out of range", p.DeletePercent))
	}
	if p.ScramblePercent < 0 || p.ScramblePercent > 100 {
		errs = append(errs, fmt.Errorf("scramble percent %d out of range", p.ScramblePercent))
	}
	if p.TickInterval <= 0 {
		errs = append(errs, errors.New("tick interval must be positive"))
	}
	return errors.Join(errs...)
}

// Stats - итоги генерации (для логов и тестов)
type Stats struct {
	Entities        int
	CleanOrders     int
	DeletedOrders   int
	ScrambledOrders int
	FinalOrders     int
}

// TopologyBuilder предоставляет fluent API для создания стартового графа
type TopologyBuilder struct {
	params Params
	rng    *rand.Rand

	state      *domain.GameState
	depot      *domain.Entity
	warehouses []*domain.Entity
	stores     []*domain.Entity
	households []*domain.Entity
	orderIDs   []string // порядок создания, нужен для воспроизводимости
	nextOrder  int
	stats      Stats
}

// NewTopology создает builder с параметрами по умолчанию
func NewTopology(rng *rand.Rand) *TopologyBuilder {
	return &TopologyBuilder{params: DefaultParams(), rng: rng}
}

// WithParams полностью заменяет параметры
func (b *TopologyBuilder) WithParams(p Params) *TopologyBuilder {
	b.params = p
	return b
}

// WithLayout задает размеры слоев
func (b *TopologyBuilder) WithLayout(warehouses, storesPerWarehouse, householdsPerStore int) *TopologyBuilder {
	b.params.Warehouses = warehouses
	b.params.StoresPerWarehouse = storesPerWarehouse
	b.params.HouseholdsPerStore = householdsPerStore
	return b
}

// WithNeighborhoods задает количество районов
func (b *TopologyBuilder) WithNeighborhoods(n int) *TopologyBuilder {
	b.params.Neighborhoods = n
	return b
}

// WithItems задает каталог товаров
func (b *TopologyBuilder) WithItems(items ...string) *TopologyBuilder {
	b.params.Items = items
	return b
}

// WithChaos задает силу обоих проходов хаоса. 0, 0 дает чистый слоистый граф.
func (b *TopologyBuilder) WithChaos(deletePercent, scramblePercent int) *TopologyBuilder {
	b.params.DeletePercent = deletePercent
	b.params.ScramblePercent = scramblePercent
	return b
}

// Build генерирует состояние. now задает начало партии.
func (b *TopologyBuilder) Build(now time.Time) (*domain.GameState, Stats, error) {
	if b.rng == nil {
		return nil, Stats{}, errors.New("random source is required")
	}
	if err := b.params.Validate(); err != nil {
		return nil, Stats{}, fmt.Errorf("invalid topology params: %w", err)
	}

	b.reset()

	// 1. Сущности
	b.createEntities()

	// 2. Чистый слоистый граф заказов
	if err := b.createLayeredOrders(); err != nil {
		return nil, Stats{}, err
	}
	b.stats.CleanOrders = len(b.orderIDs)

	// 3. Районы
	b.assignNeighborhoods()

	// 4. Хаос 1: удаляем часть заказов
	b.deleteOrders()

	// 5. Хаос 2: перемешиваем концы выживших
	if err := b.scrambleOrders(); err != nil {
		return nil, Stats{}, err
	}

	// 6. Время партии
	b.state.StartTime = now
	b.state.EndTime = now.Add(b.params.GameDuration)
	b.state.TickInterval = b.params.TickInterval

	b.stats.Entities = len(b.state.Entities)
	b.stats.FinalOrders = len(b.state.Orders)
	return b.state, b.stats, nil
}

func (b *TopologyBuilder) reset() {
	b.state = domain.NewGameState()
	b.warehouses, b.stores, b.households = nil, nil, nil
	b.orderIDs = nil
	b.nextOrder = 0
	b.stats = Stats{}
}

func (b *TopologyBuilder) createEntities() {
	b.depot = b.spawn(DepotTemplate, 0)
	b.depot.Name = DepotTemplate.Name

	for i := 0; i < b.params.Warehouses; i++ {
		b.warehouses = append(b.warehouses, b.spawn(WarehouseTemplate, i))
	}
	for i := 0; i < len(b.warehouses)*b.params.StoresPerWarehouse; i++ {
		b.stores = append(b.stores, b.spawn(StoreTemplate, i))
	}
	for i := 0; i < len(b.stores)*b.params.HouseholdsPerStore; i++ {
		b.households = append(b.households, b.spawn(HouseholdTemplate, i))
	}
}

func (b *TopologyBuilder) spawn(t EntityTemplate, idx int) *domain.Entity {
	e := &domain.Entity{
		ID:               fmt.Sprintf("%s-%d", t.Prefix, idx),
		Name:             fmt.Sprintf("%s %d", t.Name, idx+1),
		Type:             t.Type,
		Capacity:         t.Capacity,
		Inventory:        make(map[string]int),
		IncomingOrderIDs: []string{},
		OutgoingOrderIDs: []string{},
	}
	b.state.AddEntity(e)
	return e
}

func (b *TopologyBuilder) createLayeredOrders() error {
	// Депо -> каждый склад
	for _, wh := range b.warehouses {
		if err := b.supplyAll(b.depot, wh, DepotToWarehouseQty); err != nil {
			return err
		}
	}
	// Склад -> свои магазины (round-robin блоками)
	for i, store := range b.stores {
		wh := b.warehouses[i/b.params.StoresPerWarehouse]
		if err := b.supplyAll(wh, store, WarehouseToStoreQty); err != nil {
			return err
		}
	}
	// Магазин -> свои дома
	for i, hh := range b.households {
		store := b.stores[i/b.params.HouseholdsPerStore]
		if err := b.supplyAll(store, hh, StoreToHouseholdQty); err != nil {
			return err
		}
	}
	return nil
}

// supplyAll создает по заказу на каждый товар каталога
func (b *TopologyBuilder) supplyAll(from, to *domain.Entity, qty QuantityRange) error {
	for _, item := range b.params.Items {
		o := &domain.Order{
			ID:           fmt.Sprintf("order-%d", b.nextOrder),
			Item:         item,
			Quantity:     qty.Min + b.rng.Intn(qty.Spread),
			FromEntityID: from.ID,
			ToEntityID:   to.ID,
		}
		b.nextOrder++
		if err := b.state.AttachOrder(o); err != nil {
			return err
		}
		b.orderIDs = append(b.orderIDs, o.ID)
	}
	return nil
}

// assignNeighborhoods делит магазины и дома на смежные диапазоны
func (b *TopologyBuilder) assignNeighborhoods() {
	n := b.params.Neighborhoods
	hoods := make([]*domain.Neighborhood, n)
	for i := 0; i < n; i++ {
		name := fmt.Sprintf("Neighborhood %d", i+1)
		if i < len(NeighborhoodNames) {
			name = NeighborhoodNames[i]
		}
		hoods[i] = &domain.Neighborhood{
			ID:           fmt.Sprintf("neighborhood-%d", i),
			Name:         name,
			StoreIDs:     []string{},
			HouseholdIDs: []string{},
		}
		b.state.Neighborhoods[hoods[i].ID] = hoods[i]
	}

	for i, store := range b.stores {
		h := hoods[i*n/len(b.stores)]
		store.NeighborhoodID = h.ID
		h.StoreIDs = append(h.StoreIDs, store.ID)
	}
	for i, hh := range b.households {
		h := hoods[i*n/len(b.households)]
		hh.NeighborhoodID = h.ID
		h.HouseholdIDs = append(h.HouseholdIDs, hh.ID)
	}
}

func (b *TopologyBuilder) deleteOrders() {
	k := utils.Percent(len(b.orderIDs), b.params.DeletePercent)
	deleted := make(map[string]bool, k)
	for _, idx := range utils.SampleIndices(b.rng, len(b.orderIDs), k) {
		id := b.orderIDs[idx]
		b.state.DeleteOrder(id)
		deleted[id] = true
	}

	survivors := b.orderIDs[:0]
	for _, id := range b.orderIDs {
		if !deleted[id] {
			survivors = append(survivors, id)
		}
	}
	b.orderIDs = survivors
	b.stats.DeletedOrders = len(deleted)
}

func (b *TopologyBuilder) scrambleOrders() error {
	// Депо не участвует: пул - все остальные сущности
	pool := make([]string, 0, len(b.warehouses)+len(b.stores)+len(b.households))
	for _, layer := range [][]*domain.Entity{b.warehouses, b.stores, b.households} {
		for _, e := range layer {
			pool = append(pool, e.ID)
		}
	}

	for _, id := range b.orderIDs {
		if b.rng.Intn(100) >= b.params.ScramblePercent {
			continue
		}
		from := pool[b.rng.Intn(len(pool))]
		to := pool[b.rng.Intn(len(pool))]
		if err := b.state.RerouteOrder(b.state.GetOrder(id), from, to); err != nil {
			return err
		}
		b.stats.ScrambledOrders++
	}
	return nil
}

// Generate - короткая форма NewTopology(rng).WithParams(p).Build(now)
func Generate(p Params, rng *rand.Rand, now time.Time) (*domain.GameState, Stats, error) {
	return NewTopology(rng).WithParams(p).Build(now)
}
