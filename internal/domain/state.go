package domain

import (
	"fmt"
	"slices"
	"sort"
	"time"
)

// GameState - корень агрегата. Единственный авторитетный экземпляр живет внутри движка,
// наружу отдаются только копии (Clone).
type GameState struct {
	Entities      map[string]*Entity       `json:"entities"`
	Orders        map[string]*Order        `json:"orders"`
	Neighborhoods map[string]*Neighborhood `json:"neighborhoods"`

	StartTime    time.Time     `json:"startTime"`
	EndTime      time.Time     `json:"endTime"`
	TickInterval time.Duration `json:"tickInterval"`
}

// NewGameState создает пустое состояние с инициализированными индексами.
func NewGameState() *GameState {
	return &GameState{
		Entities:      make(map[string]*Entity),
		Orders:        make(map[string]*Order),
		Neighborhoods: make(map[string]*Neighborhood),
	}
}

// GetEntity возвращает сущность по ID или nil.
func (s *GameState) GetEntity(id string) *Entity {
	return s.Entities[id]
}

// GetOrder возвращает заказ по ID или nil.
func (s *GameState) GetOrder(id string) *Order {
	return s.Orders[id]
}

// AddEntity регистрирует сущность в индексе.
func (s *GameState) AddEntity(e *Entity) {
	s.Entities[e.ID] = e
}

// AttachOrder регистрирует заказ и прикрепляет его к обоим концам.
// Источник и получатель уже должны существовать.
func (s *GameState) AttachOrder(o *Order) error {
	from, to := s.Entities[o.FromEntityID], s.Entities[o.ToEntityID]
	if from == nil || to == nil {
		return fmt.Errorf("order %s: endpoint %s -> %s not found", o.ID, o.FromEntityID, o.ToEntityID)
	}
	s.Orders[o.ID] = o
	from.OutgoingOrderIDs = appendUnique(from.OutgoingOrderIDs, o.ID)
	to.IncomingOrderIDs = appendUnique(to.IncomingOrderIDs, o.ID)
	return nil
}

// DetachOrder открепляет заказ от концов, но оставляет его в индексе.
func (s *GameState) DetachOrder(o *Order) {
	if from := s.Entities[o.FromEntityID]; from != nil {
		from.OutgoingOrderIDs = removeID(from.OutgoingOrderIDs, o.ID)
	}
	if to := s.Entities[o.ToEntityID]; to != nil {
		to.IncomingOrderIDs = removeID(to.IncomingOrderIDs, o.ID)
	}
}

// DeleteOrder полностью удаляет заказ из графа.
func (s *GameState) DeleteOrder(id string) {
	o, ok := s.Orders[id]
	if !ok {
		return
	}
	s.DetachOrder(o)
	delete(s.Orders, id)
}

// RerouteOrder переносит заказ на новую пару концов.
func (s *GameState) RerouteOrder(o *Order, fromID, toID string) error {
	if s.Entities[fromID] == nil || s.Entities[toID] == nil {
		return fmt.Errorf("order %s: endpoint %s -> %s not found", o.ID, fromID, toID)
	}
	s.DetachOrder(o)
	o.FromEntityID = fromID
	o.ToEntityID = toID
	return s.AttachOrder(o)
}

// MoveOrderDestination меняет только получателя заказа.
// Исходящий список источника не трогаем.
func (s *GameState) MoveOrderDestination(o *Order, targetID string) error {
	target := s.Entities[targetID]
	if target == nil {
		return fmt.Errorf("entity %s not found", targetID)
	}
	if old := s.Entities[o.ToEntityID]; old != nil {
		old.IncomingOrderIDs = removeID(old.IncomingOrderIDs, o.ID)
	}
	o.ToEntityID = targetID
	target.IncomingOrderIDs = appendUnique(target.IncomingOrderIDs, o.ID)
	return nil
}

// EntitiesOfType возвращает сущности типа t, отсортированные по ID.
func (s *GameState) EntitiesOfType(t EntityType) []*Entity {
	out := make([]*Entity, 0)
	for _, e := range s.Entities {
		if e.Type == t {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// OrderIDs возвращает ID всех заказов в стабильном порядке.
func (s *GameState) OrderIDs() []string {
	ids := make([]string, 0, len(s.Orders))
	for id := range s.Orders {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Clone возвращает глубокую копию состояния (снимок для читателей).
func (s *GameState) Clone() *GameState {
	if s == nil {
		return nil
	}
	c := &GameState{
		Entities:      make(map[string]*Entity, len(s.Entities)),
		Orders:        make(map[string]*Order, len(s.Orders)),
		Neighborhoods: make(map[string]*Neighborhood, len(s.Neighborhoods)),
		StartTime:     s.StartTime,
		EndTime:       s.EndTime,
		TickInterval:  s.TickInterval,
	}
	for id, e := range s.Entities {
		ce := *e
		ce.Inventory = make(map[string]int, len(e.Inventory))
		for k, v := range e.Inventory {
			ce.Inventory[k] = v
		}
		ce.IncomingOrderIDs = slices.Clone(e.IncomingOrderIDs)
		ce.OutgoingOrderIDs = slices.Clone(e.OutgoingOrderIDs)
		c.Entities[id] = &ce
	}
	for id, o := range s.Orders {
		co := *o
		if o.RevealedUntil != nil {
			until := *o.RevealedUntil
			co.RevealedUntil = &until
		}
		if o.RevealSource != nil {
			src := *o.RevealSource
			co.RevealSource = &src
		}
		c.Orders[id] = &co
	}
	for id, n := range s.Neighborhoods {
		cn := *n
		cn.StoreIDs = slices.Clone(n.StoreIDs)
		cn.HouseholdIDs = slices.Clone(n.HouseholdIDs)
		c.Neighborhoods[id] = &cn
	}
	return c
}

func appendUnique(ids []string, id string) []string {
	if slices.Contains(ids, id) {
		return ids
	}
	return append(ids, id)
}

func removeID(ids []string, id string) []string {
	return slices.DeleteFunc(ids, func(v string) bool { return v == id })
}
