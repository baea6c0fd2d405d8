package domain

import (
	"errors"
	"fmt"
	"time"
)

// CheckInvariants проверяет целостность графа. Возвращает все найденные нарушения,
// объединенные через errors.Join, или nil.
func (s *GameState) CheckInvariants() error {
	var errs []error

	// 1. Концы заказов существуют, флаг раскрытия согласован
	for id, o := range s.Orders {
		if o.ID != id {
			errs = append(errs, fmt.Errorf("order key %s holds order %s", id, o.ID))
		}
		if s.Entities[o.FromEntityID] == nil {
			errs = append(errs, fmt.Errorf("order %s: source %s not found", id, o.FromEntityID))
		}
		if s.Entities[o.ToEntityID] == nil {
			errs = append(errs, fmt.Errorf("order %s: destination %s not found", id, o.ToEntityID))
		}
		hasUntil, hasSource := o.RevealedUntil != nil, o.RevealSource != nil
		if o.Revealed != hasUntil || o.Revealed != hasSource {
			errs = append(errs, fmt.Errorf("order %s: revealed=%v until=%v source=%v", id, o.Revealed, hasUntil, hasSource))
		}
	}

	// 2 + 4. Каждый ID в списках сущности указывает на существующий заказ,
	// и заказ висит ровно в своем источнике и своем получателе.
	outgoing := make(map[string]int, len(s.Orders))
	incoming := make(map[string]int, len(s.Orders))
	for eid, e := range s.Entities {
		for _, oid := range e.OutgoingOrderIDs {
			o := s.Orders[oid]
			switch {
			case o == nil:
				errs = append(errs, fmt.Errorf("entity %s: dangling outgoing order %s", eid, oid))
			case o.FromEntityID != eid:
				errs = append(errs, fmt.Errorf("entity %s: outgoing order %s belongs to %s", eid, oid, o.FromEntityID))
			}
			outgoing[oid]++
		}
		for _, oid := range e.IncomingOrderIDs {
			o := s.Orders[oid]
			switch {
			case o == nil:
				errs = append(errs, fmt.Errorf("entity %s: dangling incoming order %s", eid, oid))
			case o.ToEntityID != eid:
				errs = append(errs, fmt.Errorf("entity %s: incoming order %s targets %s", eid, oid, o.ToEntityID))
			}
			incoming[oid]++
		}
	}
	for id := range s.Orders {
		if outgoing[id] != 1 {
			errs = append(errs, fmt.Errorf("order %s listed %d times as outgoing", id, outgoing[id]))
		}
		if incoming[id] != 1 {
			errs = append(errs, fmt.Errorf("order %s listed %d times as incoming", id, incoming[id]))
		}
	}

	// 3. Районы содержат только сущности своего типа со своим neighborhoodId
	for nid, n := range s.Neighborhoods {
		errs = append(errs, s.checkMembers(nid, n.StoreIDs, EntityTypeStore)...)
		errs = append(errs, s.checkMembers(nid, n.HouseholdIDs, EntityTypeHousehold)...)
	}
	for eid, e := range s.Entities {
		if e.NeighborhoodID != "" && !e.Type.HasNeighborhood() {
			errs = append(errs, fmt.Errorf("entity %s (%s) must not carry neighborhood %s", eid, e.Type, e.NeighborhoodID))
		}
	}

	return errors.Join(errs...)
}

func (s *GameState) checkMembers(nid string, ids []string, want EntityType) []error {
	var errs []error
	for _, id := range ids {
		e := s.Entities[id]
		switch {
		case e == nil:
			errs = append(errs, fmt.Errorf("neighborhood %s: member %s not found", nid, id))
		case e.Type != want:
			errs = append(errs, fmt.Errorf("neighborhood %s: %s is %s, want %s", nid, id, e.Type, want))
		case e.NeighborhoodID != nid:
			errs = append(errs, fmt.Errorf("neighborhood %s: %s points to %q", nid, id, e.NeighborhoodID))
		}
	}
	return errs
}

// RevealedCount возвращает количество раскрытых заказов на момент now (для отладки).
func (s *GameState) RevealedCount(now time.Time) int {
	n := 0
	for _, o := range s.Orders {
		if o.Revealed && o.RevealedUntil != nil && !o.RevealedUntil.Before(now) {
			n++
		}
	}
	return n
}
