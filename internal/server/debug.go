package server

import (
	"context"
	"errors"
	"net/http"
	"sort"
	"time"

	"github.com/ChristopherWirtOfficial/goofworld-economy/internal/domain"
	"github.com/ChristopherWirtOfficial/goofworld-economy/internal/engine"
)

// DebugHandler предоставляет доступ к внутреннему состоянию движка
type DebugHandler struct {
	Service *engine.GameService
}

func NewDebugHandler(s *engine.GameService) *DebugHandler {
	return &DebugHandler{Service: s}
}

// RegisterRoutes регистрирует debug-эндпоинты
func (h *DebugHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/debug/summary", enableCORS(h.handleSummary))
	mux.HandleFunc("/debug/invariants", enableCORS(h.handleInvariants))
	mux.HandleFunc("/debug/tick", enableCORS(h.handleTick))
}

// SummaryView - сводка по графу
type SummaryView struct {
	Seed          int64          `json:"seed"`
	Entities      map[string]int `json:"entities"` // тип -> количество
	Orders        int            `json:"orders"`
	Revealed      int            `json:"revealed"`
	Neighborhoods int            `json:"neighborhoods"`
	Subscribers   int            `json:"subscribers"`
}

// InvariantsView - результат проверки целостности графа
type InvariantsView struct {
	OK         bool     `json:"ok"`
	Violations []string `json:"violations"`
}

// /debug/summary - количество сущностей по типам и раскрытых заказов
func (h *DebugHandler) handleSummary(w http.ResponseWriter, r *http.Request) {
	state, ok := h.snapshot(w, r)
	if !ok {
		return
	}

	view := SummaryView{
		Seed:          h.Service.Seed(),
		Entities:      make(map[string]int),
		Orders:        len(state.Orders),
		Revealed:      state.RevealedCount(time.Now()),
		Neighborhoods: len(state.Neighborhoods),
		Subscribers:   h.Service.Hub.SubscriberCount(),
	}
	for _, e := range state.Entities {
		view.Entities[string(e.Type)]++
	}
	writeJSON(w, http.StatusOK, view)
}

// /debug/invariants - полная проверка графа на копии состояния
func (h *DebugHandler) handleInvariants(w http.ResponseWriter, r *http.Request) {
	state, ok := h.snapshot(w, r)
	if !ok {
		return
	}

	view := InvariantsView{OK: true, Violations: []string{}}
	if err := state.CheckInvariants(); err != nil {
		view.OK = false
		view.Violations = splitJoined(err)
	}
	writeJSON(w, http.StatusOK, view)
}

// /debug/tick (POST) - внеочередная проверка истечений
func (h *DebugHandler) handleTick(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	expired, err := h.Service.Tick(ctx)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if expired == nil {
		expired = []string{}
	}
	sort.Strings(expired)
	writeJSON(w, http.StatusOK, map[string][]string{"expired": expired})
}

func (h *DebugHandler) snapshot(w http.ResponseWriter, r *http.Request) (*domain.GameState, bool) {
	if !allowMethod(w, r, http.MethodGet) {
		return nil, false
	}
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	state, err := h.Service.Snapshot(ctx)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return nil, false
	}
	return state, true
}

// splitJoined раскрывает errors.Join в список строк
func splitJoined(err error) []string {
	var joined interface{ Unwrap() []error }
	if errors.As(err, &joined) {
		out := make([]string, 0, len(joined.Unwrap()))
		for _, e := range joined.Unwrap() {
			out = append(out, e.Error())
		}
		return out
	}
	return []string{err.Error()}
}
