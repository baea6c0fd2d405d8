package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/ChristopherWirtOfficial/goofworld-economy/internal/engine"
	"github.com/ChristopherWirtOfficial/goofworld-economy/internal/observability"
	"github.com/ChristopherWirtOfficial/goofworld-economy/internal/version"
	"github.com/ChristopherWirtOfficial/goofworld-economy/pkg/api"
	"github.com/ChristopherWirtOfficial/goofworld-economy/pkg/logger"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

// requestTimeout ограничивает ожидание ответа движка для HTTP и сокета
const requestTimeout = 5 * time.Second

type Server struct {
	Engine *engine.GameService
	Addr   string

	httpServer *http.Server
	log        *logrus.Entry
}

func New(engine *engine.GameService, addr string) *Server {
	s := &Server{
		Engine: engine,
		Addr:   addr,
		log:    logger.Component("http"),
	}
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler собирает все роуты.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	observability.RegisterMetrics()

	// Регистрируем роуты
	mux.HandleFunc("/ws", s.handleWS)
	mux.HandleFunc("/api/health", withMetrics("/api/health", enableCORS(s.handleHealth)))
	mux.HandleFunc("/api/gamestate", withMetrics("/api/gamestate", enableCORS(s.handleGameState)))
	mux.HandleFunc("/api/actions", withMetrics("/api/actions", enableCORS(s.handleActions)))
	mux.HandleFunc("/api/reset", withMetrics("/api/reset", enableCORS(s.handleReset)))
	mux.HandleFunc("/version", enableCORS(s.handleVersion))
	mux.Handle("/metrics", promhttp.Handler())

	debugHandler := NewDebugHandler(s.Engine)
	debugHandler.RegisterRoutes(mux)

	return mux
}

// Run запускает HTTP сервер. Блокирует до Shutdown.
func (s *Server) Run() error {
	s.log.Infof("Goofworld economy server running on %s", s.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown останавливает прием запросов. Сокеты закрываются отдельно, через хаб.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func enableCORS(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// Разрешаем запросы с фронтенда
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next(w, r)
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// withMetrics считает запросы по шаблону пути, а не по сырому URL
func withMetrics(path string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next(rec, r)
		observability.RecordHTTPRequest(r.Method, path, rec.status)
	}
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.WithError(err).Error("Upgrade error")
		return
	}

	client, err := NewClient(s.Engine, conn)
	if err != nil {
		s.log.WithError(err).Warn("Failed to subscribe websocket session")
		_ = conn.Close()
		return
	}

	// Запускаем пампы
	go client.writePump()
	go client.readPump()
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}
	writeJSON(w, http.StatusOK, api.HealthResponse{Status: "ok", Timestamp: time.Now().UnixMilli()})
}

func (s *Server) handleGameState(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	state, err := s.Engine.Snapshot(ctx)
	if err != nil {
		s.log.WithError(err).Error("Failed to read game state")
		writeError(w, http.StatusInternalServerError, "Failed to get game state")
		return
	}
	writeJSON(w, http.StatusOK, engine.BuildSnapshot(state))
}

func (s *Server) handleActions(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}

	limit := engine.DefaultActionLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	records, err := s.Engine.Actions(r.Context(), r.URL.Query().Get("playerId"), limit)
	if err != nil {
		s.log.WithError(err).Error("Failed to read action log")
		writeError(w, http.StatusInternalServerError, "Failed to get player actions")
		return
	}
	writeJSON(w, http.StatusOK, engine.BuildActionLog(records))
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	res, err := s.Engine.Reset(ctx)
	if err != nil {
		s.log.WithError(err).Error("Failed to reset game")
		writeError(w, http.StatusInternalServerError, "Failed to reset game")
		return
	}
	writeJSON(w, http.StatusOK, api.ResetResponse{
		Success:   true,
		Message:   "Game state reset",
		Persisted: res.Persisted,
	})
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, version.Info())
}

func allowMethod(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method == method {
		return true
	}
	w.Header().Set("Allow", method)
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	return false
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Log.WithError(err).Debug("write json response failed")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, api.ErrorResponse{Error: msg})
}
