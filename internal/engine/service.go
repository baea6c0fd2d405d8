package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/ChristopherWirtOfficial/goofworld-economy/internal/domain"
	"github.com/ChristopherWirtOfficial/goofworld-economy/internal/engine/handlers"
	"github.com/ChristopherWirtOfficial/goofworld-economy/internal/engine/handlers/actions"
	"github.com/ChristopherWirtOfficial/goofworld-economy/internal/network"
	"github.com/ChristopherWirtOfficial/goofworld-economy/internal/observability"
	"github.com/ChristopherWirtOfficial/goofworld-economy/internal/systems"
	"github.com/ChristopherWirtOfficial/goofworld-economy/pkg/api"
	"github.com/ChristopherWirtOfficial/goofworld-economy/pkg/logger"
	"github.com/ChristopherWirtOfficial/goofworld-economy/pkg/supply"
	"github.com/ChristopherWirtOfficial/goofworld-economy/pkg/utils"

	"github.com/sirupsen/logrus"
)

// ErrStopped возвращается, если цикл движка уже завершен.
var ErrStopped = errors.New("engine stopped")

// DefaultActionLimit - сколько записей журнала отдавать, если лимит не задан
const DefaultActionLimit = 100

// Outcome - результат принятого действия
type Outcome struct {
	Action    domain.ActionType
	Msg       string
	Touched   []string
	AppliedAt time.Time
	// Persisted false, если мутация применена в памяти, но хранилище вернуло ошибку
	Persisted bool
}

// ResetResult - результат сброса партии
type ResetResult struct {
	Stats     supply.Stats
	Persisted bool
}

type actionReply struct {
	outcome Outcome
	err     error
}

type actionRequest struct {
	cmd   domain.Command
	reply chan actionReply
}

type resetReply struct {
	result ResetResult
	err    error
}

type joinRequest struct {
	sessionID string
	reply     chan chan api.ServerMessage
}

// GameService - единственный владелец GameState.
// Все мутации (действия, тики, сброс) выполняются в одной горутине Run.
type GameService struct {
	Hub *network.Broadcaster

	cfg   Config
	store Store
	rng   *rand.Rand
	now   func() time.Time
	log   *logrus.Entry

	// Доступно только из Run (и из Bootstrap до его запуска)
	state *domain.GameState

	actionHandlers map[domain.ActionType]handlers.HandlerFunc

	// Каналы коммуникации
	commandChan  chan actionRequest
	resetChan    chan chan resetReply
	snapshotChan chan chan *domain.GameState
	joinChan     chan joinRequest
	tickChan     chan chan []string

	done chan struct{}
}

func NewService(cfg Config, store Store, hub *network.Broadcaster) *GameService {
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	if cfg.CommandBuffer <= 0 {
		cfg.CommandBuffer = 100
	}
	if cfg.PersistTimeout <= 0 {
		cfg.PersistTimeout = 5 * time.Second
	}
	if hub == nil {
		hub = network.NewBroadcaster()
	}

	rng, seed := utils.NewRand(cfg.Seed)
	cfg.Seed = seed

	s := &GameService{
		Hub:            hub,
		cfg:            cfg,
		store:          store,
		rng:            rng,
		now:            cfg.Clock,
		log:            logger.Component("engine"),
		actionHandlers: make(map[domain.ActionType]handlers.HandlerFunc),
		commandChan:    make(chan actionRequest, cfg.CommandBuffer),
		resetChan:      make(chan chan resetReply),
		snapshotChan:   make(chan chan *domain.GameState),
		joinChan:       make(chan joinRequest),
		tickChan:       make(chan chan []string),
		done:           make(chan struct{}),
	}

	s.registerHandlers()
	return s
}

func (s *GameService) registerHandlers() {
	s.actionHandlers[domain.ActionMoveOrder] = handlers.WithPayload(actions.HandleMoveOrder)
	s.actionHandlers[domain.ActionRevealOrders] = handlers.WithPayload(actions.HandleRevealOrders)
}

// Seed возвращает фактически использованное мастер-зерно.
func (s *GameService) Seed() int64 {
	return s.cfg.Seed
}

// Bootstrap загружает состояние из хранилища или генерирует новое.
// Вызывается один раз до Run.
func (s *GameService) Bootstrap(ctx context.Context) error {
	exists, err := s.store.Exists(ctx)
	if err != nil {
		s.log.WithError(err).Warn("Failed to check saved state, generating a new one")
	}

	if exists {
		state, err := s.store.Load(ctx)
		if err == nil && state != nil {
			if verr := state.CheckInvariants(); verr != nil {
				s.log.WithError(verr).Warn("Loaded state violates graph invariants")
			}
			s.state = state
			s.log.WithFields(logrus.Fields{
				"entities": len(state.Entities),
				"orders":   len(state.Orders),
			}).Info("Game state loaded")
			return nil
		}
		s.log.WithError(err).Warn("Failed to load saved state, generating a new one")
	}

	state, stats, err := s.generate()
	if err != nil {
		return err
	}
	s.state = state
	s.saveFull(ctx, "bootstrap")
	s.log.WithFields(logrus.Fields{
		"seed":      s.cfg.Seed,
		"entities":  stats.Entities,
		"deleted":   stats.DeletedOrders,
		"scrambled": stats.ScrambledOrders,
		"orders":    stats.FinalOrders,
	}).Info("Game state generated")
	return nil
}

func (s *GameService) generate() (*domain.GameState, supply.Stats, error) {
	state, stats, err := supply.Generate(s.cfg.Topology, s.rng, s.now())
	if err != nil {
		return nil, supply.Stats{}, fmt.Errorf("generate topology: %w", err)
	}
	return state, stats, nil
}

// --- GAME LOOP ---

// Run - цикл единственного писателя. Блокирует до отмены ctx.
func (s *GameService) Run(ctx context.Context) error {
	if s.state == nil {
		return errors.New("engine: Run called before Bootstrap")
	}
	defer close(s.done)

	ticker := time.NewTicker(s.state.TickInterval)
	defer ticker.Stop()

	s.log.WithField("tick_interval", s.state.TickInterval).Info("Engine loop started")

	for {
		select {
		case <-ctx.Done():
			s.log.Info("Engine loop stopped")
			return ctx.Err()

		case req := <-s.commandChan:
			outcome, err := s.executeCommand(ctx, req.cmd)
			req.reply <- actionReply{outcome: outcome, err: err}

		case <-ticker.C:
			s.tick(ctx)

		case reply := <-s.tickChan:
			reply <- s.tick(ctx)

		case reply := <-s.resetChan:
			res, err := s.reset(ctx)
			if err == nil {
				ticker.Reset(s.state.TickInterval)
			}
			reply <- resetReply{result: res, err: err}

		case reply := <-s.snapshotChan:
			reply <- s.state.Clone()

		case req := <-s.joinChan:
			// Регистрация и первый снимок внутри цикла: между ними не вклинится мутация
			ch := s.Hub.Register(req.sessionID)
			s.Hub.SendTo(req.sessionID, s.stateMessage())
			observability.SetSubscribers(s.Hub.SubscriberCount())
			req.reply <- ch
		}
	}
}

// executeCommand выполняет хендлер, сохраняет и рассылает состояние
func (s *GameService) executeCommand(ctx context.Context, cmd domain.Command) (Outcome, error) {
	cmdLog := s.log.WithFields(logrus.Fields{
		"player_id": cmd.PlayerID,
		"action":    cmd.Action.String(),
	})

	handler, ok := s.actionHandlers[cmd.Action]
	if !ok {
		observability.RecordAction(cmd.Action.String(), "rejected")
		return Outcome{}, domain.InvalidActionType("unknown action type %q", cmd.Action.String())
	}

	now := s.now()
	hctx := handlers.Context{
		State:    s.state,
		Rng:      s.rng,
		Now:      now,
		PlayerID: cmd.PlayerID,
	}

	// 1. Применение (при ошибке состояние не изменено)
	result, err := handler(hctx, cmd.Payload)
	if err != nil {
		observability.RecordAction(cmd.Action.String(), "rejected")
		if domain.IsValidation(err) {
			cmdLog.WithError(err).Debug("Action rejected")
		} else {
			cmdLog.WithError(err).Error("Action failed")
		}
		return Outcome{}, err
	}

	// 2. Сохранение
	persisted := s.persist(ctx, result.Touched)
	s.logAction(ctx, cmd)

	// 3. Рассылка
	s.broadcastState()

	observability.RecordAction(cmd.Action.String(), "accepted")
	if result.Layer != "" {
		observability.RecordReveal(string(result.Layer), len(result.Touched))
	}
	cmdLog.WithFields(logrus.Fields{
		"touched":   len(result.Touched),
		"persisted": persisted,
	}).Info(result.Msg)

	return Outcome{
		Action:    cmd.Action,
		Msg:       result.Msg,
		Touched:   result.Touched,
		AppliedAt: now,
		Persisted: persisted,
	}, nil
}

// tick снимает просроченные раскрытия. Без изменений ничего не сохраняет и не рассылает.
func (s *GameService) tick(ctx context.Context) []string {
	start := time.Now()
	expired := systems.ExpireReveals(s.state, s.now())
	if len(expired) > 0 {
		s.persist(ctx, expired)
		s.broadcastState()
		s.log.WithField("expired", len(expired)).Debug("Reveals expired")
	}
	observability.RecordTick(len(expired), time.Since(start))
	return expired
}

func (s *GameService) reset(ctx context.Context) (ResetResult, error) {
	state, stats, err := s.generate()
	if err != nil {
		s.log.WithError(err).Error("Reset failed, keeping current state")
		return ResetResult{}, err
	}
	s.state = state
	persisted := s.saveFull(ctx, "reset")
	s.broadcastState()

	s.log.WithFields(logrus.Fields{
		"orders":    stats.FinalOrders,
		"persisted": persisted,
	}).Info("Game state reset")
	return ResetResult{Stats: stats, Persisted: persisted}, nil
}

// persist сохраняет изменения. Хранилище с OrderPatcher получает только затронутые заказы.
func (s *GameService) persist(ctx context.Context, touched []string) bool {
	patcher, ok := s.store.(OrderPatcher)
	if !ok {
		return s.saveFull(ctx, "save")
	}
	if len(touched) == 0 {
		return true
	}

	orders := make([]*domain.Order, 0, len(touched))
	for _, id := range touched {
		if o := s.state.GetOrder(id); o != nil {
			orders = append(orders, o)
		}
	}

	pctx, cancel := context.WithTimeout(ctx, s.cfg.PersistTimeout)
	defer cancel()
	if err := patcher.PatchOrders(pctx, orders); err != nil {
		s.log.WithError(err).WithField("orders", len(orders)).Error("Failed to patch orders")
		observability.RecordPersistenceFailure("patch")
		return false
	}
	return true
}

func (s *GameService) saveFull(ctx context.Context, op string) bool {
	pctx, cancel := context.WithTimeout(ctx, s.cfg.PersistTimeout)
	defer cancel()
	if err := s.store.Save(pctx, s.state); err != nil {
		s.log.WithError(err).WithField("op", op).Error("Failed to save game state")
		observability.RecordPersistenceFailure(op)
		return false
	}
	return true
}

func (s *GameService) logAction(ctx context.Context, cmd domain.Command) {
	pctx, cancel := context.WithTimeout(ctx, s.cfg.PersistTimeout)
	defer cancel()
	rec := domain.ActionRecord{
		PlayerID:   cmd.PlayerID,
		ActionType: cmd.Action.String(),
		Payload:    cmd.Payload,
		Timestamp:  cmd.Timestamp,
		CreatedAt:  s.now(),
	}
	if err := s.store.LogAction(pctx, rec); err != nil {
		s.log.WithError(err).WithField("player_id", cmd.PlayerID).Error("Failed to log action")
		observability.RecordPersistenceFailure("log_action")
	}
}

func (s *GameService) stateMessage() api.ServerMessage {
	return api.ServerMessage{Event: api.EventGameStateUpdate, Data: BuildSnapshot(s.state)}
}

func (s *GameService) broadcastState() {
	if dropped := s.Hub.Broadcast(s.stateMessage()); dropped > 0 {
		s.log.WithField("dropped", dropped).Warn("Snapshot dropped for slow subscribers")
	}
}

// --- API для транспорта (вызываются из любых горутин) ---

// Submit принимает сырое действие игрока и ждет результата.
// ctx ограничивает только ожидание: поставленное в очередь действие будет применено.
func (s *GameService) Submit(ctx context.Context, raw json.RawMessage) (Outcome, error) {
	cmd, err := s.parseCommand(raw)
	if err != nil {
		observability.RecordAction("unknown", "rejected")
		return Outcome{}, err
	}

	req := actionRequest{cmd: cmd, reply: make(chan actionReply, 1)}
	select {
	case s.commandChan <- req:
	case <-ctx.Done():
		return Outcome{}, ctx.Err()
	case <-s.done:
		return Outcome{}, ErrStopped
	}

	select {
	case r := <-req.reply:
		return r.outcome, r.err
	case <-ctx.Done():
		return Outcome{}, ctx.Err()
	case <-s.done:
		return Outcome{}, ErrStopped
	}
}

// parseCommand разбирает общие поля действия. Поля конкретного действия
// достает хендлер из того же JSON.
func (s *GameService) parseCommand(raw json.RawMessage) (domain.Command, error) {
	var header api.PlayerAction
	if err := json.Unmarshal(raw, &header); err != nil {
		return domain.Command{}, domain.InvalidPayload("invalid action format: %v", err)
	}

	action := domain.ParseAction(header.Type)
	if action == domain.ActionUnknown {
		return domain.Command{}, domain.InvalidActionType("unknown action type %q", header.Type)
	}

	ts := s.now()
	if header.Timestamp > 0 {
		ts = time.UnixMilli(header.Timestamp)
	}

	return domain.Command{
		Action:    action,
		PlayerID:  header.PlayerID,
		Timestamp: ts,
		Payload:   raw,
	}, nil
}

// Reset заменяет состояние свежесгенерированным.
func (s *GameService) Reset(ctx context.Context) (ResetResult, error) {
	reply := make(chan resetReply, 1)
	select {
	case s.resetChan <- reply:
	case <-ctx.Done():
		return ResetResult{}, ctx.Err()
	case <-s.done:
		return ResetResult{}, ErrStopped
	}
	select {
	case r := <-reply:
		return r.result, r.err
	case <-s.done:
		return ResetResult{}, ErrStopped
	}
}

// Snapshot возвращает копию текущего состояния.
func (s *GameService) Snapshot(ctx context.Context) (*domain.GameState, error) {
	reply := make(chan *domain.GameState, 1)
	select {
	case s.snapshotChan <- reply:
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-s.done:
		return nil, ErrStopped
	}
	select {
	case st := <-reply:
		return st, nil
	case <-s.done:
		return nil, ErrStopped
	}
}

// Subscribe регистрирует сессию в хабе и сразу кладет в канал текущий снимок.
func (s *GameService) Subscribe(ctx context.Context, sessionID string) (<-chan api.ServerMessage, error) {
	reply := make(chan chan api.ServerMessage, 1)
	select {
	case s.joinChan <- joinRequest{sessionID: sessionID, reply: reply}:
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-s.done:
		return nil, ErrStopped
	}
	select {
	case ch := <-reply:
		return ch, nil
	case <-s.done:
		return nil, ErrStopped
	}
}

// Unsubscribe отключает сессию.
func (s *GameService) Unsubscribe(sessionID string) {
	s.Hub.Unregister(sessionID)
	observability.SetSubscribers(s.Hub.SubscriberCount())
}

// Tick запускает проверку истечений вне расписания. Возвращает ID скрытых заказов.
func (s *GameService) Tick(ctx context.Context) ([]string, error) {
	reply := make(chan []string, 1)
	select {
	case s.tickChan <- reply:
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-s.done:
		return nil, ErrStopped
	}
	select {
	case expired := <-reply:
		return expired, nil
	case <-s.done:
		return nil, ErrStopped
	}
}

// Actions читает журнал действий напрямую из хранилища.
func (s *GameService) Actions(ctx context.Context, playerID string, limit int) ([]domain.ActionRecord, error) {
	if limit <= 0 {
		limit = DefaultActionLimit
	}
	return s.store.ListActions(ctx, playerID, limit)
}
