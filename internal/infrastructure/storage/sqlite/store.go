package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/ChristopherWirtOfficial/goofworld-economy/internal/domain"
	"github.com/ChristopherWirtOfficial/goofworld-economy/internal/infrastructure/storage"

	_ "modernc.org/sqlite"
)

// Store - хранилище состояния в SQLite: метаданные, районы, сущности, заказы и журнал действий.
// Списки заказов сущностей и состав районов не хранятся, а восстанавливаются при загрузке.
type Store struct {
	db *sql.DB
}

// Open открывает (или создает) базу по пути path и применяет миграции.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	if path != ":memory:" {
		if err := storage.EnsureDir(path); err != nil {
			return nil, err
		}
	}

	dsn := path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// Один писатель: движок и так сериализует запись
	db.SetMaxOpenConns(1)

	if err := applyMigrations(context.Background(), db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

// Close закрывает базу.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Exists сообщает, сохранялось ли состояние.
func (s *Store) Exists(ctx context.Context) (bool, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM game_metadata WHERE id = 1`).Scan(&count); err != nil {
		return false, fmt.Errorf("check game metadata: %w", err)
	}
	return count > 0, nil
}

// Save полностью перезаписывает состояние в одной транзакции.
func (s *Store) Save(ctx context.Context, state *domain.GameState) error {
	now := time.Now().UnixMilli()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	// 1. Метаданные
	if _, err := tx.ExecContext(ctx, `
		INSERT OR REPLACE INTO game_metadata (id, start_time, end_time, tick_interval, created_at, updated_at)
		VALUES (1, ?, ?, ?, ?, ?)`,
		state.StartTime.UnixMilli(), state.EndTime.UnixMilli(), state.TickInterval.Milliseconds(), now, now,
	); err != nil {
		return fmt.Errorf("save metadata: %w", err)
	}

	// 2. Очистка (порядок важен из-за внешних ключей)
	for _, table := range []string{"orders", "entities", "neighborhoods"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}

	// 3. Районы
	for _, id := range sortedKeys(state.Neighborhoods) {
		n := state.Neighborhoods[id]
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO neighborhoods (id, name, created_at) VALUES (?, ?, ?)`,
			n.ID, n.Name, now,
		); err != nil {
			return fmt.Errorf("insert neighborhood %s: %w", n.ID, err)
		}
	}

	// 4. Сущности
	for _, id := range sortedKeys(state.Entities) {
		e := state.Entities[id]
		inventory, err := json.Marshal(e.Inventory)
		if err != nil {
			return fmt.Errorf("marshal inventory %s: %w", e.ID, err)
		}
		if e.Inventory == nil {
			inventory = []byte("{}")
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO entities (id, name, type, inventory_json, capacity, neighborhood_id, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			e.ID, e.Name, string(e.Type), string(inventory), e.Capacity, nullString(e.NeighborhoodID), now,
		); err != nil {
			return fmt.Errorf("insert entity %s: %w", e.ID, err)
		}
	}

	// 5. Заказы
	for _, id := range state.OrderIDs() {
		o := state.Orders[id]
		until, source := revealColumns(o)
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO orders (id, item, quantity, from_entity_id, to_entity_id, is_revealed, revealed_until, reveal_source, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			o.ID, o.Item, o.Quantity, o.FromEntityID, o.ToEntityID, boolInt(o.Revealed), until, source, now, now,
		); err != nil {
			return fmt.Errorf("insert order %s: %w", o.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit save: %w", err)
	}
	return nil
}

// PatchOrders обновляет концы и раскрытие только переданных заказов.
func (s *Store) PatchOrders(ctx context.Context, orders []*domain.Order) error {
	if len(orders) == 0 {
		return nil
	}
	now := time.Now().UnixMilli()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin patch: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		UPDATE orders
		SET from_entity_id = ?, to_entity_id = ?, is_revealed = ?, revealed_until = ?, reveal_source = ?, updated_at = ?
		WHERE id = ?`)
	if err != nil {
		return fmt.Errorf("prepare patch: %w", err)
	}
	defer stmt.Close()

	for _, o := range orders {
		until, source := revealColumns(o)
		if _, err := stmt.ExecContext(ctx, o.FromEntityID, o.ToEntityID, boolInt(o.Revealed), until, source, now, o.ID); err != nil {
			return fmt.Errorf("patch order %s: %w", o.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit patch: %w", err)
	}
	return nil
}

// Load читает состояние и восстанавливает списки заказов и состав районов.
func (s *Store) Load(ctx context.Context) (*domain.GameState, error) {
	state := domain.NewGameState()

	// 1. Метаданные
	var start, end, tick int64
	err := s.db.QueryRowContext(ctx,
		`SELECT start_time, end_time, tick_interval FROM game_metadata WHERE id = 1`,
	).Scan(&start, &end, &tick)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNoState
	}
	if err != nil {
		return nil, fmt.Errorf("load metadata: %w", err)
	}
	state.StartTime = time.UnixMilli(start)
	state.EndTime = time.UnixMilli(end)
	state.TickInterval = time.Duration(tick) * time.Millisecond

	// 2. Районы
	if err := s.loadNeighborhoods(ctx, state); err != nil {
		return nil, err
	}

	// 3. Сущности (+ состав районов)
	if err := s.loadEntities(ctx, state); err != nil {
		return nil, err
	}

	// 4. Заказы (+ списки сущностей)
	if err := s.loadOrders(ctx, state); err != nil {
		return nil, err
	}
	return state, nil
}

func (s *Store) loadNeighborhoods(ctx context.Context, state *domain.GameState) error {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name FROM neighborhoods ORDER BY rowid`)
	if err != nil {
		return fmt.Errorf("load neighborhoods: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		n := &domain.Neighborhood{StoreIDs: []string{}, HouseholdIDs: []string{}}
		if err := rows.Scan(&n.ID, &n.Name); err != nil {
			return fmt.Errorf("scan neighborhood: %w", err)
		}
		state.Neighborhoods[n.ID] = n
	}
	return rows.Err()
}

func (s *Store) loadEntities(ctx context.Context, state *domain.GameState) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, type, inventory_json, capacity, neighborhood_id FROM entities ORDER BY rowid`)
	if err != nil {
		return fmt.Errorf("load entities: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			e         domain.Entity
			typ       string
			inventory string
			hood      sql.NullString
		)
		if err := rows.Scan(&e.ID, &e.Name, &typ, &inventory, &e.Capacity, &hood); err != nil {
			return fmt.Errorf("scan entity: %w", err)
		}
		e.Type = domain.EntityType(typ)
		e.Inventory = make(map[string]int)
		if err := json.Unmarshal([]byte(inventory), &e.Inventory); err != nil {
			return fmt.Errorf("unmarshal inventory %s: %w", e.ID, err)
		}
		e.IncomingOrderIDs = []string{}
		e.OutgoingOrderIDs = []string{}
		e.NeighborhoodID = hood.String

		if n, ok := state.Neighborhoods[e.NeighborhoodID]; ok {
			switch e.Type {
			case domain.EntityTypeStore:
				n.StoreIDs = append(n.StoreIDs, e.ID)
			case domain.EntityTypeHousehold:
				n.HouseholdIDs = append(n.HouseholdIDs, e.ID)
			}
		}
		state.AddEntity(&e)
	}
	return rows.Err()
}

func (s *Store) loadOrders(ctx context.Context, state *domain.GameState) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, item, quantity, from_entity_id, to_entity_id, is_revealed, revealed_until, reveal_source
		FROM orders ORDER BY rowid`)
	if err != nil {
		return fmt.Errorf("load orders: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			o        domain.Order
			revealed int
			until    sql.NullInt64
			source   sql.NullString
		)
		if err := rows.Scan(&o.ID, &o.Item, &o.Quantity, &o.FromEntityID, &o.ToEntityID, &revealed, &until, &source); err != nil {
			return fmt.Errorf("scan order: %w", err)
		}
		if revealed == 1 && until.Valid && source.Valid {
			o.Reveal(time.UnixMilli(until.Int64), domain.Layer(source.String))
		}

		order := o
		state.Orders[order.ID] = &order
		if from := state.GetEntity(order.FromEntityID); from != nil {
			from.OutgoingOrderIDs = append(from.OutgoingOrderIDs, order.ID)
		}
		if to := state.GetEntity(order.ToEntityID); to != nil {
			to.IncomingOrderIDs = append(to.IncomingOrderIDs, order.ID)
		}
	}
	return rows.Err()
}

// LogAction пишет действие в журнал. Время действия берется из записи, иначе - текущее.
func (s *Store) LogAction(ctx context.Context, rec domain.ActionRecord) error {
	now := time.Now()
	ts := rec.Timestamp
	if ts.IsZero() {
		ts = now
	}
	data := string(rec.Payload)
	if data == "" {
		data = "{}"
	}
	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO player_actions (player_id, action_type, action_data_json, timestamp, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		rec.PlayerID, rec.ActionType, data, ts.UnixMilli(), now.UnixMilli(),
	); err != nil {
		return fmt.Errorf("log action: %w", err)
	}
	return nil
}

// ListActions возвращает последние действия, новые первыми.
func (s *Store) ListActions(ctx context.Context, playerID string, limit int) ([]domain.ActionRecord, error) {
	query := `SELECT id, player_id, action_type, action_data_json, timestamp, created_at FROM player_actions`
	args := []any{}
	if playerID != "" {
		query += ` WHERE player_id = ?`
		args = append(args, playerID)
	}
	query += ` ORDER BY timestamp DESC, id DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list actions: %w", err)
	}
	defer rows.Close()

	records := make([]domain.ActionRecord, 0)
	for rows.Next() {
		var (
			rec       domain.ActionRecord
			data      string
			ts, added int64
		)
		if err := rows.Scan(&rec.ID, &rec.PlayerID, &rec.ActionType, &data, &ts, &added); err != nil {
			return nil, fmt.Errorf("scan action: %w", err)
		}
		rec.Payload = json.RawMessage(data)
		rec.Timestamp = time.UnixMilli(ts)
		rec.CreatedAt = time.UnixMilli(added)
		records = append(records, rec)
	}
	return records, rows.Err()
}

func revealColumns(o *domain.Order) (any, any) {
	if !o.Revealed || o.RevealedUntil == nil || o.RevealSource == nil {
		return nil, nil
	}
	return o.RevealedUntil.UnixMilli(), string(*o.RevealSource)
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
