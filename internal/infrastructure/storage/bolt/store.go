package bolt

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/ChristopherWirtOfficial/goofworld-economy/internal/domain"
	"github.com/ChristopherWirtOfficial/goofworld-economy/internal/infrastructure/storage"
	"go.etcd.io/bbolt"
)

const (
	stateBucket   = "state"
	actionsBucket = "actions"
)

var currentKey = []byte("current")

// Store хранит состояние одним бинарным снимком (storage.EncodeState),
// а журнал действий - отдельными JSON-записями с монотонным ключом.
type Store struct {
	db *bbolt.DB
}

// Open открывает файл BoltDB по пути path.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	if err := storage.EnsureDir(path); err != nil {
		return nil, err
	}

	cleanPath := filepath.Clean(path)
	db, err := bbolt.Open(cleanPath, 0o600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open storage db: %w", err)
	}

	store := &Store{db: db}
	if err := store.ensureBuckets(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close закрывает файл.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) Exists(ctx context.Context) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	var ok bool
	err := s.db.View(func(tx *bbolt.Tx) error {
		ok = tx.Bucket([]byte(stateBucket)).Get(currentKey) != nil
		return nil
	})
	return ok, err
}

func (s *Store) Save(ctx context.Context, state *domain.GameState) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := storage.EncodeState(&buf, state, time.Now()); err != nil {
		return err
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(stateBucket))
		if bucket == nil {
			return fmt.Errorf("state bucket is missing")
		}
		return bucket.Put(currentKey, buf.Bytes())
	})
}

func (s *Store) Load(ctx context.Context) (*domain.GameState, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var state *domain.GameState
	err := s.db.View(func(tx *bbolt.Tx) error {
		payload := tx.Bucket([]byte(stateBucket)).Get(currentKey)
		if payload == nil {
			return storage.ErrNoState
		}
		// payload валиден только внутри транзакции, DecodeState его копирует
		decoded, _, err := storage.DecodeState(bytes.NewReader(payload))
		if err != nil {
			return err
		}
		state = decoded
		return nil
	})
	if err != nil {
		return nil, err
	}
	return state, nil
}

func (s *Store) LogAction(ctx context.Context, rec domain.ActionRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}
	if rec.Timestamp.IsZero() {
		rec.Timestamp = rec.CreatedAt
	}
	if len(rec.Payload) == 0 {
		rec.Payload = json.RawMessage("{}")
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(actionsBucket))
		if bucket == nil {
			return fmt.Errorf("actions bucket is missing")
		}
		seq, err := bucket.NextSequence()
		if err != nil {
			return fmt.Errorf("next action id: %w", err)
		}
		rec.ID = int64(seq)

		payload, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("marshal action: %w", err)
		}
		return bucket.Put(actionKey(seq), payload)
	})
}

// ListActions идет по журналу с конца. Ключи монотонны, поэтому порядок -
// порядок записи, а не поле Timestamp.
func (s *Store) ListActions(ctx context.Context, playerID string, limit int) ([]domain.ActionRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	records := make([]domain.ActionRecord, 0)
	err := s.db.View(func(tx *bbolt.Tx) error {
		cursor := tx.Bucket([]byte(actionsBucket)).Cursor()
		for k, v := cursor.Last(); k != nil && len(records) < limit; k, v = cursor.Prev() {
			var rec domain.ActionRecord
			if err := json.Unmarshal(v, &rec); err != nil {
				return fmt.Errorf("unmarshal action %x: %w", k, err)
			}
			if playerID != "" && rec.PlayerID != playerID {
				continue
			}
			records = append(records, rec)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}

func (s *Store) ensureBuckets() error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		for _, name := range []string{stateBucket, actionsBucket} {
			if _, err := tx.CreateBucketIfNotExists([]byte(name)); err != nil {
				return fmt.Errorf("create %s bucket: %w", name, err)
			}
		}
		return nil
	})
}

// actionKey - big-endian, чтобы лексикографический порядок совпадал с числовым
func actionKey(seq uint64) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, seq)
	return key
}
