package storage

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/ChristopherWirtOfficial/goofworld-economy/internal/domain"
)

const (
	MagicHeader string = `GWSS` // 4 байта
	Version1    uint32 = 1
)

// ErrNoState возвращается из Load, если сохраненного состояния нет
var ErrNoState = errors.New("storage: no saved state")

// SnapshotHeader - точное представление заголовка снимка в памяти.
// binary.Write умеет писать это целиком, так как тут нет слайсов и строк, только массивы и числа.
type SnapshotHeader struct {
	Magic       [4]byte // 4 байта
	Version     uint32  // 4 байта
	SavedAt     int64   // 8 байт, Unix ms
	EntityCount int32   // 4 байта
	OrderCount  int32   // 4 байта
	PayloadLen  uint32  // 4 байта
}

// EncodeState пишет заголовок и JSON-тело состояния.
func EncodeState(w io.Writer, state *domain.GameState, savedAt time.Time) error {
	payload, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}

	header := SnapshotHeader{
		Version:     Version1,
		SavedAt:     savedAt.UnixMilli(),
		EntityCount: int32(len(state.Entities)),
		OrderCount:  int32(len(state.Orders)),
		PayloadLen:  uint32(len(payload)),
	}
	copy(header.Magic[:], MagicHeader)

	if err := binary.Write(w, binary.LittleEndian, header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	if _, err := w.Write(payload); err != nil {
		return fmt.Errorf("failed to write payload: %w", err)
	}
	return nil
}

// DecodeState читает снимок, записанный EncodeState.
func DecodeState(r io.Reader) (*domain.GameState, SnapshotHeader, error) {
	// 1. Читаем заголовок целиком
	var header SnapshotHeader
	if err := binary.Read(r, binary.LittleEndian, &header); err != nil {
		return nil, header, fmt.Errorf("failed to read header: %w", err)
	}

	// Валидация
	if string(header.Magic[:]) != MagicHeader {
		return nil, header, fmt.Errorf("invalid magic")
	}
	if header.Version != Version1 {
		return nil, header, fmt.Errorf("unsupported version: %d (expected %d)", header.Version, Version1)
	}

	// 2. Тело
	payload := make([]byte, header.PayloadLen)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, header, fmt.Errorf("failed to read payload: %w", err)
	}

	state := domain.NewGameState()
	if err := json.Unmarshal(payload, state); err != nil {
		return nil, header, fmt.Errorf("unmarshal state: %w", err)
	}

	if int(header.EntityCount) != len(state.Entities) || int(header.OrderCount) != len(state.Orders) {
		return nil, header, fmt.Errorf("snapshot is truncated: header %d/%d, payload %d/%d",
			header.EntityCount, header.OrderCount, len(state.Entities), len(state.Orders))
	}
	return state, header, nil
}

// EnsureDir создает папку для файла базы, если ее нет
func EnsureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "" || dir == "." {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create storage dir: %w", err)
	}
	return nil
}
