package network

import (
	"sync"

	"github.com/ChristopherWirtOfficial/goofworld-economy/pkg/api"
)

// SubscriberBuffer - емкость личного канала. Медленный подписчик теряет сообщения,
// но не блокирует движок.
const SubscriberBuffer = 64

// Broadcaster занимается только рассылкой сообщений подписчикам
type Broadcaster struct {
	mu sync.RWMutex
	// Мапа: SessionID -> Личный канал
	subscribers map[string]chan api.ServerMessage
}

func NewBroadcaster() *Broadcaster {
	return &Broadcaster{
		subscribers: make(map[string]chan api.ServerMessage),
	}
}

// Register создает личный канал для сессии (сокет или бот)
func (b *Broadcaster) Register(sessionID string) chan api.ServerMessage {
	b.mu.Lock()
	defer b.mu.Unlock()

	// Если канал был, закрываем
	if old, ok := b.subscribers[sessionID]; ok {
		close(old)
	}

	ch := make(chan api.ServerMessage, SubscriberBuffer)
	b.subscribers[sessionID] = ch
	return ch
}

// Unregister удаляет подписчика
func (b *Broadcaster) Unregister(sessionID string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if ch, ok := b.subscribers[sessionID]; ok {
		close(ch)
		delete(b.subscribers, sessionID)
	}
}

// SendTo отправляет сообщение конкретной сессии (Unicast).
// Возвращает false, если сессии нет или ее канал переполнен.
func (b *Broadcaster) SendTo(sessionID string, msg api.ServerMessage) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()

	ch, ok := b.subscribers[sessionID]
	if !ok {
		return false
	}
	select {
	case ch <- msg:
		return true
	default:
		return false
	}
}

// Broadcast отправляет всем. Возвращает число подписчиков, которым сообщение не влезло.
func (b *Broadcaster) Broadcast(msg api.ServerMessage) int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	dropped := 0
	for _, ch := range b.subscribers {
		select {
		case ch <- msg:
		default:
			dropped++
		}
	}
	return dropped
}

// HasSubscriber проверяет, подключена ли сессия
func (b *Broadcaster) HasSubscriber(sessionID string) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	_, ok := b.subscribers[sessionID]
	return ok
}

// SubscriberCount возвращает количество активных подписчиков.
func (b *Broadcaster) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}

// CloseAll отключает всех подписчиков (при остановке сервера)
func (b *Broadcaster) CloseAll() {
	b.mu.Lock()
	defer b.mu.Unlock()

	for id, ch := range b.subscribers {
		close(ch)
		delete(b.subscribers, id)
	}
}
