package network

import (
	"sync"
	"sync/atomic"

	"github.com/hunomina/wave-function-collapse/pkg/api"
	"github.com/hunomina/wave-function-collapse/pkg/logger"
	"github.com/sirupsen/logrus"
)

// SubscriberBuffer - сколько снимков может ждать медленный клиент.
// Дальше снимки для него отбрасываются: следующий всё равно полный.
const SubscriberBuffer = 16

// Broadcaster занимается только рассылкой снимков подписчикам
type Broadcaster struct {
	mu sync.RWMutex
	// Мапа: ID подписчика -> Личный канал
	subscribers map[string]chan api.ServerResponse

	dropped atomic.Int64
}

func NewBroadcaster() *Broadcaster {
	return &Broadcaster{
		subscribers: make(map[string]chan api.ServerResponse),
	}
}

// Register создает личный канал для подписчика (вкладка браузера, тест)
func (b *Broadcaster) Register(id string) chan api.ServerResponse {
	b.mu.Lock()
	defer b.mu.Unlock()

	// Если канал был, закрываем
	if old, ok := b.subscribers[id]; ok {
		close(old)
	}

	ch := make(chan api.ServerResponse, SubscriberBuffer)
	b.subscribers[id] = ch

	logger.Log.WithFields(logrus.Fields{
		"component":   "hub",
		"subscriber":  id,
		"subscribers": len(b.subscribers),
	}).Debug("Subscriber registered")
	return ch
}

// Unregister удаляет подписчика и закрывает его канал
func (b *Broadcaster) Unregister(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if ch, ok := b.subscribers[id]; ok {
		close(ch)
		delete(b.subscribers, id)
	}
}

// SendTo отправляет снимок конкретному подписчику (Unicast)
func (b *Broadcaster) SendTo(id string, msg api.ServerResponse) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if ch, ok := b.subscribers[id]; ok {
		b.send(ch, msg)
	}
}

// Broadcast отправляет всем подписчикам
func (b *Broadcaster) Broadcast(msg api.ServerResponse) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, ch := range b.subscribers {
		b.send(ch, msg)
	}
}

func (b *Broadcaster) send(ch chan api.ServerResponse, msg api.ServerResponse) {
	select {
	case ch <- msg:
	default:
		b.dropped.Add(1)
	}
}

// HasSubscriber проверяет, подключён ли подписчик
func (b *Broadcaster) HasSubscriber(id string) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	_, ok := b.subscribers[id]
	return ok
}

// SubscriberCount возвращает количество активных подписчиков.
func (b *Broadcaster) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}

// Dropped - сколько снимков не влезло в буферы подписчиков.
func (b *Broadcaster) Dropped() int64 {
	return b.dropped.Load()
}
