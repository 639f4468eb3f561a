// internal/handler/event_bus.go
package handler

import (
	"sync"

	"go.uber.org/zap"

	"barcodebuddy/internal/model"
)

// EventBus fans finished scan records out to live subscribers. The
// dispatcher publishes into it; the WebSocket handler subscribes per
// connected client. Slow subscribers drop records instead of blocking
// the scan pipeline.
type EventBus struct {
	mutex       sync.RWMutex
	subscribers map[int]chan *model.ScanRecord
	nextID      int
	logger      *zap.Logger
}

// NewEventBus creates a new event bus
func NewEventBus(logger *zap.Logger) *EventBus {
	return &EventBus{
		subscribers: make(map[int]chan *model.ScanRecord),
		logger:      logger,
	}
}

// BroadcastScan publishes a finished scan record to all subscribers
func (eb *EventBus) BroadcastScan(record *model.ScanRecord) {
	eb.mutex.RLock()
	defer eb.mutex.RUnlock()

	for id, subscriber := range eb.subscribers {
		select {
		case subscriber <- record:
		default:
			eb.logger.Warn("Scan feed subscriber is slow, dropping record",
				zap.Int("subscriber_id", id),
				zap.String("barcode", record.Barcode),
			)
		}
	}
}

// Subscribe registers a new subscriber and returns its ID and channel
func (eb *EventBus) Subscribe() (int, <-chan *model.ScanRecord) {
	eb.mutex.Lock()
	defer eb.mutex.Unlock()

	id := eb.nextID
	eb.nextID++

	subscriber := make(chan *model.ScanRecord, 16)
	eb.subscribers[id] = subscriber
	return id, subscriber
}

// Unsubscribe removes a subscriber and closes its channel
func (eb *EventBus) Unsubscribe(id int) {
	eb.mutex.Lock()
	defer eb.mutex.Unlock()

	if subscriber, ok := eb.subscribers[id]; ok {
		delete(eb.subscribers, id)
		close(subscriber)
	}
}

// SubscriberCount returns the number of active subscribers
func (eb *EventBus) SubscriberCount() int {
	eb.mutex.RLock()
	defer eb.mutex.RUnlock()
	return len(eb.subscribers)
}
