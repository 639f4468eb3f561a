package handler

import (
	"testing"

	"go.uber.org/zap"

	"barcodebuddy/internal/model"
)

func TestEventBus_BroadcastReachesAllSubscribers(t *testing.T) {
	bus := NewEventBus(zap.NewNop())

	_, first := bus.Subscribe()
	_, second := bus.Subscribe()

	record := &model.ScanRecord{Barcode: "111", Status: model.ScanStatusSuccess}
	bus.BroadcastScan(record)

	for i, ch := range []<-chan *model.ScanRecord{first, second} {
		select {
		case got := <-ch:
			if got.Barcode != "111" {
				t.Errorf("Subscriber %d got wrong record: %+v", i, got)
			}
		default:
			t.Errorf("Subscriber %d received nothing", i)
		}
	}
}

func TestEventBus_SlowSubscriberDoesNotBlock(t *testing.T) {
	bus := NewEventBus(zap.NewNop())
	bus.Subscribe()

	// Overflow the subscriber buffer; BroadcastScan must not block.
	for i := 0; i < 100; i++ {
		bus.BroadcastScan(&model.ScanRecord{Barcode: "111"})
	}
}

func TestEventBus_UnsubscribeClosesChannel(t *testing.T) {
	bus := NewEventBus(zap.NewNop())

	id, ch := bus.Subscribe()
	bus.Unsubscribe(id)

	if _, ok := <-ch; ok {
		t.Error("Expected channel to be closed after Unsubscribe")
	}
	if bus.SubscriberCount() != 0 {
		t.Errorf("Expected 0 subscribers, got %d", bus.SubscriberCount())
	}
}
