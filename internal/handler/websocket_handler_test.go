package handler

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"barcodebuddy/internal/model"
)

func TestForwardRecords_ClosesSendAfterUnsubscribe(t *testing.T) {
	bus := NewEventBus(zap.NewNop())
	h := NewWebSocketHandler(bus, zap.NewNop())

	client := &Client{
		ID:   "test-client",
		Send: make(chan []byte, 4),
	}

	subscriberID, records := bus.Subscribe()

	done := make(chan struct{})
	go func() {
		h.forwardRecords(client, records)
		close(done)
	}()

	// A record still in flight while the subscription is torn down must
	// land on the send queue, never crash the forwarder.
	bus.BroadcastScan(&model.ScanRecord{Barcode: "111", Status: model.ScanStatusSuccess})
	bus.Unsubscribe(subscriberID)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Expected forwarder to terminate after Unsubscribe")
	}

	select {
	case payload, ok := <-client.Send:
		if !ok {
			t.Fatal("Expected the in-flight record before the queue closes")
		}
		var message WebSocketMessage
		if err := json.Unmarshal(payload, &message); err != nil {
			t.Fatalf("Failed to decode forwarded record: %v", err)
		}
		if message.Type != "scan" {
			t.Errorf("Expected scan message, got %q", message.Type)
		}
	default:
		t.Fatal("Expected the in-flight record on the send queue")
	}

	if _, ok := <-client.Send; ok {
		t.Error("Expected send queue to be closed once the forwarder exits")
	}
}

func TestScanFeed_DisconnectDuringBroadcasts(t *testing.T) {
	gin.SetMode(gin.TestMode)

	bus := NewEventBus(zap.NewNop())
	h := NewWebSocketHandler(bus, zap.NewNop())

	router := gin.New()
	h.RegisterRoutes(router.Group("/ws"))

	server := httptest.NewServer(router)
	defer server.Close()

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws/scans"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Failed to dial scan feed: %v", err)
	}

	bus.BroadcastScan(&model.ScanRecord{Barcode: "4006381333931", Status: model.ScanStatusSuccess})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var message WebSocketMessage
	if err := conn.ReadJSON(&message); err != nil {
		t.Fatalf("Failed to read broadcast record: %v", err)
	}
	if message.Type != "scan" {
		t.Errorf("Expected scan message, got %q", message.Type)
	}

	// Keep broadcasting through the disconnect; the feed goroutines must
	// tear down without crashing.
	conn.Close()
	for i := 0; i < 20; i++ {
		bus.BroadcastScan(&model.ScanRecord{Barcode: "111", Status: model.ScanStatusSuccess})
		time.Sleep(time.Millisecond)
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if bus.SubscriberCount() == 0 && h.ConnectionCount() == 0 {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("Expected feed teardown, have %d subscribers and %d clients",
		bus.SubscriberCount(), h.ConnectionCount())
}
