// internal/handler/websocket_handler.go
package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"barcodebuddy/internal/model"
	"barcodebuddy/internal/utils"
)

// WebSocketHandler streams finished scan records to connected dashboards
type WebSocketHandler struct {
	upgrader    websocket.Upgrader
	connections *ConnectionManager
	eventBus    *EventBus
	logger      *utils.ServiceLogger
}

// NewWebSocketHandler creates a new WebSocket handler
func NewWebSocketHandler(eventBus *EventBus, logger *zap.Logger) *WebSocketHandler {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			return true
		},
	}

	return &WebSocketHandler{
		upgrader:    upgrader,
		connections: NewConnectionManager(),
		eventBus:    eventBus,
		logger:      utils.NewServiceLogger(logger, "websocket-handler"),
	}
}

// RegisterRoutes registers WebSocket routes
func (h *WebSocketHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/scans", h.HandleScanFeed)
}

// HandleScanFeed upgrades the connection and streams scan records until
// the client disconnects
func (h *WebSocketHandler) HandleScanFeed(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error("Failed to upgrade WebSocket connection", zap.Error(err))
		return
	}

	client := &Client{
		ID:          uuid.New().String(),
		Connection:  conn,
		Send:        make(chan []byte, 64),
		UserAgent:   c.Request.UserAgent(),
		RemoteAddr:  c.Request.RemoteAddr,
		ConnectedAt: time.Now(),
	}

	h.connections.Register(client)

	subscriberID, records := h.eventBus.Subscribe()
	h.logger.Info("Scan feed client connected",
		zap.String("client_id", client.ID),
		zap.String("remote_addr", client.RemoteAddr),
		zap.Int("subscribers", h.eventBus.SubscriberCount()),
	)

	go h.forwardRecords(client, records)
	go h.handleClientRead(client, subscriberID)
	go h.handleClientWrite(client)
}

// forwardRecords serializes scan records onto the client's send queue.
// It is the only sender on client.Send and closes it once the
// subscription channel is drained, so a disconnect can never race a
// record into a closed queue.
func (h *WebSocketHandler) forwardRecords(client *Client, records <-chan *model.ScanRecord) {
	defer close(client.Send)

	for record := range records {
		message := &WebSocketMessage{
			Type:      "scan",
			Data:      record,
			Timestamp: time.Now(),
		}

		payload, err := json.Marshal(message)
		if err != nil {
			h.logger.Error("Failed to marshal scan record", zap.Error(err))
			continue
		}

		select {
		case client.Send <- payload:
		default:
			h.logger.Warn("Client send channel full, dropping record",
				zap.String("client_id", client.ID),
			)
		}
	}
}

// handleClientRead drains client messages and detects disconnects
func (h *WebSocketHandler) handleClientRead(client *Client, subscriberID int) {
	defer func() {
		h.eventBus.Unsubscribe(subscriberID)
		h.connections.Unregister(client)
		client.Connection.Close()
		h.logger.Info("Scan feed client disconnected", zap.String("client_id", client.ID))
	}()

	client.Connection.SetReadDeadline(time.Now().Add(60 * time.Second))
	client.Connection.SetPongHandler(func(string) error {
		client.Connection.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		// The feed is one-way; inbound messages are only read to keep
		// the connection's control frames flowing.
		if _, _, err := client.Connection.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.logger.Error("WebSocket read error",
					zap.Error(err),
					zap.String("client_id", client.ID),
				)
			}
			return
		}
	}
}

// handleClientWrite writes queued messages and keeps the connection alive
func (h *WebSocketHandler) handleClientWrite(client *Client) {
	ticker := time.NewTicker(54 * time.Second)
	defer func() {
		ticker.Stop()
		client.Connection.Close()
	}()

	for {
		select {
		case message, ok := <-client.Send:
			client.Connection.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				client.Connection.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := client.Connection.WriteMessage(websocket.TextMessage, message); err != nil {
				h.logger.Error("WebSocket write error",
					zap.Error(err),
					zap.String("client_id", client.ID),
				)
				return
			}

		case <-ticker.C:
			client.Connection.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := client.Connection.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// ConnectionCount returns the number of connected scan feed clients
func (h *WebSocketHandler) ConnectionCount() int {
	return h.connections.Count()
}
