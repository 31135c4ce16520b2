package handler

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"

	"parking_manager/internal/domain"
	"parking_manager/internal/logger"
)

const writeWait = 10 * time.Second

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

var ErrBroadcastFull = errors.New("websocket broadcast queue is full")

// WebSocketManager pushes reservation events to connected admin dashboards.
// Only the Start goroutine writes to connections.
type WebSocketManager struct {
	clients    map[*websocket.Conn]bool
	register   chan *websocket.Conn
	unregister chan *websocket.Conn
	broadcast  chan []byte
	done       chan struct{}
	mutex      sync.RWMutex
}

func NewWebSocketManager() *WebSocketManager {
	return &WebSocketManager{
		clients:    make(map[*websocket.Conn]bool),
		register:   make(chan *websocket.Conn),
		unregister: make(chan *websocket.Conn),
		broadcast:  make(chan []byte, 64),
		done:       make(chan struct{}),
	}
}

func (wsm *WebSocketManager) Start(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			close(wsm.done)
			wsm.mutex.Lock()
			for client := range wsm.clients {
				client.Close()
				delete(wsm.clients, client)
			}
			wsm.mutex.Unlock()
			return

		case client := <-wsm.register:
			wsm.mutex.Lock()
			wsm.clients[client] = true
			total := len(wsm.clients)
			wsm.mutex.Unlock()
			logger.Debugf("WebSocket client connected. Total: %d", total)

		case client := <-wsm.unregister:
			wsm.mutex.Lock()
			if _, ok := wsm.clients[client]; ok {
				delete(wsm.clients, client)
				client.Close()
			}
			total := len(wsm.clients)
			wsm.mutex.Unlock()
			logger.Debugf("WebSocket client disconnected. Total: %d", total)

		case message := <-wsm.broadcast:
			wsm.mutex.Lock()
			for client := range wsm.clients {
				_ = client.SetWriteDeadline(time.Now().Add(writeWait))
				if err := client.WriteMessage(websocket.TextMessage, message); err != nil {
					logger.Warningf("Error writing to WebSocket client: %v", err)
					client.Close()
					delete(wsm.clients, client)
				}
			}
			wsm.mutex.Unlock()
		}
	}
}

// Publish queues the event for every connected client. It never blocks;
// when the queue is full the event is dropped.
func (wsm *WebSocketManager) Publish(_ context.Context, event domain.ReservationEvent) error {
	message, err := json.Marshal(event)
	if err != nil {
		return err
	}

	select {
	case wsm.broadcast <- message:
		return nil
	default:
		return ErrBroadcastFull
	}
}

func (wsm *WebSocketManager) ClientCount() int {
	wsm.mutex.RLock()
	defer wsm.mutex.RUnlock()
	return len(wsm.clients)
}

type WebSocketHandler struct {
	wsManager *WebSocketManager
}

func NewWebSocketHandler(wsManager *WebSocketManager) *WebSocketHandler {
	return &WebSocketHandler{wsManager: wsManager}
}

// GET /ws
func (h *WebSocketHandler) HandleWebSocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Warningf("Failed to upgrade to WebSocket: %v", err)
		return
	}

	select {
	case h.wsManager.register <- conn:
	case <-h.wsManager.done:
		conn.Close()
		return
	}

	// clients only listen; reading detects disconnects
	go func() {
		defer func() {
			select {
			case h.wsManager.unregister <- conn:
			case <-h.wsManager.done:
			}
		}()

		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
					logger.Warningf("WebSocket error: %v", err)
				}
				return
			}
		}
	}()
}
