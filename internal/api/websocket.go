package api

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/circom-analyzer/frontend/internal/models"
)

// WebSocket message types for the state stream
const (
	// Client -> Server messages
	MsgTypePing = "ping"

	// Server -> Client messages
	MsgTypeConnected = "connected"
	MsgTypeState     = "state"
	MsgTypeError     = "error"
	MsgTypePong      = "pong"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4 * 1024
)

// WebSocket message structure
type WSMessage struct {
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	Timestamp int64           `json:"timestamp"`
}

// WebSocket error response
type WSErrorResponse struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// WebSocketHandler streams controller snapshots to connected browsers
type WebSocketHandler struct {
	controller UploadController
	upgrader   websocket.Upgrader
}

// NewWebSocketHandler creates a new WebSocket state stream handler
func NewWebSocketHandler(controller UploadController) *WebSocketHandler {
	return &WebSocketHandler{
		controller: controller,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				// Allow connections from dev server
				return true
			},
			ReadBufferSize:  4 * 1024,
			WriteBufferSize: 16 * 1024,
		},
	}
}

// HandleStateStream upgrades the connection and sends the current snapshot
// followed by one message per controller transition.
func (wsh *WebSocketHandler) HandleStateStream(c echo.Context) error {
	ws, err := wsh.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}
	defer ws.Close()

	log.Println("[WebSocket] Client connected")

	queue := newSnapshotQueue()
	unsubscribe := wsh.controller.Subscribe(queue.push)
	defer unsubscribe()
	queue.push(wsh.controller.Snapshot())

	replies := make(chan WSMessage, 8)
	done := make(chan struct{})

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		wsh.writeLoop(ws, queue, replies, done)
	}()

	ws.SetReadLimit(maxMessageSize)
	ws.SetReadDeadline(time.Now().Add(pongWait))
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var msg WSMessage
		if err := ws.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("[WebSocket] Connection error: %v", err)
			}
			break
		}
		ws.SetReadDeadline(time.Now().Add(pongWait))

		var reply WSMessage
		switch msg.Type {
		case MsgTypePing:
			reply = WSMessage{Type: MsgTypePong, Timestamp: time.Now().UnixMilli()}
		default:
			reply = errorMessage("Unknown message type: "+msg.Type, "INVALID_TYPE")
		}

		select {
		case replies <- reply:
		case <-done:
		}
	}

	close(done)
	wg.Wait()

	log.Println("[WebSocket] Client disconnected")
	return nil
}

// writeLoop is the only writer on ws. Snapshots older than the last one
// sent are dropped.
func (wsh *WebSocketHandler) writeLoop(ws *websocket.Conn, queue *snapshotQueue, replies <-chan WSMessage, done <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	var (
		lastSent uint64
		sentAny  bool
	)

	if err := writeMessage(ws, WSMessage{Type: MsgTypeConnected, Timestamp: time.Now().UnixMilli()}); err != nil {
		ws.Close()
		return
	}

	for {
		select {
		case <-done:
			return

		case <-queue.ready:
			snap, ok := queue.take()
			if !ok || (sentAny && snap.Revision <= lastSent) {
				continue
			}
			msg := WSMessage{Type: MsgTypeState, Payload: mustJSON(snap), Timestamp: time.Now().UnixMilli()}
			if err := writeMessage(ws, msg); err != nil {
				ws.Close()
				return
			}
			lastSent, sentAny = snap.Revision, true

		case msg := <-replies:
			if err := writeMessage(ws, msg); err != nil {
				ws.Close()
				return
			}

		case <-ticker.C:
			if err := ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				ws.Close()
				return
			}
		}
	}
}

// snapshotQueue holds the newest snapshot not yet written.
type snapshotQueue struct {
	mu     sync.Mutex
	latest *models.Snapshot
	ready  chan struct{}
}

func newSnapshotQueue() *snapshotQueue {
	return &snapshotQueue{ready: make(chan struct{}, 1)}
}

func (q *snapshotQueue) push(s models.Snapshot) {
	q.mu.Lock()
	if q.latest == nil || s.Revision > q.latest.Revision {
		q.latest = &s
	}
	q.mu.Unlock()

	select {
	case q.ready <- struct{}{}:
	default:
	}
}

func (q *snapshotQueue) take() (models.Snapshot, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.latest == nil {
		return models.Snapshot{}, false
	}
	s := *q.latest
	q.latest = nil
	return s, true
}

// Helper methods

func writeMessage(ws *websocket.Conn, msg WSMessage) error {
	ws.SetWriteDeadline(time.Now().Add(writeWait))
	if err := ws.WriteJSON(msg); err != nil {
		log.Printf("[WebSocket] Failed to send message: %v", err)
		return err
	}
	return nil
}

func errorMessage(message, code string) WSMessage {
	return WSMessage{
		Type:      MsgTypeError,
		Timestamp: time.Now().UnixMilli(),
		Payload:   mustJSON(WSErrorResponse{Message: message, Code: code}),
	}
}

func mustJSON(v interface{}) json.RawMessage {
	data, err := json.Marshal(v)
	if err != nil {
		return []byte("{}")
	}
	return data
}
