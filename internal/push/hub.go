package push

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
)

const writeTimeout = 500 * time.Millisecond

// Hub fans task events out to every connected dashboard. Delivery is at
// most once; a client that misses an event catches up on its next poll.
type Hub struct {
	mu      sync.RWMutex
	clients map[*websocket.Conn]struct{}
	now     func() time.Time
}

func NewHub() *Hub {
	return &Hub{
		clients: map[*websocket.Conn]struct{}{},
		now:     time.Now,
	}
}

func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		slog.Warn("accepting websocket", "error", err)
		return
	}
	h.mu.Lock()
	h.clients[conn] = struct{}{}
	h.mu.Unlock()
	slog.Debug("push client connected", "remote", r.RemoteAddr)

	defer func() {
		h.mu.Lock()
		delete(h.clients, conn)
		h.mu.Unlock()
		_ = conn.Close(websocket.StatusNormalClosure, "")
	}()

	ctx := r.Context()
	for {
		if _, _, err := conn.Read(ctx); err != nil {
			return
		}
	}
}

func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Publish sends payload under op to all clients. The payload also carries
// the task id as "taskId" and the send time as "timestamp".
func (h *Hub) Publish(op, taskID string, payload map[string]any) {
	now := h.now()
	outPayload := make(map[string]any, len(payload)+2)
	for key, value := range payload {
		outPayload[key] = value
	}
	if taskID != "" {
		outPayload["taskId"] = taskID
	}
	outPayload["timestamp"] = now.UTC().Format(time.RFC3339)

	event := Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Op:        op,
		Payload:   mustRaw(outPayload),
		Timestamp: now,
	}
	message, err := json.Marshal(event)
	if err != nil {
		slog.Error("encoding push event", "op", op, "error", err)
		return
	}

	h.mu.RLock()
	clients := make([]*websocket.Conn, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	h.mu.RUnlock()

	for _, client := range clients {
		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		if err := client.Write(ctx, websocket.MessageText, message); err != nil {
			slog.Debug("writing push event", "op", op, "error", err)
		}
		cancel()
	}
	slog.Debug("published push event", "op", op, "task_id", taskID, "clients", len(clients))
}
