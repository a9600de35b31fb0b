package web

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"kfmon/internal/application/port"
	"kfmon/internal/domain"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// dashboard is same-origin only in practice; no cross-site state
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Hub fans each collected entry out to connected websocket clients. It
// implements port.EntrySink; Publish never blocks the collector.
type Hub struct {
	mu      sync.Mutex
	clients map[*websocket.Conn]struct{}
}

func NewHub() *Hub {
	return &Hub{clients: map[*websocket.Conn]struct{}{}}
}

type liveMessage struct {
	Timestamp time.Time                `json:"timestamp"`
	Equity    float64                  `json:"equity"`
	Positions []domain.Position        `json:"positions"`
	Signals   map[string]domain.Signal `json:"signals"`
}

func (h *Hub) Publish(entry *domain.Entry) {
	b, err := json.Marshal(liveMessage{
		Timestamp: entry.Timestamp,
		Equity:    entry.Equity,
		Positions: entry.Positions,
		Signals:   entry.Signals,
	})
	if err != nil {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.clients {
		conn.SetWriteDeadline(time.Now().Add(2 * time.Second))
		if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
			conn.Close()
			delete(h.clients, conn)
		}
	}
}

func (h *Hub) serveWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	h.mu.Lock()
	h.clients[conn] = struct{}{}
	h.mu.Unlock()

	// drain control frames; unregister on any read error
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				h.mu.Lock()
				delete(h.clients, conn)
				h.mu.Unlock()
				conn.Close()
				return
			}
		}
	}()
}

var _ port.EntrySink = (*Hub)(nil)
