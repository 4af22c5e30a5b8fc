package apihttp

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"cineplayer/internal/domain"
	"cineplayer/internal/metrics"
	"cineplayer/internal/subtitle"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = 30 * time.Second
	wsReadLimit  = 512
	wsSendBuffer = 32
)

type wsMessage struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// wsCommand is what a player sends: {"type":"time","time":12.5} on each
// playback tick, or {"type":"clear"} when subtitles are switched off.
type wsCommand struct {
	Type string   `json:"type"`
	Time *float64 `json:"time,omitempty"`
}

type wsNotice struct {
	media   domain.MediaID
	payload []byte
}

// wsClient is one subtitle session. Its cue index is touched only by
// readPump.
type wsClient struct {
	id     string
	media  domain.MediaID
	hub    *wsHub
	conn   *websocket.Conn
	index  *subtitle.Index
	send   chan []byte
	done   chan struct{}
	once   sync.Once
	logger *slog.Logger
}

type wsHub struct {
	mu         sync.RWMutex
	clients    map[*wsClient]bool
	register   chan *wsClient
	unregister chan *wsClient
	notify     chan wsNotice
	done       chan struct{}
	closeOnce  sync.Once
	logger     *slog.Logger
}

func newWSHub(logger *slog.Logger) *wsHub {
	return &wsHub{
		clients:    make(map[*wsClient]bool),
		register:   make(chan *wsClient),
		unregister: make(chan *wsClient),
		notify:     make(chan wsNotice, 64),
		done:       make(chan struct{}),
		logger:     logger,
	}
}

func (h *wsHub) run() {
	for {
		select {
		case <-h.done:
			h.mu.Lock()
			for client := range h.clients {
				_ = client.conn.WriteControl(
					websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
					time.Now().Add(2*time.Second),
				)
				client.close()
				delete(h.clients, client)
			}
			h.mu.Unlock()
			metrics.SubtitleSessions.Set(0)
			h.logger.Debug("ws hub stopped, all sessions closed")
			return
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			total := len(h.clients)
			h.mu.Unlock()
			metrics.SubtitleSessions.Set(float64(total))
			h.logger.Debug("subtitle session opened",
				slog.String("session", client.id),
				slog.String("media", string(client.media)),
				slog.Int("total", total),
			)
		case client := <-h.unregister:
			h.mu.Lock()
			_, ok := h.clients[client]
			delete(h.clients, client)
			total := len(h.clients)
			h.mu.Unlock()
			if ok {
				client.close()
				metrics.SubtitleSessions.Set(float64(total))
				h.logger.Debug("subtitle session closed",
					slog.String("session", client.id),
					slog.Int("total", total),
				)
			}
		case n := <-h.notify:
			h.mu.RLock()
			for client := range h.clients {
				if client.media == n.media {
					client.enqueue(n.payload)
				}
			}
			h.mu.RUnlock()
		}
	}
}

// Close stops the hub and disconnects every session. Safe to call twice.
func (h *wsHub) Close() {
	h.closeOnce.Do(func() { close(h.done) })
}

func (h *wsHub) sessionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *wsHub) add(c *wsClient) bool {
	select {
	case h.register <- c:
		return true
	case <-h.done:
		return false
	}
}

func (h *wsHub) remove(c *wsClient) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// Notify sends a typed message to every session watching media.
func (h *wsHub) Notify(media domain.MediaID, msgType string, data interface{}) {
	if h.sessionCount() == 0 {
		return
	}
	payload, err := json.Marshal(wsMessage{Type: msgType, Data: data})
	if err != nil {
		h.logger.Error("ws marshal failed", slog.String("error", err.Error()))
		return
	}
	select {
	case h.notify <- wsNotice{media: media, payload: payload}:
	default:
	}
}

var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

func (c *wsClient) close() {
	c.once.Do(func() { close(c.done) })
}

// enqueue queues a frame for writePump. A session that cannot keep up is
// closed.
func (c *wsClient) enqueue(payload []byte) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.send <- payload:
		return true
	default:
		c.logger.Warn("subtitle session too slow, closing", slog.String("session", c.id))
		c.close()
		return false
	}
}

func (c *wsClient) sendMessage(msgType string, data interface{}) {
	payload, err := json.Marshal(wsMessage{Type: msgType, Data: data})
	if err != nil {
		c.logger.Error("ws marshal failed", slog.String("error", err.Error()))
		return
	}
	c.enqueue(payload)
}

func (c *wsClient) writePump() {
	ticker := time.NewTicker(wsPingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case <-c.done:
			_ = c.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			_ = c.conn.WriteMessage(websocket.CloseMessage, nil)
			return
		case msg := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				c.close()
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.close()
				return
			}
		}
	}
}

func (c *wsClient) readPump() {
	defer func() {
		c.hub.remove(c)
		c.close()
		c.conn.Close()
	}()
	c.conn.SetReadLimit(wsReadLimit)
	_ = c.conn.SetReadDeadline(time.Now().Add(wsPongWait))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(wsPongWait))
		return nil
	})
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		_ = c.conn.SetReadDeadline(time.Now().Add(wsPongWait))
		c.handleCommand(data)
	}
}

func (c *wsClient) handleCommand(data []byte) {
	var cmd wsCommand
	if err := json.Unmarshal(data, &cmd); err != nil {
		c.sendMessage("error", "invalid message")
		return
	}
	switch cmd.Type {
	case "time":
		if cmd.Time == nil || *cmd.Time < 0 {
			c.sendMessage("error", "time must be a non-negative number")
			return
		}
		if !c.index.IsActive() {
			return
		}
		c.index.UpdateTime(*cmd.Time)
	case "clear":
		_, wasActive := c.index.Active()
		c.index.Clear()
		if wasActive {
			c.sendMessage("cue", nil)
		}
	default:
		c.sendMessage("error", "unknown message type")
	}
}
