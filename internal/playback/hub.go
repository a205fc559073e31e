package playback

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/arenaforge/skirmish-server-go/internal/replay"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

const (
	writeWait      = 10 * time.Second
	maxMessageSize = 4096
)

// Command is a scrubber instruction from a viewer.
type Command struct {
	Type  string `json:"type"` // "current", "next", "prev", "seek", "seek_round", "summary"
	Index int    `json:"index,omitempty"`
	Round int    `json:"round,omitempty"`
}

// Response is what the hub sends back for each command.
type Response struct {
	Type    string `json:"type"` // "frame", "end", "summary", "error"
	Frame   *Frame `json:"frame,omitempty"`
	Summary string `json:"summary,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Client is one connected viewer with its own scrubbing session.
type Client struct {
	hub     *Hub
	conn    *websocket.Conn
	send    chan []byte
	session *Session
}

// Hub serves replays to websocket viewers. Replays are immutable once
// registered, so every client scrubs its own session over shared data.
type Hub struct {
	logger     *zap.Logger
	register   chan *Client
	unregister chan *Client
	done       chan struct{} // closed when Run returns

	mu      sync.RWMutex
	replays map[string]*replay.Replay
	clients map[*Client]bool
}

// NewHub creates a hub. The logger may be nil.
func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		logger:     logger,
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		replays:    make(map[string]*replay.Replay),
		clients:    make(map[*Client]bool),
	}
}

// Register makes a replay available to viewers under its encounter ID.
func (h *Hub) Register(rep *replay.Replay) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.replays[rep.EncounterID] = rep

	if h.logger != nil {
		h.logger.Info("registered replay for playback",
			zap.String("encounter_id", rep.EncounterID),
			zap.Int("actions", rep.Metadata.TotalActions),
		)
	}
}

// Replay returns a registered replay by encounter ID.
func (h *Hub) Replay(encounterID string) (*replay.Replay, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	rep, ok := h.replays[encounterID]
	return rep, ok
}

// Run processes client registration until the context is cancelled.
// Shutdown closes client connections, not their send channels: a client's
// send channel is closed only on unregister, after its read loop has
// stopped, so a command arriving in the shutdown window can never send on
// a closed channel.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for client := range h.clients {
				client.conn.Close()
				delete(h.clients, client)
			}
			h.mu.Unlock()
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			h.mu.Unlock()
		}
	}
}

// ServeWS upgrades an HTTP request to a websocket viewer connection. The
// encounter is selected with the "encounter" query parameter.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	encounterID := r.URL.Query().Get("encounter")
	rep, ok := h.Replay(encounterID)
	if !ok {
		http.Error(w, "unknown encounter", http.StatusNotFound)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		if h.logger != nil {
			h.logger.Warn("websocket upgrade failed", zap.Error(err))
		}
		return
	}

	client := &Client{
		hub:     h,
		conn:    conn,
		send:    make(chan []byte, 16),
		session: NewSession(rep),
	}
	select {
	case h.register <- client:
	case <-h.done:
		// Hub already shut down; turn the viewer away.
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}

func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			return
		}

		var cmd Command
		if err := json.Unmarshal(message, &cmd); err != nil {
			c.reply(Response{Type: "error", Error: "malformed command"})
			continue
		}
		c.reply(c.handle(cmd))
	}
}

func (c *Client) writePump() {
	defer c.conn.Close()
	for {
		select {
		case message, ok := <-c.send:
			if !ok {
				c.conn.SetWriteDeadline(time.Now().Add(writeWait))
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-c.hub.done:
			return
		}
	}
}

func (c *Client) handle(cmd Command) Response {
	var (
		frame Frame
		ok    bool
	)
	switch cmd.Type {
	case "current":
		frame, ok = c.session.Current()
	case "next":
		frame, ok = c.session.Next()
	case "prev":
		frame, ok = c.session.Prev()
	case "seek":
		frame, ok = c.session.Seek(cmd.Index)
	case "seek_round":
		frame, ok = c.session.SeekRound(cmd.Round)
	case "summary":
		return Response{Type: "summary", Summary: Summarize(c.session.Replay())}
	default:
		return Response{Type: "error", Error: "unknown command type"}
	}

	// A failed step or seek is a boundary probe, not an error.
	if !ok {
		return Response{Type: "end"}
	}
	return Response{Type: "frame", Frame: &frame}
}

func (c *Client) reply(resp Response) {
	payload, err := json.Marshal(resp)
	if err != nil {
		return
	}
	select {
	case c.send <- payload:
	default:
		// Slow consumer; drop the reply rather than block the read loop.
	}
}
