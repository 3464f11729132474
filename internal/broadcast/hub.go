package broadcast

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"
	"tracking/internal/metrics"
	"tracking/internal/protocol/gt06"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

const (
	pingInterval   = 30 * time.Second
	pongWait       = 60 * time.Second
	writeTimeout   = 10 * time.Second
	maxClientFrame = 4096
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

type outbound struct {
	deviceID string
	data     []byte
}

// client is one dashboard connection. An empty deviceID receives every event.
type client struct {
	id   string
	hub  *Hub
	conn *websocket.Conn
	send chan []byte

	mu       sync.RWMutex
	deviceID string
}

func (c *client) wants(deviceID string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.deviceID == "" || c.deviceID == deviceID
}

func (c *client) subscribe(deviceID string) {
	c.mu.Lock()
	c.deviceID = deviceID
	c.mu.Unlock()
}

// Hub pushes decoded messages to the connected dashboard clients.
type Hub struct {
	broadcast  chan outbound
	register   chan *client
	unregister chan *client
	clients    map[*client]struct{}
	clientBuf  int
	count      atomic.Int64
	seq        atomic.Uint64
	done       chan struct{}
	logger     zerolog.Logger
}

type Option func(*Hub)

func WithBroadcastBuffer(size int) Option {
	return func(h *Hub) {
		if size > 0 {
			h.broadcast = make(chan outbound, size)
		}
	}
}

func WithClientBuffer(size int) Option {
	return func(h *Hub) {
		if size > 0 {
			h.clientBuf = size
		}
	}
}

func NewHub(logger zerolog.Logger, opts ...Option) *Hub {
	h := &Hub{
		broadcast:  make(chan outbound, 256),
		register:   make(chan *client),
		unregister: make(chan *client),
		clients:    make(map[*client]struct{}),
		clientBuf:  64,
		done:       make(chan struct{}),
		logger:     logger.With().Str("component", "ws").Logger(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Run owns the client set until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			for c := range h.clients {
				close(c.send)
				delete(h.clients, c)
			}
			h.setCount(0)
			return

		case c := <-h.register:
			h.clients[c] = struct{}{}
			h.setCount(len(h.clients))
			h.logger.Info().Str("client_id", c.id).Int("clients", len(h.clients)).Msg("client connected")

		case c := <-h.unregister:
			h.remove(c)

		case msg := <-h.broadcast:
			for c := range h.clients {
				if !c.wants(msg.deviceID) {
					continue
				}
				select {
				case c.send <- msg.data:
				default:
					h.logger.Warn().Str("client_id", c.id).Msg("client too slow, disconnecting")
					h.remove(c)
				}
			}
		}
	}
}

func (h *Hub) remove(c *client) {
	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	close(c.send)
	h.setCount(len(h.clients))
	h.logger.Info().Str("client_id", c.id).Int("clients", len(h.clients)).Msg("client disconnected")
}

// Publish queues msg for every interested client without blocking. The
// event is dropped when the hub is backed up.
func (h *Hub) Publish(msg gt06.Message) {
	data, err := NewEvent(msg, time.Now()).Marshal()
	if err != nil {
		h.logger.Error().Err(err).Str("type", string(msg.Kind())).Msg("failed to marshal event")
		return
	}
	select {
	case h.broadcast <- outbound{deviceID: gt06.DeviceID(msg), data: data}:
	default:
		metrics.RecordHubDropped()
	}
}

func (h *Hub) ClientCount() int { return int(h.count.Load()) }

func (h *Hub) setCount(n int) {
	h.count.Store(int64(n))
	metrics.SetHubClients(n)
}

// ServeWS upgrades the request and attaches the connection to the hub. The
// optional device_id query parameter limits the feed to one device.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	c := &client{
		id:       r.URL.Query().Get("client_id"),
		hub:      h,
		conn:     conn,
		send:     make(chan []byte, h.clientBuf),
		deviceID: r.URL.Query().Get("device_id"),
	}
	if c.id == "" {
		c.id = "ws-" + strconv.FormatUint(h.seq.Add(1), 10)
	}

	select {
	case h.register <- c:
	case <-h.done:
		conn.Close()
		return
	}

	go c.writePump()
	go c.readPump()
}

type clientMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

func (c *client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxClientFrame)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.logger.Warn().Err(err).Str("client_id", c.id).Msg("read error")
			}
			return
		}

		var msg clientMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			continue
		}
		switch msg.Type {
		case "subscribe":
			var data struct {
				DeviceID string `json:"device_id"`
			}
			if err := json.Unmarshal(msg.Data, &data); err == nil {
				c.subscribe(data.DeviceID)
				c.hub.logger.Debug().Str("client_id", c.id).Str("device_id", data.DeviceID).Msg("client subscribed")
			}
		case "ping":
			c.trySend([]byte(`{"type":"pong"}`))
		}
	}
}

// trySend is used from the read side; the send channel may already be
// closed by the hub.
func (c *client) trySend(data []byte) {
	defer func() { recover() }()
	select {
	case c.send <- data:
	default:
	}
}

func (c *client) writePump() {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case data, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, ""))
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
