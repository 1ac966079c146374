package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"portalgate/internal/platform/metrics"
	id "portalgate/pkg/domain"
)

const (
	writeWait       = 5 * time.Second
	defaultPongWait = 60 * time.Second
	maxMessageSize  = 4096
)

// client is one live tab. gorilla connections allow a single concurrent
// writer, so every write goes through mu.
type client struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *client) write(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

func (c *client) ping() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
}

func (c *client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "session ended"),
		time.Now().Add(writeWait))
	c.conn.Close()
}

// Hub pushes notifications to the websocket connections of each subject.
type Hub struct {
	mu       sync.RWMutex
	clients  map[id.SubjectID]map[*client]struct{}
	upgrader websocket.Upgrader
	metrics  *metrics.Metrics
	pongWait time.Duration
}

type HubOption func(*Hub)

// WithCheckOrigin overrides the upgrader's origin policy.
func WithCheckOrigin(fn func(r *http.Request) bool) HubOption {
	return func(h *Hub) { h.upgrader.CheckOrigin = fn }
}

func WithHubMetrics(m *metrics.Metrics) HubOption {
	return func(h *Hub) { h.metrics = m }
}

// WithPongWait sets how long a connection may stay silent before it is
// dropped. Pings go out at nine tenths of this interval.
func WithPongWait(d time.Duration) HubOption {
	return func(h *Hub) {
		if d > 0 {
			h.pongWait = d
		}
	}
}

func NewHub(opts ...HubOption) *Hub {
	h := &Hub{
		clients: make(map[id.SubjectID]map[*client]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		pongWait: defaultPongWait,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *Hub) Name() string { return "websocket" }

// Serve upgrades the request and keeps the connection registered for
// subject until the peer disconnects or watch returns. watch runs alongside
// the connection with a context that ends when the peer goes away; when it
// returns on its own the server closes the connection.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request, subject id.SubjectID, watch func(ctx context.Context)) error {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	c := &client{conn: conn}
	h.add(subject, c)
	defer h.remove(subject, c)

	ctx, cancel := context.WithCancel(context.WithoutCancel(r.Context()))
	defer cancel()

	conn.SetReadLimit(maxMessageSize)
	if err := conn.SetReadDeadline(time.Now().Add(h.pongWait)); err != nil {
		conn.Close()
		return err
	}
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(h.pongWait))
	})

	var wg sync.WaitGroup
	wg.Go(func() { h.keepalive(ctx, c) })
	if watch != nil {
		wg.Go(func() {
			watch(ctx)
			if ctx.Err() == nil {
				c.close()
			}
		})
	}

	// Clients never send anything meaningful; reading processes pongs and
	// detects disconnects, including peers that stopped answering pings.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
	cancel()
	wg.Wait()
	conn.Close()
	return nil
}

func (h *Hub) keepalive(ctx context.Context, c *client) {
	ticker := time.NewTicker(h.pongWait * 9 / 10)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := c.ping(); err != nil {
				c.conn.Close()
				return
			}
		}
	}
}

// Notify sends n to every connection of n.SubjectID. Connections that fail
// to accept the write are dropped.
func (h *Hub) Notify(_ context.Context, n Notification) error {
	data, err := json.Marshal(n)
	if err != nil {
		return err
	}

	h.mu.RLock()
	targets := make([]*client, 0, len(h.clients[n.SubjectID]))
	for c := range h.clients[n.SubjectID] {
		targets = append(targets, c)
	}
	h.mu.RUnlock()

	for _, c := range targets {
		if err := c.write(data); err != nil {
			h.remove(n.SubjectID, c)
			c.conn.Close()
		}
	}
	return nil
}

// ClientCount returns the number of connections held for subject.
func (h *Hub) ClientCount(subject id.SubjectID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[subject])
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.Lock()
	all := h.clients
	h.clients = make(map[id.SubjectID]map[*client]struct{})
	h.mu.Unlock()

	for _, set := range all {
		for c := range set {
			c.close()
			h.gauge(-1)
		}
	}
}

func (h *Hub) add(subject id.SubjectID, c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.clients[subject]
	if !ok {
		set = make(map[*client]struct{})
		h.clients[subject] = set
	}
	set[c] = struct{}{}
	h.gauge(1)
}

func (h *Hub) remove(subject id.SubjectID, c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.clients[subject]
	if !ok {
		return
	}
	if _, ok := set[c]; !ok {
		return
	}
	delete(set, c)
	if len(set) == 0 {
		delete(h.clients, subject)
	}
	h.gauge(-1)
}

func (h *Hub) gauge(delta float64) {
	if h.metrics != nil {
		h.metrics.WebsocketClients.Add(delta)
	}
}
