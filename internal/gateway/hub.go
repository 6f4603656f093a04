// Package gateway is the WebSocket rendering surface: it forwards series,
// indicator, viewport, and marker state to connected dashboard clients and
// routes their gestures and preference changes back into the chart core.
package gateway

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"chartcorev1/internal/chart"
	"chartcorev1/internal/metrics"
)

var upgrader = websocket.Upgrader{
	CheckOrigin:       func(r *http.Request) bool { return true },
	EnableCompression: true,
}

// Hub manages WebSocket clients and per-symbol chart routing.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]bool
	charts  map[string]*chart.Chart

	// latest envelope per (symbol, message kind) for new-client catch-up
	latest map[string]latestEntry
	seq    int64

	metrics *metrics.Metrics

	// onPrefsChanged fires after a client changes theme/chart type/indicators.
	onPrefsChanged func(symbol string)
}

type latestEntry struct {
	Data json.RawMessage
	TS   time.Time
}

// NewHub creates a hub. metrics may be nil in tests.
func NewHub(m *metrics.Metrics) *Hub {
	return &Hub{
		clients: make(map[*Client]bool),
		charts:  make(map[string]*chart.Chart),
		latest:  make(map[string]latestEntry),
		metrics: m,
	}
}

// Register attaches a chart to a symbol for inbound message routing.
func (h *Hub) Register(symbol string, c *chart.Chart) {
	h.mu.Lock()
	h.charts[symbol] = c
	h.mu.Unlock()
}

// Chart returns the chart registered for a symbol.
func (h *Hub) Chart(symbol string) (*chart.Chart, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	c, ok := h.charts[symbol]
	return c, ok
}

// Symbols returns all registered symbols.
func (h *Hub) Symbols() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]string, 0, len(h.charts))
	for s := range h.charts {
		out = append(out, s)
	}
	return out
}

// OnPrefsChanged registers a hook fired after a client-driven
// theme/chart-type/indicator change (persistence).
func (h *Hub) OnPrefsChanged(fn func(symbol string)) {
	h.onPrefsChanged = fn
}

// Surface returns the render surface for one symbol: every surface call
// becomes a broadcast envelope tagged with the symbol.
func (h *Hub) Surface(symbol string) chart.RenderSurface {
	return &wsSurface{hub: h, symbol: symbol}
}

// broadcast fans an envelope out to every client, caching it for initial
// state. cacheKey keeps one entry per (symbol, message kind) so a new
// client gets the freshest of each.
func (h *Hub) broadcast(cacheKey string, envelope []byte) {
	now := time.Now().UTC()

	h.mu.Lock()
	h.latest[cacheKey] = latestEntry{Data: envelope, TS: now}
	h.seq++
	h.mu.Unlock()

	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.clients {
		select {
		case client.send <- envelope:
		default:
			if h.metrics != nil {
				h.metrics.BroadcastDrops.Inc()
			}
		}
	}
}

// HandleWS upgrades an HTTP connection and registers the client.
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[gateway] ws upgrade error: %v", err)
		return
	}

	client := &Client{
		conn: conn,
		send: make(chan []byte, 256),
		hub:  h,
	}

	conn.EnableWriteCompression(true)

	h.mu.Lock()
	h.clients[client] = true
	count := len(h.clients)
	h.mu.Unlock()

	if h.metrics != nil {
		h.metrics.WSClients.Set(float64(count))
	}
	log.Printf("[gateway] ws client connected (%d total)", count)

	go client.sendInitialState()
	go client.writePump()
	go client.readPump()
}

// removeClient removes a client from the hub.
func (h *Hub) removeClient(c *Client) {
	h.mu.Lock()
	delete(h.clients, c)
	count := len(h.clients)
	h.mu.Unlock()
	close(c.send)

	if h.metrics != nil {
		h.metrics.WSClients.Set(float64(count))
	}
}

// ClientCount returns the number of connected WS clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// LatestAll returns a snapshot of the cached envelopes (diagnostics).
func (h *Hub) LatestAll() map[string]json.RawMessage {
	h.mu.RLock()
	defer h.mu.RUnlock()
	cp := make(map[string]json.RawMessage, len(h.latest))
	for k, v := range h.latest {
		cp[k] = v.Data
	}
	return cp
}
