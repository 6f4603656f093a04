package gateway

import (
	"encoding/json"
	"log"
	"time"

	"github.com/gorilla/websocket"

	"chartcorev1/internal/chart"
	"chartcorev1/internal/indicator"
	"chartcorev1/internal/viewport"
)

// Client is one connected rendering surface (a dashboard tab).
type Client struct {
	conn *websocket.Conn
	send chan []byte
	hub  *Hub
}

// clientMessage is the inbound protocol from the dashboard. Gestures and
// range updates drive the viewport controller; the rest reconfigures the
// chart.
type clientMessage struct {
	Type   string `json:"type"`
	Symbol string `json:"symbol"`

	// range messages
	From int `json:"from"`
	To   int `json:"to"`

	// indicator messages
	Kind   string `json:"kind"`
	Period int    `json:"period"`

	// theme / chart type messages
	Name string `json:"name"`
}

// sendInitialState replays the freshest cached envelope of each kind so a
// new client renders without waiting for the next data refresh.
func (c *Client) sendInitialState() {
	c.hub.mu.RLock()
	defer c.hub.mu.RUnlock()

	for _, entry := range c.hub.latest {
		select {
		case c.send <- entry.Data:
		default:
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(30 * time.Second)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) readPump() {
	defer func() {
		c.hub.removeClient(c)
		c.conn.Close()
		log.Println("[gateway] ws client disconnected")
	}()

	c.conn.SetReadLimit(4096)
	c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		_, msg, err := c.conn.ReadMessage()
		if err != nil {
			break
		}
		var m clientMessage
		if err := json.Unmarshal(msg, &m); err != nil {
			continue
		}
		c.hub.handleClientMessage(m)
	}
}

// handleClientMessage routes one inbound message to the symbol's chart.
func (h *Hub) handleClientMessage(m clientMessage) {
	ch, ok := h.Chart(m.Symbol)
	if !ok {
		return
	}

	switch m.Type {
	case "gesture":
		// wheel / pointer-down / touch-start: user takes control
		ch.Gesture(time.Now())

	case "range":
		// the pan/zoom result that followed a gesture
		ch.SetVisibleRange(viewport.Range{From: m.From, To: m.To})

	case "reset":
		ch.ResetInteraction()

	case "add_indicator":
		kind, err := indicator.ParseKind(m.Kind)
		if err != nil {
			log.Printf("[gateway] WARNING: %v", err)
			return
		}
		if err := ch.AddIndicator(kind, indicator.Options{Period: m.Period}); err != nil {
			log.Printf("[gateway] WARNING: add indicator %s: %v", m.Kind, err)
			return
		}
		h.prefsChanged(m.Symbol)

	case "remove_indicator":
		kind, err := indicator.ParseKind(m.Kind)
		if err != nil {
			return
		}
		ch.RemoveIndicator(kind)
		h.prefsChanged(m.Symbol)

	case "theme":
		ch.SetTheme(m.Name)
		h.prefsChanged(m.Symbol)

	case "chart_type":
		t, err := chart.ParseChartType(m.Name)
		if err != nil {
			log.Printf("[gateway] WARNING: %v", err)
			return
		}
		ch.SetChartType(t)
		h.prefsChanged(m.Symbol)
	}
}

func (h *Hub) prefsChanged(symbol string) {
	if h.onPrefsChanged != nil {
		h.onPrefsChanged(symbol)
	}
}
