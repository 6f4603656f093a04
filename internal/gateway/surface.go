package gateway

import (
	"encoding/json"
	"time"

	"chartcorev1/internal/chart"
	"chartcorev1/internal/indicator"
	"chartcorev1/internal/model"
	"chartcorev1/internal/viewport"
)

// wsSurface implements chart.RenderSurface by broadcasting JSON envelopes
// for one symbol. The browser-side chart library consumes these directly.
type wsSurface struct {
	hub    *Hub
	symbol string
}

func (s *wsSurface) envelope(kind string, body interface{}) []byte {
	data, _ := json.Marshal(map[string]interface{}{
		"symbol": s.symbol,
		"type":   kind,
		"data":   body,
		"ts":     time.Now().UTC().Format(time.RFC3339Nano),
	})
	return data
}

func (s *wsSurface) SetSeries(payload chart.SeriesPayload) {
	s.hub.broadcast(s.symbol+":series", s.envelope("series", payload))
}

func (s *wsSurface) SetIndicator(out indicator.Output) {
	s.hub.broadcast(s.symbol+":ind:"+string(out.Kind), s.envelope("indicator", out))
}

func (s *wsSurface) RemoveIndicator(kind indicator.Kind) {
	s.hub.mu.Lock()
	delete(s.hub.latest, s.symbol+":ind:"+string(kind))
	s.hub.mu.Unlock()
	s.hub.broadcast(s.symbol+":ind_removed", s.envelope("remove_indicator", kind))
}

func (s *wsSurface) SetVisibleRange(r viewport.Range) {
	s.hub.broadcast(s.symbol+":range", s.envelope("range", r))
}

func (s *wsSurface) SetMarkers(positions []model.Position) {
	s.hub.broadcast(s.symbol+":markers", s.envelope("markers", positions))
}

func (s *wsSurface) ApplyTheme(theme chart.Theme) {
	s.hub.broadcast(s.symbol+":theme", s.envelope("theme", theme))
}
