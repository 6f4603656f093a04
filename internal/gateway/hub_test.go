package gateway

import (
	"encoding/json"
	"testing"

	"chartcorev1/internal/chart"
	"chartcorev1/internal/indicator"
	"chartcorev1/internal/model"
	"chartcorev1/internal/viewport"
)

func newHubChart(t *testing.T, symbol string) (*Hub, *chart.Chart) {
	t.Helper()
	h := NewHub(nil)
	c, err := chart.New(h.Surface(symbol), chart.Config{})
	if err != nil {
		t.Fatalf("chart.New: %v", err)
	}
	t.Cleanup(c.Close)
	h.Register(symbol, c)
	return h, c
}

func testRaw(n int) []model.RawCandle {
	out := make([]model.RawCandle, n)
	for i := range out {
		out[i] = model.RawCandle{Time: int64(1700000000 + i*60), Close: float64(10 + i)}
	}
	return out
}

func TestSurface_CachesLatestEnvelopes(t *testing.T) {
	h, c := newHubChart(t, "BTCUSDT")

	if err := c.SetData(testRaw(5)); err != nil {
		t.Fatalf("SetData: %v", err)
	}

	latest := h.LatestAll()
	for _, key := range []string{"BTCUSDT:series", "BTCUSDT:range", "BTCUSDT:theme"} {
		if _, ok := latest[key]; !ok {
			t.Errorf("missing cached envelope %q", key)
		}
	}
}

func TestSurface_EnvelopeShape(t *testing.T) {
	h, c := newHubChart(t, "ETHUSDT")
	c.SetData(testRaw(3))

	raw, ok := h.LatestAll()["ETHUSDT:series"]
	if !ok {
		t.Fatal("no series envelope")
	}
	var env struct {
		Symbol string          `json:"symbol"`
		Type   string          `json:"type"`
		Data   json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(raw, &env); err != nil {
		t.Fatalf("envelope: %v", err)
	}
	if env.Symbol != "ETHUSDT" || env.Type != "series" || len(env.Data) == 0 {
		t.Errorf("envelope = %+v", env)
	}
}

func TestSurface_RemoveIndicatorEvictsCache(t *testing.T) {
	h, c := newHubChart(t, "BTCUSDT")
	c.SetData(testRaw(30))

	if err := c.AddIndicator(indicator.KindRSI, indicator.Options{}); err != nil {
		t.Fatalf("AddIndicator: %v", err)
	}
	if _, ok := h.LatestAll()["BTCUSDT:ind:rsi"]; !ok {
		t.Fatal("indicator envelope not cached")
	}

	c.RemoveIndicator("rsi")
	if _, ok := h.LatestAll()["BTCUSDT:ind:rsi"]; ok {
		t.Error("removed indicator still cached for catch-up replay")
	}
}

func TestHandleClientMessage_Routing(t *testing.T) {
	h, c := newHubChart(t, "BTCUSDT")
	c.SetData(testRaw(10))

	var saved []string
	h.OnPrefsChanged(func(symbol string) { saved = append(saved, symbol) })

	h.handleClientMessage(clientMessage{Type: "gesture", Symbol: "BTCUSDT"})
	if c.ViewportMode() != viewport.UserControlled {
		t.Fatal("gesture message should enter user control")
	}

	h.handleClientMessage(clientMessage{Type: "reset", Symbol: "BTCUSDT"})
	if c.ViewportMode() != viewport.AutoFollow {
		t.Fatal("reset message should return to auto-follow")
	}

	h.handleClientMessage(clientMessage{Type: "add_indicator", Symbol: "BTCUSDT", Kind: "sma50"})
	if got := c.ActiveIndicators(); len(got) != 1 || got[0] != "sma50" {
		t.Errorf("active = %v, want [sma50]", got)
	}

	h.handleClientMessage(clientMessage{Type: "theme", Symbol: "BTCUSDT", Name: "light"})
	if c.Theme().Name != "light" {
		t.Errorf("theme = %s, want light", c.Theme().Name)
	}

	h.handleClientMessage(clientMessage{Type: "chart_type", Symbol: "BTCUSDT", Name: "area"})
	if c.ChartKind().String() != "area" {
		t.Errorf("chart type = %s, want area", c.ChartKind())
	}

	if len(saved) != 3 {
		t.Errorf("prefs saves = %d (%v), want 3", len(saved), saved)
	}
}

func TestHandleClientMessage_UnknownSymbolAndKind(t *testing.T) {
	h, c := newHubChart(t, "BTCUSDT")
	c.SetData(testRaw(5))

	// Unknown symbol: silently ignored.
	h.handleClientMessage(clientMessage{Type: "gesture", Symbol: "DOGEUSDT"})
	if c.ViewportMode() != viewport.AutoFollow {
		t.Error("message for unknown symbol leaked into another chart")
	}

	// Unknown indicator kind: rejected, nothing activates.
	h.handleClientMessage(clientMessage{Type: "add_indicator", Symbol: "BTCUSDT", Kind: "vwap"})
	if len(c.ActiveIndicators()) != 0 {
		t.Errorf("active = %v, want empty", c.ActiveIndicators())
	}
}

func TestHandleClientMessage_RangeUpdate(t *testing.T) {
	h, c := newHubChart(t, "BTCUSDT")
	c.SetData(testRaw(10))

	h.handleClientMessage(clientMessage{Type: "gesture", Symbol: "BTCUSDT"})
	h.handleClientMessage(clientMessage{Type: "range", Symbol: "BTCUSDT", From: 2, To: 7})

	// New data while user-controlled: range untouched.
	c.UpdateData(model.RawCandle{Time: 1700001000, Close: 99})

	raw := h.LatestAll()["BTCUSDT:range"]
	var env struct {
		Data viewport.Range `json:"data"`
	}
	if err := json.Unmarshal(raw, &env); err != nil {
		t.Fatalf("envelope: %v", err)
	}
	// The cached range is still the fit-all push from SetData; the user's
	// range never produced a broadcast and data did not move it.
	if env.Data != (viewport.Range{From: 0, To: 9}) {
		t.Errorf("cached range = %+v, want {0 9}", env.Data)
	}
}
