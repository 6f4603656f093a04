// Package chart composes the series store, indicator engine, viewport
// controller, and price formatter behind one facade, and drives an
// external render surface. Rendering mechanics (pixels, canvases) live
// entirely behind the RenderSurface interface.
package chart

import (
	"errors"
	"log"
	"sync"
	"time"

	"chartcorev1/internal/format"
	"chartcorev1/internal/indicator"
	"chartcorev1/internal/model"
	"chartcorev1/internal/store"
	"chartcorev1/internal/viewport"
)

// ErrNoSurface is returned when a chart is constructed without a render
// surface. Construction fails before any timer or listener is created.
var ErrNoSurface = errors.New("chart: render surface is required")

// RenderSurface is the contract of the external rendering collaborator.
// The core pushes data in; the surface calls FormatPrice back whenever it
// needs a label.
type RenderSurface interface {
	SetSeries(payload SeriesPayload)
	SetIndicator(out indicator.Output)
	RemoveIndicator(kind indicator.Kind)
	SetVisibleRange(r viewport.Range)
	SetMarkers(positions []model.Position)
	ApplyTheme(theme Theme)
}

// Config is the immutable construction-time configuration of a chart.
type Config struct {
	ChartType   ChartType
	PriceFormat format.Spec
	Indicators  []indicator.Kind
	BarSpacing  int
	RightOffset int
	Decay       time.Duration
}

// Chart is the facade for one chart instance.
//
// mu serializes every mutating entry point: data ingestion, indicator
// lifecycle, and reconfiguration arrive from WebSocket readers, REST
// handlers, and the poll loop at once, and the engine underneath is a
// plain map. refresh always runs with mu held.
type Chart struct {
	mu      sync.Mutex
	cfg     Config
	surface RenderSurface
	store   *store.SeriesStore
	engine  *indicator.Engine
	view    *viewport.Controller

	chartType ChartType
	theme     Theme
	positions []model.Position

	// observer hooks, optional
	onRecompute func(d time.Duration, indicators int)
}

// New builds a chart. Fails without a surface, leaving nothing behind: the
// viewport controller (and its timer) is only created after validation.
func New(surface RenderSurface, cfg Config) (*Chart, error) {
	if surface == nil {
		return nil, ErrNoSurface
	}

	c := &Chart{
		cfg:       cfg,
		surface:   surface,
		store:     store.New(),
		engine:    indicator.NewEngine(),
		view:      viewport.New(cfg.Decay, cfg.RightOffset),
		chartType: cfg.ChartType,
		theme:     ThemeByName("dark"),
	}

	for _, kind := range cfg.Indicators {
		if err := c.engine.Add(kind, indicator.Options{}); err != nil {
			c.view.Close()
			return nil, err
		}
	}

	// Every accepted store mutation recomputes indicators and re-evaluates
	// the viewport, then refreshes the surface.
	c.store.Subscribe(func(candles []model.Candle) {
		c.refresh(candles)
	})

	surface.ApplyTheme(c.theme)
	return c, nil
}

// OnRecompute registers a hook observing full recompute passes (metrics).
func (c *Chart) OnRecompute(fn func(d time.Duration, indicators int)) {
	c.onRecompute = fn
}

// OnViewportTransition registers a mode-change hook on the controller.
func (c *Chart) OnViewportTransition(fn func(viewport.Mode)) {
	c.view.OnTransition(fn)
}

// SetData replaces the whole candle history. Invalid/empty input is a
// warned no-op and the chart keeps its last good state.
func (c *Chart) SetData(raw []model.RawCandle) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.store.SetData(raw); err != nil {
		log.Printf("[chart] WARNING: SetData rejected: %v", err)
		return err
	}
	return nil
}

// SetDataToken is SetData guarded by a store load token (see
// store.BeginLoad); stale async loads are discarded.
func (c *Chart) SetDataToken(token uint64, raw []model.RawCandle) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.store.SetDataToken(token, raw); err != nil {
		log.Printf("[chart] WARNING: SetData rejected: %v", err)
		return err
	}
	return nil
}

// BeginLoad claims a load token for an asynchronous history fetch.
func (c *Chart) BeginLoad() uint64 { return c.store.BeginLoad() }

// UpdateData upserts one candle (live tick path).
func (c *Chart) UpdateData(raw model.RawCandle) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.store.UpdateData(raw); err != nil {
		log.Printf("[chart] WARNING: UpdateData rejected: %v", err)
		return err
	}
	return nil
}

// AddIndicator activates an indicator and pushes its series immediately.
func (c *Chart) AddIndicator(kind indicator.Kind, opts indicator.Options) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.engine.Add(kind, opts); err != nil {
		return err
	}
	c.refresh(c.store.Candles())
	return nil
}

// RemoveIndicator deactivates an indicator and removes it from the surface.
func (c *Chart) RemoveIndicator(kind indicator.Kind) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.engine.Remove(kind)
	c.surface.RemoveIndicator(kind)
}

// ActiveIndicators returns the active kinds in stable order.
func (c *Chart) ActiveIndicators() []indicator.Kind {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.engine.Active()
}

// FormatPrice renders a price label. Called by the surface as a callback.
func (c *Chart) FormatPrice(price float64) string {
	return format.Format(price, c.cfg.PriceFormat)
}

// SetTheme swaps the palette. Active indicators, positions, and the
// visible range all survive.
func (c *Chart) SetTheme(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.theme = ThemeByName(name)
	c.surface.ApplyTheme(c.theme)
	c.refresh(c.store.Candles())
}

// Theme returns the current palette value.
func (c *Chart) Theme() Theme {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.theme
}

// SetChartType switches the series rendering. Indicators and positions
// survive the call.
func (c *Chart) SetChartType(t ChartType) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.chartType = t
	c.refresh(c.store.Candles())
}

// ChartKind returns the active chart type.
func (c *Chart) ChartKind() ChartType {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.chartType
}

// SetPositions replaces the position markers.
func (c *Chart) SetPositions(positions []model.Position) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.positions = append([]model.Position(nil), positions...)
	c.surface.SetMarkers(c.positions)
}

// Gesture records a qualifying user gesture from the surface.
func (c *Chart) Gesture(at time.Time) {
	c.view.OnGesture(at)
}

// SetVisibleRange records the range a user pan/zoom produced.
func (c *Chart) SetVisibleRange(r viewport.Range) {
	c.view.SetRange(r)
}

// ResetInteraction forces auto-follow and snaps the window to the newest
// bar if data is present.
func (c *Chart) ResetInteraction() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.view.ResetInteraction()
	if c.store.Len() > 0 {
		c.refresh(c.store.Candles())
	}
}

// ViewportMode exposes the controller state (tests, diagnostics).
func (c *Chart) ViewportMode() viewport.Mode { return c.view.Mode() }

// Candles returns a copy of the stored sequence.
func (c *Chart) Candles() []model.Candle { return c.store.Candles() }

// Last returns the newest candle, if any.
func (c *Chart) Last() (model.Candle, bool) { return c.store.Last() }

// Close tears the chart down, cancelling the decay timer.
func (c *Chart) Close() {
	c.view.Close()
}

// refresh recomputes all active indicators over the full series and pushes
// series, indicator, range, and marker state to the surface. Caller holds
// mu; every store mutation reaches here via the subscription, inside the
// mutating method's critical section.
func (c *Chart) refresh(candles []model.Candle) {
	start := time.Now()

	outputs := c.engine.ComputeAll(candles)

	payload := buildPayload(c.chartType, candles)
	payload.BarSpacing = c.cfg.BarSpacing
	c.surface.SetSeries(payload)
	for _, out := range outputs {
		c.surface.SetIndicator(out)
	}
	if r, apply := c.view.OnData(len(candles) - 1); apply {
		c.surface.SetVisibleRange(r)
	}
	c.surface.SetMarkers(c.positions)

	if c.onRecompute != nil {
		c.onRecompute(time.Since(start), len(outputs))
	}
}
