package chart

import (
	"fmt"

	"chartcorev1/internal/model"
)

// ChartType is the closed set of series renderings. Dispatch on it is an
// exhaustive switch, never string comparison chains.
type ChartType int

const (
	Candlestick ChartType = iota
	Line
	Area
	BarChart
)

func (t ChartType) String() string {
	switch t {
	case Candlestick:
		return "candlestick"
	case Line:
		return "line"
	case Area:
		return "area"
	case BarChart:
		return "bar"
	}
	return "candlestick"
}

// ParseChartType maps a config string to a ChartType.
func ParseChartType(s string) (ChartType, error) {
	switch s {
	case "candlestick", "":
		return Candlestick, nil
	case "line":
		return Line, nil
	case "area":
		return Area, nil
	case "bar":
		return BarChart, nil
	}
	return Candlestick, fmt.Errorf("chart: unknown chart type %q", s)
}

// ClosePoint is a single close-price sample for line/area renderings.
type ClosePoint struct {
	Time  int64   `json:"time"`
	Value float64 `json:"value"`
}

// SeriesPayload is the series data pushed to the render surface, shaped
// per chart type: OHLC bars for candlestick/bar, close points for
// line/area.
type SeriesPayload struct {
	Type       ChartType      `json:"type"`
	Candles    []model.Candle `json:"candles,omitempty"`
	Points     []ClosePoint   `json:"points,omitempty"`
	BarSpacing int            `json:"bar_spacing,omitempty"`
}

// buildPayload shapes candles for the active chart type.
func buildPayload(t ChartType, candles []model.Candle) SeriesPayload {
	switch t {
	case Candlestick, BarChart:
		return SeriesPayload{Type: t, Candles: candles}
	case Line, Area:
		points := make([]ClosePoint, len(candles))
		for i, c := range candles {
			points[i] = ClosePoint{Time: c.Time, Value: c.Close}
		}
		return SeriesPayload{Type: t, Points: points}
	}
	return SeriesPayload{Type: Candlestick, Candles: candles}
}
