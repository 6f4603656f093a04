// Package indicator provides technical indicator calculations over candle data.
//
// All functions are pure: they take the full candle sequence and return a
// Series of the same length, index-aligned 1:1 with the input. A Point with
// Valid=false marks insufficient trailing history — never zero. Callers must
// not do arithmetic on invalid points.
package indicator

import (
	"errors"

	"chartcorev1/internal/model"
)

// ErrBadPeriod is returned when a caller supplies a non-positive period.
var ErrBadPeriod = errors.New("indicator: period must be a positive integer")

// Point is one indicator output aligned to a source candle.
type Point struct {
	Time  int64   `json:"time"`
	Value float64 `json:"value"`
	Valid bool    `json:"valid"`
}

// Series is an ordered sequence of points, one per source candle.
type Series []Point

// Last returns the newest valid value, if any.
func (s Series) Last() (float64, bool) {
	for i := len(s) - 1; i >= 0; i-- {
		if s[i].Valid {
			return s[i].Value, true
		}
	}
	return 0, false
}

// invalidSeries allocates a series of the right length with every point
// carrying its candle time but no value yet.
func invalidSeries(candles []model.Candle) Series {
	out := make(Series, len(candles))
	for i, c := range candles {
		out[i] = Point{Time: c.Time}
	}
	return out
}
