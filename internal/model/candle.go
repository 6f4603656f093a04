package model

import "encoding/json"

// Candle represents one OHLCV bar of a price series.
// Time is the unique key within a series (unix seconds, bucket start).
type Candle struct {
	Time   int64   `json:"time"`
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume float64 `json:"volume"`
}

// RawCandle is an inbound record from the market-data collaborator.
// Feeds disagree on the bar-time key, so both "time" and "timestamp"
// are accepted; Normalize resolves them to the canonical Candle.
type RawCandle struct {
	Time      int64   `json:"time"`
	Timestamp int64   `json:"timestamp"`
	Open      float64 `json:"open"`
	High      float64 `json:"high"`
	Low       float64 `json:"low"`
	Close     float64 `json:"close"`
	Volume    float64 `json:"volume"`
}

// Normalize resolves the time key and returns the canonical candle.
// Returns false for records with no usable bar time.
func (r RawCandle) Normalize() (Candle, bool) {
	ts := r.Time
	if ts <= 0 {
		ts = r.Timestamp
	}
	if ts <= 0 {
		return Candle{}, false
	}
	vol := r.Volume
	if vol < 0 {
		vol = 0
	}
	return Candle{
		Time:   ts,
		Open:   r.Open,
		High:   r.High,
		Low:    r.Low,
		Close:  r.Close,
		Volume: vol,
	}, true
}

// JSON returns the JSON-encoded candle (ignoring errors for hot-path usage).
func (c *Candle) JSON() []byte {
	b, _ := json.Marshal(c)
	return b
}
