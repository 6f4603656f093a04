// Package prefs persists per-symbol chart preferences (theme, chart type,
// active indicators) in Redis. Malformed persisted data falls back to
// documented defaults silently — a broken preference blob must never break
// chart startup.
package prefs

import (
	"context"
	"encoding/json"
	"log"
	"time"

	goredis "github.com/go-redis/redis/v8"
)

const keyPrefix = "chartcore:prefs:"

// Preferences is the persisted preference blob for one symbol.
type Preferences struct {
	Theme      string   `json:"theme"`
	ChartType  string   `json:"chart_type"`
	Indicators []string `json:"indicators"`
}

// Defaults returns the documented fallback preferences.
func Defaults() Preferences {
	return Preferences{
		Theme:      "dark",
		ChartType:  "candlestick",
		Indicators: []string{"sma9", "ema21"},
	}
}

// Store reads and writes preferences in Redis.
type Store struct {
	rdb *goredis.Client
}

// NewStore creates a preference store. A nil client yields a store that
// always serves defaults and drops writes.
func NewStore(rdb *goredis.Client) *Store {
	return &Store{rdb: rdb}
}

// Load returns the persisted preferences for a symbol, or defaults when
// nothing is stored, Redis is unreachable, or the blob fails to parse.
// Parsing failures are logged but never propagated.
func (s *Store) Load(ctx context.Context, symbol string) Preferences {
	if s.rdb == nil {
		return Defaults()
	}

	data, err := s.rdb.Get(ctx, keyPrefix+symbol).Result()
	if err != nil {
		return Defaults()
	}

	var p Preferences
	if err := json.Unmarshal([]byte(data), &p); err != nil {
		log.Printf("[prefs] WARNING: malformed preferences for %s, using defaults: %v", symbol, err)
		return Defaults()
	}
	if p.Theme == "" {
		p.Theme = "dark"
	}
	if p.ChartType == "" {
		p.ChartType = "candlestick"
	}
	return p
}

// Save persists preferences fire-and-forget: failures are logged, the
// in-memory state stays the source of truth.
func (s *Store) Save(symbol string, p Preferences) {
	if s.rdb == nil {
		return
	}

	data, err := json.Marshal(p)
	if err != nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := s.rdb.Set(ctx, keyPrefix+symbol, data, 0).Err(); err != nil {
		log.Printf("[prefs] WARNING: failed to persist preferences for %s: %v", symbol, err)
	}
}
