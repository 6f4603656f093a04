// Package store owns the canonical candle sequence for one chart.
//
// Invariant: the stored sequence is strictly ascending by Time with no
// duplicate keys at rest. Every accepted mutation notifies listeners so
// indicators recompute and the viewport re-evaluates.
package store

import (
	"errors"
	"sort"
	"sync"

	"chartcorev1/internal/model"
)

// ErrEmptyInput signals a rejected SetData/UpdateData call. The store
// keeps its last good state; callers log a warning and move on.
var ErrEmptyInput = errors.New("store: empty or invalid candle input")

// Listener is notified synchronously after every accepted mutation with a
// copy of the full sequence.
type Listener func(candles []model.Candle)

// SeriesStore holds the time-ordered candle sequence.
// There is a single logical writer (the poll/update path); the mutex only
// guards reads from the serving goroutines.
type SeriesStore struct {
	mu        sync.RWMutex
	candles   []model.Candle
	loadGen   uint64
	listeners []Listener
}

// New creates an empty store.
func New() *SeriesStore {
	return &SeriesStore{}
}

// Subscribe registers a mutation listener. Not safe to call concurrently
// with mutations; wire listeners during construction.
func (s *SeriesStore) Subscribe(l Listener) {
	s.listeners = append(s.listeners, l)
}

// BeginLoad claims a generation token for an asynchronous full load.
// A SetDataToken carrying a superseded token is dropped.
func (s *SeriesStore) BeginLoad() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loadGen++
	return s.loadGen
}

// SetData normalizes, sorts, and wholesale-replaces the stored sequence.
// Empty input (or input with no usable records) is rejected with
// ErrEmptyInput and the previous sequence survives.
func (s *SeriesStore) SetData(raw []model.RawCandle) error {
	return s.SetDataToken(0, raw)
}

// SetDataToken is SetData for async loads: token 0 always applies, any
// other token applies only while it is still the latest one issued by
// BeginLoad. Stale responses are discarded without touching state.
func (s *SeriesStore) SetDataToken(token uint64, raw []model.RawCandle) error {
	if len(raw) == 0 {
		return ErrEmptyInput
	}

	next := make([]model.Candle, 0, len(raw))
	for _, r := range raw {
		if c, ok := r.Normalize(); ok {
			next = append(next, c)
		}
	}
	if len(next) == 0 {
		return ErrEmptyInput
	}

	sort.Slice(next, func(i, j int) bool { return next[i].Time < next[j].Time })

	// Collapse duplicate keys, last record wins.
	dedup := next[:1]
	for _, c := range next[1:] {
		if c.Time == dedup[len(dedup)-1].Time {
			dedup[len(dedup)-1] = c
			continue
		}
		dedup = append(dedup, c)
	}

	s.mu.Lock()
	if token != 0 && token != s.loadGen {
		s.mu.Unlock()
		return nil // superseded load, drop silently
	}
	s.candles = dedup
	s.mu.Unlock()

	s.notify()
	return nil
}

// UpdateData upserts a single candle by its time key: an existing bar is
// replaced in place, a new one is appended and the sequence re-sorted.
// The append-at-end live tick skips the sort. Full resort on out-of-order
// inserts is a known ceiling, acceptable at ~1 update/second.
func (s *SeriesStore) UpdateData(raw model.RawCandle) error {
	c, ok := raw.Normalize()
	if !ok {
		return ErrEmptyInput
	}

	s.mu.Lock()
	if i := s.indexOf(c.Time); i >= 0 {
		s.candles[i] = c
	} else {
		inOrder := len(s.candles) == 0 || s.candles[len(s.candles)-1].Time < c.Time
		s.candles = append(s.candles, c)
		if !inOrder {
			sort.Slice(s.candles, func(i, j int) bool { return s.candles[i].Time < s.candles[j].Time })
		}
	}
	s.mu.Unlock()

	s.notify()
	return nil
}

// Candles returns a copy of the stored sequence.
func (s *SeriesStore) Candles() []model.Candle {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Candle, len(s.candles))
	copy(out, s.candles)
	return out
}

// Len returns the number of stored candles.
func (s *SeriesStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.candles)
}

// Last returns the newest candle, false when empty.
func (s *SeriesStore) Last() (model.Candle, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.candles) == 0 {
		return model.Candle{}, false
	}
	return s.candles[len(s.candles)-1], true
}

// indexOf binary-searches the sorted sequence for a time key.
// Caller holds the lock. Returns -1 when absent.
func (s *SeriesStore) indexOf(t int64) int {
	i := sort.Search(len(s.candles), func(i int) bool { return s.candles[i].Time >= t })
	if i < len(s.candles) && s.candles[i].Time == t {
		return i
	}
	return -1
}

func (s *SeriesStore) notify() {
	snapshot := s.Candles()
	for _, l := range s.listeners {
		l(snapshot)
	}
}
