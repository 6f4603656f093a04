// Package source feeds a chart from a pluggable candle fetcher on a fixed
// interval. The fetch function is injected; this package knows nothing
// about where candles come from.
package source

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"time"

	"chartcorev1/internal/model"
)

// Target is the chart-facing half of the poll loop.
type Target interface {
	BeginLoad() uint64
	SetDataToken(token uint64, raw []model.RawCandle) error
	UpdateData(raw model.RawCandle) error
}

// FetchFunc retrieves the current candle window for a symbol.
type FetchFunc func(ctx context.Context, symbol string) ([]model.RawCandle, error)

// Poller drives one symbol's chart from a FetchFunc.
type Poller struct {
	symbol   string
	fetch    FetchFunc
	target   Target
	interval time.Duration
}

// NewPoller creates a poller. A non-positive interval defaults to 1s.
func NewPoller(symbol string, fetch FetchFunc, target Target, interval time.Duration) *Poller {
	if interval <= 0 {
		interval = time.Second
	}
	return &Poller{symbol: symbol, fetch: fetch, target: target, interval: interval}
}

// Run blocks until ctx is cancelled. The initial fetch replaces the whole
// series under a load token, so a REST ingest racing the poller cannot be
// clobbered by a slow first response. Later ticks upsert only the newest
// candle.
func (p *Poller) Run(ctx context.Context) {
	token := p.target.BeginLoad()
	if raw, err := p.fetch(ctx, p.symbol); err != nil {
		log.Printf("[source] WARNING: initial fetch for %s: %v", p.symbol, err)
	} else if err := p.target.SetDataToken(token, raw); err != nil {
		log.Printf("[source] WARNING: initial load for %s rejected: %v", p.symbol, err)
	} else {
		log.Printf("[source] %s: initial load of %d candles", p.symbol, len(raw))
	}

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			raw, err := p.fetch(ctx, p.symbol)
			if err != nil {
				log.Printf("[source] WARNING: fetch for %s: %v", p.symbol, err)
				continue
			}
			if len(raw) == 0 {
				continue
			}
			if err := p.target.UpdateData(raw[len(raw)-1]); err != nil {
				log.Printf("[source] WARNING: update for %s: %v", p.symbol, err)
			}
		}
	}
}

// HTTPFetch builds a FetchFunc that GETs a JSON candle array from
// baseURL with the symbol as a query parameter.
func HTTPFetch(client *http.Client, baseURL string) FetchFunc {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return func(ctx context.Context, symbol string) ([]model.RawCandle, error) {
		u, err := url.Parse(baseURL)
		if err != nil {
			return nil, fmt.Errorf("source: bad url: %w", err)
		}
		q := u.Query()
		q.Set("symbol", symbol)
		u.RawQuery = q.Encode()

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
		if err != nil {
			return nil, err
		}
		resp, err := client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("source: fetch %s: %w", symbol, err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("source: fetch %s: status %d", symbol, resp.StatusCode)
		}

		var raw []model.RawCandle
		if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
			return nil, fmt.Errorf("source: decode %s: %w", symbol, err)
		}
		return raw, nil
	}
}
