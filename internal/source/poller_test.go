package source

import (
	"context"
	"sync"
	"testing"
	"time"

	"chartcorev1/internal/model"
	"chartcorev1/internal/store"
)

// fakeTarget implements Target with recorded calls.
type fakeTarget struct {
	mu      sync.Mutex
	token   uint64
	sets    int
	updates []model.RawCandle
}

func (f *fakeTarget) BeginLoad() uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.token++
	return f.token
}

func (f *fakeTarget) SetDataToken(token uint64, raw []model.RawCandle) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(raw) == 0 {
		return store.ErrEmptyInput
	}
	if token == f.token {
		f.sets++
	}
	return nil
}

func (f *fakeTarget) UpdateData(raw model.RawCandle) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates = append(f.updates, raw)
	return nil
}

func (f *fakeTarget) snapshot() (int, []model.RawCandle) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sets, append([]model.RawCandle(nil), f.updates...)
}

func TestPoller_InitialLoadThenUpserts(t *testing.T) {
	target := &fakeTarget{}
	fetch := func(ctx context.Context, symbol string) ([]model.RawCandle, error) {
		if symbol != "BTCUSDT" {
			t.Errorf("fetch symbol = %q", symbol)
		}
		return []model.RawCandle{
			{Time: 100, Close: 1},
			{Time: 200, Close: 2},
		}, nil
	}

	p := NewPoller("BTCUSDT", fetch, target, 20*time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		p.Run(ctx)
		close(done)
	}()

	time.Sleep(90 * time.Millisecond)
	cancel()
	<-done

	sets, updates := target.snapshot()
	if sets != 1 {
		t.Errorf("full loads = %d, want 1 (initial only)", sets)
	}
	if len(updates) == 0 {
		t.Fatal("expected at least one tick upsert")
	}
	for _, u := range updates {
		if u.Time != 200 {
			t.Errorf("tick upserted %d, want newest candle 200", u.Time)
		}
	}
}

func TestPoller_EmptyInitialFetchRejectedQuietly(t *testing.T) {
	target := &fakeTarget{}
	fetch := func(ctx context.Context, symbol string) ([]model.RawCandle, error) {
		return []model.RawCandle{}, nil
	}

	p := NewPoller("X", fetch, target, 15*time.Millisecond)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	p.Run(ctx)

	sets, updates := target.snapshot()
	if sets != 0 {
		t.Errorf("full loads = %d, want 0 (empty result rejected)", sets)
	}
	if len(updates) != 0 {
		t.Errorf("updates = %d, want 0 (empty ticks skipped)", len(updates))
	}
}

func TestPoller_FetchErrorSkipsTick(t *testing.T) {
	target := &fakeTarget{}
	fetch := func(ctx context.Context, symbol string) ([]model.RawCandle, error) {
		return nil, context.DeadlineExceeded
	}

	p := NewPoller("X", fetch, target, 15*time.Millisecond)
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Millisecond)
	defer cancel()
	p.Run(ctx)

	sets, updates := target.snapshot()
	if sets != 0 || len(updates) != 0 {
		t.Errorf("failed fetches must not mutate the target: %d/%d", sets, len(updates))
	}
}
