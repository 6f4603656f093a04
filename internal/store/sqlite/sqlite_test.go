package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"chartcorev1/internal/model"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestUpsertCandle_ReplacesSameKey(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	c := model.Candle{Time: 100, Open: 1, High: 2, Low: 0.5, Close: 1.5, Volume: 10}
	if err := s.UpsertCandle(ctx, "BTCUSDT", c); err != nil {
		t.Fatalf("UpsertCandle: %v", err)
	}
	c.Close = 9
	if err := s.UpsertCandle(ctx, "BTCUSDT", c); err != nil {
		t.Fatalf("UpsertCandle replace: %v", err)
	}

	got, err := s.ReadHistory(ctx, "BTCUSDT", 10)
	if err != nil {
		t.Fatalf("ReadHistory: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("len = %d, want 1 (upsert, not insert)", len(got))
	}
	if got[0].Close != 9 {
		t.Errorf("close = %v, want 9", got[0].Close)
	}
}

func TestReplaceHistory_AndReadBackAscending(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	candles := []model.Candle{
		{Time: 300, Close: 3},
		{Time: 100, Close: 1},
		{Time: 200, Close: 2},
	}
	if err := s.ReplaceHistory(ctx, "ETHUSDT", candles); err != nil {
		t.Fatalf("ReplaceHistory: %v", err)
	}

	got, err := s.ReadHistory(ctx, "ETHUSDT", 10)
	if err != nil {
		t.Fatalf("ReadHistory: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("len = %d, want 3", len(got))
	}
	for i := 1; i < len(got); i++ {
		if got[i].Time <= got[i-1].Time {
			t.Fatalf("not ascending at %d", i)
		}
	}

	// Second replace wipes the first.
	if err := s.ReplaceHistory(ctx, "ETHUSDT", candles[:1]); err != nil {
		t.Fatalf("ReplaceHistory: %v", err)
	}
	got, _ = s.ReadHistory(ctx, "ETHUSDT", 10)
	if len(got) != 1 {
		t.Errorf("len after replace = %d, want 1", len(got))
	}
}

func TestReadHistory_LimitKeepsNewest(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	var candles []model.Candle
	for i := 0; i < 10; i++ {
		candles = append(candles, model.Candle{Time: int64(100 + i), Close: float64(i)})
	}
	s.ReplaceHistory(ctx, "BTCUSDT", candles)

	got, err := s.ReadHistory(ctx, "BTCUSDT", 3)
	if err != nil {
		t.Fatalf("ReadHistory: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("len = %d, want 3", len(got))
	}
	if got[0].Time != 107 || got[2].Time != 109 {
		t.Errorf("window = [%d..%d], want newest three ascending", got[0].Time, got[2].Time)
	}
}

func TestReadHistory_SymbolIsolation(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	s.UpsertCandle(ctx, "BTCUSDT", model.Candle{Time: 100, Close: 1})
	got, err := s.ReadHistory(ctx, "ETHUSDT", 10)
	if err != nil {
		t.Fatalf("ReadHistory: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("len = %d, want 0 for an unwritten symbol", len(got))
	}
}
