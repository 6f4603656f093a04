package store

import (
	"testing"

	"chartcorev1/internal/model"
)

func rawCandle(ts int64, close float64) model.RawCandle {
	return model.RawCandle{Time: ts, Open: close, High: close + 1, Low: close - 1, Close: close, Volume: 10}
}

func TestSetData_SortsDescendingInput(t *testing.T) {
	s := New()
	err := s.SetData([]model.RawCandle{
		rawCandle(300, 3),
		rawCandle(100, 1),
		rawCandle(200, 2),
	})
	if err != nil {
		t.Fatalf("SetData: %v", err)
	}

	got := s.Candles()
	if len(got) != 3 {
		t.Fatalf("len = %d, want 3", len(got))
	}
	for i := 1; i < len(got); i++ {
		if got[i].Time <= got[i-1].Time {
			t.Fatalf("not ascending at %d: %d <= %d", i, got[i].Time, got[i-1].Time)
		}
	}
}

func TestSetData_DedupeLastWins(t *testing.T) {
	s := New()
	s.SetData([]model.RawCandle{
		rawCandle(100, 1),
		rawCandle(200, 2),
		rawCandle(100, 9), // duplicate key, later record wins
	})

	got := s.Candles()
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[0].Close != 9 {
		t.Errorf("duplicate key: close = %v, want 9 (last record)", got[0].Close)
	}
}

func TestSetData_RejectsEmptyAndKeepsState(t *testing.T) {
	s := New()
	s.SetData([]model.RawCandle{rawCandle(100, 1)})

	if err := s.SetData(nil); err != ErrEmptyInput {
		t.Errorf("empty input: err = %v, want ErrEmptyInput", err)
	}
	// all records invalid (no usable time key)
	if err := s.SetData([]model.RawCandle{{Close: 5}}); err != ErrEmptyInput {
		t.Errorf("all-invalid input: err = %v, want ErrEmptyInput", err)
	}

	if s.Len() != 1 {
		t.Errorf("rejected input clobbered state: len = %d, want 1", s.Len())
	}
}

func TestSetData_TimestampKeyFallback(t *testing.T) {
	s := New()
	err := s.SetData([]model.RawCandle{{Timestamp: 500, Close: 7}})
	if err != nil {
		t.Fatalf("SetData: %v", err)
	}
	last, _ := s.Last()
	if last.Time != 500 {
		t.Errorf("time = %d, want 500 (timestamp fallback)", last.Time)
	}
}

func TestUpdateData_ReplaceInPlace(t *testing.T) {
	s := New()
	s.SetData([]model.RawCandle{rawCandle(100, 1), rawCandle(200, 2)})

	if err := s.UpdateData(rawCandle(200, 22)); err != nil {
		t.Fatalf("UpdateData: %v", err)
	}
	got := s.Candles()
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2 (replace, not append)", len(got))
	}
	if got[1].Close != 22 {
		t.Errorf("close = %v, want 22", got[1].Close)
	}
}

func TestUpdateData_AppendNewestKeepsOrder(t *testing.T) {
	s := New()
	s.SetData([]model.RawCandle{rawCandle(100, 1), rawCandle(200, 2)})

	s.UpdateData(rawCandle(300, 3))
	last, _ := s.Last()
	if last.Time != 300 {
		t.Errorf("last = %d, want 300", last.Time)
	}
}

func TestUpdateData_OutOfOrderInsertResorts(t *testing.T) {
	s := New()
	s.SetData([]model.RawCandle{rawCandle(100, 1), rawCandle(300, 3)})

	s.UpdateData(rawCandle(200, 2))
	got := s.Candles()
	want := []int64{100, 200, 300}
	for i, ts := range want {
		if got[i].Time != ts {
			t.Fatalf("order = %v, want %v", got, want)
		}
	}
}

func TestUpdateData_RejectsInvalid(t *testing.T) {
	s := New()
	if err := s.UpdateData(model.RawCandle{Close: 5}); err != ErrEmptyInput {
		t.Errorf("err = %v, want ErrEmptyInput", err)
	}
}

func TestListener_NotifiedPerMutation(t *testing.T) {
	s := New()
	var calls int
	var lastLen int
	s.Subscribe(func(candles []model.Candle) {
		calls++
		lastLen = len(candles)
	})

	s.SetData([]model.RawCandle{rawCandle(100, 1)})
	s.UpdateData(rawCandle(200, 2))
	s.SetData(nil) // rejected: no notification

	if calls != 2 {
		t.Errorf("calls = %d, want 2", calls)
	}
	if lastLen != 2 {
		t.Errorf("last snapshot len = %d, want 2", lastLen)
	}
}

func TestListener_SnapshotIsIsolated(t *testing.T) {
	s := New()
	var snapshot []model.Candle
	s.Subscribe(func(candles []model.Candle) { snapshot = candles })

	s.SetData([]model.RawCandle{rawCandle(100, 1)})
	snapshot[0].Close = 999

	got := s.Candles()
	if got[0].Close != 1 {
		t.Error("listener snapshot aliases the stored sequence")
	}
}

func TestSetDataToken_StaleLoadDropped(t *testing.T) {
	s := New()

	stale := s.BeginLoad()
	fresh := s.BeginLoad()

	if err := s.SetDataToken(stale, []model.RawCandle{rawCandle(100, 1)}); err != nil {
		t.Fatalf("stale token: err = %v, want nil (silent drop)", err)
	}
	if s.Len() != 0 {
		t.Fatal("stale load should not touch state")
	}

	if err := s.SetDataToken(fresh, []model.RawCandle{rawCandle(200, 2)}); err != nil {
		t.Fatalf("fresh token: %v", err)
	}
	last, _ := s.Last()
	if last.Time != 200 {
		t.Errorf("last = %d, want 200 (fresh load applied)", last.Time)
	}
}

func TestSetDataToken_ZeroAlwaysApplies(t *testing.T) {
	s := New()
	s.BeginLoad() // outstanding async load

	if err := s.SetDataToken(0, []model.RawCandle{rawCandle(100, 1)}); err != nil {
		t.Fatalf("token 0: %v", err)
	}
	if s.Len() != 1 {
		t.Error("token 0 (synchronous path) must always apply")
	}
}

func TestCandles_ReturnsCopy(t *testing.T) {
	s := New()
	s.SetData([]model.RawCandle{rawCandle(100, 1)})

	got := s.Candles()
	got[0].Close = 777
	again := s.Candles()
	if again[0].Close != 1 {
		t.Error("Candles() exposed internal storage")
	}
}
