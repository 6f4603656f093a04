package model

import (
	"encoding/json"
	"testing"
)

func TestNormalize_TimeKeyResolution(t *testing.T) {
	c, ok := RawCandle{Time: 100, Timestamp: 999, Close: 1}.Normalize()
	if !ok || c.Time != 100 {
		t.Errorf("time wins over timestamp: got %d/%v", c.Time, ok)
	}

	c, ok = RawCandle{Timestamp: 999, Close: 1}.Normalize()
	if !ok || c.Time != 999 {
		t.Errorf("timestamp fallback: got %d/%v", c.Time, ok)
	}

	if _, ok := (RawCandle{Close: 1}).Normalize(); ok {
		t.Error("record without a time key must be invalid")
	}
	if _, ok := (RawCandle{Time: -5, Close: 1}).Normalize(); ok {
		t.Error("negative time key must be invalid")
	}
}

func TestNormalize_ClampsNegativeVolume(t *testing.T) {
	c, ok := RawCandle{Time: 100, Volume: -3}.Normalize()
	if !ok {
		t.Fatal("record should normalize")
	}
	if c.Volume != 0 {
		t.Errorf("volume = %v, want 0", c.Volume)
	}
}

func TestRawCandle_AcceptsBothWireKeys(t *testing.T) {
	var r RawCandle
	if err := json.Unmarshal([]byte(`{"timestamp":1700000000,"close":2.5}`), &r); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	c, ok := r.Normalize()
	if !ok || c.Time != 1700000000 || c.Close != 2.5 {
		t.Errorf("normalized = %+v/%v", c, ok)
	}
}
