package indicator

import "chartcorev1/internal/model"

// MACDResult bundles the three MACD output lines.
type MACDResult struct {
	Line      Series
	Signal    Series
	Histogram Series
}

// MACD computes Moving Average Convergence Divergence.
// Line[i] = EMA(fast)[i] - EMA(slow)[i] where both are defined.
// Signal is the EMA of the MACD line itself (same seeding rule).
// Histogram[i] = Line[i] - Signal[i] where both are defined.
func MACD(candles []model.Candle, fast, slow, signal int) (MACDResult, error) {
	if fast <= 0 || slow <= 0 || signal <= 0 {
		return MACDResult{}, ErrBadPeriod
	}

	fastEMA, err := EMA(candles, fast)
	if err != nil {
		return MACDResult{}, err
	}
	slowEMA, err := EMA(candles, slow)
	if err != nil {
		return MACDResult{}, err
	}

	line := invalidSeries(candles)
	for i := range line {
		if fastEMA[i].Valid && slowEMA[i].Valid {
			line[i].Value = fastEMA[i].Value - slowEMA[i].Value
			line[i].Valid = true
		}
	}

	sig := emaOfSeries(line, signal)

	hist := invalidSeries(candles)
	for i := range hist {
		if line[i].Valid && sig[i].Valid {
			hist[i].Value = line[i].Value - sig[i].Value
			hist[i].Valid = true
		}
	}

	return MACDResult{Line: line, Signal: sig, Histogram: hist}, nil
}
