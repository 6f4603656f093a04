package indicator

import "chartcorev1/internal/model"

// SMA computes the Simple Moving Average of close prices.
// Output[i] is invalid for i < period-1; otherwise it is the arithmetic
// mean of the trailing period closes ending at i (inclusive).
func SMA(candles []model.Candle, period int) (Series, error) {
	if period <= 0 {
		return nil, ErrBadPeriod
	}
	out := invalidSeries(candles)

	sum := 0.0
	for i, c := range candles {
		sum += c.Close
		if i >= period {
			sum -= candles[i-period].Close
		}
		if i >= period-1 {
			out[i].Value = sum / float64(period)
			out[i].Valid = true
		}
	}
	return out, nil
}
