package indicator

import "chartcorev1/internal/model"

// EMA computes the Exponential Moving Average of close prices.
// The value at index period-1 is seeded with the SMA over the first period
// closes; later values use ema[i] = (close[i] - ema[i-1])*k + ema[i-1] with
// k = 2/(period+1). Earlier indices are invalid.
func EMA(candles []model.Candle, period int) (Series, error) {
	if period <= 0 {
		return nil, ErrBadPeriod
	}
	out := invalidSeries(candles)
	if len(candles) < period {
		return out, nil
	}

	k := 2.0 / float64(period+1)

	seed := 0.0
	for i := 0; i < period; i++ {
		seed += candles[i].Close
	}
	prev := seed / float64(period)
	out[period-1].Value = prev
	out[period-1].Valid = true

	for i := period; i < len(candles); i++ {
		prev = (candles[i].Close-prev)*k + prev
		out[i].Value = prev
		out[i].Valid = true
	}
	return out, nil
}

// emaOfSeries applies the EMA recurrence to another indicator's output,
// using the same SMA seeding rule over the first period valid points.
// Points before the source becomes valid stay invalid, as does the
// seed window itself.
func emaOfSeries(src Series, period int) Series {
	out := make(Series, len(src))
	for i, p := range src {
		out[i] = Point{Time: p.Time}
	}

	k := 2.0 / float64(period+1)
	seen := 0
	sum := 0.0
	prev := 0.0
	for i, p := range src {
		if !p.Valid {
			continue
		}
		seen++
		if seen < period {
			sum += p.Value
			continue
		}
		if seen == period {
			sum += p.Value
			prev = sum / float64(period)
		} else {
			prev = (p.Value-prev)*k + prev
		}
		out[i].Value = prev
		out[i].Valid = true
	}
	return out
}
