package indicator

import (
	"math"

	"chartcorev1/internal/model"
)

// BollingerResult bundles the three band lines.
type BollingerResult struct {
	Upper  Series
	Middle Series
	Lower  Series
}

// Bollinger computes Bollinger Bands: middle = SMA(period), upper/lower =
// middle ± mult * population standard deviation of the same trailing
// window. Bands are invalid wherever the middle is invalid.
func Bollinger(candles []model.Candle, period int, mult float64) (BollingerResult, error) {
	if period <= 0 {
		return BollingerResult{}, ErrBadPeriod
	}

	middle, err := SMA(candles, period)
	if err != nil {
		return BollingerResult{}, err
	}

	upper := invalidSeries(candles)
	lower := invalidSeries(candles)
	for i := range candles {
		if !middle[i].Valid {
			continue
		}
		mean := middle[i].Value
		variance := 0.0
		for j := i - period + 1; j <= i; j++ {
			d := candles[j].Close - mean
			variance += d * d
		}
		std := math.Sqrt(variance / float64(period))

		upper[i].Value = mean + mult*std
		upper[i].Valid = true
		lower[i].Value = mean - mult*std
		lower[i].Valid = true
	}

	return BollingerResult{Upper: upper, Middle: middle, Lower: lower}, nil
}
