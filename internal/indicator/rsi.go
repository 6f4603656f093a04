package indicator

import "chartcorev1/internal/model"

// RSI computes the Relative Strength Index over close-to-close deltas.
//
// avgGain/avgLoss are the plain arithmetic mean of the trailing period
// gains/losses, recomputed independently at each index. This is NOT
// Wilder's recursive smoothing: downstream displayed values depend on the
// simple-average variant, so it must not be "corrected" to the textbook
// formula. Cost is O(n*period), fine at dashboard window sizes.
func RSI(candles []model.Candle, period int) (Series, error) {
	if period <= 0 {
		return nil, ErrBadPeriod
	}
	out := invalidSeries(candles)
	if len(candles) <= period {
		return out, nil
	}

	// gains[i]/losses[i] describe the move from candle i-1 to i; index 0 is unused.
	gains := make([]float64, len(candles))
	losses := make([]float64, len(candles))
	for i := 1; i < len(candles); i++ {
		delta := candles[i].Close - candles[i-1].Close
		if delta > 0 {
			gains[i] = delta
		} else {
			losses[i] = -delta
		}
	}

	for i := period; i < len(candles); i++ {
		var gainSum, lossSum float64
		for j := i - period + 1; j <= i; j++ {
			gainSum += gains[j]
			lossSum += losses[j]
		}
		avgGain := gainSum / float64(period)
		avgLoss := lossSum / float64(period)

		var rs float64
		if avgLoss == 0 {
			rs = 100
		} else {
			rs = avgGain / avgLoss
		}
		out[i].Value = 100 - 100/(1+rs)
		out[i].Valid = true
	}
	return out, nil
}
