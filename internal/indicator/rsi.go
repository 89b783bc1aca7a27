package indicator

import (
	"math"

	"quotexbot/internal/model"
)

// RSI computes the Relative Strength Index from simple rolling means of
// close-to-close gains and losses (not Wilder smoothing).
//
// The first bar has no predecessor and contributes a zero delta, so the
// first defined value is at index period-1.
//
// Zero-loss windows: RSI is 100 when there were gains, 50 when the window is flat.
func RSI(bars []model.Bar, period int) []float64 {
	out := nanSeries(len(bars))
	if period <= 0 {
		return out
	}

	gains := newWindow(period)
	losses := newWindow(period)
	for i, b := range bars {
		delta := 0.0
		if i > 0 {
			delta = b.Close - bars[i-1].Close
		}
		gains.push(math.Max(delta, 0))
		losses.push(math.Max(-delta, 0))

		if !gains.full() {
			continue
		}
		out[i] = rsiFromAverages(gains.mean(), losses.mean())
	}
	return out
}

func rsiFromAverages(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		if avgGain == 0 {
			return 50.0
		}
		return 100.0
	}
	rs := avgGain / avgLoss
	return 100.0 - (100.0 / (1.0 + rs))
}
