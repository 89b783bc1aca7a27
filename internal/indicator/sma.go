package indicator

import "quotexbot/internal/model"

// MovingAverage returns the arithmetic mean of close over the trailing period bars.
func MovingAverage(bars []model.Bar, period int) []float64 {
	out := nanSeries(len(bars))
	if period <= 0 {
		return out
	}
	w := newWindow(period)
	for i, b := range bars {
		w.push(b.Close)
		out[i] = w.mean()
	}
	return out
}
