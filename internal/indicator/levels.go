package indicator

import "quotexbot/internal/model"

// Support returns the minimum low over the trailing period bars, current bar included.
func Support(bars []model.Bar, period int) []float64 {
	out := nanSeries(len(bars))
	if period <= 0 {
		return out
	}
	w := newWindow(period)
	for i, b := range bars {
		w.push(b.Low)
		out[i] = w.min()
	}
	return out
}

// Resistance returns the maximum high over the trailing period bars, current bar included.
func Resistance(bars []model.Bar, period int) []float64 {
	out := nanSeries(len(bars))
	if period <= 0 {
		return out
	}
	w := newWindow(period)
	for i, b := range bars {
		w.push(b.High)
		out[i] = w.max()
	}
	return out
}

// Manipulation flags bars whose intrabar range exceeds pct of close.
// The comparison is strict: a range of exactly pct*close is not flagged.
func Manipulation(bars []model.Bar, pct float64) []int {
	out := make([]int, len(bars))
	for i, b := range bars {
		if b.Range() > b.Close*pct {
			out[i] = 1
		}
	}
	return out
}
