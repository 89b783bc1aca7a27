package indicator

import "math"

// window is a trailing window over a float series.
// Uses a preallocated circular buffer and a running sum so Push and mean are O(1).
type window struct {
	buf     []float64
	idx     int // next write position
	count   int // total values pushed
	sum     float64
	nonzero int // non-zero values currently held
}

func newWindow(period int) *window {
	return &window{buf: make([]float64, period)}
}

func (w *window) push(v float64) {
	if w.count >= len(w.buf) {
		old := w.buf[w.idx]
		w.sum -= old
		if old != 0 {
			w.nonzero--
		}
	}

	w.buf[w.idx] = v
	w.sum += v
	if v != 0 {
		w.nonzero++
	}
	w.idx = (w.idx + 1) % len(w.buf)
	w.count++
}

func (w *window) full() bool { return w.count >= len(w.buf) }

// mean returns NaN until the window is full. An all-zero window is exactly 0
// regardless of rounding left over in the running sum.
func (w *window) mean() float64 {
	if !w.full() {
		return math.NaN()
	}
	if w.nonzero == 0 {
		return 0
	}
	return w.sum / float64(len(w.buf))
}

func (w *window) min() float64 {
	if !w.full() {
		return math.NaN()
	}
	m := math.Inf(1)
	for _, v := range w.buf {
		if v < m {
			m = v
		}
	}
	return m
}

func (w *window) max() float64 {
	if !w.full() {
		return math.NaN()
	}
	m := math.Inf(-1)
	for _, v := range w.buf {
		if v > m {
			m = v
		}
	}
	return m
}
