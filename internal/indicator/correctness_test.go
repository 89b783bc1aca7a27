package indicator

import (
	"math"
	"testing"

	"quotexbot/internal/model"
)

// ────────────────────────────────────────────────────────────
// Helpers
// ────────────────────────────────────────────────────────────

func closes(prices ...float64) []model.Bar {
	bars := make([]model.Bar, len(prices))
	for i, p := range prices {
		bars[i] = model.Bar{Open: p, High: p + 0.5, Low: p - 0.5, Close: p}
	}
	return bars
}

func assertClose(t *testing.T, label string, got, want, tol float64) {
	t.Helper()
	if math.Abs(got-want) > tol {
		t.Errorf("%s: got %.6f, want %.6f (tol=%.6f, diff=%.6f)", label, got, want, tol, math.Abs(got-want))
	}
}

func assertSeries(t *testing.T, label string, got, want []float64) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("%s: len %d, want %d", label, len(got), len(want))
	}
	for i := range want {
		if math.IsNaN(want[i]) {
			if !math.IsNaN(got[i]) {
				t.Errorf("%s[%d]: got %.6f, want undefined", label, i, got[i])
			}
			continue
		}
		assertClose(t, label, got[i], want[i], 0.0001)
	}
}

var nan = math.NaN()

// ────────────────────────────────────────────────────────────
// Moving average
// ────────────────────────────────────────────────────────────

func TestMovingAverage_Period3(t *testing.T) {
	// (100+102+104)/3 = 102, (102+104+103)/3 = 103, (104+103+105)/3 = 104
	got := MovingAverage(closes(100, 102, 104, 103, 105), 3)
	assertSeries(t, "MA(3)", got, []float64{nan, nan, 102, 103, 104})
}

func TestMovingAverage_ShortSeriesUndefined(t *testing.T) {
	got := MovingAverage(closes(1, 2, 3), 10)
	assertSeries(t, "MA(10)", got, []float64{nan, nan, nan})
}

// ────────────────────────────────────────────────────────────
// Support / resistance
// ────────────────────────────────────────────────────────────

func TestSupportResistance_TrailingWindow(t *testing.T) {
	lows := []float64{5, 3, 4, 6, 2, 7}
	highs := []float64{6, 9, 5, 8, 4, 10}
	bars := make([]model.Bar, len(lows))
	for i := range lows {
		bars[i] = model.Bar{Low: lows[i], High: highs[i], Close: lows[i]}
	}

	assertSeries(t, "support", Support(bars, 3), []float64{nan, nan, 3, 3, 2, 2})
	assertSeries(t, "resistance", Resistance(bars, 3), []float64{nan, nan, 9, 9, 8, 10})
}

func TestSupport_EqualsMinOfLastTenLows(t *testing.T) {
	bars := make([]model.Bar, 25)
	for i := range bars {
		// zig-zag so the minimum moves around inside the window
		low := 50 + float64((i*7)%11)
		bars[i] = model.Bar{Low: low, High: low + 3, Close: low + 1}
	}
	sup := Support(bars, 10)
	res := Resistance(bars, 10)

	for i := range bars {
		if i < 9 {
			if !math.IsNaN(sup[i]) || !math.IsNaN(res[i]) {
				t.Fatalf("bar %d: expected undefined before the window fills", i)
			}
			continue
		}
		minLow, maxHigh := math.Inf(1), math.Inf(-1)
		for j := i - 9; j <= i; j++ {
			minLow = math.Min(minLow, bars[j].Low)
			maxHigh = math.Max(maxHigh, bars[j].High)
		}
		assertClose(t, "support", sup[i], minLow, 0)
		assertClose(t, "resistance", res[i], maxHigh, 0)
	}
}

// ────────────────────────────────────────────────────────────
// RSI
// ────────────────────────────────────────────────────────────

func TestRSI_Correctness_Period3(t *testing.T) {
	// Deltas: 0 (first bar), +2, -1, +3
	// idx 2: gains [0,2,0]=2/3, losses [0,0,1]=1/3 → RS=2 → 66.6667
	// idx 3: gains [2,0,3]=5/3, losses [0,1,0]=1/3 → RS=5 → 83.3333
	got := RSI(closes(10, 12, 11, 14), 3)
	assertSeries(t, "RSI(3)", got, []float64{nan, nan, 66.6667, 83.3333})
}

func TestRSI_FirstDefinedAtPeriodMinusOne(t *testing.T) {
	prices := make([]float64, 20)
	for i := range prices {
		prices[i] = 100 + float64(i%3)
	}
	got := RSI(closes(prices...), 14)
	for i := 0; i < 13; i++ {
		if !math.IsNaN(got[i]) {
			t.Errorf("RSI[%d] = %.4f, want undefined", i, got[i])
		}
	}
	if math.IsNaN(got[13]) {
		t.Error("RSI[13] should be defined")
	}
}

func TestRSI_AllUp_Is100(t *testing.T) {
	got := RSI(closes(100, 101, 102, 103, 104, 105), 5)
	assertClose(t, "RSI all up", got[5], 100, 0.0001)
}

func TestRSI_AllDown_Is0(t *testing.T) {
	got := RSI(closes(105, 104, 103, 102, 101, 100), 5)
	assertClose(t, "RSI all down", got[5], 0, 0.0001)
}

func TestRSI_Flat_Is50(t *testing.T) {
	prices := make([]float64, 15)
	for i := range prices {
		prices[i] = 100
	}
	got := RSI(closes(prices...), 14)
	assertClose(t, "RSI flat", got[14], 50, 0)
}

func TestRSI_FlatAfterMove_IsExactly50(t *testing.T) {
	// The running sums carry rounding from 0.1/0.2 steps; once those leave
	// the window the result must still be exactly 50.
	got := RSI(closes(1, 1.1, 1.3, 1.3, 1.3, 1.3), 3)
	if got[5] != 50 {
		t.Errorf("RSI after flat window: got %.17f, want exactly 50", got[5])
	}
}

func TestRSI_Bounded(t *testing.T) {
	prices := []float64{44, 44.3, 44.1, 43.6, 44.3, 44.8, 45.1, 45.4, 45.8, 46.1, 45.9, 46.2, 45.6, 46.3, 46.3, 46.0, 46.4, 46.2}
	for i, v := range RSI(closes(prices...), 5) {
		if math.IsNaN(v) {
			continue
		}
		if v < 0 || v > 100 {
			t.Errorf("RSI[%d] = %.4f out of [0,100]", i, v)
		}
	}
}

// ────────────────────────────────────────────────────────────
// Manipulation
// ────────────────────────────────────────────────────────────

func TestManipulation_StrictThreshold(t *testing.T) {
	tests := []struct {
		name string
		bar  model.Bar
		want int
	}{
		{"exactly 2% is not flagged", model.Bar{High: 101, Low: 99, Close: 100}, 0},
		{"above 2% is flagged", model.Bar{High: 101, Low: 98.9, Close: 100}, 1},
		{"below 2%", model.Bar{High: 100.5, Low: 99.5, Close: 100}, 0},
		{"zero range", model.Bar{High: 100, Low: 100, Close: 100}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Manipulation([]model.Bar{tt.bar}, 0.02)
			if got[0] != tt.want {
				t.Errorf("got %d, want %d", got[0], tt.want)
			}
		})
	}
}

// ────────────────────────────────────────────────────────────
// Window
// ────────────────────────────────────────────────────────────

func TestWindow_EvictsOldest(t *testing.T) {
	w := newWindow(3)
	for _, v := range []float64{4, 1, 7} {
		w.push(v)
	}
	assertClose(t, "min", w.min(), 1, 0)
	assertClose(t, "max", w.max(), 7, 0)
	assertClose(t, "mean", w.mean(), 4, 0.0001)

	w.push(2) // evicts 4
	assertClose(t, "min", w.min(), 1, 0)
	w.push(3) // evicts 1
	assertClose(t, "min after evict", w.min(), 2, 0)
	assertClose(t, "mean after evict", w.mean(), 4, 0.0001)
}

func TestNonPositivePeriod_AllUndefined(t *testing.T) {
	bars := closes(1, 2, 3)
	for name, s := range map[string][]float64{
		"support":    Support(bars, 0),
		"resistance": Resistance(bars, -1),
		"rsi":        RSI(bars, 0),
		"ma":         MovingAverage(bars, 0),
	} {
		for i, v := range s {
			if !math.IsNaN(v) {
				t.Errorf("%s[%d] = %v, want undefined", name, i, v)
			}
		}
	}
}
