package indicator

import (
	"errors"
	"testing"

	"quotexbot/internal/model"
)

// risingBars builds n bars with close = start+i, open = close-1,
// high = close+1, low = close-2.
func risingBars(start float64, n int) []model.Bar {
	bars := make([]model.Bar, n)
	for i := range bars {
		c := start + float64(i)
		bars[i] = model.Bar{Open: c - 1, High: c + 1, Low: c - 2, Close: c}
	}
	return bars
}

func mustPipeline(t *testing.T) *Pipeline {
	t.Helper()
	p, err := NewPipeline(DefaultParams())
	if err != nil {
		t.Fatalf("NewPipeline: %v", err)
	}
	return p
}

func deref(t *testing.T, label string, v *float64) float64 {
	t.Helper()
	if v == nil {
		t.Fatalf("%s: expected a value, got undefined", label)
	}
	return *v
}

func TestPipeline_Latest_RisingSeries(t *testing.T) {
	// closes 100..114
	snap, err := mustPipeline(t).Latest(risingBars(100, 15))
	if err != nil {
		t.Fatalf("Latest: %v", err)
	}

	assertClose(t, "close", snap.Close, 114, 0)
	assertClose(t, "support", deref(t, "support", snap.Support), 103, 0)          // min low of closes 105..114
	assertClose(t, "resistance", deref(t, "resistance", snap.Resistance), 115, 0) // 114+1
	assertClose(t, "rsi", deref(t, "rsi", snap.RSI), 100, 0)
	assertClose(t, "ma", deref(t, "ma", snap.MovingAverage), 109.5, 0.0001)

	if snap.Manipulation != 1 { // range 3 > 2.28
		t.Errorf("manipulation: got %d, want 1", snap.Manipulation)
	}
	if snap.BuySignal {
		t.Error("buy signal should be false with RSI=100")
	}
	if !snap.SellSignal {
		t.Error("sell signal should be true: RSI>65 and close<resistance")
	}
}

func TestPipeline_Latest_FallingSeriesBuys(t *testing.T) {
	bars := make([]model.Bar, 15)
	for i := range bars {
		c := 120 - float64(i)
		bars[i] = model.Bar{Open: c + 1, High: c + 1, Low: c - 2, Close: c}
	}
	snap, err := mustPipeline(t).Latest(bars)
	if err != nil {
		t.Fatalf("Latest: %v", err)
	}

	assertClose(t, "rsi", deref(t, "rsi", snap.RSI), 0, 0)
	assertClose(t, "support", deref(t, "support", snap.Support), 104, 0)
	if !snap.BuySignal {
		t.Error("buy signal should be true: RSI<35 and close>support")
	}
	if snap.SellSignal {
		t.Error("sell signal should be false")
	}
}

func TestPipeline_ShortSeriesLeavesIndicatorsUndefined(t *testing.T) {
	snap, err := mustPipeline(t).Latest(risingBars(100, 5))
	if err != nil {
		t.Fatalf("Latest: %v", err)
	}
	if snap.Support != nil || snap.Resistance != nil || snap.RSI != nil || snap.MovingAverage != nil {
		t.Errorf("expected undefined indicators, got %+v", snap)
	}
	if snap.BuySignal || snap.SellSignal {
		t.Error("undefined indicators must not produce signals")
	}
	// manipulation is per-bar and always defined
	if snap.Manipulation != 1 {
		t.Errorf("manipulation: got %d, want 1", snap.Manipulation)
	}
}

func TestPipeline_AnalyzeKeepsEveryBar(t *testing.T) {
	bars := risingBars(100, 12)
	all := mustPipeline(t).Analyze(bars)
	if len(all) != len(bars) {
		t.Fatalf("got %d rows, want %d", len(all), len(bars))
	}
	for i := range bars {
		got, want := all[i].Bar, bars[i]
		if got.Open != want.Open || got.High != want.High || got.Low != want.Low || got.Close != want.Close {
			t.Errorf("row %d: input bar not preserved", i)
		}
	}
	if all[8].Support != nil || all[9].Support == nil {
		t.Error("support should become defined at the 10th bar")
	}
}

func TestPipeline_Latest_Empty(t *testing.T) {
	_, err := mustPipeline(t).Latest(nil)
	if !errors.Is(err, ErrNoBars) {
		t.Errorf("expected ErrNoBars, got %v", err)
	}
}

func TestNewPipeline_RejectsInvalidParams(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Params)
	}{
		{"zero SR window", func(p *Params) { p.SRWindow = 0 }},
		{"negative RSI period", func(p *Params) { p.RSIPeriod = -1 }},
		{"zero MA period", func(p *Params) { p.MAPeriod = 0 }},
		{"negative manipulation pct", func(p *Params) { p.ManipulationPct = -0.1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := DefaultParams()
			tt.mutate(&p)
			if _, err := NewPipeline(p); err == nil {
				t.Error("expected error")
			}
		})
	}
}
