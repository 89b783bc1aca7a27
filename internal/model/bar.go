package model

import (
	"encoding/json"
	"math"
)

// Bar is one row of a client-supplied market series.
type Bar struct {
	Open  float64 `json:"open"`
	High  float64 `json:"high"`
	Low   float64 `json:"low"`
	Close float64 `json:"close"`

	// Columns holds the row exactly as received, including columns the
	// indicators ignore. Nil for bars built in code.
	Columns map[string]json.RawMessage `json:"-"`
}

// Range returns the intrabar spread (high - low).
func (b Bar) Range() float64 {
	return b.High - b.Low
}

// Column returns the raw JSON of an input column, or nil when absent.
func (b Bar) Column(name string) json.RawMessage {
	return b.Columns[name]
}

// Snapshot is a bar augmented with the derived indicator columns.
// Indicator fields are nil while their rolling window is not yet full.
type Snapshot struct {
	Bar

	Support       *float64 `json:"support"`
	Resistance    *float64 `json:"resistance"`
	RSI           *float64 `json:"rsi"`
	MovingAverage *float64 `json:"moving_average"`
	Manipulation  int      `json:"manipulation"`
	BuySignal     bool     `json:"buy_signal"`
	SellSignal    bool     `json:"sell_signal"`
}

// MarshalJSON emits every input column of the bar followed by the derived
// columns. A derived column replaces an input column of the same name.
func (s Snapshot) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(s.Columns)+11)
	for k, v := range s.Columns {
		out[k] = v
	}
	out["open"] = s.Open
	out["high"] = s.High
	out["low"] = s.Low
	out["close"] = s.Close
	out["support"] = s.Support
	out["resistance"] = s.Resistance
	out["rsi"] = s.RSI
	out["moving_average"] = s.MovingAverage
	out["manipulation"] = s.Manipulation
	out["buy_signal"] = s.BuySignal
	out["sell_signal"] = s.SellSignal
	return json.Marshal(out)
}

// Defined converts an internal NaN-means-undefined value to its JSON form.
func Defined(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}
