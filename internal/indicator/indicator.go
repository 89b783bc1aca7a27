// Package indicator computes the rolling-window market indicators served by
// the analysis endpoint.
//
// Every function takes the full bar sequence and returns one value per bar.
// A value is NaN while its trailing window is not yet full; callers convert
// NaN to JSON null with model.Defined. Nothing here holds state between
// calls, so a Pipeline is safe for concurrent use.
package indicator

import (
	"errors"
	"fmt"
	"math"
)

// ErrNoBars is returned when an analysis is requested over an empty series.
var ErrNoBars = errors.New("indicator: no bars supplied")

// Params configures the window sizes and signal thresholds of the pipeline.
type Params struct {
	SRWindow        int     // support/resistance trailing window
	RSIPeriod       int     // RSI averaging window
	MAPeriod        int     // moving average window
	ManipulationPct float64 // intrabar range threshold as a fraction of close
	BuyRSI          float64 // buy when RSI is below this
	SellRSI         float64 // sell when RSI is above this
}

// DefaultParams returns the production settings.
func DefaultParams() Params {
	return Params{
		SRWindow:        10,
		RSIPeriod:       14,
		MAPeriod:        10,
		ManipulationPct: 0.02,
		BuyRSI:          35,
		SellRSI:         65,
	}
}

// Validate reports the first invalid field.
func (p Params) Validate() error {
	switch {
	case p.SRWindow <= 0:
		return fmt.Errorf("indicator: support/resistance window must be positive, got %d", p.SRWindow)
	case p.RSIPeriod <= 0:
		return fmt.Errorf("indicator: RSI period must be positive, got %d", p.RSIPeriod)
	case p.MAPeriod <= 0:
		return fmt.Errorf("indicator: moving average period must be positive, got %d", p.MAPeriod)
	case p.ManipulationPct < 0:
		return fmt.Errorf("indicator: manipulation threshold must not be negative, got %g", p.ManipulationPct)
	}
	return nil
}

func nanSeries(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}
