package indicator

import "quotexbot/internal/model"

// Pipeline appends the derived indicator columns to a bar series.
type Pipeline struct {
	params Params
}

// NewPipeline validates p and returns a pipeline using it.
func NewPipeline(p Params) (*Pipeline, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &Pipeline{params: p}, nil
}

// Analyze returns every bar augmented with support, resistance, RSI, moving
// average, the manipulation flag and the buy/sell signals.
func (p *Pipeline) Analyze(bars []model.Bar) []model.Snapshot {
	support := Support(bars, p.params.SRWindow)
	resistance := Resistance(bars, p.params.SRWindow)
	rsi := RSI(bars, p.params.RSIPeriod)
	ma := MovingAverage(bars, p.params.MAPeriod)
	manip := Manipulation(bars, p.params.ManipulationPct)

	out := make([]model.Snapshot, len(bars))
	for i, b := range bars {
		// NaN operands compare false, so undefined windows never signal.
		out[i] = model.Snapshot{
			Bar:           b,
			Support:       model.Defined(support[i]),
			Resistance:    model.Defined(resistance[i]),
			RSI:           model.Defined(rsi[i]),
			MovingAverage: model.Defined(ma[i]),
			Manipulation:  manip[i],
			BuySignal:     rsi[i] < p.params.BuyRSI && b.Close > support[i],
			SellSignal:    rsi[i] > p.params.SellRSI && b.Close < resistance[i],
		}
	}
	return out
}

// Latest analyzes bars and returns only the most recent row.
func (p *Pipeline) Latest(bars []model.Bar) (model.Snapshot, error) {
	if len(bars) == 0 {
		return model.Snapshot{}, ErrNoBars
	}
	all := p.Analyze(bars)
	return all[len(all)-1], nil
}
