package strategy

import "macroalloc/internal/series"

// Allocation maps an instrument to the fraction of capital it should hold.
type Allocation map[string]float64

func (a Allocation) Fraction(instrument string) (float64, bool) {
	v, ok := a[instrument]
	return v, ok
}

func (a Allocation) Clone() Allocation {
	out := make(Allocation, len(a))
	for k, v := range a {
		out[k] = v
	}
	return out
}

type Reason string

const (
	ReasonBullTrend           Reason = "bull_trend"
	ReasonWeakProfit          Reason = "weak_profit"
	ReasonNeutral             Reason = "neutral"
	ReasonMissingData         Reason = "missing_data"
	ReasonInsufficientHistory Reason = "insufficient_history"
	ReasonMalformedData       Reason = "malformed_data"
)

// Fallback reports whether the reason means the trend table was skipped.
func (r Reason) Fallback() bool {
	switch r {
	case ReasonMissingData, ReasonInsufficientHistory, ReasonMalformedData:
		return true
	}
	return false
}

// Evaluation is the allocation together with what produced it.
type Evaluation struct {
	Allocation      Allocation
	Reason          Reason
	MissingKey      string
	PrimeRateRising bool
	ProfitRising    bool
}

// Strategy is what the scheduler and data layer need to know to drive a
// decision rule: which instruments it trades, how often to run it and which
// series to supply.
type Strategy interface {
	Assets() []string
	Interval() string
	DataKeys() []string
	Run(data series.Data) Allocation
	Evaluate(data series.Data) Evaluation
}
