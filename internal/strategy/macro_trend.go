package strategy

import (
	"math"

	"github.com/rs/zerolog"

	"macroalloc/internal/series"
)

// MacroTrend sizes a single equity position from the direction of the prime
// loan rate and of after-tax corporate profits. It keeps no state between
// calls, so one instance can serve concurrent evaluations.
type MacroTrend struct {
	cfg Config
	log zerolog.Logger
}

func NewMacroTrend(cfg Config, log zerolog.Logger) *MacroTrend {
	return &MacroTrend{
		cfg: cfg,
		log: log.With().Str("component", "strategy").Str("strategy", "macro_trend").Logger(),
	}
}

func (m *MacroTrend) Config() Config {
	return m.cfg
}

func (m *MacroTrend) Assets() []string {
	return []string{m.cfg.Instrument}
}

func (m *MacroTrend) Interval() string {
	return m.cfg.Interval
}

func (m *MacroTrend) DataKeys() []string {
	return []string{m.cfg.PrimeRateKey, m.cfg.ProfitKey}
}

func (m *MacroTrend) Run(data series.Data) Allocation {
	return m.Evaluate(data).Allocation
}

func (m *MacroTrend) Evaluate(data series.Data) Evaluation {
	keys := m.DataKeys()
	snapshots := make([]series.Snapshot, len(keys))
	for i, key := range keys {
		snapshot, ok := data.Lookup(key)
		if !ok {
			return m.fallback(key, ReasonMissingData)
		}
		snapshots[i] = snapshot
	}
	var pairs [2][2]float64
	for i, key := range keys {
		pair, reason, ok := lastTwo(snapshots[i])
		if !ok {
			return m.fallback(key, reason)
		}
		pairs[i] = pair
	}
	prime, profit := pairs[0], pairs[1]

	eval := Evaluation{
		PrimeRateRising: prime[1] > prime[0],
		ProfitRising:    profit[1] > profit[0],
	}
	fraction := m.cfg.DefaultAllocation
	switch {
	case eval.PrimeRateRising && eval.ProfitRising:
		fraction = m.cfg.BullAllocation
		eval.Reason = ReasonBullTrend
	case !eval.ProfitRising:
		fraction = m.cfg.WeakProfitAllocation
		eval.Reason = ReasonWeakProfit
	default:
		eval.Reason = ReasonNeutral
	}
	eval.Allocation = Allocation{m.cfg.Instrument: fraction}

	m.log.Info().
		Str("instrument", m.cfg.Instrument).
		Float64("allocation", fraction).
		Bool("prime_rate_rising", eval.PrimeRateRising).
		Bool("profit_rising", eval.ProfitRising).
		Msgf("Allocation set to %v for %s based on latest data trends", fraction, m.cfg.Instrument)
	return eval
}

// lastTwo returns {previous, latest}.
func lastTwo(snapshot series.Snapshot) ([2]float64, Reason, bool) {
	previous, ok := snapshot.Previous()
	if !ok {
		return [2]float64{}, ReasonInsufficientHistory, false
	}
	latest, _ := snapshot.Latest()
	if !finite(previous.Value) || !finite(latest.Value) {
		return [2]float64{}, ReasonMalformedData, false
	}
	return [2]float64{previous.Value, latest.Value}, "", true
}

func (m *MacroTrend) fallback(key string, reason Reason) Evaluation {
	m.log.Warn().
		Str("series", key).
		Str("reason", string(reason)).
		Float64("allocation", m.cfg.DefaultAllocation).
		Msgf("Data missing for the key: %s, using default allocation", key)
	return Evaluation{
		Allocation: Allocation{m.cfg.Instrument: m.cfg.DefaultAllocation},
		Reason:     reason,
		MissingKey: key,
	}
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
