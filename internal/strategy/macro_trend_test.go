package strategy

import (
	"bytes"
	"math"
	"strings"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"macroalloc/internal/series"
)

func values(vs ...float64) series.Snapshot {
	out := make(series.Snapshot, 0, len(vs))
	for _, v := range vs {
		out = append(out, series.Point{Value: v})
	}
	return out
}

func newTestStrategy(t *testing.T) (*MacroTrend, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	return NewMacroTrend(DefaultConfig(), zerolog.New(&buf)), &buf
}

func TestMacroTrendDeclaredProperties(t *testing.T) {
	strat, _ := newTestStrategy(t)

	assert.Equal(t, []string{"SPY"}, strat.Assets())
	assert.Equal(t, "1day", strat.Interval())
	assert.Equal(t, []string{"bank_prime_loan_rate", "corporate_profit_after_tax"}, strat.DataKeys())
}

func TestMacroTrendDecisionTable(t *testing.T) {
	tests := []struct {
		name       string
		primeRate  series.Snapshot
		profit     series.Snapshot
		allocation float64
		reason     Reason
	}{
		{"bull case", values(3.0, 3.25), values(100, 110), 0.8, ReasonBullTrend},
		{"weak profit with falling rate", values(3.25, 3.0), values(110, 105), 0.3, ReasonWeakProfit},
		{"weak profit with rising rate", values(3.0, 3.25), values(110, 105), 0.3, ReasonWeakProfit},
		{"flat profit counts as weak", values(3.0, 3.25), values(110, 110), 0.3, ReasonWeakProfit},
		{"neutral case", values(3.25, 3.0), values(100, 110), 0.5, ReasonNeutral},
		{"flat rate with rising profit", values(3.0, 3.0), values(100, 110), 0.5, ReasonNeutral},
		{"only last two points matter", values(9, 1, 3.0, 3.25), values(500, 1, 100, 110), 0.8, ReasonBullTrend},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			strat, buf := newTestStrategy(t)
			data := series.Data{
				PrimeRateSeries: tc.primeRate,
				ProfitSeries:    tc.profit,
			}

			eval := strat.Evaluate(data)
			assert.Equal(t, Allocation{"SPY": tc.allocation}, eval.Allocation)
			assert.Equal(t, tc.reason, eval.Reason)
			assert.Empty(t, eval.MissingKey)
			assert.Equal(t, eval.Allocation, strat.Run(data))
			assert.Contains(t, buf.String(), "Allocation set to")
		})
	}
}

func TestMacroTrendFallsBackOnMissingSeries(t *testing.T) {
	tests := []struct {
		name    string
		data    series.Data
		missing string
	}{
		{"nil input", nil, PrimeRateSeries},
		{"both absent", series.Data{}, PrimeRateSeries},
		{"profit absent", series.Data{PrimeRateSeries: values(3.0, 3.25)}, ProfitSeries},
		{"prime rate absent", series.Data{ProfitSeries: values(100, 110)}, PrimeRateSeries},
		{"absent wins over short history", series.Data{PrimeRateSeries: values(3.0)}, ProfitSeries},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			strat, buf := newTestStrategy(t)

			eval := strat.Evaluate(tc.data)
			assert.Equal(t, Allocation{"SPY": 0.5}, eval.Allocation)
			assert.Equal(t, ReasonMissingData, eval.Reason)
			assert.Equal(t, tc.missing, eval.MissingKey)

			logged := buf.String()
			assert.Contains(t, logged, "Data missing for the key: "+tc.missing)
			assert.NotContains(t, logged, "Allocation set to")
		})
	}
}

func TestMacroTrendFallsBackOnShortHistory(t *testing.T) {
	strat, _ := newTestStrategy(t)

	cases := []series.Data{
		{PrimeRateSeries: values(3.0), ProfitSeries: values(100)},
		{PrimeRateSeries: values(), ProfitSeries: values()},
		{PrimeRateSeries: values(3.0, 3.25), ProfitSeries: values(100)},
	}
	for _, data := range cases {
		eval := strat.Evaluate(data)
		assert.Equal(t, Allocation{"SPY": 0.5}, eval.Allocation)
		assert.Equal(t, ReasonInsufficientHistory, eval.Reason)
		assert.True(t, eval.Reason.Fallback())
	}
}

func TestMacroTrendTreatsNonFiniteValuesAsMissing(t *testing.T) {
	strat, buf := newTestStrategy(t)

	eval := strat.Evaluate(series.Data{
		PrimeRateSeries: values(3.0, 3.25),
		ProfitSeries:    values(100, math.NaN()),
	})
	assert.Equal(t, Allocation{"SPY": 0.5}, eval.Allocation)
	assert.Equal(t, ReasonMalformedData, eval.Reason)
	assert.Equal(t, ProfitSeries, eval.MissingKey)
	assert.Contains(t, buf.String(), ProfitSeries)

	eval = strat.Evaluate(series.Data{
		PrimeRateSeries: values(math.Inf(1), 3.25),
		ProfitSeries:    values(100, 110),
	})
	assert.Equal(t, ReasonMalformedData, eval.Reason)
	assert.Equal(t, PrimeRateSeries, eval.MissingKey)
}

func TestMacroTrendIsDeterministicAndDoesNotMutateInput(t *testing.T) {
	strat, _ := newTestStrategy(t)
	data := series.Data{
		PrimeRateSeries: values(3.0, 3.25),
		ProfitSeries:    values(100, 110),
	}

	first := strat.Run(data)
	first["SPY"] = 0
	for i := 0; i < 10; i++ {
		assert.Equal(t, Allocation{"SPY": 0.8}, strat.Run(data))
	}
	assert.Equal(t, values(3.0, 3.25), data[PrimeRateSeries])
	assert.Equal(t, values(100, 110), data[ProfitSeries])

	// A fallback in between must not leak into later calls.
	assert.Equal(t, Allocation{"SPY": 0.5}, strat.Run(series.Data{}))
	assert.Equal(t, Allocation{"SPY": 0.8}, strat.Run(data))
}

func TestMacroTrendConcurrentRuns(t *testing.T) {
	strat := NewMacroTrend(DefaultConfig(), zerolog.Nop())
	bull := series.Data{PrimeRateSeries: values(3.0, 3.25), ProfitSeries: values(100, 110)}
	weak := series.Data{PrimeRateSeries: values(3.25, 3.0), ProfitSeries: values(110, 105)}

	var wg sync.WaitGroup
	errs := make(chan string, 100)
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			if got := strat.Run(bull)["SPY"]; got != 0.8 {
				errs <- "bull"
			}
		}()
		go func() {
			defer wg.Done()
			if got := strat.Run(weak)["SPY"]; got != 0.3 {
				errs <- "weak"
			}
		}()
	}
	wg.Wait()
	close(errs)
	var failures []string
	for e := range errs {
		failures = append(failures, e)
	}
	assert.Empty(t, failures, strings.Join(failures, ","))
}

func TestMacroTrendHonoursConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Instrument = "VOO"
	cfg.BullAllocation = 1
	require.NoError(t, cfg.Validate())

	strat := NewMacroTrend(cfg, zerolog.Nop())
	got := strat.Run(series.Data{PrimeRateSeries: values(1, 2), ProfitSeries: values(1, 2)})
	assert.Equal(t, Allocation{"VOO": 1}, got)
}
