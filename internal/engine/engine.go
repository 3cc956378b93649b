package engine

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/alpacahq/alpaca-trade-api-go/v3/alpaca"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"macroalloc/internal/broker"
	"macroalloc/internal/config"
	"macroalloc/internal/feed"
	"macroalloc/internal/metrics"
	"macroalloc/internal/rebalance"
	"macroalloc/internal/series"
	"macroalloc/internal/state"
	"macroalloc/internal/strategy"
)

const (
	ResultDryRun          = "dry_run"
	ResultSourceError     = "source_error"
	ResultReconcileFailed = "reconcile_failed"
	ResultRejected        = "rejected"
	ResultHold            = "hold"
	ResultOrderFailed     = "order_failed"
	ResultOrderSubmitted  = "order_submitted"
)

type Engine struct {
	cfg         config.Config
	strategy    strategy.Strategy
	source      feed.Source
	gate        rebalance.Gate
	executor    Executor
	state       *state.Store
	decisions   DecisionSink
	metrics     *metrics.Recorder
	log         zerolog.Logger
	runID       string
	cycle       uint64
	orderSeqNum uint64
	now         func() time.Time
}

// New wires an engine. executor may be nil in dry-run mode.
func New(cfg config.Config, strat strategy.Strategy, source feed.Source, gate rebalance.Gate, executor Executor, stateStore *state.Store, decisions DecisionSink, recorder *metrics.Recorder, log zerolog.Logger) *Engine {
	runID := uuid.NewString()
	return &Engine{
		cfg:       cfg,
		strategy:  strat,
		source:    source,
		gate:      gate,
		executor:  executor,
		state:     stateStore,
		decisions: decisions,
		metrics:   recorder,
		log:       log.With().Str("component", "engine").Str("run_id", runID).Logger(),
		runID:     runID,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (e *Engine) RunID() string {
	return e.runID
}

// Evaluate runs one evaluation cycle and returns what was recorded for it.
// Missing or malformed series never fail a cycle: the strategy falls back to
// its default allocation.
func (e *Engine) Evaluate(ctx context.Context) Decision {
	started := time.Now()
	defer func() {
		e.metrics.RecordDuration(time.Since(started).Seconds())
	}()

	decision := Decision{
		RunID:     e.runID,
		Cycle:     atomic.AddUint64(&e.cycle, 1),
		Timestamp: e.now(),
	}

	data, err := e.source.Snapshot(ctx, e.strategy.DataKeys())
	if err != nil {
		e.metrics.RecordSourceError()
		e.log.Error().Err(err).Msg("series source failed, evaluating without data")
		decision.SourceError = err.Error()
		data = series.Data{}
	}

	eval := e.strategy.Evaluate(data)
	decision.Allocation = eval.Allocation.Clone()
	decision.Reason = string(eval.Reason)
	decision.MissingKey = eval.MissingKey
	decision.PrimeRateRising = eval.PrimeRateRising
	decision.ProfitRising = eval.ProfitRising

	e.state.RecordEvaluation(state.Evaluation{
		At:         decision.Timestamp,
		Allocation: eval.Allocation,
		Reason:     string(eval.Reason),
		MissingKey: eval.MissingKey,
	})
	e.metrics.RecordEvaluation(string(eval.Reason), eval.Allocation)

	switch {
	case decision.SourceError != "":
		decision.Result = ResultSourceError
	case e.cfg.Mode == config.ModeDryRun || e.executor == nil:
		decision.Result = ResultDryRun
	default:
		e.execute(ctx, eval, &decision)
		e.metrics.RecordOrder(decision.Result)
	}

	e.decisions.Append(decision)
	e.log.Info().
		Uint64("cycle", decision.Cycle).
		Interface("allocation", decision.Allocation).
		Str("reason", decision.Reason).
		Str("result", decision.Result).
		Msg("evaluation complete")
	return decision
}

func (e *Engine) execute(ctx context.Context, eval strategy.Evaluation, decision *Decision) {
	symbol := e.strategy.Assets()[0]
	fraction, _ := eval.Allocation.Fraction(symbol)

	if err := e.reconcile(ctx, symbol); err != nil {
		decision.Result = ResultReconcileFailed
		decision.RejectReason = err.Error()
		e.log.Error().Err(err).Msg("reconcile failed")
		return
	}

	snapshot := e.state.Snapshot()
	intent := rebalance.Plan(symbol, fraction, snapshot.Account.Equity, snapshot.Position.MarketValue)
	decision.Side = string(intent.Side)
	decision.Notional = intent.Notional.String()

	approved, err := e.gate.Evaluate(intent, rebalance.Context{
		Now:            e.now(),
		OpenOrderCount: len(snapshot.OpenOrders),
		LastTradeTime:  snapshot.LastTradeTime,
		Cooldown:       e.cfg.Cooldown,
		MinDrift:       decimal.NewFromFloat(e.cfg.MinDrift),
		MaxNotional:    decimal.NewFromFloat(e.cfg.MaxNotional),
		KillSwitch:     e.cfg.KillSwitch,
	})
	if err != nil {
		decision.Result = ResultRejected
		decision.RejectReason = err.Error()
		return
	}
	decision.ApprovalReason = approved.Reason
	if intent.Side == rebalance.Hold {
		decision.Result = ResultHold
		return
	}

	side := alpaca.Buy
	if intent.Side == rebalance.Sell {
		side = alpaca.Sell
	}
	orderRef, err := e.executor.PlaceNotionalOrder(ctx, broker.OrderRequest{
		Symbol:        symbol,
		Side:          side,
		Notional:      approved.Intent.Notional,
		ClientOrderID: e.nextClientOrderID(),
	})
	if err != nil {
		decision.Result = ResultOrderFailed
		decision.RejectReason = err.Error()
		e.log.Error().Err(err).Str("symbol", symbol).Msg("order failed")
		return
	}

	decision.Result = ResultOrderSubmitted
	decision.OrderID = orderRef.ID
	decision.ClientOrderID = orderRef.ClientOrderID
	e.state.SetLastTradeTime(e.now())
	e.state.AddOpenOrder(state.OpenOrder{
		ClientOrderID: orderRef.ClientOrderID,
		OrderID:       orderRef.ID,
		Status:        orderRef.Status,
	})
}

func (e *Engine) nextClientOrderID() string {
	seq := atomic.AddUint64(&e.orderSeqNum, 1)
	return fmt.Sprintf("%s-%d", e.runID, seq)
}
