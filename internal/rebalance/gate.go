package rebalance

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

type Context struct {
	Now            time.Time
	OpenOrderCount int
	LastTradeTime  time.Time
	Cooldown       time.Duration
	MinDrift       decimal.Decimal
	MaxNotional    decimal.Decimal
	KillSwitch     bool
}

type Approved struct {
	Intent Intent
	Reason string
}

type Gate struct {
	log zerolog.Logger
}

func NewGate(log zerolog.Logger) Gate {
	return Gate{log: log.With().Str("component", "rebalance_gate").Logger()}
}

func (g Gate) Evaluate(intent Intent, ctx Context) (Approved, error) {
	if intent.Side == Hold {
		return Approved{Intent: intent, Reason: "hold"}, nil
	}

	g.log.Info().
		Str("side", string(intent.Side)).
		Str("symbol", intent.Symbol).
		Str("notional", intent.Notional.String()).
		Str("target", intent.Target.String()).
		Str("market_value", intent.MarketValue.String()).
		Msg("rebalance evaluation")

	if ctx.KillSwitch {
		g.reject("kill_switch_enabled").Msg("rebalance rejected")
		return Approved{}, fmt.Errorf("kill_switch_enabled")
	}
	if ctx.OpenOrderCount > 0 {
		g.reject("open_order_exists").Int("count", ctx.OpenOrderCount).Msg("rebalance rejected")
		return Approved{}, fmt.Errorf("open_order_exists")
	}
	if ctx.Now.Sub(ctx.LastTradeTime) < ctx.Cooldown {
		remaining := ctx.Cooldown - ctx.Now.Sub(ctx.LastTradeTime)
		g.reject("cooldown_active").Dur("remaining", remaining).Msg("rebalance rejected")
		return Approved{}, fmt.Errorf("cooldown_active")
	}
	if !intent.Equity.IsPositive() {
		g.reject("no_equity").Msg("rebalance rejected")
		return Approved{}, fmt.Errorf("no_equity")
	}
	if intent.Drift().LessThan(ctx.MinDrift) {
		g.reject("drift_below_threshold").Str("drift", intent.Drift().String()).Str("min", ctx.MinDrift.String()).Msg("rebalance rejected")
		return Approved{}, fmt.Errorf("drift_below_threshold")
	}
	if ctx.MaxNotional.IsPositive() && intent.Notional.GreaterThan(ctx.MaxNotional) {
		g.reject("max_notional_exceeded").Str("notional", intent.Notional.String()).Str("max", ctx.MaxNotional.String()).Msg("rebalance rejected")
		return Approved{}, fmt.Errorf("max_notional_exceeded")
	}
	if intent.Side == Sell && intent.Notional.GreaterThan(intent.MarketValue) {
		g.reject("sell_exceeds_position").Msg("rebalance rejected")
		return Approved{}, fmt.Errorf("sell_exceeds_position")
	}

	g.log.Info().Str("side", string(intent.Side)).Str("symbol", intent.Symbol).Str("notional", intent.Notional.String()).Msg("rebalance approved")
	return Approved{Intent: intent, Reason: "approved"}, nil
}

func (g Gate) reject(reason string) *zerolog.Event {
	return g.log.Info().Str("reason", reason)
}
