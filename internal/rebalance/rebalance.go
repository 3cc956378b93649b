// Package rebalance turns a target allocation into a single notional order
// and decides whether that order should be sent.
package rebalance

import (
	"github.com/shopspring/decimal"
)

type Side string

const (
	Hold Side = "HOLD"
	Buy  Side = "BUY"
	Sell Side = "SELL"
)

type Intent struct {
	Symbol      string
	Side        Side
	Notional    decimal.Decimal
	Target      decimal.Decimal
	MarketValue decimal.Decimal
	Equity      decimal.Decimal
	Fraction    float64
}

// Drift is the size of the trade as a fraction of equity.
func (i Intent) Drift() decimal.Decimal {
	if !i.Equity.IsPositive() {
		return decimal.Zero
	}
	return i.Notional.Div(i.Equity)
}

// Plan sizes the order that moves the position in symbol from marketValue to
// fraction of equity.
func Plan(symbol string, fraction float64, equity, marketValue decimal.Decimal) Intent {
	target := equity.Mul(decimal.NewFromFloat(fraction)).Round(2)
	delta := target.Sub(marketValue).Round(2)

	intent := Intent{
		Symbol:      symbol,
		Side:        Hold,
		Notional:    delta.Abs(),
		Target:      target,
		MarketValue: marketValue,
		Equity:      equity,
		Fraction:    fraction,
	}
	switch delta.Sign() {
	case 1:
		intent.Side = Buy
	case -1:
		intent.Side = Sell
	}
	return intent
}
