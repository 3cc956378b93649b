package engine

import (
	"context"
	"fmt"

	"macroalloc/internal/broker"
	"macroalloc/internal/state"
)

// Executor is the execution venue the engine hands approved rebalances to.
type Executor interface {
	Account(ctx context.Context) (broker.Account, error)
	Position(ctx context.Context, symbol string) (broker.Position, error)
	OpenOrders(ctx context.Context, symbol string) ([]broker.OrderRef, error)
	PlaceNotionalOrder(ctx context.Context, req broker.OrderRequest) (broker.OrderRef, error)
}

// reconcile refreshes the account view in store from the executor. Sizing
// needs equity and position, so those failures are returned; open orders are
// best effort.
func (e *Engine) reconcile(ctx context.Context, symbol string) error {
	orders, err := e.executor.OpenOrders(ctx, symbol)
	if err != nil {
		e.log.Warn().Err(err).Msg("reconcile open orders failed")
	} else {
		openOrders := make(map[string]state.OpenOrder, len(orders))
		for _, order := range orders {
			openOrders[order.ClientOrderID] = state.OpenOrder{
				ClientOrderID: order.ClientOrderID,
				OrderID:       order.ID,
				Status:        order.Status,
			}
		}
		e.state.SetOpenOrders(openOrders)
	}

	position, err := e.executor.Position(ctx, symbol)
	if err != nil {
		return fmt.Errorf("reconcile position: %w", err)
	}
	e.state.UpdatePosition(state.Position{Qty: position.Qty, MarketValue: position.MarketValue})

	account, err := e.executor.Account(ctx)
	if err != nil {
		return fmt.Errorf("reconcile account: %w", err)
	}
	e.state.UpdateAccount(state.Account{Equity: account.Equity, BuyingPower: account.BuyingPower})
	e.log.Info().
		Str("equity", account.Equity.String()).
		Str("buying_power", account.BuyingPower.String()).
		Str("position_value", position.MarketValue.String()).
		Msg("account reconciled")
	return nil
}
