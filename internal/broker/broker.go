package broker

import (
	"context"
	"errors"
	"net/http"

	"github.com/alpacahq/alpaca-trade-api-go/v3/alpaca"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

type OrderRequest struct {
	Symbol        string
	Side          alpaca.Side
	Notional      decimal.Decimal
	ClientOrderID string
}

type OrderRef struct {
	ID            string
	ClientOrderID string
	Status        string
}

type Position struct {
	Symbol      string
	Qty         decimal.Decimal
	AvgEntry    decimal.Decimal
	MarketValue decimal.Decimal
}

type Account struct {
	Equity      decimal.Decimal
	BuyingPower decimal.Decimal
}

type Client struct {
	client *alpaca.Client
	log    zerolog.Logger
}

func New(apiKey, apiSecret, baseURL string, log zerolog.Logger) *Client {
	opts := alpaca.ClientOpts{
		APIKey:    apiKey,
		APISecret: apiSecret,
		BaseURL:   baseURL,
	}
	return &Client{
		client: alpaca.NewClient(opts),
		log:    log.With().Str("component", "broker").Logger(),
	}
}

// PlaceNotionalOrder sends a fractional market order for a dollar amount.
func (c *Client) PlaceNotionalOrder(ctx context.Context, req OrderRequest) (OrderRef, error) {
	if err := ctx.Err(); err != nil {
		return OrderRef{}, err
	}
	notional := req.Notional
	orderReq := alpaca.PlaceOrderRequest{
		Symbol:        req.Symbol,
		Notional:      &notional,
		Side:          req.Side,
		Type:          alpaca.Market,
		TimeInForce:   alpaca.Day,
		ClientOrderID: req.ClientOrderID,
	}

	order, err := c.client.PlaceOrder(orderReq)
	if err != nil {
		c.log.Error().Err(err).Str("side", string(req.Side)).Str("symbol", req.Symbol).Str("notional", notional.String()).Msg("place order failed")
		return OrderRef{}, err
	}

	c.log.Info().
		Str("order_id", order.ID).
		Str("side", string(req.Side)).
		Str("symbol", req.Symbol).
		Str("notional", notional.String()).
		Str("status", string(order.Status)).
		Msg("place order success")
	return OrderRef{
		ID:            order.ID,
		ClientOrderID: order.ClientOrderID,
		Status:        string(order.Status),
	}, nil
}

func (c *Client) OpenOrders(ctx context.Context, symbol string) ([]OrderRef, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	req := alpaca.GetOrdersRequest{
		Status:  "open",
		Symbols: []string{symbol},
	}
	orders, err := c.client.GetOrders(req)
	if err != nil {
		c.log.Error().Err(err).Msg("fetch open orders failed")
		return nil, err
	}
	c.log.Debug().Int("count", len(orders)).Msg("open orders fetched")
	refs := make([]OrderRef, 0, len(orders))
	for _, order := range orders {
		refs = append(refs, OrderRef{
			ID:            order.ID,
			ClientOrderID: order.ClientOrderID,
			Status:        string(order.Status),
		})
	}
	return refs, nil
}

// Position returns a flat position when the account holds none of symbol.
func (c *Client) Position(ctx context.Context, symbol string) (Position, error) {
	if err := ctx.Err(); err != nil {
		return Position{}, err
	}
	pos, err := c.client.GetPosition(symbol)
	if err != nil {
		var apiErr *alpaca.APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
			return Position{Symbol: symbol}, nil
		}
		c.log.Error().Err(err).Str("symbol", symbol).Msg("fetch position failed")
		return Position{}, err
	}

	position := Position{
		Symbol:   pos.Symbol,
		Qty:      pos.Qty,
		AvgEntry: pos.AvgEntryPrice,
	}
	if pos.MarketValue != nil {
		position.MarketValue = *pos.MarketValue
	}
	c.log.Debug().Str("symbol", symbol).Str("qty", position.Qty.String()).Str("market_value", position.MarketValue.String()).Msg("position fetched")
	return position, nil
}

func (c *Client) Account(ctx context.Context) (Account, error) {
	if err := ctx.Err(); err != nil {
		return Account{}, err
	}
	acct, err := c.client.GetAccount()
	if err != nil {
		c.log.Error().Err(err).Msg("fetch account failed")
		return Account{}, err
	}
	c.log.Debug().Str("equity", acct.Equity.String()).Str("buying_power", acct.BuyingPower.String()).Msg("account fetched")
	return Account{Equity: acct.Equity, BuyingPower: acct.BuyingPower}, nil
}
