package oms

import (
	"context"
	"time"

	"github.com/ericlagergren/decimal"
	"github.com/rs/zerolog/log"
	"gitlab.com/paramountdax-exchange/papertrade_ledger/model"
	"gitlab.com/paramountdax-exchange/papertrade_ledger/queries"
	"gitlab.com/paramountdax-exchange/papertrade_ledger/service/fees"
)

const MaxPageLimit = 100

// FillRequest describes a market order that executed completely
type FillRequest struct {
	UserID     string
	Side       model.MarketSide
	BaseAsset  string
	QuoteAsset string
	Size       *decimal.Big
	Price      *decimal.Big
	Fee        *decimal.Big
}

// OMS records the immutable order and trade rows of executed orders
type OMS struct {
	store    queries.Reader
	fees     *fees.Engine
	orderSeq IDGenerator
	tradeSeq IDGenerator
	now      func() time.Time
}

func Init(store queries.Reader, feeEngine *fees.Engine) *OMS {
	return &OMS{
		store:    store,
		fees:     feeEngine,
		orderSeq: UUIDSeq(),
		tradeSeq: UUIDSeq(),
		now:      time.Now,
	}
}

// WithSequences replaces the id generators
func (o *OMS) WithSequences(orders, trades IDGenerator) *OMS {
	o.orderSeq = orders
	o.tradeSeq = trades
	return o
}

// RecordFill writes the filled order and its trade inside the caller's unit of work
func (o *OMS) RecordFill(uow queries.UnitOfWork, fill FillRequest) (*model.Order, *model.Trade, error) {
	logger := log.With().Str("section", "OMS").Str("method", "RecordFill").Str("user_id", fill.UserID).Logger()

	if err := o.fees.ValidateFee(fill.Price, fill.Size, fill.Fee); err != nil {
		logger.Error().Err(err).Msg("Refusing to record a fill with a fee diverging from policy")
		return nil, nil, err
	}

	orderID, err := o.orderSeq.NextID()
	if err != nil {
		return nil, nil, err
	}
	tradeID, err := o.tradeSeq.NextID()
	if err != nil {
		return nil, nil, err
	}

	order := model.NewFilledOrder(orderID, fill.UserID, fill.Side, fill.BaseAsset, fill.QuoteAsset, fill.Size, fill.Price, fill.Fee, o.now())
	if err := uow.InsertOrder(order); err != nil {
		logger.Error().Err(err).Str("order_id", orderID).Msg("Unable to insert order")
		return nil, nil, err
	}
	trade := model.NewTrade(tradeID, order, fill.Price, fill.Size, fill.Fee)
	if err := uow.InsertTrade(trade); err != nil {
		logger.Error().Err(err).Str("order_id", orderID).Str("trade_id", tradeID).Msg("Unable to insert trade")
		return nil, nil, err
	}
	return order, trade, nil
}

func (o *OMS) GetOrder(ctx context.Context, orderID string) (*model.Order, error) {
	return o.store.GetOrder(ctx, orderID)
}

// ListOrders returns a page of the orders of a user, newest first
func (o *OMS) ListOrders(ctx context.Context, userID string, limit, page int) (*model.OrderList, error) {
	meta := model.PagingMeta{Page: page, Limit: limit}
	meta.Normalize(MaxPageLimit)
	orders, count, err := o.store.ListOrders(ctx, userID, meta.Limit, meta.Offset())
	if err != nil {
		return nil, err
	}
	meta.Count = count
	return &model.OrderList{Orders: orders, Meta: meta}, nil
}

// ListTrades returns the trades of an order; unknown orders are reported as not found
func (o *OMS) ListTrades(ctx context.Context, orderID string) ([]model.Trade, error) {
	if _, err := o.store.GetOrder(ctx, orderID); err != nil {
		return nil, err
	}
	return o.store.ListTrades(ctx, orderID)
}
