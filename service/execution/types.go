package execution

import (
	"github.com/ericlagergren/decimal"
	jsoniter "github.com/json-iterator/go"
	"gitlab.com/paramountdax-exchange/papertrade_ledger/conv"
	"gitlab.com/paramountdax-exchange/papertrade_ledger/model"
)

// PlaceRequest is a market order at a price supplied by the price oracle
type PlaceRequest struct {
	UserID     string
	Side       model.MarketSide
	BaseAsset  string
	QuoteAsset string
	Size       *decimal.Big
	Price      *decimal.Big
}

// Result reflects the committed state of a placed order
type Result struct {
	OrderID       string
	TradeID       string
	ExecutedSize  *decimal.Big
	ExecutedPrice *decimal.Big
	FeesApplied   *decimal.Big
	Status        model.OrderStatus
}

func (r Result) MarshalJSON() ([]byte, error) {
	return jsoniter.Marshal(map[string]interface{}{
		"order_id":       r.OrderID,
		"trade_id":       r.TradeID,
		"executed_size":  conv.Fmt(r.ExecutedSize),
		"executed_price": conv.Fmt(r.ExecutedPrice),
		"fees_applied":   conv.Fmt(r.FeesApplied),
		"status":         r.Status,
	})
}

// fill is what a unit of work produced, kept for the post commit notifications
type fill struct {
	order       *model.Order
	trade       *model.Trade
	realizedPnL *decimal.Big
}
