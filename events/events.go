package events

import (
	"context"

	"gitlab.com/paramountdax-exchange/papertrade_ledger/model"
)

// Kind names the stream an event belongs to
type Kind string

const (
	KindTrade     Kind = "trade"
	KindPortfolio Kind = "portfolio"
)

// Event is a notification emitted after a ledger change committed
type Event interface {
	Kind() Kind
	// Key is used to partition the stream, events of the same user share it
	Key() string
}

// Sink receives committed ledger events. Failures never affect the ledger.
type Sink interface {
	Publish(ctx context.Context, event Event) error
}

// TradeEvent describes one filled order
type TradeEvent struct {
	OrderID       string           `json:"order_id"`
	TradeID       string           `json:"trade_id"`
	UserID        string           `json:"user_id"`
	Side          model.MarketSide `json:"side"`
	BaseAsset     string           `json:"base_asset"`
	QuoteAsset    string           `json:"quote_asset"`
	ExecutedPrice string           `json:"executed_price"`
	ExecutedSize  string           `json:"executed_size"`
	Fee           string           `json:"fee"`
	// RealizedPnL is only reported for sells
	RealizedPnL string `json:"realized_pnl,omitempty"`
	CreatedAt   int64  `json:"created_at"`
}

func (TradeEvent) Kind() Kind { return KindTrade }

func (e TradeEvent) Key() string { return e.UserID }

// PortfolioEvent carries the balances and positions of a user right after a change
type PortfolioEvent struct {
	Portfolio *model.Portfolio `json:"portfolio"`
}

func (PortfolioEvent) Kind() Kind { return KindPortfolio }

func (e PortfolioEvent) Key() string {
	if e.Portfolio == nil {
		return ""
	}
	return e.Portfolio.UserID
}

// Nop discards every event
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }
