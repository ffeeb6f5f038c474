package model

import (
	"time"

	"github.com/ericlagergren/decimal"
	"github.com/ericlagergren/decimal/sql/postgres"
	jsoniter "github.com/json-iterator/go"
	"gitlab.com/paramountdax-exchange/papertrade_ledger/conv"
)

// Trade holds information about a completed fill of an order
// A market order produces exactly one trade.
type Trade struct {
	ID            string            `gorm:"primaryKey;column:id" json:"id"`
	OrderID       string            `gorm:"column:order_id;not null;index" json:"order_id"`
	UserID        string            `gorm:"column:user_id;not null;index" json:"user_id"`
	Side          MarketSide        `gorm:"column:side;not null" json:"side"`
	ExecutedPrice *postgres.Decimal `gorm:"column:executed_price;type:decimal(36,18);not null" json:"executed_price"`
	ExecutedSize  *postgres.Decimal `gorm:"column:executed_size;type:decimal(36,18);not null" json:"executed_size"`
	Fee           *postgres.Decimal `gorm:"column:fee;type:decimal(36,18);not null" json:"fee"`
	CreatedAt     time.Time         `gorm:"column:created_at" json:"created_at"`
}

func (Trade) TableName() string {
	return "trades"
}

// NewTrade creates a new trade to save in the database
func NewTrade(id string, order *Order, price, size, fee *decimal.Big) *Trade {
	return &Trade{
		ID:            id,
		OrderID:       order.ID,
		UserID:        order.UserID,
		Side:          order.Side,
		ExecutedPrice: &postgres.Decimal{V: conv.CloneToPrecision(price)},
		ExecutedSize:  &postgres.Decimal{V: conv.CloneToPrecision(size)},
		Fee:           &postgres.Decimal{V: conv.CloneToPrecision(fee)},
		CreatedAt:     order.CreatedAt,
	}
}

func (t *Trade) Clone() *Trade {
	trade := *t
	trade.ExecutedPrice = cloneDecimal(t.ExecutedPrice)
	trade.ExecutedSize = cloneDecimal(t.ExecutedSize)
	trade.Fee = cloneDecimal(t.Fee)
	return &trade
}

func (t Trade) MarshalJSON() ([]byte, error) {
	return jsoniter.Marshal(map[string]interface{}{
		"id":             t.ID,
		"order_id":       t.OrderID,
		"user_id":        t.UserID,
		"side":           t.Side,
		"executed_price": fmtDecimal(t.ExecutedPrice),
		"executed_size":  fmtDecimal(t.ExecutedSize),
		"fee":            fmtDecimal(t.Fee),
		"created_at":     t.CreatedAt.Unix(),
	})
}
