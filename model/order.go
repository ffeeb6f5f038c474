package model

import (
	"errors"
	"time"

	"github.com/ericlagergren/decimal"
	"github.com/ericlagergren/decimal/sql/postgres"
	jsoniter "github.com/json-iterator/go"
	"gitlab.com/paramountdax-exchange/papertrade_ledger/conv"
)

var ErrOrder_OrderStatusSame = errors.New("status the same with previous")
var ErrOrder_OrderStatusInvalid = errors.New("invalid order status")

type OrderStatus string

const (
	OrderStatus_Pending  OrderStatus = "pending"
	OrderStatus_Filled   OrderStatus = "filled"
	OrderStatus_Rejected OrderStatus = "rejected"
)

var (
	orderStatusesTransition = map[OrderStatus]map[OrderStatus]bool{}
)

func init() {
	// pending is only reachable by resting orders, which the market flow never creates
	orderStatusesTransition[OrderStatus_Pending] = map[OrderStatus]bool{
		OrderStatus_Filled:   true,
		OrderStatus_Rejected: true,
	}
	orderStatusesTransition[OrderStatus_Filled] = map[OrderStatus]bool{}
	orderStatusesTransition[OrderStatus_Rejected] = map[OrderStatus]bool{}
}

func (os OrderStatus) IsValid() bool {
	switch os {
	case OrderStatus_Pending,
		OrderStatus_Filled,
		OrderStatus_Rejected:
		return true
	default:
		return false
	}
}

// IsTerminal reports whether no further transition can leave the status
func (os OrderStatus) IsTerminal() bool {
	return os.IsValid() && len(orderStatusesTransition[os]) == 0
}

func (os OrderStatus) IsValidChange(ns OrderStatus) error {
	if os == ns {
		return ErrOrder_OrderStatusSame
	}
	ok := orderStatusesTransition[os][ns]

	if !ok {
		return ErrOrder_OrderStatusInvalid
	}

	return nil
}

func (u OrderStatus) String() string {
	return string(u)
}

type OrderType string

const (
	OrderType_Market OrderType = "market"
)

func (ot OrderType) String() string {
	return string(ot)
}

func (ot OrderType) IsValid() bool {
	switch ot {
	case OrderType_Market:
		return true
	default:
		return false
	}
}

type MarketSide string

const (
	MarketSide_Buy  MarketSide = "buy"
	MarketSide_Sell MarketSide = "sell"
)

func (ms MarketSide) IsValid() bool {
	switch ms {
	case MarketSide_Buy,
		MarketSide_Sell:
		return true
	default:
		return false
	}
}

func (ms MarketSide) String() string {
	return string(ms)
}

// Order is the immutable record of an executed order request
type Order struct {
	ID               string            `gorm:"primaryKey;column:id" json:"id"`
	UserID           string            `gorm:"column:user_id;not null;index" json:"user_id"`
	Side             MarketSide        `gorm:"column:side;not null" json:"side"`
	Type             OrderType         `gorm:"column:type;not null" json:"type"`
	BaseAsset        string            `gorm:"column:base_asset;not null" json:"base_asset"`
	QuoteAsset       string            `gorm:"column:quote_asset;not null" json:"quote_asset"`
	RequestedSize    *postgres.Decimal `gorm:"column:requested_size;type:decimal(36,18);not null" json:"requested_size"`
	PriceAtOrderTime *postgres.Decimal `gorm:"column:price_at_order_time;type:decimal(36,18);not null" json:"price_at_order_time"`
	Status           OrderStatus       `gorm:"column:status;not null" json:"status"`
	FeesApplied      *postgres.Decimal `gorm:"column:fees_applied;type:decimal(36,18);not null" json:"fees_applied"`
	RejectionReason  *string           `gorm:"column:rejection_reason" json:"rejection_reason"`
	CreatedAt        time.Time         `gorm:"column:created_at" json:"created_at"`
	UpdatedAt        time.Time         `gorm:"column:updated_at" json:"updated_at"`
}

func (Order) TableName() string {
	return "orders"
}

// NewFilledOrder builds the terminal record of a market order that executed completely
func NewFilledOrder(id, userID string, side MarketSide, baseAsset, quoteAsset string, size, price, fee *decimal.Big, now time.Time) *Order {
	return &Order{
		ID:               id,
		UserID:           userID,
		Side:             side,
		Type:             OrderType_Market,
		BaseAsset:        baseAsset,
		QuoteAsset:       quoteAsset,
		RequestedSize:    &postgres.Decimal{V: conv.CloneToPrecision(size)},
		PriceAtOrderTime: &postgres.Decimal{V: conv.CloneToPrecision(price)},
		Status:           OrderStatus_Filled,
		FeesApplied:      &postgres.Decimal{V: conv.CloneToPrecision(fee)},
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}

// Clone returns a deep copy so that callers never share decimal pointers
func (o *Order) Clone() *Order {
	order := *o
	order.RequestedSize = cloneDecimal(o.RequestedSize)
	order.PriceAtOrderTime = cloneDecimal(o.PriceAtOrderTime)
	order.FeesApplied = cloneDecimal(o.FeesApplied)
	if o.RejectionReason != nil {
		reason := *o.RejectionReason
		order.RejectionReason = &reason
	}
	return &order
}

// OrderList structure
type OrderList struct {
	Orders []Order    `json:"orders"`
	Meta   PagingMeta `json:"meta"`
}

func (o Order) MarshalJSON() ([]byte, error) {
	return jsoniter.Marshal(map[string]interface{}{
		"id":                  o.ID,
		"user_id":             o.UserID,
		"side":                o.Side,
		"type":                o.Type,
		"base_asset":          o.BaseAsset,
		"quote_asset":         o.QuoteAsset,
		"requested_size":      fmtDecimal(o.RequestedSize),
		"price_at_order_time": fmtDecimal(o.PriceAtOrderTime),
		"status":              o.Status,
		"fees_applied":        fmtDecimal(o.FeesApplied),
		"rejection_reason":    o.RejectionReason,
		"created_at":          o.CreatedAt.Unix(),
		"updated_at":          o.UpdatedAt.Unix(),
	})
}

func fmtDecimal(d *postgres.Decimal) string {
	if d == nil {
		return "0"
	}
	return conv.Fmt(d.V)
}

func cloneDecimal(d *postgres.Decimal) *postgres.Decimal {
	if d == nil || d.V == nil {
		return &postgres.Decimal{V: conv.NewDecimalWithPrecision()}
	}
	return &postgres.Decimal{V: conv.NewDecimalWithPrecision().Copy(d.V)}
}

// DecimalOrZero returns the wrapped amount or a fresh zero for NULL columns
func DecimalOrZero(d *postgres.Decimal) *decimal.Big {
	if d == nil || d.V == nil {
		return conv.NewDecimalWithPrecision()
	}
	return d.V
}
