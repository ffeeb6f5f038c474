package model

import (
	"time"

	"github.com/ericlagergren/decimal"
	"github.com/ericlagergren/decimal/sql/postgres"
	jsoniter "github.com/json-iterator/go"
	"gitlab.com/paramountdax-exchange/papertrade_ledger/conv"
)

// Balance holds the spendable and reserved amount of one asset for one user.
// Rows are created lazily with zero amounts and never deleted.
type Balance struct {
	UserID    string            `gorm:"primaryKey;column:user_id" json:"user_id"`
	Asset     string            `gorm:"primaryKey;column:asset" json:"asset"`
	Available *postgres.Decimal `gorm:"column:available;type:decimal(36,18);not null" json:"available"`
	// Locked is reserved for resting orders and stays zero on the market flow
	Locked    *postgres.Decimal `gorm:"column:locked;type:decimal(36,18);not null" json:"locked"`
	CreatedAt time.Time         `gorm:"column:created_at" json:"created_at"`
	UpdatedAt time.Time         `gorm:"column:updated_at" json:"updated_at"`
}

func (Balance) TableName() string {
	return "balances"
}

// NewBalance creates a zero initialized balance row
func NewBalance(userID, asset string, now time.Time) *Balance {
	return &Balance{
		UserID:    userID,
		Asset:     asset,
		Available: &postgres.Decimal{V: conv.NewDecimalWithPrecision()},
		Locked:    &postgres.Decimal{V: conv.NewDecimalWithPrecision()},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (b *Balance) AvailableAmount() *decimal.Big {
	return DecimalOrZero(b.Available)
}

func (b *Balance) LockedAmount() *decimal.Big {
	return DecimalOrZero(b.Locked)
}

func (b *Balance) Clone() *Balance {
	balance := *b
	balance.Available = cloneDecimal(b.Available)
	balance.Locked = cloneDecimal(b.Locked)
	return &balance
}

func (b Balance) MarshalJSON() ([]byte, error) {
	return jsoniter.Marshal(map[string]interface{}{
		"user_id":    b.UserID,
		"asset":      b.Asset,
		"available":  fmtDecimal(b.Available),
		"locked":     fmtDecimal(b.Locked),
		"updated_at": b.UpdatedAt.Unix(),
	})
}

func (b *Balance) UnmarshalJSON(data []byte) error {
	var raw struct {
		UserID    string `json:"user_id"`
		Asset     string `json:"asset"`
		Available string `json:"available"`
		Locked    string `json:"locked"`
		UpdatedAt int64  `json:"updated_at"`
	}
	if err := jsoniter.Unmarshal(data, &raw); err != nil {
		return err
	}
	available, err := parseAmount(raw.Available)
	if err != nil {
		return err
	}
	locked, err := parseAmount(raw.Locked)
	if err != nil {
		return err
	}
	*b = Balance{
		UserID:    raw.UserID,
		Asset:     raw.Asset,
		Available: &postgres.Decimal{V: available},
		Locked:    &postgres.Decimal{V: locked},
		UpdatedAt: time.Unix(raw.UpdatedAt, 0),
	}
	return nil
}

func parseAmount(s string) (*decimal.Big, error) {
	if s == "" {
		return conv.NewDecimalWithPrecision(), nil
	}
	return conv.FromString(s)
}
