package model

import (
	"time"

	"github.com/ericlagergren/decimal"
	"github.com/ericlagergren/decimal/sql/postgres"
	jsoniter "github.com/json-iterator/go"
	"gitlab.com/paramountdax-exchange/papertrade_ledger/conv"
)

// Position is the long-only holding of a base asset and its volume weighted cost basis.
// AvgEntryPrice is zero whenever Size is zero.
type Position struct {
	UserID        string            `gorm:"primaryKey;column:user_id" json:"user_id"`
	Asset         string            `gorm:"primaryKey;column:asset" json:"asset"`
	Size          *postgres.Decimal `gorm:"column:size;type:decimal(36,18);not null" json:"size"`
	AvgEntryPrice *postgres.Decimal `gorm:"column:avg_entry_price;type:decimal(36,18);not null" json:"avg_entry_price"`
	CreatedAt     time.Time         `gorm:"column:created_at" json:"created_at"`
	UpdatedAt     time.Time         `gorm:"column:updated_at" json:"updated_at"`
}

func (Position) TableName() string {
	return "positions"
}

func NewPosition(userID, asset string, now time.Time) *Position {
	return &Position{
		UserID:        userID,
		Asset:         asset,
		Size:          &postgres.Decimal{V: conv.NewDecimalWithPrecision()},
		AvgEntryPrice: &postgres.Decimal{V: conv.NewDecimalWithPrecision()},
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

func (p *Position) SizeAmount() *decimal.Big {
	return DecimalOrZero(p.Size)
}

func (p *Position) AvgEntryPriceAmount() *decimal.Big {
	return DecimalOrZero(p.AvgEntryPrice)
}

// IsFlat reports whether the position holds nothing
func (p *Position) IsFlat() bool {
	return conv.IsZero(p.SizeAmount())
}

func (p *Position) Clone() *Position {
	position := *p
	position.Size = cloneDecimal(p.Size)
	position.AvgEntryPrice = cloneDecimal(p.AvgEntryPrice)
	return &position
}

func (p Position) MarshalJSON() ([]byte, error) {
	return jsoniter.Marshal(map[string]interface{}{
		"user_id":         p.UserID,
		"asset":           p.Asset,
		"size":            fmtDecimal(p.Size),
		"avg_entry_price": fmtDecimal(p.AvgEntryPrice),
		"updated_at":      p.UpdatedAt.Unix(),
	})
}

func (p *Position) UnmarshalJSON(data []byte) error {
	var raw struct {
		UserID        string `json:"user_id"`
		Asset         string `json:"asset"`
		Size          string `json:"size"`
		AvgEntryPrice string `json:"avg_entry_price"`
		UpdatedAt     int64  `json:"updated_at"`
	}
	if err := jsoniter.Unmarshal(data, &raw); err != nil {
		return err
	}
	size, err := parseAmount(raw.Size)
	if err != nil {
		return err
	}
	avg, err := parseAmount(raw.AvgEntryPrice)
	if err != nil {
		return err
	}
	*p = Position{
		UserID:        raw.UserID,
		Asset:         raw.Asset,
		Size:          &postgres.Decimal{V: size},
		AvgEntryPrice: &postgres.Decimal{V: avg},
		UpdatedAt:     time.Unix(raw.UpdatedAt, 0),
	}
	return nil
}
