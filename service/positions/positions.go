package positions

import (
	"github.com/ericlagergren/decimal"
	"github.com/rs/zerolog/log"
	"gitlab.com/paramountdax-exchange/papertrade_ledger/conv"
	"gitlab.com/paramountdax-exchange/papertrade_ledger/model"
	"gitlab.com/paramountdax-exchange/papertrade_ledger/queries"
)

// Tracker maintains long only positions and their volume weighted entry price
type Tracker struct{}

func NewTracker() *Tracker {
	return &Tracker{}
}

// LockForUpdate locks the position row, creating the flat position on first use
func (t *Tracker) LockForUpdate(uow queries.UnitOfWork, userID, asset string) (*model.Position, error) {
	return uow.LockPosition(userID, asset)
}

// ApplyBuy returns the position after buying size units at price
func (t *Tracker) ApplyBuy(position *model.Position, price, size *decimal.Big) *model.Position {
	next := position.Clone()
	size0 := position.SizeAmount()
	newSize := conv.Add(size0, size)

	if conv.IsZero(size0) {
		next.AvgEntryPrice.V = conv.CloneToPrecision(price)
	} else {
		cost := conv.Add(conv.Mul(size0, position.AvgEntryPriceAmount()), conv.Mul(price, size))
		next.AvgEntryPrice.V = conv.RoundToPrecision(conv.Quo(cost, newSize))
	}
	next.Size.V = conv.RoundToPrecision(newSize)
	return next
}

// ApplySell returns the position after selling size units. The entry price is
// kept unless the position is closed, the sell price never affects it.
func (t *Tracker) ApplySell(position *model.Position, size *decimal.Big) (*model.Position, error) {
	size0 := position.SizeAmount()
	if size.Cmp(size0) > 0 {
		return nil, model.NewExecutionError(model.ErrInsufficientPosition,
			"position %s holds %s, cannot sell %s", position.Asset, conv.Fmt(size0), conv.Fmt(size))
	}
	next := position.Clone()
	next.Size.V = conv.RoundToPrecision(conv.Sub(size0, size))
	if conv.IsZero(next.Size.V) {
		next.AvgEntryPrice.V = conv.NewDecimalWithPrecision()
	}
	return next, nil
}

// Save persists the position inside the unit of work holding its lock
func (t *Tracker) Save(uow queries.UnitOfWork, position *model.Position) error {
	if conv.IsNegative(position.SizeAmount()) {
		log.Error().Str("section", "positions").Str("method", "Save").
			Str("user_id", position.UserID).
			Str("asset", position.Asset).
			Str("size", conv.Fmt(position.SizeAmount())).
			Msg("Refusing to save a negative position")
		return model.NewExecutionError(model.ErrInvariantViolation, "position %s of %s would become negative", position.Asset, position.UserID)
	}
	if position.IsFlat() && !conv.IsZero(position.AvgEntryPriceAmount()) {
		return model.NewExecutionError(model.ErrInvariantViolation, "flat position %s of %s keeps an entry price", position.Asset, position.UserID)
	}
	return uow.SavePosition(position)
}

// RealizedPnL is the reporting value of a sale: (sellPrice - avgEntry) * size - fee.
// It is never stored as ledger state.
func RealizedPnL(sellPrice, avgEntryAtSale, soldSize, fee *decimal.Big) *decimal.Big {
	gross := conv.Mul(conv.Sub(sellPrice, avgEntryAtSale), soldSize)
	return conv.RoundToPrecision(conv.Sub(gross, fee))
}
