package fms

import (
	"context"

	"github.com/ericlagergren/decimal"
	"github.com/rs/zerolog/log"
	"gitlab.com/paramountdax-exchange/papertrade_ledger/conv"
	"gitlab.com/paramountdax-exchange/papertrade_ledger/model"
	"gitlab.com/paramountdax-exchange/papertrade_ledger/queries"
)

func Init(store queries.Store) *FundsEngine {
	return &FundsEngine{store: store}
}

// LockForUpdate locks the balance row and returns its current snapshot.
// A missing row is created with zero amounts when createIfMissing is set, otherwise nil is returned.
func (fe *FundsEngine) LockForUpdate(uow queries.UnitOfWork, userID, asset string, createIfMissing bool) (*model.Balance, error) {
	balance, err := uow.LockBalance(userID, asset, createIfMissing)
	if err != nil {
		log.Debug().Err(err).Str("section", "FMS").Str("method", "LockForUpdate").
			Str("user_id", userID).
			Str("asset", asset).
			Msg("Unable to lock balance")
		return nil, err
	}
	return balance, nil
}

// ApplyDelta adds the deltas to the locked balance and saves it.
// The result must stay non-negative, sufficiency is expected to be checked by the caller.
func (fe *FundsEngine) ApplyDelta(uow queries.UnitOfWork, balance *model.Balance, availableDelta, lockedDelta *decimal.Big) error {
	if err := checkNaNs(availableDelta); err != nil {
		return err
	}
	if err := checkNaNs(lockedDelta); err != nil {
		return err
	}
	available := conv.Add(balance.AvailableAmount(), availableDelta)
	locked := conv.Add(balance.LockedAmount(), lockedDelta)
	if conv.IsNegative(available) || conv.IsNegative(locked) {
		log.Error().Str("section", "FMS").Str("method", "ApplyDelta").
			Str("user_id", balance.UserID).
			Str("asset", balance.Asset).
			Str("available", conv.Fmt(balance.AvailableAmount())).
			Str("available_delta", conv.Fmt(availableDelta)).
			Str("locked", conv.Fmt(balance.LockedAmount())).
			Str("locked_delta", conv.Fmt(lockedDelta)).
			Msg("Balance would become negative")
		return model.NewExecutionError(model.ErrInvariantViolation,
			"balance %s of %s would become negative (available %s, locked %s)",
			balance.Asset, balance.UserID, conv.Fmt(available), conv.Fmt(locked))
	}
	balance.Available.V = conv.RoundToPrecision(available)
	balance.Locked.V = conv.RoundToPrecision(locked)
	return uow.SaveBalance(balance)
}

// GetAccountBalances returns the committed balances of a user
func (fe *FundsEngine) GetAccountBalances(ctx context.Context, userID string) ([]model.Balance, error) {
	return fe.store.GetBalances(ctx, userID)
}
