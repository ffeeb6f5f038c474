package fms

import (
	"context"

	"github.com/ericlagergren/decimal"
	"github.com/rs/zerolog/log"
	"gitlab.com/paramountdax-exchange/papertrade_ledger/conv"
	"gitlab.com/paramountdax-exchange/papertrade_ledger/model"
	"gitlab.com/paramountdax-exchange/papertrade_ledger/queries"
)

var ErrInvalidAmount = model.NewExecutionError(model.ErrValidation, "INVALID_AMOUNT")
var ErrInvalidAsset = model.NewExecutionError(model.ErrValidation, "INVALID_ASSET")
var ErrInvalidUser = model.NewExecutionError(model.ErrValidation, "INVALID_USER")

// Deposit credits simulated funds to the available balance of a user in its own unit of work
func (fe *FundsEngine) Deposit(ctx context.Context, userID, asset string, amount *decimal.Big) (*model.Balance, error) {
	if userID == "" {
		return nil, ErrInvalidUser
	}
	if asset == "" {
		return nil, ErrInvalidAsset
	}
	if !conv.IsPositive(amount) {
		return nil, ErrInvalidAmount
	}

	var result *model.Balance
	err := fe.store.WithinTx(ctx, func(ctx context.Context, uow queries.UnitOfWork) error {
		balance, err := fe.LockForUpdate(uow, userID, asset, true)
		if err != nil {
			return err
		}
		if err := fe.ApplyDelta(uow, balance, amount, Zero()); err != nil {
			return err
		}
		result = balance
		return nil
	})
	if err != nil {
		log.Error().Err(err).Str("section", "FMS").Str("method", "Deposit").
			Str("user_id", userID).
			Str("asset", asset).
			Str("amount", conv.Fmt(amount)).
			Msg("Unable to deposit funds")
		return nil, err
	}

	log.Info().Str("section", "FMS").Str("method", "Deposit").
		Str("user_id", userID).
		Str("asset", asset).
		Str("amount", conv.Fmt(amount)).
		Str("available", conv.Fmt(result.AvailableAmount())).
		Msg("Funds deposited")
	return result, nil
}
