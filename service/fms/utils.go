package fms

import (
	"github.com/ericlagergren/decimal"
	"gitlab.com/paramountdax-exchange/papertrade_ledger/conv"
	"gitlab.com/paramountdax-exchange/papertrade_ledger/model"
)

// Zero is the delta of an untouched field
func Zero() *decimal.Big {
	return conv.NewDecimalWithPrecision()
}

func checkNaNs(amount *decimal.Big) error {
	if amount == nil || !amount.IsFinite() {
		return model.NewExecutionError(model.ErrValidation, "amount is not a finite number")
	}
	return nil
}
