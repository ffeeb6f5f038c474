package fees

import (
	"github.com/ericlagergren/decimal"
	"gitlab.com/paramountdax-exchange/papertrade_ledger/conv"
	"gitlab.com/paramountdax-exchange/papertrade_ledger/model"
)

// Engine computes trading fees as a fixed fraction of the traded notional
type Engine struct {
	rate *decimal.Big
}

// New creates a fee engine for the given rate. The rate must be finite and not negative.
func New(rate *decimal.Big) (*Engine, error) {
	if rate == nil || !rate.IsFinite() || conv.IsNegative(rate) {
		return nil, model.NewExecutionError(model.ErrValidation, "invalid fee rate %s", conv.Fmt(rate))
	}
	return &Engine{rate: conv.CloneToPrecision(rate)}, nil
}

func (e *Engine) Rate() *decimal.Big {
	return conv.CloneToPrecision(e.rate)
}

// Fee returns price * size * rate at ledger precision
func (e *Engine) Fee(price, size *decimal.Big) *decimal.Big {
	return conv.RoundToPrecision(conv.Mul(conv.Mul(price, size), e.rate))
}

// ValidateFee fails unless fee equals Fee(price, size) exactly
func (e *Engine) ValidateFee(price, size, fee *decimal.Big) error {
	if fee == nil || !fee.IsFinite() {
		return model.NewExecutionError(model.ErrInvariantViolation, "fee is not a finite amount")
	}
	expected := e.Fee(price, size)
	if !conv.Equal(expected, fee) {
		return model.NewExecutionError(model.ErrInvariantViolation, "fee %s does not match policy fee %s", conv.Fmt(fee), conv.Fmt(expected))
	}
	return nil
}
