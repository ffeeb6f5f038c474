package fms

import (
	"context"
	"errors"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
	"gitlab.com/paramountdax-exchange/papertrade_ledger/conv"
	"gitlab.com/paramountdax-exchange/papertrade_ledger/model"
	"gitlab.com/paramountdax-exchange/papertrade_ledger/queries"
	"gitlab.com/paramountdax-exchange/papertrade_ledger/queries/memory"
)

func TestFundsEngine_LockForUpdate(t *testing.T) {
	ctx := context.Background()

	Convey("Given a user funded with quote currency", t, func() {
		store := memory.New()
		fe := Init(store)
		_, err := fe.Deposit(ctx, "u-1", "USD", conv.MustFromString("10000"))
		So(err, ShouldBeNil)

		Convey("the quote balance is returned under lock", func() {
			err := store.WithinTx(ctx, func(ctx context.Context, uow queries.UnitOfWork) error {
				balance, err := fe.LockForUpdate(uow, "u-1", "USD", false)
				So(err, ShouldBeNil)
				So(conv.Fmt(balance.AvailableAmount()), ShouldEqual, "10000")
				So(conv.IsZero(balance.LockedAmount()), ShouldBeTrue)
				return nil
			})
			So(err, ShouldBeNil)
		})

		Convey("an unknown asset is absent unless creation is requested", func() {
			err := store.WithinTx(ctx, func(ctx context.Context, uow queries.UnitOfWork) error {
				balance, err := fe.LockForUpdate(uow, "u-1", "ETH", false)
				So(err, ShouldBeNil)
				So(balance, ShouldBeNil)

				balance, err = fe.LockForUpdate(uow, "u-1", "BTC", true)
				So(err, ShouldBeNil)
				So(conv.IsZero(balance.AvailableAmount()), ShouldBeTrue)
				return nil
			})
			So(err, ShouldBeNil)

			balances, err := fe.GetAccountBalances(ctx, "u-1")
			So(err, ShouldBeNil)
			So(balances, ShouldHaveLength, 2)
			So(balances[0].Asset, ShouldEqual, "BTC")
		})
	})
}

func TestFundsEngine_ApplyDelta(t *testing.T) {
	ctx := context.Background()

	Convey("Given a balance of 100", t, func() {
		store := memory.New()
		fe := Init(store)
		_, err := fe.Deposit(ctx, "u-1", "USD", conv.MustFromString("100"))
		So(err, ShouldBeNil)

		apply := func(available, locked string) error {
			return store.WithinTx(ctx, func(ctx context.Context, uow queries.UnitOfWork) error {
				balance, err := fe.LockForUpdate(uow, "u-1", "USD", false)
				if err != nil {
					return err
				}
				return fe.ApplyDelta(uow, balance, conv.MustFromString(available), conv.MustFromString(locked))
			})
		}

		Convey("debits down to exactly zero are accepted", func() {
			So(apply("-100", "0"), ShouldBeNil)
			balances, _ := fe.GetAccountBalances(ctx, "u-1")
			So(conv.IsZero(balances[0].AvailableAmount()), ShouldBeTrue)
		})

		Convey("a debit below zero is an invariant violation and changes nothing", func() {
			err := apply("-100.000000000000000001", "0")
			So(errors.Is(err, model.ErrInvariantViolation), ShouldBeTrue)

			balances, _ := fe.GetAccountBalances(ctx, "u-1")
			So(conv.Fmt(balances[0].AvailableAmount()), ShouldEqual, "100")
		})

		Convey("the locked amount can never go negative either", func() {
			err := apply("0", "-1")
			So(errors.Is(err, model.ErrInvariantViolation), ShouldBeTrue)
		})

		Convey("non finite deltas are rejected", func() {
			err := store.WithinTx(ctx, func(ctx context.Context, uow queries.UnitOfWork) error {
				balance, _ := fe.LockForUpdate(uow, "u-1", "USD", false)
				return fe.ApplyDelta(uow, balance, conv.NewDecimalWithPrecision().SetNaN(false), Zero())
			})
			So(errors.Is(err, model.ErrValidation), ShouldBeTrue)
		})
	})
}

func TestFundsEngine_Deposit(t *testing.T) {
	ctx := context.Background()
	fe := Init(memory.New())

	Convey("Deposits accumulate on the available balance", t, func() {
		_, err := fe.Deposit(ctx, "u-1", "USD", conv.MustFromString("0.1"))
		So(err, ShouldBeNil)
		balance, err := fe.Deposit(ctx, "u-1", "USD", conv.MustFromString("0.2"))
		So(err, ShouldBeNil)
		So(conv.Fmt(balance.AvailableAmount()), ShouldEqual, "0.3")
	})

	Convey("Invalid deposits are rejected", t, func() {
		_, err := fe.Deposit(ctx, "u-1", "USD", conv.MustFromString("0"))
		So(err, ShouldEqual, ErrInvalidAmount)

		_, err = fe.Deposit(ctx, "u-1", "USD", conv.MustFromString("-5"))
		So(err.Error(), ShouldEqual, ErrInvalidAmount.Error())

		_, err = fe.Deposit(ctx, "", "USD", conv.MustFromString("5"))
		So(err, ShouldEqual, ErrInvalidUser)

		_, err = fe.Deposit(ctx, "u-1", "", conv.MustFromString("5"))
		So(err, ShouldEqual, ErrInvalidAsset)
	})
}
