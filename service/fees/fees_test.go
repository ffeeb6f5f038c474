package fees

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
	"gitlab.com/paramountdax-exchange/papertrade_ledger/conv"
	"gitlab.com/paramountdax-exchange/papertrade_ledger/model"
)

func TestEngine_Fee(t *testing.T) {
	engine, err := New(conv.MustFromString("0.001"))
	if err != nil {
		t.Fatal(err)
	}

	Convey("Fee is the notional multiplied by the rate", t, func() {
		So(conv.Fmt(engine.Fee(conv.MustFromString("100"), conv.MustFromString("2"))), ShouldEqual, "0.2")
		So(conv.Fmt(engine.Fee(conv.MustFromString("150"), conv.MustFromString("3"))), ShouldEqual, "0.45")
		So(conv.Fmt(engine.Fee(conv.MustFromString("0.00000001"), conv.MustFromString("0.01"))), ShouldEqual, "0.0000000000001")
	})

	Convey("Fee keeps the digits of large notionals", t, func() {
		fee := engine.Fee(conv.MustFromString("12345678.12345678"), conv.MustFromString("987.654321"))
		So(fee.Cmp(conv.MustFromString("12193262.34430726022374638")), ShouldEqual, 0)
	})

	Convey("A zero rate charges nothing", t, func() {
		free, err := New(conv.NewDecimalWithPrecision())
		So(err, ShouldBeNil)
		So(conv.IsZero(free.Fee(conv.MustFromString("100"), conv.MustFromString("2"))), ShouldBeTrue)
	})

	Convey("Negative rates are rejected", t, func() {
		_, err := New(conv.MustFromString("-0.001"))
		So(model.Kind(err), ShouldEqual, model.ErrValidation)
	})
}

func TestEngine_ValidateFee(t *testing.T) {
	engine, _ := New(conv.MustFromString("0.001"))
	price := conv.MustFromString("100")
	size := conv.MustFromString("2")

	Convey("The policy fee passes validation", t, func() {
		So(engine.ValidateFee(price, size, conv.MustFromString("0.2")), ShouldBeNil)
		So(engine.ValidateFee(price, size, conv.MustFromString("0.200000000000000000")), ShouldBeNil)
	})

	Convey("Any other fee is an invariant violation", t, func() {
		err := engine.ValidateFee(price, size, conv.MustFromString("0.199999999999999999"))
		So(model.Kind(err), ShouldEqual, model.ErrInvariantViolation)

		err = engine.ValidateFee(price, size, nil)
		So(model.Kind(err), ShouldEqual, model.ErrInvariantViolation)
	})
}
