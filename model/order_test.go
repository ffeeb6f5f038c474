package model

import (
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
	"gitlab.com/paramountdax-exchange/papertrade_ledger/conv"
)

func TestOrderStatus_IsValidChange(t *testing.T) {
	Convey("Pending orders may only move to a terminal status", t, func() {
		So(OrderStatus_Pending.IsValidChange(OrderStatus_Filled), ShouldBeNil)
		So(OrderStatus_Pending.IsValidChange(OrderStatus_Rejected), ShouldBeNil)
		So(OrderStatus_Pending.IsValidChange(OrderStatus_Pending), ShouldEqual, ErrOrder_OrderStatusSame)
	})

	Convey("Terminal statuses never change", t, func() {
		So(OrderStatus_Filled.IsTerminal(), ShouldBeTrue)
		So(OrderStatus_Rejected.IsTerminal(), ShouldBeTrue)
		So(OrderStatus_Pending.IsTerminal(), ShouldBeFalse)
		So(OrderStatus_Filled.IsValidChange(OrderStatus_Rejected), ShouldEqual, ErrOrder_OrderStatusInvalid)
	})

	Convey("Unknown values are rejected", t, func() {
		So(OrderStatus("cancelled").IsValid(), ShouldBeFalse)
		So(MarketSide("hold").IsValid(), ShouldBeFalse)
		So(OrderType("limit").IsValid(), ShouldBeFalse)
	})
}

func TestNewFilledOrder(t *testing.T) {
	Convey("A filled order keeps the values it was built from", t, func() {
		now := time.Unix(1700000000, 0)
		size := conv.MustFromString("2")
		order := NewFilledOrder("o-1", "u-1", MarketSide_Buy, "BTC", "USD", size, conv.MustFromString("100"), conv.MustFromString("0.2"), now)

		So(order.Status, ShouldEqual, OrderStatus_Filled)
		So(order.Type, ShouldEqual, OrderType_Market)
		So(order.RejectionReason, ShouldBeNil)
		So(conv.Fmt(order.FeesApplied.V), ShouldEqual, "0.2")

		size.SetUint64(9)
		So(conv.Fmt(order.RequestedSize.V), ShouldEqual, "2")

		clone := order.Clone()
		clone.PriceAtOrderTime.V.SetUint64(1)
		So(conv.Fmt(order.PriceAtOrderTime.V), ShouldEqual, "100")
	})
}
