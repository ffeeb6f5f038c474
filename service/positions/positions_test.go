package positions

import (
	"context"
	"errors"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
	"gitlab.com/paramountdax-exchange/papertrade_ledger/conv"
	"gitlab.com/paramountdax-exchange/papertrade_ledger/model"
	"gitlab.com/paramountdax-exchange/papertrade_ledger/queries"
	"gitlab.com/paramountdax-exchange/papertrade_ledger/queries/memory"
)

var d = conv.MustFromString

func flat() *model.Position {
	return model.NewPosition("u-1", "BTC", time.Now())
}

func TestTracker_ApplyBuy(t *testing.T) {
	tracker := NewTracker()

	Convey("The first buy sets the entry price", t, func() {
		p := tracker.ApplyBuy(flat(), d("100"), d("2"))
		So(conv.Fmt(p.SizeAmount()), ShouldEqual, "2")
		So(conv.Fmt(p.AvgEntryPriceAmount()), ShouldEqual, "100")
	})

	Convey("Further buys weight the entry price by volume", t, func() {
		p := tracker.ApplyBuy(tracker.ApplyBuy(flat(), d("100"), d("2")), d("150"), d("3"))
		So(conv.Fmt(p.SizeAmount()), ShouldEqual, "5")
		So(conv.Fmt(p.AvgEntryPriceAmount()), ShouldEqual, "130")
	})

	Convey("Repeating divisions keep the ledger precision", t, func() {
		p := tracker.ApplyBuy(tracker.ApplyBuy(flat(), d("1"), d("1")), d("2"), d("2"))
		So(p.AvgEntryPriceAmount().Cmp(d("1.666666666666666666")), ShouldEqual, 0)
	})

	Convey("ApplyBuy does not modify its input", t, func() {
		start := tracker.ApplyBuy(flat(), d("100"), d("2"))
		_ = tracker.ApplyBuy(start, d("200"), d("2"))
		So(conv.Fmt(start.SizeAmount()), ShouldEqual, "2")
		So(conv.Fmt(start.AvgEntryPriceAmount()), ShouldEqual, "100")
	})
}

func TestTracker_ApplySell(t *testing.T) {
	tracker := NewTracker()

	Convey("Given a position of 4 bought at 100", t, func() {
		position := tracker.ApplyBuy(flat(), d("100"), d("4"))

		Convey("a partial sell keeps the entry price", func() {
			p, err := tracker.ApplySell(position, d("1"))
			So(err, ShouldBeNil)
			So(conv.Fmt(p.SizeAmount()), ShouldEqual, "3")
			So(conv.Fmt(p.AvgEntryPriceAmount()), ShouldEqual, "100")
		})

		Convey("selling everything resets the entry price", func() {
			p, err := tracker.ApplySell(position, d("4"))
			So(err, ShouldBeNil)
			So(p.IsFlat(), ShouldBeTrue)
			So(conv.IsZero(p.AvgEntryPriceAmount()), ShouldBeTrue)

			Convey("and a new buy starts a fresh cost basis", func() {
				p = tracker.ApplyBuy(p, d("70"), d("1"))
				So(conv.Fmt(p.AvgEntryPriceAmount()), ShouldEqual, "70")
			})
		})

		Convey("overselling is rejected", func() {
			_, err := tracker.ApplySell(position, d("4.000000000000000001"))
			So(errors.Is(err, model.ErrInsufficientPosition), ShouldBeTrue)
		})
	})
}

func TestTracker_Save(t *testing.T) {
	tracker := NewTracker()
	store := memory.New()
	ctx := context.Background()

	Convey("Positions are created lazily and persisted", t, func() {
		err := store.WithinTx(ctx, func(ctx context.Context, uow queries.UnitOfWork) error {
			position, err := tracker.LockForUpdate(uow, "u-1", "BTC")
			if err != nil {
				return err
			}
			So(position.IsFlat(), ShouldBeTrue)
			return tracker.Save(uow, tracker.ApplyBuy(position, d("100"), d("2")))
		})
		So(err, ShouldBeNil)

		positions, _ := store.GetPositions(ctx, "u-1")
		So(positions, ShouldHaveLength, 1)
		So(conv.Fmt(positions[0].SizeAmount()), ShouldEqual, "2")
	})

	Convey("Broken positions are refused", t, func() {
		err := store.WithinTx(ctx, func(ctx context.Context, uow queries.UnitOfWork) error {
			position, _ := tracker.LockForUpdate(uow, "u-1", "BTC")
			position.Size.V = d("-1")
			return tracker.Save(uow, position)
		})
		So(errors.Is(err, model.ErrInvariantViolation), ShouldBeTrue)

		err = store.WithinTx(ctx, func(ctx context.Context, uow queries.UnitOfWork) error {
			position, _ := tracker.LockForUpdate(uow, "u-1", "ETH")
			position.AvgEntryPrice.V = d("10")
			return tracker.Save(uow, position)
		})
		So(errors.Is(err, model.ErrInvariantViolation), ShouldBeTrue)
	})
}

func TestRealizedPnL(t *testing.T) {
	Convey("Realized profit is measured against the entry price net of fees", t, func() {
		So(conv.Fmt(RealizedPnL(d("150"), d("100"), d("1"), d("0.15"))), ShouldEqual, "49.85")
		So(conv.Fmt(RealizedPnL(d("90"), d("100"), d("2"), d("0.18"))), ShouldEqual, "-20.18")
	})
}
