package model

import (
	"testing"
	"time"

	jsoniter "github.com/json-iterator/go"
	. "github.com/smartystreets/goconvey/convey"
	"gitlab.com/paramountdax-exchange/papertrade_ledger/conv"
)

func TestPortfolio_JSON(t *testing.T) {
	Convey("A portfolio snapshot survives the cache encoding without losing digits", t, func() {
		now := time.Unix(1700000000, 0)
		balance := NewBalance("u-1", "USD", now)
		balance.Available.V = conv.MustFromString("9799.799999999999999999")
		position := NewPosition("u-1", "BTC", now)
		position.Size.V = conv.MustFromString("2")
		position.AvgEntryPrice.V = conv.MustFromString("100.5")

		data, err := jsoniter.Marshal(NewPortfolio("u-1", []Balance{*balance}, []Position{*position}))
		So(err, ShouldBeNil)
		So(string(data), ShouldContainSubstring, `"available":"9799.799999999999999999"`)

		var decoded Portfolio
		So(jsoniter.Unmarshal(data, &decoded), ShouldBeNil)
		So(decoded.UserID, ShouldEqual, "u-1")
		So(decoded.Balances, ShouldHaveLength, 1)
		So(conv.Equal(decoded.Balances[0].AvailableAmount(), balance.AvailableAmount()), ShouldBeTrue)
		So(conv.IsZero(decoded.Balances[0].LockedAmount()), ShouldBeTrue)
		So(conv.Fmt(decoded.Positions[0].AvgEntryPriceAmount()), ShouldEqual, "100.5")
		So(decoded.Positions[0].UpdatedAt.Unix(), ShouldEqual, now.Unix())
	})

	Convey("Empty portfolios encode empty lists", t, func() {
		data, err := jsoniter.Marshal(NewPortfolio("u-2", nil, nil))
		So(err, ShouldBeNil)
		So(string(data), ShouldEqual, `{"user_id":"u-2","balances":[],"positions":[],"updated_at":"0001-01-01T00:00:00Z"}`)
	})

	Convey("The snapshot version is the latest row change", t, func() {
		older := time.Unix(1700000000, 0)
		newer := older.Add(time.Second)
		balance := NewBalance("u-1", "USD", older)
		position := NewPosition("u-1", "BTC", newer)

		first := NewPortfolio("u-1", []Balance{*balance}, nil)
		second := NewPortfolio("u-1", []Balance{*balance}, []Position{*position})
		So(second.UpdatedAt, ShouldEqual, newer)
		So(first.IsOlderThan(second), ShouldBeTrue)
		So(second.IsOlderThan(first), ShouldBeFalse)
	})
}
