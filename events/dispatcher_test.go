package events

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
	"gitlab.com/paramountdax-exchange/papertrade_ledger/model"
)

type recordingSink struct {
	lock   sync.Mutex
	events []Event
	err    error
}

func (s *recordingSink) Publish(_ context.Context, event Event) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.events = append(s.events, event)
	return s.err
}

func (s *recordingSink) count() int {
	s.lock.Lock()
	defer s.lock.Unlock()
	return len(s.events)
}

func TestDispatcher(t *testing.T) {
	Convey("Given a dispatcher with a failing and a healthy sink", t, func() {
		failing := &recordingSink{err: errors.New("broker down")}
		healthy := &recordingSink{}
		dispatcher := NewDispatcher(8, time.Second, failing, healthy)

		ctx, cancel := context.WithCancel(context.Background())
		wait := &sync.WaitGroup{}
		wait.Add(1)
		go dispatcher.Process(ctx, wait)

		So(dispatcher.Publish(ctx, TradeEvent{OrderID: "o-1", UserID: "u-1"}), ShouldBeNil)
		So(dispatcher.Publish(ctx, PortfolioEvent{Portfolio: model.NewPortfolio("u-1", nil, nil)}), ShouldBeNil)

		cancel()
		wait.Wait()

		Convey("every sink sees every event and errors are swallowed", func() {
			So(failing.count(), ShouldEqual, 2)
			So(healthy.count(), ShouldEqual, 2)
			So(healthy.events[0].Kind(), ShouldEqual, KindTrade)
			So(healthy.events[1].Key(), ShouldEqual, "u-1")
		})

		Convey("publishing after shutdown drops the event", func() {
			So(dispatcher.Publish(context.Background(), TradeEvent{OrderID: "o-2"}), ShouldBeNil)
			So(healthy.count(), ShouldEqual, 2)
		})
	})

	Convey("A full queue drops instead of blocking", t, func() {
		dispatcher := NewDispatcher(1, time.Second)
		So(dispatcher.Publish(context.Background(), TradeEvent{OrderID: "o-1"}), ShouldBeNil)
		So(dispatcher.Publish(context.Background(), TradeEvent{OrderID: "o-2"}), ShouldBeNil)
		So(len(dispatcher.queue), ShouldEqual, 1)
	})
}
