package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ericlagergren/decimal"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	cache "gitlab.com/paramountdax-exchange/papertrade_ledger/cache/portfolio"
	"gitlab.com/paramountdax-exchange/papertrade_ledger/config"
	"gitlab.com/paramountdax-exchange/papertrade_ledger/conv"
	"gitlab.com/paramountdax-exchange/papertrade_ledger/events"
	"gitlab.com/paramountdax-exchange/papertrade_ledger/model"
	"gitlab.com/paramountdax-exchange/papertrade_ledger/queries/memory"
	"gitlab.com/paramountdax-exchange/papertrade_ledger/service/execution"
)

type mapStorage struct {
	lock sync.Mutex
	data map[string][]byte
}

func (m *mapStorage) Get(key string) ([]byte, bool, error) {
	m.lock.Lock()
	defer m.lock.Unlock()
	value, ok := m.data[key]
	return value, ok, nil
}

func (m *mapStorage) Del(key string) error {
	m.lock.Lock()
	defer m.lock.Unlock()
	delete(m.data, key)
	return nil
}

func (m *mapStorage) SetEx(key string, _ time.Duration, value []byte) error {
	m.lock.Lock()
	defer m.lock.Unlock()
	m.data[key] = value
	return nil
}

type channelSink chan events.Event

func (c channelSink) Publish(_ context.Context, event events.Event) error {
	c <- event
	return nil
}

func testConfig(t *testing.T) config.Config {
	v := viper.New()
	config.SetDefaultVariables(v)
	return config.LoadConfig(v)
}

func TestNewService_RejectsBadPolicy(t *testing.T) {
	cfg := testConfig(t)
	cfg.Ledger.FeeRate = "abc"
	_, err := NewService(cfg, memory.New(), nil)
	assert.Error(t, err)

	cfg = testConfig(t)
	cfg.Ledger.FeeRate = "-0.1"
	_, err = NewService(cfg, memory.New(), nil)
	assert.True(t, errors.Is(err, model.ErrValidation))

	cfg = testConfig(t)
	cfg.Ledger.MinPositionSize = "-1"
	_, err = NewService(cfg, memory.New(), nil)
	assert.Error(t, err)

	cfg = testConfig(t)
	cfg.Ledger.QuoteAssets = nil
	_, err = NewService(cfg, memory.New(), nil)
	assert.Error(t, err)
}

func TestService_PlaceAndRead(t *testing.T) {
	ctx := context.Background()
	sink := make(channelSink, 16)
	srv, err := NewService(testConfig(t), memory.New(), nil, sink)
	require.NoError(t, err)

	wait := &sync.WaitGroup{}
	wait.Add(1)
	workerCtx, stop := context.WithCancel(ctx)
	go srv.ProcessEvents(workerCtx, wait)
	defer func() {
		stop()
		wait.Wait()
	}()

	_, err = srv.Deposit(ctx, "u-1", "USD", conv.MustFromString("1000"))
	require.NoError(t, err)

	result, err := srv.Place(ctx, execution.PlaceRequest{
		UserID:     "u-1",
		Side:       model.MarketSide_Buy,
		BaseAsset:  "BTC",
		QuoteAsset: "USD",
		Size:       conv.MustFromString("2"),
		Price:      conv.MustFromString("100"),
	})
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatus_Filled, result.Status)
	assert.Equal(t, "0.2", conv.Fmt(result.FeesApplied))

	order, err := srv.GetOrder(ctx, result.OrderID)
	require.NoError(t, err)
	assert.Equal(t, "u-1", order.UserID)

	trades, err := srv.GetTrades(ctx, result.OrderID)
	require.NoError(t, err)
	assert.Len(t, trades, 1)

	list, err := srv.ListOrders(ctx, "u-1", 10, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), list.Meta.Count)

	portfolio, err := srv.GetPortfolio(ctx, "u-1")
	require.NoError(t, err)
	assert.Len(t, portfolio.Balances, 2)
	assert.Len(t, portfolio.Positions, 1)

	kinds := []events.Kind{}
	for i := 0; i < 3; i++ {
		select {
		case event := <-sink:
			kinds = append(kinds, event.Kind())
		case <-time.After(time.Second):
			t.Fatal("event not delivered")
		}
	}
	assert.Equal(t, []events.Kind{events.KindPortfolio, events.KindTrade, events.KindPortfolio}, kinds)
}

func TestService_GetPortfolioPrefersCache(t *testing.T) {
	ctx := context.Background()
	storage := &mapStorage{data: map[string][]byte{}}
	portfolioCache := cache.New(storage, time.Minute)
	srv, err := NewService(testConfig(t), memory.New(), portfolioCache)
	require.NoError(t, err)

	// first read goes to the store and fills the cache
	portfolio, err := srv.GetPortfolio(ctx, "u-1")
	require.NoError(t, err)
	assert.Empty(t, portfolio.Balances)
	_, found, _ := storage.Get("portfolio__u-1")
	assert.True(t, found)

	balance := model.NewBalance("u-1", "USD", time.Now())
	require.NoError(t, portfolioCache.Set(model.NewPortfolio("u-1", []model.Balance{*balance}, nil)))

	portfolio, err = srv.GetPortfolio(ctx, "u-1")
	require.NoError(t, err)
	assert.Len(t, portfolio.Balances, 1)
}

type fixedPrices map[string]string

func (f fixedPrices) GetPrice(base, quote string) (*decimal.Big, error) {
	value, ok := f[base+"/"+quote]
	if !ok {
		return nil, model.NewExecutionError(model.ErrPriceInvalid, "no price for %s/%s", base, quote)
	}
	return conv.MustFromString(value), nil
}

func TestService_PlaceUsesPriceOracle(t *testing.T) {
	ctx := context.Background()
	srv, err := NewService(testConfig(t), memory.New(), nil)
	require.NoError(t, err)
	_, err = srv.Deposit(ctx, "u1", "USD", conv.MustFromString("1000"))
	require.NoError(t, err)

	req := execution.PlaceRequest{
		UserID:     "u1",
		Side:       model.MarketSide_Buy,
		BaseAsset:  "BTC",
		QuoteAsset: "USD",
		Size:       conv.MustFromString("1"),
	}

	_, err = srv.Place(ctx, req)
	assert.True(t, errors.Is(err, model.ErrPriceInvalid))

	srv.SetPriceOracle(fixedPrices{"BTC/USD": "100"})
	result, err := srv.Place(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, "100", conv.Fmt(result.ExecutedPrice))

	req.QuoteAsset = "EUR"
	_, err = srv.Place(ctx, req)
	assert.True(t, errors.Is(err, model.ErrPriceInvalid))
}

func TestService_PortfolioAfterOwnFill(t *testing.T) {
	ctx := context.Background()
	storage := &mapStorage{data: map[string][]byte{}}
	srv, err := NewService(testConfig(t), memory.New(), cache.New(storage, time.Minute))
	require.NoError(t, err)

	_, err = srv.Deposit(ctx, "u-1", "USD", conv.MustFromString("1000"))
	require.NoError(t, err)
	before, err := srv.GetPortfolio(ctx, "u-1")
	require.NoError(t, err)
	assert.Empty(t, before.Positions)

	_, err = srv.Place(ctx, execution.PlaceRequest{
		UserID:     "u-1",
		Side:       model.MarketSide_Buy,
		BaseAsset:  "BTC",
		QuoteAsset: "USD",
		Size:       conv.MustFromString("1"),
		Price:      conv.MustFromString("100"),
	})
	require.NoError(t, err)

	// the event worker is not running, the read must not serve the pre-trade snapshot
	after, err := srv.GetPortfolio(ctx, "u-1")
	require.NoError(t, err)
	require.Len(t, after.Positions, 1)
	assert.Equal(t, "1", conv.Fmt(after.Positions[0].SizeAmount()))
	assert.False(t, after.IsOlderThan(before))

	_, err = srv.Deposit(ctx, "u-1", "USD", conv.MustFromString("50"))
	require.NoError(t, err)
	afterDeposit, err := srv.GetPortfolio(ctx, "u-1")
	require.NoError(t, err)
	for _, balance := range afterDeposit.Balances {
		if balance.Asset == "USD" {
			assert.Equal(t, "949.9", conv.Fmt(balance.AvailableAmount()))
		}
	}
}
