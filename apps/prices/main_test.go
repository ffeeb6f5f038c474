package prices

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gitlab.com/paramountdax-exchange/papertrade_ledger/conv"
	"gitlab.com/paramountdax-exchange/papertrade_ledger/model"
)

func feed(t *testing.T, status int, body string) *httptest.Server {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestApp_GetPrice(t *testing.T) {
	srv := feed(t, http.StatusOK, `{"btc": {"usd": 27000.125, "eur": "25000"}, "eth": {"usd": 0, "btc": "abc"}}`)
	app := NewApp(Config{URL: srv.URL, MaxAge: time.Minute})

	_, err := app.GetPrice("BTC", "USD")
	assert.True(t, errors.Is(err, model.ErrPriceInvalid))

	require.NoError(t, app.update(context.Background()))

	price, err := app.GetPrice("BTC", "USD")
	require.NoError(t, err)
	assert.Equal(t, "27000.125", conv.Fmt(price))

	price, err = app.GetPrice("btc", "eur")
	require.NoError(t, err)
	assert.Equal(t, "25000", conv.Fmt(price))

	_, err = app.GetPrice("ETH", "USD")
	assert.True(t, errors.Is(err, model.ErrPriceInvalid))

	_, err = app.GetPrice("ETH", "BTC")
	assert.True(t, errors.Is(err, model.ErrPriceInvalid))

	_, err = app.GetPrice("SOL", "USD")
	assert.True(t, errors.Is(err, model.ErrPriceInvalid))
}

func TestApp_StaleSnapshot(t *testing.T) {
	srv := feed(t, http.StatusOK, `{"BTC": {"USD": "100"}}`)
	app := NewApp(Config{URL: srv.URL, MaxAge: time.Second})
	require.NoError(t, app.update(context.Background()))

	app.now = func() time.Time { return time.Now().Add(time.Minute) }
	_, err := app.GetPrice("BTC", "USD")
	assert.True(t, errors.Is(err, model.ErrPriceInvalid))
}

func TestApp_UpdateFailures(t *testing.T) {
	srv := feed(t, http.StatusServiceUnavailable, `{}`)
	app := NewApp(Config{URL: srv.URL})
	app.client.SetRetryCount(0)
	assert.Error(t, app.update(context.Background()))

	srv = feed(t, http.StatusOK, `not json`)
	app = NewApp(Config{URL: srv.URL})
	assert.Error(t, app.update(context.Background()))
}

func TestApp_StartStops(t *testing.T) {
	srv := feed(t, http.StatusOK, `{"BTC": {"USD": "100"}}`)
	app := NewApp(Config{URL: srv.URL, Interval: 10 * time.Millisecond})

	ctx, cancel := context.WithCancel(context.Background())
	wait := &sync.WaitGroup{}
	wait.Add(1)
	go app.Start(ctx, wait)

	require.Eventually(t, func() bool {
		_, err := app.GetPrice("BTC", "USD")
		return err == nil
	}, time.Second, 10*time.Millisecond)
	cancel()
	wait.Wait()
}
