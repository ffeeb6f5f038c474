package prices

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/ericlagergren/decimal"
	"github.com/go-resty/resty/v2"
	jsoniter "github.com/json-iterator/go"
	"github.com/rs/zerolog/log"
	"gitlab.com/paramountdax-exchange/papertrade_ledger/conv"
	"gitlab.com/paramountdax-exchange/papertrade_ledger/model"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Config structure
type Config struct {
	Enabled bool
	// URL returns the cross rates as {"BTC": {"USD": "27000.1"}}
	URL      string
	Interval time.Duration
	// MaxAge is the oldest snapshot still used for pricing orders
	MaxAge time.Duration `mapstructure:"max_age"`
}

// CrossRates maps a base asset to its price in every quote asset
type CrossRates map[string]map[string]*decimal.Big

// App polls the price feed and serves the last snapshot
type App struct {
	client    *resty.Client
	url       string
	interval  time.Duration
	maxAge    time.Duration
	rates     CrossRates
	updatedAt time.Time
	lock      *sync.RWMutex
	now       func() time.Time
}

// NewApp create a new price oracle reading from the configured feed
func NewApp(cfg Config) *App {
	if cfg.Interval <= 0 {
		cfg.Interval = time.Second
	}
	if cfg.MaxAge <= 0 {
		cfg.MaxAge = 10 * time.Second
	}
	client := resty.New().
		SetTimeout(5 * time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(100 * time.Millisecond).
		SetRetryMaxWaitTime(time.Second).
		SetHeader("Accept", "application/json")

	return &App{
		client:   client,
		url:      cfg.URL,
		interval: cfg.Interval,
		maxAge:   cfg.MaxAge,
		lock:     &sync.RWMutex{},
		now:      time.Now,
	}
}

func (app *App) Start(ctx context.Context, wait *sync.WaitGroup) {
	log.Info().Str("worker", "price_oracle").Str("action", "start").Msg("Price oracle worker - started")
	ticker := time.NewTicker(app.interval)
	defer ticker.Stop()

	if err := app.update(ctx); err != nil {
		log.Error().Err(err).Str("section", "prices").Str("method", "update").Msg("Unable to load prices")
	}
	for {
		select {
		case <-ctx.Done():
			log.Info().Str("worker", "price_oracle").Str("action", "stop").Msg("Price oracle worker - stopped")
			wait.Done()
			return
		case <-ticker.C:
			if err := app.update(ctx); err != nil {
				log.Error().Err(err).Str("section", "prices").Str("method", "update").Msg("Unable to load prices")
			}
		}
	}
}

// update replaces the snapshot with the feed content
func (app *App) update(ctx context.Context) error {
	resp, err := app.client.R().SetContext(ctx).Get(app.url)
	if err != nil {
		return err
	}
	if resp.StatusCode() != http.StatusOK {
		return fmt.Errorf("invalid status code: %d (%s)", resp.StatusCode(), http.StatusText(resp.StatusCode()))
	}

	raw := map[string]map[string]jsoniter.Number{}
	if err := json.Unmarshal(resp.Body(), &raw); err != nil {
		return err
	}
	rates := make(CrossRates, len(raw))
	for base, row := range raw {
		base = strings.ToUpper(base)
		rates[base] = make(map[string]*decimal.Big, len(row))
		for quote, value := range row {
			price, err := conv.FromString(value.String())
			if err != nil {
				log.Warn().Str("section", "prices").Str("base", base).Str("quote", quote).Str("value", value.String()).Msg("Skipping invalid price")
				continue
			}
			rates[base][strings.ToUpper(quote)] = price
		}
	}

	app.lock.Lock()
	app.rates = rates
	app.updatedAt = app.now()
	app.lock.Unlock()
	return nil
}

// GetPrice returns the execution price of base in quote. Missing, stale or
// non-positive prices fail with the price invalid kind.
func (app *App) GetPrice(base, quote string) (*decimal.Big, error) {
	app.lock.RLock()
	defer app.lock.RUnlock()

	if app.rates == nil {
		return nil, model.NewExecutionError(model.ErrPriceInvalid, "no price snapshot loaded")
	}
	if age := app.now().Sub(app.updatedAt); age > app.maxAge {
		return nil, model.NewExecutionError(model.ErrPriceInvalid, "price snapshot is %s old", age.Truncate(time.Millisecond))
	}
	price, ok := app.rates[strings.ToUpper(base)][strings.ToUpper(quote)]
	if !ok {
		return nil, model.NewExecutionError(model.ErrPriceInvalid, "no price for %s/%s", base, quote)
	}
	if !conv.IsPositive(price) {
		return nil, model.NewExecutionError(model.ErrPriceInvalid, "price for %s/%s is not positive", base, quote)
	}
	return conv.CloneToPrecision(price), nil
}
