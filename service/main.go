package service

import (
	"context"
	"sync"

	"github.com/ericlagergren/decimal"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	cache "gitlab.com/paramountdax-exchange/papertrade_ledger/cache/portfolio"
	"gitlab.com/paramountdax-exchange/papertrade_ledger/config"
	"gitlab.com/paramountdax-exchange/papertrade_ledger/crons"
	"gitlab.com/paramountdax-exchange/papertrade_ledger/events"
	"gitlab.com/paramountdax-exchange/papertrade_ledger/model"
	"gitlab.com/paramountdax-exchange/papertrade_ledger/queries"
	"gitlab.com/paramountdax-exchange/papertrade_ledger/service/execution"
	"gitlab.com/paramountdax-exchange/papertrade_ledger/service/fees"
	"gitlab.com/paramountdax-exchange/papertrade_ledger/service/fms"
	"gitlab.com/paramountdax-exchange/papertrade_ledger/service/oms"
)

const eventQueueSize = 4096

// PriceOracle supplies execution prices for orders placed without one
type PriceOracle interface {
	GetPrice(baseAsset, quoteAsset string) (*decimal.Big, error)
}

// Service structure
type Service struct {
	cfg         config.Config
	store       queries.Store
	cache       *cache.Cache
	prices      PriceOracle
	dispatcher  *events.Dispatcher
	OMS         *oms.OMS
	FundsEngine *fms.FundsEngine
	Engine      *execution.Engine
}

// NewService constructor. The portfolio cache is optional, sinks receive every committed event.
func NewService(cfg config.Config, store queries.Store, portfolioCache *cache.Cache, sinks ...events.Sink) (*Service, error) {
	rate, err := cfg.Ledger.GetFeeRate()
	if err != nil {
		return nil, err
	}
	feeEngine, err := fees.New(rate)
	if err != nil {
		return nil, errors.Wrap(err, "ledger.fee_rate")
	}
	minSize, err := cfg.Ledger.GetMinPositionSize()
	if err != nil {
		return nil, err
	}
	if minSize.Sign() < 0 {
		return nil, errors.New("ledger.min_position_size must not be negative")
	}
	if len(cfg.Ledger.QuoteAssets) == 0 {
		return nil, errors.New("ledger.quote_assets must list at least one asset")
	}

	if portfolioCache != nil {
		sinks = append(sinks, portfolioCache)
	}
	dispatcher := events.NewDispatcher(eventQueueSize, 0, sinks...)

	omsInstance := oms.Init(store, feeEngine)
	fmsInstance := fms.Init(store)
	engine := execution.New(store, feeEngine, fmsInstance, omsInstance, dispatcher, execution.Options{
		MinPositionSize: minSize,
		PlaceTimeout:    cfg.Ledger.PlaceTimeout,
		QuoteAssets:     cfg.Ledger.QuoteAssets,
	})

	log.Info().Str("section", "service").
		Str("fee_rate", cfg.Ledger.FeeRate).
		Str("min_position_size", cfg.Ledger.MinPositionSize).
		Dur("place_timeout", cfg.Ledger.PlaceTimeout).
		Strs("quote_assets", cfg.Ledger.QuoteAssets).
		Bool("portfolio_cache", portfolioCache != nil).
		Msg("Ledger service initialized")

	return &Service{
		cfg:         cfg,
		store:       store,
		cache:       portfolioCache,
		dispatcher:  dispatcher,
		OMS:         omsInstance,
		FundsEngine: fmsInstance,
		Engine:      engine,
	}, nil
}

// ProcessEvents delivers committed events to the sinks until the context is cancelled
func (s *Service) ProcessEvents(ctx context.Context, wait *sync.WaitGroup) {
	s.dispatcher.Process(ctx, wait)
}

// StartCrons schedules the configured background jobs
func (s *Service) StartCrons() {
	crons.Start(s.cfg.Crons, s.store)
}

func (s *Service) CloseCrons() {
	crons.Close()
}

// Close the store
func (s *Service) Close() {
	if err := s.store.Close(); err != nil {
		log.Error().Err(err).Str("section", "service").Msg("Unable to close store")
	}
}

// SetPriceOracle enables placing orders without an explicit price
func (s *Service) SetPriceOracle(oracle PriceOracle) {
	s.prices = oracle
}

// Place executes a market order. A missing price is taken from the oracle when one is set.
func (s *Service) Place(ctx context.Context, req execution.PlaceRequest) (*execution.Result, error) {
	if req.Price == nil {
		if s.prices == nil {
			return nil, model.NewExecutionError(model.ErrPriceInvalid, "price is required")
		}
		price, err := s.prices.GetPrice(req.BaseAsset, req.QuoteAsset)
		if err != nil {
			return nil, err
		}
		req.Price = price
	}
	result, err := s.Engine.Place(ctx, req)
	if err != nil {
		return nil, err
	}
	s.invalidatePortfolio(req.UserID)
	return result, nil
}

// invalidatePortfolio drops the cached snapshot once a change is committed.
// The queued post-commit snapshot refills it.
func (s *Service) invalidatePortfolio(userID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(userID); err != nil {
		log.Warn().Err(err).Str("section", "service").Str("user_id", userID).Msg("Unable to invalidate portfolio cache")
	}
}

func (s *Service) GetOrder(ctx context.Context, orderID string) (*model.Order, error) {
	return s.OMS.GetOrder(ctx, orderID)
}

func (s *Service) ListOrders(ctx context.Context, userID string, limit, page int) (*model.OrderList, error) {
	return s.OMS.ListOrders(ctx, userID, limit, page)
}

func (s *Service) GetTrades(ctx context.Context, orderID string) ([]model.Trade, error) {
	return s.OMS.ListTrades(ctx, orderID)
}

// GetPortfolio returns the cached snapshot when one exists, the store otherwise
func (s *Service) GetPortfolio(ctx context.Context, userID string) (*model.Portfolio, error) {
	logger := log.With().Str("section", "service").Str("method", "GetPortfolio").Str("user_id", userID).Logger()
	if s.cache != nil {
		portfolio, found, err := s.cache.Get(userID)
		if err != nil {
			logger.Warn().Err(err).Msg("Unable to read portfolio cache")
		}
		if found {
			return portfolio, nil
		}
	}

	portfolio, err := s.Engine.Portfolio(ctx, userID)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		if err := s.cache.Set(portfolio); err != nil {
			logger.Warn().Err(err).Msg("Unable to update portfolio cache")
		}
	}
	return portfolio, nil
}

// Deposit funds the account of a user and refreshes its portfolio snapshot
func (s *Service) Deposit(ctx context.Context, userID, asset string, amount *decimal.Big) (*model.Balance, error) {
	balance, err := s.FundsEngine.Deposit(ctx, userID, asset, amount)
	if err != nil {
		return nil, err
	}
	s.invalidatePortfolio(userID)
	portfolio, err := s.Engine.Portfolio(ctx, userID)
	if err != nil {
		log.Error().Err(err).Str("section", "service").Str("method", "Deposit").Str("user_id", userID).Msg("Unable to load portfolio snapshot")
		return balance, nil
	}
	_ = s.dispatcher.Publish(ctx, events.PortfolioEvent{Portfolio: portfolio})
	return balance, nil
}
