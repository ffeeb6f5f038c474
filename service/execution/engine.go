package execution

import (
	"context"
	"time"

	"github.com/ericlagergren/decimal"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gitlab.com/paramountdax-exchange/papertrade_ledger/conv"
	"gitlab.com/paramountdax-exchange/papertrade_ledger/events"
	"gitlab.com/paramountdax-exchange/papertrade_ledger/model"
	"gitlab.com/paramountdax-exchange/papertrade_ledger/queries"
	"gitlab.com/paramountdax-exchange/papertrade_ledger/service/fees"
	"gitlab.com/paramountdax-exchange/papertrade_ledger/service/fms"
	"gitlab.com/paramountdax-exchange/papertrade_ledger/service/oms"
	"gitlab.com/paramountdax-exchange/papertrade_ledger/service/positions"
)

const notifyTimeout = 2 * time.Second

// Options holds the process scoped policy of the engine
type Options struct {
	MinPositionSize *decimal.Big
	// PlaceTimeout bounds a placement whose context carries no deadline
	PlaceTimeout time.Duration
	// QuoteAssets are the only assets accepted as quote, and never accepted as base.
	// Locking quote before base is a total order only while the two sets stay disjoint.
	QuoteAssets []string
}

// Engine executes market orders. Each placement is one unit of work locking the
// quote balance, the base balance and the base position, in that order.
type Engine struct {
	store     queries.Store
	fees      *fees.Engine
	funds     *fms.FundsEngine
	positions *positions.Tracker
	recorder  *oms.OMS
	sink      events.Sink
	quotes    map[string]bool
	opts      Options
}

func New(store queries.Store, feeEngine *fees.Engine, funds *fms.FundsEngine, recorder *oms.OMS, sink events.Sink, opts Options) *Engine {
	if sink == nil {
		sink = events.Nop{}
	}
	if opts.MinPositionSize == nil {
		opts.MinPositionSize = conv.NewDecimalWithPrecision()
	}
	quotes := make(map[string]bool, len(opts.QuoteAssets))
	for _, asset := range opts.QuoteAssets {
		quotes[asset] = true
	}
	return &Engine{
		quotes:    quotes,
		store:     store,
		fees:      feeEngine,
		funds:     funds,
		positions: positions.NewTracker(),
		recorder:  recorder,
		sink:      sink,
		opts:      opts,
	}
}

// Place fills the whole requested size at the supplied price or changes nothing
func (e *Engine) Place(ctx context.Context, req PlaceRequest) (*Result, error) {
	start := time.Now()
	logger := log.With().
		Str("section", "execution").
		Str("method", "Place").
		Str("user_id", req.UserID).
		Str("side", req.Side.String()).
		Str("base", req.BaseAsset).
		Str("quote", req.QuoteAsset).
		Logger()

	if err := e.validate(req); err != nil {
		e.reject(logger, err)
		return nil, err
	}

	if _, ok := ctx.Deadline(); !ok && e.opts.PlaceTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.opts.PlaceTimeout)
		defer cancel()
	}

	fee := e.fees.Fee(req.Price, req.Size)
	var result fill
	err := e.store.WithinTx(ctx, func(ctx context.Context, uow queries.UnitOfWork) error {
		var err error
		result, err = e.execute(uow, req, fee)
		return err
	})
	placeDuration.WithLabelValues(req.Side.String()).Observe(time.Since(start).Seconds())
	if err != nil {
		e.reject(logger, err)
		return nil, err
	}

	ordersPlaced.WithLabelValues(req.Side.String()).Inc()
	logger.Info().
		Str("order_id", result.order.ID).
		Str("size", conv.Fmt(req.Size)).
		Str("price", conv.Fmt(req.Price)).
		Str("fee", conv.Fmt(fee)).
		Msg("Order filled")

	e.notify(req, result)

	return &Result{
		OrderID:       result.order.ID,
		TradeID:       result.trade.ID,
		ExecutedSize:  model.DecimalOrZero(result.trade.ExecutedSize),
		ExecutedPrice: model.DecimalOrZero(result.trade.ExecutedPrice),
		FeesApplied:   model.DecimalOrZero(result.order.FeesApplied),
		Status:        result.order.Status,
	}, nil
}

func (e *Engine) validate(req PlaceRequest) error {
	if req.UserID == "" {
		return model.NewExecutionError(model.ErrValidation, "user id is required")
	}
	if !req.Side.IsValid() {
		return model.NewExecutionError(model.ErrValidation, "invalid side %q", req.Side)
	}
	if req.BaseAsset == "" || req.QuoteAsset == "" {
		return model.NewExecutionError(model.ErrValidation, "base and quote assets are required")
	}
	if req.BaseAsset == req.QuoteAsset {
		return model.NewExecutionError(model.ErrValidation, "base and quote assets must differ")
	}
	if !e.quotes[req.QuoteAsset] {
		return model.NewExecutionError(model.ErrValidation, "%s is not a quote asset", req.QuoteAsset)
	}
	if e.quotes[req.BaseAsset] {
		return model.NewExecutionError(model.ErrValidation, "quote asset %s cannot be traded as base", req.BaseAsset)
	}
	if !conv.IsPositive(req.Size) {
		return model.NewExecutionError(model.ErrValidation, "size must be a positive number")
	}
	if !conv.FitsPrecision(req.Size) {
		return model.NewExecutionError(model.ErrValidation, "size %s has more than %d fractional digits", req.Size, conv.Precision)
	}
	if req.Size.Cmp(e.opts.MinPositionSize) < 0 {
		return model.NewExecutionError(model.ErrValidation, "size %s is below the minimum of %s",
			conv.Fmt(req.Size), conv.Fmt(e.opts.MinPositionSize))
	}
	if !conv.IsPositive(req.Price) {
		return model.NewExecutionError(model.ErrPriceInvalid, "price must be a positive finite number")
	}
	if !conv.FitsPrecision(req.Price) {
		return model.NewExecutionError(model.ErrPriceInvalid, "price %s has more than %d fractional digits", req.Price, conv.Precision)
	}
	return nil
}

func (e *Engine) execute(uow queries.UnitOfWork, req PlaceRequest, fee *decimal.Big) (fill, error) {
	quote, err := e.funds.LockForUpdate(uow, req.UserID, req.QuoteAsset, false)
	if err != nil {
		return fill{}, err
	}
	if quote == nil {
		return fill{}, model.NewExecutionError(model.ErrInsufficientBalance, "no %s balance", req.QuoteAsset)
	}
	base, err := e.funds.LockForUpdate(uow, req.UserID, req.BaseAsset, true)
	if err != nil {
		return fill{}, err
	}
	position, err := e.positions.LockForUpdate(uow, req.UserID, req.BaseAsset)
	if err != nil {
		return fill{}, err
	}

	var result fill
	switch req.Side {
	case model.MarketSide_Buy:
		err = e.buy(uow, req, fee, quote, base, position)
	case model.MarketSide_Sell:
		result.realizedPnL, err = e.sell(uow, req, fee, quote, base, position)
	}
	if err != nil {
		return fill{}, err
	}

	result.order, result.trade, err = e.recorder.RecordFill(uow, oms.FillRequest{
		UserID:     req.UserID,
		Side:       req.Side,
		BaseAsset:  req.BaseAsset,
		QuoteAsset: req.QuoteAsset,
		Size:       req.Size,
		Price:      req.Price,
		Fee:        fee,
	})
	if err != nil {
		return fill{}, err
	}
	return result, nil
}

func (e *Engine) buy(uow queries.UnitOfWork, req PlaceRequest, fee *decimal.Big, quote, base *model.Balance, position *model.Position) error {
	total := conv.Add(conv.Mul(req.Size, req.Price), fee)
	if quote.AvailableAmount().Cmp(total) < 0 {
		return model.NewExecutionError(model.ErrInsufficientBalance, "%s available %s, needed %s",
			req.QuoteAsset, conv.Fmt(quote.AvailableAmount()), conv.Fmt(total))
	}

	if err := e.funds.ApplyDelta(uow, quote, conv.Neg(total), fms.Zero()); err != nil {
		return err
	}
	if err := e.funds.ApplyDelta(uow, base, req.Size, fms.Zero()); err != nil {
		return err
	}
	return e.positions.Save(uow, e.positions.ApplyBuy(position, req.Price, req.Size))
}

func (e *Engine) sell(uow queries.UnitOfWork, req PlaceRequest, fee *decimal.Big, quote, base *model.Balance, position *model.Position) (*decimal.Big, error) {
	balanceShort := base.AvailableAmount().Cmp(req.Size) < 0
	positionShort := position.SizeAmount().Cmp(req.Size) < 0
	switch {
	case balanceShort && positionShort:
		return nil, model.NewExecutionError(model.ErrInsufficientPosition, "%s position %s, cannot sell %s",
			req.BaseAsset, conv.Fmt(position.SizeAmount()), conv.Fmt(req.Size))
	case balanceShort || positionShort:
		log.Error().Str("section", "execution").Str("method", "sell").
			Str("user_id", req.UserID).
			Str("asset", req.BaseAsset).
			Str("available", conv.Fmt(base.AvailableAmount())).
			Str("position", conv.Fmt(position.SizeAmount())).
			Msg("Balance and position diverged")
		return nil, model.NewExecutionError(model.ErrInvariantViolation, "%s available %s diverges from position %s",
			req.BaseAsset, conv.Fmt(base.AvailableAmount()), conv.Fmt(position.SizeAmount()))
	}

	avgAtSale := conv.CloneToPrecision(position.AvgEntryPriceAmount())
	proceeds := conv.Sub(conv.Mul(req.Size, req.Price), fee)

	if err := e.funds.ApplyDelta(uow, base, conv.Neg(req.Size), fms.Zero()); err != nil {
		return nil, err
	}
	if err := e.funds.ApplyDelta(uow, quote, proceeds, fms.Zero()); err != nil {
		return nil, err
	}
	next, err := e.positions.ApplySell(position, req.Size)
	if err != nil {
		return nil, err
	}
	if err := e.positions.Save(uow, next); err != nil {
		return nil, err
	}
	return positions.RealizedPnL(req.Price, avgAtSale, req.Size, fee), nil
}

func (e *Engine) reject(logger zerolog.Logger, err error) {
	kind := model.Kind(err)
	label := "store"
	if kind != nil {
		label = kind.Error()
	}
	ordersRejected.WithLabelValues(label).Inc()

	switch kind {
	case model.ErrInvariantViolation, nil:
		logger.Error().Err(err).Msg("Order rejected")
	default:
		logger.Warn().Str("kind", label).Str("reason", model.Reason(err)).Msg("Order rejected")
	}
}

// notify publishes the committed fill. The trade is final at this point, sink
// failures are logged and never returned.
func (e *Engine) notify(req PlaceRequest, result fill) {
	ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
	defer cancel()
	logger := log.With().Str("section", "execution").Str("method", "notify").Str("order_id", result.order.ID).Logger()

	trade := events.TradeEvent{
		OrderID:       result.order.ID,
		TradeID:       result.trade.ID,
		UserID:        req.UserID,
		Side:          req.Side,
		BaseAsset:     req.BaseAsset,
		QuoteAsset:    req.QuoteAsset,
		ExecutedPrice: conv.Fmt(model.DecimalOrZero(result.trade.ExecutedPrice)),
		ExecutedSize:  conv.Fmt(model.DecimalOrZero(result.trade.ExecutedSize)),
		Fee:           conv.Fmt(model.DecimalOrZero(result.trade.Fee)),
		CreatedAt:     result.trade.CreatedAt.Unix(),
	}
	if result.realizedPnL != nil {
		trade.RealizedPnL = conv.Fmt(result.realizedPnL)
	}
	if err := e.sink.Publish(ctx, trade); err != nil {
		logger.Error().Err(err).Msg("Unable to publish trade event")
	}

	portfolio, err := e.Portfolio(ctx, req.UserID)
	if err != nil {
		logger.Error().Err(err).Msg("Unable to load portfolio snapshot")
		return
	}
	if err := e.sink.Publish(ctx, events.PortfolioEvent{Portfolio: portfolio}); err != nil {
		logger.Error().Err(err).Msg("Unable to publish portfolio event")
	}
}

// Portfolio reads the committed balances and positions of a user
func (e *Engine) Portfolio(ctx context.Context, userID string) (*model.Portfolio, error) {
	balances, err := e.store.GetBalances(ctx, userID)
	if err != nil {
		return nil, err
	}
	positionList, err := e.store.GetPositions(ctx, userID)
	if err != nil {
		return nil, err
	}
	return model.NewPortfolio(userID, balances, positionList), nil
}
