// Package memory is an in-process implementation of the ledger store.
// Every (user, asset) row owns an exclusive lock; units of work buffer their
// writes and apply them at once on commit.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/pkg/errors"
	"gitlab.com/paramountdax-exchange/papertrade_ledger/conv"
	"gitlab.com/paramountdax-exchange/papertrade_ledger/model"
	"gitlab.com/paramountdax-exchange/papertrade_ledger/queries"
)

type rowKey struct {
	userID string
	asset  string
}

// rowLock is a mutex whose acquisition can be abandoned when the context ends
type rowLock chan struct{}

func newRowLock() rowLock {
	return make(rowLock, 1)
}

func (l rowLock) acquire(ctx context.Context) error {
	select {
	case l <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (l rowLock) release() {
	<-l
}

type balanceRow struct {
	lock  rowLock
	value *model.Balance // nil until the first commit creating the row
}

type positionRow struct {
	lock  rowLock
	value *model.Position
}

// Store keeps every row in memory
type Store struct {
	lock      sync.RWMutex
	balances  map[rowKey]*balanceRow
	positions map[rowKey]*positionRow
	orders    map[string]*model.Order
	sequence  []string // order ids in commit order
	trades    map[string][]*model.Trade
}

var _ queries.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		balances:  map[rowKey]*balanceRow{},
		positions: map[rowKey]*positionRow{},
		orders:    map[string]*model.Order{},
		trades:    map[string][]*model.Trade{},
	}
}

func (s *Store) balanceRow(key rowKey) *balanceRow {
	s.lock.Lock()
	defer s.lock.Unlock()
	row, ok := s.balances[key]
	if !ok {
		row = &balanceRow{lock: newRowLock()}
		s.balances[key] = row
	}
	return row
}

func (s *Store) positionRow(key rowKey) *positionRow {
	s.lock.Lock()
	defer s.lock.Unlock()
	row, ok := s.positions[key]
	if !ok {
		row = &positionRow{lock: newRowLock()}
		s.positions[key] = row
	}
	return row
}

func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, uow queries.UnitOfWork) error) error {
	u := &unitOfWork{
		ctx:       ctx,
		store:     s,
		balances:  map[rowKey]*model.Balance{},
		positions: map[rowKey]*model.Position{},
		heldBal:   map[rowKey]*balanceRow{},
		heldPos:   map[rowKey]*positionRow{},
	}
	defer u.release()

	if err := fn(ctx, u); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return errors.Wrap(err, "unit of work aborted")
	}
	return u.commit()
}

func (s *Store) Close() error {
	return nil
}

func (s *Store) GetOrder(_ context.Context, orderID string) (*model.Order, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()
	order, ok := s.orders[orderID]
	if !ok {
		return nil, model.ErrNotFound
	}
	return order.Clone(), nil
}

func (s *Store) ListOrders(_ context.Context, userID string, limit, offset int) ([]model.Order, int64, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()
	orders := []model.Order{}
	var count int64
	for i := len(s.sequence) - 1; i >= 0; i-- {
		order := s.orders[s.sequence[i]]
		if order.UserID != userID {
			continue
		}
		count++
		if count <= int64(offset) || (limit > 0 && len(orders) >= limit) {
			continue
		}
		orders = append(orders, *order.Clone())
	}
	return orders, count, nil
}

func (s *Store) ListTrades(_ context.Context, orderID string) ([]model.Trade, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()
	trades := []model.Trade{}
	for _, trade := range s.trades[orderID] {
		trades = append(trades, *trade.Clone())
	}
	return trades, nil
}

func (s *Store) GetBalances(ctx context.Context, userID string) ([]model.Balance, error) {
	balances, err := s.ListAllBalances(ctx)
	if err != nil {
		return nil, err
	}
	filtered := []model.Balance{}
	for _, balance := range balances {
		if balance.UserID == userID {
			filtered = append(filtered, balance)
		}
	}
	return filtered, nil
}

func (s *Store) GetPositions(ctx context.Context, userID string) ([]model.Position, error) {
	positions, err := s.ListAllPositions(ctx)
	if err != nil {
		return nil, err
	}
	filtered := []model.Position{}
	for _, position := range positions {
		if position.UserID == userID {
			filtered = append(filtered, position)
		}
	}
	return filtered, nil
}

func (s *Store) ListAllBalances(_ context.Context) ([]model.Balance, error) {
	s.lock.RLock()
	balances := []model.Balance{}
	for _, row := range s.balances {
		if row.value != nil {
			balances = append(balances, *row.value.Clone())
		}
	}
	s.lock.RUnlock()
	sort.Slice(balances, func(i, j int) bool {
		if balances[i].UserID != balances[j].UserID {
			return balances[i].UserID < balances[j].UserID
		}
		return balances[i].Asset < balances[j].Asset
	})
	return balances, nil
}

func (s *Store) ListAllPositions(_ context.Context) ([]model.Position, error) {
	s.lock.RLock()
	positions := []model.Position{}
	for _, row := range s.positions {
		if row.value != nil {
			positions = append(positions, *row.value.Clone())
		}
	}
	s.lock.RUnlock()
	sort.Slice(positions, func(i, j int) bool {
		if positions[i].UserID != positions[j].UserID {
			return positions[i].UserID < positions[j].UserID
		}
		return positions[i].Asset < positions[j].Asset
	})
	return positions, nil
}

type unitOfWork struct {
	ctx       context.Context
	store     *Store
	balances  map[rowKey]*model.Balance
	positions map[rowKey]*model.Position
	orders    []*model.Order
	trades    []*model.Trade
	heldBal   map[rowKey]*balanceRow
	heldPos   map[rowKey]*positionRow
	done      bool
}

func (u *unitOfWork) lockBalanceRow(key rowKey) (*balanceRow, error) {
	if row, ok := u.heldBal[key]; ok {
		return row, nil
	}
	row := u.store.balanceRow(key)
	if err := row.lock.acquire(u.ctx); err != nil {
		return nil, errors.Wrapf(err, "lock balance %s/%s", key.userID, key.asset)
	}
	u.heldBal[key] = row
	return row, nil
}

func (u *unitOfWork) lockPositionRow(key rowKey) (*positionRow, error) {
	if row, ok := u.heldPos[key]; ok {
		return row, nil
	}
	row := u.store.positionRow(key)
	if err := row.lock.acquire(u.ctx); err != nil {
		return nil, errors.Wrapf(err, "lock position %s/%s", key.userID, key.asset)
	}
	u.heldPos[key] = row
	return row, nil
}

func (u *unitOfWork) LockBalance(userID, asset string, create bool) (*model.Balance, error) {
	key := rowKey{userID, asset}
	row, err := u.lockBalanceRow(key)
	if err != nil {
		return nil, err
	}
	if pending, ok := u.balances[key]; ok {
		return pending.Clone(), nil
	}
	// the row lock is held, so value only changes through this unit of work
	if row.value != nil {
		return row.value.Clone(), nil
	}
	if !create {
		return nil, nil
	}
	balance := model.NewBalance(userID, asset, time.Now())
	u.balances[key] = balance
	return balance.Clone(), nil
}

func (u *unitOfWork) SaveBalance(balance *model.Balance) error {
	key := rowKey{balance.UserID, balance.Asset}
	if _, ok := u.heldBal[key]; !ok {
		return model.NewExecutionError(model.ErrInvariantViolation, "balance %s/%s saved without lock", key.userID, key.asset)
	}
	if conv.IsNegative(balance.AvailableAmount()) || conv.IsNegative(balance.LockedAmount()) {
		return model.NewExecutionError(model.ErrInvariantViolation, "constraint balances_amounts_check violated")
	}
	saved := balance.Clone()
	saved.UpdatedAt = time.Now()
	u.balances[key] = saved
	return nil
}

func (u *unitOfWork) LockPosition(userID, asset string) (*model.Position, error) {
	key := rowKey{userID, asset}
	row, err := u.lockPositionRow(key)
	if err != nil {
		return nil, err
	}
	if pending, ok := u.positions[key]; ok {
		return pending.Clone(), nil
	}
	if row.value != nil {
		return row.value.Clone(), nil
	}
	position := model.NewPosition(userID, asset, time.Now())
	u.positions[key] = position
	return position.Clone(), nil
}

func (u *unitOfWork) SavePosition(position *model.Position) error {
	key := rowKey{position.UserID, position.Asset}
	if _, ok := u.heldPos[key]; !ok {
		return model.NewExecutionError(model.ErrInvariantViolation, "position %s/%s saved without lock", key.userID, key.asset)
	}
	if conv.IsNegative(position.SizeAmount()) {
		return model.NewExecutionError(model.ErrInvariantViolation, "constraint positions_size_check violated")
	}
	saved := position.Clone()
	saved.UpdatedAt = time.Now()
	u.positions[key] = saved
	return nil
}

func (u *unitOfWork) InsertOrder(order *model.Order) error {
	u.store.lock.RLock()
	_, exists := u.store.orders[order.ID]
	u.store.lock.RUnlock()
	for _, pending := range u.orders {
		exists = exists || pending.ID == order.ID
	}
	if exists {
		return errors.Errorf("store: duplicate order id %s", order.ID)
	}
	u.orders = append(u.orders, order.Clone())
	return nil
}

func (u *unitOfWork) InsertTrade(trade *model.Trade) error {
	found := false
	for _, pending := range u.orders {
		found = found || pending.ID == trade.OrderID
	}
	if !found {
		u.store.lock.RLock()
		_, found = u.store.orders[trade.OrderID]
		u.store.lock.RUnlock()
	}
	if !found {
		return errors.Errorf("store: trade %s references unknown order %s", trade.ID, trade.OrderID)
	}
	u.trades = append(u.trades, trade.Clone())
	return nil
}

func (u *unitOfWork) commit() error {
	s := u.store
	s.lock.Lock()
	defer s.lock.Unlock()
	for key, balance := range u.balances {
		s.balances[key].value = balance
	}
	for key, position := range u.positions {
		s.positions[key].value = position
	}
	for _, order := range u.orders {
		s.orders[order.ID] = order
		s.sequence = append(s.sequence, order.ID)
	}
	for _, trade := range u.trades {
		s.trades[trade.OrderID] = append(s.trades[trade.OrderID], trade)
	}
	return nil
}

func (u *unitOfWork) release() {
	if u.done {
		return
	}
	u.done = true
	for _, row := range u.heldBal {
		row.lock.release()
	}
	for _, row := range u.heldPos {
		row.lock.release()
	}
}
