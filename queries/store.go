package queries

import (
	"context"
	"errors"

	"gitlab.com/paramountdax-exchange/papertrade_ledger/model"
)

// ErrConflict is returned when the store aborted a unit of work because of a
// serialization failure, a deadlock or a lock wait timeout
var ErrConflict = errors.New("STORE_CONFLICT")

// UnitOfWork is bound to a single atomic transaction. Rows returned by the
// Lock methods stay exclusively locked until the transaction ends.
type UnitOfWork interface {
	// LockBalance returns nil without error when the row is missing and create is false
	LockBalance(userID, asset string, create bool) (*model.Balance, error)
	SaveBalance(balance *model.Balance) error
	// LockPosition creates the zero position when it does not exist yet
	LockPosition(userID, asset string) (*model.Position, error)
	SavePosition(position *model.Position) error
	InsertOrder(order *model.Order) error
	InsertTrade(trade *model.Trade) error
}

// Reader exposes committed data only
type Reader interface {
	GetOrder(ctx context.Context, orderID string) (*model.Order, error)
	ListOrders(ctx context.Context, userID string, limit, offset int) ([]model.Order, int64, error)
	ListTrades(ctx context.Context, orderID string) ([]model.Trade, error)
	GetBalances(ctx context.Context, userID string) ([]model.Balance, error)
	GetPositions(ctx context.Context, userID string) ([]model.Position, error)
	ListAllBalances(ctx context.Context) ([]model.Balance, error)
	ListAllPositions(ctx context.Context) ([]model.Position, error)
}

// Store runs units of work and serves reads
type Store interface {
	Reader
	// WithinTx commits when fn returns nil and the context is still alive, and rolls back otherwise
	WithinTx(ctx context.Context, fn func(ctx context.Context, uow UnitOfWork) error) error
	Close() error
}
