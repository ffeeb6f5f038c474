package portfolio

import (
	"context"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
	"gitlab.com/paramountdax-exchange/papertrade_ledger/events"
	"gitlab.com/paramountdax-exchange/papertrade_ledger/model"
)

// Storage is the subset of the redis client used by the cache
type Storage interface {
	Get(key string) ([]byte, bool, error)
	SetEx(key string, ttl time.Duration, value []byte) error
	Del(key string) error
}

// Cache keeps the last known portfolio snapshot of every user.
// Snapshots are advisory: balances are always checked against the store before a trade.
type Cache struct {
	storage Storage
	ttl     time.Duration
}

func New(storage Storage, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &Cache{storage: storage, ttl: ttl}
}

func key(userID string) string {
	return "portfolio__" + userID
}

// Set stores the snapshot unless the cached one is more recent
func (c *Cache) Set(portfolio *model.Portfolio) error {
	current, found, err := c.Get(portfolio.UserID)
	if err != nil {
		return err
	}
	if found && portfolio.IsOlderThan(current) {
		return nil
	}
	data, err := jsoniter.Marshal(portfolio)
	if err != nil {
		return errors.Wrap(err, "encode portfolio")
	}
	return c.storage.SetEx(key(portfolio.UserID), c.ttl, data)
}

func (c *Cache) Get(userID string) (*model.Portfolio, bool, error) {
	data, found, err := c.storage.Get(key(userID))
	if err != nil || !found {
		return nil, false, err
	}
	portfolio := &model.Portfolio{}
	if err := jsoniter.Unmarshal(data, portfolio); err != nil {
		return nil, false, errors.Wrap(err, "decode portfolio")
	}
	return portfolio, true, nil
}

// Invalidate drops the snapshot of a user so the next read goes to the store
func (c *Cache) Invalidate(userID string) error {
	return c.storage.Del(key(userID))
}

// Publish refreshes the snapshot on every portfolio event
func (c *Cache) Publish(_ context.Context, event events.Event) error {
	e, ok := event.(events.PortfolioEvent)
	if !ok || e.Portfolio == nil {
		return nil
	}
	return c.Set(e.Portfolio)
}
