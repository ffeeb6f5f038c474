package queries

import (
	"context"

	"github.com/pkg/errors"
	"gitlab.com/paramountdax-exchange/papertrade_ledger/model"
	"gorm.io/gorm"
)

func (u *unitOfWork) InsertOrder(order *model.Order) error {
	return classify(u.tx.Create(order).Error)
}

func (u *unitOfWork) InsertTrade(trade *model.Trade) error {
	return classify(u.tx.Create(trade).Error)
}

func (repo *Repo) GetOrder(ctx context.Context, orderID string) (*model.Order, error) {
	order := &model.Order{}
	err := repo.ConnReader.WithContext(ctx).Where("id = ?", orderID).First(order).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, model.ErrNotFound
	}
	if err != nil {
		return nil, classify(err)
	}
	return order, nil
}

// ListOrders returns a page of the orders of a user, newest first, and the total count
func (repo *Repo) ListOrders(ctx context.Context, userID string, limit, offset int) ([]model.Order, int64, error) {
	var count int64
	db := repo.ConnReader.WithContext(ctx).Model(&model.Order{}).Where("user_id = ?", userID)
	if err := db.Count(&count).Error; err != nil {
		return nil, 0, classify(err)
	}
	orders := []model.Order{}
	err := repo.ConnReader.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Offset(offset).
		Find(&orders).Error
	if err != nil {
		return nil, 0, classify(err)
	}
	return orders, count, nil
}

func (repo *Repo) ListTrades(ctx context.Context, orderID string) ([]model.Trade, error) {
	trades := []model.Trade{}
	err := repo.ConnReader.WithContext(ctx).Where("order_id = ?", orderID).Order("created_at, id").Find(&trades).Error
	return trades, classify(err)
}
