package queries

import (
	"context"
	"time"

	"gitlab.com/paramountdax-exchange/papertrade_ledger/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func (u *unitOfWork) LockBalance(userID, asset string, create bool) (*model.Balance, error) {
	balance, err := lockBalance(u.tx, userID, asset)
	if err != nil || balance != nil || !create {
		return balance, err
	}
	// a concurrent creator may win the insert, the second lock then waits for it
	if err := u.tx.Clauses(clause.OnConflict{DoNothing: true}).Create(model.NewBalance(userID, asset, time.Now())).Error; err != nil {
		return nil, classify(err)
	}
	balance, err = lockBalance(u.tx, userID, asset)
	if err == nil && balance == nil {
		return nil, model.NewExecutionError(model.ErrInvariantViolation, "balance %s/%s missing after creation", userID, asset)
	}
	return balance, err
}

func lockBalance(tx *gorm.DB, userID, asset string) (*model.Balance, error) {
	var balances []model.Balance
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ? AND asset = ?", userID, asset).
		Limit(1).
		Find(&balances).Error
	if err != nil {
		return nil, classify(err)
	}
	if len(balances) == 0 {
		return nil, nil
	}
	return &balances[0], nil
}

func (u *unitOfWork) SaveBalance(balance *model.Balance) error {
	balance.UpdatedAt = time.Now()
	res := u.tx.Model(&model.Balance{}).
		Where("user_id = ? AND asset = ?", balance.UserID, balance.Asset).
		Updates(map[string]interface{}{
			"available":  balance.Available,
			"locked":     balance.Locked,
			"updated_at": balance.UpdatedAt,
		})
	if res.Error != nil {
		return classify(res.Error)
	}
	if res.RowsAffected == 0 {
		return model.NewExecutionError(model.ErrInvariantViolation, "balance %s/%s is not persisted", balance.UserID, balance.Asset)
	}
	return nil
}

func (repo *Repo) GetBalances(ctx context.Context, userID string) ([]model.Balance, error) {
	balances := []model.Balance{}
	err := repo.ConnReader.WithContext(ctx).Where("user_id = ?", userID).Order("asset").Find(&balances).Error
	return balances, classify(err)
}

func (repo *Repo) ListAllBalances(ctx context.Context) ([]model.Balance, error) {
	balances := []model.Balance{}
	err := repo.ConnReader.WithContext(ctx).Order("user_id, asset").Find(&balances).Error
	return balances, classify(err)
}
