package queries

import (
	"context"
	"time"

	"gitlab.com/paramountdax-exchange/papertrade_ledger/model"
	"gorm.io/gorm/clause"
)

func (u *unitOfWork) LockPosition(userID, asset string) (*model.Position, error) {
	position, err := u.lockPosition(userID, asset)
	if err != nil || position != nil {
		return position, err
	}
	if err := u.tx.Clauses(clause.OnConflict{DoNothing: true}).Create(model.NewPosition(userID, asset, time.Now())).Error; err != nil {
		return nil, classify(err)
	}
	position, err = u.lockPosition(userID, asset)
	if err == nil && position == nil {
		return nil, model.NewExecutionError(model.ErrInvariantViolation, "position %s/%s missing after creation", userID, asset)
	}
	return position, err
}

func (u *unitOfWork) lockPosition(userID, asset string) (*model.Position, error) {
	var positions []model.Position
	err := u.tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ? AND asset = ?", userID, asset).
		Limit(1).
		Find(&positions).Error
	if err != nil {
		return nil, classify(err)
	}
	if len(positions) == 0 {
		return nil, nil
	}
	return &positions[0], nil
}

func (u *unitOfWork) SavePosition(position *model.Position) error {
	position.UpdatedAt = time.Now()
	res := u.tx.Model(&model.Position{}).
		Where("user_id = ? AND asset = ?", position.UserID, position.Asset).
		Updates(map[string]interface{}{
			"size":            position.Size,
			"avg_entry_price": position.AvgEntryPrice,
			"updated_at":      position.UpdatedAt,
		})
	if res.Error != nil {
		return classify(res.Error)
	}
	if res.RowsAffected == 0 {
		return model.NewExecutionError(model.ErrInvariantViolation, "position %s/%s is not persisted", position.UserID, position.Asset)
	}
	return nil
}

func (repo *Repo) GetPositions(ctx context.Context, userID string) ([]model.Position, error) {
	positions := []model.Position{}
	err := repo.ConnReader.WithContext(ctx).Where("user_id = ?", userID).Order("asset").Find(&positions).Error
	return positions, classify(err)
}

func (repo *Repo) ListAllPositions(ctx context.Context) ([]model.Position, error) {
	positions := []model.Position{}
	err := repo.ConnReader.WithContext(ctx).Order("user_id, asset").Find(&positions).Error
	return positions, classify(err)
}
