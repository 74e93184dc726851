package repository

import (
	"context"

	"shoporder/internal/domain/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ShopGormRepository struct {
	db *gorm.DB
}

func NewShopGormRepository(db *gorm.DB) *ShopGormRepository {
	return &ShopGormRepository{db: db}
}

func (r *ShopGormRepository) Get(ctx context.Context) (model.ShopInfo, error) {
	var info model.ShopInfo
	if err := r.db.WithContext(ctx).First(&info, model.ShopInfoID).Error; err != nil {
		return model.ShopInfo{}, translate(err)
	}
	return info, nil
}

// id=1 に upsert
func (r *ShopGormRepository) Save(ctx context.Context, info model.ShopInfo) error {
	info.ID = model.ShopInfoID
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			UpdateAll: true,
		}).
		Create(&info).Error
	return translate(err)
}
