package repository

import (
	"context"
	"errors"

	"shoporder/internal/domain/model"
	repo "shoporder/internal/repository"

	"gorm.io/gorm"
)

type AddressGormRepository struct {
	db *gorm.DB
}

func NewAddressGormRepository(db *gorm.DB) *AddressGormRepository {
	return &AddressGormRepository{db: db}
}

func ownedBy(userID int64) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("user_id = ?", userID)
	}
}

func (r *AddressGormRepository) Create(ctx context.Context, address model.Address) (model.Address, error) {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&model.Address{}).Scopes(ownedBy(address.UserID)).Count(&n).Error; err != nil {
			return err
		}
		address.IsDefault = n == 0
		return tx.Create(&address).Error
	})
	if err != nil {
		return model.Address{}, translate(err)
	}
	return address, nil
}

func (r *AddressGormRepository) ListByUserID(ctx context.Context, userID int64) ([]model.Address, error) {
	var list []model.Address
	err := r.db.WithContext(ctx).
		Scopes(ownedBy(userID)).
		Order("is_default DESC").
		Order("id").
		Find(&list).Error
	return list, translate(err)
}

func (r *AddressGormRepository) FindByID(ctx context.Context, addressID int64) (model.Address, error) {
	var a model.Address
	if err := r.db.WithContext(ctx).Take(&a, addressID).Error; err != nil {
		return model.Address{}, translate(err)
	}
	return a, nil
}

func (r *AddressGormRepository) FindDefault(ctx context.Context, userID int64) (model.Address, error) {
	var a model.Address
	err := r.db.WithContext(ctx).
		Scopes(ownedBy(userID)).
		Where("is_default = ?", true).
		Take(&a).Error
	if err != nil {
		return model.Address{}, translate(err)
	}
	return a, nil
}

// is_defaultはSetDefaultでしか変えない
func (r *AddressGormRepository) Update(ctx context.Context, address model.Address) error {
	res := r.db.WithContext(ctx).
		Model(&model.Address{}).
		Scopes(ownedBy(address.UserID)).
		Where("id = ?", address.ID).
		Select("name", "phone", "province", "city", "district", "detail", "updated_at").
		Updates(&address)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func (r *AddressGormRepository) Delete(ctx context.Context, userID, addressID int64) error {
	return translate(r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var a model.Address
		if err := tx.Scopes(ownedBy(userID)).Take(&a, addressID).Error; err != nil {
			return err
		}
		if err := tx.Delete(&model.Address{}, a.ID).Error; err != nil {
			return err
		}
		if !a.IsDefault {
			return nil
		}

		var next model.Address
		err := tx.Scopes(ownedBy(userID)).Order("id").Take(&next).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		return tx.Model(&next).Update("is_default", true).Error
	}))
}

func (r *AddressGormRepository) SetDefault(ctx context.Context, userID, addressID int64) error {
	return translate(r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		//ユーザー内でdefaultは1つ
		res := tx.Model(&model.Address{}).
			Scopes(ownedBy(userID)).
			Where("id = ?", addressID).
			Update("is_default", true)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return repo.ErrNotFound
		}
		return tx.Model(&model.Address{}).
			Scopes(ownedBy(userID)).
			Where("id <> ? AND is_default = ?", addressID, true).
			Update("is_default", false).Error
	}))
}
