package repository

import (
	"context"
	"strings"
	"time"

	"shoporder/internal/domain/model"
	domainrepo "shoporder/internal/repository"

	"gorm.io/gorm"
)

type UserGormRepository struct {
	db *gorm.DB
}

func NewUserGormRepository(db *gorm.DB) *UserGormRepository {
	return &UserGormRepository{db: db}
}

func (r *UserGormRepository) Create(ctx context.Context, user *model.User) error {
	return translate(r.db.WithContext(ctx).Create(user).Error)
}

// emailは小文字で保存している
func (r *UserGormRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	var u model.User
	err := r.db.WithContext(ctx).
		Where("email = ?", strings.ToLower(strings.TrimSpace(email))).
		Take(&u).Error
	if err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

func (r *UserGormRepository) FindByID(ctx context.Context, id int64) (*model.User, error) {
	var u model.User
	if err := r.db.WithContext(ctx).Take(&u, id).Error; err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

func (r *UserGormRepository) TouchLastLogin(ctx context.Context, id int64, at time.Time) error {
	return r.updateOne(ctx, id, map[string]any{"last_login_at": at})
}

func (r *UserGormRepository) SetActive(ctx context.Context, id int64, active bool) error {
	return r.updateOne(ctx, id, map[string]any{
		"is_active":     active,
		"token_version": gorm.Expr("token_version + 1"),
	})
}

func (r *UserGormRepository) IncrementTokenVersion(ctx context.Context, id int64) error {
	return r.updateOne(ctx, id, map[string]any{"token_version": gorm.Expr("token_version + 1")})
}

func (r *UserGormRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.User{}).Count(&n).Error
	return n, err
}

// 0件更新はErrNotFound
func (r *UserGormRepository) updateOne(ctx context.Context, id int64, cols map[string]any) error {
	res := r.db.WithContext(ctx).
		Model(&model.User{}).
		Where("id = ?", id).
		UpdateColumns(cols)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return domainrepo.ErrNotFound
	}
	return nil
}
