package repository

import (
	"context"
	"time"

	"shoporder/internal/domain/model"
)

type UserRepository interface {
	//メール重複はErrConflict
	Create(ctx context.Context, user *model.User) error
	FindByID(ctx context.Context, userID int64) (*model.User, error)
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	TouchLastLogin(ctx context.Context, userID int64, at time.Time) error
	// is_activeを切り替え、発行済みトークンも無効にする
	SetActive(ctx context.Context, userID int64, active bool) error
	IncrementTokenVersion(ctx context.Context, userID int64) error
	Count(ctx context.Context) (int64, error)
}
