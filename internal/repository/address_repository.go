package repository

import (
	"context"

	"shoporder/internal/domain/model"
)

// 更新系は本人の住所だけを対象にする（他人のIDはErrNotFound）
type AddressRepository interface {
	// 最初の1件は自動でデフォルトになる
	Create(ctx context.Context, address model.Address) (model.Address, error)
	// デフォルトが先頭
	ListByUserID(ctx context.Context, userID int64) ([]model.Address, error)
	FindByID(ctx context.Context, addressID int64) (model.Address, error)
	// 無ければErrNotFound
	FindDefault(ctx context.Context, userID int64) (model.Address, error)
	Update(ctx context.Context, address model.Address) error
	// デフォルトを消したら一番古い住所を繰り上げる
	Delete(ctx context.Context, userID, addressID int64) error
	SetDefault(ctx context.Context, userID, addressID int64) error
}
