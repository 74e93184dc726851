package repository

import (
	"errors"
	"fmt"

	infradb "shoporder/internal/infra/db"
	repo "shoporder/internal/repository"

	"gorm.io/gorm"
)

// GORM/ドライバのエラーをリポジトリのエラーに寄せる
func translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return repo.ErrNotFound
	}
	if infradb.IsUniqueViolation(err) {
		return fmt.Errorf("%w: %v", repo.ErrConflict, err)
	}
	return err
}

func normalizePage(page, limit, def, max int) (int, int) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 || limit > max {
		limit = def
	}
	return page, limit
}
