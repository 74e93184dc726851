package repository

import (
	"context"
	"testing"

	"shoporder/internal/domain/model"
	"shoporder/internal/infra/db/dbtest"
	repo "shoporder/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAddress(userID int64, detail string) model.Address {
	return model.Address{UserID: userID, Name: "Hanako", Phone: "090", Detail: detail}
}

func TestAddressRepository_FirstIsDefaultAndDeletePromotes(t *testing.T) {
	db := dbtest.NewSQLite(t)
	r := NewAddressGormRepository(db)
	ctx := context.Background()

	first, err := r.Create(ctx, newAddress(1, "A"))
	require.NoError(t, err)
	assert.True(t, first.IsDefault)

	second, err := r.Create(ctx, newAddress(1, "B"))
	require.NoError(t, err)
	assert.False(t, second.IsDefault)

	//別ユーザーの最初の住所もデフォルト
	other, err := r.Create(ctx, newAddress(2, "C"))
	require.NoError(t, err)
	assert.True(t, other.IsDefault)

	require.NoError(t, r.Delete(ctx, 1, first.ID))
	def, err := r.FindDefault(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, second.ID, def.ID)

	require.NoError(t, r.Delete(ctx, 1, second.ID))
	_, err = r.FindDefault(ctx, 1)
	assert.ErrorIs(t, err, repo.ErrNotFound)
}

func TestAddressRepository_SetDefaultIsExclusive(t *testing.T) {
	db := dbtest.NewSQLite(t)
	r := NewAddressGormRepository(db)
	ctx := context.Background()

	a, err := r.Create(ctx, newAddress(1, "A"))
	require.NoError(t, err)
	b, err := r.Create(ctx, newAddress(1, "B"))
	require.NoError(t, err)

	require.NoError(t, r.SetDefault(ctx, 1, b.ID))
	list, err := r.ListByUserID(ctx, 1)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, b.ID, list[0].ID)
	assert.True(t, list[0].IsDefault)
	assert.Equal(t, a.ID, list[1].ID)
	assert.False(t, list[1].IsDefault)

	//他人の住所はErrNotFoundで何も変えない
	assert.ErrorIs(t, r.SetDefault(ctx, 2, a.ID), repo.ErrNotFound)
	def, err := r.FindDefault(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, b.ID, def.ID)
}

func TestAddressRepository_OwnerScopedWrites(t *testing.T) {
	db := dbtest.NewSQLite(t)
	r := NewAddressGormRepository(db)
	ctx := context.Background()

	a, err := r.Create(ctx, newAddress(1, "A"))
	require.NoError(t, err)

	hijack := a
	hijack.UserID = 2
	hijack.Detail = "stolen"
	assert.ErrorIs(t, r.Update(ctx, hijack), repo.ErrNotFound)
	assert.ErrorIs(t, r.Delete(ctx, 2, a.ID), repo.ErrNotFound)

	a.Detail = "A2"
	require.NoError(t, r.Update(ctx, a))
	got, err := r.FindByID(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "A2", got.Detail)
	assert.True(t, got.IsDefault)
}
