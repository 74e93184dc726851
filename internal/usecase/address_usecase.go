package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"shoporder/internal/domain/model"
	"shoporder/internal/repository"
)

type AddressDTO struct {
	ID        int64  `json:"id"`
	UserID    int64  `json:"user_id"`
	Name      string `json:"name"`
	Phone     string `json:"phone"`
	Province  string `json:"province"`
	City      string `json:"city"`
	District  string `json:"district"`
	Detail    string `json:"detail"`
	FullText  string `json:"full_address"`
	IsDefault bool   `json:"is_default"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

type AddressCreateRequest struct {
	Name      string `json:"name" validate:"required,max=100"`
	Phone     string `json:"phone" validate:"required,max=30"`
	Province  string `json:"province" validate:"max=100"`
	City      string `json:"city" validate:"max=100"`
	District  string `json:"district" validate:"max=100"`
	Detail    string `json:"detail" validate:"required,max=255"`
	IsDefault bool   `json:"is_default"`
}

type AddressUpdateRequest = AddressCreateRequest

type AddressUsecase struct {
	addresses repository.AddressRepository
}

func NewAddressUsecase(addresses repository.AddressRepository) *AddressUsecase {
	return &AddressUsecase{addresses: addresses}
}

func (u *AddressUsecase) List(ctx context.Context, userID int64) ([]AddressDTO, error) {
	if userID <= 0 {
		return nil, ErrUnauthorized
	}

	list, err := u.addresses.ListByUserID(ctx, userID)
	if err != nil {
		return nil, internalError(err)
	}

	out := make([]AddressDTO, 0, len(list))
	for i := range list {
		out = append(out, toAddressDTO(&list[i]))
	}
	return out, nil
}

func (u *AddressUsecase) Create(ctx context.Context, userID int64, req AddressCreateRequest) (AddressDTO, error) {
	if userID <= 0 {
		return AddressDTO{}, ErrUnauthorized
	}

	//入力チェック
	if !req.valid() {
		return AddressDTO{}, ErrValidation
	}

	a := req.toModel()
	a.UserID = userID

	//最初の住所はrepo側でデフォルトになる
	created, err := u.addresses.Create(ctx, a)
	if err != nil {
		return AddressDTO{}, internalError(err)
	}

	if req.IsDefault && !created.IsDefault {
		if err := u.addresses.SetDefault(ctx, userID, created.ID); err != nil {
			return AddressDTO{}, internalError(err)
		}
		created.IsDefault = true
	}

	return toAddressDTO(&created), nil
}

func (u *AddressUsecase) Update(ctx context.Context, userID int64, addressID int64, req AddressUpdateRequest) error {
	if err := u.checkOwner(ctx, userID, addressID); err != nil {
		return err
	}
	if !req.valid() {
		return ErrValidation
	}

	a := req.toModel()
	a.ID = addressID
	a.UserID = userID

	if err := u.addresses.Update(ctx, a); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFound
		}
		return internalError(err)
	}

	if req.IsDefault {
		if err := u.addresses.SetDefault(ctx, userID, addressID); err != nil {
			return internalError(err)
		}
	}
	return nil
}

func (u *AddressUsecase) Delete(ctx context.Context, userID int64, addressID int64) error {
	if err := u.checkOwner(ctx, userID, addressID); err != nil {
		return err
	}

	if err := u.addresses.Delete(ctx, userID, addressID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFound
		}
		return internalError(err)
	}

	return nil
}

func (u *AddressUsecase) SetDefault(ctx context.Context, userID int64, addressID int64) error {
	if err := u.checkOwner(ctx, userID, addressID); err != nil {
		return err
	}

	//user内でdefaultは1つ
	if err := u.addresses.SetDefault(ctx, userID, addressID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFound
		}
		return internalError(err)
	}

	return nil
}

// 所有チェック（本人のみ）
func (u *AddressUsecase) checkOwner(ctx context.Context, userID int64, addressID int64) error {
	if userID <= 0 {
		return ErrUnauthorized
	}
	if addressID <= 0 {
		return ErrValidation
	}

	a, err := u.addresses.FindByID(ctx, addressID)
	if err != nil {
		//住所存在確認して404に
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFound
		}
		return internalError(err)
	}
	if a.UserID != userID {
		return ErrForbidden
	}
	return nil
}

func (r AddressCreateRequest) valid() bool {
	return strings.TrimSpace(r.Name) != "" &&
		strings.TrimSpace(r.Phone) != "" &&
		strings.TrimSpace(r.Detail) != ""
}

func (r AddressCreateRequest) toModel() model.Address {
	return model.Address{
		Name:     strings.TrimSpace(r.Name),
		Phone:    strings.TrimSpace(r.Phone),
		Province: strings.TrimSpace(r.Province),
		City:     strings.TrimSpace(r.City),
		District: strings.TrimSpace(r.District),
		Detail:   strings.TrimSpace(r.Detail),
	}
}

func toAddressDTO(a *model.Address) AddressDTO {
	return AddressDTO{
		ID:        a.ID,
		UserID:    a.UserID,
		Name:      a.Name,
		Phone:     a.Phone,
		Province:  a.Province,
		City:      a.City,
		District:  a.District,
		Detail:    a.Detail,
		FullText:  a.FullText(),
		IsDefault: a.IsDefault,
		CreatedAt: a.CreatedAt.Format(time.RFC3339),
		UpdatedAt: a.UpdatedAt.Format(time.RFC3339),
	}
}
