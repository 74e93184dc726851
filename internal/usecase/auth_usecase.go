package usecase

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"shoporder/internal/domain/model"
	"shoporder/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLen = 8

// JWTのclaimキー
const (
	ClaimSubject      = "sub"
	ClaimRole         = "role"
	ClaimTokenVersion = "tv"
)

type UserDTO struct {
	ID          int64      `json:"id"`
	Email       string     `json:"email"`
	Nickname    string     `json:"nickname"`
	Phone       string     `json:"phone"`
	Role        string     `json:"role"`
	IsActive    bool       `json:"is_active"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
}

type JwtAccessTokenDTO struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
	TokenVersion int    `json:"token_version"`
}

type AuthRegisterRequest struct {
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=8,max=72"`
	Nickname string `json:"nickname" validate:"max=100"`
	Phone    string `json:"phone" validate:"max=30"`
}

type AuthLoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type AuthLoginResponse struct {
	User  UserDTO           `json:"user"`
	Token JwtAccessTokenDTO `json:"token"`
}

type ForceLogoutResponse struct {
	UserID          int64 `json:"user_id"`
	NewTokenVersion int   `json:"new_token_version"`
}

// 平文パスワードからハッシュへ。
type PasswordHasher interface {
	Hash(plain string) (string, error)
	Verify(plain string, hashed string) bool
}

// bcryptハッシュ化
type BcryptPasswordHasher struct {
	cost int
}

func NewBcryptPasswordHasher(cost int) *BcryptPasswordHasher {
	if cost <= 0 {
		cost = bcrypt.DefaultCost
	}
	return &BcryptPasswordHasher{cost: cost}
}

func (h *BcryptPasswordHasher) Hash(plain string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(plain), h.cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (h *BcryptPasswordHasher) Verify(plain string, hashed string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(plain)) == nil
}

// JWTを発行する（HS256）
type JWTIssuer struct {
	secret []byte
	ttl    time.Duration
}

func NewJWTIssuer(secret string, ttl time.Duration) *JWTIssuer {
	return &JWTIssuer{secret: []byte(secret), ttl: ttl}
}

func (i *JWTIssuer) Issue(user *model.User, now time.Time) (string, time.Time, error) {
	exp := now.Add(i.ttl)
	claims := jwt.MapClaims{
		ClaimSubject:      fmt.Sprintf("%d", user.ID),
		ClaimRole:         string(user.Role),
		ClaimTokenVersion: user.TokenVersion,
		"iat":             now.Unix(),
		"exp":             exp.Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

// 管理者の操作はユーザー更新と監査ログを同じtxで書く
type AuthUsecase struct {
	users  repository.UserRepository
	tx     repository.TransactionManager
	hasher PasswordHasher
	issuer *JWTIssuer
	clock  Clock
}

func NewAuthUsecase(
	users repository.UserRepository,
	tx repository.TransactionManager,
	hasher PasswordHasher,
	issuer *JWTIssuer,
) *AuthUsecase {
	return &AuthUsecase{
		users:  users,
		tx:     tx,
		hasher: hasher,
		issuer: issuer,
		clock:  SystemClock{},
	}
}

func (u *AuthUsecase) Register(ctx context.Context, req AuthRegisterRequest) (UserDTO, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if !isValidEmailFormat(email) {
		return UserDTO{}, ErrValidation
	}
	if len(req.Password) < minPasswordLen || isWeakPassword(req.Password) {
		return UserDTO{}, ErrValidation
	}

	//パスワードは必ずハッシュ化して保存（平文保存しない）
	pwHash, err := u.hasher.Hash(req.Password)
	if err != nil {
		return UserDTO{}, internalError(err)
	}

	user := &model.User{
		Email:        email,
		PasswordHash: pwHash,
		Nickname:     strings.TrimSpace(req.Nickname),
		Phone:        strings.TrimSpace(req.Phone),
		Role:         model.RoleUser,
		TokenVersion: 0,
		IsActive:     true,
	}

	//email重複はrepoがErrConflictにする
	if err := u.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return UserDTO{}, ErrConflict
		}
		return UserDTO{}, internalError(err)
	}

	return toUserDTO(user), nil
}

func (u *AuthUsecase) Login(ctx context.Context, req AuthLoginRequest) (AuthLoginResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || req.Password == "" {
		return AuthLoginResponse{}, ErrValidation
	}

	//ユーザー取得（存在しないメールも同じ401）
	user, err := u.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return AuthLoginResponse{}, ErrUnauthorized
		}
		return AuthLoginResponse{}, internalError(err)
	}

	//停止ユーザーはログイン不可
	if !user.IsActive {
		return AuthLoginResponse{}, ErrForbidden
	}

	if !u.hasher.Verify(req.Password, user.PasswordHash) {
		return AuthLoginResponse{}, ErrUnauthorized
	}

	//last_loginの更新失敗ではログインを止めない
	now := u.clock.Now()
	user.LastLoginAt = &now
	_ = u.users.TouchLastLogin(ctx, user.ID, now)

	token, exp, err := u.issuer.Issue(user, now)
	if err != nil {
		return AuthLoginResponse{}, internalError(err)
	}

	return AuthLoginResponse{
		User: toUserDTO(user),
		Token: JwtAccessTokenDTO{
			AccessToken:  token,
			TokenType:    "Bearer",
			ExpiresIn:    int(exp.Sub(now).Seconds()),
			TokenVersion: user.TokenVersion,
		},
	}, nil
}

func (u *AuthUsecase) Me(ctx context.Context, userID int64) (UserDTO, error) {
	if userID <= 0 {
		return UserDTO{}, ErrUnauthorized
	}

	user, err := u.users.FindByID(ctx, userID)
	if err != nil {
		return UserDTO{}, ErrUnauthorized
	}
	if !user.IsActive {
		return UserDTO{}, ErrForbidden
	}

	return toUserDTO(user), nil
}

// token_versionを上げて発行済みJWTを無効にする
func (u *AuthUsecase) ForceLogout(ctx context.Context, adminID int64, targetUserID int64) (ForceLogoutResponse, error) {
	if adminID <= 0 {
		return ForceLogoutResponse{}, ErrUnauthorized
	}
	if targetUserID <= 0 {
		return ForceLogoutResponse{}, ErrValidation
	}

	var user *model.User
	err := u.tx.WithinTx(ctx, func(r repository.TxRepos) error {
		before, err := findTargetUser(ctx, r.Users(), targetUserID)
		if err != nil {
			return err
		}
		if err := r.Users().IncrementTokenVersion(ctx, targetUserID); err != nil {
			return internalError(err)
		}

		//更新後を取得してnew_token_versionを返す
		user, err = r.Users().FindByID(ctx, targetUserID)
		if err != nil {
			return internalError(err)
		}

		if err := r.AuditLogs().Create(ctx, model.AuditLog{
			ActorUserID:  adminID,
			Action:       model.AuditActionForceLogout,
			ResourceType: model.AuditResourceUser,
			ResourceID:   targetUserID,
			BeforeJSON:   fmt.Sprintf(`{"token_version":%d}`, before.TokenVersion),
			AfterJSON:    fmt.Sprintf(`{"token_version":%d}`, user.TokenVersion),
			CreatedAt:    u.clock.Now(),
		}); err != nil {
			return internalError(err)
		}
		return nil
	})
	if err != nil {
		return ForceLogoutResponse{}, err
	}

	return ForceLogoutResponse{
		UserID:          user.ID,
		NewTokenVersion: user.TokenVersion,
	}, nil
}

// 停止するとtoken_versionも上がり、既存トークンは使えなくなる
func (u *AuthUsecase) SetUserActive(ctx context.Context, adminID, targetUserID int64, active bool) (UserDTO, error) {
	if adminID <= 0 {
		return UserDTO{}, ErrUnauthorized
	}
	if targetUserID <= 0 {
		return UserDTO{}, ErrValidation
	}
	if adminID == targetUserID && !active {
		return UserDTO{}, NewHTTPError(http.StatusBadRequest, "cannot deactivate yourself")
	}

	var after *model.User
	err := u.tx.WithinTx(ctx, func(r repository.TxRepos) error {
		before, err := findTargetUser(ctx, r.Users(), targetUserID)
		if err != nil {
			return err
		}
		if before.IsActive == active {
			after = before
			return nil
		}

		if err := r.Users().SetActive(ctx, targetUserID, active); err != nil {
			return internalError(err)
		}
		after, err = r.Users().FindByID(ctx, targetUserID)
		if err != nil {
			return internalError(err)
		}

		if err := r.AuditLogs().Create(ctx, model.AuditLog{
			ActorUserID:  adminID,
			Action:       model.AuditActionSetUserActive,
			ResourceType: model.AuditResourceUser,
			ResourceID:   targetUserID,
			BeforeJSON:   fmt.Sprintf(`{"is_active":%t,"token_version":%d}`, before.IsActive, before.TokenVersion),
			AfterJSON:    fmt.Sprintf(`{"is_active":%t,"token_version":%d}`, after.IsActive, after.TokenVersion),
			CreatedAt:    u.clock.Now(),
		}); err != nil {
			return internalError(err)
		}
		return nil
	})
	if err != nil {
		return UserDTO{}, err
	}
	return toUserDTO(after), nil
}

// 対象ユーザー（無ければErrNotFound）
func findTargetUser(ctx context.Context, users repository.UserRepository, userID int64) (*model.User, error) {
	user, err := users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, internalError(err)
	}
	return user, nil
}

// model.UserをAPI返却用DTOに変換。
func toUserDTO(u *model.User) UserDTO {
	return UserDTO{
		ID:          u.ID,
		Email:       u.Email,
		Nickname:    u.Nickname,
		Phone:       u.Phone,
		Role:        string(u.Role),
		IsActive:    u.IsActive,
		LastLoginAt: u.LastLoginAt,
	}
}

// メールチェック
func isValidEmailFormat(email string) bool {
	if email == "" {
		return false
	}
	_, err := mail.ParseAddress(email)
	return err == nil
}

// よくある弱いパスワード
func isWeakPassword(password string) bool {
	normalized := strings.ToLower(strings.TrimSpace(password))

	weak := map[string]struct{}{
		"password":    {},
		"password123": {},
		"1234567890":  {},
		"12345678":    {},
		"qwertyuiop":  {},
		"letmein123":  {},
		"admin123":    {},
	}

	_, ok := weak[normalized]
	return ok
}
