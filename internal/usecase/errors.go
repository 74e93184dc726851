package usecase

import (
	"errors"
	"net/http"

	repo "shoporder/internal/repository"
)

// ステータス付きのエラー（handlerでそのままレスポンスにする）
type HTTPError struct {
	Status  int
	Message string
	//ログ用の原因（レスポンスには出さない）
	Err error
}

func (e *HTTPError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *HTTPError) Unwrap() error { return e.Err }

func NewHTTPError(status int, msg string) *HTTPError {
	return &HTTPError{Status: status, Message: msg}
}

func wrapHTTPError(status int, msg string, err error) *HTTPError {
	return &HTTPError{Status: status, Message: msg, Err: err}
}

// errがHTTPErrorならtrue
func AsHTTPError(err error) (*HTTPError, bool) {
	var he *HTTPError
	if errors.As(err, &he) {
		return he, true
	}
	return nil, false
}

// 500（原因はログに残す）
func internalError(err error) *HTTPError {
	return wrapHTTPError(http.StatusInternalServerError, "db error", err)
}

// repoのエラーをステータスに寄せる
func repoError(err error, notFoundMsg string) error {
	if err == nil {
		return nil
	}
	if _, ok := AsHTTPError(err); ok {
		return err
	}
	switch {
	case errors.Is(err, repo.ErrNotFound):
		return wrapHTTPError(http.StatusNotFound, notFoundMsg, err)
	case errors.Is(err, repo.ErrConflict):
		return wrapHTTPError(http.StatusConflict, "conflict", err)
	}
	return internalError(err)
}

// 認証・住所系のエラー（handlerでステータスに変換）
var (
	//400 入力不足
	ErrValidation = errors.New("validation error")
	//401 認証失敗
	ErrUnauthorized = errors.New("unauthorized")
	//403 権限
	ErrForbidden = errors.New("forbidden")
	//404
	ErrNotFound = errors.New("not found")
	//409 競合
	ErrConflict = errors.New("conflict")
)
