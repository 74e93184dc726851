package handler

import (
	"errors"
	"net/http"
	"strconv"

	"shoporder/internal/logger"
	"shoporder/internal/middleware"
	"shoporder/internal/usecase"
	"shoporder/internal/validator"

	"github.com/labstack/echo/v4"
)

// 全レスポンス共通の形
type Response struct {
	Success bool              `json:"success"`
	Message string            `json:"message,omitempty"`
	Data    any               `json:"data,omitempty"`
	Error   string            `json:"error,omitempty"`
	Errors  map[string]string `json:"errors,omitempty"`
}

// 各handlerで共有する
type Options struct {
	// trueなら500の原因をerrorに出す
	Dev    bool
	Logger *logger.Logger
}

// ルートに付けるミドルウェア
// UserはAuthJWT + TokenVersionGuard、AdminはそれにAdminRoleGuardを足したもの
type Guards struct {
	User  []echo.MiddlewareFunc
	Admin []echo.MiddlewareFunc
}

type responder struct {
	dev bool
	log *logger.Logger
}

func newResponder(opts Options) responder {
	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}
	return responder{dev: opts.Dev, log: log}
}

func (r responder) ok(c echo.Context, status int, msg string, data any) error {
	return c.JSON(status, Response{Success: true, Message: msg, Data: data})
}

// エラーをステータスとレスポンスに変換する唯一の場所
func (r responder) fail(c echo.Context, err error) error {
	if err == nil {
		return nil
	}

	var ve *validator.ValidationError
	if errors.As(err, &ve) {
		return c.JSON(http.StatusBadRequest, Response{Message: "validation failed", Errors: ve.Fields})
	}

	if he, ok := usecase.AsHTTPError(err); ok {
		if he.Status >= http.StatusInternalServerError {
			return r.internal(c, he.Status, err)
		}
		return c.JSON(he.Status, Response{Message: he.Message})
	}

	var ee *echo.HTTPError
	if errors.As(err, &ee) {
		msg, _ := ee.Message.(string)
		if msg == "" {
			msg = http.StatusText(ee.Code)
		}
		return c.JSON(ee.Code, Response{Message: msg})
	}

	switch {
	case errors.Is(err, usecase.ErrValidation):
		return c.JSON(http.StatusBadRequest, Response{Message: "validation error"})
	case errors.Is(err, usecase.ErrUnauthorized):
		return c.JSON(http.StatusUnauthorized, Response{Message: "unauthorized"})
	case errors.Is(err, usecase.ErrForbidden):
		return c.JSON(http.StatusForbidden, Response{Message: "forbidden"})
	case errors.Is(err, usecase.ErrNotFound):
		return c.JSON(http.StatusNotFound, Response{Message: "not found"})
	case errors.Is(err, usecase.ErrConflict):
		return c.JSON(http.StatusConflict, Response{Message: "conflict"})
	}
	return r.internal(c, http.StatusInternalServerError, err)
}

func (r responder) internal(c echo.Context, status int, err error) error {
	r.log.Error(c.Request().Context(), "request failed", err)
	detail := "internal error"
	if r.dev {
		detail = err.Error()
	}
	return c.JSON(status, Response{Message: "internal error", Error: detail})
}

func (r responder) badRequest(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, Response{Message: msg})
}

// bind + validate
func (r responder) bind(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return usecase.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if err := c.Validate(req); err != nil {
		return err
	}
	return nil
}

func pathID(c echo.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, usecase.NewHTTPError(http.StatusBadRequest, "invalid "+name)
	}
	return id, nil
}

// 空なら0
func queryInt(c echo.Context, name string) (int, error) {
	v := c.QueryParam(name)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, usecase.NewHTTPError(http.StatusBadRequest, "invalid "+name)
	}
	return n, nil
}

func queryBool(c echo.Context, name string) (*bool, error) {
	v := c.QueryParam(name)
	if v == "" {
		return nil, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return nil, usecase.NewHTTPError(http.StatusBadRequest, "invalid "+name)
	}
	return &b, nil
}

func actorFrom(c echo.Context) (usecase.Actor, error) {
	userID, ok := middleware.UserID(c)
	if !ok {
		return usecase.Actor{}, usecase.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	return usecase.Actor{UserID: userID, IsAdmin: middleware.IsAdmin(c)}, nil
}

func userIDFrom(c echo.Context) (int64, error) {
	a, err := actorFrom(c)
	return a.UserID, err
}
