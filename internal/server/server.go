package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"shoporder/internal/config"
	"shoporder/internal/handler"
	"shoporder/internal/infra/realtime"
	"shoporder/internal/logger"
	"shoporder/internal/metrics"
	"shoporder/internal/middleware"
	"shoporder/internal/repository"
	"shoporder/internal/validator"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"
)

// /healthz で確認する依存（*sql.DBなど）
type Pinger interface {
	PingContext(ctx context.Context) error
}

type Handlers struct {
	Auth       *handler.AuthHandler
	Order      *handler.OrderHandler
	AdminOrder *handler.AdminOrderHandler
	Cart       *handler.CartHandler
	Product    *handler.ProductHandler
	Category   *handler.CategoryHandler
	Shop       *handler.ShopHandler
	Address    *handler.AddressHandler
	AuditLog   *handler.AuditLogHandler
}

type Deps struct {
	Config   config.Config
	Logger   *logger.Logger
	Metrics  *metrics.Metrics
	Gatherer prometheus.Gatherer
	DB       Pinger
	Users    repository.UserRepository
	Hub      *realtime.Hub
	Handlers Handlers
}

type Server struct {
	echo *echo.Echo
	cfg  config.Config
	log  *logger.Logger
	hub  *realtime.Hub
}

func New(d Deps) *Server {
	if d.Logger == nil {
		d.Logger = logger.Nop()
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = validator.New()
	e.HTTPErrorHandler = errorHandler(d.Logger)

	e.Use(echomw.Recover())
	e.Use(middleware.RequestID(d.Logger))
	e.Use(middleware.RequestLogger(d.Logger, d.Metrics))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: d.Config.HTTP.CORSOrigins,
		AllowHeaders: []string{
			echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept,
			echo.HeaderAuthorization, echo.HeaderXRequestID, "X-Idempotency-Key",
		},
		ExposeHeaders: []string{echo.HeaderXRequestID, echo.HeaderContentDisposition},
	}))
	e.Use(echomw.BodyLimit("2M"))

	s := &Server{echo: e, cfg: d.Config, log: d.Logger, hub: d.Hub}
	registerRoutes(e, d)
	return s
}

// テスト用
func (s *Server) Handler() http.Handler { return s.echo }

// ctxがキャンセルされるまで動かし、その後graceful shutdownする
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         ":" + s.cfg.App.Port,
		Handler:      s.echo,
		ReadTimeout:  s.cfg.HTTP.ReadTimeout,
		WriteTimeout: s.cfg.HTTP.WriteTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.log.Info(ctx, "http server listening on "+srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		timeout := s.cfg.HTTP.ShutdownTimeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		if s.hub != nil {
			s.hub.Close()
		}
		s.log.Info(ctx, "http server shutting down")
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// echoが返すエラー（404/405など）も共通の形にする
func errorHandler(log *logger.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		status := http.StatusInternalServerError
		msg := "internal error"
		var he *echo.HTTPError
		if errors.As(err, &he) {
			status = he.Code
			if m, ok := he.Message.(string); ok {
				msg = m
			} else {
				msg = http.StatusText(status)
			}
		} else {
			log.Error(c.Request().Context(), "unhandled error", err)
		}
		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(status)
			return
		}
		_ = c.JSON(status, handler.Response{Success: false, Message: msg})
	}
}

func healthz(db Pinger) echo.HandlerFunc {
	return func(c echo.Context) error {
		if db != nil {
			ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
			defer cancel()
			if err := db.PingContext(ctx); err != nil {
				return c.JSON(http.StatusServiceUnavailable, handler.Response{Success: false, Message: "database unavailable"})
			}
		}
		return c.JSON(http.StatusOK, handler.Response{Success: true, Message: "ok"})
	}
}

func metricsHandler(g prometheus.Gatherer) echo.HandlerFunc {
	if g == nil {
		g = prometheus.DefaultGatherer
	}
	return echo.WrapHandler(promhttp.HandlerFor(g, promhttp.HandlerOpts{}))
}
