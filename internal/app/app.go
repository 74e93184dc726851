// Package app は設定から依存を組み立ててHTTPサーバを作る
package app

import (
	"fmt"

	"shoporder/internal/config"
	"shoporder/internal/handler"
	"shoporder/internal/infra/export"
	"shoporder/internal/infra/ordernumber"
	"shoporder/internal/infra/realtime"
	infrarepo "shoporder/internal/infra/repository"
	"shoporder/internal/logger"
	"shoporder/internal/metrics"
	"shoporder/internal/server"
	"shoporder/internal/usecase"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type Options struct {
	Config config.Config
	Logger *logger.Logger
	DB     *gorm.DB
	// nilなら注文番号は時刻から作る
	Redis *redis.Client
	// nilなら新しいレジストリ
	Registry *prometheus.Registry
	// テストで下げる
	BcryptCost int
}

func Build(opts Options) (*server.Server, error) {
	cfg := opts.Config
	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}
	if opts.DB == nil {
		return nil, fmt.Errorf("db is required")
	}
	loc, err := cfg.App.Location()
	if err != nil {
		return nil, fmt.Errorf("loading shop timezone: %w", err)
	}
	reg := opts.Registry
	if reg == nil {
		reg = prometheus.NewRegistry()
		reg.MustRegister(prometheus.NewGoCollector(), prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}))
	}
	cost := opts.BcryptCost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}

	db := opts.DB
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("getting sql db handle: %w", err)
	}

	//Repository（GORM実装）
	userRepo := infrarepo.NewUserGormRepository(db)
	auditRepo := infrarepo.NewAuditLogGormRepository(db)
	addressRepo := infrarepo.NewAddressGormRepository(db)
	productRepo := infrarepo.NewProductGormRepository(db)
	categoryRepo := infrarepo.NewCategoryGormRepository(db)
	cartRepo := infrarepo.NewCartItemGormRepository(db)
	orderRepo := infrarepo.NewOrderGormRepository(db)
	orderItemRepo := infrarepo.NewOrderItemGormRepository(db)
	shopRepo := infrarepo.NewShopGormRepository(db)
	txm := infrarepo.NewTxManagerGorm(db)

	m := metrics.New(reg)
	hub := realtime.NewHub(log, cfg.HTTP.CORSOrigins)
	images := usecase.NewImageURLFormatter(cfg.App.BaseURL)

	//Usecase
	authUC := usecase.NewAuthUsecase(userRepo, txm, usecase.NewBcryptPasswordHasher(cost), usecase.NewJWTIssuer(cfg.JWT.Secret, cfg.JWT.AccessTTL))
	orderUC := usecase.NewOrderUsecase(usecase.OrderUsecaseDeps{
		Tx:         txm,
		Orders:     orderRepo,
		OrderItems: orderItemRepo,
		Products:   productRepo,
		Shop:       shopRepo,
		CartItems:  cartRepo,
		Addresses:  addressRepo,
		Numbers:    ordernumber.New(opts.Redis, log),
		Events:     hub,
		Metrics:    m,
		Logger:     log,
		Location:   loc,
	})
	adminOrderUC := usecase.NewAdminOrderUsecase(usecase.AdminOrderUsecaseDeps{
		Tx:         txm,
		Orders:     orderRepo,
		OrderItems: orderItemRepo,
		Products:   productRepo,
		Users:      userRepo,
		Exporter:   export.NewXLSXExporter(loc),
		Events:     hub,
		Location:   loc,
	})
	cartUC := usecase.NewCartUsecase(cartRepo, productRepo, images)
	productUC := usecase.NewProductUsecase(txm, productRepo, images)
	categoryUC := usecase.NewCategoryUsecase(categoryRepo, images)
	shopUC := usecase.NewShopUsecase(shopRepo, txm, loc)
	addressUC := usecase.NewAddressUsecase(addressRepo)
	auditUC := usecase.NewAuditLogUsecase(auditRepo, loc)

	//Handler
	hopts := handler.Options{Dev: cfg.App.IsDev(), Logger: log}
	return server.New(server.Deps{
		Config:   cfg,
		Logger:   log,
		Metrics:  m,
		Gatherer: reg,
		DB:       sqlDB,
		Users:    userRepo,
		Hub:      hub,
		Handlers: server.Handlers{
			Auth:       handler.NewAuthHandler(authUC, hopts),
			Order:      handler.NewOrderHandler(orderUC, adminOrderUC, hopts),
			AdminOrder: handler.NewAdminOrderHandler(adminOrderUC, hub, hopts),
			Cart:       handler.NewCartHandler(cartUC, hopts),
			Product:    handler.NewProductHandler(productUC, hopts),
			Category:   handler.NewCategoryHandler(categoryUC, hopts),
			Shop:       handler.NewShopHandler(shopUC, hopts),
			Address:    handler.NewAddressHandler(addressUC, hopts),
			AuditLog:   handler.NewAuditLogHandler(auditUC, hopts),
		},
	}), nil
}
