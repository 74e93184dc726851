package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"shoporder/internal/app"
	"shoporder/internal/config"
	"shoporder/internal/infra/db"
	"shoporder/internal/logger"

	"github.com/redis/go-redis/v9"
	"go.uber.org/multierr"
	"gorm.io/gorm"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() (err error) {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log := logger.New(logger.Options{
		ServiceName: "shoporder-api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		Console:     cfg.App.IsDev(),
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	//DB接続
	gormDB, err := db.Connect(cfg.DB)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Append(err, db.Close(gormDB))
	}()

	if err := migrate(ctx, cfg, gormDB); err != nil {
		return err
	}

	//Redisは任意（無ければ注文番号は時刻から作る）
	var rdb *redis.Client
	if cfg.Redis.Enabled() {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer func() {
			err = multierr.Append(err, rdb.Close())
		}()
		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		if perr := rdb.Ping(pingCtx).Err(); perr != nil {
			log.Warn(ctx, "redis unreachable, order numbers fall back to clock", perr)
		}
		cancel()
	}

	srv, err := app.Build(app.Options{
		Config: cfg,
		Logger: log,
		DB:     gormDB,
		Redis:  rdb,
	})
	if err != nil {
		return err
	}

	if err := srv.Run(ctx); err != nil {
		log.Error(ctx, "server stopped", err)
		return err
	}
	log.Info(ctx, "server stopped")
	return nil
}

// postgresでAutoMigrate無効ならgooseで上げる
func migrate(ctx context.Context, cfg config.Config, conn *gorm.DB) error {
	if cfg.DB.AutoMigrate {
		return db.AutoMigrate(conn)
	}
	if cfg.DB.Driver != config.DriverPostgres {
		return nil
	}
	sqlDB, err := conn.DB()
	if err != nil {
		return err
	}
	return db.RunMigrations(ctx, sqlDB, "up")
}
