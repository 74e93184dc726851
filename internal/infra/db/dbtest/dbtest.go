// Package dbtest はテスト用のDBを用意する
package dbtest

import (
	"fmt"
	"strings"
	"testing"

	"shoporder/internal/config"
	infradb "shoporder/internal/infra/db"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// テストごとに独立したインメモリsqliteを作ってマイグレーションする
func NewSQLite(t testing.TB) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s_%s?mode=memory&cache=shared&_foreign_keys=on", name, uuid.NewString())

	conn, err := infradb.Connect(config.DBConfig{Driver: config.DriverSQLite, DSN: dsn})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := infradb.AutoMigrate(conn); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() {
		_ = infradb.Close(conn)
	})
	return conn
}
