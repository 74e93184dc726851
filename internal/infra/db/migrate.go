package db

import (
	"context"
	"database/sql"
	"embed"
	"fmt"

	"github.com/pressly/goose/v3"
)

//go:embed migrations/postgres/*.sql
var postgresMigrations embed.FS

const PostgresMigrationsDir = "migrations/postgres"

// RunMigrations はgooseのコマンドを実行する（postgres専用）
// sqliteとmysqlはAutoMigrateを使う
func RunMigrations(ctx context.Context, sqlDB *sql.DB, command string, args ...string) error {
	if sqlDB == nil {
		return fmt.Errorf("db is required")
	}
	goose.SetBaseFS(postgresMigrations)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("setting goose dialect: %w", err)
	}
	if err := goose.RunContext(ctx, command, sqlDB, PostgresMigrationsDir, args...); err != nil {
		return fmt.Errorf("goose %s: %w", command, err)
	}
	return nil
}

// 埋め込んだマイグレーションを列挙（DB不要）
func ListMigrations() (goose.Migrations, error) {
	goose.SetBaseFS(postgresMigrations)
	return goose.CollectMigrations(PostgresMigrationsDir, 0, goose.MaxVersion)
}
