// migrate は埋め込みのgooseマイグレーションを実行する（postgres専用）
//
//	go run ./cmd/migrate up
//	go run ./cmd/migrate down
//	go run ./cmd/migrate status
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"shoporder/internal/config"
	"shoporder/internal/infra/db"
)

func main() {
	flag.Usage = func() {
		fmt.Fprintln(os.Stderr, "usage: migrate <up|up-by-one|down|redo|reset|status|version|list> [args]")
	}
	flag.Parse()
	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(2)
	}
	if err := run(context.Background(), flag.Arg(0), flag.Args()[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, command string, args []string) error {
	//DB不要で一覧だけ出す
	if command == "list" {
		ms, err := db.ListMigrations()
		if err != nil {
			return err
		}
		for _, m := range ms {
			fmt.Printf("%d\t%s\n", m.Version, m.Source)
		}
		return nil
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if cfg.DB.Driver != config.DriverPostgres {
		return fmt.Errorf("goose migrations target postgres; %s uses DB_AUTO_MIGRATE", cfg.DB.Driver)
	}

	conn, err := db.Connect(cfg.DB)
	if err != nil {
		return err
	}
	defer db.Close(conn)

	sqlDB, err := conn.DB()
	if err != nil {
		return err
	}
	return db.RunMigrations(ctx, sqlDB, command, args...)
}
