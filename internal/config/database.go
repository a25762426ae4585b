package config

import (
	"LykkeLoopAPI/internal/schema"
	"context"
	"fmt"
	"log"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
	_ "github.com/lib/pq"
)

func InitDB(cfg *AppConfig) *entsql.Driver {
	drv, err := entsql.Open(dialect.Postgres, cfg.DBConnectionString())
	if err != nil {
		log.Fatalf("failed opening connection to postgres: %v", err)
	}

	db := drv.DB()
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		log.Fatalf("failed connecting to postgres: %v", err)
	}

	if cfg.DBMigrate {
		if err := schema.Create(context.Background(), drv); err != nil {
			log.Fatalf("failed creating schema resources: %v", err)
		}
		fmt.Println("Database schema migrated successfully")
	} else {
		fmt.Println("Database migration skipped (DB_MIGRATE=false)")
	}

	fmt.Println("Database connected successfully")
	return drv
}
