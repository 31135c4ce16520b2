package postgresql

import (
	"fmt"
	"parking_manager/internal/config"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
)

func NewDB(cfg *config.Config) (*sqlx.DB, error) {
	psqlInfo := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.DBHost, cfg.DBPort, cfg.DBUser, cfg.DBPassword, cfg.DBName, cfg.DBSslMode)

	pgxCfg, err := pgx.ParseConfig(psqlInfo)
	if err != nil {
		return nil, fmt.Errorf("parse database config: %w", err)
	}
	pgxCfg.ConnectTimeout = 5 * time.Second

	db := sqlx.NewDb(stdlib.OpenDB(*pgxCfg), "pgx")
	db.SetMaxOpenConns(cfg.DBMaxOpen)
	db.SetMaxIdleConns(cfg.DBMaxIdle)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return db, nil
}
