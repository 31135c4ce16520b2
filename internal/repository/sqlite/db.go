package sqlite

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	sqlitedriver "gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// MemoryDSN names a private in-memory database. Connections opened with the
// same name share it, which the single-connection pool relies on.
func MemoryDSN(name string) string {
	name = strings.NewReplacer("/", "_", " ", "_").Replace(name)
	return "file:" + name + "?mode=memory&cache=shared"
}

// Open opens the SQLite database at dsn and brings the schema up to date.
// The pool is limited to one connection, so transactions never interleave.
func Open(dsn string, debug bool) (*gorm.DB, error) {
	if !strings.HasPrefix(dsn, "file:") {
		if err := os.MkdirAll(filepath.Dir(dsn), 0o750); err != nil {
			return nil, fmt.Errorf("sqlite: creating database folder: %w", err)
		}
		dsn += "?_journal_mode=WAL&_busy_timeout=5000"
	}

	gormLogger := gormlogger.Discard
	if debug {
		gormLogger = gormlogger.Default
	}

	db, err := gorm.Open(sqlitedriver.Open(dsn), &gorm.Config{
		Logger:         gormLogger,
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening %s: %w", dsn, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)

	if _, err = sqlDB.Exec("PRAGMA foreign_keys = ON;"); err != nil {
		return nil, err
	}
	if err = migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

func migrate(db *gorm.DB) error {
	models := []interface{}{
		&userModel{},
		&lotModel{},
		&spotModel{},
		&reservationModel{},
	}
	for _, model := range models {
		if err := db.AutoMigrate(model); err != nil {
			return fmt.Errorf("sqlite: auto migrating %T: %w", model, err)
		}
	}

	// At most one open reservation per spot.
	err := db.Exec(`CREATE UNIQUE INDEX IF NOT EXISTS uq_reservations_open_spot
	                ON reservations (spot_id) WHERE leaving_timestamp IS NULL`).Error
	if err != nil {
		return fmt.Errorf("sqlite: creating open reservation index: %w", err)
	}
	return nil
}
