package postgresql

import (
	"context"
	"fmt"
	"parking_manager/internal/logger"
	"parking_manager/internal/repository"

	"github.com/jmoiron/sqlx"
)

type Store struct {
	db *sqlx.DB
}

func NewStore(db *sqlx.DB) *Store {
	return &Store{db: db}
}

func newRepositories(c conn) repository.Repositories {
	return repository.Repositories{
		Users:        NewPgUserRepository(c),
		Lots:         NewPgParkingLotRepository(c),
		Spots:        NewPgParkingSpotRepository(c),
		Reservations: NewPgReservationRepository(c),
		Summary:      NewPgSummaryRepository(c),
	}
}

func (s *Store) Repos() repository.Repositories {
	return newRepositories(s.db)
}

func (s *Store) WithinTransaction(ctx context.Context, fn repository.TxFunc) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(ctx, newRepositories(tx)); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			logger.Warningf("rollback failed: %v", rbErr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) Close() error {
	return s.db.Close()
}
