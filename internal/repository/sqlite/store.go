package sqlite

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"parking_manager/internal/repository"
)

// Store is the embedded repository.Store used for single-node deployments
// and tests.
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

func newRepositories(db *gorm.DB) repository.Repositories {
	return repository.Repositories{
		Users:        NewUserRepository(db),
		Lots:         NewParkingLotRepository(db),
		Spots:        NewParkingSpotRepository(db),
		Reservations: NewReservationRepository(db),
		Summary:      NewSummaryRepository(db),
	}
}

func (s *Store) Repos() repository.Repositories {
	return newRepositories(s.db)
}

func (s *Store) WithinTransaction(ctx context.Context, fn repository.TxFunc) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(ctx, newRepositories(tx))
	})
}

func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("sqlite: ping: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
