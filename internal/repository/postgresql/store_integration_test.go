//go:build integration

package postgresql

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"parking_manager/internal/domain"
	"parking_manager/internal/repository"
)

// Run with: DATABASE_URL=postgres://... go test -tags integration ./internal/repository/postgresql/
func newIntegrationStore(t *testing.T) *Store {
	t.Helper()
	url := os.Getenv("DATABASE_URL")
	if url == "" {
		t.Skip("DATABASE_URL not set")
	}
	pgxCfg, err := pgx.ParseConfig(url)
	require.NoError(t, err)
	db := sqlx.NewDb(stdlib.OpenDB(*pgxCfg), "pgx")
	t.Cleanup(func() { _ = db.Close() })

	ctx := context.Background()
	require.NoError(t, Migrate(ctx, db))
	require.NoError(t, Migrate(ctx, db), "migrations are idempotent")
	_, err = db.ExecContext(ctx, `TRUNCATE reservations, parking_spots, parking_lots, users RESTART IDENTITY CASCADE`)
	require.NoError(t, err)
	return NewStore(db)
}

func seedIntegrationLot(t *testing.T, store *Store, spots int) (*domain.User, *domain.ParkingLot, []domain.ParkingSpot) {
	t.Helper()
	ctx := context.Background()
	repos := store.Repos()
	user, err := repos.Users.Create(ctx, &domain.User{Email: "driver@example.com", Password: "hash", Name: "Driver", Role: domain.RoleUser})
	require.NoError(t, err)
	lot, err := repos.Lots.Create(ctx, &domain.ParkingLot{PrimeLocationName: "Central", MaxSpots: spots})
	require.NoError(t, err)
	created, err := repos.Spots.CreateMany(ctx, lot.ID, spots)
	require.NoError(t, err)
	return user, lot, created
}

func TestPgUserEmailIsUnique(t *testing.T) {
	store := newIntegrationStore(t)
	ctx := context.Background()
	users := store.Repos().Users

	_, err := users.Create(ctx, &domain.User{Email: "a@example.com", Password: "hash", Name: "A", Role: domain.RoleUser})
	require.NoError(t, err)
	_, err = users.Create(ctx, &domain.User{Email: "a@example.com", Password: "hash", Name: "B", Role: domain.RoleUser})
	assert.ErrorIs(t, err, repository.ErrDuplicateEntry)
}

func TestPgOneOpenReservationPerSpot(t *testing.T) {
	store := newIntegrationStore(t)
	ctx := context.Background()
	user, lot, spots := seedIntegrationLot(t, store, 1)
	reservations := store.Repos().Reservations

	open := func() error {
		_, err := reservations.Create(ctx, &domain.Reservation{
			SpotID: spots[0].ID, LotID: lot.ID, UserID: user.ID, VehicleNo: "KA01", ParkingTimestamp: time.Now().UTC(),
		})
		return err
	}
	require.NoError(t, open())
	assert.ErrorIs(t, open(), repository.ErrSpotConflict)
}

func TestPgAllocationSkipsLockedSpots(t *testing.T) {
	store := newIntegrationStore(t)
	ctx := context.Background()
	_, lot, spots := seedIntegrationLot(t, store, 2)

	locked := make(chan int)
	release := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		done <- store.WithinTransaction(ctx, func(ctx context.Context, repos repository.Repositories) error {
			spot, err := repos.Spots.FindFirstAvailableByLotID(ctx, lot.ID)
			if err != nil {
				close(locked)
				return err
			}
			locked <- spot.ID
			<-release
			return nil
		})
	}()

	first, ok := <-locked
	require.True(t, ok, "first transaction failed to lock a spot")
	assert.Equal(t, spots[0].ID, first)

	err := store.WithinTransaction(ctx, func(ctx context.Context, repos repository.Repositories) error {
		spot, err := repos.Spots.FindFirstAvailableByLotID(ctx, lot.ID)
		if err != nil {
			return err
		}
		assert.Equal(t, spots[1].ID, spot.ID, "the locked spot is skipped")
		return nil
	})
	require.NoError(t, err)

	close(release)
	require.NoError(t, <-done)
}

func TestPgDeleteByLotIDLeavesOccupiedSpots(t *testing.T) {
	store := newIntegrationStore(t)
	ctx := context.Background()
	_, lot, spots := seedIntegrationLot(t, store, 3)
	repo := store.Repos().Spots

	require.NoError(t, repo.UpdateStatus(ctx, spots[2].ID, domain.SpotAvailable, domain.SpotOccupied))
	deleted, err := repo.DeleteByLotID(ctx, lot.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)

	total, occupied, err := repo.CountByLotID(ctx, lot.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, 1, occupied)
}
