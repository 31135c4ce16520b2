package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"parking_manager/internal/domain"
	"parking_manager/internal/repository"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := Open(MemoryDSN(t.Name()), false)
	require.NoError(t, err)
	store := NewStore(db)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func seedLot(t *testing.T, store *Store, spots int) (*domain.ParkingLot, []domain.ParkingSpot) {
	t.Helper()
	ctx := context.Background()
	repos := store.Repos()
	lot, err := repos.Lots.Create(ctx, &domain.ParkingLot{PrimeLocationName: "Central", MaxSpots: spots})
	require.NoError(t, err)
	created, err := repos.Spots.CreateMany(ctx, lot.ID, spots)
	require.NoError(t, err)
	return lot, created
}

func TestUserEmailIsUnique(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	users := store.Repos().Users

	_, err := users.Create(ctx, &domain.User{Email: "a@example.com", Password: "hash", Name: "A", Role: domain.RoleUser})
	require.NoError(t, err)

	_, err = users.Create(ctx, &domain.User{Email: "a@example.com", Password: "hash", Name: "B", Role: domain.RoleUser})
	assert.ErrorIs(t, err, repository.ErrDuplicateEntry)

	found, err := users.FindByEmail(ctx, "a@example.com")
	require.NoError(t, err)
	assert.Equal(t, "A", found.Name)

	_, err = users.FindByID(ctx, 999)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestSpotStatusCompareAndSwap(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	_, spots := seedLot(t, store, 2)
	repo := store.Repos().Spots

	require.NoError(t, repo.UpdateStatus(ctx, spots[0].ID, domain.SpotAvailable, domain.SpotOccupied))
	assert.ErrorIs(t, repo.UpdateStatus(ctx, spots[0].ID, domain.SpotAvailable, domain.SpotOccupied), repository.ErrSpotConflict)
	assert.ErrorIs(t, repo.UpdateStatus(ctx, 12345, domain.SpotAvailable, domain.SpotOccupied), repository.ErrNotFound)

	first, err := repo.FindFirstAvailableByLotID(ctx, spots[0].LotID)
	require.NoError(t, err)
	assert.Equal(t, spots[1].ID, first.ID)

	assert.ErrorIs(t, repo.Delete(ctx, spots[0].ID), repository.ErrSpotConflict)

	total, occupied, err := repo.CountByLotID(ctx, spots[0].LotID)
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Equal(t, 1, occupied)
}

func TestOneOpenReservationPerSpot(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	lot, spots := seedLot(t, store, 1)
	repo := store.Repos().Reservations

	now := time.Now().UTC()
	first, err := repo.Create(ctx, &domain.Reservation{SpotID: spots[0].ID, LotID: lot.ID, UserID: 1, VehicleNo: "KA01", ParkingTimestamp: now})
	require.NoError(t, err)

	_, err = repo.Create(ctx, &domain.Reservation{SpotID: spots[0].ID, LotID: lot.ID, UserID: 2, VehicleNo: "KA02", ParkingTimestamp: now})
	assert.ErrorIs(t, err, repository.ErrSpotConflict)

	require.NoError(t, repo.Close(ctx, first.ID, now.Add(time.Hour), 20))
	assert.ErrorIs(t, repo.Close(ctx, first.ID, now.Add(2*time.Hour), 40), repository.ErrSpotConflict)

	_, err = repo.Create(ctx, &domain.Reservation{SpotID: spots[0].ID, LotID: lot.ID, UserID: 2, VehicleNo: "KA02", ParkingTimestamp: now.Add(time.Hour)})
	require.NoError(t, err)

	closed, err := repo.FindByID(ctx, first.ID)
	require.NoError(t, err)
	assert.False(t, closed.IsOpen())
	assert.Equal(t, 20.0, closed.ParkingCost)
	assert.WithinDuration(t, now.Add(time.Hour), closed.LeavingTimestamp.Time, time.Second)

	open := true
	openOnes, err := repo.Find(ctx, domain.ReservationFilterDTO{Open: &open})
	require.NoError(t, err)
	require.Len(t, openOnes, 1)
	assert.Equal(t, "KA02", openOnes[0].VehicleNo)
}

func TestLedgerSurvivesSpotDeletion(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	lot, spots := seedLot(t, store, 1)
	repos := store.Repos()

	now := time.Now().UTC()
	res, err := repos.Reservations.Create(ctx, &domain.Reservation{SpotID: spots[0].ID, LotID: lot.ID, UserID: 7, VehicleNo: "MH12", ParkingTimestamp: now})
	require.NoError(t, err)
	require.NoError(t, repos.Reservations.Close(ctx, res.ID, now.Add(30*time.Minute), 10))

	deleted, err := repos.Spots.DeleteByLotID(ctx, lot.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, deleted)

	mine, err := repos.Reservations.FindByUserID(ctx, 7)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, lot.ID, mine[0].LotID)

	summaries, err := repos.Summary.LotSummaries(ctx)
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.Equal(t, 10.0, summaries[0].Revenue)
	assert.Equal(t, 0, summaries[0].Occupied+summaries[0].Available)

	usage, err := repos.Summary.UsageByUser(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, []domain.LotUsage{{Location: "Central", Count: 1}}, usage)
}

func TestWithinTransactionRollsBack(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	boom := errors.New("boom")

	err := store.WithinTransaction(ctx, func(ctx context.Context, repos repository.Repositories) error {
		if _, err := repos.Lots.Create(ctx, &domain.ParkingLot{PrimeLocationName: "Ghost"}); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	lots, err := store.Repos().Lots.FindAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, lots)
}

func TestDeleteByLotIDLeavesOccupiedSpots(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	lot, spots := seedLot(t, store, 3)
	repo := store.Repos().Spots

	require.NoError(t, repo.UpdateStatus(ctx, spots[1].ID, domain.SpotAvailable, domain.SpotOccupied))

	deleted, err := repo.DeleteByLotID(ctx, lot.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)

	left, err := repo.FindByLotID(ctx, lot.ID)
	require.NoError(t, err)
	require.Len(t, left, 1)
	assert.Equal(t, spots[1].ID, left[0].ID)
}
