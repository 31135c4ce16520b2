package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"parking_manager/internal/domain"
	"parking_manager/internal/repository"
)

func spotIDs(t *testing.T, f *fixture, lotID int) []int {
	t.Helper()
	spots, err := f.store.Repos().Spots.FindByLotID(context.Background(), lotID)
	require.NoError(t, err)
	ids := make([]int, 0, len(spots))
	for _, s := range spots {
		ids = append(ids, s.ID)
	}
	return ids
}

func TestCreateLotCreatesSpots(t *testing.T) {
	f := newFixture(t)
	lot := f.createLot(t, "Airport", 4)

	assert.Equal(t, 4, lot.MaxSpots)
	assert.Len(t, spotIDs(t, f, lot.ID), 4)
	f.assertInvariants(t)

	_, err := f.parking.CreateLot(context.Background(), domain.ParkingLotDTO{PrimeLocationName: " ", MaxSpots: 1})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestSetCapacityGrowAndShrink(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	lot := f.createLot(t, "Mall", 3)

	updated, err := f.parking.SetCapacity(ctx, lot.ID, 5)
	require.NoError(t, err)
	assert.Equal(t, 5, updated.MaxSpots)
	assert.Len(t, spotIDs(t, f, lot.ID), 5)
	f.assertInvariants(t)

	// occupy the two lowest spots
	_, err = f.reservations.Open(ctx, user(1), lot.ID, "A")
	require.NoError(t, err)
	_, err = f.reservations.Open(ctx, user(2), lot.ID, "B")
	require.NoError(t, err)
	before := spotIDs(t, f, lot.ID)

	_, err = f.parking.SetCapacity(ctx, lot.ID, 1)
	assert.ErrorIs(t, err, ErrCapacityConflict)
	assert.Equal(t, before, spotIDs(t, f, lot.ID), "failed shrink must not delete anything")
	stored, err := f.store.Repos().Lots.FindByID(ctx, lot.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, stored.MaxSpots)

	updated, err = f.parking.SetCapacity(ctx, lot.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, updated.MaxSpots)
	assert.Equal(t, before[:2], spotIDs(t, f, lot.ID), "shrinking removes the highest ids")
	f.assertInvariants(t)

	updated, err = f.parking.SetCapacity(ctx, lot.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, updated.MaxSpots)

	_, err = f.parking.SetCapacity(ctx, lot.ID, -1)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = f.parking.SetCapacity(ctx, 12345, 3)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestUpdateLotChangesMetadataAndCapacity(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	lot := f.createLot(t, "Old Name", 2)

	updated, err := f.parking.UpdateLot(ctx, lot.ID, domain.ParkingLotDTO{
		PrimeLocationName: "New Name",
		Address:           "1 Main St",
		PinCode:           "560001",
		Price:             35,
		MaxSpots:          4,
	})
	require.NoError(t, err)
	assert.Equal(t, "New Name", updated.PrimeLocationName)
	assert.Equal(t, 35.0, updated.Price)
	assert.Equal(t, 4, updated.MaxSpots)

	stored, err := f.store.Repos().Lots.FindByID(ctx, lot.ID)
	require.NoError(t, err)
	assert.Equal(t, "1 Main St", stored.Address)
	assert.Equal(t, 4, stored.MaxSpots)
	f.assertInvariants(t)
}

func TestDeleteLotWithOccupiedSpot(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	lot := f.createLot(t, "Harbour", 1)

	res, err := f.reservations.Open(ctx, user(1), lot.ID, "KA01")
	require.NoError(t, err)

	err = f.parking.DeleteParkingLot(ctx, lot.ID)
	assert.ErrorIs(t, err, ErrLotNotEmpty)
	_, err = f.store.Repos().Lots.FindByID(ctx, lot.ID)
	require.NoError(t, err)
	assert.Len(t, spotIDs(t, f, lot.ID), 1)

	_, err = f.reservations.Close(ctx, user(1), res.ID)
	require.NoError(t, err)
	require.NoError(t, f.parking.DeleteParkingLot(ctx, lot.ID))

	_, err = f.store.Repos().Lots.FindByID(ctx, lot.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.Empty(t, spotIDs(t, f, lot.ID))

	ledger, err := f.reservations.ListReservations(ctx, user(1), domain.ReservationFilterDTO{})
	require.NoError(t, err)
	assert.Len(t, ledger, 1, "reservations are never deleted")

	assert.ErrorIs(t, f.parking.DeleteParkingLot(ctx, lot.ID), repository.ErrNotFound)
}

func TestDeleteSpot(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	lot := f.createLot(t, "Station", 3)

	res, err := f.reservations.Open(ctx, user(1), lot.ID, "KA01")
	require.NoError(t, err)

	assert.ErrorIs(t, f.parking.DeleteParkingSpot(ctx, res.SpotID), ErrSpotOccupied)

	ids := spotIDs(t, f, lot.ID)
	require.NoError(t, f.parking.DeleteParkingSpot(ctx, ids[2]))

	stored, err := f.store.Repos().Lots.FindByID(ctx, lot.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, stored.MaxSpots)
	assert.Equal(t, ids[:2], spotIDs(t, f, lot.ID))
	f.assertInvariants(t)

	assert.ErrorIs(t, f.parking.DeleteParkingSpot(ctx, ids[2]), repository.ErrNotFound)
}

// staleCountStore hands out spot repositories whose occupancy count was
// taken before any booking, as a concurrent delete would see it.
type staleCountStore struct {
	repository.Store
	total int
}

type staleCountSpots struct {
	repository.ParkingSpotRepository
	total int
}

func (s staleCountSpots) CountByLotID(context.Context, int) (int, int, error) {
	return s.total, 0, nil
}

func (s staleCountStore) WithinTransaction(ctx context.Context, fn repository.TxFunc) error {
	return s.Store.WithinTransaction(ctx, func(ctx context.Context, repos repository.Repositories) error {
		repos.Spots = staleCountSpots{ParkingSpotRepository: repos.Spots, total: s.total}
		return fn(ctx, repos)
	})
}

func TestDeleteLotKeepsSpotBookedAfterCount(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	lot := f.createLot(t, "Airport", 2)

	res, err := f.reservations.Open(ctx, user(1), lot.ID, "KA01")
	require.NoError(t, err)

	stale := NewParkingService(staleCountStore{Store: f.store, total: 2})
	assert.ErrorIs(t, stale.DeleteParkingLot(ctx, lot.ID), ErrLotNotEmpty)

	_, err = f.store.Repos().Lots.FindByID(ctx, lot.ID)
	require.NoError(t, err, "the deletion rolled back")
	assert.Len(t, spotIDs(t, f, lot.ID), 2)
	spot, err := f.store.Repos().Spots.FindByID(ctx, res.SpotID)
	require.NoError(t, err)
	assert.Equal(t, domain.SpotOccupied, spot.Status)
	f.assertInvariants(t)
}
