package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"parking_manager/internal/domain"
	"parking_manager/internal/repository"
	"parking_manager/internal/repository/sqlite"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []domain.ReservationEvent
}

func (p *recordingPublisher) Publish(_ context.Context, event domain.ReservationEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) Events() []domain.ReservationEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]domain.ReservationEvent(nil), p.events...)
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type fixture struct {
	store        repository.Store
	parking      *ParkingService
	reservations *ReservationService
	publisher    *recordingPublisher
	clock        *fakeClock
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := sqlite.Open(sqlite.MemoryDSN(t.Name()), false)
	require.NoError(t, err)
	store := sqlite.NewStore(db)
	t.Cleanup(func() { _ = store.Close() })

	publisher := &recordingPublisher{}
	clock := newFakeClock()
	reservations := NewReservationService(store, publisher, 20)
	reservations.now = clock.Now

	return &fixture{
		store:        store,
		parking:      NewParkingService(store),
		reservations: reservations,
		publisher:    publisher,
		clock:        clock,
	}
}

func (f *fixture) createLot(t *testing.T, name string, spots int) *domain.ParkingLot {
	t.Helper()
	lot, err := f.parking.CreateLot(context.Background(), domain.ParkingLotDTO{PrimeLocationName: name, Price: 20, MaxSpots: spots})
	require.NoError(t, err)
	return lot
}

func user(id int) domain.Identity {
	return domain.Identity{UserID: id, Role: domain.RoleUser}
}

// assertInvariants checks that every lot holds exactly max_spots spots and
// that a spot is occupied exactly when it has an open reservation.
func (f *fixture) assertInvariants(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	repos := f.store.Repos()

	lots, err := repos.Lots.FindAll(ctx)
	require.NoError(t, err)
	for _, lot := range lots {
		spots, err := repos.Spots.FindByLotID(ctx, lot.ID)
		require.NoError(t, err)
		require.Len(t, spots, lot.MaxSpots, "lot %d", lot.ID)

		for _, spot := range spots {
			_, err := repos.Reservations.FindOpenBySpotID(ctx, spot.ID)
			hasOpen := err == nil
			if !hasOpen {
				require.ErrorIs(t, err, repository.ErrNotFound)
			}
			require.Equal(t, hasOpen, spot.Status == domain.SpotOccupied, "spot %d", spot.ID)
		}
	}
}
