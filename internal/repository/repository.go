package repository

import (
	"context"
	"errors"
	"parking_manager/internal/domain"
	"time"
)

var ErrNotFound = errors.New("record not found")
var ErrDuplicateEntry = errors.New("record already exists")

// ErrSpotConflict is returned when a guarded update finds the row no longer in
// the expected state, i.e. another transaction changed it first.
var ErrSpotConflict = errors.New("record changed concurrently")

type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByID(ctx context.Context, id int) (*domain.User, error)
	FindByRole(ctx context.Context, role domain.Role) ([]domain.User, error)
	ExistsByRole(ctx context.Context, role domain.Role) (bool, error)
}

type ParkingLotRepository interface {
	Create(ctx context.Context, lot *domain.ParkingLot) (*domain.ParkingLot, error)
	FindByID(ctx context.Context, id int) (*domain.ParkingLot, error)
	// LockByID reads the lot and, where the backend supports it, holds a row
	// lock until the surrounding transaction ends.
	LockByID(ctx context.Context, id int) (*domain.ParkingLot, error)
	FindAll(ctx context.Context) ([]domain.ParkingLot, error)
	Update(ctx context.Context, lot *domain.ParkingLot) (*domain.ParkingLot, error)
	Delete(ctx context.Context, id int) error
}

type ParkingSpotRepository interface {
	CreateMany(ctx context.Context, lotID int, count int) ([]domain.ParkingSpot, error)
	FindByID(ctx context.Context, id int) (*domain.ParkingSpot, error)
	FindByLotID(ctx context.Context, lotID int) ([]domain.ParkingSpot, error)
	CountByLotID(ctx context.Context, lotID int) (total int, occupied int, err error)
	// FindFirstAvailableByLotID returns the available spot with the lowest id.
	FindFirstAvailableByLotID(ctx context.Context, lotID int) (*domain.ParkingSpot, error)
	// FindAvailableByLotIDDesc returns up to limit available spots, highest id first.
	FindAvailableByLotIDDesc(ctx context.Context, lotID int, limit int) ([]domain.ParkingSpot, error)
	// UpdateStatus moves a spot from one status to another and fails with
	// ErrSpotConflict when the spot is not in the from status.
	UpdateStatus(ctx context.Context, id int, from, to domain.SpotStatus) error
	DeleteByIDs(ctx context.Context, ids []int) (int64, error)
	// DeleteByLotID removes the available spots of a lot and reports how
	// many went; occupied spots are left in place.
	DeleteByLotID(ctx context.Context, lotID int) (int64, error)
	// Delete removes an available spot; an occupied one yields ErrSpotConflict.
	Delete(ctx context.Context, id int) error
}

type ReservationRepository interface {
	Create(ctx context.Context, reservation *domain.Reservation) (*domain.Reservation, error)
	FindByID(ctx context.Context, id int) (*domain.Reservation, error)
	LockByID(ctx context.Context, id int) (*domain.Reservation, error)
	// Close sets the leaving timestamp and cost of an open reservation and
	// fails with ErrSpotConflict when it is already closed.
	Close(ctx context.Context, id int, leavingAt time.Time, cost float64) error
	FindOpenBySpotID(ctx context.Context, spotID int) (*domain.Reservation, error)
	FindLatestBySpotID(ctx context.Context, spotID int) (*domain.Reservation, error)
	FindByUserID(ctx context.Context, userID int) ([]domain.Reservation, error)
	Find(ctx context.Context, filter domain.ReservationFilterDTO) ([]domain.Reservation, error)
}

type SummaryRepository interface {
	LotSummaries(ctx context.Context) ([]domain.LotSummary, error)
	UsageByUser(ctx context.Context, userID int) ([]domain.LotUsage, error)
}

// Repositories groups the repositories bound to one connection or transaction.
type Repositories struct {
	Users        UserRepository
	Lots         ParkingLotRepository
	Spots        ParkingSpotRepository
	Reservations ReservationRepository
	Summary      SummaryRepository
}

type TxFunc func(ctx context.Context, repos Repositories) error

// Store is the record store. Repos are bound to the plain connection; the
// ones handed to WithinTransaction are bound to a transaction which commits
// when fn returns nil and rolls back otherwise.
type Store interface {
	Repos() Repositories
	WithinTransaction(ctx context.Context, fn TxFunc) error
	Ping(ctx context.Context) error
	Close() error
}
