package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"parking_manager/internal/domain"
	"parking_manager/internal/logger"
	"parking_manager/internal/repository"
)

const maxVehicleNoLen = 20

// ReservationService opens and closes reservations. Each transition runs in
// one store transaction; events are published only after it commits.
type ReservationService struct {
	store      repository.Store
	allocator  *SpotAllocator
	publisher  EventPublisher
	hourlyRate float64
	now        func() time.Time
}

func NewReservationService(store repository.Store, publisher EventPublisher, hourlyRate float64) *ReservationService {
	if publisher == nil {
		publisher = nopPublisher{}
	}
	return &ReservationService{
		store:      store,
		allocator:  NewSpotAllocator(),
		publisher:  publisher,
		hourlyRate: hourlyRate,
		now:        time.Now,
	}
}

func (s *ReservationService) HourlyRate() float64 {
	return s.hourlyRate
}

func normalizeVehicleNo(raw string) (string, error) {
	v := strings.ToUpper(strings.TrimSpace(raw))
	if v == "" || utf8.RuneCountInString(v) > maxVehicleNoLen {
		return "", fmt.Errorf("%w: vehicle number must be 1 to %d characters", ErrInvalidInput, maxVehicleNoLen)
	}
	return v, nil
}

// Open books the first available spot of lotID for the caller.
func (s *ReservationService) Open(ctx context.Context, identity domain.Identity, lotID int, vehicleNo string) (*domain.Reservation, error) {
	vehicleNo, err := normalizeVehicleNo(vehicleNo)
	if err != nil {
		return nil, err
	}

	var created *domain.Reservation
	err = s.store.WithinTransaction(ctx, func(ctx context.Context, repos repository.Repositories) error {
		if _, err := repos.Lots.FindByID(ctx, lotID); err != nil {
			return fmt.Errorf("parking lot %d: %w", lotID, err)
		}

		spot, err := s.allocator.Allocate(ctx, repos.Spots, lotID)
		if err != nil {
			return err
		}

		created, err = repos.Reservations.Create(ctx, &domain.Reservation{
			SpotID:           spot.ID,
			LotID:            lotID,
			UserID:           identity.UserID,
			VehicleNo:        vehicleNo,
			ParkingTimestamp: s.now().UTC(),
		})
		if err != nil {
			return err
		}

		if err := repos.Spots.UpdateStatus(ctx, spot.ID, domain.SpotAvailable, domain.SpotOccupied); err != nil {
			return fmt.Errorf("occupying spot %d: %w", spot.ID, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Infof("reservation %d opened: user=%d lot=%d spot=%d vehicle=%s",
		created.ID, created.UserID, created.LotID, created.SpotID, created.VehicleNo)
	s.publish(ctx, domain.EventReservationOpened, created, domain.SpotOccupied)
	return created, nil
}

// PreviewSpot reports the spot Open would assign in lotID right now without
// taking it. A booking made in between may claim it first.
func (s *ReservationService) PreviewSpot(ctx context.Context, lotID int) (*domain.ParkingSpot, error) {
	repos := s.store.Repos()
	if _, err := repos.Lots.FindByID(ctx, lotID); err != nil {
		return nil, fmt.Errorf("parking lot %d: %w", lotID, err)
	}
	return s.allocator.Allocate(ctx, repos.Spots, lotID)
}

// Close releases the caller's reservation, stamps the leaving time and
// fixes its cost.
func (s *ReservationService) Close(ctx context.Context, identity domain.Identity, reservationID int) (*domain.Reservation, error) {
	var closed *domain.Reservation
	err := s.store.WithinTransaction(ctx, func(ctx context.Context, repos repository.Repositories) error {
		res, err := repos.Reservations.LockByID(ctx, reservationID)
		if err != nil {
			return fmt.Errorf("reservation %d: %w", reservationID, err)
		}
		if res.UserID != identity.UserID {
			return ErrForbidden
		}
		if !res.IsOpen() {
			return ErrAlreadyClosed
		}

		leavingAt := s.now().UTC()
		if leavingAt.Before(res.ParkingTimestamp) {
			leavingAt = res.ParkingTimestamp
		}
		cost := CalculateCost(res.ParkingTimestamp, leavingAt, s.hourlyRate)

		if err := repos.Reservations.Close(ctx, res.ID, leavingAt, cost); err != nil {
			if errors.Is(err, repository.ErrSpotConflict) {
				return ErrAlreadyClosed
			}
			return err
		}

		err = repos.Spots.UpdateStatus(ctx, res.SpotID, domain.SpotOccupied, domain.SpotAvailable)
		switch {
		case errors.Is(err, repository.ErrNotFound):
			logger.Warningf("reservation %d closed but spot %d no longer exists", res.ID, res.SpotID)
		case err != nil:
			return fmt.Errorf("releasing spot %d: %w", res.SpotID, err)
		}

		res.LeavingTimestamp.SetValid(leavingAt)
		res.ParkingCost = cost
		closed = res
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Infof("reservation %d closed: user=%d spot=%d cost=%.2f", closed.ID, closed.UserID, closed.SpotID, closed.ParkingCost)
	s.publish(ctx, domain.EventReservationClosed, closed, domain.SpotAvailable)
	return closed, nil
}

// GetReservation returns one ledger entry with its owner. An open
// reservation carries the cost it would have if released now. Users may
// only read their own reservations.
func (s *ReservationService) GetReservation(ctx context.Context, identity domain.Identity, reservationID int) (*domain.ReservationDetail, error) {
	repos := s.store.Repos()
	res, err := repos.Reservations.FindByID(ctx, reservationID)
	if err != nil {
		return nil, fmt.Errorf("reservation %d: %w", reservationID, err)
	}
	if !identity.IsAdmin() && res.UserID != identity.UserID {
		return nil, ErrForbidden
	}

	detail := &domain.ReservationDetail{Reservation: *res}
	if res.IsOpen() {
		estimate := CalculateCost(res.ParkingTimestamp, s.now().UTC(), s.hourlyRate)
		detail.EstimatedCost = &estimate
	}
	owner, err := repos.Users.FindByID(ctx, res.UserID)
	switch {
	case err == nil:
		owner.Password = ""
		detail.User = owner
	case !errors.Is(err, repository.ErrNotFound):
		return nil, err
	}
	return detail, nil
}

// ListReservations returns the caller's own reservations, newest first.
// Admins see every reservation matching the filter.
func (s *ReservationService) ListReservations(ctx context.Context, identity domain.Identity, filter domain.ReservationFilterDTO) ([]domain.Reservation, error) {
	if !identity.IsAdmin() {
		uid := identity.UserID
		filter.UserID = &uid
	}
	return s.store.Repos().Reservations.Find(ctx, filter)
}

func (s *ReservationService) publish(ctx context.Context, eventType domain.ReservationEventType, res *domain.Reservation, status domain.SpotStatus) {
	event := domain.ReservationEvent{
		ID:            uuid.NewString(),
		Type:          eventType,
		ReservationID: res.ID,
		LotID:         res.LotID,
		SpotID:        res.SpotID,
		UserID:        res.UserID,
		VehicleNo:     res.VehicleNo,
		SpotStatus:    status,
		ParkingCost:   res.ParkingCost,
		OccurredAt:    s.now().UTC(),
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		logger.Warningf("publishing %s for reservation %d: %v", eventType, res.ID, err)
	}
}
