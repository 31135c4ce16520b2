package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"parking_manager/internal/domain"
	"parking_manager/internal/logger"
	"parking_manager/internal/repository"
)

// CreateLot stores the lot together with MaxSpots available spots.
func (s *ParkingService) CreateLot(ctx context.Context, dto domain.ParkingLotDTO) (*domain.ParkingLot, error) {
	if err := validateLotDTO(dto); err != nil {
		return nil, err
	}

	var created *domain.ParkingLot
	err := s.store.WithinTransaction(ctx, func(ctx context.Context, repos repository.Repositories) error {
		lot, err := repos.Lots.Create(ctx, &domain.ParkingLot{
			PrimeLocationName: strings.TrimSpace(dto.PrimeLocationName),
			Address:           strings.TrimSpace(dto.Address),
			PinCode:           strings.TrimSpace(dto.PinCode),
			Price:             dto.Price,
			MaxSpots:          dto.MaxSpots,
		})
		if err != nil {
			return err
		}
		if _, err := repos.Spots.CreateMany(ctx, lot.ID, dto.MaxSpots); err != nil {
			return err
		}
		created = lot
		return nil
	})
	if err != nil {
		return nil, err
	}
	logger.Infof("parking lot %d created with %d spots", created.ID, created.MaxSpots)
	return created, nil
}

// UpdateLot changes the lot metadata and resizes it to dto.MaxSpots in one
// transaction.
func (s *ParkingService) UpdateLot(ctx context.Context, lotID int, dto domain.ParkingLotDTO) (*domain.ParkingLot, error) {
	if err := validateLotDTO(dto); err != nil {
		return nil, err
	}

	var updated *domain.ParkingLot
	err := s.store.WithinTransaction(ctx, func(ctx context.Context, repos repository.Repositories) error {
		lot, err := repos.Lots.LockByID(ctx, lotID)
		if err != nil {
			return fmt.Errorf("parking lot %d: %w", lotID, err)
		}
		lot.PrimeLocationName = strings.TrimSpace(dto.PrimeLocationName)
		lot.Address = strings.TrimSpace(dto.Address)
		lot.PinCode = strings.TrimSpace(dto.PinCode)
		lot.Price = dto.Price

		if err := resize(ctx, repos, lot, dto.MaxSpots); err != nil {
			return err
		}
		updated, err = repos.Lots.Update(ctx, lot)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// SetCapacity grows or shrinks the lot to newCount spots. Shrinking removes
// the highest-numbered available spots and fails without changes when
// there are not enough of them.
func (s *ParkingService) SetCapacity(ctx context.Context, lotID int, newCount int) (*domain.ParkingLot, error) {
	if newCount < 0 {
		return nil, fmt.Errorf("%w: capacity cannot be negative", ErrInvalidInput)
	}

	var updated *domain.ParkingLot
	err := s.store.WithinTransaction(ctx, func(ctx context.Context, repos repository.Repositories) error {
		lot, err := repos.Lots.LockByID(ctx, lotID)
		if err != nil {
			return fmt.Errorf("parking lot %d: %w", lotID, err)
		}
		if err := resize(ctx, repos, lot, newCount); err != nil {
			return err
		}
		updated, err = repos.Lots.Update(ctx, lot)
		return err
	})
	if err != nil {
		return nil, err
	}
	logger.Infof("parking lot %d resized to %d spots", lotID, newCount)
	return updated, nil
}

// resize brings the spot rows of lot to newCount and sets lot.MaxSpots. The
// lot must already be locked by the caller's transaction.
func resize(ctx context.Context, repos repository.Repositories, lot *domain.ParkingLot, newCount int) error {
	current, _, err := repos.Spots.CountByLotID(ctx, lot.ID)
	if err != nil {
		return err
	}

	switch {
	case newCount > current:
		if _, err := repos.Spots.CreateMany(ctx, lot.ID, newCount-current); err != nil {
			return err
		}
	case newCount < current:
		surplus := current - newCount
		candidates, err := repos.Spots.FindAvailableByLotIDDesc(ctx, lot.ID, surplus)
		if err != nil {
			return err
		}
		if len(candidates) < surplus {
			return fmt.Errorf("%w: need %d available spots, lot %d has %d",
				ErrCapacityConflict, surplus, lot.ID, len(candidates))
		}
		ids := make([]int, 0, len(candidates))
		for _, spot := range candidates {
			ids = append(ids, spot.ID)
		}
		deleted, err := repos.Spots.DeleteByIDs(ctx, ids)
		if err != nil {
			return err
		}
		if int(deleted) != surplus {
			// a spot was taken between the read and the delete
			return fmt.Errorf("%w: spots of lot %d changed during resize", ErrCapacityConflict, lot.ID)
		}
	}

	lot.MaxSpots = newCount
	return nil
}

// DeleteParkingLot removes the lot and its spots. Reservations stay in the
// ledger.
func (s *ParkingService) DeleteParkingLot(ctx context.Context, lotID int) error {
	err := s.store.WithinTransaction(ctx, func(ctx context.Context, repos repository.Repositories) error {
		if _, err := repos.Lots.LockByID(ctx, lotID); err != nil {
			return fmt.Errorf("parking lot %d: %w", lotID, err)
		}
		total, occupied, err := repos.Spots.CountByLotID(ctx, lotID)
		if err != nil {
			return err
		}
		if occupied > 0 {
			return fmt.Errorf("%w: %d spots occupied", ErrLotNotEmpty, occupied)
		}
		// a booking committed after the count keeps its spot; the guarded
		// delete leaves it behind and the whole deletion rolls back
		deleted, err := repos.Spots.DeleteByLotID(ctx, lotID)
		if err != nil {
			return err
		}
		if deleted != int64(total) {
			return fmt.Errorf("%w: a spot was booked while deleting", ErrLotNotEmpty)
		}
		return repos.Lots.Delete(ctx, lotID)
	})
	if err != nil {
		return err
	}
	logger.Infof("parking lot %d deleted", lotID)
	return nil
}

// DeleteParkingSpot removes an available spot and shrinks its lot by one.
func (s *ParkingService) DeleteParkingSpot(ctx context.Context, spotID int) error {
	err := s.store.WithinTransaction(ctx, func(ctx context.Context, repos repository.Repositories) error {
		spot, err := repos.Spots.FindByID(ctx, spotID)
		if err != nil {
			return fmt.Errorf("parking spot %d: %w", spotID, err)
		}
		lot, err := repos.Lots.LockByID(ctx, spot.LotID)
		if err != nil {
			return fmt.Errorf("parking lot %d: %w", spot.LotID, err)
		}

		if err := repos.Spots.Delete(ctx, spotID); err != nil {
			if errors.Is(err, repository.ErrSpotConflict) {
				return ErrSpotOccupied
			}
			return err
		}

		if lot.MaxSpots > 0 {
			lot.MaxSpots--
		}
		_, err = repos.Lots.Update(ctx, lot)
		return err
	})
	if err != nil {
		return err
	}
	logger.Infof("parking spot %d deleted", spotID)
	return nil
}

func validateLotDTO(dto domain.ParkingLotDTO) error {
	if strings.TrimSpace(dto.PrimeLocationName) == "" {
		return fmt.Errorf("%w: location name is required", ErrInvalidInput)
	}
	if dto.MaxSpots < 0 {
		return fmt.Errorf("%w: capacity cannot be negative", ErrInvalidInput)
	}
	if dto.Price < 0 {
		return fmt.Errorf("%w: price cannot be negative", ErrInvalidInput)
	}
	return nil
}
