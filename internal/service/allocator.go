package service

import (
	"context"
	"errors"
	"fmt"

	"parking_manager/internal/domain"
	"parking_manager/internal/repository"
)

// SpotAllocator picks the available spot with the lowest id in a lot. It
// does not change the spot; the caller marks it occupied in the same
// transaction.
type SpotAllocator struct{}

func NewSpotAllocator() *SpotAllocator {
	return &SpotAllocator{}
}

func (a *SpotAllocator) Allocate(ctx context.Context, spots repository.ParkingSpotRepository, lotID int) (*domain.ParkingSpot, error) {
	spot, err := spots.FindFirstAvailableByLotID(ctx, lotID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNoAvailableSpot
		}
		return nil, fmt.Errorf("allocating spot in lot %d: %w", lotID, err)
	}
	return spot, nil
}
