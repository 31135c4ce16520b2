package sqlite

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"parking_manager/internal/domain"
	"parking_manager/internal/repository"
)

type parkingLotRepository struct {
	db *gorm.DB
}

func NewParkingLotRepository(db *gorm.DB) repository.ParkingLotRepository {
	return &parkingLotRepository{db: db}
}

func (r *parkingLotRepository) Create(ctx context.Context, lot *domain.ParkingLot) (*domain.ParkingLot, error) {
	m := &lotModel{
		PrimeLocationName: lot.PrimeLocationName,
		Address:           lot.Address,
		PinCode:           lot.PinCode,
		Price:             lot.Price,
		MaxSpots:          lot.MaxSpots,
	}
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return nil, fmt.Errorf("ParkingLotRepository.Create: %w", err)
	}
	return m.toDomain(), nil
}

func (r *parkingLotRepository) FindByID(ctx context.Context, id int) (*domain.ParkingLot, error) {
	var m lotModel
	if err := r.db.WithContext(ctx).First(&m, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("ParkingLotRepository.FindByID: %w", err)
	}
	return m.toDomain(), nil
}

// LockByID is a plain read here: the store runs on a single connection, so
// the surrounding transaction already excludes every other writer.
func (r *parkingLotRepository) LockByID(ctx context.Context, id int) (*domain.ParkingLot, error) {
	return r.FindByID(ctx, id)
}

func (r *parkingLotRepository) FindAll(ctx context.Context) ([]domain.ParkingLot, error) {
	var models []lotModel
	if err := r.db.WithContext(ctx).Order("id").Find(&models).Error; err != nil {
		return nil, fmt.Errorf("ParkingLotRepository.FindAll: %w", err)
	}
	lots := make([]domain.ParkingLot, 0, len(models))
	for i := range models {
		lots = append(lots, *models[i].toDomain())
	}
	return lots, nil
}

func (r *parkingLotRepository) Update(ctx context.Context, lot *domain.ParkingLot) (*domain.ParkingLot, error) {
	now := time.Now().UTC()
	result := r.db.WithContext(ctx).Model(&lotModel{}).Where("id = ?", lot.ID).Updates(map[string]any{
		"prime_location_name": lot.PrimeLocationName,
		"address":             lot.Address,
		"pin_code":            lot.PinCode,
		"price":               lot.Price,
		"max_spots":           lot.MaxSpots,
		"updated_at":          now,
	})
	if result.Error != nil {
		return nil, fmt.Errorf("ParkingLotRepository.Update: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, repository.ErrNotFound
	}
	lot.UpdatedAt = now
	return lot, nil
}

func (r *parkingLotRepository) Delete(ctx context.Context, id int) error {
	result := r.db.WithContext(ctx).Delete(&lotModel{}, id)
	if result.Error != nil {
		return fmt.Errorf("ParkingLotRepository.Delete: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return repository.ErrNotFound
	}
	return nil
}
