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

type parkingSpotRepository struct {
	db *gorm.DB
}

func NewParkingSpotRepository(db *gorm.DB) repository.ParkingSpotRepository {
	return &parkingSpotRepository{db: db}
}

func toSpots(models []spotModel) []domain.ParkingSpot {
	spots := make([]domain.ParkingSpot, 0, len(models))
	for i := range models {
		spots = append(spots, *models[i].toDomain())
	}
	return spots
}

func (r *parkingSpotRepository) CreateMany(ctx context.Context, lotID int, count int) ([]domain.ParkingSpot, error) {
	if count <= 0 {
		return nil, nil
	}
	models := make([]spotModel, count)
	for i := range models {
		models[i] = spotModel{LotID: lotID, Status: string(domain.SpotAvailable)}
	}
	if err := r.db.WithContext(ctx).CreateInBatches(&models, 500).Error; err != nil {
		return nil, fmt.Errorf("ParkingSpotRepository.CreateMany: %w", err)
	}
	return toSpots(models), nil
}

func (r *parkingSpotRepository) FindByID(ctx context.Context, id int) (*domain.ParkingSpot, error) {
	var m spotModel
	if err := r.db.WithContext(ctx).First(&m, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("ParkingSpotRepository.FindByID: %w", err)
	}
	return m.toDomain(), nil
}

func (r *parkingSpotRepository) FindByLotID(ctx context.Context, lotID int) ([]domain.ParkingSpot, error) {
	var models []spotModel
	if err := r.db.WithContext(ctx).Where("lot_id = ?", lotID).Order("id").Find(&models).Error; err != nil {
		return nil, fmt.Errorf("ParkingSpotRepository.FindByLotID: %w", err)
	}
	return toSpots(models), nil
}

func (r *parkingSpotRepository) CountByLotID(ctx context.Context, lotID int) (int, int, error) {
	var counts struct {
		Total    int
		Occupied int
	}
	err := r.db.WithContext(ctx).Raw(
		`SELECT COUNT(*) AS total, COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0) AS occupied
		 FROM parking_spots WHERE lot_id = ?`, string(domain.SpotOccupied), lotID,
	).Scan(&counts).Error
	if err != nil {
		return 0, 0, fmt.Errorf("ParkingSpotRepository.CountByLotID: %w", err)
	}
	return counts.Total, counts.Occupied, nil
}

func (r *parkingSpotRepository) FindFirstAvailableByLotID(ctx context.Context, lotID int) (*domain.ParkingSpot, error) {
	var m spotModel
	err := r.db.WithContext(ctx).
		Where("lot_id = ? AND status = ?", lotID, string(domain.SpotAvailable)).
		Order("id ASC").
		First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("ParkingSpotRepository.FindFirstAvailableByLotID: %w", err)
	}
	return m.toDomain(), nil
}

func (r *parkingSpotRepository) FindAvailableByLotIDDesc(ctx context.Context, lotID int, limit int) ([]domain.ParkingSpot, error) {
	var models []spotModel
	err := r.db.WithContext(ctx).
		Where("lot_id = ? AND status = ?", lotID, string(domain.SpotAvailable)).
		Order("id DESC").
		Limit(limit).
		Find(&models).Error
	if err != nil {
		return nil, fmt.Errorf("ParkingSpotRepository.FindAvailableByLotIDDesc: %w", err)
	}
	return toSpots(models), nil
}

func (r *parkingSpotRepository) UpdateStatus(ctx context.Context, id int, from, to domain.SpotStatus) error {
	result := r.db.WithContext(ctx).Model(&spotModel{}).
		Where("id = ? AND status = ?", id, string(from)).
		Updates(map[string]any{"status": string(to), "updated_at": time.Now().UTC()})
	if result.Error != nil {
		return fmt.Errorf("ParkingSpotRepository.UpdateStatus: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return r.missOrConflict(ctx, id)
	}
	return nil
}

func (r *parkingSpotRepository) DeleteByIDs(ctx context.Context, ids []int) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	result := r.db.WithContext(ctx).
		Where("id IN ? AND status = ?", ids, string(domain.SpotAvailable)).
		Delete(&spotModel{})
	if result.Error != nil {
		return 0, fmt.Errorf("ParkingSpotRepository.DeleteByIDs: %w", result.Error)
	}
	return result.RowsAffected, nil
}

func (r *parkingSpotRepository) DeleteByLotID(ctx context.Context, lotID int) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("lot_id = ? AND status = ?", lotID, string(domain.SpotAvailable)).
		Delete(&spotModel{})
	if result.Error != nil {
		return 0, fmt.Errorf("ParkingSpotRepository.DeleteByLotID: %w", result.Error)
	}
	return result.RowsAffected, nil
}

func (r *parkingSpotRepository) Delete(ctx context.Context, id int) error {
	result := r.db.WithContext(ctx).
		Where("id = ? AND status = ?", id, string(domain.SpotAvailable)).
		Delete(&spotModel{})
	if result.Error != nil {
		return fmt.Errorf("ParkingSpotRepository.Delete: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return r.missOrConflict(ctx, id)
	}
	return nil
}

func (r *parkingSpotRepository) missOrConflict(ctx context.Context, id int) error {
	var count int64
	if err := r.db.WithContext(ctx).Model(&spotModel{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return fmt.Errorf("ParkingSpotRepository (checking existence): %w", err)
	}
	if count == 0 {
		return repository.ErrNotFound
	}
	return repository.ErrSpotConflict
}
