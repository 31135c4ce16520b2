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

type reservationRepository struct {
	db *gorm.DB
}

func NewReservationRepository(db *gorm.DB) repository.ReservationRepository {
	return &reservationRepository{db: db}
}

func (r *reservationRepository) Create(ctx context.Context, res *domain.Reservation) (*domain.Reservation, error) {
	m := &reservationModel{
		SpotID:           res.SpotID,
		LotID:            res.LotID,
		UserID:           res.UserID,
		VehicleNo:        res.VehicleNo,
		ParkingTimestamp: res.ParkingTimestamp.UTC(),
	}
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("%w: spot %d already has an open reservation", repository.ErrSpotConflict, res.SpotID)
		}
		return nil, fmt.Errorf("ReservationRepository.Create: %w", err)
	}
	res.ID = m.ID
	res.ParkingCost = 0
	return res, nil
}

func (r *reservationRepository) FindByID(ctx context.Context, id int) (*domain.Reservation, error) {
	return r.findOne("FindByID", r.db.WithContext(ctx).Where("id = ?", id))
}

// LockByID needs no row lock on the single-connection store.
func (r *reservationRepository) LockByID(ctx context.Context, id int) (*domain.Reservation, error) {
	return r.findOne("LockByID", r.db.WithContext(ctx).Where("id = ?", id))
}

func (r *reservationRepository) FindOpenBySpotID(ctx context.Context, spotID int) (*domain.Reservation, error) {
	return r.findOne("FindOpenBySpotID",
		r.db.WithContext(ctx).Where("spot_id = ? AND leaving_timestamp IS NULL", spotID))
}

func (r *reservationRepository) FindLatestBySpotID(ctx context.Context, spotID int) (*domain.Reservation, error) {
	return r.findOne("FindLatestBySpotID",
		r.db.WithContext(ctx).Where("spot_id = ?", spotID).Order("parking_timestamp DESC, id DESC"))
}

func (r *reservationRepository) findOne(op string, q *gorm.DB) (*domain.Reservation, error) {
	var m reservationModel
	if err := q.Take(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("ReservationRepository.%s: %w", op, err)
	}
	return m.toDomain(), nil
}

func (r *reservationRepository) Close(ctx context.Context, id int, leavingAt time.Time, cost float64) error {
	result := r.db.WithContext(ctx).Model(&reservationModel{}).
		Where("id = ? AND leaving_timestamp IS NULL", id).
		Updates(map[string]any{"leaving_timestamp": leavingAt.UTC(), "parking_cost": cost})
	if result.Error != nil {
		return fmt.Errorf("ReservationRepository.Close: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return repository.ErrSpotConflict
	}
	return nil
}

func (r *reservationRepository) FindByUserID(ctx context.Context, userID int) ([]domain.Reservation, error) {
	uid := userID
	return r.Find(ctx, domain.ReservationFilterDTO{UserID: &uid})
}

func (r *reservationRepository) Find(ctx context.Context, filter domain.ReservationFilterDTO) ([]domain.Reservation, error) {
	q := r.db.WithContext(ctx).Model(&reservationModel{})
	if filter.LotID != nil {
		q = q.Where("lot_id = ?", *filter.LotID)
	}
	if filter.UserID != nil {
		q = q.Where("user_id = ?", *filter.UserID)
	}
	if filter.Open != nil {
		if *filter.Open {
			q = q.Where("leaving_timestamp IS NULL")
		} else {
			q = q.Where("leaving_timestamp IS NOT NULL")
		}
	}

	var models []reservationModel
	if err := q.Order("parking_timestamp DESC, id DESC").Find(&models).Error; err != nil {
		return nil, fmt.Errorf("ReservationRepository.Find: %w", err)
	}
	reservations := make([]domain.Reservation, 0, len(models))
	for i := range models {
		reservations = append(reservations, *models[i].toDomain())
	}
	return reservations, nil
}
