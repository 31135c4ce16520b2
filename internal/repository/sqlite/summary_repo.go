package sqlite

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"parking_manager/internal/domain"
	"parking_manager/internal/repository"
)

type summaryRepository struct {
	db *gorm.DB
}

func NewSummaryRepository(db *gorm.DB) repository.SummaryRepository {
	return &summaryRepository{db: db}
}

func (r *summaryRepository) LotSummaries(ctx context.Context) ([]domain.LotSummary, error) {
	query := `SELECT l.id AS lot_id,
	                 l.prime_location_name AS location,
	                 l.max_spots AS max_spots,
	                 COALESCE(s.occupied, 0) AS occupied,
	                 COALESCE(s.available, 0) AS available,
	                 COALESCE(rv.revenue, 0.0) AS revenue
	           FROM parking_lots l
	           LEFT JOIN (
	               SELECT lot_id,
	                      SUM(CASE WHEN status = 'occupied' THEN 1 ELSE 0 END) AS occupied,
	                      SUM(CASE WHEN status = 'available' THEN 1 ELSE 0 END) AS available
	               FROM parking_spots GROUP BY lot_id
	           ) s ON s.lot_id = l.id
	           LEFT JOIN (
	               SELECT lot_id, SUM(parking_cost) AS revenue FROM reservations GROUP BY lot_id
	           ) rv ON rv.lot_id = l.id
	           ORDER BY l.id`
	var rows []domain.LotSummary
	if err := r.db.WithContext(ctx).Raw(query).Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("SummaryRepository.LotSummaries: %w", err)
	}
	return rows, nil
}

func (r *summaryRepository) UsageByUser(ctx context.Context, userID int) ([]domain.LotUsage, error) {
	query := `SELECT l.prime_location_name AS location, COUNT(r.id) AS count
	           FROM reservations r
	           JOIN parking_lots l ON l.id = r.lot_id
	           WHERE r.user_id = ?
	           GROUP BY l.prime_location_name
	           ORDER BY l.prime_location_name`
	var rows []domain.LotUsage
	if err := r.db.WithContext(ctx).Raw(query, userID).Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("SummaryRepository.UsageByUser: %w", err)
	}
	return rows, nil
}
