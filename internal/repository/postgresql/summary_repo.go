package postgresql

import (
	"context"
	"fmt"
	"parking_manager/internal/domain"
	"parking_manager/internal/repository"

	"github.com/jmoiron/sqlx"
)

type pgSummaryRepository struct {
	db sqlx.QueryerContext
}

func NewPgSummaryRepository(db sqlx.QueryerContext) repository.SummaryRepository {
	return &pgSummaryRepository{db: db}
}

func (r *pgSummaryRepository) LotSummaries(ctx context.Context) ([]domain.LotSummary, error) {
	query := `SELECT l.id AS lot_id,
	                 l.prime_location_name AS location,
	                 l.max_spots AS max_spots,
	                 COALESCE(s.occupied, 0) AS occupied,
	                 COALESCE(s.available, 0) AS available,
	                 COALESCE(rv.revenue, 0) AS revenue
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
	if err := sqlx.SelectContext(ctx, r.db, &rows, query); err != nil {
		return nil, fmt.Errorf("SummaryRepository.LotSummaries: %w", err)
	}
	return rows, nil
}

func (r *pgSummaryRepository) UsageByUser(ctx context.Context, userID int) ([]domain.LotUsage, error) {
	query := `SELECT l.prime_location_name AS location, COUNT(r.id) AS count
	           FROM reservations r
	           JOIN parking_lots l ON l.id = r.lot_id
	           WHERE r.user_id = $1
	           GROUP BY l.prime_location_name
	           ORDER BY l.prime_location_name`
	var rows []domain.LotUsage
	if err := sqlx.SelectContext(ctx, r.db, &rows, query, userID); err != nil {
		return nil, fmt.Errorf("SummaryRepository.UsageByUser: %w", err)
	}
	return rows, nil
}
