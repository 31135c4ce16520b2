package postgresql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"parking_manager/internal/domain"
	"parking_manager/internal/repository"
	"sort"
	"time"

	"github.com/lib/pq"
)

type pgParkingSpotRepository struct {
	db conn
}

func NewPgParkingSpotRepository(db conn) repository.ParkingSpotRepository {
	return &pgParkingSpotRepository{db: db}
}

const spotColumns = `id, lot_id, status, created_at, updated_at`

func scanSpot(row scanner) (*domain.ParkingSpot, error) {
	spot := &domain.ParkingSpot{}
	if err := row.Scan(&spot.ID, &spot.LotID, &spot.Status, &spot.CreatedAt, &spot.UpdatedAt); err != nil {
		return nil, err
	}
	spot.CreatedAt = spot.CreatedAt.In(time.UTC)
	spot.UpdatedAt = spot.UpdatedAt.In(time.UTC)
	return spot, nil
}

func (r *pgParkingSpotRepository) querySpots(ctx context.Context, op string, query string, args ...any) ([]domain.ParkingSpot, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("ParkingSpotRepository.%s: %w", op, err)
	}
	defer rows.Close()

	var spots []domain.ParkingSpot
	for rows.Next() {
		spot, err := scanSpot(rows)
		if err != nil {
			return nil, fmt.Errorf("ParkingSpotRepository.%s (scanning row): %w", op, err)
		}
		spots = append(spots, *spot)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("ParkingSpotRepository.%s (rows error): %w", op, err)
	}
	return spots, nil
}

func (r *pgParkingSpotRepository) CreateMany(ctx context.Context, lotID int, count int) ([]domain.ParkingSpot, error) {
	if count <= 0 {
		return nil, nil
	}
	query := `INSERT INTO parking_spots (lot_id, status, created_at, updated_at)
	           SELECT $1, $2, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP FROM generate_series(1, $3)
	           RETURNING ` + spotColumns
	spots, err := r.querySpots(ctx, "CreateMany", query, lotID, domain.SpotAvailable, count)
	if err != nil {
		return nil, err
	}
	sort.Slice(spots, func(i, j int) bool { return spots[i].ID < spots[j].ID })
	return spots, nil
}

func (r *pgParkingSpotRepository) FindByID(ctx context.Context, id int) (*domain.ParkingSpot, error) {
	query := `SELECT ` + spotColumns + ` FROM parking_spots WHERE id = $1`
	spot, err := scanSpot(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("ParkingSpotRepository.FindByID: %w", err)
	}
	return spot, nil
}

func (r *pgParkingSpotRepository) FindByLotID(ctx context.Context, lotID int) ([]domain.ParkingSpot, error) {
	query := `SELECT ` + spotColumns + ` FROM parking_spots WHERE lot_id = $1 ORDER BY id`
	return r.querySpots(ctx, "FindByLotID", query, lotID)
}

func (r *pgParkingSpotRepository) CountByLotID(ctx context.Context, lotID int) (int, int, error) {
	query := `SELECT COUNT(*), COALESCE(SUM(CASE WHEN status = $2 THEN 1 ELSE 0 END), 0)
	           FROM parking_spots WHERE lot_id = $1`
	var total, occupied int
	if err := r.db.QueryRowContext(ctx, query, lotID, domain.SpotOccupied).Scan(&total, &occupied); err != nil {
		return 0, 0, fmt.Errorf("ParkingSpotRepository.CountByLotID: %w", err)
	}
	return total, occupied, nil
}

func (r *pgParkingSpotRepository) FindFirstAvailableByLotID(ctx context.Context, lotID int) (*domain.ParkingSpot, error) {
	// SKIP LOCKED lets a concurrent booking move on to the next free spot
	// instead of queueing behind a spot that is about to be taken.
	query := `SELECT ` + spotColumns + ` FROM parking_spots
	           WHERE lot_id = $1 AND status = $2
	           ORDER BY id ASC LIMIT 1
	           FOR UPDATE SKIP LOCKED`
	spot, err := scanSpot(r.db.QueryRowContext(ctx, query, lotID, domain.SpotAvailable))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("ParkingSpotRepository.FindFirstAvailableByLotID: %w", err)
	}
	return spot, nil
}

func (r *pgParkingSpotRepository) FindAvailableByLotIDDesc(ctx context.Context, lotID int, limit int) ([]domain.ParkingSpot, error) {
	query := `SELECT ` + spotColumns + ` FROM parking_spots
	           WHERE lot_id = $1 AND status = $2
	           ORDER BY id DESC LIMIT $3
	           FOR UPDATE`
	return r.querySpots(ctx, "FindAvailableByLotIDDesc", query, lotID, domain.SpotAvailable, limit)
}

func (r *pgParkingSpotRepository) UpdateStatus(ctx context.Context, id int, from, to domain.SpotStatus) error {
	query := `UPDATE parking_spots SET status = $1, updated_at = CURRENT_TIMESTAMP WHERE id = $2 AND status = $3`
	result, err := r.db.ExecContext(ctx, query, to, id, from)
	if err != nil {
		return fmt.Errorf("ParkingSpotRepository.UpdateStatus: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("ParkingSpotRepository.UpdateStatus (checking rows affected): %w", err)
	}
	if rowsAffected == 0 {
		return r.missOrConflict(ctx, id)
	}
	return nil
}

func (r *pgParkingSpotRepository) DeleteByIDs(ctx context.Context, ids []int) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	result, err := r.db.ExecContext(ctx, `DELETE FROM parking_spots WHERE id = ANY($1) AND status = $2`,
		pq.Array(ids), domain.SpotAvailable)
	if err != nil {
		return 0, fmt.Errorf("ParkingSpotRepository.DeleteByIDs: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("ParkingSpotRepository.DeleteByIDs (checking rows affected): %w", err)
	}
	return rowsAffected, nil
}

func (r *pgParkingSpotRepository) DeleteByLotID(ctx context.Context, lotID int) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM parking_spots WHERE lot_id = $1 AND status = $2`, lotID, domain.SpotAvailable)
	if err != nil {
		return 0, fmt.Errorf("ParkingSpotRepository.DeleteByLotID: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("ParkingSpotRepository.DeleteByLotID (checking rows affected): %w", err)
	}
	return rowsAffected, nil
}

func (r *pgParkingSpotRepository) Delete(ctx context.Context, id int) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM parking_spots WHERE id = $1 AND status = $2`, id, domain.SpotAvailable)
	if err != nil {
		return fmt.Errorf("ParkingSpotRepository.Delete: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("ParkingSpotRepository.Delete (checking rows affected): %w", err)
	}
	if rowsAffected == 0 {
		return r.missOrConflict(ctx, id)
	}
	return nil
}

func (r *pgParkingSpotRepository) missOrConflict(ctx context.Context, id int) error {
	var exists bool
	if err := r.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM parking_spots WHERE id = $1)`, id).Scan(&exists); err != nil {
		return fmt.Errorf("ParkingSpotRepository (checking existence): %w", err)
	}
	if !exists {
		return repository.ErrNotFound
	}
	return repository.ErrSpotConflict
}
