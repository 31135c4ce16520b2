package postgresql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"parking_manager/internal/domain"
	"parking_manager/internal/repository"
	"time"
)

type pgParkingLotRepository struct {
	db conn
}

func NewPgParkingLotRepository(db conn) repository.ParkingLotRepository {
	return &pgParkingLotRepository{db: db}
}

const lotColumns = `id, prime_location_name, address, pin_code, price, max_spots, created_at, updated_at`

func scanLot(row scanner) (*domain.ParkingLot, error) {
	lot := &domain.ParkingLot{}
	err := row.Scan(&lot.ID, &lot.PrimeLocationName, &lot.Address, &lot.PinCode, &lot.Price, &lot.MaxSpots,
		&lot.CreatedAt, &lot.UpdatedAt)
	if err != nil {
		return nil, err
	}
	lot.CreatedAt = lot.CreatedAt.In(time.UTC)
	lot.UpdatedAt = lot.UpdatedAt.In(time.UTC)
	return lot, nil
}

func (r *pgParkingLotRepository) Create(ctx context.Context, lot *domain.ParkingLot) (*domain.ParkingLot, error) {
	query := `INSERT INTO parking_lots (prime_location_name, address, pin_code, price, max_spots)
	           VALUES ($1, $2, $3, $4, $5) RETURNING id, created_at, updated_at`
	err := r.db.QueryRowContext(ctx, query, lot.PrimeLocationName, lot.Address, lot.PinCode, lot.Price, lot.MaxSpots).
		Scan(&lot.ID, &lot.CreatedAt, &lot.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("ParkingLotRepository.Create: %w", err)
	}
	lot.CreatedAt = lot.CreatedAt.In(time.UTC)
	lot.UpdatedAt = lot.UpdatedAt.In(time.UTC)
	return lot, nil
}

func (r *pgParkingLotRepository) FindByID(ctx context.Context, id int) (*domain.ParkingLot, error) {
	return r.findOne(ctx, `SELECT `+lotColumns+` FROM parking_lots WHERE id = $1`, id, "FindByID")
}

func (r *pgParkingLotRepository) LockByID(ctx context.Context, id int) (*domain.ParkingLot, error) {
	return r.findOne(ctx, `SELECT `+lotColumns+` FROM parking_lots WHERE id = $1 FOR UPDATE`, id, "LockByID")
}

func (r *pgParkingLotRepository) findOne(ctx context.Context, query string, id int, op string) (*domain.ParkingLot, error) {
	lot, err := scanLot(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("ParkingLotRepository.%s: %w", op, err)
	}
	return lot, nil
}

func (r *pgParkingLotRepository) FindAll(ctx context.Context) ([]domain.ParkingLot, error) {
	query := `SELECT ` + lotColumns + ` FROM parking_lots ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("ParkingLotRepository.FindAll: %w", err)
	}
	defer rows.Close()

	var lots []domain.ParkingLot
	for rows.Next() {
		lot, err := scanLot(rows)
		if err != nil {
			return nil, fmt.Errorf("ParkingLotRepository.FindAll (scanning row): %w", err)
		}
		lots = append(lots, *lot)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("ParkingLotRepository.FindAll (rows error): %w", err)
	}
	return lots, nil
}

func (r *pgParkingLotRepository) Update(ctx context.Context, lot *domain.ParkingLot) (*domain.ParkingLot, error) {
	query := `UPDATE parking_lots
	           SET prime_location_name = $1, address = $2, pin_code = $3, price = $4, max_spots = $5, updated_at = CURRENT_TIMESTAMP
	           WHERE id = $6 RETURNING updated_at`
	err := r.db.QueryRowContext(ctx, query, lot.PrimeLocationName, lot.Address, lot.PinCode, lot.Price, lot.MaxSpots, lot.ID).
		Scan(&lot.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("ParkingLotRepository.Update: %w", err)
	}
	lot.UpdatedAt = lot.UpdatedAt.In(time.UTC)
	return lot, nil
}

func (r *pgParkingLotRepository) Delete(ctx context.Context, id int) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM parking_lots WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("ParkingLotRepository.Delete: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("ParkingLotRepository.Delete (checking rows affected): %w", err)
	}
	if rowsAffected == 0 {
		return repository.ErrNotFound
	}
	return nil
}
