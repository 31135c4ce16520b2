package postgresql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"parking_manager/internal/domain"
	"parking_manager/internal/repository"
	"strings"
	"time"
)

type pgReservationRepository struct {
	db conn
}

func NewPgReservationRepository(db conn) repository.ReservationRepository {
	return &pgReservationRepository{db: db}
}

const reservationColumns = `id, spot_id, lot_id, user_id, vehicle_no, parking_timestamp, leaving_timestamp, parking_cost`

func scanReservation(row scanner) (*domain.Reservation, error) {
	res := &domain.Reservation{}
	err := row.Scan(&res.ID, &res.SpotID, &res.LotID, &res.UserID, &res.VehicleNo,
		&res.ParkingTimestamp, &res.LeavingTimestamp, &res.ParkingCost)
	if err != nil {
		return nil, err
	}
	res.ParkingTimestamp = res.ParkingTimestamp.In(time.UTC)
	if res.LeavingTimestamp.Valid {
		res.LeavingTimestamp.Time = res.LeavingTimestamp.Time.In(time.UTC)
	}
	return res, nil
}

func (r *pgReservationRepository) Create(ctx context.Context, res *domain.Reservation) (*domain.Reservation, error) {
	query := `INSERT INTO reservations (spot_id, lot_id, user_id, vehicle_no, parking_timestamp, leaving_timestamp, parking_cost)
	           VALUES ($1, $2, $3, $4, $5, NULL, 0)
	           RETURNING id`
	err := r.db.QueryRowContext(ctx, query, res.SpotID, res.LotID, res.UserID, res.VehicleNo, res.ParkingTimestamp).Scan(&res.ID)
	if err != nil {
		if isUniqueViolation(err, "uq_reservations_open_spot") {
			return nil, fmt.Errorf("%w: spot %d already has an open reservation", repository.ErrSpotConflict, res.SpotID)
		}
		return nil, fmt.Errorf("ReservationRepository.Create: %w", err)
	}
	res.ParkingCost = 0
	return res, nil
}

func (r *pgReservationRepository) FindByID(ctx context.Context, id int) (*domain.Reservation, error) {
	return r.findOne(ctx, "FindByID", `SELECT `+reservationColumns+` FROM reservations WHERE id = $1`, id)
}

func (r *pgReservationRepository) LockByID(ctx context.Context, id int) (*domain.Reservation, error) {
	return r.findOne(ctx, "LockByID", `SELECT `+reservationColumns+` FROM reservations WHERE id = $1 FOR UPDATE`, id)
}

func (r *pgReservationRepository) FindOpenBySpotID(ctx context.Context, spotID int) (*domain.Reservation, error) {
	query := `SELECT ` + reservationColumns + ` FROM reservations WHERE spot_id = $1 AND leaving_timestamp IS NULL`
	return r.findOne(ctx, "FindOpenBySpotID", query, spotID)
}

func (r *pgReservationRepository) FindLatestBySpotID(ctx context.Context, spotID int) (*domain.Reservation, error) {
	query := `SELECT ` + reservationColumns + ` FROM reservations
	           WHERE spot_id = $1 ORDER BY parking_timestamp DESC, id DESC LIMIT 1`
	return r.findOne(ctx, "FindLatestBySpotID", query, spotID)
}

func (r *pgReservationRepository) findOne(ctx context.Context, op string, query string, args ...any) (*domain.Reservation, error) {
	res, err := scanReservation(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("ReservationRepository.%s: %w", op, err)
	}
	return res, nil
}

func (r *pgReservationRepository) Close(ctx context.Context, id int, leavingAt time.Time, cost float64) error {
	query := `UPDATE reservations SET leaving_timestamp = $1, parking_cost = $2
	           WHERE id = $3 AND leaving_timestamp IS NULL`
	result, err := r.db.ExecContext(ctx, query, leavingAt, cost, id)
	if err != nil {
		return fmt.Errorf("ReservationRepository.Close: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("ReservationRepository.Close (checking rows affected): %w", err)
	}
	if rowsAffected == 0 {
		return repository.ErrSpotConflict
	}
	return nil
}

func (r *pgReservationRepository) FindByUserID(ctx context.Context, userID int) ([]domain.Reservation, error) {
	uid := userID
	return r.Find(ctx, domain.ReservationFilterDTO{UserID: &uid})
}

func (r *pgReservationRepository) Find(ctx context.Context, filter domain.ReservationFilterDTO) ([]domain.Reservation, error) {
	baseQuery := `SELECT ` + reservationColumns + ` FROM reservations`

	var conditions []string
	var args []interface{}
	argID := 1

	if filter.LotID != nil {
		conditions = append(conditions, fmt.Sprintf("lot_id = $%d", argID))
		args = append(args, *filter.LotID)
		argID++
	}
	if filter.UserID != nil {
		conditions = append(conditions, fmt.Sprintf("user_id = $%d", argID))
		args = append(args, *filter.UserID)
		argID++
	}
	if filter.Open != nil {
		if *filter.Open {
			conditions = append(conditions, "leaving_timestamp IS NULL")
		} else {
			conditions = append(conditions, "leaving_timestamp IS NOT NULL")
		}
	}

	query := baseQuery
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY parking_timestamp DESC, id DESC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("ReservationRepository.Find: %w", err)
	}
	defer rows.Close()

	var reservations []domain.Reservation
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, fmt.Errorf("ReservationRepository.Find (scanning row): %w", err)
		}
		reservations = append(reservations, *res)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("ReservationRepository.Find (rows error): %w", err)
	}
	return reservations, nil
}
