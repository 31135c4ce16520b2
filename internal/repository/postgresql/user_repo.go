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

type pgUserRepository struct {
	db conn
}

func NewPgUserRepository(db conn) repository.UserRepository {
	return &pgUserRepository{db: db}
}

const userColumns = `id, email, password_hash, name, address, pin_code, role, created_at, updated_at`

func scanUser(row scanner) (*domain.User, error) {
	user := &domain.User{}
	err := row.Scan(&user.ID, &user.Email, &user.Password, &user.Name, &user.Address, &user.PinCode,
		&user.Role, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return nil, err
	}
	user.CreatedAt = user.CreatedAt.In(time.UTC)
	user.UpdatedAt = user.UpdatedAt.In(time.UTC)
	return user, nil
}

func (r *pgUserRepository) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	query := `INSERT INTO users (email, password_hash, name, address, pin_code, role, created_at, updated_at)
	           VALUES ($1, $2, $3, $4, $5, $6, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
	           RETURNING id, created_at, updated_at`
	// user.Password is already a hash here
	err := r.db.QueryRowContext(ctx, query, user.Email, user.Password, user.Name, user.Address, user.PinCode, user.Role).
		Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err, "users_email_key") {
			return nil, fmt.Errorf("%w: email '%s' is already registered", repository.ErrDuplicateEntry, user.Email)
		}
		return nil, fmt.Errorf("UserRepository.Create: %w", err)
	}
	user.CreatedAt = user.CreatedAt.In(time.UTC)
	user.UpdatedAt = user.UpdatedAt.In(time.UTC)
	return user, nil
}

func (r *pgUserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	user, err := scanUser(r.db.QueryRowContext(ctx, query, email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("UserRepository.FindByEmail: %w", err)
	}
	return user, nil
}

func (r *pgUserRepository) FindByID(ctx context.Context, id int) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	user, err := scanUser(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("UserRepository.FindByID: %w", err)
	}
	return user, nil
}

func (r *pgUserRepository) FindByRole(ctx context.Context, role domain.Role) ([]domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE role = $1 ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query, role)
	if err != nil {
		return nil, fmt.Errorf("UserRepository.FindByRole: %w", err)
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("UserRepository.FindByRole (scanning row): %w", err)
		}
		users = append(users, *user)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("UserRepository.FindByRole (rows error): %w", err)
	}
	return users, nil
}

func (r *pgUserRepository) ExistsByRole(ctx context.Context, role domain.Role) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE role = $1)`, role).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("UserRepository.ExistsByRole: %w", err)
	}
	return exists, nil
}
