package sqlite

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"parking_manager/internal/domain"
	"parking_manager/internal/repository"
)

type userRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) repository.UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	m := &userModel{
		Email:        user.Email,
		PasswordHash: user.Password,
		Name:         user.Name,
		Address:      user.Address,
		PinCode:      user.PinCode,
		Role:         string(user.Role),
	}
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("%w: email '%s' is already registered", repository.ErrDuplicateEntry, user.Email)
		}
		return nil, fmt.Errorf("UserRepository.Create: %w", err)
	}
	return m.toDomain(), nil
}

func (r *userRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.findOne(ctx, "FindByEmail", "email = ?", email)
}

func (r *userRepository) FindByID(ctx context.Context, id int) (*domain.User, error) {
	return r.findOne(ctx, "FindByID", "id = ?", id)
}

func (r *userRepository) findOne(ctx context.Context, op string, cond string, arg any) (*domain.User, error) {
	var m userModel
	if err := r.db.WithContext(ctx).Where(cond, arg).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("UserRepository.%s: %w", op, err)
	}
	return m.toDomain(), nil
}

func (r *userRepository) FindByRole(ctx context.Context, role domain.Role) ([]domain.User, error) {
	var models []userModel
	if err := r.db.WithContext(ctx).Where("role = ?", string(role)).Order("id").Find(&models).Error; err != nil {
		return nil, fmt.Errorf("UserRepository.FindByRole: %w", err)
	}
	users := make([]domain.User, 0, len(models))
	for i := range models {
		users = append(users, *models[i].toDomain())
	}
	return users, nil
}

func (r *userRepository) ExistsByRole(ctx context.Context, role domain.Role) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&userModel{}).Where("role = ?", string(role)).Count(&count).Error; err != nil {
		return false, fmt.Errorf("UserRepository.ExistsByRole: %w", err)
	}
	return count > 0, nil
}
