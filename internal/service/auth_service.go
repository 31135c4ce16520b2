package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"parking_manager/internal/domain"
	"parking_manager/internal/logger"
	"parking_manager/internal/repository"
)

type AuthService struct {
	userRepo      repository.UserRepository
	jwtSecret     string
	jwtExpiration time.Duration
	bcryptCost    int
}

func NewAuthService(userRepo repository.UserRepository, jwtSecret string, jwtExpiration time.Duration) *AuthService {
	return &AuthService{
		userRepo:      userRepo,
		jwtSecret:     jwtSecret,
		jwtExpiration: jwtExpiration,
		bcryptCost:    bcrypt.DefaultCost,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *AuthService) Register(ctx context.Context, dto domain.RegisterUserDTO) (*domain.User, error) {
	return s.createUser(ctx, dto, domain.RoleUser)
}

func (s *AuthService) createUser(ctx context.Context, dto domain.RegisterUserDTO, role domain.Role) (*domain.User, error) {
	email := normalizeEmail(dto.Email)
	if email == "" || strings.TrimSpace(dto.Name) == "" {
		return nil, fmt.Errorf("%w: email and name are required", ErrInvalidInput)
	}
	if len(dto.Password) < 6 || len(dto.Password) > 72 {
		return nil, fmt.Errorf("%w: password must be 6 to 72 bytes", ErrInvalidInput)
	}

	existingUser, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("checking existing user: %w", err)
	}
	if existingUser != nil {
		return nil, ErrUserAlreadyExists
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(dto.Password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	createdUser, err := s.userRepo.Create(ctx, &domain.User{
		Email:    email,
		Password: string(hashedPassword),
		Name:     strings.TrimSpace(dto.Name),
		Address:  strings.TrimSpace(dto.Address),
		PinCode:  strings.TrimSpace(dto.PinCode),
		Role:     role,
	})
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateEntry) {
			return nil, ErrUserAlreadyExists
		}
		return nil, fmt.Errorf("creating user: %w", err)
	}
	createdUser.Password = ""
	return createdUser, nil
}

// EnsureAdmin creates the admin account when no admin exists yet. It is a
// no-op when email is empty.
func (s *AuthService) EnsureAdmin(ctx context.Context, email, password string) error {
	if normalizeEmail(email) == "" {
		return nil
	}
	exists, err := s.userRepo.ExistsByRole(ctx, domain.RoleAdmin)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	admin, err := s.createUser(ctx, domain.RegisterUserDTO{Email: email, Password: password, Name: "Administrator"}, domain.RoleAdmin)
	if err != nil {
		return fmt.Errorf("seeding admin account: %w", err)
	}
	logger.Infof("admin account %s created", admin.Email)
	return nil
}

func (s *AuthService) Login(ctx context.Context, dto domain.LoginUserDTO) (*domain.AuthResponseDTO, error) {
	user, err := s.userRepo.FindByEmail(ctx, normalizeEmail(dto.Email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("finding user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(dto.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	now := time.Now()
	claims := jwt.MapClaims{
		"sub":   strconv.Itoa(user.ID),
		"exp":   now.Add(s.jwtExpiration).Unix(),
		"iat":   now.Unix(),
		"role":  string(user.Role),
		"email": user.Email,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(s.jwtSecret))
	if err != nil {
		return nil, fmt.Errorf("signing token: %w", err)
	}

	return &domain.AuthResponseDTO{
		Token:  tokenString,
		UserID: user.ID,
		Email:  user.Email,
		Name:   user.Name,
		Role:   user.Role,
	}, nil
}

// ValidateToken parses a bearer token and returns the identity it carries.
func (s *AuthService) ValidateToken(tokenString string) (domain.Identity, error) {
	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.jwtSecret), nil
	})
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenMalformed):
			return domain.Identity{}, fmt.Errorf("%w: malformed token", ErrTokenInvalid)
		case errors.Is(err, jwt.ErrTokenExpired):
			return domain.Identity{}, fmt.Errorf("%w: token expired", ErrTokenInvalid)
		case errors.Is(err, jwt.ErrTokenNotValidYet):
			return domain.Identity{}, fmt.Errorf("%w: token not valid yet", ErrTokenInvalid)
		}
		return domain.Identity{}, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}
	if !token.Valid {
		return domain.Identity{}, ErrTokenInvalid
	}

	sub, err := claims.GetSubject()
	if err != nil {
		return domain.Identity{}, fmt.Errorf("%w: missing subject", ErrTokenInvalid)
	}
	userID, err := strconv.Atoi(sub)
	if err != nil || userID <= 0 {
		return domain.Identity{}, fmt.Errorf("%w: bad subject", ErrTokenInvalid)
	}
	role, _ := claims["role"].(string)
	if role != string(domain.RoleAdmin) && role != string(domain.RoleUser) {
		return domain.Identity{}, fmt.Errorf("%w: unknown role", ErrTokenInvalid)
	}
	return domain.Identity{UserID: userID, Role: domain.Role(role)}, nil
}
