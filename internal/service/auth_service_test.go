package service

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"parking_manager/internal/domain"
)

const testSecret = "test-secret-0123456789"

func newAuth(t *testing.T, f *fixture, ttl time.Duration) *AuthService {
	t.Helper()
	auth := NewAuthService(f.store.Repos().Users, testSecret, ttl)
	auth.bcryptCost = bcrypt.MinCost
	return auth
}

func TestRegisterAndLogin(t *testing.T) {
	f := newFixture(t)
	auth := newAuth(t, f, time.Hour)
	ctx := context.Background()

	created, err := auth.Register(ctx, domain.RegisterUserDTO{
		Email: "Driver@Example.com", Password: "hunter22", Name: "Driver",
	})
	require.NoError(t, err)
	assert.Equal(t, "driver@example.com", created.Email)
	assert.Equal(t, domain.RoleUser, created.Role)
	assert.Empty(t, created.Password)

	stored, err := f.store.Repos().Users.FindByEmail(ctx, "driver@example.com")
	require.NoError(t, err)
	assert.NotEqual(t, "hunter22", stored.Password, "only the hash is stored")
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.Password), []byte("hunter22")))

	_, err = auth.Register(ctx, domain.RegisterUserDTO{Email: "driver@EXAMPLE.com", Password: "another1", Name: "Dup"})
	assert.ErrorIs(t, err, ErrUserAlreadyExists)

	resp, err := auth.Login(ctx, domain.LoginUserDTO{Email: "DRIVER@example.com", Password: "hunter22"})
	require.NoError(t, err)
	assert.Equal(t, created.ID, resp.UserID)

	identity, err := auth.ValidateToken(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, domain.Identity{UserID: created.ID, Role: domain.RoleUser}, identity)

	_, err = auth.Login(ctx, domain.LoginUserDTO{Email: "driver@example.com", Password: "wrong-password"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = auth.Login(ctx, domain.LoginUserDTO{Email: "nobody@example.com", Password: "hunter22"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestRegisterRejectsShortPassword(t *testing.T) {
	f := newFixture(t)
	auth := newAuth(t, f, time.Hour)

	_, err := auth.Register(context.Background(), domain.RegisterUserDTO{Email: "a@b.co", Password: "123", Name: "A"})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestEnsureAdminSeedsOnce(t *testing.T) {
	f := newFixture(t)
	auth := newAuth(t, f, time.Hour)
	ctx := context.Background()

	require.NoError(t, auth.EnsureAdmin(ctx, "", "ignored"))
	require.NoError(t, auth.EnsureAdmin(ctx, "admin@example.com", "admin-pass"))
	require.NoError(t, auth.EnsureAdmin(ctx, "other-admin@example.com", "admin-pass"))

	admins, err := f.store.Repos().Users.FindByRole(ctx, domain.RoleAdmin)
	require.NoError(t, err)
	require.Len(t, admins, 1)
	assert.Equal(t, "admin@example.com", admins[0].Email)

	resp, err := auth.Login(ctx, domain.LoginUserDTO{Email: "admin@example.com", Password: "admin-pass"})
	require.NoError(t, err)
	identity, err := auth.ValidateToken(resp.Token)
	require.NoError(t, err)
	assert.True(t, identity.IsAdmin())
}

func TestValidateTokenRejectsBadTokens(t *testing.T) {
	f := newFixture(t)
	auth := newAuth(t, f, time.Hour)

	sign := func(secret string, claims jwt.MapClaims) string {
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
		require.NoError(t, err)
		return token
	}
	exp := time.Now().Add(time.Hour).Unix()

	tests := map[string]string{
		"garbage":      "not-a-token",
		"wrong secret": sign("another-secret-0123456789", jwt.MapClaims{"sub": "1", "role": "user", "exp": exp}),
		"expired":      sign(testSecret, jwt.MapClaims{"sub": "1", "role": "user", "exp": time.Now().Add(-time.Hour).Unix()}),
		"bad subject":  sign(testSecret, jwt.MapClaims{"sub": "abc", "role": "user", "exp": exp}),
		"unknown role": sign(testSecret, jwt.MapClaims{"sub": "1", "role": "root", "exp": exp}),
	}
	for name, token := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := auth.ValidateToken(token)
			assert.ErrorIs(t, err, ErrTokenInvalid)
		})
	}
}

func TestLoginTokenLifetime(t *testing.T) {
	f := newFixture(t)
	auth := newAuth(t, f, 2*time.Hour)
	ctx := context.Background()

	require.NoError(t, auth.EnsureAdmin(ctx, "admin@example.com", "admin-pass"))
	before := time.Now()
	resp, err := auth.Login(ctx, domain.LoginUserDTO{Email: "admin@example.com", Password: "admin-pass"})
	require.NoError(t, err)

	claims := jwt.MapClaims{}
	_, err = jwt.ParseWithClaims(resp.Token, claims, func(*jwt.Token) (any, error) { return []byte(testSecret), nil })
	require.NoError(t, err)
	exp, err := claims.GetExpirationTime()
	require.NoError(t, err)
	assert.WithinDuration(t, before.Add(2*time.Hour), exp.Time, 5*time.Second)
}
