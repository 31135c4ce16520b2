package service

import (
	"errors"

	"parking_manager/internal/repository"
)

var (
	ErrNoAvailableSpot  = errors.New("no available spot in this parking lot")
	ErrForbidden        = errors.New("reservation belongs to another user")
	ErrAlreadyClosed    = errors.New("reservation is already closed")
	ErrCapacityConflict = errors.New("not enough available spots to shrink the lot")
	ErrLotNotEmpty      = errors.New("parking lot still has occupied spots")
	ErrSpotOccupied     = errors.New("parking spot is occupied")
	ErrInvalidInput     = errors.New("invalid input")
)

var ErrInvalidCredentials = errors.New("invalid email or password")
var ErrUserAlreadyExists = errors.New("email is already registered")
var ErrTokenInvalid = errors.New("token is invalid or expired")

func isNotFound(err error) bool {
	return errors.Is(err, repository.ErrNotFound)
}
