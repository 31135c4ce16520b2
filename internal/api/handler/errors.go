package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"parking_manager/internal/api/middleware"
	"parking_manager/internal/domain"
	"parking_manager/internal/logger"
	"parking_manager/internal/repository"
	"parking_manager/internal/service"
)

// statusFor maps domain and repository errors to HTTP status codes. Anything
// unknown is a 500.
func statusFor(err error) int {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, service.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrInvalidCredentials), errors.Is(err, service.ErrTokenInvalid):
		return http.StatusUnauthorized
	case errors.Is(err, service.ErrAlreadyClosed),
		errors.Is(err, service.ErrCapacityConflict),
		errors.Is(err, service.ErrLotNotEmpty),
		errors.Is(err, service.ErrSpotOccupied),
		errors.Is(err, service.ErrNoAvailableSpot),
		errors.Is(err, service.ErrUserAlreadyExists),
		errors.Is(err, repository.ErrDuplicateEntry),
		errors.Is(err, repository.ErrSpotConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes err as JSON. Internal errors are logged and hidden
// behind fallback.
func respondError(c *gin.Context, err error, fallback string) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		_ = c.Error(err)
		logger.Errorf("[%s] %s: %v", c.GetString(middleware.RequestIDKey), fallback, err)
		c.JSON(status, gin.H{"error": fallback})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func paramID(c *gin.Context, name string) (int, bool) {
	id, err := strconv.Atoi(c.Param(name))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return 0, false
	}
	return id, true
}

func identity(c *gin.Context) (domain.Identity, bool) {
	id, ok := middleware.IdentityFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
	}
	return id, ok
}
