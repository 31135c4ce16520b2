package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"parking_manager/internal/service"
)

type SummaryHandler struct {
	parkingService *service.ParkingService
	hourlyRate     float64
}

func NewSummaryHandler(ps *service.ParkingService, hourlyRate float64) *SummaryHandler {
	return &SummaryHandler{parkingService: ps, hourlyRate: hourlyRate}
}

// GET /admin/dashboard
func (h *SummaryHandler) AdminDashboard(c *gin.Context) {
	dashboard, err := h.parkingService.AdminDashboard(c.Request.Context())
	if err != nil {
		respondError(c, err, "could not build dashboard")
		return
	}
	c.JSON(http.StatusOK, gin.H{"dashboard": dashboard, "hourly_rate": h.hourlyRate})
}

// GET /admin/summary
func (h *SummaryHandler) AdminSummary(c *gin.Context) {
	rows, err := h.parkingService.AdminSummary(c.Request.Context())
	if err != nil {
		respondError(c, err, "could not build summary")
		return
	}
	c.JSON(http.StatusOK, rows)
}

// GET /admin/users
func (h *SummaryHandler) RegisteredUsers(c *gin.Context) {
	users, err := h.parkingService.RegisteredUsers(c.Request.Context())
	if err != nil {
		respondError(c, err, "could not list users")
		return
	}
	c.JSON(http.StatusOK, users)
}

// GET /me/summary
func (h *SummaryHandler) UserSummary(c *gin.Context) {
	caller, ok := identity(c)
	if !ok {
		return
	}
	summary, err := h.parkingService.UserSummary(c.Request.Context(), caller.UserID)
	if err != nil {
		respondError(c, err, "could not build summary")
		return
	}
	c.JSON(http.StatusOK, summary)
}

// GET /healthz
func (h *SummaryHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()
	if err := h.parkingService.Ping(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
