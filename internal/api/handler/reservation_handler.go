package handler

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"parking_manager/internal/domain"
	"parking_manager/internal/service"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type ReservationHandler struct {
	reservationService *service.ReservationService
}

func NewReservationHandler(rs *service.ReservationService) *ReservationHandler {
	return &ReservationHandler{reservationService: rs}
}

// POST /parking-lots/:id/reservations
func (h *ReservationHandler) BookSpot(c *gin.Context) {
	lotID, ok := paramID(c, "id")
	if !ok {
		return
	}
	caller, ok := identity(c)
	if !ok {
		return
	}

	var dto domain.BookSpotDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	reservation, err := h.reservationService.Open(c.Request.Context(), caller, lotID, dto.VehicleNo)
	if err != nil {
		respondError(c, err, "could not book a spot")
		return
	}
	c.JSON(http.StatusCreated, reservation)
}

// GET /parking-lots/:id/next-spot
func (h *ReservationHandler) NextSpot(c *gin.Context) {
	lotID, ok := paramID(c, "id")
	if !ok {
		return
	}

	spot, err := h.reservationService.PreviewSpot(c.Request.Context(), lotID)
	if err != nil {
		respondError(c, err, "could not look up a free spot")
		return
	}
	c.JSON(http.StatusOK, spot)
}

// POST /reservations/:id/release
func (h *ReservationHandler) ReleaseSpot(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	caller, ok := identity(c)
	if !ok {
		return
	}

	reservation, err := h.reservationService.Close(c.Request.Context(), caller, id)
	if err != nil {
		respondError(c, err, "could not release the spot")
		return
	}
	c.JSON(http.StatusOK, reservation)
}

// GET /reservations
func (h *ReservationHandler) ListReservations(c *gin.Context) {
	caller, ok := identity(c)
	if !ok {
		return
	}

	var filter domain.ReservationFilterDTO
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid filter: " + err.Error()})
		return
	}

	reservations, err := h.reservationService.ListReservations(c.Request.Context(), caller, filter)
	if err != nil {
		respondError(c, err, "could not list reservations")
		return
	}
	if reservations == nil {
		reservations = []domain.Reservation{}
	}
	c.JSON(http.StatusOK, reservations)
}

// GET /reservations/:id
func (h *ReservationHandler) GetReservationByID(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	caller, ok := identity(c)
	if !ok {
		return
	}

	detail, err := h.reservationService.GetReservation(c.Request.Context(), caller, id)
	if err != nil {
		respondError(c, err, "could not load reservation")
		return
	}
	c.JSON(http.StatusOK, detail)
}

// GET /admin/reservations/export
func (h *ReservationHandler) ExportReservations(c *gin.Context) {
	var filter domain.ReservationFilterDTO
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid filter: " + err.Error()})
		return
	}

	// build the whole workbook first so a failure can still become an error response
	var buf bytes.Buffer
	if err := h.reservationService.ExportLedger(c.Request.Context(), filter, &buf); err != nil {
		respondError(c, err, "could not export reservations")
		return
	}

	filename := fmt.Sprintf("reservations-%s.xlsx", time.Now().UTC().Format("20060102-150405"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}
