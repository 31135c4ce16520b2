package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"parking_manager/internal/domain"
	"parking_manager/internal/service"
)

type ParkingLotHandler struct {
	parkingService *service.ParkingService
}

func NewParkingLotHandler(ps *service.ParkingService) *ParkingLotHandler {
	return &ParkingLotHandler{parkingService: ps}
}

// POST /parking-lots
func (h *ParkingLotHandler) CreateParkingLot(c *gin.Context) {
	var dto domain.ParkingLotDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	lot, err := h.parkingService.CreateLot(c.Request.Context(), dto)
	if err != nil {
		respondError(c, err, "could not create parking lot")
		return
	}
	c.JSON(http.StatusCreated, lot)
}

// GET /parking-lots/:id
func (h *ParkingLotHandler) GetParkingLotByID(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	lot, err := h.parkingService.GetParkingLotByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, "could not load parking lot")
		return
	}
	c.JSON(http.StatusOK, lot)
}

// GET /parking-lots
func (h *ParkingLotHandler) GetAllParkingLots(c *gin.Context) {
	lots, err := h.parkingService.GetAllParkingLots(c.Request.Context())
	if err != nil {
		respondError(c, err, "could not list parking lots")
		return
	}
	c.JSON(http.StatusOK, lots)
}

// PUT /parking-lots/:id
func (h *ParkingLotHandler) UpdateParkingLot(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	var dto domain.ParkingLotDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	lot, err := h.parkingService.UpdateLot(c.Request.Context(), id, dto)
	if err != nil {
		respondError(c, err, "could not update parking lot")
		return
	}
	c.JSON(http.StatusOK, lot)
}

// PUT /parking-lots/:id/capacity
func (h *ParkingLotHandler) SetCapacity(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	var dto domain.SetCapacityDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	lot, err := h.parkingService.SetCapacity(c.Request.Context(), id, *dto.MaxSpots)
	if err != nil {
		respondError(c, err, "could not change capacity")
		return
	}
	c.JSON(http.StatusOK, lot)
}

// DELETE /parking-lots/:id
func (h *ParkingLotHandler) DeleteParkingLot(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	if err := h.parkingService.DeleteParkingLot(c.Request.Context(), id); err != nil {
		respondError(c, err, "could not delete parking lot")
		return
	}
	c.Status(http.StatusNoContent)
}
