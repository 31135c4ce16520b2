package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"parking_manager/internal/service"
)

type ParkingSpotHandler struct {
	parkingService *service.ParkingService
}

func NewParkingSpotHandler(ps *service.ParkingService) *ParkingSpotHandler {
	return &ParkingSpotHandler{parkingService: ps}
}

// GET /parking-lots/:id/spots
func (h *ParkingSpotHandler) GetSpotsByLotID(c *gin.Context) {
	lotID, ok := paramID(c, "id")
	if !ok {
		return
	}

	spots, err := h.parkingService.GetSpotsByLotID(c.Request.Context(), lotID)
	if err != nil {
		respondError(c, err, "could not list parking spots")
		return
	}
	c.JSON(http.StatusOK, spots)
}

// GET /parking-spots/:spot_id
func (h *ParkingSpotHandler) GetParkingSpotByID(c *gin.Context) {
	spotID, ok := paramID(c, "spot_id")
	if !ok {
		return
	}

	spot, err := h.parkingService.GetParkingSpotByID(c.Request.Context(), spotID)
	if err != nil {
		respondError(c, err, "could not load parking spot")
		return
	}
	c.JSON(http.StatusOK, spot)
}

// DELETE /parking-spots/:spot_id
func (h *ParkingSpotHandler) DeleteParkingSpot(c *gin.Context) {
	spotID, ok := paramID(c, "spot_id")
	if !ok {
		return
	}

	if err := h.parkingService.DeleteParkingSpot(c.Request.Context(), spotID); err != nil {
		respondError(c, err, "could not delete parking spot")
		return
	}
	c.Status(http.StatusNoContent)
}
