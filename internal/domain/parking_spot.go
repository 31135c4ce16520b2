package domain

import "time"

type SpotStatus string

const (
	SpotAvailable SpotStatus = "available"
	SpotOccupied  SpotStatus = "occupied"
)

type ParkingSpot struct {
	ID        int        `json:"id"`
	LotID     int        `json:"lot_id"`
	Status    SpotStatus `json:"status"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

func (s *ParkingSpot) IsAvailable() bool {
	return s.Status == SpotAvailable
}

type SpotDetail struct {
	Spot              ParkingSpot  `json:"spot"`
	LatestReservation *Reservation `json:"latest_reservation,omitempty"`
}
