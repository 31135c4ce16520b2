package domain

import (
	"time"

	"gopkg.in/guregu/null.v4"
)

type Reservation struct {
	ID               int       `json:"id"`
	SpotID           int       `json:"spot_id"`
	LotID            int       `json:"lot_id"`
	UserID           int       `json:"user_id"`
	VehicleNo        string    `json:"vehicle_no"`
	ParkingTimestamp time.Time `json:"parking_timestamp"`
	LeavingTimestamp null.Time `json:"leaving_timestamp"`
	ParkingCost      float64   `json:"parking_cost"`
}

// IsOpen reports whether the reservation still holds its spot.
func (r *Reservation) IsOpen() bool {
	return !r.LeavingTimestamp.Valid
}

type BookSpotDTO struct {
	VehicleNo string `json:"vehicle_no" binding:"required,max=20"`
}

type ReservationFilterDTO struct {
	LotID  *int  `form:"lot_id"`
	UserID *int  `form:"user_id"`
	Open   *bool `form:"open"`
}

// ReservationDetail pairs a ledger entry with the user that owns it and,
// while open, the cost so far.
type ReservationDetail struct {
	Reservation
	User          *User    `json:"user,omitempty"`
	EstimatedCost *float64 `json:"estimated_cost,omitempty"`
}
