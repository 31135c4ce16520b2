package domain

import "time"

type ReservationEventType string

const (
	EventReservationOpened ReservationEventType = "reservation.opened"
	EventReservationClosed ReservationEventType = "reservation.closed"
)

// ReservationEvent is published after a lifecycle transition commits.
type ReservationEvent struct {
	ID            string               `json:"id"`
	Type          ReservationEventType `json:"type"`
	ReservationID int                  `json:"reservation_id"`
	LotID         int                  `json:"lot_id"`
	SpotID        int                  `json:"spot_id"`
	UserID        int                  `json:"user_id"`
	VehicleNo     string               `json:"vehicle_no"`
	SpotStatus    SpotStatus           `json:"spot_status"`
	ParkingCost   float64              `json:"parking_cost"`
	OccurredAt    time.Time            `json:"occurred_at"`
}
