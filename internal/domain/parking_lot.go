package domain

import "time"

type ParkingLot struct {
	ID                int       `json:"id"`
	PrimeLocationName string    `json:"prime_location_name"`
	Address           string    `json:"address,omitempty"`
	PinCode           string    `json:"pin_code,omitempty"`
	Price             float64   `json:"price"`
	MaxSpots          int       `json:"max_spots"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

type ParkingLotDTO struct {
	PrimeLocationName string  `json:"prime_location_name" binding:"required,max=100"`
	Address           string  `json:"address" binding:"max=200"`
	PinCode           string  `json:"pin_code" binding:"max=10"`
	Price             float64 `json:"price" binding:"gte=0"`
	MaxSpots          int     `json:"max_spots" binding:"gte=0,lte=10000"`
}

type SetCapacityDTO struct {
	MaxSpots *int `json:"max_spots" binding:"required,gte=0,lte=10000"`
}

// LotOccupancy is the list-view read model of a lot.
type LotOccupancy struct {
	ParkingLot
	OccupiedCount  int `json:"occupied_count"`
	AvailableCount int `json:"available_count"`
}

// LotDetail is a lot with its spots, each with the most recent reservation
// recorded against it.
type LotDetail struct {
	LotOccupancy
	Spots []SpotDetail `json:"spots"`
}
