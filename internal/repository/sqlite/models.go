package sqlite

import (
	"time"

	"gopkg.in/guregu/null.v4"

	"parking_manager/internal/domain"
)

type userModel struct {
	ID           int    `gorm:"primaryKey;autoIncrement"`
	Email        string `gorm:"size:100;not null;uniqueIndex"`
	PasswordHash string `gorm:"size:255;not null"`
	Name         string `gorm:"size:100;not null"`
	Address      string `gorm:"size:200;not null;default:''"`
	PinCode      string `gorm:"size:10;not null;default:''"`
	Role         string `gorm:"size:20;not null;index"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (userModel) TableName() string { return "users" }

func (m *userModel) toDomain() *domain.User {
	return &domain.User{
		ID:        m.ID,
		Email:     m.Email,
		Password:  m.PasswordHash,
		Name:      m.Name,
		Address:   m.Address,
		PinCode:   m.PinCode,
		Role:      domain.Role(m.Role),
		CreatedAt: m.CreatedAt.UTC(),
		UpdatedAt: m.UpdatedAt.UTC(),
	}
}

type lotModel struct {
	ID                int     `gorm:"primaryKey;autoIncrement"`
	PrimeLocationName string  `gorm:"size:100;not null"`
	Address           string  `gorm:"size:200;not null;default:''"`
	PinCode           string  `gorm:"size:10;not null;default:''"`
	Price             float64 `gorm:"not null;default:0"`
	MaxSpots          int     `gorm:"not null;default:0;check:max_spots >= 0"`
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

func (lotModel) TableName() string { return "parking_lots" }

func (m *lotModel) toDomain() *domain.ParkingLot {
	return &domain.ParkingLot{
		ID:                m.ID,
		PrimeLocationName: m.PrimeLocationName,
		Address:           m.Address,
		PinCode:           m.PinCode,
		Price:             m.Price,
		MaxSpots:          m.MaxSpots,
		CreatedAt:         m.CreatedAt.UTC(),
		UpdatedAt:         m.UpdatedAt.UTC(),
	}
}

type spotModel struct {
	ID        int    `gorm:"primaryKey;autoIncrement"`
	LotID     int    `gorm:"not null;index:idx_parking_spots_lot_status,priority:1"`
	Status    string `gorm:"size:20;not null;index:idx_parking_spots_lot_status,priority:2;check:status IN ('available','occupied')"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (spotModel) TableName() string { return "parking_spots" }

func (m *spotModel) toDomain() *domain.ParkingSpot {
	return &domain.ParkingSpot{
		ID:        m.ID,
		LotID:     m.LotID,
		Status:    domain.SpotStatus(m.Status),
		CreatedAt: m.CreatedAt.UTC(),
		UpdatedAt: m.UpdatedAt.UTC(),
	}
}

// reservationModel keeps spot_id and lot_id without foreign keys so ledger
// rows outlive the spots and lots they point at.
type reservationModel struct {
	ID               int        `gorm:"primaryKey;autoIncrement"`
	SpotID           int        `gorm:"not null"`
	LotID            int        `gorm:"not null;index"`
	UserID           int        `gorm:"not null;index"`
	VehicleNo        string     `gorm:"size:20;not null"`
	ParkingTimestamp time.Time  `gorm:"not null"`
	LeavingTimestamp *time.Time `gorm:"default:null"`
	ParkingCost      float64    `gorm:"not null;default:0"`
}

func (reservationModel) TableName() string { return "reservations" }

func (m *reservationModel) toDomain() *domain.Reservation {
	res := &domain.Reservation{
		ID:               m.ID,
		SpotID:           m.SpotID,
		LotID:            m.LotID,
		UserID:           m.UserID,
		VehicleNo:        m.VehicleNo,
		ParkingTimestamp: m.ParkingTimestamp.UTC(),
		LeavingTimestamp: null.TimeFromPtr(m.LeavingTimestamp),
		ParkingCost:      m.ParkingCost,
	}
	if res.LeavingTimestamp.Valid {
		res.LeavingTimestamp.Time = res.LeavingTimestamp.Time.UTC()
	}
	return res
}
