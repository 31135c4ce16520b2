package domain

// LotSummary is one row of the admin revenue summary.
type LotSummary struct {
	LotID     int     `json:"lot_id" db:"lot_id"`
	Location  string  `json:"location" db:"location"`
	MaxSpots  int     `json:"max_spots" db:"max_spots"`
	Occupied  int     `json:"occupied" db:"occupied"`
	Available int     `json:"available" db:"available"`
	Revenue   float64 `json:"revenue" db:"revenue"`
}

// LotUsage counts how many reservations a user made in a lot.
type LotUsage struct {
	Location string `json:"location" db:"location"`
	Count    int    `json:"count" db:"count"`
}

type AdminDashboard struct {
	TotalLots      int          `json:"total_lots"`
	TotalSpots     int          `json:"total_spots"`
	OccupiedSpots  int          `json:"occupied_spots"`
	AvailableSpots int          `json:"available_spots"`
	Lots           []LotSummary `json:"lots"`
}

type UserSummary struct {
	Labels []string `json:"labels"`
	Values []int    `json:"values"`
}
