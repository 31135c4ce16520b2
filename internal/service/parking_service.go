package service

import (
	"context"
	"fmt"

	"parking_manager/internal/domain"
	"parking_manager/internal/repository"
)

// ParkingService manages lots and spots and builds the read models served
// to dashboards.
type ParkingService struct {
	store repository.Store
}

func NewParkingService(store repository.Store) *ParkingService {
	return &ParkingService{store: store}
}

// --- ParkingLot ---

func (s *ParkingService) GetAllParkingLots(ctx context.Context) ([]domain.LotOccupancy, error) {
	repos := s.store.Repos()
	lots, err := repos.Lots.FindAll(ctx)
	if err != nil {
		return nil, err
	}

	result := make([]domain.LotOccupancy, 0, len(lots))
	for _, lot := range lots {
		occupancy, err := occupancyOf(ctx, repos, lot)
		if err != nil {
			return nil, err
		}
		result = append(result, occupancy)
	}
	return result, nil
}

func (s *ParkingService) GetParkingLotByID(ctx context.Context, lotID int) (*domain.LotDetail, error) {
	repos := s.store.Repos()
	lot, err := repos.Lots.FindByID(ctx, lotID)
	if err != nil {
		return nil, fmt.Errorf("parking lot %d: %w", lotID, err)
	}
	occupancy, err := occupancyOf(ctx, repos, *lot)
	if err != nil {
		return nil, err
	}
	spots, err := s.spotDetails(ctx, repos, lotID)
	if err != nil {
		return nil, err
	}
	return &domain.LotDetail{LotOccupancy: occupancy, Spots: spots}, nil
}

func occupancyOf(ctx context.Context, repos repository.Repositories, lot domain.ParkingLot) (domain.LotOccupancy, error) {
	total, occupied, err := repos.Spots.CountByLotID(ctx, lot.ID)
	if err != nil {
		return domain.LotOccupancy{}, err
	}
	return domain.LotOccupancy{ParkingLot: lot, OccupiedCount: occupied, AvailableCount: total - occupied}, nil
}

// spotDetails loads the lot's spots and its ledger with two queries and
// pairs each spot with its most recent reservation.
func (s *ParkingService) spotDetails(ctx context.Context, repos repository.Repositories, lotID int) ([]domain.SpotDetail, error) {
	spots, err := repos.Spots.FindByLotID(ctx, lotID)
	if err != nil {
		return nil, err
	}
	lid := lotID
	ledger, err := repos.Reservations.Find(ctx, domain.ReservationFilterDTO{LotID: &lid})
	if err != nil {
		return nil, err
	}

	// ledger is newest first, so the first entry seen per spot is the latest
	latest := make(map[int]*domain.Reservation, len(spots))
	for i := range ledger {
		if _, seen := latest[ledger[i].SpotID]; !seen {
			latest[ledger[i].SpotID] = &ledger[i]
		}
	}

	details := make([]domain.SpotDetail, 0, len(spots))
	for _, spot := range spots {
		details = append(details, domain.SpotDetail{Spot: spot, LatestReservation: latest[spot.ID]})
	}
	return details, nil
}

// --- ParkingSpot ---

func (s *ParkingService) GetSpotsByLotID(ctx context.Context, lotID int) ([]domain.SpotDetail, error) {
	repos := s.store.Repos()
	if _, err := repos.Lots.FindByID(ctx, lotID); err != nil {
		return nil, fmt.Errorf("parking lot %d: %w", lotID, err)
	}
	return s.spotDetails(ctx, repos, lotID)
}

func (s *ParkingService) GetParkingSpotByID(ctx context.Context, spotID int) (*domain.SpotDetail, error) {
	repos := s.store.Repos()
	spot, err := repos.Spots.FindByID(ctx, spotID)
	if err != nil {
		return nil, fmt.Errorf("parking spot %d: %w", spotID, err)
	}
	detail := &domain.SpotDetail{Spot: *spot}
	latest, err := repos.Reservations.FindLatestBySpotID(ctx, spotID)
	if err == nil {
		detail.LatestReservation = latest
	} else if !isNotFound(err) {
		return nil, err
	}
	return detail, nil
}

// --- Summaries ---

func (s *ParkingService) AdminDashboard(ctx context.Context) (*domain.AdminDashboard, error) {
	rows, err := s.store.Repos().Summary.LotSummaries(ctx)
	if err != nil {
		return nil, err
	}
	dashboard := &domain.AdminDashboard{TotalLots: len(rows), Lots: rows}
	for _, row := range rows {
		dashboard.OccupiedSpots += row.Occupied
		dashboard.AvailableSpots += row.Available
	}
	dashboard.TotalSpots = dashboard.OccupiedSpots + dashboard.AvailableSpots
	if dashboard.Lots == nil {
		dashboard.Lots = []domain.LotSummary{}
	}
	return dashboard, nil
}

func (s *ParkingService) AdminSummary(ctx context.Context) ([]domain.LotSummary, error) {
	rows, err := s.store.Repos().Summary.LotSummaries(ctx)
	if err != nil {
		return nil, err
	}
	if rows == nil {
		rows = []domain.LotSummary{}
	}
	return rows, nil
}

// UserSummary counts the user's reservations per lot location, shaped for
// a chart.
func (s *ParkingService) UserSummary(ctx context.Context, userID int) (*domain.UserSummary, error) {
	usage, err := s.store.Repos().Summary.UsageByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	summary := &domain.UserSummary{Labels: []string{}, Values: []int{}}
	for _, u := range usage {
		summary.Labels = append(summary.Labels, u.Location)
		summary.Values = append(summary.Values, u.Count)
	}
	return summary, nil
}

// RegisteredUsers lists accounts with the user role.
func (s *ParkingService) RegisteredUsers(ctx context.Context) ([]domain.User, error) {
	users, err := s.store.Repos().Users.FindByRole(ctx, domain.RoleUser)
	if err != nil {
		return nil, err
	}
	for i := range users {
		users[i].Password = ""
	}
	if users == nil {
		users = []domain.User{}
	}
	return users, nil
}

func (s *ParkingService) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}
