package service

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"parking_manager/internal/domain"
)

const LedgerSheet = "Reservations"

var ledgerHeader = []any{
	"Reservation ID", "Lot ID", "Spot ID", "User ID", "Vehicle No",
	"Parking Time (UTC)", "Leaving Time (UTC)", "Cost",
}

// ExportLedger writes the reservations matching filter as an xlsx workbook,
// one row per reservation, newest first.
func (s *ReservationService) ExportLedger(ctx context.Context, filter domain.ReservationFilterDTO, w io.Writer) error {
	reservations, err := s.store.Repos().Reservations.Find(ctx, filter)
	if err != nil {
		return err
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", LedgerSheet); err != nil {
		return fmt.Errorf("export: naming sheet: %w", err)
	}
	if err := f.SetSheetRow(LedgerSheet, "A1", &ledgerHeader); err != nil {
		return fmt.Errorf("export: writing header: %w", err)
	}

	for i, res := range reservations {
		leaving := ""
		if res.LeavingTimestamp.Valid {
			leaving = res.LeavingTimestamp.Time.UTC().Format(time.DateTime)
		}
		row := []any{
			res.ID, res.LotID, res.SpotID, res.UserID, res.VehicleNo,
			res.ParkingTimestamp.UTC().Format(time.DateTime), leaving, res.ParkingCost,
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(LedgerSheet, cell, &row); err != nil {
			return fmt.Errorf("export: writing row %d: %w", i+2, err)
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("export: writing workbook: %w", err)
	}
	return nil
}
