package services

import (
	"context"
	"fmt"
	"io"

	"car_repair_backend/internal/models"

	"github.com/xuri/excelize/v2"
)

// Sheet names of the monthly workbook.
const (
	revenueSheet     = "Revenue"
	vehicleTypeSheet = "Vehicle types"
	categorySheet    = "Categories"
)

func (s *reportService) ExportMonthlyReport(ctx context.Context, month, year int, w io.Writer) error {
	revenue, err := s.DailyRevenue(ctx, month, year)
	if err != nil {
		return err
	}
	vehicleTypes, err := s.VehicleTypeBreakdown(ctx, month, year)
	if err != nil {
		return err
	}
	categories, err := s.CategoryBreakdown(ctx, month, year)
	if err != nil {
		return err
	}

	f := excelize.NewFile()
	defer f.Close()

	// the default sheet becomes the revenue sheet
	if err := f.SetSheetName("Sheet1", revenueSheet); err != nil {
		return fmt.Errorf("preparing workbook: %w", err)
	}
	rows := [][]interface{}{{"Day", "Revenue"}}
	for _, d := range revenue.Days {
		rows = append(rows, []interface{}{d.Day, d.Revenue.InexactFloat64()})
	}
	rows = append(rows, []interface{}{"Total", revenue.Total.InexactFloat64()})
	if err := writeRows(f, revenueSheet, rows); err != nil {
		return err
	}

	for _, sheet := range []struct {
		name   string
		header string
		items  []models.BreakdownItem
	}{
		{vehicleTypeSheet, "Vehicle type", vehicleTypes.Items},
		{categorySheet, "Category", categories},
	} {
		if _, err := f.NewSheet(sheet.name); err != nil {
			return fmt.Errorf("creating sheet %s: %w", sheet.name, err)
		}
		rows := [][]interface{}{{sheet.header, "Count"}}
		for _, it := range sheet.items {
			rows = append(rows, []interface{}{it.Label, it.Count})
		}
		if err := writeRows(f, sheet.name, rows); err != nil {
			return err
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("writing workbook for %02d/%d: %w", month, year, err)
	}
	return nil
}

// writeRows fills sheet from A1 down, one slice per row.
func writeRows(f *excelize.File, sheet string, rows [][]interface{}) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("writing %s row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}
