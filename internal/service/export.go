package service

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/icondo/parcel-service/internal/domain"
	"github.com/icondo/parcel-service/internal/repository"
)

const historySheet = "Parcel History"

var historyExportHeader = []string{
	"Parcel ID",
	"Tracking Number",
	"Carrier",
	"Room",
	"Resident",
	"Phone",
	"Status",
	"Received At",
	"Received By",
	"Collected At",
	"Collected By",
}

var historyColumnWidths = []float64{10, 22, 16, 8, 18, 16, 12, 20, 16, 20, 16}

// ExportHistory renders every parcel matching filter as an xlsx workbook.
func (s *ParcelService) ExportHistory(ctx context.Context, filter repository.ParcelFilter) ([]byte, error) {
	filter, err := normalizeFilter(filter)
	if err != nil {
		return nil, err
	}

	var rows []domain.ParcelView
	page := repository.Page{Limit: repository.MaxPageLimit}
	for {
		items, total, err := s.parcels.Search(ctx, filter, page)
		if err != nil {
			return nil, err
		}
		rows = append(rows, items...)
		page.Offset += len(items)
		if len(items) == 0 || int64(page.Offset) >= total {
			break
		}
	}
	return renderHistoryWorkbook(rows)
}

func renderHistoryWorkbook(rows []domain.ParcelView) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(historySheet)
	if err != nil {
		return nil, fmt.Errorf("create sheet: %w", err)
	}
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("delete default sheet: %w", err)
	}
	f.SetActiveSheet(index)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E6F3FF"}, Pattern: 1},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create header style: %w", err)
	}

	for col, header := range historyExportHeader {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellValue(historySheet, cell, header); err != nil {
			return nil, fmt.Errorf("set header %s: %w", cell, err)
		}
		if err := f.SetCellStyle(historySheet, cell, cell, headerStyle); err != nil {
			return nil, fmt.Errorf("style header %s: %w", cell, err)
		}
		name, err := excelize.ColumnNumberToName(col + 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetColWidth(historySheet, name, name, historyColumnWidths[col]); err != nil {
			return nil, fmt.Errorf("set column width: %w", err)
		}
	}

	for i, view := range rows {
		values := []any{
			view.ID,
			view.TrackingNumber,
			view.CarrierName,
			deref(view.RoomNumber),
			view.ResidentName,
			view.PhoneNumber,
			string(view.Status),
			formatTime(&view.CreatedAt),
			deref(view.StaffInName),
			formatTime(view.CollectedAt),
			deref(view.StaffOutName),
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(historySheet, cell, &values); err != nil {
			return nil, fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func deref(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}

func formatTime(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
