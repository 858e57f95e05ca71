// Package export produces XLSX workbooks from the delivery history.
package export

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/posbridge/receipt-interceptor/internal/history"
)

// Service is a tiny façade over the history store that produces XLSX bytes.
type Service struct {
	store  *history.Store
	logger *slog.Logger
}

func NewService(store *history.Store, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: store, logger: logger}
}

// DeliveriesXLSX returns an XLSX workbook (as bytes) for the given date
// window. If only from is provided -> from..today (inclusive). If neither is
// provided -> all recorded deliveries.
func (s *Service) DeliveriesXLSX(ctx context.Context, from, to *time.Time) ([]byte, error) {
	start := time.Now()

	// Normalize dates (date-only, UTC)
	var fromDate, toDate *time.Time
	if from != nil {
		f := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
		fromDate = &f
	}
	if to != nil {
		t := time.Date(to.Year(), to.Month(), to.Day(), 23, 59, 59, 0, time.UTC)
		toDate = &t
	}
	if fromDate != nil && toDate == nil {
		today := time.Now().UTC()
		t := time.Date(today.Year(), today.Month(), today.Day(), 23, 59, 59, 0, time.UTC)
		toDate = &t
	}

	entries, err := s.store.List(ctx, fromDate, toDate)
	if err != nil {
		return nil, fmt.Errorf("query deliveries: %w", err)
	}

	f := excelize.NewFile()
	const sheet = "Deliveries"
	if index, _ := f.GetSheetIndex(sheet); index == -1 {
		if _, err := f.NewSheet(sheet); err != nil {
			return nil, err
		}
	}
	activeIndex, _ := f.GetSheetIndex(sheet)
	f.SetActiveSheet(activeIndex)

	headers := []string{
		"Recorded At",
		"Receipt ID",
		"Fingerprint",
		"Items",
		"Total",
		"Outcome",
	}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	row := 2
	for _, e := range entries {
		outcome := "delivered"
		if !e.Delivered {
			outcome = "failed"
		}
		values := []any{
			e.RecordedAt.UTC().Format(time.RFC3339),
			e.ReceiptID,
			e.Fingerprint,
			e.ItemCount,
			e.Total,
			outcome,
		}
		for i, v := range values {
			cell, _ := excelize.CoordinatesToCellName(i+1, row)
			_ = f.SetCellValue(sheet, cell, v)
		}
		row++
	}

	// Drop the default sheet if it isn't ours
	if idx, _ := f.GetSheetIndex("Sheet1"); idx != -1 && sheet != "Sheet1" {
		_ = f.DeleteSheet("Sheet1")
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}

	s.logger.Info("export.deliveries.ok",
		"rows", row-2,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}
