package export

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/stockdesk-app/stockdesk/internal/entity"
	"github.com/stockdesk-app/stockdesk/internal/repository"
)

// Service is a tiny façade over repositories that produces XLSX bytes for exports.
type Service struct {
	purchases repository.PurchaseRepository
	suppliers repository.SupplierRepository
	products  repository.ProductRepository
	logger    *slog.Logger
}

func NewService(purchases repository.PurchaseRepository, suppliers repository.SupplierRepository, products repository.ProductRepository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{purchases: purchases, suppliers: suppliers, products: products, logger: logger}
}

// ExportPurchasesXLSX returns an XLSX workbook (as bytes) with one row per
// purchase line in the given date window.
// If only from is provided -> from..today (inclusive).
// If only to is provided   -> beginning..to (inclusive).
// If neither is provided   -> all purchases.
func (s *Service) ExportPurchasesXLSX(ctx context.Context, from, to *time.Time) ([]byte, error) {
	start := time.Now()

	// Normalize dates (date-only, UTC)
	var fromDate, toDate *time.Time
	if from != nil {
		f := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
		fromDate = &f
	}
	if to != nil {
		t := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, time.UTC)
		toDate = &t
	}
	if fromDate != nil && toDate == nil {
		today := time.Now().UTC()
		t := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC)
		toDate = &t
	}

	purchases, err := s.purchases.ListBetween(ctx, fromDate, toDate)
	if err != nil {
		return nil, fmt.Errorf("query purchases: %w", err)
	}

	f := excelize.NewFile()
	const sheet = "Purchases"
	if index, _ := f.GetSheetIndex(sheet); index == -1 {
		_, err := f.NewSheet(sheet)
		if err != nil {
			return nil, err
		}
	}
	activeIndex, _ := f.GetSheetIndex(sheet)
	f.SetActiveSheet(activeIndex)

	headers := []string{
		"Purchase Date",
		"Supplier",
		"Invoice #",
		"Product",
		"Quantity",
		"Unit Price",
		"Line Total",
		"Purchase Total",
		"Notes",
	}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	supplierNames := map[string]string{}
	productNames := map[string]string{}

	write := func(col, row int, v any) {
		cell, _ := excelize.CoordinatesToCellName(col, row)
		_ = f.SetCellValue(sheet, cell, v)
	}

	row := 2
	lines := 0
	for _, p := range purchases {
		supplierName := s.supplierName(ctx, p, supplierNames)
		invoice := ""
		if p.InvoiceNumber != nil {
			invoice = *p.InvoiceNumber
		}
		notes := ""
		if p.Notes != nil {
			notes = *p.Notes
		}
		for _, it := range p.Items {
			write(1, row, p.PurchaseDate.Format("2006-01-02"))
			write(2, row, supplierName)
			write(3, row, invoice)
			write(4, row, s.productName(ctx, it, productNames))
			write(5, row, it.Quantity)
			write(6, row, it.UnitPrice)
			write(7, row, it.TotalPrice)
			write(8, row, p.TotalAmount)
			write(9, row, truncate(notes, 140))
			row++
			lines++
		}
	}

	_ = f.SetColWidth(sheet, "A", "A", 14) // date
	_ = f.SetColWidth(sheet, "B", "B", 26) // supplier
	_ = f.SetColWidth(sheet, "C", "C", 16) // invoice
	_ = f.SetColWidth(sheet, "D", "D", 32) // product
	_ = f.SetColWidth(sheet, "E", "H", 12) // quantities and amounts
	_ = f.SetColWidth(sheet, "I", "I", 48) // notes

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		"purchases", len(purchases),
		"rows", lines,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

func (s *Service) supplierName(ctx context.Context, p *entity.Purchase, cache map[string]string) string {
	key := p.SupplierID.String()
	if name, ok := cache[key]; ok {
		return name
	}
	name := ""
	if sup, err := s.suppliers.GetByID(ctx, p.SupplierID); err == nil {
		name = sup.Name
	}
	cache[key] = name
	return name
}

func (s *Service) productName(ctx context.Context, it entity.PurchaseItem, cache map[string]string) string {
	key := it.ProductID.String()
	if name, ok := cache[key]; ok {
		return name
	}
	name := ""
	if prod, err := s.products.GetByID(ctx, it.ProductID); err == nil {
		name = prod.Name
	}
	cache[key] = name
	return name
}

// truncate limits s to n runes, replacing the tail with an ellipsis. Cutting
// on rune boundaries keeps multi-byte notes intact.
func truncate(s string, n int) string {
	if n <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	if n == 1 {
		return string(runes[:1])
	}
	return string(runes[:n-1]) + "…"
}
