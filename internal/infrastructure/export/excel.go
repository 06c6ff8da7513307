// Package export renders expense claims into spreadsheet workbooks.
package export

import (
	"context"
	"fmt"
	"strconv"

	"github.com/garyjia/travel-expense-portal/internal/application/port"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

// ContentTypeXLSX is the media type of the generated workbook
const ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

const (
	sheetName    = "Claim"
	headerRow    = 1
	dataRowStart = 2
	moneyFormat  = "#,##0.00"
)

var headers = []interface{}{
	"Date", "Merchant", "Vendor Address", "Payment Method", "Description",
	"Category", "Amount", "Tax", "Currency", "Recurring",
}

// Column letters for cells written individually
const (
	colLabel  = "F"
	colAmount = "G"
	colTax    = "H"
	colLast   = "J"
)

// ExcelExporter implements port.ClaimExporter with excelize
type ExcelExporter struct {
	logger *zap.Logger
}

var _ port.ClaimExporter = (*ExcelExporter)(nil)

// NewExcelExporter creates an exporter
func NewExcelExporter(logger *zap.Logger) *ExcelExporter {
	return &ExcelExporter{logger: logger}
}

// ContentType returns the xlsx media type
func (e *ExcelExporter) ContentType() string {
	return ContentTypeXLSX
}

// Export writes one row per item followed by a total row and, when present,
// the claim summary.
func (e *ExcelExporter) Export(ctx context.Context, sheet port.ClaimSheet) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	file := excelize.NewFile()
	defer file.Close()

	if err := file.SetSheetName("Sheet1", sheetName); err != nil {
		return nil, fmt.Errorf("failed to name sheet: %w", err)
	}

	boldStyle, err := file.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("failed to create style: %w", err)
	}
	moneyStyle, err := file.NewStyle(&excelize.Style{CustomNumFmt: strPtr(moneyFormat)})
	if err != nil {
		return nil, fmt.Errorf("failed to create style: %w", err)
	}

	if err := file.SetSheetRow(sheetName, cell("A", headerRow), &headers); err != nil {
		return nil, fmt.Errorf("failed to write header: %w", err)
	}
	if err := file.SetCellStyle(sheetName, cell("A", headerRow), cell(colLast, headerRow), boldStyle); err != nil {
		return nil, fmt.Errorf("failed to style header: %w", err)
	}

	row := dataRowStart
	for _, item := range sheet.Items {
		recurring := "No"
		if item.IsRecurring {
			recurring = "Yes"
		}
		values := []interface{}{
			item.Date, item.Merchant, item.VendorAddress, item.PaymentMethod, item.Description,
			item.Category, item.Amount, item.TaxAmount, item.Currency, recurring,
		}
		if err := file.SetSheetRow(sheetName, cell("A", row), &values); err != nil {
			return nil, fmt.Errorf("failed to write row %d: %w", row, err)
		}
		row++
	}
	if row > dataRowStart {
		if err := file.SetCellStyle(sheetName, cell(colAmount, dataRowStart), cell(colTax, row-1), moneyStyle); err != nil {
			return nil, fmt.Errorf("failed to style amounts: %w", err)
		}
	}

	totalRow := row
	if err := file.SetCellValue(sheetName, cell(colLabel, totalRow), "Total"); err != nil {
		return nil, fmt.Errorf("failed to write total label: %w", err)
	}
	if err := file.SetCellValue(sheetName, cell(colAmount, totalRow), totalValue(sheet.Total)); err != nil {
		return nil, fmt.Errorf("failed to write total: %w", err)
	}
	if err := file.SetCellStyle(sheetName, cell(colLabel, totalRow), cell(colLabel, totalRow), boldStyle); err != nil {
		return nil, fmt.Errorf("failed to style total: %w", err)
	}
	if err := file.SetCellStyle(sheetName, cell(colAmount, totalRow), cell(colAmount, totalRow), moneyStyle); err != nil {
		return nil, fmt.Errorf("failed to style total: %w", err)
	}

	if sheet.Summary != "" {
		if err := file.SetCellValue(sheetName, cell("A", totalRow+2), "Summary"); err != nil {
			return nil, fmt.Errorf("failed to write summary label: %w", err)
		}
		if err := file.SetCellValue(sheetName, cell("B", totalRow+2), sheet.Summary); err != nil {
			return nil, fmt.Errorf("failed to write summary: %w", err)
		}
	}
	if !sheet.GeneratedAt.IsZero() {
		if err := file.SetCellValue(sheetName, cell("A", totalRow+3), "Generated"); err != nil {
			return nil, fmt.Errorf("failed to write timestamp label: %w", err)
		}
		if err := file.SetCellValue(sheetName, cell("B", totalRow+3), sheet.GeneratedAt.UTC().Format("2006-01-02 15:04 MST")); err != nil {
			return nil, fmt.Errorf("failed to write timestamp: %w", err)
		}
	}

	if err := file.SetColWidth(sheetName, "A", colLast, 16); err != nil {
		return nil, fmt.Errorf("failed to size columns: %w", err)
	}

	buf, err := file.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}

	e.logger.Info("Claim exported",
		zap.Int("item_count", len(sheet.Items)),
		zap.String("total", sheet.Total),
		zap.Int("size_bytes", buf.Len()))
	return buf.Bytes(), nil
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}

// totalValue writes the total as a number when it parses, so the cell sums
func totalValue(total string) interface{} {
	if v, err := strconv.ParseFloat(total, 64); err == nil {
		return v
	}
	return total
}

func strPtr(s string) *string {
	return &s
}
