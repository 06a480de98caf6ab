package services

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"
)

// GenerateQuotationExcel renders a quotation export as an xlsx workbook and
// returns the file bytes.
func GenerateQuotationExcel(data *QuotationExportData) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	// Sheet names cap out at 31 chars.
	sheetName := data.QuotationNumber
	if len(sheetName) > 31 {
		sheetName = sheetName[:31]
	}
	if sheetName == "" {
		sheetName = "Quotation"
	}

	defaultSheet := f.GetSheetName(0)
	if err := f.SetSheetName(defaultSheet, sheetName); err != nil {
		return nil, fmt.Errorf("set sheet name: %w", err)
	}

	columns := []string{"A", "B", "C", "D", "E", "F", "G"}
	widths := []float64{14, 20, 42, 12, 8, 16, 16}
	for i, col := range columns {
		if err := f.SetColWidth(sheetName, col, col, widths[i]); err != nil {
			return nil, fmt.Errorf("set col width %s: %w", col, err)
		}
	}

	titleStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 16},
	})
	if err != nil {
		return nil, fmt.Errorf("create title style: %w", err)
	}
	subtitleStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Size: 11},
	})
	if err != nil {
		return nil, fmt.Errorf("create subtitle style: %w", err)
	}
	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 9, Color: "#FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#212529"}},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create header style: %w", err)
	}
	moneyStyle, err := f.NewStyle(&excelize.Style{
		NumFmt: 4, // #,##0.00
	})
	if err != nil {
		return nil, fmt.Errorf("create money style: %w", err)
	}
	totalStyle, err := f.NewStyle(&excelize.Style{
		Font:   &excelize.Font{Bold: true, Size: 10},
		NumFmt: 4,
	})
	if err != nil {
		return nil, fmt.Errorf("create total style: %w", err)
	}

	rowNum := 1
	setCell := func(col string, v any) {
		_ = f.SetCellValue(sheetName, fmt.Sprintf("%s%d", col, rowNum), v)
	}

	// Header block.
	setCell("A", fmt.Sprintf("Quotation %s", data.QuotationNumber))
	_ = f.SetCellStyle(sheetName, fmt.Sprintf("A%d", rowNum), fmt.Sprintf("A%d", rowNum), titleStyle)
	rowNum++
	setCell("A", fmt.Sprintf("Client: %s", data.ClientName))
	_ = f.SetCellStyle(sheetName, fmt.Sprintf("A%d", rowNum), fmt.Sprintf("A%d", rowNum), subtitleStyle)
	rowNum++
	setCell("A", fmt.Sprintf("Yacht model: %s", data.YachtModel))
	setCell("G", fmt.Sprintf("Date: %s", data.CreatedDate))
	rowNum += 2

	// Table header.
	headers := []string{"Section", "Code", "Item", "Status", "Qty", "Suggested Price", "Final Price"}
	for i, h := range headers {
		setCell(columns[i], h)
	}
	_ = f.SetCellStyle(sheetName,
		fmt.Sprintf("A%d", rowNum), fmt.Sprintf("%s%d", columns[len(columns)-1], rowNum), headerStyle)
	rowNum++

	// Data rows.
	for _, r := range data.Rows {
		setCell("A", r.Section)
		setCell("B", r.Code)
		setCell("C", r.Name)
		setCell("D", r.Status)
		setCell("E", r.Quantity)
		if r.Section == "customization" {
			setCell("F", r.Suggested)
			setCell("G", r.FinalPrice)
			_ = f.SetCellStyle(sheetName,
				fmt.Sprintf("F%d", rowNum), fmt.Sprintf("G%d", rowNum), moneyStyle)
		}
		rowNum++
	}
	rowNum++

	// Totals block.
	totals := []struct {
		label string
		value float64
	}{
		{"Base price", data.BasePrice},
		{"Options price", data.OptionsPrice},
		{"Customizations", data.CustomizationsTotal},
		{"Final price", data.FinalPrice},
	}
	for _, t := range totals {
		setCell("F", t.label)
		setCell("G", t.value)
		_ = f.SetCellStyle(sheetName,
			fmt.Sprintf("G%d", rowNum), fmt.Sprintf("G%d", rowNum), totalStyle)
		rowNum++
	}
	setCell("F", "Delivery (days)")
	setCell("G", data.TotalDeliveryDays)

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}
