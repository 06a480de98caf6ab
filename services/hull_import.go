package services

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"
	"github.com/xuri/excelize/v2"
)

// ValidationError is a single field-level error on one uploaded row.
type ValidationError struct {
	Row     int    `json:"row"`
	Field   string `json:"field"`
	Message string `json:"message"`
}

// HullImportRow is one validated hull-number row ready to commit.
type HullImportRow struct {
	HullCode          string
	YachtModelID      string
	EstimatedDelivery time.Time
}

// HullImportResult summarizes validation of an uploaded master plan file.
type HullImportResult struct {
	TotalRows int               `json:"total_rows"`
	ValidRows int               `json:"valid_rows"`
	ErrorRows int               `json:"error_rows"`
	Errors    []ValidationError `json:"errors"`
	Rows      []HullImportRow   `json:"-"`
}

// hullImportColumns is the expected header set, case-insensitive.
var hullImportColumns = []string{"hull_code", "yacht_model_code", "estimated_delivery_date"}

// ValidateHullNumbersFile parses an uploaded CSV or xlsx master plan and
// validates every row: hull code present and unique in the file, yacht
// model code resolvable, delivery date in YYYY-MM-DD. Nothing is persisted;
// pair with ImportHullNumbers to commit the valid rows.
func ValidateHullNumbersFile(app *pocketbase.PocketBase, file io.Reader, fileName string) (*HullImportResult, error) {
	var headers []string
	var dataRows [][]string
	var err error

	if strings.HasSuffix(strings.ToLower(fileName), ".xlsx") {
		headers, dataRows, err = parseHullExcel(file)
	} else {
		headers, dataRows, err = parseHullCSV(file)
	}
	if err != nil {
		return nil, err
	}

	colIndex := map[string]int{}
	for i, h := range headers {
		colIndex[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, required := range hullImportColumns {
		if _, ok := colIndex[required]; !ok {
			return nil, fmt.Errorf("missing required column %q", required)
		}
	}

	result := &HullImportResult{TotalRows: len(dataRows)}
	seen := map[string]int{}

	for i, row := range dataRows {
		rowNum := i + 2 // 1-based plus header
		get := func(field string) string {
			idx := colIndex[field]
			if idx >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[idx])
		}

		var rowErrs []ValidationError

		hullCode := get("hull_code")
		if hullCode == "" {
			rowErrs = append(rowErrs, ValidationError{rowNum, "hull_code", "hull code is required"})
		} else if prev, dup := seen[hullCode]; dup {
			rowErrs = append(rowErrs, ValidationError{rowNum, "hull_code",
				fmt.Sprintf("duplicate of row %d", prev)})
		} else {
			seen[hullCode] = rowNum
		}

		modelCode := get("yacht_model_code")
		model, err := findYachtModelByCode(app, modelCode)
		if modelCode == "" {
			rowErrs = append(rowErrs, ValidationError{rowNum, "yacht_model_code", "yacht model code is required"})
		} else if err != nil {
			rowErrs = append(rowErrs, ValidationError{rowNum, "yacht_model_code",
				fmt.Sprintf("unknown yacht model %q", modelCode)})
		}

		var delivery time.Time
		if raw := get("estimated_delivery_date"); raw == "" {
			rowErrs = append(rowErrs, ValidationError{rowNum, "estimated_delivery_date", "delivery date is required"})
		} else {
			delivery, err = time.Parse("2006-01-02", raw)
			if err != nil {
				rowErrs = append(rowErrs, ValidationError{rowNum, "estimated_delivery_date",
					"date must be YYYY-MM-DD"})
			}
		}

		if len(rowErrs) > 0 {
			result.Errors = append(result.Errors, rowErrs...)
			result.ErrorRows++
			continue
		}

		result.ValidRows++
		result.Rows = append(result.Rows, HullImportRow{
			HullCode:          hullCode,
			YachtModelID:      model.Id,
			EstimatedDelivery: delivery,
		})
	}

	return result, nil
}

// ImportHullNumbers commits validated rows, updating an existing hull record
// when the code already exists so re-importing a revised master plan is
// idempotent.
func ImportHullNumbers(app *pocketbase.PocketBase, rows []HullImportRow) (created, updated int, err error) {
	col, err := app.FindCollectionByNameOrId("hull_numbers")
	if err != nil {
		return 0, 0, fmt.Errorf("hull_numbers collection: %w", err)
	}

	for _, r := range rows {
		existing, findErr := app.FindRecordsByFilter(
			"hull_numbers",
			"hull_code = {:code}",
			"", 1, 0,
			map[string]any{"code": r.HullCode},
		)

		var rec *core.Record
		if findErr == nil && len(existing) > 0 {
			rec = existing[0]
			updated++
		} else {
			rec = core.NewRecord(col)
			rec.Set("hull_code", r.HullCode)
			created++
		}
		rec.Set("yacht_model", r.YachtModelID)
		rec.Set("estimated_delivery_date", r.EstimatedDelivery)
		if err := app.Save(rec); err != nil {
			return created, updated, fmt.Errorf("save hull %s: %w", r.HullCode, err)
		}
	}
	return created, updated, nil
}

func findYachtModelByCode(app *pocketbase.PocketBase, code string) (*core.Record, error) {
	if code == "" {
		return nil, fmt.Errorf("empty code")
	}
	records, err := app.FindRecordsByFilter(
		"yacht_models",
		"code = {:code}",
		"", 1, 0,
		map[string]any{"code": code},
	)
	if err != nil || len(records) == 0 {
		return nil, fmt.Errorf("yacht model %q not found", code)
	}
	return records[0], nil
}

func parseHullCSV(file io.Reader) ([]string, [][]string, error) {
	reader := csv.NewReader(file)
	reader.TrimLeadingSpace = true
	reader.LazyQuotes = true

	allRows, err := reader.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse CSV: %w", err)
	}
	if len(allRows) < 2 {
		return nil, nil, fmt.Errorf("file must contain a header row and at least one data row")
	}
	return allRows[0], allRows[1:], nil
}

func parseHullExcel(file io.Reader) ([]string, [][]string, error) {
	f, err := excelize.OpenReader(file)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	rows, err := f.GetRows(f.GetSheetName(0))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read sheet: %w", err)
	}
	if len(rows) < 2 {
		return nil, nil, fmt.Errorf("file must contain a header row and at least one data row")
	}
	return rows[0], rows[1:], nil
}
