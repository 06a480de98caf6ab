package services

import (
	"fmt"

	"github.com/pocketbase/pocketbase"
)

// QuotationExportRow is one line of a quotation export: either a memorial
// baseline item or a customization with its workflow outcome.
type QuotationExportRow struct {
	Section      string // "memorial" or "customization"
	Code         string
	Name         string
	Status       string
	Quantity     float64
	Suggested    float64
	FinalPrice   float64
	DeliveryDays int
}

// QuotationExportData holds everything the Excel/PDF generators need.
type QuotationExportData struct {
	QuotationNumber     string
	ClientName          string
	YachtModel          string
	CreatedDate         string
	Rows                []QuotationExportRow
	BasePrice           float64
	OptionsPrice        float64
	CustomizationsTotal float64
	FinalPrice          float64
	TotalDeliveryDays   int
}

// BuildQuotationExport assembles export data for a quotation: the yacht
// model's memorial items followed by the quotation's customizations, with
// the rolled-up totals.
func BuildQuotationExport(app *pocketbase.PocketBase, quotationID string) (*QuotationExportData, error) {
	quotation, err := app.FindRecordById("quotations", quotationID)
	if err != nil {
		return nil, fmt.Errorf("quotation not found: %w", err)
	}

	data := &QuotationExportData{
		QuotationNumber:     quotation.GetString("quotation_number"),
		ClientName:          quotation.GetString("client_name"),
		CreatedDate:         quotation.GetDateTime("created").Time().Format("2006-01-02"),
		BasePrice:           quotation.GetFloat("final_base_price"),
		OptionsPrice:        quotation.GetFloat("final_options_price"),
		CustomizationsTotal: quotation.GetFloat("total_customizations_price"),
		FinalPrice:          quotation.GetFloat("final_price"),
		TotalDeliveryDays:   quotation.GetInt("total_delivery_days"),
	}

	modelID := quotation.GetString("yacht_model")
	if model, err := app.FindRecordById("yacht_models", modelID); err == nil {
		data.YachtModel = model.GetString("name")
	}

	memorial, err := app.FindRecordsByFilter(
		"memorial_items",
		"yacht_model = {:model}",
		"category", 0, 0,
		map[string]any{"model": modelID},
	)
	if err == nil {
		for _, item := range memorial {
			data.Rows = append(data.Rows, QuotationExportRow{
				Section:  "memorial",
				Code:     item.GetString("category"),
				Name:     item.GetString("name"),
				Status:   "included",
				Quantity: 1,
			})
		}
	}

	customizations, err := app.FindRecordsByFilter(
		"customizations",
		"quotation = {:quotation}",
		"created", 0, 0,
		map[string]any{"quotation": quotationID},
	)
	if err == nil {
		for _, c := range customizations {
			data.Rows = append(data.Rows, QuotationExportRow{
				Section:      "customization",
				Code:         c.GetString("customization_code"),
				Name:         c.GetString("item_name"),
				Status:       c.GetString("status"),
				Quantity:     float64(c.GetInt("quantity")),
				Suggested:    c.GetFloat("suggested_price"),
				FinalPrice:   c.GetFloat("pm_final_price"),
				DeliveryDays: c.GetInt("pm_final_delivery_impact_days"),
			})
		}
	}

	return data, nil
}
