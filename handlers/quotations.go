package handlers

import (
	"net/http"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"

	"yachtcpq/services"
)

// HandleQuotationView returns a quotation with its customizations and
// rolled-up totals.
//
// GET /quotations/{id}
func HandleQuotationView(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		quotation, err := app.FindRecordById("quotations", e.Request.PathValue("id"))
		if err != nil {
			return notFound(e, "quotation not found")
		}

		customizations, err := app.FindRecordsByFilter(
			"customizations",
			"quotation = {:quotation}",
			"created", 0, 0,
			map[string]any{"quotation": quotation.Id},
		)
		if err != nil {
			customizations = nil
		}
		list := make([]map[string]any, 0, len(customizations))
		for _, c := range customizations {
			list = append(list, customizationJSON(c))
		}

		return e.JSON(http.StatusOK, map[string]any{
			"quotation":      quotationJSON(quotation),
			"customizations": list,
		})
	}
}

// HandleQuotationList lists quotations, newest first.
//
// GET /quotations
func HandleQuotationList(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		records, err := app.FindRecordsByFilter("quotations", "id != ''", "-created", 0, 0)
		if err != nil {
			records = nil
		}
		list := make([]map[string]any, 0, len(records))
		for _, r := range records {
			list = append(list, quotationJSON(r))
		}
		return e.JSON(http.StatusOK, map[string]any{"quotations": list})
	}
}

func quotationJSON(rec *core.Record) map[string]any {
	return map[string]any{
		"id":                          rec.Id,
		"quotation_number":            rec.GetString("quotation_number"),
		"client_name":                 rec.GetString("client_name"),
		"yacht_model":                 rec.GetString("yacht_model"),
		"base_price":                  rec.GetFloat("base_price"),
		"base_delivery_days":          rec.GetInt("base_delivery_days"),
		"base_discount_percentage":    rec.GetFloat("base_discount_percentage"),
		"options_discount_percentage": rec.GetFloat("options_discount_percentage"),
		"final_base_price":            rec.GetFloat("final_base_price"),
		"final_options_price":         rec.GetFloat("final_options_price"),
		"total_customizations_price":  rec.GetFloat("total_customizations_price"),
		"total_delivery_days":         rec.GetInt("total_delivery_days"),
		"final_price":                 rec.GetFloat("final_price"),
		"final_price_display":         services.FormatBRL(rec.GetFloat("final_price")),
		"status":                      rec.GetString("status"),
	}
}
