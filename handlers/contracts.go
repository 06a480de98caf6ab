package handlers

import (
	"net/http"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"
	"github.com/spf13/cast"

	"yachtcpq/services"
)

// HandleContractCreate signs a quotation into a contract.
//
// POST /contracts  {"quotation_id": "...", "hull_number_id": "..."}
func HandleContractCreate(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		payload, err := decodeBody(e)
		if err != nil {
			return badRequest(e, "invalid JSON body")
		}
		quotationID := cast.ToString(payload["quotation_id"])
		if quotationID == "" {
			return badRequest(e, "quotation_id is required")
		}
		if _, err := app.FindRecordById("quotations", quotationID); err != nil {
			return notFound(e, "quotation not found")
		}

		contract, err := services.CreateContractFromQuotation(app, quotationID, cast.ToString(payload["hull_number_id"]))
		if err != nil {
			return apiError(e, err)
		}
		return e.JSON(http.StatusCreated, contractJSON(contract))
	}
}

// HandleContractTotals returns the contract's derived running totals: base
// figures plus the consolidated impact of its approved ATOs.
//
// GET /contracts/{id}/totals
func HandleContractTotals(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		contractID := e.Request.PathValue("id")
		if _, err := app.FindRecordById("contracts", contractID); err != nil {
			return notFound(e, "contract not found")
		}

		totals, err := services.ComputeContractTotals(app, contractID)
		if err != nil {
			return apiError(e, err)
		}
		return e.JSON(http.StatusOK, map[string]any{
			"base_price":            totals.BasePrice,
			"current_price":         totals.CurrentPrice,
			"base_delivery_days":    totals.BaseDeliveryDays,
			"current_delivery_days": totals.CurrentDeliveryDays,
			"estimated_delivery":    totals.EstimatedDelivery,
			"total_price_impact":    totals.TotalPriceImpact,
			"total_delivery_impact": totals.TotalDeliveryImpact,
			"approved_ato_count":    totals.ApprovedATOCount,
		})
	}
}

// HandleATOCreate submits a change order on a signed contract.
//
// POST /contracts/{id}/atos
func HandleATOCreate(app *pocketbase.PocketBase, notifier services.Notifier) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		contractID := e.Request.PathValue("id")
		if _, err := app.FindRecordById("contracts", contractID); err != nil {
			return notFound(e, "contract not found")
		}

		payload, err := decodeBody(e)
		if err != nil {
			return badRequest(e, "invalid JSON body")
		}
		input := services.ATOInput{
			ItemName:    cast.ToString(payload["item_name"]),
			Notes:       cast.ToString(payload["notes"]),
			RequestedBy: cast.ToString(payload["requested_by"]),
		}

		result, err := services.SubmitATO(app, notifier, contractID, input)
		if err != nil {
			return apiError(e, err)
		}
		return e.JSON(http.StatusCreated, map[string]any{
			"ato":                 atoJSON(result.Record),
			"step":                stepJSON(result.Step),
			"assignee_unresolved": result.AssigneeUnresolved,
		})
	}
}

func contractJSON(rec *core.Record) map[string]any {
	return map[string]any{
		"id":                 rec.Id,
		"quotation":          rec.GetString("quotation"),
		"contract_number":    rec.GetString("contract_number"),
		"base_price":         rec.GetFloat("base_price"),
		"base_delivery_days": rec.GetInt("base_delivery_days"),
		"hull_number":        rec.GetString("hull_number"),
		"status":             rec.GetString("status"),
	}
}
