package handlers

import (
	"net/http"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"
	"github.com/spf13/cast"

	"yachtcpq/services"
)

// HandleATOAdvance resolves an ATO's single PM review step: approve with
// scope, price impact and delivery impact, or reject with a reason.
//
// POST /atos/{id}/advance
func HandleATOAdvance(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		atoID := e.Request.PathValue("id")
		if _, err := app.FindRecordById("atos", atoID); err != nil {
			return notFound(e, "ato not found")
		}

		payload, err := decodeBody(e)
		if err != nil {
			return badRequest(e, "invalid JSON body")
		}
		currentStep := services.Stage(cast.ToString(payload["current_step"]))
		action := services.AdvanceAction(cast.ToString(payload["action"]))
		if action == "" {
			action = services.ActionAdvance
		}

		result, err := services.AdvanceATO(app, atoID, currentStep, action, payload)
		if err != nil {
			return apiError(e, err)
		}

		ato, err := app.FindRecordById("atos", atoID)
		if err != nil {
			return apiError(e, err)
		}
		return e.JSON(http.StatusOK, map[string]any{
			"ato":    atoJSON(ato),
			"status": result.Status,
		})
	}
}

// HandleATOView returns an ATO with its step ledger.
//
// GET /atos/{id}
func HandleATOView(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		ato, err := app.FindRecordById("atos", e.Request.PathValue("id"))
		if err != nil {
			return notFound(e, "ato not found")
		}

		steps, err := services.StepsForParent(app, services.ATOSteps, ato.Id)
		if err != nil {
			steps = nil
		}
		stepList := make([]map[string]any, 0, len(steps))
		for _, s := range steps {
			stepList = append(stepList, stepJSON(s))
		}

		return e.JSON(http.StatusOK, map[string]any{
			"ato":   atoJSON(ato),
			"steps": stepList,
		})
	}
}

func atoJSON(rec *core.Record) map[string]any {
	return map[string]any{
		"id":                   rec.Id,
		"contract":             rec.GetString("contract"),
		"ato_number":           rec.GetString("ato_number"),
		"item_name":            rec.GetString("item_name"),
		"notes":                rec.GetString("notes"),
		"status":               rec.GetString("status"),
		"workflow_status":      rec.GetString("workflow_status"),
		"pm_scope":             rec.GetString("pm_scope"),
		"materials":            services.MaterialsFromRecord(rec, "materials"),
		"labor_hours":          rec.GetFloat("labor_hours"),
		"total_cost":           rec.GetFloat("total_cost"),
		"suggested_price":      rec.GetFloat("suggested_price"),
		"price_impact":         rec.GetFloat("price_impact"),
		"delivery_impact_days": rec.GetInt("delivery_impact_days"),
		"reject_reason":        rec.GetString("reject_reason"),
	}
}
