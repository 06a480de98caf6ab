package handlers

import (
	"net/http"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"
	"github.com/spf13/cast"

	"yachtcpq/services"
)

// HandleCustomizationCreate submits a new customization on a quotation and
// opens its first PM review step.
//
// POST /quotations/{id}/customizations
func HandleCustomizationCreate(app *pocketbase.PocketBase, notifier services.Notifier) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		quotationID := e.Request.PathValue("id")
		if _, err := app.FindRecordById("quotations", quotationID); err != nil {
			return notFound(e, "quotation not found")
		}

		payload, err := decodeBody(e)
		if err != nil {
			return badRequest(e, "invalid JSON body")
		}

		result, err := services.SubmitCustomization(app, notifier, quotationID, services.ParseCustomizationInput(payload))
		if err != nil {
			return apiError(e, err)
		}

		return e.JSON(http.StatusCreated, map[string]any{
			"customization":       customizationJSON(result.Record),
			"step":                stepJSON(result.Step),
			"assignee_unresolved": result.AssigneeUnresolved,
		})
	}
}

// HandleCustomizationView returns a customization together with its full step
// ledger, oldest first.
//
// GET /customizations/{id}
func HandleCustomizationView(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		cust, err := app.FindRecordById("customizations", e.Request.PathValue("id"))
		if err != nil {
			return notFound(e, "customization not found")
		}

		steps, err := services.StepsForParent(app, services.CustomizationSteps, cust.Id)
		if err != nil {
			steps = nil
		}
		stepList := make([]map[string]any, 0, len(steps))
		for _, s := range steps {
			stepList = append(stepList, stepJSON(s))
		}

		return e.JSON(http.StatusOK, map[string]any{
			"customization": customizationJSON(cust),
			"steps":         stepList,
		})
	}
}

// HandleCustomizationAdvance moves a customization through its workflow. The
// body carries current_step (optimistic guard), action (advance|reject) and
// the stage-specific payload fields.
//
// POST /customizations/{id}/advance
func HandleCustomizationAdvance(app *pocketbase.PocketBase, notifier services.Notifier) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		custID := e.Request.PathValue("id")
		if _, err := app.FindRecordById("customizations", custID); err != nil {
			return notFound(e, "customization not found")
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

		result, err := services.AdvanceCustomization(app, notifier, custID, currentStep, action, payload)
		if err != nil {
			return apiError(e, err)
		}

		cust, err := app.FindRecordById("customizations", custID)
		if err != nil {
			return apiError(e, err)
		}

		visited := make([]string, 0, len(result.Visited))
		for _, s := range result.Visited {
			visited = append(visited, string(s))
		}
		return e.JSON(http.StatusOK, map[string]any{
			"customization":             customizationJSON(cust),
			"visited":                   visited,
			"status":                    result.Status,
			"needs_commercial_approval": result.NeedsCommercialApproval,
			"assignee_unresolved":       result.AssigneeUnresolved,
		})
	}
}

func customizationJSON(rec *core.Record) map[string]any {
	return map[string]any{
		"id":                            rec.Id,
		"quotation":                     rec.GetString("quotation"),
		"customization_code":            rec.GetString("customization_code"),
		"item_name":                     rec.GetString("item_name"),
		"notes":                         rec.GetString("notes"),
		"quantity":                      rec.GetInt("quantity"),
		"status":                        rec.GetString("status"),
		"workflow_status":               rec.GetString("workflow_status"),
		"pm_scope":                      rec.GetString("pm_scope"),
		"materials":                     services.MaterialsFromRecord(rec, "materials"),
		"labor_hours":                   rec.GetFloat("labor_hours"),
		"labor_rate":                    rec.GetFloat("labor_rate"),
		"total_cost":                    rec.GetFloat("total_cost"),
		"suggested_price":               rec.GetFloat("suggested_price"),
		"pm_final_price":                rec.GetFloat("pm_final_price"),
		"pm_final_delivery_impact_days": rec.GetInt("pm_final_delivery_impact_days"),
		"supply_cost":                   rec.GetFloat("supply_cost"),
		"supply_lead_time_days":         rec.GetInt("supply_lead_time_days"),
		"planning_delivery_impact_days": rec.GetInt("planning_delivery_impact_days"),
		"reject_reason":                 rec.GetString("reject_reason"),
	}
}

func stepJSON(rec *core.Record) map[string]any {
	if rec == nil {
		return nil
	}
	return map[string]any{
		"id":                  rec.Id,
		"step_type":           rec.GetString("step_type"),
		"status":              rec.GetString("status"),
		"assigned_to":         rec.GetString("assigned_to"),
		"assignee_unresolved": rec.GetBool("assignee_unresolved"),
		"notes":               rec.GetString("notes"),
		"created":             rec.GetDateTime("created").String(),
		"completed_at":        rec.GetDateTime("completed_at").String(),
	}
}
