package services

import (
	"fmt"
	"log"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"
	"github.com/pocketbase/pocketbase/tools/types"
	"github.com/spf13/cast"
)

// AdvanceResult reports what a successful transition did.
type AdvanceResult struct {
	Visited                 []Stage
	Status                  string // pending | approved | rejected
	NeedsCommercialApproval bool
	AssigneeUnresolved      bool
}

// stageUpdate is the validated outcome of a stage's payload, built entirely
// before any record is touched so a failed validation mutates nothing.
type stageUpdate struct {
	fields map[string]any
}

// AdvanceCustomization moves a customization through its pipeline.
//
// The currentStep argument is the stage the caller believes the entity is
// in; it is compared against the stored stage as an optimistic concurrency
// guard. Two reviewers acting on the same stale screen race here: one
// succeeds, the other gets ErrStageMismatch and must reload.
func AdvanceCustomization(app *pocketbase.PocketBase, notifier Notifier, customizationID string, currentStep Stage, action AdvanceAction, payload map[string]any) (*AdvanceResult, error) {
	cust, err := app.FindRecordById("customizations", customizationID)
	if err != nil {
		return nil, fmt.Errorf("customization not found: %w", err)
	}
	if s := cust.GetString("status"); s != "pending" {
		return nil, fmt.Errorf("%w: customization is %s", ErrInvalidParentState, s)
	}

	actual := Stage(cust.GetString("workflow_status"))
	if actual != currentStep || !currentStep.Actionable() {
		return nil, fmt.Errorf("%w: expected %s, at %s", ErrStageMismatch, currentStep, actual)
	}

	switch action {
	case ActionReject:
		return rejectCustomization(app, cust, payload)
	case ActionAdvance:
		return advanceCustomization(app, notifier, cust, currentStep, payload)
	default:
		return nil, fmt.Errorf("%w: action", ErrMissingRequiredField)
	}
}

func rejectCustomization(app *pocketbase.PocketBase, cust *core.Record, payload map[string]any) (*AdvanceResult, error) {
	reason := cast.ToString(payload["reject_reason"])
	if reason == "" {
		return nil, fmt.Errorf("%w: reject_reason", ErrMissingRequiredField)
	}

	// Close the open ledger entry first, while the stage still matches.
	if pending, _ := FindPendingStep(app, CustomizationSteps, cust.Id); pending != nil {
		if _, err := CompleteStep(app, CustomizationSteps, pending.Id, OutcomeSkipped, nil, reason); err != nil {
			return nil, err
		}
	}

	cust.Set("status", "rejected")
	cust.Set("reject_reason", reason)
	cust.Set("reviewed_at", types.NowDateTime())
	if err := app.Save(cust); err != nil {
		return nil, fmt.Errorf("reject customization: %w", err)
	}

	log.Printf("workflow: customization %s rejected at %s", cust.GetString("customization_code"), cust.GetString("workflow_status"))
	return &AdvanceResult{Status: "rejected", Visited: []Stage{StageRejected}}, nil
}

func advanceCustomization(app *pocketbase.PocketBase, notifier Notifier, cust *core.Record, currentStep Stage, payload map[string]any) (*AdvanceResult, error) {
	update, err := validateStagePayload(app, currentStep, payload)
	if err != nil {
		return nil, err
	}

	path, ok := advancePath(currentStep)
	if !ok {
		return nil, fmt.Errorf("%w: no transition from %s", ErrStageMismatch, currentStep)
	}
	landing := path[len(path)-1]

	// Ledger completion happens before the stage moves; CompleteStep
	// re-checks the stage so it still matches here.
	if pending, _ := FindPendingStep(app, CustomizationSteps, cust.Id); pending != nil {
		if _, err := CompleteStep(app, CustomizationSteps, pending.Id, OutcomeCompleted, payload, ""); err != nil {
			return nil, err
		}
	}

	for field, value := range update.fields {
		cust.Set(field, value)
	}
	cust.Set("workflow_status", string(landing))

	result := &AdvanceResult{Visited: path, Status: "pending"}

	if landing == StageCompleted {
		cust.Set("status", "approved")
		cust.Set("reviewed_at", types.NowDateTime())
		result.Status = "approved"
	}

	if err := app.Save(cust); err != nil {
		return nil, fmt.Errorf("advance customization: %w", err)
	}

	if landing == StageCompleted {
		quotation, err := app.FindRecordById("quotations", cust.GetString("quotation"))
		if err != nil {
			return nil, fmt.Errorf("quotation not found: %w", err)
		}
		if err := RollupQuotationTotals(app, quotation); err != nil {
			return nil, err
		}
		decision, err := EvaluateCommercialGate(app, quotation, cust.GetString("requested_by"),
			"Gerado automaticamente após aprovação de customização")
		if err != nil {
			return nil, err
		}
		if decision.RequiredRole != "" {
			quotation.Set("status", "pending_commercial_approval")
			result.NeedsCommercialApproval = true
		} else {
			quotation.Set("status", "ready_to_send")
		}
		if err := app.Save(quotation); err != nil {
			return nil, fmt.Errorf("update quotation status: %w", err)
		}
		log.Printf("workflow: customization %s approved (commercial approval needed: %v)",
			cust.GetString("customization_code"), result.NeedsCommercialApproval)
		return result, nil
	}

	// Open the next ledger entry and hand it to whoever is qualified.
	stepType, _ := StepTypeForStage(landing)
	assignment := ResolveAssignee(app, stepType, quotationYachtModel(app, cust))
	if _, err := RecordStep(app, CustomizationSteps, cust.Id, stepType, assignment); err != nil {
		return nil, err
	}
	result.AssigneeUnresolved = assignment.Unresolved
	if notifier != nil {
		notifier.StepAssigned(assignment.UserID, cust.GetString("customization_code"), stepType)
	}

	log.Printf("workflow: customization %s advanced %s -> %s", cust.GetString("customization_code"), currentStep, landing)
	return result, nil
}

// validateStagePayload checks and converts the payload for one stage without
// touching the record. PM review is the only stage that prices the request;
// supply and planning are confirmatory and only attach their findings.
func validateStagePayload(app *pocketbase.PocketBase, stage Stage, payload map[string]any) (*stageUpdate, error) {
	fields := map[string]any{}

	switch stage {
	case StagePendingPMReview:
		scope := cast.ToString(payload["pm_scope"])
		if scope == "" {
			return nil, fmt.Errorf("%w: pm_scope", ErrMissingRequiredField)
		}
		materials, err := ParseMaterials(payload["materials"])
		if err != nil {
			return nil, err
		}
		laborHours, err := nonNegativeFloat(payload, "labor_hours", false)
		if err != nil {
			return nil, err
		}
		finalPrice, err := nonNegativeFloat(payload, "pm_final_price", true)
		if err != nil {
			return nil, err
		}
		impactDays, err := nonNegativeInt(payload, "pm_final_delivery_impact_days", true)
		if err != nil {
			return nil, err
		}

		rules := LoadPricingRules(app)
		breakdown := ComputeCostBreakdown(materials, laborHours, rules)

		fields["pm_scope"] = scope
		fields["materials"] = MaterialsJSON(materials)
		fields["labor_hours"] = laborHours
		fields["labor_rate"] = rules.LaborRatePerHour
		fields["total_cost"] = breakdown.TotalCost
		fields["suggested_price"] = breakdown.SuggestedPrice
		fields["pm_final_price"] = Round2(finalPrice)
		fields["pm_final_delivery_impact_days"] = impactDays
		if notes := cast.ToString(payload["pm_notes"]); notes != "" {
			fields["pm_notes"] = notes
		}

	case StagePendingSupplyQuote:
		supplyCost, err := nonNegativeFloat(payload, "supply_cost", false)
		if err != nil {
			return nil, err
		}
		leadTime, err := nonNegativeInt(payload, "supply_lead_time_days", false)
		if err != nil {
			return nil, err
		}
		fields["supply_cost"] = Round2(supplyCost)
		fields["supply_lead_time_days"] = leadTime
		if notes := cast.ToString(payload["supply_notes"]); notes != "" {
			fields["supply_notes"] = notes
		}

	case StagePendingPlanning:
		impactDays, err := nonNegativeInt(payload, "planning_delivery_impact_days", false)
		if err != nil {
			return nil, err
		}
		fields["planning_delivery_impact_days"] = impactDays
		if start := cast.ToString(payload["planning_window_start"]); start != "" {
			fields["planning_window_start"] = start
		}
		if notes := cast.ToString(payload["planning_notes"]); notes != "" {
			fields["planning_notes"] = notes
		}

	case StagePendingPMFinal:
		// The PM may revise the price set at review time; the suggested
		// price from the breakdown stays untouched for audit.
		if _, ok := payload["pm_final_price"]; ok {
			finalPrice, err := nonNegativeFloat(payload, "pm_final_price", true)
			if err != nil {
				return nil, err
			}
			fields["pm_final_price"] = Round2(finalPrice)
		}
		if _, ok := payload["pm_final_delivery_impact_days"]; ok {
			impactDays, err := nonNegativeInt(payload, "pm_final_delivery_impact_days", true)
			if err != nil {
				return nil, err
			}
			fields["pm_final_delivery_impact_days"] = impactDays
		}
		if notes := cast.ToString(payload["pm_final_notes"]); notes != "" {
			fields["pm_final_notes"] = notes
		}

	default:
		return nil, fmt.Errorf("%w: no payload rules for %s", ErrStageMismatch, stage)
	}

	return &stageUpdate{fields: fields}, nil
}

// RollupQuotationTotals re-derives the quotation's customization totals from
// its approved customizations: prices sum, delivery impacts take the MAX.
func RollupQuotationTotals(app *pocketbase.PocketBase, quotation *core.Record) error {
	// A failed read must not be mistaken for "no approved customizations":
	// saving totals computed over the empty set would zero the rollup.
	approved, err := app.FindRecordsByFilter(
		"customizations",
		"quotation = {:quotation} && status = 'approved'",
		"", 0, 0,
		map[string]any{"quotation": quotation.Id},
	)
	if err != nil {
		return fmt.Errorf("load approved customizations: %w", err)
	}

	var totalPrice float64
	maxImpact := 0
	for _, c := range approved {
		totalPrice += c.GetFloat("pm_final_price")
		if d := c.GetInt("pm_final_delivery_impact_days"); d > maxImpact {
			maxImpact = d
		}
	}

	quotation.Set("total_customizations_price", Round2(totalPrice))
	quotation.Set("total_delivery_days", quotation.GetInt("base_delivery_days")+maxImpact)
	quotation.Set("final_price", Round2(
		quotation.GetFloat("final_base_price")+quotation.GetFloat("final_options_price")+totalPrice))

	if err := app.Save(quotation); err != nil {
		return fmt.Errorf("rollup quotation totals: %w", err)
	}
	return nil
}

func quotationYachtModel(app *pocketbase.PocketBase, cust *core.Record) string {
	quotation, err := app.FindRecordById("quotations", cust.GetString("quotation"))
	if err != nil {
		return ""
	}
	return quotation.GetString("yacht_model")
}

// nonNegativeFloat extracts a float field, rejecting malformed or negative
// values. When required is false a missing field reads as zero.
func nonNegativeFloat(payload map[string]any, key string, required bool) (float64, error) {
	raw, ok := payload[key]
	if !ok || raw == nil {
		if required {
			return 0, fmt.Errorf("%w: %s", ErrMissingRequiredField, key)
		}
		return 0, nil
	}
	v, err := cast.ToFloat64E(raw)
	if err != nil || v < 0 {
		return 0, fmt.Errorf("%w: %s", ErrMissingRequiredField, key)
	}
	return v, nil
}

func nonNegativeInt(payload map[string]any, key string, required bool) (int, error) {
	raw, ok := payload[key]
	if !ok || raw == nil {
		if required {
			return 0, fmt.Errorf("%w: %s", ErrMissingRequiredField, key)
		}
		return 0, nil
	}
	v, err := cast.ToIntE(raw)
	if err != nil || v < 0 {
		return 0, fmt.Errorf("%w: %s", ErrMissingRequiredField, key)
	}
	return v, nil
}
