package services

import (
	"fmt"
	"log"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/tools/types"
	"github.com/spf13/cast"
)

// AdvanceATO resolves an ATO's single pm_review step. Unlike pre-contract
// customizations there is no supply/planning chain: the PM scopes, prices
// and schedules the change order in one pass, and the result folds into the
// contract's running totals as a signed delta.
func AdvanceATO(app *pocketbase.PocketBase, atoID string, currentStep Stage, action AdvanceAction, payload map[string]any) (*AdvanceResult, error) {
	ato, err := app.FindRecordById("atos", atoID)
	if err != nil {
		return nil, fmt.Errorf("ato not found: %w", err)
	}
	if s := ato.GetString("status"); s != "pending" {
		return nil, fmt.Errorf("%w: ato is %s", ErrInvalidParentState, s)
	}

	actual := Stage(ato.GetString("workflow_status"))
	if actual != currentStep || currentStep != StagePendingPMReview {
		return nil, fmt.Errorf("%w: expected %s, at %s", ErrStageMismatch, currentStep, actual)
	}

	if action == ActionReject {
		reason := cast.ToString(payload["reject_reason"])
		if reason == "" {
			return nil, fmt.Errorf("%w: reject_reason", ErrMissingRequiredField)
		}
		if pending, _ := FindPendingStep(app, ATOSteps, ato.Id); pending != nil {
			if _, err := CompleteStep(app, ATOSteps, pending.Id, OutcomeSkipped, nil, reason); err != nil {
				return nil, err
			}
		}
		ato.Set("status", "rejected")
		ato.Set("reject_reason", reason)
		ato.Set("reviewed_at", types.NowDateTime())
		if err := app.Save(ato); err != nil {
			return nil, fmt.Errorf("reject ato: %w", err)
		}
		log.Printf("workflow: ATO %s rejected", ato.GetString("ato_number"))
		return &AdvanceResult{Status: "rejected", Visited: []Stage{StageRejected}}, nil
	}
	if action != ActionAdvance {
		return nil, fmt.Errorf("%w: action", ErrMissingRequiredField)
	}

	// Validate the PM review payload up front; nothing is written until all
	// of it parses. Price impact is a signed delta; replacements that
	// credit the client come through negative.
	scope := cast.ToString(payload["pm_scope"])
	if scope == "" {
		return nil, fmt.Errorf("%w: pm_scope", ErrMissingRequiredField)
	}
	rawPrice, ok := payload["price_impact"]
	if !ok || rawPrice == nil {
		return nil, fmt.Errorf("%w: price_impact", ErrMissingRequiredField)
	}
	priceImpact, err := cast.ToFloat64E(rawPrice)
	if err != nil {
		return nil, fmt.Errorf("%w: price_impact", ErrMissingRequiredField)
	}
	impactDays, err := nonNegativeInt(payload, "delivery_impact_days", true)
	if err != nil {
		return nil, err
	}
	materials, err := ParseMaterials(payload["materials"])
	if err != nil {
		return nil, err
	}
	laborHours, err := nonNegativeFloat(payload, "labor_hours", false)
	if err != nil {
		return nil, err
	}

	rules := LoadPricingRules(app)
	breakdown := ComputeCostBreakdown(materials, laborHours, rules)

	if pending, _ := FindPendingStep(app, ATOSteps, ato.Id); pending != nil {
		if _, err := CompleteStep(app, ATOSteps, pending.Id, OutcomeCompleted, payload, ""); err != nil {
			return nil, err
		}
	}

	ato.Set("pm_scope", scope)
	ato.Set("materials", MaterialsJSON(materials))
	ato.Set("labor_hours", laborHours)
	ato.Set("labor_rate", rules.LaborRatePerHour)
	ato.Set("total_cost", breakdown.TotalCost)
	ato.Set("suggested_price", breakdown.SuggestedPrice)
	ato.Set("price_impact", Round2(priceImpact))
	ato.Set("delivery_impact_days", impactDays)
	ato.Set("status", "approved")
	ato.Set("workflow_status", string(StageCompleted))
	ato.Set("reviewed_at", types.NowDateTime())
	if notes := cast.ToString(payload["pm_notes"]); notes != "" {
		ato.Set("pm_notes", notes)
	}
	if err := app.Save(ato); err != nil {
		return nil, fmt.Errorf("advance ato: %w", err)
	}

	log.Printf("workflow: ATO %s approved (price %+.2f, delivery +%dd)",
		ato.GetString("ato_number"), Round2(priceImpact), impactDays)
	return &AdvanceResult{Status: "approved", Visited: []Stage{StageCompleted}}, nil
}
