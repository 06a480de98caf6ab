package services

import (
	"errors"
	"testing"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"

	"yachtcpq/testhelpers"
)

// submitTestCustomization creates a quotation with an assigned PM and a
// pending customization on it, ready to walk the pipeline.
func submitTestCustomization(t *testing.T, app *pocketbase.PocketBase) (*core.Record, *core.Record) {
	t.Helper()

	model := testhelpers.CreateTestYachtModel(t, app, "Solara 390 Fly", "S390")
	pm := testhelpers.CreateTestUser(t, app, "Ricardo Almeida", "pm")
	testhelpers.AssignTestPM(t, app, model.Id, pm.Id)
	testhelpers.CreateTestUser(t, app, "João Pereira", "comprador")
	testhelpers.CreateTestUser(t, app, "Ana Ribeiro", "planejador")
	quotation := testhelpers.CreateTestQuotation(t, app, model.Id, "QT-2025-277-V1")

	result, err := SubmitCustomization(app, nil, quotation.Id, CustomizationInput{
		ItemName: "Hydraulic swim platform upgrade",
		Quantity: 1,
	})
	if err != nil {
		t.Fatalf("SubmitCustomization: %v", err)
	}
	return quotation, result.Record
}

func pmReviewPayload() map[string]any {
	return map[string]any{
		"pm_scope": "Replace standard platform with 450kg hydraulic unit",
		"materials": []any{
			map[string]any{"name": "Hydraulic platform kit", "unit_cost": 600, "quantity": 1},
		},
		"labor_hours":                   10,
		"pm_final_price":                3000,
		"pm_final_delivery_impact_days": 15,
	}
}

func TestSubmitCustomization(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	_, cust := submitTestCustomization(t, app)

	if got := cust.GetString("customization_code"); got != "QT-2025-277-V1-CUS-001" {
		t.Errorf("customization_code = %q, want QT-2025-277-V1-CUS-001", got)
	}
	if got := cust.GetString("workflow_status"); got != string(StagePendingPMReview) {
		t.Errorf("workflow_status = %q, want %s", got, StagePendingPMReview)
	}
	if got := cust.GetString("status"); got != "pending" {
		t.Errorf("status = %q, want pending", got)
	}

	step, err := FindPendingStep(app, CustomizationSteps, cust.Id)
	if err != nil || step == nil {
		t.Fatalf("expected a pending pm_initial step, got %v, %v", step, err)
	}
	if step.GetString("step_type") != string(StepPMInitial) {
		t.Errorf("step_type = %q, want pm_initial", step.GetString("step_type"))
	}
	if step.GetString("assigned_to") == "" {
		t.Error("pm_initial step should be assigned to the model's PM")
	}
	if step.GetBool("assignee_unresolved") {
		t.Error("assignee should be resolved when a PM is assigned")
	}
}

func TestSubmitCustomizationSequentialCodes(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	quotation, _ := submitTestCustomization(t, app)

	second, err := SubmitCustomization(app, nil, quotation.Id, CustomizationInput{ItemName: "Teak upgrade"})
	if err != nil {
		t.Fatalf("second SubmitCustomization: %v", err)
	}
	if got := second.Record.GetString("customization_code"); got != "QT-2025-277-V1-CUS-002" {
		t.Errorf("second code = %q, want QT-2025-277-V1-CUS-002", got)
	}
}

func TestSubmitCustomizationUnassignedPMIsSoftFailure(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	model := testhelpers.CreateTestYachtModel(t, app, "Solara 480 Ocean", "S480")
	quotation := testhelpers.CreateTestQuotation(t, app, model.Id, "QT-2025-300-V1")

	result, err := SubmitCustomization(app, nil, quotation.Id, CustomizationInput{ItemName: "Custom hardtop"})
	if err != nil {
		t.Fatalf("SubmitCustomization: %v", err)
	}
	if !result.AssigneeUnresolved {
		t.Error("expected assignee_unresolved with no PM assignment")
	}
	if result.Step == nil || result.Step.GetString("status") != "pending" {
		t.Error("the step must still be created despite the unresolved assignee")
	}
}

func TestAdvanceCustomizationFullPipeline(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	quotation, cust := submitTestCustomization(t, app)

	// Stage 1: PM review prices the request.
	result, err := AdvanceCustomization(app, nil, cust.Id, StagePendingPMReview, ActionAdvance, pmReviewPayload())
	if err != nil {
		t.Fatalf("advance pm review: %v", err)
	}
	if len(result.Visited) != 2 || result.Visited[0] != StagePMReviewCompleted || result.Visited[1] != StagePendingSupplyQuote {
		t.Errorf("Visited = %v, want [pm_review_completed pending_supply_quote]", result.Visited)
	}

	cust, _ = app.FindRecordById("customizations", cust.Id)
	if got := cust.GetFloat("suggested_price"); got != 2674.42 {
		t.Errorf("suggested_price = %v, want 2674.42", got)
	}
	if got := cust.GetFloat("total_cost"); got != 1150.0 {
		t.Errorf("total_cost = %v, want 1150", got)
	}

	// Stage 2: supply quote.
	if _, err := AdvanceCustomization(app, nil, cust.Id, StagePendingSupplyQuote, ActionAdvance, map[string]any{
		"supply_cost":           520,
		"supply_lead_time_days": 20,
	}); err != nil {
		t.Fatalf("advance supply quote: %v", err)
	}

	// Stage 3: planning check.
	if _, err := AdvanceCustomization(app, nil, cust.Id, StagePendingPlanning, ActionAdvance, map[string]any{
		"planning_delivery_impact_days": 12,
	}); err != nil {
		t.Fatalf("advance planning: %v", err)
	}

	// Stage 4: PM final, revising the price.
	final, err := AdvanceCustomization(app, nil, cust.Id, StagePendingPMFinal, ActionAdvance, map[string]any{
		"pm_final_price": 3200,
	})
	if err != nil {
		t.Fatalf("advance pm final: %v", err)
	}
	if final.Status != "approved" {
		t.Errorf("final status = %q, want approved", final.Status)
	}

	cust, _ = app.FindRecordById("customizations", cust.Id)
	if got := cust.GetString("workflow_status"); got != string(StageCompleted) {
		t.Errorf("workflow_status = %q, want completed", got)
	}
	if got := cust.GetFloat("pm_final_price"); got != 3200.0 {
		t.Errorf("pm_final_price = %v, want 3200", got)
	}

	// All four ledger steps exist, all completed.
	steps, err := StepsForParent(app, CustomizationSteps, cust.Id)
	if err != nil {
		t.Fatalf("StepsForParent: %v", err)
	}
	if len(steps) != 4 {
		t.Fatalf("ledger has %d steps, want 4", len(steps))
	}
	wantTypes := []StepType{StepPMInitial, StepSupplyQuote, StepPlanningCheck, StepPMFinal}
	for i, s := range steps {
		if s.GetString("step_type") != string(wantTypes[i]) {
			t.Errorf("step[%d] type = %q, want %s", i, s.GetString("step_type"), wantTypes[i])
		}
		if s.GetString("status") != "completed" {
			t.Errorf("step[%d] status = %q, want completed", i, s.GetString("status"))
		}
	}

	// The quotation totals rolled up and no approval was needed at 0%.
	quotation, _ = app.FindRecordById("quotations", quotation.Id)
	if got := quotation.GetFloat("total_customizations_price"); got != 3200.0 {
		t.Errorf("total_customizations_price = %v, want 3200", got)
	}
	if got := quotation.GetInt("total_delivery_days"); got != 215 {
		t.Errorf("total_delivery_days = %v, want 215", got)
	}
	if got := quotation.GetFloat("final_price"); got != 2103200.0 {
		t.Errorf("final_price = %v, want 2103200", got)
	}
	if got := quotation.GetString("status"); got != "ready_to_send" {
		t.Errorf("quotation status = %q, want ready_to_send", got)
	}
	if final.NeedsCommercialApproval {
		t.Error("no commercial approval should be needed at 0% discount")
	}
}

func TestAdvanceCustomizationOpensCommercialApproval(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	quotation, cust := submitTestCustomization(t, app)
	quotation.Set("base_discount_percentage", 12.0)
	if err := app.Save(quotation); err != nil {
		t.Fatal(err)
	}

	for _, step := range []struct {
		stage   Stage
		payload map[string]any
	}{
		{StagePendingPMReview, pmReviewPayload()},
		{StagePendingSupplyQuote, map[string]any{}},
		{StagePendingPlanning, map[string]any{}},
	} {
		if _, err := AdvanceCustomization(app, nil, cust.Id, step.stage, ActionAdvance, step.payload); err != nil {
			t.Fatalf("advance %s: %v", step.stage, err)
		}
	}
	final, err := AdvanceCustomization(app, nil, cust.Id, StagePendingPMFinal, ActionAdvance, map[string]any{})
	if err != nil {
		t.Fatalf("advance pm final: %v", err)
	}

	if !final.NeedsCommercialApproval {
		t.Fatal("expected a commercial approval at 12% base discount")
	}
	quotation, _ = app.FindRecordById("quotations", quotation.Id)
	if got := quotation.GetString("status"); got != "pending_commercial_approval" {
		t.Errorf("quotation status = %q, want pending_commercial_approval", got)
	}

	approvals, _ := app.FindRecordsByFilter(
		"approvals",
		"quotation = {:q} && approval_type = 'commercial' && status = 'pending'",
		"", 0, 0,
		map[string]any{"q": quotation.Id},
	)
	if len(approvals) != 1 {
		t.Fatalf("pending commercial approvals = %d, want 1", len(approvals))
	}
	if got := approvals[0].GetString("required_role"); got != RoleDirector {
		t.Errorf("required_role = %q, want %s", got, RoleDirector)
	}
}

func TestAdvanceCustomizationStageMismatch(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	_, cust := submitTestCustomization(t, app)

	// Caller believes it is at supply quote; it is still at PM review.
	_, err := AdvanceCustomization(app, nil, cust.Id, StagePendingSupplyQuote, ActionAdvance, map[string]any{})
	if !errors.Is(err, ErrStageMismatch) {
		t.Errorf("err = %v, want ErrStageMismatch", err)
	}

	// A marker stage is never an acceptable currentStep.
	_, err = AdvanceCustomization(app, nil, cust.Id, StagePMReviewCompleted, ActionAdvance, map[string]any{})
	if !errors.Is(err, ErrStageMismatch) {
		t.Errorf("err = %v, want ErrStageMismatch for marker stage", err)
	}
}

func TestAdvanceCustomizationValidationMutatesNothing(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	_, cust := submitTestCustomization(t, app)

	payload := pmReviewPayload()
	delete(payload, "pm_final_price")
	_, err := AdvanceCustomization(app, nil, cust.Id, StagePendingPMReview, ActionAdvance, payload)
	if !errors.Is(err, ErrMissingRequiredField) {
		t.Fatalf("err = %v, want ErrMissingRequiredField", err)
	}

	// Stage unchanged and the step still pending.
	cust, _ = app.FindRecordById("customizations", cust.Id)
	if got := cust.GetString("workflow_status"); got != string(StagePendingPMReview) {
		t.Errorf("workflow_status = %q, want pending_pm_review after failed validation", got)
	}
	step, _ := FindPendingStep(app, CustomizationSteps, cust.Id)
	if step == nil {
		t.Error("pending step should survive a failed validation")
	}
}

func TestRejectCustomization(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	_, cust := submitTestCustomization(t, app)

	// Reason is mandatory.
	_, err := AdvanceCustomization(app, nil, cust.Id, StagePendingPMReview, ActionReject, map[string]any{})
	if !errors.Is(err, ErrMissingRequiredField) {
		t.Fatalf("err = %v, want ErrMissingRequiredField without a reason", err)
	}

	result, err := AdvanceCustomization(app, nil, cust.Id, StagePendingPMReview, ActionReject, map[string]any{
		"reject_reason": "Structural change not feasible on this hull",
	})
	if err != nil {
		t.Fatalf("reject: %v", err)
	}
	if result.Status != "rejected" {
		t.Errorf("Status = %q, want rejected", result.Status)
	}

	cust, _ = app.FindRecordById("customizations", cust.Id)
	if got := cust.GetString("status"); got != "rejected" {
		t.Errorf("status = %q, want rejected", got)
	}
	if cust.GetString("reject_reason") == "" {
		t.Error("reject_reason should be stored")
	}

	// The open step was closed as skipped, not completed.
	steps, _ := StepsForParent(app, CustomizationSteps, cust.Id)
	if len(steps) != 1 || steps[0].GetString("status") != "skipped" {
		t.Errorf("expected one skipped step, got %v", steps)
	}

	// A terminal customization cannot be acted on again.
	_, err = AdvanceCustomization(app, nil, cust.Id, StagePendingPMReview, ActionAdvance, pmReviewPayload())
	if !errors.Is(err, ErrInvalidParentState) {
		t.Errorf("err = %v, want ErrInvalidParentState after rejection", err)
	}
}

func TestRollupTakesMaxDeliveryImpact(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	quotation, first := submitTestCustomization(t, app)

	walk := func(custID string, finalPrice float64, impactDays int) {
		t.Helper()
		payload := pmReviewPayload()
		payload["pm_final_price"] = finalPrice
		payload["pm_final_delivery_impact_days"] = impactDays
		for _, step := range []struct {
			stage   Stage
			payload map[string]any
		}{
			{StagePendingPMReview, payload},
			{StagePendingSupplyQuote, map[string]any{}},
			{StagePendingPlanning, map[string]any{}},
			{StagePendingPMFinal, map[string]any{}},
		} {
			if _, err := AdvanceCustomization(app, nil, custID, step.stage, ActionAdvance, step.payload); err != nil {
				t.Fatalf("advance %s: %v", step.stage, err)
			}
		}
	}

	walk(first.Id, 5000, 30)

	second, err := SubmitCustomization(app, nil, quotation.Id, CustomizationInput{ItemName: "Second change"})
	if err != nil {
		t.Fatal(err)
	}
	walk(second.Record.Id, 2000, 10)

	quotation, _ = app.FindRecordById("quotations", quotation.Id)
	if got := quotation.GetFloat("total_customizations_price"); got != 7000.0 {
		t.Errorf("total_customizations_price = %v, want 7000 (sum)", got)
	}
	// 200 base + max(30, 10), not the 40-day sum.
	if got := quotation.GetInt("total_delivery_days"); got != 230 {
		t.Errorf("total_delivery_days = %v, want 230 (base + max impact)", got)
	}
}

func TestRollupFailedReadLeavesTotalsUntouched(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	quotation, cust := submitTestCustomization(t, app)

	for _, step := range []struct {
		stage   Stage
		payload map[string]any
	}{
		{StagePendingPMReview, pmReviewPayload()},
		{StagePendingSupplyQuote, map[string]any{}},
		{StagePendingPlanning, map[string]any{}},
		{StagePendingPMFinal, map[string]any{}},
	} {
		if _, err := AdvanceCustomization(app, nil, cust.Id, step.stage, ActionAdvance, step.payload); err != nil {
			t.Fatalf("advance %s: %v", step.stage, err)
		}
	}

	quotation, _ = app.FindRecordById("quotations", quotation.Id)
	if got := quotation.GetFloat("total_customizations_price"); got != 3000.0 {
		t.Fatalf("total_customizations_price = %v, want 3000 after approval", got)
	}

	// Break the backing table so the approved-customizations read fails.
	if _, err := app.DB().NewQuery("DROP TABLE customizations").Execute(); err != nil {
		t.Fatal(err)
	}

	if err := RollupQuotationTotals(app, quotation); err == nil {
		t.Fatal("expected an error when the customizations read fails")
	}

	// The stored totals must survive the failed rollup.
	quotation, _ = app.FindRecordById("quotations", quotation.Id)
	if got := quotation.GetFloat("total_customizations_price"); got != 3000.0 {
		t.Errorf("total_customizations_price = %v, want 3000 untouched", got)
	}
	if got := quotation.GetInt("total_delivery_days"); got != 215 {
		t.Errorf("total_delivery_days = %v, want 215 untouched", got)
	}
}
