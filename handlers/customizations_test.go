package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"

	"yachtcpq/services"
	"yachtcpq/testhelpers"
)

func setupQuotation(t *testing.T, app *pocketbase.PocketBase) *core.Record {
	t.Helper()
	model := testhelpers.CreateTestYachtModel(t, app, "Solara 390 Fly", "S390")
	pm := testhelpers.CreateTestUser(t, app, "Ana Souza", "pm")
	testhelpers.AssignTestPM(t, app, model.Id, pm.Id)
	return testhelpers.CreateTestQuotation(t, app, model.Id, "QT-2025-100-V1")
}

func TestHandleCustomizationCreate_ValidData(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	quotation := setupQuotation(t, app)
	handler := HandleCustomizationCreate(app, services.LogNotifier{})

	body := `{"item_name": "Hydraulic swim platform upgrade", "quantity": 1}`
	req := httptest.NewRequest(http.MethodPost, "/quotations/"+quotation.Id+"/customizations",
		strings.NewReader(body))
	req.SetPathValue("id", quotation.Id)
	rec := httptest.NewRecorder()

	e := newTestRequestEvent(app, req, rec)

	if err := handler(e); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Customization struct {
			CustomizationCode string `json:"customization_code"`
			WorkflowStatus    string `json:"workflow_status"`
		} `json:"customization"`
		AssigneeUnresolved bool `json:"assignee_unresolved"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Customization.CustomizationCode != "QT-2025-100-V1-CUS-001" {
		t.Errorf("customization_code = %q", resp.Customization.CustomizationCode)
	}
	if resp.Customization.WorkflowStatus != "pending_pm_review" {
		t.Errorf("workflow_status = %q, want pending_pm_review", resp.Customization.WorkflowStatus)
	}
	if resp.AssigneeUnresolved {
		t.Error("PM is assigned, assignee_unresolved should be false")
	}
}

func TestHandleCustomizationCreate_UnknownQuotation(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	handler := HandleCustomizationCreate(app, services.LogNotifier{})

	req := httptest.NewRequest(http.MethodPost, "/quotations/nonexistent/customizations",
		strings.NewReader(`{"item_name": "Teak upgrade"}`))
	req.SetPathValue("id", "nonexistent")
	rec := httptest.NewRecorder()

	e := newTestRequestEvent(app, req, rec)

	if err := handler(e); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected status 404, got %d", rec.Code)
	}
}

func TestHandleCustomizationCreate_MissingItemName(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	quotation := setupQuotation(t, app)
	handler := HandleCustomizationCreate(app, services.LogNotifier{})

	req := httptest.NewRequest(http.MethodPost, "/quotations/"+quotation.Id+"/customizations",
		strings.NewReader(`{"quantity": 2}`))
	req.SetPathValue("id", quotation.Id)
	rec := httptest.NewRecorder()

	e := newTestRequestEvent(app, req, rec)

	if err := handler(e); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", rec.Code)
	}
}

func TestHandleCustomizationView_WithSteps(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	quotation := setupQuotation(t, app)

	result, err := services.SubmitCustomization(app, nil, quotation.Id, services.CustomizationInput{
		ItemName: "Custom hardtop",
	})
	if err != nil {
		t.Fatal(err)
	}
	handler := HandleCustomizationView(app)

	req := httptest.NewRequest(http.MethodGet, "/customizations/"+result.Record.Id, nil)
	req.SetPathValue("id", result.Record.Id)
	rec := httptest.NewRecorder()

	e := newTestRequestEvent(app, req, rec)

	if err := handler(e); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	var resp struct {
		Steps []struct {
			StepType string `json:"step_type"`
			Status   string `json:"status"`
		} `json:"steps"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Steps) != 1 || resp.Steps[0].StepType != "pm_initial" || resp.Steps[0].Status != "pending" {
		t.Errorf("steps = %+v, want one pending pm_initial step", resp.Steps)
	}
}

func TestHandleCustomizationAdvance_StageMismatch(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	quotation := setupQuotation(t, app)

	result, err := services.SubmitCustomization(app, nil, quotation.Id, services.CustomizationInput{
		ItemName: "Custom hardtop",
	})
	if err != nil {
		t.Fatal(err)
	}
	handler := HandleCustomizationAdvance(app, services.LogNotifier{})

	// Client thinks the customization is further along than it is.
	req := httptest.NewRequest(http.MethodPost, "/customizations/"+result.Record.Id+"/advance",
		strings.NewReader(`{"current_step": "pending_supply_quote"}`))
	req.SetPathValue("id", result.Record.Id)
	rec := httptest.NewRecorder()

	e := newTestRequestEvent(app, req, rec)

	if err := handler(e); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if rec.Code != http.StatusConflict {
		t.Errorf("expected status 409, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestHandleCustomizationAdvance_MissingFields(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	quotation := setupQuotation(t, app)

	result, err := services.SubmitCustomization(app, nil, quotation.Id, services.CustomizationInput{
		ItemName: "Custom hardtop",
	})
	if err != nil {
		t.Fatal(err)
	}
	handler := HandleCustomizationAdvance(app, services.LogNotifier{})

	req := httptest.NewRequest(http.MethodPost, "/customizations/"+result.Record.Id+"/advance",
		strings.NewReader(`{"current_step": "pending_pm_review"}`))
	req.SetPathValue("id", result.Record.Id)
	rec := httptest.NewRecorder()

	e := newTestRequestEvent(app, req, rec)

	if err := handler(e); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestHandleCustomizationAdvance_NotFound(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	handler := HandleCustomizationAdvance(app, services.LogNotifier{})

	req := httptest.NewRequest(http.MethodPost, "/customizations/nonexistent/advance",
		strings.NewReader(`{}`))
	req.SetPathValue("id", "nonexistent")
	rec := httptest.NewRecorder()

	e := newTestRequestEvent(app, req, rec)

	if err := handler(e); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected status 404, got %d", rec.Code)
	}
}
