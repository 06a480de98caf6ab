package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"yachtcpq/testhelpers"
)

func TestHandleContractCreate_ValidData(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	quotation := setupQuotation(t, app)
	handler := HandleContractCreate(app)

	body := fmt.Sprintf(`{"quotation_id": %q}`, quotation.Id)
	req := httptest.NewRequest(http.MethodPost, "/contracts", strings.NewReader(body))
	rec := httptest.NewRecorder()

	e := newTestRequestEvent(app, req, rec)

	if err := handler(e); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		ContractNumber string `json:"contract_number"`
		Status         string `json:"status"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if want := fmt.Sprintf("CT-%d-001", time.Now().Year()); resp.ContractNumber != want {
		t.Errorf("contract_number = %q, want %s", resp.ContractNumber, want)
	}
	if resp.Status != "active" {
		t.Errorf("status = %q, want active", resp.Status)
	}
}

func TestHandleContractCreate_MissingQuotationID(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	handler := HandleContractCreate(app)

	req := httptest.NewRequest(http.MethodPost, "/contracts", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()

	e := newTestRequestEvent(app, req, rec)

	if err := handler(e); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", rec.Code)
	}
}

func TestHandleContractTotals_WithApprovedATO(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	quotation := setupQuotation(t, app)
	contract := testhelpers.CreateTestContract(t, app, quotation.Id, "CT-2025-040")
	testhelpers.CreateTestATO(t, app, contract.Id, "ATO-001", "approved", 18000, 14)
	testhelpers.CreateTestATO(t, app, contract.Id, "ATO-002", "pending_pm_review", 99999, 99)

	handler := HandleContractTotals(app)

	req := httptest.NewRequest(http.MethodGet, "/contracts/"+contract.Id+"/totals", nil)
	req.SetPathValue("id", contract.Id)
	rec := httptest.NewRecorder()

	e := newTestRequestEvent(app, req, rec)

	if err := handler(e); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		CurrentPrice        float64 `json:"current_price"`
		CurrentDeliveryDays int     `json:"current_delivery_days"`
		ApprovedATOCount    int     `json:"approved_ato_count"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	// Base 2100000 + 18000; pending ATO does not count.
	if resp.CurrentPrice != 2118000 {
		t.Errorf("current_price = %v, want 2118000", resp.CurrentPrice)
	}
	if resp.CurrentDeliveryDays != 214 {
		t.Errorf("current_delivery_days = %v, want 214", resp.CurrentDeliveryDays)
	}
	if resp.ApprovedATOCount != 1 {
		t.Errorf("approved_ato_count = %v, want 1", resp.ApprovedATOCount)
	}
}

func TestHandleContractTotals_UnknownContract(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	handler := HandleContractTotals(app)

	req := httptest.NewRequest(http.MethodGet, "/contracts/nonexistent/totals", nil)
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
