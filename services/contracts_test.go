package services

import (
	"fmt"
	"testing"
	"time"

	"yachtcpq/testhelpers"
)

func TestCreateContractFromQuotation(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	model := testhelpers.CreateTestYachtModel(t, app, "Solara 390 Fly", "S390")
	quotation := testhelpers.CreateTestQuotation(t, app, model.Id, "QT-2025-070-V1")
	quotation.Set("final_price", 2350000.0)
	quotation.Set("total_delivery_days", 230)
	if err := app.Save(quotation); err != nil {
		t.Fatal(err)
	}
	hull := testhelpers.CreateTestHullNumber(t, app, model.Id, "S390-2026-003", "")

	contract, err := CreateContractFromQuotation(app, quotation.Id, hull.Id)
	if err != nil {
		t.Fatalf("CreateContractFromQuotation: %v", err)
	}

	wantNumber := fmt.Sprintf("CT-%d-001", time.Now().Year())
	if got := contract.GetString("contract_number"); got != wantNumber {
		t.Errorf("contract_number = %q, want %s", got, wantNumber)
	}
	if got := contract.GetFloat("base_price"); got != 2350000.0 {
		t.Errorf("base_price = %v, want snapshot of final_price", got)
	}
	if got := contract.GetInt("base_delivery_days"); got != 230 {
		t.Errorf("base_delivery_days = %v, want 230", got)
	}
	if got := contract.GetString("hull_number"); got != hull.Id {
		t.Errorf("hull_number = %q, want %s", got, hull.Id)
	}

	quotation, _ = app.FindRecordById("quotations", quotation.Id)
	if got := quotation.GetString("status"); got != "contracted" {
		t.Errorf("quotation status = %q, want contracted", got)
	}
}

func TestCreateContractFallsBackToComponentPrices(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	model := testhelpers.CreateTestYachtModel(t, app, "Solara 390 Fly", "S390")
	quotation := testhelpers.CreateTestQuotation(t, app, model.Id, "QT-2025-071-V1")

	contract, err := CreateContractFromQuotation(app, quotation.Id, "")
	if err != nil {
		t.Fatalf("CreateContractFromQuotation: %v", err)
	}
	// final_base_price 2000000 + final_options_price 100000.
	if got := contract.GetFloat("base_price"); got != 2100000.0 {
		t.Errorf("base_price = %v, want 2100000", got)
	}
	if got := contract.GetInt("base_delivery_days"); got != 200 {
		t.Errorf("base_delivery_days = %v, want base fallback 200", got)
	}
}

func TestCreateContractUnknownHull(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	model := testhelpers.CreateTestYachtModel(t, app, "Solara 390 Fly", "S390")
	quotation := testhelpers.CreateTestQuotation(t, app, model.Id, "QT-2025-072-V1")

	if _, err := CreateContractFromQuotation(app, quotation.Id, "missing-hull-id"); err == nil {
		t.Error("expected an error for an unknown hull number")
	}
}

func TestContractNumbersAreSequentialPerYear(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	model := testhelpers.CreateTestYachtModel(t, app, "Solara 390 Fly", "S390")

	q1 := testhelpers.CreateTestQuotation(t, app, model.Id, "QT-2025-080-V1")
	q2 := testhelpers.CreateTestQuotation(t, app, model.Id, "QT-2025-081-V1")

	c1, err := CreateContractFromQuotation(app, q1.Id, "")
	if err != nil {
		t.Fatal(err)
	}
	c2, err := CreateContractFromQuotation(app, q2.Id, "")
	if err != nil {
		t.Fatal(err)
	}

	year := time.Now().Year()
	if got := c1.GetString("contract_number"); got != fmt.Sprintf("CT-%d-001", year) {
		t.Errorf("first contract = %q", got)
	}
	if got := c2.GetString("contract_number"); got != fmt.Sprintf("CT-%d-002", year) {
		t.Errorf("second contract = %q", got)
	}
}
