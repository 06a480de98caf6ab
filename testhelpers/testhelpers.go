// Package testhelpers provides utilities for testing PocketBase-based applications.
package testhelpers

import (
	"testing"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"

	"yachtcpq/collections"
)

// NewTestApp creates a PocketBase instance backed by a temporary directory.
// It bootstraps the app and runs collections.Setup to create all tables.
// The temporary directory is cleaned up automatically when the test finishes.
func NewTestApp(t *testing.T) *pocketbase.PocketBase {
	t.Helper()

	tmpDir := t.TempDir()
	app := pocketbase.NewWithConfig(pocketbase.Config{
		DefaultDataDir: tmpDir,
	})

	if err := app.Bootstrap(); err != nil {
		t.Fatalf("failed to bootstrap test app: %v", err)
	}

	collections.Setup(app)

	return app
}

// CreateTestYachtModel creates a yacht model record and returns it.
func CreateTestYachtModel(t *testing.T, app *pocketbase.PocketBase, name, code string) *core.Record {
	t.Helper()

	col, err := app.FindCollectionByNameOrId("yacht_models")
	if err != nil {
		t.Fatalf("failed to find yacht_models collection: %v", err)
	}

	record := core.NewRecord(col)
	record.Set("name", name)
	record.Set("code", code)

	if err := app.Save(record); err != nil {
		t.Fatalf("failed to save test yacht model: %v", err)
	}

	return record
}

// CreateTestUser creates an internal user with the given role.
func CreateTestUser(t *testing.T, app *pocketbase.PocketBase, fullName, role string) *core.Record {
	t.Helper()

	col, err := app.FindCollectionByNameOrId("internal_users")
	if err != nil {
		t.Fatalf("failed to find internal_users collection: %v", err)
	}

	record := core.NewRecord(col)
	record.Set("full_name", fullName)
	record.Set("role", role)

	if err := app.Save(record); err != nil {
		t.Fatalf("failed to save test user: %v", err)
	}

	return record
}

// AssignTestPM links a PM user to a yacht model.
func AssignTestPM(t *testing.T, app *pocketbase.PocketBase, yachtModelID, pmUserID string) *core.Record {
	t.Helper()

	col, err := app.FindCollectionByNameOrId("pm_assignments")
	if err != nil {
		t.Fatalf("failed to find pm_assignments collection: %v", err)
	}

	record := core.NewRecord(col)
	record.Set("yacht_model", yachtModelID)
	record.Set("pm_user", pmUserID)

	if err := app.Save(record); err != nil {
		t.Fatalf("failed to save test PM assignment: %v", err)
	}

	return record
}

// CreateTestQuotation creates a draft quotation on a yacht model.
func CreateTestQuotation(t *testing.T, app *pocketbase.PocketBase, yachtModelID, number string) *core.Record {
	t.Helper()

	col, err := app.FindCollectionByNameOrId("quotations")
	if err != nil {
		t.Fatalf("failed to find quotations collection: %v", err)
	}

	record := core.NewRecord(col)
	record.Set("quotation_number", number)
	record.Set("client_name", "Test Client")
	record.Set("yacht_model", yachtModelID)
	record.Set("base_price", 2000000.0)
	record.Set("base_delivery_days", 200)
	record.Set("final_base_price", 2000000.0)
	record.Set("final_options_price", 100000.0)
	record.Set("status", "draft")

	if err := app.Save(record); err != nil {
		t.Fatalf("failed to save test quotation: %v", err)
	}

	return record
}

// CreateTestMemorialItem creates a memorial item on a yacht model.
func CreateTestMemorialItem(t *testing.T, app *pocketbase.PocketBase, yachtModelID, category, name string) *core.Record {
	t.Helper()

	col, err := app.FindCollectionByNameOrId("memorial_items")
	if err != nil {
		t.Fatalf("failed to find memorial_items collection: %v", err)
	}

	record := core.NewRecord(col)
	record.Set("yacht_model", yachtModelID)
	record.Set("category", category)
	record.Set("name", name)

	if err := app.Save(record); err != nil {
		t.Fatalf("failed to save test memorial item: %v", err)
	}

	return record
}

// CreateTestContract creates an active contract on a quotation.
func CreateTestContract(t *testing.T, app *pocketbase.PocketBase, quotationID, number string) *core.Record {
	t.Helper()

	col, err := app.FindCollectionByNameOrId("contracts")
	if err != nil {
		t.Fatalf("failed to find contracts collection: %v", err)
	}

	record := core.NewRecord(col)
	record.Set("quotation", quotationID)
	record.Set("contract_number", number)
	record.Set("base_price", 2100000.0)
	record.Set("base_delivery_days", 200)
	record.Set("status", "active")

	if err := app.Save(record); err != nil {
		t.Fatalf("failed to save test contract: %v", err)
	}

	return record
}

// CreateTestHullNumber creates a hull number, optionally with a fixed
// estimated delivery date (RFC3339 or YYYY-MM-DD string, empty to skip).
func CreateTestHullNumber(t *testing.T, app *pocketbase.PocketBase, yachtModelID, hullCode, estimatedDelivery string) *core.Record {
	t.Helper()

	col, err := app.FindCollectionByNameOrId("hull_numbers")
	if err != nil {
		t.Fatalf("failed to find hull_numbers collection: %v", err)
	}

	record := core.NewRecord(col)
	record.Set("hull_code", hullCode)
	record.Set("yacht_model", yachtModelID)
	if estimatedDelivery != "" {
		record.Set("estimated_delivery_date", estimatedDelivery)
	}

	if err := app.Save(record); err != nil {
		t.Fatalf("failed to save test hull number: %v", err)
	}

	return record
}

// CreateTestATO creates an ATO directly in the given status, bypassing the
// workflow. Useful for aggregation tests that need approved change orders.
func CreateTestATO(t *testing.T, app *pocketbase.PocketBase, contractID, number, status string, priceImpact float64, deliveryImpactDays int) *core.Record {
	t.Helper()

	col, err := app.FindCollectionByNameOrId("atos")
	if err != nil {
		t.Fatalf("failed to find atos collection: %v", err)
	}

	record := core.NewRecord(col)
	record.Set("contract", contractID)
	record.Set("ato_number", number)
	record.Set("item_name", "Test change order")
	record.Set("status", status)
	record.Set("workflow_status", "completed")
	record.Set("price_impact", priceImpact)
	record.Set("delivery_impact_days", deliveryImpactDays)

	if err := app.Save(record); err != nil {
		t.Fatalf("failed to save test ATO: %v", err)
	}

	return record
}

// SetDiscountLimits writes the thresholds for one limit family.
func SetDiscountLimits(t *testing.T, app *pocketbase.PocketBase, limitType string, noApprovalMax, directorApprovalMax float64) *core.Record {
	t.Helper()

	col, err := app.FindCollectionByNameOrId("discount_limits_config")
	if err != nil {
		t.Fatalf("failed to find discount_limits_config collection: %v", err)
	}

	record := core.NewRecord(col)
	record.Set("limit_type", limitType)
	record.Set("no_approval_max", noApprovalMax)
	record.Set("director_approval_max", directorApprovalMax)

	if err := app.Save(record); err != nil {
		t.Fatalf("failed to save test discount limits: %v", err)
	}

	return record
}

// SetPricingRules writes a pricing_rules record.
func SetPricingRules(t *testing.T, app *pocketbase.PocketBase, margin, tax, warranty, commission, laborRate float64) *core.Record {
	t.Helper()

	col, err := app.FindCollectionByNameOrId("pricing_rules")
	if err != nil {
		t.Fatalf("failed to find pricing_rules collection: %v", err)
	}

	record := core.NewRecord(col)
	record.Set("margin_percent", margin)
	record.Set("tax_percent", tax)
	record.Set("warranty_percent", warranty)
	record.Set("commission_percent", commission)
	record.Set("labor_rate_per_hour", laborRate)

	if err := app.Save(record); err != nil {
		t.Fatalf("failed to save test pricing rules: %v", err)
	}

	return record
}
