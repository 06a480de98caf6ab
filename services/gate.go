package services

import (
	"fmt"
	"log"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"
)

// Approver roles the gate can demand. Empty means auto-approved.
const (
	RoleDirector      = "diretor"
	RoleAdministrator = "administrador"
)

// DiscountLimits are the commercial approval thresholds for one discount
// family (base price vs options). They are configuration data, re-read per
// decision, never cached at startup.
type DiscountLimits struct {
	NoApprovalMax       float64
	DirectorApprovalMax float64
}

func defaultDiscountLimits(limitType string) DiscountLimits {
	if limitType == "options" {
		return DiscountLimits{NoApprovalMax: 8, DirectorApprovalMax: 12}
	}
	return DiscountLimits{NoApprovalMax: 10, DirectorApprovalMax: 15}
}

// LoadDiscountLimits fetches the configured thresholds for a limit type
// ("base" or "options"), falling back to the seeded defaults.
func LoadDiscountLimits(app *pocketbase.PocketBase, limitType string) DiscountLimits {
	records, err := app.FindRecordsByFilter(
		"discount_limits_config",
		"limit_type = {:type}",
		"", 1, 0,
		map[string]any{"type": limitType},
	)
	if err != nil || len(records) == 0 {
		return defaultDiscountLimits(limitType)
	}
	return DiscountLimits{
		NoApprovalMax:       records[0].GetFloat("no_approval_max"),
		DirectorApprovalMax: records[0].GetFloat("director_approval_max"),
	}
}

// RequiredApproverRole decides which role must sign off a discount.
// At or below the no-approval threshold nothing is required; above it up to
// the director threshold a director must approve; beyond that only an
// administrator can.
func RequiredApproverRole(discountPercent float64, limits DiscountLimits) string {
	switch {
	case discountPercent <= limits.NoApprovalMax:
		return ""
	case discountPercent <= limits.DirectorApprovalMax:
		return RoleDirector
	default:
		return RoleAdministrator
	}
}

func roleRank(role string) int {
	switch role {
	case RoleAdministrator:
		return 2
	case RoleDirector:
		return 1
	}
	return 0
}

// stricterRole picks the more senior of two required roles.
func stricterRole(a, b string) string {
	if roleRank(b) > roleRank(a) {
		return b
	}
	return a
}

// GateDecision is the outcome of evaluating the commercial approval gate for
// a quotation.
type GateDecision struct {
	RequiredRole string // "" when auto-approved
	Approval     *core.Record
	Existing     bool // an open approval of the same type was already there
}

// EvaluateCommercialGate checks the quotation's base and options discounts
// against the configured limits and, when sign-off is needed, creates a
// pending commercial approval. The gate never opens more than one pending
// approval per quotation per type: if one exists it is reused.
func EvaluateCommercialGate(app *pocketbase.PocketBase, quotation *core.Record, requestedBy, reason string) (*GateDecision, error) {
	baseDiscount := quotation.GetFloat("base_discount_percentage")
	optionsDiscount := quotation.GetFloat("options_discount_percentage")

	baseRole := RequiredApproverRole(baseDiscount, LoadDiscountLimits(app, "base"))
	optionsRole := RequiredApproverRole(optionsDiscount, LoadDiscountLimits(app, "options"))

	role := stricterRole(baseRole, optionsRole)
	if role == "" {
		return &GateDecision{}, nil
	}

	open, err := app.FindRecordsByFilter(
		"approvals",
		"quotation = {:quotation} && approval_type = 'commercial' && status = 'pending'",
		"", 1, 0,
		map[string]any{"quotation": quotation.Id},
	)
	if err == nil && len(open) > 0 {
		return &GateDecision{RequiredRole: role, Approval: open[0], Existing: true}, nil
	}

	col, err := app.FindCollectionByNameOrId("approvals")
	if err != nil {
		return nil, fmt.Errorf("approvals collection: %w", err)
	}
	approval := core.NewRecord(col)
	approval.Set("quotation", quotation.Id)
	approval.Set("approval_type", "commercial")
	approval.Set("required_role", role)
	approval.Set("requested_by", requestedBy)
	approval.Set("status", "pending")
	approval.Set("request_details", map[string]any{
		"base_discount_percentage":    baseDiscount,
		"options_discount_percentage": optionsDiscount,
		"reason":                      reason,
	})
	if err := app.Save(approval); err != nil {
		return nil, fmt.Errorf("create commercial approval: %w", err)
	}

	log.Printf("gate: commercial approval created for quotation %s (role=%s, base=%.2f%%, options=%.2f%%)",
		quotation.Id, role, baseDiscount, optionsDiscount)

	return &GateDecision{RequiredRole: role, Approval: approval}, nil
}
