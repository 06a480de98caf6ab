package handlers

import (
	"net/http"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"
	"github.com/spf13/cast"

	"yachtcpq/services"
)

// HandleDiscountLimitsGet returns the configured discount thresholds for
// both limit families.
//
// GET /config/discount-limits
func HandleDiscountLimitsGet(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		out := map[string]any{}
		for _, limitType := range []string{"base", "options"} {
			limits := services.LoadDiscountLimits(app, limitType)
			out[limitType] = map[string]any{
				"no_approval_max":       limits.NoApprovalMax,
				"director_approval_max": limits.DirectorApprovalMax,
			}
		}
		return e.JSON(http.StatusOK, out)
	}
}

// HandleDiscountLimitsUpdate updates the thresholds for one limit family.
// Takes effect on the next gate evaluation; nothing is cached.
//
// PUT /config/discount-limits  {"limit_type": "base", "no_approval_max": 10, "director_approval_max": 15}
func HandleDiscountLimitsUpdate(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		payload, err := decodeBody(e)
		if err != nil {
			return badRequest(e, "invalid JSON body")
		}
		limitType := cast.ToString(payload["limit_type"])
		if limitType != "base" && limitType != "options" {
			return badRequest(e, "limit_type must be base or options")
		}
		noApproval := cast.ToFloat64(payload["no_approval_max"])
		directorMax := cast.ToFloat64(payload["director_approval_max"])
		if noApproval < 0 || directorMax < noApproval {
			return badRequest(e, "thresholds must satisfy 0 <= no_approval_max <= director_approval_max")
		}

		records, err := app.FindRecordsByFilter(
			"discount_limits_config",
			"limit_type = {:type}",
			"", 1, 0,
			map[string]any{"type": limitType},
		)
		var rec *core.Record
		if err == nil && len(records) > 0 {
			rec = records[0]
		} else {
			col, err := app.FindCollectionByNameOrId("discount_limits_config")
			if err != nil {
				return apiError(e, err)
			}
			rec = core.NewRecord(col)
			rec.Set("limit_type", limitType)
		}
		rec.Set("no_approval_max", noApproval)
		rec.Set("director_approval_max", directorMax)
		if err := app.Save(rec); err != nil {
			return apiError(e, err)
		}

		return e.JSON(http.StatusOK, map[string]any{
			"limit_type":            limitType,
			"no_approval_max":       noApproval,
			"director_approval_max": directorMax,
		})
	}
}

// HandlePricingRulesGet returns the active markup configuration.
//
// GET /config/pricing-rules
func HandlePricingRulesGet(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		rules := services.LoadPricingRules(app)
		return e.JSON(http.StatusOK, pricingRulesJSON(rules))
	}
}

// HandlePricingRulesUpdate replaces the markup configuration. The deduction
// percentages must leave a positive divisor, otherwise every suggested price
// would degenerate to cost.
//
// PUT /config/pricing-rules
func HandlePricingRulesUpdate(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		payload, err := decodeBody(e)
		if err != nil {
			return badRequest(e, "invalid JSON body")
		}

		rules := services.PricingRules{
			MarginPercent:     cast.ToFloat64(payload["margin_percent"]),
			TaxPercent:        cast.ToFloat64(payload["tax_percent"]),
			WarrantyPercent:   cast.ToFloat64(payload["warranty_percent"]),
			CommissionPercent: cast.ToFloat64(payload["commission_percent"]),
			LaborRatePerHour:  cast.ToFloat64(payload["labor_rate_per_hour"]),
		}
		if rules.Divisor() <= 0 {
			return badRequest(e, "deduction percentages must sum to less than 100")
		}
		if rules.LaborRatePerHour <= 0 {
			return badRequest(e, "labor_rate_per_hour must be positive")
		}

		records, err := app.FindRecordsByFilter("pricing_rules", "id != ''", "-updated", 1, 0)
		var rec *core.Record
		if err == nil && len(records) > 0 {
			rec = records[0]
		} else {
			col, err := app.FindCollectionByNameOrId("pricing_rules")
			if err != nil {
				return apiError(e, err)
			}
			rec = core.NewRecord(col)
		}
		rec.Set("margin_percent", rules.MarginPercent)
		rec.Set("tax_percent", rules.TaxPercent)
		rec.Set("warranty_percent", rules.WarrantyPercent)
		rec.Set("commission_percent", rules.CommissionPercent)
		rec.Set("labor_rate_per_hour", rules.LaborRatePerHour)
		if err := app.Save(rec); err != nil {
			return apiError(e, err)
		}

		return e.JSON(http.StatusOK, pricingRulesJSON(rules))
	}
}

func pricingRulesJSON(rules services.PricingRules) map[string]any {
	return map[string]any{
		"margin_percent":      rules.MarginPercent,
		"tax_percent":         rules.TaxPercent,
		"warranty_percent":    rules.WarrantyPercent,
		"commission_percent":  rules.CommissionPercent,
		"labor_rate_per_hour": rules.LaborRatePerHour,
		"divisor":             rules.Divisor(),
	}
}
