package services

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"
	"github.com/spf13/cast"
)

// MaterialLine is one material row of a customization's cost breakdown.
// Stored as a JSON list on the record; the engine only ever works with the
// typed form, serialization happens at the persistence edge.
type MaterialLine struct {
	Name     string  `json:"name"`
	UnitCost float64 `json:"unit_cost"`
	Quantity float64 `json:"quantity"`
}

// PricingRules holds the markup percentages and the default labor rate.
// These live in the pricing_rules collection and are re-read per decision
// so admin changes take effect immediately. The divisor (e.g. 0.43 for
// 30/21/3/3) is always derived, never hardcoded.
type PricingRules struct {
	MarginPercent     float64
	TaxPercent        float64
	WarrantyPercent   float64
	CommissionPercent float64
	LaborRatePerHour  float64
}

// DefaultPricingRules mirrors the seeded configuration: 30% contribution
// margin, 21% tax, 3% warranty reserve, 3% commission, R$55/h labor.
func DefaultPricingRules() PricingRules {
	return PricingRules{
		MarginPercent:     30,
		TaxPercent:        21,
		WarrantyPercent:   3,
		CommissionPercent: 3,
		LaborRatePerHour:  55,
	}
}

// Divisor returns 1 minus the summed deduction fractions. A suggested price
// of cost/Divisor leaves exactly cost after deducting margin, tax, warranty
// and commission from the sale.
func (r PricingRules) Divisor() float64 {
	return 1 - (r.MarginPercent+r.TaxPercent+r.WarrantyPercent+r.CommissionPercent)/100
}

// LoadPricingRules reads the pricing_rules record, falling back to defaults
// when the collection is empty (fresh install).
func LoadPricingRules(app *pocketbase.PocketBase) PricingRules {
	records, err := app.FindRecordsByFilter("pricing_rules", "id != ''", "-updated", 1, 0)
	if err != nil || len(records) == 0 {
		return DefaultPricingRules()
	}
	rec := records[0]
	rules := PricingRules{
		MarginPercent:     rec.GetFloat("margin_percent"),
		TaxPercent:        rec.GetFloat("tax_percent"),
		WarrantyPercent:   rec.GetFloat("warranty_percent"),
		CommissionPercent: rec.GetFloat("commission_percent"),
		LaborRatePerHour:  rec.GetFloat("labor_rate_per_hour"),
	}
	if rules.LaborRatePerHour == 0 {
		rules.LaborRatePerHour = DefaultPricingRules().LaborRatePerHour
	}
	return rules
}

// CostBreakdown is the full costed view of a single customization, computed
// at PM-review time. Every monetary field is rounded to 2 decimals as it is
// produced, not only at the end, so displayed components always add up.
type CostBreakdown struct {
	MaterialsCost  float64
	LaborCost      float64
	TotalCost      float64
	Margin         float64
	Tax            float64
	Warranty       float64
	Commission     float64
	SuggestedPrice float64
}

// Round2 rounds a monetary value to 2 decimal places.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// ComputeCostBreakdown prices a customization from its material lines and
// labor estimate. The suggested price marks cost up by the reverse-markup
// formula price = cost / (1 - margin - tax - warranty - commission); the
// four deduction components are also surfaced individually for the review
// screen. If the configured deductions reach 100% the cost itself is
// returned as the price rather than dividing by zero.
func ComputeCostBreakdown(materials []MaterialLine, laborHours float64, rules PricingRules) CostBreakdown {
	var materialsCost float64
	for _, m := range materials {
		materialsCost += Round2(m.UnitCost * m.Quantity)
	}
	materialsCost = Round2(materialsCost)

	laborCost := Round2(laborHours * rules.LaborRatePerHour)
	totalCost := Round2(materialsCost + laborCost)

	suggested := totalCost
	if d := rules.Divisor(); d > 0 {
		suggested = Round2(totalCost / d)
	}

	return CostBreakdown{
		MaterialsCost:  materialsCost,
		LaborCost:      laborCost,
		TotalCost:      totalCost,
		Margin:         Round2(totalCost * rules.MarginPercent / 100),
		Tax:            Round2(totalCost * rules.TaxPercent / 100),
		Warranty:       Round2(totalCost * rules.WarrantyPercent / 100),
		Commission:     Round2(totalCost * rules.CommissionPercent / 100),
		SuggestedPrice: suggested,
	}
}

// ParseMaterials converts the raw payload list into typed material lines.
// Malformed numeric input is rejected here, before any state is mutated.
func ParseMaterials(raw any) ([]MaterialLine, error) {
	if raw == nil {
		return nil, nil
	}
	items, err := cast.ToSliceE(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: materials must be a list", ErrMissingRequiredField)
	}
	lines := make([]MaterialLine, 0, len(items))
	for i, item := range items {
		entry, err := cast.ToStringMapE(item)
		if err != nil {
			return nil, fmt.Errorf("%w: materials[%d] is not an object", ErrMissingRequiredField, i)
		}
		name := cast.ToString(entry["name"])
		if name == "" {
			return nil, fmt.Errorf("%w: materials[%d].name", ErrMissingRequiredField, i)
		}
		unitCost, err := cast.ToFloat64E(entry["unit_cost"])
		if err != nil || unitCost < 0 {
			return nil, fmt.Errorf("%w: materials[%d].unit_cost", ErrMissingRequiredField, i)
		}
		qty, err := cast.ToFloat64E(entry["quantity"])
		if err != nil || qty < 0 {
			return nil, fmt.Errorf("%w: materials[%d].quantity", ErrMissingRequiredField, i)
		}
		lines = append(lines, MaterialLine{Name: name, UnitCost: unitCost, Quantity: qty})
	}
	return lines, nil
}

// MaterialsJSON serializes material lines for storage on the record.
func MaterialsJSON(lines []MaterialLine) string {
	if len(lines) == 0 {
		return "[]"
	}
	data, err := json.Marshal(lines)
	if err != nil {
		return "[]"
	}
	return string(data)
}

// MaterialsFromRecord reads the stored materials list back into typed form.
func MaterialsFromRecord(rec *core.Record, field string) []MaterialLine {
	var lines []MaterialLine
	raw := rec.GetString(field)
	if raw == "" {
		return nil
	}
	if err := json.Unmarshal([]byte(raw), &lines); err != nil {
		return nil
	}
	return lines
}
