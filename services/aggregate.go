package services

import (
	"fmt"
	"time"

	"github.com/pocketbase/pocketbase"
)

// ATOImpact is the price/delivery delta of one approved change order.
// Price deltas are signed: a replacement that credits the client is negative.
type ATOImpact struct {
	PriceImpact       float64
	DeliveryImpactDay int
}

// ContractImpact is the consolidated effect of all approved ATOs on a
// contract. Delivery uses MAX, not SUM: production delay is bounded by the
// single latest-finishing change order, concurrent changes do not add up.
type ContractImpact struct {
	TotalPriceImpact    float64
	TotalDeliveryImpact int
	ApprovedATOCount    int
}

// AggregateATOImpacts folds the given impacts into contract-level totals.
// Pure; callers filter to approved ATOs before calling.
func AggregateATOImpacts(impacts []ATOImpact) ContractImpact {
	var agg ContractImpact
	for _, imp := range impacts {
		agg.TotalPriceImpact += imp.PriceImpact
		if imp.DeliveryImpactDay > agg.TotalDeliveryImpact {
			agg.TotalDeliveryImpact = imp.DeliveryImpactDay
		}
		agg.ApprovedATOCount++
	}
	agg.TotalPriceImpact = Round2(agg.TotalPriceImpact)
	return agg
}

// ContractTotals is the derived running state of a contract. It is
// recomputed from the approved ATO set on every read rather than stored, so
// the displayed totals can never drift from the ledger.
type ContractTotals struct {
	BasePrice           float64
	CurrentPrice        float64
	BaseDeliveryDays    int
	CurrentDeliveryDays int
	EstimatedDelivery   string // RFC3339 date when the hull has a fixed date, else ""
	TotalPriceImpact    float64
	TotalDeliveryImpact int
	ApprovedATOCount    int
}

// ComputeContractTotals loads the contract's approved ATOs and derives the
// current price and delivery. When the linked hull number carries a fixed
// estimated delivery date the delivery impact shifts that date; otherwise it
// extends the contract's base delivery days.
func ComputeContractTotals(app *pocketbase.PocketBase, contractID string) (*ContractTotals, error) {
	contract, err := app.FindRecordById("contracts", contractID)
	if err != nil {
		return nil, fmt.Errorf("contract not found: %w", err)
	}

	atos, err := app.FindRecordsByFilter(
		"atos",
		"contract = {:contract} && status = 'approved'",
		"", 0, 0,
		map[string]any{"contract": contractID},
	)
	if err != nil {
		return nil, fmt.Errorf("load approved atos: %w", err)
	}

	impacts := make([]ATOImpact, 0, len(atos))
	for _, ato := range atos {
		impacts = append(impacts, ATOImpact{
			PriceImpact:       ato.GetFloat("price_impact"),
			DeliveryImpactDay: ato.GetInt("delivery_impact_days"),
		})
	}
	agg := AggregateATOImpacts(impacts)

	totals := &ContractTotals{
		BasePrice:           contract.GetFloat("base_price"),
		BaseDeliveryDays:    contract.GetInt("base_delivery_days"),
		TotalPriceImpact:    agg.TotalPriceImpact,
		TotalDeliveryImpact: agg.TotalDeliveryImpact,
		ApprovedATOCount:    agg.ApprovedATOCount,
	}
	totals.CurrentPrice = Round2(totals.BasePrice + agg.TotalPriceImpact)
	totals.CurrentDeliveryDays = totals.BaseDeliveryDays + agg.TotalDeliveryImpact

	if hullID := contract.GetString("hull_number"); hullID != "" {
		hull, err := app.FindRecordById("hull_numbers", hullID)
		if err == nil {
			if base := hull.GetDateTime("estimated_delivery_date"); !base.IsZero() {
				shifted := base.Time().AddDate(0, 0, agg.TotalDeliveryImpact)
				totals.EstimatedDelivery = shifted.Format(time.RFC3339)
			}
		}
	}

	return totals, nil
}
