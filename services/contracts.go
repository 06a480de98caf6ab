package services

import (
	"fmt"
	"log"
	"time"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"
)

// CreateContractFromQuotation signs a quotation into a contract, snapshotting
// the base price and delivery days at signature time. Later ATO impacts are
// derived on read, never folded back into these base figures.
func CreateContractFromQuotation(app *pocketbase.PocketBase, quotationID, hullNumberID string) (*core.Record, error) {
	quotation, err := app.FindRecordById("quotations", quotationID)
	if err != nil {
		return nil, fmt.Errorf("quotation not found: %w", err)
	}

	if hullNumberID != "" {
		if _, err := app.FindRecordById("hull_numbers", hullNumberID); err != nil {
			return nil, fmt.Errorf("hull number not found: %w", err)
		}
	}

	col, err := app.FindCollectionByNameOrId("contracts")
	if err != nil {
		return nil, fmt.Errorf("contracts collection: %w", err)
	}

	basePrice := quotation.GetFloat("final_price")
	if basePrice == 0 {
		basePrice = quotation.GetFloat("final_base_price") + quotation.GetFloat("final_options_price")
	}
	baseDelivery := quotation.GetInt("total_delivery_days")
	if baseDelivery == 0 {
		baseDelivery = quotation.GetInt("base_delivery_days")
	}

	contract := core.NewRecord(col)
	contract.Set("quotation", quotationID)
	contract.Set("contract_number", nextContractNumber(app, time.Now()))
	contract.Set("base_price", Round2(basePrice))
	contract.Set("base_delivery_days", baseDelivery)
	contract.Set("status", "active")
	if hullNumberID != "" {
		contract.Set("hull_number", hullNumberID)
	}
	if err := app.Save(contract); err != nil {
		return nil, fmt.Errorf("create contract: %w", err)
	}

	quotation.Set("status", "contracted")
	if err := app.Save(quotation); err != nil {
		log.Printf("contracts: could not mark quotation %s contracted: %v", quotationID, err)
	}

	log.Printf("contracts: %s created from quotation %s", contract.GetString("contract_number"), quotation.GetString("quotation_number"))
	return contract, nil
}

// nextContractNumber builds CT-<year>-<NNN>, sequence scoped per year.
func nextContractNumber(app *pocketbase.PocketBase, now time.Time) string {
	prefix := fmt.Sprintf("CT-%d-", now.Year())
	records, err := app.FindRecordsByFilter(
		"contracts",
		"contract_number ~ {:prefix}",
		"", 0, 0,
		map[string]any{"prefix": prefix + "%"},
	)
	if err != nil {
		records = nil
	}
	return fmt.Sprintf("%s%03d", prefix, len(records)+1)
}
