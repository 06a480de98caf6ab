package services

import (
	"fmt"
	"regexp"
	"strconv"

	"github.com/pocketbase/pocketbase"
)

var codeSeqPattern = regexp.MustCompile(`-(\d+)$`)

// NextCustomizationCode generates the next sequential code for a quotation's
// customizations. Format: <QUOTATION_NUMBER>-CUS-<NNN>, e.g.
// QT-2025-277-V1-CUS-001.
func NextCustomizationCode(app *pocketbase.PocketBase, quotationID string) (string, error) {
	quotation, err := app.FindRecordById("quotations", quotationID)
	if err != nil {
		return "", fmt.Errorf("quotation not found: %w", err)
	}
	prefix := quotation.GetString("quotation_number") + "-CUS-"
	seq := nextSequence(app, "customizations", "quotation", quotationID, "customization_code", prefix)
	return fmt.Sprintf("%s%03d", prefix, seq), nil
}

// NextATOCode generates the next sequential code for a contract's change
// orders. Format: <CONTRACT_NUMBER>-ATO-<NNN>.
func NextATOCode(app *pocketbase.PocketBase, contractID string) (string, error) {
	contract, err := app.FindRecordById("contracts", contractID)
	if err != nil {
		return "", fmt.Errorf("contract not found: %w", err)
	}
	prefix := contract.GetString("contract_number") + "-ATO-"
	seq := nextSequence(app, "atos", "contract", contractID, "ato_number", prefix)
	return fmt.Sprintf("%s%03d", prefix, seq), nil
}

// nextSequence finds the highest existing sequence under a prefix and
// returns the next one. Starts at 1 on a fresh parent.
func nextSequence(app *pocketbase.PocketBase, collection, parentField, parentID, codeField, prefix string) int {
	records, err := app.FindRecordsByFilter(
		collection,
		fmt.Sprintf("%s = {:parent} && %s ~ {:prefix}", parentField, codeField),
		"-created", 1, 0,
		map[string]any{"parent": parentID, "prefix": prefix + "%"},
	)
	if err != nil || len(records) == 0 {
		return 1
	}
	match := codeSeqPattern.FindStringSubmatch(records[0].GetString(codeField))
	if len(match) != 2 {
		return 1
	}
	last, err := strconv.Atoi(match[1])
	if err != nil {
		return 1
	}
	return last + 1
}
