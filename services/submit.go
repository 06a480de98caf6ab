package services

import (
	"fmt"
	"log"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"
	"github.com/spf13/cast"
)

// CustomizationInput is what a sales user provides when requesting a change
// to a memorial item (or a free-form addition) on a quotation.
type CustomizationInput struct {
	MemorialItemID string
	ItemName       string
	Notes          string
	Quantity       int
	RequestedBy    string
}

// SubmitResult describes the freshly created entity and its first step.
type SubmitResult struct {
	Record             *core.Record
	Step               *core.Record
	AssigneeUnresolved bool
}

// SubmitCustomization creates a pending customization on a quotation and
// opens its pm_initial ledger step, assigned to the PM of the quotation's
// yacht model. An unassigned PM is a soft failure: the step is created
// anyway and flagged unresolved.
func SubmitCustomization(app *pocketbase.PocketBase, notifier Notifier, quotationID string, input CustomizationInput) (*SubmitResult, error) {
	if input.ItemName == "" {
		return nil, fmt.Errorf("%w: item_name", ErrMissingRequiredField)
	}
	if input.Quantity <= 0 {
		input.Quantity = 1
	}

	quotation, err := app.FindRecordById("quotations", quotationID)
	if err != nil {
		return nil, fmt.Errorf("quotation not found: %w", err)
	}

	code, err := NextCustomizationCode(app, quotationID)
	if err != nil {
		return nil, err
	}

	col, err := app.FindCollectionByNameOrId("customizations")
	if err != nil {
		return nil, fmt.Errorf("customizations collection: %w", err)
	}
	cust := core.NewRecord(col)
	cust.Set("quotation", quotationID)
	cust.Set("customization_code", code)
	cust.Set("item_name", input.ItemName)
	cust.Set("notes", input.Notes)
	cust.Set("quantity", input.Quantity)
	cust.Set("requested_by", input.RequestedBy)
	cust.Set("status", "pending")
	cust.Set("workflow_status", string(StagePendingPMReview))
	cust.Set("materials", "[]")
	if input.MemorialItemID != "" {
		cust.Set("memorial_item", input.MemorialItemID)
	}
	if err := app.Save(cust); err != nil {
		return nil, fmt.Errorf("create customization: %w", err)
	}

	assignment := ResolveAssignee(app, StepPMInitial, quotation.GetString("yacht_model"))
	step, err := RecordStep(app, CustomizationSteps, cust.Id, StepPMInitial, assignment)
	if err != nil {
		return nil, err
	}
	if notifier != nil {
		notifier.StepAssigned(assignment.UserID, code, StepPMInitial)
	}

	log.Printf("workflow: customization %s submitted on quotation %s", code, quotation.GetString("quotation_number"))
	return &SubmitResult{Record: cust, Step: step, AssigneeUnresolved: assignment.Unresolved}, nil
}

// ATOInput is a post-contract change order request.
type ATOInput struct {
	ItemName    string
	Notes       string
	RequestedBy string
}

// SubmitATO creates a pending ATO on a signed contract and opens its single
// pm_review ledger step.
func SubmitATO(app *pocketbase.PocketBase, notifier Notifier, contractID string, input ATOInput) (*SubmitResult, error) {
	if input.ItemName == "" {
		return nil, fmt.Errorf("%w: item_name", ErrMissingRequiredField)
	}

	contract, err := app.FindRecordById("contracts", contractID)
	if err != nil {
		return nil, fmt.Errorf("contract not found: %w", err)
	}

	code, err := NextATOCode(app, contractID)
	if err != nil {
		return nil, err
	}

	col, err := app.FindCollectionByNameOrId("atos")
	if err != nil {
		return nil, fmt.Errorf("atos collection: %w", err)
	}
	ato := core.NewRecord(col)
	ato.Set("contract", contractID)
	ato.Set("ato_number", code)
	ato.Set("item_name", input.ItemName)
	ato.Set("notes", input.Notes)
	ato.Set("requested_by", input.RequestedBy)
	ato.Set("status", "pending")
	ato.Set("workflow_status", string(StagePendingPMReview))
	ato.Set("materials", "[]")
	if err := app.Save(ato); err != nil {
		return nil, fmt.Errorf("create ato: %w", err)
	}

	assignment := ResolveAssignee(app, StepPMReview, contractYachtModel(app, contract))
	step, err := RecordStep(app, ATOSteps, ato.Id, StepPMReview, assignment)
	if err != nil {
		return nil, err
	}
	if notifier != nil {
		notifier.StepAssigned(assignment.UserID, code, StepPMReview)
	}

	log.Printf("workflow: ATO %s submitted on contract %s", code, contract.GetString("contract_number"))
	return &SubmitResult{Record: ato, Step: step, AssigneeUnresolved: assignment.Unresolved}, nil
}

func contractYachtModel(app *pocketbase.PocketBase, contract *core.Record) string {
	quotation, err := app.FindRecordById("quotations", contract.GetString("quotation"))
	if err != nil {
		return ""
	}
	return quotation.GetString("yacht_model")
}

// ParseCustomizationInput builds a CustomizationInput from a JSON payload.
func ParseCustomizationInput(payload map[string]any) CustomizationInput {
	return CustomizationInput{
		MemorialItemID: cast.ToString(payload["memorial_item_id"]),
		ItemName:       cast.ToString(payload["item_name"]),
		Notes:          cast.ToString(payload["notes"]),
		Quantity:       cast.ToInt(payload["quantity"]),
		RequestedBy:    cast.ToString(payload["requested_by"]),
	}
}
