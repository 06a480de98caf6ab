package services

import (
	"fmt"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"
	"github.com/pocketbase/pocketbase/tools/types"
)

// StepFamily identifies one of the two parallel step ledgers. Customizations
// and ATOs never share step rows; each family has its own collection and
// parent relation.
type StepFamily struct {
	StepsCollection  string
	ParentCollection string
	ParentField      string
}

var (
	CustomizationSteps = StepFamily{
		StepsCollection:  "customization_steps",
		ParentCollection: "customizations",
		ParentField:      "customization",
	}
	ATOSteps = StepFamily{
		StepsCollection:  "ato_steps",
		ParentCollection: "atos",
		ParentField:      "ato",
	}
)

// StepOutcome is how an acted-on step leaves the pending state.
type StepOutcome string

const (
	OutcomeCompleted StepOutcome = "completed"
	OutcomeSkipped   StepOutcome = "skipped"
)

// RecordStep appends a pending step to the ledger. Fails with
// ErrInvalidParentState when the parent is already approved/rejected, and
// refuses to open a second pending step for the same parent (single-threaded
// progression, one reviewer at a time).
func RecordStep(app *pocketbase.PocketBase, family StepFamily, parentID string, stepType StepType, assignment Assignment) (*core.Record, error) {
	parent, err := app.FindRecordById(family.ParentCollection, parentID)
	if err != nil {
		return nil, fmt.Errorf("%s not found: %w", family.ParentCollection, err)
	}
	if s := parent.GetString("status"); s == "approved" || s == "rejected" {
		return nil, fmt.Errorf("%w: %s is %s", ErrInvalidParentState, family.ParentCollection, s)
	}

	pending, err := FindPendingStep(app, family, parentID)
	if err == nil && pending != nil {
		return nil, fmt.Errorf("parent %s already has a pending %s step", parentID, pending.GetString("step_type"))
	}

	col, err := app.FindCollectionByNameOrId(family.StepsCollection)
	if err != nil {
		return nil, fmt.Errorf("%s collection: %w", family.StepsCollection, err)
	}
	step := core.NewRecord(col)
	step.Set(family.ParentField, parentID)
	step.Set("step_type", string(stepType))
	step.Set("status", "pending")
	step.Set("assigned_to", assignment.UserID)
	step.Set("assignee_unresolved", assignment.Unresolved)
	if err := app.Save(step); err != nil {
		return nil, fmt.Errorf("record step: %w", err)
	}
	return step, nil
}

// FindPendingStep returns the parent's single pending step, or nil.
func FindPendingStep(app *pocketbase.PocketBase, family StepFamily, parentID string) (*core.Record, error) {
	records, err := app.FindRecordsByFilter(
		family.StepsCollection,
		fmt.Sprintf("%s = {:parent} && status = 'pending'", family.ParentField),
		"", 1, 0,
		map[string]any{"parent": parentID},
	)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}
	return records[0], nil
}

// CompleteStep marks a pending step as acted on and stamps completed_at.
// A step can only leave pending once (ErrAlreadyCompleted), and only while
// its type still matches the parent's current stage; the parent is re-read
// here so a completion raced by another reviewer fails with ErrStaleStep
// instead of silently rewriting history. Steps are never deleted.
func CompleteStep(app *pocketbase.PocketBase, family StepFamily, stepID string, outcome StepOutcome, response map[string]any, notes string) (*core.Record, error) {
	step, err := app.FindRecordById(family.StepsCollection, stepID)
	if err != nil {
		return nil, fmt.Errorf("step not found: %w", err)
	}
	if step.GetString("status") != "pending" {
		return nil, fmt.Errorf("%w: step %s is %s", ErrAlreadyCompleted, stepID, step.GetString("status"))
	}

	parent, err := app.FindRecordById(family.ParentCollection, step.GetString(family.ParentField))
	if err != nil {
		return nil, fmt.Errorf("%s not found: %w", family.ParentCollection, err)
	}
	if !stepMatchesParentStage(family, StepType(step.GetString("step_type")), Stage(parent.GetString("workflow_status"))) {
		return nil, fmt.Errorf("%w: step %s vs stage %s", ErrStaleStep, step.GetString("step_type"), parent.GetString("workflow_status"))
	}

	step.Set("status", string(outcome))
	if response != nil {
		step.Set("response", response)
	}
	if notes != "" {
		step.Set("notes", notes)
	}
	step.Set("completed_at", types.NowDateTime())
	if err := app.Save(step); err != nil {
		return nil, fmt.Errorf("complete step: %w", err)
	}
	return step, nil
}

func stepMatchesParentStage(family StepFamily, stepType StepType, stage Stage) bool {
	if family.StepsCollection == ATOSteps.StepsCollection {
		return stepType == StepPMReview && stage == StagePendingPMReview
	}
	expected, ok := StepTypeForStage(stage)
	return ok && expected == stepType
}

// StepsForParent lists a parent's full ledger, oldest first (audit trail).
func StepsForParent(app *pocketbase.PocketBase, family StepFamily, parentID string) ([]*core.Record, error) {
	return app.FindRecordsByFilter(
		family.StepsCollection,
		fmt.Sprintf("%s = {:parent}", family.ParentField),
		"created", 0, 0,
		map[string]any{"parent": parentID},
	)
}
