package services

import (
	"github.com/pocketbase/pocketbase"
)

// Roles used for step assignment lookups.
const (
	RoleBuyer   = "comprador"
	RolePlanner = "planejador"
	RolePM      = "pm"
)

// Assignment is the resolved assignee for a workflow step. Unresolved is a
// soft failure: the step is still created, flagged for the UI ("PM não
// atribuído"), and work proceeds once someone claims it.
type Assignment struct {
	UserID     string
	Unresolved bool
}

// ResolveAssignee finds the user who should act on a step. PM steps go to
// the PM assigned to the quotation's yacht model; supply quoting goes to a
// buyer; planning checks go to a planner.
func ResolveAssignee(app *pocketbase.PocketBase, stepType StepType, yachtModelID string) Assignment {
	switch stepType {
	case StepPMInitial, StepPMFinal, StepPMReview:
		return resolvePM(app, yachtModelID)
	case StepSupplyQuote:
		return resolveByRole(app, RoleBuyer)
	case StepPlanningCheck:
		return resolveByRole(app, RolePlanner)
	}
	return Assignment{Unresolved: true}
}

func resolvePM(app *pocketbase.PocketBase, yachtModelID string) Assignment {
	if yachtModelID == "" {
		return Assignment{Unresolved: true}
	}
	records, err := app.FindRecordsByFilter(
		"pm_assignments",
		"yacht_model = {:model}",
		"", 1, 0,
		map[string]any{"model": yachtModelID},
	)
	if err != nil || len(records) == 0 {
		return Assignment{Unresolved: true}
	}
	return Assignment{UserID: records[0].GetString("pm_user")}
}

func resolveByRole(app *pocketbase.PocketBase, role string) Assignment {
	records, err := app.FindRecordsByFilter(
		"internal_users",
		"role = {:role}",
		"", 1, 0,
		map[string]any{"role": role},
	)
	if err != nil || len(records) == 0 {
		return Assignment{Unresolved: true}
	}
	return Assignment{UserID: records[0].Id}
}
