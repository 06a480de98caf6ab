// Package services holds the customization/ATO workflow engine: the stage
// machine, the step ledger, pricing and contract aggregation, and the
// commercial approval gate. Handlers stay thin and call into here.
package services

// Stage is a named phase in the linear customization approval pipeline.
type Stage string

const (
	StagePendingPMReview      Stage = "pending_pm_review"
	StagePMReviewCompleted    Stage = "pm_review_completed"
	StagePendingSupplyQuote   Stage = "pending_supply_quote"
	StageSupplyQuoteCompleted Stage = "supply_quote_completed"
	StagePendingPlanning      Stage = "pending_planning"
	StagePlanningCompleted    Stage = "planning_completed"
	StagePendingPMFinal       Stage = "pending_pm_final"
	StageCompleted            Stage = "completed"
	StageRejected             Stage = "rejected"
)

// stageOrder is the canonical progression. There is no branching: every
// customization either walks a prefix of this list or drops to rejected.
var stageOrder = []Stage{
	StagePendingPMReview,
	StagePMReviewCompleted,
	StagePendingSupplyQuote,
	StageSupplyQuoteCompleted,
	StagePendingPlanning,
	StagePlanningCompleted,
	StagePendingPMFinal,
	StageCompleted,
}

// StagePath returns the full canonical stage sequence.
func StagePath() []Stage {
	path := make([]Stage, len(stageOrder))
	copy(path, stageOrder)
	return path
}

// Terminal reports whether no further transitions are allowed from s.
func (s Stage) Terminal() bool {
	return s == StageCompleted || s == StageRejected
}

// Actionable reports whether s is a stage a reviewer acts on. The
// *_completed markers are pass-through: an advance lands on the next
// actionable stage (or on completed).
func (s Stage) Actionable() bool {
	switch s {
	case StagePendingPMReview, StagePendingSupplyQuote, StagePendingPlanning, StagePendingPMFinal:
		return true
	}
	return false
}

func stageIndex(s Stage) int {
	for i, st := range stageOrder {
		if st == s {
			return i
		}
	}
	return -1
}

// NextStage returns the stage immediately after s in the canonical order.
// ok is false for terminal or unknown stages.
func NextStage(s Stage) (next Stage, ok bool) {
	i := stageIndex(s)
	if i < 0 || i >= len(stageOrder)-1 {
		return "", false
	}
	return stageOrder[i+1], true
}

// StepType names one ledger entry family. The customization pipeline uses
// pm_initial/supply_quote/planning_check/pm_final; ATOs use a single
// pm_review step.
type StepType string

const (
	StepPMInitial     StepType = "pm_initial"
	StepSupplyQuote   StepType = "supply_quote"
	StepPlanningCheck StepType = "planning_check"
	StepPMFinal       StepType = "pm_final"
	StepPMReview      StepType = "pm_review"
)

// StepTypeForStage maps an actionable stage to the ledger step type whose
// assignee acts on it.
func StepTypeForStage(s Stage) (StepType, bool) {
	switch s {
	case StagePendingPMReview:
		return StepPMInitial, true
	case StagePendingSupplyQuote:
		return StepSupplyQuote, true
	case StagePendingPlanning:
		return StepPlanningCheck, true
	case StagePendingPMFinal:
		return StepPMFinal, true
	}
	return "", false
}

// advancePath returns the stages visited when advancing from an actionable
// stage: the completed marker, then the next actionable stage or the
// completed terminal.
func advancePath(from Stage) ([]Stage, bool) {
	if !from.Actionable() {
		return nil, false
	}
	marker, ok := NextStage(from)
	if !ok {
		return nil, false
	}
	if marker == StageCompleted {
		return []Stage{marker}, true
	}
	landing, ok := NextStage(marker)
	if !ok {
		return nil, false
	}
	return []Stage{marker, landing}, true
}

// AdvanceAction is what the acting reviewer chose to do with the pending
// stage: move it forward or reject the whole request.
type AdvanceAction string

const (
	ActionAdvance AdvanceAction = "advance"
	ActionReject  AdvanceAction = "reject"
)
