package services

import (
	"fmt"
	"log"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"
	"github.com/pocketbase/pocketbase/tools/types"
)

// ReviewApproval records a director/administrator decision on a pending
// approval. Reviewer and reviewed_at are stamped together with the status
// change; a non-pending approval cannot be reviewed again.
func ReviewApproval(app *pocketbase.PocketBase, approvalID, reviewerID, decision, reviewNotes string) (*core.Record, error) {
	if reviewerID == "" {
		return nil, fmt.Errorf("%w: reviewer_id", ErrMissingRequiredField)
	}
	if decision != "approved" && decision != "rejected" {
		return nil, fmt.Errorf("%w: decision must be approved or rejected", ErrMissingRequiredField)
	}
	if decision == "rejected" && reviewNotes == "" {
		return nil, fmt.Errorf("%w: review_notes", ErrMissingRequiredField)
	}

	approval, err := app.FindRecordById("approvals", approvalID)
	if err != nil {
		return nil, fmt.Errorf("approval not found: %w", err)
	}
	if approval.GetString("status") != "pending" {
		return nil, fmt.Errorf("%w: approval is %s", ErrInvalidParentState, approval.GetString("status"))
	}

	approval.Set("status", decision)
	approval.Set("reviewer", reviewerID)
	approval.Set("review_notes", reviewNotes)
	approval.Set("reviewed_at", types.NowDateTime())
	if err := app.Save(approval); err != nil {
		return nil, fmt.Errorf("review approval: %w", err)
	}

	// Commercial approvals gate the quotation's outbound status.
	if approval.GetString("approval_type") == "commercial" {
		if quotation, err := app.FindRecordById("quotations", approval.GetString("quotation")); err == nil {
			if decision == "approved" {
				quotation.Set("status", "ready_to_send")
			} else {
				quotation.Set("status", "discount_rejected")
			}
			if err := app.Save(quotation); err != nil {
				log.Printf("approvals: could not update quotation %s status: %v", quotation.Id, err)
			}
		}
	}

	log.Printf("approvals: %s %s by %s", approvalID, decision, reviewerID)
	return approval, nil
}
