package handlers

import (
	"net/http"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"
	"github.com/spf13/cast"

	"yachtcpq/services"
)

// HandleApprovalReview records a director/administrator decision on a
// pending approval.
//
// POST /approvals/{id}/review  {"reviewer_id": "...", "decision": "approved|rejected", "review_notes": "..."}
func HandleApprovalReview(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		approvalID := e.Request.PathValue("id")
		if _, err := app.FindRecordById("approvals", approvalID); err != nil {
			return notFound(e, "approval not found")
		}

		payload, err := decodeBody(e)
		if err != nil {
			return badRequest(e, "invalid JSON body")
		}

		approval, err := services.ReviewApproval(app, approvalID,
			cast.ToString(payload["reviewer_id"]),
			cast.ToString(payload["decision"]),
			cast.ToString(payload["review_notes"]))
		if err != nil {
			return apiError(e, err)
		}
		return e.JSON(http.StatusOK, approvalJSON(approval))
	}
}

// HandleQuotationApprovals lists a quotation's approvals, newest first.
//
// GET /quotations/{id}/approvals
func HandleQuotationApprovals(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		quotationID := e.Request.PathValue("id")
		if _, err := app.FindRecordById("quotations", quotationID); err != nil {
			return notFound(e, "quotation not found")
		}

		records, err := app.FindRecordsByFilter(
			"approvals",
			"quotation = {:quotation}",
			"-created", 0, 0,
			map[string]any{"quotation": quotationID},
		)
		if err != nil {
			records = nil
		}
		list := make([]map[string]any, 0, len(records))
		for _, r := range records {
			list = append(list, approvalJSON(r))
		}
		return e.JSON(http.StatusOK, map[string]any{"approvals": list})
	}
}

func approvalJSON(rec *core.Record) map[string]any {
	var details map[string]any
	if err := rec.UnmarshalJSONField("request_details", &details); err != nil {
		details = nil
	}
	return map[string]any{
		"id":              rec.Id,
		"quotation":       rec.GetString("quotation"),
		"approval_type":   rec.GetString("approval_type"),
		"required_role":   rec.GetString("required_role"),
		"requested_by":    rec.GetString("requested_by"),
		"reviewer":        rec.GetString("reviewer"),
		"status":          rec.GetString("status"),
		"request_details": details,
		"review_notes":    rec.GetString("review_notes"),
		"reviewed_at":     rec.GetDateTime("reviewed_at").String(),
	}
}
