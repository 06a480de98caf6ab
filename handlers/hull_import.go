package handlers

import (
	"net/http"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"

	"yachtcpq/services"
)

// HandleHullImportValidate parses an uploaded master plan file (CSV or xlsx)
// and returns the validation report without persisting anything.
//
// POST /hull-numbers/import  (multipart, field "file")
func HandleHullImportValidate(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		file, header, err := e.Request.FormFile("file")
		if err != nil {
			return badRequest(e, "file upload is required")
		}
		defer file.Close()

		result, err := services.ValidateHullNumbersFile(app, file, header.Filename)
		if err != nil {
			return badRequest(e, err.Error())
		}
		return e.JSON(http.StatusOK, result)
	}
}

// HandleHullImportCommit re-validates the uploaded file and commits the
// valid rows, upserting by hull code. Rows with errors are skipped and
// reported back.
//
// POST /hull-numbers/import/commit  (multipart, field "file")
func HandleHullImportCommit(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		file, header, err := e.Request.FormFile("file")
		if err != nil {
			return badRequest(e, "file upload is required")
		}
		defer file.Close()

		result, err := services.ValidateHullNumbersFile(app, file, header.Filename)
		if err != nil {
			return badRequest(e, err.Error())
		}

		created, updated, err := services.ImportHullNumbers(app, result.Rows)
		if err != nil {
			return apiError(e, err)
		}
		return e.JSON(http.StatusOK, map[string]any{
			"created":    created,
			"updated":    updated,
			"skipped":    result.ErrorRows,
			"total_rows": result.TotalRows,
			"errors":     result.Errors,
		})
	}
}
