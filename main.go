package main

import (
	"log"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"

	"yachtcpq/collections"
	"yachtcpq/handlers"
	"yachtcpq/services"
)

func main() {
	app := pocketbase.New()
	notifier := services.LogNotifier{}

	// Create collections and seed data on startup
	app.OnServe().BindFunc(func(se *core.ServeEvent) error {
		collections.Setup(app)
		if err := collections.Seed(app); err != nil {
			log.Printf("Warning: seed data failed: %v", err)
		}
		return se.Next()
	})

	app.OnServe().BindFunc(func(se *core.ServeEvent) error {
		// ── Quotations ───────────────────────────────────────────
		se.Router.GET("/quotations", handlers.HandleQuotationList(app))
		se.Router.GET("/quotations/{id}", handlers.HandleQuotationView(app))
		se.Router.GET("/quotations/{id}/approvals", handlers.HandleQuotationApprovals(app))
		se.Router.GET("/quotations/{id}/export/excel", handlers.HandleQuotationExportExcel(app))
		se.Router.GET("/quotations/{id}/export/pdf", handlers.HandleQuotationExportPDF(app))

		// ── Customization workflow ───────────────────────────────
		se.Router.POST("/quotations/{id}/customizations", handlers.HandleCustomizationCreate(app, notifier))
		se.Router.GET("/customizations/{id}", handlers.HandleCustomizationView(app))
		se.Router.POST("/customizations/{id}/advance", handlers.HandleCustomizationAdvance(app, notifier))

		// ── Contracts and change orders ──────────────────────────
		se.Router.POST("/contracts", handlers.HandleContractCreate(app))
		se.Router.GET("/contracts/{id}/totals", handlers.HandleContractTotals(app))
		se.Router.POST("/contracts/{id}/atos", handlers.HandleATOCreate(app, notifier))
		se.Router.GET("/atos/{id}", handlers.HandleATOView(app))
		se.Router.POST("/atos/{id}/advance", handlers.HandleATOAdvance(app))

		// ── Approvals ────────────────────────────────────────────
		se.Router.POST("/approvals/{id}/review", handlers.HandleApprovalReview(app))

		// ── Hull number master plan import ───────────────────────
		se.Router.POST("/hull-numbers/import", handlers.HandleHullImportValidate(app))
		se.Router.POST("/hull-numbers/import/commit", handlers.HandleHullImportCommit(app))

		// ── Configuration ────────────────────────────────────────
		se.Router.GET("/config/discount-limits", handlers.HandleDiscountLimitsGet(app))
		se.Router.PUT("/config/discount-limits", handlers.HandleDiscountLimitsUpdate(app))
		se.Router.GET("/config/pricing-rules", handlers.HandlePricingRulesGet(app))
		se.Router.PUT("/config/pricing-rules", handlers.HandlePricingRulesUpdate(app))

		return se.Next()
	})

	if err := app.Start(); err != nil {
		log.Fatal(err)
	}
}
