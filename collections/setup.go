// Package collections creates and seeds the application's PocketBase
// collections: yacht catalog, quotations, the customization/ATO workflow
// ledgers, approvals and the configuration tables.
package collections

import (
	"fmt"
	"log"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"
	"github.com/pocketbase/pocketbase/tools/types"
)

var workflowStages = []string{
	"pending_pm_review",
	"pm_review_completed",
	"pending_supply_quote",
	"supply_quote_completed",
	"pending_planning",
	"planning_completed",
	"pending_pm_final",
	"completed",
	"rejected",
}

var entityStatuses = []string{"pending", "approved", "rejected"}

// Setup programmatically creates/ensures all collections exist.
func Setup(app *pocketbase.PocketBase) {
	yachtModels := ensureCollection(app, "yacht_models", func(c *core.Collection) {
		c.Fields.Add(&core.TextField{Name: "name", Required: true})
		c.Fields.Add(&core.TextField{Name: "code", Required: true})
		c.Fields.Add(&core.AutodateField{Name: "created", OnCreate: true})
		c.Fields.Add(&core.AutodateField{Name: "updated", OnCreate: true, OnUpdate: true})
	})

	internalUsers := ensureCollection(app, "internal_users", func(c *core.Collection) {
		c.Fields.Add(&core.TextField{Name: "full_name", Required: true})
		c.Fields.Add(&core.TextField{Name: "email", Required: false})
		c.Fields.Add(&core.SelectField{
			Name:      "role",
			Required:  true,
			Values:    []string{"vendedor", "pm", "comprador", "planejador", "diretor", "administrador"},
			MaxSelect: 1,
		})
		c.Fields.Add(&core.AutodateField{Name: "created", OnCreate: true})
	})

	ensureCollection(app, "pm_assignments", func(c *core.Collection) {
		c.Fields.Add(&core.RelationField{
			Name:          "yacht_model",
			Required:      true,
			CollectionId:  yachtModels.Id,
			CascadeDelete: true,
			MaxSelect:     1,
		})
		c.Fields.Add(&core.RelationField{
			Name:         "pm_user",
			Required:     true,
			CollectionId: internalUsers.Id,
			MaxSelect:    1,
		})
	})

	quotations := ensureCollection(app, "quotations", func(c *core.Collection) {
		c.Fields.Add(&core.TextField{Name: "quotation_number", Required: true})
		c.Fields.Add(&core.TextField{Name: "client_name", Required: false})
		c.Fields.Add(&core.RelationField{
			Name:         "yacht_model",
			Required:     false,
			CollectionId: yachtModels.Id,
			MaxSelect:    1,
		})
		c.Fields.Add(&core.NumberField{Name: "base_price"})
		c.Fields.Add(&core.NumberField{Name: "base_delivery_days"})
		c.Fields.Add(&core.NumberField{Name: "base_discount_percentage"})
		c.Fields.Add(&core.NumberField{Name: "options_discount_percentage"})
		c.Fields.Add(&core.NumberField{Name: "final_base_price"})
		c.Fields.Add(&core.NumberField{Name: "final_options_price"})
		c.Fields.Add(&core.NumberField{Name: "total_customizations_price"})
		c.Fields.Add(&core.NumberField{Name: "total_delivery_days"})
		c.Fields.Add(&core.NumberField{Name: "final_price"})
		c.Fields.Add(&core.SelectField{
			Name:     "status",
			Required: false,
			Values: []string{
				"draft", "pending_commercial_approval", "ready_to_send",
				"sent", "contracted", "discount_rejected", "expired",
			},
			MaxSelect: 1,
		})
		c.Fields.Add(&core.AutodateField{Name: "created", OnCreate: true})
		c.Fields.Add(&core.AutodateField{Name: "updated", OnCreate: true, OnUpdate: true})
	})

	memorialItems := ensureCollection(app, "memorial_items", func(c *core.Collection) {
		c.Fields.Add(&core.RelationField{
			Name:          "yacht_model",
			Required:      true,
			CollectionId:  yachtModels.Id,
			CascadeDelete: true,
			MaxSelect:     1,
		})
		c.Fields.Add(&core.TextField{Name: "category", Required: false})
		c.Fields.Add(&core.TextField{Name: "name", Required: true})
		c.Fields.Add(&core.TextField{Name: "description", Required: false})
	})

	customizations := ensureCollection(app, "customizations", func(c *core.Collection) {
		c.Fields.Add(&core.RelationField{
			Name:          "quotation",
			Required:      true,
			CollectionId:  quotations.Id,
			CascadeDelete: true,
			MaxSelect:     1,
		})
		c.Fields.Add(&core.RelationField{
			Name:         "memorial_item",
			Required:     false,
			CollectionId: memorialItems.Id,
			MaxSelect:    1,
		})
		c.Fields.Add(&core.TextField{Name: "customization_code", Required: false})
		c.Fields.Add(&core.TextField{Name: "item_name", Required: true})
		c.Fields.Add(&core.TextField{Name: "notes", Required: false})
		c.Fields.Add(&core.NumberField{Name: "quantity"})
		c.Fields.Add(&core.RelationField{
			Name:         "requested_by",
			Required:     false,
			CollectionId: internalUsers.Id,
			MaxSelect:    1,
		})
		addWorkflowPricingFields(c)
		c.Fields.Add(&core.NumberField{Name: "pm_final_price"})
		c.Fields.Add(&core.NumberField{Name: "pm_final_delivery_impact_days"})
		c.Fields.Add(&core.TextField{Name: "pm_final_notes", Required: false})
		c.Fields.Add(&core.NumberField{Name: "supply_cost"})
		c.Fields.Add(&core.NumberField{Name: "supply_lead_time_days"})
		c.Fields.Add(&core.TextField{Name: "supply_notes", Required: false})
		c.Fields.Add(&core.TextField{Name: "planning_window_start", Required: false})
		c.Fields.Add(&core.NumberField{Name: "planning_delivery_impact_days"})
		c.Fields.Add(&core.TextField{Name: "planning_notes", Required: false})
		addStatusFields(c)
	})

	ensureStepCollection(app, "customization_steps", "customization", customizations.Id, internalUsers.Id,
		[]string{"pm_initial", "supply_quote", "planning_check", "pm_final"})

	hullNumbers := ensureCollection(app, "hull_numbers", func(c *core.Collection) {
		c.Fields.Add(&core.TextField{Name: "hull_code", Required: true})
		c.Fields.Add(&core.RelationField{
			Name:         "yacht_model",
			Required:     false,
			CollectionId: yachtModels.Id,
			MaxSelect:    1,
		})
		c.Fields.Add(&core.DateField{Name: "estimated_delivery_date"})
		c.Fields.Add(&core.AutodateField{Name: "created", OnCreate: true})
		c.Fields.Add(&core.AutodateField{Name: "updated", OnCreate: true, OnUpdate: true})
	})

	contracts := ensureCollection(app, "contracts", func(c *core.Collection) {
		c.Fields.Add(&core.RelationField{
			Name:         "quotation",
			Required:     true,
			CollectionId: quotations.Id,
			MaxSelect:    1,
		})
		c.Fields.Add(&core.TextField{Name: "contract_number", Required: true})
		c.Fields.Add(&core.NumberField{Name: "base_price"})
		c.Fields.Add(&core.NumberField{Name: "base_delivery_days"})
		c.Fields.Add(&core.RelationField{
			Name:         "hull_number",
			Required:     false,
			CollectionId: hullNumbers.Id,
			MaxSelect:    1,
		})
		c.Fields.Add(&core.SelectField{
			Name:      "status",
			Values:    []string{"active", "delivered", "cancelled"},
			MaxSelect: 1,
		})
		c.Fields.Add(&core.AutodateField{Name: "created", OnCreate: true})
		c.Fields.Add(&core.AutodateField{Name: "updated", OnCreate: true, OnUpdate: true})
	})

	atos := ensureCollection(app, "atos", func(c *core.Collection) {
		c.Fields.Add(&core.RelationField{
			Name:          "contract",
			Required:      true,
			CollectionId:  contracts.Id,
			CascadeDelete: true,
			MaxSelect:     1,
		})
		c.Fields.Add(&core.TextField{Name: "ato_number", Required: false})
		c.Fields.Add(&core.TextField{Name: "item_name", Required: true})
		c.Fields.Add(&core.TextField{Name: "notes", Required: false})
		c.Fields.Add(&core.RelationField{
			Name:         "requested_by",
			Required:     false,
			CollectionId: internalUsers.Id,
			MaxSelect:    1,
		})
		addWorkflowPricingFields(c)
		c.Fields.Add(&core.NumberField{Name: "price_impact"})
		c.Fields.Add(&core.NumberField{Name: "delivery_impact_days"})
		addStatusFields(c)
	})

	ensureStepCollection(app, "ato_steps", "ato", atos.Id, internalUsers.Id,
		[]string{"pm_review"})

	ensureCollection(app, "approvals", func(c *core.Collection) {
		c.Fields.Add(&core.RelationField{
			Name:          "quotation",
			Required:      true,
			CollectionId:  quotations.Id,
			CascadeDelete: true,
			MaxSelect:     1,
		})
		c.Fields.Add(&core.SelectField{
			Name:      "approval_type",
			Required:  true,
			Values:    []string{"commercial", "technical"},
			MaxSelect: 1,
		})
		c.Fields.Add(&core.SelectField{
			Name:      "required_role",
			Values:    []string{"diretor", "administrador"},
			MaxSelect: 1,
		})
		c.Fields.Add(&core.RelationField{
			Name:         "requested_by",
			Required:     false,
			CollectionId: internalUsers.Id,
			MaxSelect:    1,
		})
		c.Fields.Add(&core.RelationField{
			Name:         "reviewer",
			Required:     false,
			CollectionId: internalUsers.Id,
			MaxSelect:    1,
		})
		c.Fields.Add(&core.SelectField{
			Name:      "status",
			Required:  true,
			Values:    entityStatuses,
			MaxSelect: 1,
		})
		c.Fields.Add(&core.JSONField{Name: "request_details"})
		c.Fields.Add(&core.TextField{Name: "notes", Required: false})
		c.Fields.Add(&core.TextField{Name: "review_notes", Required: false})
		c.Fields.Add(&core.DateField{Name: "reviewed_at"})
		c.Fields.Add(&core.AutodateField{Name: "created", OnCreate: true})
	})

	ensureCollection(app, "discount_limits_config", func(c *core.Collection) {
		c.Fields.Add(&core.SelectField{
			Name:      "limit_type",
			Required:  true,
			Values:    []string{"base", "options"},
			MaxSelect: 1,
		})
		c.Fields.Add(&core.NumberField{Name: "no_approval_max"})
		c.Fields.Add(&core.NumberField{Name: "director_approval_max"})
		c.Fields.Add(&core.AutodateField{Name: "updated", OnCreate: true, OnUpdate: true})
	})

	ensureCollection(app, "pricing_rules", func(c *core.Collection) {
		c.Fields.Add(&core.NumberField{Name: "margin_percent"})
		c.Fields.Add(&core.NumberField{Name: "tax_percent"})
		c.Fields.Add(&core.NumberField{Name: "warranty_percent"})
		c.Fields.Add(&core.NumberField{Name: "commission_percent"})
		c.Fields.Add(&core.NumberField{Name: "labor_rate_per_hour"})
		c.Fields.Add(&core.AutodateField{Name: "updated", OnCreate: true, OnUpdate: true})
	})
}

// addWorkflowPricingFields adds the fields shared by customizations and
// ATOs: PM scoping, the materials/labor cost breakdown and the stage column.
func addWorkflowPricingFields(c *core.Collection) {
	c.Fields.Add(&core.TextField{Name: "pm_scope", Required: false})
	c.Fields.Add(&core.TextField{Name: "pm_notes", Required: false})
	c.Fields.Add(&core.TextField{Name: "materials", Required: false})
	c.Fields.Add(&core.NumberField{Name: "labor_hours"})
	c.Fields.Add(&core.NumberField{Name: "labor_rate"})
	c.Fields.Add(&core.NumberField{Name: "total_cost"})
	c.Fields.Add(&core.NumberField{Name: "suggested_price"})
	c.Fields.Add(&core.SelectField{
		Name:      "workflow_status",
		Values:    workflowStages,
		MaxSelect: 1,
	})
}

// addStatusFields adds the terminal-state bookkeeping shared by
// customizations and ATOs.
func addStatusFields(c *core.Collection) {
	c.Fields.Add(&core.SelectField{
		Name:      "status",
		Required:  true,
		Values:    entityStatuses,
		MaxSelect: 1,
	})
	c.Fields.Add(&core.TextField{Name: "reject_reason", Required: false})
	c.Fields.Add(&core.DateField{Name: "reviewed_at"})
	c.Fields.Add(&core.AutodateField{Name: "created", OnCreate: true})
	c.Fields.Add(&core.AutodateField{Name: "updated", OnCreate: true, OnUpdate: true})
}

// ensureStepCollection creates one of the two workflow step ledgers. The
// partial unique index enforces the single-pending-step invariant at the
// database, not just in application code.
func ensureStepCollection(app *pocketbase.PocketBase, name, parentField, parentCollectionID, usersCollectionID string, stepTypes []string) {
	ensureCollection(app, name, func(c *core.Collection) {
		c.Fields.Add(&core.RelationField{
			Name:          parentField,
			Required:      true,
			CollectionId:  parentCollectionID,
			CascadeDelete: true,
			MaxSelect:     1,
		})
		c.Fields.Add(&core.SelectField{
			Name:      "step_type",
			Required:  true,
			Values:    stepTypes,
			MaxSelect: 1,
		})
		c.Fields.Add(&core.SelectField{
			Name:      "status",
			Required:  true,
			Values:    []string{"pending", "completed", "skipped"},
			MaxSelect: 1,
		})
		c.Fields.Add(&core.RelationField{
			Name:         "assigned_to",
			Required:     false,
			CollectionId: usersCollectionID,
			MaxSelect:    1,
		})
		c.Fields.Add(&core.BoolField{Name: "assignee_unresolved"})
		c.Fields.Add(&core.TextField{Name: "notes", Required: false})
		c.Fields.Add(&core.JSONField{Name: "response"})
		c.Fields.Add(&core.DateField{Name: "completed_at"})
		c.Fields.Add(&core.AutodateField{Name: "created", OnCreate: true})
		c.Indexes = types.JSONArray[string]{
			fmt.Sprintf("CREATE UNIQUE INDEX idx_%s_single_pending ON %s (%s) WHERE status = 'pending'", name, name, parentField),
		}
	})
}

// ensureCollection checks if a collection already exists by name. If it does,
// the existing collection is returned. Otherwise a new base collection is
// created, the addFields callback is invoked to populate its fields, and the
// collection is saved.
func ensureCollection(app *pocketbase.PocketBase, name string, addFields func(*core.Collection)) *core.Collection {
	existing, err := app.FindCollectionByNameOrId(name)
	if err == nil && existing != nil {
		return existing
	}

	collection := core.NewBaseCollection(name)
	addFields(collection)

	if err := app.Save(collection); err != nil {
		log.Fatalf("Failed to create collection %q: %v", name, err)
	}

	log.Printf("Created collection %q (id=%s)", name, collection.Id)
	return collection
}
