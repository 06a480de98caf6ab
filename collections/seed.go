package collections

import (
	"fmt"
	"log"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"
)

// ── Definition structs ───────────────────────────────────────────────────

type userDef struct {
	fullName string
	email    string
	role     string
}

type memorialDef struct {
	category    string
	name        string
	description string
}

type modelDef struct {
	name     string
	code     string
	memorial []memorialDef
}

type quotationDef struct {
	number             string
	clientName         string
	basePrice          float64
	baseDeliveryDays   int
	baseDiscountPct    float64
	optionsDiscountPct float64
	finalBasePrice     float64
	finalOptionsPrice  float64
	status             string
}

// Seed populates the catalog, team and configuration collections with
// realistic shipyard data. It is safe to call on every startup because it
// returns early when yacht models already exist.
func Seed(app *pocketbase.PocketBase) error {
	// ── idempotency: skip if yacht models already exist ──────────────
	modelsCol, err := app.FindCollectionByNameOrId("yacht_models")
	if err != nil {
		return fmt.Errorf("seed: could not find yacht_models collection: %w", err)
	}
	existing, err := app.FindAllRecords(modelsCol)
	if err != nil {
		return fmt.Errorf("seed: could not query yacht_models: %w", err)
	}
	if len(existing) > 0 {
		return nil // already seeded
	}

	log.Println("seed: yacht_models collection is empty – inserting seed data …")

	usersCol, err := app.FindCollectionByNameOrId("internal_users")
	if err != nil {
		return fmt.Errorf("seed: could not find internal_users collection: %w", err)
	}
	assignmentsCol, err := app.FindCollectionByNameOrId("pm_assignments")
	if err != nil {
		return fmt.Errorf("seed: could not find pm_assignments collection: %w", err)
	}
	memorialCol, err := app.FindCollectionByNameOrId("memorial_items")
	if err != nil {
		return fmt.Errorf("seed: could not find memorial_items collection: %w", err)
	}
	quotationsCol, err := app.FindCollectionByNameOrId("quotations")
	if err != nil {
		return fmt.Errorf("seed: could not find quotations collection: %w", err)
	}
	limitsCol, err := app.FindCollectionByNameOrId("discount_limits_config")
	if err != nil {
		return fmt.Errorf("seed: could not find discount_limits_config collection: %w", err)
	}
	pricingCol, err := app.FindCollectionByNameOrId("pricing_rules")
	if err != nil {
		return fmt.Errorf("seed: could not find pricing_rules collection: %w", err)
	}

	// ── helper: create yacht model with memorial items ───────────────
	createModel := func(d modelDef) (*core.Record, error) {
		r := core.NewRecord(modelsCol)
		r.Set("name", d.name)
		r.Set("code", d.code)
		if err := app.Save(r); err != nil {
			return nil, fmt.Errorf("seed: save yacht model %q: %w", d.name, err)
		}
		for _, m := range d.memorial {
			mr := core.NewRecord(memorialCol)
			mr.Set("yacht_model", r.Id)
			mr.Set("category", m.category)
			mr.Set("name", m.name)
			mr.Set("description", m.description)
			if err := app.Save(mr); err != nil {
				return nil, fmt.Errorf("seed: save memorial item %q: %w", m.name, err)
			}
		}
		return r, nil
	}

	// ── helper: create internal user ─────────────────────────────────
	createUser := func(d userDef) (*core.Record, error) {
		r := core.NewRecord(usersCol)
		r.Set("full_name", d.fullName)
		r.Set("email", d.email)
		r.Set("role", d.role)
		if err := app.Save(r); err != nil {
			return nil, fmt.Errorf("seed: save user %q: %w", d.fullName, err)
		}
		return r, nil
	}

	// ── helper: assign PM to a yacht model ───────────────────────────
	assignPM := func(modelID, pmID string) error {
		r := core.NewRecord(assignmentsCol)
		r.Set("yacht_model", modelID)
		r.Set("pm_user", pmID)
		return app.Save(r)
	}

	// ── helper: create quotation ─────────────────────────────────────
	createQuotation := func(modelID string, d quotationDef) (*core.Record, error) {
		r := core.NewRecord(quotationsCol)
		r.Set("quotation_number", d.number)
		r.Set("client_name", d.clientName)
		r.Set("yacht_model", modelID)
		r.Set("base_price", d.basePrice)
		r.Set("base_delivery_days", d.baseDeliveryDays)
		r.Set("base_discount_percentage", d.baseDiscountPct)
		r.Set("options_discount_percentage", d.optionsDiscountPct)
		r.Set("final_base_price", d.finalBasePrice)
		r.Set("final_options_price", d.finalOptionsPrice)
		r.Set("total_delivery_days", d.baseDeliveryDays)
		r.Set("final_price", d.finalBasePrice+d.finalOptionsPrice)
		r.Set("status", d.status)
		if err := app.Save(r); err != nil {
			return nil, fmt.Errorf("seed: save quotation %q: %w", d.number, err)
		}
		return r, nil
	}

	// ══════════════════════════════════════════════════════════════════
	// Yacht models and their memorial descriptions
	// ══════════════════════════════════════════════════════════════════

	m390, err := createModel(modelDef{
		name: "Solara 390 Fly", code: "S390",
		memorial: []memorialDef{
			{category: "Hull", name: "GRP hull with vinylester barrier coat", description: "Hand-laid solid laminate below waterline"},
			{category: "Hull", name: "Antifouling, 2 coats", description: "Self-polishing, dark blue"},
			{category: "Propulsion", name: "2x Volvo Penta D4-320 DPI", description: "Joystick docking included"},
			{category: "Electrical", name: "Shore power 220V 50A with isolation transformer", description: ""},
			{category: "Interior", name: "Master cabin with oak finish, queen berth", description: "Hullside windows, blackout blinds"},
			{category: "Interior", name: "Galley with induction cooktop, 130L fridge", description: ""},
			{category: "Deck", name: "Teak cockpit sole", description: "Flybridge sole in synthetic teak"},
			{category: "Navigation", name: "2x 12\" chartplotter, autopilot, VHF", description: ""},
		},
	})
	if err != nil {
		return err
	}

	m480, err := createModel(modelDef{
		name: "Solara 480 Ocean", code: "S480",
		memorial: []memorialDef{
			{category: "Hull", name: "GRP hull, infused sandwich topsides", description: ""},
			{category: "Propulsion", name: "2x Volvo Penta IPS 650", description: ""},
			{category: "Electrical", name: "11kW genset with sound shield", description: ""},
			{category: "Interior", name: "3-cabin layout, walnut finish", description: "Master full-beam amidships"},
			{category: "Deck", name: "Hydraulic swim platform, 450kg", description: ""},
			{category: "Navigation", name: "Glass bridge, 2x 16\" displays, radar, AIS", description: ""},
			{category: "Comfort", name: "Tropical A/C 48,000 BTU", description: "Chilled water system"},
		},
	})
	if err != nil {
		return err
	}

	// ══════════════════════════════════════════════════════════════════
	// Internal team
	// ══════════════════════════════════════════════════════════════════

	defs := []userDef{
		{fullName: "Carla Mendes", email: "carla.mendes@solarayachts.com", role: "vendedor"},
		{fullName: "Ricardo Almeida", email: "ricardo.almeida@solarayachts.com", role: "pm"},
		{fullName: "Fernanda Costa", email: "fernanda.costa@solarayachts.com", role: "pm"},
		{fullName: "João Pereira", email: "joao.pereira@solarayachts.com", role: "comprador"},
		{fullName: "Ana Ribeiro", email: "ana.ribeiro@solarayachts.com", role: "planejador"},
		{fullName: "Marcos Tavares", email: "marcos.tavares@solarayachts.com", role: "diretor"},
		{fullName: "Helena Duarte", email: "helena.duarte@solarayachts.com", role: "administrador"},
	}
	users := map[string]*core.Record{}
	for _, d := range defs {
		u, err := createUser(d)
		if err != nil {
			return err
		}
		users[d.fullName] = u
	}

	if err := assignPM(m390.Id, users["Ricardo Almeida"].Id); err != nil {
		return fmt.Errorf("seed: assign PM to S390: %w", err)
	}
	if err := assignPM(m480.Id, users["Fernanda Costa"].Id); err != nil {
		return fmt.Errorf("seed: assign PM to S480: %w", err)
	}

	// ══════════════════════════════════════════════════════════════════
	// Configuration: discount limits and pricing rules
	// ══════════════════════════════════════════════════════════════════

	for _, l := range []struct {
		limitType   string
		noApproval  float64
		directorMax float64
	}{
		{"base", 10, 15},
		{"options", 8, 12},
	} {
		r := core.NewRecord(limitsCol)
		r.Set("limit_type", l.limitType)
		r.Set("no_approval_max", l.noApproval)
		r.Set("director_approval_max", l.directorMax)
		if err := app.Save(r); err != nil {
			return fmt.Errorf("seed: save discount limits %q: %w", l.limitType, err)
		}
	}

	pr := core.NewRecord(pricingCol)
	pr.Set("margin_percent", 30.0)
	pr.Set("tax_percent", 21.0)
	pr.Set("warranty_percent", 3.0)
	pr.Set("commission_percent", 3.0)
	pr.Set("labor_rate_per_hour", 55.0)
	if err := app.Save(pr); err != nil {
		return fmt.Errorf("seed: save pricing rules: %w", err)
	}

	// ══════════════════════════════════════════════════════════════════
	// Demo quotations
	// ══════════════════════════════════════════════════════════════════

	if _, err := createQuotation(m390.Id, quotationDef{
		number: "QT-2025-277-V1", clientName: "Família Barbosa",
		basePrice: 2850000, baseDeliveryDays: 240,
		baseDiscountPct: 5, optionsDiscountPct: 0,
		finalBasePrice: 2707500, finalOptionsPrice: 186000,
		status: "draft",
	}); err != nil {
		return err
	}

	if _, err := createQuotation(m480.Id, quotationDef{
		number: "QT-2025-281-V1", clientName: "Azure Charter Ltda",
		basePrice: 5400000, baseDeliveryDays: 320,
		baseDiscountPct: 0, optionsDiscountPct: 0,
		finalBasePrice: 5400000, finalOptionsPrice: 412000,
		status: "draft",
	}); err != nil {
		return err
	}

	log.Println("seed: all seed data inserted successfully (2 models, 7 users, 2 quotations)")
	return nil
}
