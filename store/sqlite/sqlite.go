/*
Package sqlite provides the SQLite-backed persistence collaborator.

PURPOSE:
  Persists the full normalized planning state (spaces, elements, tasks,
  task groups, offer groups, defects, general metadata, optional property
  image) and loads it back at startup. The engine hands over a snapshot
  and gets success or failure; it knows nothing about the schema below.

SNAPSHOT SEMANTICS:
  Save writes the whole snapshot in ONE transaction: existing rows are
  replaced wholesale. Either the new snapshot lands completely or the
  previous one stays intact, which is exactly the retry contract the
  store's Save promises its callers.

WAL MODE:
  SQLite is opened with WAL for better crash recovery. A mutex keeps the
  connection single-writer, matching the engine's save serialization.

MIGRATION:
  Schema is auto-migrated on New(). For production, use a proper
  migration tool with versioned migrations.

SEE ALSO:
  - inventory/store.go: The Saver contract and save serialization
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/warp/maintenance-engine/condition"
	"github.com/warp/maintenance-engine/inventory"
	"github.com/warp/maintenance-engine/planning"
)

// Store implements inventory.Saver using SQLite.
type Store struct {
	db *sql.DB
	mu sync.Mutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS spaces (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS elements (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		space_id TEXT NOT NULL,
		categories_json TEXT,
		replacement_value TEXT NOT NULL,
		condition_score INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_elements_space ON elements(space_id);

	CREATE TABLE IF NOT EXISTS tasks (
		id TEXT PRIMARY KEY,
		element_id TEXT NOT NULL,
		name TEXT NOT NULL,
		description TEXT,
		end_date TEXT NOT NULL,
		cost TEXT NOT NULL,
		urgency INTEGER,
		grouped INTEGER NOT NULL,
		element_name TEXT,
		group_id TEXT,
		offer_group_id TEXT,
		planned_json TEXT,
		position INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_tasks_element ON tasks(element_id);
	CREATE INDEX IF NOT EXISTS idx_tasks_group ON tasks(group_id);

	CREATE TABLE IF NOT EXISTS task_groups (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		group_date TEXT NOT NULL,
		cost TEXT NOT NULL,
		periodic INTEGER NOT NULL,
		periodicity_months INTEGER,
		total_years INTEGER,
		indexation INTEGER NOT NULL,
		indexation_rate TEXT,
		assign_prices_individually INTEGER NOT NULL,
		duration_days INTEGER,
		square_meters REAL,
		subtasks_json TEXT NOT NULL,
		position INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_task_groups_date ON task_groups(group_date);

	CREATE TABLE IF NOT EXISTS offer_groups (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		estimated_value TEXT NOT NULL,
		offer_price TEXT,
		invoice_price TEXT,
		offer_accepted INTEGER NOT NULL,
		work_date TEXT,
		position INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS defects (
		id TEXT PRIMARY KEY,
		element_id TEXT NOT NULL,
		category TEXT,
		material TEXT,
		severity TEXT NOT NULL,
		intensity INTEGER NOT NULL,
		extent_percent REAL NOT NULL,
		replacement_value TEXT NOT NULL,
		position INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_defects_element ON defects(element_id);

	CREATE TABLE IF NOT EXISTS general (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		property_name TEXT,
		address TEXT,
		year_built INTEGER,
		image_name TEXT,
		image BLOB
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// JSON COLUMN SHAPES
// =============================================================================

type plannedJSON struct {
	WorkDate      *string  `json:"work_date,omitempty"`
	StartDate     *string  `json:"start_date,omitempty"`
	EndDate       *string  `json:"end_date,omitempty"`
	OfferAccepted bool     `json:"offer_accepted"`
	Comment       string   `json:"comment,omitempty"`
	Files         []string `json:"files,omitempty"`
}

type subtaskJSON struct {
	ElementID    string `json:"element_id"`
	ElementName  string `json:"element_name"`
	Cost         string `json:"cost"`
	EndDate      string `json:"end_date"`
	OfferGroupID string `json:"offer_group_id"`
}

func dateString(d planning.PlanDate) string { return d.SortKey() }

func dateFromString(s string) planning.PlanDate {
	d, err := planning.ParsePlanDate(s)
	if err != nil {
		return planning.PlanDate{}
	}
	return d
}

func datePtrString(d *planning.PlanDate) *string {
	if d == nil {
		return nil
	}
	s := d.SortKey()
	return &s
}

func datePtrFromString(s *string) *planning.PlanDate {
	if s == nil {
		return nil
	}
	d := dateFromString(*s)
	return &d
}

func parseDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// =============================================================================
// SAVE - Full snapshot in one transaction
// =============================================================================

// Save replaces the persisted snapshot. Implements inventory.Saver.
func (s *Store) Save(ctx context.Context, snap inventory.Snapshot, image []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"spaces", "elements", "tasks", "task_groups", "offer_groups", "defects", "general"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}

	for _, sp := range snap.Spaces {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO spaces (id, name) VALUES (?, ?)`, string(sp.ID), sp.Name); err != nil {
			return fmt.Errorf("insert space: %w", err)
		}
	}

	for _, el := range snap.Elements {
		categories, err := json.Marshal(el.Categories)
		if err != nil {
			return fmt.Errorf("marshal categories: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO elements (id, name, space_id, categories_json, replacement_value, condition_score)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			string(el.ID), el.Name, string(el.SpaceID), string(categories),
			el.ReplacementValue.String(), el.ConditionScore); err != nil {
			return fmt.Errorf("insert element: %w", err)
		}

		for pos, t := range el.Tasks {
			planned, err := json.Marshal(plannedJSON{
				WorkDate:      datePtrString(t.Planned.WorkDate),
				StartDate:     datePtrString(t.Planned.StartDate),
				EndDate:       datePtrString(t.Planned.EndDate),
				OfferAccepted: t.Planned.OfferAccepted,
				Comment:       t.Planned.Comment,
				Files:         t.Planned.Files,
			})
			if err != nil {
				return fmt.Errorf("marshal planned work: %w", err)
			}
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO tasks (id, element_id, name, description, end_date, cost, urgency, grouped,
				                    element_name, group_id, offer_group_id, planned_json, position)
				 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				string(t.ID), string(el.ID), t.Name, t.Description, dateString(t.EndDate),
				t.Cost.String(), t.Urgency, boolInt(t.Grouped), t.ElementName,
				string(t.GroupID), string(t.OfferGroupID), string(planned), pos); err != nil {
				return fmt.Errorf("insert task: %w", err)
			}
		}

		for pos, d := range el.Defects {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO defects (id, element_id, category, material, severity, intensity,
				                      extent_percent, replacement_value, position)
				 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				string(d.ID), string(el.ID), d.Category, d.Material, string(d.Severity),
				d.Intensity, d.ExtentPercent, d.ReplacementValue.String(), pos); err != nil {
				return fmt.Errorf("insert defect: %w", err)
			}
		}
	}

	for pos, g := range snap.TaskGroups {
		subtasks := make([]subtaskJSON, len(g.Subtasks))
		for i, st := range g.Subtasks {
			subtasks[i] = subtaskJSON{
				ElementID:    string(st.ElementID),
				ElementName:  st.ElementName,
				Cost:         st.Cost.String(),
				EndDate:      dateString(st.EndDate),
				OfferGroupID: string(st.OfferGroupID),
			}
		}
		subtasksBlob, err := json.Marshal(subtasks)
		if err != nil {
			return fmt.Errorf("marshal subtasks: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO task_groups (id, name, group_date, cost, periodic, periodicity_months,
			                          total_years, indexation, indexation_rate,
			                          assign_prices_individually, duration_days, square_meters,
			                          subtasks_json, position)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			string(g.ID), g.Name, dateString(g.GroupDate), g.Cost.String(), boolInt(g.Periodic),
			g.PeriodicityMonths, g.TotalYears, boolInt(g.Indexation), g.IndexationRate.String(),
			boolInt(g.AssignPricesIndividually), g.DurationDays, g.SquareMeters,
			string(subtasksBlob), pos); err != nil {
			return fmt.Errorf("insert task group: %w", err)
		}
	}

	for pos, og := range snap.OfferGroups {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO offer_groups (id, name, estimated_value, offer_price, invoice_price,
			                           offer_accepted, work_date, position)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			string(og.ID), og.Name, og.EstimatedValue.String(), og.OfferPrice.String(),
			og.InvoicePrice.String(), boolInt(og.OfferAccepted), dateString(og.WorkDate), pos); err != nil {
			return fmt.Errorf("insert offer group: %w", err)
		}
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO general (id, property_name, address, year_built, image_name, image)
		 VALUES (1, ?, ?, ?, ?, ?)`,
		snap.General.PropertyName, snap.General.Address, snap.General.YearBuilt,
		snap.General.ImageName, image); err != nil {
		return fmt.Errorf("insert general: %w", err)
	}

	return tx.Commit()
}

// =============================================================================
// LOAD - Rebuild the snapshot at startup
// =============================================================================

// Load reads the persisted snapshot and the property image, if any.
func (s *Store) Load(ctx context.Context) (inventory.Snapshot, []byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var snap inventory.Snapshot

	rows, err := s.db.QueryContext(ctx, `SELECT id, name FROM spaces ORDER BY rowid`)
	if err != nil {
		return snap, nil, fmt.Errorf("load spaces: %w", err)
	}
	for rows.Next() {
		var sp inventory.Space
		var id string
		if err := rows.Scan(&id, &sp.Name); err != nil {
			rows.Close()
			return snap, nil, err
		}
		sp.ID = planning.SpaceID(id)
		snap.Spaces = append(snap.Spaces, sp)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return snap, nil, err
	}

	elements, err := s.loadElements(ctx)
	if err != nil {
		return snap, nil, err
	}
	snap.Elements = elements

	groups, err := s.loadTaskGroups(ctx)
	if err != nil {
		return snap, nil, err
	}
	snap.TaskGroups = groups

	offers, err := s.loadOfferGroups(ctx)
	if err != nil {
		return snap, nil, err
	}
	snap.OfferGroups = offers

	var image []byte
	row := s.db.QueryRowContext(ctx,
		`SELECT property_name, address, year_built, image_name, image FROM general WHERE id = 1`)
	err = row.Scan(&snap.General.PropertyName, &snap.General.Address,
		&snap.General.YearBuilt, &snap.General.ImageName, &image)
	if err != nil && err != sql.ErrNoRows {
		return snap, nil, fmt.Errorf("load general: %w", err)
	}

	return snap, image, nil
}

func (s *Store) loadElements(ctx context.Context) ([]inventory.Element, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, space_id, categories_json, replacement_value, condition_score
		 FROM elements ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("load elements: %w", err)
	}
	defer rows.Close()

	var elements []inventory.Element
	index := make(map[planning.ElementID]int)
	for rows.Next() {
		var el inventory.Element
		var id, spaceID, categories, replacement string
		if err := rows.Scan(&id, &el.Name, &spaceID, &categories, &replacement, &el.ConditionScore); err != nil {
			return nil, err
		}
		el.ID = planning.ElementID(id)
		el.SpaceID = planning.SpaceID(spaceID)
		el.ReplacementValue = parseDecimal(replacement)
		if categories != "" {
			if err := json.Unmarshal([]byte(categories), &el.Categories); err != nil {
				return nil, fmt.Errorf("unmarshal categories: %w", err)
			}
		}
		index[el.ID] = len(elements)
		elements = append(elements, el)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := s.loadTasks(ctx, elements, index); err != nil {
		return nil, err
	}
	if err := s.loadDefects(ctx, elements, index); err != nil {
		return nil, err
	}
	return elements, nil
}

func (s *Store) loadTasks(ctx context.Context, elements []inventory.Element, index map[planning.ElementID]int) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, element_id, name, description, end_date, cost, urgency, grouped,
		        element_name, group_id, offer_group_id, planned_json
		 FROM tasks ORDER BY element_id, position`)
	if err != nil {
		return fmt.Errorf("load tasks: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var t planning.Task
		var id, elementID, endDate, cost, groupID, offerGroupID, plannedBlob string
		var grouped int
		if err := rows.Scan(&id, &elementID, &t.Name, &t.Description, &endDate, &cost,
			&t.Urgency, &grouped, &t.ElementName, &groupID, &offerGroupID, &plannedBlob); err != nil {
			return err
		}
		t.ID = planning.TaskID(id)
		t.ElementID = planning.ElementID(elementID)
		t.EndDate = dateFromString(endDate)
		t.Cost = planning.MustParseMoney(cost)
		t.Grouped = grouped != 0
		t.GroupID = planning.TaskGroupID(groupID)
		t.OfferGroupID = planning.OfferGroupID(offerGroupID)

		if plannedBlob != "" {
			var p plannedJSON
			if err := json.Unmarshal([]byte(plannedBlob), &p); err != nil {
				return fmt.Errorf("unmarshal planned work: %w", err)
			}
			t.Planned = planning.PlannedWork{
				WorkDate:      datePtrFromString(p.WorkDate),
				StartDate:     datePtrFromString(p.StartDate),
				EndDate:       datePtrFromString(p.EndDate),
				OfferAccepted: p.OfferAccepted,
				Comment:       p.Comment,
				Files:         p.Files,
			}
		}

		i, ok := index[t.ElementID]
		if !ok {
			continue // orphaned row, skip
		}
		elements[i].Tasks = append(elements[i].Tasks, t)
	}
	return rows.Err()
}

func (s *Store) loadDefects(ctx context.Context, elements []inventory.Element, index map[planning.ElementID]int) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, element_id, category, material, severity, intensity, extent_percent, replacement_value
		 FROM defects ORDER BY element_id, position`)
	if err != nil {
		return fmt.Errorf("load defects: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var d condition.Defect
		var id, elementID, severity, replacement string
		if err := rows.Scan(&id, &elementID, &d.Category, &d.Material, &severity,
			&d.Intensity, &d.ExtentPercent, &replacement); err != nil {
			return err
		}
		d.ID = planning.DefectID(id)
		d.Severity = condition.Severity(severity)
		d.ReplacementValue = parseDecimal(replacement)

		i, ok := index[planning.ElementID(elementID)]
		if !ok {
			continue
		}
		elements[i].Defects = append(elements[i].Defects, d)
	}
	return rows.Err()
}

func (s *Store) loadTaskGroups(ctx context.Context) ([]planning.TaskGroup, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, group_date, cost, periodic, periodicity_months, total_years,
		        indexation, indexation_rate, assign_prices_individually, duration_days,
		        square_meters, subtasks_json
		 FROM task_groups ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("load task groups: %w", err)
	}
	defer rows.Close()

	var groups []planning.TaskGroup
	for rows.Next() {
		var g planning.TaskGroup
		var id, groupDate, cost, rate, subtasksBlob string
		var periodic, indexation, individually int
		if err := rows.Scan(&id, &g.Name, &groupDate, &cost, &periodic, &g.PeriodicityMonths,
			&g.TotalYears, &indexation, &rate, &individually, &g.DurationDays,
			&g.SquareMeters, &subtasksBlob); err != nil {
			return nil, err
		}
		g.ID = planning.TaskGroupID(id)
		g.GroupDate = dateFromString(groupDate)
		g.Cost = planning.MustParseMoney(cost)
		g.Periodic = periodic != 0
		g.Indexation = indexation != 0
		g.IndexationRate = parseDecimal(rate)
		g.AssignPricesIndividually = individually != 0

		var subtasks []subtaskJSON
		if err := json.Unmarshal([]byte(subtasksBlob), &subtasks); err != nil {
			return nil, fmt.Errorf("unmarshal subtasks: %w", err)
		}
		g.Subtasks = make([]planning.ElementSnapshot, len(subtasks))
		for i, st := range subtasks {
			g.Subtasks[i] = planning.ElementSnapshot{
				ElementID:    planning.ElementID(st.ElementID),
				ElementName:  st.ElementName,
				Cost:         planning.MustParseMoney(st.Cost),
				EndDate:      dateFromString(st.EndDate),
				OfferGroupID: planning.OfferGroupID(st.OfferGroupID),
			}
		}
		groups = append(groups, g)
	}
	return groups, rows.Err()
}

func (s *Store) loadOfferGroups(ctx context.Context) ([]planning.OfferGroup, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, estimated_value, offer_price, invoice_price, offer_accepted, work_date
		 FROM offer_groups ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("load offer groups: %w", err)
	}
	defer rows.Close()

	var offers []planning.OfferGroup
	for rows.Next() {
		var og planning.OfferGroup
		var id, estimated, offerPrice, invoicePrice, workDate string
		var accepted int
		if err := rows.Scan(&id, &og.Name, &estimated, &offerPrice, &invoicePrice,
			&accepted, &workDate); err != nil {
			return nil, err
		}
		og.ID = planning.OfferGroupID(id)
		og.EstimatedValue = planning.MustParseMoney(estimated)
		og.OfferPrice = planning.MustParseMoney(offerPrice)
		og.InvoicePrice = planning.MustParseMoney(invoicePrice)
		og.OfferAccepted = accepted != 0
		og.WorkDate = dateFromString(workDate)
		offers = append(offers, og)
	}
	return offers, rows.Err()
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
