/*
Package planning provides the core maintenance scheduling engine.

PURPOSE:
  This package contains the domain types and algorithms for multi-year
  maintenance planning: expanding a single planning request into a dated
  series of task instances, compounding costs by an annual indexation
  rate, and deriving per-year timeline views.

KEY CONCEPTS IN THIS FILE (types.go):
  - Money: A monetary value rounded to cents at creation
  - Task: One concrete unit of planned work on one element
  - TaskGroup: A scheduled batch of work at one point in time
  - OfferGroup: A price-quote record tied to a TaskGroup
  - Typed IDs: Strong typing prevents mixing element/group/offer ids

DESIGN PRINCIPLES:
  1. Purity: Generate returns a description; it never mutates state
  2. Precision: Uses decimal.Decimal to avoid floating-point errors
  3. Linkage: A Task's GroupID and OfferGroupID are assigned together,
     atomically, at generation time
  4. Rounding: Costs are rounded to 2 decimals when created, not when
     displayed, so stored and displayed totals never diverge

SEE ALSO:
  - generator.go: Request validation and periodic expansion
  - indexation.go: Compounding cost adjustment
  - timeline.go: Per-year derived views
*/
package planning

import (
	"github.com/shopspring/decimal"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

type (
	SpaceID      string
	ElementID    string
	TaskID       string
	TaskGroupID  string
	OfferGroupID string
	DefectID     string
)

// IDSource supplies unique identifiers for generated records.
// The engine requires only uniqueness, not a specific scheme.
type IDSource interface {
	NewTaskID() TaskID
	NewTaskGroupID() TaskGroupID
	NewOfferGroupID() OfferGroupID
}

// =============================================================================
// TASK - One unit of planned work on one element
// =============================================================================

// PlannedWork holds execution details filled in after generation.
type PlannedWork struct {
	WorkDate      *PlanDate
	StartDate     *PlanDate
	EndDate       *PlanDate
	OfferAccepted bool
	Comment       string
	Files         []string
}

// Task is always owned by exactly one element. When Grouped is true,
// GroupID and OfferGroupID reference the generated TaskGroup/OfferGroup;
// both were assigned together at generation time.
type Task struct {
	ID           TaskID
	Name         string
	Description  string
	EndDate      PlanDate
	Cost         Money
	Urgency      int
	Grouped      bool
	ElementID    ElementID
	ElementName  string
	GroupID      TaskGroupID
	OfferGroupID OfferGroupID
	Planned      PlannedWork
}

// =============================================================================
// TASK GROUP - A scheduled batch of work at one point in time
// =============================================================================

// ElementSnapshot is a subtask entry: the element's share of a group,
// captured at generation time.
type ElementSnapshot struct {
	ElementID    ElementID
	ElementName  string
	Cost         Money
	EndDate      PlanDate
	OfferGroupID OfferGroupID
}

// TaskGroup is one scheduled unit of work. Non-periodic groups may span
// multiple elements; each periodic expansion step covers exactly one.
// A TaskGroup never exists with an empty Subtasks list.
type TaskGroup struct {
	ID                       TaskGroupID
	Name                     string
	GroupDate                PlanDate
	Cost                     Money
	Periodic                 bool
	PeriodicityMonths        int
	TotalYears               int
	Indexation               bool
	IndexationRate           decimal.Decimal
	AssignPricesIndividually bool
	DurationDays             int
	SquareMeters             float64
	Subtasks                 []ElementSnapshot
}

// =============================================================================
// OFFER GROUP - Price-quote record, 1:1 with a TaskGroup
// =============================================================================

type OfferGroup struct {
	ID             OfferGroupID
	Name           string
	EstimatedValue Money
	OfferPrice     Money
	InvoicePrice   Money
	OfferAccepted  bool
	WorkDate       PlanDate
}

// =============================================================================
// GENERATION OUTPUT
// =============================================================================

// GenerationResult is a pure description of what a request produces.
// The inventory store applies it; the generator never touches state.
type GenerationResult struct {
	TasksByElement map[ElementID][]Task
	TaskGroups     []TaskGroup
	OfferGroups    []OfferGroup
}
