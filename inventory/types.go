/*
Package inventory holds the property catalogue and the process-wide
state store coordinating it.

PURPOSE:
  Spaces group elements physically; elements own their task lists and
  recorded defects exclusively. All mutation flows through the StateStore
  (store.go), which keeps the three linked collections - elements' task
  lists, the task-group collection, and the offer-group collection -
  referentially consistent across generate/edit/delete.

SEE ALSO:
  - store.go: StateStore, the single mutation entry point
  - ids.go: UUID-backed identifier source
*/
package inventory

import (
	"github.com/shopspring/decimal"

	"github.com/warp/maintenance-engine/condition"
	"github.com/warp/maintenance-engine/planning"
)

// =============================================================================
// CATALOGUE RECORDS
// =============================================================================

// Space groups elements physically. Its identity is immutable once
// elements reference it.
type Space struct {
	ID   planning.SpaceID
	Name string
}

// Element is one physical maintainable item. It owns Tasks and Defects
// exclusively; nothing mutates them except the StateStore.
type Element struct {
	ID               planning.ElementID
	Name             string
	SpaceID          planning.SpaceID
	Categories       []string
	Tasks            []planning.Task
	Defects          []condition.Defect
	ReplacementValue decimal.Decimal
	ConditionScore   int
}

// General holds property-level metadata persisted with the snapshot.
type General struct {
	PropertyName string
	Address      string
	YearBuilt    int
	ImageName    string
}

// =============================================================================
// SNAPSHOT - The full normalized state, as handed to persistence
// =============================================================================

type Snapshot struct {
	Spaces      []Space
	Elements    []Element
	TaskGroups  []planning.TaskGroup
	OfferGroups []planning.OfferGroup
	General     General
}

// =============================================================================
// COPY HELPERS - Records are copied on the way in and out of the store
// =============================================================================

func copyStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}

func copyTask(t planning.Task) planning.Task {
	c := t
	c.Planned.Files = copyStrings(t.Planned.Files)
	if t.Planned.WorkDate != nil {
		d := *t.Planned.WorkDate
		c.Planned.WorkDate = &d
	}
	if t.Planned.StartDate != nil {
		d := *t.Planned.StartDate
		c.Planned.StartDate = &d
	}
	if t.Planned.EndDate != nil {
		d := *t.Planned.EndDate
		c.Planned.EndDate = &d
	}
	return c
}

func copyTasks(in []planning.Task) []planning.Task {
	if in == nil {
		return nil
	}
	out := make([]planning.Task, len(in))
	for i, t := range in {
		out[i] = copyTask(t)
	}
	return out
}

func copyDefects(in []condition.Defect) []condition.Defect {
	if in == nil {
		return nil
	}
	out := make([]condition.Defect, len(in))
	copy(out, in)
	return out
}

func copyElement(e Element) Element {
	c := e
	c.Categories = copyStrings(e.Categories)
	c.Tasks = copyTasks(e.Tasks)
	c.Defects = copyDefects(e.Defects)
	return c
}

func copyTaskGroup(g planning.TaskGroup) planning.TaskGroup {
	c := g
	if g.Subtasks != nil {
		c.Subtasks = make([]planning.ElementSnapshot, len(g.Subtasks))
		copy(c.Subtasks, g.Subtasks)
	}
	return c
}

func copySnapshot(s Snapshot) Snapshot {
	c := Snapshot{General: s.General}
	if s.Spaces != nil {
		c.Spaces = make([]Space, len(s.Spaces))
		copy(c.Spaces, s.Spaces)
	}
	if s.Elements != nil {
		c.Elements = make([]Element, len(s.Elements))
		for i, e := range s.Elements {
			c.Elements[i] = copyElement(e)
		}
	}
	if s.TaskGroups != nil {
		c.TaskGroups = make([]planning.TaskGroup, len(s.TaskGroups))
		for i, g := range s.TaskGroups {
			c.TaskGroups[i] = copyTaskGroup(g)
		}
	}
	if s.OfferGroups != nil {
		c.OfferGroups = make([]planning.OfferGroup, len(s.OfferGroups))
		copy(c.OfferGroups, s.OfferGroups)
	}
	return c
}
