/*
store.go - Single-writer state store and referential integrity

PURPOSE:
  The StateStore is the one mutation entry point for the whole domain
  state. Every user command (add space/element, record defect, generate,
  edit, delete, save) runs synchronously under a single writer lock, so
  two mutations never interleave. Domain records are values copied on the
  way in and out; callers never hold references into store state.

REFERENTIAL INTEGRITY:
  Apply merges generator output: tasks are appended to each affected
  element's task list (append, never replace), task groups and offer
  groups are appended to their collections. EditTaskGroup replays cost
  and date onto every task in the group. DeleteTaskGroup removes the
  group and its offer groups and detaches the member tasks.

DELETE POLICY:
  Deleting a task group keeps its tasks as unplanned tasks: the group and
  offer linkage is stripped, the task itself survives on its element.
  This is the documented policy and is covered by a test.

PERSISTENCE:
  Save snapshots the state under the read lock and hands the copy to the
  Saver. A dedicated save mutex keeps at most one save in flight; a later
  save simply reflects the latest state once it starts. On failure the
  in-memory state is untouched and the error is reported as recoverable.

SEE ALSO:
  - planning/generator.go: Pure generation, applied here
  - condition/score.go: Rescoring on defect changes
*/
package inventory

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/warp/maintenance-engine/condition"
	"github.com/warp/maintenance-engine/planning"
)

// Saver is the persistence collaborator. It receives the full normalized
// state plus an optional property image and reports success or failure;
// the store does not know its transport or format.
type Saver interface {
	Save(ctx context.Context, snap Snapshot, image []byte) error
}

// =============================================================================
// STATE STORE
// =============================================================================

type StateStore struct {
	mu     sync.RWMutex
	saveMu sync.Mutex // serializes saves: at most one in flight

	ids   IDSource
	saver Saver

	spaces      []Space
	elements    []Element
	taskGroups  []planning.TaskGroup
	offerGroups []planning.OfferGroup
	general     General
	image       []byte
}

func NewStateStore(ids IDSource, saver Saver) *StateStore {
	return &StateStore{ids: ids, saver: saver}
}

// Restore replaces the store contents with a previously saved snapshot.
// Used at startup, before the store is shared.
func (s *StateStore) Restore(snap Snapshot, image []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap = copySnapshot(snap)
	s.spaces = snap.Spaces
	s.elements = snap.Elements
	s.taskGroups = snap.TaskGroups
	s.offerGroups = snap.OfferGroups
	s.general = snap.General
	s.image = append([]byte(nil), image...)
}

// =============================================================================
// SPACES
// =============================================================================

func (s *StateStore) AddSpace(name string) (Space, error) {
	if name == "" {
		return Space{}, &planning.ValidationError{Field: "name", Reason: "must not be empty"}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	sp := Space{ID: s.ids.NewSpaceID(), Name: name}
	s.spaces = append(s.spaces, sp)
	return sp, nil
}

func (s *StateStore) Spaces() []Space {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Space, len(s.spaces))
	copy(out, s.spaces)
	return out
}

func (s *StateStore) spaceIndexLocked(id planning.SpaceID) int {
	for i := range s.spaces {
		if s.spaces[i].ID == id {
			return i
		}
	}
	return -1
}

// =============================================================================
// ELEMENTS
// =============================================================================

// AddElement catalogues a new element in a space. The replacement value
// must be positive: condition scoring divides by it.
func (s *StateStore) AddElement(spaceID planning.SpaceID, name string, categories []string, replacementValue decimal.Decimal) (Element, error) {
	if name == "" {
		return Element{}, &planning.ValidationError{Field: "name", Reason: "must not be empty"}
	}
	if replacementValue.Sign() <= 0 {
		return Element{}, &planning.ValidationError{Field: "replacementValue", Reason: "must be positive"}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.spaceIndexLocked(spaceID) < 0 {
		return Element{}, planning.ErrSpaceNotFound
	}
	el := Element{
		ID:               s.ids.NewElementID(),
		Name:             name,
		SpaceID:          spaceID,
		Categories:       copyStrings(categories),
		ReplacementValue: replacementValue,
		ConditionScore:   1,
	}
	s.elements = append(s.elements, el)
	return copyElement(el), nil
}

func (s *StateStore) Elements() []Element {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Element, len(s.elements))
	for i, e := range s.elements {
		out[i] = copyElement(e)
	}
	return out
}

func (s *StateStore) Element(id planning.ElementID) (Element, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := s.elementIndexLocked(id)
	if i < 0 {
		return Element{}, planning.ErrElementNotFound
	}
	return copyElement(s.elements[i]), nil
}

func (s *StateStore) elementIndexLocked(id planning.ElementID) int {
	for i := range s.elements {
		if s.elements[i].ID == id {
			return i
		}
	}
	return -1
}

// =============================================================================
// DEFECTS - Recording a defect rescores the owning element
// =============================================================================

func (s *StateStore) AddDefect(elementID planning.ElementID, d condition.Defect) (condition.Defect, error) {
	if !d.Severity.Valid() {
		return condition.Defect{}, &planning.ValidationError{Field: "severity", Reason: "unknown severity"}
	}
	if d.Intensity < 1 || d.Intensity > 3 {
		return condition.Defect{}, &planning.ValidationError{Field: "intensity", Reason: "must be 1..3"}
	}
	if d.ExtentPercent < 0 || d.ExtentPercent > 100 {
		return condition.Defect{}, &planning.ValidationError{Field: "extentPercent", Reason: "must be 0..100"}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.elementIndexLocked(elementID)
	if i < 0 {
		return condition.Defect{}, planning.ErrElementNotFound
	}
	d.ID = s.ids.NewDefectID()
	s.elements[i].Defects = append(s.elements[i].Defects, d)
	if err := s.rescoreLocked(i); err != nil {
		// Roll the append back; the element keeps its previous state.
		s.elements[i].Defects = s.elements[i].Defects[:len(s.elements[i].Defects)-1]
		return condition.Defect{}, err
	}
	return d, nil
}

func (s *StateStore) RemoveDefect(elementID planning.ElementID, defectID planning.DefectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.elementIndexLocked(elementID)
	if i < 0 {
		return planning.ErrElementNotFound
	}
	defects := s.elements[i].Defects
	for j := range defects {
		if defects[j].ID == defectID {
			s.elements[i].Defects = append(defects[:j:j], defects[j+1:]...)
			return s.rescoreLocked(i)
		}
	}
	return planning.ErrDefectNotFound
}

func (s *StateStore) rescoreLocked(i int) error {
	score, err := condition.Score(s.elements[i].Defects, s.elements[i].ReplacementValue)
	if err != nil {
		return err
	}
	s.elements[i].ConditionScore = score
	return nil
}

// =============================================================================
// GENERATION - Resolve, generate, apply
// =============================================================================

// Generate resolves the selected elements against the catalogue, runs the
// pure generator, and applies the result. Element names in the request
// are filled from the catalogue; an unknown element id fails the whole
// request before anything is generated.
func (s *StateStore) Generate(req planning.GenerateRequest) (*planning.GenerationResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	resolved := make([]planning.ElementRef, len(req.Elements))
	for i, ref := range req.Elements {
		j := s.elementIndexLocked(ref.ID)
		if j < 0 {
			return nil, planning.ErrElementNotFound
		}
		resolved[i] = planning.ElementRef{ID: ref.ID, Name: s.elements[j].Name}
	}
	req.Elements = resolved

	result, err := planning.Generate(req, s.ids)
	if err != nil {
		return nil, err
	}
	if err := s.applyLocked(result); err != nil {
		return nil, err
	}
	return result, nil
}

// Apply merges generator output into the store. Exported so the
// generator can be exercised against the store in isolation.
func (s *StateStore) Apply(result *planning.GenerationResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.applyLocked(result)
}

func (s *StateStore) applyLocked(result *planning.GenerationResult) error {
	// Verify every affected element first so a bad result applies nothing.
	for elementID := range result.TasksByElement {
		if s.elementIndexLocked(elementID) < 0 {
			return planning.ErrElementNotFound
		}
	}
	for elementID, tasks := range result.TasksByElement {
		i := s.elementIndexLocked(elementID)
		s.elements[i].Tasks = append(s.elements[i].Tasks, copyTasks(tasks)...)
	}
	for _, g := range result.TaskGroups {
		s.taskGroups = append(s.taskGroups, copyTaskGroup(g))
	}
	s.offerGroups = append(s.offerGroups, result.OfferGroups...)
	return nil
}

// =============================================================================
// TASK GROUP EDIT / DELETE
// =============================================================================

// TaskGroupPatch carries the editable group fields. Nil means unchanged.
type TaskGroupPatch struct {
	Name      *string
	GroupDate *planning.PlanDate
	Cost      *float64
}

// EditTaskGroup mutates the group and replays the new cost and date onto
// every task whose GroupID matches, plus the group's subtask snapshots
// and offer-group work dates. Individually priced subtasks keep their
// own cost.
func (s *StateStore) EditTaskGroup(id planning.TaskGroupID, patch TaskGroupPatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	gi := -1
	for i := range s.taskGroups {
		if s.taskGroups[i].ID == id {
			gi = i
			break
		}
	}
	if gi < 0 {
		return planning.ErrTaskGroupNotFound
	}
	g := &s.taskGroups[gi]

	if patch.Name != nil {
		g.Name = *patch.Name
	}
	if patch.GroupDate != nil {
		g.GroupDate = *patch.GroupDate
	}
	var newCost *planning.Money
	if patch.Cost != nil {
		m := planning.NewMoney(*patch.Cost)
		newCost = &m
		g.Cost = m
	}

	for si := range g.Subtasks {
		if patch.GroupDate != nil {
			g.Subtasks[si].EndDate = *patch.GroupDate
		}
		if newCost != nil && !g.AssignPricesIndividually {
			g.Subtasks[si].Cost = *newCost
		}
	}

	offerIDs := make(map[planning.OfferGroupID]bool)
	for _, st := range g.Subtasks {
		offerIDs[st.OfferGroupID] = true
	}
	for i := range s.offerGroups {
		if !offerIDs[s.offerGroups[i].ID] {
			continue
		}
		if patch.Name != nil {
			s.offerGroups[i].Name = *patch.Name
		}
		if patch.GroupDate != nil {
			s.offerGroups[i].WorkDate = *patch.GroupDate
		}
		if newCost != nil && !g.AssignPricesIndividually {
			s.offerGroups[i].EstimatedValue = *newCost
		}
	}

	for ei := range s.elements {
		for ti := range s.elements[ei].Tasks {
			t := &s.elements[ei].Tasks[ti]
			if t.GroupID != id {
				continue
			}
			if patch.Name != nil {
				t.Name = *patch.Name
			}
			if patch.GroupDate != nil {
				t.EndDate = *patch.GroupDate
			}
			if newCost != nil && !g.AssignPricesIndividually {
				t.Cost = *newCost
			}
		}
	}
	return nil
}

// DeleteTaskGroup removes the group and exactly its offer groups, and
// detaches the member tasks. The tasks survive as unplanned tasks on
// their elements (delete policy, see file header).
func (s *StateStore) DeleteTaskGroup(id planning.TaskGroupID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	gi := -1
	for i := range s.taskGroups {
		if s.taskGroups[i].ID == id {
			gi = i
			break
		}
	}
	if gi < 0 {
		return planning.ErrTaskGroupNotFound
	}

	offerIDs := make(map[planning.OfferGroupID]bool)
	for _, st := range s.taskGroups[gi].Subtasks {
		offerIDs[st.OfferGroupID] = true
	}

	s.taskGroups = append(s.taskGroups[:gi:gi], s.taskGroups[gi+1:]...)

	kept := s.offerGroups[:0:0]
	for _, og := range s.offerGroups {
		if !offerIDs[og.ID] {
			kept = append(kept, og)
		}
	}
	s.offerGroups = kept

	for ei := range s.elements {
		for ti := range s.elements[ei].Tasks {
			t := &s.elements[ei].Tasks[ti]
			if t.GroupID != id {
				continue
			}
			t.Grouped = false
			t.GroupID = ""
			t.OfferGroupID = ""
		}
	}
	return nil
}

// =============================================================================
// TASK AND OFFER UPDATES
// =============================================================================

func (s *StateStore) UpdatePlannedWork(elementID planning.ElementID, taskID planning.TaskID, planned planning.PlannedWork) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	ei := s.elementIndexLocked(elementID)
	if ei < 0 {
		return planning.ErrElementNotFound
	}
	for ti := range s.elements[ei].Tasks {
		if s.elements[ei].Tasks[ti].ID == taskID {
			t := copyTask(s.elements[ei].Tasks[ti])
			t.Planned = planned
			t.Planned.Files = copyStrings(planned.Files)
			s.elements[ei].Tasks[ti] = t
			return nil
		}
	}
	return planning.ErrTaskNotFound
}

// OfferGroupPatch carries the editable quote fields. Nil means unchanged.
type OfferGroupPatch struct {
	OfferPrice    *float64
	InvoicePrice  *float64
	OfferAccepted *bool
}

func (s *StateStore) UpdateOfferGroup(id planning.OfferGroupID, patch OfferGroupPatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.offerGroups {
		if s.offerGroups[i].ID != id {
			continue
		}
		if patch.OfferPrice != nil {
			s.offerGroups[i].OfferPrice = planning.NewMoney(*patch.OfferPrice)
		}
		if patch.InvoicePrice != nil {
			s.offerGroups[i].InvoicePrice = planning.NewMoney(*patch.InvoicePrice)
		}
		if patch.OfferAccepted != nil {
			s.offerGroups[i].OfferAccepted = *patch.OfferAccepted
		}
		return nil
	}
	return planning.ErrOfferGroupNotFound
}

// =============================================================================
// READS
// =============================================================================

func (s *StateStore) TaskGroups() []planning.TaskGroup {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]planning.TaskGroup, len(s.taskGroups))
	for i, g := range s.taskGroups {
		out[i] = copyTaskGroup(g)
	}
	return out
}

func (s *StateStore) OfferGroups() []planning.OfferGroup {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]planning.OfferGroup, len(s.offerGroups))
	copy(out, s.offerGroups)
	return out
}

func (s *StateStore) General() General {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.general
}

func (s *StateStore) SetGeneral(g General, image []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.general = g
	if image != nil {
		s.image = append([]byte(nil), image...)
	}
}

// Snapshot returns a deep copy of the full normalized state.
func (s *StateStore) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copySnapshot(Snapshot{
		Spaces:      s.spaces,
		Elements:    s.elements,
		TaskGroups:  s.taskGroups,
		OfferGroups: s.offerGroups,
		General:     s.general,
	})
}

// =============================================================================
// SAVE - Serialized persistence round-trip
// =============================================================================

// Save hands the current snapshot to the persistence collaborator.
// The snapshot is taken under the read lock, so a save never observes a
// half-applied mutation; the save mutex keeps at most one round-trip in
// flight. A failure leaves the in-memory state untouched and is reported
// as recoverable so the caller may retry.
func (s *StateStore) Save(ctx context.Context) error {
	s.saveMu.Lock()
	defer s.saveMu.Unlock()

	s.mu.RLock()
	snap := copySnapshot(Snapshot{
		Spaces:      s.spaces,
		Elements:    s.elements,
		TaskGroups:  s.taskGroups,
		OfferGroups: s.offerGroups,
		General:     s.general,
	})
	image := append([]byte(nil), s.image...)
	s.mu.RUnlock()

	if err := s.saver.Save(ctx, snap, image); err != nil {
		return &planning.PersistenceError{Op: "save snapshot", Err: err}
	}
	return nil
}
