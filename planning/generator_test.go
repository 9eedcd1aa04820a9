package planning_test

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/warp/maintenance-engine/planning"
)

// seqIDs hands out predictable sequential ids so tests can assert linkage.
type seqIDs struct {
	tasks  int
	groups int
	offers int
}

func (s *seqIDs) NewTaskID() planning.TaskID {
	s.tasks++
	return planning.TaskID(fmt.Sprintf("task-%d", s.tasks))
}

func (s *seqIDs) NewTaskGroupID() planning.TaskGroupID {
	s.groups++
	return planning.TaskGroupID(fmt.Sprintf("group-%d", s.groups))
}

func (s *seqIDs) NewOfferGroupID() planning.OfferGroupID {
	s.offers++
	return planning.OfferGroupID(fmt.Sprintf("offer-%d", s.offers))
}

func periodicRequest() planning.GenerateRequest {
	return planning.GenerateRequest{
		Name:              "Paint exterior",
		GroupDate:         planning.NewPlanDate(2025, time.June, 1),
		Cost:              1000,
		Elements:          []planning.ElementRef{{ID: "el-1", Name: "South facade"}},
		Periodic:          true,
		PeriodicityMonths: 12,
		TotalYears:        3,
		Indexation:        true,
		IndexationRate:    10,
	}
}

func TestValidateRejectsBadRequests(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*planning.GenerateRequest)
		field  string
	}{
		{"no elements", func(r *planning.GenerateRequest) { r.Elements = nil }, "elements"},
		{"zero date", func(r *planning.GenerateRequest) { r.GroupDate = planning.PlanDate{} }, "groupDate"},
		{"zero periodicity", func(r *planning.GenerateRequest) { r.PeriodicityMonths = 0 }, "periodicityMonths"},
		{"negative periodicity", func(r *planning.GenerateRequest) { r.PeriodicityMonths = -6 }, "periodicityMonths"},
		{"zero years", func(r *planning.GenerateRequest) { r.TotalYears = 0 }, "totalYears"},
		{"negative rate", func(r *planning.GenerateRequest) { r.IndexationRate = -1 }, "indexationRate"},
		{"individual cost missing", func(r *planning.GenerateRequest) {
			r.AssignPricesIndividually = true
			r.IndividualCosts = nil
		}, "individualCosts"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := periodicRequest()
			tt.mutate(&req)

			_, err := planning.Generate(req, &seqIDs{})
			if err == nil {
				t.Fatal("expected validation error")
			}
			var verr *planning.ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected *ValidationError, got %T", err)
			}
			if verr.Field != tt.field {
				t.Errorf("field = %q, want %q", verr.Field, tt.field)
			}
			if !planning.IsClientError(err) {
				t.Error("validation errors must classify as client errors")
			}
		})
	}
}

func TestValidateNonPeriodicRequiresAmount(t *testing.T) {
	req := planning.GenerateRequest{
		Name:      "One-off repair",
		GroupDate: planning.NewPlanDate(2025, time.June, 1),
		Cost:      250,
		Elements:  []planning.ElementRef{{ID: "el-1", Name: "Roof"}},
	}
	_, err := planning.Generate(req, &seqIDs{})
	if err == nil {
		t.Fatal("expected validation error for zero amount")
	}

	req.Amount = 1
	if _, err := planning.Generate(req, &seqIDs{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestGeneratePeriodicExpansion(t *testing.T) {
	req := periodicRequest()
	result, err := planning.Generate(req, &seqIDs{})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	// 3 years at 12-month periodicity: one step per year per element.
	if len(result.TaskGroups) != 3 {
		t.Fatalf("got %d task groups, want 3", len(result.TaskGroups))
	}
	if len(result.OfferGroups) != 3 {
		t.Fatalf("got %d offer groups, want 3", len(result.OfferGroups))
	}
	if len(result.TasksByElement["el-1"]) != 3 {
		t.Fatalf("got %d tasks for el-1, want 3", len(result.TasksByElement["el-1"]))
	}

	wantDates := []string{"2025-06-01", "2026-06-01", "2027-06-01"}
	wantCosts := []string{"1000.00", "1100.00", "1210.00"}
	for i, g := range result.TaskGroups {
		if got := g.GroupDate.SortKey(); got != wantDates[i] {
			t.Errorf("group %d date = %s, want %s", i, got, wantDates[i])
		}
		if got := g.Cost.String(); got != wantCosts[i] {
			t.Errorf("group %d cost = %s, want %s (compounded indexation)", i, got, wantCosts[i])
		}
		if !g.Periodic {
			t.Errorf("group %d should be marked periodic", i)
		}
		if len(g.Subtasks) != 1 {
			t.Errorf("group %d has %d subtasks, want 1", i, len(g.Subtasks))
		}
	}
}

func TestGeneratePeriodicCountProperty(t *testing.T) {
	req := periodicRequest()
	req.PeriodicityMonths = 6
	req.TotalYears = 5
	req.Elements = []planning.ElementRef{
		{ID: "el-1", Name: "South facade"},
		{ID: "el-2", Name: "North facade"},
		{ID: "el-3", Name: "Roof"},
	}

	result, err := planning.Generate(req, &seqIDs{})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	// totalPeriods = 5*12/6 = 10; one group per period per element.
	want := 10 * len(req.Elements)
	if len(result.TaskGroups) != want {
		t.Errorf("got %d task groups, want %d", len(result.TaskGroups), want)
	}
	if len(result.OfferGroups) != want {
		t.Errorf("got %d offer groups, want %d", len(result.OfferGroups), want)
	}
	for _, el := range req.Elements {
		if got := len(result.TasksByElement[el.ID]); got != 10 {
			t.Errorf("element %s has %d tasks, want 10", el.ID, got)
		}
	}
}

func TestGeneratePeriodicTruncatesPartialPeriods(t *testing.T) {
	req := periodicRequest()
	req.PeriodicityMonths = 18
	req.TotalYears = 2 // 24/18 = 1 whole period

	result, err := planning.Generate(req, &seqIDs{})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if len(result.TaskGroups) != 1 {
		t.Errorf("got %d task groups, want 1 (partial periods truncate)", len(result.TaskGroups))
	}
}

func TestGenerateLinkageInvariant(t *testing.T) {
	req := periodicRequest()
	result, err := planning.Generate(req, &seqIDs{})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	offersByID := make(map[planning.OfferGroupID]bool)
	for _, og := range result.OfferGroups {
		offersByID[og.ID] = true
	}
	groupsByID := make(map[planning.TaskGroupID]planning.TaskGroup)
	for _, g := range result.TaskGroups {
		groupsByID[g.ID] = g
	}

	for _, task := range result.TasksByElement["el-1"] {
		if !task.Grouped {
			t.Errorf("task %s not marked grouped", task.ID)
		}
		group, ok := groupsByID[task.GroupID]
		if !ok {
			t.Fatalf("task %s references unknown group %s", task.ID, task.GroupID)
		}
		if !offersByID[task.OfferGroupID] {
			t.Fatalf("task %s references unknown offer group %s", task.ID, task.OfferGroupID)
		}
		if group.Subtasks[0].OfferGroupID != task.OfferGroupID {
			t.Errorf("task %s and its group disagree on offer group", task.ID)
		}
	}
}

func TestGenerateSingleWithIndividualCosts(t *testing.T) {
	req := planning.GenerateRequest{
		Name:                     "Replace gutters",
		GroupDate:                planning.NewPlanDate(2026, time.April, 1),
		Amount:                   1,
		Elements:                 []planning.ElementRef{{ID: "el-1", Name: "East wing"}, {ID: "el-2", Name: "West wing"}},
		AssignPricesIndividually: true,
		IndividualCosts: map[planning.ElementID]float64{
			"el-1": 300.50,
			"el-2": 199.50,
		},
	}

	result, err := planning.Generate(req, &seqIDs{})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if len(result.TaskGroups) != 1 {
		t.Fatalf("got %d task groups, want 1", len(result.TaskGroups))
	}

	group := result.TaskGroups[0]
	if got := group.Cost.String(); got != "500.00" {
		t.Errorf("group cost = %s, want 500.00 (sum of individual costs)", got)
	}
	if len(group.Subtasks) != 2 {
		t.Fatalf("got %d subtasks, want 2", len(group.Subtasks))
	}
	if got := group.Subtasks[0].Cost.String(); got != "300.50" {
		t.Errorf("subtask 0 cost = %s, want 300.50", got)
	}
	if got := result.OfferGroups[0].EstimatedValue.String(); got != "500.00" {
		t.Errorf("offer estimate = %s, want 500.00", got)
	}

	// All tasks share the single group and offer.
	for _, elID := range []planning.ElementID{"el-1", "el-2"} {
		tasks := result.TasksByElement[elID]
		if len(tasks) != 1 {
			t.Fatalf("element %s has %d tasks, want 1", elID, len(tasks))
		}
		if tasks[0].GroupID != group.ID {
			t.Errorf("element %s task not linked to group", elID)
		}
	}
}

func TestGenerateWithoutIndexationKeepsBaseCost(t *testing.T) {
	req := periodicRequest()
	req.Indexation = false
	req.IndexationRate = 0

	result, err := planning.Generate(req, &seqIDs{})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	for i, g := range result.TaskGroups {
		if got := g.Cost.String(); got != "1000.00" {
			t.Errorf("group %d cost = %s, want 1000.00 without indexation", i, got)
		}
	}
}
