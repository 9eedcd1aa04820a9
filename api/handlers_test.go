package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/warp/maintenance-engine/api"
	"github.com/warp/maintenance-engine/inventory"
)

// =============================================================================
// TEST HARNESS
// =============================================================================

type fakeSaver struct {
	calls   int
	failErr error
}

func (f *fakeSaver) Save(_ context.Context, _ inventory.Snapshot, _ []byte) error {
	f.calls++
	return f.failErr
}

type apiTest struct {
	t      *testing.T
	server *httptest.Server
	saver  *fakeSaver
}

func newAPITest(t *testing.T) *apiTest {
	t.Helper()
	saver := &fakeSaver{}
	store := inventory.NewStateStore(inventory.UUIDSource{}, saver)
	server := httptest.NewServer(api.NewRouter(api.NewHandler(store)))
	t.Cleanup(server.Close)
	return &apiTest{t: t, server: server, saver: saver}
}

// do runs a request and decodes the JSON response into out (when non-nil).
func (a *apiTest) do(method, path string, body, out any) *http.Response {
	a.t.Helper()
	var reqBody bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&reqBody).Encode(body); err != nil {
			a.t.Fatalf("encode request: %v", err)
		}
	}
	req, err := http.NewRequest(method, a.server.URL+path, &reqBody)
	if err != nil {
		a.t.Fatalf("build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		a.t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			a.t.Fatalf("decode %s %s response: %v", method, path, err)
		}
	}
	return resp
}

func (a *apiTest) wantStatus(resp *http.Response, want int) {
	a.t.Helper()
	if resp.StatusCode != want {
		a.t.Fatalf("status = %d, want %d", resp.StatusCode, want)
	}
}

func (a *apiTest) createSpace(name string) api.SpaceDTO {
	a.t.Helper()
	var space api.SpaceDTO
	resp := a.do(http.MethodPost, "/api/spaces", api.CreateSpaceRequest{Name: name}, &space)
	a.wantStatus(resp, http.StatusCreated)
	return space
}

func (a *apiTest) createElement(spaceID, name string) api.ElementDTO {
	a.t.Helper()
	var element api.ElementDTO
	resp := a.do(http.MethodPost, "/api/elements", api.CreateElementRequest{
		Name:             name,
		SpaceID:          spaceID,
		Categories:       []string{"exterior"},
		ReplacementValue: 1000,
	}, &element)
	a.wantStatus(resp, http.StatusCreated)
	return element
}

func (a *apiTest) generate(elementID string) api.GenerateResponse {
	a.t.Helper()
	var result api.GenerateResponse
	resp := a.do(http.MethodPost, "/api/taskgroups/generate", api.GenerateRequestDTO{
		Name:              "Paint exterior",
		GroupDate:         "2025-06-01",
		Cost:              1000,
		ElementIDs:        []string{elementID},
		Periodic:          true,
		PeriodicityMonths: 12,
		TotalYears:        3,
		Indexation:        true,
		IndexationRate:    10,
	}, &result)
	a.wantStatus(resp, http.StatusCreated)
	return result
}

// =============================================================================
// CATALOGUE
// =============================================================================

func TestCreateAndListSpaces(t *testing.T) {
	a := newAPITest(t)
	created := a.createSpace("Ground floor")
	if created.ID == "" || created.Name != "Ground floor" {
		t.Fatalf("create space response: %+v", created)
	}

	var spaces []api.SpaceDTO
	resp := a.do(http.MethodGet, "/api/spaces", nil, &spaces)
	a.wantStatus(resp, http.StatusOK)
	if len(spaces) != 1 || spaces[0].ID != created.ID {
		t.Fatalf("list spaces = %+v", spaces)
	}
}

func TestCreateElementInUnknownSpace(t *testing.T) {
	a := newAPITest(t)
	resp := a.do(http.MethodPost, "/api/elements", api.CreateElementRequest{
		Name:             "Roof",
		SpaceID:          "no-such-space",
		ReplacementValue: 100,
	}, nil)
	a.wantStatus(resp, http.StatusNotFound)
}

func TestCreateElementValidation(t *testing.T) {
	a := newAPITest(t)
	space := a.createSpace("Attic")

	resp := a.do(http.MethodPost, "/api/elements", api.CreateElementRequest{
		Name:             "Roof window",
		SpaceID:          space.ID,
		ReplacementValue: 0,
	}, nil)
	a.wantStatus(resp, http.StatusBadRequest)
}

// =============================================================================
// DEFECTS AND CONDITION
// =============================================================================

func TestDefectLifecycleUpdatesCondition(t *testing.T) {
	a := newAPITest(t)
	space := a.createSpace("Ground floor")
	element := a.createElement(space.ID, "South facade")

	var condDTO api.ConditionDTO
	resp := a.do(http.MethodGet, "/api/elements/"+element.ID+"/condition", nil, &condDTO)
	a.wantStatus(resp, http.StatusOK)
	if condDTO.ConditionScore != 1 {
		t.Fatalf("initial score = %d, want 1", condDTO.ConditionScore)
	}

	var defect api.DefectDTO
	resp = a.do(http.MethodPost, "/api/elements/"+element.ID+"/defects", api.CreateDefectRequest{
		Category:         "facade",
		Material:         "brick",
		Severity:         "serious",
		Intensity:        3,
		ExtentPercent:    10,
		ReplacementValue: 500,
	}, &defect)
	a.wantStatus(resp, http.StatusCreated)

	resp = a.do(http.MethodGet, "/api/elements/"+element.ID+"/condition", nil, &condDTO)
	a.wantStatus(resp, http.StatusOK)
	if condDTO.ConditionScore != 4 {
		t.Fatalf("score after defect = %d, want 4", condDTO.ConditionScore)
	}

	resp = a.do(http.MethodDelete, "/api/elements/"+element.ID+"/defects/"+defect.ID, nil, nil)
	a.wantStatus(resp, http.StatusNoContent)

	resp = a.do(http.MethodGet, "/api/elements/"+element.ID+"/condition", nil, &condDTO)
	a.wantStatus(resp, http.StatusOK)
	if condDTO.ConditionScore != 1 {
		t.Fatalf("score after removal = %d, want 1", condDTO.ConditionScore)
	}
}

func TestCreateDefectRejectsUnknownSeverity(t *testing.T) {
	a := newAPITest(t)
	space := a.createSpace("Ground floor")
	element := a.createElement(space.ID, "South facade")

	resp := a.do(http.MethodPost, "/api/elements/"+element.ID+"/defects", api.CreateDefectRequest{
		Severity:         "catastrophic",
		Intensity:        2,
		ExtentPercent:    10,
		ReplacementValue: 100,
	}, nil)
	a.wantStatus(resp, http.StatusBadRequest)
}

// =============================================================================
// GENERATION AND TIMELINE
// =============================================================================

func TestGenerateTaskGroups(t *testing.T) {
	a := newAPITest(t)
	space := a.createSpace("Ground floor")
	element := a.createElement(space.ID, "South facade")

	result := a.generate(element.ID)
	if len(result.TaskGroups) != 3 || len(result.OfferGroups) != 3 {
		t.Fatalf("generated %d groups / %d offers, want 3 / 3", len(result.TaskGroups), len(result.OfferGroups))
	}

	wantCosts := []float64{1000, 1100, 1210}
	for i, g := range result.TaskGroups {
		if g.Cost != wantCosts[i] {
			t.Errorf("group %d cost = %v, want %v", i, g.Cost, wantCosts[i])
		}
	}

	// The element now carries its tasks.
	var stored api.ElementDTO
	resp := a.do(http.MethodGet, "/api/elements/"+element.ID, nil, &stored)
	a.wantStatus(resp, http.StatusOK)
	if len(stored.Tasks) != 3 {
		t.Fatalf("element holds %d tasks, want 3", len(stored.Tasks))
	}
	for _, task := range stored.Tasks {
		if !task.Grouped || task.GroupID == "" || task.OfferGroupID == "" {
			t.Errorf("task not linked: %+v", task)
		}
	}
}

func TestGenerateRejectsBadDate(t *testing.T) {
	a := newAPITest(t)
	space := a.createSpace("Ground floor")
	element := a.createElement(space.ID, "South facade")

	resp := a.do(http.MethodPost, "/api/taskgroups/generate", api.GenerateRequestDTO{
		Name:       "Paint",
		GroupDate:  "06/01/2025",
		Amount:     1,
		ElementIDs: []string{element.ID},
	}, nil)
	a.wantStatus(resp, http.StatusBadRequest)
}

func TestGenerateRejectsInvalidRequest(t *testing.T) {
	a := newAPITest(t)
	space := a.createSpace("Ground floor")
	element := a.createElement(space.ID, "South facade")

	resp := a.do(http.MethodPost, "/api/taskgroups/generate", api.GenerateRequestDTO{
		Name:              "Paint",
		GroupDate:         "2025-06-01",
		Cost:              1000,
		ElementIDs:        []string{element.ID},
		Periodic:          true,
		PeriodicityMonths: 0,
		TotalYears:        3,
	}, nil)
	a.wantStatus(resp, http.StatusBadRequest)
}

func TestTimeline(t *testing.T) {
	a := newAPITest(t)
	space := a.createSpace("Ground floor")
	element := a.createElement(space.ID, "South facade")
	a.generate(element.ID)

	var timeline []api.TimelineYearDTO
	resp := a.do(http.MethodGet, "/api/timeline", nil, &timeline)
	a.wantStatus(resp, http.StatusOK)

	if len(timeline) != 3 {
		t.Fatalf("timeline has %d years, want 3", len(timeline))
	}
	wantYears := []int{2025, 2026, 2027}
	wantTotals := []float64{1000, 1100, 1210}
	for i, year := range timeline {
		if year.Year != wantYears[i] {
			t.Errorf("year %d = %d, want %d", i, year.Year, wantYears[i])
		}
		if year.TotalCost != wantTotals[i] {
			t.Errorf("year %d total = %v, want %v", year.Year, year.TotalCost, wantTotals[i])
		}
		if len(year.Groups) != 1 {
			t.Errorf("year %d has %d groups, want 1", year.Year, len(year.Groups))
		}
	}
}

// =============================================================================
// EDIT / DELETE FLOWS
// =============================================================================

func TestEditTaskGroupFlow(t *testing.T) {
	a := newAPITest(t)
	space := a.createSpace("Ground floor")
	element := a.createElement(space.ID, "South facade")
	result := a.generate(element.ID)
	groupID := result.TaskGroups[0].ID

	name := "Paint and seal"
	date := "2025-09-15"
	cost := 1500.0
	resp := a.do(http.MethodPut, "/api/taskgroups/"+groupID, api.EditTaskGroupRequest{
		Name:      &name,
		GroupDate: &date,
		Cost:      &cost,
	}, nil)
	a.wantStatus(resp, http.StatusNoContent)

	var groups []api.TaskGroupDTO
	resp = a.do(http.MethodGet, "/api/taskgroups", nil, &groups)
	a.wantStatus(resp, http.StatusOK)
	found := false
	for _, g := range groups {
		if g.ID != groupID {
			continue
		}
		found = true
		if g.Name != name || g.GroupDate != date || g.Cost != cost {
			t.Errorf("group not updated: %+v", g)
		}
	}
	if !found {
		t.Fatal("edited group missing from list")
	}

	resp = a.do(http.MethodPut, "/api/taskgroups/no-such-group", api.EditTaskGroupRequest{Name: &name}, nil)
	a.wantStatus(resp, http.StatusNotFound)
}

func TestDeleteTaskGroupFlow(t *testing.T) {
	a := newAPITest(t)
	space := a.createSpace("Ground floor")
	element := a.createElement(space.ID, "South facade")
	result := a.generate(element.ID)
	groupID := result.TaskGroups[0].ID

	resp := a.do(http.MethodDelete, "/api/taskgroups/"+groupID, nil, nil)
	a.wantStatus(resp, http.StatusNoContent)

	var groups []api.TaskGroupDTO
	resp = a.do(http.MethodGet, "/api/taskgroups", nil, &groups)
	a.wantStatus(resp, http.StatusOK)
	if len(groups) != 2 {
		t.Fatalf("%d groups remain, want 2", len(groups))
	}

	// The member task survives, detached.
	var stored api.ElementDTO
	resp = a.do(http.MethodGet, "/api/elements/"+element.ID, nil, &stored)
	a.wantStatus(resp, http.StatusOK)
	if len(stored.Tasks) != 3 {
		t.Fatalf("element holds %d tasks, want 3", len(stored.Tasks))
	}
	detached := 0
	for _, task := range stored.Tasks {
		if !task.Grouped {
			detached++
		}
	}
	if detached != 1 {
		t.Errorf("%d tasks detached, want 1", detached)
	}

	resp = a.do(http.MethodDelete, "/api/taskgroups/"+groupID, nil, nil)
	a.wantStatus(resp, http.StatusNotFound)
}

func TestUpdateOfferGroupFlow(t *testing.T) {
	a := newAPITest(t)
	space := a.createSpace("Ground floor")
	element := a.createElement(space.ID, "South facade")
	result := a.generate(element.ID)
	offerID := result.OfferGroups[0].ID

	offerPrice := 1050.0
	accepted := true
	resp := a.do(http.MethodPut, "/api/offergroups/"+offerID, api.UpdateOfferGroupRequest{
		OfferPrice:    &offerPrice,
		OfferAccepted: &accepted,
	}, nil)
	a.wantStatus(resp, http.StatusNoContent)

	var offers []api.OfferGroupDTO
	resp = a.do(http.MethodGet, "/api/offergroups", nil, &offers)
	a.wantStatus(resp, http.StatusOK)
	for _, og := range offers {
		if og.ID == offerID && (og.OfferPrice != 1050 || !og.OfferAccepted) {
			t.Errorf("offer group not updated: %+v", og)
		}
	}
}

func TestUpdatePlannedWorkFlow(t *testing.T) {
	a := newAPITest(t)
	space := a.createSpace("Ground floor")
	element := a.createElement(space.ID, "South facade")
	a.generate(element.ID)

	var stored api.ElementDTO
	resp := a.do(http.MethodGet, "/api/elements/"+element.ID, nil, &stored)
	a.wantStatus(resp, http.StatusOK)
	taskID := stored.Tasks[0].ID

	workDate := "2025-07-10"
	path := fmt.Sprintf("/api/elements/%s/tasks/%s/planned", element.ID, taskID)
	resp = a.do(http.MethodPut, path, api.PlannedWorkDTO{
		WorkDate:      &workDate,
		OfferAccepted: true,
		Comment:       "contractor confirmed",
	}, nil)
	a.wantStatus(resp, http.StatusNoContent)

	resp = a.do(http.MethodGet, "/api/elements/"+element.ID, nil, &stored)
	a.wantStatus(resp, http.StatusOK)
	planned := stored.Tasks[0].Planned
	if planned.WorkDate == nil || *planned.WorkDate != workDate || !planned.OfferAccepted {
		t.Errorf("planned work not stored: %+v", planned)
	}
}

// =============================================================================
// GENERAL AND SAVE
// =============================================================================

func TestGeneralRoundTrip(t *testing.T) {
	a := newAPITest(t)

	resp := a.do(http.MethodPut, "/api/general", api.GeneralDTO{
		PropertyName: "Canal house",
		Address:      "Herengracht 1",
		YearBuilt:    1912,
	}, nil)
	a.wantStatus(resp, http.StatusNoContent)

	var general api.GeneralDTO
	resp = a.do(http.MethodGet, "/api/general", nil, &general)
	a.wantStatus(resp, http.StatusOK)
	if general.PropertyName != "Canal house" || general.YearBuilt != 1912 {
		t.Errorf("general = %+v", general)
	}
}

func TestSaveEndpoint(t *testing.T) {
	a := newAPITest(t)
	space := a.createSpace("Ground floor")
	element := a.createElement(space.ID, "South facade")
	a.generate(element.ID)

	resp := a.do(http.MethodPost, "/api/save", nil, nil)
	a.wantStatus(resp, http.StatusNoContent)
	if a.saver.calls != 1 {
		t.Errorf("saver called %d times, want 1", a.saver.calls)
	}

	a.saver.failErr = errors.New("disk full")
	resp = a.do(http.MethodPost, "/api/save", nil, nil)
	a.wantStatus(resp, http.StatusInternalServerError)

	// State survives a failed save; retry succeeds.
	a.saver.failErr = nil
	resp = a.do(http.MethodPost, "/api/save", nil, nil)
	a.wantStatus(resp, http.StatusNoContent)
}
