/*
handlers.go - HTTP API handlers for the maintenance planning engine

PURPOSE:
  Exposes the planning engine via REST. Handles HTTP request/response,
  JSON serialization, and delegates to the state store.

ENDPOINTS:
  Catalogue:
    GET    /api/spaces                     List spaces
    POST   /api/spaces                     Create space
    GET    /api/elements                   List elements
    POST   /api/elements                   Create element
    GET    /api/elements/{id}              Element with tasks and defects
    GET    /api/elements/{id}/condition    Condition score
    POST   /api/elements/{id}/defects      Record defect (rescores)
    DELETE /api/elements/{id}/defects/{defectID}
    PUT    /api/elements/{id}/tasks/{taskID}/planned

  Planning:
    POST   /api/taskgroups/generate        Expand a planning request
    GET    /api/taskgroups                 List task groups
    PUT    /api/taskgroups/{id}            Edit (replays cost/date)
    DELETE /api/taskgroups/{id}            Delete (detaches tasks)
    GET    /api/offergroups                List offer groups
    PUT    /api/offergroups/{id}           Update quote fields
    GET    /api/timeline                   Per-year buckets and totals

  Persistence:
    POST   /api/save                       Save snapshot
    GET    /api/general                    Property metadata
    PUT    /api/general

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input
  - 404: Unknown id (the operation was a no-op)
  - 500: Save failures (recoverable, state retained) and internal errors

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/warp/maintenance-engine/condition"
	"github.com/warp/maintenance-engine/inventory"
	"github.com/warp/maintenance-engine/planning"
)

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store *inventory.StateStore
}

func NewHandler(store *inventory.StateStore) *Handler {
	return &Handler{Store: store}
}

// =============================================================================
// SPACE HANDLERS
// =============================================================================

func (h *Handler) ListSpaces(w http.ResponseWriter, r *http.Request) {
	spaces := h.Store.Spaces()
	dtos := make([]SpaceDTO, len(spaces))
	for i, s := range spaces {
		dtos[i] = toSpaceDTO(s)
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) CreateSpace(w http.ResponseWriter, r *http.Request) {
	var req CreateSpaceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	space, err := h.Store.AddSpace(req.Name)
	if err != nil {
		writeDomainError(w, "Failed to create space", err)
		return
	}
	writeJSON(w, http.StatusCreated, toSpaceDTO(space))
}

// =============================================================================
// ELEMENT HANDLERS
// =============================================================================

func (h *Handler) ListElements(w http.ResponseWriter, r *http.Request) {
	elements := h.Store.Elements()
	dtos := make([]ElementDTO, len(elements))
	for i, e := range elements {
		dtos[i] = toElementDTO(e)
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) CreateElement(w http.ResponseWriter, r *http.Request) {
	var req CreateElementRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	element, err := h.Store.AddElement(
		planning.SpaceID(req.SpaceID),
		req.Name,
		req.Categories,
		decimal.NewFromFloat(req.ReplacementValue),
	)
	if err != nil {
		writeDomainError(w, "Failed to create element", err)
		return
	}
	writeJSON(w, http.StatusCreated, toElementDTO(element))
}

func (h *Handler) GetElement(w http.ResponseWriter, r *http.Request) {
	element, err := h.Store.Element(planning.ElementID(chi.URLParam(r, "id")))
	if err != nil {
		writeDomainError(w, "Failed to get element", err)
		return
	}
	writeJSON(w, http.StatusOK, toElementDTO(element))
}

func (h *Handler) GetCondition(w http.ResponseWriter, r *http.Request) {
	element, err := h.Store.Element(planning.ElementID(chi.URLParam(r, "id")))
	if err != nil {
		writeDomainError(w, "Failed to get element", err)
		return
	}
	writeJSON(w, http.StatusOK, ConditionDTO{
		ElementID:      string(element.ID),
		ConditionScore: element.ConditionScore,
	})
}

// =============================================================================
// DEFECT HANDLERS
// =============================================================================

func (h *Handler) CreateDefect(w http.ResponseWriter, r *http.Request) {
	elementID := planning.ElementID(chi.URLParam(r, "id"))
	var req CreateDefectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	defect, err := h.Store.AddDefect(elementID, condition.Defect{
		Category:         req.Category,
		Material:         req.Material,
		Severity:         condition.Severity(req.Severity),
		Intensity:        req.Intensity,
		ExtentPercent:    req.ExtentPercent,
		ReplacementValue: decimal.NewFromFloat(req.ReplacementValue),
	})
	if err != nil {
		writeDomainError(w, "Failed to record defect", err)
		return
	}
	writeJSON(w, http.StatusCreated, toDefectDTO(defect))
}

func (h *Handler) DeleteDefect(w http.ResponseWriter, r *http.Request) {
	elementID := planning.ElementID(chi.URLParam(r, "id"))
	defectID := planning.DefectID(chi.URLParam(r, "defectID"))
	if err := h.Store.RemoveDefect(elementID, defectID); err != nil {
		writeDomainError(w, "Failed to remove defect", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// GENERATION HANDLERS
// =============================================================================

func (h *Handler) GenerateTaskGroups(w http.ResponseWriter, r *http.Request) {
	var req GenerateRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	groupDate, err := planning.ParsePlanDate(req.GroupDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid group_date format (use YYYY-MM-DD)", err)
		return
	}

	elements := make([]planning.ElementRef, len(req.ElementIDs))
	for i, id := range req.ElementIDs {
		elements[i] = planning.ElementRef{ID: planning.ElementID(id)}
	}
	individualCosts := make(map[planning.ElementID]float64, len(req.IndividualCosts))
	for id, cost := range req.IndividualCosts {
		individualCosts[planning.ElementID(id)] = cost
	}

	result, err := h.Store.Generate(planning.GenerateRequest{
		Name:                     req.Name,
		Description:              req.Description,
		GroupDate:                groupDate,
		Cost:                     req.Cost,
		Amount:                   req.Amount,
		DurationDays:             req.DurationDays,
		SquareMeters:             req.SquareMeters,
		Urgency:                  req.Urgency,
		Elements:                 elements,
		AssignPricesIndividually: req.AssignPricesIndividually,
		IndividualCosts:          individualCosts,
		Periodic:                 req.Periodic,
		PeriodicityMonths:        req.PeriodicityMonths,
		TotalYears:               req.TotalYears,
		Indexation:               req.Indexation,
		IndexationRate:           req.IndexationRate,
	})
	if err != nil {
		writeDomainError(w, "Failed to generate task groups", err)
		return
	}

	resp := GenerateResponse{
		TaskGroups:  make([]TaskGroupDTO, len(result.TaskGroups)),
		OfferGroups: make([]OfferGroupDTO, len(result.OfferGroups)),
	}
	for i, g := range result.TaskGroups {
		resp.TaskGroups[i] = toTaskGroupDTO(g)
	}
	for i, og := range result.OfferGroups {
		resp.OfferGroups[i] = toOfferGroupDTO(og)
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (h *Handler) ListTaskGroups(w http.ResponseWriter, r *http.Request) {
	groups := h.Store.TaskGroups()
	dtos := make([]TaskGroupDTO, len(groups))
	for i, g := range groups {
		dtos[i] = toTaskGroupDTO(g)
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) EditTaskGroup(w http.ResponseWriter, r *http.Request) {
	id := planning.TaskGroupID(chi.URLParam(r, "id"))
	var req EditTaskGroupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	patch := inventory.TaskGroupPatch{Name: req.Name, Cost: req.Cost}
	if req.GroupDate != nil {
		d, err := planning.ParsePlanDate(*req.GroupDate)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid group_date format (use YYYY-MM-DD)", err)
			return
		}
		patch.GroupDate = &d
	}

	if err := h.Store.EditTaskGroup(id, patch); err != nil {
		writeDomainError(w, "Failed to edit task group", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) DeleteTaskGroup(w http.ResponseWriter, r *http.Request) {
	id := planning.TaskGroupID(chi.URLParam(r, "id"))
	if err := h.Store.DeleteTaskGroup(id); err != nil {
		writeDomainError(w, "Failed to delete task group", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// OFFER GROUP HANDLERS
// =============================================================================

func (h *Handler) ListOfferGroups(w http.ResponseWriter, r *http.Request) {
	offers := h.Store.OfferGroups()
	dtos := make([]OfferGroupDTO, len(offers))
	for i, og := range offers {
		dtos[i] = toOfferGroupDTO(og)
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) UpdateOfferGroup(w http.ResponseWriter, r *http.Request) {
	id := planning.OfferGroupID(chi.URLParam(r, "id"))
	var req UpdateOfferGroupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	err := h.Store.UpdateOfferGroup(id, inventory.OfferGroupPatch{
		OfferPrice:    req.OfferPrice,
		InvoicePrice:  req.InvoicePrice,
		OfferAccepted: req.OfferAccepted,
	})
	if err != nil {
		writeDomainError(w, "Failed to update offer group", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// PLANNED WORK HANDLERS
// =============================================================================

func (h *Handler) UpdatePlannedWork(w http.ResponseWriter, r *http.Request) {
	elementID := planning.ElementID(chi.URLParam(r, "id"))
	taskID := planning.TaskID(chi.URLParam(r, "taskID"))
	var req PlannedWorkDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	planned := planning.PlannedWork{
		OfferAccepted: req.OfferAccepted,
		Comment:       req.Comment,
		Files:         req.Files,
	}
	for _, field := range []struct {
		in  *string
		out **planning.PlanDate
	}{
		{req.WorkDate, &planned.WorkDate},
		{req.StartDate, &planned.StartDate},
		{req.EndDate, &planned.EndDate},
	} {
		if field.in == nil {
			continue
		}
		d, err := planning.ParsePlanDate(*field.in)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid date format (use YYYY-MM-DD)", err)
			return
		}
		*field.out = &d
	}

	if err := h.Store.UpdatePlannedWork(elementID, taskID, planned); err != nil {
		writeDomainError(w, "Failed to update planned work", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// TIMELINE HANDLER
// =============================================================================

func (h *Handler) GetTimeline(w http.ResponseWriter, r *http.Request) {
	groups := h.Store.TaskGroups()
	byYear := planning.GroupsByYear(groups)
	costs := planning.CostPerYear(groups)

	years := planning.Years(groups)
	dtos := make([]TimelineYearDTO, len(years))
	for i, year := range years {
		bucket := byYear[year]
		groupDTOs := make([]TaskGroupDTO, len(bucket))
		for j, g := range bucket {
			groupDTOs[j] = toTaskGroupDTO(g)
		}
		dtos[i] = TimelineYearDTO{
			Year:      year,
			TotalCost: costs[year].Float64(),
			Groups:    groupDTOs,
		}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// GENERAL AND SAVE HANDLERS
// =============================================================================

func (h *Handler) GetGeneral(w http.ResponseWriter, r *http.Request) {
	g := h.Store.General()
	writeJSON(w, http.StatusOK, GeneralDTO{
		PropertyName: g.PropertyName,
		Address:      g.Address,
		YearBuilt:    g.YearBuilt,
		ImageName:    g.ImageName,
	})
}

func (h *Handler) UpdateGeneral(w http.ResponseWriter, r *http.Request) {
	var req GeneralDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	h.Store.SetGeneral(inventory.General{
		PropertyName: req.PropertyName,
		Address:      req.Address,
		YearBuilt:    req.YearBuilt,
		ImageName:    req.ImageName,
	}, nil)
	w.WriteHeader(http.StatusNoContent)
}

// Save persists the current snapshot. On failure the in-memory state is
// retained so the client may retry.
func (h *Handler) Save(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.Save(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, "Save failed, state retained; retry", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeDomainError maps engine error classes to HTTP statuses.
func writeDomainError(w http.ResponseWriter, message string, err error) {
	switch {
	case planning.IsClientError(err) || errors.Is(err, condition.ErrInvalidReplacementValue):
		writeError(w, http.StatusBadRequest, message, err)
	case planning.IsNotFound(err):
		writeError(w, http.StatusNotFound, message, err)
	default:
		writeError(w, http.StatusInternalServerError, message, err)
	}
}
