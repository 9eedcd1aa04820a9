/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

VALIDATION:
  Shape validation (dates parse, severities known) happens in handlers;
  business validation happens in the engine. DTOs are pure data carriers.

SEE ALSO:
  - handlers.go: Uses these types
*/
package api

import (
	"github.com/warp/maintenance-engine/condition"
	"github.com/warp/maintenance-engine/inventory"
	"github.com/warp/maintenance-engine/planning"
)

// =============================================================================
// CATALOGUE
// =============================================================================

type SpaceDTO struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type CreateSpaceRequest struct {
	Name string `json:"name"`
}

type ElementDTO struct {
	ID               string      `json:"id"`
	Name             string      `json:"name"`
	SpaceID          string      `json:"space_id"`
	Categories       []string    `json:"categories,omitempty"`
	ReplacementValue float64     `json:"replacement_value"`
	ConditionScore   int         `json:"condition_score"`
	Tasks            []TaskDTO   `json:"tasks"`
	Defects          []DefectDTO `json:"defects"`
}

type CreateElementRequest struct {
	Name             string   `json:"name"`
	SpaceID          string   `json:"space_id"`
	Categories       []string `json:"categories,omitempty"`
	ReplacementValue float64  `json:"replacement_value"`
}

type DefectDTO struct {
	ID               string  `json:"id"`
	Category         string  `json:"category,omitempty"`
	Material         string  `json:"material,omitempty"`
	Severity         string  `json:"severity"`
	Intensity        int     `json:"intensity"`
	ExtentPercent    float64 `json:"extent_percent"`
	ReplacementValue float64 `json:"replacement_value"`
}

type CreateDefectRequest struct {
	Category         string  `json:"category,omitempty"`
	Material         string  `json:"material,omitempty"`
	Severity         string  `json:"severity"`
	Intensity        int     `json:"intensity"`
	ExtentPercent    float64 `json:"extent_percent"`
	ReplacementValue float64 `json:"replacement_value"`
}

type ConditionDTO struct {
	ElementID      string `json:"element_id"`
	ConditionScore int    `json:"condition_score"`
}

// =============================================================================
// TASKS AND GROUPS
// =============================================================================

type PlannedWorkDTO struct {
	WorkDate      *string  `json:"work_date,omitempty"`
	StartDate     *string  `json:"start_date,omitempty"`
	EndDate       *string  `json:"end_date,omitempty"`
	OfferAccepted bool     `json:"offer_accepted"`
	Comment       string   `json:"comment,omitempty"`
	Files         []string `json:"files,omitempty"`
}

type TaskDTO struct {
	ID           string         `json:"id"`
	Name         string         `json:"name"`
	Description  string         `json:"description,omitempty"`
	EndDate      string         `json:"end_date"`
	Cost         float64        `json:"cost"`
	Urgency      int            `json:"urgency,omitempty"`
	Grouped      bool           `json:"grouped"`
	ElementID    string         `json:"element_id"`
	ElementName  string         `json:"element_name"`
	GroupID      string         `json:"group_id,omitempty"`
	OfferGroupID string         `json:"offer_group_id,omitempty"`
	Planned      PlannedWorkDTO `json:"planned"`
}

type SubtaskDTO struct {
	ElementID    string  `json:"element_id"`
	ElementName  string  `json:"element_name"`
	Cost         float64 `json:"cost"`
	EndDate      string  `json:"end_date"`
	OfferGroupID string  `json:"offer_group_id"`
}

type TaskGroupDTO struct {
	ID                       string       `json:"id"`
	Name                     string       `json:"name"`
	GroupDate                string       `json:"group_date"`
	Cost                     float64      `json:"cost"`
	Periodic                 bool         `json:"periodic"`
	PeriodicityMonths        int          `json:"periodicity_months,omitempty"`
	TotalYears               int          `json:"total_years,omitempty"`
	Indexation               bool         `json:"indexation"`
	IndexationRate           float64      `json:"indexation_rate,omitempty"`
	AssignPricesIndividually bool         `json:"assign_prices_individually"`
	Subtasks                 []SubtaskDTO `json:"subtasks"`
}

type OfferGroupDTO struct {
	ID             string  `json:"id"`
	Name           string  `json:"name"`
	EstimatedValue float64 `json:"estimated_value"`
	OfferPrice     float64 `json:"offer_price"`
	InvoicePrice   float64 `json:"invoice_price"`
	OfferAccepted  bool    `json:"offer_accepted"`
	WorkDate       string  `json:"work_date"`
}

// =============================================================================
// GENERATION
// =============================================================================

type GenerateRequestDTO struct {
	Name                     string             `json:"name"`
	Description              string             `json:"description,omitempty"`
	GroupDate                string             `json:"group_date"`
	Cost                     float64            `json:"cost"`
	Amount                   float64            `json:"amount"`
	DurationDays             int                `json:"duration_days,omitempty"`
	SquareMeters             float64            `json:"square_meters,omitempty"`
	Urgency                  int                `json:"urgency,omitempty"`
	ElementIDs               []string           `json:"element_ids"`
	AssignPricesIndividually bool               `json:"assign_prices_individually"`
	IndividualCosts          map[string]float64 `json:"individual_costs,omitempty"`
	Periodic                 bool               `json:"periodic"`
	PeriodicityMonths        int                `json:"periodicity_months,omitempty"`
	TotalYears               int                `json:"total_years,omitempty"`
	Indexation               bool               `json:"indexation"`
	IndexationRate           float64            `json:"indexation_rate,omitempty"`
}

type GenerateResponse struct {
	TaskGroups  []TaskGroupDTO  `json:"task_groups"`
	OfferGroups []OfferGroupDTO `json:"offer_groups"`
}

type EditTaskGroupRequest struct {
	Name      *string  `json:"name,omitempty"`
	GroupDate *string  `json:"group_date,omitempty"`
	Cost      *float64 `json:"cost,omitempty"`
}

type UpdateOfferGroupRequest struct {
	OfferPrice    *float64 `json:"offer_price,omitempty"`
	InvoicePrice  *float64 `json:"invoice_price,omitempty"`
	OfferAccepted *bool    `json:"offer_accepted,omitempty"`
}

// =============================================================================
// TIMELINE
// =============================================================================

type TimelineYearDTO struct {
	Year      int            `json:"year"`
	TotalCost float64        `json:"total_cost"`
	Groups    []TaskGroupDTO `json:"groups"`
}

// =============================================================================
// GENERAL
// =============================================================================

type GeneralDTO struct {
	PropertyName string `json:"property_name"`
	Address      string `json:"address"`
	YearBuilt    int    `json:"year_built"`
	ImageName    string `json:"image_name,omitempty"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// =============================================================================
// MAPPERS
// =============================================================================

func toSpaceDTO(s inventory.Space) SpaceDTO {
	return SpaceDTO{ID: string(s.ID), Name: s.Name}
}

func toDefectDTO(d condition.Defect) DefectDTO {
	rv, _ := d.ReplacementValue.Float64()
	return DefectDTO{
		ID:               string(d.ID),
		Category:         d.Category,
		Material:         d.Material,
		Severity:         string(d.Severity),
		Intensity:        d.Intensity,
		ExtentPercent:    d.ExtentPercent,
		ReplacementValue: rv,
	}
}

func toPlannedWorkDTO(p planning.PlannedWork) PlannedWorkDTO {
	dto := PlannedWorkDTO{
		OfferAccepted: p.OfferAccepted,
		Comment:       p.Comment,
		Files:         p.Files,
	}
	if p.WorkDate != nil {
		s := p.WorkDate.SortKey()
		dto.WorkDate = &s
	}
	if p.StartDate != nil {
		s := p.StartDate.SortKey()
		dto.StartDate = &s
	}
	if p.EndDate != nil {
		s := p.EndDate.SortKey()
		dto.EndDate = &s
	}
	return dto
}

func toTaskDTO(t planning.Task) TaskDTO {
	return TaskDTO{
		ID:           string(t.ID),
		Name:         t.Name,
		Description:  t.Description,
		EndDate:      t.EndDate.SortKey(),
		Cost:         t.Cost.Float64(),
		Urgency:      t.Urgency,
		Grouped:      t.Grouped,
		ElementID:    string(t.ElementID),
		ElementName:  t.ElementName,
		GroupID:      string(t.GroupID),
		OfferGroupID: string(t.OfferGroupID),
		Planned:      toPlannedWorkDTO(t.Planned),
	}
}

func toElementDTO(e inventory.Element) ElementDTO {
	rv, _ := e.ReplacementValue.Float64()
	tasks := make([]TaskDTO, len(e.Tasks))
	for i, t := range e.Tasks {
		tasks[i] = toTaskDTO(t)
	}
	defects := make([]DefectDTO, len(e.Defects))
	for i, d := range e.Defects {
		defects[i] = toDefectDTO(d)
	}
	return ElementDTO{
		ID:               string(e.ID),
		Name:             e.Name,
		SpaceID:          string(e.SpaceID),
		Categories:       e.Categories,
		ReplacementValue: rv,
		ConditionScore:   e.ConditionScore,
		Tasks:            tasks,
		Defects:          defects,
	}
}

func toTaskGroupDTO(g planning.TaskGroup) TaskGroupDTO {
	rate, _ := g.IndexationRate.Float64()
	subtasks := make([]SubtaskDTO, len(g.Subtasks))
	for i, st := range g.Subtasks {
		subtasks[i] = SubtaskDTO{
			ElementID:    string(st.ElementID),
			ElementName:  st.ElementName,
			Cost:         st.Cost.Float64(),
			EndDate:      st.EndDate.SortKey(),
			OfferGroupID: string(st.OfferGroupID),
		}
	}
	return TaskGroupDTO{
		ID:                       string(g.ID),
		Name:                     g.Name,
		GroupDate:                g.GroupDate.SortKey(),
		Cost:                     g.Cost.Float64(),
		Periodic:                 g.Periodic,
		PeriodicityMonths:        g.PeriodicityMonths,
		TotalYears:               g.TotalYears,
		Indexation:               g.Indexation,
		IndexationRate:           rate,
		AssignPricesIndividually: g.AssignPricesIndividually,
		Subtasks:                 subtasks,
	}
}

func toOfferGroupDTO(og planning.OfferGroup) OfferGroupDTO {
	return OfferGroupDTO{
		ID:             string(og.ID),
		Name:           og.Name,
		EstimatedValue: og.EstimatedValue.Float64(),
		OfferPrice:     og.OfferPrice.Float64(),
		InvoicePrice:   og.InvoicePrice.Float64(),
		OfferAccepted:  og.OfferAccepted,
		WorkDate:       og.WorkDate.SortKey(),
	}
}
