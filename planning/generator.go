/*
generator.go - Periodic task/offer generation

PURPOSE:
  Expands a single planning request into task groups, offer groups, and
  per-element tasks. The periodic case produces one expansion step per
  period per element, with compounding cost indexation; the single case
  produces one group spanning all selected elements.

EXPANSION (periodic):
  totalPeriods = floor(totalYears * 12 / periodicityMonths)
  for each period i:
      periodDate   = groupDate + i*periodicityMonths months
      yearsElapsed = whole years between groupDate and periodDate
      adjustedCost = cost * (1 + rate/100)^yearsElapsed   (if indexation)
      for each selected element:
          one TaskGroup + one OfferGroup + one Task

  So len(taskGroups) == totalPeriods * len(elements), always.

VALIDATION:
  Fatal and reported, never retried. A request is rejected before any
  record is created, so no partial output exists.

PURITY:
  Generate returns a description only. The inventory store performs the
  actual mutation, which keeps this testable in isolation.

SEE ALSO:
  - indexation.go: Cost compounding
  - errors.go: ValidationError
*/
package planning

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// ElementRef identifies a selected element by id and display name.
type ElementRef struct {
	ID   ElementID
	Name string
}

// GenerateRequest is a planning request as entered by the user.
type GenerateRequest struct {
	Name         string
	Description  string
	GroupDate    PlanDate
	Cost         float64
	Amount       float64
	DurationDays int
	SquareMeters float64
	Urgency      int

	Elements                 []ElementRef
	AssignPricesIndividually bool
	IndividualCosts          map[ElementID]float64

	Periodic          bool
	PeriodicityMonths int
	TotalYears        int
	Indexation        bool
	IndexationRate    float64
}

// Validate checks the request and returns the first problem found.
func (r GenerateRequest) Validate() *ValidationError {
	if len(r.Elements) == 0 {
		return &ValidationError{Field: "elements", Reason: "no elements selected"}
	}
	if r.GroupDate.IsZero() {
		return &ValidationError{Field: "groupDate", Reason: "missing or unparseable date"}
	}
	if r.Periodic {
		if r.PeriodicityMonths <= 0 {
			return &ValidationError{Field: "periodicityMonths", Reason: "must be greater than zero"}
		}
		if r.TotalYears <= 0 {
			return &ValidationError{Field: "totalYears", Reason: "must be greater than zero"}
		}
		if r.Indexation && r.IndexationRate < 0 {
			return &ValidationError{Field: "indexationRate", Reason: "must be zero or positive"}
		}
	} else {
		if r.Amount <= 0 {
			return &ValidationError{Field: "amount", Reason: "must be greater than zero"}
		}
	}
	if r.AssignPricesIndividually {
		for _, el := range r.Elements {
			if _, ok := r.IndividualCosts[el.ID]; !ok {
				return &ValidationError{
					Field:  "individualCosts",
					Reason: fmt.Sprintf("missing cost for element %s", el.ID),
				}
			}
		}
	}
	return nil
}

// TotalPeriods returns the number of expansion steps for a periodic
// request: floor(totalYears * 12 / periodicityMonths).
func (r GenerateRequest) TotalPeriods() int {
	if !r.Periodic || r.PeriodicityMonths <= 0 {
		return 1
	}
	return r.TotalYears * 12 / r.PeriodicityMonths
}

// Generate expands the request into tasks, task groups and offer groups.
// It returns a *ValidationError (wrapped in error) on bad input and never
// produces partial output.
func Generate(req GenerateRequest, ids IDSource) (*GenerationResult, error) {
	if verr := req.Validate(); verr != nil {
		return nil, verr
	}
	if req.Periodic {
		return generatePeriodic(req, ids), nil
	}
	return generateSingle(req, ids), nil
}

func generatePeriodic(req GenerateRequest, ids IDSource) *GenerationResult {
	result := newResult()
	rate := decimal.NewFromFloat(req.IndexationRate)
	baseCost := NewMoney(req.Cost)

	for i := 0; i < req.TotalPeriods(); i++ {
		periodDate := req.GroupDate.AddMonths(i * req.PeriodicityMonths)
		adjustedCost := baseCost
		if req.Indexation {
			yearsElapsed := WholeYearsBetween(req.GroupDate, periodDate)
			adjustedCost = IndexedCost(baseCost, rate, yearsElapsed)
		}

		// Each periodic step covers exactly one element: one group, one
		// offer, one task per element, linked by freshly assigned ids.
		for _, el := range req.Elements {
			elementCost := adjustedCost
			if req.AssignPricesIndividually {
				elementCost = NewMoney(req.IndividualCosts[el.ID])
			}

			groupID := ids.NewTaskGroupID()
			offerID := ids.NewOfferGroupID()

			result.TaskGroups = append(result.TaskGroups, TaskGroup{
				ID:                       groupID,
				Name:                     req.Name,
				GroupDate:                periodDate,
				Cost:                     adjustedCost,
				Periodic:                 true,
				PeriodicityMonths:        req.PeriodicityMonths,
				TotalYears:               req.TotalYears,
				Indexation:               req.Indexation,
				IndexationRate:           rate,
				AssignPricesIndividually: req.AssignPricesIndividually,
				DurationDays:             req.DurationDays,
				SquareMeters:             req.SquareMeters,
				Subtasks: []ElementSnapshot{{
					ElementID:    el.ID,
					ElementName:  el.Name,
					Cost:         elementCost,
					EndDate:      periodDate,
					OfferGroupID: offerID,
				}},
			})

			result.OfferGroups = append(result.OfferGroups, OfferGroup{
				ID:             offerID,
				Name:           req.Name,
				EstimatedValue: elementCost,
				WorkDate:       periodDate,
			})

			result.TasksByElement[el.ID] = append(result.TasksByElement[el.ID], Task{
				ID:           ids.NewTaskID(),
				Name:         req.Name,
				Description:  req.Description,
				EndDate:      periodDate,
				Cost:         elementCost,
				Urgency:      req.Urgency,
				Grouped:      true,
				ElementID:    el.ID,
				ElementName:  el.Name,
				GroupID:      groupID,
				OfferGroupID: offerID,
			})
		}
	}
	return result
}

func generateSingle(req GenerateRequest, ids IDSource) *GenerationResult {
	result := newResult()
	groupID := ids.NewTaskGroupID()
	offerID := ids.NewOfferGroupID()

	flatCost := NewMoney(req.Cost)
	total := ZeroMoney()
	subtasks := make([]ElementSnapshot, 0, len(req.Elements))

	for _, el := range req.Elements {
		elementCost := flatCost
		if req.AssignPricesIndividually {
			elementCost = NewMoney(req.IndividualCosts[el.ID])
			total = total.Add(elementCost)
		}
		subtasks = append(subtasks, ElementSnapshot{
			ElementID:    el.ID,
			ElementName:  el.Name,
			Cost:         elementCost,
			EndDate:      req.GroupDate,
			OfferGroupID: offerID,
		})
	}

	// Estimated value is either the sum of individual costs or the flat cost.
	estimate := flatCost
	if req.AssignPricesIndividually {
		estimate = total
	}

	result.TaskGroups = append(result.TaskGroups, TaskGroup{
		ID:                       groupID,
		Name:                     req.Name,
		GroupDate:                req.GroupDate,
		Cost:                     estimate,
		AssignPricesIndividually: req.AssignPricesIndividually,
		DurationDays:             req.DurationDays,
		SquareMeters:             req.SquareMeters,
		Subtasks:                 subtasks,
	})

	result.OfferGroups = append(result.OfferGroups, OfferGroup{
		ID:             offerID,
		Name:           req.Name,
		EstimatedValue: estimate,
		WorkDate:       req.GroupDate,
	})

	for _, st := range subtasks {
		result.TasksByElement[st.ElementID] = append(result.TasksByElement[st.ElementID], Task{
			ID:           ids.NewTaskID(),
			Name:         req.Name,
			Description:  req.Description,
			EndDate:      req.GroupDate,
			Cost:         st.Cost,
			Urgency:      req.Urgency,
			Grouped:      true,
			ElementID:    st.ElementID,
			ElementName:  st.ElementName,
			GroupID:      groupID,
			OfferGroupID: offerID,
		})
	}
	return result
}

func newResult() *GenerationResult {
	return &GenerationResult{TasksByElement: make(map[ElementID][]Task)}
}
