package inventory

import (
	"github.com/google/uuid"

	"github.com/warp/maintenance-engine/planning"
)

// IDSource extends the planning id source with catalogue record ids.
type IDSource interface {
	planning.IDSource
	NewSpaceID() planning.SpaceID
	NewElementID() planning.ElementID
	NewDefectID() planning.DefectID
}

// UUIDSource issues random UUIDs. Uniqueness is all the engine requires.
type UUIDSource struct{}

func (UUIDSource) NewTaskID() planning.TaskID             { return planning.TaskID(uuid.NewString()) }
func (UUIDSource) NewTaskGroupID() planning.TaskGroupID   { return planning.TaskGroupID(uuid.NewString()) }
func (UUIDSource) NewOfferGroupID() planning.OfferGroupID { return planning.OfferGroupID(uuid.NewString()) }
func (UUIDSource) NewSpaceID() planning.SpaceID           { return planning.SpaceID(uuid.NewString()) }
func (UUIDSource) NewElementID() planning.ElementID       { return planning.ElementID(uuid.NewString()) }
func (UUIDSource) NewDefectID() planning.DefectID         { return planning.DefectID(uuid.NewString()) }
