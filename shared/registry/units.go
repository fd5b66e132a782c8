package registry

import (
	"github.com/pavitra93/go-lease-management/shared/apperror"
	"github.com/pavitra93/go-lease-management/shared/audit"
	"github.com/pavitra93/go-lease-management/shared/models"
	"github.com/pavitra93/go-lease-management/shared/store"
	"github.com/pavitra93/go-lease-management/shared/validation"
)

// UnitInput describes a new unit
type UnitInput struct {
	UnitNumber   string            `json:"unit_number" validate:"required,min=1,max=64"`
	UnitType     string            `json:"unit_type" validate:"required,min=2,max=64"`
	Rooms        int               `json:"rooms" validate:"gte=0"`
	Area         float64           `json:"area" validate:"gte=0"`
	Location     string            `json:"location" validate:"required,min=2,max=256"`
	Status       models.UnitStatus `json:"status"`
	BuildingName string            `json:"building_name" validate:"max=128"`
	FloorNumber  *int              `json:"floor_number"`
	Notes        string            `json:"notes" validate:"max=1024"`
	OwnerID      *uint             `json:"owner_id"`
}

// UnitUpdate holds the editable unit fields. Nil fields are left alone.
type UnitUpdate struct {
	UnitNumber   *string            `json:"unit_number" validate:"omitempty,min=1,max=64"`
	UnitType     *string            `json:"unit_type" validate:"omitempty,min=2,max=64"`
	Rooms        *int               `json:"rooms" validate:"omitempty,gte=0"`
	Area         *float64           `json:"area" validate:"omitempty,gte=0"`
	Location     *string            `json:"location" validate:"omitempty,min=2,max=256"`
	Status       *models.UnitStatus `json:"status"`
	BuildingName *string            `json:"building_name" validate:"omitempty,max=128"`
	FloorNumber  *int               `json:"floor_number"`
	Notes        *string            `json:"notes" validate:"omitempty,max=1024"`
	OwnerID      *uint              `json:"owner_id"`
}

// UnitFilters narrows ListUnits
type UnitFilters struct {
	UnitNumber *string
	OwnerID    *uint
	Status     *models.UnitStatus
}

// UnitService manages units. Units are soft-deleted.
type UnitService struct {
	units  *store.Repository[models.Unit]
	owners *store.Repository[models.Owner]
	trail  *audit.Trail
}

func NewUnitService(trail *audit.Trail) *UnitService {
	return &UnitService{
		units:  store.NewRepository[models.Unit]("unit"),
		owners: store.NewRepository[models.Owner]("owner"),
		trail:  trail,
	}
}

// AddUnit creates a unit. An owner, when given, must be live.
func (s *UnitService) AddUnit(uow *store.UnitOfWork, in UnitInput) (*models.Unit, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	status := in.Status
	if status == "" {
		status = models.UnitAvailable
	}
	if !status.Valid() {
		return nil, apperror.Validation("unknown unit status %q", status)
	}
	if in.OwnerID != nil {
		if err := requireLive(uow, s.owners, *in.OwnerID); err != nil {
			return nil, err
		}
	}
	if err := requireFree(uow, s.units, "unit_number", in.UnitNumber, 0); err != nil {
		return nil, err
	}

	u := &models.Unit{
		UnitNumber:   in.UnitNumber,
		UnitType:     in.UnitType,
		Rooms:        in.Rooms,
		Area:         in.Area,
		Location:     in.Location,
		Status:       status,
		BuildingName: in.BuildingName,
		FloorNumber:  in.FloorNumber,
		Notes:        in.Notes,
		OwnerID:      in.OwnerID,
	}
	if err := s.units.Create(uow, u); err != nil {
		return nil, err
	}

	_, err := s.trail.Append(uow, models.ActionAdd, audit.TableUnits, u.ID, map[string]any{
		"unit_number": u.UnitNumber,
		"owner_id":    u.OwnerID,
	})
	if err != nil {
		return nil, err
	}
	return u, nil
}

// UpdateUnit edits a unit
func (s *UnitService) UpdateUnit(uow *store.UnitOfWork, id uint, upd UnitUpdate) (*models.Unit, error) {
	if err := validation.Struct(upd); err != nil {
		return nil, err
	}
	u, err := s.units.Get(uow, id)
	if err != nil {
		return nil, err
	}

	changes := audit.Changes{}
	if upd.UnitNumber != nil && *upd.UnitNumber != u.UnitNumber {
		if err := requireFree(uow, s.units, "unit_number", *upd.UnitNumber, u.ID); err != nil {
			return nil, err
		}
		changes.Set("unit_number", u.UnitNumber, *upd.UnitNumber)
		u.UnitNumber = *upd.UnitNumber
	}
	if upd.OwnerID != nil && (u.OwnerID == nil || *u.OwnerID != *upd.OwnerID) {
		if err := requireLive(uow, s.owners, *upd.OwnerID); err != nil {
			return nil, err
		}
		changes["owner_id"] = *upd.OwnerID
		u.OwnerID = upd.OwnerID
	}
	if upd.Status != nil {
		if !upd.Status.Valid() {
			return nil, apperror.Validation("unknown unit status %q", *upd.Status)
		}
		changes.Set("status", u.Status, *upd.Status)
		u.Status = *upd.Status
	}
	if upd.Rooms != nil {
		changes.Set("rooms", u.Rooms, *upd.Rooms)
		u.Rooms = *upd.Rooms
	}
	if upd.Area != nil {
		changes.Set("area", u.Area, *upd.Area)
		u.Area = *upd.Area
	}
	if upd.FloorNumber != nil {
		changes["floor_number"] = *upd.FloorNumber
		u.FloorNumber = upd.FloorNumber
	}
	setString(changes, "unit_type", &u.UnitType, upd.UnitType)
	setString(changes, "location", &u.Location, upd.Location)
	setString(changes, "building_name", &u.BuildingName, upd.BuildingName)
	setString(changes, "notes", &u.Notes, upd.Notes)

	if err := s.units.Save(uow, u); err != nil {
		return nil, err
	}
	if _, err := s.trail.Append(uow, models.ActionUpdate, audit.TableUnits, u.ID, changes); err != nil {
		return nil, err
	}
	return u, nil
}

// DeleteUnit soft-deletes a unit. Contracts on it are kept.
func (s *UnitService) DeleteUnit(uow *store.UnitOfWork, id uint) error {
	return remove(uow, s.units, s.trail, audit.TableUnits, id)
}

// GetUnit returns a unit by id or a NotFound error
func (s *UnitService) GetUnit(uow *store.UnitOfWork, id uint) (*models.Unit, error) {
	return s.units.Get(uow, id)
}

// ListUnits returns live units newest first
func (s *UnitService) ListUnits(uow *store.UnitOfWork, q store.ListQuery, f UnitFilters) (*models.Page[models.Unit], error) {
	return s.units.List(uow, q,
		store.Contains("unit_number", f.UnitNumber),
		store.Equal("owner_id", f.OwnerID),
		store.Equal("status", f.Status),
	)
}
