package registry

import (
	"github.com/pavitra93/go-lease-management/shared/audit"
	"github.com/pavitra93/go-lease-management/shared/models"
	"github.com/pavitra93/go-lease-management/shared/store"
	"github.com/pavitra93/go-lease-management/shared/validation"
)

// OwnerInput describes a new owner
type OwnerInput struct {
	Name               string `json:"name" validate:"required,min=3,max=128"`
	RegistrationNumber string `json:"registration_number" validate:"required,min=10,max=32"`
	Nationality        string `json:"nationality" validate:"required,min=2,max=32"`
	IBAN               string `json:"iban" validate:"omitempty,max=34"`
	AgentName          string `json:"agent_name" validate:"omitempty,max=128"`
	Notes              string `json:"notes" validate:"max=1024"`
}

// OwnerUpdate holds the editable owner fields. Nil fields are left alone.
type OwnerUpdate struct {
	Name               *string `json:"name" validate:"omitempty,min=3,max=128"`
	RegistrationNumber *string `json:"registration_number" validate:"omitempty,min=10,max=32"`
	Nationality        *string `json:"nationality" validate:"omitempty,min=2,max=32"`
	IBAN               *string `json:"iban" validate:"omitempty,max=34"`
	AgentName          *string `json:"agent_name" validate:"omitempty,max=128"`
	Notes              *string `json:"notes" validate:"omitempty,max=1024"`
}

// OwnerFilters narrows ListOwners
type OwnerFilters struct {
	Name               *string
	RegistrationNumber *string
	Nationality        *string
}

// OwnerService manages owners. Owners are soft-deleted; their units keep the reference.
type OwnerService struct {
	owners *store.Repository[models.Owner]
	trail  *audit.Trail
}

func NewOwnerService(trail *audit.Trail) *OwnerService {
	return &OwnerService{
		owners: store.NewRepository[models.Owner]("owner"),
		trail:  trail,
	}
}

// AddOwner creates an owner; the registration number must be unused among live owners
func (s *OwnerService) AddOwner(uow *store.UnitOfWork, in OwnerInput) (*models.Owner, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	if err := requireFree(uow, s.owners, "registration_number", in.RegistrationNumber, 0); err != nil {
		return nil, err
	}

	o := &models.Owner{
		Name:               in.Name,
		RegistrationNumber: in.RegistrationNumber,
		Nationality:        in.Nationality,
		IBAN:               in.IBAN,
		AgentName:          in.AgentName,
		Notes:              in.Notes,
	}
	if err := s.owners.Create(uow, o); err != nil {
		return nil, err
	}

	_, err := s.trail.Append(uow, models.ActionAdd, audit.TableOwners, o.ID, map[string]any{
		"name":                o.Name,
		"registration_number": o.RegistrationNumber,
	})
	if err != nil {
		return nil, err
	}
	return o, nil
}

// UpdateOwner edits an owner
func (s *OwnerService) UpdateOwner(uow *store.UnitOfWork, id uint, upd OwnerUpdate) (*models.Owner, error) {
	if err := validation.Struct(upd); err != nil {
		return nil, err
	}
	o, err := s.owners.Get(uow, id)
	if err != nil {
		return nil, err
	}

	changes := audit.Changes{}
	if upd.RegistrationNumber != nil && *upd.RegistrationNumber != o.RegistrationNumber {
		if err := requireFree(uow, s.owners, "registration_number", *upd.RegistrationNumber, o.ID); err != nil {
			return nil, err
		}
		changes.Set("registration_number", o.RegistrationNumber, *upd.RegistrationNumber)
		o.RegistrationNumber = *upd.RegistrationNumber
	}
	setString(changes, "name", &o.Name, upd.Name)
	setString(changes, "nationality", &o.Nationality, upd.Nationality)
	setString(changes, "iban", &o.IBAN, upd.IBAN)
	setString(changes, "agent_name", &o.AgentName, upd.AgentName)
	setString(changes, "notes", &o.Notes, upd.Notes)

	if err := s.owners.Save(uow, o); err != nil {
		return nil, err
	}
	if _, err := s.trail.Append(uow, models.ActionUpdate, audit.TableOwners, o.ID, changes); err != nil {
		return nil, err
	}
	return o, nil
}

// DeleteOwner soft-deletes an owner
func (s *OwnerService) DeleteOwner(uow *store.UnitOfWork, id uint) error {
	return remove(uow, s.owners, s.trail, audit.TableOwners, id)
}

// GetOwner returns an owner by id or a NotFound error
func (s *OwnerService) GetOwner(uow *store.UnitOfWork, id uint) (*models.Owner, error) {
	return s.owners.Get(uow, id)
}

// ListOwners returns live owners newest first
func (s *OwnerService) ListOwners(uow *store.UnitOfWork, q store.ListQuery, f OwnerFilters) (*models.Page[models.Owner], error) {
	return s.owners.List(uow, q,
		store.Contains("name", f.Name),
		store.Contains("registration_number", f.RegistrationNumber),
		store.Contains("nationality", f.Nationality),
	)
}

// setString applies an optional string update and records it
func setString(changes audit.Changes, field string, dst *string, src *string) {
	if src == nil {
		return
	}
	changes.Set(field, *dst, *src)
	*dst = *src
}
