package registry

import (
	"github.com/pavitra93/go-lease-management/shared/audit"
	"github.com/pavitra93/go-lease-management/shared/models"
	"github.com/pavitra93/go-lease-management/shared/store"
	"github.com/pavitra93/go-lease-management/shared/validation"
)

// TenantInput describes a new tenant
type TenantInput struct {
	Name        string `json:"name" validate:"required,min=3,max=128"`
	NationalID  string `json:"national_id" validate:"required,national_id"`
	Nationality string `json:"nationality" validate:"required,min=2,max=32"`
	Phone       string `json:"phone" validate:"required,sa_mobile"`
	Email       string `json:"email" validate:"omitempty,email,max=128"`
	Address     string `json:"address" validate:"max=256"`
	Work        string `json:"work" validate:"max=128"`
	Notes       string `json:"notes" validate:"max=1024"`
}

// TenantUpdate holds the editable tenant fields. Nil fields are left alone.
type TenantUpdate struct {
	Name        *string `json:"name" validate:"omitempty,min=3,max=128"`
	NationalID  *string `json:"national_id" validate:"omitempty,national_id"`
	Nationality *string `json:"nationality" validate:"omitempty,min=2,max=32"`
	Phone       *string `json:"phone" validate:"omitempty,sa_mobile"`
	Email       *string `json:"email" validate:"omitempty,email,max=128"`
	Address     *string `json:"address" validate:"omitempty,max=256"`
	Work        *string `json:"work" validate:"omitempty,max=128"`
	Notes       *string `json:"notes" validate:"omitempty,max=1024"`
}

// TenantFilters narrows ListTenants
type TenantFilters struct {
	Name       *string
	NationalID *string
	Phone      *string
}

// TenantService manages tenants. Tenants are soft-deleted.
type TenantService struct {
	tenants *store.Repository[models.Tenant]
	trail   *audit.Trail
}

func NewTenantService(trail *audit.Trail) *TenantService {
	return &TenantService{
		tenants: store.NewRepository[models.Tenant]("tenant"),
		trail:   trail,
	}
}

// AddTenant creates a tenant; the national id must be unused among live tenants
func (s *TenantService) AddTenant(uow *store.UnitOfWork, in TenantInput) (*models.Tenant, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	if err := requireFree(uow, s.tenants, "national_id", in.NationalID, 0); err != nil {
		return nil, err
	}

	t := &models.Tenant{
		Name:        in.Name,
		NationalID:  in.NationalID,
		Nationality: in.Nationality,
		Phone:       in.Phone,
		Email:       in.Email,
		Address:     in.Address,
		Work:        in.Work,
		Notes:       in.Notes,
	}
	if err := s.tenants.Create(uow, t); err != nil {
		return nil, err
	}

	_, err := s.trail.Append(uow, models.ActionAdd, audit.TableTenants, t.ID, map[string]any{
		"name":        t.Name,
		"national_id": t.NationalID,
	})
	if err != nil {
		return nil, err
	}
	return t, nil
}

// UpdateTenant edits a tenant
func (s *TenantService) UpdateTenant(uow *store.UnitOfWork, id uint, upd TenantUpdate) (*models.Tenant, error) {
	if err := validation.Struct(upd); err != nil {
		return nil, err
	}
	t, err := s.tenants.Get(uow, id)
	if err != nil {
		return nil, err
	}

	changes := audit.Changes{}
	if upd.NationalID != nil && *upd.NationalID != t.NationalID {
		if err := requireFree(uow, s.tenants, "national_id", *upd.NationalID, t.ID); err != nil {
			return nil, err
		}
		changes.Set("national_id", t.NationalID, *upd.NationalID)
		t.NationalID = *upd.NationalID
	}
	setString(changes, "name", &t.Name, upd.Name)
	setString(changes, "nationality", &t.Nationality, upd.Nationality)
	setString(changes, "phone", &t.Phone, upd.Phone)
	setString(changes, "email", &t.Email, upd.Email)
	setString(changes, "address", &t.Address, upd.Address)
	setString(changes, "work", &t.Work, upd.Work)
	setString(changes, "notes", &t.Notes, upd.Notes)

	if err := s.tenants.Save(uow, t); err != nil {
		return nil, err
	}
	if _, err := s.trail.Append(uow, models.ActionUpdate, audit.TableTenants, t.ID, changes); err != nil {
		return nil, err
	}
	return t, nil
}

// DeleteTenant soft-deletes a tenant
func (s *TenantService) DeleteTenant(uow *store.UnitOfWork, id uint) error {
	return remove(uow, s.tenants, s.trail, audit.TableTenants, id)
}

// GetTenant returns a tenant by id or a NotFound error
func (s *TenantService) GetTenant(uow *store.UnitOfWork, id uint) (*models.Tenant, error) {
	return s.tenants.Get(uow, id)
}

// ListTenants returns live tenants newest first
func (s *TenantService) ListTenants(uow *store.UnitOfWork, q store.ListQuery, f TenantFilters) (*models.Page[models.Tenant], error) {
	return s.tenants.List(uow, q,
		store.Contains("name", f.Name),
		store.Contains("national_id", f.NationalID),
		store.Contains("phone", f.Phone),
	)
}
