package registry

import (
	"time"

	"github.com/pavitra93/go-lease-management/shared/apperror"
	"github.com/pavitra93/go-lease-management/shared/audit"
	"github.com/pavitra93/go-lease-management/shared/models"
	"github.com/pavitra93/go-lease-management/shared/store"
	"github.com/pavitra93/go-lease-management/shared/validation"
)

// AttachmentInput describes a document attached to exactly one parent row
type AttachmentInput struct {
	Filepath       string                `json:"filepath" validate:"required,min=1,max=256"`
	Filetype       string                `json:"filetype" validate:"required,min=2,max=32"`
	AttachmentType models.AttachmentType `json:"attachment_type" validate:"omitempty,oneof=identity contract invoice general"`
	OwnerID        *uint                 `json:"owner_id"`
	UnitID         *uint                 `json:"unit_id"`
	TenantID       *uint                 `json:"tenant_id"`
	ContractID     *uint                 `json:"contract_id"`
	InvoiceID      *uint                 `json:"invoice_id"`
	Notes          string                `json:"notes" validate:"max=1024"`
}

// AttachmentUpdate holds the editable attachment fields. The parent cannot change.
type AttachmentUpdate struct {
	Filepath       *string                `json:"filepath" validate:"omitempty,min=1,max=256"`
	Filetype       *string                `json:"filetype" validate:"omitempty,min=2,max=32"`
	AttachmentType *models.AttachmentType `json:"attachment_type" validate:"omitempty,oneof=identity contract invoice general"`
	Notes          *string                `json:"notes" validate:"omitempty,max=1024"`
}

// AttachmentFilters narrows ListAttachments
type AttachmentFilters struct {
	AttachmentType *models.AttachmentType
	OwnerID        *uint
	UnitID         *uint
	TenantID       *uint
	ContractID     *uint
	InvoiceID      *uint
}

// AttachmentService manages attachment metadata. File bytes live elsewhere.
type AttachmentService struct {
	attachments *store.Repository[models.Attachment]
	owners      *store.Repository[models.Owner]
	units       *store.Repository[models.Unit]
	tenants     *store.Repository[models.Tenant]
	contracts   *store.Repository[models.Contract]
	invoices    *store.Repository[models.Invoice]
	trail       *audit.Trail
	now         func() time.Time
}

func NewAttachmentService(trail *audit.Trail) *AttachmentService {
	return &AttachmentService{
		attachments: store.NewRepository[models.Attachment]("attachment"),
		owners:      store.NewRepository[models.Owner]("owner"),
		units:       store.NewRepository[models.Unit]("unit"),
		tenants:     store.NewRepository[models.Tenant]("tenant"),
		contracts:   store.NewRepository[models.Contract]("contract"),
		invoices:    store.NewRepository[models.Invoice]("invoice"),
		trail:       trail,
		now:         time.Now,
	}
}

// AddAttachment records a document against its parent
func (s *AttachmentService) AddAttachment(uow *store.UnitOfWork, in AttachmentInput) (*models.Attachment, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	parent, err := s.checkParent(uow, in)
	if err != nil {
		return nil, err
	}
	kind := in.AttachmentType
	if kind == "" {
		kind = models.AttachmentGeneral
	}

	a := &models.Attachment{
		Filepath:       in.Filepath,
		Filetype:       in.Filetype,
		AttachmentType: kind,
		OwnerID:        in.OwnerID,
		UnitID:         in.UnitID,
		TenantID:       in.TenantID,
		ContractID:     in.ContractID,
		InvoiceID:      in.InvoiceID,
		Notes:          in.Notes,
		UploadedAt:     s.now().UTC(),
	}
	if err := s.attachments.Create(uow, a); err != nil {
		return nil, err
	}

	_, err = s.trail.Append(uow, models.ActionAdd, audit.TableAttachments, a.ID, map[string]any{
		"filepath":        a.Filepath,
		"attachment_type": string(a.AttachmentType),
		"parent":          parent,
	})
	if err != nil {
		return nil, err
	}
	return a, nil
}

// checkParent enforces exactly one live parent and returns it as "entity:id"
func (s *AttachmentService) checkParent(uow *store.UnitOfWork, in AttachmentInput) (string, error) {
	type link struct {
		id    *uint
		check func(uint) error
		name  string
	}
	links := []link{
		{in.OwnerID, func(id uint) error { return requireLive(uow, s.owners, id) }, "owner"},
		{in.UnitID, func(id uint) error { return requireLive(uow, s.units, id) }, "unit"},
		{in.TenantID, func(id uint) error { return requireLive(uow, s.tenants, id) }, "tenant"},
		{in.ContractID, func(id uint) error { return requireLive(uow, s.contracts, id) }, "contract"},
		{in.InvoiceID, func(id uint) error { return requireLive(uow, s.invoices, id) }, "invoice"},
	}

	var set []link
	for _, l := range links {
		if l.id != nil {
			set = append(set, l)
		}
	}
	if len(set) != 1 {
		return "", apperror.Validation("an attachment must reference exactly one of owner, unit, tenant, contract or invoice")
	}
	if err := set[0].check(*set[0].id); err != nil {
		return "", err
	}
	return set[0].name, nil
}

// UpdateAttachment edits attachment metadata
func (s *AttachmentService) UpdateAttachment(uow *store.UnitOfWork, id uint, upd AttachmentUpdate) (*models.Attachment, error) {
	if err := validation.Struct(upd); err != nil {
		return nil, err
	}
	a, err := s.attachments.Get(uow, id)
	if err != nil {
		return nil, err
	}

	changes := audit.Changes{}
	setString(changes, "filepath", &a.Filepath, upd.Filepath)
	setString(changes, "filetype", &a.Filetype, upd.Filetype)
	setString(changes, "notes", &a.Notes, upd.Notes)
	if upd.AttachmentType != nil {
		changes.Set("attachment_type", string(a.AttachmentType), string(*upd.AttachmentType))
		a.AttachmentType = *upd.AttachmentType
	}

	if err := s.attachments.Save(uow, a); err != nil {
		return nil, err
	}
	if _, err := s.trail.Append(uow, models.ActionUpdate, audit.TableAttachments, a.ID, changes); err != nil {
		return nil, err
	}
	return a, nil
}

// DeleteAttachment removes attachment metadata
func (s *AttachmentService) DeleteAttachment(uow *store.UnitOfWork, id uint) error {
	return remove(uow, s.attachments, s.trail, audit.TableAttachments, id)
}

// GetAttachment returns an attachment by id or a NotFound error
func (s *AttachmentService) GetAttachment(uow *store.UnitOfWork, id uint) (*models.Attachment, error) {
	return s.attachments.Get(uow, id)
}

// ListAttachments returns attachments newest first
func (s *AttachmentService) ListAttachments(uow *store.UnitOfWork, q store.ListQuery, f AttachmentFilters) (*models.Page[models.Attachment], error) {
	return s.attachments.List(uow, q,
		store.Equal("attachment_type", f.AttachmentType),
		store.Equal("owner_id", f.OwnerID),
		store.Equal("unit_id", f.UnitID),
		store.Equal("tenant_id", f.TenantID),
		store.Equal("contract_id", f.ContractID),
		store.Equal("invoice_id", f.InvoiceID),
	)
}
