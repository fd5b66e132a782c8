package lease

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/pavitra93/go-lease-management/shared/apperror"
	"github.com/pavitra93/go-lease-management/shared/audit"
	"github.com/pavitra93/go-lease-management/shared/billing"
	"github.com/pavitra93/go-lease-management/shared/models"
	"github.com/pavitra93/go-lease-management/shared/store"
	"github.com/pavitra93/go-lease-management/shared/validation"
)

// ContractInput describes a new contract. RentAmount is the annual rent.
type ContractInput struct {
	ContractNumber string                `json:"contract_number" validate:"required,min=2,max=64"`
	UnitID         uint                  `json:"unit_id" validate:"required"`
	TenantID       uint                  `json:"tenant_id" validate:"required"`
	StartDate      time.Time             `json:"start_date" validate:"required"`
	EndDate        time.Time             `json:"end_date" validate:"required"`
	DurationMonths int                   `json:"duration_months" validate:"gt=0"`
	RentAmount     decimal.Decimal       `json:"rent_amount"`
	RentalPlatform string                `json:"rental_platform" validate:"max=64"`
	PaymentType    models.PaymentType    `json:"payment_type" validate:"max=32"`
	Status         models.ContractStatus `json:"status"`
	Notes          string                `json:"notes" validate:"max=1024"`
}

// ContractUpdate holds the fields of a contract that may change. Nil fields are left alone.
type ContractUpdate struct {
	ContractNumber *string                `json:"contract_number" validate:"omitempty,min=2,max=64"`
	UnitID         *uint                  `json:"unit_id" validate:"omitempty,gt=0"`
	TenantID       *uint                  `json:"tenant_id" validate:"omitempty,gt=0"`
	StartDate      *time.Time             `json:"start_date"`
	EndDate        *time.Time             `json:"end_date"`
	DurationMonths *int                   `json:"duration_months" validate:"omitempty,gt=0"`
	RentAmount     *decimal.Decimal       `json:"rent_amount"`
	RentalPlatform *string                `json:"rental_platform" validate:"omitempty,max=64"`
	PaymentType    *models.PaymentType    `json:"payment_type" validate:"omitempty,max=32"`
	Status         *models.ContractStatus `json:"status"`
	Notes          *string                `json:"notes" validate:"omitempty,max=1024"`
}

// ContractFilters narrows ListContracts
type ContractFilters struct {
	ContractNumber *string
	UnitID         *uint
	TenantID       *uint
	Status         *models.ContractStatus
}

// Service runs the contract lifecycle
type Service struct {
	contracts   *store.Repository[models.Contract]
	units       *store.Repository[models.Unit]
	tenants     *store.Repository[models.Tenant]
	attachments *store.Repository[models.Attachment]
	conflicts   ConflictValidator
	scheduler   *billing.Scheduler
	invoices    *billing.InvoiceService
	trail       *audit.Trail
	locker      Locker
	warningDays int
	log         *logrus.Entry
}

// Option configures a Service
type Option func(*Service)

// WithLocker sets the lock taken around conflict checks
func WithLocker(l Locker) Option {
	return func(s *Service) {
		if l != nil {
			s.locker = l
		}
	}
}

// WithWarningDays sets how close to its end a contract turns to warning
func WithWarningDays(days int) Option {
	return func(s *Service) {
		s.warningDays = days
	}
}

// NewService creates a contract lifecycle service
func NewService(trail *audit.Trail, scheduler *billing.Scheduler, invoices *billing.InvoiceService, log *logrus.Entry, opts ...Option) *Service {
	s := &Service{
		contracts:   store.NewRepository[models.Contract]("contract"),
		units:       store.NewRepository[models.Unit]("unit"),
		tenants:     store.NewRepository[models.Tenant]("tenant"),
		attachments: store.NewRepository[models.Attachment]("attachment"),
		scheduler:   scheduler,
		invoices:    invoices,
		trail:       trail,
		locker:      nopLocker{},
		warningDays: 30,
		log:         log.WithField("component", "lease"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func checkRange(start, end time.Time) error {
	if end.Before(start) {
		return apperror.Validation("end_date %s is before start_date %s",
			end.Format(models.DateLayout), start.Format(models.DateLayout))
	}
	return nil
}

func normalizePaymentType(pt models.PaymentType) models.PaymentType {
	if canonical, ok := models.ParsePaymentType(string(pt)); ok {
		return canonical
	}
	return pt
}

func (s *Service) checkNumberFree(uow *store.UnitOfWork, number string, excludeID uint) error {
	taken, err := s.contracts.Taken(uow, "contract_number", number, excludeID)
	if err != nil {
		return err
	}
	if taken {
		return apperror.AlreadyExists("contract number %q is already in use", number)
	}
	return nil
}

func (s *Service) checkUnit(uow *store.UnitOfWork, id uint) error {
	ok, err := s.units.Exists(uow, id)
	if err != nil {
		return err
	}
	if !ok {
		return apperror.Validation("unit %d does not exist", id)
	}
	return nil
}

func (s *Service) checkTenant(uow *store.UnitOfWork, id uint) error {
	ok, err := s.tenants.Exists(uow, id)
	if err != nil {
		return err
	}
	if !ok {
		return apperror.Validation("tenant %d does not exist", id)
	}
	return nil
}

// lockUnit holds the unit lock until uow ends
func (s *Service) lockUnit(uow *store.UnitOfWork, unitID uint) error {
	unlock, err := s.locker.Lock(uow.Context(), unitLockKey(unitID))
	if err != nil {
		return fmt.Errorf("failed to lock unit %d: %w", unitID, err)
	}
	uow.Finally(unlock)
	return nil
}

func (s *Service) checkFree(uow *store.UnitOfWork, unitID uint, start, end time.Time, excludeID *uint) error {
	conflict, err := s.conflicts.HasConflict(uow, unitID, start, end, excludeID)
	if err != nil {
		return err
	}
	if conflict {
		return apperror.Conflict("unit %d is already leased between %s and %s",
			unitID, start.Format(models.DateLayout), end.Format(models.DateLayout))
	}
	return nil
}

// AddContract validates and stores a contract, then generates its invoice
// schedule in the same unit of work. The returned contract carries the invoices.
func (s *Service) AddContract(uow *store.UnitOfWork, in ContractInput) (*models.Contract, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	start, end := models.Date(in.StartDate), models.Date(in.EndDate)
	if err := checkRange(start, end); err != nil {
		return nil, err
	}
	if !in.RentAmount.IsPositive() {
		return nil, apperror.Validation("rent_amount must be greater than 0")
	}
	status := in.Status
	if status == "" {
		status = models.ContractActive
	}
	if !status.Valid() {
		return nil, apperror.Validation("unknown contract status %q", status)
	}

	if err := s.checkNumberFree(uow, in.ContractNumber, 0); err != nil {
		return nil, err
	}
	if err := s.checkUnit(uow, in.UnitID); err != nil {
		return nil, err
	}
	if err := s.checkTenant(uow, in.TenantID); err != nil {
		return nil, err
	}

	if err := s.lockUnit(uow, in.UnitID); err != nil {
		return nil, err
	}
	if err := s.checkFree(uow, in.UnitID, start, end, nil); err != nil {
		uow.Log().WithError(err).Debug("Rejected overlapping contract")
		return nil, err
	}

	c := &models.Contract{
		ContractNumber: in.ContractNumber,
		UnitID:         in.UnitID,
		TenantID:       in.TenantID,
		StartDate:      start,
		EndDate:        end,
		DurationMonths: in.DurationMonths,
		RentAmount:     in.RentAmount.Round(2),
		RentalPlatform: in.RentalPlatform,
		PaymentType:    normalizePaymentType(in.PaymentType),
		Status:         status,
		Notes:          in.Notes,
	}
	if err := s.contracts.Create(uow, c); err != nil {
		return nil, err
	}

	invoices, err := s.scheduler.Generate(uow, c)
	if err != nil {
		return nil, err
	}
	c.Invoices = invoices

	_, err = s.trail.Append(uow, models.ActionAdd, audit.TableContracts, c.ID, map[string]any{
		"contract_number": c.ContractNumber,
		"unit_id":         c.UnitID,
		"tenant_id":       c.TenantID,
		"invoices":        len(invoices),
	})
	if err != nil {
		return nil, err
	}

	uow.Log().WithFields(logrus.Fields{
		"contract_id": c.ID,
		"unit_id":     c.UnitID,
	}).Info("Contract added")
	return c, nil
}

// UpdateContract applies upd. Moving the contract in time or to another unit
// re-runs the conflict check against every other contract. Invoices are not
// regenerated.
func (s *Service) UpdateContract(uow *store.UnitOfWork, id uint, upd ContractUpdate) (*models.Contract, error) {
	if err := validation.Struct(upd); err != nil {
		return nil, err
	}

	c, err := s.contracts.Get(uow, id)
	if err != nil {
		return nil, err
	}

	changes := audit.Changes{}

	if upd.ContractNumber != nil && *upd.ContractNumber != c.ContractNumber {
		if err := s.checkNumberFree(uow, *upd.ContractNumber, c.ID); err != nil {
			return nil, err
		}
		changes.Set("contract_number", c.ContractNumber, *upd.ContractNumber)
		c.ContractNumber = *upd.ContractNumber
	}

	unitID, start, end := c.UnitID, c.StartDate, c.EndDate
	if upd.UnitID != nil {
		unitID = *upd.UnitID
	}
	if upd.StartDate != nil {
		start = models.Date(*upd.StartDate)
	}
	if upd.EndDate != nil {
		end = models.Date(*upd.EndDate)
	}

	if unitID != c.UnitID || !start.Equal(c.StartDate) || !end.Equal(c.EndDate) {
		if err := checkRange(start, end); err != nil {
			return nil, err
		}
		if unitID != c.UnitID {
			if err := s.checkUnit(uow, unitID); err != nil {
				return nil, err
			}
		}
		if err := s.lockUnit(uow, unitID); err != nil {
			return nil, err
		}
		if err := s.checkFree(uow, unitID, start, end, &c.ID); err != nil {
			return nil, err
		}

		changes.Set("unit_id", c.UnitID, unitID)
		changes.Set("start_date", c.StartDate.Format(models.DateLayout), start.Format(models.DateLayout))
		changes.Set("end_date", c.EndDate.Format(models.DateLayout), end.Format(models.DateLayout))
		c.UnitID, c.StartDate, c.EndDate = unitID, start, end
	}

	if upd.TenantID != nil && *upd.TenantID != c.TenantID {
		if err := s.checkTenant(uow, *upd.TenantID); err != nil {
			return nil, err
		}
		changes.Set("tenant_id", c.TenantID, *upd.TenantID)
		c.TenantID = *upd.TenantID
	}
	if upd.DurationMonths != nil {
		changes.Set("duration_months", c.DurationMonths, *upd.DurationMonths)
		c.DurationMonths = *upd.DurationMonths
	}
	if upd.RentAmount != nil {
		if !upd.RentAmount.IsPositive() {
			return nil, apperror.Validation("rent_amount must be greater than 0")
		}
		changes.Set("rent_amount", c.RentAmount.StringFixed(2), upd.RentAmount.StringFixed(2))
		c.RentAmount = upd.RentAmount.Round(2)
	}
	if upd.RentalPlatform != nil {
		changes.Set("rental_platform", c.RentalPlatform, *upd.RentalPlatform)
		c.RentalPlatform = *upd.RentalPlatform
	}
	if upd.PaymentType != nil {
		pt := normalizePaymentType(*upd.PaymentType)
		changes.Set("payment_type", c.PaymentType, pt)
		c.PaymentType = pt
	}
	if upd.Status != nil {
		if !upd.Status.Valid() {
			return nil, apperror.Validation("unknown contract status %q", *upd.Status)
		}
		changes.Set("status", c.Status, *upd.Status)
		c.Status = *upd.Status
	}
	if upd.Notes != nil {
		changes.Set("notes", c.Notes, *upd.Notes)
		c.Notes = *upd.Notes
	}

	if err := s.contracts.Save(uow, c); err != nil {
		return nil, err
	}
	if _, err := s.trail.Append(uow, models.ActionUpdate, audit.TableContracts, c.ID, changes); err != nil {
		return nil, err
	}
	return c, nil
}

// DeleteContract removes a contract with its invoices, payments and attachments
func (s *Service) DeleteContract(uow *store.UnitOfWork, id uint) error {
	c, err := s.contracts.Get(uow, id)
	if err != nil {
		return err
	}

	invoiceIDs, paymentIDs, err := s.invoices.DeleteForContract(uow, c.ID)
	if err != nil {
		return err
	}

	attachmentIDs, err := s.attachments.DeleteWhere(uow, store.Where("contract_id = ?", c.ID))
	if err != nil {
		return err
	}
	for _, aid := range attachmentIDs {
		if _, err := s.trail.Append(uow, models.ActionDelete, audit.TableAttachments, aid, map[string]any{"contract_id": c.ID}); err != nil {
			return err
		}
	}

	if _, err := s.contracts.Delete(uow, c.ID); err != nil {
		return err
	}

	_, err = s.trail.Append(uow, models.ActionDelete, audit.TableContracts, c.ID, map[string]any{
		"contract_number":     c.ContractNumber,
		"invoices_removed":    len(invoiceIDs),
		"payments_removed":    len(paymentIDs),
		"attachments_removed": len(attachmentIDs),
	})
	if err != nil {
		return err
	}

	uow.Log().WithField("contract_id", c.ID).Info("Contract deleted")
	return nil
}

// GetContract returns a contract by id or a NotFound error
func (s *Service) GetContract(uow *store.UnitOfWork, id uint) (*models.Contract, error) {
	return s.contracts.Get(uow, id)
}

// ListContracts returns contracts newest first
func (s *Service) ListContracts(uow *store.UnitOfWork, q store.ListQuery, f ContractFilters) (*models.Page[models.Contract], error) {
	return s.contracts.List(uow, q,
		store.Contains("contract_number", f.ContractNumber),
		store.Equal("unit_id", f.UnitID),
		store.Equal("tenant_id", f.TenantID),
		store.Equal("status", f.Status),
	)
}
