package billing

import (
	"slices"
	"time"

	"github.com/shopspring/decimal"

	"github.com/pavitra93/go-lease-management/shared/apperror"
	"github.com/pavitra93/go-lease-management/shared/audit"
	"github.com/pavitra93/go-lease-management/shared/models"
	"github.com/pavitra93/go-lease-management/shared/store"
	"github.com/pavitra93/go-lease-management/shared/validation"
)

// InvoiceInput describes an invoice added outside the generated schedule
type InvoiceInput struct {
	ContractID  uint            `json:"contract_id" validate:"required"`
	DateIssued  time.Time       `json:"date_issued" validate:"required"`
	Amount      decimal.Decimal `json:"amount"`
	SentToEmail bool            `json:"sent_to_email"`
	Notes       string          `json:"notes" validate:"max=1024"`
}

// InvoiceUpdate holds the editable invoice fields. Status is always derived.
type InvoiceUpdate struct {
	DateIssued  *time.Time       `json:"date_issued"`
	Amount      *decimal.Decimal `json:"amount"`
	SentToEmail *bool            `json:"sent_to_email"`
	Notes       *string          `json:"notes" validate:"omitempty,max=1024"`
}

// InvoiceFilters narrows ListInvoices
type InvoiceFilters struct {
	ContractID *uint
	Status     *models.InvoiceStatus
}

// InvoiceService manages invoices directly
type InvoiceService struct {
	invoices    *store.Repository[models.Invoice]
	payments    *store.Repository[models.Payment]
	contracts   *store.Repository[models.Contract]
	attachments *store.Repository[models.Attachment]
	reconciler  *Reconciler
	trail       *audit.Trail
}

// NewInvoiceService creates an InvoiceService
func NewInvoiceService(reconciler *Reconciler, trail *audit.Trail) *InvoiceService {
	return &InvoiceService{
		invoices:    store.NewRepository[models.Invoice]("invoice"),
		payments:    store.NewRepository[models.Payment]("payment"),
		contracts:   store.NewRepository[models.Contract]("contract"),
		attachments: store.NewRepository[models.Attachment]("attachment"),
		reconciler:  reconciler,
		trail:       trail,
	}
}

func checkAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return apperror.Validation("amount must be greater than 0")
	}
	return nil
}

func (s *InvoiceService) checkDateFree(uow *store.UnitOfWork, contractID uint, date time.Time, excludeID uint) error {
	filters := []store.Filter{store.Where("contract_id = ? AND date_issued = ?", contractID, date)}
	if excludeID != 0 {
		filters = append(filters, store.Where("id <> ?", excludeID))
	}
	existing, err := s.invoices.Find(uow, filters...)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return apperror.Validation("contract %d already has an invoice issued on %s", contractID, date.Format(models.DateLayout))
	}
	return nil
}

// AddInvoice creates an unpaid invoice for a live contract
func (s *InvoiceService) AddInvoice(uow *store.UnitOfWork, in InvoiceInput) (*models.Invoice, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	if err := checkAmount(in.Amount); err != nil {
		return nil, err
	}

	ok, err := s.contracts.Exists(uow, in.ContractID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperror.Validation("contract %d does not exist", in.ContractID)
	}

	date := models.Date(in.DateIssued)
	if err := s.checkDateFree(uow, in.ContractID, date, 0); err != nil {
		return nil, err
	}

	inv := &models.Invoice{
		ContractID:  in.ContractID,
		DateIssued:  date,
		Amount:      in.Amount.Round(2),
		Status:      models.InvoiceUnpaid,
		SentToEmail: in.SentToEmail,
		Notes:       in.Notes,
	}
	if err := s.invoices.Create(uow, inv); err != nil {
		return nil, err
	}

	_, err = s.trail.Append(uow, models.ActionAdd, audit.TableInvoices, inv.ID, map[string]any{
		"contract_id": inv.ContractID,
		"date_issued": date.Format(models.DateLayout),
		"amount":      inv.Amount.StringFixed(2),
	})
	if err != nil {
		return nil, err
	}
	return inv, nil
}

// UpdateInvoice edits an invoice; a new amount re-derives its status
func (s *InvoiceService) UpdateInvoice(uow *store.UnitOfWork, id uint, upd InvoiceUpdate) (*models.Invoice, error) {
	if err := validation.Struct(upd); err != nil {
		return nil, err
	}

	inv, err := s.invoices.Get(uow, id)
	if err != nil {
		return nil, err
	}

	changes := audit.Changes{}
	if upd.DateIssued != nil {
		date := models.Date(*upd.DateIssued)
		if !date.Equal(inv.DateIssued) {
			if err := s.checkDateFree(uow, inv.ContractID, date, inv.ID); err != nil {
				return nil, err
			}
		}
		changes.Set("date_issued", inv.DateIssued.Format(models.DateLayout), date.Format(models.DateLayout))
		inv.DateIssued = date
	}
	if upd.Amount != nil {
		if err := checkAmount(*upd.Amount); err != nil {
			return nil, err
		}
		changes.Set("amount", inv.Amount.StringFixed(2), upd.Amount.StringFixed(2))
		inv.Amount = upd.Amount.Round(2)
	}
	if upd.SentToEmail != nil {
		changes.Set("sent_to_email", inv.SentToEmail, *upd.SentToEmail)
		inv.SentToEmail = *upd.SentToEmail
	}
	if upd.Notes != nil {
		changes.Set("notes", inv.Notes, *upd.Notes)
		inv.Notes = *upd.Notes
	}

	if err := s.invoices.Save(uow, inv); err != nil {
		return nil, err
	}
	if _, err := s.trail.Append(uow, models.ActionUpdate, audit.TableInvoices, inv.ID, changes); err != nil {
		return nil, err
	}

	if upd.Amount != nil {
		return s.reconciler.Reconcile(uow, inv.ID)
	}
	return inv, nil
}

// DeleteInvoice removes an invoice together with its payments and attachments
func (s *InvoiceService) DeleteInvoice(uow *store.UnitOfWork, id uint) error {
	inv, err := s.invoices.Get(uow, id)
	if err != nil {
		return err
	}

	paymentIDs, err := s.removeDependents(uow, []uint{inv.ID})
	if err != nil {
		return err
	}

	if _, err := s.invoices.Delete(uow, inv.ID); err != nil {
		return err
	}
	_, err = s.trail.Append(uow, models.ActionDelete, audit.TableInvoices, inv.ID, map[string]any{
		"contract_id":      inv.ContractID,
		"payments_removed": len(paymentIDs),
	})
	return err
}

// DeleteForContract removes every invoice of a contract with their payments
// and attachments, auditing each removed row
func (s *InvoiceService) DeleteForContract(uow *store.UnitOfWork, contractID uint) (invoiceIDs, paymentIDs []uint, err error) {
	invoices, err := s.invoices.Find(uow, store.Where("contract_id = ?", contractID))
	if err != nil {
		return nil, nil, err
	}
	for _, inv := range invoices {
		invoiceIDs = append(invoiceIDs, inv.ID)
	}

	// Payments are keyed by contract too, so catch any whose invoice is already gone
	orphans, err := s.payments.Find(uow, store.Where("contract_id = ?", contractID))
	if err != nil {
		return nil, nil, err
	}

	if paymentIDs, err = s.removeDependents(uow, invoiceIDs); err != nil {
		return nil, nil, err
	}
	for _, p := range orphans {
		if !slices.Contains(paymentIDs, p.ID) {
			if _, err := s.payments.Delete(uow, p.ID); err != nil {
				return nil, nil, err
			}
			if err := s.auditRemoved(uow, audit.TablePayments, p.ID, "contract_id", contractID); err != nil {
				return nil, nil, err
			}
			paymentIDs = append(paymentIDs, p.ID)
		}
	}

	if len(invoiceIDs) > 0 {
		if _, err := s.invoices.DeleteWhere(uow, store.Where("id IN ?", invoiceIDs)); err != nil {
			return nil, nil, err
		}
	}
	for _, id := range invoiceIDs {
		if err := s.auditRemoved(uow, audit.TableInvoices, id, "contract_id", contractID); err != nil {
			return nil, nil, err
		}
	}
	return invoiceIDs, paymentIDs, nil
}

// removeDependents deletes payments and attachments of the given invoices
func (s *InvoiceService) removeDependents(uow *store.UnitOfWork, invoiceIDs []uint) ([]uint, error) {
	if len(invoiceIDs) == 0 {
		return nil, nil
	}

	paymentIDs, err := s.payments.DeleteWhere(uow, store.Where("invoice_id IN ?", invoiceIDs))
	if err != nil {
		return nil, err
	}
	for _, id := range paymentIDs {
		if err := s.auditRemoved(uow, audit.TablePayments, id, "cascade", "invoice"); err != nil {
			return nil, err
		}
	}

	attachmentIDs, err := s.attachments.DeleteWhere(uow, store.Where("invoice_id IN ?", invoiceIDs))
	if err != nil {
		return nil, err
	}
	for _, id := range attachmentIDs {
		if err := s.auditRemoved(uow, audit.TableAttachments, id, "cascade", "invoice"); err != nil {
			return nil, err
		}
	}
	return paymentIDs, nil
}

func (s *InvoiceService) auditRemoved(uow *store.UnitOfWork, table string, id uint, key string, value any) error {
	_, err := s.trail.Append(uow, models.ActionDelete, table, id, map[string]any{key: value})
	return err
}

// GetInvoice returns an invoice by id or a NotFound error
func (s *InvoiceService) GetInvoice(uow *store.UnitOfWork, id uint) (*models.Invoice, error) {
	return s.invoices.Get(uow, id)
}

// ListInvoices returns invoices newest first
func (s *InvoiceService) ListInvoices(uow *store.UnitOfWork, q store.ListQuery, f InvoiceFilters) (*models.Page[models.Invoice], error) {
	return s.invoices.List(uow, q,
		store.Equal("contract_id", f.ContractID),
		store.Equal("status", f.Status),
	)
}
