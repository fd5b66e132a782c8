package billing

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/pavitra93/go-lease-management/shared/apperror"
	"github.com/pavitra93/go-lease-management/shared/audit"
	"github.com/pavitra93/go-lease-management/shared/models"
	"github.com/pavitra93/go-lease-management/shared/store"
	"github.com/pavitra93/go-lease-management/shared/validation"
)

// PaymentInput describes a payment against one invoice of a contract
type PaymentInput struct {
	ContractID uint            `json:"contract_id" validate:"required"`
	InvoiceID  uint            `json:"invoice_id" validate:"required"`
	AmountPaid decimal.Decimal `json:"amount_paid"`
	PaidOn     *time.Time      `json:"paid_on"`
	IsLate     bool            `json:"is_late"`
	Notes      string          `json:"notes" validate:"max=1024"`
}

// PaymentUpdate holds the fields of a payment that may change. Nil fields are left alone.
type PaymentUpdate struct {
	AmountPaid *decimal.Decimal `json:"amount_paid"`
	PaidOn     *time.Time       `json:"paid_on"`
	IsLate     *bool            `json:"is_late"`
	Notes      *string          `json:"notes" validate:"omitempty,max=1024"`
}

// PaymentFilters narrows ListPayments
type PaymentFilters struct {
	ContractID *uint
	InvoiceID  *uint
	IsLate     *bool
}

// Reconciler records payments and keeps invoice status derived from them
type Reconciler struct {
	payments  *store.Repository[models.Payment]
	invoices  *store.Repository[models.Invoice]
	contracts *store.Repository[models.Contract]
	trail     *audit.Trail
}

// NewReconciler creates a Reconciler
func NewReconciler(trail *audit.Trail) *Reconciler {
	return &Reconciler{
		payments:  store.NewRepository[models.Payment]("payment"),
		invoices:  store.NewRepository[models.Invoice]("invoice"),
		contracts: store.NewRepository[models.Contract]("contract"),
		trail:     trail,
	}
}

func checkAmountPaid(amount decimal.Decimal) error {
	if amount.IsNegative() {
		return apperror.Validation("amount_paid must not be negative")
	}
	return nil
}

// AddPayment records a payment and re-derives the invoice status
func (r *Reconciler) AddPayment(uow *store.UnitOfWork, in PaymentInput) (*models.Payment, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	if err := checkAmountPaid(in.AmountPaid); err != nil {
		return nil, err
	}

	ok, err := r.contracts.Exists(uow, in.ContractID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperror.Validation("contract %d does not exist", in.ContractID)
	}

	inv, err := r.invoices.Get(uow, in.InvoiceID)
	if apperror.IsKind(err, apperror.KindNotFound) {
		return nil, apperror.Validation("invoice %d does not exist", in.InvoiceID)
	}
	if err != nil {
		return nil, err
	}
	if inv.ContractID != in.ContractID {
		return nil, apperror.Validation("invoice %d does not belong to contract %d", in.InvoiceID, in.ContractID)
	}

	p := &models.Payment{
		ContractID: in.ContractID,
		InvoiceID:  in.InvoiceID,
		DueDate:    inv.DateIssued,
		AmountDue:  inv.Amount,
		AmountPaid: in.AmountPaid,
		PaidOn:     datePtr(in.PaidOn),
		IsLate:     in.IsLate,
		Notes:      in.Notes,
	}
	if err := r.payments.Create(uow, p); err != nil {
		return nil, err
	}

	if _, err := r.Reconcile(uow, inv.ID); err != nil {
		return nil, err
	}

	_, err = r.trail.Append(uow, models.ActionAdd, audit.TablePayments, p.ID, map[string]any{
		"contract_id": p.ContractID,
		"invoice_id":  p.InvoiceID,
		"amount_paid": p.AmountPaid.StringFixed(2),
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

// UpdatePayment changes a payment and re-derives the invoice status
func (r *Reconciler) UpdatePayment(uow *store.UnitOfWork, id uint, upd PaymentUpdate) (*models.Payment, error) {
	if err := validation.Struct(upd); err != nil {
		return nil, err
	}

	p, err := r.payments.Get(uow, id)
	if err != nil {
		return nil, err
	}

	changes := audit.Changes{}
	if upd.AmountPaid != nil {
		if err := checkAmountPaid(*upd.AmountPaid); err != nil {
			return nil, err
		}
		changes.Set("amount_paid", p.AmountPaid.StringFixed(2), upd.AmountPaid.StringFixed(2))
		p.AmountPaid = *upd.AmountPaid
	}
	if upd.PaidOn != nil {
		paidOn := models.Date(*upd.PaidOn)
		changes.Set("paid_on", formatDatePtr(p.PaidOn), paidOn.Format(models.DateLayout))
		p.PaidOn = &paidOn
	}
	if upd.IsLate != nil {
		changes.Set("is_late", p.IsLate, *upd.IsLate)
		p.IsLate = *upd.IsLate
	}
	if upd.Notes != nil {
		changes.Set("notes", p.Notes, *upd.Notes)
		p.Notes = *upd.Notes
	}

	if err := r.payments.Save(uow, p); err != nil {
		return nil, err
	}
	if _, err := r.Reconcile(uow, p.InvoiceID); err != nil {
		return nil, err
	}

	if _, err := r.trail.Append(uow, models.ActionUpdate, audit.TablePayments, p.ID, changes); err != nil {
		return nil, err
	}
	return p, nil
}

// DeletePayment removes a payment and re-derives the invoice status
func (r *Reconciler) DeletePayment(uow *store.UnitOfWork, id uint) error {
	p, err := r.payments.Delete(uow, id)
	if err != nil {
		return err
	}

	if _, err := r.Reconcile(uow, p.InvoiceID); err != nil && !apperror.IsKind(err, apperror.KindNotFound) {
		return err
	}

	_, err = r.trail.Append(uow, models.ActionDelete, audit.TablePayments, p.ID, map[string]any{
		"contract_id": p.ContractID,
		"invoice_id":  p.InvoiceID,
	})
	return err
}

// GetPayment returns a payment by id or a NotFound error
func (r *Reconciler) GetPayment(uow *store.UnitOfWork, id uint) (*models.Payment, error) {
	return r.payments.Get(uow, id)
}

// ListPayments returns payments newest first
func (r *Reconciler) ListPayments(uow *store.UnitOfWork, q store.ListQuery, f PaymentFilters) (*models.Page[models.Payment], error) {
	return r.payments.List(uow, q,
		store.Equal("contract_id", f.ContractID),
		store.Equal("invoice_id", f.InvoiceID),
		store.Equal("is_late", f.IsLate),
	)
}

// Reconcile re-derives an invoice's status from its full payment set and
// writes it when it changed
func (r *Reconciler) Reconcile(uow *store.UnitOfWork, invoiceID uint) (*models.Invoice, error) {
	inv, err := r.invoices.Get(uow, invoiceID)
	if err != nil {
		return nil, err
	}

	payments, err := r.payments.Find(uow, store.Where("invoice_id = ?", invoiceID))
	if err != nil {
		return nil, err
	}

	status := DeriveInvoiceStatus(*inv, payments)
	if status == inv.Status {
		return inv, nil
	}

	previous := inv.Status
	inv.Status = status
	if err := r.invoices.Save(uow, inv); err != nil {
		return nil, fmt.Errorf("failed to update invoice %d status: %w", inv.ID, err)
	}

	_, err = r.trail.Append(uow, models.ActionUpdate, audit.TableInvoices, inv.ID, map[string]any{
		"status":          string(status),
		"previous_status": string(previous),
	})
	if err != nil {
		return nil, err
	}
	return inv, nil
}

func datePtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	d := models.Date(*t)
	return &d
}

func formatDatePtr(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(models.DateLayout)
}
