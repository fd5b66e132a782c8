// Package billing turns contracts into invoice schedules and keeps invoice
// status in line with the payments recorded against them.
package billing

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/pavitra93/go-lease-management/shared/audit"
	"github.com/pavitra93/go-lease-management/shared/models"
	"github.com/pavitra93/go-lease-management/shared/store"
)

var (
	monthsPerYear = decimal.NewFromInt(12)

	stepMonths = map[models.PaymentType]int{
		models.PaymentAnnual:     12,
		models.PaymentSemiAnnual: 6,
		models.PaymentQuarterly:  3,
		models.PaymentMonthly:    1,
	}
)

// StepMonths returns the billing period of a payment type in months.
// Unknown or empty types bill monthly.
func StepMonths(pt models.PaymentType) int {
	canonical, ok := models.ParsePaymentType(string(pt))
	if !ok {
		return 1
	}
	return stepMonths[canonical]
}

// BillingMonths is the number of months a contract is billed for: the calendar
// month span of its dates capped at its declared duration
func BillingMonths(c models.Contract) int {
	months := models.MonthsBetween(c.StartDate, c.EndDate)
	if months > c.DurationMonths {
		months = c.DurationMonths
	}
	if months < 0 {
		return 0
	}
	return months
}

// PlanInvoices computes the invoice schedule of c without touching storage.
// Each invoice covers up to one billing step. Amounts are rounded to cents on the
// running total, so an invoice is the prorated rent of everything billed so far
// minus what earlier invoices already charged.
func PlanInvoices(c models.Contract) []models.Invoice {
	remaining := BillingMonths(c)
	step := StepMonths(c.PaymentType)
	issue := models.Date(c.StartDate)

	var plan []models.Invoice
	billed, charged := 0, decimal.Zero
	for remaining > 0 {
		months := min(step, remaining)
		billed += months
		total := c.RentAmount.Mul(decimal.NewFromInt(int64(billed))).Div(monthsPerYear).Round(2)
		amount := total.Sub(charged)
		charged = total

		plan = append(plan, models.Invoice{
			ContractID: c.ID,
			DateIssued: issue,
			Amount:     amount,
			Status:     models.InvoiceUnpaid,
		})

		issue = models.AddMonths(issue, months)
		remaining -= months
	}
	return plan
}

// Scheduler persists invoice schedules
type Scheduler struct {
	invoices *store.Repository[models.Invoice]
	trail    *audit.Trail
}

// NewScheduler creates a Scheduler
func NewScheduler(trail *audit.Trail) *Scheduler {
	return &Scheduler{
		invoices: store.NewRepository[models.Invoice]("invoice"),
		trail:    trail,
	}
}

// Generate writes the invoice schedule of a persisted contract and audits each invoice
func (s *Scheduler) Generate(uow *store.UnitOfWork, c *models.Contract) ([]models.Invoice, error) {
	plan := PlanInvoices(*c)

	for i := range plan {
		inv := &plan[i]
		if err := s.invoices.Create(uow, inv); err != nil {
			return nil, fmt.Errorf("failed to create invoice %s for contract %d: %w",
				inv.DateIssued.Format(models.DateLayout), c.ID, err)
		}

		_, err := s.trail.Append(uow, models.ActionAdd, audit.TableInvoices, inv.ID, map[string]any{
			"contract_id": c.ID,
			"date_issued": inv.DateIssued.Format(models.DateLayout),
			"amount":      inv.Amount.StringFixed(2),
		})
		if err != nil {
			return nil, err
		}
	}

	uow.Log().WithField("contract_id", c.ID).Infof("Generated %d invoices", len(plan))
	return plan, nil
}
