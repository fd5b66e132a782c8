package billing

import (
	"github.com/shopspring/decimal"

	"github.com/pavitra93/go-lease-management/shared/models"
)

// DeriveInvoiceStatus returns paid when the payments cover the invoice amount
// and unpaid otherwise. Late is never derived.
func DeriveInvoiceStatus(inv models.Invoice, payments []models.Payment) models.InvoiceStatus {
	total := decimal.Zero
	for _, p := range payments {
		total = total.Add(p.AmountPaid)
	}
	if total.GreaterThanOrEqual(inv.Amount) {
		return models.InvoicePaid
	}
	return models.InvoiceUnpaid
}
