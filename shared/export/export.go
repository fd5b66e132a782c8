// Package export writes entity tables as CSV with fixed column orders.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/pavitra93/go-lease-management/shared/apperror"
	"github.com/pavitra93/go-lease-management/shared/models"
	"github.com/pavitra93/go-lease-management/shared/store"
)

// table describes one exportable entity
type table struct {
	header []string
	rows   func(uow *store.UnitOfWork) ([][]string, error)
}

var tables = map[string]table{
	"owners": {
		header: []string{"id", "name", "registration_number", "nationality", "iban", "agent_name"},
		rows: rowsOf("owner", func(o models.Owner) []string {
			return []string{id(o.ID), o.Name, o.RegistrationNumber, o.Nationality, o.IBAN, o.AgentName}
		}),
	},
	"units": {
		header: []string{"id", "unit_number", "unit_type", "rooms", "area", "location", "status", "owner_id"},
		rows: rowsOf("unit", func(u models.Unit) []string {
			return []string{
				id(u.ID), u.UnitNumber, u.UnitType, strconv.Itoa(u.Rooms),
				strconv.FormatFloat(u.Area, 'f', -1, 64), u.Location, string(u.Status), optionalID(u.OwnerID),
			}
		}),
	},
	"tenants": {
		header: []string{"id", "name", "national_id", "phone", "nationality", "email", "address", "work"},
		rows: rowsOf("tenant", func(t models.Tenant) []string {
			return []string{id(t.ID), t.Name, t.NationalID, t.Phone, t.Nationality, t.Email, t.Address, t.Work}
		}),
	},
	"contracts": {
		header: []string{
			"id", "contract_number", "unit_id", "tenant_id", "start_date", "end_date", "duration_months",
			"rent_amount", "status", "rental_platform", "payment_type",
		},
		rows: rowsOf("contract", func(c models.Contract) []string {
			return []string{
				id(c.ID), c.ContractNumber, id(c.UnitID), id(c.TenantID), date(c.StartDate), date(c.EndDate),
				strconv.Itoa(c.DurationMonths), money(c.RentAmount), string(c.Status), c.RentalPlatform,
				string(c.PaymentType),
			}
		}),
	},
	"invoices": {
		header: []string{"id", "contract_id", "date_issued", "amount", "status", "sent_to_email", "notes"},
		rows: rowsOf("invoice", func(i models.Invoice) []string {
			return []string{
				id(i.ID), id(i.ContractID), date(i.DateIssued), money(i.Amount), string(i.Status),
				strconv.FormatBool(i.SentToEmail), i.Notes,
			}
		}),
	},
	"payments": {
		header: []string{"id", "contract_id", "invoice_id", "due_date", "amount_due", "amount_paid", "paid_on", "is_late", "notes"},
		rows: rowsOf("payment", func(p models.Payment) []string {
			paidOn := ""
			if p.PaidOn != nil {
				paidOn = date(*p.PaidOn)
			}
			return []string{
				id(p.ID), id(p.ContractID), id(p.InvoiceID), date(p.DueDate), money(p.AmountDue),
				money(p.AmountPaid), paidOn, strconv.FormatBool(p.IsLate), p.Notes,
			}
		}),
	},
}

// Entities lists the exportable entity names
func Entities() []string {
	names := make([]string, 0, len(tables))
	for name := range tables {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Header returns the column order for entity
func Header(entity string) ([]string, error) {
	t, ok := tables[entity]
	if !ok {
		return nil, apperror.Validation("unknown export entity %q", entity)
	}
	return append([]string(nil), t.header...), nil
}

// Write streams every live row of entity to w as CSV and returns the number of data rows
func Write(uow *store.UnitOfWork, entity string, w io.Writer) (int, error) {
	t, ok := tables[entity]
	if !ok {
		return 0, apperror.Validation("unknown export entity %q", entity)
	}
	rows, err := t.rows(uow)
	if err != nil {
		return 0, err
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(t.header); err != nil {
		return 0, fmt.Errorf("write %s header: %w", entity, err)
	}
	if err := cw.WriteAll(rows); err != nil {
		return 0, fmt.Errorf("write %s rows: %w", entity, err)
	}
	return len(rows), nil
}

func rowsOf[T any](entity string, format func(T) []string) func(uow *store.UnitOfWork) ([][]string, error) {
	repo := store.NewRepository[T](entity)
	return func(uow *store.UnitOfWork) ([][]string, error) {
		items, err := repo.Find(uow)
		if err != nil {
			return nil, err
		}
		out := make([][]string, 0, len(items))
		for _, item := range items {
			out = append(out, format(item))
		}
		return out, nil
	}
}

func id(v uint) string {
	return strconv.FormatUint(uint64(v), 10)
}

func optionalID(v *uint) string {
	if v == nil {
		return ""
	}
	return id(*v)
}

func date(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(models.DateLayout)
}

func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}
