package export_test

import (
	"bytes"
	"context"
	"encoding/csv"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pavitra93/go-lease-management/shared/apperror"
	"github.com/pavitra93/go-lease-management/shared/export"
	"github.com/pavitra93/go-lease-management/shared/models"
	"github.com/pavitra93/go-lease-management/shared/store"
	"github.com/pavitra93/go-lease-management/shared/store/storetest"
)

func read(t *testing.T, s *store.Store, entity string) [][]string {
	var buf bytes.Buffer
	storetest.Do(t, s, func(uow *store.UnitOfWork) error {
		_, err := export.Write(uow, entity, &buf)
		return err
	})
	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	return records
}

func create[T any](t *testing.T, s *store.Store, row *T) {
	storetest.Do(t, s, func(uow *store.UnitOfWork) error {
		return store.NewRepository[T]("row").Create(uow, row)
	})
}

func TestExportSkipsDeletedRows(t *testing.T) {
	s := storetest.Open(t)
	kept := &models.Owner{Name: "Kept, Ltd", RegistrationNumber: "1010000001", Nationality: "SA"}
	gone := &models.Owner{Name: "Gone", RegistrationNumber: "1010000002", Nationality: "SA"}
	create(t, s, kept)
	create(t, s, gone)
	storetest.Do(t, s, func(uow *store.UnitOfWork) error {
		_, err := store.NewRepository[models.Owner]("owner").Delete(uow, gone.ID)
		return err
	})

	records := read(t, s, "owners")
	require.Len(t, records, 2)
	assert.Equal(t, []string{"id", "name", "registration_number", "nationality", "iban", "agent_name"}, records[0])
	assert.Equal(t, []string{"1", "Kept, Ltd", "1010000001", "SA", "", ""}, records[1])
}

func TestExportFormatsValues(t *testing.T) {
	s := storetest.Open(t)
	day := func(d int) time.Time { return time.Date(2024, 3, d, 0, 0, 0, 0, time.UTC) }

	unit := &models.Unit{UnitNumber: "A-1", UnitType: "apartment", Rooms: 2, Area: 85.5, Status: models.UnitRented}
	create(t, s, unit)
	tenant := &models.Tenant{Name: "Sara", NationalID: "1234567890", Phone: "0551234567"}
	create(t, s, tenant)
	contract := &models.Contract{
		ContractNumber: "C-1",
		UnitID:         unit.ID,
		TenantID:       tenant.ID,
		StartDate:      day(1),
		EndDate:        day(31),
		DurationMonths: 1,
		RentAmount:     decimal.NewFromInt(3000),
		PaymentType:    models.PaymentMonthly,
		Status:         models.ContractActive,
	}
	create(t, s, contract)
	invoice := &models.Invoice{ContractID: contract.ID, DateIssued: day(1), Amount: decimal.RequireFromString("3000.5"), Status: models.InvoiceUnpaid}
	create(t, s, invoice)
	create(t, s, &models.Payment{
		ContractID: contract.ID,
		InvoiceID:  invoice.ID,
		DueDate:    day(1),
		AmountDue:  invoice.Amount,
		AmountPaid: decimal.NewFromInt(1000),
	})

	units := read(t, s, "units")
	assert.Equal(t, []string{"1", "A-1", "apartment", "2", "85.5", "", "rented", ""}, units[1])

	contracts := read(t, s, "contracts")
	assert.Equal(t, []string{
		"1", "C-1", "1", "1", "2024-03-01", "2024-03-31", "1", "3000.00", "active", "", "monthly",
	}, contracts[1])

	invoices := read(t, s, "invoices")
	assert.Equal(t, []string{"1", "1", "2024-03-01", "3000.50", "unpaid", "false", ""}, invoices[1])

	payments := read(t, s, "payments")
	assert.Equal(t, []string{"id", "contract_id", "invoice_id", "due_date", "amount_due", "amount_paid", "paid_on", "is_late", "notes"}, payments[0])
	assert.Equal(t, []string{"1", "1", "1", "2024-03-01", "3000.50", "1000.00", "", "false", ""}, payments[1])

	tenants := read(t, s, "tenants")
	assert.Equal(t, []string{"1", "Sara", "1234567890", "0551234567", "", "", "", ""}, tenants[1])
}

func TestExportUnknownEntity(t *testing.T) {
	s := storetest.Open(t)
	err := s.Do(context.Background(), storetest.Actor, func(uow *store.UnitOfWork) error {
		_, err := export.Write(uow, "leases", &bytes.Buffer{})
		return err
	})
	assert.True(t, apperror.IsKind(err, apperror.KindValidation), err)

	_, err = export.Header("leases")
	assert.Error(t, err)
	assert.Equal(t, []string{"contracts", "invoices", "owners", "payments", "tenants", "units"}, export.Entities())
}
