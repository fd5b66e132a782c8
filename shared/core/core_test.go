package core_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pavitra93/go-lease-management/shared/billing"
	"github.com/pavitra93/go-lease-management/shared/core"
	"github.com/pavitra93/go-lease-management/shared/events"
	"github.com/pavitra93/go-lease-management/shared/lease"
	"github.com/pavitra93/go-lease-management/shared/models"
	"github.com/pavitra93/go-lease-management/shared/registry"
	"github.com/pavitra93/go-lease-management/shared/store"
	"github.com/pavitra93/go-lease-management/shared/store/storetest"
)

func TestLeaseLifecycle(t *testing.T) {
	recorder := &events.Recorder{}
	c := core.New(storetest.Open(t).DB(), storetest.Logger(), core.Options{Publisher: recorder})
	do := func(fn func(uow *store.UnitOfWork) error) {
		storetest.Do(t, c.Store, fn)
	}

	var contract *models.Contract
	do(func(uow *store.UnitOfWork) error {
		owner, err := c.Registry.Owners.AddOwner(uow, registry.OwnerInput{
			Name: "Alnakheel Estates", RegistrationNumber: "1010000001", Nationality: "SA",
		})
		require.NoError(t, err)
		unit, err := c.Registry.Units.AddUnit(uow, registry.UnitInput{
			UnitNumber: "A-101", UnitType: "apartment", Location: "Riyadh, Al Olaya", OwnerID: &owner.ID,
		})
		require.NoError(t, err)
		tenant, err := c.Registry.Tenants.AddTenant(uow, registry.TenantInput{
			Name: "Sara Alharbi", NationalID: "1234567890", Nationality: "SA", Phone: "0551234567",
		})
		require.NoError(t, err)

		contract, err = c.Contracts.AddContract(uow, lease.ContractInput{
			ContractNumber: "C-2024-001",
			UnitID:         unit.ID,
			TenantID:       tenant.ID,
			StartDate:      time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
			EndDate:        time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC),
			DurationMonths: 12,
			RentAmount:     decimal.NewFromInt(12000),
			PaymentType:    "سنوي",
		})
		return err
	})
	require.Len(t, contract.Invoices, 1)
	invoice := contract.Invoices[0]

	// Owner, unit, tenant, invoice and contract entries are published on commit
	assert.Len(t, recorder.Events(), 5)

	pay := func(amount int64) {
		do(func(uow *store.UnitOfWork) error {
			_, err := c.Payments.AddPayment(uow, billing.PaymentInput{
				ContractID: contract.ID,
				InvoiceID:  invoice.ID,
				AmountPaid: decimal.NewFromInt(amount),
			})
			return err
		})
	}
	status := func() models.InvoiceStatus {
		var got *models.Invoice
		do(func(uow *store.UnitOfWork) error {
			var err error
			got, err = c.Invoices.GetInvoice(uow, invoice.ID)
			return err
		})
		return got.Status
	}

	pay(5000)
	assert.Equal(t, models.InvoiceUnpaid, status())
	pay(7000)
	assert.Equal(t, models.InvoicePaid, status())

	last := recorder.Events()[len(recorder.Events())-1]
	assert.Equal(t, events.TypeAuditAppended, last.Type)
	assert.Equal(t, storetest.Actor, last.Actor)
}

func TestOpenFromEnvironment(t *testing.T) {
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("DB_SQLITE_PATH", filepath.Join(t.TempDir(), "lease.db"))
	t.Setenv("KAFKA_ENABLED", "false")
	t.Setenv("REDIS_ENABLED", "false")

	ctx := context.Background()
	c, err := core.Open(ctx, storetest.Logger())
	require.NoError(t, err)
	defer func() { assert.NoError(t, c.Close()) }()

	require.NoError(t, c.Migrate(ctx, storetest.Logger()))
	storetest.Do(t, c.Store, func(uow *store.UnitOfWork) error {
		_, err := c.Registry.Users.CreateAdmin(uow, "admin", "s3cret!")
		return err
	})
}
