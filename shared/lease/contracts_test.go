package lease_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pavitra93/go-lease-management/shared/apperror"
	"github.com/pavitra93/go-lease-management/shared/audit"
	"github.com/pavitra93/go-lease-management/shared/billing"
	"github.com/pavitra93/go-lease-management/shared/lease"
	"github.com/pavitra93/go-lease-management/shared/models"
	"github.com/pavitra93/go-lease-management/shared/store"
	"github.com/pavitra93/go-lease-management/shared/store/storetest"
)

type recordingLocker struct {
	mu       sync.Mutex
	locked   []string
	released int
}

func (l *recordingLocker) Lock(_ context.Context, key string) (func(), error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.locked = append(l.locked, key)
	return func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		l.released++
	}, nil
}

type fixture struct {
	store      *store.Store
	trail      *audit.Trail
	reconciler *billing.Reconciler
	invoices   *billing.InvoiceService
	svc        *lease.Service
	locker     *recordingLocker
	unit       *models.Unit
	tenant     *models.Tenant
}

func setup(t *testing.T) *fixture {
	s := storetest.Open(t)
	trail := audit.NewTrail(nil, storetest.Logger())
	reconciler := billing.NewReconciler(trail)
	invoices := billing.NewInvoiceService(reconciler, trail)
	locker := &recordingLocker{}

	f := &fixture{
		store:      s,
		trail:      trail,
		reconciler: reconciler,
		invoices:   invoices,
		locker:     locker,
		svc: lease.NewService(trail, billing.NewScheduler(trail), invoices, storetest.Logger(),
			lease.WithLocker(locker), lease.WithWarningDays(30)),
	}
	f.unit = f.addUnit(t, "A-101")
	f.tenant = f.addTenant(t, "1234567890")
	return f
}

func (f *fixture) addUnit(t *testing.T, number string) *models.Unit {
	u := &models.Unit{UnitNumber: number, UnitType: "apartment", Status: models.UnitAvailable}
	storetest.Do(t, f.store, func(uow *store.UnitOfWork) error {
		return store.NewRepository[models.Unit]("unit").Create(uow, u)
	})
	return u
}

func (f *fixture) addTenant(t *testing.T, nationalID string) *models.Tenant {
	tn := &models.Tenant{Name: "Sara", NationalID: nationalID, Phone: "0551234567"}
	storetest.Do(t, f.store, func(uow *store.UnitOfWork) error {
		return store.NewRepository[models.Tenant]("tenant").Create(uow, tn)
	})
	return tn
}

func (f *fixture) add(in lease.ContractInput) (*models.Contract, error) {
	var c *models.Contract
	err := f.store.Do(context.Background(), storetest.Actor, func(uow *store.UnitOfWork) error {
		var err error
		c, err = f.svc.AddContract(uow, in)
		return err
	})
	return c, err
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func (f *fixture) input(number string, start, end time.Time) lease.ContractInput {
	return lease.ContractInput{
		ContractNumber: number,
		UnitID:         f.unit.ID,
		TenantID:       f.tenant.ID,
		StartDate:      start,
		EndDate:        end,
		DurationMonths: 12,
		RentAmount:     decimal.NewFromInt(12000),
		PaymentType:    models.PaymentAnnual,
	}
}

func TestAddContractGeneratesSchedule(t *testing.T) {
	f := setup(t)

	c, err := f.add(f.input("C-2024-1", day(2024, 1, 1), day(2024, 12, 31)))
	require.NoError(t, err)

	assert.Equal(t, models.ContractActive, c.Status)
	require.Len(t, c.Invoices, 1)
	assert.Equal(t, "2024-01-01", c.Invoices[0].DateIssued.Format(models.DateLayout))
	assert.True(t, c.Invoices[0].Amount.Equal(decimal.NewFromInt(12000)))
	assert.Equal(t, models.InvoiceUnpaid, c.Invoices[0].Status)

	assert.Equal(t, []string{"lease:unit:1"}, f.locker.locked)
	assert.Equal(t, 1, f.locker.released)

	storetest.Do(t, f.store, func(uow *store.UnitOfWork) error {
		table := audit.TableContracts
		entries, err := f.trail.ListEntries(uow, store.ListQuery{}, audit.Filters{Table: &table})
		require.NoError(t, err)
		require.Equal(t, int64(1), entries.Total)
		assert.Equal(t, models.ActionAdd, entries.Data[0].Action)
		assert.Equal(t, c.ID, entries.Data[0].RowID)
		return nil
	})
}

func TestAddContractNormalizesPaymentType(t *testing.T) {
	f := setup(t)
	in := f.input("C-1", day(2024, 1, 1), day(2024, 12, 31))
	in.PaymentType = "ربع سنوي"

	c, err := f.add(in)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentQuarterly, c.PaymentType)
	assert.Len(t, c.Invoices, 4)
}

func TestAddContractRejectsOverlap(t *testing.T) {
	f := setup(t)
	_, err := f.add(f.input("C-1", day(2024, 1, 1), day(2024, 12, 31)))
	require.NoError(t, err)

	_, err = f.add(f.input("C-2", day(2024, 6, 1), day(2024, 8, 1)))
	assert.True(t, apperror.IsKind(err, apperror.KindConflict), err)

	// Ranges are inclusive at both ends
	_, err = f.add(f.input("C-3", day(2024, 12, 31), day(2025, 3, 31)))
	assert.True(t, apperror.IsKind(err, apperror.KindConflict), err)

	_, err = f.add(f.input("C-4", day(2025, 1, 1), day(2025, 12, 31)))
	assert.NoError(t, err)

	// Another unit is free on the same dates
	other := f.input("C-5", day(2024, 6, 1), day(2024, 8, 1))
	other.UnitID = f.addUnit(t, "A-102").ID
	_, err = f.add(other)
	assert.NoError(t, err)

	// The rejected attempts left nothing behind
	storetest.Do(t, f.store, func(uow *store.UnitOfWork) error {
		page, err := f.svc.ListContracts(uow, store.ListQuery{}, lease.ContractFilters{})
		require.NoError(t, err)
		assert.Equal(t, int64(3), page.Total)
		return nil
	})
}

func TestAddContractValidation(t *testing.T) {
	f := setup(t)
	_, err := f.add(f.input("C-1", day(2024, 1, 1), day(2024, 12, 31)))
	require.NoError(t, err)

	deletedUnit := f.addUnit(t, "B-1")
	storetest.Do(t, f.store, func(uow *store.UnitOfWork) error {
		_, err := store.NewRepository[models.Unit]("unit").Delete(uow, deletedUnit.ID)
		return err
	})

	tests := []struct {
		name   string
		mutate func(in *lease.ContractInput)
		kind   apperror.Kind
	}{
		{"duplicate number", func(in *lease.ContractInput) { in.ContractNumber = "C-1" }, apperror.KindAlreadyExists},
		{"end before start", func(in *lease.ContractInput) { in.EndDate = day(2023, 1, 1) }, apperror.KindValidation},
		{"missing unit", func(in *lease.ContractInput) { in.UnitID = 404 }, apperror.KindValidation},
		{"deleted unit", func(in *lease.ContractInput) { in.UnitID = deletedUnit.ID }, apperror.KindValidation},
		{"missing tenant", func(in *lease.ContractInput) { in.TenantID = 404 }, apperror.KindValidation},
		{"zero rent", func(in *lease.ContractInput) { in.RentAmount = decimal.Zero }, apperror.KindValidation},
		{"zero duration", func(in *lease.ContractInput) { in.DurationMonths = 0 }, apperror.KindValidation},
		{"short number", func(in *lease.ContractInput) { in.ContractNumber = "C" }, apperror.KindValidation},
		{"bad status", func(in *lease.ContractInput) { in.Status = "archived" }, apperror.KindValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := f.input("C-new", day(2026, 1, 1), day(2026, 12, 31))
			tt.mutate(&in)
			_, err := f.add(in)
			assert.True(t, apperror.IsKind(err, tt.kind), err)
		})
	}
}

func TestUpdateContract(t *testing.T) {
	f := setup(t)
	first, err := f.add(f.input("C-1", day(2024, 1, 1), day(2024, 6, 30)))
	require.NoError(t, err)
	second, err := f.add(f.input("C-2", day(2024, 7, 1), day(2024, 12, 31)))
	require.NoError(t, err)

	update := func(id uint, upd lease.ContractUpdate) (*models.Contract, error) {
		var c *models.Contract
		err := f.store.Do(context.Background(), storetest.Actor, func(uow *store.UnitOfWork) error {
			var err error
			c, err = f.svc.UpdateContract(uow, id, upd)
			return err
		})
		return c, err
	}

	// Stretching into the next contract conflicts
	end := day(2024, 7, 15)
	_, err = update(first.ID, lease.ContractUpdate{EndDate: &end})
	assert.True(t, apperror.IsKind(err, apperror.KindConflict), err)

	// Moving within its own range does not conflict with itself
	start := day(2024, 2, 1)
	notes := "renegotiated"
	updated, err := update(first.ID, lease.ContractUpdate{StartDate: &start, Notes: &notes})
	require.NoError(t, err)
	assert.Equal(t, "2024-02-01", updated.StartDate.Format(models.DateLayout))

	taken := "C-2"
	_, err = update(first.ID, lease.ContractUpdate{ContractNumber: &taken})
	assert.True(t, apperror.IsKind(err, apperror.KindAlreadyExists), err)

	missing := uint(404)
	_, err = update(second.ID, lease.ContractUpdate{TenantID: &missing})
	assert.True(t, apperror.IsKind(err, apperror.KindValidation), err)

	_, err = update(404, lease.ContractUpdate{Notes: &notes})
	assert.True(t, apperror.IsKind(err, apperror.KindNotFound), err)

	// Invoices are not regenerated on update
	storetest.Do(t, f.store, func(uow *store.UnitOfWork) error {
		page, err := f.invoices.ListInvoices(uow, store.ListQuery{}, billing.InvoiceFilters{ContractID: &first.ID})
		require.NoError(t, err)
		require.Equal(t, int64(1), page.Total)
		assert.Equal(t, "2024-01-01", page.Data[0].DateIssued.Format(models.DateLayout))
		return nil
	})
}

func TestDeleteContractCascades(t *testing.T) {
	f := setup(t)
	in := f.input("C-1", day(2024, 1, 1), day(2024, 12, 31))
	in.PaymentType = models.PaymentMonthly
	c, err := f.add(in)
	require.NoError(t, err)

	storetest.Do(t, f.store, func(uow *store.UnitOfWork) error {
		if _, err := f.reconciler.AddPayment(uow, billing.PaymentInput{ContractID: c.ID, InvoiceID: c.Invoices[0].ID, AmountPaid: decimal.NewFromInt(1000)}); err != nil {
			return err
		}
		contractID, invoiceID := c.ID, c.Invoices[1].ID
		for _, a := range []*models.Attachment{
			{Filepath: "contracts/c1.pdf", Filetype: "pdf", AttachmentType: models.AttachmentContract, ContractID: &contractID, UploadedAt: time.Now()},
			{Filepath: "invoices/i2.pdf", Filetype: "pdf", AttachmentType: models.AttachmentInvoice, InvoiceID: &invoiceID, UploadedAt: time.Now()},
		} {
			if err := store.NewRepository[models.Attachment]("attachment").Create(uow, a); err != nil {
				return err
			}
		}
		return nil
	})

	storetest.Do(t, f.store, func(uow *store.UnitOfWork) error {
		return f.svc.DeleteContract(uow, c.ID)
	})

	db := f.store.DB()
	for _, m := range []any{&models.Contract{}, &models.Invoice{}, &models.Payment{}, &models.Attachment{}} {
		var n int64
		require.NoError(t, db.Model(m).Count(&n).Error)
		assert.Zero(t, n, "%T", m)
	}

	storetest.Do(t, f.store, func(uow *store.UnitOfWork) error {
		action := models.ActionDelete
		entries, err := f.trail.ListEntries(uow, store.ListQuery{PerPage: 100}, audit.Filters{Action: &action})
		require.NoError(t, err)
		// contract + 12 invoices + 1 payment + 2 attachments
		assert.Equal(t, int64(16), entries.Total)
		return nil
	})

	// The unit and number are free again
	_, err = f.add(f.input("C-1", day(2024, 3, 1), day(2024, 9, 30)))
	assert.NoError(t, err)
}

func TestAddContractRollsBackOnInvoiceFailure(t *testing.T) {
	f := setup(t)
	require.NoError(t, f.store.DB().Exec(
		`CREATE TRIGGER reject_invoices BEFORE INSERT ON invoices BEGIN SELECT RAISE(ABORT, 'invoices are read-only'); END`,
	).Error)

	_, err := f.add(f.input("C-1", day(2024, 1, 1), day(2024, 12, 31)))
	require.Error(t, err)

	var n int64
	require.NoError(t, f.store.DB().Model(&models.Contract{}).Count(&n).Error)
	assert.Zero(t, n)

	storetest.Do(t, f.store, func(uow *store.UnitOfWork) error {
		table := audit.TableContracts
		entries, err := f.trail.ListEntries(uow, store.ListQuery{}, audit.Filters{Table: &table})
		require.NoError(t, err)
		assert.Zero(t, entries.Total)
		return nil
	})

	// The unit lock is released even though the unit of work failed
	assert.Equal(t, len(f.locker.locked), f.locker.released)
}

func TestAddContractConcurrentOverlap(t *testing.T) {
	f := setup(t)
	const workers = 8

	errs := make([]error, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.add(f.input(fmt.Sprintf("C-%d", i), day(2024, 1, 1), day(2024, 12, 31)))
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.True(t, apperror.IsKind(err, apperror.KindConflict), err)
	}
	assert.Equal(t, 1, succeeded)

	var n int64
	require.NoError(t, f.store.DB().Model(&models.Contract{}).Count(&n).Error)
	assert.Equal(t, int64(1), n)
}

func TestListContractsFilters(t *testing.T) {
	f := setup(t)
	otherTenant := f.addTenant(t, "2234567890")

	for i, number := range []string{"RYD-001", "ryd-002", "JED-001"} {
		in := f.input(number, day(2020+i, 1, 1), day(2020+i, 12, 31))
		if number == "JED-001" {
			in.TenantID = otherTenant.ID
		}
		_, err := f.add(in)
		require.NoError(t, err)
	}

	storetest.Do(t, f.store, func(uow *store.UnitOfWork) error {
		number := "ryd"
		page, err := f.svc.ListContracts(uow, store.ListQuery{}, lease.ContractFilters{ContractNumber: &number})
		require.NoError(t, err)
		assert.Equal(t, int64(2), page.Total)
		assert.Equal(t, "ryd-002", page.Data[0].ContractNumber)

		page, err = f.svc.ListContracts(uow, store.ListQuery{}, lease.ContractFilters{TenantID: &otherTenant.ID, UnitID: &f.unit.ID})
		require.NoError(t, err)
		require.Equal(t, int64(1), page.Total)
		assert.Equal(t, "JED-001", page.Data[0].ContractNumber)

		got, err := f.svc.GetContract(uow, page.Data[0].ID)
		require.NoError(t, err)
		assert.Equal(t, otherTenant.ID, got.TenantID)
		return nil
	})
}

func TestHasConflictExcludesSelf(t *testing.T) {
	f := setup(t)
	c, err := f.add(f.input("C-1", day(2024, 1, 1), day(2024, 12, 31)))
	require.NoError(t, err)

	storetest.Do(t, f.store, func(uow *store.UnitOfWork) error {
		var v lease.ConflictValidator
		conflict, err := v.HasConflict(uow, f.unit.ID, day(2024, 5, 1), day(2024, 5, 2), nil)
		require.NoError(t, err)
		assert.True(t, conflict)

		conflict, err = v.HasConflict(uow, f.unit.ID, day(2024, 5, 1), day(2024, 5, 2), &c.ID)
		require.NoError(t, err)
		assert.False(t, conflict)

		conflict, err = v.HasConflict(uow, f.unit.ID, day(2023, 1, 1), day(2023, 12, 31), nil)
		require.NoError(t, err)
		assert.False(t, conflict)
		return nil
	})
}
