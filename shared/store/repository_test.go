package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pavitra93/go-lease-management/shared/apperror"
	"github.com/pavitra93/go-lease-management/shared/models"
	"github.com/pavitra93/go-lease-management/shared/store"
	"github.com/pavitra93/go-lease-management/shared/store/storetest"
)

func ptr[T any](v T) *T {
	return &v
}

func TestRepositorySoftDelete(t *testing.T) {
	s := storetest.Open(t)
	repo := store.NewRepository[models.Owner]("owner")
	assert.Equal(t, models.SoftDelete, repo.Policy())

	owner := newOwner("1000000001")
	storetest.Do(t, s, func(uow *store.UnitOfWork) error {
		return repo.Create(uow, owner)
	})

	storetest.Do(t, s, func(uow *store.UnitOfWork) error {
		_, err := repo.Delete(uow, owner.ID)
		return err
	})

	storetest.Do(t, s, func(uow *store.UnitOfWork) error {
		_, err := repo.Get(uow, owner.ID)
		assert.True(t, apperror.IsKind(err, apperror.KindNotFound))

		exists, err := repo.Exists(uow, owner.ID)
		require.NoError(t, err)
		assert.False(t, exists)

		taken, err := repo.Taken(uow, "registration_number", owner.RegistrationNumber, 0)
		require.NoError(t, err)
		assert.False(t, taken)

		// The identifier is free again once the holder is deleted
		return repo.Create(uow, newOwner("1000000001"))
	})

	// The row itself is still there
	var n int64
	require.NoError(t, s.DB().Unscoped().Model(&models.Owner{}).Count(&n).Error)
	assert.Equal(t, int64(2), n)
}

func TestRepositoryHardDelete(t *testing.T) {
	s := storetest.Open(t)
	repo := store.NewRepository[models.Contract]("contract")
	assert.Equal(t, models.HardDelete, repo.Policy())

	c := &models.Contract{
		ContractNumber: "C-1",
		UnitID:         1,
		TenantID:       1,
		StartDate:      time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		EndDate:        time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC),
		DurationMonths: 12,
		RentAmount:     decimal.NewFromInt(12000),
	}
	storetest.Do(t, s, func(uow *store.UnitOfWork) error {
		return repo.Create(uow, c)
	})
	storetest.Do(t, s, func(uow *store.UnitOfWork) error {
		_, err := repo.Delete(uow, c.ID)
		return err
	})

	var n int64
	require.NoError(t, s.DB().Unscoped().Model(&models.Contract{}).Count(&n).Error)
	assert.Equal(t, int64(0), n)
}

func TestRepositoryDuplicateKey(t *testing.T) {
	s := storetest.Open(t)
	repo := store.NewRepository[models.Owner]("owner")

	storetest.Do(t, s, func(uow *store.UnitOfWork) error {
		return repo.Create(uow, newOwner("1000000001"))
	})

	err := s.Do(context.Background(), storetest.Actor, func(uow *store.UnitOfWork) error {
		return repo.Create(uow, newOwner("1000000001"))
	})
	assert.True(t, apperror.IsKind(err, apperror.KindAlreadyExists), err)
}

func TestRepositoryListPagesAndFilters(t *testing.T) {
	s := storetest.Open(t)
	repo := store.NewRepository[models.Owner]("owner")

	storetest.Do(t, s, func(uow *store.UnitOfWork) error {
		for _, o := range []*models.Owner{
			{Name: "Nora Holdings", RegistrationNumber: "1000000001", Nationality: "SA"},
			{Name: "nora estates", RegistrationNumber: "1000000002", Nationality: "AE"},
			{Name: "Khalid", RegistrationNumber: "1000000003", Nationality: "SA"},
			{Name: "100%_Real", RegistrationNumber: "1000000004", Nationality: "SA"},
		} {
			if err := repo.Create(uow, o); err != nil {
				return err
			}
		}
		return nil
	})

	storetest.Do(t, s, func(uow *store.UnitOfWork) error {
		page, err := repo.List(uow, store.ListQuery{Page: 1, PerPage: 2})
		require.NoError(t, err)
		assert.Equal(t, int64(4), page.Total)
		assert.Equal(t, 2, page.PerPage)
		require.Len(t, page.Data, 2)
		assert.Equal(t, "1000000004", page.Data[0].RegistrationNumber)

		page, err = repo.List(uow, store.ListQuery{Page: 2, PerPage: 2})
		require.NoError(t, err)
		require.Len(t, page.Data, 2)
		assert.Equal(t, "1000000001", page.Data[1].RegistrationNumber)

		page, err = repo.List(uow, store.ListQuery{}, store.Contains("name", ptr("NORA")), store.Equal("nationality", ptr("SA")))
		require.NoError(t, err)
		assert.Equal(t, int64(1), page.Total)
		assert.Equal(t, "Nora Holdings", page.Data[0].Name)

		// LIKE metacharacters are matched literally
		page, err = repo.List(uow, store.ListQuery{}, store.Contains("name", ptr("%_")))
		require.NoError(t, err)
		assert.Equal(t, int64(1), page.Total)

		page, err = repo.List(uow, store.ListQuery{}, store.Contains("name", nil), store.Equal[string]("nationality", nil))
		require.NoError(t, err)
		assert.Equal(t, int64(4), page.Total)
		assert.Equal(t, store.DefaultPerPage, page.PerPage)
		return nil
	})
}

func TestRepositoryDeleteWhere(t *testing.T) {
	s := storetest.Open(t)
	repo := store.NewRepository[models.Invoice]("invoice")

	storetest.Do(t, s, func(uow *store.UnitOfWork) error {
		for i, contractID := range []uint{1, 1, 2} {
			inv := &models.Invoice{
				ContractID: contractID,
				DateIssued: time.Date(2024, time.Month(i+1), 1, 0, 0, 0, 0, time.UTC),
				Amount:     decimal.NewFromInt(100),
				Status:     models.InvoiceUnpaid,
			}
			if err := repo.Create(uow, inv); err != nil {
				return err
			}
		}
		return nil
	})

	storetest.Do(t, s, func(uow *store.UnitOfWork) error {
		ids, err := repo.DeleteWhere(uow, store.Where("contract_id = ?", 1))
		require.NoError(t, err)
		assert.Len(t, ids, 2)

		left, err := repo.Find(uow)
		require.NoError(t, err)
		require.Len(t, left, 1)
		assert.Equal(t, uint(2), left[0].ContractID)
		return nil
	})
}

func TestListQueryNormalize(t *testing.T) {
	assert.Equal(t, store.ListQuery{Page: 1, PerPage: 20}, store.ListQuery{}.Normalize())
	assert.Equal(t, store.ListQuery{Page: 3, PerPage: 100}, store.ListQuery{Page: 3, PerPage: 500}.Normalize())
	assert.Equal(t, 40, store.ListQuery{Page: 3, PerPage: 20}.Offset())
}
