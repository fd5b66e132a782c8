package lease_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pavitra93/go-lease-management/shared/lease"
	"github.com/pavitra93/go-lease-management/shared/models"
	"github.com/pavitra93/go-lease-management/shared/store"
	"github.com/pavitra93/go-lease-management/shared/store/storetest"
)

func TestStatusOn(t *testing.T) {
	c := models.Contract{StartDate: day(2024, 1, 1), EndDate: day(2024, 12, 31)}

	assert.Equal(t, models.ContractActive, lease.StatusOn(c, day(2024, 6, 1), 30))
	assert.Equal(t, models.ContractWarning, lease.StatusOn(c, day(2024, 12, 1), 30))
	assert.Equal(t, models.ContractWarning, lease.StatusOn(c, day(2024, 12, 31), 30))
	assert.Equal(t, models.ContractExpired, lease.StatusOn(c, day(2025, 1, 1), 30))
	assert.Equal(t, models.ContractActive, lease.StatusOn(c, day(2024, 11, 30), 30))
}

func TestRefreshStatuses(t *testing.T) {
	f := setup(t)
	_, err := f.add(f.input("OLD", day(2023, 1, 1), day(2023, 12, 31)))
	require.NoError(t, err)
	_, err = f.add(f.input("ENDING", day(2024, 1, 1), day(2024, 12, 31)))
	require.NoError(t, err)
	_, err = f.add(f.input("NEW", day(2025, 1, 1), day(2025, 12, 31)))
	require.NoError(t, err)

	storetest.Do(t, f.store, func(uow *store.UnitOfWork) error {
		changed, err := f.svc.RefreshStatuses(uow, day(2024, 12, 15))
		require.NoError(t, err)
		assert.Equal(t, 2, changed)

		// Nothing left to change on a second pass
		changed, err = f.svc.RefreshStatuses(uow, day(2024, 12, 15))
		require.NoError(t, err)
		assert.Zero(t, changed)
		return nil
	})

	storetest.Do(t, f.store, func(uow *store.UnitOfWork) error {
		for number, want := range map[string]models.ContractStatus{
			"OLD":    models.ContractExpired,
			"ENDING": models.ContractWarning,
			"NEW":    models.ContractActive,
		} {
			page, err := f.svc.ListContracts(uow, store.ListQuery{}, lease.ContractFilters{ContractNumber: &number})
			require.NoError(t, err)
			require.Equal(t, int64(1), page.Total, number)
			assert.Equal(t, want, page.Data[0].Status, number)
		}
		return nil
	})
}
