package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestAddMonthsClampsToMonthEnd(t *testing.T) {
	assert.Equal(t, day(2024, 2, 29), AddMonths(day(2024, 1, 31), 1))
	assert.Equal(t, day(2023, 2, 28), AddMonths(day(2023, 1, 31), 1))
	assert.Equal(t, day(2025, 1, 15), AddMonths(day(2024, 10, 15), 3))
	assert.Equal(t, day(2024, 4, 30), AddMonths(day(2024, 1, 31), 3))
}

func TestMonthsBetween(t *testing.T) {
	tests := []struct {
		start, end time.Time
		want       int
	}{
		{day(2024, 1, 1), day(2024, 12, 31), 12},
		{day(2024, 1, 1), day(2024, 1, 1), 1},
		{day(2024, 1, 15), day(2024, 2, 14), 1},
		{day(2024, 1, 15), day(2024, 2, 15), 2},
		{day(2024, 3, 1), day(2024, 2, 1), 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, MonthsBetween(tt.start, tt.end), "%s..%s", tt.start.Format(DateLayout), tt.end.Format(DateLayout))
	}
}

func TestDate(t *testing.T) {
	riyadh := time.FixedZone("AST", 3*60*60)
	assert.Equal(t, day(2024, 5, 2), Date(time.Date(2024, 5, 2, 23, 30, 0, 0, riyadh)))

	d, err := ParseDate("2024-02-29")
	require.NoError(t, err)
	assert.Equal(t, day(2024, 2, 29), d)

	_, err = ParseDate("2023-02-29")
	assert.Error(t, err)
}

func TestParsePaymentType(t *testing.T) {
	tests := map[string]PaymentType{
		"monthly":     PaymentMonthly,
		" Quarterly ": PaymentQuarterly,
		"semiannual":  PaymentSemiAnnual,
		"yearly":      PaymentAnnual,
		"شهري":        PaymentMonthly,
		"نصف سنوي":    PaymentSemiAnnual,
	}
	for label, want := range tests {
		got, ok := ParsePaymentType(label)
		assert.True(t, ok, label)
		assert.Equal(t, want, got, label)
	}

	_, ok := ParsePaymentType("weekly")
	assert.False(t, ok)
}

func TestPolicyOf(t *testing.T) {
	assert.Equal(t, SoftDelete, PolicyOf(Owner{}))
	assert.Equal(t, SoftDelete, PolicyOf(Tenant{}))
	assert.Equal(t, HardDelete, PolicyOf(Contract{}))
	assert.Equal(t, HardDelete, PolicyOf(struct{}{}))
	assert.Equal(t, "soft", SoftDelete.String())
}

func TestContractOverlaps(t *testing.T) {
	c := &Contract{StartDate: day(2024, 1, 1), EndDate: day(2024, 12, 31)}
	assert.True(t, c.Overlaps(day(2024, 12, 31), day(2025, 6, 30)))
	assert.True(t, c.Overlaps(day(2023, 6, 1), day(2024, 1, 1)))
	assert.False(t, c.Overlaps(day(2025, 1, 1), day(2025, 6, 30)))
}
