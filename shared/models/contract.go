package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ContractStatus represents where a contract is in its term
type ContractStatus string

const (
	ContractActive  ContractStatus = "active"
	ContractWarning ContractStatus = "warning"
	ContractExpired ContractStatus = "expired"
)

// Valid reports whether s is a known contract status
func (s ContractStatus) Valid() bool {
	switch s {
	case ContractActive, ContractWarning, ContractExpired:
		return true
	}
	return false
}

// PaymentType is the billing frequency of a contract
type PaymentType string

const (
	PaymentMonthly    PaymentType = "monthly"
	PaymentQuarterly  PaymentType = "quarterly"
	PaymentSemiAnnual PaymentType = "semi-annual"
	PaymentAnnual     PaymentType = "annual"
)

var paymentTypeAliases = map[string]PaymentType{
	"monthly":     PaymentMonthly,
	"quarterly":   PaymentQuarterly,
	"semi-annual": PaymentSemiAnnual,
	"semiannual":  PaymentSemiAnnual,
	"semi_annual": PaymentSemiAnnual,
	"annual":      PaymentAnnual,
	"yearly":      PaymentAnnual,
	"شهري":        PaymentMonthly,
	"ربع سنوي":    PaymentQuarterly,
	"نصف سنوي":    PaymentSemiAnnual,
	"سنوي":        PaymentAnnual,
}

// ParsePaymentType resolves a frequency label, including the Arabic labels
// used by imported contracts. ok is false for unknown labels.
func ParsePaymentType(label string) (PaymentType, bool) {
	pt, ok := paymentTypeAliases[strings.ToLower(strings.TrimSpace(label))]
	return pt, ok
}

// Contract represents a lease binding a tenant to a unit for a date range.
// RentAmount is the annualized rent.
type Contract struct {
	ID             uint            `json:"id" gorm:"primaryKey"`
	ContractNumber string          `json:"contract_number" gorm:"type:varchar(64);not null;uniqueIndex"`
	UnitID         uint            `json:"unit_id" gorm:"not null;index"`
	TenantID       uint            `json:"tenant_id" gorm:"not null;index"`
	StartDate      time.Time       `json:"start_date" gorm:"type:date;not null"`
	EndDate        time.Time       `json:"end_date" gorm:"type:date;not null"`
	DurationMonths int             `json:"duration_months" gorm:"not null"`
	RentAmount     decimal.Decimal `json:"rent_amount" gorm:"type:numeric(14,2);not null"`
	RentalPlatform string          `json:"rental_platform,omitempty" gorm:"type:varchar(64)"`
	PaymentType    PaymentType     `json:"payment_type,omitempty" gorm:"type:varchar(32)"`
	Status         ContractStatus  `json:"status" gorm:"type:varchar(32);not null;default:'active';index"`
	Notes          string          `json:"notes,omitempty" gorm:"type:text"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`

	// Invoices is filled by AddContract with the generated schedule
	Invoices []Invoice `json:"invoices,omitempty" gorm:"-"`
}

// TableName returns the table name for the Contract model
func (Contract) TableName() string {
	return "contracts"
}

func (Contract) DeletionPolicy() DeletionPolicy {
	return HardDelete
}

// Overlaps reports whether the inclusive ranges of c and [start, end] intersect
func (c *Contract) Overlaps(start, end time.Time) bool {
	return !c.EndDate.Before(start) && !c.StartDate.After(end)
}
