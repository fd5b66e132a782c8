package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Payment records money received against an invoice
type Payment struct {
	ID         uint            `json:"id" gorm:"primaryKey"`
	ContractID uint            `json:"contract_id" gorm:"not null;index"`
	InvoiceID  uint            `json:"invoice_id" gorm:"not null;index"`
	DueDate    time.Time       `json:"due_date" gorm:"type:date;not null"`
	AmountDue  decimal.Decimal `json:"amount_due" gorm:"type:numeric(14,2);not null"`
	AmountPaid decimal.Decimal `json:"amount_paid" gorm:"type:numeric(14,2);not null"`
	PaidOn     *time.Time      `json:"paid_on,omitempty" gorm:"type:date"`
	IsLate     bool            `json:"is_late" gorm:"not null;default:false;index"`
	Notes      string          `json:"notes,omitempty" gorm:"type:text"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// TableName returns the table name for the Payment model
func (Payment) TableName() string {
	return "payments"
}

func (Payment) DeletionPolicy() DeletionPolicy {
	return HardDelete
}
