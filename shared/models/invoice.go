package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// InvoiceStatus is derived from the payments recorded against an invoice
type InvoiceStatus string

const (
	InvoiceUnpaid InvoiceStatus = "unpaid"
	InvoicePaid   InvoiceStatus = "paid"
	InvoiceLate   InvoiceStatus = "late"
)

// Valid reports whether s is a known invoice status
func (s InvoiceStatus) Valid() bool {
	switch s {
	case InvoiceUnpaid, InvoicePaid, InvoiceLate:
		return true
	}
	return false
}

// Invoice is one billing installment of a contract
type Invoice struct {
	ID          uint            `json:"id" gorm:"primaryKey"`
	ContractID  uint            `json:"contract_id" gorm:"not null;uniqueIndex:idx_invoices_contract_date"`
	DateIssued  time.Time       `json:"date_issued" gorm:"type:date;not null;uniqueIndex:idx_invoices_contract_date"`
	Amount      decimal.Decimal `json:"amount" gorm:"type:numeric(14,2);not null"`
	Status      InvoiceStatus   `json:"status" gorm:"type:varchar(16);not null;default:'unpaid';index"`
	SentToEmail bool            `json:"sent_to_email" gorm:"not null;default:false"`
	Notes       string          `json:"notes,omitempty" gorm:"type:text"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// TableName returns the table name for the Invoice model
func (Invoice) TableName() string {
	return "invoices"
}

func (Invoice) DeletionPolicy() DeletionPolicy {
	return HardDelete
}
