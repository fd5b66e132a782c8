package models

import (
	"time"
)

// AttachmentType classifies an attached document
type AttachmentType string

const (
	AttachmentIdentity AttachmentType = "identity"
	AttachmentContract AttachmentType = "contract"
	AttachmentInvoice  AttachmentType = "invoice"
	AttachmentGeneral  AttachmentType = "general"
)

// Attachment links a stored file to exactly one owner, unit, tenant, contract or invoice
type Attachment struct {
	ID             uint           `json:"id" gorm:"primaryKey"`
	Filepath       string         `json:"filepath" gorm:"type:varchar(256);not null"`
	Filetype       string         `json:"filetype" gorm:"type:varchar(32);not null"`
	AttachmentType AttachmentType `json:"attachment_type" gorm:"type:varchar(16);not null;default:'general';index"`
	OwnerID        *uint          `json:"owner_id,omitempty" gorm:"index"`
	UnitID         *uint          `json:"unit_id,omitempty" gorm:"index"`
	TenantID       *uint          `json:"tenant_id,omitempty" gorm:"index"`
	ContractID     *uint          `json:"contract_id,omitempty" gorm:"index"`
	InvoiceID      *uint          `json:"invoice_id,omitempty" gorm:"index"`
	Notes          string         `json:"notes,omitempty" gorm:"type:text"`
	UploadedAt     time.Time      `json:"uploaded_at" gorm:"not null"`
}

// TableName returns the table name for the Attachment model
func (Attachment) TableName() string {
	return "attachments"
}

func (Attachment) DeletionPolicy() DeletionPolicy {
	return HardDelete
}
