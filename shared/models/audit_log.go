package models

import (
	"time"

	"gorm.io/datatypes"
)

// AuditAction is the kind of mutation an audit entry records
type AuditAction string

const (
	ActionAdd    AuditAction = "add"
	ActionUpdate AuditAction = "update"
	ActionDelete AuditAction = "delete"
)

// AuditLog is an append-only record of one mutation
type AuditLog struct {
	ID        uint              `json:"id" gorm:"primaryKey"`
	Actor     string            `json:"user" gorm:"type:varchar(64);not null;index"`
	Action    AuditAction       `json:"action" gorm:"type:varchar(16);not null;index"`
	Table     string            `json:"table_name" gorm:"column:table_name;type:varchar(32);not null;index"`
	RowID     uint              `json:"row_id" gorm:"not null"`
	Details   datatypes.JSONMap `json:"details,omitempty"`
	Timestamp time.Time         `json:"timestamp" gorm:"not null;index"`
}

// TableName returns the table name for the AuditLog model
func (AuditLog) TableName() string {
	return "auditlog"
}

func (AuditLog) DeletionPolicy() DeletionPolicy {
	return HardDelete
}
