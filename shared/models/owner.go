package models

import (
	"time"

	"gorm.io/gorm"
)

// Owner represents a property owner
type Owner struct {
	ID                 uint           `json:"id" gorm:"primaryKey"`
	Name               string         `json:"name" gorm:"type:varchar(128);not null;index"`
	RegistrationNumber string         `json:"registration_number" gorm:"type:varchar(32);not null;uniqueIndex:idx_owners_registration_number,where:deleted_at IS NULL"`
	Nationality        string         `json:"nationality" gorm:"type:varchar(32);not null"`
	IBAN               string         `json:"iban,omitempty" gorm:"column:iban;type:varchar(34)"`
	AgentName          string         `json:"agent_name,omitempty" gorm:"type:varchar(128)"`
	Notes              string         `json:"notes,omitempty" gorm:"type:text"`
	CreatedAt          time.Time      `json:"created_at"`
	UpdatedAt          time.Time      `json:"updated_at"`
	DeletedAt          gorm.DeletedAt `json:"-" gorm:"index"`
}

// TableName returns the table name for the Owner model
func (Owner) TableName() string {
	return "owners"
}

func (Owner) DeletionPolicy() DeletionPolicy {
	return SoftDelete
}
