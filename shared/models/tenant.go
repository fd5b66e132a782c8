package models

import (
	"time"

	"gorm.io/gorm"
)

// Tenant represents a lessee. Names are not unique; national_id is.
type Tenant struct {
	ID          uint           `json:"id" gorm:"primaryKey"`
	Name        string         `json:"name" gorm:"type:varchar(128);not null;index"`
	NationalID  string         `json:"national_id" gorm:"type:varchar(10);not null;uniqueIndex:idx_tenants_national_id,where:deleted_at IS NULL"`
	Nationality string         `json:"nationality,omitempty" gorm:"type:varchar(32)"`
	Phone       string         `json:"phone" gorm:"type:varchar(16);not null"`
	Email       string         `json:"email,omitempty" gorm:"type:varchar(128)"`
	Address     string         `json:"address,omitempty" gorm:"type:varchar(256)"`
	Work        string         `json:"work,omitempty" gorm:"type:varchar(128)"`
	Notes       string         `json:"notes,omitempty" gorm:"type:text"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `json:"-" gorm:"index"`
}

// TableName returns the table name for the Tenant model
func (Tenant) TableName() string {
	return "tenants"
}

func (Tenant) DeletionPolicy() DeletionPolicy {
	return SoftDelete
}
