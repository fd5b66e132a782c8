package models

import (
	"time"

	"gorm.io/gorm"
)

// UnitStatus represents the occupancy state of a unit
type UnitStatus string

const (
	UnitAvailable        UnitStatus = "available"
	UnitRented           UnitStatus = "rented"
	UnitUnderMaintenance UnitStatus = "under_maintenance"
)

// Valid reports whether s is a known unit status
func (s UnitStatus) Valid() bool {
	switch s {
	case UnitAvailable, UnitRented, UnitUnderMaintenance:
		return true
	}
	return false
}

// Unit represents a rentable unit
type Unit struct {
	ID           uint           `json:"id" gorm:"primaryKey"`
	UnitNumber   string         `json:"unit_number" gorm:"type:varchar(64);not null;uniqueIndex:idx_units_unit_number,where:deleted_at IS NULL"`
	UnitType     string         `json:"unit_type" gorm:"type:varchar(64);not null"`
	Rooms        int            `json:"rooms"`
	Area         float64        `json:"area"`
	Location     string         `json:"location" gorm:"type:varchar(256)"`
	Status       UnitStatus     `json:"status" gorm:"type:varchar(32);not null;default:'available';index"`
	BuildingName string         `json:"building_name,omitempty" gorm:"type:varchar(128)"`
	FloorNumber  *int           `json:"floor_number,omitempty"`
	Notes        string         `json:"notes,omitempty" gorm:"type:text"`
	OwnerID      *uint          `json:"owner_id,omitempty" gorm:"index"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `json:"-" gorm:"index"`
}

// TableName returns the table name for the Unit model
func (Unit) TableName() string {
	return "units"
}

func (Unit) DeletionPolicy() DeletionPolicy {
	return SoftDelete
}
