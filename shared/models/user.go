package models

import (
	"time"
)

// UserRole represents an operator's role
type UserRole string

const (
	RoleAdmin UserRole = "admin"
	RoleStaff UserRole = "staff"
)

// User is an operator account. Only the bcrypt hash of the password is stored.
type User struct {
	ID           uint       `json:"id" gorm:"primaryKey"`
	Username     string     `json:"username" gorm:"type:varchar(32);not null;uniqueIndex"`
	PasswordHash string     `json:"-" gorm:"type:varchar(128);not null"`
	Role         UserRole   `json:"role" gorm:"type:varchar(16);not null;default:'staff'"`
	IsActive     bool       `json:"is_active" gorm:"not null"`
	LastLogin    *time.Time `json:"last_login,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// TableName returns the table name for the User model
func (User) TableName() string {
	return "users"
}

func (User) DeletionPolicy() DeletionPolicy {
	return HardDelete
}
