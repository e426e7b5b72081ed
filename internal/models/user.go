package models

import (
	"time"

	"gorm.io/datatypes"
)

const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

type User struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Username string `gorm:"uniqueIndex;size:150;not null" json:"username"`
	Email    string `gorm:"uniqueIndex;size:254;not null" json:"email"`
	Password string `gorm:"not null" json:"-"`
	Role     string `gorm:"size:10;not null;default:'user'" json:"role"`
	IsActive bool   `gorm:"default:true" json:"is_active"`

	// Two-factor authentication
	TwoFactorEnabled bool   `gorm:"default:false" json:"two_factor_enabled"`
	TwoFactorSecret  string `gorm:"size:255" json:"-"`

	// Free-form per-user UI preferences, managed by the user settings endpoint.
	Preferences datatypes.JSON `gorm:"type:json" json:"preferences" swaggertype:"object"`

	LastLogin *time.Time `json:"last_login"`
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
