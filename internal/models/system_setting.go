package models

import "time"

// SystemSetting stores one configuration entry. Value holds the JSON
// encoding of the setting; readers fall back to the raw string when the
// stored text is not valid JSON.
type SystemSetting struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Key         string `gorm:"uniqueIndex;size:100;not null" json:"key"`
	Value       string `gorm:"type:text;not null" json:"value"`
	Category    string `gorm:"size:50;not null;default:'general'" json:"category"`
	Description string `gorm:"size:255" json:"description"`
}
