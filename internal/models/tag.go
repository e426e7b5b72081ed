package models

import "time"

const (
	DefaultTagName  = "Default"
	DefaultTagColor = "#9e9e9e"
)

type Tag struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`

	Name  string `gorm:"uniqueIndex;size:50;not null" json:"name"`
	Color string `gorm:"size:7;not null;default:'#1976d2'" json:"color"`
}
