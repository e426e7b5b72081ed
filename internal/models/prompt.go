package models

import "time"

const (
	SharingModePrivate = "private"
	SharingModeTeam    = "team"
)

type Prompt struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Title       string `gorm:"size:255;not null" json:"title"`
	Content     string `gorm:"type:text;not null" json:"content"`
	AuthorID    uint   `gorm:"not null;index" json:"author_id"`
	Author      User   `gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE" json:"-"`
	SharingMode string `gorm:"size:10;not null;default:'private'" json:"sharing_mode"`
	IsActive    bool   `gorm:"default:true" json:"is_active"`
	Tags        []Tag  `gorm:"many2many:prompt_tags;" json:"tags"`
}

// PromptVersion is an immutable snapshot of a prompt's content. Rows are only
// ever inserted; they are removed together with the owning prompt.
type PromptVersion struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`

	PromptID      uint   `gorm:"not null;uniqueIndex:idx_prompt_version" json:"prompt_id"`
	VersionNumber uint   `gorm:"not null;uniqueIndex:idx_prompt_version" json:"version_number"`
	Content       string `gorm:"type:text;not null" json:"content"`
	AuthorID      uint   `gorm:"not null" json:"author_id"`
	Author        User   `gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE" json:"-"`
	CommitMessage string `gorm:"size:500" json:"commit_message"`
}
