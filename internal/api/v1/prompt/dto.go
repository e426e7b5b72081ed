package prompt

import (
	"time"

	"github.com/somnifex/PromptManager/internal/models"
)

type CreatePromptRequest struct {
	Title         string `json:"title" binding:"required,max=255"`
	Content       string `json:"content" binding:"required"`
	SharingMode   string `json:"sharing_mode" binding:"omitempty,oneof=private team"`
	TagIDs        []uint `json:"tag_ids"`
	CommitMessage string `json:"commit_message" binding:"omitempty,max=500"`
}

// UpdatePromptRequest is a partial update. TagIDs keeps the pointer-to-slice
// distinction: absent leaves tags alone, [] resets to the Default tag.
type UpdatePromptRequest struct {
	Title         *string `json:"title,omitempty" binding:"omitempty,max=255"`
	Content       *string `json:"content,omitempty"`
	SharingMode   *string `json:"sharing_mode,omitempty" binding:"omitempty,oneof=private team"`
	IsActive      *bool   `json:"is_active,omitempty"`
	TagIDs        *[]uint `json:"tag_ids,omitempty"`
	CommitMessage string  `json:"commit_message" binding:"omitempty,max=500"`
}

type TagResponse struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
}

type PromptResponse struct {
	ID             uint          `json:"id"`
	Title          string        `json:"title"`
	Content        string        `json:"content"`
	AuthorUsername string        `json:"author_username"`
	SharingMode    string        `json:"sharing_mode"`
	IsActive       bool          `json:"is_active"`
	Tags           []TagResponse `json:"tags"`
	VersionCount   int64         `json:"version_count"`
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`
}

type VersionResponse struct {
	ID             uint      `json:"id"`
	VersionNumber  uint      `json:"version_number"`
	Content        string    `json:"content"`
	AuthorUsername string    `json:"author_username"`
	CommitMessage  string    `json:"commit_message"`
	CreatedAt      time.Time `json:"created_at"`
}

func newTagResponses(tags []models.Tag) []TagResponse {
	out := make([]TagResponse, 0, len(tags))
	for _, t := range tags {
		out = append(out, TagResponse{ID: t.ID, Name: t.Name, Color: t.Color})
	}
	return out
}

func newPromptResponse(p *models.Prompt, versionCount int64) PromptResponse {
	return PromptResponse{
		ID:             p.ID,
		Title:          p.Title,
		Content:        p.Content,
		AuthorUsername: p.Author.Username,
		SharingMode:    p.SharingMode,
		IsActive:       p.IsActive,
		Tags:           newTagResponses(p.Tags),
		VersionCount:   versionCount,
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
	}
}

func newVersionResponse(v *models.PromptVersion) VersionResponse {
	return VersionResponse{
		ID:             v.ID,
		VersionNumber:  v.VersionNumber,
		Content:        v.Content,
		AuthorUsername: v.Author.Username,
		CommitMessage:  v.CommitMessage,
		CreatedAt:      v.CreatedAt,
	}
}
