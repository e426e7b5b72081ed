package services

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/somnifex/PromptManager/internal/database"
	"github.com/somnifex/PromptManager/internal/models"
)

var (
	ErrPromptNotFound = errors.New("prompt or version not found")
	ErrTagNotFound    = errors.New("one or more tags not found")
)

type CreatePromptInput struct {
	Title         string
	Content       string
	SharingMode   string
	TagIDs        []uint
	CommitMessage string
}

// UpdatePromptInput carries a partial update. Nil fields stay untouched.
// TagIDs: nil leaves tags alone, an empty slice resets to the Default tag,
// anything else replaces the tag set exactly.
type UpdatePromptInput struct {
	Title         *string
	Content       *string
	SharingMode   *string
	IsActive      *bool
	TagIDs        *[]uint
	CommitMessage string
}

// defaultTag returns the singleton fallback tag, creating it on first use.
func defaultTag(tx *gorm.DB) (*models.Tag, error) {
	var tag models.Tag
	err := tx.Where(models.Tag{Name: models.DefaultTagName}).
		Attrs(models.Tag{Color: models.DefaultTagColor}).
		FirstOrCreate(&tag).Error
	if err != nil {
		return nil, err
	}
	return &tag, nil
}

func resolveTags(tx *gorm.DB, tagIDs []uint) ([]models.Tag, error) {
	if len(tagIDs) == 0 {
		tag, err := defaultTag(tx)
		if err != nil {
			return nil, err
		}
		return []models.Tag{*tag}, nil
	}

	var tags []models.Tag
	if err := tx.Where("id IN ?", tagIDs).Find(&tags).Error; err != nil {
		return nil, err
	}
	if len(tags) != len(tagIDs) {
		return nil, ErrTagNotFound
	}
	return tags, nil
}

func nextVersionNumber(tx *gorm.DB, promptID uint) (uint, error) {
	var max uint
	err := tx.Model(&models.PromptVersion{}).
		Where("prompt_id = ?", promptID).
		Select("COALESCE(MAX(version_number), 0)").
		Scan(&max).Error
	if err != nil {
		return 0, err
	}
	return max + 1, nil
}

// CreatePrompt stores a new prompt together with version #1. Prompts always
// carry at least one tag; the Default tag is attached when none are given.
func CreatePrompt(author *models.User, in CreatePromptInput) (*models.Prompt, error) {
	if in.SharingMode == "" {
		in.SharingMode = models.SharingModePrivate
	}

	prompt := &models.Prompt{
		Title:       in.Title,
		Content:     in.Content,
		AuthorID:    author.ID,
		SharingMode: in.SharingMode,
		IsActive:    true,
	}

	err := database.DB.Transaction(func(tx *gorm.DB) error {
		tags, err := resolveTags(tx, in.TagIDs)
		if err != nil {
			return err
		}
		prompt.Tags = tags

		if err := tx.Create(prompt).Error; err != nil {
			return err
		}

		version := &models.PromptVersion{
			PromptID:      prompt.ID,
			VersionNumber: 1,
			Content:       in.Content,
			AuthorID:      author.ID,
			CommitMessage: in.CommitMessage,
		}
		return tx.Create(version).Error
	})
	if err != nil {
		return nil, err
	}

	return prompt, nil
}

// UpdatePrompt applies a partial update. When new content is supplied, the
// next version snapshot is written before the prompt row changes. Version
// assignment reads max(version_number) inside the same transaction; the
// unique (prompt_id, version_number) index rejects concurrent racers.
func UpdatePrompt(promptID uint, actor *models.User, in UpdatePromptInput) (*models.Prompt, error) {
	var prompt models.Prompt
	if err := database.DB.First(&prompt, promptID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPromptNotFound
		}
		return nil, err
	}

	err := database.DB.Transaction(func(tx *gorm.DB) error {
		if in.Content != nil {
			next, err := nextVersionNumber(tx, prompt.ID)
			if err != nil {
				return err
			}
			version := &models.PromptVersion{
				PromptID:      prompt.ID,
				VersionNumber: next,
				Content:       *in.Content,
				AuthorID:      actor.ID,
				CommitMessage: in.CommitMessage,
			}
			if err := tx.Create(version).Error; err != nil {
				return err
			}
		}

		updates := make(map[string]interface{})
		if in.Title != nil {
			updates["title"] = *in.Title
		}
		if in.Content != nil {
			updates["content"] = *in.Content
		}
		if in.SharingMode != nil {
			updates["sharing_mode"] = *in.SharingMode
		}
		if in.IsActive != nil {
			updates["is_active"] = *in.IsActive
		}
		if len(updates) > 0 {
			if err := tx.Model(&prompt).Updates(updates).Error; err != nil {
				return err
			}
		}

		if in.TagIDs != nil {
			tags, err := resolveTags(tx, *in.TagIDs)
			if err != nil {
				return err
			}
			if err := tx.Model(&prompt).Association("Tags").Replace(tags); err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return GetPrompt(prompt.ID)
}

// RestoreVersion copies a historical snapshot into a new head version and
// makes it the prompt's live content.
func RestoreVersion(promptID, versionID uint, actor *models.User) (*models.PromptVersion, error) {
	var prompt models.Prompt
	if err := database.DB.First(&prompt, promptID).Error; err != nil {
		return nil, ErrPromptNotFound
	}

	var version models.PromptVersion
	if err := database.DB.Where("id = ? AND prompt_id = ?", versionID, promptID).First(&version).Error; err != nil {
		return nil, ErrPromptNotFound
	}

	var restored *models.PromptVersion
	err := database.DB.Transaction(func(tx *gorm.DB) error {
		next, err := nextVersionNumber(tx, prompt.ID)
		if err != nil {
			return err
		}

		restored = &models.PromptVersion{
			PromptID:      prompt.ID,
			VersionNumber: next,
			Content:       version.Content,
			AuthorID:      actor.ID,
			CommitMessage: fmt.Sprintf("Restored from version %d", version.VersionNumber),
		}
		if err := tx.Create(restored).Error; err != nil {
			return err
		}

		return tx.Model(&prompt).Update("content", version.Content).Error
	})
	if err != nil {
		return nil, err
	}

	return restored, nil
}

// ListVisiblePrompts returns what the user may see: everything for admins,
// otherwise own prompts plus team-shared ones.
func ListVisiblePrompts(user *models.User) ([]models.Prompt, error) {
	var prompts []models.Prompt

	query := database.DB.Preload("Tags").Preload("Author").Order("updated_at desc")
	if !user.IsAdmin() {
		query = query.Where("author_id = ? OR sharing_mode = ?", user.ID, models.SharingModeTeam)
	}

	if err := query.Find(&prompts).Error; err != nil {
		return nil, err
	}
	return prompts, nil
}

func GetPrompt(promptID uint) (*models.Prompt, error) {
	var prompt models.Prompt
	err := database.DB.Preload("Tags").Preload("Author").First(&prompt, promptID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPromptNotFound
		}
		return nil, err
	}
	return &prompt, nil
}

// ListVersions returns the history, most recent first.
func ListVersions(promptID uint) ([]models.PromptVersion, error) {
	if _, err := GetPrompt(promptID); err != nil {
		return nil, err
	}

	var versions []models.PromptVersion
	err := database.DB.Preload("Author").
		Where("prompt_id = ?", promptID).
		Order("version_number desc").
		Find(&versions).Error
	if err != nil {
		return nil, err
	}
	return versions, nil
}

func VersionCount(promptID uint) (int64, error) {
	var count int64
	err := database.DB.Model(&models.PromptVersion{}).
		Where("prompt_id = ?", promptID).
		Count(&count).Error
	return count, err
}

// DeletePrompt removes the prompt, its version history and its tag links in
// one transaction. Versions never outlive their prompt.
func DeletePrompt(promptID uint) error {
	var prompt models.Prompt
	if err := database.DB.First(&prompt, promptID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrPromptNotFound
		}
		return err
	}

	return database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("prompt_id = ?", promptID).Delete(&models.PromptVersion{}).Error; err != nil {
			return err
		}
		if err := tx.Exec("DELETE FROM prompt_tags WHERE prompt_id = ?", promptID).Error; err != nil {
			return err
		}
		return tx.Delete(&prompt).Error
	})
}

// CanViewPrompt: author, admin, or anyone when team-shared.
func CanViewPrompt(user *models.User, prompt *models.Prompt) bool {
	if user.IsAdmin() || prompt.AuthorID == user.ID {
		return true
	}
	return prompt.SharingMode == models.SharingModeTeam
}

// CanModifyPrompt: author or admin only.
func CanModifyPrompt(user *models.User, prompt *models.Prompt) bool {
	return user.IsAdmin() || prompt.AuthorID == user.ID
}
