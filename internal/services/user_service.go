package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/somnifex/PromptManager/internal/database"
	"github.com/somnifex/PromptManager/internal/models"
)

const userPageSize = 20

var (
	ErrUserNotFound = errors.New("user not found")
	ErrSelfDeletion = errors.New("cannot delete yourself")
	ErrLastAdmin    = errors.New("cannot delete the last admin user")
)

func userCacheKey(userID uint) string {
	return fmt.Sprintf("user:%d", userID)
}

func invalidateUserCache(userID uint) {
	if database.RedisClient != nil {
		database.RedisClient.Del(database.Ctx, userCacheKey(userID))
	}
}

func FindUserByID(userID uint) (models.User, error) {
	// Try cache
	if database.RedisClient != nil {
		val, err := database.RedisClient.Get(database.Ctx, userCacheKey(userID)).Result()
		if err == nil {
			var user models.User
			if err := json.Unmarshal([]byte(val), &user); err == nil {
				return user, nil
			}
		}
	}

	var user models.User
	if err := database.DB.First(&user, userID).Error; err != nil {
		return user, err
	}

	if database.RedisClient != nil {
		if data, err := json.Marshal(user); err == nil {
			database.RedisClient.Set(database.Ctx, userCacheKey(userID), data, time.Hour)
		}
	}

	return user, nil
}

// FindUsers returns one page of users, optionally filtered by a username or
// email substring.
func FindUsers(page int, search string) ([]models.User, int64, int, error) {
	var users []models.User
	var total int64

	if page < 1 {
		page = 1
	}

	query := database.DB.Model(&models.User{})
	if search != "" {
		like := "%" + search + "%"
		query = query.Where("username LIKE ? OR email LIKE ?", like, like)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, 0, err
	}

	totalPages := int((total + userPageSize - 1) / userPageSize)
	if totalPages < 1 {
		totalPages = 1
	}
	if page > totalPages {
		page = totalPages
	}

	offset := (page - 1) * userPageSize
	if err := query.Order("id").Offset(offset).Limit(userPageSize).Find(&users).Error; err != nil {
		return nil, 0, 0, err
	}

	return users, total, totalPages, nil
}

// UpdateUser applies a partial update. Passwords are re-hashed before the
// write; the user cache entry is dropped afterwards.
func UpdateUser(id uint, updates map[string]interface{}) (*models.User, error) {
	var user models.User
	if err := database.DB.First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	if password, ok := updates["password"].(string); ok && password != "" {
		hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return nil, err
		}
		updates["password"] = string(hashedPassword)
	}

	if err := database.DB.Model(&user).Updates(updates).Error; err != nil {
		return nil, err
	}

	invalidateUserCache(id)

	if err := database.DB.First(&user, id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// DeleteUser removes a user together with their prompts and version history.
// Self-deletion and deleting the last active admin are rejected.
func DeleteUser(actorID, targetID uint) error {
	if actorID == targetID {
		return ErrSelfDeletion
	}

	var target models.User
	if err := database.DB.First(&target, targetID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return err
	}

	if target.Role == models.RoleAdmin {
		var adminCount int64
		if err := database.DB.Model(&models.User{}).
			Where("role = ? AND is_active = ?", models.RoleAdmin, true).
			Count(&adminCount).Error; err != nil {
			return err
		}
		if adminCount <= 1 {
			return ErrLastAdmin
		}
	}

	err := database.DB.Transaction(func(tx *gorm.DB) error {
		var promptIDs []uint
		if err := tx.Model(&models.Prompt{}).
			Where("author_id = ?", target.ID).
			Pluck("id", &promptIDs).Error; err != nil {
			return err
		}

		if len(promptIDs) > 0 {
			if err := tx.Where("prompt_id IN ?", promptIDs).Delete(&models.PromptVersion{}).Error; err != nil {
				return err
			}
			if err := tx.Exec("DELETE FROM prompt_tags WHERE prompt_id IN ?", promptIDs).Error; err != nil {
				return err
			}
			if err := tx.Where("id IN ?", promptIDs).Delete(&models.Prompt{}).Error; err != nil {
				return err
			}
		}

		return tx.Delete(&target).Error
	})
	if err != nil {
		return err
	}

	invalidateUserCache(targetID)
	return nil
}

type SystemStats struct {
	TotalUsers   int64  `json:"total_users"`
	TotalPrompts int64  `json:"total_prompts"`
	ActiveUsers  int64  `json:"active_users"`
	SystemHealth string `json:"system_health"`
}

func GetSystemStats() (*SystemStats, error) {
	stats := &SystemStats{SystemHealth: "good"}

	if err := database.DB.Model(&models.User{}).Count(&stats.TotalUsers).Error; err != nil {
		return nil, err
	}
	if err := database.DB.Model(&models.Prompt{}).Count(&stats.TotalPrompts).Error; err != nil {
		return nil, err
	}
	if err := database.DB.Model(&models.User{}).Where("is_active = ?", true).Count(&stats.ActiveUsers).Error; err != nil {
		return nil, err
	}

	return stats, nil
}
