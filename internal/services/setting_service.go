package services

import (
	"encoding/json"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/somnifex/PromptManager/internal/database"
	"github.com/somnifex/PromptManager/internal/models"
)

const (
	settingCachePrefix = "setting:"
	settingCacheTTL    = time.Hour
)

// settingCategoryMap routes bulk-updated keys to their category. Unknown
// keys land in "general".
var settingCategoryMap = map[string]string{
	"siteName":          "basic",
	"siteDescription":   "basic",
	"maintenanceMode":   "basic",
	"allowRegistration": "basic",

	"emailEnabled": "email",
	"smtpHost":     "email",
	"smtpPort":     "email",
	"smtpUser":     "email",
	"smtpPassword": "email",
	"smtpTLS":      "email",

	"sessionTimeout":        "security",
	"passwordMinLength":     "security",
	"requireStrongPassword": "security",
	"twoFactorEnabled":      "security",

	"maxFileSize":      "storage",
	"allowedFileTypes": "storage",
	"storageQuota":     "storage",

	"cacheEnabled": "performance",
	"cacheTimeout": "performance",
	"rateLimit":    "performance",

	"logLevel":     "logs",
	"logRetention": "logs",
}

func DetermineSettingCategory(key string) string {
	if category, ok := settingCategoryMap[key]; ok {
		return category
	}
	return "general"
}

// parseSettingValue decodes the stored text as JSON, falling back to the raw
// string for legacy non-JSON values.
func parseSettingValue(raw string) interface{} {
	var value interface{}
	if err := json.Unmarshal([]byte(raw), &value); err != nil {
		return raw
	}
	return value
}

func encodeSettingValue(value interface{}) string {
	if s, ok := value.(string); ok {
		return s
	}
	encoded, err := json.Marshal(value)
	if err != nil {
		return ""
	}
	return string(encoded)
}

// GetSetting reads one setting through the cache. Missing keys return the
// caller-supplied default.
func GetSetting(key string, def interface{}) interface{} {
	cacheKey := settingCachePrefix + key

	if database.RedisClient != nil {
		cached, err := database.RedisClient.Get(database.Ctx, cacheKey).Result()
		if err == nil {
			var value interface{}
			if err := json.Unmarshal([]byte(cached), &value); err == nil {
				return value
			}
		}
	}

	var setting models.SystemSetting
	if err := database.DB.Where("key = ?", key).First(&setting).Error; err != nil {
		return def
	}

	value := parseSettingValue(setting.Value)

	if database.RedisClient != nil {
		if data, err := json.Marshal(value); err == nil {
			database.RedisClient.Set(database.Ctx, cacheKey, data, settingCacheTTL)
		}
	}

	return value
}

// SetSetting upserts a setting and drops its cache entry.
func SetSetting(key string, value interface{}, category, description string) (*models.SystemSetting, error) {
	encoded := encodeSettingValue(value)

	var setting models.SystemSetting
	err := database.DB.Where("key = ?", key).First(&setting).Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		setting = models.SystemSetting{
			Key:         key,
			Value:       encoded,
			Category:    category,
			Description: description,
		}
		if err := database.DB.Create(&setting).Error; err != nil {
			return nil, err
		}
	} else {
		updates := map[string]interface{}{
			"value":       encoded,
			"category":    category,
			"description": description,
		}
		if err := database.DB.Model(&setting).Updates(updates).Error; err != nil {
			return nil, err
		}
	}

	if database.RedisClient != nil {
		database.RedisClient.Del(database.Ctx, settingCachePrefix+key)
	}

	return &setting, nil
}

// GetCategorySettings always reads fresh from the store.
func GetCategorySettings(category string) (map[string]interface{}, error) {
	var settings []models.SystemSetting
	if err := database.DB.Where("category = ?", category).Order("key").Find(&settings).Error; err != nil {
		return nil, err
	}

	result := make(map[string]interface{}, len(settings))
	for _, s := range settings {
		result[s.Key] = parseSettingValue(s.Value)
	}
	return result, nil
}

// GetAllSettings returns every setting grouped by category.
func GetAllSettings() (map[string]map[string]interface{}, error) {
	var settings []models.SystemSetting
	if err := database.DB.Order("category, key").Find(&settings).Error; err != nil {
		return nil, err
	}

	result := make(map[string]map[string]interface{})
	for _, s := range settings {
		if _, ok := result[s.Category]; !ok {
			result[s.Category] = make(map[string]interface{})
		}
		result[s.Category][s.Key] = parseSettingValue(s.Value)
	}
	return result, nil
}

// DefaultSettings is the configuration tree served before any setting has
// been persisted.
func DefaultSettings() map[string]map[string]interface{} {
	return map[string]map[string]interface{}{
		"basic": {
			"siteName":          "Prompt Management System",
			"siteDescription":   "A powerful prompt management platform",
			"maintenanceMode":   false,
			"allowRegistration": true,
		},
		"email": {
			"emailEnabled": false,
			"smtpHost":     "",
			"smtpPort":     587,
			"smtpUser":     "",
			"smtpPassword": "",
			"smtpTLS":      true,
		},
		"security": {
			"sessionTimeout":        24,
			"passwordMinLength":     8,
			"requireStrongPassword": true,
			"twoFactorEnabled":      false,
		},
		"storage": {
			"maxFileSize":      10,
			"allowedFileTypes": "txt,md,json",
			"storageQuota":     1000,
		},
		"performance": {
			"cacheEnabled": true,
			"cacheTimeout": 3600,
			"rateLimit":    1000,
		},
		"logs": {
			"logLevel":     "INFO",
			"logRetention": 30,
		},
	}
}

// BulkUpdateSettings upserts every key with its mapped category and returns
// the refreshed tree.
func BulkUpdateSettings(settings map[string]interface{}) (map[string]map[string]interface{}, error) {
	for key, value := range settings {
		category := DetermineSettingCategory(key)
		if _, err := SetSetting(key, value, category, ""); err != nil {
			return nil, err
		}
	}
	return GetAllSettings()
}
