package user

import (
	"time"

	"gorm.io/datatypes"

	"github.com/somnifex/PromptManager/internal/models"
)

type UserResponse struct {
	ID               uint       `json:"id"`
	Username         string     `json:"username"`
	Email            string     `json:"email"`
	Role             string     `json:"role"`
	IsActive         bool       `json:"is_active"`
	TwoFactorEnabled bool       `json:"two_factor_enabled"`
	CreatedAt        time.Time  `json:"created_at"`
	LastLogin        *time.Time `json:"last_login"`
	Token            string     `json:"token,omitempty"`
}

func NewUserResponse(u *models.User, token string) UserResponse {
	return UserResponse{
		ID:               u.ID,
		Username:         u.Username,
		Email:            u.Email,
		Role:             u.Role,
		IsActive:         u.IsActive,
		TwoFactorEnabled: u.TwoFactorEnabled,
		CreatedAt:        u.CreatedAt,
		LastLogin:        u.LastLogin,
		Token:            token,
	}
}

type UpdateProfileRequest struct {
	Email    *string `json:"email,omitempty" binding:"omitempty,email"`
	Password *string `json:"password,omitempty" binding:"omitempty,min=8"`
}

type UserSettingsResponse struct {
	TwoFactorEnabled bool           `json:"two_factor_enabled"`
	Preferences      datatypes.JSON `json:"preferences"`
}

type UpdateSettingsRequest struct {
	Preferences map[string]interface{} `json:"preferences" binding:"required"`
}

type TwoFactorCodeRequest struct {
	Code string `json:"code" binding:"required,len=6"`
}
