package services

import (
	"errors"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/somnifex/PromptManager/internal/database"
	"github.com/somnifex/PromptManager/internal/models"
	"github.com/somnifex/PromptManager/internal/utils"
)

var (
	ErrUserAlreadyExists  = errors.New("user with this username or email already exists")
	ErrPasswordMismatch   = errors.New("passwords don't match")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountDisabled    = errors.New("account is disabled")
)

// RegisterUser creates a user account. The first account ever created is
// promoted to admin regardless of the requested role.
func RegisterUser(username, email, password, passwordConfirm, role string) (*models.User, error) {
	if password != passwordConfirm {
		return nil, ErrPasswordMismatch
	}

	var existing models.User
	result := database.DB.Where("username = ? OR email = ?", username, email).First(&existing)
	if result.Error == nil {
		return nil, ErrUserAlreadyExists
	}
	if !errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, result.Error
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	if role != models.RoleAdmin {
		role = models.RoleUser
	}

	var userCount int64
	if err := database.DB.Model(&models.User{}).Count(&userCount).Error; err != nil {
		return nil, err
	}
	if userCount == 0 {
		role = models.RoleAdmin
	}

	user := &models.User{
		Username: username,
		Email:    email,
		Password: string(hashedPassword),
		Role:     role,
		IsActive: true,
	}

	if err := database.DB.Create(user).Error; err != nil {
		return nil, err
	}

	return user, nil
}

// LoginUser checks credentials. When the account has two-factor enabled no
// token is issued; the caller must complete the TOTP challenge first.
func LoginUser(username, password string) (token string, user *models.User, twoFactorRequired bool, err error) {
	var u models.User
	if err := database.DB.Where("username = ?", username).First(&u).Error; err != nil {
		return "", nil, false, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password)); err != nil {
		return "", nil, false, ErrInvalidCredentials
	}

	if !u.IsActive {
		return "", nil, false, ErrAccountDisabled
	}

	if u.TwoFactorEnabled {
		return "", &u, true, nil
	}

	token, err = IssueSession(&u)
	if err != nil {
		return "", nil, false, err
	}
	return token, &u, false, nil
}

// IssueSession stamps last_login and returns a fresh bearer token.
func IssueSession(user *models.User) (string, error) {
	now := time.Now()
	if err := database.DB.Model(user).Update("last_login", &now).Error; err != nil {
		return "", err
	}
	user.LastLogin = &now

	invalidateUserCache(user.ID)

	return utils.GenerateToken(user.ID, user.Role)
}
