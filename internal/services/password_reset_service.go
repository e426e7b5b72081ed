package services

import (
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/somnifex/PromptManager/config"
	"github.com/somnifex/PromptManager/internal/database"
	"github.com/somnifex/PromptManager/internal/mailer"
	"github.com/somnifex/PromptManager/internal/models"
	"github.com/somnifex/PromptManager/pkg/logger"
)

const resetTokenLifetime = 24 * time.Hour

var (
	ErrInvalidResetLink  = errors.New("invalid password reset link")
	ErrInvalidResetToken = errors.New("invalid or expired password reset token")
	ErrPasswordTooShort  = errors.New("password must be at least 8 characters long")
)

// resetSigningKey derives the HMAC key from server secret plus the user's
// mutable state, so changing the password or logging in voids outstanding
// tokens without any server-side bookkeeping.
func resetSigningKey(cfg *config.Config, user *models.User) []byte {
	h := sha256.New()
	h.Write([]byte(cfg.JWTSecret))
	h.Write([]byte(user.Password))
	if user.LastLogin != nil {
		h.Write([]byte(user.LastLogin.UTC().Format(time.RFC3339Nano)))
	}
	return h.Sum(nil)
}

func generateResetToken(cfg *config.Config, user *models.User) (string, error) {
	claims := jwt.MapClaims{
		"user_id": user.ID,
		"purpose": "password_reset",
		"exp":     time.Now().Add(resetTokenLifetime).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(resetSigningKey(cfg, user))
}

func verifyResetToken(cfg *config.Config, user *models.User, tokenString string) error {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return resetSigningKey(cfg, user), nil
	})
	if err != nil || !token.Valid {
		return ErrInvalidResetToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || claims["purpose"] != "password_reset" {
		return ErrInvalidResetToken
	}
	return nil
}

// EncodeUserID renders the uid component of the reset link.
func EncodeUserID(id uint) string {
	return base64.RawURLEncoding.EncodeToString([]byte(strconv.FormatUint(uint64(id), 10)))
}

func decodeUserID(uid string) (uint, error) {
	raw, err := base64.RawURLEncoding.DecodeString(uid)
	if err != nil {
		return 0, err
	}
	id, err := strconv.ParseUint(string(raw), 10, 64)
	if err != nil {
		return 0, err
	}
	return uint(id), nil
}

// ForgotPassword emails a reset link when the address belongs to an account.
// It intentionally reports nothing about whether the account exists, and a
// failed mail delivery is logged but never surfaced.
func ForgotPassword(email string) error {
	var user models.User
	if err := database.DB.Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return err
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}

	token, err := generateResetToken(cfg, &user)
	if err != nil {
		return err
	}

	link := fmt.Sprintf("%s/reset-password?uid=%s&token=%s", cfg.FrontendBaseURL, EncodeUserID(user.ID), token)
	body := fmt.Sprintf(
		"Hello %s,\n\nA password reset was requested for your account. Open the link below to choose a new password. The link expires in 24 hours.\n\n%s\n\nIf you did not request this, you can ignore this email.",
		user.Username, link)

	if err := mailer.New(cfg).Send(user.Email, "Reset your password", body); err != nil {
		if logger.Log != nil {
			logger.Log.Warn("password reset mail failed", zap.String("email", email), zap.Error(err))
		}
	}
	return nil
}

// ResetPassword validates the uid/token pair and sets the new password.
func ResetPassword(uid, tokenString, newPassword string) error {
	id, err := decodeUserID(uid)
	if err != nil {
		return ErrInvalidResetLink
	}

	var user models.User
	if err := database.DB.First(&user, id).Error; err != nil {
		return ErrInvalidResetLink
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}

	if err := verifyResetToken(cfg, &user, tokenString); err != nil {
		return err
	}

	if len(newPassword) < 8 {
		return ErrPasswordTooShort
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	if err := database.DB.Model(&user).Update("password", string(hashed)).Error; err != nil {
		return err
	}

	invalidateUserCache(user.ID)
	return nil
}
