package auth

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/somnifex/PromptManager/internal/api/v1/user"
	"github.com/somnifex/PromptManager/internal/services"
	"github.com/somnifex/PromptManager/internal/utils"
	"github.com/somnifex/PromptManager/pkg/logger"
)

type RegisterInput struct {
	Username        string `json:"username" binding:"required,min=3,max=150"`
	Email           string `json:"email" binding:"required,email"`
	Password        string `json:"password" binding:"required,min=8"`
	PasswordConfirm string `json:"password_confirm" binding:"required"`
	Role            string `json:"role" binding:"omitempty,oneof=admin user"`
}

// Register godoc
// @Summary Register a new user
// @Description Register a new account. The first account created becomes admin.
// @Tags auth
// @Accept  json
// @Produce  json
// @Param   input     body   RegisterInput  true  "Register Input"
// @Success 201 {object} utils.Response{data=user.UserResponse}
// @Failure 400 {object} utils.Response
// @Failure 409 {object} utils.Response
// @Router /auth/register [post]
func Register(c *gin.Context) {
	var input RegisterInput
	if !utils.BindAndValidate(c, &input) {
		return
	}

	u, err := services.RegisterUser(input.Username, input.Email, input.Password, input.PasswordConfirm, input.Role)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrPasswordMismatch):
			c.JSON(http.StatusBadRequest, utils.NewErrorResponse(http.StatusBadRequest, err.Error()))
		case errors.Is(err, services.ErrUserAlreadyExists):
			c.JSON(http.StatusConflict, utils.NewErrorResponse(http.StatusConflict, err.Error()))
		default:
			c.JSON(http.StatusInternalServerError, utils.NewErrorResponse(http.StatusInternalServerError, "Failed to register user due to an internal error"))
		}
		return
	}

	token, err := services.IssueSession(u)
	if err != nil {
		c.JSON(http.StatusInternalServerError, utils.NewErrorResponse(http.StatusInternalServerError, "Could not generate token"))
		return
	}

	c.JSON(http.StatusCreated, utils.NewSuccessResponse("User registered successfully", user.NewUserResponse(u, token)))
}

type LoginInput struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type TwoFactorChallenge struct {
	TwoFactorRequired bool `json:"two_factor_required"`
	UserID            uint `json:"user_id"`
}

// Login godoc
// @Summary Log in a user
// @Description Log in with username and password. Accounts with two-factor
// @Description enabled receive a challenge instead of a token.
// @Tags auth
// @Accept  json
// @Produce  json
// @Param   input     body   LoginInput  true  "Login Input"
// @Success 200 {object} utils.Response{data=user.UserResponse}
// @Failure 400 {object} utils.Response
// @Failure 401 {object} utils.Response
// @Router /auth/login [post]
func Login(c *gin.Context) {
	var input LoginInput
	if !utils.BindAndValidate(c, &input) {
		return
	}

	token, u, twoFactorRequired, err := services.LoginUser(input.Username, input.Password)
	if err != nil {
		c.JSON(http.StatusUnauthorized, utils.NewErrorResponse(http.StatusUnauthorized, "Invalid username or password"))
		return
	}

	if twoFactorRequired {
		c.JSON(http.StatusOK, utils.NewSuccessResponse("Two-factor authentication required", TwoFactorChallenge{
			TwoFactorRequired: true,
			UserID:            u.ID,
		}))
		return
	}

	c.JSON(http.StatusOK, utils.NewSuccessResponse("Logged in successfully", user.NewUserResponse(u, token)))
}

type VerifyTwoFactorInput struct {
	UserID uint   `json:"user_id" binding:"required"`
	Code   string `json:"code" binding:"required,len=6"`
}

// VerifyTwoFactor godoc
// @Summary Complete a two-factor login challenge
// @Description Verify a TOTP code and receive the session token.
// @Tags auth
// @Accept  json
// @Produce  json
// @Param   input     body   VerifyTwoFactorInput  true  "Verify Input"
// @Success 200 {object} utils.Response{data=user.UserResponse}
// @Failure 400 {object} utils.Response
// @Failure 401 {object} utils.Response
// @Router /auth/two-factor/verify [post]
func VerifyTwoFactor(c *gin.Context) {
	var input VerifyTwoFactorInput
	if !utils.BindAndValidate(c, &input) {
		return
	}

	u, err := services.FindUserByID(input.UserID)
	if err != nil || !u.IsActive || !services.VerifyTwoFactorCode(&u, input.Code) {
		// One message for every failure mode, nothing to enumerate. Disabled
		// accounts are rejected here the same as at password login.
		c.JSON(http.StatusUnauthorized, utils.NewErrorResponse(http.StatusUnauthorized, "Invalid user or verification code"))
		return
	}

	token, err := services.IssueSession(&u)
	if err != nil {
		c.JSON(http.StatusInternalServerError, utils.NewErrorResponse(http.StatusInternalServerError, "Could not generate token"))
		return
	}

	c.JSON(http.StatusOK, utils.NewSuccessResponse("Logged in successfully", user.NewUserResponse(&u, token)))
}

// Logout godoc
// @Summary Log out
// @Description Revoke the current token. Already-invalid tokens are not an error.
// @Tags auth
// @Produce  json
// @Security Bearer
// @Success 200 {object} utils.Response
// @Failure 401 {object} utils.Response
// @Router /auth/logout [post]
func Logout(c *gin.Context) {
	tokenString, err := utils.ExtractToken(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, utils.NewErrorResponse(http.StatusUnauthorized, err.Error()))
		return
	}

	if err := services.RevokeToken(tokenString); err != nil {
		c.JSON(http.StatusInternalServerError, utils.NewErrorResponse(http.StatusInternalServerError, "Failed to revoke token"))
		return
	}

	c.JSON(http.StatusOK, utils.NewSuccessResponse("Successfully logged out", nil))
}

type ForgotPasswordInput struct {
	Email string `json:"email" binding:"required,email"`
}

// ForgotPassword godoc
// @Summary Request a password reset
// @Description Always answers with the same message, whether or not the
// @Description email belongs to an account.
// @Tags auth
// @Accept  json
// @Produce  json
// @Param   input     body   ForgotPasswordInput  true  "Forgot Password Input"
// @Success 200 {object} utils.Response
// @Failure 400 {object} utils.Response
// @Router /auth/forgot-password [post]
func ForgotPassword(c *gin.Context) {
	var input ForgotPasswordInput
	if !utils.BindAndValidate(c, &input) {
		return
	}

	if err := services.ForgotPassword(input.Email); err != nil {
		// Internal failures must not leak whether the account exists.
		if logger.Log != nil {
			logger.Log.Error("forgot password failed", zap.Error(err))
		}
	}

	c.JSON(http.StatusOK, utils.NewSuccessResponse("If the email exists, a password reset link has been sent", nil))
}

type ResetPasswordInput struct {
	UID         string `json:"uid" binding:"required"`
	Token       string `json:"token" binding:"required"`
	NewPassword string `json:"new_password" binding:"required"`
}

// ResetPassword godoc
// @Summary Reset a password with a mailed token
// @Tags auth
// @Accept  json
// @Produce  json
// @Param   input     body   ResetPasswordInput  true  "Reset Password Input"
// @Success 200 {object} utils.Response
// @Failure 400 {object} utils.Response
// @Router /auth/reset-password [post]
func ResetPassword(c *gin.Context) {
	var input ResetPasswordInput
	if !utils.BindAndValidate(c, &input) {
		return
	}

	err := services.ResetPassword(input.UID, input.Token, input.NewPassword)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidResetLink),
			errors.Is(err, services.ErrInvalidResetToken),
			errors.Is(err, services.ErrPasswordTooShort):
			c.JSON(http.StatusBadRequest, utils.NewErrorResponse(http.StatusBadRequest, err.Error()))
		default:
			c.JSON(http.StatusInternalServerError, utils.NewErrorResponse(http.StatusInternalServerError, "Failed to reset password"))
		}
		return
	}

	c.JSON(http.StatusOK, utils.NewSuccessResponse("Password has been reset", nil))
}
