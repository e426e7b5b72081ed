package user

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/somnifex/PromptManager/internal/models"
	"github.com/somnifex/PromptManager/internal/services"
	"github.com/somnifex/PromptManager/internal/utils"
)

func currentUser(c *gin.Context) (*models.User, bool) {
	val, exists := c.Get("user")
	if !exists {
		c.JSON(http.StatusUnauthorized, utils.NewErrorResponse(http.StatusUnauthorized, "Unauthorized"))
		return nil, false
	}
	u, ok := val.(models.User)
	if !ok {
		c.JSON(http.StatusUnauthorized, utils.NewErrorResponse(http.StatusUnauthorized, "Unauthorized"))
		return nil, false
	}
	return &u, true
}

// GetProfile godoc
// @Summary Get the current user's profile
// @Tags user
// @Produce  json
// @Security Bearer
// @Success 200 {object} utils.Response{data=UserResponse}
// @Failure 401 {object} utils.Response
// @Router /user/profile [get]
func GetProfile(c *gin.Context) {
	u, ok := currentUser(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, utils.NewSuccessResponse("Profile retrieved successfully", NewUserResponse(u, "")))
}

// UpdateProfile godoc
// @Summary Update the current user's profile
// @Tags user
// @Accept  json
// @Produce  json
// @Security Bearer
// @Param   input  body  UpdateProfileRequest  true  "Profile fields"
// @Success 200 {object} utils.Response{data=UserResponse}
// @Failure 400 {object} utils.Response
// @Failure 401 {object} utils.Response
// @Router /user/profile [put]
func UpdateProfile(c *gin.Context) {
	u, ok := currentUser(c)
	if !ok {
		return
	}

	var req UpdateProfileRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	updates := make(map[string]interface{})
	if req.Email != nil {
		updates["email"] = *req.Email
	}
	if req.Password != nil {
		updates["password"] = *req.Password
	}

	if len(updates) == 0 {
		c.JSON(http.StatusBadRequest, utils.NewErrorResponse(http.StatusBadRequest, "No fields to update"))
		return
	}

	updated, err := services.UpdateUser(u.ID, updates)
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, utils.NewErrorResponse(http.StatusNotFound, "User not found"))
			return
		}
		c.JSON(http.StatusInternalServerError, utils.NewErrorResponse(http.StatusInternalServerError, "Failed to update profile"))
		return
	}

	c.JSON(http.StatusOK, utils.NewSuccessResponse("Profile updated successfully", NewUserResponse(updated, "")))
}

// GetSettings godoc
// @Summary Get the current user's settings
// @Tags user
// @Produce  json
// @Security Bearer
// @Success 200 {object} utils.Response{data=UserSettingsResponse}
// @Failure 401 {object} utils.Response
// @Router /user/settings [get]
func GetSettings(c *gin.Context) {
	u, ok := currentUser(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, utils.NewSuccessResponse("Settings retrieved successfully", UserSettingsResponse{
		TwoFactorEnabled: u.TwoFactorEnabled,
		Preferences:      u.Preferences,
	}))
}

// UpdateSettings godoc
// @Summary Update the current user's preferences
// @Tags user
// @Accept  json
// @Produce  json
// @Security Bearer
// @Param   input  body  UpdateSettingsRequest  true  "Preferences"
// @Success 200 {object} utils.Response{data=UserSettingsResponse}
// @Failure 400 {object} utils.Response
// @Failure 401 {object} utils.Response
// @Router /user/settings [put]
func UpdateSettings(c *gin.Context) {
	u, ok := currentUser(c)
	if !ok {
		return
	}

	var req UpdateSettingsRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	encoded, err := json.Marshal(req.Preferences)
	if err != nil {
		c.JSON(http.StatusBadRequest, utils.NewErrorResponse(http.StatusBadRequest, "Invalid preferences payload"))
		return
	}

	updated, err := services.UpdateUser(u.ID, map[string]interface{}{"preferences": encoded})
	if err != nil {
		c.JSON(http.StatusInternalServerError, utils.NewErrorResponse(http.StatusInternalServerError, "Failed to update settings"))
		return
	}

	c.JSON(http.StatusOK, utils.NewSuccessResponse("Settings updated successfully", UserSettingsResponse{
		TwoFactorEnabled: updated.TwoFactorEnabled,
		Preferences:      updated.Preferences,
	}))
}

// TwoFactorSetup godoc
// @Summary Start two-factor enrollment
// @Description Returns the TOTP secret, provisioning URI and a QR code.
// @Tags user
// @Produce  json
// @Security Bearer
// @Success 200 {object} utils.Response{data=services.TwoFactorSetupData}
// @Failure 401 {object} utils.Response
// @Router /user/two-factor/setup [post]
func TwoFactorSetup(c *gin.Context) {
	u, ok := currentUser(c)
	if !ok {
		return
	}

	data, err := services.TwoFactorSetup(u)
	if err != nil {
		c.JSON(http.StatusInternalServerError, utils.NewErrorResponse(http.StatusInternalServerError, "Failed to set up two-factor authentication"))
		return
	}

	c.JSON(http.StatusOK, utils.NewSuccessResponse("Two-factor setup initiated", data))
}

// TwoFactorEnable godoc
// @Summary Enable two-factor authentication
// @Description Requires a valid current TOTP code.
// @Tags user
// @Accept  json
// @Produce  json
// @Security Bearer
// @Param   input  body  TwoFactorCodeRequest  true  "TOTP code"
// @Success 200 {object} utils.Response
// @Failure 400 {object} utils.Response
// @Failure 401 {object} utils.Response
// @Router /user/two-factor/enable [post]
func TwoFactorEnable(c *gin.Context) {
	u, ok := currentUser(c)
	if !ok {
		return
	}

	var req TwoFactorCodeRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	if err := services.EnableTwoFactor(u, req.Code); err != nil {
		if errors.Is(err, services.ErrInvalidTwoFactorCode) {
			c.JSON(http.StatusBadRequest, utils.NewErrorResponse(http.StatusBadRequest, err.Error()))
			return
		}
		c.JSON(http.StatusInternalServerError, utils.NewErrorResponse(http.StatusInternalServerError, "Failed to enable two-factor authentication"))
		return
	}

	c.JSON(http.StatusOK, utils.NewSuccessResponse("Two-factor authentication enabled", nil))
}

// TwoFactorDisable godoc
// @Summary Disable two-factor authentication
// @Tags user
// @Produce  json
// @Security Bearer
// @Success 200 {object} utils.Response
// @Failure 401 {object} utils.Response
// @Router /user/two-factor/disable [post]
func TwoFactorDisable(c *gin.Context) {
	u, ok := currentUser(c)
	if !ok {
		return
	}

	if err := services.DisableTwoFactor(u); err != nil {
		c.JSON(http.StatusInternalServerError, utils.NewErrorResponse(http.StatusInternalServerError, "Failed to disable two-factor authentication"))
		return
	}

	c.JSON(http.StatusOK, utils.NewSuccessResponse("Two-factor authentication disabled", nil))
}
