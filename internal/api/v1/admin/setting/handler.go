package setting

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/somnifex/PromptManager/internal/services"
	"github.com/somnifex/PromptManager/internal/utils"
)

// GetSettings godoc
// @Summary Get all system settings grouped by category
// @Description Serves the hardcoded default tree while no setting has been
// @Description persisted yet.
// @Tags admin
// @Produce json
// @Security Bearer
// @Success 200 {object} utils.Response
// @Failure 401 {object} utils.Response
// @Failure 403 {object} utils.Response
// @Router /admin/settings [get]
func GetSettings(c *gin.Context) {
	settings, err := services.GetAllSettings()
	if err != nil {
		c.JSON(http.StatusInternalServerError, utils.NewErrorResponse(http.StatusInternalServerError, "Failed to fetch settings"))
		return
	}

	if len(settings) == 0 {
		c.JSON(http.StatusOK, utils.NewSuccessResponse("Settings retrieved successfully", services.DefaultSettings()))
		return
	}

	c.JSON(http.StatusOK, utils.NewSuccessResponse("Settings retrieved successfully", settings))
}

type UpdateSettingsRequest struct {
	Settings map[string]interface{} `json:"settings" binding:"required"`
}

// UpdateSettings godoc
// @Summary Bulk-update system settings
// @Description Each key is routed to its category; unknown keys land in
// @Description "general". Returns the refreshed tree.
// @Tags admin
// @Accept json
// @Produce json
// @Security Bearer
// @Param body body UpdateSettingsRequest true "Settings to upsert"
// @Success 200 {object} utils.Response
// @Failure 400 {object} utils.Response
// @Failure 401 {object} utils.Response
// @Failure 403 {object} utils.Response
// @Router /admin/settings [put]
func UpdateSettings(c *gin.Context) {
	var req UpdateSettingsRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	updated, err := services.BulkUpdateSettings(req.Settings)
	if err != nil {
		c.JSON(http.StatusInternalServerError, utils.NewErrorResponse(http.StatusInternalServerError, "Failed to update settings"))
		return
	}

	c.JSON(http.StatusOK, utils.NewSuccessResponse("Settings updated successfully", updated))
}

// GetCategory godoc
// @Summary Get one settings category
// @Tags admin
// @Produce json
// @Security Bearer
// @Param category path string true "Category name"
// @Success 200 {object} utils.Response
// @Failure 401 {object} utils.Response
// @Failure 403 {object} utils.Response
// @Router /admin/settings/{category} [get]
func GetCategory(c *gin.Context) {
	category := c.Param("category")

	settings, err := services.GetCategorySettings(category)
	if err != nil {
		c.JSON(http.StatusInternalServerError, utils.NewErrorResponse(http.StatusInternalServerError, "Failed to fetch settings"))
		return
	}

	c.JSON(http.StatusOK, utils.NewSuccessResponse("Settings retrieved successfully", settings))
}
