package prompt

import (
	"errors"
	"net/http"
	"strconv"

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

func promptID(c *gin.Context) (uint, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id < 1 {
		c.JSON(http.StatusBadRequest, utils.NewErrorResponse(http.StatusBadRequest, "Invalid prompt ID"))
		return 0, false
	}
	return uint(id), true
}

func respondPrompt(c *gin.Context, status int, message string, p *models.Prompt) {
	count, err := services.VersionCount(p.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, utils.NewErrorResponse(http.StatusInternalServerError, "Failed to load prompt versions"))
		return
	}
	c.JSON(status, utils.NewResponse(status, message, newPromptResponse(p, count)))
}

// ListPrompts godoc
// @Summary List visible prompts
// @Description Admins see everything; everyone else sees their own prompts
// @Description plus team-shared ones.
// @Tags prompts
// @Produce json
// @Security Bearer
// @Success 200 {object} utils.Response{data=[]PromptResponse}
// @Failure 401 {object} utils.Response
// @Router /prompts [get]
func ListPrompts(c *gin.Context) {
	u, ok := currentUser(c)
	if !ok {
		return
	}

	prompts, err := services.ListVisiblePrompts(u)
	if err != nil {
		c.JSON(http.StatusInternalServerError, utils.NewErrorResponse(http.StatusInternalServerError, "Failed to fetch prompts"))
		return
	}

	items := make([]PromptResponse, 0, len(prompts))
	for i := range prompts {
		count, err := services.VersionCount(prompts[i].ID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, utils.NewErrorResponse(http.StatusInternalServerError, "Failed to fetch prompts"))
			return
		}
		items = append(items, newPromptResponse(&prompts[i], count))
	}

	c.JSON(http.StatusOK, utils.NewSuccessResponse("Prompts retrieved successfully", items))
}

// CreatePrompt godoc
// @Summary Create a prompt
// @Description Creates the prompt and version #1. Prompts with no tags get
// @Description the Default tag.
// @Tags prompts
// @Accept json
// @Produce json
// @Security Bearer
// @Param request body CreatePromptRequest true "Create Prompt Request"
// @Success 201 {object} utils.Response{data=PromptResponse}
// @Failure 400 {object} utils.Response
// @Failure 401 {object} utils.Response
// @Router /prompts [post]
func CreatePrompt(c *gin.Context) {
	u, ok := currentUser(c)
	if !ok {
		return
	}

	var req CreatePromptRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	p, err := services.CreatePrompt(u, services.CreatePromptInput{
		Title:         req.Title,
		Content:       req.Content,
		SharingMode:   req.SharingMode,
		TagIDs:        req.TagIDs,
		CommitMessage: req.CommitMessage,
	})
	if err != nil {
		if errors.Is(err, services.ErrTagNotFound) {
			c.JSON(http.StatusBadRequest, utils.NewErrorResponse(http.StatusBadRequest, err.Error()))
			return
		}
		c.JSON(http.StatusInternalServerError, utils.NewErrorResponse(http.StatusInternalServerError, "Failed to create prompt"))
		return
	}

	loaded, err := services.GetPrompt(p.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, utils.NewErrorResponse(http.StatusInternalServerError, "Failed to load prompt"))
		return
	}

	respondPrompt(c, http.StatusCreated, "Prompt created successfully", loaded)
}

// GetPrompt godoc
// @Summary Get a prompt
// @Tags prompts
// @Produce json
// @Security Bearer
// @Param id path int true "Prompt ID"
// @Success 200 {object} utils.Response{data=PromptResponse}
// @Failure 401 {object} utils.Response
// @Failure 403 {object} utils.Response
// @Failure 404 {object} utils.Response
// @Router /prompts/{id} [get]
func GetPrompt(c *gin.Context) {
	u, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := promptID(c)
	if !ok {
		return
	}

	p, err := services.GetPrompt(id)
	if err != nil {
		c.JSON(http.StatusNotFound, utils.NewErrorResponse(http.StatusNotFound, "Prompt not found"))
		return
	}

	if !services.CanViewPrompt(u, p) {
		c.JSON(http.StatusForbidden, utils.NewErrorResponse(http.StatusForbidden, "Not allowed to view this prompt"))
		return
	}

	respondPrompt(c, http.StatusOK, "Prompt retrieved successfully", p)
}

// UpdatePrompt godoc
// @Summary Update a prompt
// @Description Content changes create a new version before the prompt row
// @Description is updated.
// @Tags prompts
// @Accept json
// @Produce json
// @Security Bearer
// @Param id path int true "Prompt ID"
// @Param request body UpdatePromptRequest true "Update Prompt Request"
// @Success 200 {object} utils.Response{data=PromptResponse}
// @Failure 400 {object} utils.Response
// @Failure 401 {object} utils.Response
// @Failure 403 {object} utils.Response
// @Failure 404 {object} utils.Response
// @Router /prompts/{id} [put]
func UpdatePrompt(c *gin.Context) {
	u, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := promptID(c)
	if !ok {
		return
	}

	p, err := services.GetPrompt(id)
	if err != nil {
		c.JSON(http.StatusNotFound, utils.NewErrorResponse(http.StatusNotFound, "Prompt not found"))
		return
	}

	if !services.CanModifyPrompt(u, p) {
		c.JSON(http.StatusForbidden, utils.NewErrorResponse(http.StatusForbidden, "Not allowed to modify this prompt"))
		return
	}

	var req UpdatePromptRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	updated, err := services.UpdatePrompt(id, u, services.UpdatePromptInput{
		Title:         req.Title,
		Content:       req.Content,
		SharingMode:   req.SharingMode,
		IsActive:      req.IsActive,
		TagIDs:        req.TagIDs,
		CommitMessage: req.CommitMessage,
	})
	if err != nil {
		switch {
		case errors.Is(err, services.ErrPromptNotFound):
			c.JSON(http.StatusNotFound, utils.NewErrorResponse(http.StatusNotFound, "Prompt not found"))
		case errors.Is(err, services.ErrTagNotFound):
			c.JSON(http.StatusBadRequest, utils.NewErrorResponse(http.StatusBadRequest, err.Error()))
		default:
			c.JSON(http.StatusInternalServerError, utils.NewErrorResponse(http.StatusInternalServerError, "Failed to update prompt"))
		}
		return
	}

	respondPrompt(c, http.StatusOK, "Prompt updated successfully", updated)
}

// DeletePrompt godoc
// @Summary Delete a prompt with its version history
// @Tags prompts
// @Produce json
// @Security Bearer
// @Param id path int true "Prompt ID"
// @Success 200 {object} utils.Response
// @Failure 401 {object} utils.Response
// @Failure 403 {object} utils.Response
// @Failure 404 {object} utils.Response
// @Router /prompts/{id} [delete]
func DeletePrompt(c *gin.Context) {
	u, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := promptID(c)
	if !ok {
		return
	}

	p, err := services.GetPrompt(id)
	if err != nil {
		c.JSON(http.StatusNotFound, utils.NewErrorResponse(http.StatusNotFound, "Prompt not found"))
		return
	}

	if !services.CanModifyPrompt(u, p) {
		c.JSON(http.StatusForbidden, utils.NewErrorResponse(http.StatusForbidden, "Not allowed to delete this prompt"))
		return
	}

	if err := services.DeletePrompt(id); err != nil {
		c.JSON(http.StatusInternalServerError, utils.NewErrorResponse(http.StatusInternalServerError, "Failed to delete prompt"))
		return
	}

	c.JSON(http.StatusOK, utils.NewSuccessResponse("Prompt deleted successfully", nil))
}

// ListVersions godoc
// @Summary List a prompt's versions, newest first
// @Tags prompts
// @Produce json
// @Security Bearer
// @Param id path int true "Prompt ID"
// @Success 200 {object} utils.Response{data=[]VersionResponse}
// @Failure 401 {object} utils.Response
// @Failure 403 {object} utils.Response
// @Failure 404 {object} utils.Response
// @Router /prompts/{id}/versions [get]
func ListVersions(c *gin.Context) {
	u, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := promptID(c)
	if !ok {
		return
	}

	p, err := services.GetPrompt(id)
	if err != nil {
		c.JSON(http.StatusNotFound, utils.NewErrorResponse(http.StatusNotFound, "Prompt not found"))
		return
	}

	if !services.CanViewPrompt(u, p) {
		c.JSON(http.StatusForbidden, utils.NewErrorResponse(http.StatusForbidden, "Not allowed to view this prompt"))
		return
	}

	versions, err := services.ListVersions(id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, utils.NewErrorResponse(http.StatusInternalServerError, "Failed to fetch versions"))
		return
	}

	items := make([]VersionResponse, 0, len(versions))
	for i := range versions {
		items = append(items, newVersionResponse(&versions[i]))
	}

	c.JSON(http.StatusOK, utils.NewSuccessResponse("Versions retrieved successfully", items))
}

// RestoreVersion godoc
// @Summary Restore a historical version
// @Description Creates a new head version carrying the historical content.
// @Tags prompts
// @Produce json
// @Security Bearer
// @Param id path int true "Prompt ID"
// @Param versionId path int true "Version ID"
// @Success 200 {object} utils.Response{data=VersionResponse}
// @Failure 401 {object} utils.Response
// @Failure 403 {object} utils.Response
// @Failure 404 {object} utils.Response
// @Router /prompts/{id}/versions/{versionId}/restore [post]
func RestoreVersion(c *gin.Context) {
	u, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := promptID(c)
	if !ok {
		return
	}

	versionID, err := strconv.Atoi(c.Param("versionId"))
	if err != nil || versionID < 1 {
		c.JSON(http.StatusBadRequest, utils.NewErrorResponse(http.StatusBadRequest, "Invalid version ID"))
		return
	}

	p, err := services.GetPrompt(id)
	if err != nil {
		c.JSON(http.StatusNotFound, utils.NewErrorResponse(http.StatusNotFound, "Prompt or version not found"))
		return
	}

	if !services.CanModifyPrompt(u, p) {
		c.JSON(http.StatusForbidden, utils.NewErrorResponse(http.StatusForbidden, "Not allowed to modify this prompt"))
		return
	}

	restored, err := services.RestoreVersion(id, uint(versionID), u)
	if err != nil {
		if errors.Is(err, services.ErrPromptNotFound) {
			c.JSON(http.StatusNotFound, utils.NewErrorResponse(http.StatusNotFound, "Prompt or version not found"))
			return
		}
		c.JSON(http.StatusInternalServerError, utils.NewErrorResponse(http.StatusInternalServerError, "Failed to restore version"))
		return
	}

	restored.Author = *u
	c.JSON(http.StatusOK, utils.NewSuccessResponse("Version restored successfully", newVersionResponse(restored)))
}
