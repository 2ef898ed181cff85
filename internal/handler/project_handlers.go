package handler

import (
	"errors"
	"fmt"
	"net/http"

	"storygen-server/internal/export"
	"storygen-server/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Теги источника апгрейд-подсказок, не привязанные к категории ИИ-операции.
const (
	sourceProjectLimit = "project_limit"
	sourceTierExport   = "tier_export"
)

func (h *APIHandler) startDraft(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		return
	}
	tier := tierFromRequest(c)

	var req startDraftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Invalid request body for startDraft", zap.Stringer("userID", userID), zap.Error(err))
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "Invalid request body: " + err.Error()})
		return
	}

	draft, err := h.storyService.StartDraft(c.Request.Context(), userID, tier, req.FrameworkID, req.RawStoryIdea)
	if err != nil {
		if errors.Is(err, models.ErrProjectLimit) {
			respondUpgradeRequired(c, sourceProjectLimit, err)
		} else {
			handleServiceError(c, err, h.logger)
		}
		return
	}

	c.JSON(http.StatusOK, draft)
}

func (h *APIHandler) submitTitle(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		return
	}

	var req submitTitleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "Invalid request body: " + err.Error()})
		return
	}

	project, err := h.storyService.SubmitTitle(c.Request.Context(), userID, req.Title)
	if err != nil {
		handleServiceError(c, err, h.logger)
		return
	}

	c.JSON(http.StatusCreated, project)
}

func (h *APIHandler) discardDraft(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		return
	}

	if err := h.storyService.DiscardDraft(c.Request.Context(), userID); err != nil {
		handleServiceError(c, err, h.logger)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *APIHandler) listProjects(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		return
	}

	projects, err := h.storyService.ListProjects(c.Request.Context(), userID)
	if err != nil {
		h.logger.Error("Error listing projects", zap.Stringer("userID", userID), zap.Error(err))
		handleServiceError(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, gin.H{"projects": projects})
}

func (h *APIHandler) getProject(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		return
	}
	projectID, ok := parseProjectID(c, h.logger)
	if !ok {
		return
	}

	project, err := h.storyService.LoadProject(c.Request.Context(), userID, projectID)
	if err != nil {
		handleServiceError(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, project)
}

func (h *APIHandler) renameProject(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		return
	}
	projectID, ok := parseProjectID(c, h.logger)
	if !ok {
		return
	}

	var req renameProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "Invalid request body: " + err.Error()})
		return
	}

	if err := h.storyService.RenameProject(c.Request.Context(), userID, projectID, req.Title); err != nil {
		handleServiceError(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, models.SuccessResponse{Message: "Project renamed"})
}

func (h *APIHandler) updateStage(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		return
	}
	projectID, ok := parseProjectID(c, h.logger)
	if !ok {
		return
	}
	stageID := c.Param("stage_id")

	var req updateStageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "Invalid request body: " + err.Error()})
		return
	}

	project, err := h.storyService.UpdateStage(c.Request.Context(), userID, projectID, stageID, req.Content)
	if err != nil {
		handleServiceError(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, project)
}

// deleteProject требует явного подтверждения query-параметром confirm=true.
func (h *APIHandler) deleteProject(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		return
	}
	projectID, ok := parseProjectID(c, h.logger)
	if !ok {
		return
	}

	confirmed := c.Query("confirm") == "true"

	if err := h.storyService.DeleteProject(c.Request.Context(), userID, projectID, confirmed); err != nil {
		handleServiceError(c, err, h.logger)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *APIHandler) listVersions(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		return
	}
	projectID, ok := parseProjectID(c, h.logger)
	if !ok {
		return
	}

	versions, err := h.storyService.ListVersions(c.Request.Context(), userID, projectID)
	if err != nil {
		handleServiceError(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, gin.H{"versions": versions})
}

func (h *APIHandler) revertToVersion(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		return
	}
	projectID, ok := parseProjectID(c, h.logger)
	if !ok {
		return
	}

	versionIDStr := c.Param("version_id")
	versionID, err := uuid.Parse(versionIDStr)
	if err != nil {
		h.logger.Warn("Invalid version ID format", zap.String("versionID", versionIDStr), zap.Error(err))
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "Invalid version ID format"})
		return
	}

	project, err := h.storyService.RevertToVersion(c.Request.Context(), userID, projectID, versionID)
	if err != nil {
		handleServiceError(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, project)
}

func (h *APIHandler) exportProject(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		return
	}
	tier := tierFromRequest(c)
	projectID, ok := parseProjectID(c, h.logger)
	if !ok {
		return
	}

	var req exportProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "Invalid request body: " + err.Error()})
		return
	}

	format := export.Format(req.Format)
	if !format.Valid() {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: fmt.Sprintf("Unsupported export format %q", req.Format)})
		return
	}

	body, filename, err := h.storyService.ExportProject(c.Request.Context(), userID, tier, projectID, req.Options, format)
	if err != nil {
		if errors.Is(err, models.ErrTierRequired) {
			respondUpgradeRequired(c, sourceTierExport, err)
			return
		}
		handleServiceError(c, err, h.logger)
		return
	}

	contentType := "text/plain; charset=utf-8"
	if format == export.FormatMarkdown {
		contentType = "text/markdown; charset=utf-8"
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, contentType, []byte(body))
}
