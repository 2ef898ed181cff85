package handler

import (
	"errors"
	"fmt"
	"net/http"

	"storygen-server/internal/ai"
	"storygen-server/internal/models"
	"storygen-server/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// parseOutputMode валидирует режим генерации из запроса.
func parseOutputMode(raw string) (ai.OutputMode, error) {
	mode := ai.OutputMode(raw)
	if !mode.Valid() {
		return "", fmt.Errorf("%w: unknown output mode %q", models.ErrBadRequest, raw)
	}
	return mode, nil
}

func (h *APIHandler) clarifyingQuestions(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		return
	}
	tier := tierFromRequest(c)
	projectID, ok := parseProjectID(c, h.logger)
	if !ok {
		return
	}
	stageID := c.Param("stage_id")

	var req clarifyingQuestionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "Invalid request body: " + err.Error()})
		return
	}

	questions, err := h.storyService.ClarifyingQuestions(c.Request.Context(), userID, tier, projectID, stageID, req.Instruction)
	if err != nil {
		if errors.Is(err, models.ErrQuotaExceeded) {
			respondUpgradeRequired(c, models.OpClarifyingQuestions.SourceTag(), err)
			return
		}
		handleServiceError(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, questionsResponse{Questions: questions})
}

func (h *APIHandler) stageSuggestion(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		return
	}
	tier := tierFromRequest(c)
	projectID, ok := parseProjectID(c, h.logger)
	if !ok {
		return
	}
	stageID := c.Param("stage_id")

	var req stageSuggestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Invalid request body for stageSuggestion", zap.Stringer("userID", userID), zap.Error(err))
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "Invalid request body: " + err.Error()})
		return
	}

	mode, err := parseOutputMode(req.Mode)
	if err != nil {
		handleServiceError(c, err, h.logger)
		return
	}

	content, err := h.storyService.StageSuggestion(c.Request.Context(), userID, tier, projectID, stageID, mode, req.Answers, req.Instruction)
	if err != nil {
		if errors.Is(err, models.ErrQuotaExceeded) {
			respondUpgradeRequired(c, models.OpSingleStage.SourceTag(), err)
			return
		}
		handleServiceError(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, suggestionResponse{Content: content})
}

func (h *APIHandler) generateFullStory(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		return
	}
	tier := tierFromRequest(c)
	projectID, ok := parseProjectID(c, h.logger)
	if !ok {
		return
	}

	var req generateFullStoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Invalid request body for generateFullStory", zap.Stringer("userID", userID), zap.Error(err))
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "Invalid request body: " + err.Error()})
		return
	}

	mode, err := parseOutputMode(req.Mode)
	if err != nil {
		handleServiceError(c, err, h.logger)
		return
	}

	project, err := h.storyService.GenerateFullStory(c.Request.Context(), userID, tier, projectID, mode, req.Instruction)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrTierRequired):
			respondUpgradeRequired(c, service.SourceTierFullStory, err)
		case errors.Is(err, models.ErrQuotaExceeded):
			respondUpgradeRequired(c, models.OpFullStory.SourceTag(), err)
		default:
			handleServiceError(c, err, h.logger)
		}
		return
	}

	c.JSON(http.StatusOK, project)
}
