package handler

import (
	"net/http"

	"storygen-server/internal/catalog"
	"storygen-server/internal/middleware"
	"storygen-server/internal/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// tierFromRequest извлекает уровень подписки из gin-контекста запроса.
func tierFromRequest(c *gin.Context) models.SubscriptionTier {
	return middleware.TierFromContext(c)
}

// listFrameworks отдает каталог встроенных структур повествования.
func (h *APIHandler) listFrameworks(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"frameworks": catalog.Frameworks()})
}

// getSession восстанавливает состояние редактора: активный проект или
// черновик идеи, ожидающий названия.
func (h *APIHandler) getSession(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		return
	}

	session, err := h.storyService.RestoreSession(c.Request.Context(), userID)
	if err != nil {
		h.logger.Error("Error restoring session", zap.Stringer("userID", userID), zap.Error(err))
		handleServiceError(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, session)
}

// getUsage отдает остатки дневных квот ИИ-операций.
func (h *APIHandler) getUsage(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		return
	}
	tier := tierFromRequest(c)

	c.JSON(http.StatusOK, usageResponse{Remaining: h.storyService.RemainingQuota(userID, tier)})
}

// setTier переключает уровень подписки. Смена уровня сбрасывает дневные
// счетчики; новый уровень попадет в JWT при следующем refresh.
func (h *APIHandler) setTier(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		return
	}

	var req setTierRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "Invalid request body: " + err.Error()})
		return
	}

	tier := models.SubscriptionTier(req.Tier)
	if !tier.Valid() {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "Unknown subscription tier"})
		return
	}

	if err := h.storyService.SetTier(c.Request.Context(), userID, tier); err != nil {
		handleServiceError(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, models.SuccessResponse{Message: "Subscription tier updated"})
}
