package handler

import (
	"net/http"

	"storygen-server/internal/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func (h *APIHandler) register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Invalid request body for register", zap.Error(err))
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "Invalid request body: " + err.Error()})
		return
	}

	user, tokens, err := h.authService.Register(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		handleServiceError(c, err, h.logger)
		return
	}

	h.logger.Info("User registered", zap.String("userID", user.ID.String()))
	c.JSON(http.StatusCreated, authResponse{User: user, Tokens: tokens})
}

func (h *APIHandler) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Invalid request body for login", zap.Error(err))
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "Invalid request body: " + err.Error()})
		return
	}

	user, tokens, err := h.authService.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		handleServiceError(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, authResponse{User: user, Tokens: tokens})
}

func (h *APIHandler) refresh(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "Invalid request body: " + err.Error()})
		return
	}

	tokens, err := h.authService.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		handleServiceError(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, gin.H{"tokens": tokens})
}

// logout отзывает все токены и сбрасывает сессионное состояние редактора
// вместе с дневными счетчиками.
func (h *APIHandler) logout(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		return
	}

	if err := h.authService.Logout(c.Request.Context(), userID); err != nil {
		h.logger.Error("Error revoking tokens on logout", zap.String("userID", userID.String()), zap.Error(err))
		handleServiceError(c, err, h.logger)
		return
	}
	h.storyService.Logout(c.Request.Context(), userID)

	c.JSON(http.StatusOK, models.SuccessResponse{Message: "Logged out"})
}

func (h *APIHandler) getMe(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		return
	}

	user, err := h.authService.GetUser(c.Request.Context(), userID)
	if err != nil {
		handleServiceError(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, user)
}

func (h *APIHandler) getProfile(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		return
	}

	profile, err := h.authService.GetProfile(c.Request.Context(), userID)
	if err != nil {
		handleServiceError(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, profile)
}

func (h *APIHandler) updateProfile(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		return
	}

	var req updateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "Invalid request body: " + err.Error()})
		return
	}

	profile := &models.UserProfile{
		UserID:           userID,
		DisplayName:      req.DisplayName,
		PreferredGenres:  req.PreferredGenres,
		PreferredTone:    req.PreferredTone,
		DefaultFramework: req.DefaultFramework,
		OnboardingDone:   req.OnboardingDone,
	}
	if err := h.authService.UpdateProfile(c.Request.Context(), profile); err != nil {
		handleServiceError(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, profile)
}
