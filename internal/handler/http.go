package handler

import (
	"net/http"

	"storygen-server/internal/authutils"
	"storygen-server/internal/interfaces"
	"storygen-server/internal/middleware"
	"storygen-server/internal/service"
	"storygen-server/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// APIHandler обрабатывает HTTP запросы приложения: аккаунты, проекты,
// ИИ-ассистент, версии и экспорт.
type APIHandler struct {
	storyService service.StoryService
	authService  service.AuthService
	tokenRepo    interfaces.TokenRepository
	wsHandler    *ws.Handler
	verifier     *authutils.JWTVerifier
	logger       *zap.Logger
}

// NewAPIHandler создает новый APIHandler.
func NewAPIHandler(
	storyService service.StoryService,
	authService service.AuthService,
	tokenRepo interfaces.TokenRepository,
	wsHandler *ws.Handler,
	logger *zap.Logger,
	jwtSecret string,
) *APIHandler {
	verifier, err := authutils.NewJWTVerifier(jwtSecret, logger)
	if err != nil {
		logger.Fatal("Failed to create JWT Verifier", zap.Error(err))
	}

	return &APIHandler{
		storyService: storyService,
		authService:  authService,
		tokenRepo:    tokenRepo,
		wsHandler:    wsHandler,
		verifier:     verifier,
		logger:       logger.Named("APIHandler"),
	}
}

// RegisterRoutes регистрирует маршруты приложения.
func (h *APIHandler) RegisterRoutes(router *gin.Engine) {
	authMiddleware := middleware.AuthMiddleware(h.verifier.VerifyToken, h.tokenRepo, h.logger)

	router.GET("/health", h.health)
	router.GET("/frameworks", h.listFrameworks)

	authGroup := router.Group("/auth")
	{
		authGroup.POST("/register", h.register)
		authGroup.POST("/login", h.login)
		authGroup.POST("/refresh", h.refresh)
		authGroup.POST("/logout", authMiddleware, h.logout)
	}

	api := router.Group("/api")
	api.Use(authMiddleware)
	{
		api.GET("/me", h.getMe)
		api.GET("/profile", h.getProfile)
		api.PUT("/profile", h.updateProfile)

		api.GET("/session", h.getSession)
		api.GET("/usage", h.getUsage)
		api.PUT("/tier", h.setTier)

		// Черновик нового проекта (идея без названия). Живет отдельно от
		// /projects/:id, чтобы не пересекаться с параметром маршрута.
		api.POST("/draft", h.startDraft)
		api.POST("/draft/title", h.submitTitle)
		api.DELETE("/draft", h.discardDraft)

		api.GET("/projects", h.listProjects)
		api.GET("/projects/:id", h.getProject)
		api.PUT("/projects/:id/title", h.renameProject)
		api.PUT("/projects/:id/stages/:stage_id", h.updateStage)
		api.DELETE("/projects/:id", h.deleteProject)

		api.POST("/projects/:id/stages/:stage_id/questions", h.clarifyingQuestions)
		api.POST("/projects/:id/stages/:stage_id/suggest", h.stageSuggestion)
		api.POST("/projects/:id/generate", h.generateFullStory)

		api.GET("/projects/:id/versions", h.listVersions)
		api.POST("/projects/:id/versions/:version_id/revert", h.revertToVersion)

		api.POST("/projects/:id/export", h.exportProject)
	}

	// Токен передается в query-параметре, без заголовка Authorization.
	router.GET("/ws", gin.WrapF(h.wsHandler.ServeWS))
}

func (h *APIHandler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// --- Вспомогательные функции --- //

// getUserIDFromContext извлекает userID, установленный AuthMiddleware.
// При отсутствии сам завершает запрос со статусом 401.
func getUserIDFromContext(c *gin.Context) (uuid.UUID, error) {
	userID, ok := middleware.UserIDFromContext(c)
	if !ok || userID == uuid.Nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized: user not found in context"})
		return uuid.Nil, errUserNotInContext
	}
	return userID, nil
}

// parseProjectID разбирает параметр :id. При ошибке сам отвечает 400.
func parseProjectID(c *gin.Context, logger *zap.Logger) (uuid.UUID, bool) {
	idStr := c.Param("id")
	id, err := uuid.Parse(idStr)
	if err != nil {
		logger.Warn("Invalid project ID format", zap.String("id", idStr), zap.Error(err))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid project ID format"})
		return uuid.Nil, false
	}
	return id, true
}
