package handler

import (
	"errors"
	"net/http"

	"storygen-server/internal/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

var errUserNotInContext = errors.New("user not found in request context")

// upgradeRequiredResponse — ответ на отказ по квоте или уровню подписки.
// Клиент показывает апгрейд-подсказку, а не сырую ошибку.
type upgradeRequiredResponse struct {
	UpgradeRequired bool   `json:"upgradeRequired"`
	Source          string `json:"source"`
	Message         string `json:"message"`
}

// respondUpgradeRequired завершает запрос 402-подсказкой с тегом источника.
func respondUpgradeRequired(c *gin.Context, source string, err error) {
	c.AbortWithStatusJSON(http.StatusPaymentRequired, upgradeRequiredResponse{
		UpgradeRequired: true,
		Source:          source,
		Message:         err.Error(),
	})
}

// handleServiceError транслирует ошибки сервисного слоя в HTTP статусы.
// Квотные и тарифные отказы обрабатываются до вызова, в самих хендлерах,
// потому что тег источника известен только эндпоинту.
func handleServiceError(c *gin.Context, err error, logger *zap.Logger) {
	var statusCode int
	var errResp models.ErrorResponse

	switch {
	case errors.Is(err, models.ErrInvalidCredentials):
		statusCode = http.StatusUnauthorized
		errResp = models.ErrorResponse{Error: "Invalid email or password"}
	case errors.Is(err, models.ErrUserAlreadyExists):
		statusCode = http.StatusConflict
		errResp = models.ErrorResponse{Error: "User with this email already exists"}
	case errors.Is(err, models.ErrTokenExpired):
		statusCode = http.StatusUnauthorized
		errResp = models.ErrorResponse{Error: "Token has expired"}
	case errors.Is(err, models.ErrTokenInvalid), errors.Is(err, models.ErrTokenMalformed), errors.Is(err, models.ErrTokenNotFound):
		statusCode = http.StatusUnauthorized
		errResp = models.ErrorResponse{Error: "Token is invalid or revoked"}
	case errors.Is(err, models.ErrUnauthorized):
		statusCode = http.StatusUnauthorized
		errResp = models.ErrorResponse{Error: "Unauthorized"}
	case errors.Is(err, models.ErrForbidden):
		statusCode = http.StatusForbidden
		errResp = models.ErrorResponse{Error: "Forbidden"}
	case errors.Is(err, models.ErrProjectNotFound),
		errors.Is(err, models.ErrVersionNotFound),
		errors.Is(err, models.ErrFrameworkNotFound),
		errors.Is(err, models.ErrUserNotFound),
		errors.Is(err, models.ErrNotFound):
		statusCode = http.StatusNotFound
		errResp = models.ErrorResponse{Error: err.Error()}
	case errors.Is(err, models.ErrOperationInProgress):
		statusCode = http.StatusConflict
		errResp = models.ErrorResponse{Error: err.Error()}
	case errors.Is(err, models.ErrDeleteNotConfirmed),
		errors.Is(err, models.ErrUnknownStage),
		errors.Is(err, models.ErrNoPendingDraft),
		errors.Is(err, models.ErrNothingToGenerate),
		errors.Is(err, models.ErrBadRequest),
		errors.Is(err, models.ErrInvalidInput):
		statusCode = http.StatusBadRequest
		errResp = models.ErrorResponse{Error: err.Error()}
	case errors.Is(err, models.ErrAIGenerationFailed), errors.Is(err, models.ErrAIInvalidFormat):
		statusCode = http.StatusBadGateway
		errResp = models.ErrorResponse{Error: err.Error()}
	default:
		logger.Error("Unhandled internal error in handleServiceError", zap.Error(err))
		statusCode = http.StatusInternalServerError
		errResp = models.ErrorResponse{Error: "An unexpected internal error occurred"}
	}

	c.AbortWithStatusJSON(statusCode, errResp)
}
