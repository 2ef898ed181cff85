package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"storygen-server/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestContext(t *testing.T) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	return c, rec
}

func TestHandleServiceError_StatusMapping(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
	}{
		{"project not found", models.ErrProjectNotFound, http.StatusNotFound},
		{"version not found", models.ErrVersionNotFound, http.StatusNotFound},
		{"framework not found", models.ErrFrameworkNotFound, http.StatusNotFound},
		{"bulk operation in progress", models.ErrOperationInProgress, http.StatusConflict},
		{"duplicate user", models.ErrUserAlreadyExists, http.StatusConflict},
		{"delete not confirmed", models.ErrDeleteNotConfirmed, http.StatusBadRequest},
		{"unknown stage", models.ErrUnknownStage, http.StatusBadRequest},
		{"nothing to generate", models.ErrNothingToGenerate, http.StatusBadRequest},
		{"no pending draft", models.ErrNoPendingDraft, http.StatusBadRequest},
		{"invalid credentials", models.ErrInvalidCredentials, http.StatusUnauthorized},
		{"expired token", models.ErrTokenExpired, http.StatusUnauthorized},
		{"revoked token", models.ErrTokenNotFound, http.StatusUnauthorized},
		{"provider failure", models.ErrAIGenerationFailed, http.StatusBadGateway},
		{"unexpected error", errors.New("pg connection reset"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c, rec := newTestContext(t)
			handleServiceError(c, tc.err, zap.NewNop())
			assert.Equal(t, tc.status, rec.Code)
			assert.True(t, c.IsAborted())
		})
	}
}

func TestHandleServiceError_WrappedErrorKeepsMapping(t *testing.T) {
	c, rec := newTestContext(t)
	wrapped := fmt.Errorf("failed to generate draft: %w: provider timeout", models.ErrAIGenerationFailed)
	handleServiceError(c, wrapped, zap.NewNop())
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestHandleServiceError_InternalErrorHidesDetails(t *testing.T) {
	c, rec := newTestContext(t)
	handleServiceError(c, errors.New("dial tcp 10.0.0.5:5432: i/o timeout"), zap.NewNop())

	var resp models.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotContains(t, resp.Error, "10.0.0.5")
}

func TestRespondUpgradeRequired(t *testing.T) {
	c, rec := newTestContext(t)
	respondUpgradeRequired(c, models.OpFullStory.SourceTag(), models.ErrQuotaExceeded)

	require.Equal(t, http.StatusPaymentRequired, rec.Code)

	var resp upgradeRequiredResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.UpgradeRequired)
	assert.Equal(t, "ai_limit_full_story", resp.Source)
}

func TestParseOutputMode(t *testing.T) {
	mode, err := parseOutputMode("creative")
	require.NoError(t, err)
	assert.Equal(t, "creative", string(mode))

	_, err = parseOutputMode("haiku")
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrBadRequest)
}
