package ws

import (
	"net/http"

	"storygen-server/internal/authutils"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Браузерный клиент раздаётся с другого origin; доступ защищён токеном.
		return true
	},
}

// Handler обрабатывает запросы на установку WebSocket соединения.
type Handler struct {
	manager  *ConnectionManager
	verifier *authutils.JWTVerifier
	logger   *zap.Logger
}

// NewHandler создает новый обработчик WebSocket.
func NewHandler(manager *ConnectionManager, verifier *authutils.JWTVerifier, logger *zap.Logger) *Handler {
	return &Handler{
		manager:  manager,
		verifier: verifier,
		logger:   logger.Named("WSHandler"),
	}
}

// ServeWS обрабатывает входящий HTTP запрос для WebSocket.
// Токен передаётся query-параметром: браузерный WebSocket API не умеет
// выставлять заголовок Authorization.
func (h *Handler) ServeWS(w http.ResponseWriter, r *http.Request) {
	tokenString := r.URL.Query().Get("token")
	if tokenString == "" {
		h.logger.Warn("Missing 'token' query parameter")
		http.Error(w, "Unauthorized: Missing token", http.StatusUnauthorized)
		return
	}

	claims, err := h.verifier.VerifyToken(r.Context(), tokenString)
	if err != nil {
		h.logger.Warn("Invalid token on WebSocket upgrade", zap.Error(err))
		http.Error(w, "Unauthorized: Invalid token", http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// upgrader уже записал ответ.
		h.logger.Error("Failed to upgrade connection", zap.String("userID", claims.UserID), zap.Error(err))
		return
	}

	h.logger.Info("WebSocket connection established", zap.String("userID", claims.UserID))

	client := NewClient(claims.UserID, conn)
	h.manager.RegisterClient(client)

	log := h.logger.With(zap.String("userID", claims.UserID))
	go client.writePump(log)
	go client.readPump(h.manager, log)
}
