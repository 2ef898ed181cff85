// Package ws доставляет клиентские события активным WebSocket-сессиям.
package ws

import (
	"sync"

	"go.uber.org/zap"
)

// ConnectionManager управляет активными WebSocket соединениями.
type ConnectionManager struct {
	clients    map[string]*Client // userID -> Client
	register   chan *Client
	unregister chan string
	mu         sync.RWMutex
	logger     *zap.Logger
}

// NewConnectionManager создает и запускает новый менеджер соединений.
func NewConnectionManager(logger *zap.Logger) *ConnectionManager {
	m := &ConnectionManager{
		clients:    make(map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan string),
		logger:     logger.Named("ConnectionManager"),
	}
	go m.run()
	return m
}

// run — основной цикл менеджера для регистрации/дерегистрации.
func (m *ConnectionManager) run() {
	for {
		select {
		case client := <-m.register:
			m.mu.Lock()
			// Новое соединение того же пользователя вытесняет старое.
			if oldClient, ok := m.clients[client.UserID]; ok {
				m.logger.Info("Closing previous connection", zap.String("userID", client.UserID))
				close(oldClient.send)
				_ = oldClient.Conn.Close()
			}
			m.clients[client.UserID] = client
			m.mu.Unlock()
			m.logger.Info("Client registered", zap.String("userID", client.UserID))

		case userID := <-m.unregister:
			m.mu.Lock()
			if client, ok := m.clients[userID]; ok {
				delete(m.clients, userID)
				close(client.send)
			}
			m.mu.Unlock()
			m.logger.Info("Client unregistered", zap.String("userID", userID))
		}
	}
}

// RegisterClient регистрирует нового клиента.
func (m *ConnectionManager) RegisterClient(client *Client) {
	m.register <- client
}

// UnregisterClient удаляет клиента.
func (m *ConnectionManager) UnregisterClient(userID string) {
	m.unregister <- userID
}

// SendToUser отправляет сообщение конкретному пользователю.
// Возвращает true, если пользователь онлайн и сообщение поставлено в
// очередь отправки.
func (m *ConnectionManager) SendToUser(userID string, message []byte) bool {
	m.mu.RLock()
	client, ok := m.clients[userID]
	m.mu.RUnlock()

	if !ok {
		m.logger.Debug("User offline, message dropped", zap.String("userID", userID))
		return false
	}

	select {
	case client.send <- message:
		return true
	default:
		// Очередь переполнена: клиент отключается или завис.
		m.logger.Warn("Send queue full, message dropped", zap.String("userID", userID))
		return false
	}
}

// OnlineCount возвращает число активных соединений.
func (m *ConnectionManager) OnlineCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.clients)
}
