package models

import "encoding/json"

// Типы клиентских событий, доставляемых по WebSocket.
const (
	EventProjectUpdated = "project_updated"
	EventProjectDeleted = "project_deleted"
	EventQuotaExceeded  = "quota_exceeded"
	EventDraftApplied   = "draft_applied"
)

// ClientEventPayload — событие для конкретного пользователя, публикуемое
// в обменник и рассылаемое его активным WebSocket-сессиям.
type ClientEventPayload struct {
	UserID string          `json:"user_id"`
	Type   string          `json:"type"`
	Source string          `json:"source,omitempty"` // тег источника, например ai_limit_full_story
	Data   json.RawMessage `json:"data,omitempty"`
}
