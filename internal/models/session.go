package models

import "time"

// EditorView — экран редактора, на котором остановился пользователь.
type EditorView string

const (
	ViewDashboard EditorView = "dashboard"
	ViewEditor    EditorView = "editor"
	ViewHistory   EditorView = "history"
)

// PendingDraft — заготовка проекта, ожидающая названия: пользователь
// выбрал фреймворк (и, возможно, ввёл идею), но ещё не подтвердил создание.
type PendingDraft struct {
	FrameworkID   string            `json:"framework_id"`
	RawStoryIdea  *string           `json:"raw_story_idea,omitempty"`
	MappedContent map[string]string `json:"mapped_content,omitempty"`
	CreatedAt     time.Time         `json:"created_at"`
}

// EditorSession — восстанавливаемое состояние редактора пользователя.
// Хранится в Redis с TTL и позволяет продолжить работу после перезахода.
type EditorSession struct {
	View            EditorView    `json:"view"`
	ActiveProjectID *string       `json:"active_project_id,omitempty"`
	PendingDraft    *PendingDraft `json:"pending_draft,omitempty"`
	UpdatedAt       time.Time     `json:"updated_at"`
}
