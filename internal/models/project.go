package models

import (
	"time"

	"github.com/google/uuid"
)

// MaxProjectVersions — размер кольцевого буфера истории версий проекта.
const MaxProjectVersions = 15

// Project — проект черновика истории. StagesContent хранится в jsonb
// как отображение stageID -> текст этапа; отсутствующий ключ означает
// пустой этап.
type Project struct {
	ID            uuid.UUID         `json:"id" db:"id"`
	UserID        uuid.UUID         `json:"user_id" db:"user_id"`
	Title         string            `json:"title" db:"title"`
	FrameworkID   string            `json:"framework_id" db:"framework_id"`
	StagesContent map[string]string `json:"stages_content" db:"stages_content"`
	RawStoryIdea  *string           `json:"raw_story_idea,omitempty" db:"raw_story_idea"`
	CreatedAt     time.Time         `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at" db:"updated_at"`
}

// HasRawIdea сообщает, была ли у проекта исходная идея истории.
func (p *Project) HasRawIdea() bool {
	return p.RawStoryIdea != nil && *p.RawStoryIdea != ""
}

// StageContent возвращает текст этапа; пустая строка для незаполненного.
func (p *Project) StageContent(stageID string) string {
	if p.StagesContent == nil {
		return ""
	}
	return p.StagesContent[stageID]
}

// FilledStages подсчитывает заполненные этапы в пределах фреймворка.
func (p *Project) FilledStages(fw *Framework) int {
	n := 0
	for _, s := range fw.Stages {
		if p.StageContent(s.ID) != "" {
			n++
		}
	}
	return n
}

// ProjectVersion — снимок содержимого проекта в кольцевом буфере истории.
// Label описывает действие, породившее снимок.
type ProjectVersion struct {
	ID            uuid.UUID         `json:"id" db:"id"`
	ProjectID     uuid.UUID         `json:"project_id" db:"project_id"`
	Label         string            `json:"label" db:"label"`
	Title         string            `json:"title" db:"title"`
	StagesContent map[string]string `json:"stages_content" db:"stages_content"`
	RawStoryIdea  *string           `json:"raw_story_idea,omitempty" db:"raw_story_idea"`
	CreatedAt     time.Time         `json:"created_at" db:"created_at"`
}

// Метки версий. Метки этапов и отката строятся форматированием.
const (
	VersionLabelProjectCreated = "Project Created"
	VersionLabelFullDraft      = "Full Story Draft Applied"
	VersionLabelStageFormat    = "Stage: '%s' Updated"
	VersionLabelRevertFormat   = "Reverted to version from %s"
	VersionRevertTimeLayout    = "Jan 2, 2006, 3:04 PM"
	DefaultProjectTitleFormat  = "Untitled Story (%s)"
	DefaultProjectTitleTimeFmt = "1/2/2006"
)
