package models

// FrameworkStage — один этап повествовательного фреймворка.
type FrameworkStage struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Framework — повествовательный фреймворк (набор упорядоченных этапов).
type Framework struct {
	ID          string           `json:"id"`
	Name        string           `json:"name"`
	Description string           `json:"description"`
	Stages      []FrameworkStage `json:"stages"`
}

// StageByID возвращает этап фреймворка по его идентификатору.
func (f *Framework) StageByID(stageID string) (FrameworkStage, bool) {
	for _, s := range f.Stages {
		if s.ID == stageID {
			return s, true
		}
	}
	return FrameworkStage{}, false
}

// StageIndex возвращает позицию этапа в каноническом порядке фреймворка
// или -1, если этап не принадлежит фреймворку.
func (f *Framework) StageIndex(stageID string) int {
	for i, s := range f.Stages {
		if s.ID == stageID {
			return i
		}
	}
	return -1
}
