package ai

import (
	"context"
	"strings"

	"storygen-server/internal/models"

	"github.com/rs/zerolog"
)

// Температуры генерации по операциям; TopP общий для творческих операций.
var (
	tempQuestions      = 0.5
	tempCreative       = 0.7
	tempStructured     = 0.5
	tempFullCreative   = 0.75
	tempFullStructured = 0.6
	tempMapping        = 0.3
	topPDefault        = 0.95
)

// Orchestrator инкапсулирует промты, параметры генерации и разбор ответов
// для всех ИИ-операций над проектом.
type Orchestrator struct {
	client Client
	logger zerolog.Logger
}

// NewOrchestrator создает новый Orchestrator.
func NewOrchestrator(client Client, logger zerolog.Logger) *Orchestrator {
	return &Orchestrator{
		client: client,
		logger: logger.With().Str("component", "ai_orchestrator").Logger(),
	}
}

// stageTemperature возвращает температуру для генерации одного этапа.
func stageTemperature(mode OutputMode) *float64 {
	if mode == ModeCreative {
		return &tempCreative
	}
	return &tempStructured
}

// fullStoryTemperature возвращает температуру для генерации по всем этапам.
func fullStoryTemperature(mode OutputMode) *float64 {
	if mode == ModeCreative {
		return &tempFullCreative
	}
	return &tempFullStructured
}

// ClarifyingQuestions генерирует 3-4 уточняющих вопроса по этапу.
func (o *Orchestrator) ClarifyingQuestions(ctx context.Context, userID string, stage models.FrameworkStage, storyContext, userInstruction string) ([]string, error) {
	system, user := buildQuestionsPrompt(stage, storyContext, userInstruction)

	raw, _, err := o.client.GenerateText(ctx, userID, system, user, GenerationParams{
		Temperature: &tempQuestions,
	})
	if err != nil {
		return nil, err
	}

	questions, err := parseQuestions(raw)
	if err != nil {
		o.logger.Warn().Err(err).Str("user_id", userID).Str("stage_id", stage.ID).Msg("failed to parse clarifying questions")
		return nil, err
	}
	return questions, nil
}

// StageSuggestion генерирует контент одного этапа в заданном режиме.
// Ответ возвращается как есть: для одиночного этапа JSON не используется.
func (o *Orchestrator) StageSuggestion(ctx context.Context, userID string, stage models.FrameworkStage, storyContext string, mode OutputMode, answers []QuestionAnswer, userInstruction string) (string, error) {
	system, user := buildStageSuggestionPrompt(stage, storyContext, mode, answers, userInstruction)

	text, _, err := o.client.GenerateText(ctx, userID, system, user, GenerationParams{
		Temperature: stageTemperature(mode),
		TopP:        &topPDefault,
	})
	if err != nil {
		return "", err
	}
	return text, nil
}

// MapIdea распределяет свободный текст идеи по этапам фреймворка.
// Пустая идея разбирается локально: все этапы получают пустой контент,
// запрос к модели не отправляется.
func (o *Orchestrator) MapIdea(ctx context.Context, userID string, fw *models.Framework, rawStoryIdea string) (map[string]string, error) {
	mapped := make(map[string]string, len(fw.Stages))
	if strings.TrimSpace(rawStoryIdea) == "" {
		for _, s := range fw.Stages {
			mapped[s.ID] = ""
		}
		return mapped, nil
	}

	system, user := buildMappingPrompt(rawStoryIdea, fw)
	raw, _, err := o.client.GenerateText(ctx, userID, system, user, GenerationParams{
		Temperature: &tempMapping,
	})
	if err != nil {
		return nil, err
	}

	parsed, err := parseJSONObject(raw)
	if err != nil {
		o.logger.Warn().Err(err).Str("user_id", userID).Str("framework_id", fw.ID).Msg("failed to parse idea mapping")
		return nil, err
	}

	// Отсутствующие и невалидные этапы получают пустой контент;
	// неизвестные ключи игнорируются.
	for _, s := range fw.Stages {
		if content, ok := parsed[s.ID]; ok {
			mapped[s.ID] = content
		} else {
			o.logger.Warn().Str("stage_id", s.ID).Msg("idea mapping missing stage, defaulting to empty")
			mapped[s.ID] = ""
		}
	}
	for key := range parsed {
		if _, ok := mapped[key]; !ok {
			o.logger.Warn().Str("key", key).Msg("idea mapping returned unexpected stage key")
		}
	}
	return mapped, nil
}

// FullStoryDraft генерирует контент всех этапов по идее истории.
// Для этапов, которые модель не вернула, подставляется заглушка.
func (o *Orchestrator) FullStoryDraft(ctx context.Context, userID string, fw *models.Framework, rawStoryIdea string, mode OutputMode, userInstruction string) (map[string]string, error) {
	content := make(map[string]string, len(fw.Stages))
	if strings.TrimSpace(rawStoryIdea) == "" {
		for _, s := range fw.Stages {
			content[s.ID] = ""
		}
		return content, nil
	}

	system, user := buildFullStoryPrompt(fw, rawStoryIdea, mode, userInstruction)
	raw, _, err := o.client.GenerateText(ctx, userID, system, user, GenerationParams{
		Temperature: fullStoryTemperature(mode),
		TopP:        &topPDefault,
	})
	if err != nil {
		return nil, err
	}

	parsed, err := parseJSONObject(raw)
	if err != nil {
		o.logger.Warn().Err(err).Str("user_id", userID).Str("framework_id", fw.ID).Msg("failed to parse full story draft")
		return nil, err
	}

	for _, s := range fw.Stages {
		if text, ok := parsed[s.ID]; ok {
			content[s.ID] = text
		} else {
			o.logger.Warn().Str("stage_id", s.ID).Str("mode", string(mode)).Msg("full story draft missing stage, inserting placeholder")
			content[s.ID] = missingContentPlaceholder(s.Name, mode)
		}
	}
	for key := range parsed {
		if _, ok := content[key]; !ok {
			o.logger.Warn().Str("key", key).Msg("full story draft returned unexpected stage key")
		}
	}
	return content, nil
}

// CompleteRemaining генерирует контент только для незаполненных этапов.
// Возвращается контент ТОЛЬКО новых этапов; заполненные этапы не трогаются.
// Если пустых этапов нет, возвращается пустая карта без запроса к модели.
func (o *Orchestrator) CompleteRemaining(ctx context.Context, userID string, fw *models.Framework, existing map[string]string, mode OutputMode, userInstruction string) (map[string]string, error) {
	var emptyStages []models.FrameworkStage
	for _, s := range fw.Stages {
		if strings.TrimSpace(existing[s.ID]) == "" {
			emptyStages = append(emptyStages, s)
		}
	}
	if len(emptyStages) == 0 {
		return map[string]string{}, nil
	}

	system, user := buildCompletionPrompt(fw, existing, emptyStages, mode, userInstruction)
	raw, _, err := o.client.GenerateText(ctx, userID, system, user, GenerationParams{
		Temperature: fullStoryTemperature(mode),
		TopP:        &topPDefault,
	})
	if err != nil {
		return nil, err
	}

	parsed, err := parseJSONObject(raw)
	if err != nil {
		o.logger.Warn().Err(err).Str("user_id", userID).Str("framework_id", fw.ID).Msg("failed to parse stage completion")
		return nil, err
	}

	completed := make(map[string]string, len(emptyStages))
	for _, s := range emptyStages {
		if text, ok := parsed[s.ID]; ok {
			completed[s.ID] = text
		} else {
			o.logger.Warn().Str("stage_id", s.ID).Str("mode", string(mode)).Msg("stage completion missing stage, inserting placeholder")
			completed[s.ID] = missingContentPlaceholder(s.Name, mode)
		}
	}
	// Ключи заполненных этапов в ответе игнорируются
	for key := range parsed {
		expected := false
		for _, s := range emptyStages {
			if s.ID == key {
				expected = true
				break
			}
		}
		if !expected {
			o.logger.Warn().Str("key", key).Msg("stage completion returned unexpected stage key, ignoring")
		}
	}
	return completed, nil
}
