package ai_test

import (
	"context"
	"errors"
	"testing"

	"storygen-server/internal/ai"
	"storygen-server/internal/ai/mocks"
	"storygen-server/internal/catalog"
	"storygen-server/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func heroFramework(t *testing.T) *models.Framework {
	t.Helper()
	fw, err := catalog.FrameworkByID("herosJourney")
	require.NoError(t, err)
	return fw
}

func TestClarifyingQuestions(t *testing.T) {
	client := mocks.NewMockClient(t)
	orch := ai.NewOrchestrator(client, zerolog.Nop())
	fw := heroFramework(t)
	stage := fw.Stages[0]

	client.On("GenerateText", mock.Anything, "user-1", mock.Anything, mock.Anything, mock.Anything).
		Return("```json\n{\"questions\": [\"Q1?\", \"Q2?\", \"Q3?\"]}\n```", ai.UsageInfo{TotalTokens: 100}, nil).Once()

	questions, err := orch.ClarifyingQuestions(context.Background(), "user-1", stage, "context", "")
	require.NoError(t, err)
	assert.Equal(t, []string{"Q1?", "Q2?", "Q3?"}, questions)
	client.AssertExpectations(t)
}

func TestClarifyingQuestions_InvalidFormat(t *testing.T) {
	client := mocks.NewMockClient(t)
	orch := ai.NewOrchestrator(client, zerolog.Nop())
	fw := heroFramework(t)

	client.On("GenerateText", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return("here are some questions: 1) ...", ai.UsageInfo{}, nil).Once()

	_, err := orch.ClarifyingQuestions(context.Background(), "user-1", fw.Stages[0], "", "")
	assert.ErrorIs(t, err, models.ErrAIInvalidFormat)
}

func TestStageSuggestion_ReturnsRawText(t *testing.T) {
	client := mocks.NewMockClient(t)
	orch := ai.NewOrchestrator(client, zerolog.Nop())
	fw := heroFramework(t)

	// Одиночный этап не использует JSON: текст возвращается как есть
	client.On("GenerateText", mock.Anything, "user-1", mock.Anything, mock.Anything, mock.MatchedBy(func(p ai.GenerationParams) bool {
		return p.Temperature != nil && *p.Temperature == 0.7 && p.TopP != nil && *p.TopP == 0.95
	})).Return("The hero wakes to an ordinary morning.", ai.UsageInfo{}, nil).Once()

	text, err := orch.StageSuggestion(context.Background(), "user-1", fw.Stages[0], "ctx", ai.ModeCreative, nil, "")
	require.NoError(t, err)
	assert.Equal(t, "The hero wakes to an ordinary morning.", text)
}

func TestStageSuggestion_StructuredModeTemperature(t *testing.T) {
	client := mocks.NewMockClient(t)
	orch := ai.NewOrchestrator(client, zerolog.Nop())
	fw := heroFramework(t)

	client.On("GenerateText", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.MatchedBy(func(p ai.GenerationParams) bool {
		return p.Temperature != nil && *p.Temperature == 0.5
	})).Return("* beat one\n* beat two", ai.UsageInfo{}, nil).Once()

	_, err := orch.StageSuggestion(context.Background(), "user-1", fw.Stages[0], "", ai.ModeOutline, nil, "")
	require.NoError(t, err)
}

func TestMapIdea_EmptyIdeaShortCircuits(t *testing.T) {
	client := mocks.NewMockClient(t)
	orch := ai.NewOrchestrator(client, zerolog.Nop())
	fw := heroFramework(t)

	mapped, err := orch.MapIdea(context.Background(), "user-1", fw, "   ")
	require.NoError(t, err)
	assert.Len(t, mapped, len(fw.Stages))
	for _, s := range fw.Stages {
		assert.Equal(t, "", mapped[s.ID])
	}
	client.AssertNotCalled(t, "GenerateText")
}

func TestMapIdea_MissingStagesDefaultToEmpty(t *testing.T) {
	client := mocks.NewMockClient(t)
	orch := ai.NewOrchestrator(client, zerolog.Nop())
	fw := heroFramework(t)

	client.On("GenerateText", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.MatchedBy(func(p ai.GenerationParams) bool {
		return p.Temperature != nil && *p.Temperature == 0.3
	})).Return(`{"ordinaryWorld": "Village life.", "unknownStage": "ignored"}`, ai.UsageInfo{}, nil).Once()

	mapped, err := orch.MapIdea(context.Background(), "user-1", fw, "A farm boy destined for greatness.")
	require.NoError(t, err)
	assert.Len(t, mapped, len(fw.Stages))
	assert.Equal(t, "Village life.", mapped["ordinaryWorld"])
	assert.Equal(t, "", mapped["ordeal"])
	_, hasUnknown := mapped["unknownStage"]
	assert.False(t, hasUnknown)
}

func TestFullStoryDraft_PlaceholdersForMissingStages(t *testing.T) {
	client := mocks.NewMockClient(t)
	orch := ai.NewOrchestrator(client, zerolog.Nop())
	fw, err := catalog.FrameworkByID("sixStagePlot")
	require.NoError(t, err)

	client.On("GenerateText", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.MatchedBy(func(p ai.GenerationParams) bool {
		return p.Temperature != nil && *p.Temperature == 0.75
	})).Return(`{"setup": "Opening.", "newSituation": "Inciting incident."}`, ai.UsageInfo{}, nil).Once()

	content, err := orch.FullStoryDraft(context.Background(), "user-1", fw, "An idea.", ai.ModeCreative, "")
	require.NoError(t, err)
	assert.Equal(t, "Opening.", content["setup"])
	assert.Equal(t,
		"[AI content for Stage 3: Turning Point #1 (End of Act I) (creative mode) was not generated or was in an invalid format.]",
		content["turningPoint1"])
	assert.Len(t, content, len(fw.Stages))
}

func TestFullStoryDraft_StructuredTemperature(t *testing.T) {
	client := mocks.NewMockClient(t)
	orch := ai.NewOrchestrator(client, zerolog.Nop())
	fw := heroFramework(t)

	client.On("GenerateText", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.MatchedBy(func(p ai.GenerationParams) bool {
		return p.Temperature != nil && *p.Temperature == 0.6
	})).Return(`{}`, ai.UsageInfo{}, nil).Once()

	_, err := orch.FullStoryDraft(context.Background(), "user-1", fw, "An idea.", ai.ModeOutline, "")
	require.NoError(t, err)
}

func TestCompleteRemaining_NoEmptyStagesShortCircuits(t *testing.T) {
	client := mocks.NewMockClient(t)
	orch := ai.NewOrchestrator(client, zerolog.Nop())
	fw, err := catalog.FrameworkByID("sixStagePlot")
	require.NoError(t, err)

	existing := map[string]string{}
	for _, s := range fw.Stages {
		existing[s.ID] = "filled"
	}
	completed, err := orch.CompleteRemaining(context.Background(), "user-1", fw, existing, ai.ModeCreative, "")
	require.NoError(t, err)
	assert.Empty(t, completed)
	client.AssertNotCalled(t, "GenerateText")
}

func TestCompleteRemaining_OnlyEmptyStagesReturned(t *testing.T) {
	client := mocks.NewMockClient(t)
	orch := ai.NewOrchestrator(client, zerolog.Nop())
	fw, err := catalog.FrameworkByID("sixStagePlot")
	require.NoError(t, err)

	existing := map[string]string{
		"setup":        "Opening scene.",
		"newSituation": "  ", // только пробелы считаются пустым этапом
	}

	// Модель вернула один из пустых этапов и один уже заполненный
	client.On("GenerateText", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(`{"newSituation": "Generated.", "setup": "Should be ignored."}`, ai.UsageInfo{}, nil).Once()

	completed, err := orch.CompleteRemaining(context.Background(), "user-1", fw, existing, ai.ModeCreative, "")
	require.NoError(t, err)

	assert.Equal(t, "Generated.", completed["newSituation"])
	_, hasSetup := completed["setup"]
	assert.False(t, hasSetup)
	// Остальные пустые этапы получили заглушки
	assert.Contains(t, completed["risingAction"], "was not generated")
	assert.Len(t, completed, 5)
}

func TestOrchestrator_PropagatesClientError(t *testing.T) {
	client := mocks.NewMockClient(t)
	orch := ai.NewOrchestrator(client, zerolog.Nop())
	fw := heroFramework(t)

	client.On("GenerateText", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return("", ai.UsageInfo{}, errors.New("provider down")).Times(3)

	_, err := orch.StageSuggestion(context.Background(), "user-1", fw.Stages[0], "", ai.ModeCreative, nil, "")
	assert.Error(t, err)
	_, err = orch.MapIdea(context.Background(), "user-1", fw, "idea")
	assert.Error(t, err)
	_, err = orch.FullStoryDraft(context.Background(), "user-1", fw, "idea", ai.ModeCreative, "")
	assert.Error(t, err)
}
