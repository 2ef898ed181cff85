package service_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"storygen-server/internal/ai"
	aimocks "storygen-server/internal/ai/mocks"
	"storygen-server/internal/export"
	"storygen-server/internal/interfaces/mocks"
	"storygen-server/internal/models"
	"storygen-server/internal/service"
	"storygen-server/internal/usage"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type storyServiceFixture struct {
	projectRepo *mocks.MockProjectRepository
	versionRepo *mocks.MockProjectVersionRepository
	userRepo    *mocks.MockUserRepository
	sessionRepo *mocks.MockSessionStateRepository
	publisher   *mocks.MockClientEventPublisher
	aiClient    *aimocks.MockClient
	svc         service.StoryService
}

func newStoryServiceFixture(t *testing.T) *storyServiceFixture {
	t.Helper()
	f := &storyServiceFixture{
		projectRepo: mocks.NewMockProjectRepository(t),
		versionRepo: mocks.NewMockProjectVersionRepository(t),
		userRepo:    mocks.NewMockUserRepository(t),
		sessionRepo: mocks.NewMockSessionStateRepository(t),
		publisher:   mocks.NewMockClientEventPublisher(t),
		aiClient:    aimocks.NewMockClient(t),
	}
	orch := ai.NewOrchestrator(f.aiClient, zerolog.Nop())
	tracker := usage.NewTracker(zap.NewNop())
	f.svc = service.NewStoryService(
		f.projectRepo, f.versionRepo, f.userRepo, f.sessionRepo,
		f.publisher, orch, tracker, zap.NewNop(),
	)
	// Сохранение сессии в Redis — best-effort, в тестах не проверяется.
	f.sessionRepo.On("SaveSession", mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()
	return f
}

// sixStagePlot: самый короткий фреймворк, удобен для проверок по этапам.
const testFrameworkID = "sixStagePlot"

var sixStageIDs = []string{"setup", "newSituation", "turningPoint1", "risingAction", "turningPoint2", "climaxAndResolution"}

func testProject(userID uuid.UUID, stages map[string]string, rawIdea *string) *models.Project {
	if stages == nil {
		stages = map[string]string{}
	}
	return &models.Project{
		ID:            uuid.New(),
		UserID:        userID,
		Title:         "Test Story",
		FrameworkID:   testFrameworkID,
		StagesContent: stages,
		RawStoryIdea:  rawIdea,
		CreatedAt:     time.Now().UTC().Add(-time.Hour),
		UpdatedAt:     time.Now().UTC().Add(-time.Hour),
	}
}

func fullStoryJSON(prefix string) string {
	parts := make([]string, 0, len(sixStageIDs))
	for _, id := range sixStageIDs {
		parts = append(parts, fmt.Sprintf("%q: %q", id, prefix+" "+id))
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

func TestStartDraft(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()

	t.Run("Blank idea maps all stages to empty without a provider call", func(t *testing.T) {
		f := newStoryServiceFixture(t)
		f.projectRepo.On("CountProjectsByUser", ctx, userID).Return(int64(0), nil).Once()

		draft, err := f.svc.StartDraft(ctx, userID, models.TierFree, testFrameworkID, "   ")
		require.NoError(t, err)
		require.NotNil(t, draft)
		assert.Equal(t, testFrameworkID, draft.FrameworkID)
		assert.Nil(t, draft.RawStoryIdea)
		assert.Len(t, draft.MappedContent, len(sixStageIDs))
		for _, id := range sixStageIDs {
			assert.Equal(t, "", draft.MappedContent[id])
		}
		f.aiClient.AssertExpectations(t)
		f.projectRepo.AssertExpectations(t)
	})

	t.Run("Project limit reached for FREE tier", func(t *testing.T) {
		f := newStoryServiceFixture(t)
		f.projectRepo.On("CountProjectsByUser", ctx, userID).Return(int64(3), nil).Once()

		_, err := f.svc.StartDraft(ctx, userID, models.TierFree, testFrameworkID, "")
		assert.ErrorIs(t, err, models.ErrProjectLimit)
	})

	t.Run("FREE idea is mapped without an AI usage gate", func(t *testing.T) {
		f := newStoryServiceFixture(t)
		f.projectRepo.On("CountProjectsByUser", ctx, userID).Return(int64(0), nil).Once()
		f.aiClient.On("GenerateText", mock.Anything, userID.String(), mock.Anything, mock.Anything, mock.Anything).
			Return(`{"setup": "The keeper."}`, ai.UsageInfo{}, nil).Once()

		draft, err := f.svc.StartDraft(ctx, userID, models.TierFree, testFrameworkID, "a story about a lighthouse keeper")
		require.NoError(t, err)
		assert.Equal(t, "The keeper.", draft.MappedContent["setup"])

		// Разбор идеи сдерживается только лимитом проектов: дневные
		// счётчики ИИ-операций не тронуты.
		remaining := f.svc.RemainingQuota(userID, models.TierFree)
		assert.Equal(t, models.LimitsByTier[models.TierFree].SingleStagePerDay, remaining[models.OpSingleStage])
		assert.Equal(t, models.LimitsByTier[models.TierFree].ClarifyingQuestionsPerDay, remaining[models.OpClarifyingQuestions])
		f.aiClient.AssertExpectations(t)
	})

	t.Run("PRO idea is mapped onto framework stages", func(t *testing.T) {
		f := newStoryServiceFixture(t)
		f.projectRepo.On("CountProjectsByUser", ctx, userID).Return(int64(5), nil).Once()
		f.aiClient.On("GenerateText", mock.Anything, userID.String(), mock.Anything, mock.Anything, mock.Anything).
			Return(`{"setup": "An old keeper.", "newSituation": "The light goes out."}`, ai.UsageInfo{}, nil).Once()

		draft, err := f.svc.StartDraft(ctx, userID, models.TierPro, testFrameworkID, "a story about a lighthouse keeper")
		require.NoError(t, err)
		assert.Equal(t, "An old keeper.", draft.MappedContent["setup"])
		// Неупомянутые этапы присутствуют с пустым контентом.
		assert.Equal(t, "", draft.MappedContent["climaxAndResolution"])
		require.NotNil(t, draft.RawStoryIdea)
		assert.Equal(t, "a story about a lighthouse keeper", *draft.RawStoryIdea)
	})

	t.Run("Mapping failure discards the draft", func(t *testing.T) {
		f := newStoryServiceFixture(t)
		f.projectRepo.On("CountProjectsByUser", ctx, userID).Return(int64(0), nil).Twice()
		f.aiClient.On("GenerateText", mock.Anything, userID.String(), mock.Anything, mock.Anything, mock.Anything).
			Return("", ai.UsageInfo{}, errors.New("provider down")).Once()

		_, err := f.svc.StartDraft(ctx, userID, models.TierPro, testFrameworkID, "idea")
		require.Error(t, err)
		assert.ErrorIs(t, f.svc.DiscardDraft(ctx, userID), models.ErrNoPendingDraft)

		// Повторная попытка проходит как обычно.
		f.aiClient.On("GenerateText", mock.Anything, userID.String(), mock.Anything, mock.Anything, mock.Anything).
			Return(`{"setup": "ok"}`, ai.UsageInfo{}, nil).Once()
		_, err = f.svc.StartDraft(ctx, userID, models.TierPro, testFrameworkID, "idea")
		assert.NoError(t, err)
	})

	t.Run("Unknown framework", func(t *testing.T) {
		f := newStoryServiceFixture(t)
		_, err := f.svc.StartDraft(ctx, userID, models.TierFree, "threeActStructure", "")
		assert.ErrorIs(t, err, models.ErrFrameworkNotFound)
	})
}

func TestSubmitTitle(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()

	t.Run("No pending draft", func(t *testing.T) {
		f := newStoryServiceFixture(t)
		_, err := f.svc.SubmitTitle(ctx, userID, "My Story")
		assert.ErrorIs(t, err, models.ErrNoPendingDraft)
	})

	t.Run("Blank title falls back to the dated default", func(t *testing.T) {
		f := newStoryServiceFixture(t)
		f.projectRepo.On("CountProjectsByUser", ctx, userID).Return(int64(0), nil).Once()
		_, err := f.svc.StartDraft(ctx, userID, models.TierFree, testFrameworkID, "")
		require.NoError(t, err)

		f.projectRepo.On("CreateProject", ctx, mock.MatchedBy(func(p *models.Project) bool {
			want := fmt.Sprintf(models.DefaultProjectTitleFormat, time.Now().Format(models.DefaultProjectTitleTimeFmt))
			return p.Title == want && p.FrameworkID == testFrameworkID
		})).Run(func(args mock.Arguments) {
			args.Get(1).(*models.Project).ID = uuid.New()
		}).Return(nil).Once()
		f.versionRepo.On("CreateVersion", ctx, mock.MatchedBy(func(v *models.ProjectVersion) bool {
			return v.Label == models.VersionLabelProjectCreated
		})).Return(nil).Once()
		f.versionRepo.On("DeleteVersionsBeyond", ctx, mock.Anything, models.MaxProjectVersions).Return(int64(0), nil).Once()

		project, err := f.svc.SubmitTitle(ctx, userID, "  ")
		require.NoError(t, err)
		assert.NotEqual(t, uuid.Nil, project.ID)
		f.projectRepo.AssertExpectations(t)
		f.versionRepo.AssertExpectations(t)

		// Черновик погашен созданием проекта.
		_, err = f.svc.SubmitTitle(ctx, userID, "again")
		assert.ErrorIs(t, err, models.ErrNoPendingDraft)
	})

	t.Run("Snapshot failure does not fail project creation", func(t *testing.T) {
		f := newStoryServiceFixture(t)
		f.projectRepo.On("CountProjectsByUser", ctx, userID).Return(int64(0), nil).Once()
		_, err := f.svc.StartDraft(ctx, userID, models.TierFree, testFrameworkID, "")
		require.NoError(t, err)

		f.projectRepo.On("CreateProject", ctx, mock.Anything).Run(func(args mock.Arguments) {
			args.Get(1).(*models.Project).ID = uuid.New()
		}).Return(nil).Once()
		f.versionRepo.On("CreateVersion", ctx, mock.Anything).Return(errors.New("db down")).Once()

		project, err := f.svc.SubmitTitle(ctx, userID, "Resilient Story")
		require.NoError(t, err)
		assert.Equal(t, "Resilient Story", project.Title)
	})
}

func TestUpdateStage(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()

	t.Run("Success snapshots the stage label", func(t *testing.T) {
		f := newStoryServiceFixture(t)
		project := testProject(userID, map[string]string{"setup": "Existing setup."}, nil)

		f.projectRepo.On("GetProjectByID", ctx, userID, project.ID).Return(project, nil).Once()
		f.projectRepo.On("UpdateProjectContent", ctx, mock.MatchedBy(func(p *models.Project) bool {
			return p.StagesContent["newSituation"] == "The storm arrives." &&
				p.StagesContent["setup"] == "Existing setup."
		})).Return(nil).Once()
		f.versionRepo.On("CreateVersion", ctx, mock.MatchedBy(func(v *models.ProjectVersion) bool {
			return v.Label == "Stage: 'Stage 2: The New Situation (Inciting Incident)' Updated"
		})).Return(nil).Once()
		f.versionRepo.On("DeleteVersionsBeyond", ctx, project.ID, models.MaxProjectVersions).Return(int64(0), nil).Once()

		updated, err := f.svc.UpdateStage(ctx, userID, project.ID, "newSituation", "The storm arrives.")
		require.NoError(t, err)
		assert.Equal(t, "The storm arrives.", updated.StagesContent["newSituation"])
		f.versionRepo.AssertExpectations(t)
	})

	t.Run("Remote failure rolls the cache back exactly", func(t *testing.T) {
		f := newStoryServiceFixture(t)
		project := testProject(userID, map[string]string{"setup": "Original."}, nil)

		f.projectRepo.On("GetProjectByID", ctx, userID, project.ID).Return(project, nil).Once()
		f.projectRepo.On("UpdateProjectContent", ctx, mock.Anything).Return(errors.New("connection reset")).Once()

		_, err := f.svc.UpdateStage(ctx, userID, project.ID, "setup", "Broken edit.")
		require.Error(t, err)

		// Повторное обновление другого этапа: в кэше не должно остаться
		// следов неудавшейся правки.
		f.projectRepo.On("UpdateProjectContent", ctx, mock.MatchedBy(func(p *models.Project) bool {
			return p.StagesContent["setup"] == "Original." &&
				p.StagesContent["risingAction"] == "New action."
		})).Return(nil).Once()
		f.versionRepo.On("CreateVersion", ctx, mock.Anything).Return(nil).Once()
		f.versionRepo.On("DeleteVersionsBeyond", ctx, project.ID, models.MaxProjectVersions).Return(int64(0), nil).Once()

		updated, err := f.svc.UpdateStage(ctx, userID, project.ID, "risingAction", "New action.")
		require.NoError(t, err)
		assert.Equal(t, "Original.", updated.StagesContent["setup"])
		f.projectRepo.AssertExpectations(t)
	})

	t.Run("Unknown stage", func(t *testing.T) {
		f := newStoryServiceFixture(t)
		project := testProject(userID, nil, nil)
		f.projectRepo.On("GetProjectByID", ctx, userID, project.ID).Return(project, nil).Once()

		_, err := f.svc.UpdateStage(ctx, userID, project.ID, "ordinaryWorld", "wrong framework stage")
		assert.ErrorIs(t, err, models.ErrUnknownStage)
	})
}

func TestGenerateFullStory(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()

	t.Run("FREE tier is refused before any counter or provider call", func(t *testing.T) {
		f := newStoryServiceFixture(t)
		f.publisher.On("PublishClientEvent", mock.Anything, mock.MatchedBy(func(p models.ClientEventPayload) bool {
			return p.Type == models.EventQuotaExceeded && p.Source == service.SourceTierFullStory
		})).Return(nil).Once()

		_, err := f.svc.GenerateFullStory(ctx, userID, models.TierFree, uuid.New(), ai.ModeCreative, "")
		assert.ErrorIs(t, err, models.ErrTierRequired)

		// Провайдер не вызывался, счётчики не тронуты.
		f.aiClient.AssertExpectations(t)
		remaining := f.svc.RemainingQuota(userID, models.TierFree)
		assert.Equal(t, models.LimitsByTier[models.TierFree].FullStoriesPerDay, remaining[models.OpFullStory])
		f.publisher.AssertExpectations(t)
	})

	t.Run("Raw idea project gets a full draft covering all stages", func(t *testing.T) {
		f := newStoryServiceFixture(t)
		idea := "a lighthouse keeper and the sea"
		project := testProject(userID, nil, &idea)

		f.projectRepo.On("GetProjectByID", ctx, userID, project.ID).Return(project, nil).Once()
		f.aiClient.On("GenerateText", mock.Anything, userID.String(), mock.Anything, mock.Anything, mock.Anything).
			Return("```json\n"+fullStoryJSON("Draft for")+"\n```", ai.UsageInfo{}, nil).Once()
		f.projectRepo.On("UpdateProjectContent", ctx, mock.MatchedBy(func(p *models.Project) bool {
			for _, id := range sixStageIDs {
				if p.StagesContent[id] == "" {
					return false
				}
			}
			return true
		})).Return(nil).Once()
		f.versionRepo.On("CreateVersion", ctx, mock.MatchedBy(func(v *models.ProjectVersion) bool {
			return v.Label == models.VersionLabelFullDraft
		})).Return(nil).Once()
		f.versionRepo.On("DeleteVersionsBeyond", ctx, project.ID, models.MaxProjectVersions).Return(int64(0), nil).Once()
		f.publisher.On("PublishClientEvent", mock.Anything, mock.MatchedBy(func(p models.ClientEventPayload) bool {
			return p.Type == models.EventDraftApplied
		})).Return(nil).Once()

		updated, err := f.svc.GenerateFullStory(ctx, userID, models.TierPro, project.ID, ai.ModeCreative, "")
		require.NoError(t, err)
		assert.Equal(t, "Draft for setup", updated.StagesContent["setup"])
		f.versionRepo.AssertExpectations(t)
	})

	t.Run("Completion never touches non-empty stages", func(t *testing.T) {
		f := newStoryServiceFixture(t)
		project := testProject(userID, map[string]string{
			"setup":        "Hand-written setup.",
			"newSituation": "Hand-written situation.",
		}, nil)

		f.projectRepo.On("GetProjectByID", ctx, userID, project.ID).Return(project, nil).Once()
		f.aiClient.On("GenerateText", mock.Anything, userID.String(), mock.Anything, mock.Anything, mock.Anything).
			Return(`{"turningPoint1": "tp1", "risingAction": "ra", "turningPoint2": "tp2", "climaxAndResolution": "end", "setup": "MUST BE IGNORED"}`, ai.UsageInfo{}, nil).Once()
		f.projectRepo.On("UpdateProjectContent", ctx, mock.MatchedBy(func(p *models.Project) bool {
			return p.StagesContent["setup"] == "Hand-written setup." &&
				p.StagesContent["turningPoint1"] == "tp1"
		})).Return(nil).Once()
		f.versionRepo.On("CreateVersion", ctx, mock.Anything).Return(nil).Once()
		f.versionRepo.On("DeleteVersionsBeyond", ctx, project.ID, models.MaxProjectVersions).Return(int64(0), nil).Once()
		f.publisher.On("PublishClientEvent", mock.Anything, mock.Anything).Return(nil).Once()

		updated, err := f.svc.GenerateFullStory(ctx, userID, models.TierPro, project.ID, ai.ModeCreative, "")
		require.NoError(t, err)
		assert.Equal(t, "Hand-written setup.", updated.StagesContent["setup"])
	})

	t.Run("All stages filled with an idea present is refused", func(t *testing.T) {
		f := newStoryServiceFixture(t)
		idea := "idea"
		stages := map[string]string{}
		for _, id := range sixStageIDs {
			stages[id] = "filled " + id
		}
		project := testProject(userID, stages, &idea)
		f.projectRepo.On("GetProjectByID", ctx, userID, project.ID).Return(project, nil).Once()

		_, err := f.svc.GenerateFullStory(ctx, userID, models.TierPro, project.ID, ai.ModeCreative, "")
		assert.ErrorIs(t, err, models.ErrNothingToGenerate)
		f.aiClient.AssertExpectations(t)
	})

	t.Run("No idea and no filled stages is refused", func(t *testing.T) {
		f := newStoryServiceFixture(t)
		project := testProject(userID, nil, nil)
		f.projectRepo.On("GetProjectByID", ctx, userID, project.ID).Return(project, nil).Once()

		_, err := f.svc.GenerateFullStory(ctx, userID, models.TierPro, project.ID, ai.ModeCreative, "")
		assert.ErrorIs(t, err, models.ErrNothingToGenerate)
	})

	t.Run("Provider failure refunds the quota and notifies", func(t *testing.T) {
		f := newStoryServiceFixture(t)
		idea := "idea"
		project := testProject(userID, nil, &idea)

		f.projectRepo.On("GetProjectByID", ctx, userID, project.ID).Return(project, nil).Once()
		f.aiClient.On("GenerateText", mock.Anything, userID.String(), mock.Anything, mock.Anything, mock.Anything).
			Return("", ai.UsageInfo{}, errors.New("timeout")).Once()
		f.publisher.On("PublishClientEvent", mock.Anything, mock.MatchedBy(func(p models.ClientEventPayload) bool {
			return p.Type == models.EventDraftApplied
		})).Return(nil).Once()

		_, err := f.svc.GenerateFullStory(ctx, userID, models.TierPro, project.ID, ai.ModeCreative, "")
		assert.ErrorIs(t, err, models.ErrAIGenerationFailed)

		remaining := f.svc.RemainingQuota(userID, models.TierPro)
		assert.Equal(t, models.LimitsByTier[models.TierPro].FullStoriesPerDay, remaining[models.OpFullStory])
	})
}

func TestStageSuggestionQuota(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()

	t.Run("FREE quota is exact", func(t *testing.T) {
		f := newStoryServiceFixture(t)
		project := testProject(userID, nil, nil)
		limit := models.LimitsByTier[models.TierFree].SingleStagePerDay

		f.projectRepo.On("GetProjectByID", ctx, userID, project.ID).Return(project, nil).Times(limit + 1)
		f.aiClient.On("GenerateText", mock.Anything, userID.String(), mock.Anything, mock.Anything, mock.Anything).
			Return("Suggested stage text.", ai.UsageInfo{}, nil).Times(limit)

		for i := 0; i < limit; i++ {
			_, err := f.svc.StageSuggestion(ctx, userID, models.TierFree, project.ID, "setup", ai.ModeCreative, nil, "")
			require.NoError(t, err, "suggestion %d of %d should pass", i+1, limit)
		}

		f.publisher.On("PublishClientEvent", mock.Anything, mock.MatchedBy(func(p models.ClientEventPayload) bool {
			return p.Type == models.EventQuotaExceeded && p.Source == "ai_limit_single_stage"
		})).Return(nil).Once()

		_, err := f.svc.StageSuggestion(ctx, userID, models.TierFree, project.ID, "setup", ai.ModeCreative, nil, "")
		assert.ErrorIs(t, err, models.ErrQuotaExceeded)
		f.aiClient.AssertExpectations(t)
	})

	t.Run("Provider failure refunds a suggestion", func(t *testing.T) {
		f := newStoryServiceFixture(t)
		project := testProject(userID, nil, nil)

		f.projectRepo.On("GetProjectByID", ctx, userID, project.ID).Return(project, nil).Once()
		f.aiClient.On("GenerateText", mock.Anything, userID.String(), mock.Anything, mock.Anything, mock.Anything).
			Return("", ai.UsageInfo{}, errors.New("503")).Once()

		_, err := f.svc.StageSuggestion(ctx, userID, models.TierFree, project.ID, "setup", ai.ModeCreative, nil, "")
		require.Error(t, err)

		remaining := f.svc.RemainingQuota(userID, models.TierFree)
		assert.Equal(t, models.LimitsByTier[models.TierFree].SingleStagePerDay, remaining[models.OpSingleStage])
	})

	t.Run("Questions and suggestions draw from separate pools", func(t *testing.T) {
		f := newStoryServiceFixture(t)
		project := testProject(userID, nil, nil)
		limit := models.LimitsByTier[models.TierFree].ClarifyingQuestionsPerDay

		f.projectRepo.On("GetProjectByID", ctx, userID, project.ID).Return(project, nil).Times(limit + 2)
		f.aiClient.On("GenerateText", mock.Anything, userID.String(), mock.Anything, mock.Anything, mock.Anything).
			Return(`{"questions": ["Who?", "Why?", "Where?"]}`, ai.UsageInfo{}, nil).Times(limit)

		for i := 0; i < limit; i++ {
			_, err := f.svc.ClarifyingQuestions(ctx, userID, models.TierFree, project.ID, "setup", "")
			require.NoError(t, err, "questions %d of %d should pass", i+1, limit)
		}

		f.publisher.On("PublishClientEvent", mock.Anything, mock.MatchedBy(func(p models.ClientEventPayload) bool {
			return p.Type == models.EventQuotaExceeded && p.Source == "ai_limit_clarifying_questions"
		})).Return(nil).Once()
		_, err := f.svc.ClarifyingQuestions(ctx, userID, models.TierFree, project.ID, "setup", "")
		assert.ErrorIs(t, err, models.ErrQuotaExceeded)

		// Лимит текста этапа при этом не задет.
		f.aiClient.On("GenerateText", mock.Anything, userID.String(), mock.Anything, mock.Anything, mock.Anything).
			Return("Suggested stage text.", ai.UsageInfo{}, nil).Once()
		_, err = f.svc.StageSuggestion(ctx, userID, models.TierFree, project.ID, "setup", ai.ModeCreative, nil, "")
		assert.NoError(t, err)
	})
}

func TestDeleteProject(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()

	t.Run("Unconfirmed delete is refused", func(t *testing.T) {
		f := newStoryServiceFixture(t)
		err := f.svc.DeleteProject(ctx, userID, uuid.New(), false)
		assert.ErrorIs(t, err, models.ErrDeleteNotConfirmed)
		f.projectRepo.AssertExpectations(t)
	})

	t.Run("Affected count zero maps to not-found and reconciles the list", func(t *testing.T) {
		f := newStoryServiceFixture(t)
		project := testProject(userID, nil, nil)

		f.projectRepo.On("ListProjectsByUser", ctx, userID).Return([]models.Project{*project}, nil).Once()
		_, err := f.svc.ListProjects(ctx, userID)
		require.NoError(t, err)

		f.projectRepo.On("DeleteProject", ctx, userID, project.ID).Return(int64(0), nil).Once()
		err = f.svc.DeleteProject(ctx, userID, project.ID, true)
		assert.ErrorIs(t, err, models.ErrProjectNotFound)

		// Локальный список выверен удалением исчезнувшего проекта.
		f.projectRepo.On("GetProjectByID", ctx, userID, project.ID).Return(nil, models.ErrProjectNotFound).Once()
		_, err = f.svc.UpdateStage(ctx, userID, project.ID, "setup", "x")
		assert.ErrorIs(t, err, models.ErrProjectNotFound)
	})

	t.Run("Successful delete publishes an event", func(t *testing.T) {
		f := newStoryServiceFixture(t)
		projectID := uuid.New()
		f.projectRepo.On("DeleteProject", ctx, userID, projectID).Return(int64(1), nil).Once()
		f.publisher.On("PublishClientEvent", mock.Anything, mock.MatchedBy(func(p models.ClientEventPayload) bool {
			return p.Type == models.EventProjectDeleted && p.UserID == userID.String()
		})).Return(nil).Once()

		err := f.svc.DeleteProject(ctx, userID, projectID, true)
		assert.NoError(t, err)
		f.publisher.AssertExpectations(t)
	})
}

func TestRevertToVersion(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()

	t.Run("Push-forward revert snapshots the restored state", func(t *testing.T) {
		f := newStoryServiceFixture(t)
		project := testProject(userID, map[string]string{"setup": "Current."}, nil)
		versionCreatedAt := time.Date(2025, time.March, 14, 15, 4, 0, 0, time.UTC)
		version := &models.ProjectVersion{
			ID:            uuid.New(),
			ProjectID:     project.ID,
			Label:         models.VersionLabelProjectCreated,
			Title:         "Old Title",
			StagesContent: map[string]string{"setup": "Old setup."},
			CreatedAt:     versionCreatedAt,
		}

		f.projectRepo.On("GetProjectByID", ctx, userID, project.ID).Return(project, nil).Once()
		f.versionRepo.On("GetVersionByID", ctx, project.ID, version.ID).Return(version, nil).Once()
		f.projectRepo.On("UpdateProjectContent", ctx, mock.MatchedBy(func(p *models.Project) bool {
			return p.Title == "Old Title" && p.StagesContent["setup"] == "Old setup."
		})).Return(nil).Once()

		wantLabel := fmt.Sprintf(models.VersionLabelRevertFormat, versionCreatedAt.Format(models.VersionRevertTimeLayout))
		f.versionRepo.On("CreateVersion", ctx, mock.MatchedBy(func(v *models.ProjectVersion) bool {
			return v.Label == wantLabel && v.StagesContent["setup"] == "Old setup."
		})).Return(nil).Once()
		f.versionRepo.On("DeleteVersionsBeyond", ctx, project.ID, models.MaxProjectVersions).Return(int64(1), nil).Once()
		f.publisher.On("PublishClientEvent", mock.Anything, mock.Anything).Return(nil).Once()

		updated, err := f.svc.RevertToVersion(ctx, userID, project.ID, version.ID)
		require.NoError(t, err)
		assert.Equal(t, "Old setup.", updated.StagesContent["setup"])
		f.versionRepo.AssertExpectations(t)
	})

	t.Run("Unknown version", func(t *testing.T) {
		f := newStoryServiceFixture(t)
		project := testProject(userID, nil, nil)
		versionID := uuid.New()
		f.projectRepo.On("GetProjectByID", ctx, userID, project.ID).Return(project, nil).Once()
		f.versionRepo.On("GetVersionByID", ctx, project.ID, versionID).Return(nil, models.ErrVersionNotFound).Once()

		_, err := f.svc.RevertToVersion(ctx, userID, project.ID, versionID)
		assert.ErrorIs(t, err, models.ErrVersionNotFound)
	})
}

func TestExportProject(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()

	opts := export.Options{IncludeStageTitles: true, IncludeFrameworkTitle: true}

	t.Run("Export is PRO-gated", func(t *testing.T) {
		f := newStoryServiceFixture(t)
		_, _, err := f.svc.ExportProject(ctx, userID, models.TierFree, uuid.New(), opts, export.FormatMarkdown)
		assert.ErrorIs(t, err, models.ErrTierRequired)
	})

	t.Run("Renders markdown with a safe filename", func(t *testing.T) {
		f := newStoryServiceFixture(t)
		project := testProject(userID, map[string]string{"setup": "Once upon a time."}, nil)
		project.Title = "My Story?"
		f.projectRepo.On("GetProjectByID", ctx, userID, project.ID).Return(project, nil).Once()

		body, filename, err := f.svc.ExportProject(ctx, userID, models.TierPro, project.ID, opts, export.FormatMarkdown)
		require.NoError(t, err)
		assert.Contains(t, body, "Once upon a time.")
		assert.Equal(t, "my_story_.md", filename)
	})
}

func TestLogout(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()

	f := newStoryServiceFixture(t)
	f.sessionRepo.On("DeleteSession", mock.Anything, userID).Return(nil).Once()

	// Исчерпываем часть лимита, затем выходим: счётчики должны обнулиться.
	project := testProject(userID, nil, nil)
	f.projectRepo.On("GetProjectByID", ctx, userID, project.ID).Return(project, nil).Once()
	f.aiClient.On("GenerateText", mock.Anything, userID.String(), mock.Anything, mock.Anything, mock.Anything).
		Return("text", ai.UsageInfo{}, nil).Once()
	_, err := f.svc.StageSuggestion(ctx, userID, models.TierFree, project.ID, "setup", ai.ModeCreative, nil, "")
	require.NoError(t, err)

	f.svc.Logout(ctx, userID)

	remaining := f.svc.RemainingQuota(userID, models.TierFree)
	assert.Equal(t, models.LimitsByTier[models.TierFree].SingleStagePerDay, remaining[models.OpSingleStage])
	f.sessionRepo.AssertExpectations(t)
}
