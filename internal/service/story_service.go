package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"storygen-server/internal/ai"
	"storygen-server/internal/catalog"
	"storygen-server/internal/export"
	"storygen-server/internal/interfaces"
	"storygen-server/internal/models"
	"storygen-server/internal/usage"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SourceTierFullStory — тег апгрейд-подсказки, когда генерация полного
// черновика отклонена по уровню подписки, а не по дневному лимиту.
const SourceTierFullStory = "tier_full_story"

// StoryService defines the application-facing operations of the story
// drafting workspace: project lifecycle, AI-assisted drafting, version
// history and export.
type StoryService interface {
	StartDraft(ctx context.Context, userID uuid.UUID, tier models.SubscriptionTier, frameworkID, rawStoryIdea string) (*models.PendingDraft, error)
	DiscardDraft(ctx context.Context, userID uuid.UUID) error
	SubmitTitle(ctx context.Context, userID uuid.UUID, title string) (*models.Project, error)

	ListProjects(ctx context.Context, userID uuid.UUID) ([]models.Project, error)
	LoadProject(ctx context.Context, userID, projectID uuid.UUID) (*models.Project, error)
	RenameProject(ctx context.Context, userID, projectID uuid.UUID, title string) error
	UpdateStage(ctx context.Context, userID, projectID uuid.UUID, stageID, content string) (*models.Project, error)
	DeleteProject(ctx context.Context, userID, projectID uuid.UUID, confirmed bool) error

	ClarifyingQuestions(ctx context.Context, userID uuid.UUID, tier models.SubscriptionTier, projectID uuid.UUID, stageID, instruction string) ([]string, error)
	StageSuggestion(ctx context.Context, userID uuid.UUID, tier models.SubscriptionTier, projectID uuid.UUID, stageID string, mode ai.OutputMode, answers []ai.QuestionAnswer, instruction string) (string, error)
	GenerateFullStory(ctx context.Context, userID uuid.UUID, tier models.SubscriptionTier, projectID uuid.UUID, mode ai.OutputMode, instruction string) (*models.Project, error)

	ListVersions(ctx context.Context, userID, projectID uuid.UUID) ([]models.ProjectVersion, error)
	RevertToVersion(ctx context.Context, userID, projectID, versionID uuid.UUID) (*models.Project, error)

	ExportProject(ctx context.Context, userID uuid.UUID, tier models.SubscriptionTier, projectID uuid.UUID, opts export.Options, format export.Format) (string, string, error)

	RemainingQuota(userID uuid.UUID, tier models.SubscriptionTier) map[models.AIOperationKind]int
	SetTier(ctx context.Context, userID uuid.UUID, tier models.SubscriptionTier) error
	RestoreSession(ctx context.Context, userID uuid.UUID) (*models.EditorSession, error)
	Logout(ctx context.Context, userID uuid.UUID)
}

// Compile-time check to ensure storyServiceImpl implements StoryService
var _ StoryService = (*storyServiceImpl)(nil)

type storyServiceImpl struct {
	projectRepo  interfaces.ProjectRepository
	versionRepo  interfaces.ProjectVersionRepository
	userRepo     interfaces.UserRepository
	sessionRepo  interfaces.SessionStateRepository
	publisher    interfaces.ClientEventPublisher
	orchestrator *ai.Orchestrator
	tracker      *usage.Tracker
	sessions     *sessionManager
	logger       *zap.Logger
}

// NewStoryService creates a new instance of storyServiceImpl.
func NewStoryService(
	projectRepo interfaces.ProjectRepository,
	versionRepo interfaces.ProjectVersionRepository,
	userRepo interfaces.UserRepository,
	sessionRepo interfaces.SessionStateRepository,
	publisher interfaces.ClientEventPublisher,
	orchestrator *ai.Orchestrator,
	tracker *usage.Tracker,
	logger *zap.Logger,
) StoryService {
	return &storyServiceImpl{
		projectRepo:  projectRepo,
		versionRepo:  versionRepo,
		userRepo:     userRepo,
		sessionRepo:  sessionRepo,
		publisher:    publisher,
		orchestrator: orchestrator,
		tracker:      tracker,
		sessions:     newSessionManager(),
		logger:       logger.Named("StoryService"),
	}
}

// StartDraft begins a new project draft: checks the project-count gate,
// maps the raw idea onto the framework stages (a blank idea maps every
// stage to empty content without a provider call) and stores the result
// as a pending draft awaiting a title.
func (s *storyServiceImpl) StartDraft(ctx context.Context, userID uuid.UUID, tier models.SubscriptionTier, frameworkID, rawStoryIdea string) (*models.PendingDraft, error) {
	log := s.logger.With(zap.String("userID", userID.String()), zap.String("frameworkID", frameworkID))

	fw, err := catalog.FrameworkByID(frameworkID)
	if err != nil {
		return nil, err
	}

	count, err := s.projectRepo.CountProjectsByUser(ctx, userID)
	if err != nil {
		log.Error("Failed to count projects for limit check", zap.Error(err))
		return nil, fmt.Errorf("failed to check project limit: %w", err)
	}
	if !usage.CanCreateProject(tier, count) {
		log.Warn("Project limit reached", zap.Int64("count", count), zap.String("tier", string(tier)))
		return nil, models.ErrProjectLimit
	}

	rawStoryIdea = strings.TrimSpace(rawStoryIdea)

	// Разбор идеи по этапам дневными лимитами не учитывается: черновик
	// сдерживает только лимит количества проектов. Пустая идея даёт
	// пустые этапы без обращения к провайдеру.
	mapped, err := s.orchestrator.MapIdea(ctx, userID.String(), fw, rawStoryIdea)
	if err != nil {
		log.Error("Idea mapping failed, draft discarded", zap.Error(err))
		return nil, err
	}

	draft := &models.PendingDraft{
		FrameworkID:   fw.ID,
		MappedContent: mapped,
		CreatedAt:     time.Now().UTC(),
	}
	if rawStoryIdea != "" {
		draft.RawStoryIdea = &rawStoryIdea
	}

	sess := s.sessions.get(userID)
	sess.mu.Lock()
	sess.pendingDraft = draft
	sess.mu.Unlock()

	s.persistEditorSession(ctx, userID)
	return draft, nil
}

// DiscardDraft drops the pending draft without creating a project.
func (s *storyServiceImpl) DiscardDraft(ctx context.Context, userID uuid.UUID) error {
	sess := s.sessions.get(userID)
	sess.mu.Lock()
	if sess.pendingDraft == nil {
		sess.mu.Unlock()
		return models.ErrNoPendingDraft
	}
	sess.pendingDraft = nil
	sess.mu.Unlock()

	s.persistEditorSession(ctx, userID)
	return nil
}

// SubmitTitle turns the pending draft into a persisted project. A blank
// title falls back to "Untitled Story (<date>)".
func (s *storyServiceImpl) SubmitTitle(ctx context.Context, userID uuid.UUID, title string) (*models.Project, error) {
	log := s.logger.With(zap.String("userID", userID.String()))

	sess := s.sessions.get(userID)
	sess.mu.Lock()
	draft := sess.pendingDraft
	sess.mu.Unlock()
	if draft == nil {
		return nil, models.ErrNoPendingDraft
	}

	title = strings.TrimSpace(title)
	if title == "" {
		title = fmt.Sprintf(models.DefaultProjectTitleFormat, time.Now().Format(models.DefaultProjectTitleTimeFmt))
	}

	project := &models.Project{
		UserID:        userID,
		Title:         title,
		FrameworkID:   draft.FrameworkID,
		StagesContent: copyStages(draft.MappedContent),
		RawStoryIdea:  draft.RawStoryIdea,
	}
	if err := s.projectRepo.CreateProject(ctx, project); err != nil {
		log.Error("Failed to create project", zap.Error(err))
		return nil, err
	}
	log.Info("Project created", zap.String("projectID", project.ID.String()), zap.String("title", title))

	s.snapshotVersion(ctx, project, models.VersionLabelProjectCreated)

	id := project.ID
	sess.mu.Lock()
	sess.pendingDraft = nil
	sess.activeProjectID = &id
	sess.replaceProject(*project)
	sess.mu.Unlock()

	s.persistEditorSession(ctx, userID)
	return project, nil
}

// ListProjects returns the user's projects, newest first, refreshing the
// session cache.
func (s *storyServiceImpl) ListProjects(ctx context.Context, userID uuid.UUID) ([]models.Project, error) {
	projects, err := s.projectRepo.ListProjectsByUser(ctx, userID)
	if err != nil {
		s.logger.Error("Failed to list projects", zap.String("userID", userID.String()), zap.Error(err))
		return nil, err
	}

	sess := s.sessions.get(userID)
	sess.mu.Lock()
	sess.projects = projects
	sess.projectsLoaded = true
	sess.mu.Unlock()

	return projects, nil
}

// LoadProject makes a project the active one and returns its content.
func (s *storyServiceImpl) LoadProject(ctx context.Context, userID, projectID uuid.UUID) (*models.Project, error) {
	project, err := s.projectRepo.GetProjectByID(ctx, userID, projectID)
	if err != nil {
		return nil, err
	}

	id := project.ID
	sess := s.sessions.get(userID)
	sess.mu.Lock()
	sess.activeProjectID = &id
	sess.replaceProject(*project)
	sess.mu.Unlock()

	s.persistEditorSession(ctx, userID)
	return project, nil
}

// RenameProject changes the title of a project.
func (s *storyServiceImpl) RenameProject(ctx context.Context, userID, projectID uuid.UUID, title string) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return models.ErrInvalidInput
	}
	if err := s.projectRepo.UpdateProjectTitle(ctx, userID, projectID, title); err != nil {
		return err
	}

	sess := s.sessions.get(userID)
	sess.mu.Lock()
	if p := sess.cachedProject(projectID); p != nil {
		p.Title = title
	}
	sess.mu.Unlock()
	return nil
}

// UpdateStage applies a single-stage edit with an optimistic cache update
// and a rollback on remote failure. Refused while a bulk operation is in
// flight. On success the new state is snapshotted into version history.
func (s *storyServiceImpl) UpdateStage(ctx context.Context, userID, projectID uuid.UUID, stageID, content string) (*models.Project, error) {
	log := s.logger.With(zap.String("userID", userID.String()), zap.String("projectID", projectID.String()), zap.String("stageID", stageID))

	sess := s.sessions.get(userID)
	sess.mu.Lock()
	defer sess.mu.Unlock()

	if sess.bulkBusy() {
		log.Warn("Stage update refused: bulk operation in flight")
		return nil, models.ErrOperationInProgress
	}

	if err := s.ensureCachedLocked(ctx, sess, userID, projectID); err != nil {
		return nil, err
	}

	fw, err := catalog.FrameworkByID(sess.cachedProject(projectID).FrameworkID)
	if err != nil {
		return nil, err
	}
	stage, ok := fw.StageByID(stageID)
	if !ok {
		return nil, models.ErrUnknownStage
	}

	updated, err := applyOptimistic(sess, projectID,
		func(p *models.Project) {
			p.StagesContent[stageID] = content
			p.UpdatedAt = time.Now().UTC()
		},
		func(p *models.Project) error {
			return s.projectRepo.UpdateProjectContent(ctx, p)
		},
	)
	if err != nil {
		log.Error("Stage update failed, cache rolled back", zap.Error(err))
		return nil, err
	}

	s.snapshotVersion(ctx, updated, fmt.Sprintf(models.VersionLabelStageFormat, stage.Name))
	return updated, nil
}

// DeleteProject removes a project after an explicit confirmation. An
// affected count of zero maps to not-found and the cached list is
// reconciled by removal either way.
func (s *storyServiceImpl) DeleteProject(ctx context.Context, userID, projectID uuid.UUID, confirmed bool) error {
	log := s.logger.With(zap.String("userID", userID.String()), zap.String("projectID", projectID.String()))

	if !confirmed {
		return models.ErrDeleteNotConfirmed
	}

	sess := s.sessions.get(userID)
	sess.mu.Lock()
	if sess.bulkBusy() {
		sess.mu.Unlock()
		return models.ErrOperationInProgress
	}
	sess.deleting = true
	sess.mu.Unlock()

	defer func() {
		sess.mu.Lock()
		sess.deleting = false
		sess.mu.Unlock()
	}()

	affected, err := s.projectRepo.DeleteProject(ctx, userID, projectID)
	if err != nil {
		log.Error("Failed to delete project", zap.Error(err))
		return err
	}

	sess.mu.Lock()
	sess.removeProject(projectID)
	sess.mu.Unlock()

	if affected == 0 {
		log.Warn("Delete affected no rows, reconciling local list")
		return models.ErrProjectNotFound
	}

	log.Info("Project deleted")
	s.notify(ctx, userID, models.EventProjectDeleted, "", map[string]string{"project_id": projectID.String()})
	s.persistEditorSession(ctx, userID)
	return nil
}

// ClarifyingQuestions asks the model for 3-4 questions helping the user
// flesh out one stage. Counted against the stage-suggestion quota.
func (s *storyServiceImpl) ClarifyingQuestions(ctx context.Context, userID uuid.UUID, tier models.SubscriptionTier, projectID uuid.UUID, stageID, instruction string) ([]string, error) {
	project, fw, stage, err := s.projectStage(ctx, userID, projectID, stageID)
	if err != nil {
		return nil, err
	}

	if err := s.tracker.CheckAndIncrement(userID, tier, models.OpClarifyingQuestions); err != nil {
		s.notifyQuotaExceeded(ctx, userID, models.OpClarifyingQuestions.SourceTag())
		return nil, err
	}

	questions, err := s.orchestrator.ClarifyingQuestions(ctx, userID.String(), stage, storyContext(project, fw), instruction)
	if err != nil {
		s.tracker.Refund(userID, models.OpClarifyingQuestions)
		return nil, err
	}
	return questions, nil
}

// StageSuggestion generates content for a single stage. The result is
// returned to the caller; applying it goes through UpdateStage.
func (s *storyServiceImpl) StageSuggestion(ctx context.Context, userID uuid.UUID, tier models.SubscriptionTier, projectID uuid.UUID, stageID string, mode ai.OutputMode, answers []ai.QuestionAnswer, instruction string) (string, error) {
	project, fw, stage, err := s.projectStage(ctx, userID, projectID, stageID)
	if err != nil {
		return "", err
	}

	if err := s.tracker.CheckAndIncrement(userID, tier, models.OpSingleStage); err != nil {
		s.notifyQuotaExceeded(ctx, userID, models.OpSingleStage.SourceTag())
		return "", err
	}

	text, err := s.orchestrator.StageSuggestion(ctx, userID.String(), stage, storyContext(project, fw), mode, answers, instruction)
	if err != nil {
		s.tracker.Refund(userID, models.OpSingleStage)
		return "", err
	}
	return text, nil
}

// GenerateFullStory builds a complete draft for the project and applies
// it as one bulk optimistic update with a version snapshot. Mode
// selection: a project with a raw idea gets a full draft from that idea;
// a project without one gets its empty stages completed from the filled
// ones. FREE tier is refused before any counter is touched.
func (s *storyServiceImpl) GenerateFullStory(ctx context.Context, userID uuid.UUID, tier models.SubscriptionTier, projectID uuid.UUID, mode ai.OutputMode, instruction string) (*models.Project, error) {
	log := s.logger.With(zap.String("userID", userID.String()), zap.String("projectID", projectID.String()))

	// Гейт уровня подписки идёт до трекера: провайдер не вызывается,
	// счётчики не трогаются, подсказка читается как апгрейд-требование.
	if tier != models.TierPro {
		log.Warn("Full story drafting requires PRO tier", zap.String("tier", string(tier)))
		s.notifyQuotaExceeded(ctx, userID, SourceTierFullStory)
		return nil, models.ErrTierRequired
	}

	sess := s.sessions.get(userID)
	sess.mu.Lock()
	if sess.bulkBusy() {
		sess.mu.Unlock()
		return nil, models.ErrOperationInProgress
	}
	if err := s.ensureCachedLocked(ctx, sess, userID, projectID); err != nil {
		sess.mu.Unlock()
		return nil, err
	}
	project := *sess.cachedProject(projectID)
	project.StagesContent = copyStages(project.StagesContent)
	sess.generatingAllStages = true
	sess.mu.Unlock()

	defer func() {
		sess.mu.Lock()
		sess.generatingAllStages = false
		sess.mu.Unlock()
	}()

	fw, err := catalog.FrameworkByID(project.FrameworkID)
	if err != nil {
		return nil, err
	}

	filled := project.FilledStages(fw)
	allFilled := filled == len(fw.Stages)

	var generate func() (map[string]string, error)
	switch {
	case project.HasRawIdea() && !allFilled:
		generate = func() (map[string]string, error) {
			return s.orchestrator.FullStoryDraft(ctx, userID.String(), fw, *project.RawStoryIdea, mode, instruction)
		}
	case !project.HasRawIdea() && filled > 0 && !allFilled:
		generate = func() (map[string]string, error) {
			return s.orchestrator.CompleteRemaining(ctx, userID.String(), fw, project.StagesContent, mode, instruction)
		}
	default:
		// Все этапы уже заполнены либо нечем руководствоваться:
		// отказываем явно, не отбрасывая контент молча.
		log.Warn("Nothing to generate", zap.Int("filledStages", filled), zap.Bool("hasIdea", project.HasRawIdea()))
		return nil, models.ErrNothingToGenerate
	}

	if err := s.tracker.CheckAndIncrement(userID, tier, models.OpFullStory); err != nil {
		s.notifyQuotaExceeded(ctx, userID, models.OpFullStory.SourceTag())
		return nil, err
	}

	contents, err := generate()
	if err != nil {
		s.tracker.Refund(userID, models.OpFullStory)
		log.Error("Full story generation failed", zap.Error(err))
		s.notify(ctx, userID, models.EventDraftApplied, "", map[string]string{
			"project_id": projectID.String(),
			"status":     "failed",
		})
		return nil, fmt.Errorf("%w: %v", models.ErrAIGenerationFailed, err)
	}

	sess.mu.Lock()
	updated, err := applyOptimistic(sess, projectID,
		func(p *models.Project) {
			for stageID, content := range contents {
				p.StagesContent[stageID] = content
			}
			p.UpdatedAt = time.Now().UTC()
		},
		func(p *models.Project) error {
			return s.projectRepo.UpdateProjectContent(ctx, p)
		},
	)
	sess.mu.Unlock()
	if err != nil {
		log.Error("Failed to apply full draft, cache rolled back", zap.Error(err))
		s.notify(ctx, userID, models.EventDraftApplied, "", map[string]string{
			"project_id": projectID.String(),
			"status":     "failed",
		})
		return nil, err
	}

	s.snapshotVersion(ctx, updated, models.VersionLabelFullDraft)
	log.Info("Full story draft applied", zap.Int("stagesGenerated", len(contents)))
	s.notify(ctx, userID, models.EventDraftApplied, "", map[string]string{
		"project_id": projectID.String(),
		"status":     "applied",
	})
	return updated, nil
}

// ListVersions returns the version history of a project, newest first.
func (s *storyServiceImpl) ListVersions(ctx context.Context, userID, projectID uuid.UUID) ([]models.ProjectVersion, error) {
	// Владение проверяется через выборку проекта.
	if _, err := s.projectRepo.GetProjectByID(ctx, userID, projectID); err != nil {
		return nil, err
	}
	return s.versionRepo.ListVersions(ctx, projectID)
}

// RevertToVersion restores a snapshot as a push-forward revert: the
// snapshot content is persisted as a normal update and then snapshotted
// itself, so history keeps moving forward and revert is idempotent.
func (s *storyServiceImpl) RevertToVersion(ctx context.Context, userID, projectID, versionID uuid.UUID) (*models.Project, error) {
	log := s.logger.With(zap.String("userID", userID.String()), zap.String("projectID", projectID.String()), zap.String("versionID", versionID.String()))

	sess := s.sessions.get(userID)
	sess.mu.Lock()
	if sess.bulkBusy() {
		sess.mu.Unlock()
		return nil, models.ErrOperationInProgress
	}
	if err := s.ensureCachedLocked(ctx, sess, userID, projectID); err != nil {
		sess.mu.Unlock()
		return nil, err
	}
	vid := versionID
	sess.revertingVersionID = &vid
	sess.mu.Unlock()

	defer func() {
		sess.mu.Lock()
		sess.revertingVersionID = nil
		sess.mu.Unlock()
	}()

	version, err := s.versionRepo.GetVersionByID(ctx, projectID, versionID)
	if err != nil {
		return nil, err
	}

	sess.mu.Lock()
	updated, err := applyOptimistic(sess, projectID,
		func(p *models.Project) {
			p.Title = version.Title
			p.StagesContent = copyStages(version.StagesContent)
			p.RawStoryIdea = version.RawStoryIdea
			p.UpdatedAt = time.Now().UTC()
		},
		func(p *models.Project) error {
			return s.projectRepo.UpdateProjectContent(ctx, p)
		},
	)
	sess.mu.Unlock()
	if err != nil {
		log.Error("Revert failed, cache rolled back", zap.Error(err))
		return nil, err
	}

	label := fmt.Sprintf(models.VersionLabelRevertFormat, version.CreatedAt.Format(models.VersionRevertTimeLayout))
	s.snapshotVersion(ctx, updated, label)
	log.Info("Project reverted to version")
	s.notify(ctx, userID, models.EventProjectUpdated, "", map[string]string{
		"project_id":  projectID.String(),
		"reverted_to": versionID.String(),
	})
	return updated, nil
}

// ExportProject renders the project into a downloadable document.
// Export is available on the PRO tier only. Returns the rendered body
// and a filesystem-safe filename.
func (s *storyServiceImpl) ExportProject(ctx context.Context, userID uuid.UUID, tier models.SubscriptionTier, projectID uuid.UUID, opts export.Options, format export.Format) (string, string, error) {
	if tier != models.TierPro {
		return "", "", models.ErrTierRequired
	}

	project, err := s.projectRepo.GetProjectByID(ctx, userID, projectID)
	if err != nil {
		return "", "", err
	}
	fw, err := catalog.FrameworkByID(project.FrameworkID)
	if err != nil {
		return "", "", err
	}

	body, err := export.Render(project, fw, opts, format)
	if err != nil {
		return "", "", err
	}
	return body, export.SafeFilename(project.Title) + "." + format.Extension(), nil
}

// RemainingQuota reports the user's remaining daily AI allowances.
func (s *storyServiceImpl) RemainingQuota(userID uuid.UUID, tier models.SubscriptionTier) map[models.AIOperationKind]int {
	return s.tracker.Remaining(userID, tier)
}

// SetTier changes the subscription tier and resets usage counters so a
// fresh allowance applies immediately.
func (s *storyServiceImpl) SetTier(ctx context.Context, userID uuid.UUID, tier models.SubscriptionTier) error {
	if !tier.Valid() {
		return models.ErrInvalidInput
	}
	if err := s.userRepo.UpdateUserTier(ctx, userID, tier); err != nil {
		s.logger.Error("Failed to update user tier", zap.String("userID", userID.String()), zap.Error(err))
		return err
	}
	s.tracker.Reset(userID)
	s.logger.Info("User tier changed", zap.String("userID", userID.String()), zap.String("tier", string(tier)))
	return nil
}

// RestoreSession loads the persisted editor state of a user, letting the
// client resume where it left off after a reconnect.
func (s *storyServiceImpl) RestoreSession(ctx context.Context, userID uuid.UUID) (*models.EditorSession, error) {
	stored, err := s.sessionRepo.GetSession(ctx, userID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return &models.EditorSession{View: models.ViewDashboard, UpdatedAt: time.Now().UTC()}, nil
		}
		return nil, err
	}

	sess := s.sessions.get(userID)
	sess.mu.Lock()
	if stored.ActiveProjectID != nil {
		if id, parseErr := uuid.Parse(*stored.ActiveProjectID); parseErr == nil {
			sess.activeProjectID = &id
		}
	}
	sess.pendingDraft = stored.PendingDraft
	sess.mu.Unlock()

	return stored, nil
}

// Logout performs a hard reset of all session-scoped state: the in-memory
// session, the usage counters and the persisted editor session.
func (s *storyServiceImpl) Logout(ctx context.Context, userID uuid.UUID) {
	s.sessions.drop(userID)
	s.tracker.Reset(userID)
	if err := s.sessionRepo.DeleteSession(ctx, userID); err != nil {
		s.logger.Warn("Failed to delete editor session on logout", zap.String("userID", userID.String()), zap.Error(err))
	}
}

// snapshotVersion inserts a version snapshot and trims the ring buffer to
// the newest MaxProjectVersions entries. Trim failure never rolls back
// the insert; snapshot failure as a whole never fails the mutation that
// triggered it.
func (s *storyServiceImpl) snapshotVersion(ctx context.Context, project *models.Project, label string) {
	version := &models.ProjectVersion{
		ProjectID:     project.ID,
		Label:         label,
		Title:         project.Title,
		StagesContent: copyStages(project.StagesContent),
		RawStoryIdea:  project.RawStoryIdea,
	}
	if err := s.versionRepo.CreateVersion(ctx, version); err != nil {
		s.logger.Error("Failed to snapshot project version",
			zap.String("projectID", project.ID.String()), zap.String("label", label), zap.Error(err))
		return
	}

	deleted, err := s.versionRepo.DeleteVersionsBeyond(ctx, project.ID, models.MaxProjectVersions)
	if err != nil {
		s.logger.Warn("Failed to trim version history",
			zap.String("projectID", project.ID.String()), zap.Error(err))
		return
	}
	if deleted > 0 {
		s.logger.Debug("Trimmed version history",
			zap.String("projectID", project.ID.String()), zap.Int64("deleted", deleted))
	}
}

// ensureCachedLocked loads the project into the session cache when it is
// not there yet. Caller must hold sess.mu.
func (s *storyServiceImpl) ensureCachedLocked(ctx context.Context, sess *userSession, userID, projectID uuid.UUID) error {
	if sess.cachedProject(projectID) != nil {
		return nil
	}
	project, err := s.projectRepo.GetProjectByID(ctx, userID, projectID)
	if err != nil {
		return err
	}
	sess.replaceProject(*project)
	return nil
}

// projectStage resolves a project together with its framework stage.
func (s *storyServiceImpl) projectStage(ctx context.Context, userID, projectID uuid.UUID, stageID string) (*models.Project, *models.Framework, models.FrameworkStage, error) {
	project, err := s.projectRepo.GetProjectByID(ctx, userID, projectID)
	if err != nil {
		return nil, nil, models.FrameworkStage{}, err
	}
	fw, err := catalog.FrameworkByID(project.FrameworkID)
	if err != nil {
		return nil, nil, models.FrameworkStage{}, err
	}
	stage, ok := fw.StageByID(stageID)
	if !ok {
		return nil, nil, models.FrameworkStage{}, models.ErrUnknownStage
	}
	return project, fw, stage, nil
}

// notify publishes a client event best-effort: failures are logged and
// never fail the mutation.
func (s *storyServiceImpl) notify(ctx context.Context, userID uuid.UUID, eventType, source string, data map[string]string) {
	var raw json.RawMessage
	if data != nil {
		b, err := json.Marshal(data)
		if err != nil {
			s.logger.Warn("Failed to marshal client event data", zap.Error(err))
		} else {
			raw = b
		}
	}
	payload := models.ClientEventPayload{
		UserID: userID.String(),
		Type:   eventType,
		Source: source,
		Data:   raw,
	}
	if err := s.publisher.PublishClientEvent(ctx, payload); err != nil {
		s.logger.Warn("Failed to publish client event",
			zap.String("userID", userID.String()), zap.String("type", eventType), zap.Error(err))
	}
}

func (s *storyServiceImpl) notifyQuotaExceeded(ctx context.Context, userID uuid.UUID, source string) {
	s.notify(ctx, userID, models.EventQuotaExceeded, source, nil)
}

// persistEditorSession stores the restorable editor state in Redis.
// Best-effort: the in-memory session stays authoritative.
func (s *storyServiceImpl) persistEditorSession(ctx context.Context, userID uuid.UUID) {
	sess := s.sessions.get(userID)
	sess.mu.Lock()
	state := &models.EditorSession{
		View:      models.ViewDashboard,
		UpdatedAt: time.Now().UTC(),
	}
	if sess.activeProjectID != nil {
		id := sess.activeProjectID.String()
		state.ActiveProjectID = &id
		state.View = models.ViewEditor
	}
	state.PendingDraft = sess.pendingDraft
	sess.mu.Unlock()

	if err := s.sessionRepo.SaveSession(ctx, userID, state); err != nil {
		s.logger.Warn("Failed to persist editor session", zap.String("userID", userID.String()), zap.Error(err))
	}
}

// storyContext assembles a compact textual summary of the current project
// state for single-stage prompts.
func storyContext(project *models.Project, fw *models.Framework) string {
	var b strings.Builder
	b.WriteString("Story framework: " + fw.Name + ".")
	if project.HasRawIdea() {
		b.WriteString("\nOriginal story idea: " + *project.RawStoryIdea)
	}
	for _, stage := range fw.Stages {
		if content := project.StageContent(stage.ID); content != "" {
			b.WriteString("\n\n" + stage.Name + ":\n" + content)
		}
	}
	return b.String()
}
