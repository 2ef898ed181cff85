package service

import (
	"storygen-server/internal/models"

	"github.com/google/uuid"
)

// applyOptimistic updates the cached copy of a project before the remote
// call and rolls the cache back exactly to its previous state when the
// call fails. The mutation is applied to a copy, so persist sees the new
// state while the rollback restores the old one untouched.
//
// Caller must hold sess.mu.
func applyOptimistic(
	sess *userSession,
	projectID uuid.UUID,
	mutate func(*models.Project),
	persist func(updated *models.Project) error,
) (*models.Project, error) {
	current := sess.cachedProject(projectID)
	if current == nil {
		return nil, models.ErrProjectNotFound
	}

	// Снимок для отката: карта этапов копируется, чтобы мутация
	// не затронула кэш через разделяемую ссылку.
	backup := *current
	backup.StagesContent = copyStages(current.StagesContent)

	updated := backup
	updated.StagesContent = copyStages(backup.StagesContent)
	mutate(&updated)

	sess.replaceProject(updated)

	if err := persist(&updated); err != nil {
		sess.replaceProject(backup)
		return nil, err
	}
	// Репозиторий мог освежить updated_at через RETURNING.
	sess.replaceProject(updated)
	return &updated, nil
}

func copyStages(src map[string]string) map[string]string {
	dst := make(map[string]string, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}
