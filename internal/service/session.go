package service

import (
	"sync"

	"storygen-server/internal/models"

	"github.com/google/uuid"
)

// userSession holds the in-memory editor state of one user: the cached
// project list, the active project, a draft awaiting its title and the
// in-flight flags guarding bulk operations. All access goes through mu.
type userSession struct {
	mu sync.Mutex

	projects        []models.Project // отсортирован по updated_at, новые первыми
	projectsLoaded  bool
	activeProjectID *uuid.UUID
	pendingDraft    *models.PendingDraft

	generatingAllStages bool
	revertingVersionID  *uuid.UUID
	deleting            bool
}

// bulkBusy reports whether any bulk operation is currently in flight.
// Caller must hold mu.
func (s *userSession) bulkBusy() bool {
	return s.generatingAllStages || s.revertingVersionID != nil || s.deleting
}

// cachedProject returns a pointer into the cached list. Caller must hold mu.
func (s *userSession) cachedProject(projectID uuid.UUID) *models.Project {
	for i := range s.projects {
		if s.projects[i].ID == projectID {
			return &s.projects[i]
		}
	}
	return nil
}

// replaceProject swaps the cached copy of a project and re-sorts the list
// so the most recently updated project stays first. Caller must hold mu.
func (s *userSession) replaceProject(p models.Project) {
	for i := range s.projects {
		if s.projects[i].ID == p.ID {
			s.projects[i] = p
			s.sortProjectsLocked()
			return
		}
	}
	s.projects = append([]models.Project{p}, s.projects...)
	s.sortProjectsLocked()
}

// removeProject drops a project from the cached list and clears the active
// pointer when it referenced the removed project. Caller must hold mu.
func (s *userSession) removeProject(projectID uuid.UUID) {
	for i := range s.projects {
		if s.projects[i].ID == projectID {
			s.projects = append(s.projects[:i], s.projects[i+1:]...)
			break
		}
	}
	if s.activeProjectID != nil && *s.activeProjectID == projectID {
		s.activeProjectID = nil
	}
}

func (s *userSession) sortProjectsLocked() {
	// Сортировка вставками: список маленький, а чаще всего меняется
	// ровно один элемент.
	for i := 1; i < len(s.projects); i++ {
		for j := i; j > 0 && s.projects[j].UpdatedAt.After(s.projects[j-1].UpdatedAt); j-- {
			s.projects[j], s.projects[j-1] = s.projects[j-1], s.projects[j]
		}
	}
}

// sessionManager keeps one userSession per user, created on demand.
type sessionManager struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]*userSession
}

func newSessionManager() *sessionManager {
	return &sessionManager{sessions: make(map[uuid.UUID]*userSession)}
}

// get returns the session of a user, creating an empty one when absent.
func (m *sessionManager) get(userID uuid.UUID) *userSession {
	m.mu.Lock()
	defer m.mu.Unlock()
	sess, ok := m.sessions[userID]
	if !ok {
		sess = &userSession{}
		m.sessions[userID] = sess
	}
	return sess
}

// drop discards all in-memory state of a user, e.g. on logout.
func (m *sessionManager) drop(userID uuid.UUID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, userID)
}
