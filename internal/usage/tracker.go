// Package usage реализует учёт дневных лимитов ИИ-операций.
// Счётчики хранятся в памяти процесса и сбрасываются при смене
// календарной даты (UTC).
package usage

import (
	"sync"
	"time"

	"storygen-server/internal/models"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

var quotaRejections = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "ai_quota_rejections_total",
		Help: "Total number of AI operations rejected due to daily quota.",
	},
	[]string{"kind", "tier"},
)

type counterKey struct {
	userID uuid.UUID
	kind   models.AIOperationKind
}

// Tracker ведёт дневные счётчики ИИ-операций по пользователям.
type Tracker struct {
	mu     sync.Mutex
	counts map[counterKey]int
	day    string // дата счётчиков в формате 2006-01-02 (UTC)
	now    func() time.Time
	logger *zap.Logger
}

// NewTracker создает новый Tracker.
func NewTracker(logger *zap.Logger) *Tracker {
	return newTrackerWithClock(logger, time.Now)
}

func newTrackerWithClock(logger *zap.Logger, now func() time.Time) *Tracker {
	t := &Tracker{
		counts: make(map[counterKey]int),
		now:    now,
		logger: logger.Named("UsageTracker"),
	}
	t.day = t.currentDay()
	return t
}

func (t *Tracker) currentDay() string {
	return t.now().UTC().Format("2006-01-02")
}

// rolloverLocked сбрасывает счётчики при смене даты. Вызывается под мьютексом.
func (t *Tracker) rolloverLocked() {
	day := t.currentDay()
	if day != t.day {
		t.logger.Info("Resetting daily AI usage counters", zap.String("previousDay", t.day), zap.String("day", day))
		t.counts = make(map[counterKey]int)
		t.day = day
	}
}

// CheckAndIncrement атомарно проверяет лимит и инкрементирует счётчик.
// Возвращает models.ErrQuotaExceeded, если лимит уже исчерпан; счётчик
// при этом не изменяется. Отрицательный лимит означает "без ограничений".
func (t *Tracker) CheckAndIncrement(userID uuid.UUID, tier models.SubscriptionTier, kind models.AIOperationKind) error {
	limit := models.LimitsFor(tier).LimitFor(kind)

	t.mu.Lock()
	defer t.mu.Unlock()
	t.rolloverLocked()

	key := counterKey{userID: userID, kind: kind}
	used := t.counts[key]
	if limit >= 0 && used >= limit {
		quotaRejections.WithLabelValues(string(kind), string(tier)).Inc()
		t.logger.Warn("Daily AI quota exceeded",
			zap.String("userID", userID.String()),
			zap.String("kind", string(kind)),
			zap.Int("limit", limit),
		)
		return models.ErrQuotaExceeded
	}
	t.counts[key] = used + 1
	return nil
}

// CanCreateProject проверяет лимит количества проектов для уровня
// подписки. Отрицательный лимит означает "без ограничений".
func CanCreateProject(tier models.SubscriptionTier, currentCount int64) bool {
	limit := models.LimitsFor(tier).MaxProjects
	if limit < 0 {
		return true
	}
	return currentCount < int64(limit)
}

// Refund откатывает один инкремент, если ИИ-операция завершилась ошибкой
// провайдера и не должна тратить лимит пользователя.
func (t *Tracker) Refund(userID uuid.UUID, kind models.AIOperationKind) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.rolloverLocked()

	key := counterKey{userID: userID, kind: kind}
	if t.counts[key] > 0 {
		t.counts[key]--
	}
}

// Reset обнуляет все счётчики пользователя. Вызывается при выходе
// из системы и при смене уровня подписки.
func (t *Tracker) Reset(userID uuid.UUID) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for key := range t.counts {
		if key.userID == userID {
			delete(t.counts, key)
		}
	}
}

// Remaining возвращает остаток лимитов пользователя на текущий день.
// Для безлимитных категорий возвращается -1.
func (t *Tracker) Remaining(userID uuid.UUID, tier models.SubscriptionTier) map[models.AIOperationKind]int {
	limits := models.LimitsFor(tier)

	t.mu.Lock()
	defer t.mu.Unlock()
	t.rolloverLocked()

	out := make(map[models.AIOperationKind]int, 3)
	for _, kind := range []models.AIOperationKind{models.OpSingleStage, models.OpClarifyingQuestions, models.OpFullStory} {
		limit := limits.LimitFor(kind)
		if limit < 0 {
			out[kind] = -1
			continue
		}
		remaining := limit - t.counts[counterKey{userID: userID, kind: kind}]
		if remaining < 0 {
			remaining = 0
		}
		out[kind] = remaining
	}
	return out
}
