package models

// AIOperationKind — категория ИИ-операции для учёта дневных лимитов.
// Разбор свободной идеи по этапам при создании черновика лимитами не
// учитывается: его сдерживает только лимит количества проектов.
type AIOperationKind string

const (
	OpSingleStage         AIOperationKind = "single_stage"         // текст одного этапа
	OpClarifyingQuestions AIOperationKind = "clarifying_questions" // наводящие вопросы к этапу
	OpFullStory           AIOperationKind = "full_story"           // полный черновик и достройка
)

// SourceTag возвращает тег источника для уведомлений об исчерпании лимита.
func (k AIOperationKind) SourceTag() string {
	return "ai_limit_" + string(k)
}

// TierLimits — дневные лимиты ИИ-операций и лимит проектов для уровня
// подписки. Отрицательное значение означает "без ограничений".
type TierLimits struct {
	SingleStagePerDay         int
	ClarifyingQuestionsPerDay int
	FullStoriesPerDay         int
	MaxProjects               int
}

// LimitFor возвращает дневной лимит для категории операции.
func (l TierLimits) LimitFor(kind AIOperationKind) int {
	switch kind {
	case OpSingleStage:
		return l.SingleStagePerDay
	case OpClarifyingQuestions:
		return l.ClarifyingQuestionsPerDay
	case OpFullStory:
		return l.FullStoriesPerDay
	default:
		return 0
	}
}

// LimitsByTier — таблица лимитов по уровням подписки. Полный черновик
// для FREE закрыт нулевым лимитом; вызывающая сторона дополнительно
// отсекает его проверкой уровня до обращения к трекеру.
var LimitsByTier = map[SubscriptionTier]TierLimits{
	TierFree: {
		SingleStagePerDay:         5,
		ClarifyingQuestionsPerDay: 3,
		FullStoriesPerDay:         0,
		MaxProjects:               3,
	},
	TierPro: {
		SingleStagePerDay:         100,
		ClarifyingQuestionsPerDay: 50,
		FullStoriesPerDay:         10,
		MaxProjects:               -1,
	},
}

// LimitsFor возвращает таблицу лимитов уровня; для неизвестного уровня
// действует таблица FREE (fail closed).
func LimitsFor(tier SubscriptionTier) TierLimits {
	if l, ok := LimitsByTier[tier]; ok {
		return l
	}
	return LimitsByTier[TierFree]
}
