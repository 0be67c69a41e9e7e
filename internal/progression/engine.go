// Package progression реализует движок геймификации: очки, уровни, серии
// и разблокировку бейджей.
//
// Engine не хранит состояние пользователя. Каждая операция принимает текущий
// снимок UserStats и возвращает новый, не изменяя входной. Сохранение снимка и
// атомарность сравнения-и-замены обеспечивает хранилище.
package progression

import (
	"fmt"
	"math"
	"time"

	"github.com/magabrotheeeer/practice-studio/internal/models"
)

// ReasonContentCompleted причина начисления очков за завершённый контент.
const ReasonContentCompleted = "content completed"

// Engine движок прогресса над неизменяемыми каталогами уровней и бейджей.
type Engine struct {
	levels []models.Level // отсортированы по OrderIndex
	badges []models.Badge
	policy Policy
}

// NewEngine проверяет каталоги и политику и создаёт движок.
// Ошибки каталогов фатальны и должны останавливать запуск сервиса.
func NewEngine(levels []models.Level, badges []models.Badge, policy Policy) (*Engine, error) {
	const op = "progression.NewEngine"

	sorted := sortLevels(levels)
	if err := validateLevels(sorted); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := validateBadges(badges); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := policy.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	catalog := make([]models.Badge, len(badges))
	copy(catalog, badges)

	return &Engine{
		levels: sorted,
		badges: catalog,
		policy: policy,
	}, nil
}

// Policy возвращает политику начисления движка.
func (e *Engine) Policy() Policy {
	return e.policy
}

// Levels возвращает копию каталога уровней.
func (e *Engine) Levels() []models.Level {
	out := make([]models.Level, len(e.levels))
	copy(out, e.levels)
	return out
}

// Badges возвращает копию каталога бейджей.
func (e *Engine) Badges() []models.Badge {
	out := make([]models.Badge, len(e.badges))
	copy(out, e.badges)
	return out
}

// CurrentLevel возвращает уровень для суммы очков по каталогу движка.
func (e *Engine) CurrentLevel(points int) models.Level {
	return currentLevelSorted(points, e.levels)
}

// NewStats создаёт начальный снимок для пользователя при первой загрузке.
func (e *Engine) NewStats(userUID string) models.UserStats {
	return models.UserStats{
		UserUID:      userUID,
		CurrentLevel: e.CurrentLevel(0),
		Badges:       []models.EarnedBadge{},
	}
}

// AwardPoints начисляет очки и пересчитывает уровень. reason используется
// только для уведомлений и на решение не влияет.
func (e *Engine) AwardPoints(stats models.UserStats, points int, reason string) (models.UserStats, error) {
	const op = "progression.AwardPoints"

	if err := ValidateStats(stats); err != nil {
		return stats, fmt.Errorf("%s: %w", op, err)
	}
	if points <= 0 {
		return stats, fmt.Errorf("%s: %w: got %d, want positive", op, ErrInvalidPoints, points)
	}
	if stats.TotalPoints > math.MaxInt-points {
		return stats, fmt.Errorf("%s: %w: total overflows", op, ErrInvalidPoints)
	}

	next := stats.Clone()
	next.TotalPoints += points
	next.CurrentLevel = e.CurrentLevel(next.TotalPoints)
	return next, nil
}

// UpdateStreak увеличивает текущую серию на один и обновляет максимум.
// Сброс серии при пропуске дня выполняет внешний планировщик.
func (e *Engine) UpdateStreak(stats models.UserStats) (models.UserStats, error) {
	const op = "progression.UpdateStreak"

	if err := ValidateStats(stats); err != nil {
		return stats, fmt.Errorf("%s: %w", op, err)
	}

	next := stats.Clone()
	next.CurrentStreak++
	next.MaxStreak = max(next.MaxStreak, next.CurrentStreak)
	return next, nil
}

// MarkContentComplete начисляет фиксированную награду за завершение, учитывает
// сессию и оценку минут, затем проверяет бейджи. Возвращает новый снимок и
// бейджи, разблокированные этим вызовом.
func (e *Engine) MarkContentComplete(stats models.UserStats, contentID string, now time.Time) (models.UserStats, []models.EarnedBadge, error) {
	const op = "progression.MarkContentComplete"

	next, err := e.AwardPoints(stats, e.policy.PointsPerCompletion, ReasonContentCompleted)
	if err != nil {
		return stats, nil, fmt.Errorf("%s: %w", op, err)
	}
	next.SessionsCompleted++
	next.MinutesPracticed += e.policy.MinutesPerSession

	next, unlocked, err := e.CheckBadges(next, now)
	if err != nil {
		return stats, nil, fmt.Errorf("%s: %w", op, err)
	}
	return next, unlocked, nil
}

// CheckBadges добавляет все бейджи каталога, условия которых выполнены и
// которые ещё не получены. Порядок разблокировки совпадает с порядком каталога.
// Повторный вызов на результате ничего не добавляет.
func (e *Engine) CheckBadges(stats models.UserStats, now time.Time) (models.UserStats, []models.EarnedBadge, error) {
	const op = "progression.CheckBadges"

	if err := ValidateStats(stats); err != nil {
		return stats, nil, fmt.Errorf("%s: %w", op, err)
	}

	next := stats.Clone()
	if next.Badges == nil {
		next.Badges = []models.EarnedBadge{}
	}
	unlocked := []models.EarnedBadge{}
	for _, badge := range e.badges {
		rule, ok := unlockRules[badge.Key]
		if !ok || next.HasBadge(badge.Key) || !rule(next) {
			continue
		}
		earned := models.EarnedBadge{Badge: badge, EarnedAt: now}
		next.Badges = append(next.Badges, earned)
		unlocked = append(unlocked, earned)
	}
	return next, unlocked, nil
}

// ValidateStats проверяет инварианты снимка до любых вычислений. Нарушение
// означает ошибку хранилища и не исправляется молча.
func ValidateStats(s models.UserStats) error {
	switch {
	case s.TotalPoints < 0:
		return fmt.Errorf("%w: negative total_points %d", ErrMalformedStats, s.TotalPoints)
	case s.CurrentStreak < 0:
		return fmt.Errorf("%w: negative current_streak %d", ErrMalformedStats, s.CurrentStreak)
	case s.MaxStreak < 0:
		return fmt.Errorf("%w: negative max_streak %d", ErrMalformedStats, s.MaxStreak)
	case s.SessionsCompleted < 0:
		return fmt.Errorf("%w: negative sessions_completed %d", ErrMalformedStats, s.SessionsCompleted)
	case s.MinutesPracticed < 0:
		return fmt.Errorf("%w: negative minutes_practiced %d", ErrMalformedStats, s.MinutesPracticed)
	case s.MaxStreak < s.CurrentStreak:
		return fmt.Errorf("%w: max_streak %d < current_streak %d", ErrMalformedStats, s.MaxStreak, s.CurrentStreak)
	}
	for c, m := range s.CategoryMinutes {
		if m < 0 {
			return fmt.Errorf("%w: negative minutes for category %q", ErrMalformedStats, c)
		}
	}
	seen := make(map[string]struct{}, len(s.Badges))
	for _, b := range s.Badges {
		if _, dup := seen[b.Key]; dup {
			return fmt.Errorf("%w: duplicate badge %q", ErrMalformedStats, b.Key)
		}
		seen[b.Key] = struct{}{}
	}
	return nil
}
