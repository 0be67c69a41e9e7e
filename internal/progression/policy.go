package progression

import "fmt"

// Policy значения политики начисления. Это продуктовые настройки, а не
// случайные числа, поэтому они передаются в движок явно.
type Policy struct {
	PointsPerCompletion int     // Очки за завершение контента
	MinutesPerSession   int     // Оценка минут практики за одно завершение
	CompletionThreshold float64 // Доля просмотра, после которой контент можно завершить
}

// DefaultPolicy возвращает политику по умолчанию: 10 очков, 30 минут, 90% просмотра.
func DefaultPolicy() Policy {
	return Policy{
		PointsPerCompletion: 10,
		MinutesPerSession:   30,
		CompletionThreshold: 0.9,
	}
}

// Validate проверяет значения политики.
func (p Policy) Validate() error {
	const op = "progression.Policy.Validate"
	if p.PointsPerCompletion <= 0 {
		return fmt.Errorf("%s: %w: points_per_completion must be positive", op, ErrInvalidPolicy)
	}
	if p.MinutesPerSession < 0 {
		return fmt.Errorf("%s: %w: minutes_per_session must not be negative", op, ErrInvalidPolicy)
	}
	if p.CompletionThreshold <= 0 || p.CompletionThreshold > 1 {
		return fmt.Errorf("%s: %w: completion_threshold must be in (0, 1]", op, ErrInvalidPolicy)
	}
	return nil
}

// CompletionEligible сообщает, просмотрен ли контент достаточно, чтобы отметить его завершённым.
func (p Policy) CompletionEligible(watchedSec, durationSec int) bool {
	if durationSec <= 0 || watchedSec < 0 {
		return false
	}
	return float64(watchedSec) >= p.CompletionThreshold*float64(durationSec)
}
