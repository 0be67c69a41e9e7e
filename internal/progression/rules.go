package progression

import "github.com/magabrotheeeer/practice-studio/internal/models"

// meditationMinutesGoal минут медитации для бейджа meditation_60min.
const meditationMinutesGoal = 60

type unlockRule func(s models.UserStats) bool

// unlockRules условия разблокировки по ключу бейджа.
var unlockRules = map[string]unlockRule{
	BadgeFirstClass:  func(s models.UserStats) bool { return s.SessionsCompleted >= 1 },
	BadgeTenSessions: func(s models.UserStats) bool { return s.SessionsCompleted >= 10 },
	BadgeStreak3:     func(s models.UserStats) bool { return s.CurrentStreak >= 3 },
	BadgeStreak7:     func(s models.UserStats) bool { return s.CurrentStreak >= 7 },
	// CategoryMinutes не пишет ни одна операция этого сервиса: MarkContentComplete
	// не знает категорию контента, а storage.SwapStats только сохраняет то, что
	// пришло. Писателем должен стать сервис учёта активности с разбивкой по
	// категориям; пока его нет, бейдж не разблокируется.
	BadgeMeditation60Min: func(s models.UserStats) bool {
		return s.CategoryMinutes[models.CategoryMeditation] >= meditationMinutesGoal
	},
}
