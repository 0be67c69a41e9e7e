package models

import "time"

// Category категория практики, по которой сторонний сервис ведёт учёт минут.
type Category string

const (
	CategoryMeditation Category = "meditation"
	CategoryYoga       Category = "yoga"
	CategoryPilates    Category = "pilates"
)

// Level запись статического каталога уровней.
type Level struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	ThresholdPoints int    `json:"threshold_points"` // Минимум очков для уровня
	OrderIndex      int    `json:"order_index"`      // Ранг по возрастанию
}

// Badge запись статического каталога бейджей.
type Badge struct {
	ID          string `json:"id"`
	Key         string `json:"key"` // Стабильный ключ для правил разблокировки
	Name        string `json:"name"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
}

// EarnedBadge бейдж, полученный пользователем. Не отзывается и не дублируется.
type EarnedBadge struct {
	Badge
	EarnedAt time.Time `json:"earned_at"`
}

// UserStats снимок прогресса пользователя.
//
// CurrentLevel всегда вычисляется из TotalPoints и не является источником истины.
// CategoryMinutes заполняется внешним сервисом учёта активности.
// Version используется хранилищем для оптимистичной блокировки.
type UserStats struct {
	UserUID           string           `json:"user_id"`
	TotalPoints       int              `json:"total_points"`
	CurrentLevel      Level            `json:"current_level"`
	CurrentStreak     int              `json:"current_streak"`
	MaxStreak         int              `json:"max_streak"`
	Badges            []EarnedBadge    `json:"badges"`
	SessionsCompleted int              `json:"sessions_completed"`
	MinutesPracticed  int              `json:"minutes_practiced"`
	CategoryMinutes   map[Category]int `json:"category_minutes,omitempty"`
	Version           int64            `json:"version"`
}

// HasBadge сообщает, получен ли бейдж с указанным ключом.
func (s UserStats) HasBadge(key string) bool {
	for _, b := range s.Badges {
		if b.Key == key {
			return true
		}
	}
	return false
}

// Clone возвращает копию снимка, не разделяющую срезы и карты с оригиналом.
func (s UserStats) Clone() UserStats {
	out := s
	if s.Badges != nil {
		out.Badges = make([]EarnedBadge, len(s.Badges))
		copy(out.Badges, s.Badges)
	}
	if s.CategoryMinutes != nil {
		out.CategoryMinutes = make(map[Category]int, len(s.CategoryMinutes))
		for k, v := range s.CategoryMinutes {
			out.CategoryMinutes[k] = v
		}
	}
	return out
}
