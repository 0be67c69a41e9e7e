package models

import "time"

// EventType тип события прогресса для слоя уведомлений.
type EventType string

const (
	EventPointsAwarded EventType = "points.awarded"
	EventBadgeUnlocked EventType = "badge.unlocked"
	EventLevelUp       EventType = "level.up"
)

// ProgressEvent событие, которое публикуется после успешного сохранения снимка.
// Слой уведомлений сам решает, как и когда его показать.
type ProgressEvent struct {
	ID         string       `json:"id"`
	Type       EventType    `json:"type"`
	UserUID    string       `json:"user_id"`
	Points     int          `json:"points,omitempty"`
	Reason     string       `json:"reason,omitempty"`
	Badge      *EarnedBadge `json:"badge,omitempty"`
	Level      *Level       `json:"level,omitempty"`
	OccurredAt time.Time    `json:"occurred_at"`
}
