// Package models содержит доменные структуры платформы: пользователя с
// атрибутами доступа, каталоги уровней и бейджей, а также снимок
// прогресса пользователя. Структуры используются движками доступа и
// прогресса, бизнес-логикой и хранилищем.
package models

import "time"

// Role роль пользователя, определяющая тариф доступа.
type Role string

const (
	RoleGuest    Role = "guest"
	RoleTrial    Role = "trial"
	RoleMonthly  Role = "monthly"
	RoleYearly   Role = "yearly"
	RoleInPerson Role = "in_person"
	RoleAdmin    Role = "admin"
)

// Status статус учётной записи. Доступ возможен только при StatusActive.
type Status string

const (
	StatusActive   Status = "active"
	StatusPaused   Status = "paused"
	StatusCanceled Status = "canceled"
	StatusBanned   Status = "banned"
)

// Visibility метка видимости контента.
type Visibility string

const (
	// VisibilityPublicSample доступен всем, включая гостей.
	VisibilityPublicSample Visibility = "public_sample"
	// VisibilityMembers требует действующего доступа.
	VisibilityMembers Visibility = "members"
)

// User представляет пользователя платформы с атрибутами доступа.
type User struct {
	UUID        string     `json:"id"`                      // Уникальный идентификатор пользователя
	Email       string     `json:"email"`                   // Электронная почта
	Name        string     `json:"name"`                    // Отображаемое имя
	Role        Role       `json:"role"`                    // Роль (тариф)
	Status      Status     `json:"status"`                  // Статус учётной записи
	TrialEndsAt *time.Time `json:"trial_ends_at,omitempty"` // Окончание пробного периода, только для RoleTrial
	CreatedAt   time.Time  `json:"created_at"`              // Дата регистрации
}

// ParseRole проверяет строку и возвращает роль.
func ParseRole(s string) (Role, bool) {
	switch r := Role(s); r {
	case RoleGuest, RoleTrial, RoleMonthly, RoleYearly, RoleInPerson, RoleAdmin:
		return r, true
	}
	return "", false
}

// ParseStatus проверяет строку и возвращает статус.
func ParseStatus(s string) (Status, bool) {
	switch st := Status(s); st {
	case StatusActive, StatusPaused, StatusCanceled, StatusBanned:
		return st, true
	}
	return "", false
}
