// Package entitlement принимает решения о доступе пользователя к платному
// контенту на основе роли, статуса учётной записи и пробного периода.
//
// Все функции чистые: результат зависит только от аргументов и переданного
// момента времени, поэтому их можно вызывать из конкурентных обработчиков
// без синхронизации. При любой неопределённости ответ: «доступа нет».
package entitlement

import (
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/practice-studio/internal/models"
)

// DefaultTrialLength длительность пробного периода при регистрации.
const DefaultTrialLength = 14 * 24 * time.Hour

// DefaultRoles набор ролей, которым по умолчанию открыт контент для участников.
var DefaultRoles = []models.Role{
	models.RoleTrial,
	models.RoleMonthly,
	models.RoleYearly,
	models.RoleInPerson,
	models.RoleAdmin,
}

// HasAccess проверяет доступ с набором ролей по умолчанию.
func HasAccess(u *models.User, now time.Time) bool {
	return HasRoleAccess(u, DefaultRoles, now)
}

// HasRoleAccess проверяет доступ пользователя для заданного набора ролей.
//
// Проверка статуса абсолютна: администратор обходит только проверку роли.
// Пустой набор ролей открывает доступ лишь администратору.
func HasRoleAccess(u *models.User, requiredRoles []models.Role, now time.Time) bool {
	if u == nil {
		return false
	}
	if u.Status != models.StatusActive {
		return false
	}
	if u.Role == models.RoleAdmin {
		return true
	}
	if !slices.Contains(requiredRoles, u.Role) {
		return false
	}
	if u.Role == models.RoleTrial {
		return trialEndsAfter(u, now)
	}
	return true
}

// IsTrialActive сообщает, действует ли пробный период. Статус не учитывается:
// функция нужна для отсчёта в интерфейсе, а не для проверки доступа.
func IsTrialActive(u *models.User, now time.Time) bool {
	if u == nil || u.Role != models.RoleTrial {
		return false
	}
	return trialEndsAfter(u, now)
}

// TrialRemaining возвращает остаток пробного периода или 0, если он не активен.
func TrialRemaining(u *models.User, now time.Time) time.Duration {
	if !IsTrialActive(u, now) {
		return 0
	}
	return u.TrialEndsAt.Sub(now)
}

// CanView применяет правило видимости контента. Неизвестная метка закрыта.
func CanView(u *models.User, visibility models.Visibility, now time.Time) bool {
	switch visibility {
	case models.VisibilityPublicSample:
		return true
	case models.VisibilityMembers:
		return HasAccess(u, now)
	default:
		return false
	}
}

// StartTrial создаёт нового пользователя с пробным периодом длиной trialLength.
// Неположительная длина заменяется на DefaultTrialLength.
func StartTrial(email, name string, now time.Time, trialLength time.Duration) models.User {
	if trialLength <= 0 {
		trialLength = DefaultTrialLength
	}
	ends := now.Add(trialLength)
	return models.User{
		UUID:        uuid.New().String(),
		Email:       email,
		Name:        name,
		Role:        models.RoleTrial,
		Status:      models.StatusActive,
		TrialEndsAt: &ends,
		CreatedAt:   now,
	}
}

// trialEndsAfter строгое сравнение: в момент TrialEndsAt доступ уже закрыт.
func trialEndsAfter(u *models.User, now time.Time) bool {
	if u.TrialEndsAt == nil || u.TrialEndsAt.IsZero() {
		return false
	}
	return u.TrialEndsAt.After(now)
}
