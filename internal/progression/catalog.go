package progression

import (
	"fmt"
	"sort"

	"github.com/magabrotheeeer/practice-studio/internal/models"
)

// Ключи бейджей, для которых в движке есть правила разблокировки.
const (
	BadgeFirstClass      = "first_class"
	BadgeTenSessions     = "ten_sessions"
	BadgeStreak3         = "streak_3"
	BadgeStreak7         = "streak_7"
	BadgeMeditation60Min = "meditation_60min"
)

// DefaultLevels возвращает стандартный каталог уровней.
func DefaultLevels() []models.Level {
	return []models.Level{
		{ID: "1", Name: "Semilla", ThresholdPoints: 0, OrderIndex: 1},
		{ID: "2", Name: "Respira y Fluye", ThresholdPoints: 50, OrderIndex: 2},
		{ID: "3", Name: "Corazón Fuerte", ThresholdPoints: 120, OrderIndex: 3},
		{ID: "4", Name: "Guerrero Sereno", ThresholdPoints: 250, OrderIndex: 4},
		{ID: "5", Name: "Equilibrio Profundo", ThresholdPoints: 400, OrderIndex: 5},
		{ID: "6", Name: "Sabia del Movimiento", ThresholdPoints: 600, OrderIndex: 6},
		{ID: "7", Name: "Zen Avanzado", ThresholdPoints: 900, OrderIndex: 7},
		{ID: "8", Name: "Maestría Interior", ThresholdPoints: 1300, OrderIndex: 8},
	}
}

// DefaultBadges возвращает стандартный каталог бейджей.
// sunrise_5, pilates_5 и yoga_5 есть в каталоге, но правил для них нет.
func DefaultBadges() []models.Badge {
	return []models.Badge{
		{ID: "1", Key: BadgeFirstClass, Name: "Bienvenida", Description: "Primera clase completada", Icon: "🌱"},
		{ID: "2", Key: BadgeStreak3, Name: "Constancia inicial", Description: "3 días seguidos practicando", Icon: "🔥"},
		{ID: "3", Key: BadgeTenSessions, Name: "Diez pasos", Description: "10 sesiones completadas", Icon: "⭐"},
		{ID: "4", Key: BadgeStreak7, Name: "Racha 7", Description: "7 días seguidos practicando", Icon: "🏆"},
		{ID: "5", Key: "sunrise_5", Name: "Amanecer", Description: "5 prácticas antes de las 10:00", Icon: "🌅"},
		{ID: "6", Key: "pilates_5", Name: "Fuerza y Core", Description: "5 clases de Pilates", Icon: "💪"},
		{ID: "7", Key: "yoga_5", Name: "Flujo Solar", Description: "5 clases de Yoga", Icon: "🧘‍♀️"},
		{ID: "8", Key: BadgeMeditation60Min, Name: "Respira", Description: "60 minutos de meditación", Icon: "🕯️"},
	}
}

// sortLevels возвращает копию каталога, упорядоченную по OrderIndex по возрастанию.
func sortLevels(levels []models.Level) []models.Level {
	out := make([]models.Level, len(levels))
	copy(out, levels)
	sort.SliceStable(out, func(i, j int) bool { return out[i].OrderIndex < out[j].OrderIndex })
	return out
}

// validateLevels проверяет наличие базового уровня и возрастание порогов.
func validateLevels(sorted []models.Level) error {
	const op = "progression.validateLevels"
	if len(sorted) == 0 {
		return fmt.Errorf("%s: %w: catalog is empty", op, ErrUnknownLevelCatalog)
	}
	if sorted[0].ThresholdPoints != 0 {
		return fmt.Errorf("%s: %w: lowest level %q has threshold %d, want 0",
			op, ErrUnknownLevelCatalog, sorted[0].Name, sorted[0].ThresholdPoints)
	}
	for i := 1; i < len(sorted); i++ {
		if sorted[i].OrderIndex == sorted[i-1].OrderIndex {
			return fmt.Errorf("%s: %w: duplicate order_index %d", op, ErrUnknownLevelCatalog, sorted[i].OrderIndex)
		}
		if sorted[i].ThresholdPoints <= sorted[i-1].ThresholdPoints {
			return fmt.Errorf("%s: %w: threshold of %q does not increase", op, ErrUnknownLevelCatalog, sorted[i].Name)
		}
	}
	return nil
}

func validateBadges(badges []models.Badge) error {
	const op = "progression.validateBadges"
	if len(badges) == 0 {
		return fmt.Errorf("%s: %w: catalog is empty", op, ErrUnknownBadgeCatalog)
	}
	seen := make(map[string]struct{}, len(badges))
	for _, b := range badges {
		if b.Key == "" {
			return fmt.Errorf("%s: %w: badge %q has empty key", op, ErrUnknownBadgeCatalog, b.ID)
		}
		if _, ok := seen[b.Key]; ok {
			return fmt.Errorf("%s: %w: duplicate key %q", op, ErrUnknownBadgeCatalog, b.Key)
		}
		seen[b.Key] = struct{}{}
	}
	return nil
}

// CurrentLevel находит уровень для суммы очков: просмотр от старшего уровня к
// младшему, первый уровень с порогом не выше points. Если ни один не подходит,
// возвращается младший уровень. При равных порогах побеждает старший OrderIndex.
// Для пустого каталога возвращается нулевой Level.
func CurrentLevel(points int, levels []models.Level) models.Level {
	if len(levels) == 0 {
		return models.Level{}
	}
	sorted := sortLevels(levels)
	return currentLevelSorted(points, sorted)
}

func currentLevelSorted(points int, sorted []models.Level) models.Level {
	for i := len(sorted) - 1; i >= 0; i-- {
		if sorted[i].ThresholdPoints <= points {
			return sorted[i]
		}
	}
	return sorted[0]
}
