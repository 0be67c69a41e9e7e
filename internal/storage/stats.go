package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/magabrotheeeer/practice-studio/internal/models"
)

// Снимок без пользователя нарушает внешний ключ на users.
const foreignKeyViolation = "23503"

// GetStats возвращает снимок прогресса пользователя. Уровень не хранится и
// должен быть вычислен вызывающей стороной.
func (s *Storage) GetStats(ctx context.Context, userUID string) (models.UserStats, error) {
	const op = "storage.GetStats"

	query := `SELECT user_uid, total_points, current_streak, max_streak,
			      sessions_completed, minutes_practiced, badges, category_minutes, version
			  FROM user_stats
			  WHERE user_uid = $1`
	var st models.UserStats
	var badges, categories []byte
	err := s.DB.QueryRowContext(ctx, query, userUID).Scan(
		&st.UserUID, &st.TotalPoints, &st.CurrentStreak, &st.MaxStreak,
		&st.SessionsCompleted, &st.MinutesPracticed, &badges, &categories, &st.Version)
	if errors.Is(err, sql.ErrNoRows) {
		return models.UserStats{}, fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	if err != nil {
		return models.UserStats{}, fmt.Errorf("%s: %w", op, err)
	}

	if err = json.Unmarshal(badges, &st.Badges); err != nil {
		return models.UserStats{}, fmt.Errorf("%s: decode badges: %w", op, err)
	}
	if err = json.Unmarshal(categories, &st.CategoryMinutes); err != nil {
		return models.UserStats{}, fmt.Errorf("%s: decode category minutes: %w", op, err)
	}
	return st, nil
}

// SwapStats сохраняет снимок, если версия в базе равна stats.Version.
// Version == 0 означает первую запись. Возвращает новую версию. Если снимок
// успел измениться, возвращается ErrVersionConflict. Для неизвестного
// пользователя возвращается ErrNotFound.
func (s *Storage) SwapStats(ctx context.Context, stats models.UserStats) (int64, error) {
	const op = "storage.SwapStats"

	badges := stats.Badges
	if badges == nil {
		badges = []models.EarnedBadge{}
	}
	badgesJSON, err := json.Marshal(badges)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	categories := stats.CategoryMinutes
	if categories == nil {
		categories = map[models.Category]int{}
	}
	categoriesJSON, err := json.Marshal(categories)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	var query string
	args := []any{
		stats.UserUID, stats.TotalPoints, stats.CurrentStreak, stats.MaxStreak,
		stats.SessionsCompleted, stats.MinutesPracticed, badgesJSON, categoriesJSON,
	}
	if stats.Version == 0 {
		query = `INSERT INTO user_stats (user_uid, total_points, current_streak, max_streak,
				     sessions_completed, minutes_practiced, badges, category_minutes, version)
				 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, 1)
				 ON CONFLICT (user_uid) DO NOTHING
				 RETURNING version`
	} else {
		query = `UPDATE user_stats
				 SET total_points = $2, current_streak = $3, max_streak = $4,
				     sessions_completed = $5, minutes_practiced = $6,
				     badges = $7, category_minutes = $8,
				     version = version + 1, updated_at = now()
				 WHERE user_uid = $1 AND version = $9
				 RETURNING version`
		args = append(args, stats.Version)
	}

	var version int64
	err = s.DB.QueryRowContext(ctx, query, args...).Scan(&version)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("%s: %w", op, ErrVersionConflict)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == foreignKeyViolation {
		return 0, fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return version, nil
}
