// Package progress связывает движок прогресса с хранилищем снимков и брокером
// событий. Каждое изменение выполняется как чтение, вычисление и условная
// запись по версии с повтором при конфликте.
package progress

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/practice-studio/internal/lib/sl"
	"github.com/magabrotheeeer/practice-studio/internal/metrics"
	"github.com/magabrotheeeer/practice-studio/internal/models"
	"github.com/magabrotheeeer/practice-studio/internal/progression"
	"github.com/magabrotheeeer/practice-studio/internal/storage"
)

// StatsRepository определяет хранилище снимков прогресса.
type StatsRepository interface {
	// GetStats возвращает снимок или storage.ErrNotFound.
	GetStats(ctx context.Context, userUID string) (models.UserStats, error)
	// SwapStats записывает снимок, если версия в хранилище равна stats.Version.
	// Возвращает новую версию или storage.ErrVersionConflict.
	SwapStats(ctx context.Context, stats models.UserStats) (int64, error)
}

// Publisher отправляет события прогресса.
type Publisher interface {
	Publish(ctx context.Context, event models.ProgressEvent) error
}

// Completion запрос на завершение контента. Поля просмотра необязательны:
// если заданы оба, применяется порог завершения политики.
type Completion struct {
	ContentID   string
	WatchedSec  *int
	DurationSec *int
}

// Result итог изменения прогресса.
type Result struct {
	Stats         models.UserStats     `json:"stats"`
	PointsAwarded int                  `json:"points_awarded"`
	NewBadges     []models.EarnedBadge `json:"new_badges"`
	LevelUp       *models.Level        `json:"level_up,omitempty"`
}

// Service реализует операции прогресса поверх хранилища.
type Service struct {
	engine     *progression.Engine
	repo       StatsRepository
	publisher  Publisher
	metrics    *metrics.Metrics
	log        *slog.Logger
	maxRetries int
	now        func() time.Time
}

type mutation func(stats models.UserStats, now time.Time) (models.UserStats, []models.EarnedBadge, error)

// NewService создает новый экземпляр Service. publisher может быть nil,
// тогда события не отправляются.
func NewService(engine *progression.Engine, repo StatsRepository, publisher Publisher,
	m *metrics.Metrics, log *slog.Logger, maxRetries int) *Service {
	if maxRetries < 1 {
		maxRetries = 1
	}
	return &Service{
		engine:     engine,
		repo:       repo,
		publisher:  publisher,
		metrics:    m,
		log:        log,
		maxRetries: maxRetries,
		now:        time.Now,
	}
}

// WithClock подменяет источник текущего времени.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Policy возвращает политику движка.
func (s *Service) Policy() progression.Policy {
	return s.engine.Policy()
}

// Stats возвращает текущий снимок пользователя. Для нового пользователя
// возвращается нулевой снимок без записи в хранилище.
func (s *Service) Stats(ctx context.Context, userUID string) (models.UserStats, error) {
	const op = "progress.Stats"

	stats, err := s.load(ctx, userUID)
	if err != nil {
		return models.UserStats{}, fmt.Errorf("%s: %w", op, err)
	}
	if err := progression.ValidateStats(stats); err != nil {
		return models.UserStats{}, fmt.Errorf("%s: %w", op, err)
	}
	return stats, nil
}

// Complete отмечает контент завершённым.
func (s *Service) Complete(ctx context.Context, userUID string, req Completion) (Result, error) {
	const op = "progress.Complete"

	if req.WatchedSec != nil && req.DurationSec != nil &&
		!s.engine.Policy().CompletionEligible(*req.WatchedSec, *req.DurationSec) {
		return Result{}, fmt.Errorf("%s: %w", op, progression.ErrNotEligible)
	}

	res, err := s.mutate(ctx, userUID, progression.ReasonContentCompleted,
		func(stats models.UserStats, now time.Time) (models.UserStats, []models.EarnedBadge, error) {
			return s.engine.MarkContentComplete(stats, req.ContentID, now)
		})
	if err != nil {
		return Result{}, fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("content completed", sl.Op(op),
		slog.String("user_uid", userUID),
		slog.String("content_id", req.ContentID),
		slog.Int("new_badges", len(res.NewBadges)))
	return res, nil
}

// Award начисляет очки пользователю.
func (s *Service) Award(ctx context.Context, userUID string, points int, reason string) (Result, error) {
	const op = "progress.Award"

	res, err := s.mutate(ctx, userUID, reason,
		func(stats models.UserStats, _ time.Time) (models.UserStats, []models.EarnedBadge, error) {
			next, err := s.engine.AwardPoints(stats, points, reason)
			return next, nil, err
		})
	if err != nil {
		return Result{}, fmt.Errorf("%s: %w", op, err)
	}
	return res, nil
}

// Streak увеличивает серию и проверяет бейджи за серию.
func (s *Service) Streak(ctx context.Context, userUID string) (Result, error) {
	const op = "progress.Streak"

	res, err := s.mutate(ctx, userUID, "",
		func(stats models.UserStats, now time.Time) (models.UserStats, []models.EarnedBadge, error) {
			next, err := s.engine.UpdateStreak(stats)
			if err != nil {
				return stats, nil, err
			}
			return s.engine.CheckBadges(next, now)
		})
	if err != nil {
		return Result{}, fmt.Errorf("%s: %w", op, err)
	}
	return res, nil
}

func (s *Service) mutate(ctx context.Context, userUID, reason string, fn mutation) (Result, error) {
	var lastErr error
	for attempt := 1; attempt <= s.maxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}

		current, err := s.load(ctx, userUID)
		if err != nil {
			return Result{}, err
		}

		now := s.now()
		next, unlocked, err := fn(current, now)
		if err != nil {
			return Result{}, err
		}
		next.Version = current.Version

		version, err := s.repo.SwapStats(ctx, next)
		if errors.Is(err, storage.ErrVersionConflict) {
			s.metrics.SwapConflicts.Inc()
			s.log.Debug("stats version conflict, retrying",
				slog.String("user_uid", userUID),
				slog.Int("attempt", attempt))
			lastErr = err
			continue
		}
		if err != nil {
			return Result{}, err
		}
		next.Version = version

		res := Result{
			Stats:         next,
			PointsAwarded: next.TotalPoints - current.TotalPoints,
			NewBadges:     unlocked,
		}
		if res.NewBadges == nil {
			res.NewBadges = []models.EarnedBadge{}
		}
		if next.CurrentLevel.OrderIndex > current.CurrentLevel.OrderIndex {
			level := next.CurrentLevel
			res.LevelUp = &level
		}

		s.record(res)
		s.publish(ctx, userUID, reason, now, res)
		return res, nil
	}
	return Result{}, lastErr
}

// load читает снимок и пересчитывает производный уровень.
func (s *Service) load(ctx context.Context, userUID string) (models.UserStats, error) {
	stats, err := s.repo.GetStats(ctx, userUID)
	if errors.Is(err, storage.ErrNotFound) {
		return s.engine.NewStats(userUID), nil
	}
	if err != nil {
		return models.UserStats{}, err
	}
	if stats.Badges == nil {
		stats.Badges = []models.EarnedBadge{}
	}
	stats.CurrentLevel = s.engine.CurrentLevel(stats.TotalPoints)
	return stats, nil
}

func (s *Service) record(res Result) {
	if res.PointsAwarded > 0 {
		s.metrics.PointsAwarded.Add(float64(res.PointsAwarded))
	}
	for _, b := range res.NewBadges {
		s.metrics.BadgesUnlocked.WithLabelValues(b.Key).Inc()
	}
	if res.LevelUp != nil {
		s.metrics.LevelUps.Inc()
	}
}

// publish отправляет события после записи. Ошибки брокера не отменяют изменение.
func (s *Service) publish(ctx context.Context, userUID, reason string, now time.Time, res Result) {
	if s.publisher == nil {
		return
	}

	var events []models.ProgressEvent
	if res.PointsAwarded > 0 {
		events = append(events, models.ProgressEvent{
			Type:   models.EventPointsAwarded,
			Points: res.PointsAwarded,
			Reason: reason,
		})
	}
	for i := range res.NewBadges {
		events = append(events, models.ProgressEvent{
			Type:  models.EventBadgeUnlocked,
			Badge: &res.NewBadges[i],
		})
	}
	if res.LevelUp != nil {
		events = append(events, models.ProgressEvent{
			Type:  models.EventLevelUp,
			Level: res.LevelUp,
		})
	}

	for _, event := range events {
		event.ID = uuid.NewString()
		event.UserUID = userUID
		event.OccurredAt = now
		if err := s.publisher.Publish(ctx, event); err != nil {
			s.log.Warn("failed to publish progress event",
				slog.String("type", string(event.Type)),
				slog.String("user_uid", userUID),
				sl.Err(err))
		}
	}
}
