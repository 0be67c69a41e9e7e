// Package access содержит бизнес-логику проверки доступа к контенту:
// загрузку пользователя через кеш и хранилище и применение правил entitlement.
package access

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/practice-studio/internal/cache"
	"github.com/magabrotheeeer/practice-studio/internal/entitlement"
	"github.com/magabrotheeeer/practice-studio/internal/lib/sl"
	"github.com/magabrotheeeer/practice-studio/internal/metrics"
	"github.com/magabrotheeeer/practice-studio/internal/models"
	"github.com/magabrotheeeer/practice-studio/internal/storage"
)

// UserRepository определяет методы для работы с пользователями в хранилище.
type UserRepository interface {
	// GetUser возвращает пользователя по UID или storage.ErrNotFound.
	GetUser(ctx context.Context, userUID string) (*models.User, error)
	// CreateUser сохраняет нового пользователя.
	CreateUser(ctx context.Context, user models.User) error
	// UpdateEntitlement меняет роль и статус пользователя.
	UpdateEntitlement(ctx context.Context, userUID string, role models.Role, status models.Status) error
}

// Cache описывает методы для кэширования данных.
type Cache interface {
	Get(ctx context.Context, key string, result any) (bool, error)
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
	Invalidate(ctx context.Context, key string) error
}

// Decision результат проверки доступа к контенту.
type Decision struct {
	Allowed          bool       `json:"allowed"`
	TrialActive      bool       `json:"trial_active"`
	TrialEndsAt      *time.Time `json:"trial_ends_at,omitempty"`
	TrialSecondsLeft int64      `json:"trial_seconds_left,omitempty"`
}

// Service реализует проверку доступа с кешированием записей пользователей.
type Service struct {
	repo        UserRepository
	cache       Cache
	metrics     *metrics.Metrics
	log         *slog.Logger
	cacheTTL    time.Duration
	trialLength time.Duration
	now         func() time.Time
}

// NewService создает новый экземпляр Service.
func NewService(repo UserRepository, cache Cache, m *metrics.Metrics, log *slog.Logger,
	cacheTTL, trialLength time.Duration) *Service {
	return &Service{
		repo:        repo,
		cache:       cache,
		metrics:     m,
		log:         log,
		cacheTTL:    cacheTTL,
		trialLength: trialLength,
		now:         time.Now,
	}
}

// WithClock подменяет источник текущего времени.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Check решает, может ли пользователь смотреть контент с меткой visibility.
// Неизвестный пользователь получает отказ без ошибки.
func (s *Service) Check(ctx context.Context, userUID string, visibility models.Visibility) (Decision, error) {
	const op = "access.Check"

	user, err := s.loadUser(ctx, userUID)
	if err != nil {
		return Decision{}, fmt.Errorf("%s: %w", op, err)
	}

	now := s.now()
	d := Decision{
		Allowed:     entitlement.CanView(user, visibility, now),
		TrialActive: entitlement.IsTrialActive(user, now),
	}
	if d.TrialActive {
		d.TrialEndsAt = user.TrialEndsAt
		d.TrialSecondsLeft = int64(entitlement.TrialRemaining(user, now) / time.Second)
	}

	s.metrics.ObserveAccess(string(visibility), d.Allowed)
	s.log.Debug("access decision",
		sl.Op(op),
		slog.String("user_uid", userUID),
		slog.String("visibility", string(visibility)),
		slog.Bool("allowed", d.Allowed))
	return d, nil
}

// Authorize проверяет доступ пользователя для набора ролей.
func (s *Service) Authorize(ctx context.Context, userUID string, roles []models.Role) (bool, error) {
	const op = "access.Authorize"

	user, err := s.loadUser(ctx, userUID)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return entitlement.HasRoleAccess(user, roles, s.now()), nil
}

// User возвращает пользователя или storage.ErrNotFound.
func (s *Service) User(ctx context.Context, userUID string) (*models.User, error) {
	const op = "access.User"

	user, err := s.loadUser(ctx, userUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if user == nil {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}
	return user, nil
}

// StartTrial регистрирует пользователя с пробным периодом.
func (s *Service) StartTrial(ctx context.Context, email, name string) (models.User, error) {
	const op = "access.StartTrial"

	user := entitlement.StartTrial(email, name, s.now(), s.trialLength)
	if err := s.repo.CreateUser(ctx, user); err != nil {
		return models.User{}, fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("trial started", sl.Op(op),
		slog.String("user_uid", user.UUID),
		slog.Time("trial_ends_at", *user.TrialEndsAt))
	return user, nil
}

// ChangeEntitlement меняет роль и статус пользователя и сбрасывает кеш.
func (s *Service) ChangeEntitlement(ctx context.Context, userUID string, role models.Role, status models.Status) error {
	const op = "access.ChangeEntitlement"

	if err := s.repo.UpdateEntitlement(ctx, userUID, role, status); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := s.Invalidate(ctx, userUID); err != nil {
		s.log.Warn("failed to invalidate user cache", sl.Op(op),
			slog.String("user_uid", userUID), sl.Err(err))
	}

	s.log.Info("entitlement changed", sl.Op(op),
		slog.String("user_uid", userUID),
		slog.String("role", string(role)),
		slog.String("status", string(status)))
	return nil
}

// Invalidate удаляет запись пользователя из кеша.
func (s *Service) Invalidate(ctx context.Context, userUID string) error {
	const op = "access.Invalidate"

	if err := s.cache.Invalidate(ctx, cache.UserKey(userUID)); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// loadUser читает пользователя из кеша, затем из хранилища. Отсутствующий
// пользователь возвращается как nil без ошибки. Ошибки кеша не фатальны.
func (s *Service) loadUser(ctx context.Context, userUID string) (*models.User, error) {
	key := cache.UserKey(userUID)

	var cached models.User
	found, err := s.cache.Get(ctx, key, &cached)
	if err != nil {
		s.log.Warn("failed to read user from cache", slog.String("key", key), sl.Err(err))
	}
	if found && err == nil {
		return &cached, nil
	}

	user, err := s.repo.GetUser(ctx, userUID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if err := s.cache.Set(ctx, key, user, s.cacheTTL); err != nil {
		s.log.Warn("failed to cache user", slog.String("key", key), sl.Err(err))
	}
	return user, nil
}
