package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/magabrotheeeer/practice-studio/internal/models"
)

const uniqueViolation = "23505"

// CreateUser сохраняет нового пользователя.
func (s *Storage) CreateUser(ctx context.Context, user models.User) error {
	const op = "storage.CreateUser"

	query := `INSERT INTO users (uid, email, name, role, status, trial_ends_at, created_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := s.DB.ExecContext(ctx, query,
		user.UUID, user.Email, user.Name, string(user.Role), string(user.Status),
		user.TrialEndsAt, user.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return fmt.Errorf("%s: %w", op, ErrAlreadyExists)
		}
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// GetUser возвращает пользователя по его UID.
func (s *Storage) GetUser(ctx context.Context, userUID string) (*models.User, error) {
	const op = "storage.GetUser"

	query := `SELECT uid, email, name, role, status, trial_ends_at, created_at
			  FROM users
			  WHERE uid = $1`
	u := &models.User{}
	var role, status string
	var trialEndsAt sql.NullTime
	err := s.DB.QueryRowContext(ctx, query, userUID).Scan(
		&u.UUID, &u.Email, &u.Name, &role, &status, &trialEndsAt, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	u.Role = models.Role(role)
	u.Status = models.Status(status)
	if trialEndsAt.Valid {
		u.TrialEndsAt = &trialEndsAt.Time
	}
	return u, nil
}

// UpdateEntitlement меняет роль и статус пользователя. Вызывается сервисом биллинга.
func (s *Storage) UpdateEntitlement(ctx context.Context, userUID string, role models.Role, status models.Status) error {
	const op = "storage.UpdateEntitlement"

	query := `UPDATE users
			  SET role = $1, status = $2
			  WHERE uid = $3`
	res, err := s.DB.ExecContext(ctx, query, string(role), string(status), userUID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	return nil
}
