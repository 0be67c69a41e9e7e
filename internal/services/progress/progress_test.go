package progress

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/practice-studio/internal/metrics"
	"github.com/magabrotheeeer/practice-studio/internal/models"
	"github.com/magabrotheeeer/practice-studio/internal/progression"
	"github.com/magabrotheeeer/practice-studio/internal/storage"
)

type RepoMock struct{ mock.Mock }

func (m *RepoMock) GetStats(ctx context.Context, userUID string) (models.UserStats, error) {
	args := m.Called(ctx, userUID)
	return args.Get(0).(models.UserStats), args.Error(1)
}

func (m *RepoMock) SwapStats(ctx context.Context, stats models.UserStats) (int64, error) {
	args := m.Called(ctx, stats)
	return args.Get(0).(int64), args.Error(1)
}

type PublisherMock struct{ mock.Mock }

func (m *PublisherMock) Publish(ctx context.Context, event models.ProgressEvent) error {
	return m.Called(ctx, event).Error(0)
}

func NewNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

var fixedNow = time.Date(2025, 3, 10, 7, 0, 0, 0, time.UTC)

func newService(t *testing.T, repo *RepoMock, pub Publisher, retries int) (*Service, *metrics.Metrics) {
	t.Helper()
	engine, err := progression.NewEngine(progression.DefaultLevels(), progression.DefaultBadges(), progression.DefaultPolicy())
	require.NoError(t, err)
	m := metrics.New(prometheus.NewRegistry())
	s := NewService(engine, repo, pub, m, NewNoopLogger(), retries).
		WithClock(func() time.Time { return fixedNow })
	return s, m
}

func intPtr(v int) *int { return &v }

func TestService_Stats_FirstLoad(t *testing.T) {
	repo := new(RepoMock)
	s, _ := newService(t, repo, nil, 3)

	repo.On("GetStats", mock.Anything, "u1").Return(models.UserStats{}, storage.ErrNotFound).Once()

	stats, err := s.Stats(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "u1", stats.UserUID)
	assert.Equal(t, 0, stats.TotalPoints)
	assert.Equal(t, "Semilla", stats.CurrentLevel.Name)
	assert.Empty(t, stats.Badges)
	assert.Equal(t, int64(0), stats.Version)
	repo.AssertNotCalled(t, "SwapStats", mock.Anything, mock.Anything)
}

func TestService_Stats_RecomputesLevel(t *testing.T) {
	repo := new(RepoMock)
	s, _ := newService(t, repo, nil, 3)

	repo.On("GetStats", mock.Anything, "u1").
		Return(models.UserStats{UserUID: "u1", TotalPoints: 130, Version: 4}, nil).Once()

	stats, err := s.Stats(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, 120, stats.CurrentLevel.ThresholdPoints)
}

func TestService_Stats_Malformed(t *testing.T) {
	repo := new(RepoMock)
	s, _ := newService(t, repo, nil, 3)

	repo.On("GetStats", mock.Anything, "u1").
		Return(models.UserStats{UserUID: "u1", CurrentStreak: 5, MaxStreak: 2}, nil).Once()

	_, err := s.Stats(context.Background(), "u1")
	assert.ErrorIs(t, err, progression.ErrMalformedStats)
}

func TestService_Complete_FirstSession(t *testing.T) {
	repo := new(RepoMock)
	pub := new(PublisherMock)
	s, m := newService(t, repo, pub, 3)

	repo.On("GetStats", mock.Anything, "u1").Return(models.UserStats{}, storage.ErrNotFound).Once()
	repo.On("SwapStats", mock.Anything, mock.MatchedBy(func(st models.UserStats) bool {
		return st.Version == 0 && st.TotalPoints == 10 && st.SessionsCompleted == 1
	})).Return(int64(1), nil).Once()
	pub.On("Publish", mock.Anything, mock.MatchedBy(func(e models.ProgressEvent) bool {
		return e.Type == models.EventPointsAwarded && e.Points == 10 &&
			e.Reason == progression.ReasonContentCompleted && e.UserUID == "u1" && e.ID != ""
	})).Return(nil).Once()
	pub.On("Publish", mock.Anything, mock.MatchedBy(func(e models.ProgressEvent) bool {
		return e.Type == models.EventBadgeUnlocked && e.Badge != nil && e.Badge.Key == progression.BadgeFirstClass
	})).Return(nil).Once()

	res, err := s.Complete(context.Background(), "u1", Completion{ContentID: "class-1"})
	require.NoError(t, err)
	assert.Equal(t, 10, res.PointsAwarded)
	assert.Equal(t, int64(1), res.Stats.Version)
	require.Len(t, res.NewBadges, 1)
	assert.Equal(t, progression.BadgeFirstClass, res.NewBadges[0].Key)
	assert.Equal(t, fixedNow, res.NewBadges[0].EarnedAt)
	assert.Nil(t, res.LevelUp)

	repo.AssertExpectations(t)
	pub.AssertExpectations(t)
	assert.Equal(t, 10.0, testutil.ToFloat64(m.PointsAwarded))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.BadgesUnlocked.WithLabelValues(progression.BadgeFirstClass)))
}

func TestService_Complete_LevelUp(t *testing.T) {
	repo := new(RepoMock)
	pub := new(PublisherMock)
	s, m := newService(t, repo, pub, 3)

	stored := models.UserStats{
		UserUID:           "u1",
		TotalPoints:       45,
		SessionsCompleted: 4,
		MinutesPracticed:  120,
		Badges: []models.EarnedBadge{{
			Badge:    models.Badge{Key: progression.BadgeFirstClass},
			EarnedAt: fixedNow.Add(-72 * time.Hour),
		}},
		Version: 7,
	}
	repo.On("GetStats", mock.Anything, "u1").Return(stored, nil).Once()
	repo.On("SwapStats", mock.Anything, mock.MatchedBy(func(st models.UserStats) bool {
		return st.Version == 7 && st.TotalPoints == 55
	})).Return(int64(8), nil).Once()
	pub.On("Publish", mock.Anything, mock.Anything).Return(nil)

	res, err := s.Complete(context.Background(), "u1", Completion{ContentID: "class-5"})
	require.NoError(t, err)
	require.NotNil(t, res.LevelUp)
	assert.Equal(t, 50, res.LevelUp.ThresholdPoints)
	assert.Empty(t, res.NewBadges)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.LevelUps))
	pub.AssertNumberOfCalls(t, "Publish", 2)
}

func TestService_Complete_NotEligible(t *testing.T) {
	repo := new(RepoMock)
	s, _ := newService(t, repo, nil, 3)

	_, err := s.Complete(context.Background(), "u1", Completion{
		ContentID:   "class-1",
		WatchedSec:  intPtr(500),
		DurationSec: intPtr(600),
	})
	assert.ErrorIs(t, err, progression.ErrNotEligible)
	repo.AssertNotCalled(t, "GetStats", mock.Anything, mock.Anything)
}

func TestService_Complete_EligibleWatch(t *testing.T) {
	repo := new(RepoMock)
	s, _ := newService(t, repo, nil, 3)

	repo.On("GetStats", mock.Anything, "u1").Return(models.UserStats{}, storage.ErrNotFound).Once()
	repo.On("SwapStats", mock.Anything, mock.Anything).Return(int64(1), nil).Once()

	_, err := s.Complete(context.Background(), "u1", Completion{
		ContentID:   "class-1",
		WatchedSec:  intPtr(540),
		DurationSec: intPtr(600),
	})
	require.NoError(t, err)
}

func TestService_Award_RetriesOnConflict(t *testing.T) {
	repo := new(RepoMock)
	s, m := newService(t, repo, nil, 3)

	repo.On("GetStats", mock.Anything, "u1").
		Return(models.UserStats{UserUID: "u1", TotalPoints: 10, Version: 1}, nil).Once()
	repo.On("SwapStats", mock.Anything, mock.MatchedBy(func(st models.UserStats) bool {
		return st.Version == 1
	})).Return(int64(0), storage.ErrVersionConflict).Once()
	repo.On("GetStats", mock.Anything, "u1").
		Return(models.UserStats{UserUID: "u1", TotalPoints: 20, Version: 2}, nil).Once()
	repo.On("SwapStats", mock.Anything, mock.MatchedBy(func(st models.UserStats) bool {
		return st.Version == 2 && st.TotalPoints == 25
	})).Return(int64(3), nil).Once()

	res, err := s.Award(context.Background(), "u1", 5, "bonus")
	require.NoError(t, err)
	assert.Equal(t, 25, res.Stats.TotalPoints)
	assert.Equal(t, int64(3), res.Stats.Version)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SwapConflicts))
	repo.AssertExpectations(t)
}

func TestService_Award_ConflictExhausted(t *testing.T) {
	repo := new(RepoMock)
	s, m := newService(t, repo, nil, 2)

	repo.On("GetStats", mock.Anything, "u1").
		Return(models.UserStats{UserUID: "u1", Version: 1}, nil).Times(2)
	repo.On("SwapStats", mock.Anything, mock.Anything).
		Return(int64(0), storage.ErrVersionConflict).Times(2)

	_, err := s.Award(context.Background(), "u1", 5, "bonus")
	assert.ErrorIs(t, err, storage.ErrVersionConflict)
	assert.Equal(t, 2.0, testutil.ToFloat64(m.SwapConflicts))
	repo.AssertExpectations(t)
}

func TestService_Award_InvalidPoints(t *testing.T) {
	repo := new(RepoMock)
	s, _ := newService(t, repo, nil, 3)

	repo.On("GetStats", mock.Anything, "u1").Return(models.UserStats{UserUID: "u1", Version: 1}, nil)

	for _, pts := range []int{0, -5} {
		_, err := s.Award(context.Background(), "u1", pts, "penalty")
		assert.ErrorIs(t, err, progression.ErrInvalidPoints)
	}
	repo.AssertNotCalled(t, "SwapStats", mock.Anything, mock.Anything)
}

func TestService_Streak_UnlocksStreakBadge(t *testing.T) {
	repo := new(RepoMock)
	pub := new(PublisherMock)
	s, _ := newService(t, repo, pub, 3)

	repo.On("GetStats", mock.Anything, "u1").
		Return(models.UserStats{UserUID: "u1", CurrentStreak: 2, MaxStreak: 2, Version: 3}, nil).Once()
	repo.On("SwapStats", mock.Anything, mock.MatchedBy(func(st models.UserStats) bool {
		return st.CurrentStreak == 3 && st.MaxStreak == 3
	})).Return(int64(4), nil).Once()
	pub.On("Publish", mock.Anything, mock.MatchedBy(func(e models.ProgressEvent) bool {
		return e.Type == models.EventBadgeUnlocked && e.Badge.Key == progression.BadgeStreak3
	})).Return(errors.New("broker down")).Once()

	res, err := s.Streak(context.Background(), "u1")
	require.NoError(t, err, "publish failures must not fail the request")
	assert.Equal(t, 0, res.PointsAwarded)
	require.Len(t, res.NewBadges, 1)
	assert.Equal(t, progression.BadgeStreak3, res.NewBadges[0].Key)
	pub.AssertExpectations(t)
}

func TestService_StorageError(t *testing.T) {
	repo := new(RepoMock)
	s, _ := newService(t, repo, nil, 3)

	repo.On("GetStats", mock.Anything, "u1").Return(models.UserStats{}, errors.New("db down")).Once()

	_, err := s.Streak(context.Background(), "u1")
	require.Error(t, err)
	assert.NotErrorIs(t, err, storage.ErrVersionConflict)
}
