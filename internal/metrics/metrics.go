// Package metrics объявляет счётчики Prometheus для решений о доступе и прогресса.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics набор счётчиков сервиса.
type Metrics struct {
	AccessDecisions *prometheus.CounterVec
	PointsAwarded   prometheus.Counter
	BadgesUnlocked  *prometheus.CounterVec
	LevelUps        prometheus.Counter
	SwapConflicts   prometheus.Counter
}

// New создаёт счётчики и регистрирует их в reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		AccessDecisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "studio",
			Name:      "access_decisions_total",
			Help:      "Access decisions by content visibility and result.",
		}, []string{"visibility", "result"}),
		PointsAwarded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "studio",
			Name:      "points_awarded_total",
			Help:      "Total points awarded to users.",
		}),
		BadgesUnlocked: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "studio",
			Name:      "badges_unlocked_total",
			Help:      "Badges unlocked by key.",
		}, []string{"badge"}),
		LevelUps: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "studio",
			Name:      "level_ups_total",
			Help:      "Level changes caused by point awards.",
		}),
		SwapConflicts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "studio",
			Name:      "stats_swap_conflicts_total",
			Help:      "Optimistic lock conflicts while saving user stats.",
		}),
	}
	reg.MustRegister(m.AccessDecisions, m.PointsAwarded, m.BadgesUnlocked, m.LevelUps, m.SwapConflicts)
	return m
}

// ObserveAccess учитывает решение о доступе.
func (m *Metrics) ObserveAccess(visibility string, allowed bool) {
	result := "denied"
	if allowed {
		result = "allowed"
	}
	m.AccessDecisions.WithLabelValues(visibility, result).Inc()
}
