package rabbitmq

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/practice-studio/internal/models"
)

func TestGetProgressQueues(t *testing.T) {
	queues := GetProgressQueues()

	require.Len(t, queues, 3)

	keys := map[string]bool{}
	seen := map[string]bool{}
	for _, q := range queues {
		assert.Falsef(t, seen[q.QueueName], "duplicate queue name: %s", q.QueueName)
		seen[q.QueueName] = true
		keys[q.RoutingKey] = true
	}
	assert.True(t, keys[string(models.EventPointsAwarded)])
	assert.True(t, keys[string(models.EventBadgeUnlocked)])
	assert.True(t, keys[string(models.EventLevelUp)])
}
