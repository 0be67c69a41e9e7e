package rabbitmq

import "github.com/magabrotheeeer/practice-studio/internal/models"

// QueueConfig очередь и ключ маршрутизации, которым она привязана к обменнику.
type QueueConfig struct {
	QueueName  string
	RoutingKey string
}

// GetProgressQueues очереди для слоя уведомлений, по одной на тип события.
func GetProgressQueues() []QueueConfig {
	return []QueueConfig{
		{QueueName: "notification.points", RoutingKey: string(models.EventPointsAwarded)},
		{QueueName: "notification.badges", RoutingKey: string(models.EventBadgeUnlocked)},
		{QueueName: "notification.levels", RoutingKey: string(models.EventLevelUp)},
	}
}
