package services

import (
	"kasir/internal/models"
)

// EventPublisher is the downstream notification hook. Implemented by
// pkg/rabbitmq.Client; services treat a nil publisher and a publish failure
// the same way: the commit stands, the notification is logged and dropped.
type EventPublisher interface {
	PublishOrderStatusChanged(orderReference string, from, to models.OrderStatus) error
	PublishCommissionCreated(commission *models.Commission) error
}
