package models

import "time"

// WebhookEvent is the idempotency record for an inbound gateway notification.
// The composite unique index on (gateway, external_event_id) is the arbiter
// of "first time seen": the insert either succeeds or hits the constraint,
// so two workers racing on the same event cannot both win. Rows are written
// before any business side effect and never deleted.
type WebhookEvent struct {
	ID              uint      `json:"id" gorm:"primaryKey"`
	Gateway         string    `json:"gateway" gorm:"type:varchar(20);not null;index:ux_webhook_events_gateway_event,unique,priority:1"`
	ExternalEventID string    `json:"external_event_id" gorm:"type:varchar(191);not null;index:ux_webhook_events_gateway_event,unique,priority:2"`
	EventType       string    `json:"event_type" gorm:"type:varchar(50)"`
	Payload         string    `json:"-" gorm:"type:text"`
	CreatedAt       time.Time `json:"created_at"`
}
