package repositories

import (
	"kasir/internal/models"
)

// WebhookEventRepository defines the interface for the webhook idempotency
// table. Register is the "at most once" arbiter for inbound notifications.
type WebhookEventRepository interface {
	// Register durably records the event keyed by (gateway,
	// external_event_id). It returns ErrDuplicateEvent if the key has been
	// registered before; the storage layer's uniqueness constraint decides
	// the winner under concurrency, not application code.
	Register(event *models.WebhookEvent) error
}
