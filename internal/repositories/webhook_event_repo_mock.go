package repositories

import (
	"sync"
	"time"

	"kasir/internal/models"
)

// MockWebhookEventRepository is an in-memory implementation of
// WebhookEventRepository. The map insert under a single mutex plays the role
// of the unique index: exactly one caller wins per key.
type MockWebhookEventRepository struct {
	events map[string]models.WebhookEvent
	mu     sync.Mutex
}

// NewMockWebhookEventRepository creates a new instance of MockWebhookEventRepository.
func NewMockWebhookEventRepository() *MockWebhookEventRepository {
	return &MockWebhookEventRepository{
		events: make(map[string]models.WebhookEvent),
	}
}

// Register records the event or reports ErrDuplicateEvent.
func (r *MockWebhookEventRepository) Register(event *models.WebhookEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := event.Gateway + "|" + event.ExternalEventID
	if _, ok := r.events[key]; ok {
		return ErrDuplicateEvent
	}
	event.CreatedAt = time.Now()
	r.events[key] = *event
	return nil
}
