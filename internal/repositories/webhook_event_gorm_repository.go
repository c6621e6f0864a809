package repositories

import (
	"errors"
	"fmt"
	"strings"

	"kasir/internal/models"

	"gorm.io/gorm"
)

// GORMWebhookEventRepository is a GORM implementation of WebhookEventRepository.
type GORMWebhookEventRepository struct {
	db *gorm.DB
}

// NewGORMWebhookEventRepository creates a new instance of GORMWebhookEventRepository.
func NewGORMWebhookEventRepository(db *gorm.DB) *GORMWebhookEventRepository {
	return &GORMWebhookEventRepository{
		db: db,
	}
}

// Register inserts the event row. The insert is attempted unconditionally;
// a violation of the (gateway, external_event_id) unique index means another
// worker got there first and is reported as ErrDuplicateEvent.
func (r *GORMWebhookEventRepository) Register(event *models.WebhookEvent) error {
	if err := r.db.Create(event).Error; err != nil {
		if isDuplicateKey(err) {
			return ErrDuplicateEvent
		}
		return fmt.Errorf("failed to register webhook event: %w", err)
	}
	return nil
}

// isDuplicateKey detects a unique-constraint violation. GORM translates
// driver errors when TranslateError is enabled; the string checks cover the
// sqlite and postgres drivers when it is not.
func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value")
}
