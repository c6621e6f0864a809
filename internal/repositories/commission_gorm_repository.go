package repositories

import (
	"errors"
	"fmt"

	"kasir/internal/models"

	"gorm.io/gorm"
)

// GORMCommissionRepository is a GORM implementation of CommissionRepository.
type GORMCommissionRepository struct {
	db *gorm.DB
}

// NewGORMCommissionRepository creates a new instance of GORMCommissionRepository.
func NewGORMCommissionRepository(db *gorm.DB) *GORMCommissionRepository {
	return &GORMCommissionRepository{
		db: db,
	}
}

// Create stores a commission record. The unique index on
// (order_reference, reversal) guarantees exactly one active record per order.
func (r *GORMCommissionRepository) Create(commission *models.Commission) error {
	if err := r.db.Create(commission).Error; err != nil {
		if isDuplicateKey(err) {
			return ErrCommissionExists
		}
		return fmt.Errorf("failed to create commission: %w", err)
	}
	return nil
}

// GetByOrder returns the active (non-reversal) commission for an order.
func (r *GORMCommissionRepository) GetByOrder(orderReference string) (*models.Commission, error) {
	var commission models.Commission
	if err := r.db.First(&commission, "order_reference = ? AND reversal = ?", orderReference, false).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCommissionNotFound
		}
		return nil, fmt.Errorf("failed to get commission for order %s: %w", orderReference, err)
	}
	return &commission, nil
}
