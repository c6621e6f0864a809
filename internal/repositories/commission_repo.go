package repositories

import (
	"kasir/internal/models"
)

// CommissionRepository defines the interface for commission records.
type CommissionRepository interface {
	// Create stores a commission record. A second non-reversal record for
	// the same order returns ErrCommissionExists.
	Create(commission *models.Commission) error
	GetByOrder(orderReference string) (*models.Commission, error)
}
