package repositories

import (
	"fmt"

	"kasir/internal/models"

	"gorm.io/gorm"
)

// GORMTransactionRepository is a GORM implementation of TransactionRepository.
type GORMTransactionRepository struct {
	db *gorm.DB
}

// NewGORMTransactionRepository creates a new instance of GORMTransactionRepository.
func NewGORMTransactionRepository(db *gorm.DB) *GORMTransactionRepository {
	return &GORMTransactionRepository{
		db: db,
	}
}

// Create appends a transaction row.
func (r *GORMTransactionRepository) Create(txn *models.Transaction) error {
	if err := r.db.Create(txn).Error; err != nil {
		if isDuplicateKey(err) {
			return ErrDuplicateTransaction
		}
		return fmt.Errorf("failed to create transaction: %w", err)
	}
	return nil
}

// ListByOrder returns all transaction rows for an order, oldest first.
func (r *GORMTransactionRepository) ListByOrder(orderReference string) ([]models.Transaction, error) {
	var txns []models.Transaction
	if err := r.db.Where("order_reference = ?", orderReference).
		Order("created_at asc").Find(&txns).Error; err != nil {
		return nil, fmt.Errorf("failed to list transactions for order %s: %w", orderReference, err)
	}
	return txns, nil
}
