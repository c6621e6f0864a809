package repositories

import (
	"kasir/internal/models"
)

// TransactionRepository defines the interface for gateway transaction rows.
// The table is append-only: corrections are new rows, never updates.
type TransactionRepository interface {
	// Create appends a transaction row. An identical row (same gateway,
	// external id and status) returns ErrDuplicateTransaction.
	Create(txn *models.Transaction) error
	ListByOrder(orderReference string) ([]models.Transaction, error)
}
