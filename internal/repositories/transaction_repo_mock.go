package repositories

import (
	"sync"
	"time"

	"kasir/internal/models"
)

// MockTransactionRepository is an in-memory implementation of TransactionRepository.
type MockTransactionRepository struct {
	txns []models.Transaction
	seen map[string]bool
	mu   sync.Mutex
}

// NewMockTransactionRepository creates a new instance of MockTransactionRepository.
func NewMockTransactionRepository() *MockTransactionRepository {
	return &MockTransactionRepository{
		seen: make(map[string]bool),
	}
}

// Create appends a transaction row, deduplicating identical rows.
func (r *MockTransactionRepository) Create(txn *models.Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := txn.Gateway + "|" + txn.ExternalID + "|" + string(txn.Status)
	if r.seen[key] {
		return ErrDuplicateTransaction
	}
	r.seen[key] = true
	txn.ID = uint(len(r.txns) + 1)
	txn.CreatedAt = time.Now()
	r.txns = append(r.txns, *txn)
	return nil
}

// ListByOrder returns all transaction rows for an order in insertion order.
func (r *MockTransactionRepository) ListByOrder(orderReference string) ([]models.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []models.Transaction
	for _, txn := range r.txns {
		if txn.OrderReference == orderReference {
			out = append(out, txn)
		}
	}
	return out, nil
}
