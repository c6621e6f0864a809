package repositories

import (
	"sync"
	"time"

	"kasir/internal/models"
)

// MockCommissionRepository is an in-memory implementation of CommissionRepository.
type MockCommissionRepository struct {
	commissions map[string]models.Commission
	mu          sync.Mutex
}

// NewMockCommissionRepository creates a new instance of MockCommissionRepository.
func NewMockCommissionRepository() *MockCommissionRepository {
	return &MockCommissionRepository{
		commissions: make(map[string]models.Commission),
	}
}

// Create stores a commission record, enforcing one active record per order.
func (r *MockCommissionRepository) Create(commission *models.Commission) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := commission.OrderReference
	if commission.Reversal {
		key += "|reversal"
	}
	if _, ok := r.commissions[key]; ok {
		return ErrCommissionExists
	}
	commission.ID = uint(len(r.commissions) + 1)
	commission.CreatedAt = time.Now()
	r.commissions[key] = *commission
	return nil
}

// GetByOrder returns the active commission for an order.
func (r *MockCommissionRepository) GetByOrder(orderReference string) (*models.Commission, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	commission, ok := r.commissions[orderReference]
	if !ok {
		return nil, ErrCommissionNotFound
	}
	return &commission, nil
}
