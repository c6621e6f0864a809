package repositories

import (
	"sync"
	"time"

	"kasir/internal/models"

	"github.com/google/uuid"
)

// MockOrderRepository is an in-memory implementation of OrderRepository.
// Transition serializes per order reference with a dedicated mutex, mirroring
// the row-lock semantics of the GORM implementation closely enough for
// concurrency tests.
type MockOrderRepository struct {
	orders map[string]models.Order
	locks  map[string]*sync.Mutex
	mu     sync.RWMutex
}

// NewMockOrderRepository creates a new instance of MockOrderRepository.
func NewMockOrderRepository() *MockOrderRepository {
	return &MockOrderRepository{
		orders: make(map[string]models.Order),
		locks:  make(map[string]*sync.Mutex),
	}
}

// GetAll returns all orders.
func (r *MockOrderRepository) GetAll() ([]models.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	orderList := make([]models.Order, 0, len(r.orders))
	for _, order := range r.orders {
		orderList = append(orderList, order)
	}
	return orderList, nil
}

// GetByReference returns an order by its reference.
func (r *MockOrderRepository) GetByReference(reference string) (*models.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	order, ok := r.orders[reference]
	if !ok {
		return nil, ErrOrderNotFound
	}
	return &order, nil
}

// Create adds a new order.
func (r *MockOrderRepository) Create(order *models.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if order.ID == "" {
		order.ID = uuid.New().String()
	}
	order.CreatedAt = time.Now()
	order.UpdatedAt = time.Now()
	r.orders[order.Reference] = *order
	r.locks[order.Reference] = &sync.Mutex{}
	return nil
}

// Transition applies fn to the order while holding its per-order lock.
func (r *MockOrderRepository) Transition(reference string, fn func(order *models.Order) error) (*models.Order, error) {
	r.mu.RLock()
	lock, ok := r.locks[reference]
	r.mu.RUnlock()
	if !ok {
		return nil, ErrOrderNotFound
	}

	lock.Lock()
	defer lock.Unlock()

	r.mu.RLock()
	order := r.orders[reference]
	r.mu.RUnlock()

	prev := order.Status
	if err := fn(&order); err != nil {
		return nil, err
	}
	if order.Status != prev {
		order.StatusUpdatedAt = time.Now()
		order.UpdatedAt = time.Now()
		r.mu.Lock()
		r.orders[reference] = order
		r.mu.Unlock()
	}
	return &order, nil
}
