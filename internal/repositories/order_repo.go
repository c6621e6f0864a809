package repositories

import (
	"kasir/internal/models"
)

// OrderRepository defines the interface for order data access.
type OrderRepository interface {
	GetAll() ([]models.Order, error)
	GetByReference(reference string) (*models.Order, error)
	Create(order *models.Order) error
	// Transition applies fn to the order identified by reference while
	// holding an exclusive lock on that order's row. fn may mutate the
	// order's status and status timestamp; the write and the lock release
	// happen together on commit. Two concurrent calls for the same order
	// serialize here, each seeing the state the previous one committed.
	Transition(reference string, fn func(order *models.Order) error) (*models.Order, error)
}
