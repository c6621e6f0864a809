package repositories

import (
	"errors"
	"fmt"
	"time"

	"kasir/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GORMOrderRepository is a GORM implementation of OrderRepository.
type GORMOrderRepository struct {
	db *gorm.DB
}

// NewGORMOrderRepository creates a new instance of GORMOrderRepository.
func NewGORMOrderRepository(db *gorm.DB) *GORMOrderRepository {
	return &GORMOrderRepository{
		db: db,
	}
}

// GetAll retrieves all orders with their items.
func (r *GORMOrderRepository) GetAll() ([]models.Order, error) {
	var orders []models.Order
	if err := r.db.Preload("Items").Find(&orders).Error; err != nil {
		return nil, fmt.Errorf("failed to get all orders: %w", err)
	}
	return orders, nil
}

// GetByReference retrieves a single order by its reference.
func (r *GORMOrderRepository) GetByReference(reference string) (*models.Order, error) {
	var order models.Order
	if err := r.db.Preload("Items").First(&order, "reference = ?", reference).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to get order %s: %w", reference, err)
	}
	return &order, nil
}

// Create creates a new order together with its items.
func (r *GORMOrderRepository) Create(order *models.Order) error {
	if order.ID == "" {
		order.ID = uuid.New().String()
	}
	if err := r.db.Create(order).Error; err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}
	return nil
}

// Transition loads the order row under SELECT ... FOR UPDATE inside a
// transaction, applies fn and persists the status fields. The row lock is
// held until commit, so concurrent transitions on the same order serialize.
func (r *GORMOrderRepository) Transition(reference string, fn func(order *models.Order) error) (*models.Order, error) {
	var order models.Order
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&order, "reference = ?", reference).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrOrderNotFound
			}
			return fmt.Errorf("failed to lock order %s: %w", reference, err)
		}

		prev := order.Status
		if err := fn(&order); err != nil {
			return err
		}
		if order.Status == prev {
			// No-op transition: nothing to write, lock released on commit.
			return nil
		}

		order.StatusUpdatedAt = time.Now()
		if err := tx.Model(&models.Order{}).
			Where("id = ?", order.ID).
			Updates(map[string]interface{}{
				"status":            order.Status,
				"status_updated_at": order.StatusUpdatedAt,
			}).Error; err != nil {
			return fmt.Errorf("failed to update order %s status: %w", reference, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &order, nil
}
