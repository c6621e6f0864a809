package services

import (
	"fmt"
	"log"
	"strings"

	"kasir/internal/models"
	"kasir/internal/repositories"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransitionError reports an illegal order status transition. The order is
// left unchanged when it is returned.
type TransitionError struct {
	Reference string
	From      models.OrderStatus
	To        models.OrderStatus
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("illegal transition %s -> %s for order %s", e.From, e.To, e.Reference)
}

// CreateOrderItem is one requested order line. The unit price is the
// caller's snapshot of the product price at order time.
type CreateOrderItem struct {
	ProductID   string          `json:"product_id" validate:"required"`
	ProductName string          `json:"product_name" validate:"required,max=100"`
	Quantity    int             `json:"quantity" validate:"required,gt=0"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
}

// CreateOrderRequest is the order-creation input from the order-placement
// collaborator.
type CreateOrderRequest struct {
	BuyerID     string                  `json:"buyer_id" validate:"required"`
	Items       []CreateOrderItem       `json:"items" validate:"required,min=1,dive"`
	ShippingFee decimal.Decimal         `json:"shipping_fee"`
	Discount    decimal.Decimal         `json:"discount"`
	Shipping    models.ShippingSnapshot `json:"shipping"`
}

// OrderService handles order creation and the order state machine.
type OrderService struct {
	orderRepo repositories.OrderRepository
	taxRate   decimal.Decimal
	mq        EventPublisher
}

// NewOrderService creates a new OrderService. taxRate is the flat tax rate
// applied to the subtotal.
func NewOrderService(orderRepo repositories.OrderRepository, taxRate decimal.Decimal, mq EventPublisher) *OrderService {
	return &OrderService{
		orderRepo: orderRepo,
		taxRate:   taxRate,
		mq:        mq,
	}
}

// GetAllOrders retrieves all orders.
func (s *OrderService) GetAllOrders() ([]models.Order, error) {
	return s.orderRepo.GetAll()
}

// GetOrderByReference retrieves a single order by its reference.
func (s *OrderService) GetOrderByReference(reference string) (*models.Order, error) {
	return s.orderRepo.GetByReference(reference)
}

// CreateOrder creates a new order in pending status. Line totals and the
// subtotal are computed with exact decimals from the snapshot unit prices;
// tax is the flat configured rate applied once to the subtotal.
func (s *OrderService) CreateOrder(req CreateOrderRequest) (*models.Order, error) {
	subtotal := decimal.Zero
	items := make([]models.OrderItem, 0, len(req.Items))
	for _, line := range req.Items {
		if line.Quantity <= 0 {
			return nil, fmt.Errorf("quantity for product %s must be positive", line.ProductID)
		}
		if line.UnitPrice.LessThanOrEqual(decimal.Zero) {
			return nil, fmt.Errorf("unit price for product %s must be positive", line.ProductID)
		}
		lineTotal := line.UnitPrice.Mul(decimal.NewFromInt(int64(line.Quantity)))
		items = append(items, models.OrderItem{
			ProductID:   line.ProductID,
			ProductName: line.ProductName,
			Quantity:    line.Quantity,
			UnitPrice:   line.UnitPrice,
			LineTotal:   lineTotal,
		})
		subtotal = subtotal.Add(lineTotal)
	}

	if req.ShippingFee.IsNegative() || req.Discount.IsNegative() {
		return nil, fmt.Errorf("shipping fee and discount must not be negative")
	}

	order := &models.Order{
		ID:          uuid.New().String(),
		Reference:   newOrderReference(),
		BuyerID:     req.BuyerID,
		Status:      models.OrderPending,
		Items:       items,
		Subtotal:    subtotal,
		Tax:         subtotal.Mul(s.taxRate).Round(2),
		ShippingFee: req.ShippingFee,
		Discount:    req.Discount,
		Shipping:    req.Shipping,
	}
	order.Total = order.ComputeTotal()
	if order.Total.IsNegative() {
		return nil, fmt.Errorf("discount %s exceeds order value", req.Discount)
	}

	if err := s.orderRepo.Create(order); err != nil {
		return nil, fmt.Errorf("failed to create order in repository: %w", err)
	}

	if s.mq != nil {
		if err := s.mq.PublishOrderStatusChanged(order.Reference, "", order.Status); err != nil {
			log.Printf("Warning: failed to publish order created event for order %s: %v", order.Reference, err)
		}
	}
	return order, nil
}

// Transition moves the order identified by reference to the target status.
// The read-check-write runs under an exclusive row lock, so concurrent
// notifications for the same order serialize and each sees the previously
// committed state. Requesting the status the order already has is an
// idempotent no-op; any transition outside the adjacency table returns a
// TransitionError without mutating the order.
func (s *OrderService) Transition(reference string, target models.OrderStatus) (*models.Order, error) {
	if !target.IsValid() {
		return nil, fmt.Errorf("invalid order status: %s", target)
	}

	var from models.OrderStatus
	order, err := s.orderRepo.Transition(reference, func(order *models.Order) error {
		from = order.Status
		if order.Status == target {
			return nil // duplicate event, already there
		}
		if !order.Status.CanTransitionTo(target) {
			return &TransitionError{Reference: reference, From: order.Status, To: target}
		}
		order.Status = target
		return nil
	})
	if err != nil {
		return nil, err
	}

	if from != order.Status && s.mq != nil {
		if err := s.mq.PublishOrderStatusChanged(order.Reference, from, order.Status); err != nil {
			log.Printf("Warning: failed to publish status change event for order %s: %v", order.Reference, err)
		}
	}
	return order, nil
}

// newOrderReference builds a human-readable unique order reference.
func newOrderReference() string {
	raw := strings.ReplaceAll(uuid.New().String(), "-", "")
	return "ORD-" + strings.ToUpper(raw[:12])
}
