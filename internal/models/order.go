package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// OrderStatus is the lifecycle state of an order.
type OrderStatus string

const (
	OrderPending    OrderStatus = "pending"
	OrderConfirmed  OrderStatus = "confirmed"
	OrderProcessing OrderStatus = "processing"
	OrderShipped    OrderStatus = "shipped"
	OrderDelivered  OrderStatus = "delivered"
	OrderCancelled  OrderStatus = "cancelled"
	OrderRefunded   OrderStatus = "refunded"
)

// orderTransitions is the adjacency table of legal status transitions.
// Terminal states (delivered, cancelled, refunded) have no entry.
var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderPending:    {OrderConfirmed, OrderCancelled},
	OrderConfirmed:  {OrderProcessing, OrderRefunded},
	OrderProcessing: {OrderShipped},
	OrderShipped:    {OrderDelivered},
}

// IsValid reports whether s is a known order status.
func (s OrderStatus) IsValid() bool {
	switch s {
	case OrderPending, OrderConfirmed, OrderProcessing, OrderShipped,
		OrderDelivered, OrderCancelled, OrderRefunded:
		return true
	}
	return false
}

// IsTerminal reports whether s admits no further transitions.
func (s OrderStatus) IsTerminal() bool {
	_, ok := orderTransitions[s]
	return !ok && s.IsValid()
}

// CanTransitionTo reports whether the transition s -> target is legal.
func (s OrderStatus) CanTransitionTo(target OrderStatus) bool {
	for _, next := range orderTransitions[s] {
		if next == target {
			return true
		}
	}
	return false
}

// ShippingSnapshot captures the delivery details as they were when the order
// was placed. It is never updated afterwards.
type ShippingSnapshot struct {
	Name    string `json:"name" gorm:"type:varchar(100)" validate:"required,max=100"`
	Address string `json:"address" gorm:"type:varchar(255)" validate:"required,max=255"`
	City    string `json:"city" gorm:"type:varchar(100)" validate:"required,max=100"`
	Phone   string `json:"phone" gorm:"type:varchar(32)" validate:"required,max=32"`
}

// OrderItem represents a single line within an order. Unit price and line
// total are snapshots taken at order time, independent of the live product.
type OrderItem struct {
	ID          uint            `json:"id" gorm:"primaryKey"`
	OrderID     string          `json:"-" gorm:"index;type:varchar(36);not null"`
	ProductID   string          `json:"product_id" gorm:"type:varchar(36);not null" validate:"required"`
	ProductName string          `json:"product_name" gorm:"type:varchar(100)" validate:"required,max=100"`
	Quantity    int             `json:"quantity" validate:"required,gt=0"`
	UnitPrice   decimal.Decimal `json:"unit_price" gorm:"type:numeric(12,2)"`
	LineTotal   decimal.Decimal `json:"line_total" gorm:"type:numeric(12,2)"`
}

// Order represents a customer order. Monetary fields are exact decimals and
// satisfy total = subtotal + tax + shipping_fee - discount. Orders are never
// physically deleted; cancellation and refund are soft, terminal states.
type Order struct {
	ID              string           `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Reference       string           `json:"reference" gorm:"uniqueIndex;type:varchar(32);not null"`
	BuyerID         string           `json:"buyer_id" gorm:"index;type:varchar(36);not null"`
	Status          OrderStatus      `json:"status" gorm:"type:varchar(16);not null"`
	Items           []OrderItem      `json:"items" gorm:"foreignKey:OrderID;references:ID;constraint:OnDelete:CASCADE"`
	Subtotal        decimal.Decimal  `json:"subtotal" gorm:"type:numeric(12,2)"`
	Tax             decimal.Decimal  `json:"tax" gorm:"type:numeric(12,2)"`
	ShippingFee     decimal.Decimal  `json:"shipping_fee" gorm:"type:numeric(12,2)"`
	Discount        decimal.Decimal  `json:"discount" gorm:"type:numeric(12,2)"`
	Total           decimal.Decimal  `json:"total" gorm:"type:numeric(12,2)"`
	Shipping        ShippingSnapshot `json:"shipping" gorm:"embedded;embeddedPrefix:shipping_"`
	StatusUpdatedAt time.Time        `json:"status_updated_at"`
	CreatedAt       time.Time        `json:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at"`
	DeletedAt       gorm.DeletedAt   `json:"-" gorm:"index"`
}

// ComputeTotal returns subtotal + tax + shipping_fee - discount.
func (o *Order) ComputeTotal() decimal.Decimal {
	return o.Subtotal.Add(o.Tax).Add(o.ShippingFee).Sub(o.Discount)
}
