package services_test

import (
	"testing"

	"kasir/internal/models"
	"kasir/internal/repositories"
	"kasir/internal/services"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func newOrderService(repo repositories.OrderRepository) *services.OrderService {
	return services.NewOrderService(repo, decimal.RequireFromString("0.19"), nil)
}

func TestCreateOrderComputesTotals(t *testing.T) {
	repo := repositories.NewMockOrderRepository()
	service := newOrderService(repo)

	order, err := service.CreateOrder(services.CreateOrderRequest{
		BuyerID: "buyer-1",
		Items: []services.CreateOrderItem{
			{ProductID: "prod-1", ProductName: "Laptop", Quantity: 1, UnitPrice: decimal.RequireFromString("120.50")},
			{ProductID: "prod-2", ProductName: "Mouse", Quantity: 2, UnitPrice: decimal.RequireFromString("15.125")},
		},
		ShippingFee: decimal.RequireFromString("15.50"),
		Discount:    decimal.RequireFromString("10.00"),
		Shipping: models.ShippingSnapshot{
			Name: "Budi", Address: "Jl. Merdeka 1", City: "Jakarta", Phone: "0812000111",
		},
	})
	assert.NoError(t, err)

	// 120.50 + 2*15.125 = 150.75; tax at 19% = 28.6425 -> 28.64.
	assert.Equal(t, "150.75", order.Subtotal.StringFixed(2))
	assert.Equal(t, "28.64", order.Tax.StringFixed(2))
	assert.Equal(t, "184.89", order.Total.StringFixed(2))
	assert.Equal(t, models.OrderPending, order.Status)
	assert.Contains(t, order.Reference, "ORD-")
	assert.Equal(t, "30.25", order.Items[1].LineTotal.StringFixed(2))
}

func TestCreateOrderRejectsBadLines(t *testing.T) {
	repo := repositories.NewMockOrderRepository()
	service := newOrderService(repo)

	_, err := service.CreateOrder(services.CreateOrderRequest{
		BuyerID: "buyer-1",
		Items: []services.CreateOrderItem{
			{ProductID: "prod-1", ProductName: "Laptop", Quantity: 0, UnitPrice: decimal.RequireFromString("10.00")},
		},
	})
	assert.Error(t, err)

	_, err = service.CreateOrder(services.CreateOrderRequest{
		BuyerID: "buyer-1",
		Items: []services.CreateOrderItem{
			{ProductID: "prod-1", ProductName: "Laptop", Quantity: 1, UnitPrice: decimal.Zero},
		},
	})
	assert.Error(t, err)
}

func TestTransitionLegalPath(t *testing.T) {
	repo := repositories.NewMockOrderRepository()
	service := newOrderService(repo)
	order := seedPendingOrder(t, service)

	for _, target := range []models.OrderStatus{
		models.OrderConfirmed, models.OrderProcessing,
		models.OrderShipped, models.OrderDelivered,
	} {
		updated, err := service.Transition(order.Reference, target)
		assert.NoError(t, err)
		assert.Equal(t, target, updated.Status)
	}
}

func TestTransitionRejectsIllegal(t *testing.T) {
	repo := repositories.NewMockOrderRepository()
	service := newOrderService(repo)
	order := seedPendingOrder(t, service)

	_, err := service.Transition(order.Reference, models.OrderShipped)
	var transitionErr *services.TransitionError
	assert.ErrorAs(t, err, &transitionErr)
	assert.Equal(t, models.OrderPending, transitionErr.From)
	assert.Equal(t, models.OrderShipped, transitionErr.To)

	// Order unchanged after the rejection.
	current, err := service.GetOrderByReference(order.Reference)
	assert.NoError(t, err)
	assert.Equal(t, models.OrderPending, current.Status)
}

func TestTransitionOutOfTerminalRejected(t *testing.T) {
	repo := repositories.NewMockOrderRepository()
	service := newOrderService(repo)
	order := seedPendingOrder(t, service)

	_, err := service.Transition(order.Reference, models.OrderCancelled)
	assert.NoError(t, err)

	_, err = service.Transition(order.Reference, models.OrderConfirmed)
	var transitionErr *services.TransitionError
	assert.ErrorAs(t, err, &transitionErr)
}

func TestTransitionDuplicateIsNoop(t *testing.T) {
	repo := repositories.NewMockOrderRepository()
	service := newOrderService(repo)
	order := seedPendingOrder(t, service)

	first, err := service.Transition(order.Reference, models.OrderConfirmed)
	assert.NoError(t, err)

	// A second notification requesting the state the order is already in
	// succeeds without mutating anything.
	second, err := service.Transition(order.Reference, models.OrderConfirmed)
	assert.NoError(t, err)
	assert.Equal(t, models.OrderConfirmed, second.Status)
	assert.Equal(t, first.StatusUpdatedAt, second.StatusUpdatedAt)
}

func TestTransitionUnknownOrder(t *testing.T) {
	repo := repositories.NewMockOrderRepository()
	service := newOrderService(repo)

	_, err := service.Transition("ORD-MISSING", models.OrderConfirmed)
	assert.ErrorIs(t, err, repositories.ErrOrderNotFound)
}

func TestTransitionUnknownStatus(t *testing.T) {
	repo := repositories.NewMockOrderRepository()
	service := newOrderService(repo)
	order := seedPendingOrder(t, service)

	_, err := service.Transition(order.Reference, models.OrderStatus("exploded"))
	assert.Error(t, err)
}

func seedPendingOrder(t *testing.T, service *services.OrderService) *models.Order {
	t.Helper()
	order, err := service.CreateOrder(services.CreateOrderRequest{
		BuyerID: "buyer-1",
		Items: []services.CreateOrderItem{
			{ProductID: "prod-1", ProductName: "Keyboard", Quantity: 1, UnitPrice: decimal.RequireFromString("75.00")},
		},
		Shipping: models.ShippingSnapshot{
			Name: "Sari", Address: "Jl. Sudirman 2", City: "Bandung", Phone: "0812000222",
		},
	})
	assert.NoError(t, err)
	return order
}
