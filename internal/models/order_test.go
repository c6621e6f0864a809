package models_test

import (
	"testing"

	"kasir/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestOrderStatusTransitionTable(t *testing.T) {
	legal := map[models.OrderStatus][]models.OrderStatus{
		models.OrderPending:    {models.OrderConfirmed, models.OrderCancelled},
		models.OrderConfirmed:  {models.OrderProcessing, models.OrderRefunded},
		models.OrderProcessing: {models.OrderShipped},
		models.OrderShipped:    {models.OrderDelivered},
		models.OrderDelivered:  {},
		models.OrderCancelled:  {},
		models.OrderRefunded:   {},
	}

	all := []models.OrderStatus{
		models.OrderPending, models.OrderConfirmed, models.OrderProcessing,
		models.OrderShipped, models.OrderDelivered, models.OrderCancelled,
		models.OrderRefunded,
	}

	// Every (from, to) pair must agree with the legal table: anything not
	// listed is rejected.
	for from, targets := range legal {
		allowed := make(map[models.OrderStatus]bool)
		for _, to := range targets {
			allowed[to] = true
		}
		for _, to := range all {
			assert.Equal(t, allowed[to], from.CanTransitionTo(to),
				"transition %s -> %s", from, to)
		}
	}
}

func TestOrderStatusTerminal(t *testing.T) {
	assert.True(t, models.OrderDelivered.IsTerminal())
	assert.True(t, models.OrderCancelled.IsTerminal())
	assert.True(t, models.OrderRefunded.IsTerminal())

	assert.False(t, models.OrderPending.IsTerminal())
	assert.False(t, models.OrderConfirmed.IsTerminal())
	assert.False(t, models.OrderProcessing.IsTerminal())
	assert.False(t, models.OrderShipped.IsTerminal())

	assert.False(t, models.OrderStatus("bogus").IsValid())
	assert.False(t, models.OrderStatus("bogus").IsTerminal())
}

func TestOrderComputeTotal(t *testing.T) {
	order := models.Order{
		Subtotal:    decimal.RequireFromString("150.75"),
		Tax:         decimal.RequireFromString("28.64"),
		ShippingFee: decimal.RequireFromString("15.50"),
		Discount:    decimal.RequireFromString("10.00"),
	}
	assert.True(t, order.ComputeTotal().Equal(decimal.RequireFromString("184.89")),
		"got %s", order.ComputeTotal())
}
