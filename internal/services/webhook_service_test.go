package services_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"kasir/internal/gateways"
	"kasir/internal/models"
	"kasir/internal/repositories"
	"kasir/internal/services"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

// stubAdapter returns canned events keyed by the payload body, skipping real
// signature verification. It stands in for a gateway adapter so pipeline
// tests exercise the guard, the state machine and the commission path.
type stubAdapter struct {
	gateway gateways.Gateway
	events  map[string]*gateways.PaymentEvent
}

func (a *stubAdapter) Gateway() gateways.Gateway {
	return a.gateway
}

func (a *stubAdapter) Normalize(payload []byte, headers map[string]string) (*gateways.PaymentEvent, error) {
	event, ok := a.events[string(payload)]
	if !ok {
		return nil, gateways.ErrBadSignature
	}
	return event, nil
}

func (a *stubAdapter) Charge(ctx context.Context, req *gateways.PaymentRequest) (*gateways.PaymentReceipt, error) {
	return nil, gateways.ErrProviderUnavailable
}

type webhookFixture struct {
	orderRepo      *repositories.MockOrderRepository
	txnRepo        *repositories.MockTransactionRepository
	commissionRepo *repositories.MockCommissionRepository
	adapter        *stubAdapter
	service        *services.WebhookService
	order          *models.Order
}

func newWebhookFixture(t *testing.T) *webhookFixture {
	t.Helper()
	orderRepo := repositories.NewMockOrderRepository()
	txnRepo := repositories.NewMockTransactionRepository()
	commissionRepo := repositories.NewMockCommissionRepository()

	orderService := services.NewOrderService(orderRepo, decimal.RequireFromString("0.19"), nil)
	commissionService := services.NewCommissionService(commissionRepo, decimal.RequireFromString("0.05"), nil)

	order := seedPendingOrder(t, orderService)

	adapter := &stubAdapter{
		gateway: gateways.GatewayDoku,
		events:  make(map[string]*gateways.PaymentEvent),
	}
	registry := gateways.Registry{gateways.GatewayDoku: adapter}

	service := services.NewWebhookService(
		registry,
		repositories.NewMockWebhookEventRepository(),
		txnRepo,
		orderService,
		commissionService,
	)
	return &webhookFixture{
		orderRepo:      orderRepo,
		txnRepo:        txnRepo,
		commissionRepo: commissionRepo,
		adapter:        adapter,
		service:        service,
		order:          order,
	}
}

func (f *webhookFixture) addEvent(payload, eventID string, status models.TransactionStatus) {
	f.adapter.events[payload] = &gateways.PaymentEvent{
		Gateway:         gateways.GatewayDoku,
		ExternalEventID: eventID,
		ExternalID:      "txn-" + eventID,
		OrderReference:  f.order.Reference,
		Status:          status,
		RawStatus:       string(status),
		Amount:          f.order.Total,
		Currency:        "IDR",
	}
}

func TestProcessApprovedConfirmsAndPaysCommission(t *testing.T) {
	f := newWebhookFixture(t)
	f.addEvent("approved-1", "evt-1", models.TransactionApproved)

	result, err := f.service.Process("doku", []byte("approved-1"), nil)
	assert.NoError(t, err)
	assert.False(t, result.Duplicate)
	assert.Equal(t, models.OrderConfirmed, result.Order.Status)

	commission, err := f.commissionRepo.GetByOrder(f.order.Reference)
	assert.NoError(t, err)
	assert.True(t, commission.VendorAmount.Add(commission.PlatformAmount).Equal(f.order.Total))

	txns, err := f.txnRepo.ListByOrder(f.order.Reference)
	assert.NoError(t, err)
	assert.Len(t, txns, 1)
	assert.Equal(t, models.TransactionApproved, txns[0].Status)
}

func TestProcessReplayedEventIsIdempotent(t *testing.T) {
	f := newWebhookFixture(t)
	f.addEvent("approved-1", "evt-1", models.TransactionApproved)

	for i := 0; i < 5; i++ {
		result, err := f.service.Process("doku", []byte("approved-1"), nil)
		assert.NoError(t, err)
		if i == 0 {
			assert.False(t, result.Duplicate)
		} else {
			assert.True(t, result.Duplicate)
		}
	}

	// One transition, one transaction row, one commission: same outcome as
	// processing the event once.
	order, err := f.orderRepo.GetByReference(f.order.Reference)
	assert.NoError(t, err)
	assert.Equal(t, models.OrderConfirmed, order.Status)

	txns, _ := f.txnRepo.ListByOrder(f.order.Reference)
	assert.Len(t, txns, 1)

	_, err = f.commissionRepo.GetByOrder(f.order.Reference)
	assert.NoError(t, err)
}

func TestProcessSecondApprovalNotificationNoops(t *testing.T) {
	f := newWebhookFixture(t)
	// Distinct notifications (capture then settlement) for the same
	// transaction: different event ids, same requested state.
	f.addEvent("approved-1", "evt-1", models.TransactionApproved)
	f.addEvent("approved-2", "evt-2", models.TransactionApproved)

	_, err := f.service.Process("doku", []byte("approved-1"), nil)
	assert.NoError(t, err)
	result, err := f.service.Process("doku", []byte("approved-2"), nil)
	assert.NoError(t, err)
	assert.False(t, result.Duplicate)
	assert.Equal(t, models.OrderConfirmed, result.Order.Status)

	// Still exactly one commission: the unique constraint is the backstop
	// behind the state machine's no-op.
	commission, err := f.commissionRepo.GetByOrder(f.order.Reference)
	assert.NoError(t, err)
	assert.False(t, commission.Reversal)
}

func TestProcessPendingRecordsWithoutTransition(t *testing.T) {
	f := newWebhookFixture(t)
	f.addEvent("pending-1", "evt-1", models.TransactionPending)

	result, err := f.service.Process("doku", []byte("pending-1"), nil)
	assert.NoError(t, err)
	assert.Nil(t, result.Order)

	order, _ := f.orderRepo.GetByReference(f.order.Reference)
	assert.Equal(t, models.OrderPending, order.Status)

	txns, _ := f.txnRepo.ListByOrder(f.order.Reference)
	assert.Len(t, txns, 1)
}

func TestProcessVoidedRefundsConfirmedOrder(t *testing.T) {
	f := newWebhookFixture(t)
	f.addEvent("approved-1", "evt-1", models.TransactionApproved)
	f.addEvent("voided-1", "evt-2", models.TransactionVoided)

	_, err := f.service.Process("doku", []byte("approved-1"), nil)
	assert.NoError(t, err)

	result, err := f.service.Process("doku", []byte("voided-1"), nil)
	assert.NoError(t, err)
	assert.Equal(t, models.OrderRefunded, result.Order.Status)

	// The refund reversed the commission: a reversal row already exists.
	err = f.commissionRepo.Create(&models.Commission{
		OrderReference: f.order.Reference,
		Reversal:       true,
	})
	assert.ErrorIs(t, err, repositories.ErrCommissionExists)

	// The original record is untouched.
	active, err := f.commissionRepo.GetByOrder(f.order.Reference)
	assert.NoError(t, err)
	assert.False(t, active.Reversal)
	assert.True(t, active.CommissionAmount.IsPositive())
}

func TestProcessUnknownOrderSurfaced(t *testing.T) {
	f := newWebhookFixture(t)
	f.adapter.events["ghost"] = &gateways.PaymentEvent{
		Gateway:         gateways.GatewayDoku,
		ExternalEventID: "evt-ghost",
		ExternalID:      "txn-ghost",
		OrderReference:  "ORD-DOESNOTEXIST",
		Status:          models.TransactionApproved,
		Amount:          decimal.RequireFromString("10.00"),
		Currency:        "IDR",
	}

	_, err := f.service.Process("doku", []byte("ghost"), nil)
	assert.ErrorIs(t, err, repositories.ErrOrderNotFound)
}

func TestProcessBadSignatureHasNoSideEffect(t *testing.T) {
	f := newWebhookFixture(t)

	_, err := f.service.Process("doku", []byte("unsigned"), nil)
	assert.ErrorIs(t, err, gateways.ErrBadSignature)

	order, _ := f.orderRepo.GetByReference(f.order.Reference)
	assert.Equal(t, models.OrderPending, order.Status)
	txns, _ := f.txnRepo.ListByOrder(f.order.Reference)
	assert.Empty(t, txns)
}

func TestProcessUnknownGateway(t *testing.T) {
	f := newWebhookFixture(t)
	_, err := f.service.Process("paypal", []byte("x"), nil)
	assert.ErrorIs(t, err, gateways.ErrUnknownGateway)
}

func TestConcurrentConflictingNotifications(t *testing.T) {
	f := newWebhookFixture(t)
	f.addEvent("approve", "evt-approve", models.TransactionApproved)
	f.addEvent("decline", "evt-decline", models.TransactionDeclined)

	var wg sync.WaitGroup
	results := make([]error, 2)
	payloads := []string{"approve", "decline"}
	for i := range payloads {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, results[i] = f.service.Process("doku", []byte(payloads[i]), nil)
		}(i)
	}
	wg.Wait()

	order, err := f.orderRepo.GetByReference(f.order.Reference)
	assert.NoError(t, err)

	// Exactly one transition wins; the loser is rejected as an illegal
	// transition out of the new state. The order is never left in an
	// intermediate or corrupted state.
	winners := 0
	for i, res := range results {
		if res == nil {
			winners++
			continue
		}
		var transitionErr *services.TransitionError
		assert.ErrorAs(t, res, &transitionErr, fmt.Sprintf("result %d", i))
	}
	assert.Equal(t, 1, winners)
	assert.Contains(t, []models.OrderStatus{models.OrderConfirmed, models.OrderCancelled}, order.Status)

	if order.Status == models.OrderConfirmed {
		_, err := f.commissionRepo.GetByOrder(f.order.Reference)
		assert.NoError(t, err)
	} else {
		_, err := f.commissionRepo.GetByOrder(f.order.Reference)
		assert.ErrorIs(t, err, repositories.ErrCommissionNotFound)
	}
}
