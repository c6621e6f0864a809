package services

import (
	"errors"
	"fmt"
	"log"

	"kasir/internal/gateways"
	"kasir/internal/models"
	"kasir/internal/repositories"
)

// WebhookResult reports what processing an inbound notification did.
type WebhookResult struct {
	Duplicate bool
	Event     *gateways.PaymentEvent
	Order     *models.Order
}

// WebhookService runs the inbound notification pipeline:
// adapter (verify + normalize) -> idempotency guard -> transaction ledger ->
// order state machine -> commission -> downstream event.
type WebhookService struct {
	registry          gateways.Registry
	webhookRepo       repositories.WebhookEventRepository
	txnRepo           repositories.TransactionRepository
	orderService      *OrderService
	commissionService *CommissionService
}

// NewWebhookService creates a new WebhookService.
func NewWebhookService(
	registry gateways.Registry,
	webhookRepo repositories.WebhookEventRepository,
	txnRepo repositories.TransactionRepository,
	orderService *OrderService,
	commissionService *CommissionService,
) *WebhookService {
	return &WebhookService{
		registry:          registry,
		webhookRepo:       webhookRepo,
		txnRepo:           txnRepo,
		orderService:      orderService,
		commissionService: commissionService,
	}
}

// transitionTargets maps a canonical event status onto the state-machine
// target it requests. Pending events record a transaction but request no
// transition.
var transitionTargets = map[models.TransactionStatus]models.OrderStatus{
	models.TransactionApproved: models.OrderConfirmed,
	models.TransactionDeclined: models.OrderCancelled,
	models.TransactionVoided:   models.OrderRefunded,
}

// Process handles one inbound gateway notification. A failed signature or a
// malformed payload stops before any side effect. The idempotency row is
// inserted before anything else: a duplicate returns success immediately so
// gateway retries are harmless. Approved events that confirm the order also
// create the commission record, exactly once.
func (s *WebhookService) Process(gatewayName string, payload []byte, headers map[string]string) (*WebhookResult, error) {
	gateway, err := gateways.ParseGateway(gatewayName)
	if err != nil {
		return nil, err
	}
	adapter, err := s.registry.Lookup(gateway)
	if err != nil {
		return nil, err
	}

	event, err := adapter.Normalize(payload, headers)
	if err != nil {
		return nil, err
	}

	record := &models.WebhookEvent{
		Gateway:         string(gateway),
		ExternalEventID: event.ExternalEventID,
		EventType:       event.RawStatus,
		Payload:         string(payload),
	}
	if err := s.webhookRepo.Register(record); err != nil {
		if errors.Is(err, repositories.ErrDuplicateEvent) {
			return &WebhookResult{Duplicate: true, Event: event}, nil
		}
		return nil, err
	}

	txn := &models.Transaction{
		Gateway:        string(gateway),
		ExternalID:     event.ExternalID,
		Status:         event.Status,
		OrderReference: event.OrderReference,
		Amount:         event.Amount,
		Currency:       event.Currency,
	}
	if err := s.txnRepo.Create(txn); err != nil && !errors.Is(err, repositories.ErrDuplicateTransaction) {
		return nil, fmt.Errorf("failed to record transaction for order %s: %w", event.OrderReference, err)
	}

	target, ok := transitionTargets[event.Status]
	if !ok {
		// Async-pending confirmation: ledger row only, no transition.
		return &WebhookResult{Event: event}, nil
	}

	order, err := s.orderService.Transition(event.OrderReference, target)
	if err != nil {
		return nil, err
	}

	switch order.Status {
	case models.OrderConfirmed:
		if _, err := s.commissionService.CreateForOrder(order); err != nil {
			if errors.Is(err, repositories.ErrCommissionExists) {
				log.Printf("Commission for order %s already recorded, skipping", order.Reference)
			} else {
				return nil, err
			}
		}
	case models.OrderRefunded:
		// A refund reverses the commission with a negating record; the
		// original row is never touched.
		if _, err := s.commissionService.Reverse(order.Reference); err != nil {
			switch {
			case errors.Is(err, repositories.ErrCommissionExists):
				log.Printf("Commission for order %s already reversed, skipping", order.Reference)
			case errors.Is(err, repositories.ErrCommissionNotFound):
				log.Printf("No commission to reverse for order %s", order.Reference)
			default:
				return nil, err
			}
		}
	}

	return &WebhookResult{Event: event, Order: order}, nil
}
