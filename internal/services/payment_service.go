package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"kasir/internal/gateways"
	"kasir/internal/models"
	"kasir/internal/repositories"
)

var (
	// ErrOrderNotPayable is returned when a charge is requested for an
	// order that is not awaiting payment.
	ErrOrderNotPayable = errors.New("order is not awaiting payment")

	// ErrAmountMismatch is returned when the requested charge amount does
	// not equal the order total.
	ErrAmountMismatch = errors.New("charge amount does not match order total")
)

// RouterAttempt records one failed provider attempt during fallback.
type RouterAttempt struct {
	Gateway gateways.Gateway
	Err     error
}

// RouterError aggregates the failure of every candidate provider.
type RouterError struct {
	Attempts []RouterAttempt
}

func (e *RouterError) Error() string {
	parts := make([]string, 0, len(e.Attempts))
	for _, a := range e.Attempts {
		parts = append(parts, fmt.Sprintf("%s: %v", a.Gateway, a.Err))
	}
	return "all payment providers failed: " + strings.Join(parts, "; ")
}

// methodConstraints pins single-provider payment methods to their gateway.
var methodConstraints = map[string]gateways.Gateway{
	"qris": gateways.GatewayMidtrans,
	"ovo":  gateways.GatewayXendit,
}

// PaymentService routes outbound payment creation across providers with
// sequential fallback. Attempts never run concurrently for the same logical
// payment: parallel charges could double-charge the buyer.
type PaymentService struct {
	registry       gateways.Registry
	orderRepo      repositories.OrderRepository
	txnRepo        repositories.TransactionRepository
	defaultGateway gateways.Gateway
	timeout        time.Duration
}

// NewPaymentService creates a new PaymentService. timeout bounds each
// individual provider attempt.
func NewPaymentService(
	registry gateways.Registry,
	orderRepo repositories.OrderRepository,
	txnRepo repositories.TransactionRepository,
	defaultGateway gateways.Gateway,
	timeout time.Duration,
) *PaymentService {
	return &PaymentService{
		registry:       registry,
		orderRepo:      orderRepo,
		txnRepo:        txnRepo,
		defaultGateway: defaultGateway,
		timeout:        timeout,
	}
}

// ProcessPayment charges the order at the first provider that accepts it.
// Candidates are tried in order (caller preference, then method constraint,
// then the configured default, then the rest); a transient provider failure
// advances to the next candidate, an explicit decline stops immediately, and
// exhausting all candidates returns a RouterError listing every failure.
func (s *PaymentService) ProcessPayment(ctx context.Context, req *gateways.PaymentRequest, preferred gateways.Gateway) (*gateways.PaymentReceipt, error) {
	order, err := s.orderRepo.GetByReference(req.OrderReference)
	if err != nil {
		return nil, err
	}
	if order.Status != models.OrderPending {
		return nil, fmt.Errorf("%w: order %s is %s", ErrOrderNotPayable, order.Reference, order.Status)
	}
	if !req.Amount.Equal(order.Total) {
		return nil, fmt.Errorf("%w: got %s, order total is %s", ErrAmountMismatch, req.Amount, order.Total)
	}

	var attempts []RouterAttempt
	for _, candidate := range s.candidates(preferred, req.Method) {
		adapter, err := s.registry.Lookup(candidate)
		if err != nil {
			continue
		}

		attemptCtx, cancel := context.WithTimeout(ctx, s.timeout)
		receipt, err := adapter.Charge(attemptCtx, req)
		cancel()

		switch {
		case err == nil:
			s.recordAttempt(req, candidate, receipt.ExternalID, receipt.Status)
			return receipt, nil
		case errors.Is(err, gateways.ErrPaymentDeclined):
			// A decline is the buyer's answer, not a provider outage.
			// Trying another provider would re-charge a refused payment.
			s.recordAttempt(req, candidate, "", models.TransactionDeclined)
			return nil, err
		default:
			log.Printf("Provider %s failed for order %s: %v", candidate, req.OrderReference, err)
			attempts = append(attempts, RouterAttempt{Gateway: candidate, Err: err})
		}
	}
	return nil, &RouterError{Attempts: attempts}
}

// candidates builds the ordered, deduplicated provider list for a request.
// Method-constrained payments get exactly their pinned provider.
func (s *PaymentService) candidates(preferred gateways.Gateway, method string) []gateways.Gateway {
	if pinned, ok := methodConstraints[method]; ok {
		return []gateways.Gateway{pinned}
	}

	ordered := make([]gateways.Gateway, 0, len(gateways.All())+2)
	seen := make(map[gateways.Gateway]bool)
	add := func(g gateways.Gateway) {
		if g != "" && !seen[g] {
			seen[g] = true
			ordered = append(ordered, g)
		}
	}
	add(preferred)
	add(s.defaultGateway)
	for _, g := range gateways.All() {
		add(g)
	}
	return ordered
}

// recordAttempt appends a transaction row for an attempt outcome. Ledger
// write failures are logged, not fatal: the receipt already exists upstream
// and the reconciliation webhook will record the authoritative row.
func (s *PaymentService) recordAttempt(req *gateways.PaymentRequest, gateway gateways.Gateway, externalID string, status models.TransactionStatus) {
	if externalID == "" {
		externalID = "declined-" + req.OrderReference
	}
	txn := &models.Transaction{
		Gateway:        string(gateway),
		ExternalID:     externalID,
		Status:         status,
		OrderReference: req.OrderReference,
		Amount:         req.Amount,
		Currency:       req.Currency,
	}
	if err := s.txnRepo.Create(txn); err != nil && !errors.Is(err, repositories.ErrDuplicateTransaction) {
		log.Printf("Warning: failed to record %s attempt for order %s: %v", gateway, req.OrderReference, err)
	}
}
