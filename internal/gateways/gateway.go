// Package gateways contains the per-provider adapters that translate between
// the engine's canonical payment types and each external gateway's wire
// format, plus the registry used to dispatch on a typed Gateway value.
package gateways

import (
	"context"
	"errors"
	"fmt"

	"kasir/internal/models"

	"github.com/shopspring/decimal"
)

// Gateway identifies an external payment provider.
type Gateway string

const (
	GatewayMidtrans Gateway = "midtrans"
	GatewayXendit   Gateway = "xendit"
	GatewayDoku     Gateway = "doku"
)

// All lists every supported gateway in default fallback order.
func All() []Gateway {
	return []Gateway{GatewayMidtrans, GatewayXendit, GatewayDoku}
}

// ParseGateway converts a route/config string into a Gateway.
func ParseGateway(s string) (Gateway, error) {
	switch Gateway(s) {
	case GatewayMidtrans, GatewayXendit, GatewayDoku:
		return Gateway(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownGateway, s)
}

var (
	// ErrUnknownGateway is returned for a provider name outside the enum.
	ErrUnknownGateway = errors.New("unknown gateway")

	// ErrBadSignature is returned when a notification fails authenticity
	// verification. The event must not reach the idempotency guard.
	ErrBadSignature = errors.New("signature verification failed")

	// ErrMalformedPayload is returned when a notification cannot be decoded
	// or carries values outside the provider's documented vocabulary.
	ErrMalformedPayload = errors.New("malformed payload")

	// ErrProviderUnavailable marks a transient provider failure (timeout,
	// 5xx, connection refused). The outbound router falls over on it.
	ErrProviderUnavailable = errors.New("provider unavailable")

	// ErrPaymentDeclined marks an explicit refusal by the provider. It is
	// final for the attempt and never triggers fallback.
	ErrPaymentDeclined = errors.New("payment declined")
)

// PaymentEvent is a gateway notification normalized onto the canonical
// status vocabulary. ExternalEventID is stable per notification: retries of
// the same notification produce the same id, a new status for the same
// transaction produces a different one.
type PaymentEvent struct {
	Gateway         Gateway
	ExternalEventID string
	ExternalID      string // transaction id at the provider
	OrderReference  string
	Status          models.TransactionStatus
	RawStatus       string // provider's own status word, kept for the ledger
	Amount          decimal.Decimal
	Currency        string
}

// PaymentRequest describes an outbound charge to be created at a provider.
type PaymentRequest struct {
	OrderReference string          `json:"order_reference" validate:"required"`
	Amount         decimal.Decimal `json:"amount"`
	Currency       string          `json:"currency" validate:"required,len=3"`
	Method         string          `json:"method" validate:"required"`
	PayerName      string          `json:"payer_name" validate:"required"`
	PayerEmail     string          `json:"payer_email" validate:"required,email"`
}

// PaymentReceipt is the result of a successful charge creation.
type PaymentReceipt struct {
	Gateway    Gateway                  `json:"gateway"`
	ExternalID string                   `json:"external_id"`
	Status     models.TransactionStatus `json:"status"`
}

// Adapter translates one provider's wire formats. Adapters hold no business
// logic: verification, vocabulary mapping and id extraction only.
type Adapter interface {
	Gateway() Gateway
	// Normalize verifies the notification's authenticity and maps it onto a
	// PaymentEvent. It returns ErrBadSignature or ErrMalformedPayload
	// without side effects.
	Normalize(payload []byte, headers map[string]string) (*PaymentEvent, error)
	// Charge creates a payment at the provider. The context bounds the
	// attempt; deadline expiry surfaces as ErrProviderUnavailable.
	Charge(ctx context.Context, req *PaymentRequest) (*PaymentReceipt, error)
}

// Registry maps each gateway to its adapter.
type Registry map[Gateway]Adapter

// Lookup returns the adapter for g.
func (r Registry) Lookup(g Gateway) (Adapter, error) {
	adapter, ok := r[g]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownGateway, g)
	}
	return adapter, nil
}
