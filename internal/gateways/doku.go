package gateways

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"

	"kasir/internal/models"

	"github.com/shopspring/decimal"
)

// DokuConfig holds the credentials and endpoint for the Doku adapter.
type DokuConfig struct {
	SecretKey string
	BaseURL   string
	Client    *http.Client
}

// DokuAdapter verifies and normalizes Doku notifications and creates charges
// through the Doku API.
type DokuAdapter struct {
	secretKey string
	baseURL   string
	client    *http.Client
}

// NewDokuAdapter creates a new DokuAdapter.
func NewDokuAdapter(cfg DokuConfig) *DokuAdapter {
	client := cfg.Client
	if client == nil {
		client = http.DefaultClient
	}
	return &DokuAdapter{
		secretKey: cfg.SecretKey,
		baseURL:   cfg.BaseURL,
		client:    client,
	}
}

// Gateway returns GatewayDoku.
func (a *DokuAdapter) Gateway() Gateway {
	return GatewayDoku
}

type dokuNotification struct {
	EventID       string          `json:"event_id"`
	TransactionID string          `json:"transaction_id"`
	InvoiceNumber string          `json:"invoice_number"`
	Status        string          `json:"status"`
	Amount        decimal.Decimal `json:"amount"`
	Currency      string          `json:"currency"`
}

// Normalize authenticates the notification with an HMAC-SHA256 digest of the
// raw body carried in the signature header. Doku sends a stable event id.
func (a *DokuAdapter) Normalize(payload []byte, headers map[string]string) (*PaymentEvent, error) {
	mac := hmac.New(sha256.New, []byte(a.secretKey))
	mac.Write(payload)
	expected := hex.EncodeToString(mac.Sum(nil))
	if !hmac.Equal([]byte(expected), []byte(headers["signature"])) {
		return nil, ErrBadSignature
	}

	var note dokuNotification
	if err := json.Unmarshal(payload, &note); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	if note.EventID == "" || note.TransactionID == "" || note.InvoiceNumber == "" {
		return nil, fmt.Errorf("%w: missing event_id, transaction_id or invoice_number", ErrMalformedPayload)
	}

	status, err := mapDokuStatus(note.Status)
	if err != nil {
		return nil, err
	}

	currency := note.Currency
	if currency == "" {
		currency = "IDR"
	}

	return &PaymentEvent{
		Gateway:         GatewayDoku,
		ExternalEventID: note.EventID,
		ExternalID:      note.TransactionID,
		OrderReference:  note.InvoiceNumber,
		Status:          status,
		RawStatus:       note.Status,
		Amount:          note.Amount,
		Currency:        currency,
	}, nil
}

func mapDokuStatus(s string) (models.TransactionStatus, error) {
	switch s {
	case "SUCCESS":
		return models.TransactionApproved, nil
	case "FAILED":
		return models.TransactionDeclined, nil
	case "PENDING":
		return models.TransactionPending, nil
	case "VOID", "EXPIRED":
		return models.TransactionVoided, nil
	}
	return "", fmt.Errorf("%w: unknown status %q", ErrMalformedPayload, s)
}

type dokuChargeRequest struct {
	InvoiceNumber string `json:"invoice_number"`
	Amount        string `json:"amount"`
	Currency      string `json:"currency"`
	PaymentMethod string `json:"payment_method"`
	CustomerName  string `json:"customer_name"`
	CustomerEmail string `json:"customer_email"`
}

type dokuChargeResponse struct {
	TransactionID string `json:"transaction_id"`
	Status        string `json:"status"`
	Message       string `json:"message"`
}

// Charge creates a payment via POST /payments.
func (a *DokuAdapter) Charge(ctx context.Context, req *PaymentRequest) (*PaymentReceipt, error) {
	payload, err := json.Marshal(dokuChargeRequest{
		InvoiceNumber: req.OrderReference,
		Amount:        req.Amount.StringFixed(2),
		Currency:      req.Currency,
		PaymentMethod: req.Method,
		CustomerName:  req.PayerName,
		CustomerEmail: req.PayerEmail,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal charge request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/payments", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to build charge request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	mac := hmac.New(sha256.New, []byte(a.secretKey))
	mac.Write(payload)
	httpReq.Header.Set("Signature", hex.EncodeToString(mac.Sum(nil)))

	resp, err := a.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: doku: %v", ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return nil, fmt.Errorf("%w: doku returned %d", ErrProviderUnavailable, resp.StatusCode)
	}

	var out dokuChargeResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: doku: %v", ErrProviderUnavailable, err)
	}

	status, err := mapDokuStatus(out.Status)
	if err != nil {
		return nil, fmt.Errorf("%w: doku: %s", ErrProviderUnavailable, out.Status)
	}
	if status == models.TransactionDeclined {
		return nil, fmt.Errorf("%w: doku: %s", ErrPaymentDeclined, out.Message)
	}

	return &PaymentReceipt{
		Gateway:    GatewayDoku,
		ExternalID: out.TransactionID,
		Status:     status,
	}, nil
}
