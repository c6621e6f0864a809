package gateways

import (
	"bytes"
	"context"
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"net/http"

	"kasir/internal/models"

	"github.com/shopspring/decimal"
)

// XenditConfig holds the credentials and endpoint for the Xendit adapter.
type XenditConfig struct {
	CallbackToken string
	APIKey        string
	BaseURL       string
	Client        *http.Client
}

// XenditAdapter verifies and normalizes Xendit invoice callbacks and creates
// charges through the Xendit API.
type XenditAdapter struct {
	callbackToken string
	apiKey        string
	baseURL       string
	client        *http.Client
}

// NewXenditAdapter creates a new XenditAdapter.
func NewXenditAdapter(cfg XenditConfig) *XenditAdapter {
	client := cfg.Client
	if client == nil {
		client = http.DefaultClient
	}
	return &XenditAdapter{
		callbackToken: cfg.CallbackToken,
		apiKey:        cfg.APIKey,
		baseURL:       cfg.BaseURL,
		client:        client,
	}
}

// Gateway returns GatewayXendit.
func (a *XenditAdapter) Gateway() Gateway {
	return GatewayXendit
}

type xenditCallback struct {
	ID         string          `json:"id"`
	ExternalID string          `json:"external_id"`
	PaymentID  string          `json:"payment_id"`
	Status     string          `json:"status"`
	Amount     decimal.Decimal `json:"amount"`
	Currency   string          `json:"currency"`
}

// Normalize authenticates via the x-callback-token header and maps the
// Xendit status vocabulary. Xendit sends a stable callback id, used directly
// as the dedup key.
func (a *XenditAdapter) Normalize(payload []byte, headers map[string]string) (*PaymentEvent, error) {
	token := headers["x-callback-token"]
	if subtle.ConstantTimeCompare([]byte(token), []byte(a.callbackToken)) != 1 {
		return nil, ErrBadSignature
	}

	var cb xenditCallback
	if err := json.Unmarshal(payload, &cb); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	if cb.ID == "" || cb.ExternalID == "" {
		return nil, fmt.Errorf("%w: missing id or external_id", ErrMalformedPayload)
	}

	status, err := mapXenditStatus(cb.Status)
	if err != nil {
		return nil, err
	}

	externalID := cb.PaymentID
	if externalID == "" {
		externalID = cb.ID
	}

	currency := cb.Currency
	if currency == "" {
		currency = "IDR"
	}

	return &PaymentEvent{
		Gateway:         GatewayXendit,
		ExternalEventID: cb.ID,
		ExternalID:      externalID,
		OrderReference:  cb.ExternalID,
		Status:          status,
		RawStatus:       cb.Status,
		Amount:          cb.Amount,
		Currency:        currency,
	}, nil
}

func mapXenditStatus(s string) (models.TransactionStatus, error) {
	switch s {
	case "PAID", "SETTLED":
		return models.TransactionApproved, nil
	case "FAILED":
		return models.TransactionDeclined, nil
	case "PENDING":
		return models.TransactionPending, nil
	case "EXPIRED", "VOIDED":
		return models.TransactionVoided, nil
	}
	return "", fmt.Errorf("%w: unknown status %q", ErrMalformedPayload, s)
}

type xenditChargeRequest struct {
	ExternalID    string `json:"external_id"`
	Amount        string `json:"amount"`
	Currency      string `json:"currency"`
	PaymentMethod string `json:"payment_method"`
	PayerEmail    string `json:"payer_email"`
}

type xenditChargeResponse struct {
	ID      string `json:"id"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

// Charge creates an invoice via POST /v2/invoices.
func (a *XenditAdapter) Charge(ctx context.Context, req *PaymentRequest) (*PaymentReceipt, error) {
	payload, err := json.Marshal(xenditChargeRequest{
		ExternalID:    req.OrderReference,
		Amount:        req.Amount.StringFixed(2),
		Currency:      req.Currency,
		PaymentMethod: req.Method,
		PayerEmail:    req.PayerEmail,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal charge request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/v2/invoices", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to build charge request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.SetBasicAuth(a.apiKey, "")

	resp, err := a.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: xendit: %v", ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return nil, fmt.Errorf("%w: xendit returned %d", ErrProviderUnavailable, resp.StatusCode)
	}

	var out xenditChargeResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: xendit: %v", ErrProviderUnavailable, err)
	}

	status, err := mapXenditStatus(out.Status)
	if err != nil {
		return nil, fmt.Errorf("%w: xendit: %s", ErrProviderUnavailable, out.Status)
	}
	if status == models.TransactionDeclined {
		return nil, fmt.Errorf("%w: xendit: %s", ErrPaymentDeclined, out.Message)
	}

	return &PaymentReceipt{
		Gateway:    GatewayXendit,
		ExternalID: out.ID,
		Status:     status,
	}, nil
}
