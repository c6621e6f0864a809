package handlers

import (
	"errors"
	"fmt"
	"log"

	"kasir/internal/gateways"
	"kasir/internal/repositories"
	"kasir/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

// PaymentHandler handles outbound payment creation requests.
type PaymentHandler struct {
	service  *services.PaymentService
	validate *validator.Validate
}

// NewPaymentHandler creates a new PaymentHandler.
func NewPaymentHandler(service *services.PaymentService) *PaymentHandler {
	return &PaymentHandler{
		service:  service,
		validate: validator.New(),
	}
}

// RegisterRoutes registers the payment routes with the Fiber app.
func (h *PaymentHandler) RegisterRoutes(router fiber.Router) {
	paymentRoutes := router.Group("/payments")
	paymentRoutes.Post("/", h.HandleProcessPayment)
}

type processPaymentRequest struct {
	OrderReference   string          `json:"order_reference" validate:"required"`
	Amount           decimal.Decimal `json:"amount"`
	Currency         string          `json:"currency" validate:"required,len=3"`
	Method           string          `json:"method" validate:"required"`
	PayerName        string          `json:"payer_name" validate:"required"`
	PayerEmail       string          `json:"payer_email" validate:"required,email"`
	PreferredGateway string          `json:"preferred_gateway"`
}

// HandleProcessPayment charges an order through the gateway router. The
// response distinguishes a declined payment (402) from exhausted providers
// (502) so the buyer knows whether to fix their payment or simply retry.
func (h *PaymentHandler) HandleProcessPayment(c *fiber.Ctx) error {
	var req processPaymentRequest
	if err := c.BodyParser(&req); err != nil {
		log.Printf("Error parsing payment request body: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}

	if err := h.validate.Struct(req); err != nil {
		validationErrors := err.(validator.ValidationErrors)
		errorMessages := make(map[string]string)
		for _, e := range validationErrors {
			errorMessages[e.Field()] = fmt.Sprintf("Field '%s' failed on the '%s' tag", e.Field(), e.Tag())
		}
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Validation failed",
			"errors":  errorMessages,
		})
	}

	var preferred gateways.Gateway
	if req.PreferredGateway != "" {
		var err error
		preferred, err = gateways.ParseGateway(req.PreferredGateway)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"message": "Unknown preferred gateway",
				"error":   err.Error(),
			})
		}
	}

	receipt, err := h.service.ProcessPayment(c.Context(), &gateways.PaymentRequest{
		OrderReference: req.OrderReference,
		Amount:         req.Amount,
		Currency:       req.Currency,
		Method:         req.Method,
		PayerName:      req.PayerName,
		PayerEmail:     req.PayerEmail,
	}, preferred)
	if err != nil {
		log.Printf("Error processing payment for order %s: %v", req.OrderReference, err)

		var routerErr *services.RouterError
		switch {
		case errors.Is(err, repositories.ErrOrderNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"message": fmt.Sprintf("Order %s not found", req.OrderReference),
			})
		case errors.Is(err, services.ErrOrderNotPayable), errors.Is(err, services.ErrAmountMismatch):
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"message": "Order cannot be charged",
				"error":   err.Error(),
			})
		case errors.Is(err, gateways.ErrPaymentDeclined):
			return c.Status(fiber.StatusPaymentRequired).JSON(fiber.Map{
				"message": "Your payment was declined",
				"error":   err.Error(),
			})
		case errors.As(err, &routerErr):
			return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
				"message": "We could not reach the payment processor, please retry",
				"error":   err.Error(),
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not process payment",
			"error":   err.Error(),
		})
	}
	return c.Status(fiber.StatusCreated).JSON(receipt)
}
