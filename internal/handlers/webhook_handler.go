package handlers

import (
	"errors"
	"log"
	"strings"

	"kasir/internal/gateways"
	"kasir/internal/repositories"
	"kasir/internal/services"

	"github.com/gofiber/fiber/v2"
)

// WebhookHandler handles inbound payment gateway notifications.
type WebhookHandler struct {
	service *services.WebhookService
}

// NewWebhookHandler creates a new WebhookHandler.
func NewWebhookHandler(service *services.WebhookService) *WebhookHandler {
	return &WebhookHandler{
		service: service,
	}
}

// RegisterRoutes registers the webhook routes with the Fiber app. These
// routes are public: gateways authenticate with signatures, not JWTs.
func (h *WebhookHandler) RegisterRoutes(router fiber.Router) {
	webhookRoutes := router.Group("/webhooks")
	webhookRoutes.Post("/:gateway", h.HandleNotification)
}

// HandleNotification processes one gateway notification. Both a first-time
// event and a replayed duplicate answer 200 so the provider stops retrying;
// non-2xx is reserved for verification failures, malformed payloads and
// events the engine must surface to an operator.
func (h *WebhookHandler) HandleNotification(c *fiber.Ctx) error {
	gatewayName := c.Params("gateway")

	headers := make(map[string]string)
	for key, values := range c.GetReqHeaders() {
		if len(values) > 0 {
			headers[strings.ToLower(key)] = values[0]
		}
	}

	result, err := h.service.Process(gatewayName, c.Body(), headers)
	if err != nil {
		log.Printf("Error processing %s webhook: %v", gatewayName, err)

		var transitionErr *services.TransitionError
		switch {
		case errors.Is(err, gateways.ErrUnknownGateway), errors.Is(err, gateways.ErrMalformedPayload):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"message": "Invalid notification",
				"error":   err.Error(),
			})
		case errors.Is(err, gateways.ErrBadSignature):
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Signature verification failed",
			})
		case errors.Is(err, repositories.ErrOrderNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"message": "Order not found for notification",
				"error":   err.Error(),
			})
		case errors.As(err, &transitionErr):
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"message": "Notification requests an illegal order transition",
				"error":   err.Error(),
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not process notification",
			"error":   err.Error(),
		})
	}

	status := "processed"
	if result.Duplicate {
		status = "duplicate"
	}
	return c.JSON(fiber.Map{
		"status":   status,
		"event_id": result.Event.ExternalEventID,
	})
}
