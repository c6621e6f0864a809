package repositories

import "errors"

var (
	// ErrOrderNotFound is returned when no order matches the given reference.
	ErrOrderNotFound = errors.New("order not found")

	// ErrDuplicateEvent is returned by WebhookEventRepository.Register when
	// the (gateway, external_event_id) pair has already been recorded. It is
	// not a failure: the caller treats it as idempotent success.
	ErrDuplicateEvent = errors.New("webhook event already processed")

	// ErrDuplicateTransaction is returned when an identical gateway
	// transaction row (same gateway, external id and status) already exists.
	ErrDuplicateTransaction = errors.New("transaction already recorded")

	// ErrCommissionExists is returned when a commission record has already
	// been created for the order.
	ErrCommissionExists = errors.New("commission already exists for order")

	// ErrCommissionNotFound is returned when no commission exists for the
	// given order reference.
	ErrCommissionNotFound = errors.New("commission not found")
)
