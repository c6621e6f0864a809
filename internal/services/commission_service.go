package services

import (
	"errors"
	"fmt"
	"log"

	"kasir/internal/models"
	"kasir/internal/repositories"

	"github.com/shopspring/decimal"
)

var (
	// ErrInvalidRate is returned for a commission rate outside [0, 1].
	ErrInvalidRate = errors.New("commission rate must be between 0 and 1")

	// ErrPrecisionViolation is returned when the computed split would not
	// sum back to the order amount exactly. It blocks commission creation
	// and requires manual review.
	ErrPrecisionViolation = errors.New("commission split does not sum to order amount")
)

// CommissionService computes and records the vendor/platform split of
// confirmed orders.
type CommissionService struct {
	commissionRepo repositories.CommissionRepository
	rate           decimal.Decimal
	mq             EventPublisher
}

// NewCommissionService creates a new CommissionService with the configured
// platform commission rate.
func NewCommissionService(commissionRepo repositories.CommissionRepository, rate decimal.Decimal, mq EventPublisher) *CommissionService {
	return &CommissionService{
		commissionRepo: commissionRepo,
		rate:           rate,
		mq:             mq,
	}
}

// Calculate splits orderAmount into (commission, vendor, platform) shares.
// All arithmetic is exact decimal; rounding happens exactly once, half-up to
// the cent, on the commission amount. The vendor share is derived by
// subtraction so that vendor + platform always equals the order amount.
func Calculate(orderAmount, rate decimal.Decimal) (commission, vendor, platform decimal.Decimal, err error) {
	zero := decimal.Zero
	if rate.LessThan(zero) || rate.GreaterThan(decimal.NewFromInt(1)) {
		return zero, zero, zero, fmt.Errorf("%w: got %s", ErrInvalidRate, rate)
	}
	if orderAmount.LessThan(zero) {
		return zero, zero, zero, fmt.Errorf("order amount must not be negative: got %s", orderAmount)
	}

	// Round rounds half away from zero, which for non-negative amounts is
	// round-half-up.
	commission = orderAmount.Mul(rate).Round(2)
	platform = commission
	vendor = orderAmount.Sub(commission)

	if !vendor.Add(platform).Equal(orderAmount) {
		return zero, zero, zero, fmt.Errorf("%w: %s + %s != %s",
			ErrPrecisionViolation, vendor, platform, orderAmount)
	}
	return commission, vendor, platform, nil
}

// CreateForOrder records the commission for a confirmed order, exactly once.
// A second call for the same order returns repositories.ErrCommissionExists.
func (s *CommissionService) CreateForOrder(order *models.Order) (*models.Commission, error) {
	if order.Status != models.OrderConfirmed {
		return nil, fmt.Errorf("commission requires a confirmed order, %s is %s", order.Reference, order.Status)
	}

	commissionAmount, vendorAmount, platformAmount, err := Calculate(order.Total, s.rate)
	if err != nil {
		return nil, err
	}

	commission := &models.Commission{
		OrderReference:   order.Reference,
		OrderAmount:      order.Total,
		CommissionRate:   s.rate,
		CommissionAmount: commissionAmount,
		VendorAmount:     vendorAmount,
		PlatformAmount:   platformAmount,
	}
	if err := s.commissionRepo.Create(commission); err != nil {
		return nil, err
	}

	if s.mq != nil {
		if err := s.mq.PublishCommissionCreated(commission); err != nil {
			log.Printf("Warning: failed to publish commission created event for order %s: %v", order.Reference, err)
		}
	}
	return commission, nil
}

// Reverse appends a reversal record negating the active commission of an
// order. The original record is never mutated.
func (s *CommissionService) Reverse(orderReference string) (*models.Commission, error) {
	active, err := s.commissionRepo.GetByOrder(orderReference)
	if err != nil {
		return nil, err
	}

	reversal := &models.Commission{
		OrderReference:   orderReference,
		Reversal:         true,
		OrderAmount:      active.OrderAmount.Neg(),
		CommissionRate:   active.CommissionRate,
		CommissionAmount: active.CommissionAmount.Neg(),
		VendorAmount:     active.VendorAmount.Neg(),
		PlatformAmount:   active.PlatformAmount.Neg(),
	}
	if err := s.commissionRepo.Create(reversal); err != nil {
		return nil, err
	}
	return reversal, nil
}
