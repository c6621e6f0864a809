package services_test

import (
	"testing"

	"kasir/internal/models"
	"kasir/internal/repositories"
	"kasir/internal/services"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestCalculateScenario(t *testing.T) {
	// Order total 184.89 at a 5% rate: 9.2445 rounds half-up to 9.24.
	commission, vendor, platform, err := services.Calculate(
		decimal.RequireFromString("184.89"),
		decimal.RequireFromString("0.05"),
	)
	assert.NoError(t, err)
	assert.Equal(t, "9.24", commission.StringFixed(2))
	assert.Equal(t, "175.65", vendor.StringFixed(2))
	assert.Equal(t, "9.24", platform.StringFixed(2))
}

func TestCalculateRoundsHalfUp(t *testing.T) {
	// 10.10 * 0.05 = 0.505, exactly on the half boundary.
	commission, _, _, err := services.Calculate(
		decimal.RequireFromString("10.10"),
		decimal.RequireFromString("0.05"),
	)
	assert.NoError(t, err)
	assert.Equal(t, "0.51", commission.StringFixed(2))
}

func TestCalculateSumInvariant(t *testing.T) {
	amounts := []string{"0.01", "1.00", "184.89", "999999.99", "33.33", "0.00"}
	rates := []string{"0", "0.01", "0.05", "0.125", "0.333", "0.5", "0.999", "1"}

	for _, a := range amounts {
		for _, r := range rates {
			amount := decimal.RequireFromString(a)
			rate := decimal.RequireFromString(r)
			_, vendor, platform, err := services.Calculate(amount, rate)
			assert.NoError(t, err, "amount=%s rate=%s", a, r)
			assert.True(t, vendor.Add(platform).Equal(amount),
				"amount=%s rate=%s: %s + %s != %s", a, r, vendor, platform, amount)
		}
	}
}

func TestCalculateRejectsBadInput(t *testing.T) {
	amount := decimal.RequireFromString("100.00")

	_, _, _, err := services.Calculate(amount, decimal.RequireFromString("-0.01"))
	assert.ErrorIs(t, err, services.ErrInvalidRate)

	_, _, _, err = services.Calculate(amount, decimal.RequireFromString("1.01"))
	assert.ErrorIs(t, err, services.ErrInvalidRate)

	_, _, _, err = services.Calculate(decimal.RequireFromString("-1.00"), decimal.RequireFromString("0.05"))
	assert.Error(t, err)
}

func TestCreateForOrderExactlyOnce(t *testing.T) {
	repo := repositories.NewMockCommissionRepository()
	service := services.NewCommissionService(repo, decimal.RequireFromString("0.05"), nil)

	order := &models.Order{
		Reference: "ORD-TEST1",
		Status:    models.OrderConfirmed,
		Total:     decimal.RequireFromString("184.89"),
	}

	commission, err := service.CreateForOrder(order)
	assert.NoError(t, err)
	assert.Equal(t, "9.24", commission.CommissionAmount.StringFixed(2))
	assert.Equal(t, "175.65", commission.VendorAmount.StringFixed(2))

	_, err = service.CreateForOrder(order)
	assert.ErrorIs(t, err, repositories.ErrCommissionExists)

	stored, err := repo.GetByOrder("ORD-TEST1")
	assert.NoError(t, err)
	assert.True(t, stored.VendorAmount.Add(stored.PlatformAmount).Equal(order.Total))
}

func TestCreateForOrderRequiresConfirmed(t *testing.T) {
	repo := repositories.NewMockCommissionRepository()
	service := services.NewCommissionService(repo, decimal.RequireFromString("0.05"), nil)

	order := &models.Order{
		Reference: "ORD-TEST2",
		Status:    models.OrderPending,
		Total:     decimal.RequireFromString("50.00"),
	}
	_, err := service.CreateForOrder(order)
	assert.Error(t, err)

	_, err = repo.GetByOrder("ORD-TEST2")
	assert.ErrorIs(t, err, repositories.ErrCommissionNotFound)
}

func TestReverseNegatesActiveCommission(t *testing.T) {
	repo := repositories.NewMockCommissionRepository()
	service := services.NewCommissionService(repo, decimal.RequireFromString("0.10"), nil)

	order := &models.Order{
		Reference: "ORD-TEST3",
		Status:    models.OrderConfirmed,
		Total:     decimal.RequireFromString("200.00"),
	}
	_, err := service.CreateForOrder(order)
	assert.NoError(t, err)

	reversal, err := service.Reverse("ORD-TEST3")
	assert.NoError(t, err)
	assert.True(t, reversal.Reversal)
	assert.Equal(t, "-20.00", reversal.CommissionAmount.StringFixed(2))
	assert.Equal(t, "-180.00", reversal.VendorAmount.StringFixed(2))

	// A second reversal for the same order is rejected.
	_, err = service.Reverse("ORD-TEST3")
	assert.ErrorIs(t, err, repositories.ErrCommissionExists)
}
