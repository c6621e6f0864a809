package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Commission is the financial split of a confirmed order between the vendor
// and the platform. Invariant: vendor_amount + platform_amount equals
// order_amount to the cent. At most one non-reversal record exists per order
// (unique index); corrections append a reversal plus a new record, the
// original row is never recomputed in place.
type Commission struct {
	ID               uint            `json:"id" gorm:"primaryKey"`
	OrderReference   string          `json:"order_reference" gorm:"type:varchar(32);not null;uniqueIndex:ux_commissions_order_reversal"`
	Reversal         bool            `json:"reversal" gorm:"not null;default:false;uniqueIndex:ux_commissions_order_reversal"`
	OrderAmount      decimal.Decimal `json:"order_amount" gorm:"type:numeric(12,2)"`
	CommissionRate   decimal.Decimal `json:"commission_rate" gorm:"type:numeric(6,4)"`
	CommissionAmount decimal.Decimal `json:"commission_amount" gorm:"type:numeric(12,2)"`
	VendorAmount     decimal.Decimal `json:"vendor_amount" gorm:"type:numeric(12,2)"`
	PlatformAmount   decimal.Decimal `json:"platform_amount" gorm:"type:numeric(12,2)"`
	CreatedAt        time.Time       `json:"created_at"`
}
