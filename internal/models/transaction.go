package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionStatus is the canonical status vocabulary every gateway's
// provider-specific statuses are mapped onto.
type TransactionStatus string

const (
	TransactionApproved TransactionStatus = "approved"
	TransactionDeclined TransactionStatus = "declined"
	TransactionPending  TransactionStatus = "pending"
	TransactionVoided   TransactionStatus = "voided"
)

// IsValid reports whether s is a known transaction status.
func (s TransactionStatus) IsValid() bool {
	switch s {
	case TransactionApproved, TransactionDeclined, TransactionPending, TransactionVoided:
		return true
	}
	return false
}

// Transaction records a single gateway attempt or confirmation for an order.
// Rows are append-only: a status change for the same external transaction is
// a new row, never an update. The composite unique index allows the same
// external id to progress through statuses while deduplicating identical rows.
type Transaction struct {
	ID             uint              `json:"id" gorm:"primaryKey"`
	Gateway        string            `json:"gateway" gorm:"type:varchar(20);not null;index:ux_transactions_gateway_ext_status,unique,priority:1"`
	ExternalID     string            `json:"external_id" gorm:"type:varchar(191);not null;index:ux_transactions_gateway_ext_status,unique,priority:2"`
	Status         TransactionStatus `json:"status" gorm:"type:varchar(16);not null;index:ux_transactions_gateway_ext_status,unique,priority:3"`
	OrderReference string            `json:"order_reference" gorm:"index;type:varchar(32);not null"`
	Amount         decimal.Decimal   `json:"amount" gorm:"type:numeric(12,2)"`
	Currency       string            `json:"currency" gorm:"type:varchar(3);not null"`
	CreatedAt      time.Time         `json:"created_at"`
}
