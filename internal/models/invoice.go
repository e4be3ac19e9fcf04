package models

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type InvoiceStatus string

const (
	InvoiceUnpaid           InvoiceStatus = "UNPAID"
	InvoiceLockedForPayment InvoiceStatus = "LOCKED_FOR_PAYMENT"
	InvoicePaid             InvoiceStatus = "PAID"
	InvoiceDeclined         InvoiceStatus = "DECLINED"
)

var ErrUnknownInvoiceStatus = errors.New("unknown invoice status")

func ParseInvoiceStatus(s string) (InvoiceStatus, error) {
	switch st := InvoiceStatus(strings.ToUpper(strings.TrimSpace(s))); st {
	case InvoiceUnpaid, InvoiceLockedForPayment, InvoicePaid, InvoiceDeclined:
		return st, nil
	}
	return "", ErrUnknownInvoiceStatus
}

const (
	DefaultVendorName     = "Acme Services Ltd"
	DefaultInvoiceDetails = "For services rendered"
)

// Invoice is immutable once TransferIdempotencyID is set.
type Invoice struct {
	ID                    int64         `json:"id"`
	UserID                int64         `json:"user_id"`
	TargetPaymentDetails  string        `json:"target_payment_details"`
	Amount                int64         `json:"amount"`
	Currency              Currency      `json:"currency"`
	Status                InvoiceStatus `json:"status"`
	VendorName            string        `json:"vendor_name"`
	Details               string        `json:"details"`
	TransferIdempotencyID *string       `json:"transfer_idempotency_id,omitempty"`
	PaidByAccountID       *int64        `json:"paid_by_account_id,omitempty"`
	CreatedAt             time.Time     `json:"created_at"`
	LastUpdated           *time.Time    `json:"last_updated,omitempty"`
}

func (i Invoice) AmountDecimal() decimal.Decimal { return FromMinorUnits(i.Amount) }

// Finalized reports whether the invoice has left UNPAID under an idempotency id.
func (i Invoice) Finalized() bool { return i.TransferIdempotencyID != nil }
