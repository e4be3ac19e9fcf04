package services

import (
	"github.com/shopspring/decimal"

	"github.com/baharkarakas/insider-ledger/internal/models"
)

// TopUpResult is either TopUpSuccess or TopUpFailure.
type TopUpResult interface{ topUpResult() }

type TopUpSuccess struct {
	NewBalance decimal.Decimal
	Currency   models.Currency
}

type TopUpFailure struct {
	Reason string
}

func (TopUpSuccess) topUpResult() {}
func (TopUpFailure) topUpResult() {}

// TransferResult is TransferDuplicate, TransferFailure or TransferProcessed.
type TransferResult interface{ transferResult() }

type TransferDuplicate struct {
	IdempotencyID string
}

func (d TransferDuplicate) Message() string {
	return "Idempotency-id " + d.IdempotencyID + " has already been processed"
}

type TransferFailure struct {
	Reason string
}

// TransferProcessed carries one result per selected invoice, in invoice id
// order.
type TransferProcessed struct {
	Results []InvoiceResult
}

func (TransferDuplicate) transferResult() {}
func (TransferFailure) transferResult()   {}
func (TransferProcessed) transferResult() {}

// InvoiceOutcome is the part every invoice result shares. Invoice is the
// invoice as it was selected, before this transfer touched it.
type InvoiceOutcome struct {
	Invoice   models.Invoice
	NewStatus models.InvoiceStatus
	Message   string
}

func (o InvoiceOutcome) Outcome() InvoiceOutcome { return o }

// InvoiceResult is InvoicePaid, InvoiceDeclined, InvoiceSkipped or
// InvoiceFailed.
type InvoiceResult interface {
	Outcome() InvoiceOutcome
	invoiceResult()
}

type InvoicePaid struct{ InvoiceOutcome }

type InvoiceDeclined struct{ InvoiceOutcome }

// InvoiceSkipped leaves the invoice UNPAID so it can be retried later.
type InvoiceSkipped struct{ InvoiceOutcome }

// InvoiceFailed reports a store fault or a lost race after the gateway call.
// NewStatus is whatever the store holds for the invoice afterwards.
type InvoiceFailed struct{ InvoiceOutcome }

func (InvoicePaid) invoiceResult()     {}
func (InvoiceDeclined) invoiceResult() {}
func (InvoiceSkipped) invoiceResult()  {}
func (InvoiceFailed) invoiceResult()   {}

func paid(inv models.Invoice) InvoicePaid {
	return InvoicePaid{InvoiceOutcome{Invoice: inv, NewStatus: models.InvoicePaid, Message: "Payment succeeded"}}
}

func declined(inv models.Invoice, reason string) InvoiceDeclined {
	return InvoiceDeclined{InvoiceOutcome{Invoice: inv, NewStatus: models.InvoiceDeclined, Message: "Payment declined: " + reason}}
}

func skipped(inv models.Invoice, reason string) InvoiceSkipped {
	return InvoiceSkipped{InvoiceOutcome{Invoice: inv, NewStatus: inv.Status, Message: "Payment skipped: " + reason}}
}

func failed(inv models.Invoice, status models.InvoiceStatus, reason string) InvoiceFailed {
	return InvoiceFailed{InvoiceOutcome{Invoice: inv, NewStatus: status, Message: "Payment failed: " + reason}}
}

// OutcomeName is the lower-case label of an invoice result.
func OutcomeName(r InvoiceResult) string {
	switch r.(type) {
	case InvoicePaid:
		return "paid"
	case InvoiceDeclined:
		return "declined"
	case InvoiceSkipped:
		return "skipped"
	default:
		return "failed"
	}
}
