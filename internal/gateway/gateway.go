// Package gateway talks to the external payment provider that moves money
// out of the ledger to an invoice payee.
package gateway

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"github.com/baharkarakas/insider-ledger/internal/models"
)

var (
	// ErrTimeout is retryable: the provider did not answer in time.
	ErrTimeout = errors.New("gateway timeout")
	// ErrDeclined is terminal: the provider refused the payment.
	ErrDeclined = errors.New("payment declined")
)

// StatusOK is the literal a successful transfer returns.
const StatusOK = "OK"

type Gateway interface {
	CalculateFee(ctx context.Context, payee string, amount decimal.Decimal, currency models.Currency) (decimal.Decimal, error)
	Transfer(ctx context.Context, payee string, amount decimal.Decimal, currency models.Currency) (string, error)
}
