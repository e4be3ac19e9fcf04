package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type AccountType string

const (
	AccountCurrent AccountType = "CURRENT"
	AccountSavings AccountType = "SAVINGS"
)

type AccountState string

const (
	AccountActive  AccountState = "ACTIVE"
	AccountBlocked AccountState = "BLOCKED"
	AccountClosed  AccountState = "CLOSED"
)

// Account is a money-bearing ledger row. Balance is kept in minor units;
// Locked is the advisory flag flipped by the account lock protocol.
type Account struct {
	ID          int64        `json:"id"`
	UserID      int64        `json:"user_id"`
	Type        AccountType  `json:"type"`
	Balance     int64        `json:"balance"`
	Currency    Currency     `json:"currency"`
	State       AccountState `json:"state"`
	Locked      bool         `json:"locked"`
	CreatedAt   time.Time    `json:"created_at"`
	LastUpdated *time.Time   `json:"last_updated,omitempty"`
}

func (a Account) BalanceDecimal() decimal.Decimal { return FromMinorUnits(a.Balance) }
