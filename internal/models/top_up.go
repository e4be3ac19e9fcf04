package models

import "time"

// TopUp is the append-only audit fact written for every applied top-up.
type TopUp struct {
	ID             int64     `json:"id"`
	AccountID      int64     `json:"account_id"`
	Amount         int64     `json:"amount"`
	BalanceAtTopUp int64     `json:"balance_at_top_up"`
	IdempotencyID  string    `json:"idempotency_id"`
	CreatedAt      time.Time `json:"created_at"`
}
