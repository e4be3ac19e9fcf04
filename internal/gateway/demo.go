package gateway

import (
	"context"
	"log/slog"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/baharkarakas/insider-ledger/internal/models"
)

type DemoConfig struct {
	Fee           decimal.Decimal
	DeclineSuffix string
	// TimeoutRate is the probability in [0,1] that a transfer times out.
	TimeoutRate float64
	// MaxLatency bounds the simulated provider round trip.
	MaxLatency time.Duration
}

func DefaultDemoConfig() DemoConfig {
	return DemoConfig{
		Fee:           decimal.NewFromInt(1),
		DeclineSuffix: "13",
		TimeoutRate:   0.04,
		MaxLatency:    200 * time.Millisecond,
	}
}

// Demo is an in-process stand-in for a payment provider. Payees ending in the
// decline suffix are always refused; the rest time out at TimeoutRate.
type Demo struct {
	cfg DemoConfig
	log *slog.Logger

	mu       sync.Mutex
	feeTotal decimal.Decimal
	rnd      func() float64
}

func NewDemo(cfg DemoConfig, log *slog.Logger) *Demo {
	return &Demo{cfg: cfg, log: log, rnd: rand.Float64}
}

// WithRand replaces the random source, used by tests to force timeouts.
func (d *Demo) WithRand(f func() float64) *Demo {
	d.mu.Lock()
	d.rnd = f
	d.mu.Unlock()
	return d
}

func (d *Demo) CalculateFee(ctx context.Context, payee string, amount decimal.Decimal, currency models.Currency) (decimal.Decimal, error) {
	return d.cfg.Fee, nil
}

func (d *Demo) Transfer(ctx context.Context, payee string, amount decimal.Decimal, currency models.Currency) (string, error) {
	d.mu.Lock()
	roll := d.rnd()
	latency := time.Duration(d.rnd() * float64(d.cfg.MaxLatency))
	d.mu.Unlock()

	if latency > 0 {
		t := time.NewTimer(latency)
		select {
		case <-ctx.Done():
			t.Stop()
			return "", ctx.Err()
		case <-t.C:
		}
	}

	if d.cfg.DeclineSuffix != "" && strings.HasSuffix(payee, d.cfg.DeclineSuffix) {
		d.log.Debug("demo gateway declined", "payee", payee)
		return "", ErrDeclined
	}
	if roll < d.cfg.TimeoutRate {
		d.log.Debug("demo gateway timed out", "payee", payee)
		return "", ErrTimeout
	}

	d.mu.Lock()
	d.feeTotal = d.feeTotal.Add(d.cfg.Fee)
	d.mu.Unlock()
	d.log.Info("demo gateway transfer", "payee", payee, "amount", amount.StringFixed(2), "currency", currency)
	return StatusOK, nil
}

// FeeTotal is the sum of fees collected by successful transfers.
func (d *Demo) FeeTotal() decimal.Decimal {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.feeTotal
}
