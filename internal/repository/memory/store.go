// Package memory is a process-local ledger store. Every conditional write is
// evaluated under one mutex, so it reports affected rows exactly like the
// PostgreSQL store does.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/baharkarakas/insider-ledger/internal/models"
	"github.com/baharkarakas/insider-ledger/internal/repository"
)

type Store struct {
	mu          sync.RWMutex
	users       map[int64]models.User
	accounts    map[int64]*models.Account
	invoices    map[int64]*models.Invoice
	topUps      []models.TopUp
	idempotency map[string]time.Time
	auditLogs   []models.AuditLog

	nextUserID    int64
	nextAccountID int64
	nextInvoiceID int64
	nextTopUpID   int64

	now func() time.Time
}

func NewStore() *Store {
	return &Store{
		users:       make(map[int64]models.User),
		accounts:    make(map[int64]*models.Account),
		invoices:    make(map[int64]*models.Invoice),
		idempotency: make(map[string]time.Time),
		now:         time.Now,
	}
}

// PutAccount inserts or replaces an account row. A zero ID is assigned.
func (s *Store) PutAccount(a models.Account) models.Account {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a.ID == 0 {
		s.nextAccountID++
		a.ID = s.nextAccountID
	} else if a.ID > s.nextAccountID {
		s.nextAccountID = a.ID
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = s.now()
	}
	if a.State == "" {
		a.State = models.AccountActive
	}
	cp := a
	s.accounts[a.ID] = &cp
	return a
}

// PutInvoice inserts or replaces an invoice row. A zero ID is assigned.
func (s *Store) PutInvoice(i models.Invoice) models.Invoice {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i.ID == 0 {
		s.nextInvoiceID++
		i.ID = s.nextInvoiceID
	} else if i.ID > s.nextInvoiceID {
		s.nextInvoiceID = i.ID
	}
	if i.CreatedAt.IsZero() {
		i.CreatedAt = s.now()
	}
	if i.Status == "" {
		i.Status = models.InvoiceUnpaid
	}
	if i.VendorName == "" {
		i.VendorName = models.DefaultVendorName
	}
	if i.Details == "" {
		i.Details = models.DefaultInvoiceDetails
	}
	cp := i
	s.invoices[i.ID] = &cp
	return i
}

// AuditLogs returns a copy of every audit entry written so far.
func (s *Store) AuditLogs() []models.AuditLog {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.AuditLog(nil), s.auditLogs...)
}

// ---------- users ----------

type users struct{ s *Store }

func (s *Store) Users() repository.Users { return users{s} }

func (v users) Create(ctx context.Context, u models.User) (models.User, error) {
	if err := u.Validate(); err != nil {
		return models.User{}, err
	}
	s := v.s
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextUserID++
	u.ID = s.nextUserID
	u.CreatedAt = s.now()
	s.users[u.ID] = u
	return u, nil
}

func (v users) GetByID(ctx context.Context, id int64) (models.User, error) {
	s := v.s
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return models.User{}, repository.ErrNotFound
	}
	return u, nil
}

// ---------- accounts ----------

func (s *Store) GetByID(ctx context.Context, id int64) (models.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.accounts[id]
	if !ok {
		return models.Account{}, repository.ErrNotFound
	}
	return *a, nil
}

func (s *Store) ListByUser(ctx context.Context, userID int64) ([]models.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Account
	for _, a := range s.accounts {
		if a.UserID == userID {
			out = append(out, *a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) TryLock(ctx context.Context, id int64) (int64, error) {
	return s.flipLock(id, false, true), nil
}

func (s *Store) Unlock(ctx context.Context, id int64) (int64, error) {
	return s.flipLock(id, true, false), nil
}

func (s *Store) flipLock(id int64, from, to bool) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[id]
	if !ok || a.Locked != from {
		return 0
	}
	now := s.now()
	a.Locked = to
	a.LastUpdated = &now
	return 1
}

func (s *Store) CompareAndSwapBalance(ctx context.Context, id, userID, expected, next int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[id]
	if !ok || a.UserID != userID || a.Balance != expected {
		return 0, nil
	}
	now := s.now()
	a.Balance = next
	a.LastUpdated = &now
	return 1, nil
}

// ---------- top-ups ----------

type topUps struct{ s *Store }

// TopUps exposes the top-up history through repository.TopUps.
func (s *Store) TopUps() repository.TopUps { return topUps{s} }

func (t topUps) Append(ctx context.Context, tu models.TopUp) (int64, error) {
	s := t.s
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextTopUpID++
	tu.ID = s.nextTopUpID
	if tu.CreatedAt.IsZero() {
		tu.CreatedAt = s.now()
	}
	s.topUps = append(s.topUps, tu)
	return tu.ID, nil
}

func (t topUps) ListByAccount(ctx context.Context, accountID int64) ([]models.TopUp, error) {
	s := t.s
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.TopUp
	for _, tu := range s.topUps {
		if tu.AccountID == accountID {
			out = append(out, tu)
		}
	}
	return out, nil
}

// ---------- invoices ----------

type invoices struct{ s *Store }

// Invoices exposes invoice rows through repository.Invoices.
func (s *Store) Invoices() repository.Invoices { return invoices{s} }

func (v invoices) GetByID(ctx context.Context, id int64) (models.Invoice, error) {
	s := v.s
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.invoices[id]
	if !ok {
		return models.Invoice{}, repository.ErrNotFound
	}
	return *i, nil
}

func (v invoices) ListByUser(ctx context.Context, userID int64, status *models.InvoiceStatus) ([]models.Invoice, error) {
	s := v.s
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Invoice
	for _, i := range s.invoices {
		if i.UserID != userID {
			continue
		}
		if status != nil && i.Status != *status {
			continue
		}
		out = append(out, *i)
	}
	sort.Slice(out, func(a, b int) bool { return out[a].ID < out[b].ID })
	return out, nil
}

func (v invoices) Finalize(ctx context.Context, id int64, status models.InvoiceStatus, idempotencyID string, paidByAccountID *int64) (int64, error) {
	s := v.s
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.invoices[id]
	if !ok || i.Status != models.InvoiceUnpaid || i.TransferIdempotencyID != nil {
		return 0, nil
	}
	now := s.now()
	idem := idempotencyID
	i.Status = status
	i.TransferIdempotencyID = &idem
	if paidByAccountID != nil {
		paidBy := *paidByAccountID
		i.PaidByAccountID = &paidBy
	}
	i.LastUpdated = &now
	return 1, nil
}

// ---------- idempotency registry ----------

type idempotency struct{ s *Store }

func (s *Store) Idempotency() repository.IdempotencyTokens { return idempotency{s} }

func (r idempotency) Insert(ctx context.Context, id string) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.idempotency[id]; ok {
		return repository.ErrDuplicateIdempotencyID
	}
	s.idempotency[id] = s.now()
	return nil
}

// ---------- audit log ----------

type auditLogs struct{ s *Store }

func (s *Store) Audit() repository.AuditLogs { return auditLogs{s} }

func (r auditLogs) Create(ctx context.Context, l models.AuditLog) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if l.CreatedAt.IsZero() {
		l.CreatedAt = s.now()
	}
	s.auditLogs = append(s.auditLogs, l)
	return nil
}

// Repositories wires every store view of s.
func (s *Store) Repositories() repository.Repositories {
	return repository.Repositories{
		Users:       s.Users(),
		Accounts:    s,
		TopUps:      s.TopUps(),
		Invoices:    s.Invoices(),
		Idempotency: s.Idempotency(),
		AuditLogs:   s.Audit(),
	}
}

var _ repository.Accounts = (*Store)(nil)
