package services

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/baharkarakas/insider-ledger/internal/models"
	repo "github.com/baharkarakas/insider-ledger/internal/repository"
	"github.com/baharkarakas/insider-ledger/internal/worker"
)

const auditWriteTimeout = 5 * time.Second

// Auditor appends audit log rows. With a worker pool the write happens off
// the caller's goroutine; without one it is synchronous.
type Auditor struct {
	logs repo.AuditLogs
	wp   *worker.Pool
	log  *slog.Logger
}

func NewAuditor(logs repo.AuditLogs, wp *worker.Pool, log *slog.Logger) *Auditor {
	return &Auditor{logs: logs, wp: wp, log: log}
}

func (a *Auditor) Record(entityType string, entityID int64, action string, details map[string]any) {
	id := strconv.FormatInt(entityID, 10)
	entry := models.AuditLog{
		ID:         uuid.NewString(),
		EntityType: entityType,
		EntityID:   &id,
		Action:     action,
		Details:    details,
		CreatedAt:  time.Now().UTC(),
	}
	write := func() {
		ctx, cancel := context.WithTimeout(context.Background(), auditWriteTimeout)
		defer cancel()
		if err := a.logs.Create(ctx, entry); err != nil {
			a.log.Error("audit write failed", "entity", entityType, "entity_id", id, "action", action, "err", err)
		}
	}
	if a.wp == nil {
		write()
		return
	}
	a.wp.Submit(write)
}
