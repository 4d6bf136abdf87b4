package core

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dpmglangsa/gampong/internal/ledger"
)

// AuditAction represents the type of action being audited.
type AuditAction string

const (
	ActionCellEdit      AuditAction = "cell_edit"
	ActionPropagate     AuditAction = "propagate"
	ActionRowInsert     AuditAction = "row_insert"
	ActionRowDelete     AuditAction = "row_delete"
	ActionExport        AuditAction = "export"
	ActionCacheFlush    AuditAction = "cache_flush"
	ActionSecretaryEdit AuditAction = "secretary_edit"
)

// AuditSeverity represents the severity level of an audit entry.
type AuditSeverity string

const (
	SeverityLow      AuditSeverity = "low"
	SeverityMedium   AuditSeverity = "medium"
	SeverityHigh     AuditSeverity = "high"
	SeverityCritical AuditSeverity = "critical"
)

// DefaultAuditCapacity is the number of entries kept in memory.
const DefaultAuditCapacity = 1000

// AuditEntry represents a single audit log entry.
type AuditEntry struct {
	ID           string        `json:"id"`
	Action       AuditAction   `json:"action"`
	Severity     AuditSeverity `json:"severity"`
	Ledger       ledger.Kind   `json:"ledger"`
	Village      string        `json:"village,omitempty"`
	Row          int           `json:"row,omitempty"`
	ColumnName   string        `json:"columnName,omitempty"`
	OldValue     string        `json:"oldValue,omitempty"`
	NewValue     string        `json:"newValue,omitempty"`
	RowsAffected int           `json:"rowsAffected,omitempty"`
	BatchID      string        `json:"batchId,omitempty"`
	IPAddress    string        `json:"ipAddress,omitempty"`
	UserAgent    string        `json:"userAgent,omitempty"`
	Reason       string        `json:"reason,omitempty"`
	CreatedAt    time.Time     `json:"createdAt"`
}

// AuditLogParams contains parameters for creating an audit log entry.
type AuditLogParams struct {
	Action       AuditAction
	Ledger       ledger.Kind
	Village      string
	Row          int
	ColumnName   string
	OldValue     string
	NewValue     string
	RowsAffected int
	Reason       string
}

// determineSeverity returns the appropriate severity for an action.
func determineSeverity(action AuditAction) AuditSeverity {
	switch action {
	case ActionRowDelete:
		return SeverityHigh
	case ActionRowInsert, ActionPropagate:
		return SeverityMedium
	case ActionExport, ActionCacheFlush:
		return SeverityLow
	default:
		return SeverityMedium
	}
}

// AuditLogFilter contains filtering options for querying the audit log.
type AuditLogFilter struct {
	Ledger  ledger.Kind
	Action  AuditAction
	BatchID string
	Limit   int
}

// AuditLog is a bounded in-memory audit trail. The oldest entries are
// dropped once capacity is reached.
type AuditLog struct {
	mu      sync.Mutex
	entries []AuditEntry
	next    int
	full    bool
	logger  *slog.Logger
	now     func() time.Time
}

// NewAuditLog returns an AuditLog holding at most capacity entries.
func NewAuditLog(capacity int, logger *slog.Logger) *AuditLog {
	if capacity <= 0 {
		capacity = DefaultAuditCapacity
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &AuditLog{
		entries: make([]AuditEntry, capacity),
		logger:  logger,
		now:     time.Now,
	}
}

// Record stores an entry built from params and the request metadata in ctx.
func (a *AuditLog) Record(ctx context.Context, params AuditLogParams) AuditEntry {
	meta := RequestMetaFromContext(ctx)
	e := AuditEntry{
		ID:           uuid.New().String(),
		Action:       params.Action,
		Severity:     determineSeverity(params.Action),
		Ledger:       params.Ledger,
		Village:      params.Village,
		Row:          params.Row,
		ColumnName:   params.ColumnName,
		OldValue:     params.OldValue,
		NewValue:     params.NewValue,
		RowsAffected: params.RowsAffected,
		BatchID:      meta.BatchID,
		IPAddress:    meta.IPAddress,
		UserAgent:    meta.UserAgent,
		Reason:       params.Reason,
		CreatedAt:    a.now().UTC(),
	}

	a.mu.Lock()
	a.entries[a.next] = e
	a.next = (a.next + 1) % len(a.entries)
	if a.next == 0 {
		a.full = true
	}
	a.mu.Unlock()

	a.logger.Info("audit",
		"action", e.Action,
		"severity", e.Severity,
		"ledger", e.Ledger,
		"village", e.Village,
		"row", e.Row,
		"column", e.ColumnName,
		"batch_id", e.BatchID,
	)
	return e
}

// List returns entries matching filter, newest first.
func (a *AuditLog) List(filter AuditLogFilter) []AuditEntry {
	a.mu.Lock()
	defer a.mu.Unlock()

	n := a.next
	if a.full {
		n = len(a.entries)
	}
	var out []AuditEntry
	for i := 0; i < n; i++ {
		idx := (a.next - 1 - i + len(a.entries)) % len(a.entries)
		e := a.entries[idx]
		if filter.Ledger != "" && e.Ledger != filter.Ledger {
			continue
		}
		if filter.Action != "" && e.Action != filter.Action {
			continue
		}
		if filter.BatchID != "" && e.BatchID != filter.BatchID {
			continue
		}
		out = append(out, e)
		if filter.Limit > 0 && len(out) == filter.Limit {
			break
		}
	}
	return out
}

// Len returns the number of stored entries.
func (a *AuditLog) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.full {
		return len(a.entries)
	}
	return a.next
}
