package core

import (
	"context"
	"log/slog"
	"time"

	"github.com/dpmglangsa/gampong/internal/export"
	"github.com/dpmglangsa/gampong/internal/ledger"
	"github.com/dpmglangsa/gampong/internal/reconcile"
	"github.com/dpmglangsa/gampong/internal/store"
)

// Service provides the ledger operations shared by every frontend.
type Service struct {
	store    *store.Store
	engine   *reconcile.Engine
	exporter *export.Exporter
	limiter  *ExportLimiter
	audit    *AuditLog
	logger   *slog.Logger
	now      func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the service logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// WithAuditLog replaces the default in-memory audit log.
func WithAuditLog(a *AuditLog) Option {
	return func(s *Service) { s.audit = a }
}

// WithExportLimiter bounds concurrent exports.
func WithExportLimiter(l *ExportLimiter) Option {
	return func(s *Service) { s.limiter = l }
}

// WithClock sets the time source used for export timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates a new Service instance.
func NewService(st *store.Store, exp *export.Exporter, opts ...Option) *Service {
	s := &Service{
		store:    st,
		exporter: exp,
		logger:   slog.Default(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.limiter == nil {
		s.limiter = NewExportLimiter(DefaultMaxConcurrentExports, DefaultMaxWaitTime)
	}
	if s.audit == nil {
		s.audit = NewAuditLog(DefaultAuditCapacity, s.logger)
	}
	s.engine = reconcile.New(st, s.logger)
	return s
}

// Layouts returns the ledger layouts the service works with.
func (s *Service) Layouts() ledger.Layouts {
	return s.store.Layouts()
}

// AuditLog returns entries matching filter, newest first.
func (s *Service) AuditLog(filter AuditLogFilter) []AuditEntry {
	return s.audit.List(filter)
}

// ExportStatus reports the export limiter state.
func (s *Service) ExportStatus() ExportLimiterStatus {
	return s.limiter.Status()
}

// WaitForExports blocks until running exports finish or ctx is done.
func (s *Service) WaitForExports(ctx context.Context) error {
	return s.limiter.WaitForDrain(ctx)
}

// CacheStats reports ledger cache effectiveness.
func (s *Service) CacheStats() store.CacheStats {
	return s.store.Stats()
}

// InvalidateCache drops every cached ledger so the next read hits the backend.
func (s *Service) InvalidateCache(ctx context.Context) {
	s.store.InvalidateAll()
	s.audit.Record(ctx, AuditLogParams{Action: ActionCacheFlush})
}

// propagate copies changed village-head fields from origin into the other
// ledgers and records one audit entry per touched ledger.
func (s *Service) propagate(ctx context.Context, origin ledger.Kind, village string, changes reconcile.Changes) reconcile.Result {
	res := s.engine.Propagate(ctx, origin, village, changes)
	for _, k := range reconcile.Targets {
		o, ok := res.Outcomes[k]
		if !ok {
			continue
		}
		switch o.Status {
		case reconcile.StatusUpdated:
			s.audit.Record(ctx, AuditLogParams{
				Action:       ActionPropagate,
				Ledger:       k,
				Village:      village,
				RowsAffected: o.Cells,
				Reason:       "from " + string(origin),
			})
		case reconcile.StatusFailed:
			s.logger.Warn("propagation failed", "ledger", k, "village", village, "error", o.Err)
		}
	}
	return res
}
