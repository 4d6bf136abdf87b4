package core

import (
	"bytes"
	"context"
	"fmt"

	"github.com/dpmglangsa/gampong/internal/export"
	"github.com/dpmglangsa/gampong/internal/ledger"
	"github.com/dpmglangsa/gampong/internal/normalize"
)

// records loads ledger k for export. Unlike the views, a backend failure is
// returned rather than rendered as an empty workbook.
func (s *Service) records(ctx context.Context, k ledger.Kind) (any, int, error) {
	g, err := s.store.ReadGrid(ctx, k)
	if err != nil {
		return nil, 0, err
	}
	l := s.store.Layout(k)
	switch k {
	case ledger.Roster:
		r := normalize.Roster(l, g)
		return r, len(r), nil
	case ledger.Detail:
		d := normalize.Detail(l, g)
		return d, len(d), nil
	case ledger.Staff:
		st := dropGhosts(normalize.Staff(l, g))
		return st, len(st), nil
	case ledger.Council:
		c, _ := normalize.Council(l, g)
		return c, len(c), nil
	}
	return nil, 0, fmt.Errorf("unknown ledger %q", k)
}

// Export renders one ledger as a workbook.
func (s *Service) Export(ctx context.Context, k ledger.Kind) (export.File, error) {
	if err := s.limiter.Acquire(ctx); err != nil {
		return export.File{}, err
	}
	defer s.limiter.Release()

	recs, n, err := s.records(ctx, k)
	if err != nil {
		return export.File{}, err
	}
	data, err := s.exporter.Render(k, recs)
	if err != nil {
		return export.File{}, fmt.Errorf("export %s: %w", k, err)
	}
	s.audit.Record(ctx, AuditLogParams{Action: ActionExport, Ledger: k, RowsAffected: n})
	return export.File{Name: s.exporter.FileName(k), Data: data}, nil
}

// ExportAll renders every non-empty ledger, in ledger.Kinds order, and
// bundles them into one zip.
func (s *Service) ExportAll(ctx context.Context) ([]byte, error) {
	if err := s.limiter.Acquire(ctx); err != nil {
		return nil, err
	}
	defer s.limiter.Release()

	var files []export.File
	for _, k := range ledger.Kinds {
		recs, n, err := s.records(ctx, k)
		if err != nil {
			return nil, err
		}
		if n == 0 {
			s.logger.Debug("skipping empty ledger in bundle", "ledger", k)
			continue
		}
		data, err := s.exporter.Render(k, recs)
		if err != nil {
			return nil, fmt.Errorf("export %s: %w", k, err)
		}
		files = append(files, export.File{Name: s.exporter.FileName(k), Data: data})
		s.audit.Record(ctx, AuditLogParams{Action: ActionExport, Ledger: k, RowsAffected: n})
	}
	if len(files) == 0 {
		return nil, ErrNothingToExport
	}
	var buf bytes.Buffer
	if err := export.Bundle(&buf, files, s.now()); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
