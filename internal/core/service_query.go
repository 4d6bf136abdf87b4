package core

import (
	"context"
	"sort"

	"github.com/dpmglangsa/gampong/internal/grid"
	"github.com/dpmglangsa/gampong/internal/ledger"
	"github.com/dpmglangsa/gampong/internal/normalize"
)

// load reads ledger k for a view. An unreachable backend degrades to an
// empty ledger; the failure is logged, not returned.
func (s *Service) load(ctx context.Context, k ledger.Kind) grid.Grid {
	g, err := s.store.ReadGrid(ctx, k)
	if err != nil {
		s.logger.Warn("ledger unavailable, serving empty dataset", "ledger", k, "error", err)
		return nil
	}
	return g
}

// Roster returns the roster ledger.
func (s *Service) Roster(ctx context.Context) []ledger.RosterEntry {
	return normalize.Roster(s.store.Layout(ledger.Roster), s.load(ctx, ledger.Roster))
}

// Details returns the village-head detail ledger.
func (s *Service) Details(ctx context.Context) []ledger.Official {
	return normalize.Detail(s.store.Layout(ledger.Detail), s.load(ctx, ledger.Detail))
}

// Staff returns the staff ledger without ghost rows.
func (s *Service) Staff(ctx context.Context) []ledger.Official {
	return dropGhosts(normalize.Staff(s.store.Layout(ledger.Staff), s.load(ctx, ledger.Staff)))
}

// Council returns the council members.
func (s *Service) Council(ctx context.Context) []ledger.CouncilMember {
	members, _ := normalize.Council(s.store.Layout(ledger.Council), s.load(ctx, ledger.Council))
	return members
}

// CouncilGroups returns the council village blocks with their secretaries.
func (s *Service) CouncilGroups(ctx context.Context) []normalize.CouncilGroup {
	_, groups := normalize.Council(s.store.Layout(ledger.Council), s.load(ctx, ledger.Council))
	return groups
}

// LoadAll returns all four ledgers.
func (s *Service) LoadAll(ctx context.Context) Dataset {
	return Dataset{
		Roster:  s.Roster(ctx),
		Details: s.Details(ctx),
		Staff:   s.Staff(ctx),
		Council: s.Council(ctx),
	}
}

// Statistics counts localities and officials.
func (s *Service) Statistics(ctx context.Context) Statistics {
	d := s.LoadAll(ctx)
	subs := make(map[string]bool)
	clusters := make(map[string]bool)
	villages := make(map[string]bool)
	for _, e := range d.Roster {
		subs[e.Locality.SubDistrict] = true
		if e.Locality.Cluster != "" {
			clusters[e.Locality.Cluster] = true
		}
		villages[e.Locality.Village] = true
	}
	return Statistics{
		SubDistricts: len(subs),
		Clusters:     len(clusters),
		Villages:     len(villages),
		VillageHeads: len(d.Roster),
		Staff:        len(d.Staff),
		Council:      len(d.Council),
	}
}

// SubDistricts returns the sorted sub-districts present in the roster.
func (s *Service) SubDistricts(ctx context.Context) []string {
	return distinct(s.Roster(ctx), func(e ledger.RosterEntry) string {
		return e.Locality.SubDistrict
	})
}

// Clusters returns the sorted clusters of subDistrict. An empty
// subDistrict lists every cluster.
func (s *Service) Clusters(ctx context.Context, subDistrict string) []string {
	return distinct(s.Roster(ctx), func(e ledger.RosterEntry) string {
		if subDistrict != "" && !sameKey(e.Locality.SubDistrict, subDistrict) {
			return ""
		}
		return e.Locality.Cluster
	})
}

// Villages returns the sorted villages of subDistrict and cluster. Empty
// arguments do not filter.
func (s *Service) Villages(ctx context.Context, subDistrict, cluster string) []string {
	return distinct(s.Roster(ctx), func(e ledger.RosterEntry) string {
		if subDistrict != "" && !sameKey(e.Locality.SubDistrict, subDistrict) {
			return ""
		}
		if cluster != "" && !sameKey(e.Locality.Cluster, cluster) {
			return ""
		}
		return e.Locality.Village
	})
}

// BySubDistrict returns the four ledgers restricted to one sub-district.
func (s *Service) BySubDistrict(ctx context.Context, name string) Dataset {
	d := s.LoadAll(ctx)
	var out Dataset
	for _, e := range d.Roster {
		if sameKey(e.Locality.SubDistrict, name) {
			out.Roster = append(out.Roster, e)
		}
	}
	for _, o := range d.Details {
		if sameKey(o.Locality.SubDistrict, name) {
			out.Details = append(out.Details, o)
		}
	}
	for _, o := range d.Staff {
		if sameKey(o.Locality.SubDistrict, name) {
			out.Staff = append(out.Staff, o)
		}
	}
	for _, m := range d.Council {
		if sameKey(m.Locality.SubDistrict, name) {
			out.Council = append(out.Council, m)
		}
	}
	return out
}

func dropGhosts(officials []ledger.Official) []ledger.Official {
	out := officials[:0:0]
	for _, o := range officials {
		if !o.IsGhost() {
			out = append(out, o)
		}
	}
	return out
}

func distinct[T any](items []T, key func(T) string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, it := range items {
		k := key(it)
		if k == "" || seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
