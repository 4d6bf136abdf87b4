package normalize

import (
	"strings"
	"unicode/utf8"

	"github.com/dpmglangsa/gampong/internal/grid"
	"github.com/dpmglangsa/gampong/internal/ledger"
)

// CouncilGroup is one village block of the council ledger.
type CouncilGroup struct {
	Village string
	// MarkerRow is the grid row whose village cell named the block.
	MarkerRow int
	// Rows are the grid rows of every member row in the block, in order.
	Rows      []int
	Secretary *ledger.Secretary
}

// SecretaryRows returns the grid rows holding the secretary title and name.
// Without a detected secretary it falls back to the third and fourth rows of
// the block, where the council sheets keep them.
func (g CouncilGroup) SecretaryRows() (titleRow, nameRow int, ok bool) {
	if s := g.Secretary; s != nil && s.NameRow > 0 {
		titleRow = s.TitleRow
		if titleRow == 0 {
			for i, r := range g.Rows {
				if r == s.NameRow && i > 0 {
					titleRow = g.Rows[i-1]
				}
			}
		}
		return titleRow, s.NameRow, titleRow > 0
	}
	if len(g.Rows) < 4 {
		return 0, 0, false
	}
	return g.Rows[2], g.Rows[3], true
}

// isGroupMarker reports whether a village cell names a new council block:
// an all-uppercase value longer than three characters that is not a
// secretary title line.
func isGroupMarker(s string) bool {
	return isUpper(s) &&
		utf8.RuneCountInString(s) > 3 &&
		!strings.Contains(strings.ToUpper(s), "SEKRETARIS")
}

type secretaryState int

const (
	scanningForGroup secretaryState = iota
	expectTitle
	expectName
	secretaryDone
)

// secretaryLookahead bounds how many rows after a marker may hold the
// title and name lines.
const secretaryLookahead = 4

// detectGroups splits member rows into village blocks and finds each block's
// secretary. The title line contains "SEKRETARIS"; the name line follows it
// and is not all-uppercase. A block whose lines are missing, out of order or
// too far from the marker simply gets no secretary.
func detectGroups(rows []Row, col int) ([]*CouncilGroup, map[int]*CouncilGroup) {
	var (
		groups   []*CouncilGroup
		byRow    = make(map[int]*CouncilGroup)
		cur      *CouncilGroup
		state    = scanningForGroup
		title    string
		titleRow int
		seen     int
	)
	for _, r := range rows {
		v := r.Cells[col-1]
		if isGroupMarker(v) {
			cur = &CouncilGroup{Village: v, MarkerRow: r.Num}
			groups = append(groups, cur)
			cur.Rows = append(cur.Rows, r.Num)
			byRow[r.Num] = cur
			state, title, titleRow, seen = expectTitle, "", 0, 0
			continue
		}
		if cur == nil {
			continue
		}
		cur.Rows = append(cur.Rows, r.Num)
		byRow[r.Num] = cur

		if state == scanningForGroup || state == secretaryDone {
			continue
		}
		seen++
		if seen > secretaryLookahead {
			state = secretaryDone
			continue
		}
		if v == "" {
			continue
		}
		switch state {
		case expectTitle:
			if strings.Contains(strings.ToUpper(v), "SEKRETARIS") {
				title, titleRow = v, r.Num
				state = expectName
				continue
			}
			if !isUpper(v) {
				cur.Secretary = &ledger.Secretary{Name: v, Title: ledger.DefaultSecretaryTitle, NameRow: r.Num}
			}
			state = secretaryDone
		case expectName:
			if !isUpper(v) {
				cur.Secretary = &ledger.Secretary{Name: v, Title: title, TitleRow: titleRow, NameRow: r.Num}
			}
			state = secretaryDone
		}
	}
	return groups, byRow
}

// prepareCouncil is Prepare for the council ledger.
func prepareCouncil(l ledger.Layout, g grid.Grid) ([]Row, []*CouncilGroup) {
	memberCol := l.Col(l.SeqColumn)
	villageCol := l.Col(l.KeyColumn)
	subCol := l.Col(l.SubDistrictColumn)
	clusterCol := l.Col(ledger.ColCluster)

	var rows []Row
	for _, r := range dataRows(l, g) {
		if r.Cells[memberCol-1] != "" {
			rows = append(rows, r)
		}
	}

	validVillages := make(map[string]bool)
	validClusters := make(map[string]bool)
	for _, r := range rows {
		if r.Cells[subCol-1] == "" {
			continue
		}
		validVillages[r.Cells[villageCol-1]] = true
		if clusterCol > 0 {
			validClusters[r.Cells[clusterCol-1]] = true
		}
	}

	groups, _ := detectGroups(rows, villageCol)

	// Secretary lines share the village column; clear them before filling.
	for _, r := range rows {
		if v := r.Cells[villageCol-1]; v != "" && !validVillages[v] && !isGroupMarker(v) {
			r.Cells[villageCol-1] = ""
		}
		if clusterCol > 0 {
			if v := r.Cells[clusterCol-1]; v != "" && !validClusters[v] && !(isUpper(v) && utf8.RuneCountInString(v) > 3) {
				r.Cells[clusterCol-1] = ""
			}
		}
	}

	rows = fill(l, rows)
	return filterArtifacts(l, rows), groups
}

// Council returns the numbered council members of g and the village blocks
// they belong to. Every member of a block shares the block's secretary.
func Council(l ledger.Layout, g grid.Grid) ([]ledger.CouncilMember, []CouncilGroup) {
	rows, groups := prepareCouncil(l, g)
	byRow := make(map[int]*CouncilGroup)
	for _, grp := range groups {
		for _, n := range grp.Rows {
			byRow[n] = grp
		}
	}

	members := make([]ledger.CouncilMember, 0, len(rows))
	for _, r := range rows {
		m := ledger.CouncilMember{
			Row: r.Num,
			Locality: ledger.Locality{
				Number:      r.Get(l, ledger.ColNo),
				SubDistrict: upper(r.Get(l, ledger.ColSubDistrict)),
				ClusterCode: grid.TextID(r.Get(l, ledger.ColClusterCode)),
				Cluster:     r.Get(l, ledger.ColCluster),
				VillageNo:   grid.TextID(r.Get(l, ledger.ColVillageNo)),
				Village:     r.Get(l, l.KeyColumn),
			},
			Seq:        grid.ParseSeq(r.Get(l, l.SeqColumn)),
			Name:       r.Get(l, ledger.ColMemberName),
			GenderMark: genderMark(r.Get(l, ledger.ColMale), r.Get(l, ledger.ColFemale)),
			Remark:     r.Get(l, ledger.ColRemark),
		}
		if grp, ok := byRow[r.Num]; ok {
			m.Secretary = grp.Secretary
		}
		members = append(members, m)
	}

	out := make([]CouncilGroup, len(groups))
	for i, grp := range groups {
		out[i] = *grp
	}
	return members, out
}

func genderMark(male, female string) ledger.GenderMark {
	switch {
	case male != "":
		return ledger.MarkMale
	case female != "":
		return ledger.MarkFemale
	}
	return ledger.MarkNone
}
