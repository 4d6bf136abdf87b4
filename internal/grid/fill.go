package grid

// FillDown forward-fills the given columns of rows. cols is ordered from the
// outermost grouping level to the innermost; when an outer column changes to
// a different non-empty value the carried values of every inner column are
// dropped, so an inner value never leaks across a group boundary.
//
// rows is not modified. Columns are 1-indexed and short rows are padded.
func FillDown(rows [][]string, cols []int) [][]string {
	width := 0
	for _, r := range rows {
		if len(r) > width {
			width = len(r)
		}
	}
	for _, c := range cols {
		if c > width {
			width = c
		}
	}

	carried := make([]string, len(cols))
	out := make([][]string, len(rows))
	for i, r := range rows {
		row := make([]string, width)
		copy(row, r)
		for level, c := range cols {
			v := CleanCell(row[c-1])
			if v == "" {
				row[c-1] = carried[level]
				continue
			}
			if v != carried[level] {
				for inner := level + 1; inner < len(cols); inner++ {
					carried[inner] = ""
				}
			}
			carried[level] = v
			row[c-1] = v
		}
		out[i] = row
	}
	return out
}

// Groups splits a column of group keys into contiguous runs. Each run is the
// half-open index range [Start, End) of equal, non-empty keys; empty keys
// break runs and belong to none.
func Groups(keys []string) []Span {
	var spans []Span
	for i := 0; i < len(keys); {
		if keys[i] == "" {
			i++
			continue
		}
		j := i + 1
		for j < len(keys) && keys[j] == keys[i] {
			j++
		}
		spans = append(spans, Span{Key: keys[i], Start: i, End: j})
		i = j
	}
	return spans
}

// Span is a contiguous run of rows sharing a group key.
type Span struct {
	Key   string
	Start int
	End   int
}

// Len returns the number of rows in the span.
func (s Span) Len() int {
	return s.End - s.Start
}
