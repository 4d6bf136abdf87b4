package grid

import "strconv"

// ColumnName converts a 1-indexed column number to its letter form (1 -> A, 27 -> AA).
// Non-positive columns yield "".
func ColumnName(col int) string {
	if col < 1 {
		return ""
	}
	var b []byte
	for col > 0 {
		col--
		b = append([]byte{byte('A' + col%26)}, b...)
		col /= 26
	}
	return string(b)
}

// CellName returns the A1 name of (row, col).
func CellName(row, col int) string {
	return ColumnName(col) + strconv.Itoa(row)
}

// RangeName returns the A1 range spanning two cells, e.g. "A2:A5".
func RangeName(from, to CellRef) string {
	return from.Name() + ":" + to.Name()
}
