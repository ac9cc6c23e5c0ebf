package core

import "github.com/JonMunkholm/ofertas/internal/tabular"

// ColumnIndex maps header names to their position in a row. Names are
// matched exactly, without trimming or case folding. When a header repeats,
// the first occurrence wins.
type ColumnIndex map[string]int

// MakeColumnIndex builds a ColumnIndex from a header row.
func MakeColumnIndex(header []string) ColumnIndex {
	idx := make(ColumnIndex, len(header))
	for i, h := range header {
		if _, seen := idx[h]; seen {
			continue
		}
		idx[h] = i
	}
	return idx
}

// Lookup returns the position of name.
func (c ColumnIndex) Lookup(name string) (int, bool) {
	i, ok := c[name]
	return i, ok
}

// cellText returns the shown text of a cell that has a value, else "".
// A missing column (pos < 0) reads as "".
func cellText(row tabular.Row, pos int) string {
	if pos < 0 {
		return ""
	}
	c := row.Cell(pos)
	if !c.Truthy() {
		return ""
	}
	return c.String()
}

// position returns the column position or -1 when absent.
func (c ColumnIndex) position(name string) int {
	if i, ok := c[name]; ok {
		return i
	}
	return -1
}
