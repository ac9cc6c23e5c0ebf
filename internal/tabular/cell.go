package tabular

import (
	"encoding/json"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// numericRegex validates plain decimal and scientific notation.
// Hex, underscores, Inf and NaN are deliberately not numbers here.
var numericRegex = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?$`)

// CellKind is the value type a decoder inferred for a cell.
type CellKind uint8

const (
	CellEmpty CellKind = iota
	CellText
	CellNumber
	CellBool
)

func (k CellKind) String() string {
	switch k {
	case CellText:
		return "text"
	case CellNumber:
		return "number"
	case CellBool:
		return "bool"
	default:
		return "empty"
	}
}

// Cell is one raw value of a row. Text always holds what the file shows for
// the cell; Number and Bool are only meaningful for their kinds.
type Cell struct {
	Kind   CellKind
	Text   string
	Number float64
	Bool   bool
}

// TextCell returns a text cell, or an empty cell for "".
func TextCell(s string) Cell {
	if s == "" {
		return Cell{}
	}
	return Cell{Kind: CellText, Text: s}
}

// NumberCell returns a numeric cell shown as text.
func NumberCell(text string, n float64) Cell {
	return Cell{Kind: CellNumber, Text: text, Number: n}
}

// BoolCell returns a boolean cell shown as text.
func BoolCell(text string, b bool) Cell {
	return Cell{Kind: CellBool, Text: text, Bool: b}
}

// InferCell types a cell read from a text-only source the way spreadsheet
// applications do on import: plain numbers become numeric, TRUE/FALSE
// become booleans, anything else stays text. The original text is kept.
func InferCell(s string) Cell {
	if s == "" {
		return Cell{}
	}
	t := strings.TrimSpace(s)
	if n, ok := parseNumber(t); ok {
		return NumberCell(s, n)
	}
	switch {
	case strings.EqualFold(t, "true"):
		return BoolCell(s, true)
	case strings.EqualFold(t, "false"):
		return BoolCell(s, false)
	}
	return Cell{Kind: CellText, Text: s}
}

func parseNumber(s string) (float64, bool) {
	if !numericRegex.MatchString(s) {
		return 0, false
	}
	n, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// IsEmpty reports whether the cell holds no value at all.
func (c Cell) IsEmpty() bool {
	return c.Kind == CellEmpty
}

// Truthy reports whether the cell counts as "has a value": empty cells,
// empty text, numeric zero, NaN and boolean false do not.
func (c Cell) Truthy() bool {
	switch c.Kind {
	case CellText:
		return c.Text != ""
	case CellNumber:
		return c.Number != 0 && !math.IsNaN(c.Number)
	case CellBool:
		return c.Bool
	default:
		return false
	}
}

// String returns the cell as shown in the file.
func (c Cell) String() string {
	return c.Text
}

// MarshalJSON encodes the cell as its shown text.
func (c Cell) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.Text)
}

// UnmarshalJSON infers the cell back from a JSON string or number.
func (c *Cell) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*c = InferCell(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*c = InferCell(n.String())
	return nil
}

// Row is an ordered sequence of cells. Cells past the end of a short row
// read as empty.
type Row []Cell

// Cell returns the cell at i, or an empty cell when i is out of range.
func (r Row) Cell(i int) Cell {
	if i < 0 || i >= len(r) {
		return Cell{}
	}
	return r[i]
}

// Strings returns the shown text of every cell.
func (r Row) Strings() []string {
	out := make([]string, len(r))
	for i, c := range r {
		out[i] = c.Text
	}
	return out
}

// IsBlank reports whether every cell of the row is empty.
func (r Row) IsBlank() bool {
	for _, c := range r {
		if !c.IsEmpty() {
			return false
		}
	}
	return true
}
