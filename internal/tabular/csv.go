package tabular

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
)

// csvSheetName matches what spreadsheet applications call the single sheet
// of an imported text file.
const csvSheetName = "Sheet1"

// candidateDelimiters are tried in order; ties go to the earlier one.
var candidateDelimiters = []rune{',', ';', '\t', '|'}

func decodeCSV(data []byte, opts Options) ([]Sheet, error) {
	text, err := toUTF8(data)
	if err != nil {
		return nil, err
	}

	comma := opts.Comma
	if comma == 0 {
		comma = detectDelimiter(text)
	}

	r := csv.NewReader(bytes.NewReader(text))
	r.Comma = comma
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	var rows []Row
	for {
		if opts.MaxRows > 0 && len(rows) >= opts.MaxRows {
			break
		}

		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv: %w", err)
		}

		row := make(Row, len(record))
		for i, field := range record {
			row[i] = InferCell(field)
		}
		rows = append(rows, row)
	}

	return []Sheet{{Name: csvSheetName, Rows: trimTrailingBlank(rows)}}, nil
}

// detectDelimiter picks the candidate that occurs most often outside quotes
// on the first non-empty line. Comma wins when nothing else is present.
func detectDelimiter(text []byte) rune {
	line := firstLine(text)
	counts := make(map[rune]int, len(candidateDelimiters))

	inQuotes := false
	for _, r := range string(line) {
		if r == '"' {
			inQuotes = !inQuotes
			continue
		}
		if inQuotes {
			continue
		}
		for _, d := range candidateDelimiters {
			if r == d {
				counts[d]++
			}
		}
	}

	best := candidateDelimiters[0]
	for _, d := range candidateDelimiters[1:] {
		if counts[d] > counts[best] {
			best = d
		}
	}
	return best
}

func firstLine(text []byte) []byte {
	for len(text) > 0 {
		i := bytes.IndexByte(text, '\n')
		var line []byte
		if i < 0 {
			line, text = text, nil
		} else {
			line, text = text[:i], text[i+1:]
		}
		if len(bytes.TrimSpace(line)) > 0 {
			return line
		}
	}
	return nil
}
