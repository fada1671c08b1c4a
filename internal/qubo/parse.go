package qubo

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ParseJSON decodes a JSON array of numeric rows into a Model.
// Nulls, strings and ragged rows are rejected; nothing is returned on failure.
func ParseJSON(data []byte) (*Model, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil, ErrEmptyMatrix
	}

	var raw [][]*float64
	if err := json.Unmarshal(data, &raw); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return nil, fmt.Errorf("%w: %v", ErrNonNumeric, err)
		}
		return nil, fmt.Errorf("qubo: parse json matrix: %w", err)
	}

	rows := make([][]float64, len(raw))
	for i, r := range raw {
		rows[i] = make([]float64, len(r))
		for j, v := range r {
			if v == nil {
				return nil, fmt.Errorf("%w: null at [%d][%d]", ErrNonNumeric, i, j)
			}
			rows[i][j] = *v
		}
	}

	return NewModel(rows)
}

// ParseText reads one matrix row per line. Entries may be separated by
// whitespace, commas or semicolons; surrounding brackets are ignored.
// Blank lines and lines starting with '#' are skipped.
func ParseText(text string) (*Model, error) {
	var rows [][]float64

	for lineNo, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		fields := strings.FieldsFunc(line, func(r rune) bool {
			switch r {
			case ' ', '\t', '\r', ',', ';', '[', ']':
				return true
			}
			return false
		})
		if len(fields) == 0 {
			continue
		}

		row := make([]float64, 0, len(fields))
		for _, f := range fields {
			v, err := strconv.ParseFloat(f, 64)
			if err != nil {
				return nil, fmt.Errorf("%w: line %d: %q", ErrNonNumeric, lineNo+1, f)
			}
			row = append(row, v)
		}
		rows = append(rows, row)
	}

	return NewModel(rows)
}
