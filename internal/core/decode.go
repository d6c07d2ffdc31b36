package core

import (
	"encoding/csv"
	"errors"
	"io"
	"strings"

	"github.com/jszwec/csvutil"
)

// HeaderIndex maps canonical column names to their position in the CSV row.
type HeaderIndex map[string]int

// CleanCell trims whitespace and surrounding quotes left over from
// spreadsheet exports.
func CleanCell(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "=\"") && strings.HasSuffix(s, "\"") {
		s = s[2 : len(s)-1]
	}
	return strings.Trim(s, `"'`)
}

// CanonicalHeader rewrites a raw header row to catalog column names.
// Matching is case-insensitive; unknown headers are kept (lowercased) and
// ignored by the decoder.
func (t TableDefinition) CanonicalHeader(raw []string) []string {
	known := make(map[string]bool, len(t.Columns))
	for _, c := range t.Columns {
		known[c.Name] = true
	}

	header := make([]string, len(raw))
	for i, h := range raw {
		key := strings.ToLower(CleanCell(h))
		if col, ok := t.Aliases[key]; ok && !known[key] {
			key = col
		}
		header[i] = key
	}
	return header
}

// ValidateHeader checks a canonical header: every required column must be
// present and no column may appear twice. Failures are *DecodeError.
func (t TableDefinition) ValidateHeader(header []string) (HeaderIndex, error) {
	idx := make(HeaderIndex, len(header))
	for i, h := range header {
		if _, dup := idx[h]; dup && h != "" {
			return nil, &DecodeError{Table: t.Info.Key, Line: 1, Column: h, Err: errors.New("duplicate column")}
		}
		idx[h] = i
	}

	var missing []string
	for _, c := range t.Columns {
		if _, ok := idx[c.Name]; c.Required && !ok {
			missing = append(missing, c.Name)
		}
	}
	if len(missing) > 0 {
		return nil, &DecodeError{
			Table:  t.Info.Key,
			Line:   1,
			Column: strings.Join(missing, ","),
			Err:    errors.New("missing required column"),
		}
	}
	return idx, nil
}

// lineTracker remembers the line of the last record the csv reader returned.
type lineTracker struct {
	r    *csv.Reader
	line int
}

func (l *lineTracker) Read() ([]string, error) {
	rec, err := l.r.Read()
	if err == nil {
		l.line, _ = l.r.FieldPos(0)
	}
	return rec, err
}

// RecordReader decodes a CSV source into records of one table.
// It is a lazy, finite, non-restartable sequence: Read returns io.EOF once
// the source is exhausted, and any other error is final.
type RecordReader struct {
	def   TableDefinition
	lines *lineTracker
	dec   *csvutil.Decoder
	err   error
}

// NewRecordReader reads and validates the header row of r.
func NewRecordReader(def TableDefinition, r io.Reader) (*RecordReader, error) {
	cr := csv.NewReader(r)
	cr.LazyQuotes = true
	cr.ReuseRecord = true
	lines := &lineTracker{r: cr}

	raw, err := lines.Read()
	if err == io.EOF {
		return nil, &DecodeError{Table: def.Info.Key, Err: errors.New("missing header row")}
	}
	if err != nil {
		return nil, decodeErr(def.Info.Key, 1, err)
	}

	header := def.CanonicalHeader(raw)
	if _, err := def.ValidateHeader(header); err != nil {
		return nil, err
	}

	dec, err := csvutil.NewDecoder(lines, header...)
	if err != nil {
		return nil, &DecodeError{Table: def.Info.Key, Line: 1, Err: err}
	}

	return &RecordReader{def: def, lines: lines, dec: dec}, nil
}

// Line returns the source line of the most recently read record.
func (r *RecordReader) Line() int {
	return r.lines.line
}

// Read decodes the next record.
func (r *RecordReader) Read() (Record, error) {
	if r.err != nil {
		return nil, r.err
	}

	rec := r.def.NewRecord()
	if err := r.dec.Decode(rec); err != nil {
		if err != io.EOF {
			err = decodeErr(r.def.Info.Key, r.lines.line, err)
		}
		r.err = err
		return nil, err
	}
	return rec, nil
}

// decodeErr wraps err, preferring the position carried by csv parse errors.
func decodeErr(table string, line int, err error) *DecodeError {
	de := &DecodeError{Table: table, Line: line, Err: err}

	var pe *csv.ParseError
	if errors.As(err, &pe) {
		de.Line = pe.Line
	}
	return de
}
