// Package dataset binds raw tabular cells to named fields and turns the bound
// rows into summary records.
package dataset

import (
	"errors"
	"fmt"
	"strings"
)

// Table holds decoded cells exactly as read from a source.
type Table struct {
	Name   string
	Header []string
	Rows   [][]string
}

// Binding modes for Schema.Mode.
const (
	ModePosition = "position"
	ModeName     = "name"
)

// ColumnSpec maps one source column to a field name.
type ColumnSpec struct {
	// Index is the 0-based column position (position mode).
	Index int `yaml:"index" json:"index"`
	// Header is the source header to match (name mode). Empty binds the next
	// unnamed column.
	Header string `yaml:"header,omitempty" json:"header,omitempty"`
	Field  string `yaml:"field" json:"field"`
}

// Schema describes how columns become fields.
type Schema struct {
	Mode string `yaml:"mode" json:"mode"`
	// ExpectColumns, when > 0, is the exact header width required.
	ExpectColumns int          `yaml:"expect_columns,omitempty" json:"expect_columns,omitempty"`
	Columns       []ColumnSpec `yaml:"columns,omitempty" json:"columns,omitempty"`
}

// ErrSchemaMismatch is matched by every SchemaMismatchError.
var ErrSchemaMismatch = errors.New("schema mismatch")

// SchemaMismatchError reports retrieved data that does not fit the schema.
type SchemaMismatchError struct {
	Table  string
	Row    int // 1-based data row, 0 for header problems
	Reason string
}

func (e *SchemaMismatchError) Error() string {
	if e.Row > 0 {
		return fmt.Sprintf("schema mismatch in %s row %d: %s", e.Table, e.Row, e.Reason)
	}
	return fmt.Sprintf("schema mismatch in %s: %s", e.Table, e.Reason)
}

// Is makes errors.Is(err, ErrSchemaMismatch) succeed.
func (e *SchemaMismatchError) Is(target error) bool { return target == ErrSchemaMismatch }

// Frame is a table whose columns have been selected and renamed.
type Frame struct {
	Name   string
	Fields []string
	Rows   [][]string
	index  map[string]int
}

// NewFrame builds a Frame over rows already aligned with fields.
func NewFrame(name string, fields []string, rows [][]string) *Frame {
	f := &Frame{Name: name, Fields: fields, Rows: rows, index: make(map[string]int, len(fields))}
	for i, fl := range fields {
		f.index[strings.ToLower(fl)] = i
	}
	return f
}

// Index returns the position of field, matched case-insensitively.
func (f *Frame) Index(field string) (int, bool) {
	i, ok := f.index[strings.ToLower(strings.TrimSpace(field))]
	return i, ok
}

// Value returns the trimmed cell for field in row i.
func (f *Frame) Value(i int, field string) string {
	j, ok := f.Index(field)
	if !ok || i < 0 || i >= len(f.Rows) || j >= len(f.Rows[i]) {
		return ""
	}
	return strings.TrimSpace(f.Rows[i][j])
}

// Bind validates t against s and returns the renamed, selected frame.
// An empty Columns list keeps every column under a normalized header name.
func Bind(t *Table, s Schema) (*Frame, error) {
	if t == nil {
		return nil, &SchemaMismatchError{Reason: "no table"}
	}
	ncol := len(t.Header)
	if s.ExpectColumns > 0 && ncol != s.ExpectColumns {
		return nil, &SchemaMismatchError{Table: t.Name, Reason: fmt.Sprintf("expected %d columns, got %d", s.ExpectColumns, ncol)}
	}
	idx, fields, err := resolveColumns(t, s)
	if err != nil {
		return nil, err
	}
	rows := make([][]string, 0, len(t.Rows))
	for i, rec := range t.Rows {
		if len(rec) > ncol {
			// trailing empty cells are common in exported sheets
			extra := rec[ncol:]
			if strings.TrimSpace(strings.Join(extra, "")) != "" {
				return nil, &SchemaMismatchError{Table: t.Name, Row: i + 1, Reason: fmt.Sprintf("expected %d cells, got %d", ncol, len(rec))}
			}
		}
		out := make([]string, len(idx))
		for k, j := range idx {
			if j < len(rec) {
				out[k] = strings.TrimSpace(rec[j])
			}
		}
		rows = append(rows, out)
	}
	return NewFrame(t.Name, fields, rows), nil
}

func resolveColumns(t *Table, s Schema) ([]int, []string, error) {
	ncol := len(t.Header)
	if len(s.Columns) == 0 {
		idx := make([]int, ncol)
		fields := make([]string, ncol)
		taken := map[string]int{}
		for i, h := range t.Header {
			idx[i] = i
			name := FieldName(h, i)
			if n := taken[name]; n > 0 {
				// repeated headers become name_2, name_3, ...
				taken[name] = n + 1
				name = fmt.Sprintf("%s_%d", name, n+1)
			} else {
				taken[name] = 1
			}
			fields[i] = name
		}
		return idx, fields, nil
	}
	idx := make([]int, 0, len(s.Columns))
	fields := make([]string, 0, len(s.Columns))
	seen := map[string]bool{}
	used := map[int]bool{}
	for _, c := range s.Columns {
		field := strings.TrimSpace(c.Field)
		if field == "" {
			return nil, nil, &SchemaMismatchError{Table: t.Name, Reason: "column spec without field name"}
		}
		if seen[strings.ToLower(field)] {
			return nil, nil, &SchemaMismatchError{Table: t.Name, Reason: fmt.Sprintf("field %q bound twice", field)}
		}
		seen[strings.ToLower(field)] = true
		var j int
		switch strings.ToLower(s.Mode) {
		case "", ModePosition:
			if c.Index < 0 || c.Index >= ncol {
				return nil, nil, &SchemaMismatchError{Table: t.Name, Reason: fmt.Sprintf("column %d for field %q out of range (%d columns)", c.Index, field, ncol)}
			}
			j = c.Index
		case ModeName:
			found := -1
			want := strings.ToLower(strings.TrimSpace(c.Header))
			for k, h := range t.Header {
				if used[k] {
					continue
				}
				if strings.ToLower(strings.TrimSpace(h)) == want {
					found = k
					break
				}
			}
			if found < 0 {
				if want == "" {
					return nil, nil, &SchemaMismatchError{Table: t.Name, Reason: fmt.Sprintf("no unnamed column left for field %q", field)}
				}
				return nil, nil, &SchemaMismatchError{Table: t.Name, Reason: fmt.Sprintf("header %q not found for field %q", c.Header, field)}
			}
			j = found
		default:
			return nil, nil, &SchemaMismatchError{Table: t.Name, Reason: fmt.Sprintf("unknown schema mode %q", s.Mode)}
		}
		used[j] = true
		idx = append(idx, j)
		fields = append(fields, field)
	}
	return idx, fields, nil
}

// FieldName turns a raw header into a lower snake_case field name. Empty
// headers become col<i+1>.
func FieldName(header string, i int) string {
	var b strings.Builder
	lastUnderscore := false
	for _, r := range strings.ToLower(strings.TrimSpace(header)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastUnderscore = false
		default:
			if b.Len() > 0 && !lastUnderscore {
				b.WriteByte('_')
				lastUnderscore = true
			}
		}
	}
	s := strings.TrimRight(b.String(), "_")
	if s == "" {
		return fmt.Sprintf("col%d", i+1)
	}
	return s
}
