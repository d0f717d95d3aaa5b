package dataset

import (
	"fmt"
	"strings"
)

// Filter is a row predicate on one field. All set conditions must hold.
// Matching is case-insensitive on trimmed values.
type Filter struct {
	Field    string   `yaml:"field" json:"field"`
	In       []string `yaml:"in,omitempty" json:"in,omitempty"`
	NotIn    []string `yaml:"not_in,omitempty" json:"not_in,omitempty"`
	NotEmpty bool     `yaml:"not_empty,omitempty" json:"not_empty,omitempty"`
}

// ParseFilter reads "field=a,b", "field!=a,b" or "field!=" (not empty).
func ParseFilter(expr string) (Filter, error) {
	s := strings.TrimSpace(expr)
	if i := strings.Index(s, "!="); i > 0 {
		f := Filter{Field: strings.TrimSpace(s[:i])}
		vals := splitValues(s[i+2:])
		if len(vals) == 0 {
			f.NotEmpty = true
		} else {
			f.NotIn = vals
		}
		return f, nil
	}
	if i := strings.Index(s, "="); i > 0 {
		vals := splitValues(s[i+1:])
		if len(vals) == 0 {
			return Filter{}, fmt.Errorf("filter %q: no values after '='", expr)
		}
		return Filter{Field: strings.TrimSpace(s[:i]), In: vals}, nil
	}
	return Filter{}, fmt.Errorf("filter %q: use field=v1,v2 or field!=v1,v2", expr)
}

func splitValues(s string) []string {
	var out []string
	for _, v := range strings.Split(s, ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func containsFold(vals []string, v string) bool {
	for _, x := range vals {
		if strings.EqualFold(strings.TrimSpace(x), v) {
			return true
		}
	}
	return false
}

func (flt Filter) match(v string) bool {
	if flt.NotEmpty && v == "" {
		return false
	}
	if len(flt.In) > 0 && !containsFold(flt.In, v) {
		return false
	}
	if len(flt.NotIn) > 0 && containsFold(flt.NotIn, v) {
		return false
	}
	return true
}

// Filter returns a new frame holding the rows that satisfy every filter.
// Unknown fields are a schema mismatch.
func (f *Frame) Filter(filters ...Filter) (*Frame, error) {
	cols := make([]int, len(filters))
	for k, flt := range filters {
		j, ok := f.Index(flt.Field)
		if !ok {
			return nil, &SchemaMismatchError{Table: f.Name, Reason: fmt.Sprintf("filter on unknown field %q", flt.Field)}
		}
		cols[k] = j
	}
	rows := make([][]string, 0, len(f.Rows))
	for _, row := range f.Rows {
		keep := true
		for k, flt := range filters {
			v := ""
			if cols[k] < len(row) {
				v = strings.TrimSpace(row[cols[k]])
			}
			if !flt.match(v) {
				keep = false
				break
			}
		}
		if keep {
			rows = append(rows, row)
		}
	}
	return NewFrame(f.Name, f.Fields, rows), nil
}
