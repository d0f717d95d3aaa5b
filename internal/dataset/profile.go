package dataset

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"
)

// Profile is a quick look at a table before choosing a schema.
type Profile struct {
	Name    string
	Rows    int
	Columns []ColumnProfile
}

// ColumnProfile captures the inferred kind and a few statistics per column.
type ColumnProfile struct {
	Index   int
	Header  string
	Field   string
	Kind    string // numeric|datetime|categorical|text|empty
	NonNull int
	Missing int
	Unique  int
	Min     float64
	Max     float64
	Mean    float64
	Top     []ValueCount
}

// ValueCount is one categorical value and its frequency.
type ValueCount struct {
	Value string
	Count int
}

const (
	maxTrackedValues = 10000
	maxCategoryLen   = 64
	topValues        = 8
)

// ProfileTable infers a kind per column. A column is categorical when most of
// its non-empty cells are short text tokens.
func ProfileTable(t *Table, nf NumberFormat) *Profile {
	p := &Profile{Name: t.Name, Rows: len(t.Rows)}
	for j, h := range t.Header {
		cp := ColumnProfile{Index: j, Header: strings.TrimSpace(h), Field: FieldName(h, j), Min: math.Inf(1), Max: math.Inf(-1)}
		var numCnt, dtCnt, txtCnt int
		var sum float64
		cats := map[string]int{}
		for _, row := range t.Rows {
			v := ""
			if j < len(row) {
				v = strings.TrimSpace(row[j])
			}
			if v == "" {
				cp.Missing++
				continue
			}
			cp.NonNull++
			if len(cats) < maxTrackedValues && len(v) <= maxCategoryLen {
				cats[v]++
			}
			if x, ok := ParseNumber(v, nf); ok {
				numCnt++
				sum += x
				cp.Min = math.Min(cp.Min, x)
				cp.Max = math.Max(cp.Max, x)
				continue
			}
			if looksLikeTime(v) {
				dtCnt++
				continue
			}
			txtCnt++
		}
		cp.Unique = len(cats)
		switch {
		case cp.NonNull == 0:
			cp.Kind = "empty"
		case numCnt >= dtCnt && numCnt >= txtCnt:
			cp.Kind = "numeric"
			cp.Mean = sum / float64(numCnt)
		case dtCnt >= txtCnt:
			cp.Kind = "datetime"
		case cp.Unique*2 <= cp.NonNull || cp.Unique <= 20:
			cp.Kind = "categorical"
		default:
			cp.Kind = "text"
		}
		if cp.Kind != "numeric" {
			cp.Min, cp.Max = 0, 0
		}
		if cp.Kind == "categorical" {
			cp.Top = topCounts(cats, topValues)
		}
		p.Columns = append(p.Columns, cp)
	}
	return p
}

func topCounts(m map[string]int, n int) []ValueCount {
	out := make([]ValueCount, 0, len(m))
	for k, v := range m {
		out = append(out, ValueCount{Value: k, Count: v})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count == out[j].Count {
			return out[i].Value < out[j].Value
		}
		return out[i].Count > out[j].Count
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}

var timeLayouts = []string{
	time.RFC3339, "2006-01-02", "2006/01/02", "02/01/2006", "01/02/2006",
	"2006-01-02 15:04", "2006-01-02 15:04:05", "1/2/2006 15:04", "1/2/2006 15:04:05",
}

func looksLikeTime(s string) bool {
	for _, l := range timeLayouts {
		if _, err := time.Parse(l, s); err == nil {
			return true
		}
	}
	return false
}

// Markdown renders the profile in the same sectioned layout as reports.
func (p *Profile) Markdown() string {
	var b strings.Builder
	b.WriteString("[DATASET PROFILE]\n")
	if p.Name != "" {
		fmt.Fprintf(&b, "Source: %s\n", p.Name)
	}
	fmt.Fprintf(&b, "Rows: %d\n", p.Rows)
	fmt.Fprintf(&b, "Columns: %d\n\n", len(p.Columns))
	b.WriteString("[COLUMNS]\n")
	for _, c := range p.Columns {
		total := c.NonNull + c.Missing
		missPct := 0.0
		if total > 0 {
			missPct = float64(c.Missing) * 100 / float64(total)
		}
		header := c.Header
		if header == "" {
			header = "(unnamed)"
		}
		fmt.Fprintf(&b, "- #%d %s -> %s: %s (non-null %d, missing %.1f%%)", c.Index, cellSafe(header), c.Field, c.Kind, c.NonNull, missPct)
		switch c.Kind {
		case "numeric":
			fmt.Fprintf(&b, "; min %.4g, max %.4g, mean %.4g", c.Min, c.Max, c.Mean)
		case "categorical":
			if len(c.Top) > 0 {
				b.WriteString("; top: ")
				for i, vc := range c.Top {
					if i > 0 {
						b.WriteString(", ")
					}
					fmt.Fprintf(&b, "%s(%d)", cellSafe(vc.Value), vc.Count)
				}
				if c.Unique > len(c.Top) {
					fmt.Fprintf(&b, "; unique=%d", c.Unique)
				}
			}
		}
		b.WriteString("\n")
	}
	return b.String()
}

func cellSafe(s string) string {
	return strings.ReplaceAll(strings.ReplaceAll(s, "\n", " "), "|", "/")
}
