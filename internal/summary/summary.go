// Package summary implements categorical summarization: collapsing rare
// categories, grouped aggregation, ratio derivation and ranking.
//
// Every function is pure. Inputs are never modified and each call returns a
// freshly allocated result.
package summary

import (
	"sort"
)

// DefaultOtherLabel names the synthetic bucket for collapsed categories.
const DefaultOtherLabel = "Other"

// Record is one cleaned input row.
type Record struct {
	Category string
	// Subgroup is optional; an empty string means the record has none.
	Subgroup string
	// Value is an explicit magnitude, or 1 when rows are being counted.
	Value float64
}

// KeySet is a set of category labels kept as-is by Collapse.
type KeySet map[string]struct{}

// NewKeySet builds a KeySet from labels.
func NewKeySet(labels ...string) KeySet {
	k := make(KeySet, len(labels))
	for _, l := range labels {
		k[l] = struct{}{}
	}
	return k
}

// Has reports whether label is in the set.
func (k KeySet) Has(label string) bool {
	_, ok := k[label]
	return ok
}

// Union returns a new set holding the labels of k and every other set.
func (k KeySet) Union(others ...KeySet) KeySet {
	out := make(KeySet, len(k))
	for l := range k {
		out[l] = struct{}{}
	}
	for _, o := range others {
		for l := range o {
			out[l] = struct{}{}
		}
	}
	return out
}

// Labels returns the members in lexical order.
func (k KeySet) Labels() []string {
	out := make([]string, 0, len(k))
	for l := range k {
		out = append(out, l)
	}
	sort.Strings(out)
	return out
}

// AggregateRow is the total for one (category[, subgroup]) group.
type AggregateRow struct {
	Category string
	Subgroup string
	Value    float64
	Count    int
	// FirstSeen is the input position of the first record in this group.
	FirstSeen int
	// CategoryFirstSeen is the input position of the first record with this category.
	CategoryFirstSeen int
}

// RankedRow is an AggregateRow with its ratio to a reference total and its
// 1-based rank. Rank is zero until RankDescending assigns it.
type RankedRow struct {
	AggregateRow
	Ratio float64
	Rank  int
}

// Collapse rewrites the category of every record not in keep to otherLabel.
// One output record is produced per input record, in input order.
func Collapse(records []Record, keep KeySet, otherLabel string) []Record {
	out := make([]Record, len(records))
	for i, r := range records {
		if !keep.Has(r.Category) {
			r.Category = otherLabel
		}
		out[i] = r
	}
	return out
}

type groupKey struct {
	category string
	subgroup string
}

// GroupAndAggregate sums values and counts records per category, and per
// subgroup as well when bySubgroup is set. Rows are returned in order of the
// first record of each group.
func GroupAndAggregate(records []Record, bySubgroup bool) []AggregateRow {
	var out []AggregateRow
	index := make(map[groupKey]int)
	catFirst := make(map[string]int)
	for i, r := range records {
		if _, ok := catFirst[r.Category]; !ok {
			catFirst[r.Category] = i
		}
		k := groupKey{category: r.Category}
		if bySubgroup {
			k.subgroup = r.Subgroup
		}
		pos, ok := index[k]
		if !ok {
			pos = len(out)
			index[k] = pos
			out = append(out, AggregateRow{
				Category:          k.category,
				Subgroup:          k.subgroup,
				FirstSeen:         i,
				CategoryFirstSeen: catFirst[r.Category],
			})
		}
		out[pos].Value += r.Value
		out[pos].Count++
	}
	return out
}

// categoryTotals folds rows to one row per category, preserving first-seen order.
func categoryTotals(rows []AggregateRow) []AggregateRow {
	var out []AggregateRow
	index := make(map[string]int)
	for _, r := range rows {
		pos, ok := index[r.Category]
		if !ok {
			pos = len(out)
			index[r.Category] = pos
			out = append(out, AggregateRow{
				Category:          r.Category,
				FirstSeen:         r.CategoryFirstSeen,
				CategoryFirstSeen: r.CategoryFirstSeen,
			})
		}
		out[pos].Value += r.Value
		out[pos].Count += r.Count
	}
	return out
}

// TopKeys returns the n categories with the largest total value. Ties go to
// the category seen first. n <= 0 yields an empty set.
func TopKeys(rows []AggregateRow, n int) KeySet {
	if n <= 0 {
		return KeySet{}
	}
	cats := categoryTotals(rows)
	sort.SliceStable(cats, func(i, j int) bool {
		if cats[i].Value == cats[j].Value {
			return cats[i].CategoryFirstSeen < cats[j].CategoryFirstSeen
		}
		return cats[i].Value > cats[j].Value
	})
	if len(cats) > n {
		cats = cats[:n]
	}
	keep := make(KeySet, len(cats))
	for _, c := range cats {
		keep[c.Category] = struct{}{}
	}
	return keep
}

// KeysAtLeast returns the categories whose total value is at least min.
func KeysAtLeast(rows []AggregateRow, min float64) KeySet {
	keep := KeySet{}
	for _, c := range categoryTotals(rows) {
		if c.Value >= min {
			keep[c.Category] = struct{}{}
		}
	}
	return keep
}
