package summary

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

// ErrDivisionUndefined is matched by every DivisionUndefinedError.
var ErrDivisionUndefined = errors.New("division undefined")

// DivisionUndefinedError reports a category whose reference total is zero or
// absent, so its ratio cannot be computed.
type DivisionUndefinedError struct {
	Category  string
	Reference float64
	Missing   bool
}

func (e *DivisionUndefinedError) Error() string {
	if e.Missing {
		return fmt.Sprintf("division undefined: no reference total for category %q", e.Category)
	}
	return fmt.Sprintf("division undefined: reference total for category %q is %g", e.Category, e.Reference)
}

// Is makes errors.Is(err, ErrDivisionUndefined) succeed.
func (e *DivisionUndefinedError) Is(target error) bool { return target == ErrDivisionUndefined }

// CategoryTotals maps each category to its value summed across subgroups.
func CategoryTotals(rows []AggregateRow) map[string]float64 {
	out := make(map[string]float64)
	for _, r := range rows {
		out[r.Category] += r.Value
	}
	return out
}

// GrandTotals maps every category to the sum of all row values.
func GrandTotals(rows []AggregateRow) map[string]float64 {
	var total float64
	for _, r := range rows {
		total += r.Value
	}
	out := make(map[string]float64)
	for _, r := range rows {
		out[r.Category] = total
	}
	return out
}

func ratioFor(r AggregateRow, reference map[string]float64) (float64, error) {
	ref, ok := reference[r.Category]
	if !ok {
		return 0, &DivisionUndefinedError{Category: r.Category, Missing: true}
	}
	if ref == 0 || math.IsNaN(ref) {
		return 0, &DivisionUndefinedError{Category: r.Category, Reference: ref}
	}
	ratio := r.Value / ref
	if math.IsNaN(ratio) || math.IsInf(ratio, 0) {
		return 0, &DivisionUndefinedError{Category: r.Category, Reference: ref}
	}
	return ratio, nil
}

// ComputeRatios divides each row's value by the reference total of its
// category. The first row whose reference is zero or missing fails the whole
// call with a *DivisionUndefinedError.
func ComputeRatios(rows []AggregateRow, reference map[string]float64) ([]RankedRow, error) {
	out := make([]RankedRow, 0, len(rows))
	for _, r := range rows {
		ratio, err := ratioFor(r, reference)
		if err != nil {
			return nil, err
		}
		out = append(out, RankedRow{AggregateRow: r, Ratio: ratio})
	}
	return out, nil
}

// ComputeRatiosSkipping is ComputeRatios for callers that drop undefined
// categories instead of failing. Skipped categories are returned once each,
// in first-seen order.
func ComputeRatiosSkipping(rows []AggregateRow, reference map[string]float64) ([]RankedRow, []string) {
	out := make([]RankedRow, 0, len(rows))
	var skipped []string
	seen := make(map[string]bool)
	for _, r := range rows {
		ratio, err := ratioFor(r, reference)
		if err != nil {
			if !seen[r.Category] {
				seen[r.Category] = true
				skipped = append(skipped, r.Category)
			}
			continue
		}
		out = append(out, RankedRow{AggregateRow: r, Ratio: ratio})
	}
	return out, skipped
}

// RankDescending orders rows by ratio, largest first, and assigns ranks from 1.
// Equal ratios keep the order in which their categories, then their groups,
// first appeared in the input.
func RankDescending(rows []RankedRow) []RankedRow {
	out := make([]RankedRow, len(rows))
	copy(out, rows)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Ratio != b.Ratio {
			return a.Ratio > b.Ratio
		}
		if a.CategoryFirstSeen != b.CategoryFirstSeen {
			return a.CategoryFirstSeen < b.CategoryFirstSeen
		}
		return a.FirstSeen < b.FirstSeen
	})
	for i := range out {
		out[i].Rank = i + 1
	}
	return out
}
