package pipeline

import (
	"fmt"

	"github.com/KaramelBytes/tally-cli/internal/recipe"
	"github.com/KaramelBytes/tally-cli/internal/summary"
)

// Plan is the pure summarization step of a recipe.
type Plan struct {
	Keep       []string
	TopN       int
	MinValue   float64
	OtherLabel string
	BySubgroup bool
	Reference  string
	OnZero     string
}

// PlanFor derives the plan from a recipe.
func PlanFor(rc *recipe.Recipe) Plan {
	return Plan{
		Keep:       rc.Collapse.Keep,
		TopN:       rc.Collapse.TopN,
		MinValue:   rc.Collapse.MinValue,
		OtherLabel: rc.Collapse.OtherLabel,
		BySubgroup: rc.Record.Subgroup != "",
		Reference:  rc.Ratio.Reference,
		OnZero:     rc.Ratio.OnZero,
	}
}

func (p Plan) collapses() bool {
	return len(p.Keep) > 0 || p.TopN > 0 || p.MinValue > 0
}

// Summary is the ranked outcome of Summarize.
type Summary struct {
	Rows       []summary.RankedRow
	Totals     map[string]float64
	GrandTotal float64
	Skipped    []string
}

// Summarize collapses minor categories, aggregates, divides by the planned
// reference and ranks. Records are not modified.
func Summarize(records []summary.Record, p Plan) (*Summary, error) {
	if p.collapses() {
		label := p.OtherLabel
		if label == "" {
			label = summary.DefaultOtherLabel
		}
		pre := summary.GroupAndAggregate(records, false)
		keep := summary.NewKeySet(p.Keep...).Union(summary.TopKeys(pre, p.TopN))
		if p.MinValue > 0 {
			keep = keep.Union(summary.KeysAtLeast(pre, p.MinValue))
		}
		records = summary.Collapse(records, keep, label)
	}

	rows := summary.GroupAndAggregate(records, p.BySubgroup)
	var reference map[string]float64
	switch p.Reference {
	case recipe.ReferenceCategory, "":
		reference = summary.CategoryTotals(rows)
	case recipe.ReferenceGrand:
		reference = summary.GrandTotals(rows)
	default:
		return nil, fmt.Errorf("unknown ratio reference %q", p.Reference)
	}

	out := &Summary{Totals: summary.CategoryTotals(rows)}
	for _, r := range rows {
		out.GrandTotal += r.Value
	}
	var ranked []summary.RankedRow
	switch p.OnZero {
	case recipe.OnZeroSkip:
		ranked, out.Skipped = summary.ComputeRatiosSkipping(rows, reference)
	case recipe.OnZeroError, "":
		var err error
		ranked, err = summary.ComputeRatios(rows, reference)
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unknown on_zero policy %q", p.OnZero)
	}
	out.Rows = summary.RankDescending(ranked)
	return out, nil
}
