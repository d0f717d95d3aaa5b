// Package pipeline runs a recipe end to end: fetch, bind, filter, extract,
// collapse, aggregate, ratio and rank.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/KaramelBytes/tally-cli/internal/dataset"
	"github.com/KaramelBytes/tally-cli/internal/logger"
	"github.com/KaramelBytes/tally-cli/internal/recipe"
	"github.com/KaramelBytes/tally-cli/internal/source"
	"github.com/KaramelBytes/tally-cli/internal/summary"
	"github.com/google/uuid"
)

// ErrNoSource is returned when neither the recipe nor the caller names a source.
var ErrNoSource = errors.New("no source location")

// Options carries run-time inputs that are not part of a recipe.
type Options struct {
	Fetcher *source.Fetcher
	// Source overrides the recipe's source URL or path.
	Source string
}

// Result is the outcome of one run. It is only produced for a run that
// completed every stage.
type Result struct {
	RunID      string
	Recipe     *recipe.Recipe
	Source     string
	SourceName string
	Rows       []summary.RankedRow
	// Totals is the value per category after collapsing.
	Totals     map[string]float64
	GrandTotal float64
	InputRows  int
	KeptRows   int
	Dropped    int
	Warnings   []string
	// Skipped lists categories left out because their reference was zero.
	Skipped []string
	Started time.Time
	Elapsed time.Duration
}

// HasSubgroups reports whether rows are split by subgroup.
func (r *Result) HasSubgroups() bool {
	return r.Recipe != nil && r.Recipe.Record.Subgroup != ""
}

// Run executes rc against its source. Any stage failure aborts the run.
func Run(ctx context.Context, rc *recipe.Recipe, opts Options) (*Result, error) {
	if rc == nil {
		return nil, fmt.Errorf("run: nil recipe")
	}
	start := time.Now()
	res := &Result{RunID: uuid.NewString(), Recipe: rc, Started: start}

	loc := rc.Location()
	if s := strings.TrimSpace(opts.Source); s != "" {
		loc.URL = s
	}
	if loc.URL == "" {
		return nil, fmt.Errorf("recipe %s: %w (set source.url or pass --source)", rc.Name, ErrNoSource)
	}
	res.Source = loc.URL
	nf, err := rc.NumberFormat()
	if err != nil {
		return nil, fmt.Errorf("recipe %s: %w", rc.Name, err)
	}
	f := opts.Fetcher
	if f == nil {
		f = source.NewFetcher(0, 0)
	}

	logger.Debug("run %s: fetching %s", res.RunID, loc.URL)
	tbl, err := source.Load(ctx, f, loc)
	if err != nil {
		return nil, fmt.Errorf("recipe %s: %w", rc.Name, err)
	}
	res.SourceName = tbl.Name
	res.InputRows = len(tbl.Rows)
	logger.Info("loaded %s: %d rows, %d columns", tbl.Name, len(tbl.Rows), len(tbl.Header))

	frame, err := dataset.Bind(tbl, rc.Schema)
	if err != nil {
		return nil, fmt.Errorf("recipe %s: %w", rc.Name, err)
	}
	frame, err = frame.Filter(rc.Filters...)
	if err != nil {
		return nil, fmt.Errorf("recipe %s: %w", rc.Name, err)
	}
	res.KeptRows = len(frame.Rows)
	ex, err := dataset.Records(frame, rc.Record, nf)
	if err != nil {
		return nil, fmt.Errorf("recipe %s: %w", rc.Name, err)
	}
	res.Dropped = ex.Dropped
	res.Warnings = append(res.Warnings, ex.Warnings...)
	logger.Debug("run %s: %d records after filters (%d dropped)", res.RunID, len(ex.Records), ex.Dropped)

	sum, err := Summarize(ex.Records, PlanFor(rc))
	if err != nil {
		return nil, fmt.Errorf("recipe %s: %w", rc.Name, err)
	}
	res.Rows = sum.Rows
	res.Totals = sum.Totals
	res.GrandTotal = sum.GrandTotal
	res.Skipped = sum.Skipped
	for _, c := range sum.Skipped {
		res.Warnings = append(res.Warnings, fmt.Sprintf("category %q skipped: reference total is zero", c))
	}
	if len(ex.Records) == 0 {
		res.Warnings = append(res.Warnings, "no records matched; the summary is empty")
	}
	logger.Debug("run %s: %d warnings", res.RunID, len(res.Warnings))
	res.Elapsed = time.Since(start)
	logger.Info("run %s finished in %s: %d rows", res.RunID, res.Elapsed.Round(time.Millisecond), len(res.Rows))
	return res, nil
}
