package render

import (
	"encoding/json"
	"io"
	"time"

	"github.com/KaramelBytes/tally-cli/internal/pipeline"
)

type jsonRow struct {
	Rank     int     `json:"rank"`
	Category string  `json:"category"`
	Subgroup string  `json:"subgroup,omitempty"`
	Value    float64 `json:"value"`
	Count    int     `json:"count"`
	Ratio    float64 `json:"ratio"`
}

type jsonReport struct {
	RunID      string             `json:"run_id"`
	Recipe     string             `json:"recipe,omitempty"`
	Title      string             `json:"title,omitempty"`
	Source     string             `json:"source,omitempty"`
	Reference  string             `json:"reference,omitempty"`
	InputRows  int                `json:"input_rows"`
	KeptRows   int                `json:"kept_rows"`
	Dropped    int                `json:"dropped"`
	GrandTotal float64            `json:"grand_total"`
	Totals     map[string]float64 `json:"totals"`
	Rows       []jsonRow          `json:"rows"`
	Skipped    []string           `json:"skipped,omitempty"`
	Warnings   []string           `json:"warnings,omitempty"`
	StartedAt  time.Time          `json:"started_at"`
	ElapsedMS  int64              `json:"elapsed_ms"`
}

type jsonRenderer struct{}

func (jsonRenderer) Format() string { return "json" }

func (jsonRenderer) Render(w io.Writer, res *pipeline.Result) error {
	rep := jsonReport{
		RunID:      res.RunID,
		Source:     res.Source,
		InputRows:  res.InputRows,
		KeptRows:   res.KeptRows,
		Dropped:    res.Dropped,
		GrandTotal: res.GrandTotal,
		Totals:     res.Totals,
		Rows:       make([]jsonRow, 0, len(res.Rows)),
		Skipped:    res.Skipped,
		Warnings:   res.Warnings,
		StartedAt:  res.Started.UTC(),
		ElapsedMS:  res.Elapsed.Milliseconds(),
	}
	if res.Recipe != nil {
		rep.Recipe = res.Recipe.Name
		rep.Title = res.Recipe.Title
		rep.Reference = res.Recipe.Ratio.Reference
	}
	if rep.Totals == nil {
		rep.Totals = map[string]float64{}
	}
	for _, r := range res.Rows {
		rep.Rows = append(rep.Rows, jsonRow{
			Rank:     r.Rank,
			Category: r.Category,
			Subgroup: r.Subgroup,
			Value:    r.Value,
			Count:    r.Count,
			Ratio:    r.Ratio,
		})
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(rep)
}

func init() {
	register("json", func(Options) Renderer { return jsonRenderer{} })
}
