package render

import (
	"embed"
	"io"
	"strings"

	"github.com/KaramelBytes/tally-cli/internal/pipeline"
	"github.com/google/safehtml/template"
)

//go:embed templates/*
var templateFS embed.FS

var reportTemplate = template.Must(template.New("report.html").ParseFS(template.TrustedFSFromEmbed(templateFS), "templates/report.html"))

type htmlView struct {
	Title       string
	Subtitle    string
	Caption     string
	Source      string
	Skipped     string
	RunID       string
	LabelHeader string
	Facets      []htmlFacet
}

type htmlFacet struct {
	Heading string
	Total   string
	Rows    []htmlRow
}

type htmlRow struct {
	Rank  int
	Label string
	Bar   string
	Share string
	Value string
	Count int
}

const htmlBarWidth = 30

type htmlRenderer struct {
	opts Options
}

func (h *htmlRenderer) Format() string { return "html" }

func (h *htmlRenderer) Render(w io.Writer, res *pipeline.Result) error {
	return reportTemplate.Execute(w, h.view(res))
}

func (h *htmlRenderer) view(res *pipeline.Result) htmlView {
	nums := newNumbers(h.opts.Lang)
	lab := newLabeler(h.opts, res)
	title, subtitle, caption := heading(res)
	v := htmlView{
		Title:       title,
		Subtitle:    subtitle,
		Caption:     caption,
		Source:      sourceLine(res),
		Skipped:     strings.Join(res.Skipped, ", "),
		RunID:       res.RunID,
		LabelHeader: "Category",
	}
	if res.HasSubgroups() {
		v.LabelHeader = "Subgroup"
	}
	if len(res.Rows) == 0 {
		return v
	}
	top := maxRatio(res.Rows)
	for _, f := range facets(res) {
		hf := htmlFacet{Total: nums.value(f.Total)}
		if res.HasSubgroups() {
			hf.Heading = lab.label(f.Category)
		}
		for _, r := range f.Rows {
			hf.Rows = append(hf.Rows, htmlRow{
				Rank:  r.Rank,
				Label: lab.label(rowLabel(res, r)),
				Bar:   strings.Repeat(barRune, scaled(r.Ratio, top, htmlBarWidth)),
				Share: nums.percent(r.Ratio),
				Value: nums.value(r.Value),
				Count: r.Count,
			})
		}
		v.Facets = append(v.Facets, hf)
	}
	return v
}

func init() {
	register("html", func(o Options) Renderer { return &htmlRenderer{opts: o} })
}
