// Package render turns a pipeline result into charts and tables.
package render

import (
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strings"

	"github.com/KaramelBytes/tally-cli/internal/pipeline"
	"github.com/KaramelBytes/tally-cli/internal/summary"
	"golang.org/x/term"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Renderer writes one result in a specific output format.
type Renderer interface {
	Format() string
	Render(w io.Writer, res *pipeline.Result) error
}

// Options tune presentation. Zero values pick sensible defaults.
type Options struct {
	// Width is the terminal width for text output; 0 detects it.
	Width int
	// BarWidth caps the length of the longest bar.
	BarWidth int
	Color    bool
	// Vertical forces column charts regardless of the recipe.
	Vertical bool
	// TitleCase forces title-cased labels regardless of the recipe.
	TitleCase bool
	Lang      language.Tag
}

type factory func(Options) Renderer

var registry = map[string]factory{}

func register(format string, f factory) { registry[format] = f }

// Formats lists the supported output formats.
func Formats() []string {
	out := make([]string, 0, len(registry))
	for k := range registry {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// New returns the renderer for format.
func New(format string, opts Options) (Renderer, error) {
	f, ok := registry[strings.ToLower(strings.TrimSpace(format))]
	if !ok {
		return nil, fmt.Errorf("unsupported format %q (supported: %s)", format, strings.Join(Formats(), ", "))
	}
	if opts.Lang == language.Und {
		opts.Lang = language.English
	}
	return f(opts), nil
}

// IsBinary reports whether format produces non-text bytes.
func IsBinary(format string) bool {
	return strings.EqualFold(format, "xlsx")
}

// terminalWidth returns the current terminal width, defaulting to 80.
func terminalWidth() int {
	w, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || w <= 0 {
		return 80
	}
	return w
}

// numbers formats values with locale-aware grouping.
type numbers struct {
	p *message.Printer
}

func newNumbers(tag language.Tag) numbers {
	return numbers{p: message.NewPrinter(tag)}
}

func (n numbers) value(v float64) string {
	if v == math.Trunc(v) && math.Abs(v) < 1e15 {
		return n.p.Sprintf("%d", int64(v))
	}
	return n.p.Sprintf("%.2f", v)
}

func (n numbers) percent(ratio float64) string {
	return n.p.Sprintf("%.1f%%", ratio*100)
}

// labeler applies optional title casing. A cases.Caser is not safe for
// concurrent use, so each render builds its own.
type labeler struct {
	caser *cases.Caser
}

func newLabeler(opts Options, res *pipeline.Result) labeler {
	title := opts.TitleCase
	if res.Recipe != nil && res.Recipe.Chart.TitleCase {
		title = true
	}
	if !title {
		return labeler{}
	}
	c := cases.Title(opts.Lang)
	return labeler{caser: &c}
}

func (l labeler) label(s string) string {
	if l.caser == nil {
		return s
	}
	return l.caser.String(s)
}

// facet is one panel of a chart: all rows of a category when the result has
// subgroups, otherwise every row.
type facet struct {
	Category string
	Total    float64
	Rows     []summary.RankedRow
}

// facets groups rows by category, largest category first. Rows keep rank order.
func facets(res *pipeline.Result) []facet {
	if !res.HasSubgroups() {
		return []facet{{Total: res.GrandTotal, Rows: res.Rows}}
	}
	index := map[string]int{}
	first := map[string]int{}
	var out []facet
	for _, r := range res.Rows {
		pos, ok := index[r.Category]
		if !ok {
			pos = len(out)
			index[r.Category] = pos
			first[r.Category] = r.CategoryFirstSeen
			out = append(out, facet{Category: r.Category, Total: res.Totals[r.Category]})
		}
		out[pos].Rows = append(out[pos].Rows, r)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Total != out[j].Total {
			return out[i].Total > out[j].Total
		}
		return first[out[i].Category] < first[out[j].Category]
	})
	return out
}

func rowLabel(res *pipeline.Result, r summary.RankedRow) string {
	if res.HasSubgroups() {
		return r.Subgroup
	}
	return r.Category
}

func maxRatio(rows []summary.RankedRow) float64 {
	var m float64
	for _, r := range rows {
		if r.Ratio > m {
			m = r.Ratio
		}
	}
	return m
}

func heading(res *pipeline.Result) (title, subtitle, caption string) {
	if res.Recipe == nil {
		return "Summary", "", ""
	}
	return res.Recipe.Title, res.Recipe.Subtitle, res.Recipe.Caption
}

func sourceLine(res *pipeline.Result) string {
	switch {
	case res.SourceName != "" && res.Source != "" && res.SourceName != res.Source:
		return fmt.Sprintf("Source: %s (%s)", res.SourceName, res.Source)
	case res.Source != "":
		return "Source: " + res.Source
	default:
		return ""
	}
}
