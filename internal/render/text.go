package render

import (
	"io"
	"math"
	"strings"

	"github.com/KaramelBytes/tally-cli/internal/pipeline"
	"github.com/KaramelBytes/tally-cli/internal/summary"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
)

const (
	barRune         = "█"
	defaultBarWidth = 40
	columnHeight    = 10
	maxColumnWidth  = 12
)

type textStyles struct {
	title, subtitle, facet, bar, muted lipgloss.Style
}

func newTextStyles(w io.Writer, color bool) textStyles {
	if !color {
		plain := lipgloss.NewStyle()
		return textStyles{title: plain, subtitle: plain, facet: plain, bar: plain, muted: plain}
	}
	r := lipgloss.NewRenderer(w)
	return textStyles{
		title:    r.NewStyle().Bold(true).Foreground(lipgloss.Color("39")),
		subtitle: r.NewStyle().Italic(true),
		facet:    r.NewStyle().Bold(true).Underline(true),
		bar:      r.NewStyle().Foreground(lipgloss.Color("214")),
		muted:    r.NewStyle().Foreground(lipgloss.Color("245")),
	}
}

type textRenderer struct {
	opts Options
}

func (t *textRenderer) Format() string { return "text" }

func (t *textRenderer) Render(w io.Writer, res *pipeline.Result) error {
	st := newTextStyles(w, t.opts.Color)
	nums := newNumbers(t.opts.Lang)
	lab := newLabeler(t.opts, res)
	width := t.opts.Width
	if width <= 0 {
		width = terminalWidth()
	}
	vertical := t.opts.Vertical || (res.Recipe != nil && res.Recipe.Chart.Vertical)

	title, subtitle, caption := heading(res)
	var b strings.Builder
	b.WriteString(st.title.Render(title) + "\n")
	if subtitle != "" {
		b.WriteString(st.subtitle.Render(subtitle) + "\n")
	}
	b.WriteString("\n")

	top := maxRatio(res.Rows)
	fs := facets(res)
	if len(res.Rows) == 0 {
		b.WriteString(st.muted.Render("(no data)") + "\n")
	}
	for i, f := range fs {
		if len(res.Rows) == 0 {
			break
		}
		if res.HasSubgroups() {
			if i > 0 {
				b.WriteString("\n")
			}
			b.WriteString(st.facet.Render(lab.label(f.Category)) + st.muted.Render("  n="+nums.value(f.Total)) + "\n")
		}
		var lines []string
		if vertical {
			lines = t.columns(res, f.Rows, top, st, nums, lab)
		} else {
			lines = t.bars(res, f.Rows, top, width, st, nums, lab)
		}
		for _, ln := range lines {
			b.WriteString(ln + "\n")
		}
	}

	b.WriteString("\n")
	if caption != "" {
		b.WriteString(st.muted.Render(caption) + "\n")
	}
	if s := sourceLine(res); s != "" {
		b.WriteString(st.muted.Render(s) + "\n")
	}
	if len(res.Skipped) > 0 {
		b.WriteString(st.muted.Render("Skipped (zero reference): "+strings.Join(res.Skipped, ", ")) + "\n")
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// bars draws one horizontal bar per row, scaled so the largest ratio in the
// whole result spans the full bar width.
func (t *textRenderer) bars(res *pipeline.Result, rows []summary.RankedRow, top float64, width int, st textStyles, nums numbers, lab labeler) []string {
	labelW := 0
	for _, r := range rows {
		if lw := runewidth.StringWidth(lab.label(rowLabel(res, r))); lw > labelW {
			labelW = lw
		}
	}
	if labelW > width/3 {
		labelW = width / 3
	}
	barMax := t.opts.BarWidth
	if barMax <= 0 {
		barMax = defaultBarWidth
	}
	// label, gap, bar, gap, "100.0%", gap, value
	barW := width - labelW - 24
	if barW > barMax {
		barW = barMax
	}
	if barW < 10 {
		barW = 10
	}

	out := make([]string, 0, len(rows))
	for _, r := range rows {
		label := runewidth.FillRight(runewidth.Truncate(lab.label(rowLabel(res, r)), labelW, "…"), labelW)
		n := scaled(r.Ratio, top, barW)
		bar := st.bar.Render(strings.Repeat(barRune, n)) + strings.Repeat(" ", barW-n)
		pct := runewidth.FillLeft(nums.percent(r.Ratio), 6)
		out = append(out, label+"  "+bar+"  "+pct+"  "+st.muted.Render(nums.value(r.Value)))
	}
	return out
}

// columns draws vertical bars side by side with labels underneath.
func (t *textRenderer) columns(res *pipeline.Result, rows []summary.RankedRow, top float64, st textStyles, nums numbers, lab labeler) []string {
	colW := 6
	for _, r := range rows {
		if lw := runewidth.StringWidth(lab.label(rowLabel(res, r))) + 1; lw > colW {
			colW = lw
		}
	}
	if colW > maxColumnWidth {
		colW = maxColumnWidth
	}
	heights := make([]int, len(rows))
	for i, r := range rows {
		heights[i] = scaled(r.Ratio, top, columnHeight)
	}

	var out []string
	for level := columnHeight; level >= 1; level-- {
		var ln strings.Builder
		for _, h := range heights {
			if h >= level {
				ln.WriteString(st.bar.Render(strings.Repeat(barRune, colW-1)) + " ")
			} else {
				ln.WriteString(strings.Repeat(" ", colW))
			}
		}
		if s := strings.TrimRight(ln.String(), " "); s != "" {
			out = append(out, s)
		}
	}
	var pct, labels strings.Builder
	for _, r := range rows {
		pct.WriteString(runewidth.FillRight(nums.percent(r.Ratio), colW))
		labels.WriteString(runewidth.FillRight(runewidth.Truncate(lab.label(rowLabel(res, r)), colW-1, "…"), colW))
	}
	out = append(out, strings.TrimRight(pct.String(), " "), strings.TrimRight(labels.String(), " "))
	return out
}

// scaled maps ratio onto [0, size], keeping any non-zero ratio visible.
func scaled(ratio, top float64, size int) int {
	if top <= 0 || ratio <= 0 {
		return 0
	}
	n := int(math.Round(ratio / top * float64(size)))
	if n < 1 {
		n = 1
	}
	if n > size {
		n = size
	}
	return n
}

func init() {
	register("text", func(o Options) Renderer { return &textRenderer{opts: o} })
}
