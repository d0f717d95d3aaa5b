package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/KaramelBytes/tally-cli/internal/pipeline"
)

type markdownRenderer struct {
	opts Options
}

func (m *markdownRenderer) Format() string { return "markdown" }

func (m *markdownRenderer) Render(w io.Writer, res *pipeline.Result) error {
	nums := newNumbers(m.opts.Lang)
	lab := newLabeler(m.opts, res)
	title, subtitle, caption := heading(res)

	var b strings.Builder
	b.WriteString(fmt.Sprintf("# %s\n\n", title))
	if subtitle != "" {
		b.WriteString(fmt.Sprintf("_%s_\n\n", subtitle))
	}
	if res.HasSubgroups() {
		b.WriteString("| Rank | Category | Subgroup | Value | Count | Share |\n")
		b.WriteString("|---:|---|---|---:|---:|---:|\n")
	} else {
		b.WriteString("| Rank | Category | Value | Count | Share |\n")
		b.WriteString("|---:|---|---:|---:|---:|\n")
	}
	for _, r := range res.Rows {
		b.WriteString(fmt.Sprintf("| %d | %s ", r.Rank, mdCell(lab.label(r.Category))))
		if res.HasSubgroups() {
			b.WriteString(fmt.Sprintf("| %s ", mdCell(lab.label(r.Subgroup))))
		}
		b.WriteString(fmt.Sprintf("| %s | %d | %s |\n", nums.value(r.Value), r.Count, nums.percent(r.Ratio)))
	}
	if len(res.Rows) == 0 {
		b.WriteString("\n_No rows._\n")
	}

	b.WriteString("\n")
	if caption != "" {
		b.WriteString(fmt.Sprintf("> %s\n\n", caption))
	}
	if s := sourceLine(res); s != "" {
		b.WriteString(s + "\n")
	}
	if len(res.Skipped) > 0 {
		b.WriteString(fmt.Sprintf("Skipped (zero reference): %s\n", strings.Join(res.Skipped, ", ")))
	}
	if res.RunID != "" {
		b.WriteString(fmt.Sprintf("Run: %s\n", res.RunID))
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// mdCell keeps a value on one line and escapes table pipes.
func mdCell(s string) string {
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.ReplaceAll(s, "|", "\\|")
	if s == "" {
		return "(blank)"
	}
	return s
}

func init() {
	register("markdown", func(o Options) Renderer { return &markdownRenderer{opts: o} })
	register("md", func(o Options) Renderer { return &markdownRenderer{opts: o} })
}
