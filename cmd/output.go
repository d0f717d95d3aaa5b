package cmd

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/KaramelBytes/tally-cli/internal/pipeline"
	"github.com/KaramelBytes/tally-cli/internal/render"
	"github.com/KaramelBytes/tally-cli/internal/utils"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// renderFlags are shared by every command that prints a summary.
type renderFlags struct {
	format    string
	output    string
	width     int
	vertical  bool
	titleCase bool
}

func (rf *renderFlags) register(c *cobra.Command) {
	c.Flags().StringVarP(&rf.format, "format", "f", "", "output format: "+strings.Join(render.Formats(), "|")+" (default from config)")
	c.Flags().StringVarP(&rf.output, "output", "o", "", "write to this file (or directory when running several recipes)")
	c.Flags().IntVar(&rf.width, "width", 0, "chart width in columns (default: terminal width)")
	c.Flags().BoolVar(&rf.vertical, "vertical", false, "draw vertical columns instead of horizontal bars")
	c.Flags().BoolVar(&rf.titleCase, "title-case", false, "title-case category and subgroup labels")
}

func (rf *renderFlags) resolvedFormat() string {
	if rf.format != "" {
		return strings.ToLower(rf.format)
	}
	return currentConfig().DefaultFormat
}

func (rf *renderFlags) options() render.Options {
	c := currentConfig()
	return render.Options{
		Width:     rf.width,
		BarWidth:  c.BarWidth,
		Color:     c.Color && rf.output == "" && term.IsTerminal(int(os.Stdout.Fd())),
		Vertical:  rf.vertical,
		TitleCase: rf.titleCase || c.TitleCase,
	}
}

var formatExt = map[string]string{
	"text":     ".txt",
	"markdown": ".md",
	"md":       ".md",
	"html":     ".html",
	"json":     ".json",
	"csv":      ".csv",
	"xlsx":     ".xlsx",
}

// emit renders results to stdout, a single file, or one file per result
// inside a directory.
func emit(cmd *cobra.Command, rf *renderFlags, results []*pipeline.Result) error {
	format := rf.resolvedFormat()
	r, err := render.New(format, rf.options())
	if err != nil {
		return err
	}
	if rf.output == "" {
		if render.IsBinary(format) {
			return fmt.Errorf("format %s is binary; use --output", format)
		}
		out := cmd.OutOrStdout()
		for i, res := range results {
			if i > 0 {
				fmt.Fprintln(out)
			}
			if err := r.Render(out, res); err != nil {
				return fmt.Errorf("render %s: %w", format, err)
			}
		}
		return nil
	}

	toDir := len(results) > 1 || utils.IsDir(rf.output) || strings.HasSuffix(rf.output, string(os.PathSeparator))
	for _, res := range results {
		var buf bytes.Buffer
		if err := r.Render(&buf, res); err != nil {
			return fmt.Errorf("render %s: %w", format, err)
		}
		path := rf.output
		if toDir {
			path = filepath.Join(rf.output, res.Recipe.Name+formatExt[format])
		}
		if err := utils.SafeWriteFile(path, buf.Bytes()); err != nil {
			return fmt.Errorf("write output: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Wrote %s (%d rows) to %s\n", format, len(res.Rows), path)
	}
	return nil
}

func printWarnings(cmd *cobra.Command, res *pipeline.Result) {
	for _, w := range res.Warnings {
		fmt.Fprintf(cmd.ErrOrStderr(), "⚠ Warning: %s: %s\n", res.Recipe.Name, w)
	}
}
