package cmd

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/KaramelBytes/tally-cli/internal/dataset"
	"github.com/KaramelBytes/tally-cli/internal/pipeline"
	"github.com/KaramelBytes/tally-cli/internal/recipe"
	"github.com/KaramelBytes/tally-cli/internal/source"
	"github.com/KaramelBytes/tally-cli/internal/utils"
	"github.com/spf13/cobra"
)

var (
	sumCategory    string
	sumSubgroup    string
	sumValue       string
	sumWhere       []string
	sumKeep        []string
	sumTop         int
	sumMin         float64
	sumOtherLabel  string
	sumReference   string
	sumOnZero      string
	sumColumns     []string
	sumTitle       string
	sumSaveRecipe  string
	sumDropMissing bool
	sumInput       sourceFlags
	sumRender      renderFlags
)

// sourceFlags describe how to read an ad-hoc source.
type sourceFlags struct {
	format    string
	sheet     string
	delimiter string
	skipRows  int
	decimal   string
	thousands string
}

func (sf *sourceFlags) register(c *cobra.Command) {
	c.Flags().StringVar(&sf.format, "input-format", "", "input format: "+strings.Join(source.Formats(), "|")+" (default: by extension)")
	c.Flags().StringVar(&sf.sheet, "sheet", "", "XLSX: sheet name (default: first sheet)")
	c.Flags().StringVar(&sf.delimiter, "delimiter", "", "CSV delimiter: ',' | ';' | '|' | 'tab'")
	c.Flags().IntVar(&sf.skipRows, "skip-rows", 0, "skip N rows after the header (sub-header rows)")
	c.Flags().StringVar(&sf.decimal, "decimal", "", "decimal separator for numbers: '.'|'comma' (auto-detect if omitted)")
	c.Flags().StringVar(&sf.thousands, "thousands", "", "thousands separator for numbers: ','|'.'|'space' (auto-detect if omitted)")
}

func (sf *sourceFlags) apply(loc string, rc *recipe.Recipe) {
	rc.Source = recipe.Source{URL: loc, Format: sf.format, Sheet: sf.sheet, Delimiter: sf.delimiter, SkipRows: sf.skipRows}
	rc.Numbers = recipe.Numbers{Decimal: sf.decimal, Thousands: sf.thousands}
}

var summarizeCmd = &cobra.Command{
	Use:   "summarize <file|url>",
	Short: "Summarize any table ad hoc, without writing a recipe",
	Example: `  tally summarize survey.csv --category education --subgroup steak_prep --where steak=Yes
  tally summarize religions.tsv --columns religion,followers --category religion --value followers --top 6`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rc, err := buildAdHocRecipe(args[0])
		if err != nil {
			return err
		}
		if sumSaveRecipe != "" {
			b, err := rc.Marshal()
			if err != nil {
				return err
			}
			if err := utils.SafeWriteFile(sumSaveRecipe, b); err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "✓ Saved recipe to %s\n", sumSaveRecipe)
		}
		res, err := pipeline.Run(cmd.Context(), rc, pipeline.Options{Fetcher: newFetcher()})
		if err != nil {
			return err
		}
		printWarnings(cmd, res)
		return emit(cmd, &sumRender, []*pipeline.Result{res})
	},
}

// buildAdHocRecipe turns summarize flags into a recipe. Without --columns,
// every column is kept under its normalized header name, so field references
// are normalized the same way.
func buildAdHocRecipe(loc string) (*recipe.Recipe, error) {
	if strings.TrimSpace(sumCategory) == "" {
		return nil, fmt.Errorf("--category is required")
	}
	field := func(s string) string { return s }
	rc := &recipe.Recipe{Name: adHocName(loc), Title: sumTitle}
	sumInput.apply(loc, rc)
	if len(sumColumns) > 0 {
		rc.Schema = dataset.Schema{Mode: dataset.ModePosition}
		for i, name := range sumColumns {
			name = strings.TrimSpace(name)
			if name == "" || name == "_" || name == "-" {
				continue
			}
			rc.Schema.Columns = append(rc.Schema.Columns, dataset.ColumnSpec{Index: i, Field: name})
		}
	} else {
		rc.Schema = dataset.Schema{Mode: dataset.ModeName}
		field = func(s string) string {
			if s == "" {
				return ""
			}
			return dataset.FieldName(s, 0)
		}
	}
	rc.Record = dataset.RecordSpec{
		Category:            field(sumCategory),
		Subgroup:            field(sumSubgroup),
		Value:               field(sumValue),
		DropMissingSubgroup: sumDropMissing,
	}
	for _, w := range sumWhere {
		flt, err := dataset.ParseFilter(w)
		if err != nil {
			return nil, err
		}
		flt.Field = field(flt.Field)
		rc.Filters = append(rc.Filters, flt)
	}
	rc.Collapse = recipe.Collapse{Keep: sumKeep, TopN: sumTop, MinValue: sumMin, OtherLabel: sumOtherLabel}
	if rc.Collapse.OtherLabel == "" {
		rc.Collapse.OtherLabel = currentConfig().OtherLabel
	}
	rc.Ratio = recipe.Ratio{Reference: sumReference, OnZero: sumOnZero}
	if rc.Title == "" {
		rc.Title = fmt.Sprintf("%s by %s", rc.Record.Category, source.BaseName(loc))
		if rc.Record.Subgroup != "" {
			rc.Title = fmt.Sprintf("%s by %s within %s", rc.Record.Subgroup, rc.Record.Category, source.BaseName(loc))
		}
	}
	rc.ApplyDefaults()
	if err := rc.Validate(); err != nil {
		return nil, err
	}
	return rc, nil
}

func adHocName(loc string) string {
	base := source.BaseName(loc)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	if n := dataset.FieldName(base, 0); n != "col1" {
		return n
	}
	return "summary"
}

func init() {
	rootCmd.AddCommand(summarizeCmd)
	summarizeCmd.Flags().StringVar(&sumCategory, "category", "", "field holding the category (required)")
	summarizeCmd.Flags().StringVar(&sumSubgroup, "subgroup", "", "field holding the subgroup; ratios become shares within each category")
	summarizeCmd.Flags().StringVar(&sumValue, "value", "", "numeric field to sum (default: count rows)")
	summarizeCmd.Flags().BoolVar(&sumDropMissing, "drop-missing-subgroup", true, "drop rows with an empty subgroup")
	summarizeCmd.Flags().StringArrayVar(&sumWhere, "where", nil, "row filter field=v1,v2 | field!=v1 | field!= (repeatable)")
	summarizeCmd.Flags().StringSliceVar(&sumKeep, "keep", nil, "categories that are never lumped (repeatable)")
	summarizeCmd.Flags().IntVar(&sumTop, "top", 0, "keep the N largest categories, lump the rest")
	summarizeCmd.Flags().Float64Var(&sumMin, "min", 0, "keep categories whose total is at least this value")
	summarizeCmd.Flags().StringVar(&sumOtherLabel, "other-label", "", "label for lumped categories (default from config)")
	summarizeCmd.Flags().StringVar(&sumReference, "reference", "", "ratio denominator: category|grand (default: category with --subgroup, else grand)")
	summarizeCmd.Flags().StringVar(&sumOnZero, "on-zero", "", "zero reference total: error|skip (default error)")
	summarizeCmd.Flags().StringSliceVar(&sumColumns, "columns", nil, "bind columns by position to these field names ('_' skips a column)")
	summarizeCmd.Flags().StringVar(&sumTitle, "title", "", "chart title")
	summarizeCmd.Flags().StringVar(&sumSaveRecipe, "save-recipe", "", "also write the equivalent recipe YAML to this path")
	sumInput.register(summarizeCmd)
	sumRender.register(summarizeCmd)
}
