package cmd

import (
	"fmt"
	"strings"

	"github.com/KaramelBytes/tally-cli/internal/pipeline"
	"github.com/KaramelBytes/tally-cli/internal/recipe"
	"github.com/KaramelBytes/tally-cli/internal/summary"
	"github.com/spf13/cobra"
)

var (
	runSource     string
	runTop        int
	runKeep       []string
	runMin        float64
	runOtherLabel string
	runReference  string
	runOnZero     string
	runRender     renderFlags
)

var runCmd = &cobra.Command{
	Use:   "run <recipe|file.yaml>...",
	Short: "Run one or more recipes and render the ranked summary",
	Example: `  tally run steak
  tally run religions --source religions.csv --format markdown
  tally run steak my-recipe.yaml -o out/ --format html`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if runSource != "" && len(args) > 1 {
			return fmt.Errorf("--source can only be used with a single recipe")
		}
		c := currentConfig()
		recipes := make([]*recipe.Recipe, 0, len(args))
		seen := make(map[string]string, len(args))
		for _, ref := range args {
			e, err := recipe.Lookup(ref, c.RecipesDir)
			if err != nil {
				return err
			}
			// output files are named after the recipe
			key := strings.ToLower(e.Recipe.Name)
			if prev, ok := seen[key]; ok {
				return fmt.Errorf("recipe %q given twice (%s, %s)", e.Recipe.Name, prev, ref)
			}
			seen[key] = ref
			rc := *e.Recipe
			if err := applyRunOverrides(cmd, &rc); err != nil {
				return err
			}
			recipes = append(recipes, &rc)
		}

		opts := pipeline.Options{Fetcher: newFetcher(), Source: runSource}
		if len(recipes) == 1 {
			res, err := pipeline.Run(cmd.Context(), recipes[0], opts)
			if err != nil {
				return err
			}
			printWarnings(cmd, res)
			return emit(cmd, &runRender, []*pipeline.Result{res})
		}

		outs, err := pipeline.RunAll(cmd.Context(), recipes, opts, c.Workers)
		if err != nil {
			return err
		}
		var results []*pipeline.Result
		var failed int
		for _, o := range outs {
			if o.Err != nil {
				failed++
				fmt.Fprintf(cmd.ErrOrStderr(), "✗ %s: %v\n", o.Recipe.Name, o.Err)
				continue
			}
			printWarnings(cmd, o.Result)
			results = append(results, o.Result)
		}
		if len(results) > 0 {
			if err := emit(cmd, &runRender, results); err != nil {
				return err
			}
		}
		if failed > 0 {
			return fmt.Errorf("%d of %d recipes failed", failed, len(recipes))
		}
		return nil
	},
}

// applyRunOverrides applies command-line policy flags to a recipe copy.
func applyRunOverrides(cmd *cobra.Command, rc *recipe.Recipe) error {
	fl := cmd.Flags()
	if fl.Changed("top") {
		rc.Collapse.TopN = runTop
	}
	if fl.Changed("keep") {
		rc.Collapse.Keep = runKeep
	}
	if fl.Changed("min") {
		rc.Collapse.MinValue = runMin
	}
	switch {
	case fl.Changed("other-label"):
		rc.Collapse.OtherLabel = runOtherLabel
	case rc.Collapse.OtherLabel == summary.DefaultOtherLabel:
		rc.Collapse.OtherLabel = currentConfig().OtherLabel
	}
	if fl.Changed("reference") {
		rc.Ratio.Reference = runReference
	}
	if fl.Changed("on-zero") {
		rc.Ratio.OnZero = runOnZero
	}
	return rc.Validate()
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().StringVarP(&runSource, "source", "s", "", "override the recipe's source URL or file path")
	runCmd.Flags().IntVar(&runTop, "top", 0, "keep the N largest categories, lump the rest")
	runCmd.Flags().StringSliceVar(&runKeep, "keep", nil, "categories that are never lumped (repeatable)")
	runCmd.Flags().Float64Var(&runMin, "min", 0, "keep categories whose total is at least this value")
	runCmd.Flags().StringVar(&runOtherLabel, "other-label", "", "label for lumped categories (default from recipe/config)")
	runCmd.Flags().StringVar(&runReference, "reference", "", "ratio denominator: category|grand")
	runCmd.Flags().StringVar(&runOnZero, "on-zero", "", "zero reference total: error|skip")
	runRender.register(runCmd)
}
