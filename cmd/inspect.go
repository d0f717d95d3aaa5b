package cmd

import (
	"fmt"

	"github.com/KaramelBytes/tally-cli/internal/dataset"
	"github.com/KaramelBytes/tally-cli/internal/recipe"
	"github.com/KaramelBytes/tally-cli/internal/source"
	"github.com/KaramelBytes/tally-cli/internal/utils"
	"github.com/spf13/cobra"
)

var (
	inspInput  sourceFlags
	inspOutput string
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <file|url>",
	Short: "Profile a table's columns to help write a schema or recipe",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var rc recipe.Recipe
		inspInput.apply(args[0], &rc)
		if _, err := recipe.ParseDelimiter(rc.Source.Delimiter); err != nil {
			return fmt.Errorf("--delimiter: %w", err)
		}
		nf, err := rc.NumberFormat()
		if err != nil {
			return err
		}
		tbl, err := source.Load(cmd.Context(), newFetcher(), rc.Location())
		if err != nil {
			return err
		}
		md := dataset.ProfileTable(tbl, nf).Markdown()
		if inspOutput != "" {
			if err := utils.SafeWriteFile(inspOutput, []byte(md)); err != nil {
				return fmt.Errorf("write output: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Wrote profile to %s\n", inspOutput)
			return nil
		}
		fmt.Fprint(cmd.OutOrStdout(), md)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(inspectCmd)
	inspectCmd.Flags().StringVarP(&inspOutput, "output", "o", "", "optional path to write the profile (Markdown)")
	inspInput.register(inspectCmd)
}
