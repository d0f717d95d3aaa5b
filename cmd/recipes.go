package cmd

import (
	"fmt"

	"github.com/KaramelBytes/tally-cli/internal/recipe"
	"github.com/spf13/cobra"
)

var recipesCmd = &cobra.Command{
	Use:   "recipes",
	Short: "List or show available recipes",
}

var recipesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List built-in recipes and those in recipes_dir",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		entries, skipped, err := recipe.List(currentConfig().RecipesDir)
		if err != nil {
			return err
		}
		for _, e := range skipped {
			fmt.Fprintf(cmd.ErrOrStderr(), "⚠ Warning: skipped recipe: %v\n", e)
		}
		out := cmd.OutOrStdout()
		for _, e := range entries {
			src := e.Recipe.Source.URL
			if src == "" {
				src = "(needs --source)"
			}
			fmt.Fprintf(out, "- %s: %s [%s] %s\n", e.Name, e.Title, e.Origin, src)
		}
		return nil
	},
}

var recipesShowCmd = &cobra.Command{
	Use:   "show <recipe|file.yaml>",
	Short: "Print a recipe as YAML (a starting point for your own)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := recipe.Lookup(args[0], currentConfig().RecipesDir)
		if err != nil {
			return err
		}
		b, err := e.Recipe.Marshal()
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "# origin: %s\n%s", e.Origin, b)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(recipesCmd)
	recipesCmd.AddCommand(recipesListCmd)
	recipesCmd.AddCommand(recipesShowCmd)
}
