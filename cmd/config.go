package cmd

import (
	"fmt"
	"strconv"
	"strings"

	cfgpkg "github.com/KaramelBytes/tally-cli/internal/config"
	"github.com/KaramelBytes/tally-cli/internal/render"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or set tally configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		c := currentConfig()
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "http_timeout_sec: %d\n", c.HTTPTimeoutSec)
		fmt.Fprintf(out, "max_source_bytes: %d (%s)\n", c.MaxSourceBytes, humanize.IBytes(uint64(c.MaxSourceBytes)))
		fmt.Fprintf(out, "default_format: %s\n", c.DefaultFormat)
		fmt.Fprintf(out, "other_label: %s\n", c.OtherLabel)
		fmt.Fprintf(out, "color: %t\n", c.Color)
		fmt.Fprintf(out, "bar_width: %d\n", c.BarWidth)
		fmt.Fprintf(out, "title_case: %t\n", c.TitleCase)
		fmt.Fprintf(out, "recipes_dir: %s\n", c.RecipesDir)
		fmt.Fprintf(out, "workers: %d\n", c.Workers)
		fmt.Fprintf(out, "log_level: %s\n", c.LogLevel)
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a config value and save to disk",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, val := args[0], args[1]
		// start from the file, not from flag overrides
		c, err := cfgpkg.Load(cfgFile)
		if err != nil {
			return err
		}
		switch key {
		case "http_timeout_sec":
			i, err := strconv.Atoi(val)
			if err != nil || i <= 0 {
				return fmt.Errorf("invalid int for http_timeout_sec: %v", val)
			}
			c.HTTPTimeoutSec = i
		case "max_source_bytes":
			n, err := humanize.ParseBytes(val)
			if err != nil || n == 0 {
				return fmt.Errorf("invalid size for max_source_bytes: %v (e.g. 64MiB)", val)
			}
			c.MaxSourceBytes = int64(n)
		case "default_format":
			if _, err := render.New(val, render.Options{}); err != nil {
				return err
			}
			c.DefaultFormat = strings.ToLower(val)
		case "other_label":
			c.OtherLabel = val
		case "color":
			b, err := strconv.ParseBool(val)
			if err != nil {
				return fmt.Errorf("invalid bool for color: %v", val)
			}
			c.Color = b
		case "bar_width":
			i, err := strconv.Atoi(val)
			if err != nil {
				return fmt.Errorf("invalid int for bar_width: %w", err)
			}
			c.BarWidth = i
		case "title_case":
			b, err := strconv.ParseBool(val)
			if err != nil {
				return fmt.Errorf("invalid bool for title_case: %v", val)
			}
			c.TitleCase = b
		case "recipes_dir":
			c.RecipesDir = val
		case "workers":
			i, err := strconv.Atoi(val)
			if err != nil {
				return fmt.Errorf("invalid int for workers: %w", err)
			}
			c.Workers = i
		case "log_level":
			c.LogLevel = strings.ToLower(val)
		default:
			return fmt.Errorf("unknown key: %s", key)
		}
		if err := cfgpkg.Save(c, cfgFile); err != nil {
			return err
		}
		cfg = c
		fmt.Fprintln(cmd.OutOrStdout(), "Saved config")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}
