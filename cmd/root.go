package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	cfgpkg "github.com/KaramelBytes/tally-cli/internal/config"
	"github.com/KaramelBytes/tally-cli/internal/logger"
	"github.com/KaramelBytes/tally-cli/internal/source"
	"github.com/spf13/cobra"
)

var (
	cfgFile string
	debug   bool
	// overrides for config values
	flagHTTPTimeoutSec int
	flagLogLevel       string
	flagNoColor        bool

	// Loaded configuration
	cfg *cfgpkg.Global
)

var rootCmd = &cobra.Command{
	Use:   "tally",
	Short: "tally: summarize categorical survey data into ranked shares",
	Long: `tally fetches a tabular dataset (CSV, TSV or XLSX, local or over HTTP),
binds it to a schema, lumps minor categories into "Other", computes each
group's share of a reference total and renders the ranking as a terminal
chart, Markdown, HTML, JSON, CSV or an XLSX workbook.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute is the entry point called by main.main()
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		fmt.Fprintln(os.Stderr, "✗ Error:", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(loadConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.tally/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().IntVar(&flagHTTPTimeoutSec, "http-timeout", 0, "HTTP client timeout in seconds (overrides config)")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "log level: debug|info|warn|error|off (overrides config)")
	rootCmd.PersistentFlags().BoolVar(&flagNoColor, "no-color", false, "disable colored terminal output")
}

func loadConfig() {
	c, err := cfgpkg.Load(cfgFile)
	if err != nil {
		// Non-fatal: fall back to defaults so read-only commands still work
		fmt.Fprintf(os.Stderr, "⚠ Warning: failed to load config: %v\n", err)
		c = defaultConfig()
	}
	cfg = c

	f := rootCmd.PersistentFlags()
	if f.Changed("http-timeout") && flagHTTPTimeoutSec > 0 {
		cfg.HTTPTimeoutSec = flagHTTPTimeoutSec
	}
	if flagNoColor || os.Getenv("NO_COLOR") != "" {
		cfg.Color = false
	}
	level := cfg.LogLevel
	if f.Changed("log-level") && flagLogLevel != "" {
		level = flagLogLevel
	}
	if debug {
		level = "debug"
	}
	logger.Init(level)
	logger.Debug("config loaded (format=%s, timeout=%ds, recipes_dir=%s)", cfg.DefaultFormat, cfg.HTTPTimeoutSec, cfg.RecipesDir)
}

func defaultConfig() *cfgpkg.Global {
	return &cfgpkg.Global{
		HTTPTimeoutSec: 60,
		MaxSourceBytes: 32 << 20,
		DefaultFormat:  "text",
		OtherLabel:     "Other",
		BarWidth:       40,
		Workers:        4,
		LogLevel:       "warn",
	}
}

func currentConfig() *cfgpkg.Global {
	if cfg == nil {
		return defaultConfig()
	}
	return cfg
}

func newFetcher() *source.Fetcher {
	c := currentConfig()
	return source.NewFetcher(time.Duration(c.HTTPTimeoutSec)*time.Second, c.MaxSourceBytes)
}
