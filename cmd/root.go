// Package cmd implements the fieldsift command-line interface.
package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"

	"github.com/go-logr/logr"
	"github.com/spf13/cobra"

	"github.com/zhizhunbao/fieldsift/internal/columns"
	"github.com/zhizhunbao/fieldsift/internal/config"
	"github.com/zhizhunbao/fieldsift/internal/formatter"
	"github.com/zhizhunbao/fieldsift/internal/ui"
	"github.com/zhizhunbao/fieldsift/pkg/loader"
	"github.com/zhizhunbao/fieldsift/pkg/logger"
	"github.com/zhizhunbao/fieldsift/pkg/search"
	"github.com/zhizhunbao/fieldsift/pkg/settings"
)

// errShowHelp is returned by loadInput when no input is provided and help
// should be shown instead of an error.
var errShowHelp = errors.New("no input provided")

var (
	keyword     string
	columnsFile string
	perField    bool
	interactive bool
	output      string
	noColor     bool
	limitFlag   int
	logLevel    int8
	configFile  string
	debounceMs  int
	placeholder string
	autoFocus   bool

	rootCtx context.Context
)

var rootCmd = &cobra.Command{
	Use:   settings.CliBinaryName + " [file]",
	Short: "Filter record collections by keyword across all fields",
	Long: `fieldsift loads a collection of records (JSON, NDJSON, YAML, or TOML)
and filters it by a keyword matched against the searchable text of every
field. Column definitions with render expressions control which text is
searchable. Run with -i for an interactive, debounced filter view.`,
	Example: "\n  fieldsift members.json -k kim\n  fieldsift members.yaml --columns cols.yaml -k approved\n  cat members.ndjson | fieldsift -k seoul -o json\n  fieldsift members.json -i\n",
	Args:    cobra.MaximumNArgs(1),
	Version: cliVersionString(),
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		lgr := logger.Get(logLevel)
		lgr = logger.WithValues(lgr, "command", settings.CliBinaryName, "subcommand", cmd.Name())
		rootCtx = logger.WithLogger(context.Background(), lgr)

		params := settings.NewCliParams()
		params.MinLogLevel = logLevel
		params.NoColor = noColor
		params.Interactive = interactive
		if len(args) > 0 {
			params.InputPath = args[0]
		}
		rootCtx = settings.IntoContext(rootCtx, params)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		lgr := logger.FromContext(rootCtx)
		params, ok := settings.FromContext(rootCtx)
		if !ok {
			params = settings.NewCliParams()
		}

		cfg, err := resolveConfig(cmd)
		if err != nil {
			return err
		}
		if err := validateOutput(output); err != nil {
			return err
		}

		records, err := loadInput(args, *lgr)
		if errors.Is(err, errShowHelp) {
			return cmd.Help()
		}
		if err != nil {
			return err
		}

		var cols []search.Column
		if columnsFile != "" {
			cols, err = columns.Load(columnsFile)
			if err != nil {
				return fmt.Errorf("failed to load columns file: %w", err)
			}
		}

		if params.Interactive {
			filtered, err := ui.Run(records, cols, cfg, params.NoColor)
			if err != nil {
				return fmt.Errorf("interactive mode failed: %w", err)
			}
			return writeRecords(cmd.OutOrStdout(), filtered, cols, cfg)
		}

		var filtered []search.Record
		if cfg.PerField {
			filtered = search.FilterPerField(records, keyword, cols)
		} else {
			filtered = search.Filter(records, keyword, cols)
		}
		lgr.V(1).Info("filtered records", "total", len(records), "matched", len(filtered))
		return writeRecords(cmd.OutOrStdout(), filtered, cols, cfg)
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print fieldsift version",
	RunE: func(_ *cobra.Command, _ []string) error {
		fmt.Println(cliVersionString()) //nolint:forbidigo
		return nil
	},
}

// resolveConfig merges the config file with command-line flags. Flags
// that were explicitly set win over file values, which win over the
// built-in defaults.
func resolveConfig(cmd *cobra.Command) (config.Config, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return config.Config{}, fmt.Errorf("failed to load config: %w", err)
	}

	flags := cmd.Flags()
	if flags.Changed("debounce-ms") {
		if debounceMs < 0 {
			return config.Config{}, fmt.Errorf("--debounce-ms must not be negative")
		}
		cfg.DebounceMs = &debounceMs
	}
	if flags.Changed("placeholder") {
		cfg.Placeholder = placeholder
	}
	if flags.Changed("auto-focus") {
		cfg.AutoFocus = &autoFocus
	}
	if flags.Changed("no-color") {
		cfg.NoColor = noColor
	}
	if flags.Changed("limit") {
		if limitFlag < 0 {
			return config.Config{}, fmt.Errorf("--limit must not be negative")
		}
		cfg.ResultLimit = limitFlag
	}
	if flags.Changed("per-field") {
		cfg.PerField = perField
	}
	return cfg, nil
}

func validateOutput(format string) error {
	switch format {
	case "table", "json", "ndjson":
		return nil
	}
	return fmt.Errorf("invalid --output value %q (expected 'table', 'json', or 'ndjson')", format)
}

// loadInput reads records from the file argument or stdin.
func loadInput(args []string, lgr logr.Logger) ([]search.Record, error) {
	if len(args) > 0 {
		return loader.LoadRecordsFile(args[0], lgr)
	}

	stat, _ := os.Stdin.Stat()
	if (stat.Mode() & os.ModeCharDevice) != 0 {
		return nil, errShowHelp
	}
	return loader.LoadRecordsReader(os.Stdin, lgr)
}

// writeRecords renders the filtered set in the selected output format.
func writeRecords(w io.Writer, records []search.Record, cols []search.Column, cfg config.Config) error {
	if cfg.ResultLimit > 0 && len(records) > cfg.ResultLimit {
		records = records[:cfg.ResultLimit]
	}

	switch output {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(records)
	case "ndjson":
		enc := json.NewEncoder(w)
		for _, rec := range records {
			if err := enc.Encode(rec); err != nil {
				return err
			}
		}
		return nil
	default:
		width := formatter.DetectTerminalWidth()
		_, err := fmt.Fprintln(w, strings.TrimRight(formatter.RenderRecords(records, cols, cfg.NoColor, width), "\n"))
		return err
	}
}

// cliVersionString builds a human-readable version string for CLI output
// and Cobra's --version flag.
func cliVersionString() string {
	return fmt.Sprintf("%s %s (commit %s, built %s, go %s)",
		settings.CliBinaryName,
		settings.VersionInformation.BuildVersion,
		settings.VersionInformation.Commit,
		settings.VersionInformation.BuildTime,
		runtime.Version())
}

func init() {
	rootCmd.Flags().StringVarP(&keyword, "keyword", "k", "", "keyword to filter records by (matched across all searchable text)")
	rootCmd.Flags().StringVar(&columnsFile, "columns", "", "path to a YAML columns file (key, label, render expression)")
	rootCmd.Flags().BoolVar(&perField, "per-field", false, "match the keyword against each field independently instead of the joined text")
	rootCmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "start the interactive filter view")
	rootCmd.Flags().StringVarP(&output, "output", "o", "table", "output format: table|json|ndjson")
	rootCmd.Flags().BoolVar(&noColor, "no-color", false, "disable color output")
	rootCmd.Flags().IntVar(&limitFlag, "limit", 0, "limit the number of records printed or shown (0 = unlimited)")
	rootCmd.Flags().Int8Var(&logLevel, "log-level", 0, "minimum log level (negative values enable debug output)")
	rootCmd.Flags().StringVar(&configFile, "config", "", "path to a YAML config file")
	rootCmd.Flags().IntVar(&debounceMs, "debounce-ms", config.DefaultDebounceMs, "debounce delay for interactive filtering, in milliseconds")
	rootCmd.Flags().StringVar(&placeholder, "placeholder", config.DefaultPlaceholder, "placeholder text for the interactive search input")
	rootCmd.Flags().BoolVar(&autoFocus, "auto-focus", true, "focus the search input on interactive startup")

	rootCmd.AddCommand(versionCmd)
	rootCmd.SilenceUsage = true
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
