// Package main provides the CLI entrypoint for worklog.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/verte-zerg/worklog/internal/config"
	"github.com/verte-zerg/worklog/internal/csvlog"
	"github.com/verte-zerg/worklog/internal/logfile"
	"github.com/verte-zerg/worklog/internal/model"
	"github.com/verte-zerg/worklog/internal/parser"
	"github.com/verte-zerg/worklog/internal/stats"
	"github.com/verte-zerg/worklog/internal/statsui"
	"github.com/verte-zerg/worklog/internal/store"
)

const (
	defaultChartHeight = 10
	defaultLogLevel    = "info"
	defaultWeekCount   = "distinct"
	defaultFormat      = "text"
)

var (
	dataDir     string
	logLevel    string
	logSelector string

	reportWidth     int
	reportHeight    int
	reportColor     bool
	reportWeekCount string
	reportNoCharts  bool

	statsCSV     string
	statsDB      bool
	statsFormat  string
	statsIgnored []int

	importList bool
	uiDB       bool
)

// settings is the merged view of flags and the config file.
type settings struct {
	dataDir   string
	ignored   model.WeekSet
	charts    stats.ChartOptions
	weekCount stats.WeekCountPolicy
	logger    hclog.Logger
}

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "worklog",
		Short:         "Time log parser and statistics",
		SilenceUsage:  true,
		SilenceErrors: false,
		Args:          cobra.NoArgs,
		RunE:          runReportCmd,
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "directory holding the text logs")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", defaultLogLevel, "log level (trace, debug, info, warn, error)")
	addSelectorFlag(rootCmd)
	addReportFlags(rootCmd)

	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newFilesCmd())
	rootCmd.AddCommand(newParseCmd())
	rootCmd.AddCommand(newStatsCmd())
	rootCmd.AddCommand(newImportCmd())
	rootCmd.AddCommand(newUICmd())

	return rootCmd
}

func addSelectorFlag(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&logSelector, "date", "d", "", "log file name without .txt (default: newest)")
}

func addReportFlags(cmd *cobra.Command) {
	cmd.Flags().IntVar(&reportWidth, "chart-width", 0, "chart width in columns (default: terminal width)")
	cmd.Flags().IntVar(&reportHeight, "chart-height", defaultChartHeight, "trend plot height in rows")
	cmd.Flags().BoolVar(&reportColor, "color", false, "force colored charts")
	cmd.Flags().StringVar(&reportWeekCount, "week-count", defaultWeekCount, "week counting for weekday averages (distinct or span)")
	cmd.Flags().BoolVar(&reportNoCharts, "no-charts", false, "print only the text report")
}

func runReportCmd(cmd *cobra.Command, _ []string) error {
	s, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	paths, err := logfile.Resolve(s.dataDir, logSelector)
	if err != nil {
		return err
	}
	parsed, err := parseLog(s.logger, paths)
	if err != nil {
		return err
	}
	if err := materialize(s.logger, paths, parsed.Records); err != nil {
		return err
	}
	res, err := stats.Aggregate(parsed.Records, parsed.Ignored, stats.WithWeekCount(s.weekCount))
	if err != nil {
		return fmt.Errorf("failed to aggregate %s: %w", paths.Name, err)
	}
	out := cmd.OutOrStdout()
	if err := writeTextReport(out, res); err != nil {
		return err
	}
	if reportNoCharts {
		return nil
	}
	if err := stats.RenderCharts(out, res, s.charts); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func newParseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "parse",
		Short: "Parse a log and write its CSV",
		Args:  cobra.NoArgs,
		RunE:  runParseCmd,
	}
	addSelectorFlag(cmd)
	return cmd
}

func runParseCmd(cmd *cobra.Command, _ []string) error {
	s, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	paths, err := logfile.Resolve(s.dataDir, logSelector)
	if err != nil {
		return err
	}
	parsed, err := parseLog(s.logger, paths)
	if err != nil {
		return err
	}
	if err := materialize(s.logger, paths, parsed.Records); err != nil {
		return err
	}
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s: %d sessions, %d skipped lines -> %s\n",
		paths.Name, len(parsed.Records), len(parsed.Warnings), paths.CSV)
	if err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func newStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Aggregate a log, a CSV file or the latest database import",
		Args:  cobra.NoArgs,
		RunE:  runStatsCmd,
	}
	addSelectorFlag(cmd)
	cmd.Flags().StringVar(&statsCSV, "csv", "", "read records from this CSV file")
	cmd.Flags().BoolVar(&statsDB, "db", false, "read the latest import from the database")
	cmd.Flags().StringVar(&statsFormat, "format", defaultFormat, "output format (text, json, yaml)")
	cmd.Flags().IntSliceVar(&statsIgnored, "ignore-weeks", nil, "weeks excluded from filtered statistics")
	cmd.Flags().StringVar(&reportWeekCount, "week-count", defaultWeekCount, "week counting for weekday averages (distinct or span)")
	cmd.MarkFlagsMutuallyExclusive("csv", "db")
	return cmd
}

func runStatsCmd(cmd *cobra.Command, _ []string) error {
	s, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	format := strings.ToLower(strings.TrimSpace(statsFormat))
	if format != "text" && format != "json" && format != "yaml" {
		return fmt.Errorf("--format must be text, json or yaml")
	}

	src := recordSource{csvPath: statsCSV, fromDB: statsDB, selector: logSelector}
	records, ignored, err := loadStatsRecords(cmd.Context(), s, src)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("ignore-weeks") {
		ignored = model.NewWeekSet(statsIgnored...)
	}
	res, err := stats.Aggregate(records, ignored, stats.WithWeekCount(s.weekCount))
	if err != nil {
		return fmt.Errorf("failed to aggregate: %w", err)
	}

	out := cmd.OutOrStdout()
	switch format {
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(res); err != nil {
			return fmt.Errorf("failed to encode json: %w", err)
		}
	case "yaml":
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		if err := enc.Encode(res); err != nil {
			return fmt.Errorf("failed to encode yaml: %w", err)
		}
		if err := enc.Close(); err != nil {
			return fmt.Errorf("failed to encode yaml: %w", err)
		}
	default:
		return writeTextReport(out, res)
	}
	return nil
}

// recordSource selects where stats records come from. An empty csvPath
// with fromDB unset means the text log named by selector.
type recordSource struct {
	csvPath  string
	fromDB   bool
	selector string
}

// loadStatsRecords reads records from a CSV file, the database, or the
// selected text log. A text log also supplies its ignored weeks.
func loadStatsRecords(ctx context.Context, s settings, src recordSource) ([]model.SessionRecord, model.WeekSet, error) {
	switch {
	case src.csvPath != "":
		records, err := csvlog.ReadFile(src.csvPath)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to read %s: %w", src.csvPath, err)
		}
		return records, s.ignored, nil
	case src.fromDB:
		st, err := store.Open(config.DefaultDBPath())
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open db: %w", err)
		}
		defer func() {
			if cerr := st.Close(); cerr != nil {
				logErrf("failed to close db: %v\n", cerr)
			}
		}()
		imp, records, err := st.LoadLatest(contextOrBackground(ctx), strings.TrimSuffix(src.selector, ".txt"))
		if err != nil {
			if errors.Is(err, store.ErrNoImports) {
				logErrln("Nothing imported yet. Import with: worklog import")
			}
			return nil, nil, err
		}
		s.logger.Debug("loaded import", "id", imp.ID, "source", imp.Source, "sessions", imp.Sessions)
		return records, imp.Ignored, nil
	}

	paths, err := logfile.Resolve(s.dataDir, src.selector)
	if err != nil {
		return nil, nil, err
	}
	parsed, err := parseLog(s.logger, paths)
	if err != nil {
		return nil, nil, err
	}
	return parsed.Records, parsed.Ignored, nil
}

func newImportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Store a parsed log in the database",
		Args:  cobra.NoArgs,
		RunE:  runImportCmd,
	}
	addSelectorFlag(cmd)
	cmd.Flags().BoolVar(&importList, "list", false, "list stored imports instead of importing")
	return cmd
}

func runImportCmd(cmd *cobra.Command, _ []string) error {
	s, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}()

	ctx := contextOrBackground(cmd.Context())
	out := cmd.OutOrStdout()
	if importList {
		imports, err := st.ListImports(ctx)
		if err != nil {
			return fmt.Errorf("failed to list imports: %w", err)
		}
		for _, imp := range imports {
			if _, err := fmt.Fprintf(out, "%s  %s  %s  %d sessions\n",
				imp.ID, imp.ImportedAt.Local().Format("2006-01-02 15:04"), imp.Source, imp.Sessions); err != nil {
				return fmt.Errorf("failed to write output: %w", err)
			}
		}
		return nil
	}

	paths, err := logfile.Resolve(s.dataDir, logSelector)
	if err != nil {
		return err
	}
	parsed, err := parseLog(s.logger, paths)
	if err != nil {
		return err
	}
	id, err := st.SaveImport(ctx, paths.Name, parsed.Records, parsed.Ignored)
	if err != nil {
		return fmt.Errorf("failed to import %s: %w", paths.Name, err)
	}
	s.logger.Info("imported log", "source", paths.Name, "id", id, "sessions", len(parsed.Records))
	if _, err := fmt.Fprintf(out, "Imported %d sessions from %s (%s)\n", len(parsed.Records), paths.Name, id); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func newUICmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ui",
		Short: "Browse statistics interactively",
		Args:  cobra.NoArgs,
		RunE:  runUICmd,
	}
	addSelectorFlag(cmd)
	cmd.Flags().StringVar(&reportWeekCount, "week-count", defaultWeekCount, "week counting for weekday averages (distinct or span)")
	cmd.Flags().BoolVar(&uiDB, "db", false, "read the latest import from the database")
	return cmd
}

func runUICmd(cmd *cobra.Command, _ []string) error {
	s, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	records, ignored, err := loadStatsRecords(cmd.Context(), s, recordSource{fromDB: uiDB, selector: logSelector})
	if err != nil {
		return err
	}
	source := logSelector
	if source == "" && !uiDB {
		if paths, err := logfile.Resolve(s.dataDir, ""); err == nil {
			source = paths.Name
		}
	}

	ui := statsui.NewModel(records, statsui.Config{
		Source:      source,
		Ignored:     ignored,
		WeekCount:   s.weekCount,
		TrendWindow: stats.DefaultTrendWindow,
		Logger:      s.logger,
	})
	program := tea.NewProgram(ui, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run stats TUI: %w", err)
	}
	return nil
}

func newFilesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "files",
		Short: "List available logs",
		Args:  cobra.NoArgs,
		RunE:  runFilesCmd,
	}
}

func runFilesCmd(cmd *cobra.Command, _ []string) error {
	s, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	names, err := logfile.List(s.dataDir)
	if err != nil {
		return err
	}
	if len(names) == 0 {
		logErrf("No logs found in %s\n", s.dataDir)
		return logfile.ErrNoLogs
	}
	for _, name := range names {
		if _, err := fmt.Fprintln(cmd.OutOrStdout(), strings.TrimSuffix(name, ".txt")); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	return nil
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Create/open config file",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
}

func runConfigCmd(_ *cobra.Command, _ []string) error {
	path := config.DefaultConfigPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat config: %w", err)
		}
		if err := os.WriteFile(path, []byte(defaultConfigTemplate()), 0o644); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	if len(parts) == 0 {
		return fmt.Errorf("editor command is empty")
	}
	cmd := exec.Command(parts[0], append(parts[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

// loadSettings overlays the config file onto flags the user did not set.
func loadSettings(cmd *cobra.Command) (settings, error) {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return settings{}, fmt.Errorf("failed to load config: %w", err)
	}
	applyStringConfig(cmd, "data-dir", &dataDir, fileCfg.Log.DataDir)
	applyStringConfig(cmd, "log-level", &logLevel, fileCfg.Report.LogLevel)
	applyIntConfig(cmd, "chart-width", &reportWidth, fileCfg.Report.ChartWidth)
	applyIntConfig(cmd, "chart-height", &reportHeight, fileCfg.Report.ChartHeight)
	applyBoolConfig(cmd, "color", &reportColor, fileCfg.Report.Color)
	applyStringConfig(cmd, "week-count", &reportWeekCount, fileCfg.Report.WeekCount)

	logger, err := newLogger(logLevel, cmd.ErrOrStderr())
	if err != nil {
		return settings{}, err
	}
	policy, err := stats.ParseWeekCountPolicy(reportWeekCount)
	if err != nil {
		return settings{}, fmt.Errorf("invalid --week-count: %w", err)
	}
	if reportWidth < 0 {
		return settings{}, fmt.Errorf("--chart-width must be >= 0")
	}
	if reportHeight < 1 {
		return settings{}, fmt.Errorf("--chart-height must be > 0")
	}

	dir := strings.TrimSpace(dataDir)
	if dir == "" {
		dir = config.DefaultDataDir()
	}
	return settings{
		dataDir: config.ExpandHome(dir),
		ignored: model.NewWeekSet(fileCfg.Log.IgnoredWeeks...),
		charts: stats.ChartOptions{
			Width:  reportWidth,
			Height: reportHeight,
			Color:  reportColor,
		},
		weekCount: policy,
		logger:    logger,
	}, nil
}

func newLogger(level string, out io.Writer) (hclog.Logger, error) {
	lvl := hclog.LevelFromString(level)
	if lvl == hclog.NoLevel {
		return nil, fmt.Errorf("invalid log level %q", level)
	}
	return hclog.New(&hclog.LoggerOptions{
		Name:   "worklog",
		Level:  lvl,
		Output: out,
	}), nil
}

// parseLog parses the text log, logging each skipped line.
func parseLog(logger hclog.Logger, paths logfile.Paths) (parser.Result, error) {
	parsed, err := parser.ParseFile(paths.Text)
	if err != nil {
		var seqErr *parser.SequenceError
		if errors.As(err, &seqErr) {
			return parser.Result{}, fmt.Errorf("%s: %w", paths.Text, err)
		}
		return parser.Result{}, fmt.Errorf("failed to parse %s: %w", paths.Text, err)
	}
	for _, w := range parsed.Warnings {
		logger.Warn("could not parse line", "line", w.Line, "text", w.Text)
	}
	logger.Debug("parsed log", "path", paths.Text, "sessions", len(parsed.Records), "ignored_weeks", parsed.Ignored.Sorted())
	return parsed, nil
}

func materialize(logger hclog.Logger, paths logfile.Paths, records []model.SessionRecord) error {
	if err := csvlog.WriteFile(paths.CSV, records); err != nil {
		return fmt.Errorf("failed to write %s: %w", paths.CSV, err)
	}
	logger.Debug("wrote csv", "path", paths.CSV, "records", len(records))
	return nil
}

func writeTextReport(w io.Writer, res stats.Result) error {
	if err := stats.RenderReport(w, res); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	if err := stats.RenderWeekdayTable(w, res); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func contextOrBackground(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}

func applyStringConfig(cmd *cobra.Command, name string, target, value *string) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyIntConfig(cmd *cobra.Command, name string, target, value *int) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyBoolConfig(cmd *cobra.Command, name string, target, value *bool) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func defaultConfigTemplate() string {
	return fmt.Sprintf(`# worklog configuration
# Uncomment a value to enable it. CLI flags override config values.

[log]
# data-dir = %q
# ignored-weeks = []      # Weeks excluded when reading CSV input

[report]
# chart-width = 80        # Chart width (default: terminal width)
# chart-height = %d       # Trend plot height
# color = false           # Force colored charts
# week-count = %q   # Weekday averages over distinct weeks or the full span
# log-level = %q        # trace, debug, info, warn, error
`,
		config.DefaultDataDir(),
		defaultChartHeight,
		defaultWeekCount,
		defaultLogLevel,
	)
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}

func logErrln(args ...any) {
	if _, err := fmt.Fprintln(os.Stderr, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
