// Command checkdv validates a survey dataset against a rule table from the
// command line.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/aasthagit2025/checkdv/internal/config"
	"github.com/aasthagit2025/checkdv/internal/core"
	"github.com/aasthagit2025/checkdv/internal/logging"
	"github.com/aasthagit2025/checkdv/internal/report"
	"github.com/aasthagit2025/checkdv/internal/source"
)

const (
	Version = "0.1.0"
	appName = "checkdv"
)

// errViolations is returned by validate --fail-on-violations when the run
// reported anything.
var errViolations = errors.New("violations found")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := rootCmd(os.Stdout, os.Stderr).ExecuteContext(ctx)
	switch {
	case err == nil:
	case errors.Is(err, errViolations):
		os.Exit(2)
	default:
		fmt.Fprintf(os.Stderr, "Error: %s\n", core.FormatUserError(err))
		os.Exit(1)
	}
}

func rootCmd(stdout, stderr io.Writer) *cobra.Command {
	cmd := &cobra.Command{
		Use:           appName,
		Short:         "Survey data validation",
		SilenceUsage:  true,
		SilenceErrors: true,
		Long: `checkdv checks survey responses against a rule table.

Each rule names a question (a column or a column prefix) and one or more
checks: Range, Missing, Skip, Multi-Select, Straightliner, Duplicate,
OpenEnd_Junk. Violations are written as CSV or JSON.`,
	}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	cmd.AddCommand(validateCmd())
	cmd.AddCommand(planCmd())
	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "%s version %s (%s)\n", appName, Version, runtime.Version())
		},
	})
	return cmd
}

// cliFlags holds the flags of validate and plan.
type cliFlags struct {
	data        string
	rules       string
	table       string
	databaseURL string
	out         string
	format      string
	idColumn    string
	encoding    string
	openEndMin  int
	workers     int
	failOnAny   bool
	logLevel    string
}

// addInputFlags registers the flags shared by validate and plan.
func addInputFlags(cmd *cobra.Command, f *cliFlags) {
	fl := cmd.Flags()
	fl.StringVarP(&f.data, "data", "d", "", "Data file (.csv, or .db/.sqlite with --table)")
	fl.StringVarP(&f.rules, "rules", "r", "", "Rule file (.csv, .yaml or .yml)")
	fl.StringVarP(&f.table, "table", "t", "", "Table to validate; PostgreSQL when --data is not given")
	fl.StringVar(&f.databaseURL, "database-url", "", "PostgreSQL URL (default $DATABASE_URL)")
	fl.StringVarP(&f.out, "out", "o", "", "Report file (default stdout)")
	fl.StringVar(&f.idColumn, "id-column", "", "Respondent id column (default $VALIDATION_RESPONDENT_ID_COLUMN)")
	fl.StringVar(&f.encoding, "encoding", "", "CSV encoding: utf-8, latin1 or windows-1252")
	fl.StringVar(&f.logLevel, "log-level", "", "Log level (default $LOG_LEVEL)")
	_ = cmd.MarkFlagRequired("rules")
}

func validateCmd() *cobra.Command {
	var f cliFlags

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate a dataset against a rule file",
		Example: `  checkdv validate --data survey.csv --rules rules.csv
  checkdv validate --data survey.db --table wave1 --rules rules.yaml --format json
  checkdv validate --table survey.wave1 --rules rules.csv --out violations.csv`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(cmd, f)
		},
	}

	addInputFlags(cmd, &f)
	fl := cmd.Flags()
	fl.StringVarP(&f.format, "format", "f", report.FormatCSV, "Report format: csv or json")
	fl.IntVar(&f.openEndMin, "open-end-min", 0, "Minimum open-end answer length (default $VALIDATION_OPENEND_MIN_LENGTH)")
	fl.IntVar(&f.workers, "workers", 0, "Rules evaluated in parallel (default $VALIDATION_WORKERS)")
	fl.BoolVar(&f.failOnAny, "fail-on-violations", false, "Exit with status 2 when any violation is reported")

	return cmd
}

func planCmd() *cobra.Command {
	var f cliFlags

	cmd := &cobra.Command{
		Use:     "plan",
		Short:   "Show how a rule file resolves against a dataset without running checks",
		Example: `  checkdv plan --data survey.csv --rules rules.csv`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlan(cmd, f)
		},
	}
	addInputFlags(cmd, &f)
	return cmd
}

// inputs is everything a command needs once flags and environment are read.
type inputs struct {
	cfg   *config.Config
	ctx   context.Context
	ds    *core.Dataset
	rules []core.Rule
}

func loadInputs(cmd *cobra.Command, f cliFlags) (*inputs, error) {
	// A .env file is optional and never overrides the environment.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if f.logLevel != "" {
		cfg.Logging.Level = f.logLevel
	}
	logging.SetupWriter(cmd.ErrOrStderr(), cfg.Logging.Level, cfg.Logging.Format)

	opts := source.DataOptions{IDColumn: cfg.Validation.RespondentIDColumn, Encoding: f.encoding}
	if f.idColumn != "" {
		opts.IDColumn = f.idColumn
	}
	if f.databaseURL != "" {
		cfg.Database.URL = f.databaseURL
	}

	ctx := core.ContextWithOrigin(cmd.Context(), core.Origin{Channel: "cli", Address: dataLabel(f)})

	rules, err := loadRules(f.rules)
	if err != nil {
		return nil, err
	}
	ds, err := loadDataset(ctx, f, cfg.Database, opts)
	if err != nil {
		return nil, err
	}
	return &inputs{cfg: cfg, ctx: ctx, ds: ds, rules: rules}, nil
}

func runValidate(cmd *cobra.Command, f cliFlags) error {
	format, err := report.ParseFormat(f.format)
	if err != nil {
		return err
	}
	in, err := loadInputs(cmd, f)
	if err != nil {
		return err
	}

	validator := core.NewValidator(core.Options{
		OpenEndMinLength: firstPositive(f.openEndMin, in.cfg.Validation.OpenEndMinLength),
		Workers:          firstPositive(f.workers, in.cfg.Validation.Workers),
	})
	service := core.NewService(validator, core.NewRunLimiter(1, in.cfg.Upload.MaxWaitTime), nil)

	res, err := service.Run(in.ctx, in.ds, in.rules)
	if err != nil {
		return err
	}

	if err := writeOutput(cmd.OutOrStdout(), f.out, func(w io.Writer) error {
		return report.Write(w, format, res)
	}); err != nil {
		return err
	}

	fmt.Fprintf(cmd.ErrOrStderr(), "%d respondents, %d rules: %d violations (%d rule-level, %d respondents flagged)\n",
		res.Respondents, res.Rules, res.Summary.Total, res.Summary.RuleLevel, res.Summary.Respondents)

	if f.failOnAny && res.Summary.Total > 0 {
		return errViolations
	}
	return nil
}

func runPlan(cmd *cobra.Command, f cliFlags) error {
	in, err := loadInputs(cmd, f)
	if err != nil {
		return err
	}
	service := core.NewService(core.NewValidator(core.Options{}), nil, nil)

	plan, err := service.Plan(in.ctx, in.ds, in.rules)
	if err != nil {
		return err
	}
	return writeOutput(cmd.OutOrStdout(), f.out, func(w io.Writer) error {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(plan)
	})
}

func loadRules(path string) ([]core.Rule, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open rules: %w", err)
	}
	defer file.Close()
	return source.ReadRules(path, file)
}

// loadDataset picks the data source from the flags: a CSV file, a table in a
// SQLite file, or a PostgreSQL table.
func loadDataset(ctx context.Context, f cliFlags, db config.DatabaseConfig, opts source.DataOptions) (*core.Dataset, error) {
	switch {
	case f.data == "" && f.table == "":
		return nil, errors.New("no file provided: pass --data or --table")

	case f.data == "":
		if !db.Enabled() {
			return nil, fmt.Errorf("%w: set DATABASE_URL or --database-url to read table %q",
				source.ErrNoDataSource, f.table)
		}
		pool, err := source.Connect(ctx, db)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", source.ErrNoDataSource, err)
		}
		defer pool.Close()
		return source.NewPostgres(pool).LoadTable(ctx, f.table, opts)
	}

	switch ext := strings.ToLower(filepath.Ext(f.data)); ext {
	case ".csv", ".txt":
		file, err := os.Open(f.data)
		if err != nil {
			return nil, fmt.Errorf("open data: %w", err)
		}
		defer file.Close()
		return source.ReadDataset(file, opts)

	case ".db", ".sqlite", ".sqlite3":
		if f.table == "" {
			return nil, fmt.Errorf("--table is required for %s files", ext)
		}
		db, err := source.OpenSQLite(f.data)
		if err != nil {
			return nil, err
		}
		defer db.Close()
		return source.LoadSQLTable(ctx, db, f.table, opts)

	default:
		return nil, fmt.Errorf("%w: %q (data must be .csv, .db or .sqlite)", source.ErrUnsupportedFormat, f.data)
	}
}

// writeOutput sends write's output to path, or to stdout when path is empty.
func writeOutput(stdout io.Writer, path string, write func(io.Writer) error) (err error) {
	if path == "" {
		return write(stdout)
	}
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create report: %w", err)
	}
	defer func() {
		if cerr := file.Close(); err == nil {
			err = cerr
		}
	}()
	return write(file)
}

func dataLabel(f cliFlags) string {
	switch {
	case f.data != "" && f.table != "":
		return f.data + ":" + f.table
	case f.data != "":
		return f.data
	default:
		return f.table
	}
}

func firstPositive(vals ...int) int {
	for _, v := range vals {
		if v > 0 {
			return v
		}
	}
	return 0
}
