package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/tordrt/dbmeta"
	"github.com/tordrt/dbmeta/internal/config"
	"github.com/tordrt/dbmeta/internal/logging"
	"github.com/tordrt/dbmeta/internal/progress"
	"github.com/tordrt/dbmeta/internal/schema"
	"github.com/tordrt/dbmeta/internal/sqlexec"
	"github.com/tordrt/dbmeta/internal/typemap"
)

var (
	configPath string
	logLevel   string
	logFormat  string

	dbURL          string
	outputFile     string
	outputDir      string
	format         string
	includeSchemas string
	excludeSchemas string
	workers        int
	splitThreshold int
	showProgress   bool
	save           bool

	dataType   int
	columnSize int
	scale      int
)

var rootCmd = &cobra.Command{
	Use:           "dbmeta",
	Short:         "Discover relational database metadata",
	Long:          `dbmeta discovers schemas, tables, columns, indexes and keys of PostgreSQL, CockroachDB, MySQL, MariaDB, SQLite and Oracle databases, resolving every column onto a canonical type.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

var discoverCmd = &cobra.Command{
	Use:   "discover [dbms-id]",
	Short: "Discover a configured dbms, or the database behind --url",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runDiscover,
}

var typesCmd = &cobra.Command{
	Use:   "types <vendor> <type-name>",
	Short: "Show how a vendor column type resolves",
	Args:  cobra.ExactArgs(2),
	RunE:  runTypes,
}

var execCmd = &cobra.Command{
	Use:   "exec <dbms-id> <file>",
	Short: "Run the statements of a SQL file in one transaction",
	Args:  cobra.ExactArgs(2),
	RunE:  runExec,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file (default: "+config.DefaultPath+")")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn or error (default: from config)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "Log format: console or json (default: from config)")

	discoverCmd.Flags().StringVar(&dbURL, "url", "", "Database URL to discover instead of a configured dbms")
	discoverCmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output file (default: stdout)")
	discoverCmd.Flags().StringVarP(&outputDir, "output-dir", "d", "", "Output directory for multi-file output")
	discoverCmd.Flags().StringVarP(&format, "format", "f", "text", "Output format: text, markdown or yaml")
	discoverCmd.Flags().StringVarP(&includeSchemas, "include", "i", "", "Schema patterns to include (comma-separated globs)")
	discoverCmd.Flags().StringVarP(&excludeSchemas, "exclude", "e", "", "Schema patterns to exclude (comma-separated globs)")
	discoverCmd.Flags().IntVarP(&workers, "workers", "w", 0, "Concurrent metadata queries (default: from config)")
	discoverCmd.Flags().IntVar(&splitThreshold, "split-threshold", 0, "Split into multiple files when table count exceeds this (requires --output-dir)")
	discoverCmd.Flags().BoolVar(&showProgress, "progress", false, "Show a progress bar on stderr")
	discoverCmd.Flags().BoolVar(&save, "save", false, "Write the discovered dbms back to the config file")

	typesCmd.Flags().IntVar(&dataType, "data-type", 0, "SQL type code reported by the driver")
	typesCmd.Flags().IntVar(&columnSize, "size", 0, "Column size")
	typesCmd.Flags().IntVar(&scale, "scale", 0, "Decimal digits")

	rootCmd.AddCommand(discoverCmd, typesCmd, execCmd)
}

// loadConfig reads the config file. A missing default config yields the
// defaults; a missing explicit one is an error.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(config.ExpandHome(configPath))
	if err != nil {
		if configPath == "" && errors.Is(err, fs.ErrNotExist) {
			return config.Default(), nil
		}
		return nil, err
	}
	return cfg, nil
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	level, encoding := cfg.Logging.Level, cfg.Logging.Format
	if logLevel != "" {
		level = logLevel
	}
	if logFormat != "" {
		encoding = logFormat
	}
	return logging.New(os.Stderr, level, encoding)
}

// parsePatternList splits a comma-separated flag value.
func parsePatternList(s string) []string {
	if s == "" {
		return nil
	}
	list := strings.Split(s, ",")
	for i, p := range list {
		list[i] = strings.TrimSpace(p)
	}
	return list
}

// splitStatements splits a SQL script on semicolons outside quoted strings,
// dropping empty statements.
func splitStatements(script string) []string {
	var (
		out   []string
		cur   strings.Builder
		quote rune
	)
	flush := func() {
		if s := strings.TrimSpace(cur.String()); s != "" {
			out = append(out, s)
		}
		cur.Reset()
	}
	for _, r := range script {
		switch {
		case quote != 0:
			if r == quote {
				quote = 0
			}
		case r == '\'' || r == '"':
			quote = r
		case r == ';':
			flush()
			continue
		}
		cur.WriteRune(r)
	}
	flush()
	return out
}

func progressSink(logger *zap.Logger) progress.Sink {
	if showProgress {
		return progress.Multi(progress.NewBar(os.Stderr), progress.Log(logger))
	}
	return progress.Log(logger)
}

func runDiscover(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if outputDir != "" && outputFile != "" {
		return fmt.Errorf("cannot use both --output-dir and --output flags")
	}
	if (dbURL == "") == (len(args) == 0) {
		return fmt.Errorf("exactly one of a dbms id or --url must be specified")
	}
	if save && dbURL != "" {
		return fmt.Errorf("--save requires a configured dbms")
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	var project *schema.Project
	if dbURL != "" {
		project, err = dbmeta.DiscoverURL(ctx, dbURL, &dbmeta.Options{
			IncludeSchemas: parsePatternList(includeSchemas),
			ExcludeSchemas: parsePatternList(excludeSchemas),
			Workers:        workers,
			Logger:         logger,
			Progress:       progressSink(logger),
		})
		if err != nil {
			return fmt.Errorf("failed to discover schema: %w", err)
		}
	} else {
		if includeSchemas != "" {
			cfg.Discovery.IncludeSchemas = parsePatternList(includeSchemas)
		}
		if excludeSchemas != "" {
			cfg.Discovery.ExcludeSchemas = parsePatternList(excludeSchemas)
		}
		if workers > 0 {
			cfg.Discovery.Workers = workers
		}

		tool := dbmeta.NewTool(cfg, dbmeta.WithLogger(logger))
		defer func() {
			if err := tool.Close(); err != nil {
				logger.Warn("failed to close connections", zap.Error(err))
			}
		}()

		d, err := tool.Discover(ctx, args[0], progressSink(logger))
		if err != nil {
			return fmt.Errorf("failed to discover schema: %w", err)
		}
		if save {
			if err := cfg.Save(config.ExpandHome(configPath)); err != nil {
				return fmt.Errorf("failed to save config: %w", err)
			}
		}
		project = &schema.Project{ID: cfg.Project.ID, Name: cfg.Project.Name, Dbmses: []*schema.Dbms{d}}
	}

	return writeOutput(cmd.OutOrStdout(), project)
}

func writeOutput(stdout io.Writer, p *schema.Project) error {
	// Check if we should use multi-file output
	shouldSplit := outputDir != "" && (splitThreshold == 0 || schema.Count(p, schema.KindTable) > splitThreshold)
	if shouldSplit {
		if err := dbmeta.FormatProject(p, &dbmeta.OutputOptions{OutputDir: outputDir, Format: format}); err != nil {
			return fmt.Errorf("failed to format output: %w", err)
		}
		return nil
	}

	writer := stdout
	if outputFile != "" {
		f, err := os.Create(outputFile)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer func() {
			if err := f.Close(); err != nil {
				fmt.Fprintf(os.Stderr, "warning: failed to close output file: %v\n", err)
			}
		}()
		writer = f
	}

	if err := dbmeta.FormatProject(p, &dbmeta.OutputOptions{Writer: writer, Format: format}); err != nil {
		return fmt.Errorf("failed to format output: %w", err)
	}
	return nil
}

func runTypes(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	tool := dbmeta.NewTool(cfg)
	defer func() { _ = tool.Close() }()

	res, ok, err := tool.ResolveType(args[0], typemap.ColumnInfo{
		TypeName:      args[1],
		DataType:      dataType,
		ColumnSize:    columnSize,
		DecimalDigits: scale,
	})
	if err != nil {
		return err
	}
	return printResolution(cmd.OutOrStdout(), args[1], res, ok)
}

func printResolution(w io.Writer, typeName string, res typemap.Resolution, ok bool) error {
	var err error
	switch {
	case !ok:
		_, err = fmt.Fprintf(w, "%s → %s (unresolved)\n", typeName, res.Type)
	case res.Rule != "":
		_, err = fmt.Fprintf(w, "%s → %s (%s %s)\n", typeName, res.Type, res.Source, res.Rule)
	default:
		_, err = fmt.Fprintf(w, "%s → %s (%s)\n", typeName, res.Type, res.Source)
	}
	return err
}

func runExec(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	script, err := os.ReadFile(args[1])
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", args[1], err)
	}
	texts := splitStatements(string(script))
	if len(texts) == 0 {
		return fmt.Errorf("no statements in %s", args[1])
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	tool := dbmeta.NewTool(cfg, dbmeta.WithLogger(logger))
	defer func() { _ = tool.Close() }()

	out := cmd.OutOrStdout()
	stmts := make([]sqlexec.Statement, len(texts))
	for i, text := range texts {
		stmts[i] = sqlexec.Statement{SQL: text}
		if isInsert(text) {
			n := i + 1
			stmts[i].Insert = true
			stmts[i].OnKeys = func(keys []any) {
				fmt.Fprintf(out, "statement %d: generated keys %v\n", n, keys)
			}
		}
	}

	if err := tool.Execute(ctx, args[0], stmts); err != nil {
		return err
	}
	fmt.Fprintf(out, "executed %d statements\n", len(stmts))
	return nil
}

func isInsert(stmt string) bool {
	fields := strings.Fields(stmt)
	return len(fields) > 0 && strings.EqualFold(fields[0], "INSERT")
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
