// Package cli implements the fieldscout operator command line.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/turtacn/FieldScout-Intelligence/internal/config"
	"github.com/turtacn/FieldScout-Intelligence/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/FieldScout-Intelligence/pkg/errors"
)

// Build-time variables injected via ldflags.
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

type cliContextKey struct{}

// RootOptions holds global CLI flags.
type RootOptions struct {
	ConfigPath   string
	LogLevel     string
	OutputFormat string
	Verbose      bool
	Timeout      time.Duration
}

// CLIContext carries the loaded configuration through the command tree.
type CLIContext struct {
	Config       *config.Config
	Logger       logging.Logger
	OutputFormat string
	Verbose      bool
	Timeout      time.Duration
}

// NewRootCommand creates the fieldscout root command with every subcommand
// attached. A zero Opener connects to the configured backends.
func NewRootCommand(op Opener) *cobra.Command {
	op = op.withDefaults()
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "fieldscout",
		Short: "FieldScout-Intelligence operator CLI",
		Long: "fieldscout ingests drone scouting flights, renders pest heat maps,\n" +
			"manages the database schema and checks the health of the backing services.",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", Version, GitCommit, BuildDate),
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return persistentPreRun(cmd, opts, op)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := cmd.PersistentFlags()
	pf.StringVarP(&opts.ConfigPath, "config", "c", "", "config file path (default: FIELDSCOUT_* environment only)")
	pf.StringVar(&opts.LogLevel, "log-level", "", "log level override (debug, info, warn, error)")
	pf.StringVarP(&opts.OutputFormat, "output", "o", "text", "output format (text, json)")
	pf.BoolVarP(&opts.Verbose, "verbose", "v", false, "enable debug logging")
	pf.DurationVar(&opts.Timeout, "timeout", 2*time.Minute, "overall operation timeout")

	cmd.AddCommand(
		newIngestCmd(op),
		newHeatmapCmd(op),
		newMigrateCmd(op),
		newServeCheckCmd(op),
	)
	return cmd
}

func persistentPreRun(cmd *cobra.Command, opts *RootOptions, op Opener) error {
	switch strings.ToLower(opts.OutputFormat) {
	case "text", "json":
	default:
		return errors.NewValidation("output format %q is invalid; expected text or json", opts.OutputFormat)
	}

	cfg, err := op.LoadConfig(opts.ConfigPath)
	if err != nil {
		return err
	}

	logCfg := cfg.Log
	logCfg.Format = "console"
	logCfg.OutputPaths = []string{"stderr"}
	if opts.LogLevel != "" {
		logCfg.Level = opts.LogLevel
	}
	if opts.Verbose {
		logCfg.Level = "debug"
	}
	logger, err := op.NewLogger(logCfg)
	if err != nil {
		return fmt.Errorf("logger initialization failed: %w", err)
	}

	cc := &CLIContext{
		Config:       cfg,
		Logger:       logger,
		OutputFormat: strings.ToLower(opts.OutputFormat),
		Verbose:      opts.Verbose,
		Timeout:      opts.Timeout,
	}
	cmd.SetContext(context.WithValue(cmd.Context(), cliContextKey{}, cc))
	return nil
}

// GetCLIContext extracts the CLIContext stored by the root command.
func GetCLIContext(cmd *cobra.Command) (*CLIContext, error) {
	ctx := cmd.Context()
	if ctx == nil {
		return nil, errors.NewValidation("command context is nil")
	}
	cc, ok := ctx.Value(cliContextKey{}).(*CLIContext)
	if !ok || cc == nil {
		return nil, errors.NewValidation("CLI context not initialised")
	}
	return cc, nil
}

// withTimeout bounds ctx by the --timeout flag.
func (cc *CLIContext) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if cc.Timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, cc.Timeout)
}

// Execute runs the CLI with the default backends.
func Execute(ctx context.Context) error {
	root := NewRootCommand(Opener{})
	if err := root.ExecuteContext(ctx); err != nil {
		PrintError(root, err)
		return err
	}
	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Output
// ─────────────────────────────────────────────────────────────────────────────

// textPrinter renders a result for --output text.
type textPrinter interface {
	Text() string
}

// PrintResult writes data in the selected output format.
func PrintResult(cmd *cobra.Command, data interface{}) error {
	cc, err := GetCLIContext(cmd)
	if err != nil || cc.OutputFormat == "json" {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(data)
	}
	switch v := data.(type) {
	case textPrinter:
		fmt.Fprint(cmd.OutOrStdout(), v.Text())
	case string:
		fmt.Fprintln(cmd.OutOrStdout(), v)
	default:
		fmt.Fprintf(cmd.OutOrStdout(), "%+v\n", v)
	}
	return nil
}

// PrintError writes err to stderr, with its code when it carries one.
func PrintError(cmd *cobra.Command, err error) {
	if err == nil {
		return
	}
	if code := errors.GetCode(err); code != errors.CodeUnknown && code != errors.CodeOK {
		fmt.Fprintf(cmd.ErrOrStderr(), "Error [%s]: %s\n", code, err.Error())
		return
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Error: %s\n", err.Error())
}

// FormatTable renders headers and rows as an aligned table.
func FormatTable(headers []string, rows [][]string) string {
	if len(headers) == 0 {
		return ""
	}
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = len(h)
	}
	for _, row := range rows {
		for i := 0; i < len(row) && i < len(widths); i++ {
			if len(row[i]) > widths[i] {
				widths[i] = len(row[i])
			}
		}
	}

	var sb strings.Builder
	writeRow := func(cells []string) {
		for i := range headers {
			if i > 0 {
				sb.WriteString("  ")
			}
			v := ""
			if i < len(cells) {
				v = cells[i]
			}
			sb.WriteString(v)
			if i < len(headers)-1 {
				sb.WriteString(strings.Repeat(" ", widths[i]-len(v)))
			}
		}
		sb.WriteString("\n")
	}

	writeRow(headers)
	sep := make([]string, len(widths))
	for i, w := range widths {
		sep[i] = strings.Repeat("-", w)
	}
	writeRow(sep)
	for _, row := range rows {
		writeRow(row)
	}
	return sb.String()
}

//Personal.AI order the ending
