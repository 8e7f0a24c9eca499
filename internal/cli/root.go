package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"ccsemgrep/internal/config"
	"ccsemgrep/internal/engine"
	"ccsemgrep/internal/flags"
	"ccsemgrep/internal/semgrep"

	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"
)

var (
	buildVersion = "dev"
	buildCommit  = "unknown"
	buildDate    = "unknown"
)

const (
	exitOK    = 0
	exitFatal = 1
	exitUsage = 2
)

// exitError carries the process exit code for a failed command.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

func exitCode(err error) int {
	if err == nil {
		return exitOK
	}
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	return exitFatal
}

// usageError prints the command usage and marks err as a usage error.
func usageError(cmd *cobra.Command, err error) error {
	cmd.PrintErrln(cmd.UsageString())
	return &exitError{code: exitUsage, err: err}
}

func fatalError(err error) error {
	return &exitError{code: exitFatal, err: err}
}

// newInvoker builds the Semgrep invoker for an analysis. Tests replace it.
var newInvoker = func(opts *config.Options, log *slog.Logger) engine.Invoker {
	c := semgrep.NewCLI(opts.SemgrepBin)
	c.Logger = log
	return c
}

var rootCmd = newRootCmd()

func newRootCmd() *cobra.Command {
	opts := config.NewOptions()

	cmd := &cobra.Command{
		Use:   "ccsemgrep",
		Short: "Run Semgrep and report matches as Code Climate issues",
		Long: `ccsemgrep runs Semgrep over a code directory and reports every match as a
Code Climate issue.

The engine config lists the include paths to analyze and the runs to execute.
A run is either a set of Semgrep rule files or a single inline pattern. Runs
execute in order; a run that fails is reported on the error stream and the
remaining runs still execute.

Examples:
  # Analyze /code with /config.json, issues on stdout, errors on stderr
  ccsemgrep

  # Explicit paths
  ccsemgrep -c engine.json -d ./src -o issues.bin -e errors.txt

  # List the rules referenced by the engine config
  ccsemgrep rules list -c engine.json

  # Print build info
  ccsemgrep version

Output:
  Issues are Code Climate JSON documents separated by a NUL byte.
  Run errors are plain messages separated by "----\n".

Exit codes:
  0 = every run was attempted (individual runs may have failed)
  1 = fatal error (invalid engine config, output could not be written)
  2 = usage error (bad flag, a file argument could not be opened)`,
		Args:          cobra.NoArgs,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.Validate(); err != nil {
				return usageError(cmd, err)
			}
			slog.SetDefault(newLogger(cmd.ErrOrStderr(), opts.LogLevel))
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalysis(cmd, opts)
		},
	}
	cmd.SetFlagErrorFunc(usageError)

	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, flags.FlagConfig, flags.ShortConfig, config.DefaultConfigPath, "Engine config file")
	cmd.PersistentFlags().StringVarP(&opts.LogLevel, flags.FlagLogLevel, flags.ShortLogLevel, config.DefaultLogLevel, "Diagnostic log level on stderr: debug|info|warn|error")

	cmd.Flags().StringVarP(&opts.Dir, flags.FlagDir, flags.ShortDir, config.DefaultDir, "Code directory to analyze; issue paths are relative to it")
	cmd.Flags().StringVarP(&opts.Out, flags.FlagOut, flags.ShortOut, "", "Write NUL-delimited issues to this path (default: stdout)")
	cmd.Flags().StringVarP(&opts.Err, flags.FlagErr, flags.ShortErr, "", "Write run errors to this path (default: stderr)")
	cmd.Flags().StringVar(&opts.SemgrepBin, flags.FlagSemgrepBin, config.DefaultSemgrepBin, "Semgrep executable")
	cmd.Flags().BoolVar(&opts.Strict, flags.FlagStrict, false, "Validate every issue against the Code Climate schema; invalid issues go to the error stream")

	cmd.AddCommand(newRulesCmd(opts))
	cmd.AddCommand(newVersionCmd())

	cmd.Version = versionString()
	cmd.SetVersionTemplate("{{.Version}}\n")
	return cmd
}

func newLogger(w io.Writer, level string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelError
	}
	return slog.New(tint.NewHandler(w, &tint.Options{
		Level:      lvl,
		TimeFormat: time.Kitchen,
	}))
}

func versionString() string {
	return fmt.Sprintf("%s (%s) %s", buildVersion, buildCommit, buildDate)
}

func SetBuildInfo(version, commit, date string) {
	if version != "" {
		buildVersion = version
	}
	if commit != "" {
		buildCommit = commit
	}
	if date != "" {
		buildDate = date
	}

	rootCmd.Version = versionString()
}

func BuildInfo() (version, commit, date string) {
	return buildVersion, buildCommit, buildDate
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(exitCode(err))
	}
}
