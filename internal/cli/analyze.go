package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"ccsemgrep/internal/config"
	"ccsemgrep/internal/engine"
	"ccsemgrep/internal/flags"
	"ccsemgrep/internal/output"

	"github.com/spf13/cobra"
)

// openArguments opens the engine config and both output destinations in
// flag order. On failure everything already opened is closed again.
func openArguments(cmd *cobra.Command, opts *config.Options) (cfgFile *os.File, out, errOut io.WriteCloser, err error) {
	cfgFile, err = os.Open(opts.ConfigPath)
	if err != nil {
		return nil, nil, nil, usageError(cmd, fmt.Errorf("invalid argument for %s: can't open '%s': %w",
			flags.Display(flags.FlagConfig, flags.ShortConfig), opts.ConfigPath, err))
	}

	out, err = output.Open(opts.Out, cmd.OutOrStdout())
	if err != nil {
		_ = cfgFile.Close()
		return nil, nil, nil, usageError(cmd, fmt.Errorf("invalid argument for %s: %w",
			flags.Display(flags.FlagOut, flags.ShortOut), err))
	}

	errOut, err = output.Open(opts.Err, cmd.ErrOrStderr())
	if err != nil {
		_ = cfgFile.Close()
		_ = out.Close()
		return nil, nil, nil, usageError(cmd, fmt.Errorf("invalid argument for %s: %w",
			flags.Display(flags.FlagErr, flags.ShortErr), err))
	}
	return cfgFile, out, errOut, nil
}

func runAnalysis(cmd *cobra.Command, opts *config.Options) (err error) {
	cfgFile, out, errOut, err := openArguments(cmd, opts)
	if err != nil {
		return err
	}

	streams, err := output.NewStreams(out, errOut)
	if err != nil {
		_ = cfgFile.Close()
		return fatalError(err)
	}
	defer func() {
		if cerr := streams.Close(); cerr != nil && err == nil {
			err = fatalError(cerr)
		}
	}()
	streams.Strict = opts.Strict

	cfg, err := config.Load(cfgFile)
	_ = cfgFile.Close()
	if err != nil {
		return fatalError(err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log := slog.Default()
	eng := engine.NewEngine(newInvoker(opts, log))
	eng.Logger = log

	var writeErr error
	onError := func(runErr error) {
		if writeErr != nil {
			return
		}
		writeErr = streams.WriteError(runErr)
	}

	var issues int
	for issue := range eng.Run(ctx, opts.Dir, cfg, onError) {
		if writeErr != nil {
			break
		}
		if writeErr = streams.WriteIssue(issue); writeErr != nil {
			break
		}
		issues++
	}
	if writeErr != nil {
		return fatalError(writeErr)
	}

	log.Info("analysis finished", "runs", len(cfg.Runs), "issues", issues)
	return ctx.Err()
}
