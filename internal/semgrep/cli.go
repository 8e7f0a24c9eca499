package semgrep

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"os/exec"

	"ccsemgrep/internal/config"

	"github.com/pkg/errors"
)

// CLI invokes the semgrep executable once per run and parses its JSON output.
type CLI struct {
	// Binary is the executable name or path. Defaults to "semgrep".
	Binary string

	Logger *slog.Logger
}

func NewCLI(binary string) *CLI {
	if binary == "" {
		binary = "semgrep"
	}
	return &CLI{Binary: binary}
}

func (c *CLI) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slog.Default()
}

// Args builds the semgrep command line for one run.
func Args(targets []string, spec config.RunSpec) ([]string, error) {
	args := []string{"--json", "--metrics=off", "--disable-version-check", "--quiet"}

	switch s := spec.(type) {
	case config.ConfigFiles:
		for _, p := range s.Configs {
			args = append(args, "--config", p)
		}
	case config.InlinePattern:
		args = append(args, "--pattern", s.Pattern, "--lang", s.Lang)
		for _, g := range s.Include {
			args = append(args, "--include", g)
		}
		for _, g := range s.Exclude {
			args = append(args, "--exclude", g)
		}
	default:
		return nil, errors.Errorf("unsupported run spec %T", spec)
	}

	args = append(args, "--")
	return append(args, targets...), nil
}

// Invoke runs semgrep against targets. On success it returns the matches and
// any non-fatal errors Semgrep reported. When the invocation as a whole
// failed, the returned error is a *Error whenever Semgrep described the
// failure itself.
func (c *CLI) Invoke(ctx context.Context, targets []string, spec config.RunSpec) ([]Result, []Error, error) {
	if len(targets) == 0 {
		// With no targets semgrep scans its working directory. Point it at an
		// empty directory instead so the run is still validated but matches
		// nothing.
		empty, err := os.MkdirTemp("", "ccsemgrep-empty-")
		if err != nil {
			return nil, nil, errors.Wrap(err, "could not create empty target directory")
		}
		defer os.RemoveAll(empty)
		targets = []string{empty}
	}

	args, err := Args(targets, spec)
	if err != nil {
		return nil, nil, err
	}

	c.logger().Debug("invoking semgrep", "binary", c.Binary, "args", args)

	cmd := exec.CommandContext(ctx, c.Binary, args...) // nolint:gosec // arguments come from the engine config
	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	runErr := cmd.Run()
	exitCode := 0
	if runErr != nil {
		exitErr, ok := runErr.(*exec.ExitError)
		if !ok {
			return nil, nil, errors.Wrapf(runErr, "could not run %s", c.Binary)
		}
		exitCode = exitErr.ExitCode()
	}

	out, parseErr := ParseOutput(stdout.Bytes())

	// 0 = clean, 1 = findings. Anything else is a failed invocation.
	if exitCode != 0 && exitCode != 1 {
		if parseErr == nil {
			if first := firstFatal(out.Errors); first != nil {
				return nil, nil, first
			}
		}
		return nil, nil, errors.Errorf("%s exited with code %d: %s", c.Binary, exitCode, bytes.TrimSpace(stderr.Bytes()))
	}
	if parseErr != nil {
		return nil, nil, errors.Wrapf(parseErr, "stderr: %s", bytes.TrimSpace(stderr.Bytes()))
	}

	if len(out.Results) == 0 {
		if first := firstFatal(out.Errors); first != nil {
			return nil, nil, first
		}
	}
	return out.Results, out.Errors, nil
}

func firstFatal(errs []Error) *Error {
	for i := range errs {
		if errs[i].Fatal() {
			e := errs[i]
			return &e
		}
	}
	return nil
}
