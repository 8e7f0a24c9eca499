package engine

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log/slog"

	"ccsemgrep/internal/codeclimate"
	"ccsemgrep/internal/config"
	"ccsemgrep/internal/semgrep"
)

// Invoker runs Semgrep once. A returned error means the run produced no
// results; the []semgrep.Error are non-fatal diagnostics accompanying
// successful results.
type Invoker interface {
	Invoke(ctx context.Context, targets []string, spec config.RunSpec) ([]semgrep.Result, []semgrep.Error, error)
}

// InvokerFunc adapts a function to Invoker.
type InvokerFunc func(ctx context.Context, targets []string, spec config.RunSpec) ([]semgrep.Result, []semgrep.Error, error)

func (f InvokerFunc) Invoke(ctx context.Context, targets []string, spec config.RunSpec) ([]semgrep.Result, []semgrep.Error, error) {
	return f(ctx, targets, spec)
}

type Engine struct {
	Invoker Invoker
	Logger  *slog.Logger
}

func NewEngine(inv Invoker) *Engine {
	return &Engine{Invoker: inv}
}

func (e *Engine) logger() *slog.Logger {
	if e.Logger != nil {
		return e.Logger
	}
	return slog.Default()
}

// Run executes every configured run in order against the include paths that
// exist under baseDir and yields the translated issues lazily.
//
// Issues of run N are all yielded before run N+1 is invoked. A run whose
// invocation fails contributes no issues and is reported exactly once through
// onError; the remaining runs still execute. Stopping the iteration early
// skips the runs that have not started.
func (e *Engine) Run(ctx context.Context, baseDir string, cfg *config.Config, onError func(error)) iter.Seq[codeclimate.Issue] {
	if onError == nil {
		onError = func(error) {}
	}

	return func(yield func(codeclimate.Issue) bool) {
		if e == nil || e.Invoker == nil {
			onError(errors.New("engine has no invoker"))
			return
		}
		if cfg == nil {
			onError(errors.New("engine config is nil"))
			return
		}

		log := e.logger()
		targets := ResolveIncludePaths(baseDir, cfg.IncludePaths, log)
		log.Debug("resolved include paths", "configured", len(cfg.IncludePaths), "present", len(targets))

		for i, spec := range cfg.Runs {
			if err := ctx.Err(); err != nil {
				onError(fmt.Errorf("run %d not started: %w", i+1, err))
				return
			}

			results, warnings, err := e.Invoker.Invoke(ctx, targets, spec)
			if err != nil {
				log.Debug("run failed", "run", i+1, "err", err)
				onError(err)
				continue
			}
			for _, w := range warnings {
				log.Warn("semgrep reported a non-fatal error", "run", i+1, "err", w.Error())
			}
			log.Debug("run finished", "run", i+1, "results", len(results))

			for _, r := range results {
				if !yield(TranslateResult(r, baseDir)) {
					return
				}
			}
		}
	}
}
