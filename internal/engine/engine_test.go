package engine

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"ccsemgrep/internal/codeclimate"
	"ccsemgrep/internal/config"
	"ccsemgrep/internal/semgrep"
)

// fakeInvoker returns canned results per run, keyed by the run's pattern.
type fakeInvoker struct {
	results map[string][]semgrep.Result
	errs    map[string]error
	calls   []string
	targets [][]string
}

func (f *fakeInvoker) Invoke(ctx context.Context, targets []string, spec config.RunSpec) ([]semgrep.Result, []semgrep.Error, error) {
	key := runKey(spec)
	f.calls = append(f.calls, key)
	f.targets = append(f.targets, targets)
	if err := f.errs[key]; err != nil {
		return nil, nil, err
	}
	return f.results[key], nil, nil
}

func runKey(spec config.RunSpec) string {
	switch s := spec.(type) {
	case config.InlinePattern:
		return s.Pattern
	case config.ConfigFiles:
		return s.Configs[0]
	}
	return ""
}

func result(checkID, path string) semgrep.Result {
	return semgrep.Result{
		CheckID: checkID,
		Path:    path,
		Start:   semgrep.Position{Line: 1, Col: 1},
		End:     semgrep.Position{Line: 1, Col: 10},
		Extra:   semgrep.Extra{Message: checkID, Severity: semgrep.SeverityError},
	}
}

func inline(pattern string) config.RunSpec {
	return config.InlinePattern{Pattern: pattern, Lang: "py"}
}

func collect(t *testing.T, e *Engine, baseDir string, cfg *config.Config) ([]codeclimate.Issue, []error) {
	t.Helper()
	var errs []error
	var issues []codeclimate.Issue
	for issue := range e.Run(context.Background(), baseDir, cfg, func(err error) { errs = append(errs, err) }) {
		issues = append(issues, issue)
	}
	return issues, errs
}

func checkNames(issues []codeclimate.Issue) []string {
	out := make([]string, 0, len(issues))
	for _, i := range issues {
		out = append(out, i.CheckName)
	}
	return out
}

func TestEngine_Run_FailedRunDoesNotStopOthers(t *testing.T) {
	base := t.TempDir()
	inv := &fakeInvoker{
		results: map[string][]semgrep.Result{
			"one":   {result("a.first", filepath.Join(base, "x.py")), result("a.second", filepath.Join(base, "x.py"))},
			"three": {result("c.only", filepath.Join(base, "y.py"))},
		},
		errs: map[string]error{"two": errors.New("semgrep error: invalid pattern")},
	}
	cfg := &config.Config{Runs: []config.RunSpec{inline("one"), inline("two"), inline("three")}}

	issues, errs := collect(t, NewEngine(inv), base, cfg)

	want := []string{"Semgrep/a.first", "Semgrep/a.second", "Semgrep/c.only"}
	if got := checkNames(issues); !reflect.DeepEqual(got, want) {
		t.Fatalf("issue order mismatch: got %v want %v", got, want)
	}
	if len(errs) != 1 || errs[0].Error() != "semgrep error: invalid pattern" {
		t.Fatalf("expected exactly one run error, got %v", errs)
	}
	if want := []string{"one", "two", "three"}; !reflect.DeepEqual(inv.calls, want) {
		t.Fatalf("invocation order mismatch: got %v want %v", inv.calls, want)
	}
}

func TestEngine_Run_EveryRunFailing(t *testing.T) {
	inv := &fakeInvoker{errs: map[string]error{
		"a": errors.New("first"),
		"b": errors.New("second"),
	}}
	cfg := &config.Config{Runs: []config.RunSpec{inline("a"), inline("b")}}

	issues, errs := collect(t, NewEngine(inv), t.TempDir(), cfg)
	if len(issues) != 0 {
		t.Fatalf("expected no issues, got %d", len(issues))
	}
	if len(errs) != 2 || errs[0].Error() != "first" || errs[1].Error() != "second" {
		t.Fatalf("expected both run errors in order, got %v", errs)
	}
}

func TestEngine_Run_IsLazy(t *testing.T) {
	base := t.TempDir()
	inv := &fakeInvoker{results: map[string][]semgrep.Result{
		"one": {result("a", filepath.Join(base, "x.py")), result("b", filepath.Join(base, "x.py"))},
		"two": {result("c", filepath.Join(base, "x.py"))},
	}}
	cfg := &config.Config{Runs: []config.RunSpec{inline("one"), inline("two")}}

	seq := NewEngine(inv).Run(context.Background(), base, cfg, nil)
	if len(inv.calls) != 0 {
		t.Fatalf("expected no invocation before iteration, got %v", inv.calls)
	}

	for issue := range seq {
		if issue.CheckName != "Semgrep/a" {
			t.Fatalf("unexpected first issue %q", issue.CheckName)
		}
		break
	}
	if want := []string{"one"}; !reflect.DeepEqual(inv.calls, want) {
		t.Fatalf("expected only the first run to be invoked, got %v", inv.calls)
	}
}

func TestEngine_Run_ResolvesIncludePaths(t *testing.T) {
	base := t.TempDir()
	if err := os.WriteFile(filepath.Join(base, "present.py"), []byte("x = 1\n"), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	if err := os.Mkdir(filepath.Join(base, "src"), 0o755); err != nil {
		t.Fatalf("Mkdir failed: %v", err)
	}

	inv := &fakeInvoker{}
	cfg := &config.Config{
		IncludePaths: []string{"nah", "present.py", "src/", "missing/dir"},
		Runs:         []config.RunSpec{inline("one"), config.ConfigFiles{Configs: []string{"r.yml"}}},
	}

	_, errs := collect(t, NewEngine(inv), base, cfg)
	if len(errs) != 0 {
		t.Fatalf("missing include paths must not be reported, got %v", errs)
	}

	want := []string{filepath.Join(base, "present.py"), filepath.Join(base, "src")}
	for i, targets := range inv.targets {
		if !reflect.DeepEqual(targets, want) {
			t.Fatalf("run %d targets mismatch: got %v want %v", i, targets, want)
		}
	}
}

func TestEngine_Run_NoExistingPathsStillInvokes(t *testing.T) {
	inv := &fakeInvoker{}
	cfg := &config.Config{IncludePaths: []string{"gone"}, Runs: []config.RunSpec{inline("one")}}

	issues, errs := collect(t, NewEngine(inv), t.TempDir(), cfg)
	if len(issues) != 0 || len(errs) != 0 {
		t.Fatalf("expected nothing, got %d issues and %v", len(issues), errs)
	}
	if len(inv.calls) != 1 || len(inv.targets[0]) != 0 {
		t.Fatalf("expected one invocation with no targets, got calls=%v targets=%v", inv.calls, inv.targets)
	}
}

func TestEngine_Run_CanceledContext(t *testing.T) {
	inv := &fakeInvoker{}
	cfg := &config.Config{Runs: []config.RunSpec{inline("one"), inline("two")}}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var errs []error
	for range NewEngine(inv).Run(ctx, t.TempDir(), cfg, func(err error) { errs = append(errs, err) }) {
		t.Fatalf("expected no issues")
	}
	if len(inv.calls) != 0 {
		t.Fatalf("expected no invocation, got %v", inv.calls)
	}
	if len(errs) != 1 || !errors.Is(errs[0], context.Canceled) {
		t.Fatalf("expected one cancellation error, got %v", errs)
	}
}

func TestEngine_Run_WithoutInvoker(t *testing.T) {
	var errs []error
	cfg := &config.Config{Runs: []config.RunSpec{inline("one")}}
	for range (&Engine{}).Run(context.Background(), t.TempDir(), cfg, func(err error) { errs = append(errs, err) }) {
		t.Fatalf("expected no issues")
	}
	if len(errs) != 1 {
		t.Fatalf("expected one error, got %v", errs)
	}
}

func TestInvokerFunc(t *testing.T) {
	called := false
	var inv Invoker = InvokerFunc(func(ctx context.Context, targets []string, spec config.RunSpec) ([]semgrep.Result, []semgrep.Error, error) {
		called = true
		return nil, []semgrep.Error{{}}, nil
	})
	cfg := &config.Config{Runs: []config.RunSpec{inline("one")}}
	for range NewEngine(inv).Run(context.Background(), t.TempDir(), cfg, nil) {
	}
	if !called {
		t.Fatalf("expected InvokerFunc to be called")
	}
}

func TestResolveIncludePaths_AbsolutePathsUsedAsGiven(t *testing.T) {
	other := t.TempDir()
	abs := filepath.Join(other, "lib.py")
	if err := os.WriteFile(abs, []byte("x = 1\n"), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	got := ResolveIncludePaths(t.TempDir(), []string{abs}, nil)
	if want := []string{abs}; !reflect.DeepEqual(got, want) {
		t.Fatalf("targets mismatch: got %v want %v", got, want)
	}
}
