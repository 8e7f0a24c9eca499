package engine

import (
	"log/slog"
	"os"
	"path/filepath"
)

// ResolveIncludePaths joins each relative include path with baseDir and keeps
// only the entries that currently exist. Missing entries are skipped, not
// reported. Absolute include paths are used as given.
func ResolveIncludePaths(baseDir string, includePaths []string, logger *slog.Logger) []string {
	if logger == nil {
		logger = slog.Default()
	}

	targets := make([]string, 0, len(includePaths))
	for _, p := range includePaths {
		full := p
		if !filepath.IsAbs(p) {
			full = filepath.Join(baseDir, p)
		}
		if _, err := os.Stat(full); err != nil {
			logger.Debug("skipping include path", "path", p, "err", err)
			continue
		}
		targets = append(targets, full)
	}
	return targets
}
