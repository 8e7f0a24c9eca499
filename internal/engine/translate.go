package engine

import (
	"path/filepath"

	"ccsemgrep/internal/codeclimate"
	"ccsemgrep/internal/semgrep"
)

const (
	checkNamePrefix = "Semgrep/"

	// inlineCheckID is the check_id Semgrep reports for patterns given on the
	// command line.
	inlineCheckID        = "-"
	inlineCheckName      = checkNamePrefix + "InlinePattern"
	defaultIssueCategory = codeclimate.CategoryBugRisk
)

var severityFromNative = map[semgrep.Severity]codeclimate.Severity{
	semgrep.SeverityInfo:    codeclimate.SeverityInfo,
	semgrep.SeverityWarning: codeclimate.SeverityMinor,
	semgrep.SeverityError:   codeclimate.SeverityMajor,
}

// TranslateResult maps one Semgrep match onto a Code Climate issue. Positions
// are passed through unchanged.
func TranslateResult(r semgrep.Result, baseDir string) codeclimate.Issue {
	return codeclimate.Issue{
		Type:        codeclimate.TypeIssue,
		CheckName:   CheckName(r.CheckID),
		Description: r.Extra.Message,
		Categories:  issueCategories(r.Extra.Metadata),
		Severity:    issueSeverity(r.Extra),
		Location: codeclimate.Location{
			Path: relativePath(baseDir, r.Path),
			Positions: &codeclimate.Positions{
				Begin: codeclimate.Position{Line: r.Start.Line, Column: r.Start.Col},
				End:   codeclimate.Position{Line: r.End.Line, Column: r.End.Col},
			},
		},
	}
}

// CheckName returns the Code Climate check name for a Semgrep check_id.
func CheckName(checkID string) string {
	if checkID == inlineCheckID {
		return inlineCheckName
	}
	return checkNamePrefix + checkID
}

func issueCategories(md semgrep.Metadata) []codeclimate.Category {
	if len(md.Categories) == 0 {
		return []codeclimate.Category{defaultIssueCategory}
	}
	out := make([]codeclimate.Category, 0, len(md.Categories))
	for _, c := range md.Categories {
		out = append(out, codeclimate.Category(c))
	}
	return out
}

func issueSeverity(extra semgrep.Extra) *codeclimate.Severity {
	var sev codeclimate.Severity
	if extra.Metadata.Severity != nil {
		sev = codeclimate.Severity(*extra.Metadata.Severity)
	} else {
		mapped, ok := severityFromNative[extra.Severity]
		if !ok {
			return nil
		}
		sev = mapped
	}
	return &sev
}

// relativePath returns path relative to baseDir. Paths that cannot be
// expressed relative to baseDir are returned as given.
func relativePath(baseDir, path string) string {
	absBase, err := filepath.Abs(baseDir)
	if err != nil {
		return path
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return path
	}
	rel, err := filepath.Rel(absBase, absPath)
	if err != nil {
		return path
	}
	return filepath.ToSlash(rel)
}
