package semgrep

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleOutput = `{
  "errors": [
    {"code": 3, "level": "warn", "type": ["PartialParsing", [{"path": "x.py"}]], "message": "Syntax error at line x.py:3"}
  ],
  "results": [
    {
      "check_id": "tests.sentinel-body",
      "path": "/code/tests/test_cli.py",
      "start": {"line": 12, "col": 5, "offset": 210},
      "end": {"line": 12, "col": 34, "offset": 239},
      "extra": {
        "message": "test sentinel body",
        "severity": "ERROR",
        "metadata": {"cc.categories": ["Security", "Bug Risk"], "cc.severity": "blocker", "cwe": "CWE-79"},
        "lines": "    raise RuntimeError(\"Testing\")"
      }
    },
    {
      "check_id": "-",
      "path": "/code/main.py",
      "start": {"line": 1, "col": 1},
      "end": {"line": 2, "col": 3},
      "extra": {"message": "eval(...)", "severity": "WARNING", "metadata": {}}
    }
  ],
  "version": "1.50.0"
}`

func TestParseOutput(t *testing.T) {
	out, err := ParseOutput([]byte(sampleOutput))
	require.NoError(t, err)
	require.Len(t, out.Results, 2)

	r := out.Results[0]
	assert.Equal(t, "tests.sentinel-body", r.CheckID)
	assert.Equal(t, Position{Line: 12, Col: 5}, r.Start)
	assert.Equal(t, Position{Line: 12, Col: 34}, r.End)
	assert.Equal(t, SeverityError, r.Extra.Severity)
	assert.Equal(t, []Category{CategorySecurity, CategoryBugRisk}, r.Extra.Metadata.Categories)
	require.NotNil(t, r.Extra.Metadata.Severity)
	assert.Equal(t, CCSeverityBlocker, *r.Extra.Metadata.Severity)

	inline := out.Results[1]
	assert.Equal(t, "-", inline.CheckID)
	assert.Nil(t, inline.Extra.Metadata.Categories)
	assert.Nil(t, inline.Extra.Metadata.Severity)

	require.Len(t, out.Errors, 1)
	e := out.Errors[0]
	require.NotNil(t, e.Type)
	assert.Equal(t, ErrorType("PartialParsing"), *e.Type)
	assert.False(t, e.Fatal())
	assert.Equal(t, "Syntax error at line x.py:3", e.Error())
}

func TestParseOutput_RejectsInvalidDocuments(t *testing.T) {
	tests := map[string]string{
		"not json":          `{"results": [`,
		"unknown severity":  `{"results": [{"check_id": "a", "path": "p", "extra": {"message": "m", "severity": "FATAL"}}]}`,
		"unknown category":  `{"results": [{"check_id": "a", "path": "p", "extra": {"message": "m", "severity": "INFO", "metadata": {"cc.categories": ["Vibes"]}}}]}`,
		"unknown cc sev":    `{"results": [{"check_id": "a", "path": "p", "extra": {"message": "m", "severity": "INFO", "metadata": {"cc.severity": "high"}}}]}`,
		"missing check id":  `{"results": [{"path": "p", "extra": {"message": "m", "severity": "INFO"}}]}`,
		"missing path":      `{"results": [{"check_id": "a", "extra": {"message": "m", "severity": "INFO"}}]}`,
		"missing severity":  `{"results": [{"check_id": "a", "path": "p", "extra": {"message": "m"}}]}`,
		"missing message":   `{"results": [{"check_id": "a", "path": "p", "extra": {"severity": "INFO"}}]}`,
		"severity not text": `{"results": [{"check_id": "a", "path": "p", "extra": {"message": "m", "severity": 3}}]}`,
	}

	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ParseOutput([]byte(doc))
			assert.Error(t, err)
		})
	}
}

func TestError_Message(t *testing.T) {
	str := func(s string) *string { return &s }
	code := 7
	typ := ErrorType("InvalidRuleSchemaError")

	tests := []struct {
		name string
		err  Error
		want string
	}{
		{name: "long message wins", err: Error{LongMsg: str("long"), Message: str("msg"), ShortMsg: str("short")}, want: "long"},
		{name: "message", err: Error{Message: str("msg"), ShortMsg: str("short")}, want: "msg"},
		{name: "short message", err: Error{LongMsg: str("  "), ShortMsg: str("short")}, want: "short"},
		{name: "type", err: Error{Type: &typ}, want: "InvalidRuleSchemaError"},
		{name: "code", err: Error{Code: &code}, want: "semgrep error (code 7)"},
		{name: "empty", err: Error{}, want: "semgrep error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestError_Fatal(t *testing.T) {
	level := func(s string) *string { return &s }
	assert.True(t, (&Error{}).Fatal())
	assert.True(t, (&Error{Level: level("error")}).Fatal())
	assert.True(t, (&Error{Level: level("ERROR")}).Fatal())
	assert.False(t, (&Error{Level: level("warn")}).Fatal())
}

func TestErrorType_UnmarshalJSON(t *testing.T) {
	var e Error
	require.NoError(t, json.Unmarshal([]byte(`{"type": "SemgrepError"}`), &e))
	assert.Equal(t, ErrorType("SemgrepError"), *e.Type)

	require.NoError(t, json.Unmarshal([]byte(`{"type": []}`), &e))
	assert.Equal(t, ErrorType(""), *e.Type)

	assert.Error(t, json.Unmarshal([]byte(`{"type": 5}`), &e))
	assert.Error(t, json.Unmarshal([]byte(`{"type": [5]}`), &e))
}
