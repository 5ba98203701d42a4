package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "des.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func hasIssue(r *ValidationResult, severity ValidationSeverity, field string) bool {
	for _, issue := range r.Issues {
		if issue.Severity == severity && issue.Field == field {
			return true
		}
	}
	return false
}

func TestValidateFile_Valid(t *testing.T) {
	path := writeConfig(t, "estimator:\n  threshold: 100\n  seed: 1\n")

	result := ValidateFile(path)
	if !result.Valid {
		t.Errorf("expected valid result, got issues: %+v", result.Issues)
	}
	if result.File != path {
		t.Errorf("expected file %s, got %s", path, result.File)
	}
}

func TestValidateFile_Errors(t *testing.T) {
	tests := []struct {
		name  string
		path  func(t *testing.T) string
		field string
	}{
		{"missing file", func(t *testing.T) string { return filepath.Join(t.TempDir(), "nope.yaml") }, "file"},
		{"directory", func(t *testing.T) string { return t.TempDir() }, "file"},
		{"bad yaml", func(t *testing.T) string { return writeConfig(t, "estimator: [\n") }, "yaml"},
		{"unknown key", func(t *testing.T) string { return writeConfig(t, "estimator:\n  bogus: 1\n") }, "yaml"},
		{"invalid value", func(t *testing.T) string { return writeConfig(t, "trials:\n  count: -3\n") }, "trials.count"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ValidateFile(tt.path(t))
			if result.Valid {
				t.Fatal("expected invalid result")
			}
			if !hasIssue(result, SeverityError, tt.field) {
				t.Errorf("expected error on %s, got %+v", tt.field, result.Issues)
			}
		})
	}
}

func TestValidateFile_Warnings(t *testing.T) {
	path := writeConfig(t, `
estimator:
  threshold: 2
corpus:
  path: /does/not/exist.txt
baselines:
  exact: false
`)

	result := ValidateFile(path)
	if !result.Valid {
		t.Fatalf("warnings must not invalidate the file: %+v", result.Issues)
	}
	for _, field := range []string{"corpus.path", "estimator.threshold", "baselines"} {
		if !hasIssue(result, SeverityWarning, field) {
			t.Errorf("expected warning on %s, got %+v", field, result.Issues)
		}
	}
}

func TestValidationResult_JSON(t *testing.T) {
	result := ValidateFile(writeConfig(t, "logging:\n  format: xml\n"))
	out := result.JSON()

	for _, want := range []string{`"valid": false`, `"field": "logging.format"`, `"severity": "error"`} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %s in JSON output:\n%s", want, out)
		}
	}
}

func TestParseValidationError(t *testing.T) {
	tests := []struct {
		input     string
		wantField string
	}{
		{"trials.count must be > 0, got 0", "trials.count"},
		{"metrics.shutdown_timeout must be >= 0", "metrics.shutdown_timeout"},
		{"something went wrong", "config"},
	}
	for _, tt := range tests {
		field, msg := parseValidationError(tt.input)
		if field != tt.wantField {
			t.Errorf("parseValidationError(%q) field = %q, want %q", tt.input, field, tt.wantField)
		}
		if msg != tt.input {
			t.Errorf("parseValidationError(%q) message = %q", tt.input, msg)
		}
	}
}
