package config

import (
	"fmt"
	"os"
	"runtime"
	"strings"

	"github.com/goccy/go-json"
)

// ValidationSeverity indicates the severity of a validation issue.
type ValidationSeverity string

const (
	// SeverityError indicates a configuration error that prevents a run.
	SeverityError ValidationSeverity = "error"
	// SeverityWarning indicates a potential issue that won't prevent a run.
	SeverityWarning ValidationSeverity = "warning"
)

// ValidationIssue represents a single validation finding.
type ValidationIssue struct {
	Severity ValidationSeverity `json:"severity"`
	Field    string             `json:"field"`
	Message  string             `json:"message"`
}

// ValidationResult holds the complete validation output.
type ValidationResult struct {
	Valid  bool              `json:"valid"`
	File   string            `json:"file"`
	Issues []ValidationIssue `json:"issues,omitempty"`
}

// JSON returns the validation result as formatted JSON.
func (r *ValidationResult) JSON() string {
	data, _ := json.MarshalIndent(r, "", "  ")
	return string(data)
}

func (r *ValidationResult) addError(field, message string) {
	r.Valid = false
	r.Issues = append(r.Issues, ValidationIssue{
		Severity: SeverityError,
		Field:    field,
		Message:  message,
	})
}

func (r *ValidationResult) addWarning(field, message string) {
	r.Issues = append(r.Issues, ValidationIssue{
		Severity: SeverityWarning,
		Field:    field,
		Message:  message,
	})
}

// ValidateFile loads a YAML config file and validates it, returning structured results.
func ValidateFile(path string) *ValidationResult {
	result := &ValidationResult{
		Valid: true,
		File:  path,
	}

	info, err := os.Stat(path)
	if err != nil {
		result.addError("file", fmt.Sprintf("cannot access file: %v", err))
		return result
	}
	if info.IsDir() {
		result.addError("file", "path is a directory, expected a file")
		return result
	}

	cfg, err := LoadYAML(path)
	if err != nil {
		result.addError("yaml", fmt.Sprintf("YAML parse error: %v", err))
		return result
	}

	if err := cfg.Validate(); err != nil {
		msg := err.Error()
		prefix := "configuration validation failed:\n  - "
		if strings.HasPrefix(msg, prefix) {
			for _, item := range strings.Split(strings.TrimPrefix(msg, prefix), "\n  - ") {
				field, message := parseValidationError(item)
				result.addError(field, message)
			}
		} else {
			result.addError("config", msg)
		}
	}

	addWarnings(cfg, result)

	return result
}

// parseValidationError extracts field and message from a validation error string.
// e.g. "trials.count must be > 0, got 0" → field="trials.count", message=...
func parseValidationError(s string) (string, string) {
	s = strings.TrimSpace(s)
	for _, sep := range []string{" must ", " is ", " should "} {
		if idx := strings.Index(s, sep); idx > 0 {
			field := s[:idx]
			if !strings.Contains(field, " ") {
				return field, s
			}
		}
	}
	return "config", s
}

// addWarnings checks for non-fatal issues that are worth flagging.
func addWarnings(cfg *Config, result *ValidationResult) {
	if cfg.Corpus.Path != "" {
		if _, err := os.Stat(cfg.Corpus.Path); err != nil {
			result.addWarning("corpus.path", fmt.Sprintf("file not found: %s", cfg.Corpus.Path))
		}
	}

	if cfg.Estimator.Threshold > 0 && cfg.Estimator.Threshold < 10 {
		result.addWarning("estimator.threshold",
			fmt.Sprintf("very small threshold (%d) is likely to overflow", cfg.Estimator.Threshold))
	}

	if limit := runtime.GOMAXPROCS(0) * 4; cfg.Trials.Parallelism > limit {
		result.addWarning("trials.parallelism",
			fmt.Sprintf("parallelism (%d) is far above available CPUs (%d)", cfg.Trials.Parallelism, runtime.GOMAXPROCS(0)))
	}

	if !cfg.Baselines.Exact && !cfg.Baselines.HLL && !cfg.Baselines.Bloom {
		result.addWarning("baselines", "no baseline counters enabled; estimate accuracy cannot be reported")
	}
}
