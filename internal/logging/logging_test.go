package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"strings"
	"testing"
	"time"
)

type logEntry struct {
	Timestamp      string                 `json:"Timestamp"`
	SeverityText   string                 `json:"SeverityText"`
	SeverityNumber int                    `json:"SeverityNumber"`
	Body           string                 `json:"Body"`
	Attributes     map[string]interface{} `json:"Attributes"`
	Resource       map[string]string      `json:"Resource"`
}

// capture redirects the default logger into a buffer for the duration of a test.
func capture(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	SetOutput(&buf)
	t.Cleanup(func() {
		SetOutput(os.Stderr)
		SetLevel(LevelInfo)
		SetFormat(FormatJSON)
		SetResource(nil)
	})
	return &buf
}

func decode(t *testing.T, line string) logEntry {
	t.Helper()
	var entry logEntry
	if err := json.Unmarshal([]byte(line), &entry); err != nil {
		t.Fatalf("failed to unmarshal log entry %q: %v", line, err)
	}
	return entry
}

func TestF(t *testing.T) {
	tests := []struct {
		name     string
		keyvals  []interface{}
		expected map[string]interface{}
	}{
		{
			name:     "single pair",
			keyvals:  []interface{}{"key", "value"},
			expected: map[string]interface{}{"key": "value"},
		},
		{
			name:     "multiple pairs",
			keyvals:  []interface{}{"key1", "val1", "key2", 123, "key3", true},
			expected: map[string]interface{}{"key1": "val1", "key2": 123, "key3": true},
		},
		{
			name:     "empty",
			keyvals:  []interface{}{},
			expected: map[string]interface{}{},
		},
		{
			name:     "odd number of args (last ignored)",
			keyvals:  []interface{}{"key1", "val1", "key2"},
			expected: map[string]interface{}{"key1": "val1"},
		},
		{
			name:     "non-string key (ignored)",
			keyvals:  []interface{}{123, "value", "realkey", "realvalue"},
			expected: map[string]interface{}{"realkey": "realvalue"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := F(tt.keyvals...)
			for k, v := range tt.expected {
				if result[k] != v {
					t.Errorf("F() key '%s' = %v, expected %v", k, result[k], v)
				}
			}
			if len(result) != len(tt.expected) {
				t.Errorf("F() returned %d fields, expected %d", len(result), len(tt.expected))
			}
		})
	}
}

func TestLevels(t *testing.T) {
	tests := []struct {
		name     string
		logFn    func(string, ...map[string]interface{})
		severity string
		number   int
	}{
		{"info", Info, "INFO", 9},
		{"warn", Warn, "WARN", 13},
		{"error", Error, "ERROR", 17},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := capture(t)
			tt.logFn("test message", F("key", "value"))

			entry := decode(t, strings.TrimSpace(buf.String()))
			if entry.SeverityText != tt.severity {
				t.Errorf("expected SeverityText %q, got %q", tt.severity, entry.SeverityText)
			}
			if entry.SeverityNumber != tt.number {
				t.Errorf("expected SeverityNumber %d, got %d", tt.number, entry.SeverityNumber)
			}
			if entry.Body != "test message" {
				t.Errorf("expected Body 'test message', got %q", entry.Body)
			}
			if entry.Attributes["key"] != "value" {
				t.Errorf("expected attribute key='value', got '%v'", entry.Attributes["key"])
			}
			if _, err := time.Parse(time.RFC3339, entry.Timestamp); err != nil {
				t.Errorf("Timestamp %q is not RFC3339: %v", entry.Timestamp, err)
			}
		})
	}
}

func TestInfoWithoutFields(t *testing.T) {
	buf := capture(t)
	Info("no fields")

	entry := decode(t, strings.TrimSpace(buf.String()))
	if entry.Body != "no fields" {
		t.Errorf("expected Body 'no fields', got %q", entry.Body)
	}
	if len(entry.Attributes) > 0 {
		t.Errorf("expected no Attributes, got %v", entry.Attributes)
	}
}

func TestSetLevel_SuppressesOutput(t *testing.T) {
	buf := capture(t)

	Debug("hidden by default")
	if buf.Len() != 0 {
		t.Fatalf("debug should be suppressed at INFO, got %q", buf.String())
	}

	SetLevel(LevelDebug)
	Debug("visible", F("event", 1))
	entry := decode(t, strings.TrimSpace(buf.String()))
	if entry.SeverityText != "DEBUG" || entry.SeverityNumber != 5 {
		t.Errorf("unexpected debug entry: %+v", entry)
	}

	buf.Reset()
	SetLevel(LevelError)
	Warn("suppressed")
	if buf.Len() != 0 {
		t.Errorf("warn should be suppressed at ERROR, got %q", buf.String())
	}
}

func TestResourceIncluded(t *testing.T) {
	buf := capture(t)
	SetResource(map[string]string{
		"service.name":    "des",
		"service.version": "1.0.0",
	})

	Info("with resource")

	entry := decode(t, strings.TrimSpace(buf.String()))
	if entry.Resource["service.name"] != "des" {
		t.Errorf("expected service.name 'des', got %q", entry.Resource["service.name"])
	}
	if entry.Resource["service.version"] != "1.0.0" {
		t.Errorf("expected service.version '1.0.0', got %q", entry.Resource["service.version"])
	}
}

func TestResourceOmittedWhenNil(t *testing.T) {
	buf := capture(t)
	Info("no resource")

	if strings.Contains(buf.String(), "Resource") {
		t.Errorf("Resource should be omitted, got %q", buf.String())
	}
}

func TestMultipleLogs(t *testing.T) {
	buf := capture(t)
	Info("first")
	Warn("second")
	Error("third")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(lines))
	}
	for i, want := range []string{"first", "second", "third"} {
		if got := decode(t, lines[i]).Body; got != want {
			t.Errorf("line %d: expected Body %q, got %q", i, want, got)
		}
	}
}

func TestConsoleFormat(t *testing.T) {
	buf := capture(t)
	SetFormat(FormatConsole)

	Info("human readable", F("threshold", 100))

	out := buf.String()
	if strings.HasPrefix(strings.TrimSpace(out), "{") {
		t.Fatalf("console output should not be JSON: %q", out)
	}
	if !strings.Contains(out, "human readable") {
		t.Errorf("console output missing message: %q", out)
	}
}

func TestFatalExits(t *testing.T) {
	buf := capture(t)
	var code int
	exit = func(c int) { code = c }
	defer func() { exit = os.Exit }()

	Fatal("boom", F("reason", "test"))

	if code != 1 {
		t.Errorf("expected exit code 1, got %d", code)
	}
	entry := decode(t, strings.TrimSpace(buf.String()))
	if entry.SeverityText != "FATAL" || entry.SeverityNumber != 21 {
		t.Errorf("unexpected fatal entry: %+v", entry)
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]Level{
		"debug":   LevelDebug,
		"INFO":    LevelInfo,
		"warning": LevelWarn,
		" warn ":  LevelWarn,
		"Error":   LevelError,
		"fatal":   LevelFatal,
		"bogus":   LevelInfo,
		"":        LevelInfo,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestParseFormat(t *testing.T) {
	if ParseFormat("Console") != FormatConsole {
		t.Error("expected console format")
	}
	if ParseFormat("json") != FormatJSON || ParseFormat("") != FormatJSON {
		t.Error("expected json format")
	}
}

func TestSeverityNumber(t *testing.T) {
	for level, want := range map[Level]int{LevelDebug: 5, LevelInfo: 9, LevelWarn: 13, LevelError: 17, LevelFatal: 21} {
		if got := SeverityNumber(level); got != want {
			t.Errorf("SeverityNumber(%s) = %d, want %d", level, got, want)
		}
	}
}
