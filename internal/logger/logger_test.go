package logger

import (
	"bytes"
	"strings"
	"testing"
)

// resetGlobal tears down the global logger between tests
func resetGlobal(t *testing.T) {
	t.Helper()
	if err := Shutdown(); err != nil {
		t.Fatalf("Shutdown failed: %v", err)
	}
}

func TestInit_Twice(t *testing.T) {
	defer resetGlobal(t)

	var buf bytes.Buffer
	cfg := Config{
		Level:   LevelInfo,
		Outputs: []OutputConfig{{Type: OutputStderr, Writer: &buf}},
	}

	if err := Init(cfg); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	if err := Init(cfg); err == nil {
		t.Error("second Init should fail")
	}
}

func TestGet_BeforeInit(t *testing.T) {
	if _, ok := Get().(*NullLogger); !ok {
		t.Error("Get before Init should return a NullLogger")
	}
}

func TestSlogLogger_Output(t *testing.T) {
	var buf bytes.Buffer
	log, err := NewSlogLogger(Config{
		Level:   LevelDebug,
		Format:  FormatText,
		Outputs: []OutputConfig{{Type: OutputStderr, Writer: &buf}},
	})
	if err != nil {
		t.Fatalf("NewSlogLogger failed: %v", err)
	}

	log.Info("duplicate found", "pid", 4242, "script", "worker.py")

	out := buf.String()
	if !strings.Contains(out, "duplicate found") {
		t.Errorf("message missing from output: %s", out)
	}
	if !strings.Contains(out, "4242") {
		t.Errorf("pid missing from output: %s", out)
	}
}

func TestSlogLogger_LevelFilter(t *testing.T) {
	var buf bytes.Buffer
	log, err := NewSlogLogger(Config{
		Level:   LevelWarn,
		Outputs: []OutputConfig{{Type: OutputStderr, Writer: &buf}},
	})
	if err != nil {
		t.Fatalf("NewSlogLogger failed: %v", err)
	}

	log.Debug("should be filtered")
	log.Info("should be filtered too")
	log.Warn("should appear")

	out := buf.String()
	if strings.Contains(out, "filtered") {
		t.Errorf("low-level messages leaked: %s", out)
	}
	if !strings.Contains(out, "should appear") {
		t.Errorf("warn message missing: %s", out)
	}
}

func TestSlogLogger_SanitizesCmdline(t *testing.T) {
	var buf bytes.Buffer
	log, err := NewSlogLogger(Config{
		Level:   LevelInfo,
		Outputs: []OutputConfig{{Type: OutputStderr, Writer: &buf}},
	})
	if err != nil {
		t.Fatalf("NewSlogLogger failed: %v", err)
	}

	log.Info("match", "cmdline", "python worker.py --password=hunter2")

	if strings.Contains(buf.String(), "hunter2") {
		t.Errorf("secret leaked to log output: %s", buf.String())
	}
}

func TestSlogLogger_With(t *testing.T) {
	var buf bytes.Buffer
	log, err := NewSlogLogger(Config{
		Level:   LevelInfo,
		Outputs: []OutputConfig{{Type: OutputStderr, Writer: &buf}},
	})
	if err != nil {
		t.Fatalf("NewSlogLogger failed: %v", err)
	}

	child := log.With("component", "procscan")
	child.Info("scanning")

	out := buf.String()
	if !strings.Contains(out, "component=procscan") {
		t.Errorf("bound attribute missing: %s", out)
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]Level{
		"debug":   LevelDebug,
		"INFO":    LevelInfo,
		"Warning": LevelWarn,
		"error":   LevelError,
		"bogus":   LevelInfo,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestParseFormat(t *testing.T) {
	if ParseFormat("JSON") != FormatJSON {
		t.Error("expected FormatJSON")
	}
	if ParseFormat("anything-else") != FormatText {
		t.Error("expected FormatText fallback")
	}
}
