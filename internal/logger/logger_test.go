package logger

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestForFormat(t *testing.T) {
	t.Parallel()

	tests := []struct {
		format string
		want   string
	}{
		{"json", `"msg":"decoded"`},
		{"text", "level=INFO msg=decoded"},
		{"pretty", colorBlue + "INF" + colorReset + " decoded"},
		{"", colorBlue + "INF" + colorReset + " decoded"},
	}
	for _, tc := range tests {
		var buf bytes.Buffer
		log := ForFormat(&buf, tc.format, "info")
		log.Info("decoded", "chunks", 2)
		if !strings.Contains(buf.String(), tc.want) {
			t.Errorf("format %q: expected %q in %q", tc.format, tc.want, buf.String())
		}
	}
}

func TestForFormatLevel(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := ForFormat(&buf, "json", "warn")
	log.Info("hidden")
	if buf.Len() != 0 {
		t.Fatalf("info should be filtered at warn level, got: %s", buf.String())
	}
	log.Warn("unresolved value", "key", "ambient")
	if !strings.Contains(buf.String(), `"key":"ambient"`) {
		t.Fatalf("expected warn record, got: %s", buf.String())
	}
}

func TestDiscard(t *testing.T) {
	t.Parallel()

	log := Discard()
	log.Error("dropped")
	log.With("k", "v").WithGroup("g").Info("dropped")
}

func TestWith(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	log := ForFormat(&buf, FormatJSON, "info")
	log.With("component", "decoder").Info("child message")

	output := buf.String()
	if !strings.Contains(output, `"component":"decoder"`) {
		t.Fatalf("expected component attr in output, got: %s", output)
	}
}

func TestContextRoundTrip(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	log := ForFormat(&buf, FormatJSON, "info")

	ctx := WithContext(context.Background(), log)
	FromContext(ctx).Info("roundtrip test")
	if !strings.Contains(buf.String(), "roundtrip test") {
		t.Fatalf("expected message via context logger, got: %s", buf.String())
	}
	if FromContext(context.Background()) == nil {
		t.Fatal("FromContext with no logger returned nil")
	}
}

func TestParseLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input    string
		expected slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"WARNING", slog.LevelWarn},
		{"info+2", slog.LevelInfo + 2},
		{"unknown", slog.LevelInfo},
		{"", slog.LevelInfo},
		{"DEBUG", slog.LevelDebug},
	}

	for _, tc := range tests {
		if got := ParseLevel(tc.input); got != tc.expected {
			t.Errorf("ParseLevel(%q): expected %v, got %v", tc.input, tc.expected, got)
		}
	}
}

func TestPrettyHandlerEnabled(t *testing.T) {
	t.Parallel()
	h := NewPrettyHandler(&bytes.Buffer{}, &slog.HandlerOptions{Level: slog.LevelWarn})

	if h.Enabled(context.Background(), slog.LevelInfo) {
		t.Error("expected info to be disabled at warn level")
	}
	if !h.Enabled(context.Background(), slog.LevelError) {
		t.Error("expected error to be enabled at warn level")
	}
}

func TestPrettyHandlerGroups(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	h := NewPrettyHandler(&buf, nil)

	logger := slog.New(h.WithGroup("a").WithGroup("b").WithAttrs([]slog.Attr{slog.String("file", "x.glb")}))
	logger.Info("nested", "key", "val", slog.Group("chunk", "type", "BIN"))

	output := buf.String()
	for _, want := range []string{"a.b.file=x.glb", "a.b.key=val", "a.b.chunk.type=BIN"} {
		if !strings.Contains(output, want) {
			t.Fatalf("expected %q in output, got: %s", want, output)
		}
	}
	if h.WithGroup("") != h {
		t.Fatal("WithGroup empty string should return same handler")
	}
}

func TestPrettyQuoting(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	logger := slog.New(NewPrettyHandler(&buf, nil))
	logger.Info("test", "msg", "hello world", "key", "simple")

	output := buf.String()
	if !strings.Contains(output, `msg="hello world"`) {
		t.Fatalf("expected quoted string with spaces, got: %s", output)
	}
	if !strings.Contains(output, "key=simple") {
		t.Fatalf("expected unquoted simple string, got: %s", output)
	}
}

func TestNeedsQuoting(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input    string
		expected bool
	}{
		{"simple", false},
		{"has space", true},
		{"has\ttab", true},
		{`has"quote`, true},
		{"a=b", true},
		{"", false},
		{"/materials/0/values/diffuse", false},
	}

	for _, tc := range tests {
		if got := needsQuoting(tc.input); got != tc.expected {
			t.Errorf("needsQuoting(%q): expected %v, got %v", tc.input, tc.expected, got)
		}
	}
}
