package logging

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestInitWriterText(t *testing.T) {
	prev := slog.Default()
	defer slog.SetDefault(prev)

	var buf bytes.Buffer
	InitWriter("info", "text", &buf)
	slog.Info("opened store", "name", "settings")
	slog.Debug("hidden")

	out := buf.String()
	if !strings.Contains(out, "opened store") || !strings.Contains(out, "name=settings") {
		t.Fatalf("unexpected text output: %q", out)
	}
	if strings.Contains(out, "hidden") {
		t.Fatal("debug record should be filtered at info level")
	}
}

func TestInitWriterJSON(t *testing.T) {
	prev := slog.Default()
	defer slog.SetDefault(prev)

	var buf bytes.Buffer
	InitWriter("debug", "JSON", &buf)
	For("prefs").Debug("loaded", "entries", 3)

	out := buf.String()
	if !strings.Contains(out, `"component":"prefs"`) || !strings.Contains(out, `"entries":3`) {
		t.Fatalf("unexpected json output: %q", out)
	}
	SetLevel(slog.LevelInfo)
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"  Error  ", slog.LevelError},
		{"unknown", slog.LevelInfo},
		{"", slog.LevelInfo},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.input); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestValidLevel(t *testing.T) {
	for _, s := range []string{"", "debug", "Info", "warning", "error"} {
		if !ValidLevel(s) {
			t.Errorf("ValidLevel(%q) = false", s)
		}
	}
	for _, s := range []string{"trace", "verbose", "fatal"} {
		if ValidLevel(s) {
			t.Errorf("ValidLevel(%q) = true", s)
		}
	}
}

func TestDynamicHandlerEnabled(t *testing.T) {
	SetLevel(slog.LevelWarn)
	defer SetLevel(slog.LevelInfo)

	h := &dynamicHandler{component: "test"}
	if h.Enabled(context.Background(), slog.LevelDebug) {
		t.Error("debug should not be enabled at warn level")
	}
	if !h.Enabled(context.Background(), slog.LevelError) {
		t.Error("error should be enabled at warn level")
	}
}

func TestForKeepsBoundAttrs(t *testing.T) {
	c := CaptureForTest()
	defer c.Restore()

	For("helper").With("store", "settings").Info("put")

	r, ok := c.Find(slog.LevelInfo, "put")
	if !ok {
		t.Fatal("record not captured")
	}
	if v, _ := Attr(r, "component"); v != "helper" {
		t.Errorf("component = %q, want helper", v)
	}
	if v, _ := Attr(r, "store"); v != "settings" {
		t.Errorf("store = %q, want settings", v)
	}
}

func TestDynamicHandlerWithGroup(t *testing.T) {
	h := &dynamicHandler{component: "test"}
	if h.WithGroup("") != h {
		t.Error("empty group should return the same handler")
	}
	g, ok := h.WithGroup("grp").(*dynamicHandler)
	if !ok || g.group != "grp" {
		t.Fatalf("WithGroup: got %#v", g)
	}
}

func TestCaptureForTest(t *testing.T) {
	c := CaptureForTest()
	defer c.Restore()

	slog.Info("hello")
	slog.Warn("warning message")
	slog.Debug("debug detail")

	if n := len(c.Records()); n != 3 {
		t.Fatalf("expected 3 records, got %d", n)
	}
	if !c.Has(slog.LevelWarn, "warning") {
		t.Error("should have warn 'warning'")
	}
	if c.Has(slog.LevelError, "hello") {
		t.Error("should not match error level")
	}
	if c.Count(slog.LevelDebug) != 1 || c.Count(slog.LevelError) != 0 {
		t.Errorf("counts: debug=%d error=%d", c.Count(slog.LevelDebug), c.Count(slog.LevelError))
	}
}

func TestCaptureRestore(t *testing.T) {
	prev := slog.Default()
	c := CaptureForTest()
	c.Restore()
	if slog.Default() != prev {
		t.Error("default logger not restored")
	}
}

func TestAttrMissing(t *testing.T) {
	c := CaptureForTest()
	defer c.Restore()

	slog.Info("plain")
	r, _ := c.Find(slog.LevelInfo, "plain")
	if _, ok := Attr(r, "nope"); ok {
		t.Error("Attr should report missing keys")
	}
}
