package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]Level{
		"debug":   LevelDebug,
		"INFO":    LevelInfo,
		"warning": LevelWarn,
		" error ": LevelError,
		"":        LevelInfo,
	}
	for in, want := range cases {
		got, err := ParseLevel(in)
		if err != nil {
			t.Fatalf("ParseLevel(%q) failed: %v", in, err)
		}
		if got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}

	if _, err := ParseLevel("loud"); err == nil {
		t.Error("Expected error for unknown level")
	}
}

func TestLogrusLogger_JSONWithFields(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Format = "json"
	cfg.Fields = map[string]string{"service": "notify"}

	var buf bytes.Buffer
	log := NewLogrusLogger(cfg)
	log.SetOutput(&buf)

	log.WithField("component", "hub").Info("connected")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("Expected a JSON log line, got %q: %v", buf.String(), err)
	}
	if entry["message"] != "connected" {
		t.Errorf("Expected message 'connected', got %v", entry["message"])
	}
	if entry["component"] != "hub" || entry["service"] != "notify" {
		t.Errorf("Missing fields in %v", entry)
	}
}

func TestLogrusLogger_DerivedSetLevel(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Format = "text"

	var buf bytes.Buffer
	log := NewLogrusLogger(cfg)
	log.SetOutput(&buf)

	child := log.WithField("component", "transport")
	child.SetLevel(LevelError)
	child.Info("suppressed")
	if buf.Len() != 0 {
		t.Fatalf("Expected info to be suppressed, got %q", buf.String())
	}

	child.Error("boom")
	if !strings.Contains(buf.String(), "boom") {
		t.Errorf("Expected error line, got %q", buf.String())
	}
}

func TestConfig_Validate(t *testing.T) {
	cfg := NewDefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Default config should be valid: %v", err)
	}

	cfg.Output = "file"
	if err := cfg.Validate(); err == nil {
		t.Error("Expected error for file output without path")
	}

	cfg = NewDefaultConfig()
	cfg.Format = "xml"
	if err := cfg.Validate(); err == nil {
		t.Error("Expected error for unknown format")
	}
}
